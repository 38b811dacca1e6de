package service

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	seqdomain "github.com/smallbiznis/folio/internal/sequence/domain"
)

func TestNext_MonotonicPerOrgAndType(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&seqdomain.Counter{}))

	alloc := NewAllocator(Params{Log: zap.NewNop()})
	ctx := context.Background()

	first, err := alloc.Next(ctx, db, 1, "bill", "BILL")
	require.NoError(t, err)
	assert.Equal(t, "BILL-00001", first)

	second, err := alloc.Next(ctx, db, 1, "bill", "BILL")
	require.NoError(t, err)
	assert.Equal(t, "BILL-00002", second)

	// Counters are independent per document type and per org.
	journal, err := alloc.Next(ctx, db, 1, "journal", "JRN")
	require.NoError(t, err)
	assert.Equal(t, "JRN-00001", journal)

	otherOrg, err := alloc.Next(ctx, db, 2, "bill", "BILL")
	require.NoError(t, err)
	assert.Equal(t, "BILL-00001", otherOrg)
}
