package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	auditdomain "github.com/smallbiznis/folio/internal/audit/domain"
	"github.com/smallbiznis/folio/internal/audit/repository"
	"github.com/smallbiznis/folio/internal/auditcontext"
	"github.com/smallbiznis/folio/internal/orgcontext"
	"github.com/smallbiznis/folio/pkg/db/pagination"
)

func setup(t *testing.T) (auditdomain.Service, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&auditdomain.AuditLog{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
	})
	return svc, db
}

func orgCtx(orgID, actorID snowflake.ID) context.Context {
	ctx := orgcontext.WithOrgID(context.Background(), orgID)
	return orgcontext.WithActorID(ctx, actorID)
}

func TestRecord_StampsContext(t *testing.T) {
	svc, db := setup(t)

	ctx := orgCtx(1, 42)
	ctx = auditcontext.WithRequestID(ctx, "req-123")
	ctx = auditcontext.WithIPAddress(ctx, "10.0.0.1")

	docID := "9001"
	require.NoError(t, svc.Record(ctx, auditdomain.ActionDocumentPosted, auditdomain.TargetTypeDocument, &docID, map[string]any{
		"document_number": "BILL-00001",
	}))

	var entry auditdomain.AuditLog
	require.NoError(t, db.First(&entry).Error)
	assert.Equal(t, auditdomain.ActionDocumentPosted, entry.Action)
	require.NotNil(t, entry.OrgID)
	assert.EqualValues(t, 1, *entry.OrgID)
	assert.Equal(t, string(auditdomain.ActorTypeUser), entry.ActorType)
	require.NotNil(t, entry.ActorID)
	assert.Equal(t, "42", *entry.ActorID)
	require.NotNil(t, entry.TargetID)
	assert.Equal(t, "9001", *entry.TargetID)
	assert.Equal(t, "req-123", entry.Metadata["request_id"])
	assert.Equal(t, "BILL-00001", entry.Metadata["document_number"])
	require.NotNil(t, entry.IPAddress)
	assert.Equal(t, "10.0.0.1", *entry.IPAddress)
}

func TestRecord_SystemActorWhenNoUser(t *testing.T) {
	svc, db := setup(t)

	ctx := orgcontext.WithOrgID(context.Background(), 1)
	require.NoError(t, svc.Record(ctx, auditdomain.ActionOrderApproved, auditdomain.TargetTypeDocument, nil, nil))

	var entry auditdomain.AuditLog
	require.NoError(t, db.First(&entry).Error)
	assert.Equal(t, string(auditdomain.ActorTypeSystem), entry.ActorType)
	assert.Nil(t, entry.ActorID)
}

func TestRecord_EmptyActionRejected(t *testing.T) {
	svc, _ := setup(t)
	err := svc.Record(orgCtx(1, 42), "  ", auditdomain.TargetTypeDocument, nil, nil)
	assert.ErrorIs(t, err, auditdomain.ErrInvalidAction)
}

func TestList_FiltersAndPaginates(t *testing.T) {
	svc, _ := setup(t)
	ctx := orgCtx(1, 42)

	for i := 0; i < 5; i++ {
		require.NoError(t, svc.Record(ctx, auditdomain.ActionDocumentPosted, auditdomain.TargetTypeDocument, nil, nil))
	}
	require.NoError(t, svc.Record(ctx, auditdomain.ActionDocumentVoided, auditdomain.TargetTypeDocument, nil, nil))
	// Another org's entries stay invisible.
	require.NoError(t, svc.Record(orgCtx(2, 42), auditdomain.ActionDocumentPosted, auditdomain.TargetTypeDocument, nil, nil))

	resp, err := svc.List(ctx, auditdomain.ListAuditLogRequest{
		Pagination: pagination.Pagination{PageSize: 3},
		Action:     auditdomain.ActionDocumentPosted,
	})
	require.NoError(t, err)
	assert.Len(t, resp.AuditLogs, 3)
	assert.True(t, resp.HasMore)
	require.NotEmpty(t, resp.NextPageToken)

	next, err := svc.List(ctx, auditdomain.ListAuditLogRequest{
		Pagination: pagination.Pagination{PageSize: 3, PageToken: resp.NextPageToken},
		Action:     auditdomain.ActionDocumentPosted,
	})
	require.NoError(t, err)
	assert.Len(t, next.AuditLogs, 2)
	assert.False(t, next.HasMore)
}

func TestList_RequiresOrganization(t *testing.T) {
	svc, _ := setup(t)
	_, err := svc.List(context.Background(), auditdomain.ListAuditLogRequest{})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidOrganization)
}

func TestList_BadPageToken(t *testing.T) {
	svc, _ := setup(t)
	_, err := svc.List(orgCtx(1, 42), auditdomain.ListAuditLogRequest{
		Pagination: pagination.Pagination{PageToken: "not-a-cursor"},
	})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidPageToken)
}
