package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	inventorydomain "github.com/smallbiznis/folio/internal/inventory/domain"
	orgdomain "github.com/smallbiznis/folio/internal/organization/domain"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func setup(t *testing.T) (*gorm.DB, inventorydomain.Service) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&inventorydomain.Movement{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return db, NewService(Params{Log: zap.NewNop(), GenID: node})
}

func seed(t *testing.T, db *gorm.DB, svc inventorydomain.Service, orgID, itemID snowflake.ID, qty string) {
	t.Helper()
	require.NoError(t, svc.Record(context.Background(), db, []inventorydomain.Movement{
		{
			OrgID:      orgID,
			ItemID:     itemID,
			SourceType: "purchase_order",
			SourceID:   snowflake.ID(999),
			Quantity:   dec(qty),
			UnitCost:   dec("2.5"),
			MovedAt:    time.Now().UTC().Add(-time.Hour),
		},
	}))
}

func TestOnHand_SumsMovements(t *testing.T) {
	db, svc := setup(t)
	seed(t, db, svc, 1, 10, "5")
	seed(t, db, svc, 1, 10, "-2")

	onHand, err := svc.OnHand(context.Background(), db, 1, 10, nil)
	require.NoError(t, err)
	assert.True(t, onHand.Equal(dec("3")), "on hand %s", onHand)
}

func TestEvaluate_BlockWithoutOverride(t *testing.T) {
	db, svc := setup(t)
	seed(t, db, svc, 1, 10, "1")

	_, err := svc.Evaluate(context.Background(), db, 1,
		map[snowflake.ID]decimal.Decimal{10: dec("-3")},
		orgdomain.NegativeStockBlock,
		inventorydomain.Override{},
		nil,
	)
	assert.ErrorIs(t, err, inventorydomain.ErrNegativeStock)

	var policyErr *inventorydomain.PolicyError
	require.ErrorAs(t, err, &policyErr)
	assert.Equal(t, snowflake.ID(10), policyErr.ItemID)
	assert.True(t, policyErr.Projected.Equal(dec("-2")))
}

func TestEvaluate_BlockWithPermittedOverride(t *testing.T) {
	db, svc := setup(t)
	seed(t, db, svc, 1, 10, "1")

	warnings, err := svc.Evaluate(context.Background(), db, 1,
		map[snowflake.ID]decimal.Decimal{10: dec("-3")},
		orgdomain.NegativeStockBlock,
		inventorydomain.Override{Requested: true, Permitted: true, Reason: "stock count pending"},
		nil,
	)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal(t, "stock count pending", warnings[0].OverrideReason)
	assert.True(t, warnings[0].Projected.Equal(dec("-2")))
}

func TestEvaluate_OverrideRequestedWithoutPermission(t *testing.T) {
	db, svc := setup(t)
	seed(t, db, svc, 1, 10, "1")

	_, err := svc.Evaluate(context.Background(), db, 1,
		map[snowflake.ID]decimal.Decimal{10: dec("-3")},
		orgdomain.NegativeStockBlock,
		inventorydomain.Override{Requested: true, Permitted: false, Reason: "please"},
		nil,
	)
	assert.ErrorIs(t, err, inventorydomain.ErrNegativeStock)
}

func TestEvaluate_WarnStillPosts(t *testing.T) {
	db, svc := setup(t)
	seed(t, db, svc, 1, 10, "1")

	warnings, err := svc.Evaluate(context.Background(), db, 1,
		map[snowflake.ID]decimal.Decimal{10: dec("-3")},
		orgdomain.NegativeStockWarn,
		inventorydomain.Override{},
		nil,
	)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Empty(t, warnings[0].OverrideReason)
}

func TestEvaluate_AllowSkipsCheck(t *testing.T) {
	db, svc := setup(t)

	warnings, err := svc.Evaluate(context.Background(), db, 1,
		map[snowflake.ID]decimal.Decimal{10: dec("-100")},
		orgdomain.NegativeStockAllow,
		inventorydomain.Override{},
		nil,
	)
	require.NoError(t, err)
	assert.Empty(t, warnings)
}

func TestEvaluate_RestoringDirectionAlwaysPasses(t *testing.T) {
	db, svc := setup(t)

	warnings, err := svc.Evaluate(context.Background(), db, 1,
		map[snowflake.ID]decimal.Decimal{10: dec("4")},
		orgdomain.NegativeStockBlock,
		inventorydomain.Override{},
		nil,
	)
	require.NoError(t, err)
	assert.Empty(t, warnings)
}

func TestNegateForSource_MirrorsMovements(t *testing.T) {
	db, svc := setup(t)
	ctx := context.Background()

	require.NoError(t, svc.Record(ctx, db, []inventorydomain.Movement{
		{OrgID: 1, ItemID: 10, SourceType: "debit_note", SourceID: 55, SourceLineNo: 1, Quantity: dec("-2"), UnitCost: dec("3"), MovedAt: time.Now().UTC()},
		{OrgID: 1, ItemID: 11, SourceType: "debit_note", SourceID: 55, SourceLineNo: 2, Quantity: dec("-1"), UnitCost: dec("4"), MovedAt: time.Now().UTC()},
	}))

	require.NoError(t, svc.NegateForSource(ctx, db, 1, "debit_note", 55, time.Now().UTC()))

	// Originals untouched, mirrors added with opposite sign.
	var count int64
	require.NoError(t, db.Model(&inventorydomain.Movement{}).Where("source_id = ?", 55).Count(&count).Error)
	assert.EqualValues(t, 4, count)

	onHand, err := svc.OnHand(ctx, db, 1, 10, nil)
	require.NoError(t, err)
	assert.True(t, onHand.IsZero(), "on hand %s", onHand)
}

func TestOnHand_EffectiveDateCutoff(t *testing.T) {
	db, svc := setup(t)
	ctx := context.Background()

	earlier := time.Now().UTC().Add(-2 * time.Hour)
	later := time.Now().UTC().Add(2 * time.Hour)

	require.NoError(t, svc.Record(ctx, db, []inventorydomain.Movement{
		{OrgID: 1, ItemID: 10, SourceType: "purchase_order", SourceID: 1, Quantity: dec("5"), UnitCost: dec("1"), MovedAt: earlier},
		{OrgID: 1, ItemID: 10, SourceType: "purchase_order", SourceID: 2, Quantity: dec("7"), UnitCost: dec("1"), MovedAt: later},
	}))

	cutoff := time.Now().UTC()
	onHand, err := svc.OnHand(ctx, db, 1, 10, &cutoff)
	require.NoError(t, err)
	assert.True(t, onHand.Equal(dec("5")), "on hand %s", onHand)
}
