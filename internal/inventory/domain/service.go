package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	orgdomain "github.com/smallbiznis/folio/internal/organization/domain"
)

// Service evaluates negative-stock policy and records movements. All methods
// run on the caller's transaction.
type Service interface {
	// OnHand sums prior movement quantities for the item, optionally cut off
	// at an effective date when the org enables date-effective costing.
	OnHand(ctx context.Context, tx *gorm.DB, orgID, itemID snowflake.ID, asOf *time.Time) (decimal.Decimal, error)

	// Evaluate checks aggregated per-item deltas against policy. It only
	// inspects consuming (negative) deltas; restoring quantity always passes.
	// Under WARN, or BLOCK with a permitted and requested override, negative
	// projections come back as warnings instead of errors.
	Evaluate(ctx context.Context, tx *gorm.DB, orgID snowflake.ID, deltas map[snowflake.ID]decimal.Decimal, policy orgdomain.NegativeStockPolicy, override Override, asOf *time.Time) ([]Warning, error)

	// Record inserts the movements.
	Record(ctx context.Context, tx *gorm.DB, movements []Movement) error

	// NegateForSource mirrors every movement of the source with the opposite
	// sign, preserving history instead of deleting it.
	NegateForSource(ctx context.Context, tx *gorm.DB, orgID snowflake.ID, sourceType string, sourceID snowflake.ID, movedAt time.Time) error
}
