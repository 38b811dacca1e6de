package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Movement is one signed on-hand delta in base units, tied to the document
// line that caused it. Movements are never deleted: voiding a source mirrors
// its movements with the opposite sign.
type Movement struct {
	ID    snowflake.ID `gorm:"primaryKey"`
	OrgID snowflake.ID `gorm:"not null;index"`

	ItemID snowflake.ID `gorm:"not null;index"`

	SourceType   string       `gorm:"type:text;not null;index"`
	SourceID     snowflake.ID `gorm:"not null;index"`
	SourceLineNo int          `gorm:"not null"`

	// Quantity is positive for receipts, negative for consumption.
	Quantity decimal.Decimal `gorm:"type:numeric(20,4);not null"`
	UnitCost decimal.Decimal `gorm:"type:numeric(20,6);not null"`

	MovedAt   time.Time `gorm:"not null;index"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Movement) TableName() string { return "inventory_movements" }

var (
	// ErrNegativeStock is the target for errors.Is on PolicyError.
	ErrNegativeStock = errors.New("negative_stock_blocked")
)

// PolicyError reports a consumption that would drive an item below zero
// on-hand under the BLOCK policy.
type PolicyError struct {
	ItemID    snowflake.ID
	Projected decimal.Decimal
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("item %s would go to %s on hand", e.ItemID, e.Projected)
}

func (e *PolicyError) Unwrap() error { return ErrNegativeStock }

// Warning is attached to responses/audit entries under the WARN policy or
// an authorized override of BLOCK.
type Warning struct {
	ItemID         snowflake.ID    `json:"item_id"`
	Projected      decimal.Decimal `json:"projected_on_hand"`
	OverrideReason string          `json:"override_reason,omitempty"`
}

// Override is an explicit request to post through a BLOCK policy.
type Override struct {
	Requested bool
	Permitted bool
	Reason    string
}
