package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// Unit is a unit of measure. Units that share a BaseUnitID are mutually
// convertible via ConversionRate (quantity in this unit × rate = quantity in
// the base unit). A base unit points at itself with rate 1.
type Unit struct {
	ID    snowflake.ID `gorm:"primaryKey"`
	OrgID snowflake.ID `gorm:"not null;index;uniqueIndex:ux_units_org_code,priority:1"`
	Code  string       `gorm:"type:text;not null;uniqueIndex:ux_units_org_code,priority:2"`
	Name  string       `gorm:"type:text;not null"`

	BaseUnitID     snowflake.ID    `gorm:"not null;index"`
	ConversionRate decimal.Decimal `gorm:"type:numeric(18,6);not null"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Unit) TableName() string { return "units" }

// Item is an expense/inventory item referenced by document lines.
type Item struct {
	ID    snowflake.ID `gorm:"primaryKey"`
	OrgID snowflake.ID `gorm:"not null;index;uniqueIndex:ux_items_org_sku,priority:1"`
	SKU   string       `gorm:"type:text;not null;uniqueIndex:ux_items_org_sku,priority:2"`
	Name  string       `gorm:"type:text;not null"`

	ExpenseAccountID snowflake.ID  `gorm:"not null"`
	DefaultTaxCodeID *snowflake.ID `gorm:"index"`

	// UnitID is the item's native unit; quantities are stored and costed in
	// this unit's base unit.
	UnitID snowflake.ID `gorm:"not null"`

	TrackInventory bool `gorm:"not null;default:false"`
	IsActive       bool `gorm:"not null;default:true"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Item) TableName() string { return "items" }

var (
	ErrItemNotFound = errors.New("item_not_found")
	ErrItemInactive = errors.New("item_inactive")
	ErrUnitNotFound = errors.New("unit_not_found")
)
