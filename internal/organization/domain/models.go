package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// VATBehavior controls whether stored unit prices exclude or include tax.
// The behavior is an org-wide policy selected once per calculation run,
// never per line.
type VATBehavior string

const (
	VATBehaviorExclusive VATBehavior = "exclusive"
	VATBehaviorInclusive VATBehavior = "inclusive"
)

// NegativeStockPolicy governs whether on-hand inventory may go below zero.
type NegativeStockPolicy string

const (
	NegativeStockAllow NegativeStockPolicy = "allow"
	NegativeStockWarn  NegativeStockPolicy = "warn"
	NegativeStockBlock NegativeStockPolicy = "block"
)

// Organization is the tenant root. Every document, account, and ledger row
// is scoped to exactly one organization.
type Organization struct {
	ID   snowflake.ID `gorm:"primaryKey"`
	Name string       `gorm:"type:text;not null"`

	// BaseCurrency is the only currency this org posts in.
	BaseCurrency string `gorm:"type:text;not null;default:'USD'"`

	VATEnabled  bool        `gorm:"not null;default:false"`
	VATBehavior VATBehavior `gorm:"type:text;not null;default:'exclusive'"`

	// LockDate closes the books: transactions dated on or before it cannot
	// be created, edited, posted, or voided.
	LockDate *time.Time `gorm:"type:date"`

	NegativeStockPolicy  NegativeStockPolicy `gorm:"type:text;not null;default:'warn'"`
	DateEffectiveCosting bool                `gorm:"not null;default:false"`

	// Control accounts resolved at post time.
	APControlAccountID     *snowflake.ID
	ARControlAccountID     *snowflake.ID
	VATReceivableAccountID *snowflake.ID

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Organization) TableName() string { return "organizations" }

// Locked reports whether a transaction date falls within the closed period.
func (o *Organization) Locked(date time.Time) bool {
	if o.LockDate == nil {
		return false
	}
	return !date.After(*o.LockDate)
}

var (
	ErrNotFound            = errors.New("organization_not_found")
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidVATBehavior  = errors.New("invalid_vat_behavior")
	ErrInvalidStockPolicy  = errors.New("invalid_negative_stock_policy")
)
