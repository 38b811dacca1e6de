package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// TaxType classifies how a code participates in calculation. Only STANDARD
// codes with a positive rate produce tax amounts; ZERO and EXEMPT codes are
// kept on lines for reporting but never add tax.
type TaxType string

const (
	TaxTypeStandard TaxType = "standard"
	TaxTypeZero     TaxType = "zero"
	TaxTypeExempt   TaxType = "exempt"
)

// TaxCode is an org-scoped tax policy.
// The code string is a stable, engine-facing identifier (immutable once
// created); name is UI-facing and editable.
type TaxCode struct {
	ID    snowflake.ID `gorm:"primaryKey"`
	OrgID snowflake.ID `gorm:"column:org_id;not null;index;uniqueIndex:ux_tax_codes_org_code,priority:1"`

	Code string  `gorm:"type:text;not null;uniqueIndex:ux_tax_codes_org_code,priority:2"`
	Name string  `gorm:"type:text;not null"`
	Type TaxType `gorm:"type:text;not null"`

	// Rate is a percentage (5 means 5%), up to 6 decimal places.
	Rate decimal.Decimal `gorm:"type:numeric(12,6);not null"`

	IsActive bool `gorm:"not null;default:true"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (TaxCode) TableName() string { return "tax_codes" }

func (t *TaxCode) Validate() error {
	if t.Code == "" {
		return ErrInvalidTaxCode
	}
	switch t.Type {
	case TaxTypeStandard, TaxTypeZero, TaxTypeExempt:
	default:
		return ErrInvalidTaxType
	}
	if t.Rate.IsNegative() {
		return ErrInvalidTaxRate
	}
	return nil
}
