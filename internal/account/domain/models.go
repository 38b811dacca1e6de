package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
)

type AccountType string

const (
	TypeAsset     AccountType = "asset"
	TypeLiability AccountType = "liability"
	TypeEquity    AccountType = "equity"
	TypeIncome    AccountType = "income"
	TypeExpense   AccountType = "expense"
)

// Well-known subtypes the posting flow cares about.
const (
	SubTypeAccountsPayable    = "accounts_payable"
	SubTypeAccountsReceivable = "accounts_receivable"
	SubTypeVATReceivable      = "vat_receivable"
	SubTypeVATPayable         = "vat_payable"
	SubTypeInventory          = "inventory"
)

// Account is a chart-of-accounts entry. Accounts may be deactivated at any
// time; the posting flow re-validates activity even for accounts that were
// valid when the draft was saved.
type Account struct {
	ID      snowflake.ID `gorm:"primaryKey"`
	OrgID   snowflake.ID `gorm:"not null;index;uniqueIndex:ux_accounts_org_code,priority:1"`
	Code    string       `gorm:"type:text;not null;uniqueIndex:ux_accounts_org_code,priority:2"`
	Name    string       `gorm:"type:text;not null"`
	Type    AccountType  `gorm:"type:text;not null"`
	SubType string       `gorm:"type:text"`

	IsActive bool `gorm:"not null;default:true"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Account) TableName() string { return "accounts" }

var (
	ErrNotFound = errors.New("account_not_found")
	ErrInactive = errors.New("account_inactive")
)

// InactiveError reports which account failed re-validation so the caller can
// self-correct.
type InactiveError struct {
	AccountID snowflake.ID
	Code      string
}

func (e *InactiveError) Error() string {
	return fmt.Sprintf("account %s (%s) is not active", e.AccountID, e.Code)
}

func (e *InactiveError) Unwrap() error { return ErrInactive }

// MissingError reports which referenced account does not exist in the org.
type MissingError struct {
	AccountID snowflake.ID
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("account %s not found", e.AccountID)
}

func (e *MissingError) Unwrap() error { return ErrNotFound }
