package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptyLines    = errors.New("gl_entry_requires_lines")
	ErrBothSidesSet  = errors.New("gl_line_has_debit_and_credit")
	ErrNoSideSet     = errors.New("gl_line_has_no_amount")
	ErrNegativeLine  = errors.New("gl_line_amount_negative")
	ErrInvalidAccount = errors.New("gl_line_missing_account")

	// ErrAlreadyPosted is the translated form of the per-source uniqueness
	// violation: the loser of a concurrent double-post race sees this, not a
	// storage error.
	ErrAlreadyPosted = errors.New("source_already_posted")

	// ErrAlreadyReversed guards the at-most-once reversal link.
	ErrAlreadyReversed = errors.New("gl_header_already_reversed")

	// ErrReversalMissing indicates a void-status document with no reversal
	// header on record. This is a data-integrity defect, not a user error.
	ErrReversalMissing = errors.New("reversal_header_missing")

	// ErrUnbalanced is the target for errors.Is on BalanceError.
	ErrUnbalanced = errors.New("gl_entry_unbalanced")

	ErrVATAccountNotConfigured = errors.New("VAT Receivable account is not configured")
)

// BalanceError reports an unbalanced posting. It always indicates a builder
// bug rather than bad user input, so callers must log it at error severity
// and surface a generic failure.
type BalanceError struct {
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
}

func (e *BalanceError) Error() string {
	return fmt.Sprintf("gl entry unbalanced: debit %s != credit %s", e.TotalDebit, e.TotalCredit)
}

func (e *BalanceError) Unwrap() error { return ErrUnbalanced }
