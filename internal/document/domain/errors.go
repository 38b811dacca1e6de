package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("document_not_found")

	// Validation failures: client-correctable input or business-rule breaks.
	ErrNoLines             = errors.New("document_requires_lines")
	ErrDiscountExceedsLine = errors.New("discount exceeds line amount")
	ErrNegativeSubTotal    = errors.New("line amount is negative")
	ErrVATDisabled         = errors.New("tax code supplied but VAT is disabled for this organization")
	ErrIncompatibleUnit    = errors.New("incompatible unit")
	ErrInvalidQuantity     = errors.New("invalid_quantity")
	ErrInvalidUnitPrice    = errors.New("invalid_unit_price")
	ErrInvalidDiscount     = errors.New("invalid_discount")
	ErrMissingAccount      = errors.New("line requires an account or an item")
	ErrInvalidType         = errors.New("invalid_document_type")
	ErrCurrencyMismatch    = errors.New("document currency must match organization base currency")
	ErrJournalUnbalanced   = errors.New("journal debits and credits must balance")

	// Conflict: wrong state for the requested transition, or a concurrent
	// writer won the race.
	ErrInvalidTransition = errors.New("invalid_status_transition")
	ErrNotDraft          = errors.New("document_not_draft")
	ErrNotPosted         = errors.New("document_not_posted")
	ErrNotPurchaseOrder  = errors.New("document_not_purchase_order")
	ErrOpenAllocations   = errors.New("document_has_open_allocations")
	ErrAllocationExceeds = errors.New("allocation exceeds unallocated amount")
	ErrAllocationExists  = errors.New("allocation_already_exists")
	ErrAllocationMissing = errors.New("allocation_not_found")
	ErrReceiveExceeds    = errors.New("received quantity exceeds ordered quantity")

	// Configuration failures discovered at post time.
	ErrControlAccountNotConfigured = errors.New("control account is not configured for this organization")

	// Policy: blocked by an org-level rule, overridable where noted.
	ErrLockDate = errors.New("transaction date falls within the locked accounting period")
)

// TransitionError carries the offending states for conflict messages.
type TransitionError struct {
	From Status
	To   Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("cannot transition document from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// LineError wraps a validation failure with its 1-based line position so the
// caller can point at the offending row.
type LineError struct {
	LineNo int
	Err    error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.LineNo, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }
