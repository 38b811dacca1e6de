package domain

import (
	"github.com/shopspring/decimal"

	"github.com/smallbiznis/folio/internal/money"
)

// ValidateBalanced asserts the structural invariants of a draft posting:
// the set is non-empty, every line carries exactly one strictly positive
// side, and total debits equal total credits at monetary scale. Builders for
// bills and debit notes balance by construction; free-form journals lean on
// this as the primary user-facing check.
func ValidateBalanced(lines []DraftLine) error {
	if len(lines) == 0 {
		return ErrEmptyLines
	}

	totalDebit := decimal.Zero
	totalCredit := decimal.Zero
	for _, line := range lines {
		if line.AccountID == 0 {
			return ErrInvalidAccount
		}
		if line.Debit.IsNegative() || line.Credit.IsNegative() {
			return ErrNegativeLine
		}
		debitSet := line.Debit.IsPositive()
		creditSet := line.Credit.IsPositive()
		switch {
		case debitSet && creditSet:
			return ErrBothSidesSet
		case !debitSet && !creditSet:
			return ErrNoSideSet
		}
		totalDebit = money.Round2(totalDebit.Add(line.Debit))
		totalCredit = money.Round2(totalCredit.Add(line.Credit))
	}

	if !totalDebit.Equal(totalCredit) {
		return &BalanceError{TotalDebit: totalDebit, TotalCredit: totalCredit}
	}

	return nil
}
