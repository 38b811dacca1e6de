package domain

import (
	"errors"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestValidateBalanced_OK(t *testing.T) {
	err := ValidateBalanced([]DraftLine{
		{AccountID: 1, Debit: dec("200.00")},
		{AccountID: 2, Debit: dec("115.00")},
		{AccountID: 3, Credit: dec("315.00")},
	})
	assert.NoError(t, err)
}

func TestValidateBalanced_Empty(t *testing.T) {
	err := ValidateBalanced(nil)
	assert.ErrorIs(t, err, ErrEmptyLines)
}

func TestValidateBalanced_BothSides(t *testing.T) {
	err := ValidateBalanced([]DraftLine{
		{AccountID: 1, Debit: dec("10.00"), Credit: dec("10.00")},
		{AccountID: 2, Credit: dec("10.00")},
	})
	assert.ErrorIs(t, err, ErrBothSidesSet)
}

func TestValidateBalanced_NoSide(t *testing.T) {
	err := ValidateBalanced([]DraftLine{
		{AccountID: 1},
		{AccountID: 2, Credit: dec("10.00")},
	})
	assert.ErrorIs(t, err, ErrNoSideSet)
}

func TestValidateBalanced_Negative(t *testing.T) {
	err := ValidateBalanced([]DraftLine{
		{AccountID: 1, Debit: dec("-5.00")},
		{AccountID: 2, Credit: dec("-5.00")},
	})
	assert.ErrorIs(t, err, ErrNegativeLine)
}

func TestValidateBalanced_Unbalanced(t *testing.T) {
	err := ValidateBalanced([]DraftLine{
		{AccountID: 1, Debit: dec("100.00")},
		{AccountID: 2, Credit: dec("99.99")},
	})
	assert.ErrorIs(t, err, ErrUnbalanced)

	var balanceErr *BalanceError
	assert.True(t, errors.As(err, &balanceErr))
	assert.True(t, balanceErr.TotalDebit.Equal(dec("100.00")))
	assert.True(t, balanceErr.TotalCredit.Equal(dec("99.99")))
}

func TestReversed_SwapsSides(t *testing.T) {
	taxCode := snowflake.ID(77)
	lines := []GLLine{
		{AccountID: 1, LineNo: 1, Debit: dec("200.00"), Credit: decimal.Zero},
		{AccountID: 9, LineNo: 2, Debit: dec("15.00"), Credit: decimal.Zero, TaxCodeID: &taxCode},
		{AccountID: 4, LineNo: 3, Debit: decimal.Zero, Credit: dec("215.00")},
	}

	reversed := Reversed(lines)
	assert.Len(t, reversed, 3)
	assert.True(t, reversed[0].Credit.Equal(dec("200.00")))
	assert.True(t, reversed[0].Debit.IsZero())
	assert.Equal(t, lines[1].TaxCodeID, reversed[1].TaxCodeID)
	assert.True(t, reversed[2].Debit.Equal(dec("215.00")))

	// A reversal of balanced lines is itself balanced.
	assert.NoError(t, ValidateBalanced(reversed))
}
