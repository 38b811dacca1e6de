package posting

import (
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ledgerdomain "github.com/smallbiznis/folio/internal/ledger/domain"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func idptr(v int64) *snowflake.ID {
	id := snowflake.ID(v)
	return &id
}

func TestBuild_TwoExpenseLinesWithVAT(t *testing.T) {
	vat := snowflake.ID(900)
	vendor := snowflake.ID(70)

	result, err := Build(Input{
		Lines: []Line{
			{ExpenseAccountID: 1, SubTotal: dec("200.00"), Tax: dec("10.00"), TaxCodeID: idptr(50)},
			{ExpenseAccountID: 2, SubTotal: dec("100.00"), Tax: dec("5.00"), TaxCodeID: idptr(50)},
		},
		Total:            dec("315.00"),
		ControlAccountID: 500,
		VATAccountID:     &vat,
		CounterpartyID:   &vendor,
	})
	require.NoError(t, err)

	// 2 expense debits + 1 VAT debit + 1 control credit.
	require.Len(t, result.Lines, 4)

	assert.Equal(t, snowflake.ID(1), result.Lines[0].AccountID)
	assert.True(t, result.Lines[0].Debit.Equal(dec("200.00")))
	assert.Equal(t, snowflake.ID(2), result.Lines[1].AccountID)
	assert.True(t, result.Lines[1].Debit.Equal(dec("100.00")))

	assert.Equal(t, vat, result.Lines[2].AccountID)
	assert.True(t, result.Lines[2].Debit.Equal(dec("15.00")))
	require.NotNil(t, result.Lines[2].TaxCodeID)
	assert.Equal(t, snowflake.ID(50), *result.Lines[2].TaxCodeID)

	credit := result.Lines[3]
	assert.Equal(t, snowflake.ID(500), credit.AccountID)
	assert.True(t, credit.Credit.Equal(dec("315.00")))
	require.NotNil(t, credit.CounterpartyID)
	assert.Equal(t, vendor, *credit.CounterpartyID)

	assert.True(t, result.TotalDebit.Equal(dec("315.00")))
	assert.True(t, result.TotalCredit.Equal(dec("315.00")))
	assert.NoError(t, ledgerdomain.ValidateBalanced(result.Lines))
}

func TestBuild_GroupsByAccountAndSortsDeterministically(t *testing.T) {
	result, err := Build(Input{
		Lines: []Line{
			{ExpenseAccountID: 9, SubTotal: dec("10.00")},
			{ExpenseAccountID: 3, SubTotal: dec("20.00")},
			{ExpenseAccountID: 9, SubTotal: dec("5.00")},
		},
		Total:            dec("35.00"),
		ControlAccountID: 100,
	})
	require.NoError(t, err)
	require.Len(t, result.Lines, 3)

	// Ascending account id, merged amounts.
	assert.Equal(t, snowflake.ID(3), result.Lines[0].AccountID)
	assert.True(t, result.Lines[0].Debit.Equal(dec("20.00")))
	assert.Equal(t, snowflake.ID(9), result.Lines[1].AccountID)
	assert.True(t, result.Lines[1].Debit.Equal(dec("15.00")))

	// Same input twice yields the same draft.
	again, err := Build(Input{
		Lines: []Line{
			{ExpenseAccountID: 9, SubTotal: dec("10.00")},
			{ExpenseAccountID: 3, SubTotal: dec("20.00")},
			{ExpenseAccountID: 9, SubTotal: dec("5.00")},
		},
		Total:            dec("35.00"),
		ControlAccountID: 100,
	})
	require.NoError(t, err)
	assert.Equal(t, result.Lines, again.Lines)
}

func TestBuild_SkipsZeroAmountGroups(t *testing.T) {
	result, err := Build(Input{
		Lines: []Line{
			{ExpenseAccountID: 1, SubTotal: dec("0.00")},
			{ExpenseAccountID: 2, SubTotal: dec("50.00")},
		},
		Total:            dec("50.00"),
		ControlAccountID: 100,
	})
	require.NoError(t, err)
	require.Len(t, result.Lines, 2)
	assert.Equal(t, snowflake.ID(2), result.Lines[0].AccountID)
}

func TestBuild_TaxWithoutVATAccount(t *testing.T) {
	_, err := Build(Input{
		Lines: []Line{
			{ExpenseAccountID: 1, SubTotal: dec("100.00"), Tax: dec("5.00"), TaxCodeID: idptr(50)},
		},
		Total:            dec("105.00"),
		ControlAccountID: 100,
	})
	assert.ErrorIs(t, err, ledgerdomain.ErrVATAccountNotConfigured)
}

func TestBuild_NoTaxCodeGroupsUnderSentinel(t *testing.T) {
	vat := snowflake.ID(900)
	result, err := Build(Input{
		Lines: []Line{
			{ExpenseAccountID: 1, SubTotal: dec("100.00"), Tax: dec("5.00")},
		},
		Total:            dec("105.00"),
		ControlAccountID: 100,
		VATAccountID:     &vat,
	})
	require.NoError(t, err)
	require.Len(t, result.Lines, 3)
	assert.Equal(t, vat, result.Lines[1].AccountID)
	assert.Nil(t, result.Lines[1].TaxCodeID)
}

func TestBuild_BalanceHoldsForArbitraryLineSets(t *testing.T) {
	// The builder balances by construction: total = sum of subtotals + tax.
	vat := snowflake.ID(900)
	lines := []Line{
		{ExpenseAccountID: 1, SubTotal: dec("19.37"), Tax: dec("0.97"), TaxCodeID: idptr(50)},
		{ExpenseAccountID: 2, SubTotal: dec("0.01"), Tax: dec("0.00")},
		{ExpenseAccountID: 1, SubTotal: dec("123.45"), Tax: dec("6.17"), TaxCodeID: idptr(51)},
		{ExpenseAccountID: 7, SubTotal: dec("42.00"), Tax: dec("2.10"), TaxCodeID: idptr(50)},
	}
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.SubTotal).Add(l.Tax)
	}

	result, err := Build(Input{
		Lines:            lines,
		Total:            total,
		ControlAccountID: 100,
		VATAccountID:     &vat,
	})
	require.NoError(t, err)
	assert.True(t, result.TotalDebit.Equal(result.TotalCredit))
	assert.True(t, result.TotalDebit.Equal(dec("194.07")))
	assert.NoError(t, ledgerdomain.ValidateBalanced(result.Lines))
}
