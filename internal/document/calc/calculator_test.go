package calc

import (
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	documentdomain "github.com/smallbiznis/folio/internal/document/domain"
	itemdomain "github.com/smallbiznis/folio/internal/item/domain"
	orgdomain "github.com/smallbiznis/folio/internal/organization/domain"
	taxdomain "github.com/smallbiznis/folio/internal/tax/domain"
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

const (
	kgUnitID   = snowflake.ID(10)
	gramUnitID = snowflake.ID(11)
	itemID     = snowflake.ID(20)
	taxFiveID  = snowflake.ID(30)
	expenseID  = snowflake.ID(40)
)

func testLookups() Lookups {
	return Lookups{
		Items: map[snowflake.ID]itemdomain.Item{
			itemID: {
				ID:               itemID,
				ExpenseAccountID: expenseID,
				DefaultTaxCodeID: idptr(int64(taxFiveID)),
				UnitID:           kgUnitID,
				TrackInventory:   true,
				IsActive:         true,
			},
		},
		TaxCodes: map[snowflake.ID]taxdomain.TaxCode{
			taxFiveID: {
				ID:       taxFiveID,
				Code:     "VAT5",
				Type:     taxdomain.TaxTypeStandard,
				Rate:     dec("5"),
				IsActive: true,
			},
		},
		Units: map[snowflake.ID]itemdomain.Unit{
			kgUnitID:   {ID: kgUnitID, Code: "kg", BaseUnitID: kgUnitID, ConversionRate: dec("1")},
			gramUnitID: {ID: gramUnitID, Code: "g", BaseUnitID: kgUnitID, ConversionRate: dec("0.001")},
		},
	}
}

func exclusiveOpts() Options {
	return Options{VATEnabled: true, VATBehavior: orgdomain.VATBehaviorExclusive}
}

func TestCalculate_DefaultTaxCode(t *testing.T) {
	// Item default tax 5%, qty 2, price 100: 200.00 + 10.00 = 210.00.
	result, err := Calculate([]LineInput{
		{ItemID: idptr(int64(itemID)), Quantity: dec("2"), UnitPrice: dec("100"), Discount: decimal.Zero},
	}, testLookups(), exclusiveOpts())
	require.NoError(t, err)
	require.Len(t, result.Lines, 1)

	line := result.Lines[0]
	assert.Equal(t, 1, line.LineNo)
	assert.Equal(t, expenseID, line.AccountID)
	require.NotNil(t, line.TaxCodeID)
	assert.Equal(t, taxFiveID, *line.TaxCodeID)
	assert.True(t, line.LineSubTotal.Equal(dec("200.00")), "subtotal %s", line.LineSubTotal)
	assert.True(t, line.LineTax.Equal(dec("10.00")), "tax %s", line.LineTax)
	assert.True(t, line.LineTotal.Equal(dec("210.00")), "total %s", line.LineTotal)

	assert.True(t, result.SubTotal.Equal(dec("200.00")))
	assert.True(t, result.TaxTotal.Equal(dec("10.00")))
	assert.True(t, result.Total.Equal(dec("210.00")))
}

func TestCalculate_UnitConversion(t *testing.T) {
	// 500 g at 2 per kg-equivalent: 0.5 kg × 2 = 1.00.
	result, err := Calculate([]LineInput{
		{
			AccountID: expenseID,
			ItemID:    idptr(int64(itemID)),
			TaxCodeID: nil,
			UnitID:    idptr(int64(gramUnitID)),
			Quantity:  dec("500"),
			UnitPrice: dec("2"),
			Discount:  decimal.Zero,
		},
	}, testLookups(), exclusiveOpts())
	require.NoError(t, err)

	line := result.Lines[0]
	assert.True(t, line.BaseQuantity.Equal(dec("0.5")), "base qty %s", line.BaseQuantity)
	assert.True(t, line.LineSubTotal.Equal(dec("1.00")), "subtotal %s", line.LineSubTotal)
}

func TestCalculate_IncompatibleUnit(t *testing.T) {
	lookups := testLookups()
	literUnitID := snowflake.ID(12)
	lookups.Units[literUnitID] = itemdomain.Unit{
		ID: literUnitID, Code: "l", BaseUnitID: literUnitID, ConversionRate: dec("1"),
	}

	_, err := Calculate([]LineInput{
		{
			ItemID:    idptr(int64(itemID)),
			UnitID:    idptr(int64(literUnitID)),
			Quantity:  dec("1"),
			UnitPrice: dec("2"),
		},
	}, lookups, exclusiveOpts())
	assert.ErrorIs(t, err, documentdomain.ErrIncompatibleUnit)

	var lineErr *documentdomain.LineError
	require.ErrorAs(t, err, &lineErr)
	assert.Equal(t, 1, lineErr.LineNo)
}

func TestCalculate_DiscountExceedsLine(t *testing.T) {
	_, err := Calculate([]LineInput{
		{AccountID: expenseID, Quantity: dec("1"), UnitPrice: dec("10"), Discount: dec("15")},
	}, testLookups(), exclusiveOpts())
	assert.ErrorIs(t, err, documentdomain.ErrDiscountExceedsLine)
}

func TestCalculate_VATDisabledWithTaxCode(t *testing.T) {
	opts := Options{VATEnabled: false, VATBehavior: orgdomain.VATBehaviorExclusive}
	_, err := Calculate([]LineInput{
		{AccountID: expenseID, TaxCodeID: idptr(int64(taxFiveID)), Quantity: dec("1"), UnitPrice: dec("10")},
	}, testLookups(), opts)
	assert.ErrorIs(t, err, documentdomain.ErrVATDisabled)
}

func TestCalculate_UnknownTaxCode(t *testing.T) {
	_, err := Calculate([]LineInput{
		{AccountID: expenseID, TaxCodeID: idptr(999), Quantity: dec("1"), UnitPrice: dec("10")},
	}, testLookups(), exclusiveOpts())
	assert.ErrorIs(t, err, taxdomain.ErrNotFound)
}

func TestCalculate_InactiveItem(t *testing.T) {
	lookups := testLookups()
	inactive := lookups.Items[itemID]
	inactive.IsActive = false
	lookups.Items[itemID] = inactive

	_, err := Calculate([]LineInput{
		{ItemID: idptr(int64(itemID)), Quantity: dec("1"), UnitPrice: dec("10")},
	}, lookups, exclusiveOpts())
	assert.ErrorIs(t, err, itemdomain.ErrItemInactive)
}

func TestCalculate_InclusiveVAT(t *testing.T) {
	opts := Options{VATEnabled: true, VATBehavior: orgdomain.VATBehaviorInclusive}
	// Gross 210.00 tax-inclusive at 5%: subtotal 200.00, tax 10.00.
	result, err := Calculate([]LineInput{
		{
			AccountID: expenseID,
			TaxCodeID: idptr(int64(taxFiveID)),
			Quantity:  dec("2"),
			UnitPrice: dec("105"),
			Discount:  decimal.Zero,
		},
	}, testLookups(), opts)
	require.NoError(t, err)

	line := result.Lines[0]
	assert.True(t, line.LineSubTotal.Equal(dec("200.00")), "subtotal %s", line.LineSubTotal)
	assert.True(t, line.LineTax.Equal(dec("10.00")), "tax %s", line.LineTax)
	assert.True(t, line.LineTotal.Equal(dec("210.00")), "total %s", line.LineTotal)
}

func TestCalculate_RunningTotalsRoundEachStep(t *testing.T) {
	// Three lines whose raw values carry sub-cent parts; totals must equal
	// the sum of the individually rounded lines, not the rounded raw sum.
	lines := []LineInput{
		{AccountID: expenseID, Quantity: dec("1"), UnitPrice: dec("0.333")},
		{AccountID: expenseID, Quantity: dec("1"), UnitPrice: dec("0.333")},
		{AccountID: expenseID, Quantity: dec("1"), UnitPrice: dec("0.333")},
	}
	result, err := Calculate(lines, testLookups(), exclusiveOpts())
	require.NoError(t, err)

	// Each line rounds to 0.33; the document subtotal is 0.99, never the
	// 1.00 a round-at-the-end implementation would produce.
	assert.True(t, result.SubTotal.Equal(dec("0.99")), "subtotal %s", result.SubTotal)
}

func TestCalculate_DeterministicAndIdempotent(t *testing.T) {
	lines := []LineInput{
		{ItemID: idptr(int64(itemID)), Quantity: dec("3"), UnitPrice: dec("19.99"), Discount: dec("1.50")},
		{AccountID: expenseID, Quantity: dec("7"), UnitPrice: dec("0.07")},
	}

	first, err := Calculate(lines, testLookups(), exclusiveOpts())
	require.NoError(t, err)
	second, err := Calculate(lines, testLookups(), exclusiveOpts())
	require.NoError(t, err)

	require.Equal(t, len(first.Lines), len(second.Lines))
	for i := range first.Lines {
		assert.Equal(t, first.Lines[i].LineSubTotal.String(), second.Lines[i].LineSubTotal.String())
		assert.Equal(t, first.Lines[i].LineTax.String(), second.Lines[i].LineTax.String())
		assert.Equal(t, first.Lines[i].LineTotal.String(), second.Lines[i].LineTotal.String())
	}
	assert.Equal(t, first.Total.String(), second.Total.String())
}

func TestCalculate_EmptyBatch(t *testing.T) {
	_, err := Calculate(nil, testLookups(), exclusiveOpts())
	assert.ErrorIs(t, err, documentdomain.ErrNoLines)
}
