// Package calc prices, taxes, and rounds raw document lines. Calculate is a
// pure function over the supplied lookup maps: it either calculates every
// line or fails the whole batch, never partially.
package calc

import (
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"

	documentdomain "github.com/smallbiznis/folio/internal/document/domain"
	itemdomain "github.com/smallbiznis/folio/internal/item/domain"
	"github.com/smallbiznis/folio/internal/money"
	orgdomain "github.com/smallbiznis/folio/internal/organization/domain"
	taxdomain "github.com/smallbiznis/folio/internal/tax/domain"
)

var oneHundred = decimal.NewFromInt(100)

// LineInput is a raw document row before calculation.
type LineInput struct {
	AccountID   snowflake.ID
	ItemID      *snowflake.ID
	TaxCodeID   *snowflake.ID
	UnitID      *snowflake.ID
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Discount    decimal.Decimal
}

// Lookups carries the resolved reference data for one calculation pass.
type Lookups struct {
	Items    map[snowflake.ID]itemdomain.Item
	TaxCodes map[snowflake.ID]taxdomain.TaxCode
	Units    map[snowflake.ID]itemdomain.Unit
}

// Options are the org-level policies fixed at calculation start.
type Options struct {
	VATEnabled  bool
	VATBehavior orgdomain.VATBehavior
}

// CalculatedLine is a priced, taxed, rounded line. LineNo is the 1-based
// input position; a full line replace on edit renumbers from 1.
type CalculatedLine struct {
	LineNo int
	Input  LineInput

	// AccountID is the effective expense/income account: the explicit line
	// account, else the item's expense account.
	AccountID snowflake.ID
	// TaxCodeID is the effective code: the explicit line code, else the
	// item's default.
	TaxCodeID *snowflake.ID

	// BaseQuantity is the quantity converted into the item's base unit,
	// rounded to 4 places. Unit prices are expressed in base-unit terms.
	BaseQuantity decimal.Decimal

	LineSubTotal decimal.Decimal
	LineTax      decimal.Decimal
	LineTotal    decimal.Decimal

	TrackInventory bool
}

// Result carries the calculated lines and the document totals, each total a
// running sum re-rounded after every addition.
type Result struct {
	Lines    []CalculatedLine
	SubTotal decimal.Decimal
	TaxTotal decimal.Decimal
	Total    decimal.Decimal
}

// Calculate runs the line algorithm in input order. Any failure aborts the
// whole batch with the 1-based line position attached.
func Calculate(lines []LineInput, lookups Lookups, opts Options) (*Result, error) {
	if len(lines) == 0 {
		return nil, documentdomain.ErrNoLines
	}

	result := &Result{
		Lines:    make([]CalculatedLine, 0, len(lines)),
		SubTotal: decimal.Zero,
		TaxTotal: decimal.Zero,
		Total:    decimal.Zero,
	}

	for i, input := range lines {
		lineNo := i + 1
		calculated, err := calculateLine(lineNo, input, lookups, opts)
		if err != nil {
			return nil, &documentdomain.LineError{LineNo: lineNo, Err: err}
		}
		result.Lines = append(result.Lines, *calculated)

		result.SubTotal = money.Round2(result.SubTotal.Add(calculated.LineSubTotal))
		result.TaxTotal = money.Round2(result.TaxTotal.Add(calculated.LineTax))
		result.Total = money.Round2(result.Total.Add(calculated.LineTotal))
	}

	return result, nil
}

func calculateLine(lineNo int, input LineInput, lookups Lookups, opts Options) (*CalculatedLine, error) {
	if input.Quantity.IsNegative() {
		return nil, documentdomain.ErrInvalidQuantity
	}
	if input.UnitPrice.IsNegative() {
		return nil, documentdomain.ErrInvalidUnitPrice
	}
	if input.Discount.IsNegative() {
		return nil, documentdomain.ErrInvalidDiscount
	}

	var item *itemdomain.Item
	if input.ItemID != nil {
		resolved, ok := lookups.Items[*input.ItemID]
		if !ok {
			return nil, itemdomain.ErrItemNotFound
		}
		if !resolved.IsActive {
			return nil, itemdomain.ErrItemInactive
		}
		item = &resolved
	}

	accountID := input.AccountID
	if accountID == 0 && item != nil {
		accountID = item.ExpenseAccountID
	}
	if accountID == 0 {
		return nil, documentdomain.ErrMissingAccount
	}

	// Effective tax code: explicit line code wins over the item default.
	taxCodeID := input.TaxCodeID
	if taxCodeID == nil && item != nil {
		taxCodeID = item.DefaultTaxCodeID
	}

	var taxCode *taxdomain.TaxCode
	if taxCodeID != nil {
		resolved, ok := lookups.TaxCodes[*taxCodeID]
		if !ok {
			return nil, taxdomain.ErrNotFound
		}
		if !resolved.IsActive {
			return nil, taxdomain.ErrInactive
		}
		if !opts.VATEnabled {
			return nil, documentdomain.ErrVATDisabled
		}
		taxCode = &resolved
	}

	baseQuantity, err := convertQuantity(input, item, lookups.Units)
	if err != nil {
		return nil, err
	}

	gross := baseQuantity.Mul(input.UnitPrice)
	if input.Discount.GreaterThan(gross) {
		return nil, documentdomain.ErrDiscountExceedsLine
	}
	net := gross.Sub(input.Discount)

	subTotal, lineTax := splitTax(net, taxCode, opts.VATBehavior)
	if subTotal.IsNegative() {
		return nil, documentdomain.ErrNegativeSubTotal
	}

	return &CalculatedLine{
		LineNo:         lineNo,
		Input:          input,
		AccountID:      accountID,
		TaxCodeID:      taxCodeID,
		BaseQuantity:   baseQuantity,
		LineSubTotal:   subTotal,
		LineTax:        lineTax,
		LineTotal:      money.Round2(subTotal.Add(lineTax)),
		TrackInventory: item != nil && item.TrackInventory,
	}, nil
}

// convertQuantity maps the line quantity into the item's base unit. A line
// unit is only legal when it shares a base unit with the item's native unit.
func convertQuantity(input LineInput, item *itemdomain.Item, units map[snowflake.ID]itemdomain.Unit) (decimal.Decimal, error) {
	if input.UnitID == nil {
		return money.Round4(input.Quantity), nil
	}

	lineUnit, ok := units[*input.UnitID]
	if !ok {
		return decimal.Zero, itemdomain.ErrUnitNotFound
	}

	if item != nil && item.UnitID != *input.UnitID {
		nativeUnit, ok := units[item.UnitID]
		if !ok {
			return decimal.Zero, itemdomain.ErrUnitNotFound
		}
		if nativeUnit.BaseUnitID != lineUnit.BaseUnitID {
			return decimal.Zero, documentdomain.ErrIncompatibleUnit
		}
	}

	return money.Round4(input.Quantity.Mul(lineUnit.ConversionRate)), nil
}

// splitTax applies the org's VAT behavior. EXCLUSIVE adds tax on top of the
// net amount; INCLUSIVE treats the stored price as tax-inclusive and splits
// subtotal and tax out of it. Zero-rated and exempt codes never produce tax.
func splitTax(net decimal.Decimal, taxCode *taxdomain.TaxCode, behavior orgdomain.VATBehavior) (subTotal, tax decimal.Decimal) {
	taxable := taxCode != nil &&
		taxCode.Type == taxdomain.TaxTypeStandard &&
		taxCode.Rate.IsPositive()

	if !taxable {
		return money.Round2(net), decimal.Zero
	}

	rate := taxCode.Rate.Div(oneHundred)

	if behavior == orgdomain.VATBehaviorInclusive {
		// Split the gross into net + tax at cost scale, then round once.
		base := money.RoundTo(net.Div(decimal.NewFromInt(1).Add(rate)), money.ScaleCost)
		subTotal = money.Round2(base)
		tax = money.Round2(net.Sub(subTotal))
		return subTotal, tax
	}

	subTotal = money.Round2(net)
	tax = money.Round2(subTotal.Mul(rate))
	return subTotal, tax
}
