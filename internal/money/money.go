// Package money is the single source of truth for monetary rounding.
//
// All amounts in the engine are shopspring decimals. Monetary values are
// normalized to 2 decimal places, quantities to 4, unit costs and conversion
// rates to 6. Rounding is half-up at the target scale, applied exactly once
// per aggregation step: every line amount is rounded as soon as it is
// computed, and running sums are re-rounded after each addition so that a
// document total always equals the sum of its rounded lines.
package money

import "github.com/shopspring/decimal"

const (
	// ScaleMoney is the scale for persisted and compared monetary amounts.
	ScaleMoney int32 = 2
	// ScaleQuantity is the scale for converted quantities.
	ScaleQuantity int32 = 4
	// ScaleCost is the wider scale for unit costs and conversion rates.
	ScaleCost int32 = 6
)

// RoundTo rounds half-up at the given scale. Unlike decimal.Round (half away
// from zero), an exact half always rounds toward positive infinity, so
// -2.345 rounds to -2.34 and 2.345 to 2.35.
func RoundTo(d decimal.Decimal, places int32) decimal.Decimal {
	half := decimal.New(5, -(places + 1))
	return d.Add(half).RoundFloor(places)
}

// Round2 normalizes a monetary amount.
func Round2(d decimal.Decimal) decimal.Decimal { return RoundTo(d, ScaleMoney) }

// Round4 normalizes a quantity.
func Round4(d decimal.Decimal) decimal.Decimal { return RoundTo(d, ScaleQuantity) }

// Round6 normalizes a unit cost or rate.
func Round6(d decimal.Decimal) decimal.Decimal { return RoundTo(d, ScaleCost) }

// Sum adds monetary amounts, re-rounding the running total after each
// addition. Inputs are expected to be already rounded line amounts.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = Round2(total.Add(v))
	}
	return total
}

// DivCost divides at cost scale (6 places). Used for unit costs so repeated
// conversions do not drift; callers re-round to 2 places at the final
// monetary use.
func DivCost(a, b decimal.Decimal) decimal.Decimal {
	return RoundTo(a.Div(b), ScaleCost)
}

// IsZero2 reports whether the amount rounds to zero at monetary scale.
func IsZero2(d decimal.Decimal) bool { return Round2(d).IsZero() }
