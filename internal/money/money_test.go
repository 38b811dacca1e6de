package money

import (
	"testing"

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

func TestRound2_HalfUp(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"2.344", "2.34"},
		{"2.345", "2.35"},
		{"2.346", "2.35"},
		{"0.005", "0.01"},
		{"-2.345", "-2.34"}, // half-up, not half away from zero
		{"-2.346", "-2.35"},
		{"10", "10"},
		{"0", "0"},
	}
	for _, tc := range cases {
		got := Round2(dec(tc.in))
		assert.True(t, got.Equal(dec(tc.want)), "Round2(%s) = %s, want %s", tc.in, got, tc.want)
	}
}

func TestRoundTo_Scales(t *testing.T) {
	assert.True(t, Round4(dec("0.50005")).Equal(dec("0.5001")))
	assert.True(t, Round6(dec("0.0000005")).Equal(dec("0.000001")))
	assert.True(t, RoundTo(dec("123.456"), 0).Equal(dec("123")))
}

func TestSum_RoundsEachStep(t *testing.T) {
	// Three thirds of a cent never accumulate into a cent because the
	// running total is normalized after every addition.
	total := Sum(dec("0.003"), dec("0.003"), dec("0.003"))
	assert.True(t, total.IsZero(), "got %s", total)

	// Already-rounded line amounts sum exactly.
	total = Sum(dec("200.00"), dec("100.00"), dec("15.00"))
	assert.True(t, total.Equal(dec("315.00")))
}

func TestDivCost_WideScale(t *testing.T) {
	got := DivCost(dec("10"), dec("3"))
	assert.True(t, got.Equal(dec("3.333333")), "got %s", got)
}

func TestSum_Deterministic(t *testing.T) {
	a := Sum(dec("1.115"), dec("2.225"))
	b := Sum(dec("1.115"), dec("2.225"))
	assert.True(t, a.Equal(b))
	assert.Equal(t, a.String(), b.String())
}
