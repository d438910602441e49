// Package amount converts between ledger base units and display units.
//
// The pool contract and the sBTC token account everything in base units,
// where one display unit is 100,000,000 base units. Display values are kept
// as decimals so that display -> base -> display is exact for any value with
// at most Scale fractional digits.
package amount

import (
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	Scale = 8
	// BaseUnitsPerCoin is 10^Scale.
	BaseUnitsPerCoin = 100_000_000
)

// ToDisplay divides a base-unit integer by 10^8.
func ToDisplay(base *big.Int) decimal.Decimal {
	if base == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(base, -Scale)
}

// ToDisplayUint is ToDisplay for values that fit a uint64.
func ToDisplayUint(base uint64) decimal.Decimal {
	return ToDisplay(new(big.Int).SetUint64(base))
}

// ToBaseUnits multiplies a display value by 10^8 and rounds half away from
// zero to the nearest integer base unit.
func ToBaseUnits(display decimal.Decimal) *big.Int {
	return display.Shift(Scale).Round(0).BigInt()
}

// Normalize rounds a display value to the nearest whole base unit. A value
// that normalizes to zero moves no tokens.
func Normalize(display decimal.Decimal) decimal.Decimal {
	return ToDisplay(ToBaseUnits(display))
}

// ToBaseUnitsUint is ToBaseUnits for non-negative values that fit a uint64.
func ToBaseUnitsUint(display decimal.Decimal) (uint64, error) {
	n := ToBaseUnits(display)
	if n.Sign() < 0 {
		return 0, fmt.Errorf("negative amount: %s", display.String())
	}
	if !n.IsUint64() {
		return 0, fmt.Errorf("amount out of range: %s", display.String())
	}
	return n.Uint64(), nil
}

// FromFloat converts a float display value, rounding to the nearest base
// unit the way Math.round(x * 1e8) does.
func FromFloat(display float64) (uint64, error) {
	if math.IsNaN(display) || math.IsInf(display, 0) || display < 0 {
		return 0, fmt.Errorf("invalid amount: %v", display)
	}
	return ToBaseUnitsUint(decimal.NewFromFloat(display))
}

// Float returns the float64 display value. Precision beyond 8 fractional
// digits is not meaningful.
func Float(base *big.Int) float64 {
	f, _ := ToDisplay(base).Float64()
	return f
}

// Parse reads a display amount such as "0.05".
func Parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d, nil
}

// Format renders a display value with a fixed number of fractional digits.
func Format(d decimal.Decimal, places int32) string {
	return d.StringFixed(places)
}
