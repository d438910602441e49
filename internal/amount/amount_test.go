package amount

import (
	"math"
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
)

func TestRoundTripExactForBaseUnits(t *testing.T) {
	cases := []string{
		"0",
		"1",
		"99",
		"5000000",
		"100000000",
		"2100000000000000",
		"18446744073709551615",
		"340282366920938463463374607431768211455",
	}
	for _, c := range cases {
		n, ok := new(big.Int).SetString(c, 10)
		if !ok {
			t.Fatalf("bad fixture %s", c)
		}
		got := ToBaseUnits(ToDisplay(n))
		if got.Cmp(n) != 0 {
			t.Fatalf("round trip %s: got %s", c, got.String())
		}
	}
}

func TestRoundTripFloatWithinOneUnit(t *testing.T) {
	for _, n := range []uint64{0, 1, 7, 12345678, 5_000_000, 99_999_999, 2_100_000_000_000_000} {
		f := Float(new(big.Int).SetUint64(n))
		back := math.Round(f * BaseUnitsPerCoin)
		if math.Abs(back-float64(n)) > 1 {
			t.Fatalf("float round trip %d: got %v", n, back)
		}
	}
}

func TestDisplayRoundTripEightDigits(t *testing.T) {
	for _, s := range []string{"0.05", "0.02", "0.00000001", "1.23456789", "21000000"} {
		d := decimal.RequireFromString(s)
		back := ToDisplay(ToBaseUnits(d))
		if !back.Equal(d) {
			t.Fatalf("display round trip %s: got %s", s, back.String())
		}
	}
}

func TestToDisplayLoanLimit(t *testing.T) {
	got := ToDisplayUint(5_000_000)
	if !got.Equal(decimal.RequireFromString("0.05")) {
		t.Fatalf("expected 0.05, got %s", got.String())
	}
}

func TestToBaseUnitsRoundsHalfAwayFromZero(t *testing.T) {
	got, err := ToBaseUnitsUint(decimal.RequireFromString("0.000000015"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 2 {
		t.Fatalf("expected 2, got %d", got)
	}
}

func TestFromFloatRejectsNegative(t *testing.T) {
	if _, err := FromFloat(-0.1); err == nil {
		t.Fatalf("expected error for negative amount")
	}
	got, err := FromFloat(0.02)
	if err != nil || got != 2_000_000 {
		t.Fatalf("expected 2000000, got %d (%v)", got, err)
	}
}
