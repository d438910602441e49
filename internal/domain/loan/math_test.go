package loan

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestTotalRepaymentIsExact(t *testing.T) {
	got := TotalRepayment(decimal.RequireFromString("0.02"), decimal.NewFromInt(10))
	if !got.Equal(decimal.RequireFromString("0.022")) {
		t.Fatalf("expected 0.022, got %s", got.String())
	}
}

func TestTotalRepaymentZeroRate(t *testing.T) {
	got := TotalRepayment(decimal.RequireFromString("0.05"), decimal.Zero)
	if !got.Equal(decimal.RequireFromString("0.05")) {
		t.Fatalf("expected 0.05, got %s", got.String())
	}
}

func TestComputeTimingMidLoan(t *testing.T) {
	// 144 blocks per day at 600s per block; a 30 day loan.
	l := ActiveLoan{IssuedBlock: 1000, DueBlock: 1000 + 30*144}
	got := ComputeTiming(l, 1000+10*144)
	if got.DaysRemaining != 20 {
		t.Fatalf("expected 20 days remaining, got %d", got.DaysRemaining)
	}
	if got.TotalDays != 30 {
		t.Fatalf("expected 30 total days, got %v", got.TotalDays)
	}
	if got.Overdue {
		t.Fatalf("did not expect overdue")
	}
	want := float64(10) / 30 * 100
	if got.Progress != want {
		t.Fatalf("expected progress %v, got %v", want, got.Progress)
	}
}

func TestComputeTimingOverdue(t *testing.T) {
	l := ActiveLoan{IssuedBlock: 100, DueBlock: 200}
	got := ComputeTiming(l, 500)
	if !got.Overdue || got.Progress != 100 {
		t.Fatalf("expected overdue with full progress, got %+v", got)
	}
	if got.DaysRemaining >= 0 {
		t.Fatalf("expected negative days remaining, got %d", got.DaysRemaining)
	}
}
