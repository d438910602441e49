package loan

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// TimePerBlock is the assumed average Stacks block interval.
const TimePerBlock = 600 * time.Second

var hundred = decimal.NewFromInt(100)

// TotalRepayment is amount * (1 + rate/100), rate in percent.
func TotalRepayment(amount, ratePercent decimal.Decimal) decimal.Decimal {
	return amount.Mul(decimal.NewFromInt(1).Add(ratePercent.Div(hundred)))
}

// DueDate projects the due date of a loan of durationDays taken at now.
func DueDate(now time.Time, durationDays uint64) time.Time {
	return now.Add(time.Duration(durationDays) * 24 * time.Hour)
}

// ComputeTiming derives the countdown for an active loan at chain tip.
func ComputeTiming(l ActiveLoan, tip uint64) Timing {
	secondsPerBlock := TimePerBlock.Seconds()
	const secondsPerDay = 24 * 60 * 60

	remainingBlocks := float64(int64(l.DueBlock) - int64(tip))
	daysRemaining := int64(math.Floor(secondsPerBlock * remainingBlocks / secondsPerDay))
	totalDays := secondsPerBlock * float64(int64(l.DueBlock)-int64(l.IssuedBlock)) / secondsPerDay

	out := Timing{DaysRemaining: daysRemaining, TotalDays: totalDays}
	switch {
	case l.DueBlock < tip:
		out.Overdue = true
		out.Progress = 100
	case totalDays <= 0:
		out.Progress = 0
	default:
		out.Progress = (totalDays - float64(daysRemaining)) / totalDays * 100
	}
	return out
}
