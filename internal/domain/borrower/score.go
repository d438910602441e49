package borrower

import "math"

const MaxScore = 1000

type Band string

const (
	BandPoor Band = "poor"
	BandFair Band = "fair"
	BandGood Band = "good"
)

// RepaymentScore is the repayment-history share of the credit score. New
// accounts are damped by five phantom loans until they have five real ones.
func RepaymentScore(d CreditData) uint64 {
	if d.OnTimeLoans == 0 {
		return 0
	}
	denom := float64(d.TotalLoans)
	if d.TotalLoans < 5 {
		denom += 5
	}
	return uint64(math.Floor(float64(d.OnTimeLoans) * 700 / denom))
}

// OnChainActivity is whatever part of the score repayment history does not
// explain. It never goes negative.
func OnChainActivity(score CreditScore, d CreditData) uint64 {
	rep := RepaymentScore(d)
	if uint64(score) <= rep {
		return 0
	}
	return uint64(score) - rep
}

// Clamp bounds a score to [0, MaxScore].
func Clamp(score CreditScore) CreditScore {
	if score > MaxScore {
		return MaxScore
	}
	return score
}

func ScoreBand(score CreditScore) Band {
	switch s := Clamp(score); {
	case s < 300:
		return BandPoor
	case s < 700:
		return BandFair
	default:
		return BandGood
	}
}
