package lender

import (
	"github.com/shopspring/decimal"
)

// Position is the decoded get-lender-info tuple.
type Position struct {
	LenderBalance     decimal.Decimal `json:"lender_balance"`
	LenderPoolBalance decimal.Decimal `json:"lender_pool_balance"`
	LockedBlock       uint64          `json:"locked_block"`
	UnlockBlock       uint64          `json:"unlock_block"`
	TimeInPoolDays    decimal.Decimal `json:"time_in_pool_days"`
}

// CurrentAllocation is what the lender can withdraw: the larger of the
// deposited principal and its share of the pool.
func (p Position) CurrentAllocation() decimal.Decimal {
	return decimal.Max(p.LenderBalance, p.LenderPoolBalance)
}

// Earnings is the pool balance above the deposit, floored at zero.
func (p Position) Earnings() decimal.Decimal {
	gain := p.LenderPoolBalance.Sub(p.LenderBalance)
	if gain.IsNegative() {
		return decimal.Zero
	}
	return gain
}
