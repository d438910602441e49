package pool

import (
	"github.com/shopspring/decimal"
)

// Info is the decoded get-lending-pool-info tuple.
type Info struct {
	PoolSize         decimal.Decimal `json:"pool_size"`
	ContractBalance  decimal.Decimal `json:"contract_balance"`
	LockDurationDays uint64          `json:"lock_duration_days"`
}

var hundred = decimal.NewFromInt(100)

func (i Info) divisor() decimal.Decimal {
	if i.PoolSize.IsZero() {
		return decimal.NewFromInt(1)
	}
	return i.PoolSize
}

// APY is the pool's growth over deposited principal, in percent.
func (i Info) APY() decimal.Decimal {
	return i.ContractBalance.Sub(i.PoolSize).Div(i.divisor()).Mul(hundred)
}

// Share is deposit's fraction of the pool, in percent.
func (i Info) Share(deposit decimal.Decimal) decimal.Decimal {
	return deposit.Div(i.divisor()).Mul(hundred)
}

// Utilization is the lent-out fraction of the pool, in percent.
func (i Info) Utilization() decimal.Decimal {
	lent := i.PoolSize.Sub(i.ContractBalance)
	if lent.IsNegative() {
		return decimal.Zero
	}
	return lent.Div(i.divisor()).Mul(hundred)
}
