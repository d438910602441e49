package borrower

import (
	"github.com/shopspring/decimal"
)

// CreditData is the account_data slot of get-borrower-info.
type CreditData struct {
	TotalLoans  uint64 `json:"total_loans"`
	OnTimeLoans uint64 `json:"on_time_loans"`
	LateLoans   uint64 `json:"late_loans"`
}

// CreditScore is the contract's score, nominally in [0, 1000].
type CreditScore uint64

// Balance holds the wallet's spendable sBTC and STX, both in display units.
type Balance struct {
	SBTC decimal.Decimal `json:"sbtc"`
	STX  decimal.Decimal `json:"stx"`
}
