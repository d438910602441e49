package loan

import (
	"github.com/shopspring/decimal"
)

// Eligibility is what the pool contract will currently lend to an account.
type Eligibility struct {
	LoanLimit    decimal.Decimal `json:"loan_limit"`
	InterestRate decimal.Decimal `json:"interest_rate"`
	DurationDays uint64          `json:"duration_days"`
}

// ActiveLoan mirrors the borrower-info active_loan slot. A zero value means no
// open loan; TotalDue may still be non-zero, see Position.
type ActiveLoan struct {
	Amount       decimal.Decimal `json:"amount"`
	IssuedBlock  uint64          `json:"issued_block"`
	DueBlock     uint64          `json:"due_block"`
	InterestRate decimal.Decimal `json:"interest_rate"`
	TotalDue     decimal.Decimal `json:"total_due"`
}

// Position is the decoded loan half of get-borrower-info.
type Position struct {
	Loan ActiveLoan `json:"loan"`
	// HasActiveLoan is true iff active_loan was (some ...).
	HasActiveLoan bool `json:"has_active_loan"`
	// HasOutstandingDue reports repayment_amount_due > 0, which the contract
	// can report even when active_loan is none.
	HasOutstandingDue bool `json:"has_outstanding_due"`
}

type Timing struct {
	DaysRemaining int64   `json:"days_remaining"`
	TotalDays     float64 `json:"total_days"`
	Progress      float64 `json:"progress"`
	Overdue       bool    `json:"overdue"`
}
