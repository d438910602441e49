package txn

import (
	"github.com/giantgun/BareBtc/internal/amount"
	"github.com/giantgun/BareBtc/internal/viewstate"
	"github.com/shopspring/decimal"
)

// Amounts are compared after rounding to whole base units, so anything
// below one base unit counts as zero.

// ValidateWithdraw requires 0 < amount <= current allocation.
func ValidateWithdraw(st viewstate.State, v decimal.Decimal) error {
	v = amount.Normalize(v)
	if !v.IsPositive() {
		return ErrInvalidAmount
	}
	pos, ok := st.Lender.Get()
	if !ok {
		return ErrStateUnavailable
	}
	if v.GreaterThan(pos.CurrentAllocation()) {
		return ErrInvalidAmount
	}
	return nil
}

// ValidateDeposit requires 0 < amount <= sBTC balance.
func ValidateDeposit(st viewstate.State, v decimal.Decimal) error {
	v = amount.Normalize(v)
	if !v.IsPositive() {
		return ErrInvalidAmount
	}
	bal, ok := st.Balance.Get()
	if !ok {
		return ErrStateUnavailable
	}
	if v.GreaterThan(bal.SBTC) {
		return ErrInsufficientBalance
	}
	return nil
}

// ValidateBorrow requires 0 < amount <= loan limit, and that the pool holds
// enough to pay it out.
func ValidateBorrow(st viewstate.State, v decimal.Decimal) error {
	v = amount.Normalize(v)
	if !v.IsPositive() {
		return ErrInvalidAmount
	}
	info, ok := st.Pool.Get()
	if !ok {
		return ErrStateUnavailable
	}
	if v.GreaterThan(info.ContractBalance) {
		return ErrInsufficientPoolBalance
	}
	elig, ok := st.Eligibility.Get()
	if !ok {
		return ErrStateUnavailable
	}
	if v.GreaterThan(elig.LoanLimit) {
		return ErrInvalidAmount
	}
	return nil
}

// ValidateRepay returns the amount due, which must be covered by the balance.
func ValidateRepay(st viewstate.State) (decimal.Decimal, error) {
	info, ok := st.Borrower.Get()
	if !ok {
		return decimal.Zero, ErrStateUnavailable
	}
	due := info.Position.Loan.TotalDue
	if !info.Position.HasActiveLoan && !info.Position.HasOutstandingDue {
		return decimal.Zero, ErrInvalidAmount
	}
	if !due.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	bal, ok := st.Balance.Get()
	if !ok {
		return decimal.Zero, ErrStateUnavailable
	}
	if bal.SBTC.LessThan(due) {
		return decimal.Zero, ErrInsufficientBalance
	}
	return due, nil
}
