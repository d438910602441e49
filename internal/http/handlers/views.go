package handlers

import (
	"time"

	"github.com/giantgun/BareBtc/internal/amount"
	"github.com/giantgun/BareBtc/internal/domain/borrower"
	"github.com/giantgun/BareBtc/internal/domain/lender"
	"github.com/giantgun/BareBtc/internal/domain/loan"
	"github.com/giantgun/BareBtc/internal/domain/pool"
	"github.com/giantgun/BareBtc/internal/session"
	"github.com/giantgun/BareBtc/internal/txn"
	"github.com/giantgun/BareBtc/internal/viewstate"
	"github.com/shopspring/decimal"
)

type CreditView struct {
	Score           borrower.CreditScore `json:"score"`
	Band            borrower.Band        `json:"band"`
	RepaymentScore  uint64               `json:"repayment_score"`
	OnChainActivity uint64               `json:"on_chain_activity"`
	History         *borrower.CreditData `json:"history,omitempty"`
}

type LoanView struct {
	loan.Position
	Timing   *loan.Timing      `json:"timing,omitempty"`
	DueAt    *time.Time        `json:"due_at,omitempty"`
	Eligible *loan.Eligibility `json:"eligibility,omitempty"`
}

type LenderView struct {
	lender.Position
	CurrentAllocation decimal.Decimal  `json:"current_allocation"`
	Earnings          decimal.Decimal  `json:"earnings"`
	PoolShare         *decimal.Decimal `json:"pool_share,omitempty"`
}

type PoolView struct {
	pool.Info
	APY         decimal.Decimal `json:"apy"`
	Utilization decimal.Decimal `json:"utilization"`
}

// Slots reports the load status of every field group the view was built from.
type Slots map[string]viewstate.Status

type DashboardView struct {
	Session session.Session   `json:"session"`
	Balance *borrower.Balance `json:"balance"`
	Credit  *CreditView       `json:"credit"`
	Loan    *LoanView         `json:"loan"`
	Lender  *LenderView       `json:"lender"`
	Pool    *PoolView         `json:"pool"`
	Slots   Slots             `json:"slots"`
}

type BorrowView struct {
	Session     session.Session   `json:"session"`
	Balance     *borrower.Balance `json:"balance"`
	Eligibility *loan.Eligibility `json:"eligibility"`
	// Quote is the repayment due on borrowing the full loan limit.
	Quote *RepaymentQuote `json:"quote,omitempty"`
	Loan  *LoanView       `json:"loan"`
	Pool  *PoolView       `json:"pool"`
	Slots Slots           `json:"slots"`
}

type RepaymentQuote struct {
	Amount         decimal.Decimal `json:"amount"`
	InterestRate   decimal.Decimal `json:"interest_rate"`
	TotalRepayment decimal.Decimal `json:"total_repayment"`
	DueAt          time.Time       `json:"due_at"`
}

type LendView struct {
	Session session.Session   `json:"session"`
	Balance *borrower.Balance `json:"balance"`
	Lender  *LenderView       `json:"lender"`
	Pool    *PoolView         `json:"pool"`
	Slots   Slots             `json:"slots"`
}

// value returns a pointer to f's value, or nil if it never loaded.
func value[T any](f viewstate.Field[T]) *T {
	v, ok := f.Get()
	if !ok {
		return nil
	}
	return &v
}

func buildCredit(st viewstate.State) *CreditView {
	score, ok := st.CreditScore.Get()
	if !ok {
		return nil
	}
	out := &CreditView{Score: borrower.Clamp(score), Band: borrower.ScoreBand(score)}
	if info, ok := st.Borrower.Get(); ok && info.HasCreditData {
		data := info.Credit
		out.History = &data
		out.RepaymentScore = borrower.RepaymentScore(data)
		out.OnChainActivity = borrower.OnChainActivity(score, data)
	} else {
		out.OnChainActivity = uint64(score)
	}
	return out
}

func buildLoan(st viewstate.State, now time.Time) *LoanView {
	info, ok := st.Borrower.Get()
	if !ok {
		return nil
	}
	out := &LoanView{Position: info.Position, Eligible: value(st.Eligibility)}
	if !info.Position.HasActiveLoan {
		return out
	}
	if tip, ok := st.ChainTip.Get(); ok {
		timing := loan.ComputeTiming(info.Position.Loan, tip)
		out.Timing = &timing
		due := now.Add(time.Duration(int64(info.Position.Loan.DueBlock)-int64(tip)) * loan.TimePerBlock)
		out.DueAt = &due
	}
	return out
}

func buildPool(st viewstate.State) *PoolView {
	info, ok := st.Pool.Get()
	if !ok {
		return nil
	}
	return &PoolView{Info: info, APY: info.APY(), Utilization: info.Utilization()}
}

func buildLender(st viewstate.State) *LenderView {
	pos, ok := st.Lender.Get()
	if !ok {
		return nil
	}
	out := &LenderView{Position: pos, CurrentAllocation: pos.CurrentAllocation(), Earnings: pos.Earnings()}
	if info, ok := st.Pool.Get(); ok {
		share := info.Share(pos.LenderBalance)
		out.PoolShare = &share
	}
	return out
}

func slots(st viewstate.State) Slots {
	return Slots{
		viewstate.SlotBalance:     st.Balance.Status(),
		viewstate.SlotEligibility: st.Eligibility.Status(),
		viewstate.SlotLender:      st.Lender.Status(),
		viewstate.SlotPool:        st.Pool.Status(),
		viewstate.SlotCreditScore: st.CreditScore.Status(),
		viewstate.SlotBorrower:    st.Borrower.Status(),
		viewstate.SlotChainTip:    st.ChainTip.Status(),
	}
}

func BuildDashboard(st viewstate.State, now time.Time) DashboardView {
	return DashboardView{
		Session: st.Session,
		Balance: value(st.Balance),
		Credit:  buildCredit(st),
		Loan:    buildLoan(st, now),
		Lender:  buildLender(st),
		Pool:    buildPool(st),
		Slots:   slots(st),
	}
}

func BuildBorrow(st viewstate.State, now time.Time) BorrowView {
	out := BorrowView{
		Session:     st.Session,
		Balance:     value(st.Balance),
		Eligibility: value(st.Eligibility),
		Loan:        buildLoan(st, now),
		Pool:        buildPool(st),
		Slots:       slots(st),
	}
	if e := out.Eligibility; e != nil && e.LoanLimit.IsPositive() {
		out.Quote = quote(*e, e.LoanLimit, now)
	}
	return out
}

// QuoteBorrow prices a loan of v under the current eligibility. v must be at
// least one base unit and no more than the loan limit.
func QuoteBorrow(st viewstate.State, now time.Time, v decimal.Decimal) (*RepaymentQuote, error) {
	v = amount.Normalize(v)
	if !v.IsPositive() {
		return nil, txn.ErrInvalidAmount
	}
	e, ok := st.Eligibility.Get()
	if !ok {
		return nil, txn.ErrStateUnavailable
	}
	if v.GreaterThan(e.LoanLimit) {
		return nil, txn.ErrInvalidAmount
	}
	return quote(e, v, now), nil
}

func quote(e loan.Eligibility, v decimal.Decimal, now time.Time) *RepaymentQuote {
	return &RepaymentQuote{
		Amount:         v,
		InterestRate:   e.InterestRate,
		TotalRepayment: loan.TotalRepayment(v, e.InterestRate),
		DueAt:          loan.DueDate(now, e.DurationDays),
	}
}

func BuildLend(st viewstate.State) LendView {
	return LendView{
		Session: st.Session,
		Balance: value(st.Balance),
		Lender:  buildLender(st),
		Pool:    buildPool(st),
		Slots:   slots(st),
	}
}

