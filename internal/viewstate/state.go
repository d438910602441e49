package viewstate

import (
	"github.com/giantgun/BareBtc/internal/domain/borrower"
	"github.com/giantgun/BareBtc/internal/domain/lender"
	"github.com/giantgun/BareBtc/internal/domain/loan"
	"github.com/giantgun/BareBtc/internal/domain/pool"
	"github.com/giantgun/BareBtc/internal/ledger"
	"github.com/giantgun/BareBtc/internal/session"
)

// Slot names, shared with ws channel payloads.
const (
	SlotBalance     = ledger.QueryBalance
	SlotEligibility = ledger.QueryLoanEligibility
	SlotLender      = ledger.QueryLenderInfo
	SlotPool        = ledger.QueryPoolInfo
	SlotCreditScore = ledger.QueryCreditScore
	SlotBorrower    = ledger.QueryBorrowerInfo
	SlotChainTip    = ledger.QueryChainTip
)

// State is the mirrored view of the pool for the current session.
type State struct {
	Session     session.Session             `json:"session"`
	Balance     Field[borrower.Balance]     `json:"balance"`
	Eligibility Field[loan.Eligibility]     `json:"loan_eligibility"`
	Lender      Field[lender.Position]      `json:"lender_info"`
	Pool        Field[pool.Info]            `json:"pool_info"`
	CreditScore Field[borrower.CreditScore] `json:"credit_score"`
	Borrower    Field[ledger.BorrowerInfo]  `json:"borrower_info"`
	ChainTip    Field[uint64]               `json:"chain_tip"`
}

func emptyState(s session.Session) State {
	return State{Session: s}
}
