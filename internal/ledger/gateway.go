package ledger

import (
	"context"
	"fmt"
	"math/big"

	"github.com/giantgun/BareBtc/internal/amount"
	"github.com/giantgun/BareBtc/internal/domain/borrower"
	"github.com/giantgun/BareBtc/internal/domain/lender"
	"github.com/giantgun/BareBtc/internal/domain/loan"
	"github.com/giantgun/BareBtc/internal/domain/pool"
	"github.com/giantgun/BareBtc/internal/stacks"
	"github.com/shopspring/decimal"
)

// Query names, also used as metric labels and slot names.
const (
	QueryBalance         = "balance"
	QueryLoanEligibility = "loan_eligibility"
	QueryLenderInfo      = "lender_info"
	QueryPoolInfo        = "pool_info"
	QueryCreditScore     = "credit_score"
	QueryBorrowerInfo    = "borrower_info"
	QueryChainTip        = "chain_tip"
)

const secondsPerDay = 24 * 60 * 60

// Node is the subset of the Stacks API the gateway reads from.
type Node interface {
	CallReadOnly(ctx context.Context, call stacks.ReadOnlyCall) (stacks.Value, error)
	STXBalance(ctx context.Context, address string) (*big.Int, error)
	TipHeight(ctx context.Context) (uint64, error)
}

// Contracts identifies the pool and its sBTC token.
type Contracts struct {
	PoolAddress  string
	PoolName     string
	TokenAddress string
	TokenName    string
}

func (c Contracts) PoolID() string { return stacks.ContractID(c.PoolAddress, c.PoolName) }

// TokenAsset is the fungible asset identifier used in post-conditions.
func (c Contracts) TokenAsset() string {
	return stacks.AssetID(c.TokenAddress, c.TokenName, c.TokenName)
}

// BorrowerInfo is the decoded get-borrower-info tuple.
type BorrowerInfo struct {
	Position      loan.Position       `json:"position"`
	Credit        borrower.CreditData `json:"credit"`
	HasCreditData bool                `json:"has_credit_data"`
}

// Gateway wraps the pool's read-only functions with typed decoders.
type Gateway struct {
	node      Node
	contracts Contracts
}

func NewGateway(node Node, contracts Contracts) *Gateway {
	return &Gateway{node: node, contracts: contracts}
}

func (g *Gateway) Contracts() Contracts { return g.contracts }

// GetBalance reads the account's sBTC from the token contract and its STX
// from the REST balance endpoint.
func (g *Gateway) GetBalance(ctx context.Context, address string) (borrower.Balance, error) {
	principal, err := stacks.NewPrincipal(address)
	if err != nil {
		return borrower.Balance{}, queryErr(QueryBalance, err)
	}
	v, err := g.node.CallReadOnly(ctx, stacks.ReadOnlyCall{
		ContractAddress: g.contracts.TokenAddress,
		ContractName:    g.contracts.TokenName,
		FunctionName:    "get-balance",
		Args:            []stacks.Value{principal},
		Sender:          address,
	})
	if err != nil {
		return borrower.Balance{}, queryErr(QueryBalance, err)
	}
	inner, err := stacks.UnwrapOk(v)
	if err != nil {
		return borrower.Balance{}, queryErr(QueryBalance, err)
	}
	sbtc, err := stacks.AsUInt(inner)
	if err != nil {
		return borrower.Balance{}, queryErr(QueryBalance, err)
	}
	stx, err := g.node.STXBalance(ctx, address)
	if err != nil {
		return borrower.Balance{}, queryErr(QueryBalance, fmt.Errorf("stx balance: %w", err))
	}
	return borrower.Balance{
		SBTC: amount.ToDisplay(sbtc),
		// micro-STX, six decimals
		STX: decimal.NewFromBigInt(stx, -6),
	}, nil
}

func (g *Gateway) GetLoanEligibility(ctx context.Context, address string) (loan.Eligibility, error) {
	tup, err := g.poolTuple(ctx, QueryLoanEligibility, "get-loan-eligibility-info", address, true)
	if err != nil {
		return loan.Eligibility{}, err
	}
	var d decoder
	out := loan.Eligibility{
		LoanLimit:    d.display(tup, "loan_limit"),
		InterestRate: decimal.NewFromUint64(d.uint64(tup, "interest_rate")),
		DurationDays: d.uint64(tup, "duration"),
	}
	if d.err != nil {
		return loan.Eligibility{}, queryErr(QueryLoanEligibility, d.err)
	}
	return out, nil
}

func (g *Gateway) GetLenderInfo(ctx context.Context, address string) (lender.Position, error) {
	tup, err := g.poolTuple(ctx, QueryLenderInfo, "get-lender-info", address, false)
	if err != nil {
		return lender.Position{}, err
	}
	var d decoder
	out := lender.Position{
		LenderBalance:     d.display(tup, "lender_balance"),
		LenderPoolBalance: d.display(tup, "lender_pool_balance"),
		LockedBlock:       d.uint64(tup, "locked_block"),
		UnlockBlock:       d.uint64(tup, "unlock_block"),
		TimeInPoolDays:    decimal.NewFromUint64(d.uint64(tup, "time_in_pool_in_seconds")).Div(decimal.NewFromInt(secondsPerDay)),
	}
	if d.err != nil {
		return lender.Position{}, queryErr(QueryLenderInfo, d.err)
	}
	return out, nil
}

func (g *Gateway) GetPoolInfo(ctx context.Context, address string) (pool.Info, error) {
	tup, err := g.poolTuple(ctx, QueryPoolInfo, "get-lending-pool-info", address, false)
	if err != nil {
		return pool.Info{}, err
	}
	var d decoder
	out := pool.Info{
		PoolSize:         d.display(tup, "pool_size"),
		ContractBalance:  d.display(tup, "contract_balance"),
		LockDurationDays: d.uint64(tup, "lock_duration_in_days"),
	}
	if d.err != nil {
		return pool.Info{}, queryErr(QueryPoolInfo, d.err)
	}
	return out, nil
}

func (g *Gateway) GetCreditScore(ctx context.Context, address string) (borrower.CreditScore, error) {
	tup, err := g.poolTuple(ctx, QueryCreditScore, "get-loan-limit-info", address, true)
	if err != nil {
		return 0, err
	}
	score, err := tup.Uint64("credit_score")
	if err != nil {
		return 0, queryErr(QueryCreditScore, err)
	}
	return borrower.CreditScore(score), nil
}

func (g *Gateway) GetBorrowerInfo(ctx context.Context, address string) (BorrowerInfo, error) {
	tup, err := g.poolTuple(ctx, QueryBorrowerInfo, "get-borrower-info", address, true)
	if err != nil {
		return BorrowerInfo{}, err
	}
	var d decoder
	var out BorrowerInfo
	out.Position.Loan.TotalDue = d.display(tup, "repayment_amount_due")

	active, ok, err := tup.OptionalTuple("active_loan")
	if err != nil {
		return BorrowerInfo{}, queryErr(QueryBorrowerInfo, err)
	}
	if ok {
		out.Position.HasActiveLoan = true
		out.Position.Loan.Amount = d.display(active, "amount")
		out.Position.Loan.IssuedBlock = d.uint64(active, "issued_block")
		out.Position.Loan.DueBlock = d.uint64(active, "due_block")
		out.Position.Loan.InterestRate = decimal.NewFromUint64(d.uint64(active, "interest_rate"))
	}

	account, ok, err := tup.OptionalTuple("account_data")
	if err != nil {
		return BorrowerInfo{}, queryErr(QueryBorrowerInfo, err)
	}
	if ok {
		out.HasCreditData = true
		out.Credit = borrower.CreditData{
			TotalLoans:  d.uint64(account, "total_loans"),
			OnTimeLoans: d.uint64(account, "on_time_loans"),
			LateLoans:   d.uint64(account, "late_loans"),
		}
	}
	if d.err != nil {
		return BorrowerInfo{}, queryErr(QueryBorrowerInfo, d.err)
	}
	out.Position.HasOutstandingDue = out.Position.Loan.TotalDue.IsPositive()
	return out, nil
}

func (g *Gateway) ChainTip(ctx context.Context) (uint64, error) {
	tip, err := g.node.TipHeight(ctx)
	if err != nil {
		return 0, queryErr(QueryChainTip, err)
	}
	return tip, nil
}

// poolTuple calls fn on the pool contract, optionally passing the caller as
// the sole principal argument, and unwraps (ok (tuple ...)).
func (g *Gateway) poolTuple(ctx context.Context, query, fn, address string, withPrincipal bool) (stacks.Tuple, error) {
	var args []stacks.Value
	if withPrincipal {
		p, err := stacks.NewPrincipal(address)
		if err != nil {
			return nil, queryErr(query, err)
		}
		args = append(args, p)
	}
	v, err := g.node.CallReadOnly(ctx, stacks.ReadOnlyCall{
		ContractAddress: g.contracts.PoolAddress,
		ContractName:    g.contracts.PoolName,
		FunctionName:    fn,
		Args:            args,
		Sender:          address,
	})
	if err != nil {
		return nil, queryErr(query, err)
	}
	tup, err := stacks.UnwrapOkTuple(v)
	if err != nil {
		return nil, queryErr(query, err)
	}
	return tup, nil
}

// decoder keeps the first field error so a tuple can be read in one pass.
type decoder struct {
	err error
}

func (d *decoder) uint64(t stacks.Tuple, key string) uint64 {
	if d.err != nil {
		return 0
	}
	n, err := t.Uint64(key)
	if err != nil {
		d.err = err
	}
	return n
}

func (d *decoder) display(t stacks.Tuple, key string) decimal.Decimal {
	if d.err != nil {
		return decimal.Zero
	}
	n, err := t.UInt(key)
	if err != nil {
		d.err = err
		return decimal.Zero
	}
	return amount.ToDisplay(n)
}
