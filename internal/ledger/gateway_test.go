package ledger

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/giantgun/BareBtc/internal/stacks"
	"github.com/shopspring/decimal"
)

const testAddress = "ST2J6ZY48GV1EZ5V2V5RB9MP66SW86PYKKQYAC0RQ"

type fakeNode struct {
	results map[string]stacks.Value
	errs    map[string]error
	calls   []stacks.ReadOnlyCall
	stx     *big.Int
	tip     uint64
}

func (f *fakeNode) CallReadOnly(_ context.Context, call stacks.ReadOnlyCall) (stacks.Value, error) {
	f.calls = append(f.calls, call)
	if err := f.errs[call.FunctionName]; err != nil {
		return nil, err
	}
	v, ok := f.results[call.FunctionName]
	if !ok {
		return nil, &stacks.CallError{Function: call.FunctionName, Cause: "NoSuchPublicFunction"}
	}
	return v, nil
}

func (f *fakeNode) STXBalance(context.Context, string) (*big.Int, error) {
	if f.stx == nil {
		return nil, errors.New("unreachable")
	}
	return f.stx, nil
}

func (f *fakeNode) TipHeight(context.Context) (uint64, error) { return f.tip, nil }

func testContracts() Contracts {
	return Contracts{
		PoolAddress:  "STEF284Y9NT9A2DGCTR5KGFHYJ25K08X363DY0ZW",
		PoolName:     "sbtc-pool",
		TokenAddress: "ST1F7QA2MDF17S807EPA36TSS8AMEFY4KA9TVGWXT",
		TokenName:    "sbtc-token",
	}
}

func ok(t stacks.Tuple) stacks.Value { return stacks.ResponseOk{V: t} }

func TestGetLoanEligibility(t *testing.T) {
	node := &fakeNode{results: map[string]stacks.Value{
		"get-loan-eligibility-info": ok(stacks.Tuple{
			"loan_limit":    stacks.NewUInt(5_000_000),
			"interest_rate": stacks.NewUInt(10),
			"duration":      stacks.NewUInt(30),
		}),
	}}
	gw := NewGateway(node, testContracts())

	got, err := gw.GetLoanEligibility(context.Background(), testAddress)
	if err != nil {
		t.Fatalf("eligibility: %v", err)
	}
	if !got.LoanLimit.Equal(decimal.RequireFromString("0.05")) || got.InterestRate.IntPart() != 10 || got.DurationDays != 30 {
		t.Fatalf("unexpected eligibility: %+v", got)
	}
	call := node.calls[0]
	if call.ContractName != "sbtc-pool" || call.Sender != testAddress || len(call.Args) != 1 {
		t.Fatalf("unexpected call: %+v", call)
	}
}

func TestGetBalanceReadsTokenAndSTX(t *testing.T) {
	node := &fakeNode{
		results: map[string]stacks.Value{"get-balance": stacks.ResponseOk{V: stacks.NewUInt(12_345_678)}},
		stx:     big.NewInt(2_500_000),
	}
	gw := NewGateway(node, testContracts())

	got, err := gw.GetBalance(context.Background(), testAddress)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if !got.SBTC.Equal(decimal.RequireFromString("0.12345678")) || !got.STX.Equal(decimal.RequireFromString("2.5")) {
		t.Fatalf("unexpected balance: %+v", got)
	}
	if node.calls[0].ContractName != "sbtc-token" {
		t.Fatalf("expected token contract, got %s", node.calls[0].ContractName)
	}
}

func TestGetLenderInfoConvertsSecondsToDays(t *testing.T) {
	node := &fakeNode{results: map[string]stacks.Value{
		"get-lender-info": ok(stacks.Tuple{
			"lender_balance":          stacks.NewUInt(50_000_000),
			"lender_pool_balance":     stacks.NewUInt(51_000_000),
			"locked_block":            stacks.NewUInt(100),
			"unlock_block":            stacks.NewUInt(200),
			"time_in_pool_in_seconds": stacks.NewUInt(3 * 86400),
		}),
	}}
	got, err := NewGateway(node, testContracts()).GetLenderInfo(context.Background(), testAddress)
	if err != nil {
		t.Fatalf("lender info: %v", err)
	}
	if got.TimeInPoolDays.IntPart() != 3 || !got.CurrentAllocation().Equal(decimal.RequireFromString("0.51")) {
		t.Fatalf("unexpected position: %+v", got)
	}
	if len(node.calls[0].Args) != 0 {
		t.Fatalf("expected no args for get-lender-info")
	}
}

func TestGetBorrowerInfoEmptyLoanWithDue(t *testing.T) {
	node := &fakeNode{results: map[string]stacks.Value{
		"get-borrower-info": ok(stacks.Tuple{
			"active_loan":          stacks.None{},
			"account_data":         stacks.Some{V: stacks.Tuple{"total_loans": stacks.NewUInt(2), "on_time_loans": stacks.NewUInt(1), "late_loans": stacks.NewUInt(1)}},
			"repayment_amount_due": stacks.NewUInt(2_200_000),
		}),
	}}
	got, err := NewGateway(node, testContracts()).GetBorrowerInfo(context.Background(), testAddress)
	if err != nil {
		t.Fatalf("borrower info: %v", err)
	}
	if got.Position.HasActiveLoan {
		t.Fatalf("expected no active loan")
	}
	if !got.Position.Loan.Amount.IsZero() {
		t.Fatalf("expected zero amount, got %s", got.Position.Loan.Amount)
	}
	if !got.Position.HasOutstandingDue || !got.Position.Loan.TotalDue.Equal(decimal.RequireFromString("0.022")) {
		t.Fatalf("expected outstanding due of 0.022, got %+v", got.Position)
	}
	if !got.HasCreditData || got.Credit.OnTimeLoans != 1 {
		t.Fatalf("unexpected credit data: %+v", got.Credit)
	}
}

func TestGetBorrowerInfoActiveLoan(t *testing.T) {
	node := &fakeNode{results: map[string]stacks.Value{
		"get-borrower-info": ok(stacks.Tuple{
			"active_loan": stacks.Some{V: stacks.Tuple{
				"amount":        stacks.NewUInt(2_000_000),
				"issued_block":  stacks.NewUInt(1000),
				"due_block":     stacks.NewUInt(5320),
				"interest_rate": stacks.NewUInt(10),
			}},
			"account_data":         stacks.None{},
			"repayment_amount_due": stacks.NewUInt(2_200_000),
		}),
	}}
	got, err := NewGateway(node, testContracts()).GetBorrowerInfo(context.Background(), testAddress)
	if err != nil {
		t.Fatalf("borrower info: %v", err)
	}
	if !got.Position.HasActiveLoan || got.Position.Loan.DueBlock != 5320 || got.HasCreditData {
		t.Fatalf("unexpected borrower info: %+v", got)
	}
}

func TestQueryErrorsAreTyped(t *testing.T) {
	node := &fakeNode{
		results: map[string]stacks.Value{
			"get-lending-pool-info": ok(stacks.Tuple{"pool_size": stacks.NewUInt(1)}),
			"get-loan-limit-info":   stacks.ResponseErr{V: stacks.NewUInt(404)},
		},
		errs: map[string]error{"get-lender-info": errors.New("connection refused")},
	}
	gw := NewGateway(node, testContracts())

	_, err := gw.GetPoolInfo(context.Background(), testAddress)
	var qe *QueryError
	if !errors.As(err, &qe) || qe.Query != QueryPoolInfo {
		t.Fatalf("expected pool_info QueryError, got %v", err)
	}
	if _, err := gw.GetCreditScore(context.Background(), testAddress); !errors.Is(err, ErrQueryFailed) || !errors.Is(err, stacks.ErrResponseErr) {
		t.Fatalf("expected err response wrapped as query failure, got %v", err)
	}
	if _, err := gw.GetLenderInfo(context.Background(), testAddress); !errors.Is(err, ErrQueryFailed) {
		t.Fatalf("expected transport failure as query failure, got %v", err)
	}
}

func TestContractsIdentifiers(t *testing.T) {
	c := testContracts()
	if c.PoolID() != "STEF284Y9NT9A2DGCTR5KGFHYJ25K08X363DY0ZW.sbtc-pool" {
		t.Fatalf("unexpected pool id %s", c.PoolID())
	}
	if c.TokenAsset() != "ST1F7QA2MDF17S807EPA36TSS8AMEFY4KA9TVGWXT.sbtc-token::sbtc-token" {
		t.Fatalf("unexpected asset %s", c.TokenAsset())
	}
}
