// Package txn builds, validates and submits the pool's state-changing calls.
package txn

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/giantgun/BareBtc/internal/amount"
	"github.com/giantgun/BareBtc/internal/domain/history"
	"github.com/giantgun/BareBtc/internal/ledger"
	"github.com/giantgun/BareBtc/internal/stacks"
	"github.com/giantgun/BareBtc/internal/viewstate"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultSettlingDelay is how long after a submission the view state is
// re-read, giving the node time to see the transaction in its mempool.
const DefaultSettlingDelay = time.Second

type Wallet interface {
	CallContract(ctx context.Context, call stacks.ContractCall) (string, error)
}

type StateReader interface {
	Snapshot() viewstate.State
}

type Invalidator interface {
	Invalidate(viewstate.StateInvalidated)
}

// Recorder receives submission metrics.
type Recorder interface {
	ObserveSubmission(action string, err error)
}

type nopRecorder struct{}

func (nopRecorder) ObserveSubmission(string, error) {}

type Config struct {
	Contracts     ledger.Contracts
	Network       string
	SettlingDelay time.Duration
}

type Submitter struct {
	wallet      Wallet
	state       StateReader
	invalidator Invalidator
	history     history.Repository
	logger      *slog.Logger
	recorder    Recorder
	cfg         Config

	afterFunc func(time.Duration, func())
	now       func() time.Time
}

func NewSubmitter(cfg Config, wallet Wallet, state StateReader, invalidator Invalidator, repo history.Repository, logger *slog.Logger, recorder Recorder) *Submitter {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	if cfg.SettlingDelay <= 0 {
		cfg.SettlingDelay = DefaultSettlingDelay
	}
	if cfg.Network == "" {
		cfg.Network = "testnet"
	}
	return &Submitter{
		wallet:      wallet,
		state:       state,
		invalidator: invalidator,
		history:     repo,
		logger:      logger,
		recorder:    recorder,
		cfg:         cfg,
		afterFunc:   func(d time.Duration, f func()) { time.AfterFunc(d, f) },
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// ApplyForLoan borrows amount from the pool. The pool contract is the sender
// of the tokens.
func (s *Submitter) ApplyForLoan(ctx context.Context, display decimal.Decimal) (history.Record, error) {
	st, err := s.connected()
	if err != nil {
		return history.Record{}, err
	}
	display = amount.Normalize(display)
	if err := ValidateBorrow(st, display); err != nil {
		return history.Record{}, err
	}
	base := amount.ToBaseUnits(display)
	call := s.call("apply-for-loan", []stacks.Value{stacks.NewUIntBig(base)}, s.cfg.Contracts.PoolID(), base)
	return s.submit(ctx, st.Session.AccountAddress, history.ActionBorrow, display, call)
}

// RepayLoan repays the full amount due. The borrower is the sender.
func (s *Submitter) RepayLoan(ctx context.Context) (history.Record, error) {
	st, err := s.connected()
	if err != nil {
		return history.Record{}, err
	}
	due, err := ValidateRepay(st)
	if err != nil {
		return history.Record{}, err
	}
	address := st.Session.AccountAddress
	principal, err := stacks.NewPrincipal(address)
	if err != nil {
		return history.Record{}, err
	}
	base := amount.ToBaseUnits(due)
	call := s.call("repay-loan", []stacks.Value{principal}, address, base)
	return s.submit(ctx, address, history.ActionRepay, due, call)
}

// Lend deposits amount into the pool. The lender is the sender.
func (s *Submitter) Lend(ctx context.Context, display decimal.Decimal) (history.Record, error) {
	st, err := s.connected()
	if err != nil {
		return history.Record{}, err
	}
	display = amount.Normalize(display)
	if err := ValidateDeposit(st, display); err != nil {
		return history.Record{}, err
	}
	address := st.Session.AccountAddress
	base := amount.ToBaseUnits(display)
	call := s.call("lend", []stacks.Value{stacks.NewUIntBig(base)}, address, base)
	return s.submit(ctx, address, history.ActionLend, display, call)
}

// Withdraw takes amount back out of the pool. The pool contract is the sender.
func (s *Submitter) Withdraw(ctx context.Context, display decimal.Decimal) (history.Record, error) {
	st, err := s.connected()
	if err != nil {
		return history.Record{}, err
	}
	display = amount.Normalize(display)
	if err := ValidateWithdraw(st, display); err != nil {
		return history.Record{}, err
	}
	base := amount.ToBaseUnits(display)
	call := s.call("withdraw", []stacks.Value{stacks.NewUIntBig(base)}, s.cfg.Contracts.PoolID(), base)
	return s.submit(ctx, st.Session.AccountAddress, history.ActionWithdraw, display, call)
}

func (s *Submitter) connected() (viewstate.State, error) {
	st := s.state.Snapshot()
	if !st.Session.Connected || st.Session.AccountAddress == "" {
		return st, ErrNotConnected
	}
	return st, nil
}

func (s *Submitter) call(fn string, args []stacks.Value, sender string, base *big.Int) stacks.ContractCall {
	return stacks.ContractCall{
		Contract:          s.cfg.Contracts.PoolID(),
		FunctionName:      fn,
		FunctionArgs:      args,
		Network:           s.cfg.Network,
		PostConditions:    []stacks.PostCondition{stacks.FungibleEq(sender, s.cfg.Contracts.TokenAsset(), base)},
		PostConditionMode: stacks.PostConditionDeny,
	}
}

func (s *Submitter) submit(ctx context.Context, address string, action history.Action, display decimal.Decimal, call stacks.ContractCall) (history.Record, error) {
	txID, err := s.wallet.CallContract(ctx, call)
	s.recorder.ObserveSubmission(string(action), err)
	if err != nil {
		s.logger.Warn("transaction rejected", "action", action, "err", err)
		return history.Record{}, &RejectedError{Message: err.Error()}
	}

	now := s.now()
	rec := history.Record{
		ID:        uuid.New(),
		TxID:      txID,
		Address:   address,
		Action:    action,
		Amount:    display,
		Status:    history.StatusSubmitted,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.history.Insert(ctx, rec); err != nil {
		// the transaction is already out; only the record is lost
		s.logger.Error("record transaction history failed", "txid", txID, "err", err)
	}
	s.logger.Info("transaction submitted", "action", action, "txid", txID, "amount", display.String())

	reason := fmt.Sprintf("tx_submitted:%s", action)
	s.afterFunc(s.cfg.SettlingDelay, func() {
		s.invalidator.Invalidate(viewstate.StateInvalidated{Reason: reason})
	})
	return rec, nil
}
