package viewstate

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/giantgun/BareBtc/internal/domain/borrower"
	"github.com/giantgun/BareBtc/internal/domain/lender"
	"github.com/giantgun/BareBtc/internal/domain/loan"
	"github.com/giantgun/BareBtc/internal/domain/pool"
	"github.com/giantgun/BareBtc/internal/ledger"
	"github.com/giantgun/BareBtc/internal/session"
	"github.com/shopspring/decimal"
	"go.uber.org/goleak"
)

const testAddress = "ST2J6ZY48GV1EZ5V2V5RB9MP66SW86PYKKQYAC0RQ"

type fakeGateway struct {
	calls sync.Map // query name -> *atomic.Int64

	mu          sync.Mutex
	failPool    bool
	balanceGate chan struct{}
	balanceHit  chan struct{}
}

func (f *fakeGateway) count(name string) int64 {
	v, _ := f.calls.LoadOrStore(name, new(atomic.Int64))
	return v.(*atomic.Int64).Load()
}

func (f *fakeGateway) hit(name string) {
	v, _ := f.calls.LoadOrStore(name, new(atomic.Int64))
	v.(*atomic.Int64).Add(1)
}

func (f *fakeGateway) GetBalance(context.Context, string) (borrower.Balance, error) {
	f.hit(ledger.QueryBalance)
	f.mu.Lock()
	gate, hitCh := f.balanceGate, f.balanceHit
	f.mu.Unlock()
	if hitCh != nil {
		hitCh <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	return borrower.Balance{SBTC: decimal.RequireFromString("0.5")}, nil
}

func (f *fakeGateway) GetLoanEligibility(context.Context, string) (loan.Eligibility, error) {
	f.hit(ledger.QueryLoanEligibility)
	return loan.Eligibility{LoanLimit: decimal.RequireFromString("0.05"), DurationDays: 30}, nil
}

func (f *fakeGateway) GetLenderInfo(context.Context, string) (lender.Position, error) {
	f.hit(ledger.QueryLenderInfo)
	return lender.Position{LenderBalance: decimal.RequireFromString("0.1")}, nil
}

func (f *fakeGateway) GetPoolInfo(context.Context, string) (pool.Info, error) {
	f.hit(ledger.QueryPoolInfo)
	f.mu.Lock()
	fail := f.failPool
	f.mu.Unlock()
	if fail {
		return pool.Info{}, &ledger.QueryError{Query: ledger.QueryPoolInfo, Err: errors.New("connection reset")}
	}
	return pool.Info{PoolSize: decimal.RequireFromString("2")}, nil
}

func (f *fakeGateway) GetCreditScore(context.Context, string) (borrower.CreditScore, error) {
	f.hit(ledger.QueryCreditScore)
	return 640, nil
}

func (f *fakeGateway) GetBorrowerInfo(context.Context, string) (ledger.BorrowerInfo, error) {
	f.hit(ledger.QueryBorrowerInfo)
	return ledger.BorrowerInfo{}, nil
}

func (f *fakeGateway) ChainTip(context.Context) (uint64, error) {
	f.hit(ledger.QueryChainTip)
	return 1000, nil
}

// startAdapter runs the adapter and returns a channel that receives every
// completed battery.
func startAdapter(t *testing.T, gw Gateway) (*Adapter, <-chan Update, func()) {
	t.Helper()
	a := NewAdapter(gw, nil, nil)
	batteries := make(chan Update, 16)
	a.Subscribe(func(u Update) {
		if u.Kind == UpdateBatteryComplete {
			batteries <- u
		}
	})
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		a.Run(ctx)
		close(stopped)
	}()
	return a, batteries, func() {
		cancel()
		<-stopped
	}
}

func waitBattery(t *testing.T, ch <-chan Update) Update {
	t.Helper()
	select {
	case u := <-ch:
		return u
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for battery")
		return Update{}
	}
}

func connected(epoch uint64) session.Event {
	return session.Event{Kind: session.EventConnected, Session: session.Session{AccountAddress: testAddress, Connected: true, Epoch: epoch}}
}

func TestUnloadedBeforeConnect(t *testing.T) {
	a := NewAdapter(&fakeGateway{}, nil, nil)
	s := a.Snapshot()
	if s.Balance.Status() != StatusUnloaded || s.CreditScore.Status() != StatusUnloaded {
		t.Fatalf("expected unloaded slots, got %s/%s", s.Balance.Status(), s.CreditScore.Status())
	}
	if _, ok := s.Pool.Get(); ok {
		t.Fatalf("expected no pool value")
	}
}

func TestConnectLoadsEverySlot(t *testing.T) {
	defer goleak.VerifyNone(t)

	gw := &fakeGateway{}
	a, batteries, stop := startAdapter(t, gw)
	defer stop()

	a.SessionChanged(connected(1))
	waitBattery(t, batteries)

	s := a.Snapshot()
	for name, st := range map[string]Status{
		SlotBalance:     s.Balance.Status(),
		SlotEligibility: s.Eligibility.Status(),
		SlotLender:      s.Lender.Status(),
		SlotPool:        s.Pool.Status(),
		SlotCreditScore: s.CreditScore.Status(),
		SlotBorrower:    s.Borrower.Status(),
		SlotChainTip:    s.ChainTip.Status(),
	} {
		if st != StatusLoaded {
			t.Fatalf("expected %s loaded, got %s", name, st)
		}
	}
	if score, _ := s.CreditScore.Get(); score != 640 {
		t.Fatalf("unexpected credit score %d", score)
	}
}

func TestSingleFailureDegradesOnlyItsSlot(t *testing.T) {
	defer goleak.VerifyNone(t)

	gw := &fakeGateway{}
	a, batteries, stop := startAdapter(t, gw)
	defer stop()

	a.SessionChanged(connected(1))
	waitBattery(t, batteries)

	gw.mu.Lock()
	gw.failPool = true
	gw.mu.Unlock()
	a.Invalidate(StateInvalidated{Reason: "reload"})
	waitBattery(t, batteries)

	s := a.Snapshot()
	if s.Pool.Status() != StatusFailed || s.Pool.Reason() == "" {
		t.Fatalf("expected failed pool slot, got %s", s.Pool.Status())
	}
	if info, ok := s.Pool.Get(); !ok || !info.PoolSize.Equal(decimal.RequireFromString("2")) {
		t.Fatalf("expected failed slot to keep last value, got %+v (%v)", info, ok)
	}
	if s.Lender.Status() != StatusLoaded || s.Balance.Status() != StatusLoaded {
		t.Fatalf("expected sibling slots loaded")
	}
}

func TestFailureBeforeFirstLoadHasNoValue(t *testing.T) {
	defer goleak.VerifyNone(t)

	gw := &fakeGateway{failPool: true}
	a, batteries, stop := startAdapter(t, gw)
	defer stop()

	a.SessionChanged(connected(1))
	waitBattery(t, batteries)

	s := a.Snapshot()
	if _, ok := s.Pool.Get(); ok || s.Pool.Status() != StatusFailed {
		t.Fatalf("expected failed pool slot without value")
	}
}

func TestTwoReloadsRunTwoBatteries(t *testing.T) {
	defer goleak.VerifyNone(t)

	gw := &fakeGateway{}
	a, batteries, stop := startAdapter(t, gw)
	defer stop()

	a.SessionChanged(connected(1))
	waitBattery(t, batteries)

	a.Invalidate(StateInvalidated{Reason: "reload"})
	a.Invalidate(StateInvalidated{Reason: "reload"})
	waitBattery(t, batteries)
	waitBattery(t, batteries)

	if a.Batteries() != 3 {
		t.Fatalf("expected 3 batteries, got %d", a.Batteries())
	}
	for _, name := range []string{
		ledger.QueryBalance, ledger.QueryLoanEligibility, ledger.QueryLenderInfo,
		ledger.QueryPoolInfo, ledger.QueryCreditScore, ledger.QueryBorrowerInfo, ledger.QueryChainTip,
	} {
		if got := gw.count(name); got != 3 {
			t.Fatalf("expected %s queried 3 times, got %d", name, got)
		}
	}
}

func TestDisconnectWhileInFlightDiscardsLateResult(t *testing.T) {
	defer goleak.VerifyNone(t)

	gw := &fakeGateway{balanceGate: make(chan struct{}), balanceHit: make(chan struct{}, 1)}
	a, batteries, stop := startAdapter(t, gw)
	defer stop()

	a.SessionChanged(connected(1))
	<-gw.balanceHit

	a.SessionChanged(session.Event{Kind: session.EventDisconnected, Session: session.Session{Epoch: 2}})
	close(gw.balanceGate)
	waitBattery(t, batteries)

	s := a.Snapshot()
	if s.Session.Connected {
		t.Fatalf("expected disconnected session")
	}
	if s.Balance.Status() != StatusUnloaded {
		t.Fatalf("expected late balance discarded, got %s", s.Balance.Status())
	}
	if a.Discarded() == 0 {
		t.Fatalf("expected discarded results")
	}
}

func TestInvalidateWithoutSessionIsNoop(t *testing.T) {
	defer goleak.VerifyNone(t)

	gw := &fakeGateway{}
	a, _, stop := startAdapter(t, gw)

	a.Invalidate(StateInvalidated{Reason: "reload"})
	stop()

	if a.Batteries() != 0 || gw.count(ledger.QueryBalance) != 0 {
		t.Fatalf("expected no queries without a session")
	}
}

func TestFieldJSON(t *testing.T) {
	var f Field[uint64]
	raw, _ := json.Marshal(f)
	if string(raw) != `{"status":"unloaded","value":null}` {
		t.Fatalf("unexpected unloaded json: %s", raw)
	}
	f = f.loaded(7, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)).failed("boom", time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC))
	raw, _ = json.Marshal(f)
	if string(raw) != `{"status":"failed","value":7,"reason":"boom","updated_at":"2026-01-02T00:00:00Z"}` {
		t.Fatalf("unexpected failed json: %s", raw)
	}
}
