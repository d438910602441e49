// Package viewstate mirrors the pool contract's view of the connected account.
//
// The adapter owns a single loop. Session changes and StateInvalidated events
// are queued to it in order; each refresh runs the full query battery
// concurrently and publishes every slot as soon as its own query resolves.
// Results are stamped with the session epoch they were started under and are
// discarded if the session has moved on by the time they arrive.
package viewstate

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/giantgun/BareBtc/internal/domain/borrower"
	"github.com/giantgun/BareBtc/internal/domain/lender"
	"github.com/giantgun/BareBtc/internal/domain/loan"
	"github.com/giantgun/BareBtc/internal/domain/pool"
	"github.com/giantgun/BareBtc/internal/ledger"
	"github.com/giantgun/BareBtc/internal/session"
	"golang.org/x/sync/errgroup"
)

const queueSize = 64

// Gateway is the read side of the ledger the adapter depends on.
type Gateway interface {
	GetBalance(ctx context.Context, address string) (borrower.Balance, error)
	GetLoanEligibility(ctx context.Context, address string) (loan.Eligibility, error)
	GetLenderInfo(ctx context.Context, address string) (lender.Position, error)
	GetPoolInfo(ctx context.Context, address string) (pool.Info, error)
	GetCreditScore(ctx context.Context, address string) (borrower.CreditScore, error)
	GetBorrowerInfo(ctx context.Context, address string) (ledger.BorrowerInfo, error)
	ChainTip(ctx context.Context) (uint64, error)
}

// Recorder receives adapter metrics.
type Recorder interface {
	ObserveQuery(query string, err error, took time.Duration)
	ObserveStale(query string)
	ObserveBattery(reason string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveQuery(string, error, time.Duration) {}
func (nopRecorder) ObserveStale(string)                       {}
func (nopRecorder) ObserveBattery(string)                     {}

// StateInvalidated asks for a full re-read of the ledger.
type StateInvalidated struct {
	Reason string
}

type UpdateKind string

const (
	UpdateField           UpdateKind = "field"
	UpdateReset           UpdateKind = "reset"
	UpdateBatteryComplete UpdateKind = "battery_complete"
)

// Update tells subscribers what changed.
type Update struct {
	Kind    UpdateKind `json:"kind"`
	Slot    string     `json:"slot,omitempty"`
	Status  Status     `json:"status,omitempty"`
	Address string     `json:"address,omitempty"`
	Epoch   uint64     `json:"epoch"`
	Reason  string     `json:"reason,omitempty"`
}

type request struct {
	reason string
}

type Adapter struct {
	gateway  Gateway
	logger   *slog.Logger
	recorder Recorder
	now      func() time.Time

	queue   chan request
	done    chan struct{}
	started atomic.Bool

	mu    sync.RWMutex
	state State

	subsMu sync.RWMutex
	subs   map[int]func(Update)
	nextID int

	batteries atomic.Uint64
	stale     atomic.Uint64
}

func NewAdapter(gateway Gateway, logger *slog.Logger, recorder Recorder) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Adapter{
		gateway:  gateway,
		logger:   logger,
		recorder: recorder,
		now:      func() time.Time { return time.Now().UTC() },
		queue:    make(chan request, queueSize),
		done:     make(chan struct{}),
		subs:     make(map[int]func(Update)),
	}
}

// Run consumes queued refreshes until ctx is done. An in-flight battery is
// allowed to finish before Run returns.
func (a *Adapter) Run(ctx context.Context) {
	if !a.started.CompareAndSwap(false, true) {
		return
	}
	defer close(a.done)
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-a.queue:
			a.refresh(ctx, req.reason)
		}
	}
}

// SessionChanged resets the mirrored state for the new session and, if an
// account is bound, queues a refresh.
func (a *Adapter) SessionChanged(ev session.Event) {
	a.mu.Lock()
	a.state = emptyState(ev.Session)
	a.mu.Unlock()

	a.notify(Update{Kind: UpdateReset, Address: ev.Session.AccountAddress, Epoch: ev.Session.Epoch, Reason: string(ev.Kind)})
	if ev.Session.Connected {
		a.enqueue(request{reason: "session_" + string(ev.Kind)})
	}
}

// Invalidate queues a full battery. Every call produces one battery.
func (a *Adapter) Invalidate(ev StateInvalidated) {
	a.enqueue(request{reason: ev.Reason})
}

func (a *Adapter) enqueue(req request) {
	select {
	case a.queue <- req:
	case <-a.done:
		a.logger.Warn("view state adapter stopped; dropping refresh", "reason", req.reason)
	}
}

// Snapshot returns a copy of the current state.
func (a *Adapter) Snapshot() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

// Subscribe registers fn for updates. fn runs on the publishing goroutine and
// must not block.
func (a *Adapter) Subscribe(fn func(Update)) func() {
	a.subsMu.Lock()
	id := a.nextID
	a.nextID++
	a.subs[id] = fn
	a.subsMu.Unlock()
	return func() {
		a.subsMu.Lock()
		delete(a.subs, id)
		a.subsMu.Unlock()
	}
}

// Batteries is the number of completed batteries.
func (a *Adapter) Batteries() uint64 { return a.batteries.Load() }

// Discarded is the number of query results dropped as stale.
func (a *Adapter) Discarded() uint64 { return a.stale.Load() }

func (a *Adapter) notify(u Update) {
	a.subsMu.RLock()
	fns := make([]func(Update), 0, len(a.subs))
	for _, fn := range a.subs {
		fns = append(fns, fn)
	}
	a.subsMu.RUnlock()
	for _, fn := range fns {
		fn(u)
	}
}

func (a *Adapter) refresh(ctx context.Context, reason string) {
	current := a.Snapshot().Session
	if !current.Connected {
		a.logger.Debug("skipping refresh without session", "reason", reason)
		return
	}
	epoch, address := current.Epoch, current.AccountAddress
	a.recorder.ObserveBattery(reason)
	started := a.now()

	var g errgroup.Group
	query(&g, a, epoch, ledger.QueryBalance, func() (borrower.Balance, error) {
		return a.gateway.GetBalance(ctx, address)
	}, func(s *State) *Field[borrower.Balance] { return &s.Balance })
	query(&g, a, epoch, ledger.QueryLoanEligibility, func() (loan.Eligibility, error) {
		return a.gateway.GetLoanEligibility(ctx, address)
	}, func(s *State) *Field[loan.Eligibility] { return &s.Eligibility })
	query(&g, a, epoch, ledger.QueryLenderInfo, func() (lender.Position, error) {
		return a.gateway.GetLenderInfo(ctx, address)
	}, func(s *State) *Field[lender.Position] { return &s.Lender })
	query(&g, a, epoch, ledger.QueryPoolInfo, func() (pool.Info, error) {
		return a.gateway.GetPoolInfo(ctx, address)
	}, func(s *State) *Field[pool.Info] { return &s.Pool })
	query(&g, a, epoch, ledger.QueryCreditScore, func() (borrower.CreditScore, error) {
		return a.gateway.GetCreditScore(ctx, address)
	}, func(s *State) *Field[borrower.CreditScore] { return &s.CreditScore })
	query(&g, a, epoch, ledger.QueryBorrowerInfo, func() (ledger.BorrowerInfo, error) {
		return a.gateway.GetBorrowerInfo(ctx, address)
	}, func(s *State) *Field[ledger.BorrowerInfo] { return &s.Borrower })
	query(&g, a, epoch, ledger.QueryChainTip, func() (uint64, error) {
		return a.gateway.ChainTip(ctx)
	}, func(s *State) *Field[uint64] { return &s.ChainTip })
	_ = g.Wait()

	a.batteries.Add(1)
	a.logger.Debug("query battery complete", "reason", reason, "epoch", epoch, "took", a.now().Sub(started))
	a.notify(Update{Kind: UpdateBatteryComplete, Address: address, Epoch: epoch, Reason: reason})
}

// query runs fetch on g and publishes its outcome into the slot chosen by
// pick. Errors are captured into the slot and never returned to g, so one
// failing query does not cancel its siblings.
func query[T any](g *errgroup.Group, a *Adapter, epoch uint64, name string, fetch func() (T, error), pick func(*State) *Field[T]) {
	g.Go(func() error {
		start := time.Now()
		v, err := fetch()
		a.recorder.ObserveQuery(name, err, time.Since(start))

		a.mu.Lock()
		if a.state.Session.Epoch != epoch {
			a.mu.Unlock()
			a.stale.Add(1)
			a.recorder.ObserveStale(name)
			a.logger.Debug("discarding stale query result", "query", name, "epoch", epoch)
			return nil
		}
		slot := pick(&a.state)
		if err != nil {
			*slot = slot.failed(err.Error(), a.now())
		} else {
			*slot = slot.loaded(v, a.now())
		}
		status := slot.Status()
		address := a.state.Session.AccountAddress
		a.mu.Unlock()

		if err != nil {
			a.logger.Warn("ledger query failed", "query", name, "err", err)
		}
		a.notify(Update{Kind: UpdateField, Slot: name, Status: status, Address: address, Epoch: epoch})
		return nil
	})
}
