package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/giantgun/BareBtc/internal/domain/history"
	"github.com/giantgun/BareBtc/internal/stacks"
)

type StatusSource interface {
	TransactionStatus(ctx context.Context, txID string) (stacks.TxStatus, error)
}

// Tracker follows submitted transactions until the node reports a terminal
// status for them.
type Tracker struct {
	repo     history.Repository
	node     StatusSource
	logger   *slog.Logger
	maxAge   time.Duration
	now      func() time.Time
	onSettle func(history.Record)
}

func NewTracker(repo history.Repository, node StatusSource, logger *slog.Logger, maxAge time.Duration) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	if maxAge <= 0 {
		maxAge = 24 * time.Hour
	}
	return &Tracker{
		repo:   repo,
		node:   node,
		logger: logger,
		maxAge: maxAge,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// OnSettle registers a callback for records that reached a terminal status.
func (t *Tracker) OnSettle(fn func(history.Record)) {
	t.onSettle = fn
}

// RunOnce checks one batch of pending records. Lookup failures are logged and
// retried on the next pass.
func (t *Tracker) RunOnce(ctx context.Context, batchSize int32) error {
	pending, err := t.repo.ListPending(ctx, batchSize)
	if err != nil {
		return err
	}
	for _, rec := range pending {
		if err := t.process(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tracker) process(ctx context.Context, rec history.Record) error {
	status, err := t.node.TransactionStatus(ctx, rec.TxID)
	if err != nil {
		t.logger.Warn("transaction status lookup failed", "txid", rec.TxID, "err", err)
		t.markChecked(ctx, rec)
		return nil
	}

	next, reason := Resolve(status)
	if next == history.StatusSubmitted {
		if status == stacks.TxStatusUnknown && t.now().Sub(rec.CreatedAt) > t.maxAge {
			next, reason = history.StatusDropped, "not_found"
		} else {
			t.markChecked(ctx, rec)
			return nil
		}
	}

	if err := t.repo.UpdateStatus(ctx, rec.ID, next, reason); err != nil {
		return fmt.Errorf("update status of %s: %w", rec.TxID, err)
	}
	rec.Status, rec.Reason = next, reason
	t.logger.Info("transaction settled", "txid", rec.TxID, "action", rec.Action, "status", next, "reason", reason)
	if t.onSettle != nil {
		t.onSettle(rec)
	}
	return nil
}

// markChecked moves rec behind the other pending records, so a batch full of
// unresolved transactions does not starve newer ones.
func (t *Tracker) markChecked(ctx context.Context, rec history.Record) {
	if err := t.repo.MarkChecked(ctx, rec.ID, t.now()); err != nil {
		t.logger.Warn("mark transaction checked failed", "txid", rec.TxID, "err", err)
	}
}

// Resolve maps a node status to a history status. Pending and unknown map to
// Submitted.
func Resolve(status stacks.TxStatus) (history.Status, string) {
	switch {
	case status == stacks.TxStatusSuccess:
		return history.StatusConfirmed, ""
	case strings.HasPrefix(string(status), "abort_"):
		return history.StatusRejected, string(status)
	case strings.HasPrefix(string(status), "dropped_"):
		return history.StatusDropped, string(status)
	default:
		return history.StatusSubmitted, ""
	}
}

// Run polls until ctx is done.
func (t *Tracker) Run(ctx context.Context, interval time.Duration, batchSize int32) {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			err := t.RunOnce(runCtx, batchSize)
			cancel()
			if err != nil && ctx.Err() == nil {
				t.logger.Error("tracker run failed", "err", err)
			}
		}
	}
}
