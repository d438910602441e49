package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/giantgun/BareBtc/internal/domain/history"
	"github.com/giantgun/BareBtc/internal/stacks"
	"github.com/google/uuid"
)

type fakeStatusSource struct {
	statuses map[string]stacks.TxStatus
	errs     map[string]error
}

func (f *fakeStatusSource) TransactionStatus(_ context.Context, txID string) (stacks.TxStatus, error) {
	if err := f.errs[txID]; err != nil {
		return stacks.TxStatusUnknown, err
	}
	if s, ok := f.statuses[txID]; ok {
		return s, nil
	}
	return stacks.TxStatusUnknown, nil
}

func seed(t *testing.T, repo *history.MemoryRepository, txID string, createdAt time.Time) history.Record {
	t.Helper()
	rec := history.Record{ID: uuid.New(), TxID: txID, Address: "A", Action: history.ActionLend, Status: history.StatusSubmitted, CreatedAt: createdAt}
	if err := repo.Insert(context.Background(), rec); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return rec
}

func statusOf(t *testing.T, repo *history.MemoryRepository, id uuid.UUID) history.Record {
	t.Helper()
	list, _ := repo.ListByAddress(context.Background(), "A", 0)
	for _, rec := range list {
		if rec.ID == id {
			return rec
		}
	}
	t.Fatalf("record %s not found", id)
	return history.Record{}
}

func TestTrackerSettlesTerminalStatuses(t *testing.T) {
	repo := history.NewMemoryRepository()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	ok := seed(t, repo, "0x01", now.Add(-time.Minute))
	aborted := seed(t, repo, "0x02", now.Add(-time.Minute))
	dropped := seed(t, repo, "0x03", now.Add(-time.Minute))
	pending := seed(t, repo, "0x04", now.Add(-time.Minute))
	lost := seed(t, repo, "0x05", now.Add(-48*time.Hour))
	flaky := seed(t, repo, "0x06", now.Add(-time.Minute))

	node := &fakeStatusSource{
		statuses: map[string]stacks.TxStatus{
			"0x01": stacks.TxStatusSuccess,
			"0x02": stacks.TxStatusAbortByPostCondition,
			"0x03": stacks.TxStatusDroppedReplaceByFee,
			"0x04": stacks.TxStatusPending,
		},
		errs: map[string]error{"0x06": errors.New("timeout")},
	}
	tracker := NewTracker(repo, node, nil, 24*time.Hour)
	tracker.now = func() time.Time { return now }
	var settled []history.Record
	tracker.OnSettle(func(rec history.Record) { settled = append(settled, rec) })

	if err := tracker.RunOnce(context.Background(), 10); err != nil {
		t.Fatalf("run once: %v", err)
	}

	checks := []struct {
		rec    history.Record
		status history.Status
		reason string
	}{
		{ok, history.StatusConfirmed, ""},
		{aborted, history.StatusRejected, "abort_by_post_condition"},
		{dropped, history.StatusDropped, "dropped_replace_by_fee"},
		{pending, history.StatusSubmitted, ""},
		{lost, history.StatusDropped, "not_found"},
		{flaky, history.StatusSubmitted, ""},
	}
	for _, c := range checks {
		got := statusOf(t, repo, c.rec.ID)
		if got.Status != c.status || got.Reason != c.reason {
			t.Fatalf("%s: expected %s/%q, got %s/%q", c.rec.TxID, c.status, c.reason, got.Status, got.Reason)
		}
	}
	if len(settled) != 4 {
		t.Fatalf("expected 4 settle callbacks, got %d", len(settled))
	}
}

func TestResolve(t *testing.T) {
	if s, _ := Resolve(stacks.TxStatusAbortByResponse); s != history.StatusRejected {
		t.Fatalf("expected rejected, got %s", s)
	}
	if s, _ := Resolve(stacks.TxStatusUnknown); s != history.StatusSubmitted {
		t.Fatalf("expected submitted, got %s", s)
	}
}

func TestTrackerRotatesPastUnresolvedRecords(t *testing.T) {
	repo := history.NewMemoryRepository()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	stuckA := seed(t, repo, "0xa1", now.Add(-2*time.Hour))
	stuckB := seed(t, repo, "0xa2", now.Add(-time.Hour))
	fresh := seed(t, repo, "0xb1", now.Add(-time.Minute))

	node := &fakeStatusSource{statuses: map[string]stacks.TxStatus{"0xb1": stacks.TxStatusSuccess}}
	tracker := NewTracker(repo, node, nil, 24*time.Hour)
	tracker.now = func() time.Time { return now }

	// the first pass only reaches the two stuck records
	if err := tracker.RunOnce(context.Background(), 2); err != nil {
		t.Fatalf("first pass: %v", err)
	}
	if got := statusOf(t, repo, fresh.ID).Status; got != history.StatusSubmitted {
		t.Fatalf("fresh record should not be reached yet, got %s", got)
	}

	now = now.Add(10 * time.Second)
	if err := tracker.RunOnce(context.Background(), 2); err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if got := statusOf(t, repo, fresh.ID).Status; got != history.StatusConfirmed {
		t.Fatalf("expected the newer record to be polled on the next pass, got %s", got)
	}
	for _, rec := range []history.Record{stuckA, stuckB} {
		if got := statusOf(t, repo, rec.ID).Status; got != history.StatusSubmitted {
			t.Fatalf("stuck record %s should stay submitted, got %s", rec.TxID, got)
		}
	}
}
