package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/giantgun/BareBtc/internal/db/testutil"
	admindomain "github.com/giantgun/BareBtc/internal/domain/admin"
	"github.com/giantgun/BareBtc/internal/domain/history"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func TestHistoryRepositoryLifecycle(t *testing.T) {
	pool := testutil.NewTestPool(t)
	defer pool.Close()
	testutil.ApplyMigrations(t, pool)
	testutil.ResetTables(t, pool)

	repo := NewHistoryRepository(pool)
	ctx := context.Background()
	created := time.Now().UTC().Truncate(time.Microsecond)

	rec := history.Record{
		ID:        uuid.New(),
		TxID:      "0xabc",
		Address:   "ST2J6ZY48GV1EZ5V2V5RB9MP66SW86PYKKQYAC0RQ",
		Action:    history.ActionBorrow,
		Amount:    decimal.RequireFromString("0.02"),
		Status:    history.StatusSubmitted,
		CreatedAt: created,
		UpdatedAt: created,
	}
	if err := repo.Insert(ctx, rec); err != nil {
		t.Fatalf("insert: %v", err)
	}

	pending, err := repo.ListPending(ctx, 10)
	if err != nil || len(pending) != 1 {
		t.Fatalf("expected one pending record, got %d (%v)", len(pending), err)
	}
	if !pending[0].Amount.Equal(rec.Amount) {
		t.Fatalf("expected amount %s, got %s", rec.Amount, pending[0].Amount)
	}

	later := rec
	later.ID, later.TxID, later.CreatedAt, later.UpdatedAt = uuid.New(), "0xdef", created.Add(time.Second), created.Add(time.Second)
	if err := repo.Insert(ctx, later); err != nil {
		t.Fatalf("insert later: %v", err)
	}
	if err := repo.MarkChecked(ctx, rec.ID, created.Add(time.Minute)); err != nil {
		t.Fatalf("mark checked: %v", err)
	}
	pending, err = repo.ListPending(ctx, 1)
	if err != nil || len(pending) != 1 || pending[0].ID != later.ID {
		t.Fatalf("expected the unchecked record first, got %+v (%v)", pending, err)
	}
	if err := repo.UpdateStatus(ctx, later.ID, history.StatusConfirmed, ""); err != nil {
		t.Fatalf("update later: %v", err)
	}

	if err := repo.UpdateStatus(ctx, rec.ID, history.StatusConfirmed, ""); err != nil {
		t.Fatalf("update status: %v", err)
	}
	if err := repo.UpdateStatus(ctx, rec.ID, history.StatusDropped, "late"); !errors.Is(err, history.ErrNotFound) {
		t.Fatalf("expected terminal status to stick, got %v", err)
	}

	list, err := repo.ListByAddress(ctx, rec.Address, 10)
	if err != nil || len(list) != 2 || list[1].ID != rec.ID || list[1].Status != history.StatusConfirmed {
		t.Fatalf("unexpected list %+v (%v)", list, err)
	}
}

func TestAdminAuditRepositoryLog(t *testing.T) {
	pool := testutil.NewTestPool(t)
	defer pool.Close()
	testutil.ApplyMigrations(t, pool)
	testutil.ResetTables(t, pool)

	repo := NewAdminAuditRepository(pool)
	err := repo.Log(context.Background(), admindomain.AuditLogInput{
		AdminUserID: "ops-1",
		Action:      "reputation_updated",
		TargetType:  "account",
		TargetID:    "ST2J6ZY48GV1EZ5V2V5RB9MP66SW86PYKKQYAC0RQ",
		Payload:     []byte(`{"score":80}`),
	})
	if err != nil {
		t.Fatalf("log: %v", err)
	}

	var count int
	if err := pool.QueryRow(context.Background(), `SELECT count(*) FROM admin_audit_logs WHERE action = 'reputation_updated'`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one audit row, got %d", count)
	}
}
