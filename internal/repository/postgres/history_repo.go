package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/giantgun/BareBtc/internal/domain/history"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type HistoryRepository struct {
	pool *pgxpool.Pool
}

func NewHistoryRepository(pool *pgxpool.Pool) *HistoryRepository {
	return &HistoryRepository{pool: pool}
}

const historyColumns = `id, txid, address, action, amount::text, status, reason, created_at, updated_at`

func (r *HistoryRepository) Insert(ctx context.Context, rec history.Record) error {
	q := `
INSERT INTO tx_history (id, txid, address, action, amount, status, reason, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8, $9)
`
	_, err := r.pool.Exec(ctx, q,
		rec.ID, rec.TxID, rec.Address, string(rec.Action), rec.Amount.String(),
		string(rec.Status), rec.Reason, rec.CreatedAt, rec.UpdatedAt,
	)
	return err
}

func (r *HistoryRepository) ListByAddress(ctx context.Context, address string, limit int32) ([]history.Record, error) {
	if limit <= 0 {
		limit = 50
	}
	q := `SELECT ` + historyColumns + ` FROM tx_history WHERE address = $1 ORDER BY created_at DESC LIMIT $2`
	rows, err := r.pool.Query(ctx, q, address, limit)
	if err != nil {
		return nil, err
	}
	return scanHistory(rows)
}

func (r *HistoryRepository) ListPending(ctx context.Context, limit int32) ([]history.Record, error) {
	if limit <= 0 {
		limit = 25
	}
	q := `SELECT ` + historyColumns + ` FROM tx_history WHERE status = 'submitted' ORDER BY checked_at ASC NULLS FIRST, created_at ASC LIMIT $1`
	rows, err := r.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	return scanHistory(rows)
}

func (r *HistoryRepository) MarkChecked(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := r.pool.Exec(ctx, `UPDATE tx_history SET checked_at = $2 WHERE id = $1 AND status = 'submitted'`, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return history.ErrNotFound
	}
	return nil
}

// UpdateStatus only moves records out of submitted, so concurrent trackers
// cannot overwrite a terminal status.
func (r *HistoryRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status history.Status, reason string) error {
	if !history.CanTransition(history.StatusSubmitted, status) {
		return fmt.Errorf("invalid target status %s", status)
	}
	q := `
UPDATE tx_history
SET status = $2, reason = $3, updated_at = now()
WHERE id = $1 AND status = 'submitted'
`
	tag, err := r.pool.Exec(ctx, q, id, string(status), reason)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return history.ErrNotFound
	}
	return nil
}

func scanHistory(rows pgx.Rows) ([]history.Record, error) {
	defer rows.Close()

	out := make([]history.Record, 0)
	for rows.Next() {
		var (
			rec            history.Record
			action, status string
			amountText     string
		)
		if err := rows.Scan(&rec.ID, &rec.TxID, &rec.Address, &action, &amountText, &status, &rec.Reason, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		amt, err := decimal.NewFromString(amountText)
		if err != nil {
			return nil, fmt.Errorf("history %s amount: %w", rec.ID, err)
		}
		rec.Action, rec.Status, rec.Amount = history.Action(action), history.Status(status), amt
		out = append(out, rec)
	}
	return out, rows.Err()
}
