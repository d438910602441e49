package history

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("history_record_not_found")

type Action string

const (
	ActionBorrow   Action = "borrow"
	ActionRepay    Action = "repay"
	ActionLend     Action = "lend"
	ActionWithdraw Action = "withdraw"
)

// Status is where a submitted transaction is in its lifecycle. Submitted is
// the only non-terminal state.
type Status string

const (
	StatusSubmitted Status = "submitted"
	StatusConfirmed Status = "confirmed"
	StatusRejected  Status = "rejected"
	StatusDropped   Status = "dropped"
)

func (s Status) Terminal() bool {
	return s == StatusConfirmed || s == StatusRejected || s == StatusDropped
}

// CanTransition reports whether from -> to is a legal status change.
func CanTransition(from, to Status) bool {
	return from == StatusSubmitted && to.Terminal()
}

type Record struct {
	ID        uuid.UUID       `json:"id"`
	TxID      string          `json:"txid"`
	Address   string          `json:"address"`
	Action    Action          `json:"action"`
	Amount    decimal.Decimal `json:"amount"`
	Status    Status          `json:"status"`
	Reason    string          `json:"reason,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type Repository interface {
	Insert(ctx context.Context, rec Record) error
	ListByAddress(ctx context.Context, address string, limit int32) ([]Record, error)
	// ListPending returns submitted records, never checked first, then least
	// recently checked, oldest first among equals.
	ListPending(ctx context.Context, limit int32) ([]Record, error)
	// MarkChecked stamps a still-submitted record as looked up at at.
	MarkChecked(ctx context.Context, id uuid.UUID, at time.Time) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status, reason string) error
}
