package txn

import "errors"

var (
	ErrTransactionRejected     = errors.New("transaction_rejected")
	ErrInvalidAmount           = errors.New("invalid_amount")
	ErrInsufficientBalance     = errors.New("insufficient_balance")
	ErrInsufficientPoolBalance = errors.New("insufficient_pool_balance")
	ErrNotConnected            = errors.New("wallet_not_connected")
	// ErrStateUnavailable means a value needed for validation has not loaded.
	ErrStateUnavailable = errors.New("state_unavailable")
)

// RejectedError carries the wallet's or node's message unchanged.
type RejectedError struct {
	Message string
}

func (e *RejectedError) Error() string { return e.Message }

func (e *RejectedError) Is(target error) bool { return target == ErrTransactionRejected }
