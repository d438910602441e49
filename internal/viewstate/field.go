package viewstate

import (
	"encoding/json"
	"time"
)

type Status string

const (
	StatusUnloaded Status = "unloaded"
	StatusLoaded   Status = "loaded"
	StatusFailed   Status = "failed"
)

// Field is one slot of mirrored ledger state. A failed slot keeps the last
// value it loaded, if any.
type Field[T any] struct {
	status    Status
	value     T
	hasValue  bool
	reason    string
	updatedAt time.Time
}

func (f Field[T]) Status() Status {
	if f.status == "" {
		return StatusUnloaded
	}
	return f.status
}

// Get returns the last loaded value and whether there is one.
func (f Field[T]) Get() (T, bool) { return f.value, f.hasValue }

func (f Field[T]) Reason() string { return f.reason }

func (f Field[T]) loaded(v T, at time.Time) Field[T] {
	return Field[T]{status: StatusLoaded, value: v, hasValue: true, updatedAt: at}
}

func (f Field[T]) failed(reason string, at time.Time) Field[T] {
	f.status = StatusFailed
	f.reason = reason
	f.updatedAt = at
	return f
}

func (f Field[T]) MarshalJSON() ([]byte, error) {
	out := struct {
		Status    Status     `json:"status"`
		Value     *T         `json:"value"`
		Reason    string     `json:"reason,omitempty"`
		UpdatedAt *time.Time `json:"updated_at,omitempty"`
	}{Status: f.Status(), Reason: f.reason}
	if f.hasValue {
		v := f.value
		out.Value = &v
	}
	if !f.updatedAt.IsZero() {
		at := f.updatedAt
		out.UpdatedAt = &at
	}
	return json.Marshal(out)
}

// Loaded builds a loaded field, for callers assembling state outside the
// adapter.
func Loaded[T any](v T) Field[T] {
	return Field[T]{}.loaded(v, time.Now().UTC())
}
