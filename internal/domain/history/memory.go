package history

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository keeps history in process. It backs local runs without a
// database.
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[uuid.UUID]Record
	checked map[uuid.UUID]time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[uuid.UUID]Record), checked: make(map[uuid.UUID]time.Time)}
}

func (r *MemoryRepository) Insert(_ context.Context, rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.records[rec.ID]; exists {
		return fmt.Errorf("duplicate history record %s", rec.ID)
	}
	r.records[rec.ID] = rec
	return nil
}

func (r *MemoryRepository) ListByAddress(_ context.Context, address string, limit int32) ([]Record, error) {
	return r.list(limit, func(rec Record) bool { return rec.Address == address }), nil
}

func (r *MemoryRepository) ListPending(_ context.Context, limit int32) ([]Record, error) {
	out := r.list(0, func(rec Record) bool { return rec.Status == StatusSubmitted })
	r.mu.RLock()
	sort.SliceStable(out, func(i, j int) bool {
		ci, cj := r.checked[out[i].ID], r.checked[out[j].ID]
		if !ci.Equal(cj) {
			return ci.Before(cj)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	r.mu.RUnlock()
	if limit > 0 && int(limit) < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepository) MarkChecked(_ context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.records[id]; !ok || rec.Status != StatusSubmitted {
		return ErrNotFound
	}
	r.checked[id] = at
	return nil
}

func (r *MemoryRepository) UpdateStatus(_ context.Context, id uuid.UUID, status Status, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return ErrNotFound
	}
	if !CanTransition(rec.Status, status) {
		return fmt.Errorf("invalid status transition %s -> %s", rec.Status, status)
	}
	rec.Status = status
	rec.Reason = reason
	rec.UpdatedAt = time.Now().UTC()
	r.records[id] = rec
	return nil
}

// list returns matches newest first.
func (r *MemoryRepository) list(limit int32, match func(Record) bool) []Record {
	r.mu.RLock()
	out := make([]Record, 0, len(r.records))
	for _, rec := range r.records {
		if match(rec) {
			out = append(out, rec)
		}
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && int(limit) < len(out) {
		out = out[:limit]
	}
	return out
}
