package records

import (
	"context"
	"sync"

	"github.com/KirkDiggler/vtt-spell-tracker/internal/domain/tracking"
)

type inMemoryRepository struct {
	mu        sync.RWMutex
	focus     map[string][]*tracking.FocusRecord
	durations map[string][]*tracking.DurationRecord
}

// NewInMemoryRepository creates a new in-memory records repository
func NewInMemoryRepository() Repository {
	return &inMemoryRepository{
		focus:     make(map[string][]*tracking.FocusRecord),
		durations: make(map[string][]*tracking.DurationRecord),
	}
}

// GetFocus returns the caster's focus records
func (r *inMemoryRepository) GetFocus(ctx context.Context, casterID string) ([]*tracking.FocusRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.focus[casterID]
	out := make([]*tracking.FocusRecord, len(stored))
	copy(out, stored)
	return out, nil
}

// SaveFocus replaces the caster's focus records
func (r *inMemoryRepository) SaveFocus(ctx context.Context, casterID string, records []*tracking.FocusRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(records) == 0 {
		delete(r.focus, casterID)
		return nil
	}

	stored := make([]*tracking.FocusRecord, len(records))
	copy(stored, records)
	r.focus[casterID] = stored
	return nil
}

// GetDurations returns the caster's duration records
func (r *inMemoryRepository) GetDurations(ctx context.Context, casterID string) ([]*tracking.DurationRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.durations[casterID]
	out := make([]*tracking.DurationRecord, len(stored))
	copy(out, stored)
	return out, nil
}

// SaveDurations replaces the caster's duration records
func (r *inMemoryRepository) SaveDurations(ctx context.Context, casterID string, records []*tracking.DurationRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(records) == 0 {
		delete(r.durations, casterID)
		return nil
	}

	stored := make([]*tracking.DurationRecord, len(records))
	copy(stored, records)
	r.durations[casterID] = stored
	return nil
}

// GetAll fetches both tables for a caster
func (r *inMemoryRepository) GetAll(ctx context.Context, casterID string) (*RecordSet, error) {
	focus, err := r.GetFocus(ctx, casterID)
	if err != nil {
		return nil, err
	}
	durations, err := r.GetDurations(ctx, casterID)
	if err != nil {
		return nil, err
	}
	return &RecordSet{Focus: focus, Durations: durations}, nil
}

// ListCasters returns every caster with at least one record
func (r *inMemoryRepository) ListCasters(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool)
	for casterID := range r.focus {
		seen[casterID] = true
	}
	for casterID := range r.durations {
		seen[casterID] = true
	}

	out := make([]string, 0, len(seen))
	for casterID := range seen {
		out = append(out, casterID)
	}
	return out, nil
}

// Clear removes all records for a caster
func (r *inMemoryRepository) Clear(ctx context.Context, casterID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.focus, casterID)
	delete(r.durations, casterID)
	return nil
}
