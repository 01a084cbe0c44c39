package records

import (
	"context"

	"github.com/KirkDiggler/vtt-spell-tracker/internal/domain/tracking"
)

// RecordSet bundles both tracking tables for one caster
type RecordSet struct {
	Focus     []*tracking.FocusRecord
	Durations []*tracking.DurationRecord
}

// Repository stores tracking records per caster. Lists are small (a handful
// of concurrent spells per actor) so every lookup loads one caster's list;
// there is no global secondary index.
//
// The store has no transactions: concurrent writers are last-write-wins, and
// the single-writer convention (see internal/authority) is what keeps that
// safe in practice.
type Repository interface {
	// GetFocus returns the caster's focus records, empty when none
	GetFocus(ctx context.Context, casterID string) ([]*tracking.FocusRecord, error)

	// SaveFocus replaces the caster's focus records
	SaveFocus(ctx context.Context, casterID string, records []*tracking.FocusRecord) error

	// GetDurations returns the caster's duration records, empty when none
	GetDurations(ctx context.Context, casterID string) ([]*tracking.DurationRecord, error)

	// SaveDurations replaces the caster's duration records
	SaveDurations(ctx context.Context, casterID string, records []*tracking.DurationRecord) error

	// GetAll fetches both tables for a caster
	GetAll(ctx context.Context, casterID string) (*RecordSet, error)

	// ListCasters returns every caster with at least one record of either kind
	ListCasters(ctx context.Context) ([]string, error)

	// Clear removes all records for a caster
	Clear(ctx context.Context, casterID string) error
}
