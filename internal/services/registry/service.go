package registry

import (
	"context"
	"log"
	"time"

	"github.com/KirkDiggler/vtt-spell-tracker/internal/domain/tracking"
	trackererr "github.com/KirkDiggler/vtt-spell-tracker/internal/errors"
	"github.com/KirkDiggler/vtt-spell-tracker/internal/events"
	"github.com/KirkDiggler/vtt-spell-tracker/internal/repositories/records"
	"github.com/KirkDiggler/vtt-spell-tracker/internal/uuid"
)

// StartFocusInput holds the cast details for a focus spell
type StartFocusInput struct {
	CasterID   string
	SpellID    string
	SpellName  string
	SpellImage string
	// Round is nil outside combat
	Round       *int
	CachedSpell tracking.CachedSpellData
	PerTurn     *tracking.PerTurnConfig
}

// StartFocusOutput reports the new record and, when the caster recast the
// same spell, the record it displaced
type StartFocusOutput struct {
	Record   *tracking.FocusRecord
	Replaced *tracking.FocusRecord
}

// StartDurationInput holds the cast details for a timed spell
type StartDurationInput struct {
	CasterID      string
	SpellID       string
	SpellName     string
	SpellImage    string
	TemplateID    string
	CurrentRound  int
	DurationValue int
	DurationUnit  tracking.DurationUnit
	Targets       []tracking.TargetRef
	CachedSpell   tracking.CachedSpellData
	PerTurn       *tracking.PerTurnConfig
	Area          *tracking.AreaConfig
}

// StartDurationOutput reports the new record
type StartDurationOutput struct {
	Record *tracking.DurationRecord
}

// FindDurationInput locates a duration record. InstanceID wins when set;
// SpellID alone matches the most recently started cast of that spell, which
// covers callers that predate per-cast instances.
type FindDurationInput struct {
	CasterID   string
	InstanceID string
	SpellID    string
}

// LinkEffectInput attaches a removable artifact reference to a record.
// Exactly one of FocusSpellID or DurationInstanceID must be set.
type LinkEffectInput struct {
	CasterID           string
	FocusSpellID       string
	DurationInstanceID string
	Effect             tracking.LinkedEffect
}

// Service owns the tracking record lifecycle
type Service interface {
	// StartFocus begins focus on a spell, replacing any earlier focus record
	// for the same spell
	StartFocus(ctx context.Context, input *StartFocusInput) (*StartFocusOutput, error)

	// StartDuration begins tracking a timed spell as a new cast instance
	StartDuration(ctx context.Context, input *StartDurationInput) (*StartDurationOutput, error)

	// GetActiveFocus returns the caster's focus records
	GetActiveFocus(ctx context.Context, casterID string) ([]*tracking.FocusRecord, error)

	// GetActiveDurations returns the caster's duration records
	GetActiveDurations(ctx context.Context, casterID string) ([]*tracking.DurationRecord, error)

	// IsFocusing reports whether the caster holds focus on the spell
	IsFocusing(ctx context.Context, casterID, spellID string) (bool, error)

	// FindDuration locates a duration record by instance or spell
	FindDuration(ctx context.Context, input *FindDurationInput) (*tracking.DurationRecord, error)

	// UpdateDuration persists changes to an existing duration record
	UpdateDuration(ctx context.Context, record *tracking.DurationRecord) error

	// LinkEffect attaches an artifact reference to a record, ignoring
	// duplicates by artifact ID
	LinkEffect(ctx context.Context, input *LinkEffectInput) error

	// UnlinkArtifact removes the artifact reference from whichever of the
	// caster's records holds it
	UnlinkArtifact(ctx context.Context, casterID, artifactID string) error

	// RemoveFocus deletes a focus record and returns it for cleanup
	RemoveFocus(ctx context.Context, casterID, spellID string) (*tracking.FocusRecord, error)

	// RemoveDuration deletes a duration record and returns it for cleanup
	RemoveDuration(ctx context.Context, casterID, instanceID string) (*tracking.DurationRecord, error)

	// ListCasters returns every caster with active records
	ListCasters(ctx context.Context) ([]string, error)
}

// ServiceConfig holds the dependencies for the registry service
type ServiceConfig struct {
	Repository    records.Repository
	UUIDGenerator uuid.Generator
	EventBus      *events.Bus
}

type service struct {
	repository    records.Repository
	uuidGenerator uuid.Generator
	eventBus      *events.Bus
}

// NewService creates a new registry service
func NewService(cfg *ServiceConfig) Service {
	if cfg.Repository == nil {
		panic("repository is required")
	}
	if cfg.UUIDGenerator == nil {
		panic("uuid generator is required")
	}
	if cfg.EventBus == nil {
		panic("event bus is required")
	}

	return &service{
		repository:    cfg.Repository,
		uuidGenerator: cfg.UUIDGenerator,
		eventBus:      cfg.EventBus,
	}
}

// StartFocus begins focus on a spell
func (s *service) StartFocus(ctx context.Context, input *StartFocusInput) (*StartFocusOutput, error) {
	if input == nil {
		return nil, trackererr.InvalidArgument("input cannot be nil")
	}
	if input.CasterID == "" {
		return nil, trackererr.InvalidArgument("caster ID cannot be empty")
	}
	if input.SpellID == "" {
		return nil, trackererr.InvalidArgument("spell ID cannot be empty")
	}

	existing, err := s.repository.GetFocus(ctx, input.CasterID)
	if err != nil {
		return nil, err
	}

	record := &tracking.FocusRecord{
		SpellID:        input.SpellID,
		SpellName:      input.SpellName,
		SpellImage:     input.SpellImage,
		CasterID:       input.CasterID,
		StartedAtTime:  time.Now().UTC(),
		StartedAtRound: input.Round,
		CachedSpell:    input.CachedSpell,
		PerTurn:        input.PerTurn,
		LinkedEffects:  []tracking.LinkedEffect{},
	}

	// One focus record per spell: recasting replaces the earlier one
	var replaced *tracking.FocusRecord
	updated := make([]*tracking.FocusRecord, 0, len(existing)+1)
	for _, rec := range existing {
		if rec.SpellID == input.SpellID {
			replaced = rec
			continue
		}
		updated = append(updated, rec)
	}
	updated = append(updated, record)

	if err := s.repository.SaveFocus(ctx, input.CasterID, updated); err != nil {
		return nil, err
	}

	s.eventBus.EmitLogged(&events.FocusStartedEvent{Record: record})

	return &StartFocusOutput{Record: record, Replaced: replaced}, nil
}

// StartDuration begins tracking a timed spell
func (s *service) StartDuration(ctx context.Context, input *StartDurationInput) (*StartDurationOutput, error) {
	if input == nil {
		return nil, trackererr.InvalidArgument("input cannot be nil")
	}
	if input.CasterID == "" {
		return nil, trackererr.InvalidArgument("caster ID cannot be empty")
	}
	if input.SpellID == "" {
		return nil, trackererr.InvalidArgument("spell ID cannot be empty")
	}
	if input.DurationValue <= 0 {
		return nil, trackererr.InvalidArgument("duration must be positive")
	}

	existing, err := s.repository.GetDurations(ctx, input.CasterID)
	if err != nil {
		return nil, err
	}

	rounds := tracking.RoundsFromDuration(input.DurationValue, input.DurationUnit)
	record := &tracking.DurationRecord{
		InstanceID:            s.uuidGenerator.New(),
		SpellID:               input.SpellID,
		SpellName:             input.SpellName,
		SpellImage:            input.SpellImage,
		CasterID:              input.CasterID,
		TemplateID:            input.TemplateID,
		StartRound:            input.CurrentRound,
		ExpiryRound:           input.CurrentRound + rounds,
		DurationValue:         input.DurationValue,
		DurationUnit:          input.DurationUnit,
		Targets:               input.Targets,
		LinkedEffects:         []tracking.LinkedEffect{},
		CachedSpell:           input.CachedSpell,
		PerTurn:               input.PerTurn,
		Area:                  input.Area,
		LastProcessedRound:    input.CurrentRound,
		ProcessedTargetsRound: make(map[string]bool),
	}

	// Every cast is its own instance, even for the same spell
	updated := append(existing, record)
	if err := s.repository.SaveDurations(ctx, input.CasterID, updated); err != nil {
		return nil, err
	}

	s.eventBus.EmitLogged(&events.DurationStartedEvent{Record: record})

	return &StartDurationOutput{Record: record}, nil
}

// GetActiveFocus returns the caster's focus records
func (s *service) GetActiveFocus(ctx context.Context, casterID string) ([]*tracking.FocusRecord, error) {
	return s.repository.GetFocus(ctx, casterID)
}

// GetActiveDurations returns the caster's duration records
func (s *service) GetActiveDurations(ctx context.Context, casterID string) ([]*tracking.DurationRecord, error) {
	return s.repository.GetDurations(ctx, casterID)
}

// IsFocusing reports whether the caster holds focus on the spell
func (s *service) IsFocusing(ctx context.Context, casterID, spellID string) (bool, error) {
	focus, err := s.repository.GetFocus(ctx, casterID)
	if err != nil {
		return false, err
	}

	for _, rec := range focus {
		if rec.SpellID == spellID {
			return true, nil
		}
	}
	return false, nil
}

// FindDuration locates a duration record by instance or spell
func (s *service) FindDuration(ctx context.Context, input *FindDurationInput) (*tracking.DurationRecord, error) {
	if input == nil {
		return nil, trackererr.InvalidArgument("input cannot be nil")
	}

	durations, err := s.repository.GetDurations(ctx, input.CasterID)
	if err != nil {
		return nil, err
	}

	if input.InstanceID != "" {
		for _, rec := range durations {
			if rec.InstanceID == input.InstanceID {
				return rec, nil
			}
		}
		return nil, trackererr.NotFoundf("duration instance %s not found for caster %s", input.InstanceID, input.CasterID)
	}

	if input.SpellID == "" {
		return nil, trackererr.InvalidArgument("instance ID or spell ID is required")
	}

	// Records append in cast order, so the last match is the newest cast
	var found *tracking.DurationRecord
	for _, rec := range durations {
		if rec.SpellID == input.SpellID {
			found = rec
		}
	}
	if found == nil {
		return nil, trackererr.NotFoundf("no duration for spell %s on caster %s", input.SpellID, input.CasterID)
	}
	return found, nil
}

// UpdateDuration persists changes to an existing duration record
func (s *service) UpdateDuration(ctx context.Context, record *tracking.DurationRecord) error {
	if record == nil {
		return trackererr.InvalidArgument("record cannot be nil")
	}

	durations, err := s.repository.GetDurations(ctx, record.CasterID)
	if err != nil {
		return err
	}

	for i, rec := range durations {
		if rec.InstanceID == record.InstanceID {
			durations[i] = record
			return s.repository.SaveDurations(ctx, record.CasterID, durations)
		}
	}

	return trackererr.NotFoundf("duration instance %s not found for caster %s", record.InstanceID, record.CasterID)
}

// LinkEffect attaches an artifact reference to a record
func (s *service) LinkEffect(ctx context.Context, input *LinkEffectInput) error {
	if input == nil {
		return trackererr.InvalidArgument("input cannot be nil")
	}
	if input.Effect.ArtifactID == "" {
		return trackererr.InvalidArgument("artifact ID cannot be empty")
	}

	switch {
	case input.FocusSpellID != "" && input.DurationInstanceID != "":
		return trackererr.InvalidArgument("cannot target both a focus and a duration record")

	case input.FocusSpellID != "":
		focus, err := s.repository.GetFocus(ctx, input.CasterID)
		if err != nil {
			return err
		}
		for _, rec := range focus {
			if rec.SpellID != input.FocusSpellID {
				continue
			}
			if tracking.LinkEffect(&rec.LinkedEffects, input.Effect) {
				if err := s.repository.SaveFocus(ctx, input.CasterID, focus); err != nil {
					return err
				}
				s.eventBus.EmitLogged(&events.TargetLinkedEvent{
					SpellName:  rec.SpellName,
					TargetName: input.Effect.TargetName,
				})
			}
			return nil
		}
		return trackererr.NotFoundf("no focus on spell %s for caster %s", input.FocusSpellID, input.CasterID)

	case input.DurationInstanceID != "":
		durations, err := s.repository.GetDurations(ctx, input.CasterID)
		if err != nil {
			return err
		}
		for _, rec := range durations {
			if rec.InstanceID != input.DurationInstanceID {
				continue
			}
			if tracking.LinkEffect(&rec.LinkedEffects, input.Effect) {
				if err := s.repository.SaveDurations(ctx, input.CasterID, durations); err != nil {
					return err
				}
				s.eventBus.EmitLogged(&events.TargetLinkedEvent{
					SpellName:  rec.SpellName,
					TargetName: input.Effect.TargetName,
				})
			}
			return nil
		}
		return trackererr.NotFoundf("duration instance %s not found for caster %s", input.DurationInstanceID, input.CasterID)

	default:
		return trackererr.InvalidArgument("a focus spell ID or duration instance ID is required")
	}
}

// UnlinkArtifact removes the artifact reference from the caster's records
func (s *service) UnlinkArtifact(ctx context.Context, casterID, artifactID string) error {
	if artifactID == "" {
		return trackererr.InvalidArgument("artifact ID cannot be empty")
	}

	set, err := s.repository.GetAll(ctx, casterID)
	if err != nil {
		return err
	}

	for _, rec := range set.Focus {
		targetName := effectTargetName(rec.LinkedEffects, artifactID)
		if tracking.UnlinkEffect(&rec.LinkedEffects, artifactID) {
			if err := s.repository.SaveFocus(ctx, casterID, set.Focus); err != nil {
				return err
			}
			s.eventBus.EmitLogged(&events.TargetReleasedEvent{
				SpellName:  rec.SpellName,
				TargetName: targetName,
			})
			return nil
		}
	}

	for _, rec := range set.Durations {
		targetName := effectTargetName(rec.LinkedEffects, artifactID)
		if tracking.UnlinkEffect(&rec.LinkedEffects, artifactID) {
			if err := s.repository.SaveDurations(ctx, casterID, set.Durations); err != nil {
				return err
			}
			s.eventBus.EmitLogged(&events.TargetReleasedEvent{
				SpellName:  rec.SpellName,
				TargetName: targetName,
			})
			return nil
		}
	}

	// Nothing held the artifact; callers retry on stale state so this is
	// not an error
	log.Printf("artifact %s not linked to any record of caster %s", artifactID, casterID)
	return nil
}

// RemoveFocus deletes a focus record and returns it
func (s *service) RemoveFocus(ctx context.Context, casterID, spellID string) (*tracking.FocusRecord, error) {
	focus, err := s.repository.GetFocus(ctx, casterID)
	if err != nil {
		return nil, err
	}

	var removed *tracking.FocusRecord
	updated := make([]*tracking.FocusRecord, 0, len(focus))
	for _, rec := range focus {
		if rec.SpellID == spellID {
			removed = rec
			continue
		}
		updated = append(updated, rec)
	}
	if removed == nil {
		return nil, trackererr.NotFoundf("no focus on spell %s for caster %s", spellID, casterID)
	}

	if err := s.repository.SaveFocus(ctx, casterID, updated); err != nil {
		return nil, err
	}
	return removed, nil
}

// RemoveDuration deletes a duration record and returns it
func (s *service) RemoveDuration(ctx context.Context, casterID, instanceID string) (*tracking.DurationRecord, error) {
	durations, err := s.repository.GetDurations(ctx, casterID)
	if err != nil {
		return nil, err
	}

	var removed *tracking.DurationRecord
	updated := make([]*tracking.DurationRecord, 0, len(durations))
	for _, rec := range durations {
		if rec.InstanceID == instanceID {
			removed = rec
			continue
		}
		updated = append(updated, rec)
	}
	if removed == nil {
		return nil, trackererr.NotFoundf("duration instance %s not found for caster %s", instanceID, casterID)
	}

	if err := s.repository.SaveDurations(ctx, casterID, updated); err != nil {
		return nil, err
	}
	return removed, nil
}

// ListCasters returns every caster with active records
func (s *service) ListCasters(ctx context.Context) ([]string, error) {
	return s.repository.ListCasters(ctx)
}

func effectTargetName(effects []tracking.LinkedEffect, artifactID string) string {
	for _, le := range effects {
		if le.ArtifactID == artifactID {
			return le.TargetName
		}
	}
	return ""
}
