package cleanup

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/KirkDiggler/vtt-spell-tracker/internal/domain/tracking"
	trackererr "github.com/KirkDiggler/vtt-spell-tracker/internal/errors"
	"github.com/KirkDiggler/vtt-spell-tracker/internal/events"
	"github.com/KirkDiggler/vtt-spell-tracker/internal/game"
	"github.com/KirkDiggler/vtt-spell-tracker/internal/relay"
	"github.com/KirkDiggler/vtt-spell-tracker/internal/services/registry"
)

// EndFocusInput ends a focus record
type EndFocusInput struct {
	CasterID string
	SpellID  string
	Reason   tracking.EndReason
}

// EndDurationInput ends a duration record instance
type EndDurationInput struct {
	CasterID   string
	InstanceID string
	Reason     tracking.EndReason
}

// ReleaseTargetInput removes one target from a duration record, cleaning up
// only that target's linked effects
type ReleaseTargetInput struct {
	CasterID   string
	InstanceID string
	TokenID    string
}

// Tally counts what happened to a record's linked effects during cleanup
type Tally struct {
	// Deleted artifacts, including ones that were already gone
	Deleted int
	// Skipped effects whose owner could not be resolved at all
	Skipped int
	// Failed deletions that should be retried by hand
	Failed int
}

// Service tears down records and their target-side effects. Cleanup is
// best-effort per item: one unreachable target never blocks the rest, and the
// record itself is always removed so a dead spell cannot keep ticking.
type Service interface {
	// EndFocus removes a focus record and deletes its linked artifacts
	EndFocus(ctx context.Context, input *EndFocusInput) (*Tally, error)

	// EndDuration removes a duration instance, deletes its linked artifacts,
	// and tears down its measured template if one exists
	EndDuration(ctx context.Context, input *EndDurationInput) (*Tally, error)

	// ReleaseTarget drops one target from a duration record and deletes only
	// that target's linked artifacts
	ReleaseTarget(ctx context.Context, input *ReleaseTargetInput) (*Tally, error)
}

// ServiceConfig holds the dependencies for the cleanup service
type ServiceConfig struct {
	Registry  registry.Service
	Resolver  game.Resolver
	Executor  *relay.Executor
	Templates game.TemplateStore
	EventBus  *events.Bus
}

type service struct {
	registry  registry.Service
	resolver  game.Resolver
	executor  *relay.Executor
	templates game.TemplateStore
	eventBus  *events.Bus
}

// NewService creates a new cleanup service
func NewService(cfg *ServiceConfig) Service {
	if cfg.Registry == nil {
		panic("registry service is required")
	}
	if cfg.Resolver == nil {
		panic("resolver is required")
	}
	if cfg.Executor == nil {
		panic("executor is required")
	}
	if cfg.Templates == nil {
		panic("template store is required")
	}
	if cfg.EventBus == nil {
		panic("event bus is required")
	}

	return &service{
		registry:  cfg.Registry,
		resolver:  cfg.Resolver,
		executor:  cfg.Executor,
		templates: cfg.Templates,
		eventBus:  cfg.EventBus,
	}
}

// EndFocus removes a focus record and deletes its linked artifacts
func (s *service) EndFocus(ctx context.Context, input *EndFocusInput) (*Tally, error) {
	if input == nil {
		return nil, trackererr.InvalidArgument("input cannot be nil")
	}

	record, err := s.registry.RemoveFocus(ctx, input.CasterID, input.SpellID)
	if err != nil {
		return nil, err
	}

	tally, failures := s.deleteEffects(ctx, record.LinkedEffects)

	s.eventBus.EmitLogged(&events.FocusEndedEvent{Record: record, Reason: input.Reason})
	s.reportPartial(record.SpellName, tally, failures)

	return tally, nil
}

// EndDuration removes a duration instance and everything it left on the scene
func (s *service) EndDuration(ctx context.Context, input *EndDurationInput) (*Tally, error) {
	if input == nil {
		return nil, trackererr.InvalidArgument("input cannot be nil")
	}

	record, err := s.registry.RemoveDuration(ctx, input.CasterID, input.InstanceID)
	if err != nil {
		return nil, err
	}

	tally, failures := s.deleteEffects(ctx, record.LinkedEffects)
	s.removeTemplate(ctx, record)

	s.eventBus.EmitLogged(&events.DurationEndedEvent{
		Record:  record,
		Reason:  input.Reason,
		Deleted: tally.Deleted,
		Skipped: tally.Skipped,
		Failed:  tally.Failed,
	})
	s.reportPartial(record.SpellName, tally, failures)

	return tally, nil
}

// ReleaseTarget drops one target from a duration record
func (s *service) ReleaseTarget(ctx context.Context, input *ReleaseTargetInput) (*Tally, error) {
	if input == nil {
		return nil, trackererr.InvalidArgument("input cannot be nil")
	}

	record, err := s.registry.FindDuration(ctx, &registry.FindDurationInput{
		CasterID:   input.CasterID,
		InstanceID: input.InstanceID,
	})
	if err != nil {
		return nil, err
	}

	effects := tracking.EffectsForToken(record.LinkedEffects, input.TokenID)
	tally, failures := s.deleteEffects(ctx, effects)

	var targetName string
	for _, t := range record.Targets {
		if t.TokenID == input.TokenID {
			targetName = t.Name
		}
	}

	record.RemoveTarget(input.TokenID)
	for _, le := range effects {
		tracking.UnlinkEffect(&record.LinkedEffects, le.ArtifactID)
	}
	if err := s.registry.UpdateDuration(ctx, record); err != nil {
		return nil, err
	}

	s.eventBus.EmitLogged(&events.TargetReleasedEvent{
		SpellName:  record.SpellName,
		TargetName: targetName,
	})
	s.reportPartial(record.SpellName, tally, failures)

	return tally, nil
}

// deleteEffects removes each linked artifact from its owner. Items fail
// independently; an already-deleted artifact counts as a success because the
// desired end state holds.
func (s *service) deleteEffects(ctx context.Context, effects []tracking.LinkedEffect) (*Tally, []string) {
	tally := &Tally{}
	var failures []string

	for _, le := range effects {
		actorID, ok := s.resolveOwner(le)
		if !ok {
			log.Printf("skipping effect %s: target %s no longer resolvable", le.ArtifactID, le.TargetName)
			tally.Skipped++
			continue
		}

		err := s.executor.DeleteArtifact(ctx, actorID, le.ArtifactID)
		switch {
		case err == nil:
			tally.Deleted++
		case trackererr.IsNotFound(err):
			// Someone beat us to it
			tally.Deleted++
		default:
			log.Printf("failed to delete artifact %s on %s: %v", le.ArtifactID, le.TargetName, err)
			tally.Failed++
			failures = append(failures, fmt.Sprintf("%s on %s", le.ArtifactID, le.TargetName))
		}
	}

	return tally, failures
}

// resolveOwner finds the actor that owns a linked artifact, trying the token
// first so synthetic scene actors resolve
func (s *service) resolveOwner(le tracking.LinkedEffect) (string, bool) {
	if le.TargetTokenID != "" {
		if actor, err := s.resolver.ActorByToken(le.TargetTokenID); err == nil {
			return actor.ID, true
		}
	}
	if le.TargetActorID != "" {
		if actor, err := s.resolver.Actor(le.TargetActorID); err == nil {
			return actor.ID, true
		}
	}
	return "", false
}

// removeTemplate tears down the record's measured template. Records created
// before template ids were stored fall back to a spell-and-caster match.
func (s *service) removeTemplate(ctx context.Context, record *tracking.DurationRecord) {
	templateID := record.TemplateID
	if templateID == "" {
		template, found := s.templates.FindBySpellAndCaster(record.SpellName, record.CasterID)
		if !found {
			return
		}
		templateID = template.ID
	}

	if err := s.templates.Delete(ctx, templateID); err != nil && !trackererr.IsNotFound(err) {
		log.Printf("failed to remove template %s for %s: %v", templateID, record.SpellName, err)
	}
}

func (s *service) reportPartial(spellName string, tally *Tally, failures []string) {
	if tally.Failed == 0 {
		return
	}
	s.eventBus.EmitLogged(&events.CleanupPartialEvent{
		SpellName: spellName,
		Failed:    tally.Failed,
		Detail:    strings.Join(failures, ", "),
	})
}
