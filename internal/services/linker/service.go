package linker

import (
	"context"
	"log"

	"github.com/KirkDiggler/vtt-spell-tracker/internal/dice"
	"github.com/KirkDiggler/vtt-spell-tracker/internal/domain/tracking"
	trackererr "github.com/KirkDiggler/vtt-spell-tracker/internal/errors"
	"github.com/KirkDiggler/vtt-spell-tracker/internal/events"
	"github.com/KirkDiggler/vtt-spell-tracker/internal/game"
	"github.com/KirkDiggler/vtt-spell-tracker/internal/relay"
	"github.com/KirkDiggler/vtt-spell-tracker/internal/services/registry"
)

// ApplyInput describes one application of a tracked effect to one target.
// Exactly one of FocusSpellID or DurationInstanceID identifies the owning
// record; created artifacts are linked back to it.
type ApplyInput struct {
	CasterID           string
	SpellName          string
	FocusSpellID       string
	DurationInstanceID string
	Target             tracking.TargetRef
	PerTurn            *tracking.PerTurnConfig
	CachedSpell        tracking.CachedSpellData

	// SkipStatuses suppresses artifact creation, used on repeat ticks when
	// the effect's statuses are not reapplied each round
	SkipStatuses bool
}

// ApplyOutput reports what the application did
type ApplyOutput struct {
	// Negated is true when the target saved against a negating effect;
	// nothing else in the output is meaningful then
	Negated bool

	SaveRolled  bool
	SaveTotal   int
	SaveSuccess bool

	Amount int
	Halved bool
	NewHP  int

	CreatedArtifacts []string
	FailedArtifacts  int
}

// Service applies tracked effects to targets: saving throws, HP deltas, and
// status artifacts linked back to the owning record
type Service interface {
	// ApplyToTarget runs one target through the effect's save, damage, and
	// status pipeline
	ApplyToTarget(ctx context.Context, input *ApplyInput) (*ApplyOutput, error)
}

// ServiceConfig holds the dependencies for the linker service
type ServiceConfig struct {
	Resolver game.Resolver
	Executor *relay.Executor
	Roller   dice.Roller
	Registry registry.Service
	EventBus *events.Bus
}

type service struct {
	resolver game.Resolver
	executor *relay.Executor
	roller   dice.Roller
	registry registry.Service
	eventBus *events.Bus
}

// NewService creates a new linker service
func NewService(cfg *ServiceConfig) Service {
	if cfg.Resolver == nil {
		panic("resolver is required")
	}
	if cfg.Executor == nil {
		panic("executor is required")
	}
	if cfg.Roller == nil {
		panic("roller is required")
	}
	if cfg.Registry == nil {
		panic("registry service is required")
	}
	if cfg.EventBus == nil {
		panic("event bus is required")
	}

	return &service{
		resolver: cfg.Resolver,
		executor: cfg.Executor,
		roller:   cfg.Roller,
		registry: cfg.Registry,
		eventBus: cfg.EventBus,
	}
}

// ApplyToTarget runs one target through the effect pipeline
func (s *service) ApplyToTarget(ctx context.Context, input *ApplyInput) (*ApplyOutput, error) {
	if input == nil {
		return nil, trackererr.InvalidArgument("input cannot be nil")
	}
	if input.PerTurn == nil {
		return nil, trackererr.InvalidArgument("per-turn config is required")
	}

	actor, err := s.resolveTarget(input.Target)
	if err != nil {
		return nil, err
	}

	out := &ApplyOutput{}

	if save := input.PerTurn.Save; save != nil {
		success, total, err := s.rollSave(actor, save, input.CachedSpell)
		if err != nil {
			return nil, err
		}
		out.SaveRolled = true
		out.SaveTotal = total
		out.SaveSuccess = success
		out.Negated = success && save.Outcome == tracking.SaveNegates

		s.eventBus.EmitLogged(&events.SaveResultedEvent{
			SpellName:  input.SpellName,
			TargetName: actor.Name,
			Total:      total,
			DC:         saveDC(save, input.CachedSpell),
			Success:    success,
			Negated:    out.Negated,
		})

		if out.Negated {
			return out, nil
		}
		out.Halved = success && save.Outcome == tracking.SaveHalves
	}

	if input.PerTurn.Formula != "" {
		if err := s.applyHPDelta(ctx, input, actor, out); err != nil {
			return nil, err
		}
	}

	if !input.SkipStatuses {
		s.createStatuses(ctx, input, actor, out)
	}

	return out, nil
}

// resolveTarget finds the actor behind a target reference, preferring the
// token so synthetic scene actors resolve too
func (s *service) resolveTarget(target tracking.TargetRef) (*game.Actor, error) {
	if target.TokenID != "" {
		actor, err := s.resolver.ActorByToken(target.TokenID)
		if err == nil {
			return actor, nil
		}
	}
	if target.ActorID != "" {
		return s.resolver.Actor(target.ActorID)
	}
	return nil, trackererr.NotFoundf("target %s could not be resolved", target.Name)
}

func (s *service) rollSave(actor *game.Actor, save *tracking.SaveConfig, cached tracking.CachedSpellData) (bool, int, error) {
	result, err := s.roller.Roll(1, 20, actor.SaveModifier(save.Ability))
	if err != nil {
		return false, 0, trackererr.Wrap(err, "failed to roll saving throw")
	}

	dc := saveDC(save, cached)
	return result.Total >= dc, result.Total, nil
}

// saveDC prefers the save's own DC and falls back to the DC snapshotted at
// cast time
func saveDC(save *tracking.SaveConfig, cached tracking.CachedSpellData) int {
	if save.DC > 0 {
		return save.DC
	}
	return cached.SaveDC
}

func (s *service) applyHPDelta(ctx context.Context, input *ApplyInput, actor *game.Actor, out *ApplyOutput) error {
	result, err := s.roller.RollExpression(input.PerTurn.Formula, input.CachedSpell.Variables())
	if err != nil {
		return trackererr.Wrapf(err, "bad effect formula %q", input.PerTurn.Formula)
	}

	amount := result.Total
	if amount < 0 {
		amount = 0
	}
	if out.Halved {
		amount /= 2
	}
	out.Amount = amount

	delta := -amount
	if input.PerTurn.IsHealing() {
		delta = amount
	}

	newHP, err := s.executor.AdjustHP(ctx, actor.ID, delta)
	if err != nil {
		return err
	}
	out.NewHP = newHP

	s.eventBus.EmitLogged(&events.DamageAppliedEvent{
		SpellName:  input.SpellName,
		CasterID:   input.CasterID,
		TargetName: actor.Name,
		Amount:     amount,
		Kind:       input.PerTurn.DamageKind,
		Halved:     out.Halved,
		NewHP:      newHP,
	})

	return nil
}

// createStatuses creates each status artifact and links it back to the owning
// record. A failed artifact does not abort the rest; it is tallied so the
// caller can surface a partial result.
func (s *service) createStatuses(ctx context.Context, input *ApplyInput, actor *game.Actor, out *ApplyOutput) {
	for _, status := range input.PerTurn.Statuses {
		artifactID, err := s.executor.CreateArtifact(ctx, actor.ID, &game.Artifact{
			Name:           status.Name,
			Icon:           status.Icon,
			SourceSpell:    input.SpellName,
			SourceInstance: input.DurationInstanceID,
		})
		if err != nil {
			log.Printf("failed to create %s on %s: %v", status.Name, actor.Name, err)
			out.FailedArtifacts++
			continue
		}

		err = s.registry.LinkEffect(ctx, &registry.LinkEffectInput{
			CasterID:           input.CasterID,
			FocusSpellID:       input.FocusSpellID,
			DurationInstanceID: input.DurationInstanceID,
			Effect: tracking.LinkedEffect{
				TargetActorID: actor.ID,
				TargetTokenID: input.Target.TokenID,
				ArtifactID:    artifactID,
				TargetName:    actor.Name,
			},
		})
		if err != nil {
			log.Printf("failed to link %s to record: %v", artifactID, err)
			out.FailedArtifacts++
			continue
		}

		out.CreatedArtifacts = append(out.CreatedArtifacts, artifactID)
	}
}
