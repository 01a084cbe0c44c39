package trigger

import (
	"context"
	"fmt"
	"log"

	"github.com/KirkDiggler/vtt-spell-tracker/internal/authority"
	"github.com/KirkDiggler/vtt-spell-tracker/internal/domain/board"
	"github.com/KirkDiggler/vtt-spell-tracker/internal/domain/tracking"
	trackererr "github.com/KirkDiggler/vtt-spell-tracker/internal/errors"
	"github.com/KirkDiggler/vtt-spell-tracker/internal/events"
	"github.com/KirkDiggler/vtt-spell-tracker/internal/game"
	"github.com/KirkDiggler/vtt-spell-tracker/internal/services/cleanup"
	"github.com/KirkDiggler/vtt-spell-tracker/internal/services/linker"
	"github.com/KirkDiggler/vtt-spell-tracker/internal/services/registry"
)

// TurnEvent is the host's combat-advance notification
type TurnEvent struct {
	Round int
	// CurrentTokenID is the combatant whose turn is starting
	CurrentTokenID string
	// PreviousTokenID is the combatant whose turn just ended, empty on the
	// first turn of a combat
	PreviousTokenID string
}

// MoveEvent is the host's token-position-change notification
type MoveEvent struct {
	TokenID string
	From    board.Position
	To      board.Position
}

// ArtifactEvent is the host's artifact-deleted notification
type ArtifactEvent struct {
	OwnerActorID string
	ArtifactID   string
}

// Service reacts to host lifecycle events: combat advances tick and expire
// tracked records, token movement drives area containment, artifact deletion
// unlinks stale references. Every pass runs on at most one client, decided by
// the authority rule, and every application is deduplicated so a re-delivered
// event cannot double-apply.
type Service interface {
	HandleTurnAdvanced(ctx context.Context, event *TurnEvent) error
	HandleTokenMoved(ctx context.Context, event *MoveEvent) error
	HandleArtifactDeleted(ctx context.Context, event *ArtifactEvent) error
}

// ServiceConfig holds the dependencies for the trigger engine
type ServiceConfig struct {
	Registry   registry.Service
	Linker     linker.Service
	Cleanup    cleanup.Service
	Resolver   game.SceneResolver
	Templates  game.TemplateStore
	Visibility game.VisibilityChecker
	Presence   authority.Presence
	EventBus   *events.Bus

	// AutoApply applies effects immediately; when false a prompt notice is
	// emitted and the owner applies manually through the same linker call
	AutoApply bool

	// SeenCapacity bounds the dedup cache, default when zero
	SeenCapacity int
}

type service struct {
	registry   registry.Service
	linker     linker.Service
	cleanup    cleanup.Service
	resolver   game.SceneResolver
	templates  game.TemplateStore
	visibility game.VisibilityChecker
	presence   authority.Presence
	eventBus   *events.Bus
	autoApply  bool

	seen *seenKeys
}

// NewService creates a new trigger engine
func NewService(cfg *ServiceConfig) Service {
	if cfg.Registry == nil {
		panic("registry service is required")
	}
	if cfg.Linker == nil {
		panic("linker service is required")
	}
	if cfg.Cleanup == nil {
		panic("cleanup service is required")
	}
	if cfg.Resolver == nil {
		panic("resolver is required")
	}
	if cfg.Templates == nil {
		panic("template store is required")
	}
	if cfg.Visibility == nil {
		panic("visibility checker is required")
	}
	if cfg.Presence == nil {
		panic("presence is required")
	}
	if cfg.EventBus == nil {
		panic("event bus is required")
	}

	return &service{
		registry:   cfg.Registry,
		linker:     cfg.Linker,
		cleanup:    cfg.Cleanup,
		resolver:   cfg.Resolver,
		templates:  cfg.Templates,
		visibility: cfg.Visibility,
		presence:   cfg.Presence,
		eventBus:   cfg.EventBus,
		autoApply:  cfg.AutoApply,
		seen:       newSeenKeys(cfg.SeenCapacity),
	}
}

// HandleTurnAdvanced runs the expire, turn-end, turn-start and reminder passes
func (s *service) HandleTurnAdvanced(ctx context.Context, event *TurnEvent) error {
	if event == nil {
		return trackererr.InvalidArgument("event cannot be nil")
	}

	s.seen.MarkRound(event.Round)

	casters, err := s.registry.ListCasters(ctx)
	if err != nil {
		return err
	}

	// Expired records end before any per-turn tick so a dead spell cannot
	// land one last hit in the same advance
	for _, casterID := range casters {
		if !s.isAuthorityFor(casterID) {
			continue
		}
		s.expirePass(ctx, casterID, event.Round)
	}

	for _, casterID := range casters {
		if !s.isAuthorityFor(casterID) {
			continue
		}
		if event.PreviousTokenID != "" {
			s.turnPass(ctx, casterID, event.PreviousTokenID, tracking.PhaseTurnEnd, event.Round)
		}
		if event.CurrentTokenID != "" {
			s.turnPass(ctx, casterID, event.CurrentTokenID, tracking.PhaseTurnStart, event.Round)
		}
	}

	if event.CurrentTokenID != "" {
		s.reminderPass(ctx, event.CurrentTokenID, event.Round)
	}

	return nil
}

// isAuthorityFor reports whether this client runs passes for the caster's
// records. Every client evaluates the same rule, so exactly one says yes.
func (s *service) isAuthorityFor(casterID string) bool {
	actor, err := s.resolver.Actor(casterID)
	if err != nil {
		log.Printf("caster %s not resolvable, skipping: %v", casterID, err)
		return false
	}
	return authority.IsAuthority(authority.ContextFor(s.presence, actor.OwnerUserID))
}

func (s *service) expirePass(ctx context.Context, casterID string, round int) {
	durations, err := s.registry.GetActiveDurations(ctx, casterID)
	if err != nil {
		log.Printf("expire pass for %s failed: %v", casterID, err)
		return
	}

	for _, record := range durations {
		if !record.IsExpired(round) {
			continue
		}
		_, err := s.cleanup.EndDuration(ctx, &cleanup.EndDurationInput{
			CasterID:   casterID,
			InstanceID: record.InstanceID,
			Reason:     tracking.ReasonExpired,
		})
		if err != nil {
			log.Printf("failed to expire %s (%s): %v", record.SpellName, record.InstanceID, err)
		}
	}
}

// turnPass applies per-turn effects of every record that targets the
// combatant and triggers on this phase
func (s *service) turnPass(ctx context.Context, casterID, tokenID string, phase tracking.TriggerPhase, round int) {
	set, err := s.registry.GetActiveDurations(ctx, casterID)
	if err != nil {
		log.Printf("turn pass for %s failed: %v", casterID, err)
		return
	}

	for _, record := range set {
		if record.PerTurn == nil || record.PerTurn.Phase != phase {
			continue
		}
		if record.IsExpired(round) || !record.HasTarget(tokenID) {
			continue
		}
		s.tickDuration(ctx, record, tokenID, phase, round)
	}

	focus, err := s.registry.GetActiveFocus(ctx, casterID)
	if err != nil {
		log.Printf("focus turn pass for %s failed: %v", casterID, err)
		return
	}

	for _, record := range focus {
		if record.PerTurn == nil || record.PerTurn.Phase != phase {
			continue
		}
		if len(tracking.EffectsForToken(record.LinkedEffects, tokenID)) == 0 {
			continue
		}
		s.tickFocus(ctx, record, tokenID, phase, round)
	}
}

func (s *service) tickDuration(ctx context.Context, record *tracking.DurationRecord, tokenID string, phase tracking.TriggerPhase, round int) {
	if s.seen.Seen(applicationKey(record.InstanceID, tokenID, phase, round)) {
		return
	}

	// Persisted second guard: survives a client restart mid-round
	if record.LastProcessedRound != round {
		record.LastProcessedRound = round
		record.ProcessedTargetsRound = make(map[string]bool)
	}
	processedKey := fmt.Sprintf("%s:%s", tokenID, phase)
	if record.ProcessedTargetsRound[processedKey] {
		return
	}
	record.ProcessedTargetsRound[processedKey] = true
	if err := s.registry.UpdateDuration(ctx, record); err != nil {
		log.Printf("failed to persist processing state for %s: %v", record.InstanceID, err)
	}

	var target tracking.TargetRef
	for _, t := range record.Targets {
		if t.TokenID == tokenID {
			target = t
		}
	}

	s.applyOrPrompt(ctx, &linker.ApplyInput{
		CasterID:           record.CasterID,
		SpellName:          record.SpellName,
		DurationInstanceID: record.InstanceID,
		Target:             target,
		PerTurn:            record.PerTurn,
		CachedSpell:        record.CachedSpell,
		SkipStatuses:       !record.PerTurn.Reapply && len(tracking.EffectsForToken(record.LinkedEffects, tokenID)) > 0,
	}, record.CasterID, phase)
}

func (s *service) tickFocus(ctx context.Context, record *tracking.FocusRecord, tokenID string, phase tracking.TriggerPhase, round int) {
	if s.seen.Seen(applicationKey(record.CasterID+"/"+record.SpellID, tokenID, phase, round)) {
		return
	}

	effects := tracking.EffectsForToken(record.LinkedEffects, tokenID)
	target := tracking.TargetRef{
		TokenID: tokenID,
		ActorID: effects[0].TargetActorID,
		Name:    effects[0].TargetName,
	}

	s.applyOrPrompt(ctx, &linker.ApplyInput{
		CasterID:     record.CasterID,
		SpellName:    record.SpellName,
		FocusSpellID: record.SpellID,
		Target:       target,
		PerTurn:      record.PerTurn,
		CachedSpell:  record.CachedSpell,
		SkipStatuses: !record.PerTurn.Reapply,
	}, record.CasterID, phase)
}

// applyOrPrompt runs the linker directly under auto-apply, otherwise emits a
// prompt; the manual path performs the identical linker call
func (s *service) applyOrPrompt(ctx context.Context, input *linker.ApplyInput, casterID string, phase tracking.TriggerPhase) {
	if !s.autoApply {
		ownerUserID := ""
		if actor, err := s.resolver.Actor(casterID); err == nil {
			ownerUserID = actor.OwnerUserID
		}
		s.eventBus.EmitLogged(&events.ApplyPromptEvent{
			OwnerUserID: ownerUserID,
			SpellName:   input.SpellName,
			TargetName:  input.Target.Name,
			Phase:       phase,
		})
		return
	}

	if _, err := s.linker.ApplyToTarget(ctx, input); err != nil {
		log.Printf("failed to apply %s to %s: %v", input.SpellName, input.Target.Name, err)
	}
}

// reminderPass whispers the new combatant's owner their focus spells, at most
// once per turn even when the host re-delivers the advance event
func (s *service) reminderPass(ctx context.Context, tokenID string, round int) {
	actor, err := s.resolver.ActorByToken(tokenID)
	if err != nil {
		return
	}
	if !s.isAuthorityFor(actor.ID) {
		return
	}

	focus, err := s.registry.GetActiveFocus(ctx, actor.ID)
	if err != nil || len(focus) == 0 {
		return
	}

	if s.seen.Seen(applicationKey("reminder/"+actor.ID, tokenID, tracking.PhaseTurnStart, round)) {
		return
	}

	spells := make([]events.ReminderSpell, 0, len(focus))
	for _, record := range focus {
		spell := events.ReminderSpell{Name: record.SpellName}
		for _, le := range record.LinkedEffects {
			spell.Targets = append(spell.Targets, le.TargetName)
		}
		spells = append(spells, spell)
	}

	s.eventBus.EmitLogged(&events.ReminderDueEvent{
		OwnerUserID: actor.OwnerUserID,
		CasterName:  actor.Name,
		Spells:      spells,
	})
}

// HandleTokenMoved diffs area containment in both directions: the moved token
// against every area, and the moved bearer's own area against every token
func (s *service) HandleTokenMoved(ctx context.Context, event *MoveEvent) error {
	if event == nil {
		return trackererr.InvalidArgument("event cannot be nil")
	}

	moved, err := s.resolver.Token(event.TokenID)
	if err != nil {
		return trackererr.Wrapf(err, "moved token %s not resolvable", event.TokenID)
	}

	casters, err := s.registry.ListCasters(ctx)
	if err != nil {
		return err
	}

	for _, casterID := range casters {
		if !s.isAuthorityFor(casterID) {
			continue
		}

		durations, err := s.registry.GetActiveDurations(ctx, casterID)
		if err != nil {
			log.Printf("containment pass for %s failed: %v", casterID, err)
			continue
		}

		for _, record := range durations {
			if record.Area == nil {
				continue
			}
			s.diffContainment(ctx, record, moved, event)
		}
	}

	return nil
}

// anchor returns the area's bearer token (nil for template areas) and center
func (s *service) anchor(record *tracking.DurationRecord) (*board.Token, board.Position, bool) {
	if record.Area.AttachedToCaster {
		tokens := s.resolver.ActorTokens(record.CasterID)
		if len(tokens) == 0 {
			return nil, board.Position{}, false
		}
		return tokens[0], tokens[0].Position, true
	}

	if record.TemplateID != "" {
		template, err := s.templates.Template(record.TemplateID)
		if err != nil {
			return nil, board.Position{}, false
		}
		return nil, template.Position, true
	}

	return nil, board.Position{}, false
}

func (s *service) diffContainment(ctx context.Context, record *tracking.DurationRecord, moved *board.Token, event *MoveEvent) {
	bearer, center, ok := s.anchor(record)
	if !ok {
		return
	}

	if bearer != nil && bearer.ID == moved.ID {
		// The bearer moved: its area swept over every other token
		before := board.Circle{Center: event.From, Radius: record.Area.Radius}
		after := board.Circle{Center: event.To, Radius: record.Area.Radius}
		for _, token := range s.resolver.AllTokens() {
			if token.ID == bearer.ID {
				continue
			}
			s.handleTransition(ctx, record, bearer, token,
				before.Contains(token.Position), after.Contains(token.Position), event.To)
		}
		return
	}

	// A token moved relative to a stationary area. Template areas have no
	// bearer, so the caster's token anchors the disposition filter.
	area := board.Circle{Center: center, Radius: record.Area.Radius}
	ownerToken := bearer
	if ownerToken == nil {
		if tokens := s.resolver.ActorTokens(record.CasterID); len(tokens) > 0 {
			ownerToken = tokens[0]
		}
	}
	s.handleTransition(ctx, record, ownerToken, moved,
		area.Contains(event.From), area.Contains(event.To), center)
}

func (s *service) handleTransition(ctx context.Context, record *tracking.DurationRecord, bearer, target *board.Token, wasIn, isIn bool, center board.Position) {
	if wasIn == isIn {
		return
	}

	if record.Area.ExcludeSelf && target.ActorID == record.CasterID {
		return
	}
	if bearer != nil && !record.Area.Filter.Matches(bearer.Disposition, target.Disposition) {
		return
	}

	if isIn {
		if !record.Area.OnEnter || record.HasTarget(target.ID) {
			return
		}
		if record.Area.RequireSight && !s.visibility.CanSee(center, target.Position) {
			return
		}
		s.enterArea(ctx, record, target)
		return
	}

	if record.Area.OnLeave && record.HasTarget(target.ID) {
		s.leaveArea(ctx, record, target)
	}
}

func (s *service) enterArea(ctx context.Context, record *tracking.DurationRecord, target *board.Token) {
	ref := tracking.TargetRef{
		TokenID: target.ID,
		ActorID: target.ActorID,
		Name:    target.Name,
	}

	record.AddTarget(ref)
	if err := s.registry.UpdateDuration(ctx, record); err != nil {
		log.Printf("failed to add %s to %s: %v", target.Name, record.SpellName, err)
		return
	}

	if record.PerTurn == nil {
		return
	}

	s.applyOrPrompt(ctx, &linker.ApplyInput{
		CasterID:           record.CasterID,
		SpellName:          record.SpellName,
		DurationInstanceID: record.InstanceID,
		Target:             ref,
		PerTurn:            record.PerTurn,
		CachedSpell:        record.CachedSpell,
	}, record.CasterID, record.PerTurn.Phase)
}

func (s *service) leaveArea(ctx context.Context, record *tracking.DurationRecord, target *board.Token) {
	_, err := s.cleanup.ReleaseTarget(ctx, &cleanup.ReleaseTargetInput{
		CasterID:   record.CasterID,
		InstanceID: record.InstanceID,
		TokenID:    target.ID,
	})
	if err != nil {
		log.Printf("failed to release %s from %s: %v", target.Name, record.SpellName, err)
	}
}

// HandleArtifactDeleted unlinks a reference to an artifact someone deleted out
// from under the tracker, so cleanup will not try to delete it again
func (s *service) HandleArtifactDeleted(ctx context.Context, event *ArtifactEvent) error {
	if event == nil {
		return trackererr.InvalidArgument("event cannot be nil")
	}

	casters, err := s.registry.ListCasters(ctx)
	if err != nil {
		return err
	}

	for _, casterID := range casters {
		if !s.isAuthorityFor(casterID) {
			continue
		}
		if err := s.registry.UnlinkArtifact(ctx, casterID, event.ArtifactID); err != nil {
			log.Printf("failed to unlink %s from %s: %v", event.ArtifactID, casterID, err)
		}
	}

	return nil
}
