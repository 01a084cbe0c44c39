package trigger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/vtt-spell-tracker/internal/authority"
	mockdice "github.com/KirkDiggler/vtt-spell-tracker/internal/dice/mock"
	"github.com/KirkDiggler/vtt-spell-tracker/internal/domain/board"
	"github.com/KirkDiggler/vtt-spell-tracker/internal/domain/tracking"
	"github.com/KirkDiggler/vtt-spell-tracker/internal/events"
	"github.com/KirkDiggler/vtt-spell-tracker/internal/game"
	"github.com/KirkDiggler/vtt-spell-tracker/internal/relay"
	"github.com/KirkDiggler/vtt-spell-tracker/internal/repositories/records"
	"github.com/KirkDiggler/vtt-spell-tracker/internal/services/cleanup"
	"github.com/KirkDiggler/vtt-spell-tracker/internal/services/linker"
	"github.com/KirkDiggler/vtt-spell-tracker/internal/services/registry"
	"github.com/KirkDiggler/vtt-spell-tracker/internal/services/trigger"
	"github.com/KirkDiggler/vtt-spell-tracker/internal/uuid"
)

type TriggerTestSuite struct {
	suite.Suite
	ctx      context.Context
	world    *game.World
	roller   *mockdice.ManualMockRoller
	bus      *events.Bus
	registry registry.Service
	service  trigger.Service

	captured []events.Event
}

func (s *TriggerTestSuite) SetupTest() {
	s.setup(true)
}

// setup wires the whole stack against an in-memory world; the local client is
// the active GM and the caster's owning player is offline, so this client is
// the authority for every record
func (s *TriggerTestSuite) setup(autoApply bool) {
	s.ctx = context.Background()
	s.world = game.NewWorld(&game.WorldConfig{
		ClientUserID:  "gm",
		ClientIsGM:    true,
		UUIDGenerator: uuid.NewSequentialGenerator("artifact"),
	})
	s.roller = mockdice.NewManualMockRoller()
	s.bus = events.NewBus()
	s.captured = nil
	s.bus.SubscribeAll(captureListener{suite: s})

	s.registry = registry.NewService(&registry.ServiceConfig{
		Repository:    records.NewInMemoryRepository(),
		UUIDGenerator: uuid.NewSequentialGenerator("inst"),
		EventBus:      s.bus,
	})

	executor := relay.NewExecutor(&relay.ExecutorConfig{Store: s.world})

	linkerSvc := linker.NewService(&linker.ServiceConfig{
		Resolver: s.world,
		Executor: executor,
		Roller:   s.roller,
		Registry: s.registry,
		EventBus: s.bus,
	})

	cleanupSvc := cleanup.NewService(&cleanup.ServiceConfig{
		Registry:  s.registry,
		Resolver:  s.world,
		Executor:  executor,
		Templates: s.world,
		EventBus:  s.bus,
	})

	s.service = trigger.NewService(&trigger.ServiceConfig{
		Registry:   s.registry,
		Linker:     linkerSvc,
		Cleanup:    cleanupSvc,
		Resolver:   s.world,
		Templates:  s.world,
		Visibility: game.NewSight(&game.SightConfig{Walls: s.world.Walls}),
		Presence: authority.NewStaticPresence(&authority.StaticPresenceConfig{
			ClientUserID:   "gm",
			ClientIsGM:     true,
			ActiveGMUserID: "gm",
		}),
		EventBus:  s.bus,
		AutoApply: autoApply,
	})

	s.addCombatant("actor-caster", "token-caster", "Mirela", "alice", board.DispositionFriendly, 0, 0)
	s.addCombatant("actor-goblin", "token-goblin", "Goblin", "gm", board.DispositionHostile, 100, 0)
	s.addCombatant("actor-orc", "token-orc", "Orc", "gm", board.DispositionHostile, 120, 0)
}

type captureListener struct {
	suite *TriggerTestSuite
}

func (c captureListener) ID() string    { return "capture" }
func (c captureListener) Priority() int { return 0 }
func (c captureListener) HandleEvent(event events.Event) error {
	c.suite.captured = append(c.suite.captured, event)
	return nil
}

func (s *TriggerTestSuite) addCombatant(actorID, tokenID, name, owner string, disp board.Disposition, x, y float64) {
	s.world.AddActor(&game.Actor{ID: actorID, Name: name, OwnerUserID: owner, HP: 30, MaxHP: 30})
	s.world.AddToken(&board.Token{
		ID:          tokenID,
		ActorID:     actorID,
		Name:        name,
		Position:    board.Position{X: x, Y: y},
		Disposition: disp,
	})
}

func (s *TriggerTestSuite) countEvents(eventType events.EventType) int {
	n := 0
	for _, e := range s.captured {
		if e.GetType() == eventType {
			n++
		}
	}
	return n
}

func TestTriggerTestSuite(t *testing.T) {
	suite.Run(t, new(TriggerTestSuite))
}

func (s *TriggerTestSuite) startDoT(round int) *tracking.DurationRecord {
	out, err := s.registry.StartDuration(s.ctx, &registry.StartDurationInput{
		CasterID:      "actor-caster",
		SpellID:       "spell-immolate",
		SpellName:     "Immolate",
		CurrentRound:  round,
		DurationValue: 3,
		DurationUnit:  tracking.UnitRounds,
		Targets: []tracking.TargetRef{
			{TokenID: "token-goblin", ActorID: "actor-goblin", Name: "Goblin"},
		},
		PerTurn: &tracking.PerTurnConfig{
			Formula:    "1d6",
			Phase:      tracking.PhaseTurnStart,
			DamageKind: "fire",
		},
	})
	s.Require().NoError(err)
	return out.Record
}

func (s *TriggerTestSuite) goblinHP() int {
	actor, err := s.world.Actor("actor-goblin")
	s.Require().NoError(err)
	return actor.HP
}

func (s *TriggerTestSuite) TestTurnStartTickAppliesOnce() {
	s.startDoT(1)
	s.roller.SetRolls([]int{4, 4, 4})

	event := &trigger.TurnEvent{Round: 2, CurrentTokenID: "token-goblin"}
	s.Require().NoError(s.service.HandleTurnAdvanced(s.ctx, event))
	s.Equal(26, s.goblinHP())

	// The host re-delivers the same event; nothing new happens
	s.Require().NoError(s.service.HandleTurnAdvanced(s.ctx, event))
	s.Equal(26, s.goblinHP())
	s.Equal(1, s.countEvents(events.EventTypeDamageApplied))
}

func (s *TriggerTestSuite) TestTickRepeatsAcrossRounds() {
	s.startDoT(1)
	s.roller.SetRolls([]int{4, 3})

	s.Require().NoError(s.service.HandleTurnAdvanced(s.ctx,
		&trigger.TurnEvent{Round: 2, CurrentTokenID: "token-goblin"}))
	s.Require().NoError(s.service.HandleTurnAdvanced(s.ctx,
		&trigger.TurnEvent{Round: 3, CurrentTokenID: "token-goblin"}))

	s.Equal(23, s.goblinHP())
	s.Equal(2, s.countEvents(events.EventTypeDamageApplied))
}

func (s *TriggerTestSuite) TestPhaseMismatchDoesNotTick() {
	record := s.startDoT(1)
	record.PerTurn.Phase = tracking.PhaseTurnEnd
	s.Require().NoError(s.registry.UpdateDuration(s.ctx, record))

	s.Require().NoError(s.service.HandleTurnAdvanced(s.ctx,
		&trigger.TurnEvent{Round: 2, CurrentTokenID: "token-goblin"}))
	s.Equal(30, s.goblinHP())

	// Turn-end pass picks it up when the goblin's turn ends
	s.roller.SetRolls([]int{5})
	s.Require().NoError(s.service.HandleTurnAdvanced(s.ctx,
		&trigger.TurnEvent{Round: 2, CurrentTokenID: "token-orc", PreviousTokenID: "token-goblin"}))
	s.Equal(25, s.goblinHP())
}

func (s *TriggerTestSuite) TestExpiredRecordGetsNoFinalTick() {
	s.startDoT(1) // expiry round 4

	// Round 5: the record expires before any per-turn pass runs
	s.Require().NoError(s.service.HandleTurnAdvanced(s.ctx,
		&trigger.TurnEvent{Round: 5, CurrentTokenID: "token-goblin"}))

	s.Equal(30, s.goblinHP())
	s.Equal(1, s.countEvents(events.EventTypeDurationEnded))

	durations, err := s.registry.GetActiveDurations(s.ctx, "actor-caster")
	s.Require().NoError(err)
	s.Empty(durations)
}

func (s *TriggerTestSuite) TestActiveThroughExpiryRound() {
	s.startDoT(1) // expiry round 4
	s.roller.SetRolls([]int{2})

	s.Require().NoError(s.service.HandleTurnAdvanced(s.ctx,
		&trigger.TurnEvent{Round: 4, CurrentTokenID: "token-goblin"}))

	// Still ticking on its expiry round
	s.Equal(28, s.goblinHP())
	s.Zero(s.countEvents(events.EventTypeDurationEnded))
}

func (s *TriggerTestSuite) TestFocusReminderWhisper() {
	_, err := s.registry.StartFocus(s.ctx, &registry.StartFocusInput{
		CasterID:  "actor-caster",
		SpellID:   "spell-hunters-mark",
		SpellName: "Hunter's Mark",
	})
	s.Require().NoError(err)

	s.Require().NoError(s.service.HandleTurnAdvanced(s.ctx,
		&trigger.TurnEvent{Round: 2, CurrentTokenID: "token-caster"}))

	s.Equal(1, s.countEvents(events.EventTypeReminderDue))
}

func (s *TriggerTestSuite) TestReminderWhispersOncePerTurn() {
	_, err := s.registry.StartFocus(s.ctx, &registry.StartFocusInput{
		CasterID:  "actor-caster",
		SpellID:   "spell-hunters-mark",
		SpellName: "Hunter's Mark",
	})
	s.Require().NoError(err)

	event := &trigger.TurnEvent{Round: 2, CurrentTokenID: "token-caster"}
	s.Require().NoError(s.service.HandleTurnAdvanced(s.ctx, event))

	// The host re-delivers the same event; no second whisper
	s.Require().NoError(s.service.HandleTurnAdvanced(s.ctx, event))
	s.Equal(1, s.countEvents(events.EventTypeReminderDue))

	// The next round whispers again
	s.Require().NoError(s.service.HandleTurnAdvanced(s.ctx,
		&trigger.TurnEvent{Round: 3, CurrentTokenID: "token-caster"}))
	s.Equal(2, s.countEvents(events.EventTypeReminderDue))
}

func (s *TriggerTestSuite) TestPromptInsteadOfAutoApply() {
	s.setup(false) // auto-apply off
	s.startDoT(1)

	s.Require().NoError(s.service.HandleTurnAdvanced(s.ctx,
		&trigger.TurnEvent{Round: 2, CurrentTokenID: "token-goblin"}))

	s.Equal(30, s.goblinHP())
	s.Zero(s.countEvents(events.EventTypeDamageApplied))
	s.Equal(1, s.countEvents(events.EventTypeApplyPrompt))
}

func (s *TriggerTestSuite) TestNonAuthorityClientSkips() {
	// The caster's owner alice is online, so the GM client must stand down
	s.service = s.rebuildWithPresence(&authority.StaticPresenceConfig{
		ClientUserID:   "gm",
		ClientIsGM:     true,
		ActiveGMUserID: "gm",
		OnlineUsers:    []string{"alice"},
	})

	s.startDoT(1)
	s.Require().NoError(s.service.HandleTurnAdvanced(s.ctx,
		&trigger.TurnEvent{Round: 2, CurrentTokenID: "token-goblin"}))

	s.Equal(30, s.goblinHP())
}

func (s *TriggerTestSuite) rebuildWithPresence(cfg *authority.StaticPresenceConfig) trigger.Service {
	executor := relay.NewExecutor(&relay.ExecutorConfig{Store: s.world})
	return trigger.NewService(&trigger.ServiceConfig{
		Registry: s.registry,
		Linker: linker.NewService(&linker.ServiceConfig{
			Resolver: s.world,
			Executor: executor,
			Roller:   s.roller,
			Registry: s.registry,
			EventBus: s.bus,
		}),
		Cleanup: cleanup.NewService(&cleanup.ServiceConfig{
			Registry:  s.registry,
			Resolver:  s.world,
			Executor:  executor,
			Templates: s.world,
			EventBus:  s.bus,
		}),
		Resolver:   s.world,
		Templates:  s.world,
		Visibility: game.NewSight(&game.SightConfig{Walls: s.world.Walls}),
		Presence:   authority.NewStaticPresence(cfg),
		EventBus:   s.bus,
		AutoApply:  true,
	})
}

// startAura creates a caster-attached aura with an on-enter and on-leave
// trigger, radius 30
func (s *TriggerTestSuite) startAura() *tracking.DurationRecord {
	out, err := s.registry.StartDuration(s.ctx, &registry.StartDurationInput{
		CasterID:      "actor-caster",
		SpellID:       "spell-spirit-guardians",
		SpellName:     "Spirit Guardians",
		CurrentRound:  1,
		DurationValue: 10,
		DurationUnit:  tracking.UnitRounds,
		PerTurn: &tracking.PerTurnConfig{
			Formula:    "1d6",
			Phase:      tracking.PhaseTurnStart,
			DamageKind: "radiant",
			Statuses:   []tracking.StatusSpec{{Name: "Haunted", Icon: "ghost"}},
		},
		Area: &tracking.AreaConfig{
			Radius:           30,
			AttachedToCaster: true,
			OnEnter:          true,
			OnLeave:          true,
			Filter:           board.FilterEnemies,
			ExcludeSelf:      true,
		},
	})
	s.Require().NoError(err)
	return out.Record
}

func (s *TriggerTestSuite) moveToken(tokenID string, x, y float64) *trigger.MoveEvent {
	to := board.Position{X: x, Y: y}
	from, err := s.world.MoveToken(tokenID, to)
	s.Require().NoError(err)
	return &trigger.MoveEvent{TokenID: tokenID, From: from, To: to}
}

func (s *TriggerTestSuite) TestEnterTriggersOnce() {
	record := s.startAura()
	s.roller.SetRolls([]int{4})

	// Goblin walks from 100 units out to 10 units from the caster
	s.Require().NoError(s.service.HandleTokenMoved(s.ctx, s.moveToken("token-goblin", 10, 0)))

	s.Equal(26, s.goblinHP())
	s.Equal(1, s.countEvents(events.EventTypeDamageApplied))

	found, err := s.registry.FindDuration(s.ctx, &registry.FindDurationInput{
		CasterID:   "actor-caster",
		InstanceID: record.InstanceID,
	})
	s.Require().NoError(err)
	s.True(found.HasTarget("token-goblin"))
	s.Len(found.LinkedEffects, 1)
	s.Len(s.world.Artifacts("actor-goblin"), 1)

	// Moving around inside the aura does not re-trigger
	s.Require().NoError(s.service.HandleTokenMoved(s.ctx, s.moveToken("token-goblin", 15, 5)))
	s.Equal(26, s.goblinHP())
	s.Equal(1, s.countEvents(events.EventTypeDamageApplied))
}

func (s *TriggerTestSuite) TestBearerMovementCarriesAura() {
	s.startAura()
	s.roller.SetRolls([]int{3})

	// The goblin stays put; the caster walks up to it
	s.Require().NoError(s.service.HandleTokenMoved(s.ctx, s.moveToken("token-caster", 90, 5)))

	s.Equal(27, s.goblinHP())
	s.Equal(1, s.countEvents(events.EventTypeDamageApplied))
	s.Len(s.world.Artifacts("actor-goblin"), 1)
}

func (s *TriggerTestSuite) TestLeaveRemovesOnlyItsOwnEffect() {
	record := s.startAura()
	s.roller.SetRolls([]int{4, 2})

	// Both enemies walk in
	s.Require().NoError(s.service.HandleTokenMoved(s.ctx, s.moveToken("token-goblin", 10, 0)))
	s.Require().NoError(s.service.HandleTokenMoved(s.ctx, s.moveToken("token-orc", 0, 10)))
	s.Len(s.world.Artifacts("actor-goblin"), 1)
	s.Len(s.world.Artifacts("actor-orc"), 1)

	// The goblin leaves; only its artifact goes away
	s.Require().NoError(s.service.HandleTokenMoved(s.ctx, s.moveToken("token-goblin", 200, 0)))

	s.Empty(s.world.Artifacts("actor-goblin"))
	s.Len(s.world.Artifacts("actor-orc"), 1)

	found, err := s.registry.FindDuration(s.ctx, &registry.FindDurationInput{
		CasterID:   "actor-caster",
		InstanceID: record.InstanceID,
	})
	s.Require().NoError(err)
	s.False(found.HasTarget("token-goblin"))
	s.True(found.HasTarget("token-orc"))
}

func (s *TriggerTestSuite) TestDispositionFilterSkipsAllies() {
	s.startAura()
	s.addCombatant("actor-friend", "token-friend", "Friend", "bob", board.DispositionFriendly, 100, 50)

	s.Require().NoError(s.service.HandleTokenMoved(s.ctx, s.moveToken("token-friend", 5, 5)))

	actor, err := s.world.Actor("actor-friend")
	s.Require().NoError(err)
	s.Equal(30, actor.HP)
	s.Empty(s.world.Artifacts("actor-friend"))
}

func (s *TriggerTestSuite) TestSightGateBlocksThroughWalls() {
	record := s.startAura()
	record.Area.RequireSight = true
	s.Require().NoError(s.registry.UpdateDuration(s.ctx, record))

	// A wall between the caster (0,0) and where the goblin will stand
	s.world.AddWall(board.Wall{
		A: board.Position{X: 5, Y: -20},
		B: board.Position{X: 5, Y: 20},
	})

	s.Require().NoError(s.service.HandleTokenMoved(s.ctx, s.moveToken("token-goblin", 10, 0)))

	s.Equal(30, s.goblinHP())
	s.Empty(s.world.Artifacts("actor-goblin"))
}

func (s *TriggerTestSuite) TestArtifactDeletedUnlinks() {
	record := s.startAura()
	s.roller.SetRolls([]int{4})
	s.Require().NoError(s.service.HandleTokenMoved(s.ctx, s.moveToken("token-goblin", 10, 0)))

	found, err := s.registry.FindDuration(s.ctx, &registry.FindDurationInput{
		CasterID:   "actor-caster",
		InstanceID: record.InstanceID,
	})
	s.Require().NoError(err)
	s.Require().Len(found.LinkedEffects, 1)
	artifactID := found.LinkedEffects[0].ArtifactID

	// A GM deletes the status by hand; the tracker must drop its reference
	s.Require().NoError(s.world.DeleteArtifact(s.ctx, "actor-goblin", artifactID))
	s.Require().NoError(s.service.HandleArtifactDeleted(s.ctx, &trigger.ArtifactEvent{
		OwnerActorID: "actor-goblin",
		ArtifactID:   artifactID,
	}))

	found, err = s.registry.FindDuration(s.ctx, &registry.FindDurationInput{
		CasterID:   "actor-caster",
		InstanceID: record.InstanceID,
	})
	s.Require().NoError(err)
	s.Empty(found.LinkedEffects)
}
