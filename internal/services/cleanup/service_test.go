package cleanup_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/vtt-spell-tracker/internal/domain/board"
	"github.com/KirkDiggler/vtt-spell-tracker/internal/domain/tracking"
	trackererr "github.com/KirkDiggler/vtt-spell-tracker/internal/errors"
	"github.com/KirkDiggler/vtt-spell-tracker/internal/events"
	"github.com/KirkDiggler/vtt-spell-tracker/internal/game"
	"github.com/KirkDiggler/vtt-spell-tracker/internal/relay"
	"github.com/KirkDiggler/vtt-spell-tracker/internal/repositories/records"
	"github.com/KirkDiggler/vtt-spell-tracker/internal/services/cleanup"
	"github.com/KirkDiggler/vtt-spell-tracker/internal/services/registry"
	"github.com/KirkDiggler/vtt-spell-tracker/internal/uuid"
)

type CleanupTestSuite struct {
	suite.Suite
	ctx      context.Context
	world    *game.World
	bus      *events.Bus
	registry registry.Service
	service  cleanup.Service

	captured []events.Event
}

func (s *CleanupTestSuite) SetupTest() {
	s.ctx = context.Background()
	// The local client is a player, so only alice's own actors mutate
	// directly; everything else needs the (absent) privileged relay
	s.world = game.NewWorld(&game.WorldConfig{
		ClientUserID:  "alice",
		UUIDGenerator: uuid.NewSequentialGenerator("artifact"),
	})
	s.bus = events.NewBus()
	s.captured = nil
	s.bus.SubscribeAll(eventCapture{suite: s})

	s.registry = registry.NewService(&registry.ServiceConfig{
		Repository:    records.NewInMemoryRepository(),
		UUIDGenerator: uuid.NewSequentialGenerator("inst"),
		EventBus:      s.bus,
	})

	s.service = cleanup.NewService(&cleanup.ServiceConfig{
		Registry:  s.registry,
		Resolver:  s.world,
		Executor:  relay.NewExecutor(&relay.ExecutorConfig{Store: s.world}),
		Templates: s.world,
		EventBus:  s.bus,
	})

	s.addTarget("actor-wolf", "token-wolf", "Wolf", "alice")
	s.addTarget("actor-bear", "token-bear", "Bear", "alice")
	s.addTarget("actor-drake", "token-drake", "Drake", "gm")
}

type eventCapture struct {
	suite *CleanupTestSuite
}

func (c eventCapture) ID() string    { return "capture" }
func (c eventCapture) Priority() int { return 0 }
func (c eventCapture) HandleEvent(event events.Event) error {
	c.suite.captured = append(c.suite.captured, event)
	return nil
}

func (s *CleanupTestSuite) addTarget(actorID, tokenID, name, owner string) {
	s.world.AddActor(&game.Actor{ID: actorID, Name: name, OwnerUserID: owner, HP: 10, MaxHP: 10})
	s.world.AddToken(&board.Token{ID: tokenID, ActorID: actorID, Name: name})
}

// link creates a real artifact on the actor and links it to the record
func (s *CleanupTestSuite) link(record *tracking.DurationRecord, actorID, tokenID, name string) string {
	artifactID, err := s.world.CreateArtifact(s.ctx, actorID, &game.Artifact{Name: "Webbed"})
	s.Require().NoError(err)

	err = s.registry.LinkEffect(s.ctx, &registry.LinkEffectInput{
		CasterID:           record.CasterID,
		DurationInstanceID: record.InstanceID,
		Effect: tracking.LinkedEffect{
			TargetActorID: actorID,
			TargetTokenID: tokenID,
			ArtifactID:    artifactID,
			TargetName:    name,
		},
	})
	s.Require().NoError(err)
	return artifactID
}

func (s *CleanupTestSuite) startDuration() *tracking.DurationRecord {
	out, err := s.registry.StartDuration(s.ctx, &registry.StartDurationInput{
		CasterID:      "caster-1",
		SpellID:       "spell-web",
		SpellName:     "Web",
		CurrentRound:  1,
		DurationValue: 3,
		DurationUnit:  tracking.UnitRounds,
		Targets: []tracking.TargetRef{
			{TokenID: "token-wolf", ActorID: "actor-wolf", Name: "Wolf"},
			{TokenID: "token-bear", ActorID: "actor-bear", Name: "Bear"},
		},
	})
	s.Require().NoError(err)
	return out.Record
}

func (s *CleanupTestSuite) eventOfType(eventType events.EventType) events.Event {
	for _, e := range s.captured {
		if e.GetType() == eventType {
			return e
		}
	}
	return nil
}

func TestCleanupTestSuite(t *testing.T) {
	suite.Run(t, new(CleanupTestSuite))
}

func (s *CleanupTestSuite) TestEndDurationDeletesEverything() {
	record := s.startDuration()
	s.link(record, "actor-wolf", "token-wolf", "Wolf")
	s.link(record, "actor-bear", "token-bear", "Bear")

	tally, err := s.service.EndDuration(s.ctx, &cleanup.EndDurationInput{
		CasterID:   "caster-1",
		InstanceID: record.InstanceID,
		Reason:     tracking.ReasonExpired,
	})
	s.Require().NoError(err)

	s.Equal(2, tally.Deleted)
	s.Zero(tally.Skipped)
	s.Zero(tally.Failed)

	s.Empty(s.world.Artifacts("actor-wolf"))
	s.Empty(s.world.Artifacts("actor-bear"))

	durations, err := s.registry.GetActiveDurations(s.ctx, "caster-1")
	s.Require().NoError(err)
	s.Empty(durations)

	ended, ok := s.eventOfType(events.EventTypeDurationEnded).(*events.DurationEndedEvent)
	s.Require().True(ok)
	s.Equal(tracking.ReasonExpired, ended.Reason)
	s.Equal(2, ended.Deleted)
}

func (s *CleanupTestSuite) TestEndDurationContinuesPastFailures() {
	record := s.startDuration()
	s.link(record, "actor-wolf", "token-wolf", "Wolf")
	// Drake belongs to the GM and no relay is connected, so its artifact
	// cannot be deleted
	s.link(record, "actor-drake", "token-drake", "Drake")
	s.link(record, "actor-bear", "token-bear", "Bear")

	tally, err := s.service.EndDuration(s.ctx, &cleanup.EndDurationInput{
		CasterID:   "caster-1",
		InstanceID: record.InstanceID,
		Reason:     tracking.ReasonCancelled,
	})
	s.Require().NoError(err)

	// The failure in the middle does not stop the later deletions
	s.Equal(2, tally.Deleted)
	s.Equal(1, tally.Failed)
	s.Empty(s.world.Artifacts("actor-wolf"))
	s.Empty(s.world.Artifacts("actor-bear"))
	s.Len(s.world.Artifacts("actor-drake"), 1)

	// The record is gone even though cleanup was partial
	durations, err := s.registry.GetActiveDurations(s.ctx, "caster-1")
	s.Require().NoError(err)
	s.Empty(durations)

	partial, ok := s.eventOfType(events.EventTypeCleanupPartial).(*events.CleanupPartialEvent)
	s.Require().True(ok)
	s.Equal(1, partial.Failed)
	s.Contains(partial.Detail, "Drake")
}

func (s *CleanupTestSuite) TestEndDurationSkipsUnresolvableTargets() {
	record := s.startDuration()
	err := s.registry.LinkEffect(s.ctx, &registry.LinkEffectInput{
		CasterID:           "caster-1",
		DurationInstanceID: record.InstanceID,
		Effect: tracking.LinkedEffect{
			TargetTokenID: "token-departed",
			ArtifactID:    "artifact-orphan",
			TargetName:    "Departed",
		},
	})
	s.Require().NoError(err)

	tally, err := s.service.EndDuration(s.ctx, &cleanup.EndDurationInput{
		CasterID:   "caster-1",
		InstanceID: record.InstanceID,
		Reason:     tracking.ReasonExpired,
	})
	s.Require().NoError(err)

	s.Equal(1, tally.Skipped)
	s.Zero(tally.Failed)
}

func (s *CleanupTestSuite) TestEndDurationAlreadyDeletedArtifactCounts() {
	record := s.startDuration()
	artifactID := s.link(record, "actor-wolf", "token-wolf", "Wolf")
	s.Require().NoError(s.world.DeleteArtifact(s.ctx, "actor-wolf", artifactID))

	tally, err := s.service.EndDuration(s.ctx, &cleanup.EndDurationInput{
		CasterID:   "caster-1",
		InstanceID: record.InstanceID,
		Reason:     tracking.ReasonExpired,
	})
	s.Require().NoError(err)
	s.Equal(1, tally.Deleted)
	s.Zero(tally.Failed)
}

func (s *CleanupTestSuite) TestEndDurationRemovesTemplate() {
	s.world.AddTemplate(&game.Template{ID: "template-web", SpellName: "Web", CasterID: "caster-1"})

	record := s.startDuration()
	record.TemplateID = "template-web"
	s.Require().NoError(s.registry.UpdateDuration(s.ctx, record))

	_, err := s.service.EndDuration(s.ctx, &cleanup.EndDurationInput{
		CasterID:   "caster-1",
		InstanceID: record.InstanceID,
		Reason:     tracking.ReasonExpired,
	})
	s.Require().NoError(err)

	_, err = s.world.Template("template-web")
	s.True(trackererr.IsNotFound(err))
}

func (s *CleanupTestSuite) TestEndDurationFindsLegacyTemplate() {
	// No template id on the record; the spell-and-caster heuristic finds it
	s.world.AddTemplate(&game.Template{ID: "template-legacy", SpellName: "Web", CasterID: "caster-1"})

	record := s.startDuration()
	_, err := s.service.EndDuration(s.ctx, &cleanup.EndDurationInput{
		CasterID:   "caster-1",
		InstanceID: record.InstanceID,
		Reason:     tracking.ReasonExpired,
	})
	s.Require().NoError(err)

	_, err = s.world.Template("template-legacy")
	s.True(trackererr.IsNotFound(err))
}

func (s *CleanupTestSuite) TestEndFocus() {
	out, err := s.registry.StartFocus(s.ctx, &registry.StartFocusInput{
		CasterID:  "caster-1",
		SpellID:   "spell-hunters-mark",
		SpellName: "Hunter's Mark",
	})
	s.Require().NoError(err)

	artifactID, err := s.world.CreateArtifact(s.ctx, "actor-wolf", &game.Artifact{Name: "Marked"})
	s.Require().NoError(err)
	err = s.registry.LinkEffect(s.ctx, &registry.LinkEffectInput{
		CasterID:     "caster-1",
		FocusSpellID: out.Record.SpellID,
		Effect: tracking.LinkedEffect{
			TargetActorID: "actor-wolf",
			TargetTokenID: "token-wolf",
			ArtifactID:    artifactID,
			TargetName:    "Wolf",
		},
	})
	s.Require().NoError(err)

	tally, err := s.service.EndFocus(s.ctx, &cleanup.EndFocusInput{
		CasterID: "caster-1",
		SpellID:  "spell-hunters-mark",
		Reason:   tracking.ReasonFailedRoll,
	})
	s.Require().NoError(err)
	s.Equal(1, tally.Deleted)

	s.Empty(s.world.Artifacts("actor-wolf"))

	ended, ok := s.eventOfType(events.EventTypeFocusEnded).(*events.FocusEndedEvent)
	s.Require().True(ok)
	s.Equal(tracking.ReasonFailedRoll, ended.Reason)
}

func (s *CleanupTestSuite) TestReleaseTarget() {
	record := s.startDuration()
	s.link(record, "actor-wolf", "token-wolf", "Wolf")
	bearArtifact := s.link(record, "actor-bear", "token-bear", "Bear")

	tally, err := s.service.ReleaseTarget(s.ctx, &cleanup.ReleaseTargetInput{
		CasterID:   "caster-1",
		InstanceID: record.InstanceID,
		TokenID:    "token-wolf",
	})
	s.Require().NoError(err)
	s.Equal(1, tally.Deleted)

	// Only the wolf's artifact is gone
	s.Empty(s.world.Artifacts("actor-wolf"))
	s.Len(s.world.Artifacts("actor-bear"), 1)

	found, err := s.registry.FindDuration(s.ctx, &registry.FindDurationInput{
		CasterID:   "caster-1",
		InstanceID: record.InstanceID,
	})
	s.Require().NoError(err)
	s.False(found.HasTarget("token-wolf"))
	s.True(found.HasTarget("token-bear"))
	s.Require().Len(found.LinkedEffects, 1)
	s.Equal(bearArtifact, found.LinkedEffects[0].ArtifactID)
}
