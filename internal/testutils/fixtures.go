package testutils

import (
	"github.com/KirkDiggler/vtt-spell-tracker/internal/domain/board"
	"github.com/KirkDiggler/vtt-spell-tracker/internal/domain/tracking"
	"github.com/KirkDiggler/vtt-spell-tracker/internal/game"
	"github.com/KirkDiggler/vtt-spell-tracker/internal/uuid"
)

// CreateTestWorld builds a small scene: a friendly caster owned by a player
// and two hostile monsters owned by the GM
func CreateTestWorld(clientUserID string, clientIsGM bool) *game.World {
	world := game.NewWorld(&game.WorldConfig{
		ClientUserID:  clientUserID,
		ClientIsGM:    clientIsGM,
		UUIDGenerator: uuid.NewSequentialGenerator("artifact"),
	})

	world.AddActor(&game.Actor{
		ID:          "actor-caster",
		Name:        "Mirela",
		OwnerUserID: "alice",
		HP:          24,
		MaxHP:       24,
		SaveModifiers: map[string]int{
			"con": 3,
			"wis": 1,
		},
	})
	world.AddToken(&board.Token{
		ID:          "token-caster",
		ActorID:     "actor-caster",
		Name:        "Mirela",
		Disposition: board.DispositionFriendly,
	})

	world.AddActor(&game.Actor{ID: "actor-goblin", Name: "Goblin", OwnerUserID: "gm", HP: 12, MaxHP: 12})
	world.AddToken(&board.Token{
		ID:          "token-goblin",
		ActorID:     "actor-goblin",
		Name:        "Goblin",
		Position:    board.Position{X: 60, Y: 0},
		Disposition: board.DispositionHostile,
	})

	world.AddActor(&game.Actor{ID: "actor-ogre", Name: "Ogre", OwnerUserID: "gm", HP: 40, MaxHP: 40})
	world.AddToken(&board.Token{
		ID:          "token-ogre",
		ActorID:     "actor-ogre",
		Name:        "Ogre",
		Position:    board.Position{X: 80, Y: 20},
		Disposition: board.DispositionHostile,
	})

	return world
}

// CreateTestDurationRecord builds a duration record ready for assertions
func CreateTestDurationRecord(instanceID, casterID string, startRound, durationRounds int) *tracking.DurationRecord {
	return &tracking.DurationRecord{
		InstanceID:            instanceID,
		SpellID:               "spell-test",
		SpellName:             "Test Spell",
		CasterID:              casterID,
		StartRound:            startRound,
		DurationValue:         durationRounds,
		DurationUnit:          tracking.UnitRounds,
		ExpiryRound:           startRound + durationRounds,
		LinkedEffects:         []tracking.LinkedEffect{},
		ProcessedTargetsRound: map[string]bool{},
	}
}

// CreateTestFocusRecord builds a focus record ready for assertions
func CreateTestFocusRecord(casterID, spellID, spellName string) *tracking.FocusRecord {
	return &tracking.FocusRecord{
		SpellID:       spellID,
		SpellName:     spellName,
		CasterID:      casterID,
		LinkedEffects: []tracking.LinkedEffect{},
	}
}
