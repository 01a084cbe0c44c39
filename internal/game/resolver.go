package game

import (
	"github.com/KirkDiggler/vtt-spell-tracker/internal/domain/board"
)

// Actor is the host-side document a token points at
type Actor struct {
	ID            string
	Name          string
	OwnerUserID   string
	HP            int
	MaxHP         int
	SaveModifiers map[string]int
}

// SaveModifier returns the actor's bonus for the given saving-throw ability
func (a *Actor) SaveModifier(ability string) int {
	if a.SaveModifiers == nil {
		return 0
	}
	return a.SaveModifiers[ability]
}

// Resolver looks up tokens and actors in the host's scene. Synthetic actors
// only resolve through their token, so callers resolving a target should try
// the token id before falling back to the actor id.
type Resolver interface {
	// Token returns the token with the given id
	Token(tokenID string) (*board.Token, error)

	// ActorTokens returns every token on the scene pointing at the actor
	ActorTokens(actorID string) []*board.Token

	// Actor returns the actor with the given id
	Actor(actorID string) (*Actor, error)

	// ActorByToken resolves the actor behind a token, including synthetic
	// per-scene actors that have no persistent actor document
	ActorByToken(tokenID string) (*Actor, error)
}

// SceneResolver additionally enumerates the scene, which area containment
// checks need when an aura bearer moves
type SceneResolver interface {
	Resolver

	// AllTokens returns every token on the scene
	AllTokens() []*board.Token
}
