package game

import (
	"context"
	"sync"

	"github.com/KirkDiggler/vtt-spell-tracker/internal/domain/board"
	trackererr "github.com/KirkDiggler/vtt-spell-tracker/internal/errors"
	"github.com/KirkDiggler/vtt-spell-tracker/internal/uuid"
)

// World is an in-memory scene implementing Resolver, DocumentStore and
// TemplateStore. The demo runner and the test suites use it in place of a
// live host engine.
type World struct {
	mu sync.RWMutex

	actors    map[string]*Actor
	tokens    map[string]*board.Token
	templates map[string]*Template
	artifacts map[string]map[string]*Artifact // actorID -> artifactID
	walls     []board.Wall

	clientUserID string
	clientIsGM   bool

	uuidGenerator uuid.Generator
}

// WorldConfig holds configuration for a World
type WorldConfig struct {
	// ClientUserID identifies the local client for permission checks
	ClientUserID string

	// ClientIsGM grants unrestricted mutation rights
	ClientIsGM bool

	UUIDGenerator uuid.Generator
}

// NewWorld creates an empty World
func NewWorld(cfg *WorldConfig) *World {
	w := &World{
		actors:       make(map[string]*Actor),
		tokens:       make(map[string]*board.Token),
		templates:    make(map[string]*Template),
		artifacts:    make(map[string]map[string]*Artifact),
		clientUserID: cfg.ClientUserID,
		clientIsGM:   cfg.ClientIsGM,
	}

	if cfg.UUIDGenerator != nil {
		w.uuidGenerator = cfg.UUIDGenerator
	} else {
		w.uuidGenerator = uuid.NewGoogleUUIDGenerator()
	}

	return w
}

// AddActor places an actor in the world
func (w *World) AddActor(actor *Actor) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.actors[actor.ID] = actor
}

// AddToken places a token in the world
func (w *World) AddToken(token *board.Token) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.tokens[token.ID] = token
}

// MoveToken updates a token's position, returning the old position
func (w *World) MoveToken(tokenID string, to board.Position) (board.Position, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	token, exists := w.tokens[tokenID]
	if !exists {
		return board.Position{}, trackererr.NotFoundf("token not found: %s", tokenID)
	}

	old := token.Position
	token.Position = to
	return old, nil
}

// AddWall adds a sight-blocking wall segment
func (w *World) AddWall(wall board.Wall) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.walls = append(w.walls, wall)
}

// Walls returns the scene's wall segments
func (w *World) Walls() []board.Wall {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]board.Wall, len(w.walls))
	copy(out, w.walls)
	return out
}

// AddTemplate places a measured template on the scene
func (w *World) AddTemplate(template *Template) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.templates[template.ID] = template
}

// Token implements Resolver.Token
func (w *World) Token(tokenID string) (*board.Token, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	token, exists := w.tokens[tokenID]
	if !exists {
		return nil, trackererr.NotFoundf("token not found: %s", tokenID)
	}
	return token, nil
}

// ActorTokens implements Resolver.ActorTokens
func (w *World) ActorTokens(actorID string) []*board.Token {
	w.mu.RLock()
	defer w.mu.RUnlock()

	var out []*board.Token
	for _, token := range w.tokens {
		if token.ActorID == actorID {
			out = append(out, token)
		}
	}
	return out
}

// AllTokens returns every token on the scene
func (w *World) AllTokens() []*board.Token {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]*board.Token, 0, len(w.tokens))
	for _, token := range w.tokens {
		out = append(out, token)
	}
	return out
}

// Actor implements Resolver.Actor
func (w *World) Actor(actorID string) (*Actor, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	actor, exists := w.actors[actorID]
	if !exists {
		return nil, trackererr.NotFoundf("actor not found: %s", actorID)
	}
	return actor, nil
}

// ActorByToken implements Resolver.ActorByToken
func (w *World) ActorByToken(tokenID string) (*Actor, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	token, exists := w.tokens[tokenID]
	if !exists {
		return nil, trackererr.NotFoundf("token not found: %s", tokenID)
	}

	actor, exists := w.actors[token.ActorID]
	if !exists {
		return nil, trackererr.NotFoundf("actor not found for token %s", tokenID)
	}
	return actor, nil
}

// CreateArtifact implements DocumentStore.CreateArtifact
func (w *World) CreateArtifact(ctx context.Context, actorID string, artifact *Artifact) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, exists := w.actors[actorID]; !exists {
		return "", trackererr.NotFoundf("actor not found: %s", actorID)
	}

	stored := *artifact
	if stored.ID == "" {
		stored.ID = w.uuidGenerator.New()
	}

	if w.artifacts[actorID] == nil {
		w.artifacts[actorID] = make(map[string]*Artifact)
	}
	w.artifacts[actorID][stored.ID] = &stored

	return stored.ID, nil
}

// DeleteArtifact implements DocumentStore.DeleteArtifact
func (w *World) DeleteArtifact(ctx context.Context, actorID, artifactID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	owned := w.artifacts[actorID]
	if _, exists := owned[artifactID]; !exists {
		return trackererr.NotFoundf("artifact not found: %s", artifactID)
	}

	delete(owned, artifactID)
	return nil
}

// AdjustHP implements DocumentStore.AdjustHP
func (w *World) AdjustHP(ctx context.Context, actorID string, delta int) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	actor, exists := w.actors[actorID]
	if !exists {
		return 0, trackererr.NotFoundf("actor not found: %s", actorID)
	}

	hp := actor.HP + delta
	if hp < 0 {
		hp = 0
	}
	if hp > actor.MaxHP {
		hp = actor.MaxHP
	}
	actor.HP = hp

	return hp, nil
}

// CanMutate implements DocumentStore.CanMutate
func (w *World) CanMutate(actorID string) bool {
	if w.clientIsGM {
		return true
	}

	w.mu.RLock()
	defer w.mu.RUnlock()

	actor, exists := w.actors[actorID]
	if !exists {
		return false
	}
	return actor.OwnerUserID == w.clientUserID
}

// Artifacts returns the artifacts currently on an actor
func (w *World) Artifacts(actorID string) []*Artifact {
	w.mu.RLock()
	defer w.mu.RUnlock()

	var out []*Artifact
	for _, artifact := range w.artifacts[actorID] {
		out = append(out, artifact)
	}
	return out
}

// Template implements TemplateStore.Template
func (w *World) Template(id string) (*Template, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	template, exists := w.templates[id]
	if !exists {
		return nil, trackererr.NotFoundf("template not found: %s", id)
	}
	return template, nil
}

// Delete implements TemplateStore.Delete
func (w *World) Delete(ctx context.Context, id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, exists := w.templates[id]; !exists {
		return trackererr.NotFoundf("template not found: %s", id)
	}

	delete(w.templates, id)
	return nil
}

// FindBySpellAndCaster implements TemplateStore.FindBySpellAndCaster
func (w *World) FindBySpellAndCaster(spellName, casterID string) (*Template, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	for _, template := range w.templates {
		if template.SpellName == spellName && template.CasterID == casterID {
			return template, true
		}
	}
	return nil, false
}
