package relay

import (
	"context"
	"encoding/json"

	trackererr "github.com/KirkDiggler/vtt-spell-tracker/internal/errors"
	"github.com/KirkDiggler/vtt-spell-tracker/internal/game"
)

// Executor mutates host documents with permission awareness: direct mutation
// when the local client may touch the actor, otherwise a privileged relay
// call. A nil or unreachable relay surfaces as CodeUnavailable, which callers
// turn into a user-facing warning.
type Executor struct {
	store game.DocumentStore
	relay Relay
}

// ExecutorConfig holds configuration for an Executor
type ExecutorConfig struct {
	Store game.DocumentStore
	Relay Relay // may be nil when no privileged client is connected
}

// NewExecutor creates an Executor
func NewExecutor(cfg *ExecutorConfig) *Executor {
	if cfg.Store == nil {
		panic("document store is required")
	}

	return &Executor{
		store: cfg.Store,
		relay: cfg.Relay,
	}
}

// CreateArtifact creates a status artifact on the actor
func (e *Executor) CreateArtifact(ctx context.Context, actorID string, artifact *game.Artifact) (string, error) {
	if e.store.CanMutate(actorID) {
		return e.store.CreateArtifact(ctx, actorID, artifact)
	}

	raw, err := e.call(ctx, OpCreateArtifact, &CreateArtifactPayload{
		ActorID:  actorID,
		Artifact: artifact,
	})
	if err != nil {
		return "", err
	}

	var result CreateArtifactResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", trackererr.Wrap(err, "malformed create_artifact result")
	}
	return result.ArtifactID, nil
}

// DeleteArtifact removes an artifact from the actor
func (e *Executor) DeleteArtifact(ctx context.Context, actorID, artifactID string) error {
	if e.store.CanMutate(actorID) {
		return e.store.DeleteArtifact(ctx, actorID, artifactID)
	}

	_, err := e.call(ctx, OpDeleteArtifact, &DeleteArtifactPayload{
		ActorID:    actorID,
		ArtifactID: artifactID,
	})
	return err
}

// AdjustHP applies a signed HP delta, returning the clamped new HP
func (e *Executor) AdjustHP(ctx context.Context, actorID string, delta int) (int, error) {
	if e.store.CanMutate(actorID) {
		return e.store.AdjustHP(ctx, actorID, delta)
	}

	raw, err := e.call(ctx, OpAdjustHP, &AdjustHPPayload{
		ActorID: actorID,
		Delta:   delta,
	})
	if err != nil {
		return 0, err
	}

	var result AdjustHPResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return 0, trackererr.Wrap(err, "malformed adjust_hp result")
	}
	return result.HP, nil
}

func (e *Executor) call(ctx context.Context, op Operation, payload any) (json.RawMessage, error) {
	if e.relay == nil {
		return nil, trackererr.Unavailable("no privileged client connected")
	}

	raw, err := e.relay.CallAsPrivileged(ctx, op, payload)
	if err != nil {
		return nil, trackererr.Wrapf(err, "privileged %s failed", op)
	}
	return raw, nil
}
