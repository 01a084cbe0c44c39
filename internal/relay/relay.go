package relay

//go:generate mockgen -destination=mock/mock_relay.go -package=mockrelay -source=relay.go

import (
	"context"
	"encoding/json"

	"github.com/KirkDiggler/vtt-spell-tracker/internal/game"
)

// Operation names a privileged document mutation
type Operation string

const (
	OpCreateArtifact Operation = "create_artifact"
	OpDeleteArtifact Operation = "delete_artifact"
	OpAdjustHP       Operation = "adjust_hp"
)

// Relay ships a document mutation to whichever client holds elevated
// permission and returns its result. Callers must tolerate "no privileged
// client connected" rejections and degrade to a user warning instead of
// blocking.
type Relay interface {
	CallAsPrivileged(ctx context.Context, op Operation, payload any) (json.RawMessage, error)
}

// CreateArtifactPayload asks the privileged client to create a status artifact
type CreateArtifactPayload struct {
	ActorID  string         `json:"actor_id"`
	Artifact *game.Artifact `json:"artifact"`
}

// CreateArtifactResult carries the created artifact's id back
type CreateArtifactResult struct {
	ArtifactID string `json:"artifact_id"`
}

// DeleteArtifactPayload asks the privileged client to delete an artifact
type DeleteArtifactPayload struct {
	ActorID    string `json:"actor_id"`
	ArtifactID string `json:"artifact_id"`
}

// AdjustHPPayload asks the privileged client to apply an HP delta
type AdjustHPPayload struct {
	ActorID string `json:"actor_id"`
	Delta   int    `json:"delta"`
}

// AdjustHPResult carries the clamped post-mutation HP back
type AdjustHPResult struct {
	HP int `json:"hp"`
}
