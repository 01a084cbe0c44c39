package game

import "context"

// Artifact is a status-condition document created on a target as a
// consequence of a tracked effect. The target owns it; the tracker only
// keeps a reference.
type Artifact struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Icon           string `json:"icon"`
	SourceSpell    string `json:"source_spell"`
	SourceInstance string `json:"source_instance,omitempty"`
}

// DocumentStore mutates host documents. CanMutate reflects the host's
// per-client permission model: a player client can usually touch only its own
// actors and must delegate everything else to the privileged relay.
type DocumentStore interface {
	// CreateArtifact creates a status artifact on the actor, returning its id
	CreateArtifact(ctx context.Context, actorID string, artifact *Artifact) (string, error)

	// DeleteArtifact removes an artifact from the actor
	DeleteArtifact(ctx context.Context, actorID, artifactID string) error

	// AdjustHP applies a signed HP delta, clamped to [0, max], returning the new HP
	AdjustHP(ctx context.Context, actorID string, delta int) (int, error)

	// CanMutate reports whether this client may mutate the actor directly
	CanMutate(actorID string) bool
}
