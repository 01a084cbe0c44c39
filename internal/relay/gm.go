package relay

import (
	"context"
	"encoding/json"
	"log"

	trackererr "github.com/KirkDiggler/vtt-spell-tracker/internal/errors"
	"github.com/KirkDiggler/vtt-spell-tracker/internal/game"
)

// GMHandler is the receiving side of the relay: it runs on a client with full
// mutation rights and executes payloads against the host's documents. Wiring
// it directly as the Relay models a single-process session; a networked host
// puts its socket RPC layer between the two.
type GMHandler struct {
	store game.DocumentStore
}

// NewGMHandler creates a GMHandler backed by the given document store
func NewGMHandler(store game.DocumentStore) *GMHandler {
	return &GMHandler{store: store}
}

// CallAsPrivileged implements Relay
func (h *GMHandler) CallAsPrivileged(ctx context.Context, op Operation, payload any) (json.RawMessage, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, trackererr.Wrap(err, "failed to encode relay payload")
	}

	log.Printf("relay: executing privileged op %s", op)

	switch op {
	case OpCreateArtifact:
		var p CreateArtifactPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, trackererr.Wrap(err, "malformed create_artifact payload")
		}
		artifactID, err := h.store.CreateArtifact(ctx, p.ActorID, p.Artifact)
		if err != nil {
			return nil, err
		}
		return json.Marshal(CreateArtifactResult{ArtifactID: artifactID})

	case OpDeleteArtifact:
		var p DeleteArtifactPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, trackererr.Wrap(err, "malformed delete_artifact payload")
		}
		if err := h.store.DeleteArtifact(ctx, p.ActorID, p.ArtifactID); err != nil {
			return nil, err
		}
		return json.Marshal(struct{}{})

	case OpAdjustHP:
		var p AdjustHPPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, trackererr.Wrap(err, "malformed adjust_hp payload")
		}
		hp, err := h.store.AdjustHP(ctx, p.ActorID, p.Delta)
		if err != nil {
			return nil, err
		}
		return json.Marshal(AdjustHPResult{HP: hp})

	default:
		return nil, trackererr.InvalidArgumentf("unknown relay operation: %s", op)
	}
}
