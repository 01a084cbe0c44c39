package game

import (
	"log"

	"github.com/KirkDiggler/vtt-spell-tracker/internal/domain/board"
)

// VisibilityChecker answers line-of-sight questions for sight-gated areas
type VisibilityChecker interface {
	CanSee(from, to board.Position) bool
}

// VisibilityQuery is the host engine's own visibility test. It may fail when
// the engine's vision layer is not ready, in which case we fall back to a
// raycast against the scene's walls.
type VisibilityQuery func(from, to board.Position) (bool, error)

// sightJitter nudges the target point when a ray lands exactly on a wall
// edge, which otherwise produces false negatives
const sightJitter = 0.5

// Sight checks visibility via the engine query first and a wall raycast second
type Sight struct {
	query VisibilityQuery
	walls func() []board.Wall
}

// SightConfig holds configuration for Sight
type SightConfig struct {
	Query VisibilityQuery      // optional engine-provided check
	Walls func() []board.Wall  // scene walls for the raycast fallback
}

// NewSight creates a Sight checker
func NewSight(cfg *SightConfig) *Sight {
	walls := cfg.Walls
	if walls == nil {
		walls = func() []board.Wall { return nil }
	}
	return &Sight{
		query: cfg.Query,
		walls: walls,
	}
}

// CanSee reports whether to is visible from from. A blocked result is retried
// with small positional jitter before giving up.
func (s *Sight) CanSee(from, to board.Position) bool {
	if s.query != nil {
		visible, err := s.query(from, to)
		if err == nil && visible {
			return true
		}
		if err != nil {
			log.Printf("visibility query failed, falling back to raycast: %v", err)
		}
	}

	if s.raycast(from, to) {
		return true
	}

	for _, offset := range jitterOffsets() {
		jittered := board.Position{X: to.X + offset.X, Y: to.Y + offset.Y}
		if s.raycast(from, jittered) {
			return true
		}
	}

	return false
}

// raycast reports whether the straight line from..to crosses no wall
func (s *Sight) raycast(from, to board.Position) bool {
	for _, wall := range s.walls() {
		if wall.Blocks(from, to) {
			return false
		}
	}
	return true
}

func jitterOffsets() []board.Position {
	return []board.Position{
		{X: sightJitter, Y: 0},
		{X: -sightJitter, Y: 0},
		{X: 0, Y: sightJitter},
		{X: 0, Y: -sightJitter},
	}
}
