package game

import (
	"context"

	"github.com/KirkDiggler/vtt-spell-tracker/internal/domain/board"
)

// Template is a measured area-effect shape placed on the scene
type Template struct {
	ID        string
	SpellName string
	CasterID  string
	Position  board.Position
	Radius    float64
}

// TemplateStore manages scene templates on behalf of the area-effect subsystem
type TemplateStore interface {
	// Template returns the template with the given id
	Template(id string) (*Template, error)

	// Delete removes a template from the scene
	Delete(ctx context.Context, id string) error

	// FindBySpellAndCaster heuristically matches a template by spell name and
	// caster. Legacy compatibility path for records that never stored an
	// explicit template id; the match is an approximation, not a guarantee.
	FindBySpellAndCaster(spellName, casterID string) (*Template, bool)
}
