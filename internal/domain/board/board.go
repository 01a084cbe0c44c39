package board

// Position is a point on the scene grid, in scene units
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Disposition describes a token's allegiance relative to the scene
type Disposition string

const (
	DispositionFriendly Disposition = "friendly"
	DispositionHostile  Disposition = "hostile"
	DispositionNeutral  Disposition = "neutral"
)

// Token is a placed game piece. Synthetic tokens carry a per-scene actor that
// only resolves through the token, not through a persistent actor id.
type Token struct {
	ID          string
	ActorID     string
	Name        string
	Position    Position
	Disposition Disposition
	Synthetic   bool
}

// TargetFilter limits which tokens an area acts on, relative to the area owner
type TargetFilter string

const (
	FilterAll     TargetFilter = "all"
	FilterAllies  TargetFilter = "allies"
	FilterEnemies TargetFilter = "enemies"
)

// Matches reports whether a token passes the filter given the owner's disposition
func (f TargetFilter) Matches(owner, target Disposition) bool {
	switch f {
	case FilterAllies:
		return owner == target
	case FilterEnemies:
		return owner != target && target != DispositionNeutral
	default:
		return true
	}
}
