package tracking

import (
	"time"

	"github.com/KirkDiggler/vtt-spell-tracker/internal/domain/board"
)

// TriggerPhase says when a recurring effect fires within a combatant's turn
type TriggerPhase string

const (
	PhaseTurnStart TriggerPhase = "start"
	PhaseTurnEnd   TriggerPhase = "end"
)

// AreaTrigger says which containment changes an area reacts to
type AreaTrigger string

const (
	TriggerOnEnter AreaTrigger = "enter"
	TriggerOnLeave AreaTrigger = "leave"
)

// DurationUnit is the unit a spell's duration was authored in
type DurationUnit string

const (
	UnitRounds DurationUnit = "rounds"
	UnitTurns  DurationUnit = "turns"
)

// TurnsPerRound converts "turns" durations to rounds. The ruleset does not
// define an exact conversion, so this is an approximation.
const TurnsPerRound = 4

// RoundsFromDuration converts a duration value in the given unit to whole
// rounds, never less than one
func RoundsFromDuration(value int, unit DurationUnit) int {
	rounds := value
	if unit == UnitTurns {
		rounds = (value + TurnsPerRound - 1) / TurnsPerRound
	}
	if rounds < 1 {
		rounds = 1
	}
	return rounds
}

// SaveOutcome controls what a successful saving throw does to the effect
type SaveOutcome string

const (
	SaveNegates SaveOutcome = "negates"
	SaveHalves  SaveOutcome = "halves"
)

// SaveConfig describes the saving throw a target may attempt
type SaveConfig struct {
	Ability string      `json:"ability"`
	DC      int         `json:"dc"`
	Outcome SaveOutcome `json:"outcome"`
}

// StatusSpec is a status-condition artifact the effect creates on its targets
type StatusSpec struct {
	Name string `json:"name"`
	Icon string `json:"icon"`
}

// PerTurnConfig describes a recurring per-turn effect
type PerTurnConfig struct {
	Formula    string       `json:"formula"` // dice expression, may reference @tier etc.
	Phase      TriggerPhase `json:"phase"`
	DamageKind string       `json:"damage_kind"` // "fire", "poison", "healing", ...
	Reapply    bool         `json:"reapply"`     // re-create statuses each tick instead of once
	Statuses   []StatusSpec `json:"statuses"`
	Save       *SaveConfig  `json:"save,omitempty"`
}

// IsHealing reports whether the recurring formula restores HP instead of dealing damage
func (c *PerTurnConfig) IsHealing() bool {
	return c != nil && c.DamageKind == "healing"
}

// CachedSpellData is snapshotted at cast time because the originating item may
// be destroyed (a consumed scroll) while the effect persists
type CachedSpellData struct {
	Tier           int    `json:"tier"`
	CastingAbility string `json:"casting_ability"`
	SaveDC         int    `json:"save_dc"`
	SourceItemType string `json:"source_item_type"`
}

// Variables exposes the snapshot as dice-expression substitutions
func (d CachedSpellData) Variables() map[string]int {
	return map[string]int{
		"tier": d.Tier,
		"dc":   d.SaveDC,
	}
}

// LinkedEffect is a weak back-reference to an artifact owned by a target.
// The tracker owns only the reference; the artifact itself belongs to the
// target and is deleted by the cleanup executor when the record ends.
type LinkedEffect struct {
	TargetActorID string `json:"target_actor_id"`
	TargetTokenID string `json:"target_token_id"`
	ArtifactID    string `json:"artifact_id"`
	TargetName    string `json:"target_name"`
}

// TargetRef identifies a token currently affected by a duration record
type TargetRef struct {
	TokenID string `json:"token_id"`
	ActorID string `json:"actor_id"`
	Name    string `json:"name"`
}

// AreaConfig describes the area of effect a duration record carries
type AreaConfig struct {
	Radius           float64            `json:"radius"`
	AttachedToCaster bool               `json:"attached_to_caster"` // aura carried by the caster's token
	OnEnter          bool               `json:"on_enter"`
	OnLeave          bool               `json:"on_leave"`
	Filter           board.TargetFilter `json:"filter"`
	ExcludeSelf      bool               `json:"exclude_self"`
	RequireSight     bool               `json:"require_sight"`
}

// FocusRecord tracks one actor concentrating on one spell. At most one record
// exists per (caster, spell) pair at a time.
type FocusRecord struct {
	SpellID    string `json:"spell_id"`
	SpellName  string `json:"spell_name"`
	SpellImage string `json:"spell_image"`
	CasterID   string `json:"caster_id"`

	StartedAtTime  time.Time `json:"started_at_time"`
	StartedAtRound *int      `json:"started_at_round,omitempty"` // nil outside combat

	CachedSpell   CachedSpellData `json:"cached_spell"`
	PerTurn       *PerTurnConfig  `json:"per_turn,omitempty"`
	LinkedEffects []LinkedEffect  `json:"linked_effects"`
}

// DurationRecord tracks one cast instance of a round-counted spell. A caster
// may have several concurrent instances of the same spell, so records are
// keyed by InstanceID rather than SpellID.
type DurationRecord struct {
	InstanceID string `json:"instance_id"`
	SpellID    string `json:"spell_id"`
	SpellName  string `json:"spell_name"`
	SpellImage string `json:"spell_image"`
	CasterID   string `json:"caster_id"`
	TemplateID string `json:"template_id,omitempty"`

	StartRound    int          `json:"start_round"`
	ExpiryRound   int          `json:"expiry_round"`
	DurationValue int          `json:"duration_value"`
	DurationUnit  DurationUnit `json:"duration_unit"`

	Targets       []TargetRef     `json:"targets"`
	LinkedEffects []LinkedEffect  `json:"linked_effects"`
	CachedSpell   CachedSpellData `json:"cached_spell"`
	PerTurn       *PerTurnConfig  `json:"per_turn,omitempty"`
	Area          *AreaConfig     `json:"area,omitempty"`

	// Turn-advance bookkeeping; cleared each new round
	LastProcessedRound    int             `json:"last_processed_round"`
	ProcessedTargetsRound map[string]bool `json:"processed_targets_round,omitempty"`
}

// IsExpired reports whether the record has run out. The spell stays active
// through its expiry round; it is only expired once the round counter has
// moved past it.
func (r *DurationRecord) IsExpired(currentRound int) bool {
	return currentRound > r.ExpiryRound
}

// HasTarget reports whether the token is in the record's current target list
func (r *DurationRecord) HasTarget(tokenID string) bool {
	for _, t := range r.Targets {
		if t.TokenID == tokenID {
			return true
		}
	}
	return false
}

// AddTarget appends the target if not already present
func (r *DurationRecord) AddTarget(ref TargetRef) {
	if r.HasTarget(ref.TokenID) {
		return
	}
	r.Targets = append(r.Targets, ref)
}

// RemoveTarget drops the token from the target list
func (r *DurationRecord) RemoveTarget(tokenID string) {
	out := r.Targets[:0]
	for _, t := range r.Targets {
		if t.TokenID != tokenID {
			out = append(out, t)
		}
	}
	r.Targets = out
}

// LinkEffect appends a linked effect, rejecting duplicates by artifact id.
// Returns true when the reference was added.
func LinkEffect(effects *[]LinkedEffect, le LinkedEffect) bool {
	for _, existing := range *effects {
		if existing.ArtifactID == le.ArtifactID {
			return false
		}
	}
	*effects = append(*effects, le)
	return true
}

// UnlinkEffect removes the reference with the given artifact id. Returns true
// when something was removed.
func UnlinkEffect(effects *[]LinkedEffect, artifactID string) bool {
	for i, existing := range *effects {
		if existing.ArtifactID == artifactID {
			*effects = append((*effects)[:i], (*effects)[i+1:]...)
			return true
		}
	}
	return false
}

// EffectsForToken returns the linked effects referencing the given token
func EffectsForToken(effects []LinkedEffect, tokenID string) []LinkedEffect {
	var out []LinkedEffect
	for _, le := range effects {
		if le.TargetTokenID == tokenID {
			out = append(out, le)
		}
	}
	return out
}

// EndReason explains why a record was ended
type EndReason string

const (
	ReasonExpired    EndReason = "expired"
	ReasonFailedRoll EndReason = "failed_roll"
	ReasonCancelled  EndReason = "cancelled"
)
