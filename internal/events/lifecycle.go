package events

import (
	"github.com/KirkDiggler/vtt-spell-tracker/internal/domain/tracking"
)

// FocusStartedEvent fires when a caster begins concentrating on a spell
type FocusStartedEvent struct {
	Record *tracking.FocusRecord
}

func (e *FocusStartedEvent) GetType() EventType { return EventTypeFocusStarted }

// FocusEndedEvent fires when concentration ends for any reason
type FocusEndedEvent struct {
	Record *tracking.FocusRecord
	Reason tracking.EndReason
}

func (e *FocusEndedEvent) GetType() EventType { return EventTypeFocusEnded }

// DurationStartedEvent fires when a round-counted spell instance is created
type DurationStartedEvent struct {
	Record *tracking.DurationRecord
}

func (e *DurationStartedEvent) GetType() EventType { return EventTypeDurationStarted }

// DurationEndedEvent fires when a duration instance ends, with its cleanup tally
type DurationEndedEvent struct {
	Record  *tracking.DurationRecord
	Reason  tracking.EndReason
	Deleted int
	Skipped int
	Failed  int
}

func (e *DurationEndedEvent) GetType() EventType { return EventTypeDurationEnded }

// DamageAppliedEvent fires once per target whenever recurring damage or
// healing lands
type DamageAppliedEvent struct {
	SpellName  string
	CasterID   string
	TargetName string
	Amount     int
	Kind       string
	Halved     bool
	NewHP      int
}

func (e *DamageAppliedEvent) GetType() EventType { return EventTypeDamageApplied }

// SaveResultedEvent fires after a target rolls a saving throw
type SaveResultedEvent struct {
	SpellName  string
	TargetName string
	Total      int
	DC         int
	Success    bool
	Negated    bool
}

func (e *SaveResultedEvent) GetType() EventType { return EventTypeSaveResulted }

// TargetLinkedEvent fires when a target-side artifact is linked to a record
type TargetLinkedEvent struct {
	SpellName  string
	TargetName string
	ArtifactID string
}

func (e *TargetLinkedEvent) GetType() EventType { return EventTypeTargetLinked }

// TargetReleasedEvent fires when a single target's effects are cleaned up
type TargetReleasedEvent struct {
	SpellName  string
	TargetName string
}

func (e *TargetReleasedEvent) GetType() EventType { return EventTypeTargetReleased }

// ReminderSpell is one entry in a focus reminder
type ReminderSpell struct {
	Name    string
	Targets []string
}

// ReminderDueEvent fires when the current combatant has focus spells to maintain
type ReminderDueEvent struct {
	OwnerUserID string
	CasterName  string
	Spells      []ReminderSpell
}

func (e *ReminderDueEvent) GetType() EventType { return EventTypeReminderDue }

// ApplyPromptEvent fires instead of an automatic application when auto-apply
// is off; the manual path performs the identical operation
type ApplyPromptEvent struct {
	OwnerUserID string
	SpellName   string
	TargetName  string
	Phase       tracking.TriggerPhase
}

func (e *ApplyPromptEvent) GetType() EventType { return EventTypeApplyPrompt }

// CleanupPartialEvent fires when a record's cleanup could not remove every
// linked artifact
type CleanupPartialEvent struct {
	SpellName string
	Failed    int
	Detail    string
}

func (e *CleanupPartialEvent) GetType() EventType { return EventTypeCleanupPartial }
