package events

// EventType represents the type of tracker lifecycle event
type EventType string

const (
	EventTypeFocusStarted    EventType = "focus_started"
	EventTypeFocusEnded      EventType = "focus_ended"
	EventTypeDurationStarted EventType = "duration_started"
	EventTypeDurationEnded   EventType = "duration_ended"
	EventTypeDamageApplied   EventType = "damage_applied"
	EventTypeSaveResulted    EventType = "save_resulted"
	EventTypeTargetLinked    EventType = "target_linked"
	EventTypeTargetReleased  EventType = "target_released"
	EventTypeReminderDue     EventType = "reminder_due"
	EventTypeApplyPrompt     EventType = "apply_prompt"
	EventTypeCleanupPartial  EventType = "cleanup_partial"
)

// Event is the base interface for all lifecycle events
type Event interface {
	GetType() EventType
}

// Listener processes events
type Listener interface {
	HandleEvent(event Event) error
	Priority() int
	ID() string
}
