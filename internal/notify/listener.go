package notify

import (
	"fmt"
	"strings"

	"github.com/KirkDiggler/vtt-spell-tracker/internal/events"
)

// BusListener turns lifecycle events into notices, one per transition
type BusListener struct {
	notifier Notifier
}

// NewBusListener creates a BusListener and subscribes it to every event type
func NewBusListener(bus *events.Bus, notifier Notifier) *BusListener {
	listener := &BusListener{notifier: notifier}
	bus.SubscribeAll(listener)
	return listener
}

// ID implements events.Listener
func (l *BusListener) ID() string { return "notices" }

// Priority implements events.Listener; notices run after bookkeeping listeners
func (l *BusListener) Priority() int { return 100 }

// HandleEvent implements events.Listener
func (l *BusListener) HandleEvent(event events.Event) error {
	switch e := event.(type) {
	case *events.FocusStartedEvent:
		l.notifier.Chat(fmt.Sprintf("Focus started: %s", e.Record.SpellName))

	case *events.FocusEndedEvent:
		l.notifier.Chat(fmt.Sprintf("Focus on %s ended (%s)", e.Record.SpellName, e.Reason))

	case *events.DurationStartedEvent:
		l.notifier.Chat(fmt.Sprintf("%s active until end of round %d", e.Record.SpellName, e.Record.ExpiryRound))

	case *events.DurationEndedEvent:
		l.notifier.Chat(fmt.Sprintf("%s ended (%s): %d effect(s) removed", e.Record.SpellName, e.Reason, e.Deleted))

	case *events.DamageAppliedEvent:
		verb := "takes"
		if e.Kind == "healing" {
			verb = "recovers"
		}
		suffix := ""
		if e.Halved {
			suffix = " (halved)"
		}
		l.notifier.Chat(fmt.Sprintf("%s %s %d %s from %s%s", e.TargetName, verb, e.Amount, e.Kind, e.SpellName, suffix))

	case *events.SaveResultedEvent:
		outcome := "fails"
		if e.Success {
			outcome = "succeeds"
		}
		l.notifier.Chat(fmt.Sprintf("%s %s on the save against %s (%d vs DC %d)", e.TargetName, outcome, e.SpellName, e.Total, e.DC))

	case *events.TargetLinkedEvent:
		l.notifier.Info(fmt.Sprintf("%s is now affected by %s", e.TargetName, e.SpellName))

	case *events.TargetReleasedEvent:
		l.notifier.Info(fmt.Sprintf("%s is no longer affected by %s", e.TargetName, e.SpellName))

	case *events.ReminderDueEvent:
		l.notifier.Whisper(e.OwnerUserID, reminderText(e))

	case *events.ApplyPromptEvent:
		l.notifier.Whisper(e.OwnerUserID, fmt.Sprintf("%s triggers on %s (turn %s): apply its effect when ready", e.SpellName, e.TargetName, e.Phase))

	case *events.CleanupPartialEvent:
		l.notifier.Warn(fmt.Sprintf("Cleanup for %s was partial: %d effect(s) could not be removed (%s)", e.SpellName, e.Failed, e.Detail))
	}

	return nil
}

func reminderText(e *events.ReminderDueEvent) string {
	lines := []string{fmt.Sprintf("%s is maintaining:", e.CasterName)}
	for _, spell := range e.Spells {
		if len(spell.Targets) > 0 {
			lines = append(lines, fmt.Sprintf("- %s (%s)", spell.Name, strings.Join(spell.Targets, ", ")))
		} else {
			lines = append(lines, fmt.Sprintf("- %s", spell.Name))
		}
	}
	lines = append(lines, "Roll the maintenance check or release the spell.")
	return strings.Join(lines, "\n")
}

var _ events.Listener = (*BusListener)(nil)

// Recorder captures notices for tests
type Recorder struct {
	Infos    []string
	Warns    []string
	Chats    []string
	Whispers map[string][]string
}

// NewRecorder creates an empty Recorder
func NewRecorder() *Recorder {
	return &Recorder{Whispers: make(map[string][]string)}
}

// Info implements Notifier.Info
func (r *Recorder) Info(msg string) { r.Infos = append(r.Infos, msg) }

// Warn implements Notifier.Warn
func (r *Recorder) Warn(msg string) { r.Warns = append(r.Warns, msg) }

// Chat implements Notifier.Chat
func (r *Recorder) Chat(msg string) { r.Chats = append(r.Chats, msg) }

// Whisper implements Notifier.Whisper
func (r *Recorder) Whisper(userID, msg string) {
	r.Whispers[userID] = append(r.Whispers[userID], msg)
}
