package events

import (
	"fmt"
	"log"
	"sort"
	"sync"
)

// Bus manages event distribution
type Bus struct {
	listeners map[EventType][]Listener
	mu        sync.RWMutex
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		listeners: make(map[EventType][]Listener),
	}
}

// Subscribe adds a listener for a specific event type
func (b *Bus) Subscribe(eventType EventType, listener Listener) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.listeners[eventType] = append(b.listeners[eventType], listener)

	// Sort by priority
	sort.Slice(b.listeners[eventType], func(i, j int) bool {
		return b.listeners[eventType][i].Priority() < b.listeners[eventType][j].Priority()
	})
}

// SubscribeAll adds a listener for every known event type
func (b *Bus) SubscribeAll(listener Listener) {
	for _, eventType := range allEventTypes() {
		b.Subscribe(eventType, listener)
	}
}

// Unsubscribe removes a listener
func (b *Bus) Unsubscribe(eventType EventType, listenerID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	listeners := b.listeners[eventType]
	for i, l := range listeners {
		if l.ID() != listenerID {
			continue
		}
		b.listeners[eventType] = append(listeners[:i], listeners[i+1:]...)
		return
	}
}

// Emit sends an event to all registered listeners in priority order
func (b *Bus) Emit(event Event) error {
	b.mu.RLock()
	listeners := make([]Listener, len(b.listeners[event.GetType()]))
	copy(listeners, b.listeners[event.GetType()])
	b.mu.RUnlock()

	for _, listener := range listeners {
		if err := listener.HandleEvent(event); err != nil {
			return fmt.Errorf("listener %s failed: %w", listener.ID(), err)
		}
	}

	return nil
}

// EmitLogged emits and logs instead of returning the error, for emit sites
// inside event handlers that have no caller to propagate to
func (b *Bus) EmitLogged(event Event) {
	if err := b.Emit(event); err != nil {
		log.Printf("event %s: %v", event.GetType(), err)
	}
}

// Clear removes all listeners
func (b *Bus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.listeners = make(map[EventType][]Listener)
}

func allEventTypes() []EventType {
	return []EventType{
		EventTypeFocusStarted,
		EventTypeFocusEnded,
		EventTypeDurationStarted,
		EventTypeDurationEnded,
		EventTypeDamageApplied,
		EventTypeSaveResulted,
		EventTypeTargetLinked,
		EventTypeTargetReleased,
		EventTypeReminderDue,
		EventTypeApplyPrompt,
		EventTypeCleanupPartial,
	}
}
