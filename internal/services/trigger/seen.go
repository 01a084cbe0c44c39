package trigger

import (
	"fmt"
	"sync"

	"github.com/KirkDiggler/vtt-spell-tracker/internal/domain/tracking"
)

// defaultSeenCapacity bounds the dedup cache; a combat rarely produces more
// than a few hundred distinct (record, target, phase) applications per round
const defaultSeenCapacity = 512

// seenKeys is a bounded set of already-processed application keys. The host
// can deliver the same lifecycle event more than once, so every application is
// keyed by (record, target, phase, round) and repeats are dropped. Oldest keys
// are evicted ring-style when the cache fills; the whole cache resets when the
// round counter moves.
type seenKeys struct {
	mu    sync.Mutex
	keys  map[string]bool
	order []string
	next  int
	round int
}

func newSeenKeys(capacity int) *seenKeys {
	if capacity <= 0 {
		capacity = defaultSeenCapacity
	}
	return &seenKeys{
		keys:  make(map[string]bool, capacity),
		order: make([]string, capacity),
	}
}

func applicationKey(recordID, targetID string, phase tracking.TriggerPhase, round int) string {
	return fmt.Sprintf("%s|%s|%s|%d", recordID, targetID, phase, round)
}

// MarkRound resets the cache when the round changes
func (s *seenKeys) MarkRound(round int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if round == s.round {
		return
	}
	s.round = round
	s.reset()
}

// Seen records the key and reports whether it was already present
func (s *seenKeys) Seen(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.keys[key] {
		return true
	}

	if evicted := s.order[s.next]; evicted != "" {
		delete(s.keys, evicted)
	}
	s.order[s.next] = key
	s.next = (s.next + 1) % len(s.order)
	s.keys[key] = true
	return false
}

func (s *seenKeys) reset() {
	s.keys = make(map[string]bool, len(s.order))
	for i := range s.order {
		s.order[i] = ""
	}
	s.next = 0
}
