package notify

import "log"

// Notifier delivers user-facing notices. State transitions produce exactly
// one notice each; failures surface as transient warnings, never blocking
// dialogs, because everything here runs inside event handlers.
type Notifier interface {
	// Info shows a transient toast-style notice
	Info(msg string)

	// Warn shows a transient warning notice
	Warn(msg string)

	// Chat posts to the shared chat timeline
	Chat(msg string)

	// Whisper sends a private notice to one user
	Whisper(userID, msg string)
}

// LogNotifier writes notices to the standard logger
type LogNotifier struct{}

// NewLogNotifier creates a LogNotifier
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

// Info implements Notifier.Info
func (n *LogNotifier) Info(msg string) {
	log.Printf("[info] %s", msg)
}

// Warn implements Notifier.Warn
func (n *LogNotifier) Warn(msg string) {
	log.Printf("[warn] %s", msg)
}

// Chat implements Notifier.Chat
func (n *LogNotifier) Chat(msg string) {
	log.Printf("[chat] %s", msg)
}

// Whisper implements Notifier.Whisper
func (n *LogNotifier) Whisper(userID, msg string) {
	log.Printf("[whisper -> %s] %s", userID, msg)
}

// multiNotifier fans notices out to several sinks
type multiNotifier struct {
	sinks []Notifier
}

// Multi combines notifiers into one
func Multi(sinks ...Notifier) Notifier {
	return &multiNotifier{sinks: sinks}
}

func (n *multiNotifier) Info(msg string) {
	for _, sink := range n.sinks {
		sink.Info(msg)
	}
}

func (n *multiNotifier) Warn(msg string) {
	for _, sink := range n.sinks {
		sink.Warn(msg)
	}
}

func (n *multiNotifier) Chat(msg string) {
	for _, sink := range n.sinks {
		sink.Chat(msg)
	}
}

func (n *multiNotifier) Whisper(userID, msg string) {
	for _, sink := range n.sinks {
		sink.Whisper(userID, msg)
	}
}
