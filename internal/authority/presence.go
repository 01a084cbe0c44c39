package authority

import "sync"

// Presence reports who is connected, as seen by the local client. The trigger
// engine combines it with record ownership to build a selection Context.
type Presence interface {
	// ClientUserID identifies the local client
	ClientUserID() string

	// ClientIsGM reports whether the local client is a GM
	ClientIsGM() bool

	// ActiveGMUserID returns the designated primary GM, empty when none
	ActiveGMUserID() string

	// IsUserOnline reports whether the user has a connected client
	IsUserOnline(userID string) bool
}

// StaticPresence is a Presence with explicit connection state, used by the
// demo runner and tests
type StaticPresence struct {
	mu       sync.RWMutex
	clientID string
	isGM     bool
	activeGM string
	online   map[string]bool
}

// StaticPresenceConfig holds configuration for a StaticPresence
type StaticPresenceConfig struct {
	ClientUserID   string
	ClientIsGM     bool
	ActiveGMUserID string
	OnlineUsers    []string
}

// NewStaticPresence creates a StaticPresence
func NewStaticPresence(cfg *StaticPresenceConfig) *StaticPresence {
	online := make(map[string]bool)
	for _, userID := range cfg.OnlineUsers {
		online[userID] = true
	}
	return &StaticPresence{
		clientID: cfg.ClientUserID,
		isGM:     cfg.ClientIsGM,
		activeGM: cfg.ActiveGMUserID,
		online:   online,
	}
}

// ClientUserID implements Presence.ClientUserID
func (p *StaticPresence) ClientUserID() string {
	return p.clientID
}

// ClientIsGM implements Presence.ClientIsGM
func (p *StaticPresence) ClientIsGM() bool {
	return p.isGM
}

// ActiveGMUserID implements Presence.ActiveGMUserID
func (p *StaticPresence) ActiveGMUserID() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.activeGM
}

// IsUserOnline implements Presence.IsUserOnline
func (p *StaticPresence) IsUserOnline(userID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.online[userID]
}

// SetOnline marks a user as connected or disconnected
func (p *StaticPresence) SetOnline(userID string, online bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.online[userID] = online
}

// ContextFor builds the selection Context for a record owned by the given user
func ContextFor(p Presence, ownerUserID string) Context {
	return Context{
		ClientUserID:   p.ClientUserID(),
		ClientIsGM:     p.ClientIsGM(),
		ActiveGMUserID: p.ActiveGMUserID(),
		OwnerUserID:    ownerUserID,
		OwnerOnline:    p.IsUserOnline(ownerUserID),
	}
}
