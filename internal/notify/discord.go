package notify

import (
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"
)

// DiscordNotifier mirrors chat notices to a Discord channel. Groups often run
// a session channel next to the table; this keeps it in sync with what
// happened in combat.
type DiscordNotifier struct {
	session   *discordgo.Session
	channelID string
}

// DiscordNotifierConfig holds configuration for a DiscordNotifier
type DiscordNotifierConfig struct {
	Session   *discordgo.Session
	ChannelID string
}

// NewDiscordNotifier creates a DiscordNotifier
func NewDiscordNotifier(cfg *DiscordNotifierConfig) *DiscordNotifier {
	if cfg.Session == nil {
		panic("discord session is required")
	}
	if cfg.ChannelID == "" {
		panic("channel ID is required")
	}

	return &DiscordNotifier{
		session:   cfg.Session,
		channelID: cfg.ChannelID,
	}
}

// Info implements Notifier.Info
func (n *DiscordNotifier) Info(msg string) {
	n.send(msg)
}

// Warn implements Notifier.Warn
func (n *DiscordNotifier) Warn(msg string) {
	n.send(fmt.Sprintf("⚠️ %s", msg))
}

// Chat implements Notifier.Chat
func (n *DiscordNotifier) Chat(msg string) {
	n.send(msg)
}

// Whisper implements Notifier.Whisper
func (n *DiscordNotifier) Whisper(userID, msg string) {
	channel, err := n.session.UserChannelCreate(userID)
	if err != nil {
		log.Printf("failed to open DM channel for %s: %v", userID, err)
		return
	}

	if _, err := n.session.ChannelMessageSend(channel.ID, msg); err != nil {
		log.Printf("failed to whisper %s: %v", userID, err)
	}
}

func (n *DiscordNotifier) send(msg string) {
	if _, err := n.session.ChannelMessageSend(n.channelID, msg); err != nil {
		log.Printf("failed to send Discord notice: %v", err)
	}
}
