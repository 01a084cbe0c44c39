package config

import (
	"os"
	"strconv"
)

// Config holds all configuration for the tracker
type Config struct {
	Redis   RedisConfig
	Discord DiscordConfig
	Client  ClientConfig
	Tracker TrackerConfig
}

// RedisConfig holds Redis-specific configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// DiscordConfig holds the optional chat-mirror configuration. Notices mirror
// to a Discord channel only when both fields are set.
type DiscordConfig struct {
	Token     string
	ChannelID string
}

// Enabled reports whether the Discord mirror should start
func (c DiscordConfig) Enabled() bool {
	return c.Token != "" && c.ChannelID != ""
}

// ClientConfig identifies the local client to the authority rule
type ClientConfig struct {
	UserID         string
	IsGM           bool
	ActiveGMUserID string
}

// TrackerConfig holds tracker behavior settings
type TrackerConfig struct {
	// AutoApply applies effects immediately instead of prompting
	AutoApply bool

	// DedupCacheSize bounds the trigger engine's seen-key cache
	DedupCacheSize int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Redis: RedisConfig{
			Addr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvAsIntOrDefault("REDIS_DB", 0),
		},
		Discord: DiscordConfig{
			Token:     os.Getenv("DISCORD_TOKEN"),
			ChannelID: os.Getenv("DISCORD_CHANNEL_ID"),
		},
		Client: ClientConfig{
			UserID:         getEnvOrDefault("CLIENT_USER_ID", "gm"),
			IsGM:           getEnvAsBoolOrDefault("CLIENT_IS_GM", true),
			ActiveGMUserID: getEnvOrDefault("ACTIVE_GM_USER_ID", "gm"),
		},
		Tracker: TrackerConfig{
			AutoApply:      getEnvAsBoolOrDefault("TRACKER_AUTO_APPLY", true),
			DedupCacheSize: getEnvAsIntOrDefault("TRACKER_DEDUP_CACHE_SIZE", 512),
		},
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
