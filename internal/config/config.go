// Package config loads process configuration from a key/value file and
// the environment. The file path comes from the CONFIG_FILE environment
// variable; values set directly in the environment win over the file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"remindbot/internal/logging"
)

const (
	defaultRunMode    = "cli"
	defaultDBPath     = "data/remindbot.db"
	defaultPendingTTL = 5 * time.Minute
	defaultTimezone   = "America/New_York"
)

// Config holds everything the process needs to run in either mode.
type Config struct {
	RunMode string // "api" (long-running bot) or "cli" (one-shot)

	DiscordToken     string
	DefaultChannelID string
	DefaultUserID    string

	OpenAIKey string

	DBPath string

	// Optional third routing branch: when false the classifier never
	// returns the todo intent and todo-like requests fall through to
	// unknown.
	TodoIntent bool

	// How long a pending notification waits for confirmation.
	PendingTTL time.Duration

	// Optional YAML file with extra heuristic intent rules.
	IntentRulesPath string

	// Timezone used for scheduled deliveries and the daily todo summary.
	Timezone string
}

// Load reads CONFIG_FILE (if set) into the environment, then resolves
// all settings from the environment. Missing optional keys fall back to
// defaults; required keys are validated later per run mode.
func Load() (*Config, error) {
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		// godotenv does not overwrite variables already present in the
		// environment, which gives us the env-wins precedence for free.
		if err := godotenv.Load(path); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
		logging.Info("config", "Loaded config file %s", path)
	} else if err := godotenv.Load(); err == nil {
		logging.Info("config", "Loaded .env file")
	}

	cfg := &Config{
		RunMode:          getenv("RUN_MODE", defaultRunMode),
		DiscordToken:     os.Getenv("DISCORD_CLIENT_SECRET"),
		DefaultChannelID: os.Getenv("DISCORD_CHANNEL_ID"),
		DefaultUserID:    os.Getenv("DISCORD_USER_ID"),
		OpenAIKey:        os.Getenv("OPENAI_API_KEY"),
		DBPath:           getenv("DB_LOCATION", defaultDBPath),
		TodoIntent:       os.Getenv("TODO_INTENT") == "true",
		PendingTTL:       defaultPendingTTL,
		IntentRulesPath:  os.Getenv("INTENT_RULES_FILE"),
		Timezone:         getenv("TIMEZONE", defaultTimezone),
	}

	if raw := os.Getenv("PENDING_TTL_SECONDS"); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs <= 0 {
			return nil, fmt.Errorf("invalid PENDING_TTL_SECONDS: %q", raw)
		}
		cfg.PendingTTL = time.Duration(secs) * time.Second
	}

	return cfg, nil
}

// ValidateAPI checks the keys the long-running bot mode needs.
func (c *Config) ValidateAPI() error {
	if c.DiscordToken == "" {
		return fmt.Errorf("DISCORD_CLIENT_SECRET must be set for api mode")
	}
	if c.OpenAIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY must be set for api mode")
	}
	return nil
}

// ValidateCLI checks the keys the one-shot CLI mode needs.
func (c *Config) ValidateCLI() error {
	if c.DefaultChannelID == "" {
		return fmt.Errorf("DISCORD_CHANNEL_ID must be set for cli mode")
	}
	if c.DefaultUserID == "" {
		return fmt.Errorf("DISCORD_USER_ID must be set for cli mode")
	}
	return nil
}

// Location resolves the configured timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		logging.Info("config", "Unknown timezone %q, using UTC", c.Timezone)
		return time.UTC
	}
	return loc
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
