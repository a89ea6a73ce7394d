// Package config loads the swarm's runtime configuration: the guilds,
// the monitored channels, the console channel, and the credential
// roster mapping source users to proxy bot tokens.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/gobwas/glob"

	"github.com/zenercurrent/discord-live-backup/internal/sched"
	"github.com/zenercurrent/discord-live-backup/internal/types"
)

// SwarmEnvVar holds the roster as a JSON object of
// {source user id: bot token}. Entries here merge over (and win
// against) the config file's swarm table, so tokens can stay out of
// the file entirely.
const SwarmEnvVar = "swarm"

// Config is the on-disk configuration.
type Config struct {
	MasterToken         string            `json:"master_token"`
	SourceGuildID       string            `json:"source_guild_id"`
	BackupGuildID       string            `json:"backup_guild_id"`
	MonitoredChannels   []string          `json:"monitored_channels"`
	ConsoleChannelID    string            `json:"console_channel_id"`
	TimezoneOffsetHours int               `json:"timezone_offset_hours"`
	FlushAt             string            `json:"flush_at"`
	Swarm               map[string]string `json:"swarm"`
}

// Load reads and validates the config file, merging the swarm roster
// from the environment.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Swarm == nil {
		cfg.Swarm = map[string]string{}
	}

	if raw := os.Getenv(SwarmEnvVar); raw != "" {
		var env map[string]string
		if err := json.Unmarshal([]byte(raw), &env); err != nil {
			return nil, fmt.Errorf("parse %s env: %w", SwarmEnvVar, err)
		}
		for userID, token := range env {
			cfg.Swarm[userID] = token
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required fields without touching the network.
func (c *Config) Validate() error {
	if c.MasterToken == "" {
		return fmt.Errorf("master_token is required")
	}
	for _, field := range []struct{ name, value string }{
		{"source_guild_id", c.SourceGuildID},
		{"backup_guild_id", c.BackupGuildID},
		{"console_channel_id", c.ConsoleChannelID},
	} {
		if err := types.ValidateSnowflake(field.value); err != nil {
			return fmt.Errorf("%s: %w", field.name, err)
		}
	}
	if len(c.MonitoredChannels) == 0 {
		return fmt.Errorf("monitored_channels is required")
	}
	if _, err := c.CompileMonitored(); err != nil {
		return err
	}
	if _, err := c.FlushTime(); err != nil {
		return err
	}
	for userID := range c.Swarm {
		if err := types.ValidateSnowflake(userID); err != nil {
			return fmt.Errorf("swarm roster key: %w", err)
		}
	}
	return nil
}

// CompileMonitored compiles the monitored channel name patterns.
func (c *Config) CompileMonitored() ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(c.MonitoredChannels))
	for _, pattern := range c.MonitoredChannels {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("monitored channel pattern %q: %w", pattern, err)
		}
		globs = append(globs, g)
	}
	return globs, nil
}

// FlushTime parses the daily flush time, defaulting to midnight.
func (c *Config) FlushTime() (sched.TimeOfDay, error) {
	if c.FlushAt == "" {
		return sched.TimeOfDay{}, nil
	}
	return sched.ParseTimeOfDay(c.FlushAt)
}

// TZOffset returns the timestamp-annotation offset.
func (c *Config) TZOffset() time.Duration {
	return time.Duration(c.TimezoneOffsetHours) * time.Hour
}
