package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/zenercurrent/discord-live-backup/internal/sched"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dlb.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

const validConfig = `{
	"master_token": "tok-master",
	"source_guild_id": "100",
	"backup_guild_id": "200",
	"monitored_channels": ["general", "dev-*"],
	"console_channel_id": "300",
	"timezone_offset_hours": -5,
	"flush_at": "03:30",
	"swarm": {"42": "tok-alice"}
}`

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MasterToken != "tok-master" {
		t.Errorf("master token = %q", cfg.MasterToken)
	}
	if cfg.Swarm["42"] != "tok-alice" {
		t.Errorf("roster = %v", cfg.Swarm)
	}
	if got := cfg.TZOffset(); got != -5*time.Hour {
		t.Errorf("tz offset = %v", got)
	}
	at, err := cfg.FlushTime()
	if err != nil {
		t.Fatal(err)
	}
	if at != (sched.TimeOfDay{Hour: 3, Minute: 30}) {
		t.Errorf("flush time = %v", at)
	}
}

func TestLoadMergesSwarmEnv(t *testing.T) {
	t.Setenv(SwarmEnvVar, `{"42": "tok-override", "77": "tok-bob"}`)
	cfg, err := Load(writeConfig(t, validConfig))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Swarm["42"] != "tok-override" {
		t.Errorf("env entry must win over the file: %v", cfg.Swarm)
	}
	if cfg.Swarm["77"] != "tok-bob" {
		t.Errorf("env-only entry missing: %v", cfg.Swarm)
	}
}

func TestLoadRejectsBadSwarmEnv(t *testing.T) {
	t.Setenv(SwarmEnvVar, `not json`)
	if _, err := Load(writeConfig(t, validConfig)); err == nil {
		t.Error("malformed roster env must fail")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("missing file must fail")
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			MasterToken:       "tok",
			SourceGuildID:     "100",
			BackupGuildID:     "200",
			MonitoredChannels: []string{"general"},
			ConsoleChannelID:  "300",
			Swarm:             map[string]string{"42": "tok-alice"},
		}
	}
	if err := base().Validate(); err != nil {
		t.Fatalf("base config must validate: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing token", func(c *Config) { c.MasterToken = "" }, "master_token"},
		{"bad source guild", func(c *Config) { c.SourceGuildID = "guild" }, "source_guild_id"},
		{"bad backup guild", func(c *Config) { c.BackupGuildID = "" }, "backup_guild_id"},
		{"bad console channel", func(c *Config) { c.ConsoleChannelID = "12a" }, "console_channel_id"},
		{"no monitored channels", func(c *Config) { c.MonitoredChannels = nil }, "monitored_channels"},
		{"bad pattern", func(c *Config) { c.MonitoredChannels = []string{"[unterminated"} }, "pattern"},
		{"bad flush time", func(c *Config) { c.FlushAt = "25:00" }, "hour"},
		{"bad roster key", func(c *Config) { c.Swarm = map[string]string{"alice": "tok"} }, "roster"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("want error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestFlushTimeDefaultsToMidnight(t *testing.T) {
	cfg := &Config{}
	at, err := cfg.FlushTime()
	if err != nil {
		t.Fatal(err)
	}
	if at != (sched.TimeOfDay{}) {
		t.Errorf("default flush time = %v, want midnight", at)
	}
}
