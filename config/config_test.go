package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig_FileValues(t *testing.T) {
	path := writeConfig(t, `
discord:
  token: file-token
  guild_id: g1
wizard:
  step_timeout: 90s
interactions:
  strict_follow_up: true
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Discord.Token != "file-token" || cfg.Discord.GuildID != "g1" {
		t.Fatalf("unexpected discord config: %+v", cfg.Discord)
	}
	if cfg.Wizard.StepTimeout != 90*time.Second {
		t.Fatalf("step timeout = %s, want 90s", cfg.Wizard.StepTimeout)
	}
	if !cfg.Interactions.StrictFollowUp {
		t.Fatalf("expected strict follow-up from file")
	}
	// Untouched values keep their defaults.
	if cfg.Wizard.EditWindow != 24*time.Hour {
		t.Fatalf("edit window = %s, want default", cfg.Wizard.EditWindow)
	}
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "discord:\n  token: file-token\n")
	t.Setenv("DISCORD_TOKEN", "env-token")
	t.Setenv("WIZARD_STEP_TIMEOUT", "2m")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Discord.Token != "env-token" {
		t.Fatalf("token = %q, want env-token", cfg.Discord.Token)
	}
	if cfg.Wizard.StepTimeout != 2*time.Minute {
		t.Fatalf("step timeout = %s, want 2m", cfg.Wizard.StepTimeout)
	}
}

func TestLoadConfig_MissingFileUsesEnv(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "env-only")
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Discord.Token != "env-only" {
		t.Fatalf("token = %q", cfg.Discord.Token)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		env  map[string]string
	}{
		{name: "missing token", body: "service:\n  name: x\n"},
		{name: "bad yaml", body: "discord: [", env: map[string]string{"DISCORD_TOKEN": "t"}},
		{name: "bad duration env", body: "", env: map[string]string{"DISCORD_TOKEN": "t", "WIZARD_STEP_TIMEOUT": "soon"}},
		{name: "bad format", body: "logging:\n  format: xml\n", env: map[string]string{"DISCORD_TOKEN": "t"}},
		{name: "bad strict flag", body: "", env: map[string]string{"DISCORD_TOKEN": "t", "INTERACTIONS_STRICT_FOLLOW_UP": "maybe"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("DISCORD_TOKEN", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := LoadConfig(writeConfig(t, tt.body)); err == nil {
				t.Fatalf("expected an error")
			}
		})
	}
}

func TestLoad_SkipsValidation(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "")
	t.Setenv("STORAGE_DSN", "file:migrate.db")
	cfg, err := Load(writeConfig(t, "service:\n  name: migrator\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Storage.DSN != "file:migrate.db" || cfg.Service.Name != "migrator" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected Validate to reject the missing token")
	}
}
