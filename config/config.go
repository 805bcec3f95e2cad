package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config struct to hold the configuration settings
type Config struct {
	Discord       DiscordConfig       `yaml:"discord"`
	Service       ServiceConfig       `yaml:"service"`
	Storage       StorageConfig       `yaml:"storage"`
	Logging       LoggingConfig       `yaml:"logging"`
	Interactions  InteractionsConfig  `yaml:"interactions"`
	Wizard        WizardConfig        `yaml:"wizard"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// DiscordConfig holds Discord configuration.
type DiscordConfig struct {
	Token   string `yaml:"token"`
	AppID   string `yaml:"app_id"`
	GuildID string `yaml:"guild_id"` // empty registers commands globally
}

// ServiceConfig holds general service configuration
type ServiceConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// StorageConfig holds the SQLite connection settings.
type StorageConfig struct {
	DSN              string        `yaml:"dsn"`
	GuildCacheWindow time.Duration `yaml:"guild_cache_window"`
}

// LoggingConfig controls the slog handler and optional rotating log file.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"` // "json" or "text"
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// InteractionsConfig tunes the interaction registry.
type InteractionsConfig struct {
	RegistryMaxEntries int           `yaml:"registry_max_entries"`
	JanitorInterval    time.Duration `yaml:"janitor_interval"`
	IdleTTL            time.Duration `yaml:"idle_ttl"`
	StrictFollowUp     bool          `yaml:"strict_follow_up"`
}

// WizardConfig tunes the event creation flow.
type WizardConfig struct {
	StepTimeout   time.Duration `yaml:"step_timeout"`
	UploadTimeout time.Duration `yaml:"upload_timeout"`
	EditWindow    time.Duration `yaml:"edit_window"`
}

// ObservabilityConfig holds the health/metrics listener.
type ObservabilityConfig struct {
	HealthAddr string `yaml:"health_addr"`
}

// Defaults returns a Config with every tunable populated.
func Defaults() *Config {
	return &Config{
		Service: ServiceConfig{Name: "discord-event-bot", Version: "dev"},
		Storage: StorageConfig{
			DSN:              "file:eventbot.db?_pragma=busy_timeout(5000)",
			GuildCacheWindow: 10 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 14,
		},
		Interactions: InteractionsConfig{
			RegistryMaxEntries: 5000,
			JanitorInterval:    time.Minute,
			IdleTTL:            15 * time.Minute,
		},
		Wizard: WizardConfig{
			StepTimeout:   5 * time.Minute,
			UploadTimeout: 2 * time.Minute,
			EditWindow:    24 * time.Hour,
		},
		Observability: ObservabilityConfig{HealthAddr: ":8080"},
	}
}

// LoadConfig loads the configuration from a YAML file and validates it. A
// missing file is not an error; values then come from defaults and the
// environment.
func LoadConfig(filename string) (*Config, error) {
	cfg, err := Load(filename)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load is LoadConfig without validation, for commands that never connect to
// Discord.
func Load(filename string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(filename)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	if err := loadConfigFromEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first missing or out-of-range setting.
func (c *Config) Validate() error {
	if c.Discord.Token == "" {
		return errors.New("discord token is required (DISCORD_TOKEN)")
	}
	if c.Storage.DSN == "" {
		return errors.New("storage dsn is required (STORAGE_DSN)")
	}
	if c.Wizard.StepTimeout <= 0 {
		return fmt.Errorf("wizard step_timeout must be positive, got %s", c.Wizard.StepTimeout)
	}
	if c.Interactions.RegistryMaxEntries < 0 {
		return fmt.Errorf("interactions registry_max_entries must not be negative, got %d", c.Interactions.RegistryMaxEntries)
	}
	switch c.Logging.Format {
	case "", "json", "text":
	default:
		return fmt.Errorf("unknown logging format %q", c.Logging.Format)
	}
	return nil
}

// loadConfigFromEnv overrides file values with any environment variables that are set.
func loadConfigFromEnv(cfg *Config) error {
	setString(&cfg.Discord.Token, "DISCORD_TOKEN")
	setString(&cfg.Discord.AppID, "DISCORD_APP_ID")
	setString(&cfg.Discord.GuildID, "DISCORD_GUILD_ID")
	setString(&cfg.Service.Name, "SERVICE_NAME")
	setString(&cfg.Storage.DSN, "STORAGE_DSN")
	setString(&cfg.Logging.Level, "LOG_LEVEL")
	setString(&cfg.Logging.Format, "LOG_FORMAT")
	setString(&cfg.Logging.File, "LOG_FILE")
	setString(&cfg.Observability.HealthAddr, "HEALTH_ADDR")

	if err := setDuration(&cfg.Wizard.StepTimeout, "WIZARD_STEP_TIMEOUT"); err != nil {
		return err
	}
	if err := setDuration(&cfg.Wizard.EditWindow, "WIZARD_EDIT_WINDOW"); err != nil {
		return err
	}
	if v := os.Getenv("INTERACTIONS_STRICT_FOLLOW_UP"); v != "" {
		strict, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("INTERACTIONS_STRICT_FOLLOW_UP: %w", err)
		}
		cfg.Interactions.StrictFollowUp = strict
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}
