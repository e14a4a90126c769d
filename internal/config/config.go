package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	FlushPerItem  = "per_item"
	FlushEndOfRun = "end_of_run"

	defaultGeminiEndpoint = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiModel    = "gemini-1.5-flash"
)

// Config holds the application configuration loaded from files and
// environment variables.
type Config struct {
	AppName  string `mapstructure:"app_name"`
	Env      string `mapstructure:"app_env"`
	LogLevel string `mapstructure:"log_level"`

	SourcesFile    string `mapstructure:"sources_file"`
	PublishersFile string `mapstructure:"publishers_file"`

	StateType  string `mapstructure:"state_type"`
	StatePath  string `mapstructure:"state_path"`
	StateDSN   string `mapstructure:"state_dsn"`
	StateFlush string `mapstructure:"state_flush"`

	GeminiAPIKey   string `mapstructure:"gemini_api_key" json:"-"`
	GeminiModel    string `mapstructure:"gemini_model"`
	GeminiEndpoint string `mapstructure:"gemini_endpoint"`

	DryRun       bool   `mapstructure:"dry_run"`
	ItemID       string `mapstructure:"item_id"`
	LookbackDays int    `mapstructure:"lookback_days"`
	MaxItems     int    `mapstructure:"max_items"`

	// Schedule is a cron expression; empty means a single batch run.
	Schedule string `mapstructure:"schedule"`

	Lookback time.Duration `mapstructure:"-"`
}

// Load reads configuration for the named binary from environment
// variables and configs/.env, with per-binary file defaults.
func Load(app string) (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "paperboy-"+app)
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("sources_file", fmt.Sprintf("./configs/%s/sources.yaml", app))
	v.SetDefault("publishers_file", fmt.Sprintf("./configs/%s/publishers.yaml", app))
	v.SetDefault("state_type", "file")
	v.SetDefault("state_path", fmt.Sprintf("./data/%s-state.json", app))
	v.SetDefault("state_flush", FlushPerItem)
	v.SetDefault("gemini_model", defaultGeminiModel)
	v.SetDefault("gemini_endpoint", defaultGeminiEndpoint)
	v.SetDefault("lookback_days", 1)
	v.SetDefault("max_items", 10)

	v.AutomaticEnv()

	// Unmarshal only sees keys viper knows about, so keys without
	// defaults need an explicit env binding.
	for _, key := range []string{
		"gemini_api_key", "state_dsn", "dry_run", "item_id", "schedule",
	} {
		_ = v.BindEnv(key)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.Lookback = time.Duration(cfg.LookbackDays) * 24 * time.Hour

	return &cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.GeminiAPIKey) == "" {
		return fmt.Errorf("gemini_api_key is required (set GEMINI_API_KEY)")
	}
	if c.StateFlush != FlushPerItem && c.StateFlush != FlushEndOfRun {
		return fmt.Errorf("invalid state_flush %q (expected %s or %s)", c.StateFlush, FlushPerItem, FlushEndOfRun)
	}
	if c.LookbackDays <= 0 {
		return fmt.Errorf("invalid lookback_days (must be positive)")
	}
	if c.MaxItems < 0 {
		return fmt.Errorf("invalid max_items (must not be negative)")
	}
	switch c.StateType {
	case "", "file", "bbolt":
		if strings.TrimSpace(c.StatePath) == "" {
			return fmt.Errorf("state_path is required for %q state", c.StateType)
		}
	case "postgres":
		if strings.TrimSpace(c.StateDSN) == "" {
			return fmt.Errorf("state_dsn is required for postgres state")
		}
	case "none", "disabled":
	default:
		return fmt.Errorf("unsupported state_type %q", c.StateType)
	}
	return nil
}
