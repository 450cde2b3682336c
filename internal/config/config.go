package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName       string `mapstructure:"app_name"`
	Env           string `mapstructure:"app_env"`
	LogLevel      string `mapstructure:"log_level"`
	SourcesFile   string `mapstructure:"sources_file"`
	NotifiersFile string `mapstructure:"notifiers_file"`

	ScrapeIntervalSeconds int64         `mapstructure:"scrape_interval"`
	ScrapeInterval        time.Duration `mapstructure:"-"`

	// Reference point travel distance is measured from.
	HomeLat float64 `mapstructure:"home_lat"`
	HomeLon float64 `mapstructure:"home_lon"`

	RequestTimeoutSeconds int64         `mapstructure:"request_timeout_seconds"`
	RequestTimeout        time.Duration `mapstructure:"-"`
	SourceBudgetSeconds   int64         `mapstructure:"source_budget_seconds"`
	SourceBudget          time.Duration `mapstructure:"-"`

	// Absence of the key disables the Ticketmaster adapter.
	TicketmasterAPIKey string `mapstructure:"tm_api_key"`

	GeocodeURL       string `mapstructure:"geocode_url"`
	GeocodeUserAgent string `mapstructure:"geocode_user_agent"`

	StorageType             string        `mapstructure:"storage_type"`
	BBoltPath               string        `mapstructure:"bbolt_path"`
	StorageRetentionSeconds int64         `mapstructure:"storage_retention_seconds"`
	StorageRetention        time.Duration `mapstructure:"-"`
}

// Redacted returns a copy of the config safe for logging, with credential
// fields masked.
func (c Config) Redacted() Config {
	out := c
	if out.TicketmasterAPIKey != "" {
		out.TicketmasterAPIKey = "[redacted]"
	}
	return out
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "ravewatch-event-agent")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("sources_file", "./configs/sources.yaml")
	v.SetDefault("notifiers_file", "")
	v.SetDefault("scrape_interval", 3600) // seconds
	v.SetDefault("home_lat", 51.1079)     // Wroclaw
	v.SetDefault("home_lon", 17.0385)
	v.SetDefault("request_timeout_seconds", 30)
	v.SetDefault("source_budget_seconds", 120)
	v.SetDefault("tm_api_key", "")
	v.SetDefault("geocode_url", "https://nominatim.openstreetmap.org/search")
	v.SetDefault("geocode_user_agent", "ravewatch-event-agent")
	v.SetDefault("storage_type", "bbolt")
	v.SetDefault("bbolt_path", "./data/events.db")
	v.SetDefault("storage_retention_seconds", int64((7*24*time.Hour)/time.Second))

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.ScrapeIntervalSeconds <= 0 {
		return nil, fmt.Errorf("invalid scrape_interval (must be positive seconds)")
	}
	cfg.ScrapeInterval = time.Duration(cfg.ScrapeIntervalSeconds) * time.Second

	if cfg.RequestTimeoutSeconds <= 0 {
		return nil, fmt.Errorf("invalid request_timeout_seconds (must be positive seconds)")
	}
	cfg.RequestTimeout = time.Duration(cfg.RequestTimeoutSeconds) * time.Second

	if cfg.SourceBudgetSeconds <= 0 {
		return nil, fmt.Errorf("invalid source_budget_seconds (must be positive seconds)")
	}
	cfg.SourceBudget = time.Duration(cfg.SourceBudgetSeconds) * time.Second

	if cfg.StorageRetentionSeconds <= 0 {
		return nil, fmt.Errorf("invalid storage_retention_seconds (must be positive seconds)")
	}
	cfg.StorageRetention = time.Duration(cfg.StorageRetentionSeconds) * time.Second

	if cfg.HomeLat < -90 || cfg.HomeLat > 90 || cfg.HomeLon < -180 || cfg.HomeLon > 180 {
		return nil, fmt.Errorf("invalid home coordinates (%v, %v)", cfg.HomeLat, cfg.HomeLon)
	}

	return &cfg, nil
}
