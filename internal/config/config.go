package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Database   DatabaseConfig `yaml:"database"`
	Reddit     RedditConfig   `yaml:"reddit"`
	Search     SearchConfig   `yaml:"search"`
	SEC        SECConfig      `yaml:"sec"`
	Schedule   ScheduleConfig `yaml:"schedule"`
	Fetch      FetchConfig    `yaml:"fetch"`
	Server     ServerConfig   `yaml:"server"`
	Tickers    []string       `yaml:"tickers"`
	Subreddits []string       `yaml:"subreddits"`
}

// DatabaseConfig configures SQLite storage.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// RedditConfig holds the OAuth credentials for the detail API.
type RedditConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	UserAgent    string `yaml:"user_agent"`
}

// SearchConfig configures the submission search endpoint.
type SearchConfig struct {
	BaseURL string `yaml:"base_url"`
}

// SECConfig configures the company registry client.
type SECConfig struct {
	UserAgent string `yaml:"user_agent"`
}

// ScheduleConfig configures daemon-mode intervals.
type ScheduleConfig struct {
	FetchInterval   string `yaml:"fetch_interval"`
	RefreshInterval string `yaml:"refresh_interval"`
}

// ParseFetchInterval returns the fetch interval as time.Duration.
func (s ScheduleConfig) ParseFetchInterval() time.Duration {
	d, err := time.ParseDuration(s.FetchInterval)
	if err != nil {
		return 6 * time.Hour
	}
	return d
}

// ParseRefreshInterval returns the refresh interval as time.Duration.
func (s ScheduleConfig) ParseRefreshInterval() time.Duration {
	d, err := time.ParseDuration(s.RefreshInterval)
	if err != nil {
		return time.Hour
	}
	return d
}

// FetchConfig bounds each scheduled ingestion run.
type FetchConfig struct {
	Limit        int `yaml:"limit"`
	LookbackDays int `yaml:"lookback_days"`
}

// Lookback returns the sliding ingestion window as a duration.
func (f FetchConfig) Lookback() time.Duration {
	days := f.LookbackDays
	if days <= 0 {
		days = 7
	}
	return time.Duration(days) * 24 * time.Hour
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "./stockpulse.db"},
		Reddit: RedditConfig{
			UserAgent: "stockpulse/1.0",
		},
		Search: SearchConfig{},
		SEC:    SECConfig{UserAgent: "stockpulse/1.0"},
		Schedule: ScheduleConfig{
			FetchInterval:   "6h",
			RefreshInterval: "1h",
		},
		Fetch: FetchConfig{
			Limit:        100,
			LookbackDays: 7,
		},
		Server:     ServerConfig{Port: 8080},
		Tickers:    []string{"GME", "AMC", "TSLA"},
		Subreddits: []string{"wallstreetbets", "investing", "stocks"},
	}
}

// Load reads configuration from a YAML file and applies env var overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// applyEnvOverrides overrides config values with environment variables.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("STOCKPULSE_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("STOCKPULSE_SEARCH_URL"); v != "" {
		cfg.Search.BaseURL = v
	}
	if v := os.Getenv("STOCKPULSE_TICKERS"); v != "" {
		cfg.Tickers = splitList(v)
	}
	if v := os.Getenv("REDDIT_CLIENT_ID"); v != "" {
		cfg.Reddit.ClientID = v
	}
	if v := os.Getenv("REDDIT_CLIENT_SECRET"); v != "" {
		cfg.Reddit.ClientSecret = v
	}
	if v := os.Getenv("REDDIT_USERNAME"); v != "" {
		cfg.Reddit.Username = v
	}
	if v := os.Getenv("REDDIT_PASSWORD"); v != "" {
		cfg.Reddit.Password = v
	}
	if v := os.Getenv("REDDIT_USER_AGENT"); v != "" {
		cfg.Reddit.UserAgent = v
	}
	if v := os.Getenv("SEC_USER_AGENT"); v != "" {
		cfg.SEC.UserAgent = v
	}
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	var out []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
