package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	if cfg.Database.Path != "./stockpulse.db" {
		t.Errorf("default db path = %q", cfg.Database.Path)
	}
	if cfg.Fetch.Limit != 100 {
		t.Errorf("default fetch limit = %d", cfg.Fetch.Limit)
	}
	if got := cfg.Schedule.ParseFetchInterval(); got != 6*time.Hour {
		t.Errorf("default fetch interval = %s", got)
	}
	if got := cfg.Schedule.ParseRefreshInterval(); got != time.Hour {
		t.Errorf("default refresh interval = %s", got)
	}
	if got := cfg.Fetch.Lookback(); got != 7*24*time.Hour {
		t.Errorf("default lookback = %s", got)
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `
database:
  path: /tmp/other.db
schedule:
  fetch_interval: 30m
tickers:
  - NOK
  - BB
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Path != "/tmp/other.db" {
		t.Errorf("db path = %q", cfg.Database.Path)
	}
	if got := cfg.Schedule.ParseFetchInterval(); got != 30*time.Minute {
		t.Errorf("fetch interval = %s", got)
	}
	if len(cfg.Tickers) != 2 || cfg.Tickers[0] != "NOK" {
		t.Errorf("tickers = %v", cfg.Tickers)
	}
	// Untouched sections keep defaults.
	if cfg.Fetch.Limit != 100 {
		t.Errorf("fetch limit = %d, want default", cfg.Fetch.Limit)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("STOCKPULSE_DB_PATH", "/tmp/env.db")
	t.Setenv("REDDIT_CLIENT_ID", "env-id")
	t.Setenv("STOCKPULSE_TICKERS", "GME, AMC,")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.Path != "/tmp/env.db" {
		t.Errorf("db path = %q", cfg.Database.Path)
	}
	if cfg.Reddit.ClientID != "env-id" {
		t.Errorf("client id = %q", cfg.Reddit.ClientID)
	}
	if len(cfg.Tickers) != 2 || cfg.Tickers[1] != "AMC" {
		t.Errorf("tickers = %v", cfg.Tickers)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestBadIntervalFallsBack(t *testing.T) {
	s := ScheduleConfig{FetchInterval: "not-a-duration"}
	if got := s.ParseFetchInterval(); got != 6*time.Hour {
		t.Errorf("bad interval should fall back to default, got %s", got)
	}
}
