package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/quentinj/stockpulse/pkg/platform"
)

// Scheduler periodically ingests fresh submissions and refreshes the
// scores of stored ones for the configured tickers. Tickers are processed
// sequentially within one pass; no two passes of the same kind overlap.
type Scheduler struct {
	manager    platform.Manager
	tickers    []string
	subreddits []string
	limit      int
	lookback   time.Duration
	fetchInt   time.Duration
	refreshInt time.Duration
}

// New creates a scheduler driving the given pipeline.
func New(
	m platform.Manager,
	tickers, subreddits []string,
	limit int,
	lookback, fetchInt, refreshInt time.Duration,
) *Scheduler {
	if limit <= 0 {
		limit = 100
	}
	if lookback == 0 {
		lookback = 7 * 24 * time.Hour
	}
	if fetchInt == 0 {
		fetchInt = 6 * time.Hour
	}
	if refreshInt == 0 {
		refreshInt = time.Hour
	}
	return &Scheduler{
		manager:    m,
		tickers:    tickers,
		subreddits: subreddits,
		limit:      limit,
		lookback:   lookback,
		fetchInt:   fetchInt,
		refreshInt: refreshInt,
	}
}

// Run starts the scheduler loop. Blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	fetchTicker := time.NewTicker(s.fetchInt)
	refreshTicker := time.NewTicker(s.refreshInt)
	defer fetchTicker.Stop()
	defer refreshTicker.Stop()

	// Run immediately on start.
	slog.Info("scheduler: initial fetch")
	s.fetchAll(ctx)

	slog.Info("scheduler: running",
		"fetch_interval", s.fetchInt, "refresh_interval", s.refreshInt)

	for {
		select {
		case <-ctx.Done():
			slog.Info("scheduler: stopped")
			return ctx.Err()
		case <-fetchTicker.C:
			slog.Info("scheduler: fetching")
			s.fetchAll(ctx)
		case <-refreshTicker.C:
			slog.Info("scheduler: refreshing")
			s.refreshAll(ctx)
		}
	}
}

// window is the sliding ingestion range ending now.
func (s *Scheduler) window() (after, before int64) {
	now := time.Now().UTC()
	return now.Add(-s.lookback).Unix(), now.Unix()
}

func (s *Scheduler) fetchAll(ctx context.Context) {
	after, before := s.window()
	for _, ticker := range s.tickers {
		if ctx.Err() != nil {
			return
		}
		err := s.manager.FetchData(ctx, platform.FetchRequest{
			Ticker:     ticker,
			Limit:      s.limit,
			After:      after,
			Before:     before,
			Subreddits: s.subreddits,
		})
		if err != nil {
			slog.Error("scheduled fetch failed", "ticker", ticker, "error", err)
		}
	}
}

func (s *Scheduler) refreshAll(ctx context.Context) {
	after, before := s.window()
	err := s.manager.UpdateSubmissions(ctx, s.tickers, platform.DateRange{After: after, Before: before})
	if err != nil {
		slog.Error("scheduled refresh failed", "error", err)
	}
}
