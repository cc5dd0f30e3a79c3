package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/quentinj/stockpulse/internal/config"
	"github.com/quentinj/stockpulse/internal/scheduler"
	"github.com/quentinj/stockpulse/internal/store"
	"github.com/quentinj/stockpulse/pkg/platform"
	"github.com/quentinj/stockpulse/pkg/reddit"
	"github.com/quentinj/stockpulse/pkg/sec"
	"github.com/quentinj/stockpulse/pkg/server"
)

func loadConfig() (*config.Config, error) {
	path := cfgFile
	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	return config.Load(path)
}

func buildManager(cfg *config.Config, db store.Store) (*platform.RedditManager, error) {
	details, err := reddit.NewDetailClient(
		cfg.Reddit.ClientID,
		cfg.Reddit.ClientSecret,
		cfg.Reddit.Username,
		cfg.Reddit.Password,
		cfg.Reddit.UserAgent,
	)
	if err != nil {
		return nil, fmt.Errorf("init detail client: %w", err)
	}

	search := reddit.NewSearchClient(cfg.Search.BaseURL)
	return platform.NewRedditManager(db, search, details, platform.BasicNormalizer{}), nil
}

func buildRegistry(cfg *config.Config, db store.Store) (*platform.Registry, error) {
	mgr, err := buildManager(cfg, db)
	if err != nil {
		return nil, err
	}
	reg := platform.NewRegistry()
	reg.Register(platform.PlatformReddit, mgr)
	return reg, nil
}

// window resolves the CLI --after/--before date flags, falling back to the
// configured lookback ending now.
func window(cfg *config.Config, after, before string) (int64, int64, error) {
	now := time.Now().UTC()
	afterTS := now.Add(-cfg.Fetch.Lookback()).Unix()
	beforeTS := now.Unix()

	if after != "" {
		t, err := time.Parse("2006-01-02", after)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid --after %q: %w", after, err)
		}
		afterTS = t.Unix()
	}
	if before != "" {
		t, err := time.Parse("2006-01-02", before)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid --before %q: %w", before, err)
		}
		beforeTS = t.Unix()
	}
	if beforeTS <= afterTS {
		return 0, 0, fmt.Errorf("--before must be later than --after")
	}
	return afterTS, beforeTS, nil
}

func runFetch(ticker string, limit int, after, before string, subreddits []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	reg, err := buildRegistry(cfg, db)
	if err != nil {
		return err
	}
	mgr, _ := reg.Get(platform.PlatformReddit)

	afterTS, beforeTS, err := window(cfg, after, before)
	if err != nil {
		return err
	}
	if limit <= 0 {
		limit = cfg.Fetch.Limit
	}
	if len(subreddits) == 0 {
		subreddits = cfg.Subreddits
	}

	fmt.Fprintf(os.Stderr, "fetching %s submissions...\n", ticker)
	return mgr.FetchData(context.Background(), platform.FetchRequest{
		Ticker:     ticker,
		Limit:      limit,
		After:      afterTS,
		Before:     beforeTS,
		Subreddits: subreddits,
	})
}

func runRefresh(tickers []string, after, before string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	reg, err := buildRegistry(cfg, db)
	if err != nil {
		return err
	}
	mgr, _ := reg.Get(platform.PlatformReddit)

	afterTS, beforeTS, err := window(cfg, after, before)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "refreshing %d ticker(s)...\n", len(tickers))
	return mgr.UpdateSubmissions(context.Background(), tickers,
		platform.DateRange{After: afterTS, Before: beforeTS})
}

func runSubreddits(add []string, refreshAll bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	mgr, err := buildManager(cfg, db)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if refreshAll {
		fmt.Fprintln(os.Stderr, "refreshing subscriber counts for all stored subreddits...")
		if err := mgr.UpdateSubreddits(ctx, nil, true); err != nil {
			return err
		}
	}
	if len(add) > 0 {
		fmt.Fprintf(os.Stderr, "adding up to %d subreddit(s)...\n", len(add))
		if err := mgr.UpdateSubreddits(ctx, add, false); err != nil {
			return err
		}
	}
	return nil
}

func runCompanies() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	client := sec.NewClient("", cfg.SEC.UserAgent)

	fmt.Fprintln(os.Stderr, "downloading company registry...")
	companies, err := client.Companies(context.Background())
	if err != nil {
		return fmt.Errorf("fetch companies: %w", err)
	}

	if err := db.ReplaceCompanies(context.Background(), companies); err != nil {
		return fmt.Errorf("store companies: %w", err)
	}
	fmt.Fprintf(os.Stderr, "loaded %d companies\n", len(companies))
	return nil
}

func runStats() error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	counts, err := db.Counts(context.Background())
	if err != nil {
		return fmt.Errorf("count rows: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TABLE\tROWS")
	fmt.Fprintf(w, "companies\t%d\n", counts.Companies)
	fmt.Fprintf(w, "subreddits\t%d\n", counts.Subreddits)
	fmt.Fprintf(w, "submissions\t%d\n", counts.Submissions)
	fmt.Fprintf(w, "comments\t%d\n", counts.Comments)
	return w.Flush()
}

func runServe(port int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if port == 0 {
		port = cfg.Server.Port
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	mgr, err := buildManager(cfg, db)
	if err != nil {
		return err
	}

	srv := server.New(db, mgr, port)
	return srv.ListenAndServe()
}

func runDaemon(port int) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if port == 0 {
		port = cfg.Server.Port
	}

	db, err := store.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer db.Close()

	mgr, err := buildManager(cfg, db)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	sched := scheduler.New(mgr, cfg.Tickers, cfg.Subreddits,
		cfg.Fetch.Limit,
		cfg.Fetch.Lookback(),
		cfg.Schedule.ParseFetchInterval(),
		cfg.Schedule.ParseRefreshInterval(),
	)

	// Start scheduler in background.
	go func() {
		if err := sched.Run(ctx); err != nil && ctx.Err() == nil {
			fmt.Fprintf(os.Stderr, "scheduler error: %v\n", err)
		}
	}()

	srv := server.New(db, mgr, port)
	go func() {
		<-ctx.Done()
		fmt.Fprintln(os.Stderr, "\nshutting down...")
	}()

	return srv.ListenAndServe()
}
