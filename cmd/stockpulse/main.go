package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var cfgFile string

func main() {
	godotenv.Load()
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "stockpulse",
		Short: "Ingest and sync stock-ticker discussion data from Reddit",
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")

	root.AddCommand(fetchCmd())
	root.AddCommand(refreshCmd())
	root.AddCommand(subredditsCmd())
	root.AddCommand(companiesCmd())
	root.AddCommand(statsCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(runCmd())

	return root
}

func fetchCmd() *cobra.Command {
	var (
		ticker     string
		limit      int
		after      string
		before     string
		subreddits []string
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Ingest submissions and comments for a ticker",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(ticker, limit, after, before, subreddits)
		},
	}

	cmd.Flags().StringVar(&ticker, "ticker", "", "ticker to search for (required)")
	cmd.Flags().IntVar(&limit, "limit", 0, "max submissions to ingest (default: from config)")
	cmd.Flags().StringVar(&after, "after", "", "window start, YYYY-MM-DD (default: lookback from config)")
	cmd.Flags().StringVar(&before, "before", "", "window end, YYYY-MM-DD (default: now)")
	cmd.Flags().StringSliceVar(&subreddits, "subreddit", nil, "restrict to specific subreddits")
	cmd.MarkFlagRequired("ticker")
	return cmd
}

func refreshCmd() *cobra.Command {
	var (
		tickers []string
		after   string
		before  string
	)

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Refresh scores of stored submissions and sync their comments",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRefresh(tickers, after, before)
		},
	}

	cmd.Flags().StringSliceVar(&tickers, "ticker", nil, "tickers to refresh (required)")
	cmd.Flags().StringVar(&after, "after", "", "window start, YYYY-MM-DD (default: lookback from config)")
	cmd.Flags().StringVar(&before, "before", "", "window end, YYYY-MM-DD (default: now)")
	cmd.MarkFlagRequired("ticker")
	return cmd
}

func subredditsCmd() *cobra.Command {
	var (
		add        []string
		refreshAll bool
	)

	cmd := &cobra.Command{
		Use:   "subreddits",
		Short: "Maintain the subreddit reference table",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(add) == 0 && !refreshAll {
				return fmt.Errorf("nothing to do: pass --add or --refresh-all")
			}
			return runSubreddits(add, refreshAll)
		},
	}

	cmd.Flags().StringSliceVar(&add, "add", nil, "subreddit names to add if not stored yet")
	cmd.Flags().BoolVar(&refreshAll, "refresh-all", false, "re-fetch subscriber counts for every stored subreddit")
	return cmd
}

func companiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "companies",
		Short: "Reload the company registry from the SEC",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompanies()
		},
	}
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show row counts per table",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats()
		},
	}
}

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}

func runCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start daemon with scheduler and HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon(port)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "server port (default: from config)")
	return cmd
}
