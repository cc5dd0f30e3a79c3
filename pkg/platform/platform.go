// Package platform holds the per-source sync pipelines. Each platform
// implements Manager; the one implemented today is Reddit.
package platform

import (
	"context"

	"github.com/quentinj/stockpulse/pkg/reddit"
)

// FetchRequest describes one initial-ingestion run: submissions mentioning
// Ticker inside the [After, Before] window (epoch seconds), at most Limit
// of them, optionally restricted to Subreddits.
type FetchRequest struct {
	Ticker     string
	Limit      int
	After      int64
	Before     int64
	Subreddits []string
}

// DateRange bounds an incremental refresh, in epoch seconds.
type DateRange struct {
	After  int64
	Before int64
}

// Manager is the capability every platform pipeline provides: initial
// ingestion and incremental refresh of already-stored data. Both calls
// block until the workflow completes and return only success or failure.
type Manager interface {
	FetchData(ctx context.Context, req FetchRequest) error
	UpdateSubmissions(ctx context.Context, tickers []string, window DateRange) error
}

// SearchAPI is the paginated submission search consumed by a pipeline.
type SearchAPI interface {
	Search(ctx context.Context, q reddit.Query) ([]reddit.SearchPost, bool, error)
}

// DetailAPI is the per-item detail lookup consumed by a pipeline. Misses
// on individual IDs are absorbed by the implementation; the returned rows
// cover resolved IDs only.
type DetailAPI interface {
	SubmissionScores(ctx context.Context, ids []string) ([]reddit.ScoreDetail, error)
	CommentScores(ctx context.Context, ids []string) ([]reddit.ScoreDetail, error)
	TopLevelComments(ctx context.Context, submissionIDs []string) ([]reddit.CommentDetail, error)
	SubredditDetails(ctx context.Context, names []string) ([]reddit.SubredditDetail, error)
}

// Registry maps platform names to their managers.
type Registry struct {
	managers map[string]Manager
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{managers: make(map[string]Manager)}
}

// Register adds a manager under a platform name.
func (r *Registry) Register(name string, m Manager) {
	r.managers[name] = m
}

// Get returns the manager for a platform name.
func (r *Registry) Get(name string) (Manager, bool) {
	m, ok := r.managers[name]
	return m, ok
}
