package platform

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/quentinj/stockpulse/internal/store"
	"github.com/quentinj/stockpulse/pkg/reddit"
)

// PlatformReddit is the registry name of the Reddit pipeline.
const PlatformReddit = "reddit"

// searchFields is the field list requested from the search index.
// created_utc is the paging cursor and is always present.
var searchFields = []string{"id", "created_utc", "subreddit", "title", "score"}

// RedditManager keeps Reddit submissions and comments synchronized for
// tracked tickers. Detail-lookup misses are non-fatal; store write
// failures abort the current workflow and surface to the caller.
type RedditManager struct {
	store   store.Store
	search  SearchAPI
	details DetailAPI
	norm    Normalizer
}

// NewRedditManager wires the pipeline from its collaborators.
func NewRedditManager(st store.Store, search SearchAPI, details DetailAPI, norm Normalizer) *RedditManager {
	if norm == nil {
		norm = BasicNormalizer{}
	}
	return &RedditManager{store: st, search: search, details: details, norm: norm}
}

var _ Manager = (*RedditManager)(nil)

// FetchData ingests submissions for req.Ticker in the request window,
// followed by their top-level comments. Records already in the store are
// never inserted twice; subreddit reference rows are created before any
// submission referencing them.
func (m *RedditManager) FetchData(ctx context.Context, req FetchRequest) error {
	posts, partial, err := m.search.Search(ctx, reddit.Query{
		Ticker:     req.Ticker,
		Subreddits: req.Subreddits,
		After:      req.After,
		Before:     req.Before,
		Limit:      req.Limit,
		Fields:     searchFields,
	})
	if err != nil {
		return fmt.Errorf("search %s: %w", req.Ticker, err)
	}
	if partial {
		slog.Warn("proceeding with partial search results", "ticker", req.Ticker, "count", len(posts))
	}
	if len(posts) == 0 {
		slog.Info("no submissions found", "ticker", req.Ticker)
		return nil
	}

	// The search index's scores are stale by the time we read them;
	// replace them with fresh detail lookups before anything persists.
	ids := make([]string, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
	}
	fresh, err := m.details.SubmissionScores(ctx, ids)
	if err != nil {
		return fmt.Errorf("refresh scores %s: %w", req.Ticker, err)
	}
	scoreByID := make(map[string]int, len(fresh))
	for _, d := range fresh {
		scoreByID[d.ID] = d.Score
	}
	for i := range posts {
		if score, ok := scoreByID[posts[i].ID]; ok {
			posts[i].Score = score
		}
	}

	existing, err := m.store.SubmissionIDs(ctx)
	if err != nil {
		return fmt.Errorf("read submission ids: %w", err)
	}
	newPosts := FilterNew(posts, func(p reddit.SearchPost) string { return p.ID }, existing)
	if len(newPosts) == 0 {
		slog.Info("no new submissions", "ticker", req.Ticker)
		return nil
	}
	slog.Info("processing new submissions", "ticker", req.Ticker, "count", len(newPosts))

	subIDByName, err := m.resolveSubreddits(ctx, newPosts)
	if err != nil {
		return err
	}

	rows := make([]store.Submission, 0, len(newPosts))
	inserted := make([]string, 0, len(newPosts))
	for _, p := range newPosts {
		subID, ok := subIDByName[p.Subreddit]
		if !ok {
			// Details lookup for this subreddit failed earlier; without a
			// reference row the submission cannot be stored.
			slog.Warn("skipping submission in unresolved subreddit",
				"submission", p.ID, "subreddit", p.Subreddit)
			continue
		}
		rows = append(rows, store.Submission{
			Ticker:       req.Ticker,
			SubredditID:  subID,
			SubmissionID: p.ID,
			CreatedUTC:   p.CreatedUTC,
			Title:        m.norm.Clean(p.Title),
			Score:        p.Score,
		})
		inserted = append(inserted, p.ID)
	}
	if len(rows) == 0 {
		return nil
	}
	if err := m.store.InsertSubmissions(ctx, rows); err != nil {
		return fmt.Errorf("insert submissions: %w", err)
	}

	return m.ingestComments(ctx, inserted)
}

// UpdateSubmissions refreshes the mutable fields of already-stored
// submissions for each ticker in turn, then upsert-style refreshes their
// comments: unseen comments are inserted, known ones get a score update.
func (m *RedditManager) UpdateSubmissions(ctx context.Context, tickers []string, window DateRange) error {
	for _, ticker := range tickers {
		ids, err := m.store.SubmissionIDsInRange(ctx, ticker, window.After, window.Before)
		if err != nil {
			return fmt.Errorf("read submissions for %s: %w", ticker, err)
		}
		if len(ids) == 0 {
			slog.Info("no stored submissions in range", "ticker", ticker)
			continue
		}
		slog.Info("updating submissions", "ticker", ticker, "count", len(ids))

		fresh, err := m.details.SubmissionScores(ctx, ids)
		if err != nil {
			return fmt.Errorf("submission scores for %s: %w", ticker, err)
		}
		if updates := MergeScores(idSet(ids), fresh); len(updates) > 0 {
			if err := m.store.UpdateSubmissionScores(ctx, updates); err != nil {
				return fmt.Errorf("update submission scores: %w", err)
			}
		}

		if err := m.refreshComments(ctx, ids); err != nil {
			return err
		}
	}
	return nil
}

// refreshComments fetches the comments of the given submissions and routes
// each one through exactly one path: insert if unseen, score update if
// already stored.
func (m *RedditManager) refreshComments(ctx context.Context, submissionIDs []string) error {
	comments, err := m.details.TopLevelComments(ctx, submissionIDs)
	if err != nil {
		return fmt.Errorf("fetch comments: %w", err)
	}
	if len(comments) == 0 {
		return nil
	}

	existing, err := m.store.CommentIDs(ctx)
	if err != nil {
		return fmt.Errorf("read comment ids: %w", err)
	}
	fresh, known := Partition(comments, func(c reddit.CommentDetail) string { return c.CommentID }, existing)

	if len(fresh) > 0 {
		if err := m.store.InsertComments(ctx, m.commentRows(fresh)); err != nil {
			return fmt.Errorf("insert comments: %w", err)
		}
	}

	if len(known) > 0 {
		knownIDs := make([]string, len(known))
		for i, c := range known {
			knownIDs[i] = c.CommentID
		}
		details, err := m.details.CommentScores(ctx, knownIDs)
		if err != nil {
			return fmt.Errorf("comment scores: %w", err)
		}
		if updates := MergeScores(idSet(knownIDs), details); len(updates) > 0 {
			if err := m.store.UpdateCommentScores(ctx, updates); err != nil {
				return fmt.Errorf("update comment scores: %w", err)
			}
		}
	}
	return nil
}

// ingestComments inserts the not-yet-stored comments of freshly inserted
// submissions.
func (m *RedditManager) ingestComments(ctx context.Context, submissionIDs []string) error {
	comments, err := m.details.TopLevelComments(ctx, submissionIDs)
	if err != nil {
		return fmt.Errorf("fetch comments: %w", err)
	}
	if len(comments) == 0 {
		return nil
	}

	existing, err := m.store.CommentIDs(ctx)
	if err != nil {
		return fmt.Errorf("read comment ids: %w", err)
	}
	fresh := FilterNew(comments, func(c reddit.CommentDetail) string { return c.CommentID }, existing)
	if len(fresh) == 0 {
		slog.Info("no new comments")
		return nil
	}
	slog.Info("processing new comments", "count", len(fresh))

	if err := m.store.InsertComments(ctx, m.commentRows(fresh)); err != nil {
		return fmt.Errorf("insert comments: %w", err)
	}
	return nil
}

func (m *RedditManager) commentRows(comments []reddit.CommentDetail) []store.Comment {
	rows := make([]store.Comment, len(comments))
	for i, c := range comments {
		rows[i] = store.Comment{
			SubmissionID: c.SubmissionID,
			CommentID:    c.CommentID,
			CreatedUTC:   c.CreatedUTC,
			Body:         m.norm.Clean(c.Body),
			Score:        c.Score,
		}
	}
	return rows
}

// resolveSubreddits creates reference rows for any subreddit named by the
// batch that the store does not hold yet, then returns the name to
// subreddit_id mapping. Rows are created before the submissions that
// reference them.
func (m *RedditManager) resolveSubreddits(ctx context.Context, posts []reddit.SearchPost) (map[string]string, error) {
	seen := make(map[string]struct{})
	var names []string
	for _, p := range posts {
		if _, ok := seen[p.Subreddit]; ok {
			continue
		}
		seen[p.Subreddit] = struct{}{}
		names = append(names, p.Subreddit)
	}

	if err := m.UpdateSubreddits(ctx, names, false); err != nil {
		return nil, err
	}

	stored, err := m.store.ListSubreddits(ctx)
	if err != nil {
		return nil, fmt.Errorf("list subreddits: %w", err)
	}
	subIDByName := make(map[string]string, len(stored))
	for _, s := range stored {
		subIDByName[s.Name] = s.SubredditID
	}
	return subIDByName, nil
}

// UpdateSubreddits maintains the subreddit reference table. With
// refreshAll it re-fetches subscriber counts for every stored subreddit
// and updates them in place; otherwise it inserts rows for the candidate
// names not stored yet. A missing subscriber count is stored as zero.
func (m *RedditManager) UpdateSubreddits(ctx context.Context, candidates []string, refreshAll bool) error {
	stored, err := m.store.ListSubreddits(ctx)
	if err != nil {
		return fmt.Errorf("list subreddits: %w", err)
	}

	if refreshAll {
		names := make([]string, len(stored))
		for i, s := range stored {
			names[i] = s.Name
		}
		details, err := m.details.SubredditDetails(ctx, names)
		if err != nil {
			return fmt.Errorf("subreddit details: %w", err)
		}
		updates := make([]store.Subreddit, len(details))
		for i, d := range details {
			updates[i] = store.Subreddit{Name: d.Name, SubredditID: d.SubredditID, Subscribers: d.Subscribers}
		}
		if err := m.store.UpdateSubredditSubscribers(ctx, updates); err != nil {
			return fmt.Errorf("update subreddit subscribers: %w", err)
		}
		return nil
	}

	existing := make(map[string]struct{}, len(stored))
	for _, s := range stored {
		existing[s.Name] = struct{}{}
	}
	var fresh []string
	seen := make(map[string]struct{})
	for _, name := range candidates {
		if _, ok := existing[name]; ok {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		fresh = append(fresh, name)
	}
	if len(fresh) == 0 {
		return nil
	}
	slog.Info("adding new subreddits", "count", len(fresh))

	details, err := m.details.SubredditDetails(ctx, fresh)
	if err != nil {
		return fmt.Errorf("subreddit details: %w", err)
	}
	rows := make([]store.Subreddit, len(details))
	for i, d := range details {
		rows[i] = store.Subreddit{Name: d.Name, SubredditID: d.SubredditID, Subscribers: d.Subscribers}
	}
	if err := m.store.InsertSubreddits(ctx, rows); err != nil {
		return fmt.Errorf("insert subreddits: %w", err)
	}
	return nil
}
