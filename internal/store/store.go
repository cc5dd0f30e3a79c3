package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Company is a row of the SEC ticker registry.
type Company struct {
	ID     int64  `db:"id"`
	CIK    int64  `db:"cik"`
	Ticker string `db:"ticker"`
	Title  string `db:"title"`
}

// Subreddit is reference data created on first encounter.
type Subreddit struct {
	ID          int64  `db:"id"`
	Name        string `db:"name"`
	SubredditID string `db:"subreddit_id"`
	Subscribers int    `db:"subscribers"`
}

// Submission is one discussion thread for a ticker. created_utc and title
// are write-once; only score is refreshed afterwards.
type Submission struct {
	ID           int64  `db:"id"`
	Ticker       string `db:"ticker"`
	SubredditID  string `db:"subreddit_id"`
	SubmissionID string `db:"submission_id"`
	CreatedUTC   int64  `db:"created_utc"`
	Title        string `db:"title"`
	Score        int    `db:"score"`
}

// Comment is a top-level reply under a Submission.
type Comment struct {
	ID           int64  `db:"id"`
	SubmissionID string `db:"submission_id"`
	CommentID    string `db:"comment_id"`
	CreatedUTC   int64  `db:"created_utc"`
	Body         string `db:"body"`
	Score        int    `db:"score"`
}

// ScoreUpdate carries a refreshed score for an existing row, matched by
// the row's unique external ID. No other column is touched.
type ScoreUpdate struct {
	ID    string
	Score int
}

// Counts holds per-table row counts.
type Counts struct {
	Companies   int
	Subreddits  int
	Submissions int
	Comments    int
}

// Store is the persistence interface. Inserts are plain inserts: callers
// dedup first, and the unique-key constraint is the backstop against
// concurrent writers racing on the same ID.
type Store interface {
	SubmissionIDs(ctx context.Context) (map[string]struct{}, error)
	SubmissionIDsInRange(ctx context.Context, ticker string, after, before int64) ([]string, error)
	InsertSubmissions(ctx context.Context, subs []Submission) error
	UpdateSubmissionScores(ctx context.Context, updates []ScoreUpdate) error

	CommentIDs(ctx context.Context) (map[string]struct{}, error)
	InsertComments(ctx context.Context, comments []Comment) error
	UpdateCommentScores(ctx context.Context, updates []ScoreUpdate) error

	ListSubreddits(ctx context.Context) ([]Subreddit, error)
	InsertSubreddits(ctx context.Context, subs []Subreddit) error
	UpdateSubredditSubscribers(ctx context.Context, subs []Subreddit) error

	ReplaceCompanies(ctx context.Context, companies []Company) error

	Counts(ctx context.Context) (Counts, error)
	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// New opens a SQLite database and runs migrations.
func New(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// withTx runs fn inside a transaction: commit on nil, rollback on error.
// A failed batch therefore persists nothing.
func (s *SQLiteStore) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *SQLiteStore) SubmissionIDs(ctx context.Context) (map[string]struct{}, error) {
	return s.idSet(ctx, "SELECT submission_id FROM submissions")
}

func (s *SQLiteStore) CommentIDs(ctx context.Context) (map[string]struct{}, error) {
	return s.idSet(ctx, "SELECT comment_id FROM comments")
}

func (s *SQLiteStore) idSet(ctx context.Context, query string) (map[string]struct{}, error) {
	var ids []string
	if err := s.db.SelectContext(ctx, &ids, query); err != nil {
		return nil, fmt.Errorf("select ids: %w", err)
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

func (s *SQLiteStore) SubmissionIDsInRange(ctx context.Context, ticker string, after, before int64) ([]string, error) {
	var ids []string
	err := s.db.SelectContext(ctx, &ids, `
		SELECT submission_id FROM submissions
		WHERE ticker = ? AND created_utc BETWEEN ? AND ?
		ORDER BY created_utc
	`, ticker, after, before)
	if err != nil {
		return nil, fmt.Errorf("select submissions for %s: %w", ticker, err)
	}
	return ids, nil
}

func (s *SQLiteStore) InsertSubmissions(ctx context.Context, subs []Submission) error {
	if len(subs) == 0 {
		return nil
	}
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		for i := range subs {
			_, err := tx.NamedExecContext(ctx, `
				INSERT INTO submissions (ticker, subreddit_id, submission_id, created_utc, title, score)
				VALUES (:ticker, :subreddit_id, :submission_id, :created_utc, :title, :score)
			`, &subs[i])
			if err != nil {
				return fmt.Errorf("insert submission %s: %w", subs[i].SubmissionID, err)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) UpdateSubmissionScores(ctx context.Context, updates []ScoreUpdate) error {
	return s.updateScores(ctx, "UPDATE submissions SET score = ? WHERE submission_id = ?", updates)
}

func (s *SQLiteStore) InsertComments(ctx context.Context, comments []Comment) error {
	if len(comments) == 0 {
		return nil
	}
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		for i := range comments {
			_, err := tx.NamedExecContext(ctx, `
				INSERT INTO comments (submission_id, comment_id, created_utc, body, score)
				VALUES (:submission_id, :comment_id, :created_utc, :body, :score)
			`, &comments[i])
			if err != nil {
				return fmt.Errorf("insert comment %s: %w", comments[i].CommentID, err)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) UpdateCommentScores(ctx context.Context, updates []ScoreUpdate) error {
	return s.updateScores(ctx, "UPDATE comments SET score = ? WHERE comment_id = ?", updates)
}

func (s *SQLiteStore) updateScores(ctx context.Context, query string, updates []ScoreUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		for _, u := range updates {
			if _, err := tx.ExecContext(ctx, query, u.Score, u.ID); err != nil {
				return fmt.Errorf("update score %s: %w", u.ID, err)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) ListSubreddits(ctx context.Context) ([]Subreddit, error) {
	var subs []Subreddit
	if err := s.db.SelectContext(ctx, &subs, "SELECT * FROM subreddits ORDER BY name"); err != nil {
		return nil, fmt.Errorf("list subreddits: %w", err)
	}
	return subs, nil
}

func (s *SQLiteStore) InsertSubreddits(ctx context.Context, subs []Subreddit) error {
	if len(subs) == 0 {
		return nil
	}
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		for i := range subs {
			_, err := tx.NamedExecContext(ctx, `
				INSERT INTO subreddits (name, subreddit_id, subscribers)
				VALUES (:name, :subreddit_id, :subscribers)
			`, &subs[i])
			if err != nil {
				return fmt.Errorf("insert subreddit %s: %w", subs[i].Name, err)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) UpdateSubredditSubscribers(ctx context.Context, subs []Subreddit) error {
	if len(subs) == 0 {
		return nil
	}
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		for i := range subs {
			_, err := tx.ExecContext(ctx,
				"UPDATE subreddits SET subscribers = ? WHERE name = ?",
				subs[i].Subscribers, subs[i].Name)
			if err != nil {
				return fmt.Errorf("update subreddit %s: %w", subs[i].Name, err)
			}
		}
		return nil
	})
}

// ReplaceCompanies reloads the registry wholesale. The registry is
// low-churn and externally authoritative, so replace beats reconcile.
func (s *SQLiteStore) ReplaceCompanies(ctx context.Context, companies []Company) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM companies"); err != nil {
			return fmt.Errorf("clear companies: %w", err)
		}
		for i := range companies {
			_, err := tx.NamedExecContext(ctx, `
				INSERT INTO companies (cik, ticker, title)
				VALUES (:cik, :ticker, :title)
			`, &companies[i])
			if err != nil {
				return fmt.Errorf("insert company %s: %w", companies[i].Ticker, err)
			}
		}
		return nil
	})
}

func (s *SQLiteStore) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	tables := []struct {
		name string
		dst  *int
	}{
		{"companies", &c.Companies},
		{"subreddits", &c.Subreddits},
		{"submissions", &c.Submissions},
		{"comments", &c.Comments},
	}
	for _, t := range tables {
		if err := s.db.GetContext(ctx, t.dst, "SELECT COUNT(*) FROM "+t.name); err != nil {
			return Counts{}, fmt.Errorf("count %s: %w", t.name, err)
		}
	}
	return c, nil
}
