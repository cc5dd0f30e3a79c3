package store

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is a map-backed Store used in tests. It mirrors the SQLite
// semantics that callers depend on: inserts fail on duplicate unique keys
// and a failed batch leaves the store untouched; score updates change
// nothing but the score column.
type MemoryStore struct {
	mu          sync.Mutex
	submissions map[string]Submission
	comments    map[string]Comment
	subreddits  map[string]Subreddit // keyed by subreddit_id
	companies   map[string]Company   // keyed by ticker
	nextID      int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		submissions: make(map[string]Submission),
		comments:    make(map[string]Comment),
		subreddits:  make(map[string]Subreddit),
		companies:   make(map[string]Company),
	}
}

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) SubmissionIDs(ctx context.Context) (map[string]struct{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set := make(map[string]struct{}, len(m.submissions))
	for id := range m.submissions {
		set[id] = struct{}{}
	}
	return set, nil
}

func (m *MemoryStore) SubmissionIDsInRange(ctx context.Context, ticker string, after, before int64) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id, sub := range m.submissions {
		if sub.Ticker == ticker && sub.CreatedUTC >= after && sub.CreatedUTC <= before {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (m *MemoryStore) InsertSubmissions(ctx context.Context, subs []Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range subs {
		if _, exists := m.submissions[subs[i].SubmissionID]; exists {
			return fmt.Errorf("insert submission %s: unique constraint violated", subs[i].SubmissionID)
		}
	}
	for i := range subs {
		row := subs[i]
		m.nextID++
		row.ID = m.nextID
		m.submissions[row.SubmissionID] = row
	}
	return nil
}

func (m *MemoryStore) UpdateSubmissionScores(ctx context.Context, updates []ScoreUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range updates {
		if row, ok := m.submissions[u.ID]; ok {
			row.Score = u.Score
			m.submissions[u.ID] = row
		}
	}
	return nil
}

func (m *MemoryStore) CommentIDs(ctx context.Context) (map[string]struct{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set := make(map[string]struct{}, len(m.comments))
	for id := range m.comments {
		set[id] = struct{}{}
	}
	return set, nil
}

func (m *MemoryStore) InsertComments(ctx context.Context, comments []Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range comments {
		if _, exists := m.comments[comments[i].CommentID]; exists {
			return fmt.Errorf("insert comment %s: unique constraint violated", comments[i].CommentID)
		}
	}
	for i := range comments {
		row := comments[i]
		m.nextID++
		row.ID = m.nextID
		m.comments[row.CommentID] = row
	}
	return nil
}

func (m *MemoryStore) UpdateCommentScores(ctx context.Context, updates []ScoreUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range updates {
		if row, ok := m.comments[u.ID]; ok {
			row.Score = u.Score
			m.comments[u.ID] = row
		}
	}
	return nil
}

func (m *MemoryStore) ListSubreddits(ctx context.Context) ([]Subreddit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	subs := make([]Subreddit, 0, len(m.subreddits))
	for _, s := range m.subreddits {
		subs = append(subs, s)
	}
	return subs, nil
}

func (m *MemoryStore) InsertSubreddits(ctx context.Context, subs []Subreddit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range subs {
		if _, exists := m.subreddits[subs[i].SubredditID]; exists {
			return fmt.Errorf("insert subreddit %s: unique constraint violated", subs[i].SubredditID)
		}
	}
	for i := range subs {
		row := subs[i]
		m.nextID++
		row.ID = m.nextID
		m.subreddits[row.SubredditID] = row
	}
	return nil
}

func (m *MemoryStore) UpdateSubredditSubscribers(ctx context.Context, subs []Subreddit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range subs {
		for id, row := range m.subreddits {
			if row.Name == subs[i].Name {
				row.Subscribers = subs[i].Subscribers
				m.subreddits[id] = row
			}
		}
	}
	return nil
}

func (m *MemoryStore) ReplaceCompanies(ctx context.Context, companies []Company) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.companies = make(map[string]Company, len(companies))
	for i := range companies {
		row := companies[i]
		m.nextID++
		row.ID = m.nextID
		m.companies[row.Ticker] = row
	}
	return nil
}

func (m *MemoryStore) Counts(ctx context.Context) (Counts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Counts{
		Companies:   len(m.companies),
		Subreddits:  len(m.subreddits),
		Submissions: len(m.submissions),
		Comments:    len(m.comments),
	}, nil
}

// Submission returns a stored submission by its external ID. Test helper.
func (m *MemoryStore) Submission(id string) (Submission, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.submissions[id]
	return row, ok
}

// Comment returns a stored comment by its external ID. Test helper.
func (m *MemoryStore) Comment(id string) (Comment, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.comments[id]
	return row, ok
}

var _ Store = (*MemoryStore)(nil)
