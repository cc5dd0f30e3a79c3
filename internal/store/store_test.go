package store

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seedData(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	if err := s.InsertSubreddits(ctx, []Subreddit{
		{Name: "wallstreetbets", SubredditID: "t5_wsb", Subscribers: 100},
	}); err != nil {
		t.Fatal(err)
	}
	if err := s.InsertSubmissions(ctx, []Submission{
		{Ticker: "GME", SubredditID: "t5_wsb", SubmissionID: "s1", CreatedUTC: 100, Title: "one", Score: 1},
		{Ticker: "GME", SubredditID: "t5_wsb", SubmissionID: "s2", CreatedUTC: 200, Title: "two", Score: 2},
		{Ticker: "AMC", SubredditID: "t5_wsb", SubmissionID: "s3", CreatedUTC: 150, Title: "three", Score: 3},
	}); err != nil {
		t.Fatal(err)
	}
}

func TestInsertAndReadSubmissionIDs(t *testing.T) {
	s := newTestStore(t)
	seedData(t, s)

	ids, err := s.SubmissionIDs(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 3 {
		t.Fatalf("expected 3 ids, got %d", len(ids))
	}
	for _, want := range []string{"s1", "s2", "s3"} {
		if _, ok := ids[want]; !ok {
			t.Errorf("missing id %s", want)
		}
	}
}

func TestSubmissionIDsInRange(t *testing.T) {
	s := newTestStore(t)
	seedData(t, s)

	ids, err := s.SubmissionIDsInRange(context.Background(), "GME", 50, 150)
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || ids[0] != "s1" {
		t.Fatalf("range read = %v, want [s1]", ids)
	}

	none, err := s.SubmissionIDsInRange(context.Background(), "TSLA", 0, 1000)
	if err != nil {
		t.Fatal(err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no rows for untracked ticker, got %v", none)
	}
}

func TestDuplicateInsertRollsBackWholeBatch(t *testing.T) {
	s := newTestStore(t)
	seedData(t, s)

	err := s.InsertSubmissions(context.Background(), []Submission{
		{Ticker: "GME", SubredditID: "t5_wsb", SubmissionID: "s4", CreatedUTC: 300},
		{Ticker: "GME", SubredditID: "t5_wsb", SubmissionID: "s1", CreatedUTC: 100}, // duplicate
	})
	if err == nil {
		t.Fatal("expected unique-constraint error")
	}

	ids, _ := s.SubmissionIDs(context.Background())
	if _, ok := ids["s4"]; ok {
		t.Error("s4 persisted despite the batch failing; batch must be atomic")
	}
}

func TestUpdateSubmissionScoresTouchesOnlyScore(t *testing.T) {
	s := newTestStore(t)
	seedData(t, s)
	ctx := context.Background()

	if err := s.UpdateSubmissionScores(ctx, []ScoreUpdate{{ID: "s1", Score: 77}}); err != nil {
		t.Fatal(err)
	}

	var got Submission
	if err := s.db.GetContext(ctx, &got, "SELECT * FROM submissions WHERE submission_id = ?", "s1"); err != nil {
		t.Fatal(err)
	}
	if got.Score != 77 {
		t.Errorf("score = %d, want 77", got.Score)
	}
	if got.Title != "one" || got.CreatedUTC != 100 {
		t.Errorf("immutable columns changed: %+v", got)
	}
}

func TestCommentsRoundTrip(t *testing.T) {
	s := newTestStore(t)
	seedData(t, s)
	ctx := context.Background()

	if err := s.InsertComments(ctx, []Comment{
		{SubmissionID: "s1", CommentID: "c1", CreatedUTC: 110, Body: "hello", Score: 1},
	}); err != nil {
		t.Fatal(err)
	}

	ids, err := s.CommentIDs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := ids["c1"]; !ok {
		t.Fatal("c1 missing after insert")
	}

	if err := s.UpdateCommentScores(ctx, []ScoreUpdate{{ID: "c1", Score: 50}}); err != nil {
		t.Fatal(err)
	}
	var got Comment
	if err := s.db.GetContext(ctx, &got, "SELECT * FROM comments WHERE comment_id = ?", "c1"); err != nil {
		t.Fatal(err)
	}
	if got.Score != 50 || got.Body != "hello" {
		t.Errorf("comment after score update: %+v", got)
	}
}

func TestSubredditMaintenance(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.InsertSubreddits(ctx, []Subreddit{
		{Name: "stocks", SubredditID: "t5_stocks", Subscribers: 5},
	}); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateSubredditSubscribers(ctx, []Subreddit{
		{Name: "stocks", Subscribers: 999},
	}); err != nil {
		t.Fatal(err)
	}

	subs, err := s.ListSubreddits(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(subs) != 1 || subs[0].Subscribers != 999 || subs[0].SubredditID != "t5_stocks" {
		t.Fatalf("subreddit row after refresh: %+v", subs)
	}
}

func TestReplaceCompanies(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.ReplaceCompanies(ctx, []Company{
		{CIK: 1, Ticker: "OLD", Title: "Old Co"},
	}); err != nil {
		t.Fatal(err)
	}
	if err := s.ReplaceCompanies(ctx, []Company{
		{CIK: 2, Ticker: "GME", Title: "Gamestop Corp"},
		{CIK: 3, Ticker: "AMC", Title: "Amc Entertainment"},
	}); err != nil {
		t.Fatal(err)
	}

	counts, err := s.Counts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if counts.Companies != 2 {
		t.Fatalf("expected registry replaced with 2 rows, got %d", counts.Companies)
	}
}

func TestCounts(t *testing.T) {
	s := newTestStore(t)
	seedData(t, s)

	counts, err := s.Counts(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := Counts{Subreddits: 1, Submissions: 3}
	if counts != want {
		t.Fatalf("counts = %+v, want %+v", counts, want)
	}
}

// The in-memory double must show the same semantics callers rely on.

func TestMemoryStoreDuplicateInsertIsAtomic(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	if err := m.InsertSubmissions(ctx, []Submission{
		{Ticker: "GME", SubredditID: "t5_wsb", SubmissionID: "s1", CreatedUTC: 100},
	}); err != nil {
		t.Fatal(err)
	}

	err := m.InsertSubmissions(ctx, []Submission{
		{Ticker: "GME", SubredditID: "t5_wsb", SubmissionID: "s2", CreatedUTC: 200},
		{Ticker: "GME", SubredditID: "t5_wsb", SubmissionID: "s1", CreatedUTC: 100},
	})
	if err == nil {
		t.Fatal("expected duplicate-key error")
	}
	if _, ok := m.Submission("s2"); ok {
		t.Error("s2 persisted despite the batch failing; batch must be atomic")
	}
}

func TestMemoryStoreScoreUpdateTouchesOnlyScore(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()

	if err := m.InsertComments(ctx, []Comment{
		{SubmissionID: "s1", CommentID: "c1", CreatedUTC: 100, Body: "hello", Score: 1},
	}); err != nil {
		t.Fatal(err)
	}
	if err := m.UpdateCommentScores(ctx, []ScoreUpdate{{ID: "c1", Score: 9}}); err != nil {
		t.Fatal(err)
	}

	got, _ := m.Comment("c1")
	if got.Score != 9 || got.Body != "hello" || got.CreatedUTC != 100 {
		t.Fatalf("comment after update: %+v", got)
	}
}
