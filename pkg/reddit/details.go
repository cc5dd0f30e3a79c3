package reddit

import (
	"context"
	"log/slog"
	"time"

	goreddit "github.com/loganintech/go-reddit/v2/reddit"
	"golang.org/x/time/rate"
)

// listingChunk is the most fullnames the listing endpoint accepts per call.
const listingChunk = 100

// ScoreDetail is the authoritative score for one item at lookup time.
type ScoreDetail struct {
	ID    string
	Score int
}

// CommentDetail is one top-level comment under a submission.
type CommentDetail struct {
	SubmissionID string
	CommentID    string
	CreatedUTC   int64
	Body         string
	Score        int
}

// SubredditDetail is the reference data fetched when a subreddit is first
// seen or its subscriber count is refreshed.
type SubredditDetail struct {
	Name        string
	SubredditID string
	Subscribers int
}

// DetailClient fetches per-item fields from the authenticated Reddit API,
// one request per item. Lookups on bad or deleted IDs are skipped with a
// warning; they never abort the remaining lookups, so callers must not
// assume a row per input ID.
type DetailClient struct {
	client  *goreddit.Client
	limiter *rate.Limiter
}

// NewDetailClient builds a client from Reddit OAuth credentials.
func NewDetailClient(id, secret, user, pass, userAgent string) (*DetailClient, error) {
	creds := goreddit.Credentials{ID: id, Secret: secret, Username: user, Password: pass}

	client, err := goreddit.NewClient(creds, goreddit.WithUserAgent(userAgent))
	if err != nil {
		return nil, err
	}

	// API rate limit: ~60 reqs/min (safe buffer)
	limiter := rate.NewLimiter(rate.Every(1*time.Second), 1)

	return &DetailClient{client: client, limiter: limiter}, nil
}

// SubmissionScores returns the current score for each resolvable ID.
func (dc *DetailClient) SubmissionScores(ctx context.Context, ids []string) ([]ScoreDetail, error) {
	var details []ScoreDetail
	for _, id := range ids {
		if err := dc.limiter.Wait(ctx); err != nil {
			return details, err
		}

		pac, _, err := dc.client.Post.Get(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return details, ctx.Err()
			}
			slog.Warn("submission lookup skipped", "id", id, "error", err)
			continue
		}
		details = append(details, ScoreDetail{ID: pac.Post.ID, Score: pac.Post.Score})
	}
	return details, nil
}

// TopLevelComments fetches the top-level comments of each submission.
// "More comments" stubs are already separated out by the client library.
func (dc *DetailClient) TopLevelComments(ctx context.Context, submissionIDs []string) ([]CommentDetail, error) {
	var comments []CommentDetail
	for _, id := range submissionIDs {
		if err := dc.limiter.Wait(ctx); err != nil {
			return comments, err
		}

		pac, _, err := dc.client.Post.Get(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return comments, ctx.Err()
			}
			slog.Warn("comment fetch skipped", "submission", id, "error", err)
			continue
		}

		for _, cm := range pac.Comments {
			comments = append(comments, CommentDetail{
				SubmissionID: id,
				CommentID:    cm.ID,
				CreatedUTC:   cm.Created.Time.Unix(),
				Body:         cm.Body,
				Score:        cm.Score,
			})
		}
	}
	return comments, nil
}

// CommentScores returns the current score for each resolvable comment ID.
// The listing endpoint simply omits unknown fullnames, so misses need no
// special handling here.
func (dc *DetailClient) CommentScores(ctx context.Context, ids []string) ([]ScoreDetail, error) {
	var details []ScoreDetail
	for start := 0; start < len(ids); start += listingChunk {
		end := start + listingChunk
		if end > len(ids) {
			end = len(ids)
		}

		if err := dc.limiter.Wait(ctx); err != nil {
			return details, err
		}

		fullnames := make([]string, 0, end-start)
		for _, id := range ids[start:end] {
			fullnames = append(fullnames, "t1_"+id)
		}

		_, comments, _, _, err := dc.client.Listings.Get(ctx, fullnames...)
		if err != nil {
			if ctx.Err() != nil {
				return details, ctx.Err()
			}
			slog.Warn("comment listing skipped", "count", len(fullnames), "error", err)
			continue
		}

		for _, cm := range comments {
			details = append(details, ScoreDetail{ID: cm.ID, Score: cm.Score})
		}
	}
	return details, nil
}

// SubredditDetails resolves reference data for each subreddit name. The
// stored subreddit_id is the API's fullname for the subreddit.
func (dc *DetailClient) SubredditDetails(ctx context.Context, names []string) ([]SubredditDetail, error) {
	var details []SubredditDetail
	for _, name := range names {
		if err := dc.limiter.Wait(ctx); err != nil {
			return details, err
		}

		sub, _, err := dc.client.Subreddit.Get(ctx, name)
		if err != nil {
			if ctx.Err() != nil {
				return details, ctx.Err()
			}
			slog.Warn("subreddit lookup skipped", "name", name, "error", err)
			continue
		}
		details = append(details, SubredditDetail{
			Name:        name,
			SubredditID: sub.FullID,
			Subscribers: sub.Subscribers,
		})
	}
	return details, nil
}
