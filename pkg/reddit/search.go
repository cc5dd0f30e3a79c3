package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const defaultSearchURL = "https://api.pushshift.io/reddit/search/submission/"

// emptyPageBackoff is how far (in seconds) the cursor is wound back when a
// page comes back empty, so sparse time ranges are skipped without a stuck
// cursor. 300 minutes.
const emptyPageBackoff = int64(300 * 60)

// Query describes one submission search: a ticker mentioned in titles,
// an optional subreddit filter and a [After, Before] window in epoch
// seconds, walked newest to oldest.
type Query struct {
	Ticker     string
	Subreddits []string
	After      int64
	Before     int64
	Limit      int
	Fields     []string
}

// SearchPost is one row of a search page.
type SearchPost struct {
	ID         string `json:"id"`
	CreatedUTC int64  `json:"created_utc"`
	Subreddit  string `json:"subreddit"`
	Title      string `json:"title"`
	Score      int    `json:"score"`
}

type searchResponse struct {
	Data []SearchPost `json:"data"`
}

// SearchClient walks the cursor-paginated submission search endpoint.
type SearchClient struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
}

// NewSearchClient creates a search client for the given endpoint.
// An empty baseURL falls back to the public endpoint.
func NewSearchClient(baseURL string) *SearchClient {
	if baseURL == "" {
		baseURL = defaultSearchURL
	}
	return &SearchClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(1*time.Second), 1),
		baseURL:    baseURL,
	}
}

// Search retrieves submissions for q, paging backwards in time from
// q.Before until the window is exhausted or q.Limit rows are collected.
// Pages are ordered newest to oldest, so advancing the cursor to the last
// row's created_utc always makes progress. An empty page winds the cursor
// back by a fixed window instead. Any other page failure ends the walk
// early: the rows gathered so far are returned with partial = true.
// The returned error is non-nil only when ctx is cancelled.
func (c *SearchClient) Search(ctx context.Context, q Query) ([]SearchPost, bool, error) {
	fields := ensureCreatedUTC(q.Fields)
	before := q.Before

	var posts []SearchPost
	for before > q.After && len(posts) < q.Limit {
		if err := c.limiter.Wait(ctx); err != nil {
			return posts, true, err
		}

		page, err := c.fetchPage(ctx, q, fields, before)
		if err != nil {
			if ctx.Err() != nil {
				return posts, true, ctx.Err()
			}
			slog.Warn("search page failed, returning partial results",
				"ticker", q.Ticker, "before", before, "error", err)
			return posts, true, nil
		}

		if len(page) == 0 {
			before -= emptyPageBackoff
			continue
		}

		posts = append(posts, page...)
		before = page[len(page)-1].CreatedUTC
	}

	if len(posts) > q.Limit {
		posts = posts[:q.Limit]
	}
	slog.Info("search complete", "ticker", q.Ticker, "submissions", len(posts))
	return posts, false, nil
}

func (c *SearchClient) fetchPage(ctx context.Context, q Query, fields []string, before int64) ([]SearchPost, error) {
	params := url.Values{}
	params.Set("title", q.Ticker)
	params.Set("sort_type", "created_utc")
	params.Set("sort", "desc")
	params.Set("limit", strconv.Itoa(q.Limit))
	params.Set("fields", strings.Join(fields, ","))
	params.Set("before", strconv.FormatInt(before, 10))
	params.Set("after", strconv.FormatInt(q.After, 10))
	if len(q.Subreddits) > 0 {
		params.Set("subreddit", strings.Join(q.Subreddits, ","))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search status %d", resp.StatusCode)
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decode search page: %w", err)
	}
	return sr.Data, nil
}

// ensureCreatedUTC guarantees the field list carries the cursor column.
func ensureCreatedUTC(fields []string) []string {
	if len(fields) == 0 {
		return []string{"id", "created_utc", "subreddit", "title", "score"}
	}
	for _, f := range fields {
		if f == "created_utc" {
			return fields
		}
	}
	return append(append([]string{}, fields...), "created_utc")
}
