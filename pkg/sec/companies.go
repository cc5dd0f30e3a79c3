// Package sec fetches the SEC's company ticker registry, the reference
// data behind the companies table.
package sec

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/quentinj/stockpulse/internal/store"
)

const defaultRegistryURL = "https://www.sec.gov/files/company_tickers.json"

// Client downloads the company registry.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// NewClient creates a registry client. The SEC rejects requests without a
// descriptive User-Agent, so one is required.
func NewClient(baseURL, userAgent string) *Client {
	if baseURL == "" {
		baseURL = defaultRegistryURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		userAgent:  userAgent,
	}
}

type registryEntry struct {
	CIK    int64  `json:"cik_str"`
	Ticker string `json:"ticker"`
	Title  string `json:"title"`
}

// Companies fetches and cleans the registry: duplicate tickers are
// dropped, titles are stripped of punctuation and title-cased.
func (c *Client) Companies(ctx context.Context) ([]store.Company, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch company registry: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("company registry status %d", resp.StatusCode)
	}

	// The registry is keyed by row index, not ticker.
	var entries map[string]registryEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode company registry: %w", err)
	}

	seen := make(map[string]struct{}, len(entries))
	companies := make([]store.Company, 0, len(entries))
	for _, e := range entries {
		if e.Ticker == "" {
			continue
		}
		if _, dup := seen[e.Ticker]; dup {
			continue
		}
		seen[e.Ticker] = struct{}{}
		companies = append(companies, store.Company{
			CIK:    e.CIK,
			Ticker: e.Ticker,
			Title:  cleanTitle(e.Title),
		})
	}
	return companies, nil
}

// cleanTitle strips punctuation, which breaks some database collations,
// and title-cases the remainder.
func cleanTitle(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	for _, r := range title {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			continue
		}
		b.WriteRune(r)
	}

	words := strings.Fields(strings.ToLower(b.String()))
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
