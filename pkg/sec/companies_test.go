package sec

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

const registryFixture = `{
	"0": {"cik_str": 320193, "ticker": "AAPL", "title": "Apple Inc."},
	"1": {"cik_str": 1326380, "ticker": "GME", "title": "GameStop Corp."},
	"2": {"cik_str": 320193, "ticker": "AAPL", "title": "Apple Inc."}
}`

func TestCompanies(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		fmt.Fprint(w, registryFixture)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "stockpulse-test/1.0")
	companies, err := client.Companies(context.Background())
	if err != nil {
		t.Fatalf("Companies: %v", err)
	}

	if gotUA != "stockpulse-test/1.0" {
		t.Errorf("user agent = %q", gotUA)
	}
	if len(companies) != 2 {
		t.Fatalf("expected duplicate ticker dropped, got %d rows", len(companies))
	}

	byTicker := make(map[string]string)
	for _, c := range companies {
		byTicker[c.Ticker] = c.Title
	}
	if byTicker["AAPL"] != "Apple Inc" {
		t.Errorf("AAPL title = %q, want punctuation stripped and title-cased", byTicker["AAPL"])
	}
	if byTicker["GME"] != "Gamestop Corp" {
		t.Errorf("GME title = %q", byTicker["GME"])
	}
}

func TestCompaniesBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "ua")
	if _, err := client.Companies(context.Background()); err == nil {
		t.Fatal("expected error on non-200 status")
	}
}

func TestCleanTitle(t *testing.T) {
	tests := []struct{ in, want string }{
		{"GAMESTOP CORP.", "Gamestop Corp"},
		{"Johnson & Johnson", "Johnson Johnson"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := cleanTitle(tt.in); got != tt.want {
			t.Errorf("cleanTitle(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
