package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/quentinj/stockpulse/internal/store"
	"github.com/quentinj/stockpulse/pkg/platform"
)

// Server exposes the sync workflows to the dashboard collaborator. Both
// trigger endpoints run synchronously and report only success or failure.
type Server struct {
	store   store.Store
	manager platform.Manager
	port    int
}

// New creates a new HTTP server.
func New(s store.Store, m platform.Manager, port int) *Server {
	if port == 0 {
		port = 8080
	}
	return &Server{store: s, manager: m, port: port}
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/v1/stats", s.handleStats)
	mux.HandleFunc("/api/v1/fetch", s.handleFetch)
	mux.HandleFunc("/api/v1/refresh", s.handleRefresh)

	addr := fmt.Sprintf(":%d", s.port)
	fmt.Printf("stockpulse server listening on %s\n", addr)
	return http.ListenAndServe(addr, mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	counts, err := s.store.Counts(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]int{
		"companies":   counts.Companies,
		"subreddits":  counts.Subreddits,
		"submissions": counts.Submissions,
		"comments":    counts.Comments,
	})
}

type fetchRequest struct {
	Ticker     string   `json:"ticker"`
	Limit      int      `json:"limit"`
	After      int64    `json:"after"`
	Before     int64    `json:"before"`
	Subreddits []string `json:"subreddits"`
}

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req fetchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Ticker == "" || req.Before <= req.After {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "ticker and a valid [after, before] window are required"})
		return
	}
	if req.Limit <= 0 {
		req.Limit = 100
	}

	err := s.manager.FetchData(r.Context(), platform.FetchRequest{
		Ticker:     req.Ticker,
		Limit:      req.Limit,
		After:      req.After,
		Before:     req.Before,
		Subreddits: req.Subreddits,
	})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type refreshRequest struct {
	Tickers []string `json:"tickers"`
	After   int64    `json:"after"`
	Before  int64    `json:"before"`
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if len(req.Tickers) == 0 || req.Before <= req.After {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "tickers and a valid [after, before] window are required"})
		return
	}

	err := s.manager.UpdateSubmissions(r.Context(), req.Tickers,
		platform.DateRange{After: req.After, Before: req.Before})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
