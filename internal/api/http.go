package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kalambet/askorg/internal/format"
	"github.com/kalambet/askorg/internal/intent"
	"github.com/kalambet/askorg/internal/mediator"
	"github.com/kalambet/askorg/internal/storage"
)

const maxRequestBodySize = 1 << 20 // 1MB

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
)

// Answerer answers free-text and pre-classified questions.
type Answerer interface {
	Ask(ctx context.Context, question string) (format.Response, error)
	Run(ctx context.Context, in intent.Intent) (format.Response, error)
}

// Reporter exposes store statistics and question history.
type Reporter interface {
	Stats(ctx context.Context) (mediator.Stats, error)
	RecentQueries(ctx context.Context, limit int) ([]storage.QueryRecord, error)
}

// QueryRequest is the body of POST /query.
type QueryRequest struct {
	Question string `json:"question"`
}

// NewHandler returns the HTTP API. When apiToken is non-empty the history
// endpoint requires it as a bearer token.
func NewHandler(a Answerer, rep Reporter, apiToken string) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)
	r.Post("/query", handleQuery(a))
	r.Get("/stats", handleStats(rep))
	r.With(BearerAuth(apiToken)).Get("/history", handleHistory(rep))

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func handleQuery(a Answerer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req QueryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if strings.TrimSpace(req.Question) == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "question is required and must not be empty")
			return
		}

		resp, err := a.Ask(r.Context(), req.Question)
		if err != nil {
			slog.Error("query failed", "error", err)
			httpError(w, http.StatusInternalServerError, "query_error", "query failed: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func handleStats(rep Reporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := rep.Stats(r.Context())
		if err != nil {
			httpError(w, http.StatusInternalServerError, "query_error", "reading stats: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}

func handleHistory(rep Reporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := parseLimit(r.URL.Query().Get("limit"))
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}
		records, err := rep.RecentQueries(r.Context(), limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "query_error", "reading history: %v", err)
			return
		}
		if records == nil {
			records = []storage.QueryRecord{}
		}
		writeJSON(w, http.StatusOK, records)
	}
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return defaultHistoryLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("limit must be a positive integer, got %q", raw)
	}
	return min(n, maxHistoryLimit), nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("writing response", "error", err)
	}
}

func httpError(w http.ResponseWriter, code int, errType string, msgFormat string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(msgFormat, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
