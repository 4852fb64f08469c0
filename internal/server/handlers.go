package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"trendscope/internal/cache"
	"trendscope/internal/metrics"
	"trendscope/internal/scraper"
	"trendscope/internal/version"
)

const (
	minLimit = 1
	maxLimit = 100
)

// handleTrending serves the ranked trending list, from cache when a fresh
// result exists. An empty list is a successful response, not an error.
func (s *Server) handleTrending(w http.ResponseWriter, r *http.Request) {
	limit := s.parseLimit(r)

	key := cache.Key(limit, s.region)
	if cached, ok := s.cache.Get(key); ok {
		metrics.CacheHits.Inc()
		writeJSON(w, http.StatusOK, cached)
		return
	}
	metrics.CacheMisses.Inc()

	result, err := s.svc.Trending(r.Context(), limit)
	if err != nil {
		slog.Error("api: scrape failed", "error", err)
		writeError(w, http.StatusInternalServerError, "scrape_failed", err.Error())
		return
	}

	s.cache.Set(key, *result)
	writeJSON(w, http.StatusOK, result)
}

// handleDebug runs a diagnostic probe. It always answers 200: failures are
// reported inside the body so operators can see what broke.
func (s *Server) handleDebug(w http.ResponseWriter, r *http.Request) {
	report, err := s.svc.Probe(r.Context())
	if err != nil {
		report = &scraper.ProbeReport{Errors: []string{err.Error()}}
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"version":      version.Version,
		"cacheEntries": s.cache.Len(),
	})
}

// parseLimit reads the limit query parameter, falling back to the configured
// default and clamping to the allowed range.
func (s *Server) parseLimit(r *http.Request) int {
	limit := s.cfg.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			limit = n
		}
	}
	return min(max(limit, minLimit), maxLimit)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("api: encoding response failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"error":   code,
		"message": message,
	})
}
