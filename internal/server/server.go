// Package server exposes the trending pipeline over a small HTTP API.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"trendscope/internal/app"
	"trendscope/internal/cache"
	"trendscope/internal/scraper"
	"trendscope/internal/trend"
)

// TrendingService is the scrape pipeline as the API consumes it.
type TrendingService interface {
	Trending(ctx context.Context, limit int) (*trend.Result, error)
	Probe(ctx context.Context) (*scraper.ProbeReport, error)
}

// Server serves the trending API with caching, auth and rate limiting.
type Server struct {
	cfg    app.ServerConfig
	region string
	svc    TrendingService
	cache  *cache.Cache
	http   *http.Server
}

func New(cfg *app.Config, svc TrendingService) *Server {
	s := &Server{
		cfg:    cfg.Server,
		region: cfg.Region.Name,
		svc:    svc,
		cache:  cache.New(cfg.Cache.TTL),
	}

	r := mux.NewRouter()
	r.Use(s.logRequests)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api := r.PathPrefix("/").Subrouter()
	api.Use(s.requireAPIKey, s.limitRate)
	api.HandleFunc("/trending", s.handleTrending).Methods(http.MethodGet)
	api.HandleFunc("/debug", s.handleDebug).Methods(http.MethodGet)

	s.http = &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler exposes the full middleware-wrapped route tree.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server: listening", "addr", s.http.Addr)
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("server: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
