// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ScrapesTotal counts completed scrape passes by outcome ("ok", "error").
	ScrapesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trendscope_scrapes_total",
		Help: "Completed scrape passes by outcome.",
	}, []string{"outcome"})

	// ScrapeDuration observes wall time of full scrape passes.
	ScrapeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "trendscope_scrape_duration_seconds",
		Help:    "Duration of full scrape passes.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 8),
	})

	// RecordsExtracted counts records produced per extraction strategy.
	RecordsExtracted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trendscope_records_extracted_total",
		Help: "Video records produced, by extraction strategy.",
	}, []string{"strategy"})

	// URLsSkipped counts candidate URLs abandoned before extraction.
	URLsSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trendscope_urls_skipped_total",
		Help: "Candidate URLs abandoned, by reason (navigation, challenge).",
	}, []string{"reason"})

	// CacheHits and CacheMisses count result-cache lookups.
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trendscope_cache_hits_total",
		Help: "Result cache hits.",
	})
	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "trendscope_cache_misses_total",
		Help: "Result cache misses.",
	})

	// HTTPRequests counts API requests by route and status class.
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "trendscope_http_requests_total",
		Help: "API requests by route and status.",
	}, []string{"route", "status"})
)
