// Package scraper drives headless browser sessions against the target site
// and turns what the pages expose into ranked video records.
package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/chromedp/chromedp"
	"golang.org/x/sync/errgroup"

	"trendscope/internal/app"
	"trendscope/internal/metrics"
	"trendscope/internal/trend"
)

// Orchestrator runs full scrape passes: one browser session per pass, visiting
// the configured target URLs until enough unique videos are collected.
type Orchestrator struct {
	browser app.BrowserConfig
	scrape  app.ScrapeConfig
	region  app.RegionConfig
}

func New(cfg *app.Config) *Orchestrator {
	return &Orchestrator{
		browser: cfg.Browser,
		scrape:  cfg.Scrape,
		region:  cfg.Region,
	}
}

// Trending performs a scrape pass and returns up to limit ranked videos. An
// empty result is not an error: pages that load but expose nothing produce a
// valid empty Result.
func (o *Orchestrator) Trending(ctx context.Context, limit int) (*trend.Result, error) {
	start := time.Now()

	session, err := Open(ctx, o.browser, o.region, o.scrape.MaxIntercepts)
	if err != nil {
		metrics.ScrapesTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	defer session.Close()

	collected := o.collect(ctx, func(target string) []trend.VideoRecord {
		return o.visit(ctx, session, target)
	})

	merged := trend.Merge(collected)

	if o.scrape.EnrichDetails {
		o.enrich(ctx, session, merged)
	}

	scrapedAt := time.Now().UTC()
	videos := trend.Rank(merged, limit, scrapedAt)
	result := &trend.Result{
		Videos: videos,
		Metadata: trend.Metadata{
			ScrapedAt:  scrapedAt,
			TotalFound: len(merged),
			Returned:   len(videos),
		},
	}

	metrics.ScrapesTotal.WithLabelValues("ok").Inc()
	metrics.ScrapeDuration.Observe(time.Since(start).Seconds())
	slog.Info("scrape: pass complete",
		"videos", len(videos),
		"total_found", len(merged),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return result, nil
}

// collect visits the target URLs in order, pausing between pages, until every
// target is exhausted or the stop threshold of unique videos is reached. A
// target contributing zero records never aborts the loop.
func (o *Orchestrator) collect(ctx context.Context, visit func(target string) []trend.VideoRecord) []trend.VideoRecord {
	var collected []trend.VideoRecord
	unique := make(map[string]struct{})

	for i, target := range o.scrape.TargetURLs {
		if i > 0 {
			if err := o.pause(ctx); err != nil {
				break
			}
		}

		records := visit(target)
		for _, r := range records {
			unique[r.VideoID] = struct{}{}
		}
		collected = append(collected, records...)

		slog.Info("scrape: page done", "url", target, "records", len(records), "unique_total", len(unique))

		if len(unique) >= o.scrape.StopThreshold {
			slog.Debug("scrape: stop threshold reached", "threshold", o.scrape.StopThreshold)
			break
		}
	}
	return collected
}

// visit loads one target URL and extracts whatever it exposes. Per-URL
// failures degrade to an empty slice so remaining targets still run.
func (o *Orchestrator) visit(ctx context.Context, s *Session, target string) []trend.VideoRecord {
	if err := s.Navigate(target, o.browser.NavTimeout); err != nil {
		slog.Warn("scrape: navigation failed", "url", target, "error", err)
		metrics.URLsSkipped.WithLabelValues("navigation").Inc()
		return nil
	}
	debugSnapshot(s.ctx, "loaded")

	dismissConsent(s.ctx)

	if detectChallenge(s.ctx) {
		slog.Warn("scrape: challenge page detected, abandoning url", "url", target)
		metrics.URLsSkipped.WithLabelValues("challenge").Inc()
		debugSnapshot(s.ctx, "challenge")
		return nil
	}

	return extractPage(ctx, s, o.scrape.ScrollPasses)
}

// pause waits a randomized delay between page visits.
func (o *Orchestrator) pause(ctx context.Context) error {
	delay := o.scrape.MinDelay
	if span := o.scrape.MaxDelay - o.scrape.MinDelay; span > 0 {
		delay += rand.N(span)
	}
	if delay <= 0 {
		return nil
	}
	select {
	case <-time.After(delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// enrich fills in counters for records that came from low-fidelity strategies
// by visiting their detail pages in parallel tabs. Best effort: per-record
// failures leave the record as it was.
func (o *Orchestrator) enrich(ctx context.Context, s *Session, records []trend.VideoRecord) {
	batch := max(o.scrape.EnrichBatch, 1)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batch)

	for i := range records {
		if records[i].Source == trend.SourceState || records[i].Views > 0 {
			continue
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			o.enrichOne(s, &records[i])
			return nil
		})
	}
	_ = g.Wait()
}

func (o *Orchestrator) enrichOne(s *Session, rec *trend.VideoRecord) {
	tabCtx, tabCancel := s.newTab()
	defer tabCancel()

	if err := runNavigate(tabCtx, rec.VideoURL, o.browser.NavTimeout); err != nil {
		slog.Debug("enrich: detail page failed", "video_id", rec.VideoID, "error", err)
		return
	}

	var stateJSON string
	if err := chromedp.Run(tabCtx, chromedp.Evaluate(pageStateJS, &stateJSON)); err != nil || stateJSON == "" {
		return
	}
	var raw any
	if err := json.Unmarshal([]byte(stateJSON), &raw); err != nil {
		return
	}

	for _, detail := range trend.MapState(raw, trend.SourceState) {
		if detail.VideoID != rec.VideoID {
			continue
		}
		merged := trend.Merge([]trend.VideoRecord{detail, *rec})
		if len(merged) == 1 {
			*rec = merged[0]
			slog.Debug("enrich: detail counters merged", "video_id", rec.VideoID)
		}
		return
	}
}

// ProbeReport summarizes a diagnostic visit to the first target URL.
type ProbeReport struct {
	URL               string   `json:"url"`
	PageLoaded        bool     `json:"pageLoaded"`
	ChallengeDetected bool     `json:"challengeDetected"`
	StateFound        bool     `json:"stateFound"`
	VideoLinkCount    int      `json:"videoLinkCount"`
	Errors            []string `json:"errors,omitempty"`
}

// Probe opens a session, loads the first target URL and reports what the page
// exposes without running the full pipeline. Meant for operators diagnosing
// why scrapes come back empty.
func (o *Orchestrator) Probe(ctx context.Context) (*ProbeReport, error) {
	report := &ProbeReport{URL: o.scrape.TargetURLs[0]}

	session, err := Open(ctx, o.browser, o.region, o.scrape.MaxIntercepts)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	if err := session.Navigate(report.URL, o.browser.NavTimeout); err != nil {
		report.Errors = append(report.Errors, err.Error())
		return report, nil
	}
	report.PageLoaded = true
	debugSnapshot(session.ctx, "probe")

	dismissConsent(session.ctx)
	report.ChallengeDetected = detectChallenge(session.ctx)

	var stateJSON string
	if err := chromedp.Run(session.ctx, chromedp.Evaluate(pageStateJS, &stateJSON)); err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("state evaluation: %v", err))
	} else {
		report.StateFound = stateJSON != ""
	}

	var html string
	if err := chromedp.Run(session.ctx, chromedp.OuterHTML("html", &html)); err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("outer html: %v", err))
	} else {
		report.VideoLinkCount = len(parseVideoAnchors(html))
	}

	return report, nil
}
