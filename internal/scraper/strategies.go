package scraper

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"

	"trendscope/internal/metrics"
	"trendscope/internal/trend"
)

// pageStateJS serializes the page's structured state: a known global, a known
// state <script> tag, or an inline script payload carrying an item-collection
// key. Returns "" when nothing recognizable is present.
const pageStateJS = `
(function() {
  const pick = function(v) { try { return JSON.stringify(v); } catch(e) { return ''; } };
  if (window.SIGI_STATE) return pick(window.SIGI_STATE);
  if (window.__UNIVERSAL_DATA_FOR_REHYDRATION__) return pick(window.__UNIVERSAL_DATA_FOR_REHYDRATION__);
  const ids = ['SIGI_STATE', '__UNIVERSAL_DATA_FOR_REHYDRATION__', '__NEXT_DATA__'];
  for (const id of ids) {
    const el = document.getElementById(id);
    if (el && el.textContent) return el.textContent;
  }
  for (const s of document.querySelectorAll('script')) {
    const t = s.textContent || '';
    if (t.length > 2 && t[0] === '{' &&
        (t.includes('"ItemModule"') || t.includes('"itemList"') || t.includes('"aweme_list"'))) {
      return t;
    }
  }
  return '';
})()`

// strategy is one self-contained method of obtaining records from a loaded
// page. Strategies never fail the orchestration: on error they return nil.
type strategy struct {
	source trend.Source
	run    func(ctx context.Context, s *Session) []trend.VideoRecord
}

// strategyChain lists the strategies in fixed priority order, highest
// fidelity first.
var strategyChain = []strategy{
	{trend.SourceState, stateRecords},
	{trend.SourceIntercept, interceptRecords},
	{trend.SourceDOM, domRecords},
}

// extractPage runs the chain on the session's main page.
func extractPage(ctx context.Context, s *Session, scrollPasses int) []trend.VideoRecord {
	return runChain(ctx, s, strategyChain, scrollPasses, func() {
		scrollFeed(ctx, s, scrollPasses)
	})
}

// runChain tries each strategy in priority order: the first to yield records
// wins. That strategy is re-run once after incremental scrolling to pick up
// lazily loaded content, and the two result sets are merged — the intercept
// drain is destructive, so the re-run alone cannot reproduce the initial
// capture.
func runChain(ctx context.Context, s *Session, chain []strategy, scrollPasses int, scroll func()) []trend.VideoRecord {
	for _, st := range chain {
		records := st.run(ctx, s)
		if len(records) == 0 {
			continue
		}
		slog.Debug("extract: strategy yielded records", "strategy", st.source, "count", len(records))

		if scrollPasses > 0 {
			scroll()
			if again := st.run(ctx, s); len(again) > 0 {
				grown := trend.Merge(append(records, again...))
				if len(grown) > len(records) {
					slog.Debug("extract: scroll re-run grew result set",
						"strategy", st.source, "before", len(records), "after", len(grown))
				}
				records = grown
			}
		}

		metrics.RecordsExtracted.WithLabelValues(string(st.source)).Add(float64(len(records)))
		return records
	}
	return nil
}

// stateRecords parses the page's embedded structured state. Highest fidelity:
// full counters, captions and sound metadata.
func stateRecords(ctx context.Context, s *Session) []trend.VideoRecord {
	var stateJSON string
	if err := chromedp.Run(s.ctx, chromedp.Evaluate(pageStateJS, &stateJSON)); err != nil {
		slog.Debug("extract: state evaluation failed", "error", err)
		return nil
	}
	if stateJSON == "" {
		return nil
	}

	var raw any
	if err := json.Unmarshal([]byte(stateJSON), &raw); err != nil {
		slog.Debug("extract: state is not valid JSON", "error", err)
		return nil
	}
	return trend.MapState(raw, trend.SourceState)
}

// interceptRecords maps the feed API response bodies captured while the page
// loaded.
func interceptRecords(ctx context.Context, s *Session) []trend.VideoRecord {
	var records []trend.VideoRecord
	for _, body := range s.collector.drain(s.ctx) {
		records = append(records, trend.MapPayload(body, trend.SourceIntercept)...)
	}
	return records
}

// domRecords scrapes the rendered page for video anchors. Last resort.
func domRecords(ctx context.Context, s *Session) []trend.VideoRecord {
	var html string
	if err := chromedp.Run(s.ctx, chromedp.OuterHTML("html", &html)); err != nil {
		slog.Debug("extract: outer HTML failed", "error", err)
		return nil
	}
	return parseVideoAnchors(html)
}

// scrollFeed triggers incremental content loading with viewport-height
// scrolls, pausing between passes so the feed can fetch.
func scrollFeed(ctx context.Context, s *Session, passes int) {
	for i := range passes {
		err := chromedp.Run(s.ctx,
			chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
			chromedp.Sleep(1200*time.Millisecond),
		)
		if err != nil {
			slog.Debug("extract: scroll pass failed", "pass", i+1, "error", err)
			return
		}
	}
}
