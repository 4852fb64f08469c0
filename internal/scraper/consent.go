package scraper

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// consentLabels are button texts of known cookie/consent prompts.
var consentLabels = []string{
	"accept all",
	"allow all",
	"accept cookies",
	"i agree",
	"agree",
}

// challengeKeywords in the page title or URL indicate a bot-verification
// interstitial. Extraction on such a page yields garbage or triggers further
// blocking, so the URL is abandoned instead.
var challengeKeywords = []string{
	"verify",
	"captcha",
	"security check",
	"robot",
	"challenge",
	"access denied",
}

// consentClickJS clicks the first button matching a known consent label, in
// the main document and in same-origin iframes. Returns true if clicked.
const consentClickJS = `
(function() {
  const labels = [%s];
  const click = function(root) {
    const buttons = root.querySelectorAll('button, [role="button"]');
    for (const b of buttons) {
      const text = (b.textContent || '').trim().toLowerCase();
      if (labels.some(function(l) { return text === l || text.startsWith(l); })) {
        b.click();
        return true;
      }
    }
    return false;
  };
  if (click(document)) return true;
  for (const f of document.querySelectorAll('iframe')) {
    try {
      if (f.contentDocument && click(f.contentDocument)) return true;
    } catch(e) {}
  }
  return false;
})()`

// dismissConsent attempts to close a cookie/consent prompt. Best-effort and
// non-fatal: a missing prompt is the common case.
func dismissConsent(ctx context.Context) bool {
	quoted := make([]string, len(consentLabels))
	for i, l := range consentLabels {
		quoted[i] = `'` + l + `'`
	}
	js := strings.ReplaceAll(consentClickJS, "%s", strings.Join(quoted, ", "))

	var clicked bool
	if err := chromedp.Run(ctx, chromedp.Evaluate(js, &clicked)); err != nil {
		slog.Debug("consent: evaluation failed", "error", err)
		return false
	}
	if clicked {
		slog.Debug("consent: prompt dismissed")
		// Give the page a beat to settle after the overlay goes away.
		_ = chromedp.Run(ctx, chromedp.Sleep(500*time.Millisecond))
	}
	return clicked
}

// challengeIndicated reports whether a page title or URL suggests a
// bot-verification interstitial.
func challengeIndicated(title, pageURL string) bool {
	title = strings.ToLower(title)
	pageURL = strings.ToLower(pageURL)
	for _, kw := range challengeKeywords {
		if strings.Contains(title, kw) || strings.Contains(pageURL, kw) {
			return true
		}
	}
	return false
}

// detectChallenge inspects the live page for challenge indicators.
func detectChallenge(ctx context.Context) bool {
	var title, location string
	if err := chromedp.Run(ctx,
		chromedp.Title(&title),
		chromedp.Location(&location),
	); err != nil {
		slog.Debug("challenge: inspection failed", "error", err)
		return false
	}
	return challengeIndicated(title, location)
}
