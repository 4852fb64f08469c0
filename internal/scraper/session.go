package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"

	"trendscope/internal/app"
)

// ErrLaunchFailed means the browser could not be started after all retries.
// It is fatal for the scrape that requested the session.
var ErrLaunchFailed = errors.New("browser launch failed")

// Session owns one browser process and one isolated browsing context for the
// duration of a single scrape. Sessions are never shared or reused; Close is
// safe to call on every exit path.
type Session struct {
	ID          string
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	profile     *Profile
	collector   *collector
	closeOnce   sync.Once
}

// Open launches a stealth browser session, retrying with linear backoff on
// startup failure.
func Open(ctx context.Context, cfg app.BrowserConfig, region app.RegionConfig, maxIntercepts int) (*Session, error) {
	var errs []error

	for attempt := range cfg.MaxRetries {
		if attempt > 0 {
			backoff := time.Duration(attempt) * cfg.RetryBackoff
			slog.Debug("session: retrying browser launch", "attempt", attempt+1, "backoff", backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		s, err := open(ctx, cfg, region, maxIntercepts)
		if err == nil {
			slog.Debug("session: browser launched", "session_id", s.ID, "attempt", attempt+1)
			return s, nil
		}
		errs = append(errs, fmt.Errorf("attempt %d: %w", attempt+1, err))
	}

	return nil, fmt.Errorf("%w after %d attempts: %w", ErrLaunchFailed, cfg.MaxRetries, errors.Join(errs...))
}

func open(ctx context.Context, cfg app.BrowserConfig, region app.RegionConfig, maxIntercepts int) (*Session, error) {
	profile := NewProfile(region)
	slog.Debug("session: profile generated",
		"ua", profile.UserAgent,
		"platform", profile.Platform,
		"timezone", profile.TimezoneID,
		"screen", fmt.Sprintf("%dx%d", profile.ScreenWidth, profile.ScreenHeight),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocatorOpts(cfg, profile)...)

	taskCtx, taskCancel := chromedp.NewContext(allocCtx)
	cancel := taskCancel
	if cfg.Timeout > 0 {
		var timeoutCancel context.CancelFunc
		taskCtx, timeoutCancel = context.WithTimeout(taskCtx, cfg.Timeout)
		cancel = func() {
			timeoutCancel()
			taskCancel()
		}
	}

	coll := newCollector(maxIntercepts)
	chromedp.ListenTarget(taskCtx, coll.listen)

	err := chromedp.Run(taskCtx,
		runtime.Enable(),
		network.Enable(),
		browser.SetDownloadBehavior(browser.SetDownloadBehaviorBehaviorDeny),
		injectStealth(profile),
		injectCDPStealth(profile),
	)
	if err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("initializing browser: %w", err)
	}

	return &Session{
		ID:          uuid.NewString(),
		ctx:         taskCtx,
		cancel:      cancel,
		allocCancel: allocCancel,
		profile:     profile,
		collector:   coll,
	}, nil
}

// Navigate loads a URL with a bounded timeout on the session's main page.
func (s *Session) Navigate(url string, timeout time.Duration) error {
	return runNavigate(s.ctx, url, timeout)
}

// runNavigate loads a URL on the given chromedp context. Navigation runs on
// that context directly, since canceling a child of the chromedp task context
// breaks the target in chromedp v0.14. The bound is enforced by a select.
func runNavigate(ctx context.Context, url string, timeout time.Duration) error {
	navDone := make(chan error, 1)
	go func() {
		navDone <- chromedp.Run(ctx,
			chromedp.Navigate(url),
			chromedp.WaitReady("body"),
		)
	}()

	select {
	case err := <-navDone:
		if err != nil {
			return fmt.Errorf("navigating to %s: %w", url, err)
		}
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("navigation to %s timed out after %s", url, timeout)
	}
}

// newTab opens an additional page in the same browsing context, for bounded
// detail-page visits. The returned cancel closes the tab.
func (s *Session) newTab() (context.Context, context.CancelFunc) {
	return chromedp.NewContext(s.ctx)
}

// Close tears down the page, context and browser process. Exactly-once on
// every exit path; an orphaned browser process otherwise.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		s.allocCancel()
		slog.Debug("session: closed", "session_id", s.ID)
	})
}
