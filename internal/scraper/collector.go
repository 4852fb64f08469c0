package scraper

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// feedAPIPaths are URL path fragments of feed/recommendation endpoints whose
// JSON responses carry item lists.
var feedAPIPaths = []string{
	"/api/recommend/item_list",
	"/api/explore/item_list",
	"/api/post/item_list",
	"/api/challenge/item_list",
	"/node/share/discover",
	"/share/item/list",
}

// collector records feed API responses observed on a page so their bodies can
// be fetched and mapped after the page settles. Bodies are only retrievable
// once Chrome reports the response fully loaded, hence the two-phase
// observed → ready bookkeeping.
type collector struct {
	mu       sync.Mutex
	max      int
	observed map[network.RequestID]string // request id → URL, response seen
	ready    []network.RequestID          // loading finished, body fetchable
	drained  map[network.RequestID]struct{}
}

func newCollector(maxIntercepts int) *collector {
	return &collector{
		max:      maxIntercepts,
		observed: make(map[network.RequestID]string),
		drained:  make(map[network.RequestID]struct{}),
	}
}

// matchesFeedAPI reports whether a URL belongs to a known feed endpoint.
// Query parameters are ignored.
func matchesFeedAPI(u string) bool {
	stripped, _, _ := strings.Cut(u, "?")
	for _, p := range feedAPIPaths {
		if strings.Contains(stripped, p) {
			return true
		}
	}
	return false
}

// listen is an event handler for chromedp.ListenTarget.
func (c *collector) listen(ev any) {
	switch e := ev.(type) {
	case *network.EventResponseReceived:
		if !matchesFeedAPI(e.Response.URL) {
			return
		}
		c.mu.Lock()
		if len(c.observed) < c.max {
			c.observed[e.RequestID] = e.Response.URL
			slog.Debug("collector: feed response observed", "url", e.Response.URL)
		}
		c.mu.Unlock()

	case *network.EventLoadingFinished:
		c.mu.Lock()
		if _, ok := c.observed[e.RequestID]; ok {
			c.ready = append(c.ready, e.RequestID)
		}
		c.mu.Unlock()
	}
}

// drain fetches the bodies of all ready responses not yet drained. A failed
// body fetch skips that response only.
func (c *collector) drain(ctx context.Context) [][]byte {
	c.mu.Lock()
	batch := make([]network.RequestID, 0, len(c.ready))
	for _, id := range c.ready {
		if _, ok := c.drained[id]; !ok {
			c.drained[id] = struct{}{}
			batch = append(batch, id)
		}
	}
	c.mu.Unlock()

	var bodies [][]byte
	for _, id := range batch {
		var body []byte
		err := chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			body, err = network.GetResponseBody(id).Do(ctx)
			return err
		}))
		if err != nil {
			slog.Debug("collector: body fetch failed", "request_id", id, "error", err)
			continue
		}
		bodies = append(bodies, body)
	}
	return bodies
}
