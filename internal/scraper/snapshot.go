package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/chromedp"
)

var (
	snapshotDir  string
	snapshotOnce sync.Once
	snapshotSeq  atomic.Int64
)

// debugSnapshot captures a screenshot and outer HTML of the current page and
// writes them under .debug/. It is a no-op unless the default logger has
// debug level enabled; errors are logged and swallowed so snapshots never
// break the main flow.
func debugSnapshot(ctx context.Context, label string) {
	if !slog.Default().Enabled(ctx, slog.LevelDebug) {
		return
	}

	snapshotOnce.Do(func() {
		snapshotDir = filepath.Join(".debug", fmt.Sprintf("trendscope-%d", time.Now().UnixMilli()))
		if err := os.MkdirAll(snapshotDir, 0o755); err != nil {
			slog.Debug("snapshot: failed to create debug directory", "error", err)
			snapshotDir = ""
		}
	})
	if snapshotDir == "" {
		return
	}

	prefix := filepath.Join(snapshotDir, fmt.Sprintf("%02d-%s", snapshotSeq.Add(1), label))

	var buf []byte
	if err := chromedp.Run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		slog.Debug("snapshot: screenshot failed", "label", label, "error", err)
	} else if err := os.WriteFile(prefix+".png", buf, 0o644); err != nil {
		slog.Debug("snapshot: write png failed", "error", err)
	}

	var html string
	if err := chromedp.Run(ctx, chromedp.OuterHTML("html", &html)); err != nil {
		slog.Debug("snapshot: outer HTML failed", "label", label, "error", err)
	} else if err := os.WriteFile(prefix+".html", []byte(html), 0o644); err != nil {
		slog.Debug("snapshot: write html failed", "error", err)
	}
}
