package app_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"trendscope/internal/app"
)

const validYAML = `
server:
  addr: ":8080"
  default_limit: 20

browser:
  chrome_path: "/usr/bin/chromium"
  headless: true
  timeout: 180s
  nav_timeout: 30s
  max_retries: 3
  retry_backoff: 2s

scrape:
  target_urls:
    - "https://www.tiktok.com/foryou"
  stop_threshold: 50
  scroll_passes: 3
  min_delay: 2s
  max_delay: 5s
  max_intercepts: 32

cache:
  ttl: 5m

region:
  name: "us"
  accept_language: "en-US,en;q=0.9"
  languages: ["en-US", "en"]
  timezone: "America/New_York"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Valid(t *testing.T) {
	t.Parallel()

	cfg, err := app.Load(writeConfig(t, validYAML))
	require.NoError(t, err)

	require.Equal(t, ":8080", cfg.Server.Addr)
	require.Equal(t, 20, cfg.Server.DefaultLimit)
	require.Equal(t, "/usr/bin/chromium", cfg.Browser.ChromePath)
	require.True(t, cfg.Browser.Headless)
	require.Equal(t, 30*time.Second, cfg.Browser.NavTimeout)
	require.Equal(t, []string{"https://www.tiktok.com/foryou"}, cfg.Scrape.TargetURLs)
	require.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	require.Equal(t, "America/New_York", cfg.Region.Timezone)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := app.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoad_ValidationFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  string
		replace string
	}{
		{
			name:    "default limit above cap",
			mutate:  "default_limit: 20",
			replace: "default_limit: 500",
		},
		{
			name:    "invalid target url",
			mutate:  `- "https://www.tiktok.com/foryou"`,
			replace: `- "not a url"`,
		},
		{
			name:    "zero stop threshold",
			mutate:  "stop_threshold: 50",
			replace: "stop_threshold: 0",
		},
		{
			name:    "missing chrome path",
			mutate:  `chrome_path: "/usr/bin/chromium"`,
			replace: `chrome_path: ""`,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			yaml := replaceOnce(t, validYAML, test.mutate, test.replace)
			_, err := app.Load(writeConfig(t, yaml))
			require.Error(t, err)
		})
	}
}

func TestLoad_DelayOrdering(t *testing.T) {
	t.Parallel()

	yaml := replaceOnce(t, validYAML, "max_delay: 5s", "max_delay: 1s")
	_, err := app.Load(writeConfig(t, yaml))
	require.ErrorContains(t, err, "min_delay")
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("TRENDSCOPE_SERVER_ADDR", ":9999")
	t.Setenv("TRENDSCOPE_BROWSER_HEADLESS", "false")

	cfg, err := app.Load(writeConfig(t, validYAML))
	require.NoError(t, err)
	require.Equal(t, ":9999", cfg.Server.Addr)
	require.False(t, cfg.Browser.Headless)
}

func replaceOnce(t *testing.T, s, old, repl string) string {
	t.Helper()
	require.Contains(t, s, old)
	return strings.Replace(s, old, repl, 1)
}
