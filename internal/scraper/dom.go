package scraper

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"trendscope/internal/trend"
)

// videoPathPattern matches /@{username}/video/{id} anchor paths.
var videoPathPattern = regexp.MustCompile(`/@([\w.\-]+)/video/(\d+)`)

// parseVideoAnchors scrapes rendered HTML for video links and derives minimal
// records from them. Counters stay at their zero defaults — this is the
// lowest-confidence strategy and its records are tagged accordingly.
func parseVideoAnchors(html string) []trend.VideoRecord {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var records []trend.VideoRecord
	seen := make(map[string]struct{})

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		username, id, ok := parseVideoHref(href)
		if !ok {
			return
		}
		if _, dup := seen[id]; dup {
			return
		}
		seen[id] = struct{}{}

		rec := trend.VideoRecord{
			VideoID:        id,
			VideoURL:       trend.CanonicalURL(username, id),
			AuthorUsername: username,
			Source:         trend.SourceDOM,
		}

		// Caption and thumbnail from the nearest card container, when present.
		if container := a.Closest("div"); container.Length() > 0 {
			img := container.Find("img").First()
			if alt := strings.TrimSpace(img.AttrOr("alt", "")); alt != "" {
				rec.Caption = alt
				rec.Hashtags = trend.ExtractHashtags(alt)
			}
			if src := img.AttrOr("src", ""); src != "" {
				rec.ThumbnailURL = src
			}
		}

		records = append(records, rec)
	})

	return records
}

// parseVideoHref extracts username and video id from an anchor href, which
// may be path-relative or absolute.
func parseVideoHref(href string) (username, id string, ok bool) {
	path := href
	if strings.Contains(href, "://") {
		u, err := url.Parse(href)
		if err != nil {
			return "", "", false
		}
		path = u.Path
	}

	m := videoPathPattern.FindStringSubmatch(path)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}
