// Package trend defines the canonical video record and the pure logic that
// turns raw extracted state into a ranked, deduplicated trending set.
package trend

import (
	"fmt"
	"time"
)

// Source identifies which extraction strategy produced a record.
type Source string

const (
	// SourceState is the structured-state parse — full counters and captions.
	SourceState Source = "state"
	// SourceIntercept is the network-response intercept.
	SourceIntercept Source = "intercept"
	// SourceDOM is the rendered-page anchor scrape — minimal metadata.
	SourceDOM Source = "dom"
)

// Priority ranks sources by fidelity. Higher wins when the same video is
// discovered by multiple strategies.
func (s Source) Priority() int {
	switch s {
	case SourceState:
		return 3
	case SourceIntercept:
		return 2
	case SourceDOM:
		return 1
	default:
		return 0
	}
}

// VideoRecord is the canonical unit of output.
type VideoRecord struct {
	VideoID        string     `json:"videoId"`
	VideoURL       string     `json:"videoUrl"`
	AuthorUsername string     `json:"authorUsername"`
	Caption        string     `json:"caption"`
	Hashtags       []string   `json:"hashtags"`
	SoundTitle     string     `json:"soundTitle,omitempty"`
	SoundArtist    string     `json:"soundArtist,omitempty"`
	Views          int64      `json:"views"`
	Likes          int64      `json:"likes"`
	Comments       int64      `json:"comments"`
	Shares         int64      `json:"shares"`
	DurationSec    float64    `json:"durationSec,omitempty"`
	PublishedAt    *time.Time `json:"publishedAt,omitempty"`
	ThumbnailURL   string     `json:"thumbnailUrl,omitempty"`
	EngagementRate float64    `json:"engagementRate"`
	Source         Source     `json:"source"`

	// Derived at ranking time.
	Score          float64 `json:"score"`
	HoursSincePost float64 `json:"hoursSincePost"`
}

// Interactions is the weighted-1 sum used for backfill ordering.
func (r VideoRecord) Interactions() int64 {
	return r.Likes + r.Comments + r.Shares
}

// Result is one completed scrape-and-rank pass.
type Result struct {
	Videos   []VideoRecord `json:"videos"`
	Metadata Metadata      `json:"metadata"`
}

// Metadata describes the pass that produced a Result. TotalFound counts the
// merged pool before ranking; Returned counts the videos actually served.
type Metadata struct {
	ScrapedAt  time.Time `json:"scrapedAt"`
	TotalFound int       `json:"totalFound"`
	Returned   int       `json:"returned"`
}

// CanonicalURL derives the query-stripped video URL from its author and id.
func CanonicalURL(author, id string) string {
	return fmt.Sprintf("https://www.tiktok.com/@%s/video/%s", author, id)
}
