package trend

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// maxHashtags bounds the hashtags kept per record.
const maxHashtags = 10

// hashtagPattern matches a hash symbol followed by Unicode letters, digits or
// underscores.
var hashtagPattern = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)

// countPattern matches a decimal number with an optional K/M/B magnitude
// suffix inside free text.
var countPattern = regexp.MustCompile(`([0-9]+(?:\.[0-9]+)?)\s*([KMBkmb])?`)

// ExtractHashtags scans text for hashtag tokens, deduplicates them preserving
// first-seen order, and keeps at most maxHashtags entries.
func ExtractHashtags(text string) []string {
	if text == "" {
		return nil
	}

	var tags []string
	seen := make(map[string]struct{})

	for _, m := range hashtagPattern.FindAllStringSubmatch(text, -1) {
		tag := m[1]
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
		if len(tags) == maxHashtags {
			break
		}
	}
	return tags
}

// ParseCount parses a counter like "1.2M" or "17.5K views" from free text.
// It is the fallback for when structured counters are unavailable and
// returns 0 when no number is found.
func ParseCount(text string) int64 {
	m := countPattern.FindStringSubmatch(text)
	if m == nil {
		return 0
	}

	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}

	switch strings.ToUpper(m[2]) {
	case "K":
		n *= 1e3
	case "M":
		n *= 1e6
	case "B":
		n *= 1e9
	}
	return int64(n)
}

// FromUnixSeconds converts an epoch-seconds field to a UTC timestamp.
// Returns nil when the source field is absent or zero.
func FromUnixSeconds(secs int64) *time.Time {
	if secs <= 0 {
		return nil
	}
	t := time.Unix(secs, 0).UTC()
	return &t
}
