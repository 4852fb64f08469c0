package trend

import (
	"encoding/json"
	"log/slog"
	"maps"
	"math"
	"slices"
	"strconv"
)

// moduleKeys are top-level keys whose value is a map of id → item.
var moduleKeys = []string{"ItemModule", "itemModule"}

// listKeys are fields whose value is a bare item array, tried in order.
// The first non-empty match wins; matches are never merged.
var listKeys = []string{"itemList", "item_list", "aweme_list", "items", "list", "feed"}

// MapState converts a raw parsed state object of unknown shape into canonical
// records. A mapping failure for a single item drops that item, not the batch.
func MapState(raw any, src Source) []VideoRecord {
	items := locateItems(raw)

	records := make([]VideoRecord, 0, len(items))
	for _, item := range items {
		rec, ok := mapItem(item, src)
		if !ok {
			slog.Debug("mapper: dropping unmappable item", "source", src)
			continue
		}
		records = append(records, rec)
	}
	return records
}

// MapPayload parses a JSON response body and maps whatever item collection it
// holds. Malformed JSON yields an empty slice.
func MapPayload(body []byte, src Source) []VideoRecord {
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		slog.Debug("mapper: payload is not valid JSON", "error", err)
		return nil
	}
	return MapState(raw, src)
}

// locateItems resolves the item collection inside a raw state object:
// top-level item module → nested page-properties module → bare array →
// payload list fields.
func locateItems(raw any) []map[string]any {
	switch v := raw.(type) {
	case []any:
		return itemMaps(v)

	case map[string]any:
		for _, key := range moduleKeys {
			if mod, ok := v[key].(map[string]any); ok && len(mod) > 0 {
				return moduleItems(mod)
			}
		}

		if scope, ok := v["__DEFAULT_SCOPE__"].(map[string]any); ok {
			if items := scopeItems(scope); len(items) > 0 {
				return items
			}
		}

		// Detail pages expose a single item instead of a collection.
		if info, ok := v["itemInfo"].(map[string]any); ok {
			if item, ok := info["itemStruct"].(map[string]any); ok {
				return []map[string]any{item}
			}
		}

		for _, key := range listKeys {
			if arr, ok := v[key].([]any); ok {
				if items := itemMaps(arr); len(items) > 0 {
					return items
				}
			}
		}
	}
	return nil
}

// scopeItems searches one level of nested page properties for an item module
// or item list.
func scopeItems(scope map[string]any) []map[string]any {
	for _, key := range slices.Sorted(maps.Keys(scope)) {
		nested, ok := scope[key].(map[string]any)
		if !ok {
			continue
		}
		if items := locateItems(nested); len(items) > 0 {
			return items
		}
	}
	return nil
}

// moduleItems flattens an id → item map, ordered by id for determinism.
func moduleItems(mod map[string]any) []map[string]any {
	items := make([]map[string]any, 0, len(mod))
	for _, id := range slices.Sorted(maps.Keys(mod)) {
		if item, ok := mod[id].(map[string]any); ok {
			items = append(items, item)
		}
	}
	return items
}

func itemMaps(arr []any) []map[string]any {
	items := make([]map[string]any, 0, len(arr))
	for _, e := range arr {
		if item, ok := e.(map[string]any); ok {
			items = append(items, item)
		}
	}
	return items
}

// mapItem maps one raw item to a VideoRecord. Every field access is optional
// with an explicit default; only a missing id rejects the item.
func mapItem(item map[string]any, src Source) (VideoRecord, bool) {
	id := str(item, "id", "aweme_id", "video_id", "itemId")
	if id == "" {
		return VideoRecord{}, false
	}

	author := sub(item, "author")
	username := str(author, "uniqueId", "unique_id", "nickname")
	if username == "" {
		// Some payload variants carry the author as a plain string.
		username = str(item, "author")
	}

	caption := str(item, "desc", "description", "content")
	stats := sub(item, "stats", "statistics", "statsV2")
	video := sub(item, "video")
	music := sub(item, "music")

	rec := VideoRecord{
		VideoID:        id,
		VideoURL:       CanonicalURL(username, id),
		AuthorUsername: username,
		Caption:        caption,
		Hashtags:       ExtractHashtags(caption),
		SoundTitle:     str(music, "title"),
		SoundArtist:    str(music, "authorName", "author", "author_name"),
		Views:          num(stats, "playCount", "play_count", "viewCount", "view_count"),
		Likes:          num(stats, "diggCount", "digg_count", "likeCount", "like_count"),
		Comments:       num(stats, "commentCount", "comment_count"),
		Shares:         num(stats, "shareCount", "share_count"),
		DurationSec:    float64(num(video, "duration")),
		PublishedAt:    FromUnixSeconds(num(item, "createTime", "create_time")),
		ThumbnailURL:   str(video, "cover", "originCover", "origin_cover", "thumbnail"),
		Source:         src,
	}
	rec.EngagementRate = engagementRate(rec)

	return rec, true
}

// engagementRate is (likes+comments+shares)/max(views,1) × 100, rounded to
// two decimals. Informational only — ranking has its own formula.
func engagementRate(r VideoRecord) float64 {
	rate := float64(r.Interactions()) / float64(max(r.Views, 1)) * 100
	return math.Round(rate*100) / 100
}

// str returns the first non-empty string under any of the given keys.
func str(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := m[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// num returns the first numeric value under any of the given keys, accepting
// JSON numbers and numeric strings. Negative values clamp to 0.
func num(m map[string]any, keys ...string) int64 {
	for _, key := range keys {
		switch v := m[key].(type) {
		case float64:
			return max(int64(v), 0)
		case string:
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				return max(n, 0)
			}
		}
	}
	return 0
}

// sub returns the first nested object under any of the given keys, or an
// empty map so lookups on absent sub-objects stay safe.
func sub(m map[string]any, keys ...string) map[string]any {
	for _, key := range keys {
		if s, ok := m[key].(map[string]any); ok {
			return s
		}
	}
	return map[string]any{}
}
