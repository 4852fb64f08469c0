package trend

import (
	"cmp"
	"slices"
	"time"
)

// Recency windows: records published inside the primary window are "trending
// now"; the window widens once when the primary pool is smaller than the
// requested count.
const (
	primaryWindow = 24 * time.Hour
	widenedWindow = 48 * time.Hour
)

// Scoring weights. Comments and shares weigh above raw likes to reward
// velocity of deeper engagement; the ratio term rewards small-audience videos
// that convert viewers into interactions.
const (
	commentWeight = 2
	shareWeight   = 3
	ratioBoost    = 1000 * 0.25
)

// Merge deduplicates records by video id. When the same id was discovered by
// multiple strategies, the higher-fidelity source wins; ties keep the first
// seen. Records without a video URL are rejected here, before ranking.
func Merge(records []VideoRecord) []VideoRecord {
	merged := make([]VideoRecord, 0, len(records))
	index := make(map[string]int, len(records))

	for _, rec := range records {
		if rec.VideoID == "" || rec.VideoURL == "" {
			continue
		}
		at, ok := index[rec.VideoID]
		if !ok {
			index[rec.VideoID] = len(merged)
			merged = append(merged, rec)
			continue
		}
		if rec.Source.Priority() > merged[at].Source.Priority() {
			merged[at] = rec
		}
	}
	return merged
}

// Rank scores the merged records by engagement velocity within the recency
// window, sorts descending, and backfills up to limit from the full pool.
// The output is fully deterministic for a fixed input and now.
func Rank(records []VideoRecord, limit int, now time.Time) []VideoRecord {
	if limit <= 0 || len(records) == 0 {
		return nil
	}

	pool := withinWindow(records, now, primaryWindow)
	if len(pool) < limit {
		pool = withinWindow(records, now, widenedWindow)
	}

	scored := make([]VideoRecord, len(pool))
	for i, rec := range pool {
		scored[i] = score(rec, now)
	}

	slices.SortFunc(scored, func(a, b VideoRecord) int {
		return cmp.Or(
			cmp.Compare(b.Score, a.Score),
			cmp.Compare(b.Interactions(), a.Interactions()),
			cmp.Compare(a.VideoID, b.VideoID),
		)
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}

	return backfill(scored, records, limit, now)
}

// backfill fills remaining slots from the full merged pool, ordered by raw
// interactions, never revisiting already-selected ids.
func backfill(selected, all []VideoRecord, limit int, now time.Time) []VideoRecord {
	if len(selected) >= limit {
		return selected
	}

	chosen := make(map[string]struct{}, len(selected))
	for _, rec := range selected {
		chosen[rec.VideoID] = struct{}{}
	}

	rest := make([]VideoRecord, 0, len(all))
	for _, rec := range all {
		if _, ok := chosen[rec.VideoID]; !ok {
			rest = append(rest, rec)
		}
	}
	slices.SortFunc(rest, func(a, b VideoRecord) int {
		return cmp.Or(
			cmp.Compare(b.Interactions(), a.Interactions()),
			cmp.Compare(a.VideoID, b.VideoID),
		)
	})

	for _, rec := range rest {
		if len(selected) == limit {
			break
		}
		selected = append(selected, score(rec, now))
	}
	return selected
}

// withinWindow keeps records published inside the window. Records lacking a
// publish time are excluded here but stay eligible as backfill.
func withinWindow(records []VideoRecord, now time.Time, window time.Duration) []VideoRecord {
	kept := make([]VideoRecord, 0, len(records))
	for _, rec := range records {
		if rec.PublishedAt == nil {
			continue
		}
		age := now.Sub(*rec.PublishedAt)
		if age >= 0 && age <= window {
			kept = append(kept, rec)
		}
	}
	return kept
}

// score derives the engagement-velocity score:
//
//	interactions = likes + 2×comments + 3×shares
//	score        = interactions/max(hours,1) + interactions/max(views,1) × 250
func score(rec VideoRecord, now time.Time) VideoRecord {
	var hours float64
	if rec.PublishedAt != nil {
		hours = now.Sub(*rec.PublishedAt).Hours()
	}

	interactions := float64(rec.Likes + commentWeight*rec.Comments + shareWeight*rec.Shares)
	perHour := interactions / max(hours, 1)
	ratio := interactions / float64(max(rec.Views, 1))

	rec.HoursSincePost = hours
	rec.Score = perHour + ratio*ratioBoost
	return rec
}
