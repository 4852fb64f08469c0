package trend_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"trendscope/internal/trend"
)

func record(id string, src trend.Source, likes int64, age time.Duration, now time.Time) trend.VideoRecord {
	rec := trend.VideoRecord{
		VideoID:  id,
		VideoURL: trend.CanonicalURL("user", id),
		Views:    likes * 10,
		Likes:    likes,
		Source:   src,
	}
	if age >= 0 {
		published := now.Add(-age)
		rec.PublishedAt = &published
	}
	return rec
}

func TestMerge_HigherPrioritySourceWins(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	dom := record("1", trend.SourceDOM, 0, time.Hour, now)
	state := record("1", trend.SourceState, 100, time.Hour, now)

	merged := trend.Merge([]trend.VideoRecord{dom, state})
	require.Len(t, merged, 1)
	require.Equal(t, trend.SourceState, merged[0].Source)
	require.Equal(t, int64(100), merged[0].Likes)

	// Reverse discovery order gives the same winner.
	merged = trend.Merge([]trend.VideoRecord{state, dom})
	require.Len(t, merged, 1)
	require.Equal(t, trend.SourceState, merged[0].Source)
}

func TestMerge_EqualPriorityKeepsFirst(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	first := record("1", trend.SourceIntercept, 10, time.Hour, now)
	second := record("1", trend.SourceIntercept, 99, time.Hour, now)

	merged := trend.Merge([]trend.VideoRecord{first, second})
	require.Len(t, merged, 1)
	require.Equal(t, int64(10), merged[0].Likes)
}

func TestMerge_RejectsIncompleteRecords(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	ok := record("1", trend.SourceState, 1, time.Hour, now)
	noID := trend.VideoRecord{VideoURL: "https://example.com/v"}
	noURL := trend.VideoRecord{VideoID: "2"}

	merged := trend.Merge([]trend.VideoRecord{noID, ok, noURL})
	require.Len(t, merged, 1)
	require.Equal(t, "1", merged[0].VideoID)
}

func TestMerge_PreservesDiscoveryOrder(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	in := []trend.VideoRecord{
		record("3", trend.SourceState, 1, time.Hour, now),
		record("1", trend.SourceState, 1, time.Hour, now),
		record("2", trend.SourceState, 1, time.Hour, now),
	}

	merged := trend.Merge(in)
	require.Equal(t, []string{"3", "1", "2"},
		[]string{merged[0].VideoID, merged[1].VideoID, merged[2].VideoID})
}

func TestRank_OrdersByScoreDescending(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	slow := record("slow", trend.SourceState, 10, 10*time.Hour, now)
	fast := record("fast", trend.SourceState, 1000, 2*time.Hour, now)

	ranked := trend.Rank([]trend.VideoRecord{slow, fast}, 10, now)
	require.Len(t, ranked, 2)
	require.Equal(t, "fast", ranked[0].VideoID)
	require.Greater(t, ranked[0].Score, ranked[1].Score)
	require.InDelta(t, 2, ranked[0].HoursSincePost, 0.01)
}

func TestRank_Deterministic(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	var pool []trend.VideoRecord
	for i := range 20 {
		// Identical counters so ordering falls through to the id tie-break.
		pool = append(pool, record(fmt.Sprintf("id-%02d", i), trend.SourceState, 50, time.Hour, now))
	}

	first := trend.Rank(pool, 10, now)
	second := trend.Rank(pool, 10, now)
	require.Equal(t, first, second)

	for i := 1; i < len(first); i++ {
		require.Less(t, first[i-1].VideoID, first[i].VideoID)
	}
}

func TestRank_WidensWindowWhenPrimaryPoolShort(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	var pool []trend.VideoRecord
	for i := range 3 {
		pool = append(pool, record(fmt.Sprintf("fresh-%d", i), trend.SourceState, 10, 6*time.Hour, now))
	}
	for i := range 4 {
		pool = append(pool, record(fmt.Sprintf("day2-%d", i), trend.SourceState, 10, 36*time.Hour, now))
	}

	// Primary window alone satisfies a small limit: day-two records stay out.
	ranked := trend.Rank(pool, 3, now)
	require.Len(t, ranked, 3)
	for _, rec := range ranked {
		require.Contains(t, rec.VideoID, "fresh")
	}

	// A larger limit widens to the two-day window.
	ranked = trend.Rank(pool, 6, now)
	require.Len(t, ranked, 6)
}

func TestRank_BackfillsFromStaleAndUndatedRecords(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	fresh := record("fresh", trend.SourceState, 10, time.Hour, now)
	stale := record("stale", trend.SourceState, 500, 100*time.Hour, now)
	undatedBig := record("undated-big", trend.SourceDOM, 900, -1, now)
	undatedSmall := record("undated-small", trend.SourceDOM, 5, -1, now)

	ranked := trend.Rank([]trend.VideoRecord{fresh, stale, undatedBig, undatedSmall}, 3, now)
	require.Len(t, ranked, 3)

	// The windowed record leads; backfill follows by raw interactions.
	require.Equal(t, "fresh", ranked[0].VideoID)
	require.Equal(t, "undated-big", ranked[1].VideoID)
	require.Equal(t, "stale", ranked[2].VideoID)
}

func TestRank_TruncatesToLimit(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	var pool []trend.VideoRecord
	for i := range 30 {
		pool = append(pool, record(fmt.Sprintf("id-%02d", i), trend.SourceState, int64(i), time.Hour, now))
	}

	ranked := trend.Rank(pool, 5, now)
	require.Len(t, ranked, 5)
}

func TestRank_EmptyAndZeroLimit(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	require.Nil(t, trend.Rank(nil, 10, now))
	require.Nil(t, trend.Rank([]trend.VideoRecord{record("1", trend.SourceState, 1, time.Hour, now)}, 0, now))
}

func TestRank_ExcludesFutureTimestamps(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	future := record("future", trend.SourceState, 10, -2*time.Hour, now)
	// record() treats negative age as undated, so build the future one by hand.
	ahead := now.Add(2 * time.Hour)
	future.PublishedAt = &ahead

	current := record("current", trend.SourceState, 10, time.Hour, now)

	ranked := trend.Rank([]trend.VideoRecord{future, current}, 1, now)
	require.Len(t, ranked, 1)
	require.Equal(t, "current", ranked[0].VideoID)
}
