package trend_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"trendscope/internal/trend"
)

func item(id, author string, views, likes float64) map[string]any {
	return map[string]any{
		"id":     id,
		"desc":   "caption for " + id + " #fyp",
		"author": map[string]any{"uniqueId": author},
		"stats": map[string]any{
			"playCount": views,
			"diggCount": likes,
		},
		"createTime": float64(1700000000),
	}
}

func TestMapState_ItemModule(t *testing.T) {
	t.Parallel()

	raw := map[string]any{
		"ItemModule": map[string]any{
			"2222": item("2222", "bob", 500, 50),
			"1111": item("1111", "alice", 1000, 100),
		},
	}

	records := trend.MapState(raw, trend.SourceState)
	require.Len(t, records, 2)

	// Module items come out ordered by id.
	require.Equal(t, "1111", records[0].VideoID)
	require.Equal(t, "2222", records[1].VideoID)

	first := records[0]
	require.Equal(t, "alice", first.AuthorUsername)
	require.Equal(t, "https://www.tiktok.com/@alice/video/1111", first.VideoURL)
	require.Equal(t, []string{"fyp"}, first.Hashtags)
	require.Equal(t, int64(1000), first.Views)
	require.Equal(t, int64(100), first.Likes)
	require.Equal(t, trend.SourceState, first.Source)
	require.NotNil(t, first.PublishedAt)
	require.Equal(t, time.Unix(1700000000, 0).UTC(), *first.PublishedAt)
}

func TestMapState_DefaultScope(t *testing.T) {
	t.Parallel()

	raw := map[string]any{
		"__DEFAULT_SCOPE__": map[string]any{
			"webapp.a-context": map[string]any{"language": "en"},
			"webapp.feed": map[string]any{
				"itemList": []any{item("3333", "carol", 10, 1)},
			},
		},
	}

	records := trend.MapState(raw, trend.SourceState)
	require.Len(t, records, 1)
	require.Equal(t, "3333", records[0].VideoID)
	require.Equal(t, "carol", records[0].AuthorUsername)
}

func TestMapState_DetailItemStruct(t *testing.T) {
	t.Parallel()

	raw := map[string]any{
		"itemInfo": map[string]any{
			"itemStruct": item("4444", "dave", 42, 7),
		},
	}

	records := trend.MapState(raw, trend.SourceState)
	require.Len(t, records, 1)
	require.Equal(t, "4444", records[0].VideoID)
}

func TestMapState_BareArray(t *testing.T) {
	t.Parallel()

	raw := []any{item("5555", "erin", 1, 1), "not an item", float64(3)}

	records := trend.MapState(raw, trend.SourceState)
	require.Len(t, records, 1)
	require.Equal(t, "5555", records[0].VideoID)
}

func TestMapPayload_ListKeys(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		id   string
	}{
		{
			name: "camel itemList",
			body: `{"itemList":[{"id":"10","author":{"uniqueId":"a"},"stats":{"playCount":5}}]}`,
			id:   "10",
		},
		{
			name: "snake aweme_list with snake fields",
			body: `{"aweme_list":[{"aweme_id":"11","author":{"unique_id":"b"},"statistics":{"play_count":9,"digg_count":2}}]}`,
			id:   "11",
		},
		{
			name: "generic items",
			body: `{"items":[{"itemId":"12","author":"plainname"}]}`,
			id:   "12",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			records := trend.MapPayload([]byte(test.body), trend.SourceIntercept)
			require.Len(t, records, 1)
			require.Equal(t, test.id, records[0].VideoID)
			require.Equal(t, trend.SourceIntercept, records[0].Source)
		})
	}
}

func TestMapPayload_Malformed(t *testing.T) {
	t.Parallel()

	require.Empty(t, trend.MapPayload([]byte("not json"), trend.SourceIntercept))
	require.Empty(t, trend.MapPayload([]byte(`{"unrelated":true}`), trend.SourceIntercept))
}

func TestMapState_DropsItemsWithoutID(t *testing.T) {
	t.Parallel()

	raw := map[string]any{
		"itemList": []any{
			map[string]any{"desc": "no id here"},
			item("6666", "frank", 2, 2),
		},
	}

	records := trend.MapState(raw, trend.SourceState)
	require.Len(t, records, 1)
	require.Equal(t, "6666", records[0].VideoID)
}

func TestMapState_FieldFallbacksAndClamping(t *testing.T) {
	t.Parallel()

	raw := map[string]any{
		"itemList": []any{map[string]any{
			"id":     "7777",
			"author": map[string]any{"nickname": "grace"},
			"statsV2": map[string]any{
				"playCount": "1500",
				"diggCount": float64(-3),
			},
			"video": map[string]any{"duration": float64(15), "cover": "https://cdn/img.jpg"},
			"music": map[string]any{"title": "song", "authorName": "artist"},
		}},
	}

	records := trend.MapState(raw, trend.SourceState)
	require.Len(t, records, 1)

	rec := records[0]
	require.Equal(t, "grace", rec.AuthorUsername)
	require.Equal(t, int64(1500), rec.Views, "numeric strings parse")
	require.Zero(t, rec.Likes, "negatives clamp to zero")
	require.Equal(t, float64(15), rec.DurationSec)
	require.Equal(t, "https://cdn/img.jpg", rec.ThumbnailURL)
	require.Equal(t, "song", rec.SoundTitle)
	require.Equal(t, "artist", rec.SoundArtist)
	require.Nil(t, rec.PublishedAt)
}

func TestEngagementRate(t *testing.T) {
	t.Parallel()

	raw := map[string]any{
		"itemList": []any{map[string]any{
			"id": "8888",
			"stats": map[string]any{
				"playCount":    float64(1000),
				"diggCount":    float64(100),
				"commentCount": float64(20),
				"shareCount":   float64(5),
			},
		}},
	}

	records := trend.MapState(raw, trend.SourceState)
	require.Len(t, records, 1)
	require.InDelta(t, 12.5, records[0].EngagementRate, 0.001)
}
