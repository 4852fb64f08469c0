package scraper

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"trendscope/internal/trend"
)

func chainRecord(id string, src trend.Source) trend.VideoRecord {
	return trend.VideoRecord{
		VideoID:  id,
		VideoURL: trend.CanonicalURL("user", id),
		Source:   src,
	}
}

// scriptedStrategy returns one batch per invocation, repeating the last batch
// once the script runs out, and counts how often it ran.
func scriptedStrategy(src trend.Source, batches ...[]trend.VideoRecord) (strategy, *int) {
	calls := new(int)
	return strategy{
		source: src,
		run: func(context.Context, *Session) []trend.VideoRecord {
			i := min(*calls, len(batches)-1)
			*calls++
			return batches[i]
		},
	}, calls
}

func TestRunChain_FirstNonEmptyStrategyWins(t *testing.T) {
	t.Parallel()

	empty, emptyCalls := scriptedStrategy(trend.SourceState, nil)
	winner, winnerCalls := scriptedStrategy(trend.SourceIntercept,
		[]trend.VideoRecord{chainRecord("1", trend.SourceIntercept)})
	fallback, fallbackCalls := scriptedStrategy(trend.SourceDOM,
		[]trend.VideoRecord{chainRecord("2", trend.SourceDOM), chainRecord("3", trend.SourceDOM)})

	records := runChain(context.Background(), nil, []strategy{empty, winner, fallback}, 0, func() {})

	require.Len(t, records, 1)
	require.Equal(t, "1", records[0].VideoID)
	require.Equal(t, 1, *emptyCalls)
	require.Equal(t, 1, *winnerCalls)
	require.Zero(t, *fallbackCalls, "lower-priority strategies never run once one yields")
}

func TestRunChain_ScrollRerunMergesInitialAndLazy(t *testing.T) {
	t.Parallel()

	// The re-run returns only what loaded after the scroll — fewer items than
	// the initial capture. Both sets must survive.
	st, calls := scriptedStrategy(trend.SourceIntercept,
		[]trend.VideoRecord{chainRecord("a", trend.SourceIntercept), chainRecord("b", trend.SourceIntercept)},
		[]trend.VideoRecord{chainRecord("c", trend.SourceIntercept)},
	)

	scrolls := 0
	records := runChain(context.Background(), nil, []strategy{st}, 2, func() { scrolls++ })

	require.Equal(t, 2, *calls)
	require.Equal(t, 1, scrolls, "all passes happen inside one scroll callback")

	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.VideoID
	}
	require.ElementsMatch(t, []string{"a", "b", "c"}, ids)
}

func TestRunChain_RerunDuplicatesCollapse(t *testing.T) {
	t.Parallel()

	st, _ := scriptedStrategy(trend.SourceState,
		[]trend.VideoRecord{chainRecord("a", trend.SourceState), chainRecord("b", trend.SourceState)},
		[]trend.VideoRecord{chainRecord("b", trend.SourceState), chainRecord("c", trend.SourceState)},
	)

	records := runChain(context.Background(), nil, []strategy{st}, 1, func() {})
	require.Len(t, records, 3)
}

func TestRunChain_NoScrollPassesRunsOnce(t *testing.T) {
	t.Parallel()

	st, calls := scriptedStrategy(trend.SourceState,
		[]trend.VideoRecord{chainRecord("a", trend.SourceState)})

	scrolls := 0
	records := runChain(context.Background(), nil, []strategy{st}, 0, func() { scrolls++ })

	require.Len(t, records, 1)
	require.Equal(t, 1, *calls)
	require.Zero(t, scrolls)
}

func TestRunChain_AllStrategiesEmpty(t *testing.T) {
	t.Parallel()

	a, _ := scriptedStrategy(trend.SourceState, nil)
	b, _ := scriptedStrategy(trend.SourceIntercept, nil)
	c, _ := scriptedStrategy(trend.SourceDOM, nil)

	require.Nil(t, runChain(context.Background(), nil, []strategy{a, b, c}, 3, func() {}))
}
