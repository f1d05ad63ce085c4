package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sealcheck/lmscan/internal/model"
	"github.com/sealcheck/lmscan/internal/taxonomy"
)

var trendNow = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

func daysAgo(n int) time.Time { return trendNow.AddDate(0, 0, -n) }

func TestTrendImproving(t *testing.T) {
	l := newTestLedger(t, Options{})
	l.Append(record("Acme", "Widget", 0.5, daysAgo(45)))
	l.Append(record("Acme", "Widget", 0.5, daysAgo(40)))
	l.Append(record("Acme", "Widget", 1.0, daysAgo(10)))
	l.Append(record("Acme", "Widget", 0.75, daysAgo(5)))

	tr, ok := l.Snapshot().Trend("Acme", trendNow)
	require.True(t, ok)
	assert.Equal(t, 2, tr.RecentScans)
	assert.Equal(t, 2, tr.PreviousScans)
	// recent (1.0+0.75)/2 = 0.875 vs previous 0.5
	assert.InDelta(t, 0.875, tr.RecentAverage, 1e-9)
	assert.InDelta(t, 0.5, tr.PreviousAverage, 1e-9)
	assert.Equal(t, "improving", tr.Direction)
}

func TestTrendDeclining(t *testing.T) {
	l := newTestLedger(t, Options{})
	l.Append(record("Acme", "Widget", 1.0, daysAgo(40)))
	l.Append(record("Acme", "Widget", 0.25, daysAgo(5)))

	tr, ok := l.Snapshot().Trend("Acme", trendNow)
	require.True(t, ok)
	assert.Equal(t, "declining", tr.Direction)
}

func TestTrendStableOnSmallDelta(t *testing.T) {
	l := newTestLedger(t, Options{})
	l.Append(record("Acme", "Widget", 0.75, daysAgo(40)))
	l.Append(record("Acme", "Widget", 0.77, daysAgo(5)))

	tr, ok := l.Snapshot().Trend("Acme", trendNow)
	require.True(t, ok)
	assert.Equal(t, "stable", tr.Direction)
}

func TestTrendStableWithoutPreviousWindow(t *testing.T) {
	l := newTestLedger(t, Options{})
	l.Append(record("Acme", "Widget", 1.0, daysAgo(3)))

	tr, ok := l.Snapshot().Trend("Acme", trendNow)
	require.True(t, ok)
	assert.Equal(t, 0, tr.PreviousScans)
	assert.Equal(t, "stable", tr.Direction)
}

func TestTrendUnknownManufacturer(t *testing.T) {
	l := newTestLedger(t, Options{})
	_, ok := l.Snapshot().Trend("Nobody", trendNow)
	assert.False(t, ok)
}

func TestPerformerRanking(t *testing.T) {
	l := newTestLedger(t, Options{})
	l.Append(record("Acme", "Widget", 1.0, time.Time{}))
	l.Append(record("Acme", "Widget", 1.0, time.Time{}))
	l.Append(record("Globex", "Widget", 0.25, time.Time{}))
	l.Append(record("Globex", "Widget", 0.25, time.Time{}))
	l.Append(record("Initech", "Widget", 0.75, time.Time{}))

	st := l.Snapshot()
	top := st.TopPerformers(2, 2)
	require.Len(t, top, 2)
	assert.Equal(t, "Acme", top[0].Key)
	assert.Equal(t, "Globex", top[1].Key)

	bottom := st.BottomPerformers(1, 0)
	require.Len(t, bottom, 1)
	assert.Equal(t, "Globex", bottom[0].Key)
}

func TestOverview(t *testing.T) {
	l := newTestLedger(t, Options{})
	l.Append(record("Acme", "Widget", 1.0, time.Time{}))
	l.Append(record("Globex", "Widget", 0.5, time.Time{}))

	ov := l.Snapshot().Overview()
	assert.Equal(t, 2, ov.TotalScans)
	assert.Equal(t, 2, ov.TotalManufacturers)
	// (1.0 + 0.5) / 2 = 0.75
	assert.InDelta(t, 0.75, ov.AverageScore, 1e-9)
	assert.Equal(t, 1, ov.Distribution[model.LevelExcellent])
}

func TestOverviewEmptyState(t *testing.T) {
	ov := NewState().Overview()
	assert.Zero(t, ov.TotalScans)
	assert.Zero(t, ov.AverageScore)
}

func TestSummariesSorted(t *testing.T) {
	l := New(taxonomy.Default(), Options{})
	l.Append(record("Globex", "Widget", 0.5, time.Time{}))
	l.Append(record("Acme", "Widget", 1.0, time.Time{}))

	rows := l.Summaries()
	require.Len(t, rows, 2)
	assert.Equal(t, "Acme", rows[0].Key)
	assert.Equal(t, "Globex", rows[1].Key)
	assert.Equal(t, []string{"Acme", "Globex"}, l.KnownKeys())
}
