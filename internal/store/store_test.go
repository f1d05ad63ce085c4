package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sealcheck/lmscan/internal/ledger"
	"github.com/sealcheck/lmscan/internal/model"
	"github.com/sealcheck/lmscan/internal/taxonomy"
)

func newLedger() *ledger.Ledger {
	return ledger.New(taxonomy.Default(), ledger.Options{})
}

func sampleRecord(manufacturer, title string, score float64) model.ScanRecord {
	return model.ScanRecord{
		Timestamp: time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC),
		Product:   model.Product{Title: title, Manufacturer: manufacturer},
		Compliance: model.ComplianceSnapshot{
			Score: score,
			Level: model.LevelForScore(score),
		},
		Fields: map[string]string{taxonomy.FieldMRP: "MRP: Rs. 199"},
	}
}

func TestOpenSelectsDriver(t *testing.T) {
	dir := t.TempDir()

	s, err := Open("", dir, newLedger())
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, s)
	require.NoError(t, s.Close())

	s, err = Open("sqlite", filepath.Join(dir, "lmscan.db"), newLedger())
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	_, err = Open("postgres", dir, newLedger())
	assert.Error(t, err)
}

func TestFileStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := NewFile(dir, newLedger())
	require.NoError(t, err)
	rec, err := s.AppendScan(ctx, sampleRecord("Kellogg India Pvt Ltd", "Corn Flakes Cereal", 1.0))
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ScanID)
	_, err = s.AppendScan(ctx, sampleRecord("Kellogg India Pvt Ltd", "Choco Flakes", 0.5))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// Documents exist on disk.
	_, err = os.Stat(filepath.Join(dir, "scan_history.json"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "manufacturers", "kellogg_india_pvt_ltd.json"))
	require.NoError(t, err)

	// Reopen into a fresh ledger.
	s2, err := NewFile(dir, newLedger())
	require.NoError(t, err)
	defer s2.Close()

	m, err := s2.GetManufacturer(ctx, "Kellogg India Pvt Ltd")
	require.NoError(t, err)
	assert.Equal(t, 2, m.TotalProducts)
	// (1.0 + 0.5) / 2 = 0.75
	assert.InDelta(t, 0.75, m.AverageScore, 1e-9)

	hist, err := s2.History(ctx, ledger.HistoryQuery{})
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, "Choco Flakes", hist[0].Product.Title)
}

func TestFileStoreEmptyDir(t *testing.T) {
	s, err := NewFile(t.TempDir(), newLedger())
	require.NoError(t, err)
	defer s.Close()

	st, err := s.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Zero(t, st.Aggregates.TotalScans)

	_, err = s.GetManufacturer(context.Background(), "Nobody")
	assert.True(t, eris.Is(err, ErrNotFound))
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "lmscan.db")
	ctx := context.Background()

	s, err := NewSQLite(dsn, newLedger())
	require.NoError(t, err)
	_, err = s.AppendScan(ctx, sampleRecord("Acme", "Herbal Soap", 0.75))
	require.NoError(t, err)
	_, err = s.AppendScan(ctx, sampleRecord("Globex", "Green Tea", 0.25))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s2, err := NewSQLite(dsn, newLedger())
	require.NoError(t, err)
	defer s2.Close()

	st, err := s2.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Aggregates.TotalScans)
	require.Len(t, st.History, 2)

	rows, err := s2.ListManufacturers(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Acme", rows[0].Key)

	hist, err := s2.History(ctx, ledger.HistoryQuery{Manufacturer: "Globex"})
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, "Green Tea", hist[0].Product.Title)
}

func TestSafeKey(t *testing.T) {
	assert.Equal(t, "kellogg_india_pvt_ltd", safeKey("Kellogg India Pvt Ltd"))
	assert.Equal(t, "m_s_sharma_traders", safeKey("M/S Sharma & Traders!"))
	assert.Equal(t, "unnamed", safeKey("---"))
}
