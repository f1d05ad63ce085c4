// Package store persists the statistics ledger. Both backends own a live
// ledger instance; writes go through the ledger first and are then flushed
// to disk, so a read never observes a half-applied scan.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sealcheck/lmscan/internal/ledger"
	"github.com/sealcheck/lmscan/internal/model"
)

// ErrNotFound is returned when a manufacturer key has no record.
var ErrNotFound = eris.New("store: not found")

// Store is the persistence interface for scan results and aggregates.
type Store interface {
	// AppendScan folds one completed scan into the ledger and persists it.
	// The returned record carries the assigned scan id and category.
	AppendScan(ctx context.Context, rec model.ScanRecord) (model.ScanRecord, error)
	// Snapshot returns a detached copy of the full ledger state.
	Snapshot(ctx context.Context) (ledger.State, error)
	GetManufacturer(ctx context.Context, key string) (*model.ManufacturerRecord, error)
	ListManufacturers(ctx context.Context) ([]model.ManufacturerSummary, error)
	History(ctx context.Context, q ledger.HistoryQuery) ([]model.ScanRecord, error)
	Close() error
}

// Open selects a backend by driver name: "file" (default) or "sqlite".
// path is the data directory for the file store or the database file for
// sqlite.
func Open(driver, path string, led *ledger.Ledger) (Store, error) {
	switch driver {
	case "", "file":
		return NewFile(path, led)
	case "sqlite":
		return NewSQLite(path, led)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}
