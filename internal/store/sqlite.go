package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sealcheck/lmscan/internal/ledger"
	"github.com/sealcheck/lmscan/internal/model"
)

// SQLiteStore keeps one row per scan plus a single aggregate-state row
// holding the serialized aggregates and manufacturer records. The bounded
// history is rebuilt from the newest scan rows on open.
type SQLiteStore struct {
	db  *sql.DB
	led *ledger.Ledger
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS scans (
	id           TEXT PRIMARY KEY,
	scan_id      TEXT NOT NULL,
	manufacturer TEXT NOT NULL,
	category     TEXT NOT NULL,
	score        REAL NOT NULL,
	level        TEXT NOT NULL,
	record       TEXT NOT NULL,
	created_at   DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS ledger_state (
	id         INTEGER PRIMARY KEY CHECK (id = 1),
	payload    TEXT NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_scans_created_at ON scans(created_at);
CREATE INDEX IF NOT EXISTS idx_scans_manufacturer ON scans(manufacturer);
CREATE INDEX IF NOT EXISTS idx_scans_category ON scans(category);
`

// statePayload is the ledger_state row content.
type statePayload struct {
	Aggregates    *model.Aggregates                    `json:"aggregates"`
	Manufacturers map[string]*model.ManufacturerRecord `json:"manufacturers"`
}

// NewSQLite opens (creating if needed) the database at dsn, runs the
// migration, and loads persisted state into the ledger.
func NewSQLite(dsn string, led *ledger.Ledger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	if _, err := db.Exec(sqliteMigration); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "sqlite: migrate")
	}
	s := &SQLiteStore{db: db, led: led}
	if err := s.load(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) load() error {
	st := ledger.NewState()

	var payload string
	err := s.db.QueryRow(`SELECT payload FROM ledger_state WHERE id = 1`).Scan(&payload)
	switch {
	case err == nil:
		var p statePayload
		if err := json.Unmarshal([]byte(payload), &p); err != nil {
			return eris.Wrap(err, "sqlite: parse ledger state")
		}
		if p.Aggregates != nil {
			st.Aggregates = p.Aggregates
		}
		if p.Manufacturers != nil {
			st.Manufacturers = p.Manufacturers
		}
	case err != sql.ErrNoRows:
		return eris.Wrap(err, "sqlite: load ledger state")
	}

	rows, err := s.db.Query(`
		SELECT record FROM (
			SELECT record, created_at FROM scans ORDER BY created_at DESC, scan_id DESC LIMIT ?
		) ORDER BY created_at ASC, record ASC`,
		ledger.DefaultHistoryLimit)
	if err != nil {
		return eris.Wrap(err, "sqlite: load scans")
	}
	defer rows.Close()
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return eris.Wrap(err, "sqlite: scan row")
		}
		var rec model.ScanRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return eris.Wrap(err, "sqlite: parse scan record")
		}
		st.History = append(st.History, rec)
	}
	if err := rows.Err(); err != nil {
		return eris.Wrap(err, "sqlite: iterate scans")
	}

	s.led.Restore(st)
	return nil
}

// AppendScan applies rec to the ledger, then writes the scan row and the
// refreshed aggregate state in one transaction.
func (s *SQLiteStore) AppendScan(ctx context.Context, rec model.ScanRecord) (model.ScanRecord, error) {
	rec = s.led.Append(rec)
	st := s.led.Snapshot()

	recJSON, err := json.Marshal(rec)
	if err != nil {
		return model.ScanRecord{}, eris.Wrap(err, "sqlite: marshal scan record")
	}
	stateJSON, err := json.Marshal(statePayload{
		Aggregates:    st.Aggregates,
		Manufacturers: st.Manufacturers,
	})
	if err != nil {
		return model.ScanRecord{}, eris.Wrap(err, "sqlite: marshal ledger state")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.ScanRecord{}, eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO scans (id, scan_id, manufacturer, category, score, level, record, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), rec.ScanID, rec.Product.Manufacturer, rec.Product.Category,
		rec.Compliance.Score, string(rec.Compliance.Level), string(recJSON), rec.Timestamp.UTC(),
	)
	if err != nil {
		return model.ScanRecord{}, eris.Wrap(err, "sqlite: insert scan")
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO ledger_state (id, payload, updated_at) VALUES (1, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		string(stateJSON), now,
	)
	if err != nil {
		return model.ScanRecord{}, eris.Wrap(err, "sqlite: upsert ledger state")
	}
	if err := tx.Commit(); err != nil {
		return model.ScanRecord{}, eris.Wrap(err, "sqlite: commit")
	}
	return rec, nil
}

func (s *SQLiteStore) Snapshot(ctx context.Context) (ledger.State, error) {
	return s.led.Snapshot(), ctx.Err()
}

func (s *SQLiteStore) GetManufacturer(ctx context.Context, key string) (*model.ManufacturerRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m, ok := s.led.Manufacturer(key)
	if !ok {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: manufacturer %q", key)
	}
	return m, nil
}

func (s *SQLiteStore) ListManufacturers(ctx context.Context) ([]model.ManufacturerSummary, error) {
	return s.led.Summaries(), ctx.Err()
}

func (s *SQLiteStore) History(ctx context.Context, q ledger.HistoryQuery) ([]model.ScanRecord, error) {
	return s.led.History(q), ctx.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
