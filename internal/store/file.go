package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sealcheck/lmscan/internal/ledger"
	"github.com/sealcheck/lmscan/internal/model"
)

const manufacturersDir = "manufacturers"

// historyDoc is the scan_history.json layout: the global aggregates plus
// the bounded scan history. Manufacturer records live in their own files.
type historyDoc struct {
	Aggregates *model.Aggregates  `json:"aggregates"`
	History    []model.ScanRecord `json:"history"`
}

// FileStore keeps the ledger in plain JSON documents under one directory:
// scan_history.json and manufacturers/<key>.json. Every write replaces the
// whole document through a temp file and rename, so a crash leaves either
// the old or the new version, never a torn one.
type FileStore struct {
	dir string
	led *ledger.Ledger
}

// NewFile opens (and if needed creates) the data directory and loads any
// existing documents into the ledger.
func NewFile(dir string, led *ledger.Ledger) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Join(dir, manufacturersDir), 0o755); err != nil {
		return nil, eris.Wrap(err, "filestore: create data dir")
	}
	s := &FileStore{dir: dir, led: led}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) load() error {
	st := ledger.NewState()

	raw, err := os.ReadFile(filepath.Join(s.dir, "scan_history.json"))
	switch {
	case err == nil:
		var doc historyDoc
		if err := json.Unmarshal(raw, &doc); err != nil {
			return eris.Wrap(err, "filestore: parse scan_history.json")
		}
		if doc.Aggregates != nil {
			st.Aggregates = doc.Aggregates
		}
		st.History = doc.History
	case !os.IsNotExist(err):
		return eris.Wrap(err, "filestore: read scan_history.json")
	}

	entries, err := os.ReadDir(filepath.Join(s.dir, manufacturersDir))
	if err != nil {
		return eris.Wrap(err, "filestore: read manufacturers dir")
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(s.dir, manufacturersDir, e.Name()))
		if err != nil {
			return eris.Wrapf(err, "filestore: read %s", e.Name())
		}
		var m model.ManufacturerRecord
		if err := json.Unmarshal(raw, &m); err != nil {
			return eris.Wrapf(err, "filestore: parse %s", e.Name())
		}
		st.Manufacturers[m.Key] = &m
	}

	s.led.Restore(st)
	return nil
}

// AppendScan applies rec to the ledger and flushes the history document and
// the affected manufacturer document.
func (s *FileStore) AppendScan(ctx context.Context, rec model.ScanRecord) (model.ScanRecord, error) {
	if err := ctx.Err(); err != nil {
		return model.ScanRecord{}, eris.Wrap(err, "filestore: append scan")
	}
	rec = s.led.Append(rec)
	st := s.led.Snapshot()

	if err := writeJSON(filepath.Join(s.dir, "scan_history.json"), historyDoc{
		Aggregates: st.Aggregates,
		History:    st.History,
	}); err != nil {
		return model.ScanRecord{}, err
	}
	key := rec.Product.Manufacturer
	if m := st.Manufacturers[key]; m != nil {
		path := filepath.Join(s.dir, manufacturersDir, safeKey(key)+".json")
		if err := writeJSON(path, m); err != nil {
			return model.ScanRecord{}, err
		}
	}
	return rec, nil
}

func (s *FileStore) Snapshot(ctx context.Context) (ledger.State, error) {
	return s.led.Snapshot(), ctx.Err()
}

func (s *FileStore) GetManufacturer(ctx context.Context, key string) (*model.ManufacturerRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m, ok := s.led.Manufacturer(key)
	if !ok {
		return nil, eris.Wrapf(ErrNotFound, "filestore: manufacturer %q", key)
	}
	return m, nil
}

func (s *FileStore) ListManufacturers(ctx context.Context) ([]model.ManufacturerSummary, error) {
	return s.led.Summaries(), ctx.Err()
}

func (s *FileStore) History(ctx context.Context, q ledger.HistoryQuery) ([]model.ScanRecord, error) {
	return s.led.History(q), ctx.Err()
}

func (s *FileStore) Close() error { return nil }

// writeJSON writes v to path through a temp file in the same directory and
// an atomic rename.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrapf(err, "filestore: marshal %s", filepath.Base(path))
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return eris.Wrap(err, "filestore: create temp file")
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return eris.Wrapf(err, "filestore: write %s", filepath.Base(path))
	}
	if err := tmp.Close(); err != nil {
		return eris.Wrap(err, "filestore: close temp file")
	}
	return eris.Wrapf(os.Rename(tmp.Name(), path), "filestore: replace %s", filepath.Base(path))
}

var unsafeKeyRe = regexp.MustCompile(`[^a-z0-9]+`)

// safeKey turns a manufacturer key into a stable file name.
func safeKey(key string) string {
	k := strings.Trim(unsafeKeyRe.ReplaceAllString(strings.ToLower(key), "_"), "_")
	if k == "" {
		k = "unnamed"
	}
	return k
}
