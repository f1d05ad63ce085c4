// Package ledger is the in-memory statistics engine: every completed scan
// updates global, per-manufacturer, per-category and time-bucket aggregates
// in O(1) and lands in a bounded scan history.
package ledger

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sealcheck/lmscan/internal/identity"
	"github.com/sealcheck/lmscan/internal/model"
	"github.com/sealcheck/lmscan/internal/score"
	"github.com/sealcheck/lmscan/internal/taxonomy"
)

const (
	// DefaultHistoryLimit bounds the retained scan records. Aggregates keep
	// counting past the limit; only the raw records are evicted.
	DefaultHistoryLimit = 1000
	// DefaultRecentLimit bounds each manufacturer's recent-products list.
	DefaultRecentLimit = 10
	// compliantThreshold is the score at or above which a scan counts as
	// compliant in category statistics.
	compliantThreshold = 0.75
)

// Options tune the ledger's bounds. Zero values select the defaults.
type Options struct {
	HistoryLimit int
	RecentLimit  int
	Categories   *Categories
}

// State is the full serializable ledger content, shared with the store
// backends for persistence and with reporting for derived views.
type State struct {
	Aggregates    *model.Aggregates                    `json:"aggregates"`
	Manufacturers map[string]*model.ManufacturerRecord `json:"manufacturers"`
	History       []model.ScanRecord                   `json:"history"`
}

// NewState returns an empty initialized state.
func NewState() State {
	return State{
		Aggregates: &model.Aggregates{
			Distribution:   make(map[model.Level]int),
			RequiredFields: make(map[string]*model.FieldCounter),
			OptionalFields: make(map[string]*model.FieldCounter),
			Categories:     make(map[string]*model.CategoryStats),
			DailyScans:     make(map[string]int),
			Weekly:         make(map[string]*model.WeeklyStats),
		},
		Manufacturers: make(map[string]*model.ManufacturerRecord),
	}
}

// Ledger owns a State and applies scans to it. Appends are serialized by
// the pipeline already; the internal lock exists so read-only consumers
// (the HTTP API, exports) can query concurrently.
type Ledger struct {
	mu           sync.RWMutex
	state        State
	reg          *taxonomy.Registry
	cats         *Categories
	historyLimit int
	recentLimit  int
	now          func() time.Time
	log          *zap.Logger
}

// New returns an empty ledger over the given registry.
func New(reg *taxonomy.Registry, opts Options) *Ledger {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = DefaultHistoryLimit
	}
	if opts.RecentLimit <= 0 {
		opts.RecentLimit = DefaultRecentLimit
	}
	if opts.Categories == nil {
		opts.Categories = NewCategories(nil)
	}
	return &Ledger{
		state:        NewState(),
		reg:          reg,
		cats:         opts.Categories,
		historyLimit: opts.HistoryLimit,
		recentLimit:  opts.RecentLimit,
		now:          time.Now,
		log:          zap.L().Named("ledger"),
	}
}

// Restore replaces the ledger content with a previously persisted state.
func (l *Ledger) Restore(st State) {
	l.mu.Lock()
	defer l.mu.Unlock()
	empty := NewState()
	if st.Aggregates == nil {
		st.Aggregates = empty.Aggregates
	}
	if st.Manufacturers == nil {
		st.Manufacturers = empty.Manufacturers
	}
	fillAggregates(st.Aggregates)
	l.state = st
}

// Snapshot returns a deep copy of the ledger state, safe to serialize while
// scans continue.
func (l *Ledger) Snapshot() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return copyState(l.state)
}

// Append attributes rec to its manufacturer and folds it into every
// aggregate. A missing scan id, timestamp or category is assigned here.
// The stored record is returned.
func (l *Ledger) Append(rec model.ScanRecord) model.ScanRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	if rec.Timestamp.IsZero() {
		rec.Timestamp = l.now()
	}
	agg := l.state.Aggregates
	agg.TotalScans++
	if rec.ScanID == "" {
		rec.ScanID = fmt.Sprintf("scan_%s_%d", rec.Timestamp.Format("20060102_150405"), agg.TotalScans)
	}
	if rec.Product.Category == "" {
		rec.Product.Category = l.cats.Classify(rec.Product.Title)
	}
	if rec.Product.Manufacturer == "" {
		rec.Product.Manufacturer = "Unknown"
	}

	sc := rec.Compliance.Score
	agg.Distribution[rec.Compliance.Level]++
	l.observeFields(agg.RequiredFields, agg.OptionalFields, rec.Fields)
	observeCategory(agg.Categories, rec.Product.Category, sc, rec.Compliance.Level, rec.Product.Manufacturer)

	day := rec.Timestamp.Format("2006-01-02")
	agg.DailyScans[day]++
	wk := l.ensureWeek(rec.Timestamp)
	wk.Scans++
	wk.AverageScore = runningAverage(wk.AverageScore, wk.Scans, sc)
	agg.LastUpdated = rec.Timestamp

	l.applyManufacturer(rec)

	l.state.History = append(l.state.History, rec)
	if over := len(l.state.History) - l.historyLimit; over > 0 {
		l.state.History = append(l.state.History[:0:0], l.state.History[over:]...)
	}

	l.log.Info("scan recorded",
		zap.String("scan_id", rec.ScanID),
		zap.String("manufacturer", rec.Product.Manufacturer),
		zap.String("category", rec.Product.Category),
		zap.Float64("score", sc),
		zap.String("level", string(rec.Compliance.Level)))
	return rec
}

func (l *Ledger) applyManufacturer(rec model.ScanRecord) {
	key := rec.Product.Manufacturer
	m := l.state.Manufacturers[key]
	if m == nil {
		m = &model.ManufacturerRecord{
			Key:            key,
			DisplayName:    identity.DisplayKey(key),
			Levels:         make(map[model.Level]int),
			RequiredFields: make(map[string]*model.FieldCounter),
			OptionalFields: make(map[string]*model.FieldCounter),
			Categories:     make(map[string]*model.CategoryStats),
		}
		l.state.Manufacturers[key] = m
	}

	sc := rec.Compliance.Score
	m.TotalProducts++
	m.AverageScore = runningAverage(m.AverageScore, m.TotalProducts, sc)
	m.Levels[rec.Compliance.Level]++
	l.observeFields(m.RequiredFields, m.OptionalFields, rec.Fields)
	observeCategory(m.Categories, rec.Product.Category, sc, rec.Compliance.Level, key)
	m.LastUpdated = rec.Timestamp

	m.Recent = append([]model.RecentProduct{{
		Title:     rec.Product.Title,
		Score:     sc,
		Timestamp: rec.Timestamp,
		Category:  rec.Product.Category,
		URL:       rec.Product.URL,
	}}, m.Recent...)
	if len(m.Recent) > l.recentLimit {
		m.Recent = m.Recent[:l.recentLimit]
	}
}

func (l *Ledger) observeFields(required, optional map[string]*model.FieldCounter, fields map[string]string) {
	for _, f := range l.reg.Required() {
		ensureCounter(required, f.Key).Observe(score.Present(fields[f.Key]))
	}
	for _, f := range l.reg.Optional() {
		ensureCounter(optional, f.Key).Observe(score.Present(fields[f.Key]))
	}
}

func (l *Ledger) ensureWeek(ts time.Time) *model.WeeklyStats {
	y, w := ts.ISOWeek()
	key := fmt.Sprintf("%d-W%02d", y, w)
	wk := l.state.Aggregates.Weekly[key]
	if wk == nil {
		wk = &model.WeeklyStats{}
		l.state.Aggregates.Weekly[key] = wk
	}
	return wk
}

// Manufacturer returns a deep copy of one manufacturer record.
func (l *Ledger) Manufacturer(key string) (*model.ManufacturerRecord, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	m, ok := l.state.Manufacturers[key]
	if !ok {
		return nil, false
	}
	cp := copyManufacturer(m)
	return &cp, true
}

// KnownKeys returns every manufacturer key, for identity resolution.
// Insertion order is not tracked, so keys come back sorted for stable
// first-match semantics.
func (l *Ledger) KnownKeys() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return sortedKeys(l.state.Manufacturers)
}

// Summaries lists all manufacturers as compact rows sorted by key.
func (l *Ledger) Summaries() []model.ManufacturerSummary {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]model.ManufacturerSummary, 0, len(l.state.Manufacturers))
	for _, key := range sortedKeys(l.state.Manufacturers) {
		out = append(out, summarize(l.state.Manufacturers[key]))
	}
	return out
}

// HistoryQuery filters the bounded scan history.
type HistoryQuery struct {
	Manufacturer string
	Category     string
	Limit        int
}

// History returns matching records, newest first.
func (l *Ledger) History(q HistoryQuery) []model.ScanRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []model.ScanRecord
	for i := len(l.state.History) - 1; i >= 0; i-- {
		rec := l.state.History[i]
		if q.Manufacturer != "" && !strings.EqualFold(rec.Product.Manufacturer, q.Manufacturer) {
			continue
		}
		if q.Category != "" && !strings.EqualFold(rec.Product.Category, q.Category) {
			continue
		}
		out = append(out, rec)
		if q.Limit > 0 && len(out) >= q.Limit {
			break
		}
	}
	return out
}

// runningAverage folds one more score into an average that already covers
// n-1 observations.
func runningAverage(avg float64, n int, sc float64) float64 {
	return (avg*float64(n-1) + sc) / float64(n)
}

func ensureCounter(m map[string]*model.FieldCounter, key string) *model.FieldCounter {
	c := m[key]
	if c == nil {
		c = &model.FieldCounter{}
		m[key] = c
	}
	return c
}

func observeCategory(m map[string]*model.CategoryStats, category string, sc float64, lvl model.Level, manufacturer string) {
	cs := m[category]
	if cs == nil {
		cs = &model.CategoryStats{
			Levels:        make(map[model.Level]int),
			Manufacturers: make(map[string]bool),
		}
		m[category] = cs
	}
	cs.Scans++
	cs.AverageScore = runningAverage(cs.AverageScore, cs.Scans, sc)
	if sc >= compliantThreshold {
		cs.Compliant++
	}
	if cs.Levels == nil {
		cs.Levels = make(map[model.Level]int)
	}
	cs.Levels[lvl]++
	if cs.Manufacturers == nil {
		cs.Manufacturers = make(map[string]bool)
	}
	cs.Manufacturers[manufacturer] = true
}

// fillAggregates initializes nil maps on a deserialized aggregates block.
func fillAggregates(agg *model.Aggregates) {
	if agg.Distribution == nil {
		agg.Distribution = make(map[model.Level]int)
	}
	if agg.RequiredFields == nil {
		agg.RequiredFields = make(map[string]*model.FieldCounter)
	}
	if agg.OptionalFields == nil {
		agg.OptionalFields = make(map[string]*model.FieldCounter)
	}
	if agg.Categories == nil {
		agg.Categories = make(map[string]*model.CategoryStats)
	}
	if agg.DailyScans == nil {
		agg.DailyScans = make(map[string]int)
	}
	if agg.Weekly == nil {
		agg.Weekly = make(map[string]*model.WeeklyStats)
	}
}
