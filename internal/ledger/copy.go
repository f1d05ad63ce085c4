package ledger

import (
	"sort"

	"github.com/sealcheck/lmscan/internal/model"
)

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func copyState(st State) State {
	out := State{
		Aggregates:    copyAggregates(st.Aggregates),
		Manufacturers: make(map[string]*model.ManufacturerRecord, len(st.Manufacturers)),
		History:       append([]model.ScanRecord(nil), st.History...),
	}
	for k, m := range st.Manufacturers {
		cp := copyManufacturer(m)
		out.Manufacturers[k] = &cp
	}
	return out
}

func copyAggregates(agg *model.Aggregates) *model.Aggregates {
	if agg == nil {
		return NewState().Aggregates
	}
	cp := *agg
	cp.Distribution = copyMap(agg.Distribution)
	cp.RequiredFields = copyCounters(agg.RequiredFields)
	cp.OptionalFields = copyCounters(agg.OptionalFields)
	cp.Categories = copyCategories(agg.Categories)
	cp.DailyScans = copyMap(agg.DailyScans)
	cp.Weekly = make(map[string]*model.WeeklyStats, len(agg.Weekly))
	for k, w := range agg.Weekly {
		wc := *w
		cp.Weekly[k] = &wc
	}
	return &cp
}

func copyManufacturer(m *model.ManufacturerRecord) model.ManufacturerRecord {
	cp := *m
	cp.Levels = copyMap(m.Levels)
	cp.RequiredFields = copyCounters(m.RequiredFields)
	cp.OptionalFields = copyCounters(m.OptionalFields)
	cp.Categories = copyCategories(m.Categories)
	cp.Recent = append([]model.RecentProduct(nil), m.Recent...)
	return cp
}

func copyMap[K comparable, V int | string | bool](m map[K]V) map[K]V {
	if m == nil {
		return nil
	}
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyCounters(m map[string]*model.FieldCounter) map[string]*model.FieldCounter {
	out := make(map[string]*model.FieldCounter, len(m))
	for k, c := range m {
		cc := *c
		out[k] = &cc
	}
	return out
}

func copyCategories(m map[string]*model.CategoryStats) map[string]*model.CategoryStats {
	out := make(map[string]*model.CategoryStats, len(m))
	for k, cs := range m {
		cc := *cs
		cc.Levels = copyMap(cs.Levels)
		cc.Manufacturers = copyMap(cs.Manufacturers)
		out[k] = &cc
	}
	return out
}
