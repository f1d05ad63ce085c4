package ledger

import (
	"sort"
	"time"

	"github.com/sealcheck/lmscan/internal/model"
)

// trendWindow is the width of each trend comparison window.
const trendWindow = 30 * 24 * time.Hour

// trendEpsilon is the average-score change below which a trend counts as
// stable.
const trendEpsilon = 0.05

// Overview is the industry-wide roll-up served by the reporting API and
// printed by the manufacturers command.
type Overview struct {
	TotalScans         int                             `json:"total_scans"`
	TotalManufacturers int                             `json:"total_manufacturers"`
	AverageScore       float64                         `json:"average_score"`
	Distribution       map[model.Level]int             `json:"distribution"`
	RequiredFields     map[string]*model.FieldCounter  `json:"required_fields"`
	OptionalFields     map[string]*model.FieldCounter  `json:"optional_fields"`
	Categories         map[string]*model.CategoryStats `json:"categories"`
	DailyScans         map[string]int                  `json:"daily_scans"`
	Weekly             map[string]*model.WeeklyStats   `json:"weekly"`
	LastUpdated        time.Time                       `json:"last_updated"`
}

// Overview derives the industry roll-up from the state. The global average
// is reconstructed from the per-manufacturer running averages, which cover
// every scan ever attributed, not just the bounded history.
func (st State) Overview() Overview {
	ov := Overview{
		TotalManufacturers: len(st.Manufacturers),
	}
	if agg := st.Aggregates; agg != nil {
		ov.TotalScans = agg.TotalScans
		ov.Distribution = agg.Distribution
		ov.RequiredFields = agg.RequiredFields
		ov.OptionalFields = agg.OptionalFields
		ov.Categories = agg.Categories
		ov.DailyScans = agg.DailyScans
		ov.Weekly = agg.Weekly
		ov.LastUpdated = agg.LastUpdated
	}
	var sum float64
	var n int
	for _, m := range st.Manufacturers {
		sum += m.AverageScore * float64(m.TotalProducts)
		n += m.TotalProducts
	}
	if n > 0 {
		ov.AverageScore = sum / float64(n)
	}
	return ov
}

// Trend compares a manufacturer's scans in the 30 days before now against
// the 30 days before that. Windows are built from the retained history, so
// a very old or evicted scan does not participate.
func (st State) Trend(key string, now time.Time) (model.TrendReport, bool) {
	if _, ok := st.Manufacturers[key]; !ok {
		return model.TrendReport{}, false
	}
	cutRecent := now.Add(-trendWindow)
	cutPrevious := now.Add(-2 * trendWindow)

	var report model.TrendReport
	var recentSum, prevSum float64
	for _, rec := range st.History {
		if rec.Product.Manufacturer != key || rec.Timestamp.Before(cutPrevious) || rec.Timestamp.After(now) {
			continue
		}
		if rec.Timestamp.Before(cutRecent) {
			report.PreviousScans++
			prevSum += rec.Compliance.Score
		} else {
			report.RecentScans++
			recentSum += rec.Compliance.Score
		}
	}
	if report.RecentScans > 0 {
		report.RecentAverage = recentSum / float64(report.RecentScans)
	}
	if report.PreviousScans > 0 {
		report.PreviousAverage = prevSum / float64(report.PreviousScans)
	}

	report.Direction = "stable"
	if report.RecentScans > 0 && report.PreviousScans > 0 {
		switch diff := report.RecentAverage - report.PreviousAverage; {
		case diff > trendEpsilon:
			report.Direction = "improving"
		case diff < -trendEpsilon:
			report.Direction = "declining"
		}
	}
	return report, true
}

// TopPerformers ranks manufacturers with at least minScans attributed scans
// by average score, best first, and returns up to n of them.
func (st State) TopPerformers(n, minScans int) []model.ManufacturerSummary {
	return st.rank(n, minScans, func(a, b model.ManufacturerSummary) bool {
		return a.AverageScore > b.AverageScore
	})
}

// BottomPerformers is TopPerformers with the order reversed.
func (st State) BottomPerformers(n, minScans int) []model.ManufacturerSummary {
	return st.rank(n, minScans, func(a, b model.ManufacturerSummary) bool {
		return a.AverageScore < b.AverageScore
	})
}

func (st State) rank(n, minScans int, less func(a, b model.ManufacturerSummary) bool) []model.ManufacturerSummary {
	var rows []model.ManufacturerSummary
	for _, key := range sortedKeys(st.Manufacturers) {
		m := st.Manufacturers[key]
		if m.TotalProducts < minScans {
			continue
		}
		rows = append(rows, summarize(m))
	}
	sort.SliceStable(rows, func(i, j int) bool { return less(rows[i], rows[j]) })
	if n > 0 && len(rows) > n {
		rows = rows[:n]
	}
	return rows
}

func summarize(m *model.ManufacturerRecord) model.ManufacturerSummary {
	return model.ManufacturerSummary{
		Key:           m.Key,
		DisplayName:   m.DisplayName,
		TotalProducts: m.TotalProducts,
		AverageScore:  m.AverageScore,
		Level:         model.LevelForScore(m.AverageScore),
		Categories:    sortedKeys(m.Categories),
		LastUpdated:   m.LastUpdated,
	}
}
