package model

import "time"

// FieldCounter accumulates present/missing counts for one field. Percentage
// is recomputed on every update so serialized documents stay self-describing.
type FieldCounter struct {
	Present    int     `json:"present"`
	Missing    int     `json:"missing"`
	Percentage float64 `json:"percentage"`
}

// Observe records one presence observation and refreshes the percentage.
func (c *FieldCounter) Observe(present bool) {
	if present {
		c.Present++
	} else {
		c.Missing++
	}
	if total := c.Present + c.Missing; total > 0 {
		c.Percentage = float64(c.Present) / float64(total) * 100
	}
}

// CategoryStats tracks compliance for one product category.
type CategoryStats struct {
	Scans        int            `json:"scans"`
	Compliant    int            `json:"compliant"`
	AverageScore float64        `json:"average_score"`
	Levels       map[Level]int  `json:"levels,omitempty"`
	Manufacturers map[string]bool `json:"manufacturers,omitempty"`
}

// WeeklyStats is the per-ISO-week trend bucket.
type WeeklyStats struct {
	Scans        int     `json:"scans"`
	AverageScore float64 `json:"average_score"`
}

// RecentProduct is one entry in a manufacturer's bounded recent-products list.
type RecentProduct struct {
	Title     string    `json:"title"`
	Score     float64   `json:"score"`
	Timestamp time.Time `json:"timestamp"`
	Category  string    `json:"category"`
	URL       string    `json:"url,omitempty"`
}

// ManufacturerRecord accumulates everything known about one canonical
// manufacturer identity. Created on first sighting, updated on every scan
// attributed to the key, never deleted. AverageScore is the running mean of
// every score ever attributed, independent of history eviction.
type ManufacturerRecord struct {
	Key           string                    `json:"key"`
	DisplayName   string                    `json:"display_name"`
	TotalProducts int                       `json:"total_products"`
	AverageScore  float64                   `json:"average_score"`
	Levels        map[Level]int             `json:"levels"`
	RequiredFields map[string]*FieldCounter `json:"required_fields"`
	OptionalFields map[string]*FieldCounter `json:"optional_fields"`
	Categories    map[string]*CategoryStats `json:"categories"`
	Recent        []RecentProduct           `json:"recent_products"`
	LastUpdated   time.Time                 `json:"last_updated"`
}

// Aggregates is the global incrementally-maintained statistics block.
// Counters only ever grow; evicting old scan records from the bounded
// history does not roll any of these back.
type Aggregates struct {
	TotalScans     int                       `json:"total_scans"`
	Distribution   map[Level]int             `json:"distribution"`
	RequiredFields map[string]*FieldCounter  `json:"required_fields"`
	OptionalFields map[string]*FieldCounter  `json:"optional_fields"`
	Categories     map[string]*CategoryStats `json:"categories"`
	DailyScans     map[string]int            `json:"daily_scans"`
	Weekly         map[string]*WeeklyStats   `json:"weekly"`
	LastUpdated    time.Time                 `json:"last_updated"`
}

// ManufacturerSummary is the compact listing row for one manufacturer.
type ManufacturerSummary struct {
	Key           string    `json:"key"`
	DisplayName   string    `json:"display_name"`
	TotalProducts int       `json:"total_products"`
	AverageScore  float64   `json:"average_score"`
	Level         Level     `json:"level"`
	Categories    []string  `json:"categories,omitempty"`
	LastUpdated   time.Time `json:"last_updated"`
}

// TrendReport compares a manufacturer's recent window against the previous
// one. Direction is "improving", "declining" or "stable".
type TrendReport struct {
	RecentAverage   float64 `json:"recent_average"`
	PreviousAverage float64 `json:"previous_average"`
	Direction       string  `json:"direction"`
	RecentScans     int     `json:"recent_scans"`
	PreviousScans   int     `json:"previous_scans"`
}
