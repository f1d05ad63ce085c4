package model

import "time"

// Product is the listing snapshot stored with each scan.
type Product struct {
	Title        string `json:"title"`
	URL          string `json:"url,omitempty"`
	Manufacturer string `json:"manufacturer"`
	Origin       string `json:"origin,omitempty"`
	MRP          string `json:"mrp,omitempty"`
	Quantity     string `json:"quantity,omitempty"`
	Category     string `json:"category"`
}

// ComplianceSnapshot is the per-scan compliance summary persisted in the
// ledger. It repeats the scorer output in a flat, serialization-friendly form.
type ComplianceSnapshot struct {
	Score           float64  `json:"score"`
	Level           Level    `json:"level"`
	RequiredPresent int      `json:"required_present"`
	RequiredTotal   int      `json:"required_total"`
	MissingFields   []string `json:"missing_fields,omitempty"`
	Warnings        []string `json:"warnings,omitempty"`
}

// TechSnapshot records collaborator activity as counts only; raw payloads
// never enter the ledger.
type TechSnapshot struct {
	Images        int      `json:"images"`
	TextChars     int      `json:"text_chars"`
	LLMApplied    bool     `json:"llm_applied"`
	FailedSources []string `json:"failed_sources,omitempty"`
}

// ScanRecord is one completed pipeline run as stored in the bounded history.
type ScanRecord struct {
	ScanID    string             `json:"scan_id"`
	Timestamp time.Time          `json:"timestamp"`
	Product   Product            `json:"product"`
	Compliance ComplianceSnapshot `json:"compliance"`
	Technical TechSnapshot       `json:"technical"`
	Fields    map[string]string  `json:"fields"`
}
