package model

// CandidateSet maps a taxonomy field key to the raw matched strings found in
// one text source, in discovery order. Immutable once built.
type CandidateSet map[string][]string

// Source identifies where a field value came from and how much it is trusted.
type Source struct {
	Name     string `json:"name"`
	Priority int    `json:"priority"`
	// FillOnly sources may populate empty fields but never overwrite a
	// value another source already resolved, regardless of priority.
	FillOnly bool `json:"fill_only"`
}

// Well-known pipeline sources, in ascending trust order. The text pass
// outranks the structured scrape because label text carries the regulated
// wording verbatim; the LLM is a recovery fallback only.
var (
	SourceScrape     = Source{Name: "scrape", Priority: 1}
	SourceText       = Source{Name: "text", Priority: 2}
	SourceRecognized = Source{Name: "recognized", Priority: 2}
	// SourceDetails is the seller's structured details table. Its declared
	// net quantity is authoritative over any regex guess.
	SourceDetails = Source{Name: "details", Priority: 3}
	SourceLLM     = Source{Name: "llm", Priority: 0, FillOnly: true}
)

// ResolvedFields holds the single chosen value per field key together with
// the source that supplied it. Mutated only during reconciliation.
type ResolvedFields struct {
	Values map[string]string `json:"values"`
	// origin tracks, per field, the priority of the source that set it so a
	// later pass can tell "overwrite" from "fill".
	origin map[string]Source
}

// NewResolvedFields returns an empty resolved field set.
func NewResolvedFields() *ResolvedFields {
	return &ResolvedFields{
		Values: make(map[string]string),
		origin: make(map[string]Source),
	}
}

// Get returns the resolved value for key, or "" when unresolved.
func (r *ResolvedFields) Get(key string) string {
	return r.Values[key]
}

// Empty reports whether key has no usable value yet.
func (r *ResolvedFields) Empty(key string) bool {
	return r.Values[key] == ""
}

// OriginOf returns the source that resolved key. The zero Source is
// returned for unresolved fields.
func (r *ResolvedFields) OriginOf(key string) Source {
	return r.origin[key]
}

// Set records value for key as coming from src. Callers go through the
// reconcile package, which enforces the precedence policy before calling Set.
func (r *ResolvedFields) Set(key, value string, src Source) {
	if r.Values == nil {
		r.Values = make(map[string]string)
	}
	if r.origin == nil {
		r.origin = make(map[string]Source)
	}
	r.Values[key] = value
	r.origin[key] = src
}

// AuditEntry records one fill or overwrite performed during reconciliation.
type AuditEntry struct {
	Field     string `json:"field"`
	Old       string `json:"old,omitempty"`
	New       string `json:"new"`
	Source    string `json:"source"`
	Overwrite bool   `json:"overwrite"`
}

// PagePayload is the structured output of the page-scraping collaborator:
// the directly selected listing fields plus the free-form details table and
// any downloaded image paths. The scraper itself lives outside this module.
type PagePayload struct {
	Title        string            `json:"title"`
	MRP          string            `json:"mrp"`
	Quantity     string            `json:"quantity"`
	Manufacturer string            `json:"manufacturer"`
	Origin       string            `json:"origin"`
	Details      map[string]string `json:"details,omitempty"`
	Images       []string          `json:"images,omitempty"`
}

// ScanInput carries everything the pipeline needs for one scan: the scrape
// payload, the concatenated raw text from the OCR/vision collaborator, and
// optionally a per-field map of values that collaborator recognized directly.
type ScanInput struct {
	URL        string            `json:"url"`
	Page       PagePayload       `json:"page"`
	RawText    string            `json:"raw_text,omitempty"`
	Recognized map[string]string `json:"recognized,omitempty"`
}
