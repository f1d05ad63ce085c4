// Package extract runs the taxonomy's declaration patterns over raw label
// text and produces per-field candidate lists for reconciliation.
package extract

import (
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/sealcheck/lmscan/internal/model"
	"github.com/sealcheck/lmscan/internal/taxonomy"
)

// relevanceThreshold is the minimum number of distinct fields that must
// match before a text blob is considered label text at all.
const relevanceThreshold = 2

var spaceRe = regexp.MustCompile(`\s+`)

// Extractor applies a field registry's patterns to text sources. It holds no
// per-scan state and is safe for concurrent use.
type Extractor struct {
	reg *taxonomy.Registry
}

// New returns an Extractor over the given registry.
func New(reg *taxonomy.Registry) *Extractor {
	return &Extractor{reg: reg}
}

// Extract collects every pattern match per field, in pattern-then-position
// order, trimmed, whitespace-collapsed, normalized, and deduplicated. A
// panic inside one field's patterns loses only that field's candidates.
func (e *Extractor) Extract(text string) model.CandidateSet {
	out := make(model.CandidateSet)
	if strings.TrimSpace(text) == "" {
		return out
	}

	for i := range e.reg.Fields {
		f := &e.reg.Fields[i]
		if vals := extractField(f, text); len(vals) > 0 {
			out[f.Key] = vals
		}
	}

	// License numbers are reported in ascending order so equal claims from
	// different sources compare equal. Barcode candidates that duplicate a
	// license number are the license read twice, not a barcode.
	if lic := out[taxonomy.FieldLicense]; len(lic) > 0 {
		sort.Strings(lic)
		if codes := out[taxonomy.FieldBarcode]; len(codes) > 0 {
			out[taxonomy.FieldBarcode] = withoutClaimed(codes, lic)
			if len(out[taxonomy.FieldBarcode]) == 0 {
				delete(out, taxonomy.FieldBarcode)
			}
		}
	}
	return out
}

// Relevant reports whether text matched enough distinct fields to plausibly
// be packaging or label text rather than unrelated page copy.
func (e *Extractor) Relevant(text string) bool {
	return len(e.Extract(text)) >= relevanceThreshold
}

func extractField(f *taxonomy.FieldSpec, text string) (vals []string) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Warn("field extraction panicked",
				zap.String("field", f.Key),
				zap.Any("panic", r))
			vals = nil
		}
	}()

	seen := make(map[string]bool)
	for _, p := range f.Patterns {
		for _, m := range p.FindAllStringSubmatch(text, -1) {
			v := m[0]
			if len(m) > 1 && strings.TrimSpace(m[1]) != "" {
				v = m[1]
			}
			v = spaceRe.ReplaceAllString(strings.TrimSpace(v), " ")
			if f.Normalize != nil {
				v = f.Normalize(v)
			}
			if v == "" || seen[v] {
				continue
			}
			seen[v] = true
			vals = append(vals, v)
		}
	}
	return vals
}

// withoutClaimed drops barcode candidates whose digit content equals one of
// the resolved license numbers.
func withoutClaimed(codes, licenses []string) []string {
	claimed := make(map[string]bool, len(licenses))
	for _, l := range licenses {
		claimed[l] = true
	}
	kept := codes[:0]
	for _, c := range codes {
		if !claimed[c] {
			kept = append(kept, c)
		}
	}
	return kept
}
