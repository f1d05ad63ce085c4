// Package score turns a resolved field set into a compliance verdict.
package score

import (
	"fmt"
	"strings"

	"github.com/sealcheck/lmscan/internal/model"
	"github.com/sealcheck/lmscan/internal/taxonomy"
)

// sentinels are values a collaborator reports when a field could not be
// read. They count as absent, not as declarations.
var sentinels = map[string]bool{
	"":                     true,
	"n/a":                  true,
	"not found":            true,
	"not found on package": true,
}

// Present reports whether value is a usable declaration rather than empty
// or a not-found sentinel. Comparison is case-insensitive after trimming.
func Present(value string) bool {
	return !sentinels[strings.ToLower(strings.TrimSpace(value))]
}

// Scorer computes compliance results against one field registry.
type Scorer struct {
	reg *taxonomy.Registry
}

// New returns a Scorer over the given registry.
func New(reg *taxonomy.Registry) *Scorer {
	return &Scorer{reg: reg}
}

// Score computes the verdict for resolved. The score is the fraction of
// required fields present; optional fields and value-quality checks only
// contribute warnings.
func (s *Scorer) Score(resolved *model.ResolvedFields) model.ComplianceResult {
	res := model.ComplianceResult{
		Present:       make(map[string]bool, len(s.reg.Fields)),
		RequiredTotal: len(s.reg.Required()),
	}

	for _, f := range s.reg.Required() {
		ok := Present(resolved.Get(f.Key))
		res.Present[f.Key] = ok
		if ok {
			res.RequiredPresent++
		} else {
			res.MissingFields = append(res.MissingFields, f.Display)
		}
	}
	for _, f := range s.reg.Optional() {
		ok := Present(resolved.Get(f.Key))
		res.Present[f.Key] = ok
		if !ok {
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s not declared", f.Display))
		}
	}

	if v := resolved.Get(taxonomy.FieldMRP); Present(v) {
		if _, err := taxonomy.ParseMRP(v); err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("MRP %q does not parse to a positive amount", v))
		}
	}
	if v := resolved.Get(taxonomy.FieldQuantity); Present(v) && !taxonomy.HasUnit(v) {
		res.Warnings = append(res.Warnings, fmt.Sprintf("net quantity %q carries no measurement unit", v))
	}

	if res.RequiredTotal > 0 {
		res.Score = float64(res.RequiredPresent) / float64(res.RequiredTotal)
	}
	res.Level = model.LevelForScore(res.Score)
	return res
}
