// Package reconcile merges field candidates from multiple sources into one
// resolved value per field under a fixed precedence policy.
package reconcile

import (
	"strings"

	"go.uber.org/zap"

	"github.com/sealcheck/lmscan/internal/model"
	"github.com/sealcheck/lmscan/internal/taxonomy"
)

// Reconciler applies the precedence policy: a higher-priority source
// overwrites a lower one, equal or lower priority leaves the value alone,
// and fill-only sources touch empty fields exclusively. Every accepted
// change is returned as an audit entry and logged.
type Reconciler struct {
	reg *taxonomy.Registry
	log *zap.Logger
}

// New returns a Reconciler over the given registry.
func New(reg *taxonomy.Registry) *Reconciler {
	return &Reconciler{reg: reg, log: zap.L().Named("reconcile")}
}

// Merge folds a candidate set from one source into resolved, taking the
// first candidate per field. Fields are visited in registry order so the
// audit trail is deterministic.
func (r *Reconciler) Merge(resolved *model.ResolvedFields, cs model.CandidateSet, src model.Source) []model.AuditEntry {
	var audit []model.AuditEntry
	for i := range r.reg.Fields {
		key := r.reg.Fields[i].Key
		vals := cs[key]
		if len(vals) == 0 {
			continue
		}
		if entry, ok := r.Apply(resolved, key, vals[0], src); ok {
			audit = append(audit, entry)
		}
	}
	return audit
}

// Apply offers a single value for key from src and reports whether it was
// accepted. Empty offers are always rejected.
func (r *Reconciler) Apply(resolved *model.ResolvedFields, key, value string, src model.Source) (model.AuditEntry, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return model.AuditEntry{}, false
	}

	old := resolved.Get(key)
	switch {
	case old == "":
		// fill
	case src.FillOnly:
		return model.AuditEntry{}, false
	case src.Priority <= resolved.OriginOf(key).Priority:
		return model.AuditEntry{}, false
	case old == value:
		// Re-setting the same value would only churn the audit trail.
		return model.AuditEntry{}, false
	}

	resolved.Set(key, value, src)
	entry := model.AuditEntry{
		Field:     key,
		Old:       old,
		New:       value,
		Source:    src.Name,
		Overwrite: old != "",
	}
	r.log.Debug("field resolved",
		zap.String("field", key),
		zap.String("source", src.Name),
		zap.Bool("overwrite", entry.Overwrite))
	return entry, true
}
