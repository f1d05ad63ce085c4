// Package pipeline runs one full compliance scan: seed from the scrape
// payload, extract and reconcile label text, apply optional collaborator
// overrides, score, and record the result.
package pipeline

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/sealcheck/lmscan/internal/extract"
	"github.com/sealcheck/lmscan/internal/identity"
	"github.com/sealcheck/lmscan/internal/model"
	"github.com/sealcheck/lmscan/internal/reconcile"
	"github.com/sealcheck/lmscan/internal/score"
	"github.com/sealcheck/lmscan/internal/store"
	"github.com/sealcheck/lmscan/internal/taxonomy"
	"github.com/sealcheck/lmscan/pkg/gemini"
)

// Result is everything one scan produced: the stored record, the full
// scorer verdict, the reconciliation audit trail, and any collaborator
// warnings. Collaborator failures surface here, never as errors.
type Result struct {
	Record     model.ScanRecord       `json:"record"`
	Compliance model.ComplianceResult `json:"compliance"`
	Audit      []model.AuditEntry     `json:"audit,omitempty"`
	// LLMLevel is the collaborator's own level label, shown alongside the
	// computed level.
	LLMLevel string   `json:"llm_level,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// Pipeline wires the scan stages together. Runs are serialized: the ledger
// append must observe the identity resolution it was based on.
type Pipeline struct {
	mu       sync.Mutex
	store    store.Store
	reg      *taxonomy.Registry
	ex       *extract.Extractor
	rec      *reconcile.Reconciler
	scorer   *score.Scorer
	resolver identity.Resolver
	llm      gemini.Analyzer
	log      *zap.Logger
}

// New assembles a pipeline. llm may be nil to disable the collaborator.
func New(st store.Store, reg *taxonomy.Registry, resolver identity.Resolver, llm gemini.Analyzer) *Pipeline {
	return &Pipeline{
		store:    st,
		reg:      reg,
		ex:       extract.New(reg),
		rec:      reconcile.New(reg),
		scorer:   score.New(reg),
		resolver: resolver,
		llm:      llm,
		log:      zap.L().Named("pipeline"),
	}
}

// Run executes one scan end to end. Only store failures return an error.
func (p *Pipeline) Run(ctx context.Context, in model.ScanInput) (*Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	res := &Result{}
	resolved := model.NewResolvedFields()
	tech := model.TechSnapshot{
		Images:    len(in.Page.Images),
		TextChars: len(in.RawText),
	}

	p.seedFromPage(resolved, in.Page, res)
	p.mergeText(resolved, in.RawText, res, &tech)
	p.mergeRecognized(resolved, in.Recognized, res)
	p.applyLLM(ctx, resolved, in.RawText, res, &tech)

	compliance := p.scorer.Score(resolved)
	res.Compliance = compliance
	res.Warnings = append(res.Warnings, compliance.Warnings...)

	rec := model.ScanRecord{
		Product: model.Product{
			Title:        in.Page.Title,
			URL:          in.URL,
			Manufacturer: p.resolveManufacturer(ctx, resolved, res),
			Origin:       resolved.Get(taxonomy.FieldOrigin),
			MRP:          resolved.Get(taxonomy.FieldMRP),
			Quantity:     resolved.Get(taxonomy.FieldQuantity),
		},
		Compliance: model.ComplianceSnapshot{
			Score:           compliance.Score,
			Level:           compliance.Level,
			RequiredPresent: compliance.RequiredPresent,
			RequiredTotal:   compliance.RequiredTotal,
			MissingFields:   compliance.MissingFields,
			Warnings:        compliance.Warnings,
		},
		Technical: tech,
		Fields:    resolved.Values,
	}

	stored, err := p.store.AppendScan(ctx, rec)
	if err != nil {
		return nil, err
	}
	res.Record = stored
	return res, nil
}

// seedFromPage applies the structured listing fields, then the seller's
// details table. A details-table net quantity outranks every guess.
func (p *Pipeline) seedFromPage(resolved *model.ResolvedFields, page model.PagePayload, res *Result) {
	for _, seed := range []struct {
		key string
		val string
	}{
		{taxonomy.FieldMRP, page.MRP},
		{taxonomy.FieldQuantity, page.Quantity},
		{taxonomy.FieldManufacturer, page.Manufacturer},
		{taxonomy.FieldOrigin, page.Origin},
	} {
		if entry, ok := p.rec.Apply(resolved, seed.key, seed.val, model.SourceScrape); ok {
			res.Audit = append(res.Audit, entry)
		}
	}
	for label, val := range page.Details {
		key, ok := detailField(label)
		if !ok {
			continue
		}
		if entry, applied := p.rec.Apply(resolved, key, val, model.SourceDetails); applied {
			res.Audit = append(res.Audit, entry)
		}
	}
}

func (p *Pipeline) mergeText(resolved *model.ResolvedFields, text string, res *Result, tech *model.TechSnapshot) {
	if strings.TrimSpace(text) == "" {
		return
	}
	if !p.ex.Relevant(text) {
		p.log.Info("text source skipped as irrelevant", zap.Int("chars", len(text)))
		tech.FailedSources = append(tech.FailedSources, "text")
		res.Warnings = append(res.Warnings, "label text matched too few fields and was skipped")
		return
	}
	cs := p.ex.Extract(text)
	res.Audit = append(res.Audit, p.rec.Merge(resolved, cs, model.SourceText)...)
}

func (p *Pipeline) mergeRecognized(resolved *model.ResolvedFields, recognized map[string]string, res *Result) {
	for _, key := range p.fieldKeys() {
		val, ok := recognized[key]
		if !ok {
			continue
		}
		if entry, applied := p.rec.Apply(resolved, key, val, model.SourceRecognized); applied {
			res.Audit = append(res.Audit, entry)
		}
	}
}

func (p *Pipeline) applyLLM(ctx context.Context, resolved *model.ResolvedFields, text string, res *Result, tech *model.TechSnapshot) {
	if p.llm == nil || strings.TrimSpace(text) == "" {
		return
	}
	analysis, err := p.llm.Analyze(ctx, text)
	if err != nil {
		p.log.Warn("collaborator analysis failed", zap.Error(err))
		tech.FailedSources = append(tech.FailedSources, "llm")
		res.Warnings = append(res.Warnings, "label analysis collaborator failed: "+err.Error())
		return
	}
	tech.LLMApplied = true
	res.LLMLevel = analysis.Level
	for _, key := range p.fieldKeys() {
		val, ok := analysis.Fields[key]
		if !ok {
			continue
		}
		if entry, applied := p.rec.Apply(resolved, key, val, model.SourceLLM); applied {
			res.Audit = append(res.Audit, entry)
		}
	}
}

// fieldKeys returns every taxonomy key in registry order, required first.
func (p *Pipeline) fieldKeys() []string {
	return append(p.reg.RequiredKeys(), p.reg.OptionalKeys()...)
}

// resolveManufacturer maps the declared manufacturer onto an existing
// ledger key when one matches. A listing failure only costs the match.
func (p *Pipeline) resolveManufacturer(ctx context.Context, resolved *model.ResolvedFields, res *Result) string {
	raw := resolved.Get(taxonomy.FieldManufacturer)
	if !score.Present(raw) {
		return ""
	}
	rows, err := p.store.ListManufacturers(ctx)
	if err != nil {
		p.log.Warn("listing manufacturers for identity resolution failed", zap.Error(err))
		res.Warnings = append(res.Warnings, "manufacturer identity resolution degraded: "+err.Error())
		return strings.TrimSpace(raw)
	}
	known := make([]string, len(rows))
	for i, r := range rows {
		known[i] = r.Key
	}
	key, matched := p.resolver.Resolve(raw, known)
	if matched {
		p.log.Debug("manufacturer matched existing identity",
			zap.String("raw", raw), zap.String("key", key))
	}
	return key
}

// detailField maps a seller details-table label onto a taxonomy key.
func detailField(label string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "net quantity", "net weight", "quantity":
		return taxonomy.FieldQuantity, true
	case "mrp", "maximum retail price", "price":
		return taxonomy.FieldMRP, true
	case "manufacturer", "marketed by", "manufactured by":
		return taxonomy.FieldManufacturer, true
	case "country of origin", "origin":
		return taxonomy.FieldOrigin, true
	case "batch number", "batch":
		return taxonomy.FieldBatch, true
	case "fssai license", "fssai":
		return taxonomy.FieldLicense, true
	default:
		return "", false
	}
}
