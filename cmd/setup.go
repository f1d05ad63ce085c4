package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sealcheck/lmscan/internal/config"
	"github.com/sealcheck/lmscan/internal/identity"
	"github.com/sealcheck/lmscan/internal/ledger"
	"github.com/sealcheck/lmscan/internal/pipeline"
	"github.com/sealcheck/lmscan/internal/store"
	"github.com/sealcheck/lmscan/internal/taxonomy"
	"github.com/sealcheck/lmscan/pkg/gemini"
)

// env bundles the long-lived components a command needs.
type env struct {
	Store    store.Store
	Pipeline *pipeline.Pipeline
	llm      *gemini.Client
}

// initStore validates the config for mode and opens the persistence backend
// with a freshly restored ledger.
func initStore(cfg *config.Config, mode string) (store.Store, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	cats := ledger.NewCategories(nil)
	if cfg.Ledger.CategoryTable != "" {
		loaded, err := ledger.LoadCategories(cfg.Ledger.CategoryTable)
		if err != nil {
			return nil, err
		}
		cats = loaded
	}

	led := ledger.New(taxonomy.Default(), ledger.Options{
		HistoryLimit: cfg.Ledger.HistoryLimit,
		RecentLimit:  cfg.Ledger.RecentLimit,
		Categories:   cats,
	})
	st, err := store.Open(cfg.Store.Driver, cfg.Store.Path, led)
	if err != nil {
		return nil, eris.Wrap(err, "cmd: open store")
	}
	return st, nil
}

// initPipeline opens the store and assembles the scan pipeline, including
// the Gemini collaborator when a key is configured.
func initPipeline(ctx context.Context, cfg *config.Config, mode string) (*env, error) {
	st, err := initStore(cfg, mode)
	if err != nil {
		return nil, err
	}

	var llm *gemini.Client
	var analyzer gemini.Analyzer
	if cfg.Gemini.Key != "" {
		opts := []gemini.Option{gemini.WithRateLimit(cfg.Gemini.RequestsPerSecond)}
		if len(cfg.Gemini.Models) > 0 {
			opts = append(opts, gemini.WithModels(cfg.Gemini.Models...))
		}
		llm, err = gemini.NewClient(ctx, cfg.Gemini.Key, opts...)
		if err != nil {
			st.Close()
			return nil, err
		}
		analyzer = llm
		zap.L().Info("gemini collaborator enabled")
	}

	return &env{
		Store:    st,
		Pipeline: pipeline.New(st, taxonomy.Default(), identity.FirstTokenResolver{}, analyzer),
		llm:      llm,
	}, nil
}

func (e *env) Close() {
	if e.llm != nil {
		e.llm.Close()
	}
	e.Store.Close()
}
