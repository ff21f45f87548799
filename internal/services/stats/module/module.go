// Package module implements the stats module
package module

import (
	"queststat/internal/adapters/pages"
	"queststat/internal/modkit"
	"queststat/internal/services/stats/domain"
	"queststat/internal/services/stats/service"
)

// Ports exposed by the stats module
type Ports struct {
	Extractor domain.ExtractorPort
	Catalog   domain.CatalogPort
}

// Module implements modkit.Module
type Module struct {
	deps  modkit.Deps
	name  string
	ports Ports
	svc   *service.Service
}

// New constructs the stats module. Overrides win over config when set;
// WithPages and WithRules replace the page directory and the embedded rules
func New(deps modkit.Deps, overrides Options, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("stats")}, opts...)...)

	cfg := FromConfig(deps.Cfg)
	if overrides.PagesDir != "" {
		cfg.PagesDir = overrides.PagesDir
	}
	if overrides.FinishPlaceholder != "" {
		cfg.FinishPlaceholder = overrides.FinishPlaceholder
	}
	if overrides.MaxPageBytes != 0 {
		cfg.MaxPageBytes = overrides.MaxPageBytes
	}

	var src pages.Source = pages.Dir{Root: cfg.PagesDir, MaxBytes: int64(cfg.MaxPageBytes)}
	if b.Pages != nil {
		src = b.Pages
	}

	svc := service.New(src, b.Rules, deps.Metrics, deps.Logger(b.Name), service.Config{
		FinishPlaceholder: cfg.FinishPlaceholder,
		TrimEdges:         cfg.TrimEdges,
		MaxPageBytes:      int64(cfg.MaxPageBytes),
	})

	return &Module{
		deps:  deps,
		name:  b.Name,
		svc:   svc,
		ports: Ports{Extractor: svc, Catalog: svc},
	}
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return m.name }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// Service exposes the concrete service for callers that need page helpers
func (m *Module) Service() *service.Service { return m.svc }
