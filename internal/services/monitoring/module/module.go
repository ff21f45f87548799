// Package module implements the monitoring module
package module

import (
	"queststat/internal/adapters/pages"
	"queststat/internal/modkit"
	"queststat/internal/services/monitoring/domain"
	"queststat/internal/services/monitoring/service"
)

// Ports exposed by the monitoring module
type Ports struct {
	Loader   domain.LoaderPort
	Analyzer domain.AnalyzerPort
}

// Module implements modkit.Module
type Module struct {
	deps  modkit.Deps
	name  string
	ports Ports
}

// New constructs the monitoring module. Overrides win over config when set;
// WithPages and WithRules replace the page directory and the embedded rules
func New(deps modkit.Deps, overrides Options, opts ...modkit.Option) *Module {
	b := modkit.Build(append([]modkit.Option{modkit.WithName("monitoring")}, opts...)...)

	cfg := FromConfig(deps.Cfg)
	if overrides.PagesDir != "" {
		cfg.PagesDir = overrides.PagesDir
	}
	if overrides.Workers != 0 {
		cfg.Workers = overrides.Workers
	}
	if overrides.MaxPageBytes != 0 {
		cfg.MaxPageBytes = overrides.MaxPageBytes
	}

	var src pages.Source = pages.Dir{Root: cfg.PagesDir, MaxBytes: int64(cfg.MaxPageBytes)}
	if b.Pages != nil {
		src = b.Pages
	}

	svc := service.New(src, b.Rules, deps.Metrics, deps.Logger(b.Name), service.Config{
		Workers:      cfg.Workers,
		MaxPageBytes: int64(cfg.MaxPageBytes),
	})
	return &Module{deps: deps, name: b.Name, ports: Ports{Loader: svc, Analyzer: svc}}
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return m.name }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }
