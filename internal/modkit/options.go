package modkit

import (
	"queststat/internal/adapters/pages"
	"queststat/internal/core/rulepack"
)

// Option adjusts how a module is built
type Option func(*Built)

// Built is what a module constructor needs beyond Deps. Nil Pages means the
// module opens its configured directory; nil Rules means the embedded pack
type Built struct {
	Name  string
	Pages pages.Source
	Rules *rulepack.Pack
}

// Build applies opts in order; later options win
func Build(opts ...Option) Built {
	var b Built
	for _, o := range opts {
		o(&b)
	}
	return b
}

// WithName sets the name used in logs and the registry
func WithName(name string) Option {
	return func(b *Built) { b.Name = name }
}

// WithPages reads pages from src instead of a directory
func WithPages(src pages.Source) Option {
	return func(b *Built) { b.Pages = src }
}

// WithRules swaps the keyword tables
func WithRules(p *rulepack.Pack) Option {
	return func(b *Built) { b.Rules = p }
}
