// Package modkit holds what the stats and monitoring modules share: Deps,
// build options, and the Module contract
package modkit

import "queststat/internal/modkit/module"

// Module is the surface the CLI registers and resolves ports from
type Module = module.Module

// Builder is the shape of a module constructor
type Builder func(Deps, ...Option) Module
