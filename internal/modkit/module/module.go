// Package module holds the contract shared by the stats and monitoring
// modules and the process registry the CLI resolves ports from
package module

// Module is a named bundle of ports; Ports is usually a struct of interfaces
type Module interface {
	Ports() any
	Name() string
}
