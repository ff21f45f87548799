package module

import (
	"slices"
	"sync"
)

// process-wide registry, filled by the CLI on each command run
var (
	mu  sync.RWMutex
	reg = map[string]Module{}
)

// Register stores m under its name, replacing an earlier module of that name
func Register(m Module) {
	mu.Lock()
	reg[m.Name()] = m
	mu.Unlock()
}

// Lookup returns the module registered under name
func Lookup(name string) (Module, bool) {
	mu.RLock()
	m, ok := reg[name]
	mu.RUnlock()
	return m, ok
}

// PortsAs resolves a T from the ports of the module registered under name
func PortsAs[T any](name string) (T, bool) {
	m, ok := Lookup(name)
	if !ok {
		var zero T
		return zero, false
	}
	return PortsOf[T](m)
}

// Names lists registered module names in sorted order
func Names() []string {
	mu.RLock()
	out := make([]string, 0, len(reg))
	for name := range reg {
		out = append(out, name)
	}
	mu.RUnlock()
	slices.Sort(out)
	return out
}

// Reset clears the registry
func Reset() {
	mu.Lock()
	reg = map[string]Module{}
	mu.Unlock()
}
