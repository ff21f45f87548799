package modkit

import (
	"queststat/internal/platform/config"
	"queststat/internal/platform/logger"
	"queststat/internal/platform/metrics"
)

// Deps holds core dependencies passed to modules
// this is wiring only and does not introduce new abstractions
type Deps struct {
	Log     *logger.Logger
	Cfg     config.Conf
	Metrics *metrics.Metrics
}

// ZeroOK returns true when deps are safe to use with zero values in tests
// a nil Metrics records nothing and a nil Log falls back to the root logger
func (d Deps) ZeroOK() bool { return true }

// Logger returns Log or the named root logger when Log is unset
func (d Deps) Logger(component string) *logger.Logger {
	if d.Log != nil {
		ll := d.Log.With().Str("component", component).Logger()
		return &ll
	}
	return logger.Named(component)
}
