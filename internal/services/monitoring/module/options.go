package module

import "queststat/internal/platform/config"

// Options holds configuration settings for the monitoring module
type Options struct {
	PagesDir     string
	Workers      int
	MaxPageBytes int
}

// FromConfig extracts Options from the given config.Conf
func FromConfig(cfg config.Conf) Options {
	mc := cfg.Prefix("QUESTSTAT_MONITORING_")
	return Options{
		PagesDir:     mc.MayString("PAGES_DIR", ""),
		Workers:      mc.MayIntIn("WORKERS", 4, 1, 64),
		MaxPageBytes: mc.MayIntIn("MAX_PAGE_BYTES", 32<<20, 1<<10, 1<<30),
	}
}
