package module

import "queststat/internal/platform/config"

// Options holds configuration settings for the stats module
type Options struct {
	PagesDir          string
	FinishPlaceholder string
	TrimEdges         bool
	MaxPageBytes      int
}

// FromConfig extracts Options from the given config.Conf
func FromConfig(cfg config.Conf) Options {
	sc := cfg.Prefix("QUESTSTAT_STATS_")
	return Options{
		PagesDir:          sc.MayString("PAGES_DIR", ""),
		FinishPlaceholder: sc.MayString("FINISH_PLACEHOLDER", ""),
		TrimEdges:         sc.MayBool("TRIM_EDGES", true),
		MaxPageBytes:      sc.MayIntIn("MAX_PAGE_BYTES", 32<<20, 1<<10, 1<<30),
	}
}
