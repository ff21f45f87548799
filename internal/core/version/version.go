// Package version provides build information for the queststat binary
package version

import "fmt"

// BuildInfo holds version information about the build
type BuildInfo struct {
	Service string `json:"service"`
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
	Rules   int    `json:"rules"`
}

// Info returns the build information. version, commit and date are set at
// build time with -ldflags "-X queststat/internal/core/version.version=v0.1.0 ..."
func Info(rulesVersion int) BuildInfo {
	return BuildInfo{
		Service: "queststat",
		Version: version,
		Commit:  commit,
		Date:    date,
		Rules:   rulesVersion,
	}
}

// String renders the one-line form printed by --version
func (b BuildInfo) String() string {
	return fmt.Sprintf("%s (commit %s, built %s, rules v%d)", b.Version, b.Commit, b.Date, b.Rules)
}

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)
