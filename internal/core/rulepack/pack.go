// Package rulepack loads the keyword tables and page markers used to classify
// scraped cells. The tables ship embedded as rules.yaml and are compiled once
package rulepack

import (
	_ "embed"
	"maps"
	"regexp"
	"slices"
	"strings"
	"sync"

	perr "queststat/internal/platform/errors"

	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var embedded []byte

type rawLevelType struct {
	Code     int      `yaml:"code"`
	Name     string   `yaml:"name"`
	Patterns []string `yaml:"patterns"`
}

type rawPack struct {
	Version    int             `yaml:"version"`
	LevelTypes []rawLevelType  `yaml:"level_types"`
	Levels     LevelMarkers    `yaml:"levels"`
	Records    RecordMarkers   `yaml:"records"`
	Monitoring MonitorKeywords `yaml:"monitoring"`
	GameInfo   GameInfoLabels  `yaml:"game_info"`
}

// LevelMarkers are the strings the level catalog parser looks for
type LevelMarkers struct {
	FinishPlaceholder string `yaml:"finish_placeholder"`
	DismissedMarker   string `yaml:"dismissed_marker"`
}

// RecordMarkers are the strings the team record builder looks for
type RecordMarkers struct {
	DataCellMarker   string `yaml:"data_cell_marker"`
	FinishCellMarker string `yaml:"finish_cell_marker"`
	TimeoutMarker    string `yaml:"timeout_marker"`
	BonusKeyword     string `yaml:"bonus_keyword"`
	PenaltyKeyword   string `yaml:"penalty_keyword"`
}

// MonitorKeywords are the strings the code log parser looks for
type MonitorKeywords struct {
	SpacerPrefix   string `yaml:"spacer_prefix"`
	SuccessGlyph   string `yaml:"success_glyph"`
	TimeoutKeyword string `yaml:"timeout_keyword"`
	RemovedKeyword string `yaml:"removed_keyword"`
}

// GameInfoLabels locate cells in the game details table
type GameInfoLabels struct {
	TitleMarker string `yaml:"title_marker"`
	StartLabel  string `yaml:"start_label"`
	FinishLabel string `yaml:"finish_label"`
}

// LevelType is one compiled (pattern, code) row of the level category table
type LevelType struct {
	Code int
	Name string
	re   *regexp.Regexp
}

// Match reports whether text carries one of the type keywords
func (lt LevelType) Match(text string) bool { return lt.re.MatchString(text) }

// Pack is the compiled, read-only rule set
type Pack struct {
	Version    int
	LevelTypes []LevelType
	Levels     LevelMarkers
	Records    RecordMarkers
	Monitoring MonitorKeywords
	GameInfo   GameInfoLabels
}

// Load compiles the embedded rules.yaml
func Load() (*Pack, error) { return Parse(embedded) }

// Parse compiles a rules document; used by Load and by tests with custom tables
func Parse(doc []byte) (*Pack, error) {
	var rp rawPack
	if err := yaml.Unmarshal(doc, &rp); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeValidation, "rulepack: parse rules")
	}
	if rp.Version != 1 {
		return nil, perr.WithField(perr.Newf(perr.ErrorCodeValidation, "rulepack: unsupported rules version %d (want 1)", rp.Version), "version")
	}

	p := &Pack{
		Version:    rp.Version,
		Levels:     rp.Levels,
		Records:    rp.Records,
		Monitoring: rp.Monitoring,
		GameInfo:   rp.GameInfo,
	}

	seen := make(map[int]struct{}, len(rp.LevelTypes))
	for _, lt := range rp.LevelTypes {
		if lt.Code <= 0 {
			return nil, perr.WithField(perr.Newf(perr.ErrorCodeValidation, "rulepack: level type %q: code must be positive", lt.Name), "level_types")
		}
		if _, dup := seen[lt.Code]; dup {
			return nil, perr.WithField(perr.Newf(perr.ErrorCodeValidation, "rulepack: duplicate level type code %d", lt.Code), "level_types")
		}
		seen[lt.Code] = struct{}{}
		if len(lt.Patterns) == 0 {
			return nil, perr.WithField(perr.Newf(perr.ErrorCodeValidation, "rulepack: level type %q has no patterns", lt.Name), "level_types")
		}
		expr := "(?i)(?:" + strings.Join(lt.Patterns, "|") + ")"
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, perr.WithField(perr.Wrapf(err, perr.ErrorCodeValidation, "rulepack: compile %q", expr), "level_types")
		}
		p.LevelTypes = append(p.LevelTypes, LevelType{Code: lt.Code, Name: lt.Name, re: re})
	}

	if err := p.validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Pack) validate() error {
	required := map[string]string{
		"levels.dismissed_marker":    p.Levels.DismissedMarker,
		"records.data_cell_marker":   p.Records.DataCellMarker,
		"records.finish_cell_marker": p.Records.FinishCellMarker,
		"records.timeout_marker":     p.Records.TimeoutMarker,
		"records.bonus_keyword":      p.Records.BonusKeyword,
		"records.penalty_keyword":    p.Records.PenaltyKeyword,
		"monitoring.success_glyph":   p.Monitoring.SuccessGlyph,
		"monitoring.timeout_keyword": p.Monitoring.TimeoutKeyword,
		"monitoring.removed_keyword": p.Monitoring.RemovedKeyword,
		"game_info.start_label":      p.GameInfo.StartLabel,
		"game_info.finish_label":     p.GameInfo.FinishLabel,
	}
	for _, k := range slices.Sorted(maps.Keys(required)) {
		if strings.TrimSpace(required[k]) == "" {
			return perr.WithField(perr.Newf(perr.ErrorCodeValidation, "rulepack: %s is required", k), k)
		}
	}
	return nil
}

// LevelType returns the first category code whose keywords occur in text, 0 when none do
func (p *Pack) LevelType(text string) int {
	for _, lt := range p.LevelTypes {
		if lt.Match(text) {
			return lt.Code
		}
	}
	return 0
}

// Default returns the embedded pack, compiled on first use. The embedded
// document is covered by tests so a failure here is a build defect
var Default = sync.OnceValue(func() *Pack {
	p, err := Load()
	if err != nil {
		panic(err)
	}
	return p
})
