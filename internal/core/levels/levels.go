// Package levels builds the ordered level catalog from the header row of the
// scraped results matrix
package levels

import (
	"strings"

	"queststat/internal/core/normalize"
	"queststat/internal/core/rulepack"
)

// Level is one entry of the catalog. Positions are dense and follow the
// catalog order; the synthetic finish entry is last
type Level struct {
	Level    Label  `json:"level"`
	Name     string `json:"name"`
	Position int    `json:"position"`
	Type     int    `json:"type"`
	Removed  bool   `json:"removed"`
}

// Options tune the parser; zero values fall back to the rule pack
type Options struct {
	FinishPlaceholder string
}

// Parser turns header cells into levels
type Parser struct {
	pack        *rulepack.Pack
	placeholder string
}

// NewParser returns a parser over pack (rulepack.Default() when nil)
func NewParser(pack *rulepack.Pack, opts Options) *Parser {
	if pack == nil {
		pack = rulepack.Default()
	}
	ph := opts.FinishPlaceholder
	if ph == "" {
		ph = pack.Levels.FinishPlaceholder
	}
	return &Parser{pack: pack, placeholder: ph}
}

// Parse is NewParser(nil, Options{}).Parse
func Parse(matrix [][]string) []Level { return NewParser(nil, Options{}).Parse(matrix) }

// Parse reads row 0 of every column of a column-major matrix. The first column
// whose label is not numeric is the finish column and moves to the end with
// type 0; further non-numeric columns keep their place as ordinary levels.
// They are never dropped: the result always has one level per column, so
// stat rows built from the same matrix stay aligned with it
func (p *Parser) Parse(matrix [][]string) []Level {
	out := make([]Level, 0, len(matrix))
	finish := -1
	for _, col := range matrix {
		header := ""
		if len(col) > 0 {
			header = col[0]
		}
		lvl := p.column(header)
		if finish < 0 && !lvl.Level.IsNumeric() {
			finish = len(out)
			lvl.Type = 0
		}
		out = append(out, lvl)
	}

	if finish >= 0 && finish != len(out)-1 {
		f := out[finish]
		out = append(out[:finish], out[finish+1:]...)
		out = append(out, f)
	}
	for i := range out {
		out[i].Position = i
	}
	return out
}

func (p *Parser) column(header string) Level {
	decoded := normalize.Decode(header)
	parts := strings.Split(decoded, ":")
	full := strings.Join(parts, " ")

	name := strings.Join(parts[1:], " ")
	name = normalize.DropDismissed(name)
	name = normalize.DropUserSegment(name)
	name = strings.TrimSpace(name)
	if name == "" {
		name = p.placeholder
	}

	return Level{
		Level:   parseLabel(parts[0]),
		Name:    name,
		Type:    p.pack.LevelType(normalize.Fold(full)),
		Removed: strings.Contains(full, p.pack.Levels.DismissedMarker),
	}
}

// MergeTypes keeps operator-assigned types from an earlier catalog when the
// game is re-scraped. Types are matched by position; fresh levels beyond the
// old catalog keep their parsed type
func MergeTypes(existing, fresh []Level) []Level {
	out := make([]Level, len(fresh))
	copy(out, fresh)
	for i := range out {
		if i < len(existing) {
			out[i].Type = existing[i].Type
		}
	}
	return out
}
