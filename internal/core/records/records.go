// Package records extracts one completion record per (team, level) from the
// data cells of the scraped results matrix
package records

import (
	"regexp"
	"strings"

	"queststat/internal/core/normalize"
	"queststat/internal/core/rulepack"
	"queststat/internal/core/timecodec"
	perr "queststat/internal/platform/errors"
)

// Record is a team's result on one level. LevelIndex is nil only for the
// finish record. DurationMs and BestTime are filled in by ranking
type Record struct {
	TeamID       int                 `json:"teamId"`
	LevelIndex   *int                `json:"levelIndex"`
	TeamName     string              `json:"teamName"`
	CompletedAt  timecodec.Timestamp `json:"completedAt"`
	AdjustmentMs int64               `json:"adjustmentMs"`
	TimedOut     bool                `json:"timedOut"`
	DurationMs   int64               `json:"durationMs"`
	BestTime     bool                `json:"bestTime"`
}

// Level returns the level index, -1 for the finish record
func (r Record) Level() int {
	if r.LevelIndex == nil {
		return -1
	}
	return *r.LevelIndex
}

var (
	dateRe  = regexp.MustCompile(`\d{1,2}\.\d{1,2}\.\d{4}`)
	clockRe = regexp.MustCompile(`\d{1,2}:\d{2}:\d{2}(?:\.\d{1,3})?`)
)

// Builder parses cells with the markers of a rule pack
type Builder struct {
	pack     *rulepack.Pack
	adjustRe *regexp.Regexp
}

// NewBuilder returns a builder over pack (rulepack.Default() when nil)
func NewBuilder(pack *rulepack.Pack) *Builder {
	if pack == nil {
		pack = rulepack.Default()
	}
	kw := regexp.QuoteMeta(pack.Records.BonusKeyword) + "|" + regexp.QuoteMeta(pack.Records.PenaltyKeyword)
	return &Builder{
		pack:     pack,
		adjustRe: regexp.MustCompile(`(?:` + kw + `)[\p{Cyrillic}0-9 ]*`),
	}
}

// Build is NewBuilder(nil).Build
func Build(matrix [][]string, offset string) ([]Record, error) {
	return NewBuilder(nil).Build(matrix, offset)
}

// ParseCell is NewBuilder(nil).ParseCell
func ParseCell(cell string, levelIndex *int, offset string) (Record, error) {
	return NewBuilder(nil).ParseCell(cell, levelIndex, offset)
}

// Build walks a column-major matrix and emits a record for every data cell
// below the header row. Level indexes count columns left to right, skipping
// the finish column, so they line up with catalog positions.
// A cell without a timestamp yields a zero CompletedAt; a timestamp that is
// present but invalid fails the whole build
func (b *Builder) Build(matrix [][]string, offset string) ([]Record, error) {
	finish := b.FinishColumn(matrix)
	var out []Record
	idx := 0
	for c, col := range matrix {
		if c == finish {
			continue
		}
		for r := 1; r < len(col); r++ {
			cell := col[r]
			if !strings.Contains(cell, b.pack.Records.DataCellMarker) {
				continue
			}
			level := idx
			rec, err := b.ParseCell(cell, &level, offset)
			if err != nil {
				err = perr.WithField(perr.Wrapf(err, perr.ErrorCodeParse, "column %d row %d", c, r), "completedAt")
				return nil, perr.WithOp(err, "records.Build")
			}
			out = append(out, rec)
		}
		idx++
	}
	return out, nil
}

// FinishColumn returns the index of the first column holding a finish cell, -1 if none
func (b *Builder) FinishColumn(matrix [][]string) int {
	for c, col := range matrix {
		for r := 1; r < len(col); r++ {
			if strings.Contains(col[r], b.pack.Records.FinishCellMarker) {
				return c
			}
		}
	}
	return -1
}

// FinishCells returns the finish cells of the finish column, header excluded
func (b *Builder) FinishCells(matrix [][]string) []string {
	c := b.FinishColumn(matrix)
	if c < 0 {
		return nil
	}
	var cells []string
	for _, cell := range matrix[c][1:] {
		if strings.Contains(cell, b.pack.Records.FinishCellMarker) {
			cells = append(cells, cell)
		}
	}
	return cells
}

// ParseCell extracts a record from one cell
func (b *Builder) ParseCell(cell string, levelIndex *int, offset string) (Record, error) {
	decoded := normalize.Decode(cell)
	rec := Record{
		TeamID:       normalize.IntAfter(cell, "tid="),
		LevelIndex:   levelIndex,
		TeamName:     strings.TrimSpace(normalize.FirstBracketed(normalize.After(decoded, "tid="))),
		AdjustmentMs: b.adjustment(decoded),
		TimedOut:     strings.Contains(decoded, b.pack.Records.TimeoutMarker),
	}
	ts, err := completedAt(decoded, offset)
	if err != nil {
		return Record{}, err
	}
	rec.CompletedAt = ts
	return rec, nil
}

// completedAt reads the first date and the first time of day after it
func completedAt(text, offset string) (timecodec.Timestamp, error) {
	loc := dateRe.FindStringIndex(text)
	if loc == nil {
		return timecodec.Timestamp{}, nil
	}
	clock := clockRe.FindString(text[loc[1]:])
	if clock == "" {
		return timecodec.Timestamp{}, perr.WithField(perr.Parsef("date %q has no time of day", text[loc[0]:loc[1]]), "completedAt")
	}
	ts, err := timecodec.ParseTimestamp(text[loc[0]:loc[1]]+" "+clock, offset)
	if err != nil {
		return timecodec.Timestamp{}, perr.WithField(err, "completedAt")
	}
	return ts, nil
}

// adjustment is +duration after the bonus keyword or -duration after the
// penalty keyword; a bonus anywhere in the cell takes precedence. Text after
// the keyword that holds no duration counts as no adjustment
func (b *Builder) adjustment(text string) int64 {
	matches := b.adjustRe.FindAllString(text, -1)
	if len(matches) == 0 {
		return 0
	}
	bonus, penalty := b.pack.Records.BonusKeyword, b.pack.Records.PenaltyKeyword
	for _, kw := range []string{bonus, penalty} {
		for _, m := range matches {
			rest, ok := strings.CutPrefix(m, kw)
			if !ok {
				continue
			}
			ms, err := timecodec.ParseDuration(rest)
			if err != nil {
				return 0
			}
			if kw == penalty {
				return -ms
			}
			return ms
		}
	}
	return 0
}
