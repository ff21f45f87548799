// Package finish computes per-team totals from the finish column of the
// results matrix
package finish

import (
	"queststat/internal/core/ranking"
	"queststat/internal/core/records"
	"queststat/internal/core/rulepack"
	"queststat/internal/core/timecodec"
	perr "queststat/internal/platform/errors"
)

// Result is a team's game total. LevelIndex is always nil; it is kept so a
// result reads like the synthetic last level of the catalog
type Result struct {
	TeamID       int                 `json:"teamId"`
	TeamName     string              `json:"teamName"`
	DurationMs   int64               `json:"durationMs"`
	ExtraBonusMs int64               `json:"extraBonusMs"`
	ClosedLevels int                 `json:"closedLevels"`
	TimedOut     bool                `json:"timedOut"`
	LevelIndex   *int                `json:"levelIndex"`
	CompletedAt  timecodec.Timestamp `json:"completedAt"`
	AdjustmentMs int64               `json:"adjustmentMs"`
}

// Calculator parses finish cells with a records.Builder
type Calculator struct {
	b *records.Builder
}

// NewCalculator returns a calculator over pack (rulepack.Default() when nil)
func NewCalculator(pack *rulepack.Pack) *Calculator {
	return &Calculator{b: records.NewBuilder(pack)}
}

// Compute is NewCalculator(nil).Compute
func Compute(finishCells []string, offset string, gameStart timecodec.Timestamp, perTeam []ranking.Group) ([]Result, error) {
	return NewCalculator(nil).Compute(finishCells, offset, gameStart, perTeam)
}

// FinishColumn is the index of the first column holding finish cells, -1 if none
func FinishColumn(matrix [][]string) int { return records.NewBuilder(nil).FinishColumn(matrix) }

// Cells returns the finish cells of matrix
func (c *Calculator) Cells(matrix [][]string) []string { return c.b.FinishCells(matrix) }

// Compute parses every finish cell and derives the totals. Duration runs from
// gameStart (0 when the cell has no timestamp). Extra bonus is the finish adjustment minus the adjustments
// already attributed to the team's levels, or 0 when the finish cell carries
// no adjustment. Closed levels counts the team's level records
func (c *Calculator) Compute(finishCells []string, offset string, gameStart timecodec.Timestamp, perTeam []ranking.Group) ([]Result, error) {
	byTeam := make(map[int][]records.Record, len(perTeam))
	for _, g := range perTeam {
		byTeam[g.ID] = g.Data
	}

	out := make([]Result, 0, len(finishCells))
	for i, cell := range finishCells {
		rec, err := c.b.ParseCell(cell, nil, offset)
		if err != nil {
			return nil, perr.WithOp(perr.Wrapf(err, perr.ErrorCodeParse, "finish cell %d", i), "finish.Compute")
		}

		levels := byTeam[rec.TeamID]
		var attributed int64
		for _, r := range levels {
			attributed += r.AdjustmentMs
		}
		var extra int64
		if rec.AdjustmentMs != 0 {
			extra = rec.AdjustmentMs - attributed
		}

		var dur int64
		if !rec.CompletedAt.IsZero() {
			dur = timecodec.Diff(rec.CompletedAt, gameStart)
		}

		out = append(out, Result{
			TeamID:       rec.TeamID,
			TeamName:     rec.TeamName,
			DurationMs:   dur,
			ExtraBonusMs: extra,
			ClosedLevels: len(levels),
			TimedOut:     rec.TimedOut,
			CompletedAt:  rec.CompletedAt,
			AdjustmentMs: rec.AdjustmentMs,
		})
	}
	return out, nil
}
