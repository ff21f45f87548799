package finish

import (
	"fmt"
	"testing"

	"queststat/internal/core/ranking"
	"queststat/internal/core/records"
	"queststat/internal/core/timecodec"
	perr "queststat/internal/platform/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tz = "+03:00"

var start = timecodec.MustParseTimestamp("24.05.2019 21:16:00", tz)

func finishCell(tid int, name, when, extra string) string {
	return fmt.Sprintf(`<div class="wrapper"><a href="/Teams/TeamDetails.aspx?tid=%d">%s</a><br>%s %s</div>`,
		tid, name, when, extra)
}

func levelRecs(team int, adjustments ...int64) []records.Record {
	out := make([]records.Record, len(adjustments))
	for i, a := range adjustments {
		l := i
		out[i] = records.Record{TeamID: team, LevelIndex: &l, AdjustmentMs: a}
	}
	return out
}

func TestCompute(t *testing.T) {
	perTeam := ranking.ByTeam(append(levelRecs(154808, 60000, 0, 126000), levelRecs(10, 0, 0)...))
	cells := []string{
		finishCell(154808, "Dream team best", "24.05.2019 23:24:11.980", "бонус 3 м 6 с"),
		finishCell(10, "Alpha", "25.05.2019 0:00:00.000", ""),
		finishCell(42, "Ghost", "", "timeout"),
	}

	got, err := Compute(cells, tz, start, perTeam)
	require.NoError(t, err)
	require.Len(t, got, 3)

	dream := got[0]
	assert.Equal(t, 154808, dream.TeamID)
	assert.Equal(t, "Dream team best", dream.TeamName)
	assert.Equal(t, int64(7691980), dream.DurationMs)
	assert.Equal(t, int64(186000), dream.AdjustmentMs)
	assert.Equal(t, int64(0), dream.ExtraBonusMs, "all of the finish bonus was earned on levels")
	assert.Equal(t, 3, dream.ClosedLevels)
	assert.Nil(t, dream.LevelIndex)
	assert.Equal(t, "2019-05-24T20:24:11.980Z", dream.CompletedAt.String())

	alpha := got[1]
	assert.Equal(t, int64(0), alpha.ExtraBonusMs, "no finish adjustment means no extra bonus")
	assert.Equal(t, 2, alpha.ClosedLevels)
	assert.Equal(t, int64(2*3600000+44*60000), alpha.DurationMs)

	ghost := got[2]
	assert.True(t, ghost.TimedOut)
	assert.Zero(t, ghost.ClosedLevels)
	assert.Zero(t, ghost.DurationMs)
}

func TestCompute_ExtraBonus(t *testing.T) {
	perTeam := ranking.ByTeam(levelRecs(1, 60000, -30000))
	got, err := Compute([]string{finishCell(1, "a", "24.05.2019 22:00:00", "бонус 5 м")}, tz, start, perTeam)
	require.NoError(t, err)
	assert.Equal(t, int64(300000-30000), got[0].ExtraBonusMs)

	got, err = Compute([]string{finishCell(1, "a", "24.05.2019 22:00:00", "штраф 1 м")}, tz, start, perTeam)
	require.NoError(t, err)
	assert.Equal(t, int64(-60000-30000), got[0].ExtraBonusMs)
}

func TestCompute_ParseFailure(t *testing.T) {
	_, err := Compute([]string{finishCell(1, "a", "24.05.2019 25:00:00", "")}, tz, start, nil)
	require.Error(t, err)
	e, ok := perr.As(err)
	require.True(t, ok)
	assert.Equal(t, "finish.Compute", e.Op())
	assert.Equal(t, perr.ErrorCodeParse, e.Code())
}

func TestFinishColumnAndCells(t *testing.T) {
	m := [][]string{
		{"1: a", `<td class="dataCell">x</td>`},
		{"Итоговое время", finishCell(1, "a", "24.05.2019 22:00:00", ""), "<td></td>"},
	}
	assert.Equal(t, 1, FinishColumn(m))
	assert.Len(t, NewCalculator(nil).Cells(m), 1)
}
