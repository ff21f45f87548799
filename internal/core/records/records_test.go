package records

import (
	"fmt"
	"testing"

	"queststat/internal/core/timecodec"
	perr "queststat/internal/platform/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tz = "+03:00"

func cell(tid int, name, when, extra string) string {
	return fmt.Sprintf(`<td class="dataCell"><a href="/Teams/TeamDetails.aspx?tid=%d">%s</a>`+
		`<span>(<a href="/UserDetails.aspx?uid=5">cap</a>)</span><br>%s<br>%s</td>`, tid, name, when, extra)
}

func finishCell(tid int, name, when, extra string) string {
	return fmt.Sprintf(`<div class="wrapper"><a href="/Teams/TeamDetails.aspx?tid=%d">%s</a><br>%s %s</div>`,
		tid, name, when, extra)
}

func ts(s string) timecodec.Timestamp { return timecodec.MustParseTimestamp(s, tz) }

func TestParseCell(t *testing.T) {
	idx := 12
	rec, err := ParseCell(cell(166156, "happykolya", "24.05.2019 23:09:23.800", ""), &idx, tz)
	require.NoError(t, err)
	assert.Equal(t, 166156, rec.TeamID)
	assert.Equal(t, "happykolya", rec.TeamName)
	assert.Equal(t, "2019-05-24T20:09:23.800Z", rec.CompletedAt.String())
	assert.Equal(t, 12, rec.Level())
	assert.Zero(t, rec.AdjustmentMs)
	assert.False(t, rec.TimedOut)
}

func TestParseCell_Adjustments(t *testing.T) {
	cases := []struct {
		name  string
		extra string
		want  int64
	}{
		{name: "bonus minutes seconds", extra: "бонус 1 м 30 с", want: 90000},
		{name: "penalty", extra: "штраф 5 м", want: -300000},
		{name: "bonus wins over earlier penalty", extra: "штраф 1 м, бонус 2 м", want: 120000},
		{name: "encoded bonus", extra: "&#x431;&#x43E;&#x43D;&#x443;&#x441; 1 &#x447;", want: 3600000},
		{name: "keyword without duration", extra: "бонус за фото", want: 0},
		{name: "none", extra: "", want: 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rec, err := ParseCell(cell(1, "a", "24.05.2019 21:30:00", c.extra), nil, tz)
			require.NoError(t, err)
			assert.Equal(t, c.want, rec.AdjustmentMs)
			assert.Equal(t, -1, rec.Level())
		})
	}
}

func TestParseCell_TimeoutAndMissingTimestamp(t *testing.T) {
	rec, err := ParseCell(cell(7, "slow", "", "timeout"), nil, tz)
	require.NoError(t, err)
	assert.True(t, rec.TimedOut)
	assert.True(t, rec.CompletedAt.IsZero(), "missing timestamp keeps zero value")

	_, err = ParseCell(cell(7, "slow", "24.05.2019", ""), nil, tz)
	require.Error(t, err)
	assert.Equal(t, perr.ErrorCodeParse, perr.CodeOf(err))

	_, err = ParseCell(cell(7, "slow", "31.02.2019 10:00:00", ""), nil, tz)
	require.Error(t, err)
	e, ok := perr.As(err)
	require.True(t, ok)
	assert.Equal(t, "completedAt", e.Field())
}

func matrix() [][]string {
	return [][]string{
		{"1: Бриф", cell(10, "Alpha", "24.05.2019 21:20:00", ""), cell(20, "Beta", "24.05.2019 21:25:00", ""), "<td></td>"},
		{"2: Логіка", cell(20, "Beta", "24.05.2019 21:40:00", "бонус 1 м"), "<td>&nbsp;</td>", ""},
		{"Итоговое время", finishCell(10, "Alpha", "24.05.2019 23:00:00.000", ""), finishCell(20, "Beta", "24.05.2019 22:00:00", "бонус 1 м")},
	}
}

func TestBuild(t *testing.T) {
	recs, err := Build(matrix(), tz)
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, []int{10, 20, 20}, []int{recs[0].TeamID, recs[1].TeamID, recs[2].TeamID})
	assert.Equal(t, []int{0, 0, 1}, []int{recs[0].Level(), recs[1].Level(), recs[2].Level()})
	assert.Equal(t, int64(60000), recs[2].AdjustmentMs)
	assert.True(t, recs[0].CompletedAt.Equal(ts("24.05.2019 21:20:00")))
}

func TestBuild_FinishFirstKeepsIndexes(t *testing.T) {
	m := matrix()
	m = [][]string{m[2], m[0], m[1]}
	recs, err := Build(m, tz)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 1}, []int{recs[0].Level(), recs[1].Level(), recs[2].Level()})
}

func TestBuild_ParseFailureCarriesPosition(t *testing.T) {
	m := matrix()
	m[1][2] = cell(30, "Gamma", "40.05.2019 21:40:00", "")
	_, err := Build(m, tz)
	require.Error(t, err)
	e, ok := perr.As(err)
	require.True(t, ok)
	assert.Equal(t, perr.ErrorCodeParse, e.Code())
	assert.Equal(t, "records.Build", e.Op())
	assert.Contains(t, err.Error(), "column 1 row 2")
}

func TestFinishCells(t *testing.T) {
	b := NewBuilder(nil)
	m := matrix()
	assert.Equal(t, 2, b.FinishColumn(m))
	assert.Len(t, b.FinishCells(m), 2)
	assert.Equal(t, -1, b.FinishColumn(m[:2]))
	assert.Nil(t, b.FinishCells(m[:2]))
}
