package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	perr "queststat/internal/platform/errors"
	"queststat/internal/platform/testkit"
	mondomain "queststat/internal/services/monitoring/domain"
	monmod "queststat/internal/services/monitoring/module"
	"queststat/internal/services/stats/domain"
	statsmod "queststat/internal/services/stats/module"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testdata = "../adapters/tableparse/testdata"

func run(t *testing.T, args ...string) (string, string, int) {
	t.Helper()
	var out, errOut bytes.Buffer
	code := Execute(append([]string{"--pages-dir", testdata}, args...), &out, &errOut)
	return out.String(), errOut.String(), code
}

func TestStatsJSON(t *testing.T) {
	out, errOut, code := run(t, "stats", "--game", "game.html", "--results", "results.html")
	require.Equal(t, 0, code, errOut)

	var res domain.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, "+03:00", res.Game.Timezone)
	require.Len(t, res.Levels, 4)
	require.Len(t, res.Finish, 2)
	assert.Equal(t, int64(6240000), res.Finish[0].DurationMs)
	assert.Equal(t, int64(360000), res.Finish[1].ExtraBonusMs)
}

func TestStatsTable(t *testing.T) {
	out, errOut, code := run(t, "--no-color", "-o", "table", "stats", "--game", "game.html", "--results", "results.html")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "Поиск клада")
	assert.Contains(t, out, "Beta")
	assert.Contains(t, out, "1:44:00")
}

func TestLevelsKeepsExistingTypes(t *testing.T) {
	prior := filepath.Join(t.TempDir(), "levels.json")
	require.NoError(t, os.WriteFile(prior, []byte(`{"runId":"x","levels":[{"level":1,"name":"Старт","position":0,"type":7,"removed":false}]}`), 0o600))

	out, errOut, code := run(t, "levels", "--results", "results.html", "--existing", prior)
	require.Equal(t, 0, code, errOut)

	var lf levelsFile
	require.NoError(t, json.Unmarshal([]byte(out), &lf))
	require.Len(t, lf.Levels, 4)
	assert.Equal(t, 7, lf.Levels[0].Type)
	assert.Equal(t, 1, lf.Levels[1].Type)
}

func TestMonitoring(t *testing.T) {
	out, errOut, code := run(t, "monitoring", "--timezone", "+03:00", "monitoring-1.html", "monitoring-2.html")
	require.Equal(t, 0, code, errOut)

	var r mondomain.Report
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, 7, r.Entries)
	require.Len(t, r.Stats.TotalStat, 2)
	assert.InDelta(t, 40.0, r.Stats.TotalStat[0].CorrectPercent, 1e-9)

	out, errOut, code = run(t, "monitoring", "--timezone", "+03:00", "--glob", "monitoring-*.html", "--team", "1")
	require.Equal(t, 0, code, errOut)
	var td mondomain.TeamDetails
	require.NoError(t, json.Unmarshal([]byte(out), &td))
	assert.Equal(t, 1, td.TeamID)
	assert.Len(t, td.ByUser, 2)
}

func TestCodesTable(t *testing.T) {
	testkit.Serial(t)
	testkit.Swap(t, &color.NoColor, true)
	t.Setenv("QUESTSTAT_FORMAT", "TABLE")

	out, errOut, code := run(t, "codes", "--timezone", "+03:00",
		"--level", "2", "--team", "1", "monitoring-1.html", "monitoring-2.html")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "SINCE PREV")
	assert.Contains(t, out, "-0:01:00")
}

func TestErrorsAreWirePayloads(t *testing.T) {
	cases := []struct {
		name  string
		args  []string
		kind  string
		field string
	}{
		{"bad format", []string{"-o", "xml", "stats"}, "invalid_argument", "format"},
		{"no input", []string{"stats"}, "invalid_argument", "results"},
		{"missing page", []string{"stats", "--results", "nope.html", "--start", "24.05.2019 21:16:00", "--timezone", "+03:00"}, "io", ""},
		{"bad timezone", []string{"monitoring", "--timezone", "Kyiv", "monitoring-1.html"}, "validation", "timezone"},
		{"codes needs level", []string{"codes", "--team", "1", "monitoring-1.html"}, "invalid_argument", "level"},
		{"team and player", []string{"monitoring", "--team", "1", "--player", "11", "monitoring-1.html"}, "invalid_argument", "team"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, errOut, code := run(t, tc.args...)
			assert.Equal(t, 1, code)
			assert.Empty(t, out)

			var w perr.Wire
			require.NoError(t, json.Unmarshal([]byte(errOut), &w), errOut)
			assert.Equal(t, tc.kind, w.Kind)
			if tc.field != "" {
				assert.Equal(t, tc.field, w.Field)
			}
		})
	}
}

func TestRulesFile(t *testing.T) {
	out, errOut, code := run(t, "--rules", "../core/rulepack/rules.yaml", "levels", "--results", "results.html")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "Поиск клада")

	bad := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("version: 2\n"), 0o600))
	_, errOut, code = run(t, "--rules", bad, "levels", "--results", "results.html")
	assert.Equal(t, 1, code)
	var w perr.Wire
	require.NoError(t, json.Unmarshal([]byte(errOut), &w), errOut)
	assert.Equal(t, "validation", w.Kind)
	assert.Equal(t, "rules", w.Field)
}

func TestMetricsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queststat.prom")
	_, errOut, code := run(t, "--metrics-file", path, "monitoring", "--timezone", "+03:00", "monitoring-1.html")
	require.Equal(t, 0, code, errOut)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `queststat_runs_total{outcome="ok",pipeline="monitoring"} 1`)
}

func TestDurationFormat(t *testing.T) {
	assert.Equal(t, "1:44:00", ms(6240000))
	assert.Equal(t, "-0:01:00", ms(-60000))
	assert.Equal(t, "0:00:00", ms(0))
}

func TestPortsOf_Unregistered(t *testing.T) {
	_, err := portsOf[statsmod.Ports]("no-such-module")
	require.Error(t, err)
	assert.Equal(t, perr.ErrorCodeNotFound, perr.CodeOf(err))
	assert.Contains(t, err.Error(), "no-such-module")

	_, _, code := run(t, "stats", "--game", "game.html", "--results", "results.html")
	require.Equal(t, 0, code)
	p, err := portsOf[statsmod.Ports]("stats")
	require.NoError(t, err)
	assert.NotNil(t, p.Extractor)

	_, err = portsOf[monmod.Ports]("stats")
	require.Error(t, err, "ports of another type")
	assert.Equal(t, perr.ErrorCodeNotFound, perr.CodeOf(err))
}
