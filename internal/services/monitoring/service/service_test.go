package service

import (
	"context"
	"testing"

	"queststat/internal/adapters/pages"
	"queststat/internal/core/monitoring"
	perr "queststat/internal/platform/errors"
	"queststat/internal/platform/metrics"
	"queststat/internal/services/monitoring/domain"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const fixtures = "../../../adapters/tableparse/testdata"

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newSvc(workers int) (*Service, *metrics.Metrics) {
	m := metrics.MustNew()
	return New(pages.Dir{Root: fixtures}, nil, m, nil, Config{Workers: workers}), m
}

func load(t *testing.T, s *Service, names ...string) []monitoring.Entry {
	t.Helper()
	es, err := s.Load(context.Background(), domain.PageInput{GameID: "65406", Pages: names, Timezone: "+03:00"})
	require.NoError(t, err)
	return es
}

func TestLoad_PageOrder(t *testing.T) {
	s, m := newSvc(4)
	es := load(t, s, "monitoring-1.html", "monitoring-2.html")
	require.Len(t, es, 7)
	assert.Equal(t, 1, es[0].Level)
	assert.Equal(t, "KOD1", es[0].Code)
	assert.Equal(t, "2019-05-24T18:30:00.000Z", es[0].SubmittedAt.String())
	assert.Equal(t, 2, es[3].Level)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.PagesInFlight))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.Parsed.WithLabelValues("code_entries")))

	reversed := load(t, s, "monitoring-2.html", "monitoring-1.html")
	assert.Equal(t, es[3:], reversed[:4])
	assert.Equal(t, es[:3], reversed[4:])
}

func TestLoad_Deterministic(t *testing.T) {
	names := []string{"monitoring-1.html", "monitoring-2.html", "monitoring-1.html", "monitoring-2.html"}
	serial, _ := newSvc(1)
	wide, _ := newSvc(8)
	assert.Equal(t, load(t, serial, names...), load(t, wide, names...))
}

func TestLoad_Failures(t *testing.T) {
	s, m := newSvc(2)
	ctx := context.Background()

	_, err := s.Load(ctx, domain.PageInput{Pages: []string{"monitoring-1.html", "missing.html"}, Timezone: "+03:00"})
	require.Error(t, err)
	assert.Equal(t, perr.ErrorCodeIO, perr.CodeOf(err))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ParseErrors.WithLabelValues("monitoring_page")))

	_, err = s.Load(ctx, domain.PageInput{Pages: []string{"results.html"}, Timezone: "+03:00"})
	assert.Equal(t, perr.ErrorCodeNotFound, perr.CodeOf(err), "results page has no form")

	_, err = s.Load(ctx, domain.PageInput{Timezone: "+03:00"})
	assert.Equal(t, perr.ErrorCodeValidation, perr.CodeOf(err))

	_, err = s.Load(ctx, domain.PageInput{Pages: []string{"monitoring-1.html"}, Timezone: "UTC"})
	e, ok := perr.As(err)
	require.True(t, ok)
	assert.Equal(t, "timezone", e.Field())
}

func TestReportAndDetails(t *testing.T) {
	s, _ := newSvc(2)
	es := load(t, s, "monitoring-1.html", "monitoring-2.html")

	r := s.Report(context.Background(), es)
	assert.NotEmpty(t, r.RunID)
	assert.Equal(t, 7, r.Entries)
	require.Len(t, r.Stats.TotalStat, 2)
	alpha := r.Stats.TotalStat[0]
	assert.Equal(t, 1, alpha.GroupKey.TeamID)
	assert.Equal(t, "Alpha", alpha.GroupKey.TeamName)
	assert.Equal(t, 5, alpha.TotalEntries)
	assert.Equal(t, 2, alpha.CorrectEntries)
	assert.InDelta(t, 40.0, alpha.CorrectPercent, 1e-9)
	assert.InDelta(t, 100.0, r.Stats.TotalStat[1].CorrectPercent, 1e-9)

	team := s.Team(es, 1)
	require.Len(t, team.ByLevel, 2)
	assert.Equal(t, 3, team.ByLevel[1].TotalEntries)
	require.Len(t, team.ByUser, 2)
	assert.Equal(t, 11, team.ByUser[0].GroupKey.UserID)
	assert.Equal(t, 2, team.ByUser[0].CorrectEntries)

	player := s.Player(es, 11)
	require.Len(t, player.ByLevel, 2)
	assert.Equal(t, 2, player.ByLevel[0].TotalEntries)

	codes := s.Codes(es, monitoring.Filter{Level: 2, TeamID: 1})
	require.Len(t, codes, 3)
	assert.True(t, codes[0].IsDuplicate)
	assert.False(t, codes[1].IsDuplicate)
	require.NotNil(t, codes[0].TimeSincePrevMs)
	assert.Equal(t, int64(-60000), *codes[0].TimeSincePrevMs)
	assert.Nil(t, codes[2].TimeSincePrevMs)
}
