// Package service implements the monitoring pipeline
package service

import (
	"bytes"
	"context"
	"time"

	"queststat/internal/adapters/pages"
	"queststat/internal/adapters/tableparse"
	"queststat/internal/core/monitoring"
	"queststat/internal/core/rulepack"
	"queststat/internal/platform/bind"
	perr "queststat/internal/platform/errors"
	"queststat/internal/platform/logger"
	"queststat/internal/platform/metrics"
	"queststat/internal/services/monitoring/domain"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const pipeline = "monitoring"

// Config for the monitoring service
type Config struct {
	Workers      int
	MaxPageBytes int64
}

// Service implements domain.LoaderPort and domain.AnalyzerPort
type Service struct {
	Pages   pages.Source
	Metrics *metrics.Metrics
	Log     *logger.Logger
	Cfg     Config

	parser *monitoring.Parser
}

// New constructs a monitoring service; rp may be nil for the embedded rule pack
func New(src pages.Source, rp *rulepack.Pack, m *metrics.Metrics, log *logger.Logger, cfg Config) *Service {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if log == nil {
		log = logger.Named("monitoring")
	}
	return &Service{
		Pages:   src,
		Metrics: m,
		Log:     log,
		Cfg:     cfg,
		parser:  monitoring.NewParser(rp),
	}
}

// Load parses every page with at most Cfg.Workers in flight and joins the
// entries in page order. The first failing page cancels the rest
func (s *Service) Load(ctx context.Context, in domain.PageInput) (entries []monitoring.Entry, err error) {
	began := time.Now()
	ctx = logger.WithRun(ctx, uuid.NewString(), in.GameID)
	log := logger.C(ctx)
	defer func() { s.Metrics.ObserveRun(pipeline, err, time.Since(began)) }()

	if err := bind.Struct(in); err != nil {
		return nil, perr.WithOp(err, "monitoring.Load")
	}
	if s.Pages == nil {
		return nil, perr.WithOp(perr.InvalidArgf("no page source configured"), "monitoring.Load")
	}
	log.Info().Int("pages", len(in.Pages)).Int("workers", s.Cfg.Workers).Msg("monitoring: load started")

	perPage := make([][]monitoring.Entry, len(in.Pages))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.Cfg.Workers)
	for i, name := range in.Pages {
		g.Go(func() error {
			if s.Metrics != nil {
				s.Metrics.PagesInFlight.Inc()
				defer s.Metrics.PagesInFlight.Dec()
			}
			es, err := s.page(gctx, name, in.Timezone)
			if err != nil {
				if gctx.Err() == nil {
					s.Metrics.ParseError("monitoring_page")
				}
				return perr.WithOp(perr.Wrapf(err, perr.CodeOf(err), "page %s", name), "monitoring.Load")
			}
			perPage[i] = es
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Warn().Err(err).Msg("monitoring: load failed")
		return nil, err
	}

	for _, es := range perPage {
		entries = append(entries, es...)
	}
	s.Metrics.AddParsed("code_entries", len(entries))
	log.Info().Int("entries", len(entries)).Dur("took", time.Since(began)).Msg("monitoring: load finished")
	return entries, nil
}

func (s *Service) page(ctx context.Context, name, tz string) ([]monitoring.Entry, error) {
	b, err := pages.Read(ctx, s.Pages, name, s.Cfg.MaxPageBytes)
	if err != nil {
		return nil, err
	}
	cols, err := tableparse.Parse(bytes.NewReader(b), tableparse.Monitoring)
	if err != nil {
		return nil, err
	}
	return s.parser.ParseColumns(cols, tz)
}

// Report aggregates entries per team and per team level
func (s *Service) Report(ctx context.Context, entries []monitoring.Entry) domain.Report {
	runID := logger.RunID(ctx)
	if runID == "" {
		runID = uuid.NewString()
	}
	a := monitoring.Analyze(entries)
	s.Log.Debug().Str("run_id", runID).Int("teams", len(a.TotalStat)).Msg("monitoring: analyzed")
	return domain.Report{RunID: runID, Entries: len(entries), Stats: a}
}

// Team returns one team's per-level and per-player breakdown
func (s *Service) Team(entries []monitoring.Entry, teamID int) domain.TeamDetails {
	d := domain.TeamDetails{TeamID: teamID, ByUser: monitoring.ByPlayer(entries, teamID)}
	for _, tl := range monitoring.Analyze(entries).ByTeam {
		if tl.TeamID == teamID {
			d.ByLevel = tl.Levels
			break
		}
	}
	return d
}

// Player returns one player's per-level breakdown
func (s *Service) Player(entries []monitoring.Entry, userID int) domain.PlayerDetails {
	return domain.PlayerDetails{UserID: userID, ByLevel: monitoring.PlayerLevels(entries, userID)}
}

// Codes lists the submissions of a team or player on one level
func (s *Service) Codes(entries []monitoring.Entry, f monitoring.Filter) []monitoring.Entry {
	return monitoring.Codes(entries, f)
}
