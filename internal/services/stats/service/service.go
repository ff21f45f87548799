// Package service implements the stats pipeline
package service

import (
	"bytes"
	"context"
	"time"

	"queststat/internal/adapters/pages"
	"queststat/internal/adapters/tableparse"
	"queststat/internal/core/finish"
	"queststat/internal/core/gameinfo"
	"queststat/internal/core/levels"
	"queststat/internal/core/ranking"
	"queststat/internal/core/records"
	"queststat/internal/core/rulepack"
	"queststat/internal/core/timecodec"
	"queststat/internal/platform/bind"
	perr "queststat/internal/platform/errors"
	"queststat/internal/platform/logger"
	"queststat/internal/platform/metrics"
	"queststat/internal/services/stats/domain"

	"github.com/google/uuid"
)

const pipeline = "stats"

// Config for the stats service
type Config struct {
	FinishPlaceholder string
	// TrimEdges drops the first and last columns of a results page table
	TrimEdges    bool
	MaxPageBytes int64
}

// Service implements domain.ExtractorPort and domain.CatalogPort
type Service struct {
	Pages   pages.Source
	Metrics *metrics.Metrics
	Log     *logger.Logger
	Cfg     Config

	levels  *levels.Parser
	records *records.Builder
	finish  *finish.Calculator
	game    *gameinfo.Parser
}

// New constructs a stats service; rp may be nil for the embedded rule pack
func New(src pages.Source, rp *rulepack.Pack, m *metrics.Metrics, log *logger.Logger, cfg Config) *Service {
	if rp == nil {
		rp = rulepack.Default()
	}
	if log == nil {
		log = logger.Named("stats")
	}
	return &Service{
		Pages:   src,
		Metrics: m,
		Log:     log,
		Cfg:     cfg,
		levels:  levels.NewParser(rp, levels.Options{FinishPlaceholder: cfg.FinishPlaceholder}),
		records: records.NewBuilder(rp),
		finish:  finish.NewCalculator(rp),
		game:    gameinfo.NewParser(rp),
	}
}

// Extract validates the metadata and runs the pipeline over b.Matrix
func (s *Service) Extract(ctx context.Context, b domain.Bundle) (res domain.Result, err error) {
	began := time.Now()
	runID := uuid.NewString()
	ctx = logger.WithRun(ctx, runID, b.Meta.GameID)
	log := s.log(ctx)
	defer func() { s.Metrics.ObserveRun(pipeline, err, time.Since(began)) }()

	if err := bind.Struct(b); err != nil {
		return domain.Result{}, perr.WithOp(err, "stats.Extract")
	}
	start, err := timecodec.ParseTimestamp(b.Meta.Start, b.Meta.Timezone)
	if err != nil {
		return domain.Result{}, perr.WithOp(perr.WithField(err, "meta.start"), "stats.Extract")
	}

	log.Info().Int("columns", len(b.Matrix)).Str("start", start.String()).Msg("stats: run started")

	cat := s.levels.Parse(b.Matrix)
	recs, err := s.records.Build(b.Matrix, b.Meta.Timezone)
	if err != nil {
		s.Metrics.ParseError("records")
		log.Warn().Err(err).Msg("stats: records failed")
		return domain.Result{}, err
	}
	if missing := countZero(recs); missing > 0 {
		log.Warn().Int("records", missing).Msg("stats: records without a timestamp get zero duration")
	}

	ranked := ranking.Rank(recs, start)
	totals, err := s.finish.Compute(s.finish.Cells(b.Matrix), b.Meta.Timezone, start, ranked.ByTeam)
	if err != nil {
		s.Metrics.ParseError("finish")
		log.Warn().Err(err).Msg("stats: finish failed")
		return domain.Result{}, err
	}

	s.Metrics.AddParsed("levels", len(cat))
	s.Metrics.AddParsed("records", len(recs))
	s.Metrics.AddParsed("finish_results", len(totals))

	res = domain.Result{
		RunID:   runID,
		Game:    gameinfo.Meta{Name: b.Meta.Name, Start: start, Timezone: b.Meta.Timezone},
		Levels:  cat,
		ByTeam:  ranked.ByTeam,
		ByLevel: ranked.ByLevel,
		Finish:  totals,
	}
	log.Info().
		Int("levels", len(cat)).
		Int("records", len(recs)).
		Int("teams", len(ranked.ByTeam)).
		Dur("took", time.Since(began)).
		Msg("stats: run finished")
	return res, nil
}

// ExtractPages reads the game and results pages and runs Extract. The game
// page supplies start and timezone unless in.Meta overrides them
func (s *Service) ExtractPages(ctx context.Context, in domain.PageInput) (domain.Result, error) {
	if s.Pages == nil {
		return domain.Result{}, perr.WithOp(perr.InvalidArgf("no page source configured"), "stats.ExtractPages")
	}

	var game gameinfo.Meta
	if in.GamePage != "" {
		m, err := s.table(ctx, in.GamePage, tableparse.GameInfo)
		if err != nil {
			return domain.Result{}, err
		}
		if game, err = s.game.Parse(m); err != nil {
			s.Metrics.ParseError("gameinfo")
			return domain.Result{}, err
		}
	}

	meta := domain.GameMeta{GameID: in.GameID, Name: game.Name, Timezone: game.Timezone}
	if !game.Start.IsZero() {
		meta.Start = game.Start.String()
	}
	if in.Meta != nil {
		meta = mergeMeta(meta, *in.Meta)
	}

	m, err := s.table(ctx, in.ResultsPage, tableparse.Results)
	if err != nil {
		return domain.Result{}, err
	}
	if s.Cfg.TrimEdges {
		m = tableparse.Trim(m)
	}

	res, err := s.Extract(ctx, domain.Bundle{Meta: meta, Matrix: m})
	if err != nil {
		return domain.Result{}, err
	}
	if !game.Finish.IsZero() {
		res.Game.Finish = game.Finish
	}
	return res, nil
}

// Levels parses the catalog only, keeping operator types from existing
func (s *Service) Levels(ctx context.Context, matrix [][]string, existing []levels.Level) []levels.Level {
	cat := s.levels.Parse(matrix)
	if len(existing) > 0 {
		cat = levels.MergeTypes(existing, cat)
	}
	s.log(ctx).Debug().Int("levels", len(cat)).Msg("stats: catalog parsed")
	return cat
}

// ResultsMatrix loads the results table of a saved page, trimmed per config
func (s *Service) ResultsMatrix(ctx context.Context, page string) ([][]string, error) {
	m, err := s.table(ctx, page, tableparse.Results)
	if err != nil {
		return nil, err
	}
	if s.Cfg.TrimEdges {
		m = tableparse.Trim(m)
	}
	return m, nil
}

func (s *Service) table(ctx context.Context, page string, sel tableparse.Selector) ([][]string, error) {
	if s.Pages == nil {
		return nil, perr.WithOp(perr.InvalidArgf("no page source configured"), "stats.table")
	}
	b, err := pages.Read(ctx, s.Pages, page, s.Cfg.MaxPageBytes)
	if err != nil {
		return nil, err
	}
	m, err := tableparse.Parse(bytes.NewReader(b), sel)
	if err != nil {
		s.Metrics.ParseError("table")
		return nil, perr.WithOp(perr.Wrapf(err, perr.CodeOf(err), "page %s", page), "stats.table")
	}
	return m, nil
}

func (s *Service) log(ctx context.Context) *logger.Logger {
	ll := s.Log.With().Str("run_id", logger.RunID(ctx)).Logger()
	return &ll
}

func mergeMeta(base, over domain.GameMeta) domain.GameMeta {
	if over.GameID != "" {
		base.GameID = over.GameID
	}
	if over.Name != "" {
		base.Name = over.Name
	}
	if over.Start != "" {
		base.Start = over.Start
	}
	if over.Timezone != "" {
		base.Timezone = over.Timezone
	}
	return base
}

func countZero(recs []records.Record) int {
	n := 0
	for _, r := range recs {
		if r.CompletedAt.IsZero() {
			n++
		}
	}
	return n
}
