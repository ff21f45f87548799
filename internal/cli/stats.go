package cli

import (
	"os"

	"queststat/internal/core/levels"
	"queststat/internal/platform/bind"
	perr "queststat/internal/platform/errors"
	"queststat/internal/services/stats/domain"

	"github.com/spf13/cobra"
)

type statsFlags struct {
	game     string
	results  string
	bundle   string
	start    string
	timezone string
	gameID   string
}

func (f *statsFlags) bind(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.game, "game", "", "saved game details page (title, start, timezone)")
	fl.StringVar(&f.results, "results", "", "saved results page")
	fl.StringVar(&f.bundle, "bundle", "", "JSON bundle {meta, matrix} instead of pages")
	fl.StringVar(&f.start, "start", "", "game start, overrides the game page")
	fl.StringVar(&f.timezone, "timezone", "", "UTC offset like +03:00, overrides the game page")
	fl.StringVar(&f.gameID, "game-id", "", "game id recorded in logs")
}

func (f *statsFlags) meta() *domain.GameMeta {
	if f.start == "" && f.timezone == "" && f.gameID == "" {
		return nil
	}
	return &domain.GameMeta{GameID: f.gameID, Start: f.start, Timezone: f.timezone}
}

func (a *app) statsCmd() *cobra.Command {
	var f statsFlags
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Levels, per-team and per-level records and finish totals",
		Example: `  queststat stats --game game.html --results results.html -o table
  queststat stats --bundle run.json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ports, err := a.statsPorts()
			if err != nil {
				return err
			}
			ex := ports.Extractor
			var res domain.Result
			switch {
			case f.bundle != "":
				b, derr := readJSON[domain.Bundle](f.bundle)
				if derr != nil {
					return derr
				}
				if m := f.meta(); m != nil {
					b.Meta = mergeMeta(b.Meta, *m)
				}
				res, err = ex.Extract(cmd.Context(), b)
			case f.results != "":
				res, err = ex.ExtractPages(cmd.Context(), domain.PageInput{
					GameID:      f.gameID,
					GamePage:    f.game,
					ResultsPage: f.results,
					Meta:        f.meta(),
				})
			default:
				return perr.WithField(perr.InvalidArgf("either --results or --bundle is required"), "results")
			}
			if err != nil {
				return err
			}
			if a.format == formatTable {
				renderStats(a.out, res)
				return nil
			}
			return a.writeJSON(res)
		},
	}
	f.bind(cmd)
	return cmd
}

// levelsFile is the part of a stats output the levels command reads back
type levelsFile struct {
	Levels []levels.Level `json:"levels" validate:"required"`
}

func (a *app) levelsCmd() *cobra.Command {
	var (
		results  string
		bundle   string
		existing string
	)
	cmd := &cobra.Command{
		Use:   "levels",
		Short: "Level catalog only",
		Long:  "Parses the level catalog. With --existing, level types from an earlier stats or levels output are kept by position.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			var matrix [][]string
			switch {
			case bundle != "":
				b, err := readJSON[domain.Bundle](bundle)
				if err != nil {
					return err
				}
				matrix = b.Matrix
			case results != "":
				m, err := a.stats.Service().ResultsMatrix(ctx, results)
				if err != nil {
					return err
				}
				matrix = m
			default:
				return perr.WithField(perr.InvalidArgf("either --results or --bundle is required"), "results")
			}

			var prior []levels.Level
			if existing != "" {
				lf, err := readJSON[levelsFile](existing, bind.Options{MaxBytes: 64 << 20})
				if err != nil {
					return err
				}
				prior = lf.Levels
			}

			ports, err := a.statsPorts()
			if err != nil {
				return err
			}
			cat := ports.Catalog.Levels(ctx, matrix, prior)
			if a.format == formatTable {
				renderLevels(a.out, cat)
				return nil
			}
			return a.writeJSON(levelsFile{Levels: cat})
		},
	}
	cmd.Flags().StringVar(&results, "results", "", "saved results page")
	cmd.Flags().StringVar(&bundle, "bundle", "", "JSON bundle {meta, matrix} instead of a page")
	cmd.Flags().StringVar(&existing, "existing", "", "earlier JSON output whose level types are kept")
	return cmd
}

func readJSON[T any](path string, opts ...bind.Options) (T, error) {
	var zero T
	f, err := os.Open(path)
	if err != nil {
		return zero, perr.WithField(perr.Wrapf(err, perr.ErrorCodeIO, "open %s", path), "file")
	}
	defer func() { _ = f.Close() }()
	return bind.DecodeJSON[T](f, opts...)
}

func mergeMeta(base, over domain.GameMeta) domain.GameMeta {
	if over.GameID != "" {
		base.GameID = over.GameID
	}
	if over.Start != "" {
		base.Start = over.Start
	}
	if over.Timezone != "" {
		base.Timezone = over.Timezone
	}
	return base
}
