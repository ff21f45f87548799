package cli

import (
	"context"

	"queststat/internal/adapters/pages"
	"queststat/internal/core/monitoring"
	perr "queststat/internal/platform/errors"
	"queststat/internal/services/monitoring/domain"

	"github.com/spf13/cobra"
)

type logFlags struct {
	timezone string
	glob     string
	gameID   string
}

func (f *logFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.timezone, "timezone", "", "UTC offset of the log times, like +03:00")
	cmd.Flags().StringVar(&f.glob, "glob", "", "pick pages in --pages-dir by pattern instead of arguments")
	cmd.Flags().StringVar(&f.gameID, "game-id", "", "game id recorded in logs")
}

// load parses the pages named by args or --glob, in page order
func (a *app) load(ctx context.Context, f logFlags, args []string) ([]monitoring.Entry, error) {
	names := args
	if f.glob != "" {
		found, err := pages.Glob(a.pagesDir, f.glob)
		if err != nil {
			return nil, err
		}
		names = append(names, found...)
	}
	ports, err := a.monitoringPorts()
	if err != nil {
		return nil, err
	}
	return ports.Loader.Load(ctx, domain.PageInput{GameID: f.gameID, Pages: names, Timezone: f.timezone})
}

func (a *app) monitoringCmd() *cobra.Command {
	var (
		f      logFlags
		team   int
		player int
	)
	cmd := &cobra.Command{
		Use:   "monitoring [pages...]",
		Short: "Answer accuracy per team, or details for one team or player",
		Example: `  queststat monitoring --timezone +03:00 log-1.html log-2.html
  queststat monitoring --timezone +03:00 --pages-dir saved --glob 'log-*.html' --team 154808 -o table`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if team != 0 && player != 0 {
				return perr.WithField(perr.InvalidArgf("--team and --player are exclusive"), "team")
			}
			ports, err := a.monitoringPorts()
			if err != nil {
				return err
			}
			entries, err := a.load(cmd.Context(), f, args)
			if err != nil {
				return err
			}
			an := ports.Analyzer

			switch {
			case team != 0:
				d := an.Team(entries, team)
				if a.format == formatTable {
					renderTeamDetails(a.out, d)
					return nil
				}
				return a.writeJSON(d)
			case player != 0:
				d := an.Player(entries, player)
				if a.format == formatTable {
					renderPlayerDetails(a.out, d)
					return nil
				}
				return a.writeJSON(d)
			}
			r := an.Report(cmd.Context(), entries)
			if a.format == formatTable {
				renderReport(a.out, r)
				return nil
			}
			return a.writeJSON(r)
		},
	}
	f.bind(cmd)
	cmd.Flags().IntVar(&team, "team", 0, "team id for per-level and per-player details")
	cmd.Flags().IntVar(&player, "player", 0, "player id for per-level details")
	return cmd
}

func (a *app) codesCmd() *cobra.Command {
	var (
		f      logFlags
		level  int
		team   int
		player int
	)
	cmd := &cobra.Command{
		Use:   "codes [pages...]",
		Short: "Codes a team or player submitted on one level",
		RunE: func(cmd *cobra.Command, args []string) error {
			if level <= 0 {
				return perr.WithField(perr.InvalidArgf("--level is required"), "level")
			}
			if (team == 0) == (player == 0) {
				return perr.WithField(perr.InvalidArgf("exactly one of --team and --player is required"), "team")
			}
			ports, err := a.monitoringPorts()
			if err != nil {
				return err
			}
			entries, err := a.load(cmd.Context(), f, args)
			if err != nil {
				return err
			}
			codes := ports.Analyzer.Codes(entries, monitoring.Filter{Level: level, TeamID: team, UserID: player})
			if a.format == formatTable {
				renderCodes(a.out, codes)
				return nil
			}
			if codes == nil {
				codes = []monitoring.Entry{}
			}
			return a.writeJSON(codes)
		},
	}
	f.bind(cmd)
	cmd.Flags().IntVar(&level, "level", 0, "level number")
	cmd.Flags().IntVar(&team, "team", 0, "team id")
	cmd.Flags().IntVar(&player, "player", 0, "player id")
	return cmd
}
