package cli

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"queststat/internal/core/levels"
	"queststat/internal/core/monitoring"
	"queststat/internal/core/records"
	mondomain "queststat/internal/services/monitoring/domain"
	"queststat/internal/services/stats/domain"

	"github.com/fatih/color"
)

var (
	good = color.New(color.FgGreen).SprintFunc()
	bad  = color.New(color.FgRed).SprintFunc()
	warn = color.New(color.FgYellow).SprintFunc()
	head = color.New(color.Bold).SprintFunc()
)

func table(out io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
}

// ms renders a millisecond count as h:mm:ss, negative values signed
func ms(v int64) string {
	sign := ""
	if v < 0 {
		sign, v = "-", -v
	}
	d := time.Duration(v) * time.Millisecond
	h := int64(d / time.Hour)
	m := int64(d/time.Minute) % 60
	s := int64(d/time.Second) % 60
	return fmt.Sprintf("%s%d:%02d:%02d", sign, h, m, s)
}

func renderStats(out io.Writer, res domain.Result) {
	_, _ = fmt.Fprintf(out, "%s  %s  (%s)\n", head(res.Game.Name), res.Game.Start, res.Game.Timezone)
	_, _ = fmt.Fprintf(out, "run %s\n\n", res.RunID)
	renderLevels(out, res.Levels)

	for _, g := range res.ByLevel {
		_, _ = fmt.Fprintf(out, "\n%s\n", head(fmt.Sprintf("level %d", g.ID)))
		w := table(out)
		_, _ = fmt.Fprintln(w, "TEAM\tCOMPLETED\tDURATION\tADJUSTMENT")
		for _, r := range g.Data {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", r.TeamName, r.CompletedAt, recordDuration(r), ms(r.AdjustmentMs))
		}
		_ = w.Flush()
	}

	_, _ = fmt.Fprintf(out, "\n%s\n", head("finish"))
	w := table(out)
	_, _ = fmt.Fprintln(w, "TEAM\tDURATION\tLEVELS\tEXTRA BONUS")
	for _, f := range res.Finish {
		d := ms(f.DurationMs)
		if f.TimedOut {
			d = bad("timeout")
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", f.TeamName, d, f.ClosedLevels, ms(f.ExtraBonusMs))
	}
	_ = w.Flush()
}

func recordDuration(r records.Record) string {
	switch {
	case r.TimedOut:
		return bad("timeout")
	case r.BestTime:
		return good(ms(r.DurationMs))
	}
	return ms(r.DurationMs)
}

func renderLevels(out io.Writer, cat []levels.Level) {
	w := table(out)
	_, _ = fmt.Fprintln(w, "#\tLEVEL\tNAME\tTYPE\tREMOVED")
	for _, l := range cat {
		removed := ""
		if l.Removed {
			removed = warn("yes")
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n", l.Position, l.Level, l.Name, l.Type, removed)
	}
	_ = w.Flush()
}

func aggregates(out io.Writer, first string, rows []monitoring.Aggregate, label func(monitoring.GroupKey) string) {
	w := table(out)
	_, _ = fmt.Fprintf(w, "%s\tTOTAL\tCORRECT\tPERCENT\tUNIQUE\n", first)
	for _, a := range rows {
		_, _ = fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%d\n",
			label(a.GroupKey), a.TotalEntries, a.CorrectEntries,
			strconv.FormatFloat(a.CorrectPercent, 'f', 2, 64), a.UniqueCodes)
	}
	_ = w.Flush()
}

func teamLabel(k monitoring.GroupKey) string  { return k.TeamName }
func userLabel(k monitoring.GroupKey) string  { return k.UserName }
func levelLabel(k monitoring.GroupKey) string { return strconv.Itoa(k.Level) }

func renderReport(out io.Writer, r mondomain.Report) {
	_, _ = fmt.Fprintf(out, "run %s, %d entries\n\n", r.RunID, r.Entries)
	aggregates(out, "TEAM", r.Stats.TotalStat, teamLabel)
	for _, t := range r.Stats.ByTeam {
		_, _ = fmt.Fprintf(out, "\n%s\n", head(t.TeamName))
		aggregates(out, "LEVEL", t.Levels, levelLabel)
	}
}

func renderTeamDetails(out io.Writer, d mondomain.TeamDetails) {
	_, _ = fmt.Fprintf(out, "%s\n", head(fmt.Sprintf("team %d", d.TeamID)))
	aggregates(out, "LEVEL", d.ByLevel, levelLabel)
	_, _ = fmt.Fprintln(out)
	aggregates(out, "PLAYER", d.ByUser, userLabel)
}

func renderPlayerDetails(out io.Writer, d mondomain.PlayerDetails) {
	_, _ = fmt.Fprintf(out, "%s\n", head(fmt.Sprintf("player %d", d.UserID)))
	aggregates(out, "LEVEL", d.ByLevel, levelLabel)
}

func renderCodes(out io.Writer, codes []monitoring.Entry) {
	w := table(out)
	_, _ = fmt.Fprintln(w, "SUBMITTED\tPLAYER\tCODE\tSINCE PREV")
	for _, e := range codes {
		code := e.Code
		switch {
		case e.IsDuplicate:
			code = warn(code)
		case e.Correct():
			code = good(code)
		}
		since := ""
		if e.TimeSincePrevMs != nil {
			since = ms(*e.TimeSincePrevMs)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.SubmittedAt, e.UserName, code, since)
	}
	_ = w.Flush()
}
