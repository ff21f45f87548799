// Package cli wires the queststat commands
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"queststat/internal/core/rulepack"
	"queststat/internal/core/version"
	"queststat/internal/modkit"
	"queststat/internal/modkit/module"
	"queststat/internal/platform/config"
	perr "queststat/internal/platform/errors"
	"queststat/internal/platform/logger"
	"queststat/internal/platform/metrics"
	monmod "queststat/internal/services/monitoring/module"
	statsmod "queststat/internal/services/stats/module"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

const (
	formatJSON  = "json"
	formatTable = "table"
)

// app carries flags and wired modules shared by every command
type app struct {
	out         io.Writer
	format      string
	metricsFile string
	pagesDir    string
	workers     int
	noColor     bool
	rulesFile   string

	deps       modkit.Deps
	stats      *statsmod.Module
	monitoring *monmod.Module
}

// NewRoot builds the command tree writing results to out
func NewRoot(out io.Writer) *cobra.Command {
	a := &app{out: out}
	root := &cobra.Command{
		Use:           "queststat",
		Short:         "Extract and aggregate quest results from saved pages",
		Long:          "queststat turns saved quest result pages and answer logs into level catalogs, rankings, finish totals and accuracy stats.",
		Version:       version.Info(rulepack.Default().Version).String(),
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.wire()
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if a.metricsFile == "" || a.deps.Metrics == nil {
				return nil
			}
			return a.deps.Metrics.WriteTextfile(a.metricsFile)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.format, "format", "o", defaultFormat(), "output format: json | table (default from QUESTSTAT_FORMAT)")
	pf.StringVar(&a.metricsFile, "metrics-file", "", "write Prometheus metrics to this file after the run")
	pf.StringVar(&a.pagesDir, "pages-dir", "", "directory relative page names resolve against")
	pf.IntVar(&a.workers, "workers", 0, "monitoring pages parsed concurrently (0 = config default)")
	pf.BoolVar(&a.noColor, "no-color", false, "disable colored table output")
	pf.StringVar(&a.rulesFile, "rules", "", "keyword rules YAML replacing the built-in tables")

	root.AddCommand(a.statsCmd(), a.levelsCmd(), a.monitoringCmd(), a.codesCmd())
	return root
}

// Execute runs args and returns the process exit code. Failures are printed
// to errOut as the JSON error payload
func Execute(args []string, out, errOut io.Writer) int {
	root := NewRoot(out)
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(errOut)
	if err := root.Execute(); err != nil {
		b, mErr := json.Marshal(perr.WireFrom(err))
		if mErr != nil {
			_, _ = fmt.Fprintln(errOut, err)
			return 1
		}
		_, _ = fmt.Fprintln(errOut, string(b))
		return 1
	}
	return 0
}

func defaultFormat() string {
	return config.New().Prefix("QUESTSTAT_").MayEnum("FORMAT", formatJSON, formatJSON, formatTable)
}

func (a *app) wire() error {
	if a.format != formatJSON && a.format != formatTable {
		return perr.WithField(perr.InvalidArgf("unknown format %q", a.format), "format")
	}
	if a.noColor {
		color.NoColor = true
	}
	m, err := metrics.New()
	if err != nil {
		return err
	}
	var opts []modkit.Option
	if a.rulesFile != "" {
		rp, err := loadRules(a.rulesFile)
		if err != nil {
			return err
		}
		opts = append(opts, modkit.WithRules(rp))
	}

	a.deps = modkit.Deps{Log: logger.Get(), Cfg: config.New(), Metrics: m}
	a.stats = statsmod.New(a.deps, statsmod.Options{PagesDir: a.pagesDir}, opts...)
	a.monitoring = monmod.New(a.deps, monmod.Options{PagesDir: a.pagesDir, Workers: a.workers}, opts...)
	module.Register(a.stats)
	module.Register(a.monitoring)
	return nil
}

func loadRules(path string) (*rulepack.Pack, error) {
	doc, err := os.ReadFile(path)
	if err != nil {
		return nil, perr.WithField(perr.Wrapf(err, perr.ErrorCodeIO, "read rules %s", path), "rules")
	}
	rp, err := rulepack.Parse(doc)
	if err != nil {
		return nil, perr.WithField(perr.Wrap(err, perr.ErrorCodeValidation, "rules"), "rules")
	}
	return rp, nil
}

func (a *app) statsPorts() (statsmod.Ports, error) {
	return portsOf[statsmod.Ports](a.stats.Name())
}

func (a *app) monitoringPorts() (monmod.Ports, error) {
	return portsOf[monmod.Ports](a.monitoring.Name())
}

// portsOf fetches the ports of a registered module
func portsOf[T any](name string) (T, error) {
	p, ok := module.PortsAs[T](name)
	if !ok {
		return p, perr.WithOp(perr.WithField(perr.NotFoundf("module %s is not registered", name), "module"), "cli.ports")
	}
	return p, nil
}

func (a *app) writeJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return perr.Wrap(err, perr.ErrorCodeJSON, "encode output")
	}
	return nil
}
