package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/pterm/pterm"

	"github.com/jason-s-yu/baloot/internal/config"
	"github.com/jason-s-yu/baloot/internal/corpus"
	"github.com/jason-s-yu/baloot/internal/report"
	"github.com/jason-s-yu/baloot/internal/wire"
)

// findingsShown caps the findings table printed under the scorecard.
const findingsShown = 20

func checkCommand(fs *flag.FlagSet) (func(*config.Config), runFunc) {
	dir := fs.String("dir", "", "archive directory or single file")
	observer := fs.String("observer", "", "username to anchor captures")
	workers := fs.Int("workers", 0, "parallel games (0 = GOMAXPROCS)")
	ratio := fs.Float64("systemic-ratio", 0, "failed-game share that fails the run")
	format := fs.String("format", "", "report format: table, json or yaml")
	out := fs.String("out", "", "write the report to this file")
	maxFindings := fs.Int("max-findings", 0, "divergences kept verbatim (negative keeps all)")
	noCaptures := fs.Bool("no-captures", false, "ignore capture files")
	return func(cfg *config.Config) {
		set := visited(fs)
		if set["dir"] {
			cfg.ArchiveDir = *dir
		}
		if set["observer"] {
			cfg.Observer = *observer
		}
		if set["workers"] {
			cfg.Workers = *workers
		}
		if set["systemic-ratio"] {
			cfg.SystemicRatio = *ratio
		}
		if set["format"] {
			cfg.ReportFormat = *format
		}
		if set["out"] {
			cfg.ReportPath = *out
		}
		if set["max-findings"] {
			cfg.MaxFindings = *maxFindings
		}
		if set["no-captures"] {
			cfg.NoCaptures = *noCaptures
		}
	}, runCheck
}

func runCheck(e *env, args []string) (int, error) {
	cfg := e.cfg
	root := cfg.ArchiveDir
	if len(args) > 0 {
		root = args[0]
	}
	format, err := report.ParseFormat(cfg.ReportFormat)
	if err != nil {
		return exitUsage, err
	}

	c, err := corpus.Load(root, corpus.Options{
		Decoder:    wire.Decoder{MaxSize: cfg.MaxFrameSize, MaxDepth: cfg.MaxDepth},
		NoCaptures: cfg.NoCaptures,
		Log:        e.log,
	})
	if err != nil {
		return exitFailure, err
	}
	if len(c.Games) == 0 {
		return exitFailure, fmt.Errorf("no games under %s", root)
	}
	for dup, kept := range c.Duplicates {
		e.log.WithField("kept", kept).Debugf("duplicate %s skipped", dup)
	}

	sources := make([]report.Source, len(c.Games))
	for i, g := range c.Games {
		sources[i] = g
	}
	comp := report.New(report.Options{
		Workers:       cfg.Workers,
		SystemicRatio: cfg.SystemicRatio,
		MaxFindings:   cfg.MaxFindings,
		Observer:      cfg.Observer,
		Log:           e.log,
	})
	sc, runErr := comp.Run(e.ctx, sources)
	if sc == nil {
		return exitFailure, runErr
	}

	if err := writeReport(e, sc, format, cfg.ReportPath); err != nil {
		return exitFailure, err
	}
	if runErr != nil {
		return exitFailure, runErr
	}
	if sc.Divergences() > 0 {
		return exitMismatch, nil
	}
	return exitOK, nil
}

func writeReport(e *env, sc *report.Scorecard, format report.Format, path string) error {
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		err = sc.Write(f, format)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		fmt.Fprintln(e.stdout, pterm.LightGreen("report written to "+path))
		return nil
	}
	if err := sc.Write(e.stdout, format); err != nil {
		return err
	}
	if format != report.FormatTable || len(sc.Findings) == 0 {
		return nil
	}

	data := pterm.TableData{{"game", "round", "step", "category", "cause", "expected", "computed"}}
	for i, f := range sc.Findings {
		if i == findingsShown {
			break
		}
		d := f.Detail
		data = append(data, []string{
			f.Source, fmt.Sprint(d.Round), fmt.Sprint(d.Step), string(d.Category),
			string(f.RootCause), d.Expected, d.Computed,
		})
	}
	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(e.stdout, table)
	if n := len(sc.Findings); n > findingsShown {
		fmt.Fprintf(e.stdout, "... %d more findings, use -format json for all\n", n-findingsShown)
	}
	return err
}
