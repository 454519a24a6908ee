package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/sourcegraph/conc/pool"

	"github.com/openrobotics/ikos-harness/invoker"
	"github.com/openrobotics/ikos-harness/normalize"
	"github.com/openrobotics/ikos-harness/results"
)

// Config wires a scan pipeline.
type Config struct {
	Tool        string // analyzer binary, eg. "ikos"
	ReportTool  string // report generator binary, eg. "ikos-report"
	Invoker     *invoker.Invoker
	Log         *slog.Logger
	Concurrency int // max markers analyzed at once; <=0 means one per CPU
}

// Summary reports what a scan did.
type Summary struct {
	Markers  int
	Analyzed int
	Failed   int
	Failures []error
}

// Pipeline runs the analyzer over every marker file in a build tree and
// aggregates the per-program reports.
type Pipeline struct {
	cfg        Config
	toolPath   string
	reportPath string
}

// NewPipeline resolves both analyzer binaries up front, so a missing tool
// surfaces as a configuration error before anything runs.
func NewPipeline(cfg Config) (*Pipeline, error) {
	if cfg.Invoker == nil {
		cfg.Invoker = invoker.New(nil)
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}

	toolPath, err := cfg.Invoker.Resolve(cfg.Tool)
	if err != nil {
		return nil, err
	}
	reportPath, err := cfg.Invoker.Resolve(cfg.ReportTool)
	if err != nil {
		return nil, err
	}

	return &Pipeline{cfg: cfg, toolPath: toolPath, reportPath: reportPath}, nil
}

// Run scans dir for markers, analyzes each one, and writes the aggregated
// xunit and SARIF documents to the given output paths. Per-marker analysis
// failures are collected in the summary rather than aborting the scan; I/O
// failures writing the aggregate documents are fatal.
func (p *Pipeline) Run(ctx context.Context, dir, xunitOut, sarifOut string) (*Summary, error) {
	markers, err := ScanMarkers(dir)
	if err != nil {
		return nil, err
	}
	summary := &Summary{Markers: len(markers)}
	if len(markers) == 0 {
		p.cfg.Log.Info("no marker files found", "dir", dir)
		return summary, nil
	}
	p.cfg.Log.Info("scanning markers", "dir", dir, "count", len(markers))

	// Fixed-size result slot per marker keeps the aggregate output in
	// sorted marker order regardless of completion order.
	markerErrs := make([]error, len(markers))
	workers := pool.New().WithContext(ctx).WithMaxGoroutines(p.concurrency())
	for i, m := range markers {
		i, m := i, m
		workers.Go(func(ctx context.Context) error {
			markerErrs[i] = p.analyzeMarker(ctx, m)
			return nil
		})
	}
	if err := workers.Wait(); err != nil {
		return summary, err
	}

	var databases []Marker
	for i, m := range markers {
		if markerErrs[i] != nil {
			p.cfg.Log.Error("cannot generate report due to analysis failure",
				"bitcode", m.Bitcode, "error", markerErrs[i])
			summary.Failed++
			summary.Failures = append(summary.Failures, markerErrs[i])
			continue
		}
		summary.Analyzed++
		databases = append(databases, m)
	}

	if err := p.aggregate(databases, dir, xunitOut, sarifOut); err != nil {
		return summary, err
	}
	return summary, nil
}

func (p *Pipeline) concurrency() int {
	if p.cfg.Concurrency > 0 {
		return p.cfg.Concurrency
	}
	return runtime.NumCPU()
}

// analyzeMarker runs the analyzer on one bitcode file and generates its
// per-program reports. The analyzer is told to skip the console report here;
// reports come from the dedicated report generator afterwards, which handles
// large finding counts the inline reporting does not.
func (p *Pipeline) analyzeMarker(ctx context.Context, m Marker) error {
	db := m.DatabasePath()
	workDir := filepath.Dir(m.Path)

	res, err := p.cfg.Invoker.Run(ctx, p.toolPath,
		[]string{m.Bitcode, "-o", db, "-q", "--format", "no"}, workDir)
	if err != nil {
		return err
	}
	if res.ExitCode != 0 {
		p.cfg.Log.Error("analysis failed", "bitcode", m.Bitcode, "exit_code", res.ExitCode, "output", res.Output)
		return fmt.Errorf("analysis of %s exited with code %d", m.Bitcode, res.ExitCode)
	}

	// Console report; its exit code is informational only.
	if _, err := p.cfg.Invoker.Run(ctx, p.reportPath, []string{db}, workDir); err != nil {
		return err
	}

	for _, report := range []struct {
		format string
		ext    string
	}{
		{format: "junit", ext: ".junit.xml"},
		{format: "sarif", ext: ".sarif"},
	} {
		outFile := reportFilename(db, report.ext)
		// The database must come last, after the flags.
		args := []string{"--format", report.format, "--report-file", outFile, db}
		if _, err := p.cfg.Invoker.Run(ctx, p.reportPath, args, workDir); err != nil {
			return err
		}
	}
	return nil
}

// aggregate merges the per-program report files into the summary documents.
func (p *Pipeline) aggregate(databases []Marker, dir, xunitOut, sarifOut string) error {
	summaryName := filepath.Base(dir) + ".ikos"

	if len(databases) == 0 {
		return errors.New("no analysis databases to aggregate")
	}

	if xunitOut != "" {
		paths := make([]string, 0, len(databases))
		for _, m := range databases {
			paths = append(paths, reportFilename(m.DatabasePath(), ".junit.xml"))
		}
		merged, err := normalize.MergeXunitFiles(paths, summaryName)
		if err != nil {
			return err
		}
		data, err := normalize.EncodeXunit(merged)
		if err != nil {
			return err
		}
		if err := results.WriteFile(xunitOut, data); err != nil {
			return err
		}
	}

	if sarifOut != "" {
		paths := make([]string, 0, len(databases))
		for _, m := range databases {
			paths = append(paths, reportFilename(m.DatabasePath(), ".sarif"))
		}
		merged, err := normalize.MergeSarifFiles(paths)
		if err != nil {
			return err
		}
		data, err := normalize.EncodeSarif(merged)
		if err != nil {
			return err
		}
		if err := results.WriteFile(sarifOut, data); err != nil {
			return err
		}
	}

	return nil
}

// reportFilename swaps the database extension for a report extension:
// /path/to/talker.ikosdb -> /path/to/talker.junit.xml
func reportFilename(dbPath, ext string) string {
	return strings.TrimSuffix(dbPath, DatabaseFileExt) + ext
}
