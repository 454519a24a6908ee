// Package harness orchestrates static-analysis runs: it resolves the
// analyzer binary, invokes it, normalizes its output into xunit and SARIF
// reports, persists them into the test-results tree, and reports pass/fail
// through its exit code.
package harness

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync/atomic"

	"github.com/sourcegraph/conc/pool"

	"github.com/openrobotics/ikos-harness/diag"
	"github.com/openrobotics/ikos-harness/exitcodes"
	"github.com/openrobotics/ikos-harness/invoker"
	"github.com/openrobotics/ikos-harness/normalize"
	"github.com/openrobotics/ikos-harness/registry"
	"github.com/openrobotics/ikos-harness/results"
	"github.com/openrobotics/ikos-harness/scan"
)

// Harness runs static analyses and collects their reports.
type Harness struct {
	ctx          context.Context
	config       *Config
	version      string
	registry     *registry.Registry
	orchestrator *Orchestrator
	scheduler    *DefaultAnalysisScheduler
	formatter    ResultFormatter
	result       []*diag.ReportDocument

	running atomic.Bool

	shutdownCallback func(error) // Callback to signal application shutdown
}

// New creates a Harness from its configuration.
func New(ctx context.Context, config *Config, version string, shutdownCallback func(error)) (*Harness, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}

	config.Log.Debug("creating harness with config",
		"tool", config.Tool,
		"project", config.Project,
		"testName", config.TestName,
		"resultsDir", config.ResultsDir,
		"buildDir", config.BuildDir,
		"scanDir", config.ScanDir,
		"runInterval", config.RunInterval,
		"runOnce", config.RunOnce)

	reg, err := registry.NewRegistry(registry.Config{
		Log:              config.Log,
		AnalysesFile:     config.AnalysesFile,
		DefaultProject:   config.Project,
		DefaultTestName:  config.TestName,
		DefaultExtraArgs: config.ExtraArgs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create registry: %w", err)
	}

	resultsDir, err := results.NewDir(config.ResultsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create results directory: %w", err)
	}

	inv := invoker.New(nil)
	parser := normalize.NewParser(config.Tool, version)
	orchestrator := NewOrchestrator(config.Tool, inv, parser, resultsDir, config.BuildDir, config.Log)

	h := &Harness{
		ctx:              ctx,
		config:           config,
		version:          version,
		registry:         reg,
		orchestrator:     orchestrator,
		scheduler:        NewDefaultAnalysisScheduler(config.RunInterval, config.RunOnce, config.Log),
		formatter:        NewConsoleResultFormatter(nil),
		shutdownCallback: shutdownCallback,
	}
	config.Log.Info("harness.New: created registry and orchestrator")
	return h, nil
}

// Start runs the analyses, once or periodically at the configured interval.
func (h *Harness) Start(ctx context.Context) error {
	// Set up panic recovery to ensure we exit with code 2 for runtime errors
	defer func() {
		if r := recover(); r != nil {
			h.config.Log.Error("runtime error occurred", "error", r)
			os.Exit(exitcodes.RuntimeErr)
		}
	}()

	h.ctx = ctx
	h.running.Store(true)

	h.scheduler.RegisterCallback(h.runAnalyses)

	if err := h.scheduler.Start(ctx); err != nil {
		h.config.Log.Error("error running analyses", "error", err)
		return err
	}

	if h.config.RunOnce {
		h.config.Log.Info("analyses completed, exiting (run-once mode)")

		if h.failed() {
			h.config.Log.Warn("run-once analysis completed with failures, returning exit code 1")
			return NewTestFailureError(h.resultSummary())
		}

		// Only needed in run-once mode when the analysis came back clean.
		go func() {
			h.shutdownCallback(nil)
		}()
		return nil // Success (exit code 0)
	}

	h.config.Log.Debug("harness started successfully")
	return nil
}

// runAnalyses performs one round of all configured analyses. In scan mode it
// runs the marker-file pipeline instead.
func (h *Harness) runAnalyses() error {
	if h.config.ScanDir != "" {
		return h.runScan()
	}

	analyses := h.registry.Analyses()
	h.config.Log.Info("running analyses", "count", len(analyses))

	docs := make([]*diag.ReportDocument, len(analyses))
	errs := make([]error, len(analyses))

	// Runs write only to their own test-name-scoped paths, so they are
	// safe to execute concurrently against the shared results root.
	workers := pool.New().WithContext(h.ctx).WithMaxGoroutines(h.concurrency())
	for i, analysis := range analyses {
		i, analysis := i, analysis
		workers.Go(func(ctx context.Context) error {
			docs[i], errs[i] = h.orchestrator.RunAnalysis(ctx, analysis)
			return nil
		})
	}
	if err := workers.Wait(); err != nil {
		return NewRuntimeError(err)
	}

	for _, err := range errs {
		if err != nil {
			// Harness-level failures (tool missing, malformed output,
			// write failures) are runtime errors, distinct from the
			// analyzer reporting findings.
			return NewRuntimeError(err)
		}
	}

	h.result = make([]*diag.ReportDocument, 0, len(docs))
	for _, doc := range docs {
		if doc != nil {
			h.result = append(h.result, doc)
		}
	}

	if err := h.formatter.FormatResults(h.result); err != nil {
		h.config.Log.Error("failed to format results", "error", err)
	}
	for _, doc := range h.result {
		h.config.Log.Info("analysis result", "summary", doc.String())
	}
	return nil
}

// runScan runs the marker-file pipeline over the scan directory, writing the
// aggregate reports at the paths the single-run mode would own.
func (h *Harness) runScan() error {
	pipeline, err := scan.NewPipeline(scan.Config{
		Tool:        h.config.Tool,
		ReportTool:  h.config.ReportTool,
		Log:         h.config.Log,
		Concurrency: h.config.Concurrency,
	})
	if err != nil {
		return NewRuntimeError(err)
	}

	resultsDir, err := results.NewDir(h.config.ResultsDir)
	if err != nil {
		return NewRuntimeError(err)
	}
	xunitOut := resultsDir.PathFor(h.config.Project, h.config.TestName, results.XunitExt)
	sarifOut := resultsDir.PathFor(h.config.Project, h.config.TestName, results.SarifExt)

	summary, err := pipeline.Run(h.ctx, h.config.ScanDir, xunitOut, sarifOut)
	if err != nil {
		return NewRuntimeError(err)
	}
	h.config.Log.Info("scan complete",
		"markers", summary.Markers, "analyzed", summary.Analyzed, "failed", summary.Failed)
	if summary.Failed > 0 {
		return NewRuntimeError(fmt.Errorf("%d of %d analyses failed", summary.Failed, summary.Markers))
	}
	return nil
}

// concurrency returns the worker-pool size; <=0 means one per CPU.
func (h *Harness) concurrency() int {
	if h.config.Concurrency > 0 {
		return h.config.Concurrency
	}
	return runtime.NumCPU()
}

// failed reports whether any completed analysis found error-severity
// diagnostics.
func (h *Harness) failed() bool {
	for _, doc := range h.result {
		if !doc.Passed() {
			return true
		}
	}
	return false
}

// resultSummary renders the per-analysis one-line summaries.
func (h *Harness) resultSummary() string {
	if len(h.result) == 0 {
		return "no analyses ran"
	}
	summary := ""
	for i, doc := range h.result {
		if i > 0 {
			summary += "\n"
		}
		summary += doc.String()
	}
	return summary
}

// Stop stops the harness.
func (h *Harness) Stop(ctx context.Context) error {
	h.config.Log.Info("stopping harness")

	if !h.running.Load() {
		h.config.Log.Debug("harness already stopped, nothing to do")
		return nil
	}
	h.running.Store(false)

	if err := h.scheduler.Stop(); err != nil {
		return err
	}

	h.config.Log.Info("harness stopped successfully")
	return nil
}

// Stopped returns true if the harness is stopped.
func (h *Harness) Stopped() bool {
	return !h.running.Load()
}

// WaitForShutdown blocks until all goroutines have terminated.
// This is useful in tests to ensure complete cleanup before moving to the next test.
func (h *Harness) WaitForShutdown(ctx context.Context) error {
	return h.scheduler.WaitForShutdown(ctx)
}

// Results returns the report documents from the most recent round.
func (h *Harness) Results() []*diag.ReportDocument {
	return h.result
}
