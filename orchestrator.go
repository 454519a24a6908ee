package harness

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/openrobotics/ikos-harness/diag"
	"github.com/openrobotics/ikos-harness/invoker"
	"github.com/openrobotics/ikos-harness/metrics"
	"github.com/openrobotics/ikos-harness/normalize"
	"github.com/openrobotics/ikos-harness/registry"
	"github.com/openrobotics/ikos-harness/results"
)

// RunState tracks the progress of a single analysis run.
type RunState string

const (
	StateResolving   RunState = "resolving"
	StateInvoking    RunState = "invoking"
	StateNormalizing RunState = "normalizing"
	StatePersisting  RunState = "persisting"
	StateDone        RunState = "done"
	StateFailed      RunState = "failed"
)

// toolNamespace names the subdirectory of the build root that holds raw
// output captures, so unrelated harnesses sharing a build tree do not
// collide.
const toolNamespace = "ikos"

// Normalizer turns raw tool output into a report document.
type Normalizer interface {
	Parse(output string, run *diag.AnalysisRun) (*diag.ReportDocument, error)
}

// Orchestrator drives one analysis run through its states:
// Resolving -> Invoking -> Normalizing -> Persisting -> Done|Failed.
// Each step blocks until the prior completes; a run has no internal
// concurrency. Independent runs with distinct test names may execute
// concurrently because each writes only to its own test-name-scoped paths.
type Orchestrator struct {
	tool       string
	invoker    *invoker.Invoker
	normalizer Normalizer
	resultsDir *results.Dir
	buildDir   string
	log        *slog.Logger

	// StateHook, when set, observes every state transition. Used by tests
	// and progress reporting; never required for correctness.
	StateHook func(testName string, state RunState)
}

// NewOrchestrator wires an orchestrator from its collaborators.
func NewOrchestrator(tool string, inv *invoker.Invoker, normalizer Normalizer, dir *results.Dir, buildDir string, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		tool:       tool,
		invoker:    inv,
		normalizer: normalizer,
		resultsDir: dir,
		buildDir:   buildDir,
		log:        log,
	}
}

func (o *Orchestrator) setState(testName string, state RunState) {
	o.log.Debug("analysis state changed", "test", testName, "state", state)
	if o.StateHook != nil {
		o.StateHook(testName, state)
	}
}

// RunAnalysis performs one full analysis run. The returned document is nil
// only when the run failed before any output existed (tool not found, spawn
// failure); for malformed output the partial document comes back alongside
// the error, and the raw capture has already been persisted as evidence.
func (o *Orchestrator) RunAnalysis(ctx context.Context, analysis registry.Analysis) (*diag.ReportDocument, error) {
	tracer := otel.Tracer("ikos-harness")
	ctx, span := tracer.Start(ctx, "analysis.run")
	defer span.End()
	span.SetAttributes(
		attribute.String("analysis.project", analysis.Project),
		attribute.String("analysis.test_name", analysis.Name),
	)

	doc, err := o.runAnalysis(ctx, analysis)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return doc, err
}

func (o *Orchestrator) runAnalysis(ctx context.Context, analysis registry.Analysis) (*diag.ReportDocument, error) {
	run := &diag.AnalysisRun{
		RunID:     uuid.New().String(),
		Project:   analysis.Project,
		TestName:  analysis.Name,
		WorkDir:   o.buildDir,
		StartTime: time.Now(),
	}
	log := o.log.With("run_id", run.RunID, "project", run.Project, "test", run.TestName)

	o.setState(run.TestName, StateResolving)
	toolPath, err := o.invoker.Resolve(o.tool)
	if err != nil {
		// Configuration-time failure: no run happened, nothing is written.
		o.setState(run.TestName, StateFailed)
		metrics.RecordErrorDetails("tool resolution", err)
		return nil, err
	}
	log.Debug("resolved analyzer binary", "tool", o.tool, "path", toolPath)

	// Fixed report flags come first; caller arguments are appended
	// verbatim after them. Conflicts between the two are the caller's
	// responsibility, not validated here.
	run.Args = append([]string{
		"--xunit-file", o.resultsDir.PathFor(run.Project, run.TestName, results.XunitExt),
		"--sarif-file", o.resultsDir.PathFor(run.Project, run.TestName, results.SarifExt),
	}, analysis.ExtraArgs...)

	o.setState(run.TestName, StateInvoking)
	log.Info("running analyzer", "args", run.Args, "workdir", run.WorkDir)
	res, err := o.invoker.Run(ctx, toolPath, run.Args, run.WorkDir)
	if err != nil {
		o.setState(run.TestName, StateFailed)
		metrics.RecordErrorDetails("tool invocation", err)
		return nil, err
	}
	run.EndTime = time.Now()
	log.Debug("analyzer finished", "exit_code", res.ExitCode, "duration", res.Duration)

	o.setState(run.TestName, StateNormalizing)
	doc, parseErr := o.normalizer.Parse(res.Output, run)

	// The raw capture is written regardless of how normalization went, so
	// unparseable output still leaves evidence behind.
	if _, err := results.RawCapture(o.buildDir, toolNamespace, run.TestName, res.Output); err != nil {
		o.setState(run.TestName, StateFailed)
		metrics.RecordErrorDetails("raw capture", err)
		return doc, err
	}

	if parseErr != nil {
		o.setState(run.TestName, StateFailed)
		if res.ExitCode != 0 {
			// Non-zero exit and nothing interpretable on the output:
			// the tool itself failed rather than reporting findings.
			execErr := &ToolExecutionError{Tool: o.tool, ExitCode: res.ExitCode}
			metrics.RecordErrorDetails("tool execution", execErr)
			return doc, execErr
		}
		metrics.RecordErrorDetails("malformed output", parseErr)
		return doc, parseErr
	}

	if doc.Stats.Total == 0 && res.ExitCode != 0 {
		// Exit code is secondary evidence: it only matters when the tool
		// produced no diagnostics to speak for themselves.
		o.setState(run.TestName, StateFailed)
		execErr := &ToolExecutionError{Tool: o.tool, ExitCode: res.ExitCode}
		metrics.RecordErrorDetails("tool execution", execErr)
		return doc, execErr
	}

	o.setState(run.TestName, StatePersisting)
	if err := o.persist(doc); err != nil {
		o.setState(run.TestName, StateFailed)
		metrics.RecordErrorDetails("persist reports", err)
		return doc, err
	}

	o.setState(run.TestName, StateDone)
	metrics.RecordAnalysis(run.Project, run.RunID, string(doc.Status()),
		doc.Stats.Errors, doc.Stats.Warnings, doc.Stats.Notes, run.Duration())
	log.Info("analysis complete", "status", doc.Status(), "diagnostics", doc.Stats.Total)
	return doc, nil
}

// persist writes both report forms to their designated paths. Each run fully
// replaces its own prior outputs and touches nothing else.
func (o *Orchestrator) persist(doc *diag.ReportDocument) error {
	xunitData, err := normalize.EncodeXunit(normalize.BuildXunit(doc))
	if err != nil {
		return err
	}
	if _, err := o.resultsDir.Write(doc.Project, doc.TestName, results.XunitExt, xunitData); err != nil {
		return err
	}

	sarifData, err := normalize.EncodeSarif(normalize.BuildSarif(doc))
	if err != nil {
		return err
	}
	if _, err := o.resultsDir.Write(doc.Project, doc.TestName, results.SarifExt, sarifData); err != nil {
		return err
	}
	return nil
}
