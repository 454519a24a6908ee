package harness

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/openrobotics/ikos-harness/flags"
	"github.com/openrobotics/ikos-harness/results"
)

// Config holds the application configuration
type Config struct {
	Tool         string        // Analyzer binary name or path
	ReportTool   string        // Analyzer report generator name or path (scan mode)
	Project      string        // Project name keying the results tree
	TestName     string        // Test name owning the output paths
	ResultsDir   string        // Root of the test-results tree
	BuildDir     string        // Build root: tool working directory and raw capture location
	ScanDir      string        // Directory scanned for marker files; empty disables scan mode
	ExtraArgs    []string      // Arguments appended verbatim after the fixed report flags
	AnalysesFile string        // Optional analyses config file describing multiple runs
	RunInterval  time.Duration // Interval between analysis runs
	RunOnce      bool          // Indicates if the service should exit after one run
	Concurrency  int           // Number of concurrent analysis workers (0 = number of CPUs)
	Log          *slog.Logger
}

// NewConfig creates a new Config from cli context
func NewConfig(ctx *cli.Context, log *slog.Logger) (*Config, error) {
	if err := flags.CheckRequired(ctx); err != nil {
		return nil, fmt.Errorf("missing required flags: %w", err)
	}

	project := ctx.String(flags.Project.Name)
	if err := results.ValidateName(project); err != nil {
		return nil, fmt.Errorf("invalid project: %w", err)
	}

	testName := ctx.String(flags.TestName.Name)
	if testName == "" {
		testName = "ikos"
	}
	if err := results.ValidateName(testName); err != nil {
		return nil, fmt.Errorf("invalid test name: %w", err)
	}

	resultsDir := ctx.String(flags.ResultsDir.Name)
	if resultsDir == "" {
		return nil, errors.New("results directory is required")
	}
	absResultsDir, err := filepath.Abs(resultsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for results directory '%s': %w", resultsDir, err)
	}

	buildDir := ctx.String(flags.BuildDir.Name)
	if buildDir == "" {
		buildDir = "."
	}
	absBuildDir, err := filepath.Abs(buildDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for build directory '%s': %w", buildDir, err)
	}

	scanDir := ctx.String(flags.ScanDir.Name)
	var absScanDir string
	if scanDir != "" {
		absScanDir, err = filepath.Abs(scanDir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve absolute path for scan directory '%s': %w", scanDir, err)
		}
	}

	analysesFile := ctx.String(flags.AnalysesFile.Name)
	var absAnalysesFile string
	if analysesFile != "" {
		absAnalysesFile, err = filepath.Abs(analysesFile)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve absolute path for analyses file '%s': %w", analysesFile, err)
		}
	}

	runInterval := ctx.Duration(flags.RunInterval.Name)
	runOnce := runInterval == 0

	concurrency := ctx.Int(flags.Concurrency.Name)
	if concurrency < 0 {
		return nil, fmt.Errorf("concurrency cannot be negative, got %d", concurrency)
	}
	if concurrency == 0 {
		concurrency = runtime.NumCPU()
	}

	return &Config{
		Tool:         ctx.String(flags.Tool.Name),
		ReportTool:   ctx.String(flags.ReportTool.Name),
		Project:      project,
		TestName:     testName,
		ResultsDir:   absResultsDir,
		BuildDir:     absBuildDir,
		ScanDir:      absScanDir,
		ExtraArgs:    ctx.StringSlice(flags.ExtraArg.Name),
		AnalysesFile: absAnalysesFile,
		RunInterval:  runInterval,
		RunOnce:      runOnce,
		Concurrency:  concurrency,
		Log:          log,
	}, nil
}
