// Package invoker resolves and runs external analyzer processes, capturing
// their combined output and exit code.
package invoker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// ToolNotFoundError indicates the analyzer binary could not be resolved to an
// executable file. This is a configuration-time failure: no process was run.
type ToolNotFoundError struct {
	Tool string
	Err  error
}

func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("tool %q not found: %v", e.Tool, e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *ToolNotFoundError) Unwrap() error {
	return e.Err
}

// IsToolNotFound checks if the error is or wraps a ToolNotFoundError
func IsToolNotFound(err error) bool {
	var notFound *ToolNotFoundError
	return err != nil && errors.As(err, &notFound)
}

// Result holds the outcome of one external process run. A non-zero exit code
// is data, not an error: analyzers exit non-zero when they find issues.
type Result struct {
	ExitCode int
	Output   string
	Duration time.Duration
}

// CmdBuilder constructs the command to run. Tests substitute fake processes
// through it; the cleanup func is always called after the run.
type CmdBuilder func(ctx context.Context, name string, arg ...string) (*exec.Cmd, func())

// DefaultCmdBuilder builds a plain exec.Cmd with no extra cleanup.
func DefaultCmdBuilder(ctx context.Context, name string, arg ...string) (*exec.Cmd, func()) {
	return exec.CommandContext(ctx, name, arg...), func() {}
}

// Invoker runs external analyzer binaries.
type Invoker struct {
	cmdBuilder CmdBuilder
}

// New creates an Invoker. A nil cmdBuilder selects DefaultCmdBuilder.
func New(cmdBuilder CmdBuilder) *Invoker {
	if cmdBuilder == nil {
		cmdBuilder = DefaultCmdBuilder
	}
	return &Invoker{cmdBuilder: cmdBuilder}
}

// Resolve locates the analyzer binary by name or path. Names without a path
// separator are searched on PATH; paths are checked directly for existence
// and the executable bit.
func (i *Invoker) Resolve(tool string) (string, error) {
	if tool == "" {
		return "", &ToolNotFoundError{Tool: tool, Err: errors.New("empty tool name")}
	}

	if strings.ContainsRune(tool, os.PathSeparator) {
		info, err := os.Stat(tool)
		if err != nil {
			return "", &ToolNotFoundError{Tool: tool, Err: err}
		}
		if info.IsDir() || info.Mode()&0111 == 0 {
			return "", &ToolNotFoundError{Tool: tool, Err: errors.New("not an executable file")}
		}
		return tool, nil
	}

	path, err := exec.LookPath(tool)
	if err != nil {
		return "", &ToolNotFoundError{Tool: tool, Err: err}
	}
	return path, nil
}

// Run executes the resolved binary synchronously in workDir, capturing
// stdout and stderr interleaved into a single text stream. The process runs
// to completion unless the context is canceled; there are no retries, since
// analyzer failures are data rather than transient faults.
func (i *Invoker) Run(ctx context.Context, path string, args []string, workDir string) (*Result, error) {
	if ctx == nil {
		return nil, errors.New("context cannot be nil")
	}

	cmd, cleanup := i.cmdBuilder(ctx, path, args...)
	defer cleanup()

	var combined bytes.Buffer
	cmd.Stdout = &combined
	cmd.Stderr = &combined
	cmd.Dir = workDir

	startTime := time.Now()
	runErr := cmd.Run()
	duration := time.Since(startTime)

	result := &Result{
		Output:   combined.String(),
		Duration: duration,
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		// The process never started (bad path, permissions, canceled
		// before exec); that is a harness failure, not tool output.
		return nil, fmt.Errorf("failed to run %s: %w", path, runErr)
	}

	return result, nil
}
