package harness

import (
	"errors"
	"fmt"

	"github.com/openrobotics/ikos-harness/invoker"
	"github.com/openrobotics/ikos-harness/normalize"
	"github.com/openrobotics/ikos-harness/results"
)

// RuntimeError represents an operational error that should lead to exit code 2.
// Examples include configuration errors, an unresolvable analyzer binary, or
// report files that cannot be written.
type RuntimeError struct {
	Err error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error: %v", e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *RuntimeError) Unwrap() error {
	return e.Err
}

// NewRuntimeError creates a new RuntimeError
func NewRuntimeError(err error) *RuntimeError {
	return &RuntimeError{Err: err}
}

// IsRuntimeError checks if the error is or wraps a RuntimeError
func IsRuntimeError(err error) bool {
	var runtimeErr *RuntimeError
	return err != nil && errors.As(err, &runtimeErr)
}

// TestFailureError represents error-severity diagnostics found by the
// analyzer (exit code 1). The harness itself ran fine; the code under
// analysis did not.
type TestFailureError struct {
	Message string
}

func (e *TestFailureError) Error() string {
	return fmt.Sprintf("test failure: %s", e.Message)
}

// NewTestFailureError creates a new TestFailureError
func NewTestFailureError(message string) *TestFailureError {
	return &TestFailureError{Message: message}
}

// IsTestFailureError checks if the error is or wraps a TestFailureError
func IsTestFailureError(err error) bool {
	var testErr *TestFailureError
	return err != nil && errors.As(err, &testErr)
}

// ToolExecutionError represents an analyzer that exited non-zero without
// producing any interpretable diagnostics. The exit code is secondary
// evidence only; diagnostics on the output always take precedence.
type ToolExecutionError struct {
	Tool     string
	ExitCode int
}

func (e *ToolExecutionError) Error() string {
	return fmt.Sprintf("tool %s exited with code %d and produced no diagnostics", e.Tool, e.ExitCode)
}

// IsToolExecutionError checks if the error is or wraps a ToolExecutionError
func IsToolExecutionError(err error) bool {
	var execErr *ToolExecutionError
	return err != nil && errors.As(err, &execErr)
}

// IsToolNotFound re-exports the invoker's check so callers of the harness
// need only this package to classify failures.
func IsToolNotFound(err error) bool {
	return invoker.IsToolNotFound(err)
}

// IsMalformedOutput re-exports the normalizer's check.
func IsMalformedOutput(err error) bool {
	return normalize.IsMalformedOutput(err)
}

// IsWriteFailure re-exports the results directory's check.
func IsWriteFailure(err error) bool {
	return results.IsWriteFailure(err)
}
