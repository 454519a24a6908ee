// Package results persists normalized reports into the project-wide
// test-results tree.
//
// The directory convention is:
//
//	<results-root>/<project>/<test-name>.xunit.xml
//	<results-root>/<project>/<test-name>.sarif
//
// plus a raw capture of the tool output at
//
//	<build-root>/<tool-namespace>/<test-name>.txt
//
// Distinct test names never share an output path, so concurrent runs with
// different test names need no locking; the filesystem namespace isolates
// them. Re-running the same test name replaces only its own prior files.
package results

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	XunitExt = ".xunit.xml"
	SarifExt = ".sarif"
	RawExt   = ".txt"
)

// WriteFailureError indicates persisting a report failed. This is fatal to
// the run and never retried.
type WriteFailureError struct {
	Path string
	Err  error
}

func (e *WriteFailureError) Error() string {
	return fmt.Sprintf("failed to write %s: %v", e.Path, e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *WriteFailureError) Unwrap() error {
	return e.Err
}

// IsWriteFailure checks if the error is or wraps a WriteFailureError
func IsWriteFailure(err error) bool {
	var writeErr *WriteFailureError
	return err != nil && errors.As(err, &writeErr)
}

// ValidateName rejects identifiers that would escape the results tree or
// collide across runs. Project and test names become path components, so
// separators and traversal elements are not allowed.
func ValidateName(name string) error {
	if name == "" {
		return errors.New("name cannot be empty")
	}
	if name == "." || name == ".." {
		return fmt.Errorf("name %q is not a valid path component", name)
	}
	if strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("name %q must not contain path separators", name)
	}
	return nil
}

// Dir is a results directory rooted at an explicit path. The root is plain
// configuration handed in by the caller, never process-global state, so
// independent runs stay composable.
type Dir struct {
	root string
}

// NewDir creates a results directory handle. Nothing is created on disk
// until the first write.
func NewDir(root string) (*Dir, error) {
	if root == "" {
		return nil, errors.New("results root is required")
	}
	return &Dir{root: root}, nil
}

// Root returns the configured results root.
func (d *Dir) Root() string {
	return d.root
}

// PathFor maps (project, test name, extension) to the file path that run
// owns. The mapping is injective per extension: distinct test names yield
// distinct paths.
func (d *Dir) PathFor(project, testName, ext string) string {
	return filepath.Join(d.root, project, testName+ext)
}

// Write persists one report document at its designated path, creating
// parent directories as needed. An existing directory is not an error, and
// an existing file is replaced whole (last write wins).
func (d *Dir) Write(project, testName, ext string, data []byte) (string, error) {
	if err := ValidateName(project); err != nil {
		return "", fmt.Errorf("invalid project: %w", err)
	}
	if err := ValidateName(testName); err != nil {
		return "", fmt.Errorf("invalid test name: %w", err)
	}

	path := d.PathFor(project, testName, ext)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", &WriteFailureError{Path: path, Err: err}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", &WriteFailureError{Path: path, Err: err}
	}
	return path, nil
}

// WriteFile persists data at an explicit path, creating parent directories
// as needed. Used for caller-designated report paths that live outside the
// results tree convention.
func WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return &WriteFailureError{Path: path, Err: err}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return &WriteFailureError{Path: path, Err: err}
	}
	return nil
}

// RawCapture writes the plain-text capture of the raw tool output under the
// build tree, namespaced by tool so unrelated harnesses do not collide:
// <build-root>/<namespace>/<test-name>.txt.
func RawCapture(buildRoot, namespace, testName, output string) (string, error) {
	if err := ValidateName(namespace); err != nil {
		return "", fmt.Errorf("invalid tool namespace: %w", err)
	}
	if err := ValidateName(testName); err != nil {
		return "", fmt.Errorf("invalid test name: %w", err)
	}

	path := filepath.Join(buildRoot, namespace, testName+RawExt)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", &WriteFailureError{Path: path, Err: err}
	}
	if err := os.WriteFile(path, []byte(output), 0644); err != nil {
		return "", &WriteFailureError{Path: path, Err: err}
	}
	return path, nil
}
