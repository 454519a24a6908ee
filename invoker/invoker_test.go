package invoker

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tool.sh")
	err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755)
	require.NoError(t, err)
	return path
}

func TestResolveMissingToolReturnsToolNotFound(t *testing.T) {
	inv := New(nil)

	_, err := inv.Resolve("definitely-not-a-real-binary-name-12345")
	require.Error(t, err)
	assert.True(t, IsToolNotFound(err))
}

func TestResolveEmptyToolName(t *testing.T) {
	inv := New(nil)

	_, err := inv.Resolve("")
	require.Error(t, err)
	assert.True(t, IsToolNotFound(err))
}

func TestResolveRejectsNonExecutablePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.txt")
	require.NoError(t, os.WriteFile(path, []byte("not a binary"), 0644))

	inv := New(nil)
	_, err := inv.Resolve(path)
	require.Error(t, err)
	assert.True(t, IsToolNotFound(err))
}

func TestResolveAcceptsExecutablePath(t *testing.T) {
	path := writeScript(t, "exit 0\n")

	inv := New(nil)
	resolved, err := inv.Resolve(path)
	require.NoError(t, err)
	assert.Equal(t, path, resolved)
}

func TestRunCapturesCombinedOutput(t *testing.T) {
	path := writeScript(t, "echo to-stdout\necho to-stderr >&2\n")

	inv := New(nil)
	result, err := inv.Run(context.Background(), path, nil, t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 0, result.ExitCode)
	assert.Contains(t, result.Output, "to-stdout")
	assert.Contains(t, result.Output, "to-stderr")
}

func TestRunNonZeroExitIsNotAnError(t *testing.T) {
	path := writeScript(t, "echo found issues\nexit 3\n")

	inv := New(nil)
	result, err := inv.Run(context.Background(), path, nil, t.TempDir())
	require.NoError(t, err, "a non-zero exit is data, not a harness error")

	assert.Equal(t, 3, result.ExitCode)
	assert.Contains(t, result.Output, "found issues")
}

func TestRunUsesWorkingDirectory(t *testing.T) {
	path := writeScript(t, "pwd\n")
	workDir := t.TempDir()

	inv := New(nil)
	result, err := inv.Run(context.Background(), path, nil, workDir)
	require.NoError(t, err)

	resolved, err := filepath.EvalSymlinks(workDir)
	require.NoError(t, err)
	assert.Contains(t, result.Output, resolved)
}

func TestRunPassesArguments(t *testing.T) {
	path := writeScript(t, `echo "$@"`+"\n")

	inv := New(nil)
	result, err := inv.Run(context.Background(), path, []string{"--xunit-file", "out.xml"}, t.TempDir())
	require.NoError(t, err)

	assert.Contains(t, result.Output, "--xunit-file out.xml")
}

func TestRunNilContext(t *testing.T) {
	inv := New(nil)
	_, err := inv.Run(nil, "/bin/true", nil, "") //nolint:staticcheck
	assert.Error(t, err)
}
