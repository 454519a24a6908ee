package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeAnalysesFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "analyses.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestNewRegistryWithoutFileUsesDefaults(t *testing.T) {
	r, err := NewRegistry(Config{
		DefaultProject:   "nav2_core",
		DefaultTestName:  "ikos",
		DefaultExtraArgs: []string{"--no-progress"},
	})
	require.NoError(t, err)

	analyses := r.Analyses()
	require.Len(t, analyses, 1)
	assert.Equal(t, "ikos", analyses[0].Name)
	assert.Equal(t, "nav2_core", analyses[0].Project)
	assert.Equal(t, []string{"--no-progress"}, analyses[0].ExtraArgs)
}

func TestNewRegistryLoadsAnalysesFile(t *testing.T) {
	path := writeAnalysesFile(t, `
analyses:
  - name: ikos
    project: nav2_core
  - name: ikos-strict
    project: nav2_core
    extra_args: ["--entry-points", "main"]
`)

	r, err := NewRegistry(Config{AnalysesFile: path, DefaultProject: "fallback"})
	require.NoError(t, err)

	analyses := r.Analyses()
	require.Len(t, analyses, 2)
	assert.Equal(t, "ikos-strict", analyses[1].Name)
	assert.Equal(t, []string{"--entry-points", "main"}, analyses[1].ExtraArgs)
}

func TestNewRegistryAppliesDefaultProject(t *testing.T) {
	path := writeAnalysesFile(t, `
analyses:
  - name: ikos
`)

	r, err := NewRegistry(Config{AnalysesFile: path, DefaultProject: "nav2_core"})
	require.NoError(t, err)
	assert.Equal(t, "nav2_core", r.Analyses()[0].Project)
}

func TestNewRegistryRejectsDuplicateNames(t *testing.T) {
	path := writeAnalysesFile(t, `
analyses:
  - name: ikos
    project: nav2_core
  - name: ikos
    project: nav2_core
`)

	_, err := NewRegistry(Config{AnalysesFile: path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate analysis")
}

func TestNewRegistryRejectsBadNames(t *testing.T) {
	path := writeAnalysesFile(t, `
analyses:
  - name: "a/b"
    project: nav2_core
`)

	_, err := NewRegistry(Config{AnalysesFile: path})
	assert.Error(t, err)
}

func TestNewRegistryMissingFile(t *testing.T) {
	_, err := NewRegistry(Config{AnalysesFile: filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)
}

func TestNewRegistryEmptyFile(t *testing.T) {
	path := writeAnalysesFile(t, "analyses: []\n")
	_, err := NewRegistry(Config{AnalysesFile: path})
	assert.Error(t, err)
}
