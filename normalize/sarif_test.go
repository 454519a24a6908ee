package normalize

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openrobotics/ikos-harness/diag"
)

func TestBuildSarifPreservesOrderAndLocations(t *testing.T) {
	doc := sampleDocument()
	log := BuildSarif(doc)

	require.Len(t, log.Runs, 1)
	run := log.Runs[0]
	assert.Equal(t, "ikos", run.Tool.Driver.Name)
	require.Len(t, run.Results, 3)

	first := run.Results[0]
	assert.Equal(t, "boa", first.RuleID)
	assert.Equal(t, "error", first.Level)
	assert.Equal(t, "overflow", first.Message.Text)
	require.Len(t, first.Locations, 1)
	region := first.Locations[0].PhysicalLocation.Region
	require.NotNil(t, region)
	assert.Equal(t, 3, region.StartLine)
	assert.Equal(t, 5, region.StartColumn, "sarif form keeps the column the xunit form lacks")

	assert.Equal(t, "warning", run.Results[2].Level)
}

func TestBuildSarifLevels(t *testing.T) {
	doc := &diag.ReportDocument{Tool: "ikos"}
	doc.Append(diag.Diagnostic{File: "a.c", Line: 1, Severity: diag.SeverityNote, Message: "n"})

	log := BuildSarif(doc)
	require.Len(t, log.Runs[0].Results, 1)
	assert.Equal(t, "note", log.Runs[0].Results[0].Level)
}

func TestEncodeSarifIsDeterministic(t *testing.T) {
	log := BuildSarif(sampleDocument())

	first, err := EncodeSarif(log)
	require.NoError(t, err)
	second, err := EncodeSarif(log)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Contains(t, string(first), `"version": "2.1.0"`)
}

func TestSarifRoundTrip(t *testing.T) {
	log := BuildSarif(sampleDocument())
	data, err := EncodeSarif(log)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "ikos.sarif")
	require.NoError(t, os.WriteFile(path, data, 0644))

	parsed, err := ParseSarifFile(path)
	require.NoError(t, err)
	require.Len(t, parsed.Runs, 1)
	assert.Len(t, parsed.Runs[0].Results, 3)
}

func TestMergeSarifConcatenatesRuns(t *testing.T) {
	a := BuildSarif(sampleDocument())

	other := &diag.ReportDocument{Tool: "ikos", TestName: "listener"}
	other.Append(diag.Diagnostic{File: "l.c", Line: 7, Severity: diag.SeverityError, Message: "leak"})
	b := BuildSarif(other)

	merged := MergeSarif([]*SarifLog{a, b})
	require.Len(t, merged.Runs, 2)
	assert.Len(t, merged.Runs[0].Results, 3)
	assert.Len(t, merged.Runs[1].Results, 1)
	assert.Equal(t, sarifVersion, merged.Version)
}

func TestMergeSarifFiles(t *testing.T) {
	dir := t.TempDir()
	paths := make([]string, 0, 2)
	for _, name := range []string{"talker.sarif", "listener.sarif"} {
		data, err := EncodeSarif(BuildSarif(sampleDocument()))
		require.NoError(t, err)
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, data, 0644))
		paths = append(paths, path)
	}

	merged, err := MergeSarifFiles(paths)
	require.NoError(t, err)
	assert.Len(t, merged.Runs, 2)
}
