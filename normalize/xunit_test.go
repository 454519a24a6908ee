package normalize

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openrobotics/ikos-harness/diag"
)

func sampleDocument() *diag.ReportDocument {
	doc := &diag.ReportDocument{
		Tool:     "ikos",
		TestName: "ikos",
		Duration: 1500 * time.Millisecond,
	}
	doc.Append(diag.Diagnostic{File: "a.c", Line: 3, Column: 5, RuleID: "boa", Severity: diag.SeverityError, Message: "overflow"})
	doc.Append(diag.Diagnostic{File: "a.c", Line: 9, Column: 1, RuleID: "dbz", Severity: diag.SeverityError, Message: "division by zero"})
	doc.Append(diag.Diagnostic{File: "b.c", Line: 2, RuleID: "ikos", Severity: diag.SeverityWarning, Message: "unused"})
	return doc
}

func TestBuildXunitFailureCountMatchesErrorSeverity(t *testing.T) {
	suite := BuildXunit(sampleDocument())

	assert.Equal(t, 3, suite.Tests)
	assert.Equal(t, 2, suite.Failures)

	failures := 0
	for _, tc := range suite.Cases {
		if tc.Failure != nil {
			failures++
		}
	}
	assert.Equal(t, 2, failures, "failed entries must equal error-severity diagnostics")
}

func TestBuildXunitOmitsColumnNumbers(t *testing.T) {
	suite := BuildXunit(sampleDocument())

	require.Len(t, suite.Cases, 3)
	assert.Equal(t, "a.c:3", suite.Cases[0].Name)
	assert.Equal(t, "boa", suite.Cases[0].Classname)
}

func TestBuildXunitEmptyRunEmitsSummaryCase(t *testing.T) {
	doc := &diag.ReportDocument{Tool: "ikos", TestName: "ikos"}
	suite := BuildXunit(doc)

	assert.Equal(t, 1, suite.Tests)
	assert.Zero(t, suite.Failures)
	require.Len(t, suite.Cases, 1)
	assert.Nil(t, suite.Cases[0].Failure)
}

func TestEncodeXunitIsDeterministic(t *testing.T) {
	suite := BuildXunit(sampleDocument())

	first, err := EncodeXunit(suite)
	require.NoError(t, err)
	second, err := EncodeXunit(suite)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Contains(t, string(first), "<?xml")
	assert.Contains(t, string(first), `failures="2"`)
}

func TestXunitRoundTrip(t *testing.T) {
	suite := BuildXunit(sampleDocument())
	data, err := EncodeXunit(suite)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "ikos.junit.xml")
	require.NoError(t, os.WriteFile(path, data, 0644))

	parsed, err := ParseXunitFile(path)
	require.NoError(t, err)
	assert.Equal(t, suite.Name, parsed.Name)
	assert.Equal(t, suite.Tests, parsed.Tests)
	require.Len(t, parsed.Cases, 3)
	require.NotNil(t, parsed.Cases[0].Failure)
	assert.Equal(t, "overflow", parsed.Cases[0].Failure.Message)
}

func TestMergeXunitRecountsFailures(t *testing.T) {
	// A suite whose summary counter disagrees with its failure nodes,
	// the shape of the known IKOS reporting bug.
	broken := &JUnitTestSuite{
		Name:     "broken",
		Tests:    2,
		Failures: 0,
		Cases: []JUnitTestCase{
			{Name: "a.c:1", Failure: &JUnitFailure{Message: "boom"}},
			{Name: "a.c:2"},
		},
	}
	healthy := BuildXunit(sampleDocument())

	top := MergeXunit([]*JUnitTestSuite{broken, healthy}, "workspace.ikos")

	assert.Equal(t, "workspace.ikos", top.Name)
	assert.Equal(t, 5, top.Tests)
	assert.Equal(t, 3, top.Failures, "failure counts are recomputed from failure nodes")
	require.Len(t, top.Suites, 2)
	assert.Equal(t, 1, top.Suites[0].Failures)
}

func TestMergeXunitFilesRenamesSuites(t *testing.T) {
	dir := t.TempDir()

	data, err := EncodeXunit(BuildXunit(sampleDocument()))
	require.NoError(t, err)
	path := filepath.Join(dir, "talker.junit.xml")
	require.NoError(t, os.WriteFile(path, data, 0644))

	top, err := MergeXunitFiles([]string{path}, "ws.ikos")
	require.NoError(t, err)
	require.Len(t, top.Suites, 1)
	assert.Equal(t, "talker", top.Suites[0].Name)
}

func TestMergeXunitFilesMissingFile(t *testing.T) {
	_, err := MergeXunitFiles([]string{filepath.Join(t.TempDir(), "nope.junit.xml")}, "ws.ikos")
	assert.Error(t, err)
}
