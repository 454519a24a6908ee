package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openrobotics/ikos-harness/diag"
)

const sampleOutput = `ikos-report 3.4
src/main.c: In function 'main':
src/main.c:8:10: error: buffer overflow, accessing index 10 of array 'a'
    a[i] = i;
src/main.c:14:5: warning: division by zero might occur here
src/util.c:3: note: variable 'tmp' is never used

# Summary:
Total number of checks: 42
`

func TestParseExtractsDiagnosticsInOrder(t *testing.T) {
	p := NewParser("ikos", "3.4")

	doc, err := p.Parse(sampleOutput, nil)
	require.NoError(t, err)
	require.Len(t, doc.Diagnostics, 3)

	assert.Equal(t, diag.Diagnostic{
		File: "src/main.c", Line: 8, Column: 10, RuleID: "ikos",
		Severity: diag.SeverityError, Message: "buffer overflow, accessing index 10 of array 'a'",
	}, doc.Diagnostics[0])

	assert.Equal(t, diag.SeverityWarning, doc.Diagnostics[1].Severity)
	assert.Equal(t, 14, doc.Diagnostics[1].Line)

	assert.Equal(t, diag.SeverityNote, doc.Diagnostics[2].Severity)
	assert.Equal(t, 0, doc.Diagnostics[2].Column, "column is optional")

	assert.Equal(t, 3, doc.Stats.Total)
	assert.Equal(t, 1, doc.Stats.Errors)
	assert.Equal(t, 1, doc.Stats.Warnings)
	assert.Equal(t, 1, doc.Stats.Notes)
}

func TestParseUnknownSeverityBecomesNote(t *testing.T) {
	p := NewParser("ikos", "")

	doc, err := p.Parse("a.c:3:1: unreachable: statement never executed\n", nil)
	require.NoError(t, err)
	require.Len(t, doc.Diagnostics, 1)
	assert.Equal(t, diag.SeverityNote, doc.Diagnostics[0].Severity)
}

func TestParseTrailingRuleID(t *testing.T) {
	p := NewParser("ikos", "")

	doc, err := p.Parse("a.c:3:1: error: something bad [boa]\n", nil)
	require.NoError(t, err)
	require.Len(t, doc.Diagnostics, 1)
	assert.Equal(t, "boa", doc.Diagnostics[0].RuleID)
	assert.Equal(t, "something bad", doc.Diagnostics[0].Message)
}

func TestParseEmptyOutputIsCleanRun(t *testing.T) {
	p := NewParser("ikos", "")

	for _, output := range []string{"", "   \n\t\n"} {
		doc, err := p.Parse(output, nil)
		require.NoError(t, err)
		assert.Empty(t, doc.Diagnostics)
		assert.True(t, doc.Passed())
	}
}

func TestParseGarbageIsMalformedOutput(t *testing.T) {
	p := NewParser("ikos", "")

	doc, err := p.Parse("complete nonsense\nwith no diagnostics at all\n", nil)
	require.Error(t, err)
	assert.True(t, IsMalformedOutput(err))
	require.NotNil(t, doc, "partial document is returned as evidence")
	assert.Empty(t, doc.Diagnostics)
}

func TestParseStripsANSIEscapes(t *testing.T) {
	p := NewParser("ikos", "")

	doc, err := p.Parse("\x1b[31ma.c:1:1: error: red alert\x1b[0m\n", nil)
	require.NoError(t, err)
	require.Len(t, doc.Diagnostics, 1)
	assert.Equal(t, "red alert", doc.Diagnostics[0].Message)
}

func TestParseAttachesRunIdentity(t *testing.T) {
	p := NewParser("ikos", "3.4")
	start := time.Now().Add(-2 * time.Second)
	run := &diag.AnalysisRun{
		RunID:     "run-1",
		Project:   "nav2_core",
		TestName:  "ikos",
		StartTime: start,
		EndTime:   start.Add(2 * time.Second),
	}

	doc, err := p.Parse("a.c:1:1: error: boom\n", run)
	require.NoError(t, err)
	assert.Equal(t, "run-1", doc.RunID)
	assert.Equal(t, "nav2_core", doc.Project)
	assert.Equal(t, "ikos", doc.TestName)
	assert.Equal(t, 2*time.Second, doc.Duration)
}

func TestParseDeepPathsStayIntact(t *testing.T) {
	p := NewParser("ikos", "")

	doc, err := p.Parse("pkg/src/deep/file.c:100:2: warning: w\n", nil)
	require.NoError(t, err)
	require.Len(t, doc.Diagnostics, 1)
	assert.Equal(t, "pkg/src/deep/file.c", doc.Diagnostics[0].File)
	assert.Equal(t, 100, doc.Diagnostics[0].Line)
	assert.Equal(t, 2, doc.Diagnostics[0].Column)
}
