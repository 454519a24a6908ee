// Package normalize converts raw analyzer output into report documents and
// serializes them to the xunit and SARIF report formats.
package normalize

import (
	"bufio"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/acarl005/stripansi"

	"github.com/openrobotics/ikos-harness/diag"
)

// MalformedOutputError indicates the parser could not extract a single
// diagnostic from non-empty tool output. Partial evidence (the raw capture)
// is still persisted by the orchestrator before this surfaces.
type MalformedOutputError struct {
	Tool string
}

func (e *MalformedOutputError) Error() string {
	return fmt.Sprintf("no diagnostics could be parsed from %s output", e.Tool)
}

// IsMalformedOutput checks if the error is or wraps a MalformedOutputError
func IsMalformedOutput(err error) bool {
	var malformed *MalformedOutputError
	return err != nil && errors.As(err, &malformed)
}

// diagnosticLine matches GCC-style diagnostics as emitted by ikos-report:
//
//	path:line: severity: message
//	path:line:column: severity: message [rule-id]
//
// The column and the trailing bracketed rule identifier are optional.
var diagnosticLine = regexp.MustCompile(`^(.+?):(\d+)(?::(\d+))?:\s*([A-Za-z_][A-Za-z0-9_-]*):\s*(.+?)(?:\s+\[([A-Za-z0-9._-]+)\])?$`)

// Parser turns raw tool output into a ReportDocument.
type Parser struct {
	tool        string
	toolVersion string
}

// NewParser creates a parser attributing diagnostics to the named tool.
func NewParser(tool, toolVersion string) *Parser {
	return &Parser{tool: tool, toolVersion: toolVersion}
}

// Parse scans the output line by line. Lines that do not match the
// diagnostic grammar are skipped, not fatal; the tool's banners, summaries
// and source excerpts fall through this way. Diagnostics are kept in emission
// order so repeated runs diff cleanly. Empty output yields an empty document
// (a clean run); non-empty output yielding zero diagnostics is a
// MalformedOutputError.
func (p *Parser) Parse(output string, run *diag.AnalysisRun) (*diag.ReportDocument, error) {
	clean := stripansi.Strip(output)

	doc := &diag.ReportDocument{
		Tool:        p.tool,
		ToolVersion: p.toolVersion,
	}
	if run != nil {
		doc.RunID = run.RunID
		doc.Project = run.Project
		doc.TestName = run.TestName
		doc.StartTime = run.StartTime
		doc.Duration = run.Duration()
	}

	if strings.TrimSpace(clean) == "" {
		return doc, nil
	}

	scanner := bufio.NewScanner(strings.NewReader(clean))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		d, ok := p.parseLine(scanner.Text())
		if !ok {
			continue
		}
		doc.Append(d)
	}

	if doc.Stats.Total == 0 {
		return doc, &MalformedOutputError{Tool: p.tool}
	}
	return doc, nil
}

func (p *Parser) parseLine(line string) (diag.Diagnostic, bool) {
	m := diagnosticLine.FindStringSubmatch(strings.TrimRight(line, " \t"))
	if m == nil {
		return diag.Diagnostic{}, false
	}

	lineNo, err := strconv.Atoi(m[2])
	if err != nil || lineNo <= 0 {
		return diag.Diagnostic{}, false
	}

	column := 0
	if m[3] != "" {
		column, err = strconv.Atoi(m[3])
		if err != nil {
			return diag.Diagnostic{}, false
		}
	}

	ruleID := m[6]
	if ruleID == "" {
		ruleID = p.tool
	}

	return diag.Diagnostic{
		File:     m[1],
		Line:     lineNo,
		Column:   column,
		RuleID:   ruleID,
		Severity: diag.ParseSeverity(m[4]),
		Message:  strings.TrimSpace(m[5]),
	}, true
}
