package normalize

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/openrobotics/ikos-harness/diag"
)

// JUnitTestSuites is the <testsuites> aggregate document wrapping the
// per-analysis suites.
type JUnitTestSuites struct {
	XMLName  xml.Name         `xml:"testsuites"`
	Name     string           `xml:"name,attr"`
	Tests    int              `xml:"tests,attr"`
	Errors   int              `xml:"errors,attr"`
	Failures int              `xml:"failures,attr"`
	Time     float64          `xml:"time,attr"`
	Suites   []JUnitTestSuite `xml:"testsuite"`
}

// JUnitTestSuite is one <testsuite> element: a single analysis run.
type JUnitTestSuite struct {
	XMLName  xml.Name        `xml:"testsuite"`
	Name     string          `xml:"name,attr"`
	Tests    int             `xml:"tests,attr"`
	Errors   int             `xml:"errors,attr"`
	Failures int             `xml:"failures,attr"`
	Time     float64         `xml:"time,attr"`
	Cases    []JUnitTestCase `xml:"testcase"`
}

// JUnitTestCase is one synthetic test case, one per diagnostic.
type JUnitTestCase struct {
	Name      string        `xml:"name,attr"`
	Classname string        `xml:"classname,attr"`
	Time      float64       `xml:"time,attr"`
	Failure   *JUnitFailure `xml:"failure,omitempty"`
}

// JUnitFailure marks an error-severity diagnostic.
type JUnitFailure struct {
	Message string `xml:"message,attr"`
	Type    string `xml:"type,attr,omitempty"`
	Content string `xml:",chardata"`
}

// BuildXunit derives the test-result form of a report document. Each
// diagnostic becomes one test case; error-severity diagnostics carry a
// <failure> child. This form structurally lacks a column number, so case
// names use file:line only. A clean run emits a single passing summary case
// so the suite is never empty.
func BuildXunit(doc *diag.ReportDocument) *JUnitTestSuite {
	suite := &JUnitTestSuite{
		Name:  doc.TestName,
		Tests: doc.Stats.Total,
		Time:  doc.Duration.Seconds(),
	}

	if doc.Stats.Total == 0 {
		suite.Tests = 1
		suite.Cases = []JUnitTestCase{{
			Name:      doc.TestName,
			Classname: doc.Tool,
		}}
		return suite
	}

	for _, d := range doc.Diagnostics {
		tc := JUnitTestCase{
			Name:      fmt.Sprintf("%s:%d", d.File, d.Line),
			Classname: d.RuleID,
		}
		if d.Severity == diag.SeverityError {
			tc.Failure = &JUnitFailure{
				Message: d.Message,
				Type:    string(d.Severity),
				Content: fmt.Sprintf("%s:%d: %s: %s", d.File, d.Line, d.Severity, d.Message),
			}
			suite.Failures++
		}
		suite.Cases = append(suite.Cases, tc)
	}

	return suite
}

// EncodeXunit serializes a suite deterministically, with the XML header the
// downstream test-result collectors expect.
func EncodeXunit(v any) ([]byte, error) {
	body, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode xunit document: %w", err)
	}
	return append([]byte(xml.Header), append(body, '\n')...), nil
}

// ParseXunitFile reads a previously generated <testsuite> document back.
func ParseXunitFile(path string) (*JUnitTestSuite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read xunit file %s: %w", path, err)
	}
	var suite JUnitTestSuite
	if err := xml.Unmarshal(data, &suite); err != nil {
		return nil, fmt.Errorf("failed to parse xunit file %s: %w", path, err)
	}
	return &suite, nil
}

// MergeXunit combines per-analysis suites into a single <testsuites>
// document. The per-suite failure counters are recomputed from the actual
// <failure> nodes rather than trusted, since IKOS is known to misreport the
// summary value. Suite order is preserved.
func MergeXunit(suites []*JUnitTestSuite, summaryName string) *JUnitTestSuites {
	top := &JUnitTestSuites{Name: summaryName}

	for _, suite := range suites {
		failures := 0
		for _, tc := range suite.Cases {
			if tc.Failure != nil {
				failures++
			}
		}
		suite.Failures = failures

		top.Tests += suite.Tests
		top.Errors += suite.Errors
		top.Failures += suite.Failures
		top.Time += suite.Time
		top.Suites = append(top.Suites, *suite)
	}

	return top
}

// MergeXunitFiles reads per-analysis xunit files and merges them, renaming
// each suite after the program it analyzed (the file's base name without the
// report extension).
func MergeXunitFiles(paths []string, summaryName string) (*JUnitTestSuites, error) {
	suites := make([]*JUnitTestSuite, 0, len(paths))
	for _, path := range paths {
		suite, err := ParseXunitFile(path)
		if err != nil {
			return nil, err
		}
		suite.Name = strings.TrimSuffix(filepath.Base(path), ".junit.xml")
		suites = append(suites, suite)
	}
	return MergeXunit(suites, summaryName), nil
}
