package normalize

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/openrobotics/ikos-harness/diag"
)

const (
	sarifVersion = "2.1.0"
	sarifSchema  = "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json"

	toolInformationURI = "https://github.com/NASA-SW-VnV/ikos"
)

// SarifLog is the top-level static-analysis interchange document.
type SarifLog struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []SarifRun `json:"runs"`
}

type SarifRun struct {
	Tool    SarifTool     `json:"tool"`
	Results []SarifResult `json:"results"`
}

type SarifTool struct {
	Driver SarifDriver `json:"driver"`
}

type SarifDriver struct {
	Name           string `json:"name"`
	Version        string `json:"version,omitempty"`
	InformationURI string `json:"informationUri,omitempty"`
}

type SarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   SarifMessage    `json:"message"`
	Locations []SarifLocation `json:"locations,omitempty"`
}

type SarifMessage struct {
	Text string `json:"text"`
}

type SarifLocation struct {
	PhysicalLocation SarifPhysicalLocation `json:"physicalLocation"`
}

type SarifPhysicalLocation struct {
	ArtifactLocation SarifArtifactLocation `json:"artifactLocation"`
	Region           *SarifRegion          `json:"region,omitempty"`
}

type SarifArtifactLocation struct {
	URI string `json:"uri"`
}

type SarifRegion struct {
	StartLine   int `json:"startLine"`
	StartColumn int `json:"startColumn,omitempty"`
}

// sarifLevel maps the harness severity scale onto SARIF result levels. The
// two scales happen to share their names.
func sarifLevel(s diag.Severity) string {
	return string(s)
}

// BuildSarif derives the static-analysis interchange form of a report
// document: one result per diagnostic, in emission order, with full location
// information including the column the xunit form lacks.
func BuildSarif(doc *diag.ReportDocument) *SarifLog {
	run := SarifRun{
		Tool: SarifTool{
			Driver: SarifDriver{
				Name:           doc.Tool,
				Version:        doc.ToolVersion,
				InformationURI: toolInformationURI,
			},
		},
		Results: make([]SarifResult, 0, len(doc.Diagnostics)),
	}

	for _, d := range doc.Diagnostics {
		result := SarifResult{
			RuleID:  d.RuleID,
			Level:   sarifLevel(d.Severity),
			Message: SarifMessage{Text: d.Message},
			Locations: []SarifLocation{{
				PhysicalLocation: SarifPhysicalLocation{
					ArtifactLocation: SarifArtifactLocation{URI: d.File},
					Region: &SarifRegion{
						StartLine:   d.Line,
						StartColumn: d.Column,
					},
				},
			}},
		}
		run.Results = append(run.Results, result)
	}

	return &SarifLog{
		Schema:  sarifSchema,
		Version: sarifVersion,
		Runs:    []SarifRun{run},
	}
}

// EncodeSarif serializes a SARIF log deterministically.
func EncodeSarif(log *SarifLog) ([]byte, error) {
	body, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode sarif document: %w", err)
	}
	return append(body, '\n'), nil
}

// ParseSarifFile reads a previously generated SARIF document back.
func ParseSarifFile(path string) (*SarifLog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sarif file %s: %w", path, err)
	}
	var log SarifLog
	if err := json.Unmarshal(data, &log); err != nil {
		return nil, fmt.Errorf("failed to parse sarif file %s: %w", path, err)
	}
	return &log, nil
}

// MergeSarif combines several SARIF logs into one by concatenating their
// runs in order. Results within each run are untouched.
func MergeSarif(logs []*SarifLog) *SarifLog {
	merged := &SarifLog{
		Schema:  sarifSchema,
		Version: sarifVersion,
	}
	for _, log := range logs {
		merged.Runs = append(merged.Runs, log.Runs...)
	}
	return merged
}

// MergeSarifFiles reads per-analysis SARIF files and merges them.
func MergeSarifFiles(paths []string) (*SarifLog, error) {
	logs := make([]*SarifLog, 0, len(paths))
	for _, path := range paths {
		log, err := ParseSarifFile(path)
		if err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	return MergeSarif(logs), nil
}
