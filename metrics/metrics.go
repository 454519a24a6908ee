package metrics

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	MetricsNamespace = "ikos_harness"
)

var (
	Debug                bool = true
	nonAlphanumericRegex      = regexp.MustCompile(`[^a-zA-Z ]+`)

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "errors_total",
		Help:      "Count of errors",
	}, []string{
		"error",
	})

	analysisResults = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "analysis_results",
		Help:      "Result of analysis runs",
	}, []string{
		"project",
		"run_id",
		"result",
	})

	analysisDiagnosticsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "analysis_diagnostics_total",
		Help:      "Total number of diagnostics reported by the analyzer",
	}, []string{
		"project",
		"run_id",
		"severity",
	})

	analysisDuration = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "analysis_duration",
		Help:      "Duration of analysis runs in seconds",
	}, []string{
		"project",
		"run_id",
	})
)

// errToLabel tries to make the error string a more valid Prometheus label
func errToLabel(err error) string {
	if err == nil {
		return "nil"
	}
	errClean := nonAlphanumericRegex.ReplaceAllString(err.Error(), "")
	errClean = strings.ReplaceAll(errClean, " ", "_")
	errClean = strings.ReplaceAll(errClean, "__", "_")
	return errClean
}

func RecordError(error string) {
	if Debug {
		slog.Debug("metric inc",
			"m", "errors_total",
			"error", error,
		)
	}
	errorsTotal.WithLabelValues(error).Inc()
}

// RecordErrorDetails concats the error message to the label
// and also tries to clean the label to be a valid Prometheus label
func RecordErrorDetails(label string, err error) {
	if err == nil {
		return
	}
	label = fmt.Sprintf("%s.%s", label, errToLabel(err))
	RecordError(label)
}

func RecordAnalysis(
	project string,
	runID string,
	result string,
	errors int,
	warnings int,
	notes int,
	duration time.Duration,
) {
	if Debug {
		slog.Debug("metric record",
			"m", "analysis_results",
			"project", project,
			"run_id", runID,
			"result", result,
			"errors", errors,
			"warnings", warnings,
			"notes", notes)
	}
	analysisResults.WithLabelValues(project, runID, result).Set(1)
	analysisDiagnosticsTotal.WithLabelValues(project, runID, "error").Add(float64(errors))
	analysisDiagnosticsTotal.WithLabelValues(project, runID, "warning").Add(float64(warnings))
	analysisDiagnosticsTotal.WithLabelValues(project, runID, "note").Add(float64(notes))
	analysisDuration.WithLabelValues(project, runID).Set(duration.Seconds())
}
