package harness

import (
	"fmt"
	"time"

	"github.com/openrobotics/ikos-harness/diag"
)

// Helper function to convert bool to int
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// getResultString returns a string representing the run outcome
func getResultString(status diag.RunStatus) string {
	switch status {
	case diag.RunStatusPass:
		return "✓ pass"
	default:
		return "✗ fail"
	}
}

// Helper function to format duration to seconds with 1 decimal place
func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}
