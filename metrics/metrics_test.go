package metrics

import (
	"errors"
	"regexp"
	"testing"
	"time"
)

func TestErrToLabel(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{
			name: "nil error",
			err:  nil,
		},
		{
			name: "simple error",
			err:  errors.New("test error"),
		},
		{
			name: "error with special chars",
			err:  errors.New("test@error#123"),
		},
		{
			name: "error with multiple spaces",
			err:  errors.New("test   error"),
		},
		{
			name: "error with multiple underscores",
			err:  errors.New("test__error"),
		},
	}

	valid := regexp.MustCompile(`^[a-zA-Z_]*$`)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			label := errToLabel(tt.err)
			if !valid.MatchString(label) {
				t.Errorf("errToLabel(%v) = %q, contains invalid characters", tt.err, label)
			}
		})
	}
}

func TestRecordAnalysisDoesNotPanic(t *testing.T) {
	RecordAnalysis("proj", "run-1", "pass", 0, 2, 1, 3*time.Second)
	RecordAnalysis("proj", "run-2", "fail", 4, 0, 0, time.Second)
	RecordErrorDetails("write failure", errors.New("disk full"))
}
