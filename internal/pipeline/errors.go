package pipeline

import (
	"errors"
	"fmt"
)

// ErrNoInput is returned when no failure text was supplied.
var ErrNoInput = errors.New("no failure logs provided")

// Stage names a pipeline step in errors, spans and logs.
type Stage string

const (
	StageInput    Stage = "input"
	StageClassify Stage = "classify"
	StageExecute  Stage = "execute"
	StageCommit   Stage = "commit"
	StageRedact   Stage = "redact"
	StageComment  Stage = "comment"
	StageRetry    Stage = "retry"
	StageReport   Stage = "report"
)

// Severity of a stage error.
type Severity string

const (
	// SeverityCritical aborts the run with exit code 1.
	SeverityCritical Severity = "critical"
	// SeverityHigh is recorded in the report and the run continues.
	SeverityHigh Severity = "high"
	// SeverityLow is logged only.
	SeverityLow Severity = "low"
)

// StageError is a structured failure of one pipeline stage.
type StageError struct {
	Stage    Stage
	Severity Severity
	Err      error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func newStageError(stage Stage, severity Severity, err error) *StageError {
	return &StageError{Stage: stage, Severity: severity, Err: err}
}

// formatError renders a non-fatal stage error for the report.
func formatError(stage Stage, err error) string {
	return fmt.Sprintf("failed to %s: %v", stage, err)
}

// ExitCode maps a Run error to the process exit code: 0 for a completed run
// (with or without detected issues), 1 for missing input or a fatal error.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var se *StageError
	if errors.As(err, &se) && se.Severity != SeverityCritical {
		return 0
	}
	return 1
}
