package executor

import (
	"errors"
	"time"

	"github.com/fyrsmithlabs/failfix/internal/remediation"
)

// ErrNotAutoFixable marks a result for a descriptor that needs a human.
var ErrNotAutoFixable = errors.New("fix requires manual intervention")

// Status is the result of one command.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusTimedOut  Status = "timed_out"
)

// Outcome records one executed command.
type Outcome struct {
	// Command is the command text as declared.
	Command string `json:"command"`

	// Status is succeeded, failed or timed_out.
	Status Status `json:"status"`

	// Stderr is the bounded prefix of standard error, or the start error
	// when the process could not run.
	Stderr string `json:"stderr,omitempty"`

	// Duration is wall time including termination on timeout.
	Duration time.Duration `json:"duration"`
}

// Result aggregates the outcomes for one descriptor.
type Result struct {
	Descriptor remediation.Descriptor `json:"descriptor"`

	// Attempted is false when the descriptor is not auto-fixable.
	Attempted bool `json:"attempted"`

	// Applied is true iff at least one command succeeded.
	Applied bool `json:"applied"`

	// Outcomes are in execution order.
	Outcomes []Outcome `json:"outcomes"`

	// Skipped lists advisory commands that were not run.
	Skipped []string `json:"skipped,omitempty"`

	// Log holds one line per command for the report.
	Log string `json:"log"`

	// Err is ErrNotAutoFixable for manual descriptors, nil otherwise.
	Err error `json:"-"`
}

// Counts tallies outcomes by status.
func (r Result) Counts() map[Status]int {
	counts := make(map[Status]int, 3)
	for _, o := range r.Outcomes {
		counts[o.Status]++
	}
	return counts
}

// AppliedTitles returns the titles of applied results, in order.
func AppliedTitles(results []Result) []string {
	var titles []string
	for _, r := range results {
		if r.Applied {
			titles = append(titles, r.Descriptor.Title)
		}
	}
	return titles
}
