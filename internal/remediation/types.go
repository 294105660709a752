package remediation

import (
	"errors"
	"strings"

	"github.com/fyrsmithlabs/failfix/internal/classify"
)

// ErrUnknownCategory is returned by Get for a category with no descriptor.
var ErrUnknownCategory = errors.New("remediation: no descriptor for category")

// AdvisoryPrefix marks a command as documentation only.
const AdvisoryPrefix = "#"

// Descriptor is the static response to one failure category.
type Descriptor struct {
	// Category keys the descriptor.
	Category classify.Category `json:"category" yaml:"category"`

	// Title is a short imperative summary, used in commit messages.
	Title string `json:"title" yaml:"title"`

	// Description explains the failure.
	Description string `json:"description" yaml:"description"`

	// Suggestions are ordered human-readable steps.
	Suggestions []string `json:"suggestions" yaml:"suggestions"`

	// Commands are run in order when AutoFixable. Advisory entries are skipped.
	Commands []string `json:"commands" yaml:"commands"`

	// AutoFixable permits running Commands without human approval.
	AutoFixable bool `json:"auto_fixable" yaml:"auto_fixable"`
}

// ExecutableCommands returns Commands without advisory entries.
func (d Descriptor) ExecutableCommands() []string {
	out := make([]string, 0, len(d.Commands))
	for _, c := range d.Commands {
		if !IsAdvisory(c) {
			out = append(out, c)
		}
	}
	return out
}

func (d Descriptor) clone() Descriptor {
	d.Suggestions = append([]string(nil), d.Suggestions...)
	d.Commands = append([]string(nil), d.Commands...)
	return d
}

// IsAdvisory reports whether command is a comment rather than something to run.
// Leading whitespace is ignored.
func IsAdvisory(command string) bool {
	return strings.HasPrefix(strings.TrimSpace(command), AdvisoryPrefix)
}
