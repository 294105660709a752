package classify

import (
	"errors"
	"sort"
	"time"
)

// ErrEmptyInput is returned when there is no failure text to classify.
var ErrEmptyInput = errors.New("classify: empty failure text")

// Category is a named class of CI failure.
type Category string

const (
	// CategoryQualityGate is a failed static-analysis quality gate.
	CategoryQualityGate Category = "quality_gate"
	// CategoryTestFailure is one or more failing tests.
	CategoryTestFailure Category = "test_failure"
	// CategoryBuildFailure is a compilation or packaging failure.
	CategoryBuildFailure Category = "build_failure"
	// CategoryDependencyIssue is a dependency that could not be resolved.
	CategoryDependencyIssue Category = "dependency_issue"
	// CategorySecurityVulnerability is a reported vulnerability or CVE.
	CategorySecurityVulnerability Category = "security_vulnerability"
	// CategoryLintError is a style or lint violation.
	CategoryLintError Category = "lint_error"
	// CategoryTimeout is a step that ran out of time.
	CategoryTimeout Category = "timeout"
	// CategoryDockerIssue is an image build, pull or push failure.
	CategoryDockerIssue Category = "docker_issue"
)

// Title returns the category in title case, e.g. "Build Failure".
func (c Category) Title() string {
	b := []byte(c)
	upper := true
	for i, ch := range b {
		switch {
		case ch == '_':
			b[i] = ' '
			upper = true
		case upper && ch >= 'a' && ch <= 'z':
			b[i] = ch - 'a' + 'A'
			upper = false
		default:
			upper = false
		}
	}
	return string(b)
}

// Severity is the impact of a category.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Rank orders severities, most severe first. Unknown severities rank last.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 3
	default:
		return 4
	}
}

// Group is the broader area a category belongs to.
type Group string

const (
	GroupCodeQuality  Group = "code_quality"
	GroupTests        Group = "tests"
	GroupBuild        Group = "build"
	GroupDependencies Group = "dependencies"
	GroupSecurity     Group = "security"
	GroupLinting      Group = "linting"
	GroupPerformance  Group = "performance"
	GroupDocker       Group = "docker"
)

// Issue is one detected category.
type Issue struct {
	// Category is the detected failure class.
	Category Category `json:"category"`

	// Severity is the category's severity.
	Severity Severity `json:"severity"`

	// Group is the category's broader area.
	Group Group `json:"group"`

	// MatchedRule is the source text of the rule that matched.
	MatchedRule string `json:"matched_rule"`
}

// Classification is the immutable result of classifying one job's output.
type Classification struct {
	// ID identifies this analysis in logs, metrics and reports.
	ID string `json:"id"`

	// JobName is the failed job.
	JobName string `json:"job_name"`

	// Issues holds at most one entry per category, in rule table order.
	Issues []Issue `json:"issues"`

	// Snippet is the excerpt around the first error indicator.
	Snippet string `json:"snippet"`

	// CapturedAt is when the classification was produced.
	CapturedAt time.Time `json:"captured_at"`
}

// Empty reports whether no category matched.
func (c *Classification) Empty() bool {
	return len(c.Issues) == 0
}

// Categories returns the detected categories in order.
func (c *Classification) Categories() []Category {
	out := make([]Category, len(c.Issues))
	for i, issue := range c.Issues {
		out[i] = issue.Category
	}
	return out
}

// Has reports whether category was detected.
func (c *Classification) Has(category Category) bool {
	for _, issue := range c.Issues {
		if issue.Category == category {
			return true
		}
	}
	return false
}

// BySeverity returns a copy of the issues, most severe first. Ties keep
// table order.
func (c *Classification) BySeverity() []Issue {
	out := make([]Issue, len(c.Issues))
	copy(out, c.Issues)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Severity.Rank() < out[j].Severity.Rank()
	})
	return out
}
