package publish

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fyrsmithlabs/failfix/internal/classify"
	"github.com/fyrsmithlabs/failfix/internal/executor"
	"github.com/fyrsmithlabs/failfix/internal/remediation"
)

// CommentMarker identifies failfix comments for in-place updates.
const CommentMarker = "<!-- failfix:analysis -->"

// DefaultSnippetLimit is how many snippet characters the markdown report shows.
const DefaultSnippetLimit = 1000

// Report is everything known about a run at publication time. Only
// Classification is required; a report rendered before execution simply has
// no outcome section.
type Report struct {
	Classification *classify.Classification
	Descriptors    []remediation.Descriptor

	// Results are the executor results; nil when auto-fix was off.
	Results []executor.Result

	// Commit is nil when no commit was attempted.
	Commit *CommitResult

	// Retried is nil until the rerun step has run.
	Retried *bool

	// Errors are non-fatal stage failures, already formatted.
	Errors []string

	Workflow string
	RunID    string

	// RetryEnabled selects the comment's closing notice. When set it announces
	// the single automatic retry; when unset it says retry is disabled instead
	// of promising a rerun that will not happen.
	RetryEnabled bool

	// SnippetLimit caps the markdown snippet; 0 uses DefaultSnippetLimit.
	SnippetLimit int
}

var severityBadge = map[classify.Severity]string{
	classify.SeverityCritical: "🔴",
	classify.SeverityHigh:     "🟠",
	classify.SeverityMedium:   "🟡",
}

func badge(s classify.Severity) string {
	if b, ok := severityBadge[s]; ok {
		return b
	}
	return "⚪"
}

// RenderText renders the durable plain-text report.
func RenderText(r Report) string {
	cls := r.classification()
	var b strings.Builder

	b.WriteString("\n===========================================\n")
	b.WriteString("CI FAILURE ANALYSIS REPORT\n")
	b.WriteString("===========================================\n\n")
	fmt.Fprintf(&b, "Workflow: %s\n", r.Workflow)
	fmt.Fprintf(&b, "Job: %s\n", cls.JobName)
	fmt.Fprintf(&b, "Timestamp: %s\n", cls.CapturedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Run ID: %s\n", r.RunID)
	fmt.Fprintf(&b, "Analysis ID: %s\n", cls.ID)

	b.WriteString("\nISSUES DETECTED\n---------------\n")
	for _, issue := range cls.Issues {
		fmt.Fprintf(&b, "\nType: %s\n", issue.Category)
		fmt.Fprintf(&b, "Severity: %s\n", issue.Severity)
		fmt.Fprintf(&b, "Category: %s\n", issue.Group)
		fmt.Fprintf(&b, "Pattern: %s\n", issue.MatchedRule)
	}

	b.WriteString("\n\nSUGGESTED FIXES\n---------------\n")
	for i, d := range r.Descriptors {
		fmt.Fprintf(&b, "\n%d. %s\n", i+1, d.Title)
		fmt.Fprintf(&b, "   Auto-fixable: %t\n", d.AutoFixable)
		fmt.Fprintf(&b, "   Description: %s\n\n", d.Description)
		b.WriteString("   Suggestions:\n")
		for _, s := range d.Suggestions {
			fmt.Fprintf(&b, "   - %s\n", s)
		}
	}

	if r.hasOutcome() {
		b.WriteString("\n\nREMEDIATION OUTCOME\n-------------------\n")
		for i, res := range r.Results {
			fmt.Fprintf(&b, "\n%d. %s: %s\n", i+1, res.Descriptor.Title, outcomeLabel(res))
			for _, line := range strings.Split(res.Log, "\n") {
				if line != "" {
					fmt.Fprintf(&b, "   %s\n", line)
				}
			}
			for _, s := range res.Skipped {
				fmt.Fprintf(&b, "   (skipped) %s\n", s)
			}
		}
		if r.Commit != nil {
			fmt.Fprintf(&b, "\nCommit: %s\n", r.Commit.Message)
		}
		if r.Retried != nil {
			if *r.Retried {
				b.WriteString("Retry: triggered for failed jobs\n")
			} else {
				b.WriteString("Retry: not triggered\n")
			}
		}
		for _, e := range r.Errors {
			fmt.Fprintf(&b, "Warning: %s\n", e)
		}
	}

	b.WriteString("\n\nERROR SNIPPET\n-------------\n")
	if cls.Snippet == "" {
		b.WriteString("No snippet available")
	} else {
		b.WriteString(cls.Snippet)
	}
	b.WriteString("\n")

	return b.String()
}

// RenderMarkdown renders the pull request comment body. Issues are listed
// most severe first.
func RenderMarkdown(r Report) string {
	cls := r.classification()
	var b strings.Builder

	b.WriteString(CommentMarker + "\n")
	b.WriteString("## 🤖 CI Failure Analysis\n\n")
	fmt.Fprintf(&b, "**Workflow:** %s  \n", r.Workflow)
	fmt.Fprintf(&b, "**Job:** %s  \n", cls.JobName)
	fmt.Fprintf(&b, "**Run ID:** %s  \n", r.RunID)
	fmt.Fprintf(&b, "**Timestamp:** %s\n\n", cls.CapturedAt.UTC().Format("2006-01-02 15:04:05 UTC"))

	b.WriteString("### 🔍 Issues Detected\n\n")
	for _, issue := range cls.BySeverity() {
		fmt.Fprintf(&b, "%s **%s** (Severity: %s)\n", badge(issue.Severity), issue.Category.Title(), issue.Severity)
	}

	b.WriteString("\n### 💡 Suggested Fixes\n\n")
	for i, d := range r.Descriptors {
		fixBadge := "👤 Manual fix required"
		if d.AutoFixable {
			fixBadge = "🔧 Auto-fixable"
		}
		b.WriteString("\n<details>\n")
		fmt.Fprintf(&b, "<summary><strong>%d. %s</strong> - %s</summary>\n\n", i+1, d.Title, fixBadge)
		fmt.Fprintf(&b, "**Description:** %s\n\n", d.Description)
		b.WriteString("**Suggestions:**\n")
		for _, s := range d.Suggestions {
			fmt.Fprintf(&b, "- %s\n", s)
		}
		if len(d.Commands) > 0 {
			b.WriteString("\n**Commands to run:**\n```bash\n")
			b.WriteString(strings.Join(d.Commands, "\n"))
			b.WriteString("\n```\n")
		}
		b.WriteString("</details>\n")
	}

	if r.hasOutcome() {
		b.WriteString("\n### 🔧 Remediation Outcome\n\n")
		b.WriteString("| Fix | Result | Commands |\n")
		b.WriteString("|-----|--------|----------|\n")
		for _, res := range r.Results {
			counts := res.Counts()
			fmt.Fprintf(&b, "| %s | %s | %d ok, %d failed, %d timed out |\n",
				res.Descriptor.Title, outcomeLabel(res),
				counts[executor.StatusSucceeded], counts[executor.StatusFailed], counts[executor.StatusTimedOut])
		}
		if r.Commit != nil {
			fmt.Fprintf(&b, "\n**Commit:** %s\n", r.Commit.Message)
		}
		for _, e := range r.Errors {
			fmt.Fprintf(&b, "\n> ⚠️ %s\n", e)
		}
	}

	if cls.Snippet != "" {
		limit := r.SnippetLimit
		if limit <= 0 {
			limit = DefaultSnippetLimit
		}
		b.WriteString("\n### 📋 Error Logs Snippet\n\n```\n")
		b.WriteString(truncate(cls.Snippet, limit))
		b.WriteString("\n```\n")
	}

	b.WriteString("\n### 🔄 Next Steps\n\n")
	if r.RetryEnabled {
		b.WriteString("The failed job will be **retried** automatically once. If it fails again:\n")
	} else {
		b.WriteString("Automatic retry is disabled for this run. To resolve the failure:\n")
	}
	b.WriteString("1. Review the suggestions above\n")
	b.WriteString("2. Apply fixes manually or accept auto-fixes\n")
	b.WriteString("3. Push changes to re-trigger the pipeline\n")
	b.WriteString("\n---\n*Generated by failfix* 🤖\n")

	return b.String()
}

// WriteReport writes text to path, replacing any previous report.
func WriteReport(path, text string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating report directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}

func (r Report) classification() *classify.Classification {
	if r.Classification == nil {
		return &classify.Classification{}
	}
	return r.Classification
}

func (r Report) hasOutcome() bool {
	return len(r.Results) > 0 || r.Commit != nil || r.Retried != nil || len(r.Errors) > 0
}

func outcomeLabel(res executor.Result) string {
	switch {
	case !res.Attempted:
		return "manual intervention required"
	case res.Applied:
		return "applied"
	default:
		return "not applied"
	}
}

// truncate returns at most n runes of s.
func truncate(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
