package classify

import "strings"

const (
	// DefaultContextLines is the snippet window on each side of the first error line.
	DefaultContextLines = 10

	// MaxSnippetLines caps the snippet; the tail is kept.
	MaxSnippetLines = 50
)

var errorKeywords = []string{"error", "failed", "failure", "exception", "fatal"}

// ExtractSnippet returns the lines around the first line containing an error
// keyword, contextLines on each side, clipped to the text. Only the first hit
// produces a window. The result is empty when no line has a keyword and holds
// at most MaxSnippetLines lines, keeping the most recent.
func ExtractSnippet(text string, contextLines int) string {
	if contextLines < 0 {
		contextLines = 0
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if !hasErrorKeyword(line) {
			continue
		}
		start := max(0, i-contextLines)
		end := min(len(lines), i+contextLines+1)
		window := lines[start:end]
		if len(window) > MaxSnippetLines {
			window = window[len(window)-MaxSnippetLines:]
		}
		return strings.Join(window, "\n")
	}
	return ""
}

func hasErrorKeyword(line string) bool {
	lower := strings.ToLower(line)
	for _, kw := range errorKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
