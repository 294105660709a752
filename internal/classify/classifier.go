package classify

import (
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

type compiledPattern struct {
	source string
	re     *regexp.Regexp
}

type compiledRule struct {
	Rule
	patterns []compiledPattern
}

// Classifier evaluates an ordered rule table against failure text.
// It holds no mutable state and is safe for concurrent use.
type Classifier struct {
	rules        []compiledRule
	contextLines int
	now          func() time.Time
	newID        func() string
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithContextLines sets the snippet window on each side of the first error line.
func WithContextLines(n int) Option {
	return func(c *Classifier) {
		c.contextLines = n
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(c *Classifier) {
		c.now = now
	}
}

// WithIDGenerator overrides the analysis ID source.
func WithIDGenerator(newID func() string) Option {
	return func(c *Classifier) {
		c.newID = newID
	}
}

// New compiles rules into a Classifier. Rule order is evaluation order.
func New(rules []Rule, opts ...Option) (*Classifier, error) {
	c := &Classifier{
		rules:        make([]compiledRule, 0, len(rules)),
		contextLines: DefaultContextLines,
		now:          time.Now,
		newID:        func() string { return uuid.New().String() },
	}

	seen := make(map[Category]bool, len(rules))
	for _, r := range rules {
		if r.Category == "" {
			return nil, fmt.Errorf("rule with empty category")
		}
		if seen[r.Category] {
			return nil, fmt.Errorf("duplicate rule for category %q", r.Category)
		}
		seen[r.Category] = true

		cr := compiledRule{Rule: r, patterns: make([]compiledPattern, 0, len(r.Patterns))}
		for _, p := range r.Patterns {
			re, err := regexp.Compile("(?i)" + p)
			if err != nil {
				return nil, fmt.Errorf("category %s: invalid pattern %q: %w", r.Category, p, err)
			}
			cr.patterns = append(cr.patterns, compiledPattern{source: p, re: re})
		}
		c.rules = append(c.rules, cr)
	}

	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Default returns a Classifier over DefaultRules.
func Default(opts ...Option) *Classifier {
	c, err := New(DefaultRules(), opts...)
	if err != nil {
		panic(fmt.Sprintf("classify: built-in rules: %v", err))
	}
	return c
}

// Classify labels text with every category that has a matching rule.
// Empty text is a caller error and returns ErrEmptyInput.
func (c *Classifier) Classify(text, jobName string) (*Classification, error) {
	if text == "" {
		return nil, ErrEmptyInput
	}

	issues := make([]Issue, 0, len(c.rules))
	for _, r := range c.rules {
		if matched, ok := r.match(text); ok {
			issues = append(issues, Issue{
				Category:    r.Category,
				Severity:    r.Severity,
				Group:       r.Group,
				MatchedRule: matched,
			})
		}
	}

	return &Classification{
		ID:         c.newID(),
		JobName:    jobName,
		Issues:     issues,
		Snippet:    ExtractSnippet(text, c.contextLines),
		CapturedAt: c.now(),
	}, nil
}

// Rules returns the rule table in evaluation order.
func (c *Classifier) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	for i, r := range c.rules {
		out[i] = r.Rule
	}
	return out
}

// match stops at the first pattern that matches; later patterns for the
// same category are never tried.
func (r compiledRule) match(text string) (string, bool) {
	for _, p := range r.patterns {
		if p.re.MatchString(text) {
			return p.source, true
		}
	}
	return "", false
}
