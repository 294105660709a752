package redact

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	gitleaksConfig "github.com/zricethezav/gitleaks/v8/config"
	"github.com/zricethezav/gitleaks/v8/detect"
	gitleaksRegexp "github.com/zricethezav/gitleaks/v8/regexp"
)

// Finding is one detected secret.
type Finding struct {
	RuleID string
	Line   int
	Secret string
}

// Result holds scrubbed content and what was removed.
type Result struct {
	// Content has every finding replaced by a [REDACTED:rule-id] marker.
	Content string

	// Findings lists detections without their secret values.
	Findings []Finding

	// RuleCounts counts findings per Gitleaks rule.
	RuleCounts map[string]int
}

// Redacted reports whether anything was replaced.
func (r Result) Redacted() bool {
	return len(r.Findings) > 0
}

// Redact detects secrets in content and replaces each with a marker that
// names the rule but keeps no part of the secret. workdir locates the
// optional .gitleaks.toml allowlist.
func Redact(content, workdir string) (Result, error) {
	allowlist, err := LoadAllowlist(workdir)
	if err != nil {
		return Result{}, fmt.Errorf("loading allowlist: %w", err)
	}

	findings, err := Detect(content, allowlist)
	if err != nil {
		return Result{}, fmt.Errorf("detecting secrets: %w", err)
	}

	res := Result{
		Content:    replaceFindings(content, findings),
		Findings:   make([]Finding, 0, len(findings)),
		RuleCounts: make(map[string]int, len(findings)),
	}
	for _, f := range findings {
		res.RuleCounts[f.RuleID]++
		res.Findings = append(res.Findings, Finding{RuleID: f.RuleID, Line: f.Line})
	}
	return res, nil
}

// Detect scans content with the default Gitleaks rules.
func Detect(content string, allowlist *Allowlist) ([]Finding, error) {
	detector, err := detect.NewDetectorDefaultConfig()
	if err != nil {
		return nil, err
	}
	if !allowlist.Empty() {
		if err := applyAllowlist(&detector.Config, allowlist); err != nil {
			return nil, err
		}
	}

	leaks := detector.DetectString(content)
	out := make([]Finding, 0, len(leaks))
	for _, f := range leaks {
		if f.Secret == "" {
			continue
		}
		out = append(out, Finding{RuleID: f.RuleID, Line: f.StartLine, Secret: f.Secret})
	}
	return out, nil
}

// applyAllowlist appends the allowlist as a global Gitleaks allowlist.
func applyAllowlist(cfg *gitleaksConfig.Config, allowlist *Allowlist) error {
	global := &gitleaksConfig.Allowlist{
		Description: "failfix working tree allowlist",
	}
	for _, pattern := range allowlist.Paths {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidRegex, pattern, err)
		}
		global.Paths = append(global.Paths, (*gitleaksRegexp.Regexp)(re))
	}
	for _, pattern := range allowlist.Regexes {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidRegex, pattern, err)
		}
		global.Regexes = append(global.Regexes, (*gitleaksRegexp.Regexp)(re))
	}
	global.StopWords = append(global.StopWords, allowlist.Regexes...)
	cfg.Allowlists = append(cfg.Allowlists, global)
	return nil
}

// replaceFindings swaps every occurrence of each secret for its marker.
// Longer secrets go first so a secret that contains another is replaced whole.
func replaceFindings(content string, findings []Finding) string {
	if len(findings) == 0 {
		return content
	}
	sorted := make([]Finding, len(findings))
	copy(sorted, findings)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Secret) > len(sorted[j].Secret)
	})

	pairs := make([]string, 0, 2*len(sorted))
	seen := make(map[string]bool, len(sorted))
	for _, f := range sorted {
		if f.Secret == "" || seen[f.Secret] {
			continue
		}
		seen[f.Secret] = true
		pairs = append(pairs, f.Secret, "[REDACTED:"+f.RuleID+"]")
	}
	return strings.NewReplacer(pairs...).Replace(content)
}
