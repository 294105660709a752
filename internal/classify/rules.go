package classify

// Rule binds a category to its metadata and ordered patterns.
// Patterns are matched case-insensitively anywhere in the text.
type Rule struct {
	Category Category
	Severity Severity
	Group    Group
	Patterns []string
}

// DefaultRules returns the built-in rule table in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		{
			Category: CategoryQualityGate,
			Severity: SeverityHigh,
			Group:    GroupCodeQuality,
			Patterns: []string{
				`Quality Gate.*failed`,
				`QUALITY_GATE_STATUS.*FAILED`,
				`coverage.*below.*threshold`,
				`code smells.*exceeded`,
				`duplications.*exceeded`,
			},
		},
		{
			Category: CategoryTestFailure,
			Severity: SeverityHigh,
			Group:    GroupTests,
			Patterns: []string{
				`Tests run:.*Failures: [1-9]`,
				`FAILED.*tests`,
				`\d+ test.*failed`,
				`AssertionError`,
				`junit.*failures`,
			},
		},
		{
			Category: CategoryBuildFailure,
			Severity: SeverityCritical,
			Group:    GroupBuild,
			Patterns: []string{
				`BUILD FAILURE`,
				`compilation error`,
				`cannot find symbol`,
				`package.*does not exist`,
				`npm ERR!`,
				`yarn error`,
			},
		},
		{
			Category: CategoryDependencyIssue,
			Severity: SeverityHigh,
			Group:    GroupDependencies,
			Patterns: []string{
				`Could not resolve dependencies`,
				`dependency.*not found`,
				`Failed to download`,
				`Unknown dependency`,
				`PEER DEP`,
			},
		},
		{
			Category: CategorySecurityVulnerability,
			Severity: SeverityCritical,
			Group:    GroupSecurity,
			Patterns: []string{
				`vulnerability.*found`,
				`security.*issue`,
				`CVE-\d{4}-\d+`,
				`high severity`,
				`critical severity`,
			},
		},
		{
			Category: CategoryLintError,
			Severity: SeverityMedium,
			Group:    GroupLinting,
			Patterns: []string{
				`lint.*error`,
				`eslint.*error`,
				`checkstyle.*violation`,
				`code style.*violation`,
			},
		},
		{
			Category: CategoryTimeout,
			Severity: SeverityMedium,
			Group:    GroupPerformance,
			Patterns: []string{
				`timeout`,
				`timed out`,
				`execution.*exceeded`,
			},
		},
		{
			Category: CategoryDockerIssue,
			Severity: SeverityHigh,
			Group:    GroupDocker,
			Patterns: []string{
				`docker.*error`,
				`failed to build.*image`,
				`manifest.*not found`,
				`pull access denied`,
			},
		},
	}
}
