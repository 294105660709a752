package remediation

import "github.com/fyrsmithlabs/failfix/internal/classify"

func builtinDescriptors() []Descriptor {
	return []Descriptor{
		{
			Category:    classify.CategoryQualityGate,
			Title:       "Fix Quality Gate Issues",
			Description: "Code quality metrics are below threshold",
			Suggestions: []string{
				"Run SonarQube analysis locally: `mvn clean verify sonar:sonar`",
				"Check coverage: Aim for 80%+ coverage",
				"Reduce code smells: Remove duplicated code, fix cognitive complexity",
				"Review SonarQube dashboard for specific issues",
			},
			Commands: []string{
				"mvn clean test jacoco:report",
				"# Review target/site/jacoco/index.html for coverage gaps",
			},
			AutoFixable: false,
		},
		{
			Category:    classify.CategoryTestFailure,
			Title:       "Fix Failing Tests",
			Description: "Unit tests are failing",
			Suggestions: []string{
				"Run tests locally: `mvn test` or `npm test`",
				"Check test logs for specific failures",
				"Update test assertions if business logic changed",
				"Fix broken test data or mocks",
			},
			Commands: []string{
				"mvn test -Dtest=FailedTestClass",
				"npm test -- --verbose",
			},
			AutoFixable: false,
		},
		{
			Category:    classify.CategoryBuildFailure,
			Title:       "Fix Build Errors",
			Description: "Compilation or build process failed",
			Suggestions: []string{
				"Check for missing imports or dependencies",
				"Verify Java/Node/Python version compatibility",
				"Run clean build: `mvn clean install` or `npm ci`",
				"Check for syntax errors in recent changes",
			},
			Commands: []string{
				"mvn clean compile",
				"npm install --force",
			},
			AutoFixable: true,
		},
		{
			Category:    classify.CategoryDependencyIssue,
			Title:       "Fix Dependency Issues",
			Description: "Dependencies could not be resolved",
			Suggestions: []string{
				"Update dependency versions in pom.xml/package.json",
				"Clear dependency cache",
				"Check for conflicting versions",
				"Verify repository accessibility",
			},
			Commands: []string{
				"mvn dependency:purge-local-repository",
				"mvn dependency:resolve",
				"npm cache clean --force && npm install",
			},
			AutoFixable: true,
		},
		{
			Category:    classify.CategorySecurityVulnerability,
			Title:       "Fix Security Vulnerabilities",
			Description: "Security vulnerabilities detected",
			Suggestions: []string{
				"Update vulnerable dependencies to latest secure versions",
				"Check CVE details and apply patches",
				"Run: `npm audit fix` or update in pom.xml",
				"Review Snyk/Trivy reports for specific CVEs",
			},
			Commands: []string{
				"npm audit fix",
				"mvn versions:use-latest-versions",
				"# Update specific vulnerable packages",
			},
			AutoFixable: true,
		},
		{
			Category:    classify.CategoryLintError,
			Title:       "Fix Linting Issues",
			Description: "Code style violations detected",
			Suggestions: []string{
				"Run auto-formatter: `mvn spotless:apply` or `npm run lint:fix`",
				"Fix remaining manual issues",
				"Update .eslintrc or checkstyle.xml if needed",
			},
			Commands: []string{
				"mvn spotless:apply",
				"npm run lint:fix",
				"prettier --write .",
			},
			AutoFixable: true,
		},
		{
			Category:    classify.CategoryDockerIssue,
			Title:       "Fix Docker Build Issues",
			Description: "Docker image build or push failed",
			Suggestions: []string{
				"Check Dockerfile syntax",
				"Verify base image exists and is accessible",
				"Check Docker registry credentials",
				"Build locally: `docker build -t test .`",
			},
			Commands: []string{
				"docker build --no-cache -t testimage .",
				"docker login",
			},
			AutoFixable: false,
		},
	}
}
