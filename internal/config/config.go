// Package config provides configuration loading for failfix.
//
// Configuration is assembled from built-in defaults, an optional YAML file and
// the environment variables a CI runner exports (JOB_NAME, GITHUB_TOKEN,
// GITHUB_REPOSITORY, ...). Command-line flags are applied last by the caller.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config holds the complete failfix configuration.
type Config struct {
	Job         JobConfig         `koanf:"job"`
	GitHub      GitHubConfig      `koanf:"github"`
	Remediation RemediationConfig `koanf:"remediation"`
	Publish     PublishConfig     `koanf:"publish"`
	Retry       RetryConfig       `koanf:"retry"`
	Log         LogConfig         `koanf:"log"`
	Metrics     MetricsConfig     `koanf:"metrics"`
	Telemetry   TelemetryConfig   `koanf:"telemetry"`
}

// JobConfig describes the failed job being analyzed.
type JobConfig struct {
	Name     string `koanf:"name"`
	LogsFile string `koanf:"logs_file"`
	Workflow string `koanf:"workflow"`
	WorkDir  string `koanf:"workdir"`
}

// GitHubConfig holds code-hosting credentials and identifiers.
// Every field is optional; steps that need a missing value are skipped.
type GitHubConfig struct {
	Token      Secret `koanf:"token"`
	Repository string `koanf:"repository"` // owner/name
	RunID      string `koanf:"run_id"`
	PRNumber   int    `koanf:"pr_number"`
	APIURL     string `koanf:"api_url"`
}

// RemediationConfig controls catalog lookup and command execution.
type RemediationConfig struct {
	AutoFix        bool          `koanf:"auto_fix"`
	CommandTimeout time.Duration `koanf:"command_timeout"`
	StderrLimit    int           `koanf:"stderr_limit"`
	Parallelism    int           `koanf:"parallelism"`
	Shell          string        `koanf:"shell"`
	CatalogFile    string        `koanf:"catalog_file"`
}

// PublishConfig controls the commit, the report artifact and the PR comment.
type PublishConfig struct {
	Branch                string `koanf:"branch"`
	ReportFile            string `koanf:"report_file"`
	UpdateExistingComment bool   `koanf:"update_existing_comment"`
	RedactSecrets         bool   `koanf:"redact_secrets"`
	SnippetLimit          int    `koanf:"snippet_limit"`
	AuthorName            string `koanf:"author_name"`
	AuthorEmail           string `koanf:"author_email"`
}

// RetryConfig gates the single rerun of failed jobs.
type RetryConfig struct {
	Enabled bool `koanf:"enabled"`
}

// LogConfig selects log level and encoder.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// MetricsConfig controls the Prometheus textfile export.
type MetricsConfig struct {
	Textfile string `koanf:"textfile"`
}

// TelemetryConfig controls OTLP trace export.
type TelemetryConfig struct {
	Enabled  bool   `koanf:"enabled"`
	Endpoint string `koanf:"endpoint"`
	Protocol string `koanf:"protocol"`
	Insecure bool   `koanf:"insecure"`
}

// Default returns the configuration used when nothing else is provided.
func Default() *Config {
	return &Config{
		Job: JobConfig{
			Name:    "unknown",
			WorkDir: ".",
		},
		Remediation: RemediationConfig{
			CommandTimeout: 300 * time.Second,
			StderrLimit:    500,
			Parallelism:    1,
			Shell:          "sh",
		},
		Publish: PublishConfig{
			Branch:        "main",
			ReportFile:    "ci_failure_report.txt",
			RedactSecrets: true,
			SnippetLimit:  1000,
			AuthorName:    "failfix",
			AuthorEmail:   "failfix@users.noreply.github.com",
		},
		Retry: RetryConfig{
			Enabled: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Telemetry: TelemetryConfig{
			Endpoint: "localhost:4317",
			Protocol: "grpc",
			Insecure: true,
		},
	}
}

// Validate checks the configuration for values that can never work.
//
// Missing credentials are deliberately not errors: the steps that need them
// log a warning and skip.
func (c *Config) Validate() error {
	var errs []error

	if c.GitHub.Repository != "" {
		if _, _, err := SplitRepository(c.GitHub.Repository); err != nil {
			errs = append(errs, err)
		}
	}
	if c.GitHub.PRNumber < 0 {
		errs = append(errs, fmt.Errorf("pr_number must be >= 0, got %d", c.GitHub.PRNumber))
	}
	if c.Remediation.CommandTimeout <= 0 {
		errs = append(errs, errors.New("remediation command_timeout must be positive"))
	}
	if c.Remediation.Parallelism < 1 {
		errs = append(errs, fmt.Errorf("remediation parallelism must be >= 1, got %d", c.Remediation.Parallelism))
	}
	if c.Remediation.StderrLimit < 0 {
		errs = append(errs, fmt.Errorf("remediation stderr_limit must be >= 0, got %d", c.Remediation.StderrLimit))
	}
	if c.Publish.ReportFile == "" {
		errs = append(errs, errors.New("publish report_file cannot be empty"))
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		errs = append(errs, fmt.Errorf("log format must be 'json' or 'console', got %q", c.Log.Format))
	}
	if c.Telemetry.Enabled && c.Telemetry.Protocol != "grpc" && c.Telemetry.Protocol != "http/protobuf" {
		errs = append(errs, fmt.Errorf("telemetry protocol must be 'grpc' or 'http/protobuf', got %q", c.Telemetry.Protocol))
	}

	return errors.Join(errs...)
}

// SplitRepository splits an "owner/name" repository identifier.
func SplitRepository(repository string) (owner, name string, err error) {
	parts := strings.Split(repository, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("repository must be in owner/name form, got %q", repository)
	}
	return parts[0], parts[1], nil
}
