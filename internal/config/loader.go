package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	maxConfigFileSize = 1024 * 1024 // 1MB
)

// envKeys maps the environment a CI runner exports onto config keys.
// Variables not listed here are ignored.
var envKeys = map[string]string{
	"JOB_NAME":                    "job.name",
	"FAILURE_LOGS_FILE":           "job.logs_file",
	"GITHUB_WORKFLOW":             "job.workflow",
	"FAILFIX_WORKDIR":             "job.workdir",
	"GITHUB_TOKEN":                "github.token",
	"GITHUB_REPOSITORY":           "github.repository",
	"GITHUB_RUN_ID":               "github.run_id",
	"PR_NUMBER":                   "github.pr_number",
	"GITHUB_API_URL":              "github.api_url",
	"AUTO_FIX":                    "remediation.auto_fix",
	"FAILFIX_COMMAND_TIMEOUT":     "remediation.command_timeout",
	"FAILFIX_PARALLEL":            "remediation.parallelism",
	"FAILFIX_SHELL":               "remediation.shell",
	"FAILFIX_CATALOG_FILE":        "remediation.catalog_file",
	"GITHUB_REF_NAME":             "publish.branch",
	"FAILFIX_REPORT_FILE":         "publish.report_file",
	"FAILFIX_UPDATE_COMMENT":      "publish.update_existing_comment",
	"FAILFIX_REDACT":              "publish.redact_secrets",
	"RETRY_ENABLED":               "retry.enabled",
	"FAILFIX_LOG_LEVEL":           "log.level",
	"FAILFIX_LOG_FORMAT":          "log.format",
	"FAILFIX_METRICS_FILE":        "metrics.textfile",
	"FAILFIX_TELEMETRY":           "telemetry.enabled",
	"OTEL_EXPORTER_OTLP_ENDPOINT": "telemetry.endpoint",
	"OTEL_EXPORTER_OTLP_PROTOCOL": "telemetry.protocol",
}

// envFlags are boolean variables. Only "true", in any case, enables one;
// every other value disables it rather than failing the load.
var envFlags = map[string]bool{
	"AUTO_FIX":               true,
	"FAILFIX_UPDATE_COMMENT": true,
	"FAILFIX_REDACT":         true,
	"RETRY_ENABLED":          true,
	"FAILFIX_TELEMETRY":      true,
}

// Load builds the configuration from defaults, an optional YAML file and the
// process environment.
//
// Precedence (highest to lowest):
//  1. Environment variables (see envKeys)
//  2. YAML config file at configPath, when non-empty
//  3. Default()
//
// Empty environment variables are treated as unset so that, for example, an
// exported but blank PR_NUMBER keeps the default.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		content, err := readConfigFile(configPath)
		if err != nil {
			return nil, err
		}
		// Use rawbytes provider to avoid re-opening the file
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.ProviderWithValue("", ".", func(key, value string) (string, interface{}) {
		mapped, ok := envKeys[key]
		if !ok || strings.TrimSpace(value) == "" {
			return "", nil
		}
		if envFlags[key] {
			return mapped, strings.EqualFold(strings.TrimSpace(value), "true")
		}
		return mapped, value
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Unmarshal over the defaults so that keys absent from every source keep them.
	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// readConfigFile opens the file once and validates it through the open
// descriptor to avoid a stat/open race.
func readConfigFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("config path %s is a directory", path)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
	}

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return content, nil
}
