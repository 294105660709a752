// Package redact scrubs secrets from failure output before it leaves the
// runner, using the Gitleaks rule set and the working tree's .gitleaks.toml
// allowlist.
package redact

import "errors"

var (
	// ErrInvalidRegex indicates an allowlist pattern failed to compile.
	ErrInvalidRegex = errors.New("invalid regex pattern")

	// ErrInvalidTOML indicates an allowlist file could not be parsed.
	ErrInvalidTOML = errors.New("invalid TOML format")
)
