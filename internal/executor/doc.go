// Package executor runs the commands of auto-fixable remediation descriptors
// against the working tree.
//
// Each command runs under its own timeout through a Runner. The outcome is
// one of succeeded, failed or timed_out; a failed or timed out command never
// stops the commands after it. A descriptor counts as applied when at least
// one of its commands succeeded. Advisory commands (starting with "#") are
// skipped without reaching the Runner.
//
// ShellRunner starts commands with "sh -c" in their own process group so a
// timeout kills the command together with anything it spawned.
package executor
