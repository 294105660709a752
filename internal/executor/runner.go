package executor

import (
	"context"
	"os/exec"
	"time"
)

const (
	// DefaultShell interprets each command string.
	DefaultShell = "sh"

	// defaultOutputCap bounds what is kept of a command's stdout and stderr.
	defaultOutputCap = 64 * 1024

	// waitDelay bounds how long Wait blocks on pipes held by orphans after a kill.
	waitDelay = 5 * time.Second
)

// Runner runs one command string in dir and returns its standard error.
// A non-nil error means the command did not exit 0; when the command ran
// and exited non-zero the error wraps *exec.ExitError.
type Runner interface {
	Run(ctx context.Context, dir, command string) (stderr string, err error)
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, dir, command string) (string, error)

// Run calls f.
func (f RunnerFunc) Run(ctx context.Context, dir, command string) (string, error) {
	return f(ctx, dir, command)
}

// ShellRunner runs commands through a POSIX shell. Stdout is discarded after
// capture; only stderr is returned.
type ShellRunner struct {
	// Shell defaults to DefaultShell.
	Shell string

	// OutputCap bounds captured bytes per stream; 0 uses 64KiB.
	OutputCap int
}

// Run starts "<shell> -c command" in dir. When ctx is done the whole process
// group is killed and Run returns once the process has been reaped.
func (r ShellRunner) Run(ctx context.Context, dir, command string) (string, error) {
	shell := r.Shell
	if shell == "" {
		shell = DefaultShell
	}
	limit := r.OutputCap
	if limit <= 0 {
		limit = defaultOutputCap
	}

	cmd := exec.CommandContext(ctx, shell, "-c", command) //nolint:gosec // G204: commands come from the remediation catalog
	cmd.Dir = dir
	stdout := newCappedBuffer(limit)
	stderr := newCappedBuffer(limit)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = waitDelay
	configureProcess(cmd)

	err := cmd.Run()
	return stderr.String(), err
}
