//go:build !unix

package executor

import "os/exec"

// configureProcess keeps the default cancellation, which kills only the shell.
func configureProcess(cmd *exec.Cmd) {}
