//go:build unix

package executor

import (
	"os/exec"
	"syscall"
)

// configureProcess puts the shell in its own process group and makes
// cancellation kill the group, so children started by the command die too.
func configureProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
