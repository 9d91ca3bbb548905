//go:build linux

package scanner

import (
	"os/exec"
	"syscall"
)

// setProcessGroup starts cmd in a new session and makes cancellation kill
// the whole process group.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
