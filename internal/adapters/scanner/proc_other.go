//go:build !linux

package scanner

import "os/exec"

// setProcessGroup keeps the default single-process kill on other platforms.
func setProcessGroup(cmd *exec.Cmd) {}
