//go:build windows

package installer

import (
	"os/exec"
	"syscall"
)

const createNoWindow = 0x08000000

// hideConsole suppresses the console window Java's launcher process would
// otherwise pop up while the Forge installer runs headless.
func hideConsole(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: createNoWindow}
}
