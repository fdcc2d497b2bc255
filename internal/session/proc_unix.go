//go:build !windows

package session

import (
	"os"
	"syscall"
)

// processAlive reports whether pid still refers to a live process. On
// Unix, FindProcess always succeeds; signal 0 is the standard liveness
// probe.
func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}
