//go:build windows

package session

import "syscall"

const stillActive = 259

// processAlive reports whether pid still refers to a live process, via
// OpenProcess + GetExitCodeProcess rather than os.Process.Signal (which
// only supports os.Kill on Windows).
func processAlive(pid int) bool {
	const queryLimitedInformation = 0x1000
	handle, err := syscall.OpenProcess(queryLimitedInformation, false, uint32(pid))
	if err != nil {
		return false
	}
	defer syscall.CloseHandle(handle)

	var exitCode uint32
	if err := syscall.GetExitCodeProcess(handle, &exitCode); err != nil {
		return false
	}
	return exitCode == stillActive
}
