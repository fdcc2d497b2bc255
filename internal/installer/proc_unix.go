//go:build !windows

package installer

import "os/exec"

// hideConsole is a no-op outside Windows; unix process spawning has no
// console window to suppress.
func hideConsole(cmd *exec.Cmd) {}
