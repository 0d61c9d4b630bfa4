//go:build !windows

package supervisor

import "os/exec"

// No console window is ever attached to a child outside Windows.
func hideConsole(cmd *exec.Cmd) {}
