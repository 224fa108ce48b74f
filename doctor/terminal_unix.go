//go:build !windows

package doctor

import "os/exec"

// A global hotkey grab can leave the terminal in raw mode.
func resetTerminal() {
	exec.Command("stty", "sane").Run()
}
