//go:build darwin

package typist

import "github.com/micmonay/keybd_event"

func pasteChord() error {
	kb.SetKeys(keybd_event.VK_V)
	kb.HasSuper(true) // Cmd+V on macOS
	return kb.Launching()
}
