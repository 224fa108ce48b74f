//go:build windows

package typist

import "github.com/micmonay/keybd_event"

func pasteChord() error {
	kb.SetKeys(keybd_event.VK_V)
	kb.HasCTRL(true)
	return kb.Launching()
}
