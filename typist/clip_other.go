//go:build !linux

package typist

import (
	"fmt"
	"sync"
	"time"

	"github.com/atotto/clipboard"
	"github.com/micmonay/keybd_event"
)

const (
	copySettle  = 100 * time.Millisecond
	pasteSettle = 250 * time.Millisecond
)

var (
	kb     keybd_event.KeyBonding
	kbOnce sync.Once
	kbErr  error
)

func initBonding() error {
	kbOnce.Do(func() {
		kb, kbErr = keybd_event.NewKeyBonding()
	})
	return kbErr
}

type clipboardTypist struct{}

func newTypist() Typist {
	return clipboardTypist{}
}

// Type puts text on the clipboard, sends the platform paste chord, and
// restores whatever was on the clipboard before.
func (clipboardTypist) Type(text string) error {
	if err := initBonding(); err != nil {
		return fmt.Errorf("keyboard binding: %w", err)
	}

	prev, prevErr := clipboard.ReadAll()

	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("clipboard write: %w", err)
	}
	time.Sleep(copySettle)

	if err := pasteChord(); err != nil {
		return fmt.Errorf("paste chord: %w", err)
	}

	if prevErr == nil {
		time.Sleep(pasteSettle)
		clipboard.WriteAll(prev)
	}
	return nil
}

func Diagnose() (string, error) {
	if err := initBonding(); err != nil {
		return "", err
	}
	if _, err := clipboard.ReadAll(); err != nil {
		return "", fmt.Errorf("clipboard read: %w", err)
	}
	return "clipboard and keyboard event binding OK", nil
}
