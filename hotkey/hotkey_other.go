//go:build !linux

package hotkey

import (
	"fmt"

	"golang.design/x/hotkey"
)

var xKeys = map[string]hotkey.Key{
	"space": hotkey.KeySpace,
	"a":     hotkey.KeyA, "b": hotkey.KeyB, "c": hotkey.KeyC,
	"d": hotkey.KeyD, "e": hotkey.KeyE, "f": hotkey.KeyF,
	"g": hotkey.KeyG, "h": hotkey.KeyH, "i": hotkey.KeyI,
	"j": hotkey.KeyJ, "k": hotkey.KeyK, "l": hotkey.KeyL,
	"m": hotkey.KeyM, "n": hotkey.KeyN, "o": hotkey.KeyO,
	"p": hotkey.KeyP, "q": hotkey.KeyQ, "r": hotkey.KeyR,
	"s": hotkey.KeyS, "t": hotkey.KeyT, "u": hotkey.KeyU,
	"v": hotkey.KeyV, "w": hotkey.KeyW, "x": hotkey.KeyX,
	"y": hotkey.KeyY, "z": hotkey.KeyZ,
	"0": hotkey.Key0, "1": hotkey.Key1, "2": hotkey.Key2,
	"3": hotkey.Key3, "4": hotkey.Key4, "5": hotkey.Key5,
	"6": hotkey.Key6, "7": hotkey.Key7, "8": hotkey.Key8,
	"9": hotkey.Key9,
	"f1": hotkey.KeyF1, "f2": hotkey.KeyF2, "f3": hotkey.KeyF3,
	"f4": hotkey.KeyF4, "f5": hotkey.KeyF5, "f6": hotkey.KeyF6,
	"f7": hotkey.KeyF7, "f8": hotkey.KeyF8, "f9": hotkey.KeyF9,
	"f10": hotkey.KeyF10, "f11": hotkey.KeyF11, "f12": hotkey.KeyF12,
}

type xHotkey struct {
	combo   Combo
	hk      *hotkey.Hotkey
	keydown chan struct{}
	keyup   chan struct{}
	cancel  chan struct{}

	escHk   *hotkey.Hotkey
	escDone chan struct{}
}

func New(combo Combo) Hotkey {
	return &xHotkey{
		combo:   combo,
		keydown: make(chan struct{}, 1),
		keyup:   make(chan struct{}, 1),
		cancel:  make(chan struct{}, 1),
	}
}

func (h *xHotkey) Register() error {
	key, ok := xKeys[h.combo.Key]
	if !ok {
		return fmt.Errorf("no key mapping for trigger key %q", h.combo.Key)
	}
	h.hk = hotkey.New(comboMods(h.combo), key)
	if err := h.hk.Register(); err != nil {
		return err
	}
	go func() {
		for {
			<-h.hk.Keydown()
			h.keydown <- struct{}{}
		}
	}()
	go func() {
		for {
			<-h.hk.Keyup()
			h.keyup <- struct{}{}
		}
	}()
	return nil
}

func (h *xHotkey) Unregister() {
	h.DisarmCancel()
	h.hk.Unregister()
}

func (h *xHotkey) Keydown() <-chan struct{} { return h.keydown }
func (h *xHotkey) Keyup() <-chan struct{}   { return h.keyup }
func (h *xHotkey) Cancel() <-chan struct{}  { return h.cancel }

// ArmCancel grabs Esc as a system hotkey for the duration of a recording.
// Failure to register leaves Esc alone; recording works without cancel.
func (h *xHotkey) ArmCancel() {
	if h.escHk != nil {
		return
	}
	esc := hotkey.New(nil, hotkey.KeyEscape)
	if err := esc.Register(); err != nil {
		return
	}
	done := make(chan struct{})
	h.escHk, h.escDone = esc, done
	go func() {
		for {
			select {
			case <-done:
				return
			case <-esc.Keydown():
				select {
				case h.cancel <- struct{}{}:
				default:
				}
			}
		}
	}()
}

func (h *xHotkey) DisarmCancel() {
	if h.escHk == nil {
		return
	}
	close(h.escDone)
	h.escHk.Unregister()
	h.escHk, h.escDone = nil, nil
}

func Diagnose(combo Combo) (string, error) {
	return fmt.Sprintf("hotkey support available (%s)", combo), nil
}
