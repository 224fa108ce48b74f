//go:build windows

package hotkey

import "golang.design/x/hotkey"

func comboMods(c Combo) []hotkey.Modifier {
	var mods []hotkey.Modifier
	if c.Ctrl {
		mods = append(mods, hotkey.ModCtrl)
	}
	if c.Shift {
		mods = append(mods, hotkey.ModShift)
	}
	if c.Alt {
		mods = append(mods, hotkey.ModAlt)
	}
	return mods
}
