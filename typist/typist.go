// Package typist injects transcribed text at the current cursor focus.
// On linux it synthesizes keystrokes through uinput; elsewhere it goes
// through the clipboard and a paste chord.
package typist

// Typist types a string wherever the focus currently is. Failures are
// reported, never fatal: the caller logs and moves on.
type Typist interface {
	Type(text string) error
}

func New() Typist {
	return newTypist()
}
