// Package hotkey delivers trigger key events from the OS. The control loop
// consumes the channels; implementations never act on events themselves.
package hotkey

// Hotkey watches the configured trigger combo. Keydown/Keyup fire on press
// and release of the trigger. Cancel fires on Esc, but only between
// ArmCancel and DisarmCancel so Esc is left alone while idle.
type Hotkey interface {
	Register() error
	Unregister()
	Keydown() <-chan struct{}
	Keyup() <-chan struct{}
	Cancel() <-chan struct{}
	ArmCancel()
	DisarmCancel()
}
