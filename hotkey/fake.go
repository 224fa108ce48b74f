package hotkey

import "sync/atomic"

type FakeHotkey struct {
	keydown chan struct{}
	keyup   chan struct{}
	cancel  chan struct{}
	armed   atomic.Bool
}

func NewFake() *FakeHotkey {
	return &FakeHotkey{
		keydown: make(chan struct{}, 1),
		keyup:   make(chan struct{}, 1),
		cancel:  make(chan struct{}, 1),
	}
}

func (f *FakeHotkey) Register() error          { return nil }
func (f *FakeHotkey) Unregister()              {}
func (f *FakeHotkey) Keydown() <-chan struct{} { return f.keydown }
func (f *FakeHotkey) Keyup() <-chan struct{}   { return f.keyup }
func (f *FakeHotkey) Cancel() <-chan struct{}  { return f.cancel }
func (f *FakeHotkey) ArmCancel()               { f.armed.Store(true) }
func (f *FakeHotkey) DisarmCancel()            { f.armed.Store(false) }

func (f *FakeHotkey) SimKeydown() { f.keydown <- struct{}{} }
func (f *FakeHotkey) SimKeyup()   { f.keyup <- struct{}{} }

// SimCancel delivers Esc only while armed, like the real implementations.
func (f *FakeHotkey) SimCancel() {
	if f.armed.Load() {
		f.cancel <- struct{}{}
	}
}

// CancelArmed reports whether the machinery armed Esc watching.
func (f *FakeHotkey) CancelArmed() bool { return f.armed.Load() }
