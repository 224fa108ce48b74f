package typist

import "sync"

// FakeTypist records what would have been typed.
type FakeTypist struct {
	mu    sync.Mutex
	typed []string
	err   error
}

func NewFake() *FakeTypist { return &FakeTypist{} }

func (f *FakeTypist) SetErr(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *FakeTypist) Type(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.typed = append(f.typed, text)
	return nil
}

func (f *FakeTypist) Typed() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.typed))
	copy(out, f.typed)
	return out
}
