package engine

import (
	"context"
	"sync"
	"time"
)

// FakeCall records one Transcribe invocation.
type FakeCall struct {
	Samples int
	Model   string
}

// Fake is a scripted engine for tests: fixed text or error, optional delay.
type Fake struct {
	mu    sync.Mutex
	text  string
	err   error
	delay time.Duration
	calls []FakeCall
}

func NewFake(text string, err error) *Fake {
	return &Fake{text: text, err: err}
}

func (f *Fake) Name() string { return "fake" }

func (f *Fake) SetResult(text string, err error) {
	f.mu.Lock()
	f.text, f.err = text, err
	f.mu.Unlock()
}

func (f *Fake) SetDelay(d time.Duration) {
	f.mu.Lock()
	f.delay = d
	f.mu.Unlock()
}

func (f *Fake) Calls() []FakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]FakeCall, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *Fake) Transcribe(ctx context.Context, samples []float32, _ int, model string) (string, error) {
	f.mu.Lock()
	text, err, delay := f.text, f.err, f.delay
	f.calls = append(f.calls, FakeCall{Samples: len(samples), Model: model})
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return text, err
}
