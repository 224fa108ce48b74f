package main

import (
	"errors"
	"sync"
	"time"

	"sotto/audio"
)

// ErrClosed is returned by Append once the buffer has been frozen.
var ErrClosed = errors.New("audio buffer closed")

// audioFrame is one timestamped block of samples as delivered by the
// capture callback.
type audioFrame struct {
	at      time.Time
	samples []float32
}

// AudioBuffer accumulates capture frames for a single session. The
// capture callback appends, the control loop freezes; both sides go
// through the mutex. A frozen buffer rejects further appends, so a
// late callback block after stop is dropped rather than leaking into
// the next session.
type AudioBuffer struct {
	mu      sync.Mutex
	frames  []audioFrame
	total   int // samples across all frames
	limit   int // sample cap derived from max duration, 0 = unbounded
	dropped uint64
	frozen  bool
}

func NewAudioBuffer(maxDuration time.Duration) *AudioBuffer {
	limit := 0
	if maxDuration > 0 {
		limit = int(maxDuration.Seconds() * float64(audio.SampleRate))
	}
	return &AudioBuffer{limit: limit}
}

// Append copies one callback block into the buffer. Samples past the
// maximum capture duration are truncated and counted instead of grown.
func (b *AudioBuffer) Append(samples []float32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.frozen {
		return ErrClosed
	}
	if len(samples) == 0 {
		return nil
	}
	keep := len(samples)
	if b.limit > 0 {
		if b.total >= b.limit {
			b.dropped += uint64(len(samples))
			return nil
		}
		if b.total+keep > b.limit {
			keep = b.limit - b.total
			b.dropped += uint64(len(samples) - keep)
		}
	}
	cp := make([]float32, keep)
	copy(cp, samples[:keep])
	b.frames = append(b.frames, audioFrame{at: time.Now(), samples: cp})
	b.total += keep
	return nil
}

// Freeze closes the buffer and returns the flattened sample sequence
// plus the duration implied by the sample count. Called once per
// session from the control loop.
func (b *AudioBuffer) Freeze() ([]float32, time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frozen = true
	out := make([]float32, 0, b.total)
	for _, f := range b.frames {
		out = append(out, f.samples...)
	}
	dur := time.Duration(float64(len(out)) / float64(audio.SampleRate) * float64(time.Second))
	return out, dur
}

// Dropped reports how many samples were discarded at the cap.
func (b *AudioBuffer) Dropped() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

// Len reports the buffered sample count.
func (b *AudioBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.total
}
