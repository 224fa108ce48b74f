// Package beep plays short synthesized cues for session transitions:
// capture opened, capture closed, something went wrong. Playback is
// asynchronous and best-effort; a missing sound server never breaks a
// session.
package beep

import (
	"math"
	"sync/atomic"
)

const sampleRate = 44100

// cue is one tone burst. count above 1 repeats the burst with a short
// gap, giving the error cue its double blip.
type cue struct {
	freq   float64
	length float64 // seconds
	volume float64
	decay  float64
	count  int
	gap    float64 // seconds between repeats
}

var (
	startCue = cue{freq: 1200, length: 0.2, volume: 0.5, decay: 60, count: 1}
	stopCue  = cue{freq: 900, length: 0.2, volume: 0.5, decay: 40, count: 1}
	errorCue = cue{freq: 350, length: 0.08, volume: 0.6, decay: 30, count: 2, gap: 0.05}
)

var disabled atomic.Bool

// Disable turns all cues off, for headless and test runs.
func Disable() { disabled.Store(true) }

// PlayStart marks capture opening. Returns immediately.
func PlayStart() { dispatch(startCue) }

// PlayStop marks capture closing.
func PlayStop() { dispatch(stopCue) }

// PlayError marks a failed session or a silence warning.
func PlayError() { dispatch(errorCue) }

func dispatch(c cue) {
	if disabled.Load() {
		return
	}
	go play(render(c))
}

// render synthesizes the cue as mono 16-bit samples with an
// exponential decay envelope.
func render(c cue) []int16 {
	burst := int(float64(sampleRate) * c.length)
	gap := int(float64(sampleRate) * c.gap)
	samples := make([]int16, 0, burst*c.count+gap*(c.count-1))
	for rep := 0; rep < c.count; rep++ {
		if rep > 0 {
			samples = append(samples, make([]int16, gap)...)
		}
		for i := 0; i < burst; i++ {
			t := float64(i) / float64(sampleRate)
			envelope := math.Exp(-t * c.decay)
			samples = append(samples, int16(math.Sin(2*math.Pi*c.freq*t)*32767*c.volume*envelope))
		}
	}
	return samples
}
