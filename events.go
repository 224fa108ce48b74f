package main

import "math"

// EventSink abstracts the status surface so the Bubble Tea TUI and the
// headless test mode receive the same session events. Implementations
// must be safe to call from the control loop, the capture callback and
// the ticker goroutine.
type EventSink interface {
	Ready()
	RecordingStart()
	RecordingTick(elapsed float64)
	AudioLevel(level float64)
	Processing()
	Transcribed(text string)
	NoSpeech()
	SessionError(detail string)
	Cancelled()
	NoVoiceWarning()
	VoiceCleared()
}

// nopSink drops every event. Used when the TUI is off.
type nopSink struct{}

func (nopSink) Ready()                {}
func (nopSink) RecordingStart()       {}
func (nopSink) RecordingTick(float64) {}
func (nopSink) AudioLevel(float64)    {}
func (nopSink) Processing()           {}
func (nopSink) Transcribed(string)    {}
func (nopSink) NoSpeech()             {}
func (nopSink) SessionError(string)   {}
func (nopSink) Cancelled()            {}
func (nopSink) NoVoiceWarning()       {}
func (nopSink) VoiceCleared()         {}

// rmsLevel is the root-mean-square level of one callback block,
// feeding the recording level meter.
func rmsLevel(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(samples)))
}
