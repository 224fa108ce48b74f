//go:build windows

package beep

// No playback backend wired on Windows; cues are silent.
func play(samples []int16) {}
