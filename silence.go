package main

import "time"

const (
	tickInterval        = 100 * time.Millisecond
	silenceWarnEvery    = 8 * time.Second
	silenceAutoCloseDur = 30 * time.Second
	speechMinRatio      = 0.10
	speechClearRatio    = 0.25 // higher threshold to clear warning (hysteresis)
)

type silenceEvent int

const (
	silenceNone      silenceEvent = iota
	silenceWarn                   // no voice detected
	silenceWarnClear              // speech resumed after warning
	silenceRepeat                 // repeat nag while still silent (toggle mode)
	silenceAutoClose              // 30s silence auto-stop (toggle mode)
)

// silenceMonitor watches per-tick speech flags during one recording and
// decides when to warn about silence and, in toggle mode, when to stop
// a session the user forgot about. Push-to-talk sessions only warn: the
// user's finger is on the key, stopping is theirs.
type silenceMonitor struct {
	warnAt   int
	windowSz int
	toggle   bool

	ticks       int
	window      []bool
	speechCount int
	warned      bool
	lastNag     int
}

func newSilenceMonitor(toggle bool) *silenceMonitor {
	warnAt := int(silenceWarnEvery / tickInterval)
	windowSz := int(silenceAutoCloseDur / tickInterval)
	return &silenceMonitor{
		warnAt:   warnAt,
		windowSz: windowSz,
		toggle:   toggle,
		window:   make([]bool, windowSz),
	}
}

// ratio reports the speech fraction over the last n ticks.
func (m *silenceMonitor) ratio(n int) float64 {
	if m.ticks < n {
		n = m.ticks
	}
	if n == 0 {
		return 1.0
	}
	count := 0
	for i := 0; i < n; i++ {
		if m.window[(m.ticks-1-i+m.windowSz)%m.windowSz] {
			count++
		}
	}
	return float64(count) / float64(n)
}

func (m *silenceMonitor) Tick(hasSpeech bool) silenceEvent {
	idx := m.ticks % m.windowSz
	if m.ticks >= m.windowSz && m.window[idx] {
		m.speechCount--
	}
	m.window[idx] = hasSpeech
	if hasSpeech {
		m.speechCount++
	}
	m.ticks++

	r := m.ratio(m.warnAt)

	if m.ticks >= m.warnAt && r < speechMinRatio && !m.warned {
		m.warned = true
		m.lastNag = m.ticks
		return silenceWarn
	}
	if m.warned && r >= speechClearRatio {
		m.warned = false
		return silenceWarnClear
	}

	if !m.toggle {
		return silenceNone
	}

	// Auto-close outranks the nag when both are due
	if m.ticks >= m.windowSz && float64(m.speechCount)/float64(m.windowSz) < speechMinRatio {
		return silenceAutoClose
	}

	if m.warned && m.ticks-m.lastNag >= m.warnAt {
		m.lastNag = m.ticks
		return silenceRepeat
	}

	return silenceNone
}
