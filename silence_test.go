package main

import "testing"

func feedN(m *silenceMonitor, speech bool, n int) silenceEvent {
	var last silenceEvent
	for i := 0; i < n; i++ {
		last = m.Tick(speech)
	}
	return last
}

func TestSilenceWarnAfter8s(t *testing.T) {
	m := newSilenceMonitor(false)
	// 79 ticks of silence: no warning yet
	for i := 0; i < 79; i++ {
		if ev := m.Tick(false); ev != silenceNone {
			t.Fatalf("unexpected event at tick %d: %d", i, ev)
		}
	}
	// 80th tick (8s) triggers the warning
	if ev := m.Tick(false); ev != silenceWarn {
		t.Fatalf("expected silenceWarn at tick 80, got %d", ev)
	}
}

func TestSilenceWarnClearsOnSpeech(t *testing.T) {
	m := newSilenceMonitor(false)
	feedN(m, false, 80)

	// Sustained speech clears the warning (25% of the 80-tick window)
	for i := 0; i < 80; i++ {
		if ev := m.Tick(true); ev == silenceWarnClear {
			return
		}
	}
	t.Fatal("expected silenceWarnClear after speech")
}

func TestNoWarnDuringSpeech(t *testing.T) {
	m := newSilenceMonitor(false)
	for i := 0; i < 200; i++ {
		if ev := m.Tick(true); ev == silenceWarn {
			t.Fatalf("unexpected warn during speech at tick %d", i)
		}
	}
}

func TestPushToTalkNeverAutoCloses(t *testing.T) {
	m := newSilenceMonitor(false)
	for i := 0; i < 600; i++ {
		ev := m.Tick(false)
		if ev == silenceAutoClose || ev == silenceRepeat {
			t.Fatalf("toggle-only event %d fired in push-to-talk mode at tick %d", ev, i)
		}
	}
}

func TestToggleRepeatNag(t *testing.T) {
	m := newSilenceMonitor(true)
	feedN(m, false, 80) // warn at tick 80
	var gotRepeat bool
	for i := 0; i < 100; i++ {
		if ev := m.Tick(false); ev == silenceRepeat {
			gotRepeat = true
			break
		}
	}
	if !gotRepeat {
		t.Fatal("expected silenceRepeat in toggle mode")
	}
}

func TestToggleAutoClose(t *testing.T) {
	m := newSilenceMonitor(true)
	for i := 0; i < 400; i++ {
		if ev := m.Tick(false); ev == silenceAutoClose {
			return
		}
	}
	t.Fatal("expected silenceAutoClose within 400 ticks")
}

func TestAutoClosePriorityOverRepeat(t *testing.T) {
	m := newSilenceMonitor(true)
	for i := 0; i < 400; i++ {
		ev := m.Tick(false)
		if ev == silenceAutoClose {
			return
		}
		if i >= 300 && ev == silenceRepeat {
			t.Fatalf("silenceRepeat fired at tick %d instead of silenceAutoClose", i)
		}
	}
	t.Fatal("expected silenceAutoClose within 400 ticks")
}

func TestSpeechDefeatsAutoClose(t *testing.T) {
	m := newSilenceMonitor(true)
	// Enough periodic speech to stay above 10% of the 300-tick window
	for i := 0; i < 900; i++ {
		if ev := m.Tick(i%5 == 0); ev == silenceAutoClose {
			t.Fatalf("auto-close fired at tick %d despite periodic speech", i)
		}
	}
}
