package main

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"sotto/audio"
	"sotto/beep"
	"sotto/engine"
	"sotto/hotkey"
	"sotto/typist"
)

// testCapture is a hand-driven capture device: tests push blocks
// through the installed callback instead of depending on timers.
type testCapture struct {
	mu       sync.Mutex
	cb       audio.DataCallback
	startErr error
	started  bool
	starts   int
	stops    int
}

func (c *testCapture) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.startErr != nil {
		return c.startErr
	}
	c.started = true
	c.starts++
	return nil
}

func (c *testCapture) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.started = false
	c.stops++
}

func (c *testCapture) Close() {}

func (c *testCapture) DeviceName() string { return "test" }

func (c *testCapture) SetCallback(cb audio.DataCallback) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cb = cb
}

func (c *testCapture) ClearCallback() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cb = nil
}

func (c *testCapture) push(samples []float32) {
	c.mu.Lock()
	cb := c.cb
	c.mu.Unlock()
	if cb != nil {
		cb(samples)
	}
}

// testSink records lifecycle events in order. High-frequency meter
// events are ignored so assertions stay deterministic.
type testSink struct {
	mu     sync.Mutex
	events []string
}

func (s *testSink) add(e string) {
	s.mu.Lock()
	s.events = append(s.events, e)
	s.mu.Unlock()
}

func (s *testSink) Ready()                  { s.add("ready") }
func (s *testSink) RecordingStart()         { s.add("recording") }
func (s *testSink) RecordingTick(float64)   {}
func (s *testSink) AudioLevel(float64)      {}
func (s *testSink) Processing()             { s.add("processing") }
func (s *testSink) Transcribed(text string) { s.add("transcribed:" + text) }
func (s *testSink) NoSpeech()               { s.add("nospeech") }
func (s *testSink) SessionError(d string)   { s.add("error:" + d) }
func (s *testSink) Cancelled()              { s.add("cancelled") }
func (s *testSink) NoVoiceWarning()         { s.add("novoice") }
func (s *testSink) VoiceCleared()           { s.add("voicecleared") }

func (s *testSink) list() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.events))
	copy(out, s.events)
	return out
}

type fixture struct {
	m    *Machine
	cap  *testCapture
	hk   *hotkey.FakeHotkey
	eng  *engine.Fake
	ty   *typist.FakeTypist
	sink *testSink
}

func testConfig() Config {
	return Config{
		Model:       "base",
		MinDuration: 500 * time.Millisecond,
		MaxDuration: 10 * time.Minute,
	}
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	beep.Disable()
	setupSessionLog(t)
	f := &fixture{
		cap:  &testCapture{},
		hk:   hotkey.NewFake(),
		eng:  engine.NewFake("", nil),
		ty:   typist.NewFake(),
		sink: &testSink{},
	}
	f.m = NewMachine(cfg, f.cap, f.hk, f.eng, NewOutputSink(f.ty, true), f.sink)
	return f
}

func waitResult(t *testing.T, m *Machine) TranscriptResult {
	t.Helper()
	select {
	case res := <-m.Results():
		return res
	case <-time.After(2 * time.Second):
		t.Fatal("no transcript result within 2s")
		return TranscriptResult{}
	}
}

func assertNoResult(t *testing.T, m *Machine) {
	t.Helper()
	select {
	case res := <-m.Results():
		t.Fatalf("unexpected result: %+v", res)
	case <-time.After(50 * time.Millisecond):
	}
}

// Holding below the minimum duration discards everything: no dispatch,
// no session record, straight back to idle.
func TestShortHoldDiscards(t *testing.T) {
	f := newFixture(t, testConfig())

	f.m.TriggerDown()
	if f.m.State() != StateRecording {
		t.Fatalf("state = %v, want recording", f.m.State())
	}
	f.cap.push(block(0.1, 4000)) // 0.25s at 16kHz
	f.m.TriggerUp()

	if f.m.State() != StateIdle {
		t.Fatalf("state = %v, want idle", f.m.State())
	}
	assertNoResult(t, f.m)
	if n := len(f.eng.Calls()); n != 0 {
		t.Errorf("engine called %d times, want 0", n)
	}
	if n := countRecords(t); n != 0 {
		t.Errorf("%d session records, want 0", n)
	}
	if len(f.ty.Typed()) != 0 {
		t.Error("nothing should have been typed")
	}
}

// A full hold runs capture -> processing -> injection -> record, with
// the status surface seeing each phase in order.
func TestFullSessionFlow(t *testing.T) {
	f := newFixture(t, testConfig())
	f.eng.SetResult("hello world", nil)

	f.m.TriggerDown()
	if !f.hk.CancelArmed() {
		t.Error("Esc watching should be armed while recording")
	}
	f.cap.push(block(0.1, 16000)) // 1s
	f.m.TriggerUp()

	if f.m.State() != StateProcessing {
		t.Fatalf("state = %v, want processing", f.m.State())
	}
	if f.hk.CancelArmed() {
		t.Error("Esc watching should be disarmed after stop")
	}

	res := waitResult(t, f.m)
	if !res.Succeeded || res.Text != "hello world" {
		t.Fatalf("result = %+v", res)
	}
	f.m.Complete(res)

	if f.m.State() != StateIdle {
		t.Fatalf("state = %v, want idle", f.m.State())
	}
	typed := f.ty.Typed()
	if len(typed) != 1 || typed[0] != "hello world" {
		t.Errorf("typed = %q", typed)
	}
	content := readRunLog(t)
	if !strings.Contains(content, "outcome=success") || !strings.Contains(content, "hello world") {
		t.Errorf("bad session record: %s", content)
	}
	calls := f.eng.Calls()
	if len(calls) != 1 || calls[0].Samples != 16000 || calls[0].Model != "base" {
		t.Errorf("calls = %+v", calls)
	}

	want := []string{"recording", "processing", "transcribed:hello world", "ready"}
	got := f.sink.list()
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("events = %v, want %v", got, want)
		}
	}
}

// Engine failure is a logged error session, never an injection.
func TestEngineErrorLogged(t *testing.T) {
	f := newFixture(t, testConfig())
	f.eng.SetResult("", errors.New("server returned 500"))

	f.m.TriggerDown()
	f.cap.push(block(0.1, 16000))
	f.m.TriggerUp()

	res := waitResult(t, f.m)
	if res.Succeeded {
		t.Fatal("expected failure")
	}
	f.m.Complete(res)

	if f.m.State() != StateIdle {
		t.Fatalf("state = %v, want idle", f.m.State())
	}
	if len(f.ty.Typed()) != 0 {
		t.Error("failed result must not be typed")
	}
	content := readRunLog(t)
	if !strings.Contains(content, "outcome=error") || !strings.Contains(content, "server returned 500") {
		t.Errorf("bad session record: %s", content)
	}
}

// A second press while holding must not disturb the open session.
func TestDuplicateTriggerDown(t *testing.T) {
	f := newFixture(t, testConfig())
	f.eng.SetResult("once", nil)

	f.m.TriggerDown()
	f.cap.push(block(0.1, 8000))
	f.m.TriggerDown() // key repeat or double event
	if f.m.State() != StateRecording {
		t.Fatalf("state = %v, want recording", f.m.State())
	}
	f.cap.push(block(0.1, 8000))
	f.m.TriggerUp()

	res := waitResult(t, f.m)
	f.m.Complete(res)

	calls := f.eng.Calls()
	if len(calls) != 1 {
		t.Fatalf("engine called %d times, want 1", len(calls))
	}
	if calls[0].Samples != 16000 {
		t.Errorf("session split: %d samples, want 16000", calls[0].Samples)
	}
	if n := countRecords(t); n != 1 {
		t.Errorf("%d session records, want 1", n)
	}
	if f.cap.starts != 1 {
		t.Errorf("capture started %d times, want 1", f.cap.starts)
	}
}

// Presses and releases during processing are dropped, not queued.
func TestTriggersIgnoredWhileProcessing(t *testing.T) {
	f := newFixture(t, testConfig())
	f.eng.SetDelay(100 * time.Millisecond)

	f.m.TriggerDown()
	f.cap.push(block(0.1, 16000))
	f.m.TriggerUp()

	f.m.TriggerDown()
	f.m.TriggerUp()
	if f.m.State() != StateProcessing {
		t.Fatalf("state = %v, want processing", f.m.State())
	}
	if f.cap.starts != 1 {
		t.Errorf("capture restarted during processing")
	}

	f.m.Complete(waitResult(t, f.m))
	if f.m.State() != StateIdle {
		t.Fatalf("state = %v, want idle", f.m.State())
	}
}

func TestTriggerUpInIdle(t *testing.T) {
	f := newFixture(t, testConfig())
	f.m.TriggerUp()
	if f.m.State() != StateIdle {
		t.Fatalf("state = %v, want idle", f.m.State())
	}
	if len(f.sink.list()) != 0 {
		t.Errorf("events = %v, want none", f.sink.list())
	}
	if n := countRecords(t); n != 0 {
		t.Errorf("%d session records, want 0", n)
	}
}

// Esc while recording discards silently: no dispatch, no record.
func TestCancelDiscards(t *testing.T) {
	f := newFixture(t, testConfig())

	f.m.TriggerDown()
	f.cap.push(block(0.1, 16000))
	f.m.Cancel()

	if f.m.State() != StateIdle {
		t.Fatalf("state = %v, want idle", f.m.State())
	}
	if f.hk.CancelArmed() {
		t.Error("Esc watching should be disarmed after cancel")
	}
	assertNoResult(t, f.m)
	if n := countRecords(t); n != 0 {
		t.Errorf("%d session records, want 0", n)
	}
	got := f.sink.list()
	want := []string{"recording", "cancelled", "ready"}
	if len(got) != 3 || got[1] != want[1] {
		t.Errorf("events = %v, want %v", got, want)
	}
}

func TestCancelOutsideRecordingIsNoop(t *testing.T) {
	f := newFixture(t, testConfig())
	f.m.Cancel() // idle

	f.m.TriggerDown()
	f.cap.push(block(0.1, 16000))
	f.m.TriggerUp()
	f.m.Cancel() // processing
	if f.m.State() != StateProcessing {
		t.Fatalf("cancel interrupted processing: %v", f.m.State())
	}
	f.m.Complete(waitResult(t, f.m))
}

// Capture-device failure closes the session as a logged error and keeps
// the loop alive for the next attempt.
func TestCaptureStartFailure(t *testing.T) {
	f := newFixture(t, testConfig())
	f.cap.startErr = errors.New("device busy")

	f.m.TriggerDown()
	if f.m.State() != StateIdle {
		t.Fatalf("state = %v, want idle", f.m.State())
	}
	content := readRunLog(t)
	if !strings.Contains(content, "outcome=error") || !strings.Contains(content, "device busy") {
		t.Errorf("bad session record: %s", content)
	}

	// Device recovers: the next session works.
	f.cap.startErr = nil
	f.eng.SetResult("back", nil)
	f.m.TriggerDown()
	if f.m.State() != StateRecording {
		t.Fatalf("state = %v, want recording", f.m.State())
	}
	f.cap.push(block(0.1, 16000))
	f.m.TriggerUp()
	f.m.Complete(waitResult(t, f.m))
	if typed := f.ty.Typed(); len(typed) != 1 || typed[0] != "back" {
		t.Errorf("typed = %q", typed)
	}
}

func TestToggleMode(t *testing.T) {
	cfg := testConfig()
	cfg.Toggle = true
	f := newFixture(t, cfg)
	f.eng.SetResult("toggled", nil)

	f.m.TriggerDown() // tap starts
	if f.m.State() != StateRecording {
		t.Fatalf("state = %v, want recording", f.m.State())
	}
	f.m.TriggerUp() // release of the starting tap: keep recording
	if f.m.State() != StateRecording {
		t.Fatalf("release stopped a toggle recording")
	}
	f.cap.push(block(0.1, 16000))
	f.m.TriggerDown() // second tap stops
	if f.m.State() != StateProcessing {
		t.Fatalf("state = %v, want processing", f.m.State())
	}
	f.m.Complete(waitResult(t, f.m))
	if typed := f.ty.Typed(); len(typed) != 1 || typed[0] != "toggled" {
		t.Errorf("typed = %q", typed)
	}
}

// OS key repeat fires extra downs before the starting tap is released;
// they must not stop a toggle recording.
func TestToggleKeyRepeatIgnored(t *testing.T) {
	cfg := testConfig()
	cfg.Toggle = true
	f := newFixture(t, cfg)

	f.m.TriggerDown()
	f.m.TriggerDown() // repeat
	f.m.TriggerDown() // repeat
	if f.m.State() != StateRecording {
		t.Fatalf("key repeat stopped the recording")
	}
	f.m.TriggerUp()
	f.cap.push(block(0.1, 16000))
	f.m.TriggerDown()
	if f.m.State() != StateProcessing {
		t.Fatalf("state = %v, want processing", f.m.State())
	}
	f.m.Complete(waitResult(t, f.m))
}

func TestAutoStop(t *testing.T) {
	cfg := testConfig()
	cfg.Toggle = true
	f := newFixture(t, cfg)

	f.m.TriggerDown()
	f.cap.push(block(0.1, 16000))

	f.m.AutoStop("deadbeef") // stale id from an earlier session
	if f.m.State() != StateRecording {
		t.Fatalf("stale auto-stop stopped the recording")
	}

	f.m.AutoStop(f.m.SessionID())
	if f.m.State() != StateProcessing {
		t.Fatalf("state = %v, want processing", f.m.State())
	}
	f.m.Complete(waitResult(t, f.m))
}

// Exactly the minimum duration dispatches; the cutoff is strictly below.
func TestExactMinimumDispatches(t *testing.T) {
	f := newFixture(t, testConfig())

	f.m.TriggerDown()
	f.cap.push(block(0.1, 8000)) // exactly 0.5s
	f.m.TriggerUp()

	if f.m.State() != StateProcessing {
		t.Fatalf("state = %v, want processing", f.m.State())
	}
	f.m.Complete(waitResult(t, f.m))
}

// Audio past the maximum capture duration is dropped and counted.
func TestMaxDurationTruncates(t *testing.T) {
	cfg := testConfig()
	cfg.MaxDuration = time.Second
	f := newFixture(t, cfg)
	f.eng.SetResult("capped", nil)

	f.m.TriggerDown()
	f.cap.push(block(0.1, 16000))
	f.cap.push(block(0.1, 16000)) // a second past the cap
	f.m.TriggerUp()

	res := waitResult(t, f.m)
	f.m.Complete(res)

	calls := f.eng.Calls()
	if len(calls) != 1 || calls[0].Samples != 16000 {
		t.Errorf("calls = %+v, want one with 16000 samples", calls)
	}
	content := readRunLog(t)
	if !strings.Contains(content, "dropped_frames=16000") {
		t.Errorf("missing dropped frame count: %s", content)
	}
	if !strings.Contains(content, "duration_s=1") {
		t.Errorf("duration should reflect the cap: %s", content)
	}
}

// Blocks arriving after the stop froze the buffer are dropped, not
// leaked into the dispatched audio.
func TestLateBlockAfterStop(t *testing.T) {
	f := newFixture(t, testConfig())

	f.m.TriggerDown()
	f.cap.push(block(0.1, 16000))
	f.m.TriggerUp()
	f.cap.push(block(0.9, 16000)) // straggler

	res := waitResult(t, f.m)
	f.m.Complete(res)

	calls := f.eng.Calls()
	if len(calls) != 1 || calls[0].Samples != 16000 {
		t.Errorf("calls = %+v, want one with 16000 samples", calls)
	}
}

func TestEngineTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.EngineTimeout = 50 * time.Millisecond
	f := newFixture(t, cfg)
	f.eng.SetResult("too late", nil)
	f.eng.SetDelay(time.Second)

	f.m.TriggerDown()
	f.cap.push(block(0.1, 16000))
	f.m.TriggerUp()

	res := waitResult(t, f.m)
	if res.Succeeded {
		t.Fatal("expected timeout failure")
	}
	if !strings.Contains(res.Detail, "engine unresponsive") {
		t.Errorf("detail = %q", res.Detail)
	}
	f.m.Complete(res)
	if len(f.ty.Typed()) != 0 {
		t.Error("timed-out result must not be typed")
	}
	if !strings.Contains(readRunLog(t), "outcome=error") {
		t.Error("timeout should be recorded as an error session")
	}
}

// Succeeded-but-empty results are recorded, never injected.
func TestEmptyTranscript(t *testing.T) {
	f := newFixture(t, testConfig())
	f.eng.SetResult("", nil)

	f.m.TriggerDown()
	f.cap.push(block(0.1, 16000))
	f.m.TriggerUp()
	f.m.Complete(waitResult(t, f.m))

	if len(f.ty.Typed()) != 0 {
		t.Error("empty transcript must not be typed")
	}
	if !strings.Contains(readRunLog(t), "outcome=empty") {
		t.Errorf("bad session record: %s", readRunLog(t))
	}
	got := f.sink.list()
	if len(got) < 3 || got[2] != "nospeech" {
		t.Errorf("events = %v, want nospeech third", got)
	}
}

// Back-to-back sessions reuse the machine cleanly.
func TestSequentialSessions(t *testing.T) {
	f := newFixture(t, testConfig())

	for i, text := range []string{"first", "second", "third"} {
		f.eng.SetResult(text, nil)
		f.m.TriggerDown()
		f.cap.push(block(0.1, 16000))
		f.m.TriggerUp()
		f.m.Complete(waitResult(t, f.m))
		if f.m.State() != StateIdle {
			t.Fatalf("session %d left state %v", i, f.m.State())
		}
	}
	typed := f.ty.Typed()
	if len(typed) != 3 || typed[2] != "third" {
		t.Errorf("typed = %q", typed)
	}
	if n := countRecords(t); n != 3 {
		t.Errorf("%d session records, want 3", n)
	}
}
