package main

import (
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"sotto/log"
	"sotto/typist"
)

// setupSessionLog points the log package at a temp dir and opens a
// fresh per-run file.
func setupSessionLog(t *testing.T) {
	t.Helper()
	log.SetDir(t.TempDir())
	if err := log.Init(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(log.Close)
}

func readRunLog(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(log.RunLogPath())
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func countRecords(t *testing.T) int {
	t.Helper()
	content := strings.TrimSpace(readRunLog(t))
	if content == "" {
		return 0
	}
	return len(strings.Split(content, "\n"))
}

func TestDeliverSuccessTypesAndLogs(t *testing.T) {
	setupSessionLog(t)
	ft := typist.NewFake()
	sink := NewOutputSink(ft, true)

	sess := &Session{ID: "abc12345", Duration: 1200 * time.Millisecond}
	sink.Deliver(sess, TranscriptResult{SessionID: sess.ID, Text: "hello world", Succeeded: true})

	typed := ft.Typed()
	if len(typed) != 1 || typed[0] != "hello world" {
		t.Fatalf("typed = %q, want [hello world]", typed)
	}
	content := readRunLog(t)
	if !strings.Contains(content, "outcome=success") {
		t.Errorf("missing success outcome: %s", content)
	}
	if !strings.Contains(content, "hello world") {
		t.Errorf("missing transcript text: %s", content)
	}
	if !strings.Contains(content, "abc12345") {
		t.Errorf("missing session id: %s", content)
	}
}

func TestDeliverEmptySkipsInjection(t *testing.T) {
	setupSessionLog(t)
	ft := typist.NewFake()
	sink := NewOutputSink(ft, true)

	sess := &Session{ID: "empty001", Duration: time.Second}
	sink.Deliver(sess, TranscriptResult{SessionID: sess.ID, Text: "", Succeeded: true})

	if len(ft.Typed()) != 0 {
		t.Fatal("empty transcript must not be injected")
	}
	content := readRunLog(t)
	if !strings.Contains(content, "outcome=empty") {
		t.Errorf("missing empty outcome: %s", content)
	}
}

func TestDeliverErrorSkipsInjection(t *testing.T) {
	setupSessionLog(t)
	ft := typist.NewFake()
	sink := NewOutputSink(ft, true)

	sess := &Session{ID: "err00001", Duration: 2 * time.Second}
	sink.Deliver(sess, TranscriptResult{
		SessionID: sess.ID,
		Succeeded: false,
		Detail:    "server returned 500",
	})

	if len(ft.Typed()) != 0 {
		t.Fatal("failed transcription must not be injected")
	}
	content := readRunLog(t)
	if !strings.Contains(content, "outcome=error") {
		t.Errorf("missing error outcome: %s", content)
	}
	if !strings.Contains(content, "server returned 500") {
		t.Errorf("missing error detail: %s", content)
	}
}

func TestDeliverInjectionFailureStillLogsSuccess(t *testing.T) {
	setupSessionLog(t)
	ft := typist.NewFake()
	ft.SetErr(errors.New("uinput: permission denied"))
	sink := NewOutputSink(ft, true)

	sess := &Session{ID: "inj00001", Duration: time.Second}
	sink.Deliver(sess, TranscriptResult{SessionID: sess.ID, Text: "still logged", Succeeded: true})

	content := readRunLog(t)
	if !strings.Contains(content, "outcome=success") {
		t.Errorf("injection failure changed the outcome: %s", content)
	}
	if !strings.Contains(content, "still logged") {
		t.Errorf("missing transcript text: %s", content)
	}
}

func TestDeliverAutotypeOff(t *testing.T) {
	setupSessionLog(t)
	ft := typist.NewFake()
	sink := NewOutputSink(ft, false)

	sess := &Session{ID: "noty0001", Duration: time.Second}
	sink.Deliver(sess, TranscriptResult{SessionID: sess.ID, Text: "hands off", Succeeded: true})

	if len(ft.Typed()) != 0 {
		t.Fatal("autotype off must not inject")
	}
	if !strings.Contains(readRunLog(t), "outcome=success") {
		t.Error("record still expected with autotype off")
	}
}

func TestDeliverRecordsDroppedFrames(t *testing.T) {
	setupSessionLog(t)
	sink := NewOutputSink(typist.NewFake(), true)

	sess := &Session{ID: "drop0001", Duration: 10 * time.Minute, Dropped: 12345}
	sink.Deliver(sess, TranscriptResult{SessionID: sess.ID, Text: "long one", Succeeded: true})

	if !strings.Contains(readRunLog(t), "dropped_frames=12345") {
		t.Errorf("missing dropped frame count: %s", readRunLog(t))
	}
}

func TestDeliverOneRecordPerSession(t *testing.T) {
	setupSessionLog(t)
	sink := NewOutputSink(typist.NewFake(), true)

	for i, res := range []TranscriptResult{
		{SessionID: "a", Text: "one", Succeeded: true},
		{SessionID: "b", Succeeded: false, Detail: "boom"},
		{SessionID: "c", Text: "", Succeeded: true},
	} {
		sink.Deliver(&Session{ID: res.SessionID, Duration: time.Duration(i+1) * time.Second}, res)
	}
	if n := countRecords(t); n != 3 {
		t.Fatalf("got %d records, want 3:\n%s", n, readRunLog(t))
	}
}
