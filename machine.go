package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"sotto/audio"
	"sotto/beep"
	"sotto/denoise"
	"sotto/engine"
	"sotto/hotkey"
	"sotto/log"
)

// State is the session lifecycle phase.
type State int

const (
	StateIdle State = iota
	StateRecording
	StateProcessing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateProcessing:
		return "processing"
	}
	return "unknown"
}

// warmer is implemented by engines that can pre-establish their server
// connection before the first session.
type warmer interface{ Warm() }

// Machine owns the recording/transcription lifecycle. Every transition
// happens in a method called from the control loop goroutine: trigger
// events, cancel, auto-stop requests and worker results all funnel
// through the loop's select. The capture callback only appends to the
// open session's buffer; the worker only sends on the results channel.
type Machine struct {
	cfg     Config
	capture audio.CaptureDevice
	hk      hotkey.Hotkey
	eng     engine.Engine
	sink    *OutputSink
	events  EventSink
	vad     *vadProcessor

	state      State
	session    *Session     // open while recording
	buf        *AudioBuffer // open session's buffer
	pending    *Session     // dispatched, awaiting its result
	tickerStop chan struct{}

	// awaitRelease guards toggle mode against OS key repeat: the stop
	// press only counts once the starting press has been released.
	awaitRelease bool

	results  chan TranscriptResult
	autoStop chan string
}

func NewMachine(cfg Config, capture audio.CaptureDevice, hk hotkey.Hotkey, eng engine.Engine, sink *OutputSink, events EventSink) *Machine {
	m := &Machine{
		cfg:     cfg,
		capture: capture,
		hk:      hk,
		eng:     eng,
		sink:    sink,
		events:  events,
		// Buffered so the single in-flight worker never blocks on send.
		results:  make(chan TranscriptResult, 1),
		autoStop: make(chan string, 1),
	}
	if vp, err := newVADProcessor(); err == nil {
		m.vad = vp
	} else {
		log.Warnf("voice detection unavailable: %v", err)
	}
	if w, ok := eng.(warmer); ok {
		go w.Warm()
	}
	return m
}

// State reports the current lifecycle phase.
func (m *Machine) State() State { return m.state }

// SessionID reports the open or pending session's id, empty when idle.
func (m *Machine) SessionID() string {
	if m.session != nil {
		return m.session.ID
	}
	if m.pending != nil {
		return m.pending.ID
	}
	return ""
}

// Results delivers exactly one TranscriptResult per dispatched session.
// The control loop feeds each back into Complete.
func (m *Machine) Results() <-chan TranscriptResult { return m.results }

// AutoStopRequests carries session ids whose silence monitor wants the
// recording stopped. The control loop feeds them into AutoStop.
func (m *Machine) AutoStopRequests() <-chan string { return m.autoStop }

// TriggerDown handles a trigger key press.
func (m *Machine) TriggerDown() {
	switch m.state {
	case StateIdle:
		m.startRecording()
	case StateRecording:
		// Duplicate press while holding is a no-op. In toggle mode a
		// fresh press after release is the stop gesture.
		if m.cfg.Toggle && !m.awaitRelease {
			m.stopRecording()
		}
	case StateProcessing:
		// At most one in-flight transcription; presses are dropped,
		// not queued.
	}
}

// TriggerUp handles a trigger key release. A release with no open
// recording, or while processing, is a no-op.
func (m *Machine) TriggerUp() {
	if m.state != StateRecording {
		return
	}
	if m.cfg.Toggle {
		m.awaitRelease = false
		return
	}
	m.stopRecording()
}

// Cancel discards the open recording without dispatch and without a
// session record. Outside RECORDING it is a no-op.
func (m *Machine) Cancel() {
	if m.state != StateRecording {
		return
	}
	m.teardownCapture()
	m.buf.Freeze()
	log.Info("session " + m.session.ID + " cancelled")
	m.session = nil
	m.buf = nil
	m.state = StateIdle
	m.events.Cancelled()
	m.events.Ready()
}

// AutoStop stops the named recording on the silence monitor's behalf.
// Stale requests for a session that already ended are dropped.
func (m *Machine) AutoStop(sessionID string) {
	if m.state != StateRecording || m.session == nil || m.session.ID != sessionID {
		return
	}
	log.Info("session " + sessionID + " auto-stopped after silence")
	m.stopRecording()
}

func (m *Machine) startRecording() {
	sess := newSession()
	buf := NewAudioBuffer(m.cfg.MaxDuration)
	vp := m.vad
	if vp != nil {
		vp.Reset()
	}

	events := m.events
	m.capture.SetCallback(func(samples []float32) {
		if err := buf.Append(samples); err != nil {
			return // frozen: a late block after stop
		}
		if vp != nil {
			vp.Process(samples)
		}
		events.AudioLevel(rmsLevel(samples))
	})

	if err := m.capture.Start(); err != nil {
		m.capture.ClearCallback()
		log.Errorf("capture start failed: %v", err)
		beep.PlayError()
		m.sink.Deliver(sess, TranscriptResult{
			SessionID: sess.ID,
			Succeeded: false,
			Detail:    fmt.Sprintf("capture start: %v", err),
		})
		m.events.SessionError("microphone unavailable")
		m.events.Ready()
		return
	}

	m.session = sess
	m.buf = buf
	m.state = StateRecording
	m.awaitRelease = m.cfg.Toggle
	m.hk.ArmCancel()

	m.tickerStop = make(chan struct{})
	go m.runTicker(sess.ID, sess.Started, vp, m.tickerStop)

	log.Info("session " + sess.ID + " recording via " + m.capture.DeviceName())
	beep.PlayStart()
	m.events.RecordingStart()
}

func (m *Machine) stopRecording() {
	m.teardownCapture()

	samples, dur := m.buf.Freeze()
	sess := m.session
	sess.Ended = time.Now()
	sess.Duration = dur
	sess.Dropped = m.buf.Dropped()
	m.session = nil
	m.buf = nil

	if dur < m.cfg.MinDuration {
		// Held too briefly: drop the session with no dispatch and no
		// session record.
		log.Info(fmt.Sprintf("session %s discarded: %.2fs below the %.2fs minimum",
			sess.ID, dur.Seconds(), m.cfg.MinDuration.Seconds()))
		m.state = StateIdle
		m.events.Ready()
		return
	}

	m.state = StateProcessing
	m.pending = sess
	log.Info(fmt.Sprintf("session %s processing %.2fs of audio", sess.ID, dur.Seconds()))
	m.events.Processing()
	go m.dispatch(sess.ID, samples)
}

// Complete finalizes the pending session with its worker result. Stale
// results, possible after a very late worker, are dropped.
func (m *Machine) Complete(res TranscriptResult) {
	if m.state != StateProcessing || m.pending == nil || m.pending.ID != res.SessionID {
		return
	}
	sess := m.pending
	m.pending = nil
	m.state = StateIdle

	m.sink.Deliver(sess, res)

	switch {
	case !res.Succeeded:
		beep.PlayError()
		m.events.SessionError(res.Detail)
	case res.Text == "":
		m.events.NoSpeech()
	default:
		m.events.Transcribed(res.Text)
	}
	m.events.Ready()
}

func (m *Machine) teardownCapture() {
	close(m.tickerStop)
	m.tickerStop = nil
	m.capture.Stop()
	m.capture.ClearCallback()
	m.hk.DisarmCancel()
	beep.PlayStop()
}

// dispatch preprocesses the frozen samples and runs the engine call,
// then sends exactly one result. Runs on its own goroutine so the event
// path never waits on the engine.
func (m *Machine) dispatch(sessionID string, samples []float32) {
	cleaned := denoise.Process(samples)

	ctx := context.Background()
	if m.cfg.EngineTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.cfg.EngineTimeout)
		defer cancel()
	}

	text, err := m.eng.Transcribe(ctx, cleaned, audio.SampleRate, m.cfg.Model)
	res := TranscriptResult{SessionID: sessionID, Text: text, Succeeded: err == nil}
	if err != nil {
		res.Text = ""
		if errors.Is(err, context.DeadlineExceeded) {
			res.Detail = fmt.Sprintf("engine unresponsive after %s", m.cfg.EngineTimeout)
		} else {
			res.Detail = err.Error()
		}
		log.Errorf("session %s transcription failed: %v", sessionID, err)
	}
	m.results <- res
}

// runTicker emits elapsed-time status and silence warnings for one
// recording. It never touches machine state: stopping goes through the
// autoStop channel back to the control loop.
func (m *Machine) runTicker(sessionID string, started time.Time, vp *vadProcessor, stop <-chan struct{}) {
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()
	mon := newSilenceMonitor(m.cfg.Toggle)
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			m.events.RecordingTick(time.Since(started).Seconds())
			hasSpeech := true
			if vp != nil {
				hasSpeech = vp.HasSpeechTick()
			}
			switch mon.Tick(hasSpeech) {
			case silenceWarn:
				log.Warn("session " + sessionID + ": no voice detected")
				beep.PlayError()
				m.events.NoVoiceWarning()
			case silenceWarnClear:
				m.events.VoiceCleared()
			case silenceRepeat:
				beep.PlayError()
				m.events.NoVoiceWarning()
			case silenceAutoClose:
				select {
				case m.autoStop <- sessionID:
				default:
				}
				return
			}
		}
	}
}
