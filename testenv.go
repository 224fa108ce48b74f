package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"sotto/audio"
	"sotto/beep"
	"sotto/engine"
	"sotto/hotkey"
	"sotto/log"
)

// stdoutTypist prints transcripts instead of injecting keystrokes so
// scripted runs can assert on process output.
type stdoutTypist struct{}

func (stdoutTypist) Type(text string) error {
	fmt.Printf("TRANSCRIPT %s\n", text)
	return nil
}

// runTestMode replaces the microphone with a WAV file and the trigger key
// with a line protocol on stdin: KEYDOWN, KEYUP, CANCEL, WAIT (block until
// the current session finalizes), WAIT_AUDIO_DONE (block until the WAV is
// exhausted), SLEEP <ms>, QUIT.
func runTestMode(cfg Config, wavPath string) {
	beep.Disable()

	fakeCtx, err := audio.NewFakeContext(wavPath, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading WAV: %v\n", err)
		os.Exit(1)
	}

	capture, err := fakeCtx.NewCapture(nil, audio.CaptureConfig{
		SampleRate: audio.SampleRate, Channels: audio.Channels,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating capture: %v\n", err)
		os.Exit(1)
	}
	defer capture.Close()
	fakeCapture := capture.(*audio.FakeCapture)

	hk := hotkey.NewFake()
	eng := engine.New(cfg.ServerURL, cfg.Format)
	sink := NewOutputSink(stdoutTypist{}, cfg.AutoType)
	m := NewMachine(cfg, capture, hk, eng, sink, nopSink{})

	sessionDone := make(chan struct{}, 1)

	// Key events go through an unbuffered channel so the driver cannot run
	// ahead of the control loop and reorder a KEYDOWN/KEYUP pair.
	cmds := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			cmd := strings.TrimSpace(scanner.Text())
			switch {
			case cmd == "":
			case cmd == "WAIT":
				<-sessionDone
			case cmd == "WAIT_AUDIO_DONE":
				<-fakeCapture.AudioDone()
			case strings.HasPrefix(cmd, "SLEEP "):
				if ms, err := strconv.Atoi(cmd[6:]); err == nil {
					time.Sleep(time.Duration(ms) * time.Millisecond)
				}
			default:
				cmds <- cmd
			}
		}
		cmds <- "QUIT"
	}()

	signalIdle := func() {
		if m.State() == StateIdle {
			select {
			case sessionDone <- struct{}{}:
			default:
			}
		}
	}

	for {
		select {
		case cmd := <-cmds:
			switch cmd {
			case "KEYDOWN":
				m.TriggerDown()
				if m.State() == StateRecording {
					// A stale done token must not satisfy this session's WAIT.
					select {
					case <-sessionDone:
					default:
					}
				}
			case "KEYUP":
				m.TriggerUp()
			case "CANCEL":
				m.Cancel()
			case "QUIT":
				log.Close()
				os.Exit(0)
			default:
				fmt.Fprintf(os.Stderr, "unknown test command %q\n", cmd)
			}
			signalIdle()
		case id := <-m.AutoStopRequests():
			m.AutoStop(id)
			signalIdle()
		case res := <-m.Results():
			m.Complete(res)
			signalIdle()
		}
	}
}
