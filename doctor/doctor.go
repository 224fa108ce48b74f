// Package doctor walks through interactive checks of everything the tool
// needs from the host: the trigger key, the microphone, the whisper
// server and keystroke injection.
package doctor

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"sotto/audio"
	"sotto/encoder"
	"sotto/engine"
	"sotto/hotkey"
	"sotto/shutdown"
	"sotto/typist"
)

// Run executes the checks and returns an exit code (0=all pass, 1=any fail).
func Run(trigger hotkey.Combo, serverURL, model string) int {
	resetTerminal()
	interruptHandler()

	fmt.Println("sotto doctor - interactive system diagnostics")
	fmt.Println("=============================================")

	allPass := true
	if !checkTrigger(trigger) {
		allPass = false
	}
	if allPass && !checkMicAndEngine(serverURL, model) {
		allPass = false
	}
	if allPass && !checkTypist() {
		allPass = false
	}

	fmt.Println()
	if allPass {
		fmt.Println("All checks passed!")
		return 0
	}
	fmt.Println("Some checks failed. See details above.")
	return 1
}

func interruptHandler() {
	sig := shutdown.Listen()
	go func() {
		<-sig
		println("\nInterrupted")
		os.Exit(1)
	}()
}

func checkTrigger(trigger hotkey.Combo) bool {
	fmt.Println()
	fmt.Println("[1/3] Trigger key")

	info, err := hotkey.Diagnose(trigger)
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		return false
	}
	if info != "" {
		fmt.Printf("  %s\n", info)
	}

	fmt.Printf("Press %s...\n", trigger)
	hk := hotkey.New(trigger)
	if err := hk.Register(); err != nil {
		fmt.Printf("  FAIL: could not register trigger: %v\n", err)
		return false
	}
	defer hk.Unregister()

	select {
	case <-hk.Keydown():
		fmt.Println("  PASS: trigger detected")
		// Wait for the release so it does not leak into the next step.
		select {
		case <-hk.Keyup():
		case <-time.After(5 * time.Second):
		}
		resetTerminal()
		return true
	case <-time.After(10 * time.Second):
		fmt.Println("  FAIL: timeout waiting for trigger")
		return false
	}
}

func checkMicAndEngine(serverURL, model string) bool {
	fmt.Println()
	fmt.Println("[2/3] Microphone and transcription")

	reader := bufio.NewReader(os.Stdin)

	actx, err := audio.NewContext()
	if err != nil {
		fmt.Printf("  FAIL: cannot connect to audio: %v\n", err)
		return false
	}
	defer actx.Close()

	devices, err := actx.Devices()
	if err != nil {
		fmt.Printf("  FAIL: cannot list devices: %v\n", err)
		return false
	}
	if len(devices) == 0 {
		fmt.Println("  FAIL: no capture devices found")
		return false
	}

	var device *audio.DeviceInfo
	if len(devices) == 1 {
		device = &devices[0]
		fmt.Printf("Using device: %s\n", device.Name)
	} else {
		fmt.Println()
		fmt.Println("Select input device:")
		for i, d := range devices {
			fmt.Printf("  %d. %s\n", i+1, d.Name)
		}
		fmt.Printf("Choice [1-%d]: ", len(devices))

		devChoice, _ := reader.ReadString('\n')
		devChoice = strings.TrimSpace(devChoice)
		idx := 0
		if devChoice != "" {
			fmt.Sscanf(devChoice, "%d", &idx)
			idx--
		}
		if idx < 0 || idx >= len(devices) {
			fmt.Println("  FAIL: invalid choice")
			return false
		}
		device = &devices[idx]
		fmt.Printf("Selected: %s\n", device.Name)
	}

	fmt.Println()
	fmt.Print("Press Enter and speak for 3 seconds...")
	reader.ReadString('\n')

	samples, err := recordSamples(actx, device, 3*time.Second)
	if err != nil {
		fmt.Printf("  FAIL: recording error: %v\n", err)
		return false
	}
	if len(samples) == 0 {
		fmt.Println("  FAIL: no audio captured")
		return false
	}

	var peak float32
	for _, s := range samples {
		if s > peak {
			peak = s
		}
		if -s > peak {
			peak = -s
		}
	}
	fmt.Printf("  Recorded %.1fs (peak level %.3f), transcribing...\n",
		float64(len(samples))/float64(audio.SampleRate), peak)
	if peak < 0.001 {
		fmt.Println("  FAIL: captured only silence; check the microphone")
		return false
	}

	eng := engine.NewServer(serverURL, encoder.FormatWAV)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	text, err := eng.Transcribe(ctx, samples, audio.SampleRate, model)
	if err != nil {
		fmt.Printf("  FAIL: transcription error: %v\n", err)
		fmt.Printf("  Is a whisper server running at %s?\n", serverURL)
		return false
	}
	if strings.TrimSpace(text) == "" {
		text = "(no speech detected)"
	}
	fmt.Printf("\n  Transcribed text: %s\n\n", text)

	// Fresh reader to clear any buffered input
	confirmReader := bufio.NewReader(os.Stdin)
	fmt.Print("Is this correct? [y/n]: ")
	confirm, _ := confirmReader.ReadString('\n')
	confirm = strings.TrimSpace(strings.ToLower(confirm))
	if confirm == "y" || confirm == "yes" {
		fmt.Println("  PASS: transcription verified by user")
		return true
	}
	fmt.Println("  FAIL: transcription not confirmed")
	return false
}

func recordSamples(actx audio.Context, device *audio.DeviceInfo, d time.Duration) ([]float32, error) {
	capture, err := actx.NewCapture(device, audio.CaptureConfig{
		SampleRate: audio.SampleRate,
		Channels:   audio.Channels,
	})
	if err != nil {
		return nil, err
	}
	defer capture.Close()

	var mu sync.Mutex
	var buf []float32
	capture.SetCallback(func(samples []float32) {
		mu.Lock()
		buf = append(buf, samples...)
		mu.Unlock()
	})

	if err := capture.Start(); err != nil {
		capture.ClearCallback()
		return nil, err
	}

	fmt.Print("  Recording")
	ticker := time.NewTicker(500 * time.Millisecond)
	deadline := time.After(d)
loop:
	for {
		select {
		case <-deadline:
			break loop
		case <-ticker.C:
			fmt.Print(".")
		}
	}
	ticker.Stop()

	capture.Stop()
	capture.ClearCallback()
	fmt.Println(" done")

	mu.Lock()
	out := buf
	mu.Unlock()
	return out, nil
}

func checkTypist() bool {
	fmt.Println()
	fmt.Println("[3/3] Keystroke output")

	info, err := typist.Diagnose()
	if err != nil {
		fmt.Printf("  FAIL: %v\n", err)
		fmt.Println("  On linux: sudo chmod 660 /dev/uinput && sudo chgrp input /dev/uinput")
		return false
	}
	fmt.Printf("  %s\n", info)

	ty := typist.New()

	fmt.Println("Focus on a text editor window...")
	for i := 5; i > 0; i-- {
		fmt.Printf("  %d...\n", i)
		time.Sleep(1 * time.Second)
	}

	if err := ty.Type("sotto doctor test"); err != nil {
		fmt.Printf("  FAIL: typing failed: %v\n", err)
		return false
	}

	resetTerminal()
	confirmReader := bufio.NewReader(os.Stdin)
	fmt.Println()
	fmt.Print("Did the text \"sotto doctor test\" appear? [y/n]: ")
	confirm, _ := confirmReader.ReadString('\n')
	confirm = strings.TrimSpace(strings.ToLower(confirm))
	if confirm != "y" && confirm != "yes" {
		fmt.Println("  FAIL: keystroke output not confirmed")
		return false
	}
	fmt.Println("  PASS: keystroke output verified by user")
	return true
}
