package main

import (
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"sotto/audio"
	"sotto/doctor"
	"sotto/engine"
	"sotto/hotkey"
	"sotto/log"
	"sotto/shutdown"
	"sotto/typist"
)

var version = "dev"

var shutdownOnce sync.Once

// gracefulShutdown runs the exit path exactly once, whichever trigger
// fires first: a signal, ctrl+c in the TUI, or stdin closing.
func gracefulShutdown(p *tea.Program) {
	shutdownOnce.Do(func() {
		log.Close()
		if p != nil {
			p.Quit()
		}
		os.Exit(0)
	})
}

func deviceLineText(dev *audio.DeviceInfo) string {
	name := "system default"
	suffix := ""
	if dev != nil {
		name = dev.Name
		if audio.IsBluetooth(dev.Name) {
			suffix = " (bluetooth)"
		}
	}
	return "mic: " + name + suffix
}

func modeLineText(cfg Config) string {
	mode := "hold"
	if cfg.Toggle {
		mode = "toggle"
	}
	return fmt.Sprintf("[%s | %s | %s | %s]", cfg.Model, cfg.Format, mode, engine.ResolveURL(cfg.ServerURL))
}

func run() {
	fv := defaultFlagValues()
	flag.StringVar(&fv.model, "model", fv.model, "Whisper model to request (tiny, base, small, medium, large; .en variants)")
	flag.Float64Var(&fv.minDuration, "min-duration", fv.minDuration, "Discard sessions shorter than this many seconds")
	flag.DurationVar(&fv.maxDuration, "max-duration", fv.maxDuration, "Hard cap on one recording; audio past it is dropped")
	flag.StringVar(&fv.key, "key", fv.key, "Trigger combo, e.g. ctrl+shift+space or alt+f9")
	flag.BoolVar(&fv.toggle, "toggle", fv.toggle, "Tap to start and tap to stop instead of push-to-talk")
	flag.BoolVar(&fv.autotype, "autotype", fv.autotype, "Type transcripts into the focused window")
	flag.StringVar(&fv.server, "server", fv.server, "whisper server inference URL (default: $SOTTO_SERVER_URL, then "+engine.DefaultServerURL+")")
	flag.StringVar(&fv.format, "format", fv.format, "Upload encoding: wav or flac")
	flag.DurationVar(&fv.engineTimeout, "engine-timeout", fv.engineTimeout, "Abort transcription after this long (0 = wait forever)")

	logPathFlag := flag.String("logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	deviceFlag := flag.String("device", "", "Use named microphone device")
	setupFlag := flag.Bool("setup", false, "Select microphone device (otherwise uses system default)")
	tuiFlag := flag.Bool("tui", term.IsTerminal(int(os.Stdout.Fd())), "Run with terminal UI")
	testFlag := flag.Bool("test", false, "Test mode (headless, stdin-driven; takes a WAV file argument)")
	doctorFlag := flag.Bool("doctor", false, "Run system diagnostics and exit")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	profileFlag := flag.String("profile", "", "Enable pprof profiling server (e.g., :6060 or localhost:6060)")
	crashFlag := flag.Bool("crash", false, "Trigger synthetic panic for testing crash logging")
	flag.Parse()

	logPath, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)
	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}

	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
		debug.SetCrashOutput(crashFile, debug.CrashOptions{})
	}

	if *profileFlag != "" {
		go func() {
			fmt.Fprintf(os.Stderr, "pprof server listening on http://%s/debug/pprof/\n", *profileFlag)
			if err := http.ListenAndServe(*profileFlag, nil); err != nil {
				fmt.Fprintf(os.Stderr, "pprof server error: %v\n", err)
			}
		}()
	}

	if *crashFlag {
		panic("TEST CRASH: synthetic panic to verify crash logging")
	}

	if *versionFlag {
		fmt.Printf("sotto %s\n", version)
		os.Exit(0)
	}

	cfg, err := buildConfig(fv)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *doctorFlag {
		os.Exit(doctor.Run(cfg.Trigger, engine.ResolveURL(cfg.ServerURL), cfg.Model))
	}

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}
	defer log.Close()

	if *testFlag {
		args := flag.Args()
		if len(args) == 0 {
			fmt.Fprintln(os.Stderr, "Usage: sotto -test <wav-file>")
			os.Exit(1)
		}
		runTestMode(cfg, args[0])
		return
	}

	actx, err := audio.NewContext()
	if err != nil {
		log.Errorf("audio context init error: %v", err)
		fmt.Fprintf(os.Stderr, "Error initializing audio context: %v\n", err)
		os.Exit(1)
	}
	defer actx.Close()

	// Device selection happens before the TUI takes over the terminal.
	var selectedDevice *audio.DeviceInfo
	if *deviceFlag != "" {
		if devices, err := actx.Devices(); err == nil {
			for i := range devices {
				if devices[i].Name == *deviceFlag {
					selectedDevice = &devices[i]
					break
				}
			}
		}
		if selectedDevice == nil {
			fmt.Fprintf(os.Stderr, "Warning: device %q not found, using system default\n", *deviceFlag)
		}
	} else if *setupFlag {
		selectedDevice, err = audio.SelectDevice(actx)
		if err != nil {
			log.Warnf("device selection failed: %v", err)
			fmt.Fprintf(os.Stderr, "Warning: device selection failed: %v\n", err)
			selectedDevice = nil
		}
	}

	capture, err := actx.NewCapture(selectedDevice, audio.CaptureConfig{
		SampleRate: audio.SampleRate,
		Channels:   audio.Channels,
	})
	if err != nil {
		log.Errorf("capture device init error: %v", err)
		fmt.Fprintf(os.Stderr, "Error initializing capture device: %v\n", err)
		os.Exit(1)
	}
	defer capture.Close()

	hk := hotkey.New(cfg.Trigger)
	if err := hk.Register(); err != nil {
		log.Errorf("hotkey register error: %v", err)
		fmt.Fprintf(os.Stderr, "Error registering hotkey %s: %v\n", cfg.Trigger, err)
		os.Exit(1)
	}
	defer hk.Unregister()

	var events EventSink = nopSink{}
	var program *tea.Program
	if *tuiFlag {
		program = NewTUIProgram(cfg)
		events = tuiSink{p: program}
		go func() {
			if _, err := program.Run(); err != nil {
				log.Errorf("TUI error: %v", err)
				os.Exit(1)
			}
			gracefulShutdown(program)
		}()
		program.Send(ModeLineMsg{Text: modeLineText(cfg)})
		program.Send(DeviceLineMsg{Text: deviceLineText(selectedDevice)})
	}

	ty := typist.New()
	eng := engine.New(cfg.ServerURL, cfg.Format)
	sink := NewOutputSink(ty, cfg.AutoType)
	m := NewMachine(cfg, capture, hk, eng, sink, events)

	sig := shutdown.Listen()
	go func() {
		<-sig
		gracefulShutdown(program)
	}()

	log.Info("ready: trigger " + cfg.Trigger.String() + ", mode " + modeLineText(cfg))

	for {
		select {
		case <-hk.Keydown():
			m.TriggerDown()
		case <-hk.Keyup():
			m.TriggerUp()
		case <-hk.Cancel():
			m.Cancel()
		case id := <-m.AutoStopRequests():
			m.AutoStop(id)
		case res := <-m.Results():
			m.Complete(res)
		}
	}
}
