package log

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	diagLog  zerolog.Logger
	sessLog  zerolog.Logger
	diagFile *os.File
	sessFile *os.File
	sessPath string
	logMu    sync.Mutex
	logReady bool
	pid      int
	dir      string
)

// Session outcomes recorded in the per-run log.
const (
	OutcomeSuccess = "success"
	OutcomeEmpty   = "empty"
	OutcomeError   = "error"
)

// SessionRecord is one finalized recording session.
type SessionRecord struct {
	ID       string
	Duration time.Duration
	Outcome  string
	Text     string
	Detail   string
	Dropped  uint64
}

type Metrics struct {
	AudioLengthS     float64
	RawSizeKB        float64
	CompressedSizeKB float64
	CompressionPct   float64
	EncodeTimeMs     float64
	DNSTimeMs        float64
	ConnectTimeMs    float64
	TTFBMs           float64
	TotalTimeMs      float64
}

func ResolveDir(flagPath string) (string, error) {
	// Priority 1: -logpath flag
	if flagPath != "" {
		if !filepath.IsAbs(flagPath) {
			wd, err := os.Getwd()
			if err != nil {
				return "", err
			}
			return filepath.Join(wd, flagPath), nil
		}
		return flagPath, nil
	}

	// Priority 2: SOTTO_LOG_PATH environment variable
	envPath := os.Getenv("SOTTO_LOG_PATH")
	if envPath != "" {
		if !filepath.IsAbs(envPath) {
			wd, err := os.Getwd()
			if err != nil {
				return "", err
			}
			return filepath.Join(wd, envPath), nil
		}
		return envPath, nil
	}

	// Priority 3: Default OS-specific location
	return getDefaultDir()
}

func SetDir(d string) {
	dir = d
}

func Dir() string {
	return dir
}

func EnsureDir() error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	return nil
}

// Init opens the shared diagnostics file and creates the per-run session
// log, transcriber_<start timestamp>.log.
func Init() error {
	logMu.Lock()
	defer logMu.Unlock()

	if err := EnsureDir(); err != nil {
		return err
	}

	pid = os.Getpid()

	var err error

	diagPath := filepath.Join(dir, "diagnostics_log.txt")
	diagFile, err = os.OpenFile(diagPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	stamp := time.Now().Format("2006-01-02_15-04-05")
	sessPath = filepath.Join(dir, fmt.Sprintf("transcriber_%s.log", stamp))
	sessFile, err = os.OpenFile(sessPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		diagFile.Close()
		return err
	}

	diagLog = zerolog.New(zerolog.ConsoleWriter{
		Out:        diagFile,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}).With().Timestamp().Int("pid", pid).Logger()

	sessLog = zerolog.New(zerolog.ConsoleWriter{
		Out:        sessFile,
		TimeFormat: "2006-01-02 15:04:05",
		NoColor:    true,
	}).With().Timestamp().Logger()

	logReady = true
	return nil
}

func Close() {
	logMu.Lock()
	defer logMu.Unlock()
	if diagFile != nil {
		diagFile.Close()
		diagFile = nil
	}
	if sessFile != nil {
		sessFile.Close()
		sessFile = nil
	}
	logReady = false
}

// RunLogPath returns the per-run session log path, empty before Init.
func RunLogPath() string {
	logMu.Lock()
	defer logMu.Unlock()
	return sessPath
}

func Info(msg string) {
	if logReady {
		diagLog.Info().Msg(msg)
	}
}

func Error(msg string) {
	if logReady {
		diagLog.Error().Msg(msg)
	}
}

func Errorf(format string, args ...any) {
	if logReady {
		diagLog.Error().Msg(fmt.Sprintf(format, args...))
	}
}

func Warn(msg string) {
	if logReady {
		diagLog.Warn().Msg(msg)
	}
}

func Warnf(format string, args ...any) {
	if logReady {
		diagLog.Warn().Msg(fmt.Sprintf(format, args...))
	}
}

// Session appends one record to the per-run log. Discarded sessions are
// never passed here.
func Session(rec SessionRecord) {
	if !logReady {
		return
	}

	ev := sessLog.Info()
	if rec.Outcome == OutcomeError {
		ev = sessLog.Error()
	}
	ev = ev.
		Str("id", rec.ID).
		Float64("duration_s", round2(rec.Duration.Seconds())).
		Str("outcome", rec.Outcome)
	if rec.Dropped > 0 {
		ev = ev.Uint64("dropped_frames", rec.Dropped)
	}
	switch rec.Outcome {
	case OutcomeError:
		ev.Str("error", rec.Detail).Msg("session")
	case OutcomeEmpty:
		ev.Msg("session")
	default:
		ev.Str("text", rec.Text).Msg("session")
	}
}

func TranscriptionMetrics(m Metrics, format string, connReused bool) {
	if !logReady {
		return
	}

	connStatus := "new"
	if connReused {
		connStatus = "reused"
	}

	diagLog.Info().
		Str("format", format).
		Str("conn", connStatus).
		Float64("audio_s", m.AudioLengthS).
		Float64("raw_kb", m.RawSizeKB).
		Float64("compressed_kb", m.CompressedSizeKB).
		Float64("compression_pct", m.CompressionPct).
		Float64("encode_ms", m.EncodeTimeMs).
		Float64("dns_ms", m.DNSTimeMs).
		Float64("connect_ms", m.ConnectTimeMs).
		Float64("ttfb_ms", m.TTFBMs).
		Float64("total_ms", m.TotalTimeMs).
		Msg("transcription")
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
