package audio

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-audio/wav"
)

// FakeContext feeds pre-recorded samples through the CaptureDevice
// interface for tests and scripted runs.
type FakeContext struct {
	samples  []float32
	realtime bool
}

// NewFakeContext loads a WAV file as the capture source. Fixtures are
// expected to be 16 kHz; multi-channel files are reduced to channel 0.
func NewFakeContext(wavPath string, realtime bool) (*FakeContext, error) {
	samples, err := loadWAV(wavPath)
	if err != nil {
		return nil, err
	}
	return &FakeContext{samples: samples, realtime: realtime}, nil
}

// NewFakeContextFromSamples skips file loading for tests that synthesize
// their input.
func NewFakeContextFromSamples(samples []float32, realtime bool) *FakeContext {
	return &FakeContext{samples: samples, realtime: realtime}
}

func loadWAV(path string) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	if buf == nil || len(buf.Data) == 0 {
		return nil, fmt.Errorf("no audio data in %s", path)
	}

	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}
	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = int(dec.BitDepth)
	}
	scale := float32(int64(1) << (bitDepth - 1))

	samples := make([]float32, 0, len(buf.Data)/channels)
	for i := 0; i < len(buf.Data); i += channels {
		samples = append(samples, float32(buf.Data[i])/scale)
	}
	return samples, nil
}

func (f *FakeContext) Devices() ([]DeviceInfo, error) { return nil, nil }
func (f *FakeContext) Close()                         {}

func (f *FakeContext) NewCapture(_ *DeviceInfo, _ CaptureConfig) (CaptureDevice, error) {
	return &FakeCapture{samples: f.samples, realtime: f.realtime, audioDone: make(chan struct{})}, nil
}

type FakeCapture struct {
	samples   []float32
	realtime  bool
	audioDone chan struct{}

	mu       sync.Mutex
	cb       DataCallback
	stopCh   chan struct{}
	feedDone chan struct{}
}

// AudioDone is closed once the pre-recorded samples are exhausted and the
// capture has switched to feeding silence.
func (f *FakeCapture) AudioDone() <-chan struct{} { return f.audioDone }

func (f *FakeCapture) SetCallback(cb DataCallback) {
	f.mu.Lock()
	f.cb = cb
	f.mu.Unlock()
}

func (f *FakeCapture) ClearCallback() {
	f.mu.Lock()
	f.cb = nil
	f.mu.Unlock()
}

func (f *FakeCapture) DeviceName() string { return "fake" }

func (f *FakeCapture) feedChunk(cb DataCallback, pos int) int {
	end := min(pos+BlockSize, len(f.samples))
	chunk := make([]float32, end-pos)
	copy(chunk, f.samples[pos:end])
	cb(chunk)
	return end
}

func (f *FakeCapture) Start() error {
	f.stopCh = make(chan struct{})
	f.feedDone = make(chan struct{})
	// audioDone is NOT recreated here -- callers may already be waiting on it.
	// It's reset in Stop() for replay.

	if !f.realtime {
		f.mu.Lock()
		cb := f.cb
		f.mu.Unlock()
		if cb != nil {
			for pos := 0; pos < len(f.samples); {
				pos = f.feedChunk(cb, pos)
			}
		}
		close(f.audioDone)

		go func() {
			defer close(f.feedDone)
			silence := make([]float32, BlockSize)
			for {
				select {
				case <-f.stopCh:
					return
				case <-time.After(time.Millisecond):
				}
				f.mu.Lock()
				cb := f.cb
				f.mu.Unlock()
				if cb != nil {
					cb(silence)
				}
			}
		}()
	} else {
		interval := time.Duration(BlockSize) * time.Second / time.Duration(SampleRate)
		go func() {
			defer close(f.feedDone)
			pos := 0
			silence := make([]float32, BlockSize)
			audioFinished := false

			for {
				select {
				case <-f.stopCh:
					return
				default:
				}

				f.mu.Lock()
				cb := f.cb
				f.mu.Unlock()
				if cb == nil {
					time.Sleep(time.Millisecond)
					continue
				}

				if pos < len(f.samples) {
					pos = f.feedChunk(cb, pos)
				} else {
					if !audioFinished {
						audioFinished = true
						close(f.audioDone)
					}
					cb(silence)
				}

				select {
				case <-f.stopCh:
					return
				case <-time.After(interval):
				}
			}
		}()
	}

	return nil
}

func (f *FakeCapture) Stop() {
	select {
	case <-f.stopCh:
	default:
		close(f.stopCh)
	}
	if f.feedDone != nil {
		<-f.feedDone
	}
	f.audioDone = make(chan struct{}) // reset for replay
}

func (f *FakeCapture) Close() {}
