//go:build darwin

package beep

import (
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"
)

// One persistent playback device; cues swap the active buffer in and
// the data callback drains it. The callback reads only atomics.
var (
	malgoCtx *malgo.AllocatedContext
	device   *malgo.Device
	initOnce sync.Once

	active  atomic.Pointer[[]byte]
	playPos atomic.Uint32
	playMu  sync.Mutex
)

func initPlayback() {
	initOnce.Do(func() {
		var err error
		malgoCtx, err = malgo.InitContext(nil, malgo.ContextConfig{}, nil)
		if err != nil {
			return
		}
		config := malgo.DefaultDeviceConfig(malgo.Playback)
		config.Playback.Format = malgo.FormatS16
		config.Playback.Channels = 1
		config.SampleRate = sampleRate

		device, err = malgo.InitDevice(malgoCtx.Context, config, malgo.DeviceCallbacks{
			Data: feedPlayback,
		})
		if err != nil {
			malgoCtx.Uninit()
			malgoCtx = nil
		}
	})
}

func feedPlayback(pOutput, _ []byte, frameCount uint32) {
	zero := func(from uint32) {
		for i := from; i < frameCount*2; i++ {
			pOutput[i] = 0
		}
	}
	buf := active.Load()
	if buf == nil {
		zero(0)
		return
	}
	pos := playPos.Load()
	total := uint32(len(*buf))
	if pos >= total {
		active.Store(nil)
		zero(0)
		return
	}
	n := frameCount * 2
	if n > total-pos {
		n = total - pos
	}
	copy(pOutput[:n], (*buf)[pos:pos+n])
	playPos.Store(pos + n)
	zero(n)
}

func play(samples []int16) {
	initPlayback()
	if device == nil || len(samples) == 0 {
		return
	}
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		buf[i*2] = byte(s)
		buf[i*2+1] = byte(s >> 8)
	}

	playMu.Lock()
	defer playMu.Unlock()
	device.Stop() // clean state; no-op when idle
	playPos.Store(0)
	active.Store(&buf)
	device.Start()
}
