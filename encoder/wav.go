package encoder

import (
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// EncodeWAV writes samples through a temporary file because the wav encoder
// needs a WriteSeeker to patch up the RIFF header on close.
func EncodeWAV(samples []float32) ([]byte, error) {
	pcm := Quantize(samples)

	f, err := os.CreateTemp("", "sotto-*.wav")
	if err != nil {
		return nil, fmt.Errorf("creating temp wav: %w", err)
	}
	defer os.Remove(f.Name())
	defer f.Close()

	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: Channels, SampleRate: SampleRate},
		Data:           make([]int, len(pcm)),
		SourceBitDepth: BitsPerSample,
	}
	for i, s := range pcm {
		buf.Data[i] = int(s)
	}

	enc := wav.NewEncoder(f, SampleRate, BitsPerSample, Channels, 1)
	if err := enc.Write(buf); err != nil {
		return nil, fmt.Errorf("writing wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("finalizing wav: %w", err)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return io.ReadAll(f)
}
