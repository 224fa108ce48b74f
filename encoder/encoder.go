// Package encoder renders captured samples into the container formats the
// recognition server accepts.
package encoder

import (
	"fmt"
	"math"
)

const (
	SampleRate    = 16000
	Channels      = 1
	BitsPerSample = 16
	BlockSize     = 4096 // samples per flac frame
)

type Format string

const (
	FormatWAV  Format = "wav"
	FormatFLAC Format = "flac"
)

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatWAV, FormatFLAC:
		return Format(s), nil
	}
	return "", fmt.Errorf("unknown audio format %q (want wav or flac)", s)
}

// Encode renders 16 kHz mono float32 samples into the given container,
// quantized to 16-bit PCM.
func Encode(format Format, samples []float32) ([]byte, error) {
	switch format {
	case FormatWAV:
		return EncodeWAV(samples)
	case FormatFLAC:
		return EncodeFLAC(samples)
	}
	return nil, fmt.Errorf("unknown audio format %q", format)
}

// Quantize clamps samples to [-1, 1] and converts them to 16-bit PCM.
func Quantize(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		v := float64(s)
		switch {
		case v > 1:
			v = 1
		case v < -1:
			v = -1
		}
		out[i] = int16(math.Round(v * 32767))
	}
	return out
}
