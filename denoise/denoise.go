// Package denoise cleans up a recorded utterance before recognition:
// peak normalization, spectral noise gating, and an 80 Hz high-pass.
package denoise

import (
	"math"
	"math/cmplx"
	"sort"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"

	"sotto/audio"
)

const (
	frameSize = 512
	hopSize   = 128

	peakTarget    = 0.95
	gateThreshold = 2.0  // multiple of the per-bin noise floor
	gateFloor     = 0.1  // gain applied to gated-out bins
	gateSkipRatio = 0.25 // floor-to-median energy above this means nothing to gate
	highpassHz    = 80.0

	minFilterLen = 16
)

// Process returns a cleaned copy of samples. The output always has the same
// length as the input and the input is never modified. Input that cannot be
// cleaned (all silence, non-finite values) comes back as an unchanged copy;
// cleaning is a quality enhancement, not a correctness requirement.
func Process(samples []float32) []float32 {
	out := make([]float32, len(samples))
	copy(out, samples)
	if len(out) == 0 {
		return out
	}

	work := make([]float64, len(out))
	peak := 0.0
	for i, s := range out {
		v := float64(s)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return out
		}
		work[i] = v
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	if peak == 0 {
		return out
	}

	scale := peakTarget / peak
	for i := range work {
		work[i] *= scale
	}

	if len(work) >= 2*frameSize {
		work = spectralGate(work)
	}
	if len(work) >= minFilterLen {
		work = highpass(work)
	}

	for i, v := range work {
		out[i] = float32(v)
	}
	return out
}

// spectralGate attenuates time-frequency bins that stay near the per-bin
// noise floor, estimated as the 20th percentile of each bin's magnitude
// across the whole utterance.
func spectralGate(signal []float64) []float64 {
	origLen := len(signal)

	padded := make([]float64, frameSize, 2*frameSize+origLen+hopSize)
	padded = append(padded, signal...)
	tail := frameSize
	if rem := (len(padded) + tail - frameSize) % hopSize; rem != 0 {
		tail += hopSize - rem
	}
	padded = append(padded, make([]float64, tail)...)

	nFrames := (len(padded)-frameSize)/hopSize + 1
	win := window.Hann(frameSize)
	half := frameSize/2 + 1

	spectra := make([][]complex128, nFrames)
	mags := make([][]float64, nFrames)
	frame := make([]float64, frameSize)
	for f := 0; f < nFrames; f++ {
		off := f * hopSize
		for i := 0; i < frameSize; i++ {
			frame[i] = padded[off+i] * win[i]
		}
		spec := fft.FFTReal(frame)
		mag := make([]float64, half)
		for b := 0; b < half; b++ {
			mag[b] = cmplx.Abs(spec[b])
		}
		spectra[f] = spec
		mags[f] = mag
	}

	floor := make([]float64, half)
	col := make([]float64, nFrames)
	var floorE, medianE float64
	for b := 0; b < half; b++ {
		for f := 0; f < nFrames; f++ {
			col[f] = mags[f][b]
		}
		sort.Float64s(col)
		floor[b] = col[nFrames/5]
		floorE += floor[b] * floor[b]
		med := col[nFrames/2]
		medianE += med * med
	}

	// Stationary input (steady tone, sustained vowel) has its floor at the
	// signal itself; gating it would just cut valid audio. Skip unless the
	// floor sits well below the typical magnitude.
	if medianE == 0 || floorE > gateSkipRatio*medianE {
		return signal
	}

	acc := make([]float64, len(padded))
	denom := make([]float64, len(padded))
	gain := make([]float64, half)
	smoothed := make([]float64, half)
	for f := 0; f < nFrames; f++ {
		for b := 0; b < half; b++ {
			if mags[f][b] > floor[b]*gateThreshold {
				gain[b] = 1
			} else {
				gain[b] = gateFloor
			}
		}
		// smear the mask across neighboring bins to avoid musical noise
		for b := 0; b < half; b++ {
			sum, n := 0.0, 0
			for k := b - 2; k <= b+2; k++ {
				if k >= 0 && k < half {
					sum += gain[k]
					n++
				}
			}
			smoothed[b] = sum / float64(n)
		}

		spec := spectra[f]
		for b := range spec {
			spec[b] *= complex(smoothed[mirrorBin(b)], 0)
		}
		res := fft.IFFT(spec)
		off := f * hopSize
		for i := 0; i < frameSize; i++ {
			acc[off+i] += real(res[i]) * win[i]
			denom[off+i] += win[i] * win[i]
		}
	}

	out := make([]float64, origLen)
	for i := range out {
		j := i + frameSize
		if denom[j] > 1e-12 {
			out[i] = acc[j] / denom[j]
		}
	}
	return out
}

// mirrorBin maps a full-spectrum bin index onto its half-spectrum gain,
// keeping the output of the inverse transform real.
func mirrorBin(b int) int {
	if b < frameSize/2+1 {
		return b
	}
	return frameSize - b
}

// highpass is a 3rd-order Butterworth high-pass at 80 Hz, run forward and
// backward for zero phase shift.
func highpass(signal []float64) []float64 {
	k := math.Tan(math.Pi * highpassHz / float64(audio.SampleRate))

	// first-order section
	n1 := 1 / (k + 1)
	b10 := n1
	b11 := -n1
	a11 := (k - 1) * n1

	// second-order section; Q of the order-3 Butterworth pole pair
	const q = 1.0
	n2 := 1 / (1 + k/q + k*k)
	b20 := n2
	b21 := -2 * n2
	b22 := n2
	a21 := 2 * (k*k - 1) * n2
	a22 := (1 - k/q + k*k) * n2

	apply := func(x []float64) []float64 {
		y := make([]float64, len(x))
		var x1, y1 float64
		for i, v := range x {
			w := b10*v + b11*x1 - a11*y1
			x1, y1 = v, w
			y[i] = w
		}
		var p1, p2, s1, s2 float64
		for i, v := range y {
			w := b20*v + b21*p1 + b22*p2 - a21*s1 - a22*s2
			p2, p1 = p1, v
			s2, s1 = s1, w
			y[i] = w
		}
		return y
	}

	y := apply(signal)
	reverse(y)
	y = apply(y)
	reverse(y)
	return y
}

func reverse(x []float64) {
	for i, j := 0, len(x)-1; i < j; i, j = i+1, j-1 {
		x[i], x[j] = x[j], x[i]
	}
}
