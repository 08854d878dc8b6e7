package features

import (
	"errors"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
	"gonum.org/v1/gonum/mat"
)

// HannPeriodic returns the periodic (DFT-even) Hann window of length n.
func HannPeriodic(n int) []float64 {
	if n <= 1 {
		return []float64{1}
	}
	return window.Hann(n + 1)[:n]
}

// FrameCount is the number of frames a centred STFT produces for a signal of
// the given length: the signal is padded by nfft/2 on both sides and framed
// every hop samples.
func FrameCount(length, nfft, hop int) int {
	if length <= 0 || nfft <= 0 || hop <= 0 {
		return 0
	}
	padded := length + 2*(nfft/2)
	return 1 + (padded-nfft)/hop
}

// reflectIndex maps i, which may fall outside [0, n), back into range by
// mirroring around the first and last sample (edge samples are not repeated).
func reflectIndex(i, n int) int {
	if n == 1 {
		return 0
	}
	period := 2 * (n - 1)
	i %= period
	if i < 0 {
		i += period
	}
	if i >= n {
		i = period - i
	}
	return i
}

// PowerSpectrogram computes |STFT|^2 of samples using a centred, reflect-padded
// framing. The result has one row per frame and 1+nfft/2 columns.
func PowerSpectrogram(samples []float64, win []float64, nfft, hop int) (*mat.Dense, error) {
	if len(samples) == 0 {
		return nil, errors.New("empty signal")
	}
	if len(win) != nfft {
		return nil, errors.New("window length must equal nfft")
	}
	if hop <= 0 {
		return nil, errors.New("hop length must be positive")
	}

	n := len(samples)
	pad := nfft / 2
	frames := FrameCount(n, nfft, hop)
	bins := nfft/2 + 1

	out := mat.NewDense(frames, bins, nil)
	frame := make([]float64, nfft)
	for f := 0; f < frames; f++ {
		start := f*hop - pad
		for i := 0; i < nfft; i++ {
			frame[i] = samples[reflectIndex(start+i, n)] * win[i]
		}
		spec := fft.FFTReal(frame)
		row := out.RawRowView(f)
		for k := 0; k < bins; k++ {
			re, im := real(spec[k]), imag(spec[k])
			row[k] = re*re + im*im
		}
	}
	return out, nil
}
