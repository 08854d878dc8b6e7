package features

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Slaney mel scale: linear below 1 kHz, logarithmic above.
const (
	melFSp      = 200.0 / 3
	melMinLogHz = 1000.0
	melMinLog   = melMinLogHz / melFSp
)

var melLogStep = math.Log(6.4) / 27.0

// HzToMel converts a frequency in Hz to the Slaney mel scale.
func HzToMel(hz float64) float64 {
	if hz >= melMinLogHz {
		return melMinLog + math.Log(hz/melMinLogHz)/melLogStep
	}
	return hz / melFSp
}

// MelToHz is the inverse of HzToMel.
func MelToHz(mel float64) float64 {
	if mel >= melMinLog {
		return melMinLogHz * math.Exp(melLogStep*(mel-melMinLog))
	}
	return melFSp * mel
}

// MelFrequencies returns n frequencies (Hz) evenly spaced on the mel scale
// between fmin and fmax inclusive.
func MelFrequencies(n int, fmin, fmax float64) []float64 {
	mels := make([]float64, n)
	floats.Span(mels, HzToMel(fmin), HzToMel(fmax))
	for i, m := range mels {
		mels[i] = MelToHz(m)
	}
	return mels
}

// FFTFrequencies returns the centre frequency of each of the 1+nfft/2 bins.
func FFTFrequencies(sampleRate, nfft int) []float64 {
	freqs := make([]float64, nfft/2+1)
	for k := range freqs {
		freqs[k] = float64(k) * float64(sampleRate) / float64(nfft)
	}
	return freqs
}

// MelFilterbank builds an nMels x (1+nfft/2) matrix of triangular filters
// with Slaney area normalisation.
func MelFilterbank(sampleRate, nfft, nMels int, fmin, fmax float64) *mat.Dense {
	fftFreqs := FFTFrequencies(sampleRate, nfft)
	melF := MelFrequencies(nMels+2, fmin, fmax)

	fdiff := make([]float64, len(melF)-1)
	for i := range fdiff {
		fdiff[i] = melF[i+1] - melF[i]
	}

	bins := len(fftFreqs)
	weights := mat.NewDense(nMels, bins, nil)
	for i := 0; i < nMels; i++ {
		enorm := 2.0 / (melF[i+2] - melF[i])
		row := weights.RawRowView(i)
		for k, f := range fftFreqs {
			lower := (f - melF[i]) / fdiff[i]
			upper := (melF[i+2] - f) / fdiff[i+1]
			row[k] = math.Max(0, math.Min(lower, upper)) * enorm
		}
	}
	return weights
}
