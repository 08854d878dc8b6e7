package features

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	DefaultNumMels = 128
	AMin           = 1e-10
	TopDB          = 80.0
)

// PowerToDB converts a power matrix to decibels in place: 10*log10(max(amin, S)),
// then floors every value at (max - topDB). A non-positive topDB disables the floor.
func PowerToDB(s *mat.Dense, amin, topDB float64) {
	r, c := s.Dims()
	peak := math.Inf(-1)
	for i := 0; i < r; i++ {
		row := s.RawRowView(i)
		for j := 0; j < c; j++ {
			row[j] = 10 * math.Log10(math.Max(amin, row[j]))
			if row[j] > peak {
				peak = row[j]
			}
		}
	}
	if topDB <= 0 {
		return
	}
	floor := peak - topDB
	s.Apply(func(_, _ int, v float64) float64 {
		return math.Max(v, floor)
	}, s)
}

// DCTMatrix returns the first n rows of the orthonormal DCT-II basis of size size,
// so that y = D x transforms a length-size vector.
func DCTMatrix(n, size int) *mat.Dense {
	d := mat.NewDense(n, size, nil)
	scale := math.Sqrt(2 / float64(size))
	for k := 0; k < n; k++ {
		row := d.RawRowView(k)
		s := scale
		if k == 0 {
			s = scale / math.Sqrt2
		}
		for i := 0; i < size; i++ {
			row[i] = s * math.Cos(math.Pi*float64(k)*float64(2*i+1)/float64(2*size))
		}
	}
	return d
}

// Params configures MFCC computation.
type Params struct {
	SampleRate int
	NumMFCC    int
	NFFT       int
	HopLength  int
	NumMels    int // DefaultNumMels when zero
}

func (p Params) Validate() error {
	switch {
	case p.SampleRate <= 0:
		return fmt.Errorf("sample rate must be positive, got %d", p.SampleRate)
	case p.NFFT < 2:
		return fmt.Errorf("n_fft must be at least 2, got %d", p.NFFT)
	case p.HopLength <= 0:
		return fmt.Errorf("hop length must be positive, got %d", p.HopLength)
	case p.NumMels < 1:
		return fmt.Errorf("number of mel bands must be positive, got %d", p.NumMels)
	case p.NumMFCC < 1 || p.NumMFCC > p.NumMels:
		return fmt.Errorf("num_mfcc must be in [1, %d], got %d", p.NumMels, p.NumMFCC)
	}
	return nil
}

// MFCC holds the precomputed window, mel basis and DCT basis for one set of
// parameters. It is read-only after construction and safe for concurrent use.
type MFCC struct {
	params   Params
	window   []float64
	melBasis *mat.Dense // NumMels x bins
	dct      *mat.Dense // NumMFCC x NumMels
}

// NewMFCC validates p and precomputes the transform matrices.
func NewMFCC(p Params) (*MFCC, error) {
	if p.NumMels == 0 {
		p.NumMels = DefaultNumMels
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &MFCC{
		params:   p,
		window:   HannPeriodic(p.NFFT),
		melBasis: MelFilterbank(p.SampleRate, p.NFFT, p.NumMels, 0, float64(p.SampleRate)/2),
		dct:      DCTMatrix(p.NumMFCC, p.NumMels),
	}, nil
}

func (m *MFCC) Params() Params { return m.params }

// Compute returns the MFCC matrix of samples with one row per STFT frame and
// NumMFCC columns.
func (m *MFCC) Compute(samples []float64) ([][]float64, error) {
	if len(samples) == 0 {
		return nil, errors.New("empty segment")
	}

	power, err := PowerSpectrogram(samples, m.window, m.params.NFFT, m.params.HopLength)
	if err != nil {
		return nil, err
	}

	frames, _ := power.Dims()
	var melS mat.Dense
	melS.Mul(power, m.melBasis.T())
	PowerToDB(&melS, AMin, TopDB)

	coeffs := mat.NewDense(frames, m.params.NumMFCC, nil)
	coeffs.Mul(&melS, m.dct.T())

	out := make([][]float64, frames)
	for i := range out {
		out[i] = mat.Row(nil, i, coeffs)
	}
	return out, nil
}
