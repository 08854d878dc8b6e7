package genreprep

import (
	"fmt"

	"github.com/srijoni68566/Music-Genre-classification/pkg/genreprep/audio"
)

const (
	DefaultSampleRate    = audio.DefaultSampleRate
	DefaultTrackDuration = 30.0
	DefaultNumMFCC       = 13
	DefaultNFFT          = 2048
	DefaultHopLength     = 512
	DefaultNumSegments   = 5
)

type Config struct {
	SampleRate    int
	TrackDuration float64 // Seconds; fixes samples per track for every file
	NumMFCC       int
	NFFT          int
	HopLength     int
	NumSegments   int
	Workers       int
	LabelPolicy   LabelPolicy
	TempDir       string
	LedgerPath    string
	Logger        Logger
	Ledger        Ledger
	Metrics       Metrics
	Progress      func(done, total int)
}

type Option func(*Config)

func WithSampleRate(rate int) Option {
	return func(c *Config) {
		c.SampleRate = rate
	}
}

func WithTrackDuration(seconds float64) Option {
	return func(c *Config) {
		c.TrackDuration = seconds
	}
}

func WithNumMFCC(n int) Option {
	return func(c *Config) {
		c.NumMFCC = n
	}
}

func WithNFFT(n int) Option {
	return func(c *Config) {
		c.NFFT = n
	}
}

func WithHopLength(hop int) Option {
	return func(c *Config) {
		c.HopLength = hop
	}
}

func WithNumSegments(n int) Option {
	return func(c *Config) {
		c.NumSegments = n
	}
}

// WithWorkers sets how many files are decoded and featurised concurrently.
// Values below 2 run sequentially.
func WithWorkers(n int) Option {
	return func(c *Config) {
		c.Workers = n
	}
}

func WithLabelPolicy(p LabelPolicy) Option {
	return func(c *Config) {
		c.LabelPolicy = p
	}
}

func WithTempDir(dir string) Option {
	return func(c *Config) {
		c.TempDir = dir
	}
}

// WithLedgerPath opens a sqlite run ledger at path when the extractor is built.
func WithLedgerPath(path string) Option {
	return func(c *Config) {
		c.LedgerPath = path
	}
}

func WithLogger(log Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

func WithLedger(ledger Ledger) Option {
	return func(c *Config) {
		c.Ledger = ledger
	}
}

func WithMetrics(m Metrics) Option {
	return func(c *Config) {
		c.Metrics = m
	}
}

// WithProgress registers a callback invoked after each file's segments are
// appended to the dataset.
func WithProgress(fn func(done, total int)) Option {
	return func(c *Config) {
		c.Progress = fn
	}
}

func defaultConfig() *Config {
	return &Config{
		SampleRate:    DefaultSampleRate,
		TrackDuration: DefaultTrackDuration,
		NumMFCC:       DefaultNumMFCC,
		NFFT:          DefaultNFFT,
		HopLength:     DefaultHopLength,
		NumSegments:   DefaultNumSegments,
		Workers:       1,
		LabelPolicy:   GenreFolders,
		TempDir:       "",
	}
}

func (c *Config) validate() error {
	switch {
	case c.SampleRate <= 0:
		return fmt.Errorf("%w: sample rate must be positive", ErrInvalidConfig)
	case c.TrackDuration <= 0:
		return fmt.Errorf("%w: track duration must be positive", ErrInvalidConfig)
	case c.NumSegments <= 0:
		return fmt.Errorf("%w: num_segments must be positive", ErrInvalidConfig)
	case c.HopLength <= 0:
		return fmt.Errorf("%w: hop length must be positive", ErrInvalidConfig)
	case c.NFFT < 2:
		return fmt.Errorf("%w: n_fft must be at least 2", ErrInvalidConfig)
	case c.NumMFCC <= 0:
		return fmt.Errorf("%w: num_mfcc must be positive", ErrInvalidConfig)
	}
	if _, err := ParseLabelPolicy(string(c.LabelPolicy)); err != nil {
		return err
	}
	return nil
}
