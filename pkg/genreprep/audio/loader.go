package audio

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/srijoni68566/Music-Genre-classification/pkg/utils"
)

const DefaultSampleRate = 22050

// ErrUnsupportedFormat is returned for files without a recognised audio extension.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Loader decodes audio files to mono float64 samples at a fixed sample rate.
// WAV and MP3 at the target rate are decoded in-process; everything else is
// resampled through ffmpeg first.
type Loader struct {
	sampleRate int
	tempDir    string
}

func NewLoader(sampleRate int, tempDir string) *Loader {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &Loader{sampleRate: sampleRate, tempDir: tempDir}
}

func (l *Loader) SampleRate() int { return l.sampleRate }

// Track is a decoded waveform plus the properties of the file it came from.
type Track struct {
	Samples   []float64 // Mono, at the loader's sample rate
	Source    Metadata
	Converted bool // Decoded from an ffmpeg conversion
}

// Load returns the mono waveform of path at the loader's sample rate.
func (l *Loader) Load(ctx context.Context, path string) (*Track, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !utils.IsAudioFile(path) {
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}

	var (
		samples []float64
		meta    *Metadata
		err     error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		samples, meta, err = readWav(path)
	case ".mp3":
		samples, meta, err = readMP3(path)
	default:
		err = errNeedsConversion
	}

	if err == nil && meta.SampleRate == l.sampleRate {
		return &Track{Samples: samples, Source: *meta}, nil
	}
	if err != nil && !errors.Is(err, errNeedsConversion) {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return l.loadConverted(ctx, path)
}

func (l *Loader) loadConverted(ctx context.Context, path string) (*Track, error) {
	meta, err := ReadMetadataFFmpeg(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	if err := utils.MakeDir(l.tempDir); err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}
	workDir, err := os.MkdirTemp(l.tempDir, "genreprep-*")
	if err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	wavPath, err := ConvertToMonoWAV(ctx, path, workDir, ConvertWAVConfig{SampleRate: l.sampleRate})
	if err != nil {
		return nil, fmt.Errorf("converting %s: %w", path, err)
	}

	samples, rate, err := ReadWavAsFloat64(wavPath)
	if err != nil {
		return nil, fmt.Errorf("loading converted %s: %w", path, err)
	}
	if rate != l.sampleRate {
		return nil, fmt.Errorf("%s: converted to %d Hz, want %d", path, rate, l.sampleRate)
	}
	if meta.DurationSec <= 0 {
		meta.DurationSec = durationOf(len(samples), l.sampleRate)
	}
	return &Track{Samples: samples, Source: *meta, Converted: true}, nil
}
