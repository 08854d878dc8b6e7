package audio

import (
	"context"
	"errors"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

func TestReadWavAsFloat64Mono(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	in := []float64{0, 0.5, -0.5, 0.25, -1}
	writeTestWav(t, path, 22050, 1, in)

	samples, rate, err := ReadWavAsFloat64(path)
	if err != nil {
		t.Fatalf("ReadWavAsFloat64 failed: %v", err)
	}
	if rate != 22050 {
		t.Errorf("Expected sample rate 22050, got %d", rate)
	}
	if len(samples) != len(in) {
		t.Fatalf("Expected %d samples, got %d", len(in), len(samples))
	}
	for i := range in {
		if math.Abs(samples[i]-in[i]) > 1e-3 {
			t.Errorf("sample %d: got %f, want %f", i, samples[i], in[i])
		}
	}
}

func TestReadWavAsFloat64Stereo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")
	// Interleaved L/R pairs.
	writeTestWav(t, path, 44100, 2, []float64{0.5, -0.5, 1, 0, 0.2, 0.4})

	samples, rate, err := ReadWavAsFloat64(path)
	if err != nil {
		t.Fatalf("ReadWavAsFloat64 failed: %v", err)
	}
	if rate != 44100 {
		t.Errorf("Expected sample rate 44100, got %d", rate)
	}

	want := []float64{0, 0.5, 0.3}
	if len(samples) != len(want) {
		t.Fatalf("Expected %d mono frames, got %d", len(want), len(samples))
	}
	for i := range want {
		if math.Abs(samples[i]-want[i]) > 1e-3 {
			t.Errorf("frame %d: got %f, want %f", i, samples[i], want[i])
		}
	}
}

func TestReadWavInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.wav")
	if err := os.WriteFile(path, []byte("INVALID HEADER DATA"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, _, err := ReadWavAsFloat64(path); err == nil {
		t.Error("ReadWavAsFloat64 should fail on invalid file")
	}
}

func TestLoaderNativeWav(t *testing.T) {
	path := filepath.Join(t.TempDir(), "native.wav")
	writeTestWav(t, path, 22050, 1, make([]float64, 1000))

	loader := NewLoader(22050, t.TempDir())
	track, err := loader.Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(track.Samples) != 1000 {
		t.Errorf("Expected 1000 samples, got %d", len(track.Samples))
	}
	if track.Converted {
		t.Error("Native-rate WAV should not go through ffmpeg")
	}
}

func TestLoaderDescribesNativeSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")
	writeTestWav(t, path, 22050, 2, make([]float64, 2*11025))

	track, err := NewLoader(22050, t.TempDir()).Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	src := track.Source
	if src.Codec != "pcm_s16le" || src.Format != "wav" || src.BitDepth != 16 {
		t.Errorf("unexpected codec description %+v", src)
	}
	if src.SampleRate != 22050 || src.Channels != 2 {
		t.Errorf("Expected 22050 Hz stereo source, got %d Hz x %d", src.SampleRate, src.Channels)
	}
	if math.Abs(src.DurationSec-0.5) > 1e-9 {
		t.Errorf("Expected 0.5s duration, got %f", src.DurationSec)
	}
	if src.Filename != "stereo.wav" {
		t.Errorf("Expected base filename, got %q", src.Filename)
	}
}

func TestLoaderUnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	if err := os.WriteFile(path, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := NewLoader(22050, "").Load(context.Background(), path)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestLoaderCorruptWavFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.wav")
	if err := os.WriteFile(path, []byte("RIFF....WAVEjunk"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewLoader(22050, t.TempDir()).Load(context.Background(), path); err == nil {
		t.Error("Expected error for corrupt WAV")
	}
}

func TestLoaderCancelledContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "native.wav")
	writeTestWav(t, path, 22050, 1, make([]float64, 10))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewLoader(22050, "").Load(ctx, path); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestLoaderResamplesThroughFFmpeg(t *testing.T) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		t.Skipf("ffmpeg not available: %v", err)
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		t.Skipf("ffprobe not available: %v", err)
	}

	path := filepath.Join(t.TempDir(), "hi-rate.wav")
	writeTestWav(t, path, 44100, 1, make([]float64, 44100))

	track, err := NewLoader(22050, t.TempDir()).Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if math.Abs(float64(len(track.Samples)-22050)) > 64 {
		t.Errorf("Expected about 22050 samples after resampling, got %d", len(track.Samples))
	}
	if !track.Converted {
		t.Error("Expected the track to be marked as converted")
	}
	// Source describes the file on disk, not the converted copy.
	if track.Source.SampleRate != 44100 || track.Source.Codec != "pcm_s16le" {
		t.Errorf("unexpected source %+v", track.Source)
	}
	if math.Abs(track.Source.DurationSec-1) > 0.01 {
		t.Errorf("Expected about 1s source duration, got %f", track.Source.DurationSec)
	}
}

func TestParseProbeNoAudio(t *testing.T) {
	out := []byte(`{"format":{"filename":"x.mp4","duration":"3.0","format_name":"mov"},"streams":[{"codec_type":"video"}]}`)

	if _, err := parseProbe("x.mp4", out); !errors.Is(err, ErrNoAudioStream) {
		t.Errorf("Expected ErrNoAudioStream, got %v", err)
	}
}

func TestParseProbeAudio(t *testing.T) {
	out := []byte(`{"format":{"filename":"a.au","duration":"30.01","format_name":"au"},
		"streams":[{"codec_type":"audio","codec_name":"pcm_s16be","sample_rate":"22050","channels":1,"bits_per_sample":16}]}`)

	meta, err := parseProbe("dir/a.au", out)
	if err != nil {
		t.Fatalf("parseProbe failed: %v", err)
	}
	if meta.SampleRate != 22050 || meta.Channels != 1 || meta.Codec != "pcm_s16be" {
		t.Errorf("unexpected metadata %+v", meta)
	}
	if meta.Filename != "a.au" {
		t.Errorf("Expected base filename, got %q", meta.Filename)
	}
}
