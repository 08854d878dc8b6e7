package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
)

const wavFormatPCM = 1

// errNeedsConversion marks a file that decoded headers fine but cannot be
// read natively (float or compressed WAV payloads).
var errNeedsConversion = errors.New("needs ffmpeg conversion")

// ReadWavAsFloat64 decodes a PCM WAV file into mono samples in [-1, 1) and
// returns them with the file's sample rate.
func ReadWavAsFloat64(path string) ([]float64, int, error) {
	samples, meta, err := readWav(path)
	if err != nil {
		return nil, 0, err
	}
	return samples, meta.SampleRate, nil
}

func readWav(path string) ([]float64, *Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, nil, fmt.Errorf("%s: not a valid WAV file", path)
	}
	if dec.WavAudioFormat != wavFormatPCM {
		return nil, nil, fmt.Errorf("%s: WAV format %d: %w", path, dec.WavAudioFormat, errNeedsConversion)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, nil, fmt.Errorf("%s: reading PCM data: %w", path, err)
	}
	if buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, nil, fmt.Errorf("%s: missing channel information", path)
	}

	samples := intBufferToMono(buf)
	meta := &Metadata{
		Filename:    filepath.Base(path),
		DurationSec: durationOf(len(samples), buf.Format.SampleRate),
		SampleRate:  buf.Format.SampleRate,
		Channels:    buf.Format.NumChannels,
		BitDepth:    buf.SourceBitDepth,
		Format:      "wav",
		Codec:       pcmCodecName(buf.SourceBitDepth),
	}
	return samples, meta, nil
}

// pcmCodecName follows ffprobe's naming for little-endian WAV payloads.
func pcmCodecName(bitDepth int) string {
	if bitDepth == 8 {
		return "pcm_u8"
	}
	return fmt.Sprintf("pcm_s%dle", bitDepth)
}

func durationOf(samples, sampleRate int) float64 {
	if sampleRate <= 0 {
		return 0
	}
	return float64(samples) / float64(sampleRate)
}

// intBufferToMono scales integer PCM to [-1, 1) and averages interleaved
// channels.
func intBufferToMono(buf *goaudio.IntBuffer) []float64 {
	channels := buf.Format.NumChannels
	bitDepth := buf.SourceBitDepth
	if bitDepth <= 0 {
		bitDepth = 16
	}
	scale := 1.0 / float64(int64(1)<<(bitDepth-1))
	// 8-bit WAV samples are unsigned.
	offset := 0
	if bitDepth == 8 {
		offset = 128
	}

	frames := len(buf.Data) / channels
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		sum := 0.0
		for c := 0; c < channels; c++ {
			sum += float64(buf.Data[i*channels+c]-offset) * scale
		}
		out[i] = sum / float64(channels)
	}
	return out
}

// ReadMP3AsFloat64 decodes an MP3 file into mono samples. The decoder always
// yields 16-bit little-endian stereo.
func ReadMP3AsFloat64(path string) ([]float64, int, error) {
	samples, meta, err := readMP3(path)
	if err != nil {
		return nil, 0, err
	}
	return samples, meta.SampleRate, nil
}

func readMP3(path string) ([]float64, *Metadata, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: decoding mp3: %w", path, err)
	}

	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: reading mp3 frames: %w", path, err)
	}

	const bytesPerFrame = 4
	frames := len(raw) / bytesPerFrame
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		left := int16(binary.LittleEndian.Uint16(raw[i*bytesPerFrame:]))
		right := int16(binary.LittleEndian.Uint16(raw[i*bytesPerFrame+2:]))
		out[i] = (float64(left) + float64(right)) / 2 / 32768.0
	}
	meta := &Metadata{
		Filename:    filepath.Base(path),
		DurationSec: durationOf(frames, dec.SampleRate()),
		SampleRate:  dec.SampleRate(),
		Channels:    2,
		Format:      "mp3",
		Codec:       "mp3",
	}
	return out, meta, nil
}
