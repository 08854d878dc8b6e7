package features

import "fmt"

// DropPolicy names the rule deciding which segment matrices are kept.
const DropPolicy = "drop-if-row-count-mismatch"

// Drop reasons reported to metrics.
const (
	DropReasonShape = "row_count_mismatch"
	DropReasonEmpty = "empty"
)

// SamplesPerSegment splits a track of sampleRate*duration samples into
// numSegments equal parts, rounding down.
func SamplesPerSegment(sampleRate int, duration float64, numSegments int) int {
	if numSegments <= 0 {
		return 0
	}
	samplesPerTrack := int(float64(sampleRate) * duration)
	return samplesPerTrack / numSegments
}

// ExpectedVectorCount is ceil(samplesPerSegment / hop).
func ExpectedVectorCount(samplesPerSegment, hop int) int {
	if hop <= 0 {
		return 0
	}
	return (samplesPerSegment + hop - 1) / hop
}

// SegmentStats counts kept and dropped segments for one waveform.
type SegmentStats struct {
	Kept         int
	DroppedShape int
	DroppedEmpty int
}

func (s SegmentStats) Dropped() int { return s.DroppedShape + s.DroppedEmpty }

// Segmenter cuts a waveform into fixed-size segments and computes one MFCC
// matrix per segment, keeping only matrices with the expected row count.
type Segmenter struct {
	mfcc              *MFCC
	numSegments       int
	samplesPerSegment int
	expectedVectors   int
}

// NewSegmenter builds a segmenter for tracks of trackDuration seconds.
func NewSegmenter(m *MFCC, trackDuration float64, numSegments int) (*Segmenter, error) {
	if numSegments <= 0 {
		return nil, fmt.Errorf("num_segments must be positive, got %d", numSegments)
	}
	p := m.Params()
	sps := SamplesPerSegment(p.SampleRate, trackDuration, numSegments)
	if sps <= 0 {
		return nil, fmt.Errorf("segments of %.2fs track at %d Hz split %d ways are empty",
			trackDuration, p.SampleRate, numSegments)
	}
	return &Segmenter{
		mfcc:              m,
		numSegments:       numSegments,
		samplesPerSegment: sps,
		expectedVectors:   ExpectedVectorCount(sps, p.HopLength),
	}, nil
}

func (s *Segmenter) NumSegments() int       { return s.numSegments }
func (s *Segmenter) SamplesPerSegment() int { return s.samplesPerSegment }
func (s *Segmenter) ExpectedVectors() int   { return s.expectedVectors }

// Process returns the retained matrices of samples in segment order. onKept,
// if non-nil, is called with the zero-based index of every kept segment.
func (s *Segmenter) Process(samples []float64, onKept func(segment int)) ([][][]float64, SegmentStats, error) {
	var stats SegmentStats
	var out [][][]float64

	for d := 0; d < s.numSegments; d++ {
		start := d * s.samplesPerSegment
		finish := start + s.samplesPerSegment
		if finish > len(samples) {
			finish = len(samples)
		}
		if start >= finish {
			stats.DroppedEmpty++
			continue
		}

		matrix, err := s.mfcc.Compute(samples[start:finish])
		if err != nil {
			return nil, stats, fmt.Errorf("segment %d: %w", d+1, err)
		}
		if len(matrix) != s.expectedVectors {
			stats.DroppedShape++
			continue
		}

		out = append(out, matrix)
		stats.Kept++
		if onKept != nil {
			onKept(d)
		}
	}
	return out, stats, nil
}
