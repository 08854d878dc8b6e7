package models

import "time"

// Dataset is the serialised training record. Labels and MFCC are parallel
// arrays: Labels[i] is the genre id of the segment matrix MFCC[i], and every
// label indexes Mapping.
type Dataset struct {
	Mapping []string      `json:"mapping"`
	Labels  []int         `json:"labels"`
	MFCC    [][][]float64 `json:"mfcc"`
}

// NewDataset returns an empty dataset whose slices marshal as [] rather than null.
func NewDataset() *Dataset {
	return &Dataset{
		Mapping: []string{},
		Labels:  []int{},
		MFCC:    [][][]float64{},
	}
}

// Append adds one segment matrix with its label.
func (d *Dataset) Append(label int, matrix [][]float64) {
	d.Labels = append(d.Labels, label)
	d.MFCC = append(d.MFCC, matrix)
}

// Len returns the number of segment matrices in the dataset.
func (d *Dataset) Len() int {
	return len(d.Labels)
}

// Genre is one entry of the label mapping.
type Genre struct {
	ID   int    // Index into Dataset.Mapping
	Name string // Folder base name
	Path string // Folder path under the dataset root
}

// AudioJob is one file scheduled for extraction.
type AudioJob struct {
	Index int    // Position in walk order
	Path  string // File path
	Label int    // Genre id
}

// FileResult is the outcome of extracting one audio file.
type FileResult struct {
	Path         string
	Label        int
	Samples      int           // Decoded sample count (mono, target rate)
	Codec        string        // Codec of the file on disk
	SourceRate   int           // Sample rate of the file on disk
	DurationSec  float64       // Duration of the file on disk
	Converted    bool          // Resampled or transcoded through ffmpeg
	Matrices     [][][]float64 // Retained segment matrices in segment order
	Segments     []int         // Zero-based segment index of each retained matrix
	DroppedShape int
	DroppedEmpty int
}

// Kept is the number of retained segments.
func (r *FileResult) Kept() int { return len(r.Matrices) }

// Dropped is the number of discarded segments, whatever the reason.
func (r *FileResult) Dropped() int { return r.DroppedShape + r.DroppedEmpty }

// GenreStats holds per-genre counts for a run report.
type GenreStats struct {
	Genre
	Files    int
	Segments int
}

// Report summarises an extraction run.
type Report struct {
	RunID   string
	Root    string
	Files   int
	Kept    int
	Dropped int
	Short   int // Files shorter than the configured track duration
	Genres  []GenreStats
	Elapsed time.Duration
	Output  string // Set once the dataset has been written
	Bytes   int64  // Size of the written file
}
