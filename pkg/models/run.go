package models

import "time"

// Run statuses recorded in the ledger.
const (
	RunRunning   = "running"
	RunCompleted = "completed"
	RunFailed    = "failed"
)

// RunParams are the extraction parameters a run was started with.
type RunParams struct {
	DatasetRoot   string
	OutputPath    string
	SampleRate    int
	TrackDuration float64
	NumMFCC       int
	NFFT          int
	HopLength     int
	NumSegments   int
	Workers       int
	LabelPolicy   string
}

// Run is one extraction run as recorded in the ledger.
type Run struct {
	ID         string
	Params     RunParams
	Status     string
	Files      int
	Kept       int
	Dropped    int
	Error      string
	StartedAt  time.Time
	FinishedAt *time.Time
}

// FileRecord is the ledger entry for one processed audio file.
type FileRecord struct {
	RunID       string
	Path        string
	Label       int
	Genre       string
	Samples     int
	Codec       string
	SourceRate  int
	DurationSec float64
	Converted   bool
	Kept        int
	Dropped     int
}
