package genreprep

import (
	"time"

	"github.com/srijoni68566/Music-Genre-classification/pkg/models"
)

type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}

// Ledger records run provenance. Nothing read back from it influences
// extraction.
type Ledger interface {
	BeginRun(params models.RunParams) (string, error)
	RecordFile(rec models.FileRecord) error
	CompleteRun(runID string, report *models.Report) error
	FailRun(runID string, cause error) error
	GetRun(runID string) (*models.Run, error)
	ListRuns(limit int) ([]models.Run, error)
	ListFiles(runID string) ([]models.FileRecord, error)
	DeleteRun(runID string) error
	Close() error
}

// Metrics receives run counters.
type Metrics interface {
	FileProcessed(genre string)
	SegmentsKept(genre string, n int)
	SegmentsDropped(reason string, n int)
	DecodeFailed()
	RunFinished(status string, elapsed time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) FileProcessed(string)              {}
func (noopMetrics) SegmentsKept(string, int)          {}
func (noopMetrics) SegmentsDropped(string, int)       {}
func (noopMetrics) DecodeFailed()                     {}
func (noopMetrics) RunFinished(string, time.Duration) {}
