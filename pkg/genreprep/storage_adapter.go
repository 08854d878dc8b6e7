package genreprep

import (
	"github.com/srijoni68566/Music-Genre-classification/pkg/genreprep/storage"
	"github.com/srijoni68566/Music-Genre-classification/pkg/models"
)

// sqliteLedger adapts storage.DBClient to the Ledger interface.
type sqliteLedger struct {
	db *storage.DBClient
}

// NewSQLiteLedger opens (or creates) a run ledger at dbPath.
func NewSQLiteLedger(dbPath string) (Ledger, error) {
	db, err := storage.NewDBClientWithPath(dbPath)
	if err != nil {
		return nil, err
	}
	return &sqliteLedger{db: db}, nil
}

func (s *sqliteLedger) BeginRun(params models.RunParams) (string, error) {
	return s.db.BeginRun(params)
}

func (s *sqliteLedger) RecordFile(rec models.FileRecord) error {
	return s.db.RecordFile(rec)
}

func (s *sqliteLedger) CompleteRun(runID string, report *models.Report) error {
	return s.db.CompleteRun(runID, report.Files, report.Kept, report.Dropped)
}

func (s *sqliteLedger) FailRun(runID string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return s.db.FailRun(runID, msg)
}

func (s *sqliteLedger) GetRun(runID string) (*models.Run, error) {
	run, err := s.db.GetRun(runID)
	if err != nil {
		return nil, err
	}
	out := toModelRun(*run)
	return &out, nil
}

func (s *sqliteLedger) ListRuns(limit int) ([]models.Run, error) {
	rows, err := s.db.ListRuns(limit)
	if err != nil {
		return nil, err
	}
	runs := make([]models.Run, len(rows))
	for i, r := range rows {
		runs[i] = toModelRun(r)
	}
	return runs, nil
}

func (s *sqliteLedger) ListFiles(runID string) ([]models.FileRecord, error) {
	rows, err := s.db.ListFiles(runID)
	if err != nil {
		return nil, err
	}
	files := make([]models.FileRecord, len(rows))
	for i, r := range rows {
		files[i] = models.FileRecord{
			RunID:       r.RunID,
			Path:        r.Path,
			Label:       r.Label,
			Genre:       r.Genre,
			Samples:     r.Samples,
			Codec:       r.Codec,
			SourceRate:  r.SourceRate,
			DurationSec: r.DurationSec,
			Converted:   r.Converted,
			Kept:        r.Kept,
			Dropped:     r.Dropped,
		}
	}
	return files, nil
}

// DeleteRun removes a run and its file records.
func (s *sqliteLedger) DeleteRun(runID string) error {
	return s.db.DeleteRun(runID)
}

func (s *sqliteLedger) Close() error {
	return s.db.Close()
}

func toModelRun(r storage.Run) models.Run {
	return models.Run{
		ID: r.ID,
		Params: models.RunParams{
			DatasetRoot:   r.DatasetRoot,
			OutputPath:    r.OutputPath,
			SampleRate:    r.SampleRate,
			TrackDuration: r.TrackDuration,
			NumMFCC:       r.NumMFCC,
			NFFT:          r.NFFT,
			HopLength:     r.HopLength,
			NumSegments:   r.NumSegments,
			Workers:       r.Workers,
			LabelPolicy:   r.LabelPolicy,
		},
		Status:     r.Status,
		Files:      r.Files,
		Kept:       r.KeptSegments,
		Dropped:    r.DroppedSegments,
		Error:      r.Error,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
	}
}

// noopLedger is used when no ledger is configured.
type noopLedger struct{}

func (noopLedger) BeginRun(models.RunParams) (string, error)     { return "", nil }
func (noopLedger) RecordFile(models.FileRecord) error            { return nil }
func (noopLedger) CompleteRun(string, *models.Report) error      { return nil }
func (noopLedger) FailRun(string, error) error                   { return nil }
func (noopLedger) GetRun(string) (*models.Run, error)            { return nil, storage.ErrRunNotFound }
func (noopLedger) ListRuns(int) ([]models.Run, error)            { return nil, nil }
func (noopLedger) ListFiles(string) ([]models.FileRecord, error) { return nil, nil }
func (noopLedger) DeleteRun(string) error                        { return storage.ErrRunNotFound }
func (noopLedger) Close() error                                  { return nil }
