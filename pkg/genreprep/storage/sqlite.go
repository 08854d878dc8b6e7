//go:build !js && !wasm
// +build !js,!wasm

package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/srijoni68566/Music-Genre-classification/pkg/models"
	"github.com/srijoni68566/Music-Genre-classification/pkg/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const DefaultDBFile = "genreprep.sqlite3"
const errDBClientNil = "db client is nil"

// ErrRunNotFound is returned when a run id is not in the ledger.
var ErrRunNotFound = errors.New("run not found")

type DBClient struct {
	DB *gorm.DB
	db *sql.DB
}

type Run struct {
	ID              string  `gorm:"primaryKey;type:varchar(36)"`
	DatasetRoot     string  `gorm:"index:idx_run_root" json:"dataset_root"`
	OutputPath      string  `json:"output_path"`
	SampleRate      int     `json:"sample_rate"`
	TrackDuration   float64 `json:"track_duration"`
	NumMFCC         int     `json:"num_mfcc"`
	NFFT            int     `json:"n_fft"`
	HopLength       int     `json:"hop_length"`
	NumSegments     int     `json:"num_segments"`
	Workers         int     `json:"workers"`
	LabelPolicy     string  `json:"label_policy"`
	Status          string  `gorm:"index:idx_run_status" json:"status"`
	Files           int     `json:"files"`
	KeptSegments    int     `json:"kept_segments"`
	DroppedSegments int     `json:"dropped_segments"`
	Error           string  `json:"error"`
	StartedAt       time.Time
	FinishedAt      *time.Time
}

type FileRecord struct {
	ID          uint    `gorm:"primaryKey;autoIncrement"`
	RunID       string  `gorm:"type:varchar(36);index:idx_file_run" json:"run_id"`
	Path        string  `json:"path"`
	Label       int     `json:"label"`
	Genre       string  `json:"genre"`
	Samples     int     `json:"samples"`
	Codec       string  `json:"codec"`
	SourceRate  int     `json:"source_rate"`
	DurationSec float64 `json:"duration_sec"`
	Converted   bool    `json:"converted"`
	Kept        int     `json:"kept"`
	Dropped     int     `json:"dropped"`
}

func NewDBClient() (*DBClient, error) {
	dbPath := os.Getenv("GENREPREP_LEDGER_PATH")
	if dbPath == "" {
		dbPath = DefaultDBFile
	}
	return NewDBClientWithPath(dbPath)
}

func NewDBClientWithPath(dbPath string) (*DBClient, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := utils.MakeDir(dir); err != nil {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(sqlite.Open(dbPath+"?_pragma=busy_timeout(5000)"), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}

	// One writer at a time; parallel workers record files through this pool.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&Run{}, &FileRecord{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &DBClient{DB: db, db: sqlDB}, nil
}

func (c *DBClient) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// BeginRun inserts a run in the running state and returns its id.
func (c *DBClient) BeginRun(p models.RunParams) (string, error) {
	if c == nil || c.DB == nil {
		return "", errors.New(errDBClientNil)
	}

	run := Run{
		ID:            utils.GenerateUUID(),
		DatasetRoot:   p.DatasetRoot,
		OutputPath:    p.OutputPath,
		SampleRate:    p.SampleRate,
		TrackDuration: p.TrackDuration,
		NumMFCC:       p.NumMFCC,
		NFFT:          p.NFFT,
		HopLength:     p.HopLength,
		NumSegments:   p.NumSegments,
		Workers:       p.Workers,
		LabelPolicy:   p.LabelPolicy,
		Status:        models.RunRunning,
		StartedAt:     time.Now().UTC(),
	}
	if err := c.DB.Create(&run).Error; err != nil {
		return "", fmt.Errorf("creating run: %w", err)
	}
	return run.ID, nil
}

func (c *DBClient) RecordFile(rec models.FileRecord) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}
	row := FileRecord{
		RunID:       rec.RunID,
		Path:        rec.Path,
		Label:       rec.Label,
		Genre:       rec.Genre,
		Samples:     rec.Samples,
		Codec:       rec.Codec,
		SourceRate:  rec.SourceRate,
		DurationSec: rec.DurationSec,
		Converted:   rec.Converted,
		Kept:        rec.Kept,
		Dropped:     rec.Dropped,
	}
	if err := c.DB.Create(&row).Error; err != nil {
		return fmt.Errorf("recording file %s: %w", rec.Path, err)
	}
	return nil
}

// CompleteRun marks a run completed and stores its totals.
func (c *DBClient) CompleteRun(runID string, files, kept, dropped int) error {
	return c.finishRun(runID, map[string]any{
		"status":           models.RunCompleted,
		"files":            files,
		"kept_segments":    kept,
		"dropped_segments": dropped,
	})
}

// FailRun marks a run failed with the given error text.
func (c *DBClient) FailRun(runID, errText string) error {
	return c.finishRun(runID, map[string]any{
		"status": models.RunFailed,
		"error":  errText,
	})
}

func (c *DBClient) finishRun(runID string, updates map[string]any) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}
	updates["finished_at"] = time.Now().UTC()

	res := c.DB.Model(&Run{}).Where("id = ?", runID).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("updating run %s: %w", runID, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s: %w", runID, ErrRunNotFound)
	}
	return nil
}

func (c *DBClient) GetRun(runID string) (*Run, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	var run Run
	err := c.DB.Where("id = ?", runID).First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%s: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("querying run: %w", err)
	}
	return &run, nil
}

// ListRuns returns the most recent runs first. A non-positive limit returns all runs.
func (c *DBClient) ListRuns(limit int) ([]Run, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	q := c.DB.Order("started_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var runs []Run
	if err := q.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("listing runs: %w", err)
	}
	return runs, nil
}

// ListFiles returns the files recorded for a run in insertion order.
func (c *DBClient) ListFiles(runID string) ([]FileRecord, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	var rows []FileRecord
	if err := c.DB.Where("run_id = ?", runID).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}
	return rows, nil
}

// DeleteRun removes a run and its file records.
func (c *DBClient) DeleteRun(runID string) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}
	return c.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("run_id = ?", runID).Delete(&FileRecord{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id = ?", runID).Delete(&Run{}).Error; err != nil {
			return err
		}
		return nil
	})
}
