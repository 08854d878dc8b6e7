package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/srijoni68566/Music-Genre-classification/pkg/models"
)

// Helper function to create a temporary test database
func setupTestDB(t *testing.T) (*DBClient, string) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test_ledger.sqlite3")
	t.Setenv("GENREPREP_LEDGER_PATH", dbPath)

	client, err := NewDBClient()
	if err != nil {
		t.Fatalf("Failed to create test DB client: %v", err)
	}

	t.Cleanup(func() {
		client.Close()
	})

	return client, dbPath
}

func testParams() models.RunParams {
	return models.RunParams{
		DatasetRoot:   "/data/genres",
		OutputPath:    "/data/data.json",
		SampleRate:    22050,
		TrackDuration: 30,
		NumMFCC:       13,
		NFFT:          2048,
		HopLength:     512,
		NumSegments:   10,
		Workers:       1,
		LabelPolicy:   "genre-folders",
	}
}

func TestNewDBClient(t *testing.T) {
	client, dbPath := setupTestDB(t)

	if client.DB == nil {
		t.Fatal("Expected non-nil GORM DB handle")
	}
	if client.db == nil {
		t.Fatal("Expected non-nil sql.DB handle")
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Errorf("Database file was not created at %s", dbPath)
	}
}

func TestNewDBClientWithCustomPath(t *testing.T) {
	customPath := filepath.Join(t.TempDir(), "subdir", "custom.db")

	client, err := NewDBClientWithPath(customPath)
	if err != nil {
		t.Fatalf("Failed to create DB client with custom path: %v", err)
	}
	defer client.Close()

	if _, err := os.Stat(customPath); os.IsNotExist(err) {
		t.Errorf("Database file was not created at custom path %s", customPath)
	}
}

func TestBeginAndCompleteRun(t *testing.T) {
	client, _ := setupTestDB(t)

	runID, err := client.BeginRun(testParams())
	if err != nil {
		t.Fatalf("BeginRun failed: %v", err)
	}
	if len(runID) != 36 {
		t.Errorf("Expected UUID run id, got %q", runID)
	}

	run, err := client.GetRun(runID)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if run.Status != models.RunRunning {
		t.Errorf("Expected status %q, got %q", models.RunRunning, run.Status)
	}
	if run.NumSegments != 10 || run.LabelPolicy != "genre-folders" {
		t.Errorf("Run parameters not stored: %+v", run)
	}
	if run.FinishedAt != nil {
		t.Error("Running run should not have a finish time")
	}

	if err := client.CompleteRun(runID, 3, 28, 2); err != nil {
		t.Fatalf("CompleteRun failed: %v", err)
	}

	run, err = client.GetRun(runID)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if run.Status != models.RunCompleted {
		t.Errorf("Expected status %q, got %q", models.RunCompleted, run.Status)
	}
	if run.Files != 3 || run.KeptSegments != 28 || run.DroppedSegments != 2 {
		t.Errorf("Unexpected totals: files=%d kept=%d dropped=%d", run.Files, run.KeptSegments, run.DroppedSegments)
	}
	if run.FinishedAt == nil {
		t.Error("Completed run should have a finish time")
	}
}

func TestFailRun(t *testing.T) {
	client, _ := setupTestDB(t)

	runID, err := client.BeginRun(testParams())
	if err != nil {
		t.Fatalf("BeginRun failed: %v", err)
	}
	if err := client.FailRun(runID, "decoding blues.00001.wav: bad header"); err != nil {
		t.Fatalf("FailRun failed: %v", err)
	}

	run, err := client.GetRun(runID)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if run.Status != models.RunFailed || run.Error == "" {
		t.Errorf("Expected failed run with error text, got status=%q error=%q", run.Status, run.Error)
	}
}

func TestFinishUnknownRun(t *testing.T) {
	client, _ := setupTestDB(t)

	err := client.CompleteRun("00000000-0000-0000-0000-000000000000", 0, 0, 0)
	if !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Expected ErrRunNotFound, got %v", err)
	}
	if _, err := client.GetRun("missing"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Expected ErrRunNotFound from GetRun, got %v", err)
	}
}

func TestRecordAndListFiles(t *testing.T) {
	client, _ := setupTestDB(t)

	runID, err := client.BeginRun(testParams())
	if err != nil {
		t.Fatalf("BeginRun failed: %v", err)
	}

	paths := []string{"blues/a.wav", "blues/b.wav", "rock/c.wav"}
	for i, p := range paths {
		err := client.RecordFile(models.FileRecord{
			RunID: runID, Path: p, Label: i / 2, Genre: filepath.Dir(p), Samples: 661500, Kept: 10,
		})
		if err != nil {
			t.Fatalf("RecordFile(%s) failed: %v", p, err)
		}
	}

	files, err := client.ListFiles(runID)
	if err != nil {
		t.Fatalf("ListFiles failed: %v", err)
	}
	if len(files) != len(paths) {
		t.Fatalf("Expected %d files, got %d", len(paths), len(files))
	}
	for i, f := range files {
		if f.Path != paths[i] {
			t.Errorf("file %d: expected %s, got %s", i, paths[i], f.Path)
		}
	}

	other, err := client.ListFiles("another-run")
	if err != nil {
		t.Fatalf("ListFiles failed: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("Expected no files for unknown run, got %d", len(other))
	}
}

func TestListRunsAndDelete(t *testing.T) {
	client, _ := setupTestDB(t)

	var ids []string
	for i := 0; i < 3; i++ {
		id, err := client.BeginRun(testParams())
		if err != nil {
			t.Fatalf("BeginRun failed: %v", err)
		}
		ids = append(ids, id)
	}

	runs, err := client.ListRuns(0)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("Expected 3 runs, got %d", len(runs))
	}

	limited, err := client.ListRuns(2)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("Expected 2 runs with limit, got %d", len(limited))
	}

	if err := client.RecordFile(models.FileRecord{RunID: ids[0], Path: "x.wav"}); err != nil {
		t.Fatalf("RecordFile failed: %v", err)
	}
	if err := client.DeleteRun(ids[0]); err != nil {
		t.Fatalf("DeleteRun failed: %v", err)
	}
	if _, err := client.GetRun(ids[0]); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Expected deleted run to be gone, got %v", err)
	}
	files, _ := client.ListFiles(ids[0])
	if len(files) != 0 {
		t.Errorf("Expected file records to be deleted, got %d", len(files))
	}
}

func TestNilClient(t *testing.T) {
	var client *DBClient

	if err := client.Close(); err != nil {
		t.Errorf("Close on nil client should be a no-op, got %v", err)
	}
	if _, err := client.BeginRun(testParams()); err == nil {
		t.Error("Expected error from nil client")
	}
}
