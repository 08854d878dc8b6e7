package config

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/srijoni68566/Music-Genre-classification/pkg/genreprep"
	"github.com/srijoni68566/Music-Genre-classification/pkg/logger"
)

var envVars = []string{
	"GENREPREP_DATASET", "GENREPREP_OUTPUT", "GENREPREP_LABEL_POLICY",
	"GENREPREP_SAMPLE_RATE", "GENREPREP_TRACK_DURATION", "GENREPREP_NUM_MFCC",
	"GENREPREP_N_FFT", "GENREPREP_HOP_LENGTH", "GENREPREP_NUM_SEGMENTS",
	"GENREPREP_WORKERS", "GENREPREP_TEMP_DIR", "GENREPREP_LEDGER_PATH",
	"GENREPREP_METRICS_FILE", "GENREPREP_PROGRESS", "LOG_LEVEL", "NO_COLOR",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envVars {
		k := k
		if v, ok := os.LookupEnv(k); ok {
			os.Unsetenv(k)
			t.Cleanup(func() { os.Setenv(k, v) })
		}
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Dataset.Root != "genres" || cfg.Dataset.Output != "data.json" {
		t.Errorf("Dataset = %+v, want defaults", cfg.Dataset)
	}
	if cfg.Dataset.LabelPolicy != "genre-folders" {
		t.Errorf("LabelPolicy = %q, want genre-folders", cfg.Dataset.LabelPolicy)
	}
	if cfg.Features.NumSegments != 10 {
		t.Errorf("NumSegments = %d, want 10", cfg.Features.NumSegments)
	}
	if cfg.Features.SampleRate != 22050 || cfg.Features.NumMFCC != 13 ||
		cfg.Features.NFFT != 2048 || cfg.Features.HopLength != 512 || cfg.Features.TrackDuration != 30 {
		t.Errorf("Features = %+v, want defaults", cfg.Features)
	}
	if cfg.Run.Workers != 1 || cfg.Run.Ledger != "" || cfg.Run.MetricsFile != "" {
		t.Errorf("Run = %+v, want defaults", cfg.Run)
	}
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "genreprep.yaml", `
dataset:
  root: /data/gtzan
  output: /data/gtzan.json
  label_policy: walk-order
features:
  num_segments: 5
  num_mfcc: 20
run:
  workers: 4
  ledger: /data/runs.sqlite3
logging:
  level: debug
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Dataset.Root != "/data/gtzan" || cfg.Dataset.LabelPolicy != "walk-order" {
		t.Errorf("Dataset = %+v", cfg.Dataset)
	}
	if cfg.Features.NumSegments != 5 || cfg.Features.NumMFCC != 20 {
		t.Errorf("Features = %+v", cfg.Features)
	}
	// Keys absent from the file keep their defaults.
	if cfg.Features.HopLength != 512 || cfg.Features.SampleRate != 22050 {
		t.Errorf("Expected defaults for unset keys, got %+v", cfg.Features)
	}
	if cfg.Run.Workers != 4 || cfg.Run.Ledger != "/data/runs.sqlite3" {
		t.Errorf("Run = %+v", cfg.Run)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "genreprep.yaml", "features:\n  num_segments: 5\nrun:\n  workers: 2\n")

	t.Setenv("GENREPREP_NUM_SEGMENTS", "8")
	t.Setenv("GENREPREP_DATASET", "/mnt/audio")
	t.Setenv("GENREPREP_TRACK_DURATION", "29.5")
	t.Setenv("GENREPREP_PROGRESS", "true")
	t.Setenv("NO_COLOR", "1")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Features.NumSegments != 8 {
		t.Errorf("NumSegments = %d, want env override 8", cfg.Features.NumSegments)
	}
	if cfg.Run.Workers != 2 {
		t.Errorf("Workers = %d, want file value 2", cfg.Run.Workers)
	}
	if cfg.Dataset.Root != "/mnt/audio" {
		t.Errorf("Root = %q, want env override", cfg.Dataset.Root)
	}
	if cfg.Features.TrackDuration != 29.5 {
		t.Errorf("TrackDuration = %g, want 29.5", cfg.Features.TrackDuration)
	}
	if !cfg.Run.Progress || cfg.Logging.Color {
		t.Errorf("Expected progress on and colour off, got %+v %+v", cfg.Run, cfg.Logging)
	}
}

func TestInvalidEnvValue(t *testing.T) {
	clearEnv(t)
	t.Setenv("GENREPREP_WORKERS", "many")

	_, err := Load("")
	if err == nil || !strings.Contains(err.Error(), "GENREPREP_WORKERS") {
		t.Errorf("Expected error naming GENREPREP_WORKERS, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty root", func(c *Config) { c.Dataset.Root = "" }, "dataset config"},
		{"bad policy", func(c *Config) { c.Dataset.LabelPolicy = "random" }, "dataset config"},
		{"zero segments", func(c *Config) { c.Features.NumSegments = 0 }, "features config"},
		{"tiny fft", func(c *Config) { c.Features.NFFT = 1 }, "features config"},
		{"no workers", func(c *Config) { c.Run.Workers = 0 }, "run config"},
		{"bad level", func(c *Config) { c.Logging.Level = "chatty" }, "logging config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want error mentioning %q", err, tt.want)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Expected error for missing config file")
	}
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, ".env", "GENREPREP_HOP_LENGTH=256\nGENREPREP_OUTPUT=from-dotenv.json\n")
	t.Setenv("GENREPREP_OUTPUT", "from-shell.json")
	t.Cleanup(func() { os.Unsetenv("GENREPREP_HOP_LENGTH") })

	if err := LoadDotEnv(path, filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv failed: %v", err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Features.HopLength != 256 {
		t.Errorf("HopLength = %d, want 256 from .env", cfg.Features.HopLength)
	}
	if cfg.Dataset.Output != "from-shell.json" {
		t.Errorf("Output = %q, existing environment should win over .env", cfg.Dataset.Output)
	}
}

func TestExtractorOptions(t *testing.T) {
	cfg := Default()
	cfg.Dataset.LabelPolicy = "walk-order"
	cfg.Features.NumSegments = 3
	cfg.Run.Workers = 2

	quiet := logger.New(logger.Config{Output: io.Discard, Level: logger.ERROR})
	ex, err := genreprep.NewExtractor(append(cfg.ExtractorOptions(), genreprep.WithLogger(quiet))...)
	if err != nil {
		t.Fatalf("NewExtractor failed: %v", err)
	}
	defer ex.Close()

	got := ex.Config()
	if got.NumSegments != 3 || got.Workers != 2 || got.LabelPolicy != genreprep.WalkOrder {
		t.Errorf("options not applied: %+v", got)
	}
	if ex.ExpectedVectors() != 431 {
		t.Errorf("Expected 431 vectors per 220500-sample segment, got %d", ex.ExpectedVectors())
	}
}
