package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/srijoni68566/Music-Genre-classification/pkg/genreprep"
	"github.com/srijoni68566/Music-Genre-classification/pkg/logger"
)

const envPrefix = "GENREPREP_"

// Config is the CLI configuration. Values are layered: defaults, then the
// YAML file, then GENREPREP_* environment variables, then command-line flags.
type Config struct {
	Dataset  DatasetConfig `yaml:"dataset"`
	Features FeatureConfig `yaml:"features"`
	Run      RunConfig     `yaml:"run"`
	Logging  LoggingConfig `yaml:"logging"`
}

// DatasetConfig locates the input tree and the output file
type DatasetConfig struct {
	Root        string `yaml:"root"`
	Output      string `yaml:"output"`
	LabelPolicy string `yaml:"label_policy"`
}

// FeatureConfig contains MFCC extraction parameters
type FeatureConfig struct {
	SampleRate    int     `yaml:"sample_rate"`
	TrackDuration float64 `yaml:"track_duration"` // seconds
	NumMFCC       int     `yaml:"num_mfcc"`
	NFFT          int     `yaml:"n_fft"`
	HopLength     int     `yaml:"hop_length"`
	NumSegments   int     `yaml:"num_segments"`
}

// RunConfig contains execution settings
type RunConfig struct {
	Workers     int    `yaml:"workers"`
	TempDir     string `yaml:"temp_dir"`
	Ledger      string `yaml:"ledger"`       // sqlite path, empty disables the ledger
	MetricsFile string `yaml:"metrics_file"` // prometheus textfile, empty disables export
	Progress    bool   `yaml:"progress"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level string `yaml:"level"`
	Color bool   `yaml:"color"`
}

// Default returns the CLI defaults. The CLI splits tracks into ten segments,
// twice the library default.
func Default() *Config {
	return &Config{
		Dataset: DatasetConfig{
			Root:        "genres",
			Output:      "data.json",
			LabelPolicy: string(genreprep.GenreFolders),
		},
		Features: FeatureConfig{
			SampleRate:    genreprep.DefaultSampleRate,
			TrackDuration: genreprep.DefaultTrackDuration,
			NumMFCC:       genreprep.DefaultNumMFCC,
			NFFT:          genreprep.DefaultNFFT,
			HopLength:     genreprep.DefaultHopLength,
			NumSegments:   10,
		},
		Run: RunConfig{
			Workers: 1,
		},
		Logging: LoggingConfig{
			Level: "info",
			Color: true,
		},
	}
}

// LoadDotEnv loads KEY=VALUE pairs from the given files (".env" when none are
// given) into the environment. Missing files are ignored; variables already
// set win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// Load builds the configuration from defaults, the optional YAML file at path
// and the environment, then validates it.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides fields from GENREPREP_* variables.
func (c *Config) ApplyEnv() error {
	var err error
	c.Dataset.Root = envStr("DATASET", c.Dataset.Root)
	c.Dataset.Output = envStr("OUTPUT", c.Dataset.Output)
	c.Dataset.LabelPolicy = envStr("LABEL_POLICY", c.Dataset.LabelPolicy)

	if c.Features.SampleRate, err = envInt("SAMPLE_RATE", c.Features.SampleRate); err != nil {
		return err
	}
	if c.Features.TrackDuration, err = envFloat("TRACK_DURATION", c.Features.TrackDuration); err != nil {
		return err
	}
	if c.Features.NumMFCC, err = envInt("NUM_MFCC", c.Features.NumMFCC); err != nil {
		return err
	}
	if c.Features.NFFT, err = envInt("N_FFT", c.Features.NFFT); err != nil {
		return err
	}
	if c.Features.HopLength, err = envInt("HOP_LENGTH", c.Features.HopLength); err != nil {
		return err
	}
	if c.Features.NumSegments, err = envInt("NUM_SEGMENTS", c.Features.NumSegments); err != nil {
		return err
	}

	if c.Run.Workers, err = envInt("WORKERS", c.Run.Workers); err != nil {
		return err
	}
	c.Run.TempDir = envStr("TEMP_DIR", c.Run.TempDir)
	c.Run.Ledger = envStr("LEDGER_PATH", c.Run.Ledger)
	c.Run.MetricsFile = envStr("METRICS_FILE", c.Run.MetricsFile)
	if c.Run.Progress, err = envBool("PROGRESS", c.Run.Progress); err != nil {
		return err
	}

	// LOG_LEVEL is shared with pkg/logger.
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		c.Logging.Color = false
	}
	return nil
}

// Validate performs validation of every section
func (c *Config) Validate() error {
	if err := c.Dataset.Validate(); err != nil {
		return fmt.Errorf("dataset config: %w", err)
	}
	if err := c.Features.Validate(); err != nil {
		return fmt.Errorf("features config: %w", err)
	}
	if err := c.Run.Validate(); err != nil {
		return fmt.Errorf("run config: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}
	return nil
}

func (d *DatasetConfig) Validate() error {
	if d.Root == "" {
		return fmt.Errorf("root cannot be empty")
	}
	if d.Output == "" {
		return fmt.Errorf("output cannot be empty")
	}
	if _, err := genreprep.ParseLabelPolicy(d.LabelPolicy); err != nil {
		return err
	}
	return nil
}

func (f *FeatureConfig) Validate() error {
	if f.SampleRate < 1 {
		return fmt.Errorf("sample_rate must be positive, got %d", f.SampleRate)
	}
	if f.TrackDuration <= 0 {
		return fmt.Errorf("track_duration must be positive, got %g", f.TrackDuration)
	}
	if f.NumMFCC < 1 {
		return fmt.Errorf("num_mfcc must be at least 1, got %d", f.NumMFCC)
	}
	if f.NFFT < 2 {
		return fmt.Errorf("n_fft must be at least 2, got %d", f.NFFT)
	}
	if f.HopLength < 1 {
		return fmt.Errorf("hop_length must be at least 1, got %d", f.HopLength)
	}
	if f.NumSegments < 1 {
		return fmt.Errorf("num_segments must be at least 1, got %d", f.NumSegments)
	}
	return nil
}

func (r *RunConfig) Validate() error {
	if r.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", r.Workers)
	}
	return nil
}

func (l *LoggingConfig) Validate() error {
	if _, err := logger.ParseLevel(l.Level); err != nil {
		return err
	}
	return nil
}

// ExtractorOptions translates the configuration into library options.
func (c *Config) ExtractorOptions() []genreprep.Option {
	policy, _ := genreprep.ParseLabelPolicy(c.Dataset.LabelPolicy)
	return []genreprep.Option{
		genreprep.WithSampleRate(c.Features.SampleRate),
		genreprep.WithTrackDuration(c.Features.TrackDuration),
		genreprep.WithNumMFCC(c.Features.NumMFCC),
		genreprep.WithNFFT(c.Features.NFFT),
		genreprep.WithHopLength(c.Features.HopLength),
		genreprep.WithNumSegments(c.Features.NumSegments),
		genreprep.WithWorkers(c.Run.Workers),
		genreprep.WithLabelPolicy(policy),
		genreprep.WithTempDir(c.Run.TempDir),
		genreprep.WithLedgerPath(c.Run.Ledger),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(envPrefix + key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(envPrefix + key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fallback, fmt.Errorf("%s%s: %w", envPrefix, key, err)
	}
	return n, nil
}

func envFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(envPrefix + key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return fallback, fmt.Errorf("%s%s: %w", envPrefix, key, err)
	}
	return f, nil
}

func envBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(envPrefix + key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return fallback, fmt.Errorf("%s%s: %w", envPrefix, key, err)
	}
	return b, nil
}
