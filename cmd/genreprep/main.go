package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/srijoni68566/Music-Genre-classification/internal/config"
	"github.com/srijoni68566/Music-Genre-classification/internal/metrics"
	"github.com/srijoni68566/Music-Genre-classification/pkg/genreprep"
	"github.com/srijoni68566/Music-Genre-classification/pkg/genreprep/dataset"
	"github.com/srijoni68566/Music-Genre-classification/pkg/genreprep/storage"
	"github.com/srijoni68566/Music-Genre-classification/pkg/logger"
	"github.com/srijoni68566/Music-Genre-classification/pkg/models"
)

func main() {
	log := logger.GetLogger()

	if err := config.LoadDotEnv(); err != nil {
		log.Warnf("Ignoring .env: %v", err)
	}

	printBanner()

	command := "extract"
	args := os.Args[1:]
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		command = args[0]
		args = args[1:]
	}
	log.Debugf("Executing command: %s", command)

	switch command {
	case "extract":
		handleExtract(args)
	case "inspect":
		handleInspect(args)
	case "runs":
		handleRuns(args)
	case "help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printBanner() {
	banner := `
  __ _  ___ _ __  _ __ ___ _ __  _ __ ___ _ __
 / _' |/ _ \ '_ \| '__/ _ \ '_ \| '__/ _ \ '_ \
| (_| |  __/ | | | | |  __/ |_) | | |  __/ |_) |
 \__, |\___|_| |_|_|  \___| .__/|_|  \___| .__/
 |___/                    |_|            |_|
        MFCC dataset builder for genre classification
`
	fmt.Println(banner)
}

// extractFlags mirrors the configuration keys a user may override on the
// command line. Only flags that were actually set replace configured values.
type extractFlags struct {
	configPath  string
	datasetDir  string
	output      string
	segments    int
	mfcc        int
	nfft        int
	hop         int
	rate        int
	duration    float64
	workers     int
	labels      string
	ledger      string
	metricsFile string
	progress    bool
}

func parseExtractFlags(args []string) (*extractFlags, *flag.FlagSet) {
	def := config.Default()
	f := &extractFlags{}

	cmd := flag.NewFlagSet("extract", flag.ExitOnError)
	cmd.StringVar(&f.configPath, "config", os.Getenv("GENREPREP_CONFIG"), "YAML configuration file (env: GENREPREP_CONFIG)")
	cmd.StringVar(&f.datasetDir, "dataset", def.Dataset.Root, "Dataset root with one folder per genre")
	cmd.StringVar(&f.output, "out", def.Dataset.Output, "Output JSON file")
	cmd.IntVar(&f.segments, "segments", def.Features.NumSegments, "Segments per track")
	cmd.IntVar(&f.mfcc, "mfcc", def.Features.NumMFCC, "MFCC coefficients per frame")
	cmd.IntVar(&f.nfft, "nfft", def.Features.NFFT, "FFT window size")
	cmd.IntVar(&f.hop, "hop", def.Features.HopLength, "Hop length in samples")
	cmd.IntVar(&f.rate, "rate", def.Features.SampleRate, "Target sample rate")
	cmd.Float64Var(&f.duration, "duration", def.Features.TrackDuration, "Nominal track duration in seconds")
	cmd.IntVar(&f.workers, "workers", def.Run.Workers, "Files decoded in parallel")
	cmd.StringVar(&f.labels, "labels", def.Dataset.LabelPolicy, "Label policy: genre-folders or walk-order")
	cmd.StringVar(&f.ledger, "ledger", def.Run.Ledger, "SQLite run ledger (empty disables it)")
	cmd.StringVar(&f.metricsFile, "metrics", def.Run.MetricsFile, "Prometheus textfile written after the run")
	cmd.BoolVar(&f.progress, "progress", def.Run.Progress, "Show a progress bar")
	cmd.Parse(args)

	return f, cmd
}

// apply copies explicitly set flags over cfg.
func (f *extractFlags) apply(cmd *flag.FlagSet, cfg *config.Config) {
	cmd.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "dataset":
			cfg.Dataset.Root = f.datasetDir
		case "out":
			cfg.Dataset.Output = f.output
		case "labels":
			cfg.Dataset.LabelPolicy = f.labels
		case "segments":
			cfg.Features.NumSegments = f.segments
		case "mfcc":
			cfg.Features.NumMFCC = f.mfcc
		case "nfft":
			cfg.Features.NFFT = f.nfft
		case "hop":
			cfg.Features.HopLength = f.hop
		case "rate":
			cfg.Features.SampleRate = f.rate
		case "duration":
			cfg.Features.TrackDuration = f.duration
		case "workers":
			cfg.Run.Workers = f.workers
		case "ledger":
			cfg.Run.Ledger = f.ledger
		case "metrics":
			cfg.Run.MetricsFile = f.metricsFile
		case "progress":
			cfg.Run.Progress = f.progress
		}
	})
}

func loadConfig(f *extractFlags, cmd *flag.FlagSet) (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	f.apply(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

func configureLogger(log *logger.Logger, cfg *config.Config) {
	if level, err := logger.ParseLevel(cfg.Logging.Level); err == nil {
		log.SetLevel(level)
	}
	log.SetColorize(cfg.Logging.Color)
}

func handleExtract(args []string) {
	log := logger.GetLogger()

	flags, cmd := parseExtractFlags(args)
	if cmd.NArg() > 0 {
		fmt.Printf("Unexpected arguments: %s\n", strings.Join(cmd.Args(), " "))
		printUsage()
		os.Exit(1)
	}

	cfg, err := loadConfig(flags, cmd)
	if err != nil {
		fmt.Printf("❌ Configuration error: %v\n", err)
		log.Errorf("Configuration failed: %v", err)
		os.Exit(1)
	}
	configureLogger(log, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.NewMetrics()
	opts := append(cfg.ExtractorOptions(),
		genreprep.WithLogger(log),
		genreprep.WithMetrics(m),
	)

	var bar *progressBar
	if cfg.Run.Progress {
		bar = newProgressBar()
		opts = append(opts, genreprep.WithProgress(bar.update))
		log.SetOutput(bar)
	}

	fmt.Println("\n🔧 Initializing extractor...")
	report, runErr := runExtract(ctx, cfg, opts)
	finishProgress(log, bar, runErr == nil)

	if cfg.Run.MetricsFile != "" {
		if err := m.WriteTextfile(cfg.Run.MetricsFile); err != nil {
			log.Warnf("Failed to write metrics to %s: %v", cfg.Run.MetricsFile, err)
		} else {
			log.Debugf("Metrics written to %s", cfg.Run.MetricsFile)
		}
	}

	if runErr != nil {
		switch {
		case errors.Is(runErr, context.Canceled):
			fmt.Println("\n⏹  Extraction interrupted, nothing was written")
		case errors.Is(runErr, genreprep.ErrNoGenres):
			fmt.Printf("\n📭 No genre folders found under %s\n", cfg.Dataset.Root)
		default:
			fmt.Printf("\n❌ Extraction failed: %v\n", runErr)
		}
		log.Errorf("Extraction failed: %v", runErr)
		os.Exit(1)
	}

	printReport(report)
}

// runExtract builds an extractor from opts and writes the dataset. The
// extractor, and the ledger it may own, is closed before runExtract returns.
func runExtract(ctx context.Context, cfg *config.Config, opts []genreprep.Option) (*models.Report, error) {
	log := logger.GetLogger()

	ex, err := genreprep.NewExtractor(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating extractor: %w", err)
	}
	defer func() {
		if err := ex.Close(); err != nil {
			log.Warnf("Failed to close extractor: %v", err)
		}
	}()

	fmt.Printf("🎵 Extracting %d MFCCs x %d segments from %s\n",
		cfg.Features.NumMFCC, cfg.Features.NumSegments, cfg.Dataset.Root)
	fmt.Printf("   Segment: %s samples, %d vectors expected\n",
		humanize.Comma(int64(ex.SamplesPerSegment())), ex.ExpectedVectors())

	return ex.SaveMFCC(ctx, cfg.Dataset.Root, cfg.Dataset.Output)
}

func printReport(report *models.Report) {
	fmt.Printf("\n✅ Dataset written to %s (%s)\n", report.Output, humanize.Bytes(uint64(report.Bytes)))
	if report.RunID != "" {
		fmt.Printf("   Run ID:   %s\n", report.RunID)
	}
	fmt.Printf("   Files:    %s\n", humanize.Comma(int64(report.Files)))
	fmt.Printf("   Segments: %s kept, %s dropped\n",
		humanize.Comma(int64(report.Kept)), humanize.Comma(int64(report.Dropped)))
	if report.Short > 0 {
		fmt.Printf("   Short:    %d file(s) below the configured track duration\n", report.Short)
	}
	fmt.Printf("   Elapsed:  %s\n", report.Elapsed.Round(time.Millisecond))

	if len(report.Genres) == 0 {
		return
	}
	fmt.Println("\n🏷  Genres:")
	for _, g := range report.Genres {
		fmt.Printf("   %2d. %-16s %5d file(s) %7d segment(s)\n", g.ID, g.Name, g.Files, g.Segments)
	}
}

func handleInspect(args []string) {
	log := logger.GetLogger()

	if len(args) < 1 {
		fmt.Println("Usage: genreprep inspect <data.json>")
		os.Exit(1)
	}
	path := args[0]

	info, err := os.Stat(path)
	if err != nil {
		fmt.Printf("❌ Cannot read %s: %v\n", path, err)
		log.Errorf("Stat failed: %v", err)
		os.Exit(1)
	}

	ds, err := dataset.Load(path)
	if err != nil {
		fmt.Printf("❌ Failed to load dataset: %v\n", err)
		log.Errorf("Load failed: %v", err)
		os.Exit(1)
	}

	valid := true
	if err := dataset.Validate(ds); err != nil {
		valid = false
		fmt.Printf("⚠️  Dataset is invalid: %v\n", err)
		log.Warnf("Validation failed for %s: %v", path, err)
	}

	s := dataset.Summarize(ds)
	fmt.Printf("\n📦 %s (%s, modified %s)\n", path, humanize.Bytes(uint64(info.Size())), humanize.Time(info.ModTime()))
	fmt.Printf("   Segments: %s\n", humanize.Comma(int64(s.Segments)))
	fmt.Printf("   Matrix:   %d x %d\n", s.Frames, s.Coeffs)
	fmt.Println("\n🏷  Mapping:")
	for _, g := range s.Genres {
		fmt.Printf("   %2d. %-16s %7d segment(s)\n", g.ID, g.Name, g.Segments)
	}

	if !valid {
		os.Exit(1)
	}
}

func handleRuns(args []string) {
	log := logger.GetLogger()

	cmd := flag.NewFlagSet("runs", flag.ExitOnError)
	ledgerPath := cmd.String("ledger", envOrDefault("GENREPREP_LEDGER_PATH", storage.DefaultDBFile), "SQLite run ledger (env: GENREPREP_LEDGER_PATH)")
	runID := cmd.String("id", "", "Show the files recorded for one run")
	deleteID := cmd.String("delete", "", "Delete a run and its file records")
	limit := cmd.Int("limit", 20, "Maximum runs listed, newest first")
	cmd.Parse(args)

	if _, err := os.Stat(*ledgerPath); err != nil {
		fmt.Printf("📭 No ledger at %s\n", *ledgerPath)
		log.Debugf("Ledger stat failed: %v", err)
		return
	}

	ledger, err := genreprep.NewSQLiteLedger(*ledgerPath)
	if err != nil {
		fmt.Printf("❌ Failed to open ledger: %v\n", err)
		log.Errorf("Ledger open failed: %v", err)
		os.Exit(1)
	}

	switch {
	case *deleteID != "":
		err = deleteRun(ledger, *deleteID)
	case *runID != "":
		err = showRun(ledger, *runID)
	default:
		err = listRuns(ledger, *limit)
	}
	if cerr := ledger.Close(); cerr != nil {
		log.Warnf("Failed to close ledger: %v", cerr)
	}
	if err != nil {
		os.Exit(1)
	}
}

func listRuns(ledger genreprep.Ledger, limit int) error {
	log := logger.GetLogger()

	runs, err := ledger.ListRuns(limit)
	if err != nil {
		fmt.Printf("❌ Failed to list runs: %v\n", err)
		log.Errorf("ListRuns failed: %v", err)
		return err
	}
	if len(runs) == 0 {
		fmt.Println("\n📭 No runs recorded")
		return nil
	}

	fmt.Printf("\n📚 Found %d run(s):\n\n", len(runs))
	for i, run := range runs {
		fmt.Printf("%d. %s [%s] %s\n", i+1, run.ID, statusIcon(run.Status), humanize.Time(run.StartedAt))
		fmt.Printf("   %s -> %s\n", run.Params.DatasetRoot, run.Params.OutputPath)
		fmt.Printf("   %d file(s), %d kept, %d dropped\n", run.Files, run.Kept, run.Dropped)
		if run.Error != "" {
			fmt.Printf("   Error: %s\n", run.Error)
		}
		fmt.Println()
	}
	return nil
}

func showRun(ledger genreprep.Ledger, id string) error {
	log := logger.GetLogger()

	run, err := ledger.GetRun(id)
	if err != nil {
		fmt.Printf("❌ Run not found: %s\n", id)
		log.Warnf("GetRun %s failed: %v", id, err)
		return err
	}
	files, err := ledger.ListFiles(id)
	if err != nil {
		fmt.Printf("❌ Failed to list files: %v\n", err)
		log.Errorf("ListFiles failed: %v", err)
		return err
	}

	p := run.Params
	fmt.Printf("\n🧾 Run %s [%s]\n", run.ID, statusIcon(run.Status))
	fmt.Printf("   Dataset:  %s (%s)\n", p.DatasetRoot, p.LabelPolicy)
	fmt.Printf("   Output:   %s\n", p.OutputPath)
	fmt.Printf("   Params:   rate=%d duration=%gs mfcc=%d n_fft=%d hop=%d segments=%d workers=%d\n",
		p.SampleRate, p.TrackDuration, p.NumMFCC, p.NFFT, p.HopLength, p.NumSegments, p.Workers)
	fmt.Printf("   Started:  %s\n", run.StartedAt.Format(time.RFC3339))
	if run.FinishedAt != nil {
		fmt.Printf("   Took:     %s\n", run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
	}
	if run.Error != "" {
		fmt.Printf("   Error:    %s\n", run.Error)
	}

	fmt.Printf("\n   %d file(s):\n", len(files))
	for _, f := range files {
		via := f.Codec
		if f.Converted {
			via += " via ffmpeg"
		}
		fmt.Printf("   [%s] %s  %.1fs %s @ %d Hz, %d kept, %d dropped\n",
			f.Genre, f.Path, f.DurationSec, via, f.SourceRate, f.Kept, f.Dropped)
	}
	return nil
}

func deleteRun(ledger genreprep.Ledger, id string) error {
	log := logger.GetLogger()

	run, err := ledger.GetRun(id)
	if err != nil {
		fmt.Printf("❌ Run not found: %s\n", id)
		log.Warnf("GetRun %s failed: %v", id, err)
		return err
	}
	if err := ledger.DeleteRun(id); err != nil {
		fmt.Printf("❌ Failed to delete run: %v\n", err)
		log.Errorf("DeleteRun failed: %v", err)
		return err
	}

	fmt.Printf("\n✅ Deleted run %s (%s, %d file(s))\n", run.ID, run.Params.DatasetRoot, run.Files)
	log.Infof("Deleted run %s", run.ID)
	return nil
}

func statusIcon(status string) string {
	switch status {
	case "completed":
		return "✅ " + status
	case "failed":
		return "❌ " + status
	default:
		return "⏳ " + status
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func printUsage() {
	fmt.Println("genreprep - MFCC dataset builder")
	fmt.Println("\nUsage:")
	fmt.Println("  genreprep [extract] [options]        Build the MFCC dataset (default command)")
	fmt.Println("  genreprep inspect <data.json>        Validate and summarise a dataset file")
	fmt.Println("  genreprep runs [-ledger DB] [-id RUN] [-delete RUN] [-limit N]")
	fmt.Println("\nExtract options:")
	fmt.Println("  -dataset <dir>     Dataset root, one folder per genre (default: genres)")
	fmt.Println("  -out <file>        Output JSON (default: data.json)")
	fmt.Println("  -segments <n>      Segments per track (default: 10)")
	fmt.Println("  -mfcc <n>          Coefficients per frame (default: 13)")
	fmt.Println("  -nfft <n>          FFT window (default: 2048)")
	fmt.Println("  -hop <n>           Hop length (default: 512)")
	fmt.Println("  -rate <hz>         Sample rate (default: 22050)")
	fmt.Println("  -duration <s>      Track duration (default: 30)")
	fmt.Println("  -workers <n>       Parallel decoders (default: 1)")
	fmt.Println("  -labels <policy>   genre-folders or walk-order (default: genre-folders)")
	fmt.Println("  -config <file>     YAML configuration (env: GENREPREP_CONFIG)")
	fmt.Println("  -ledger <db>       SQLite run ledger (env: GENREPREP_LEDGER_PATH)")
	fmt.Println("  -metrics <file>    Prometheus textfile (env: GENREPREP_METRICS_FILE)")
	fmt.Println("  -progress          Show a progress bar")
	fmt.Println("\nExamples:")
	fmt.Println("  genreprep -dataset genres_original -out data_10.json -workers 4 -progress")
	fmt.Println("  genreprep inspect data_10.json")
	fmt.Println("  genreprep runs -ledger genreprep.sqlite3")
}
