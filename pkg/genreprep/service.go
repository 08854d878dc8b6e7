package genreprep

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/srijoni68566/Music-Genre-classification/pkg/genreprep/audio"
	"github.com/srijoni68566/Music-Genre-classification/pkg/genreprep/dataset"
	"github.com/srijoni68566/Music-Genre-classification/pkg/genreprep/features"
	"github.com/srijoni68566/Music-Genre-classification/pkg/logger"
	"github.com/srijoni68566/Music-Genre-classification/pkg/models"
	"github.com/srijoni68566/Music-Genre-classification/pkg/utils"
)

// Extractor turns a directory of genre folders into an MFCC dataset.
type Extractor struct {
	cfg       *Config
	log       Logger
	ledger    Ledger
	ownLedger bool
	metrics   Metrics
	loader    *audio.Loader
	segmenter *features.Segmenter
}

func NewExtractor(opts ...Option) (*Extractor, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = noopMetrics{}
	}

	mfcc, err := features.NewMFCC(features.Params{
		SampleRate: cfg.SampleRate,
		NumMFCC:    cfg.NumMFCC,
		NFFT:       cfg.NFFT,
		HopLength:  cfg.HopLength,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	segmenter, err := features.NewSegmenter(mfcc, cfg.TrackDuration, cfg.NumSegments)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	// Create or use provided ledger
	var ledger Ledger = noopLedger{}
	own := false
	switch {
	case cfg.Ledger != nil:
		ledger = cfg.Ledger
	case cfg.LedgerPath != "":
		ledger, err = NewSQLiteLedger(cfg.LedgerPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open ledger: %w", err)
		}
		own = true
	}

	return &Extractor{
		cfg:       cfg,
		log:       cfg.Logger,
		ledger:    ledger,
		ownLedger: own,
		metrics:   cfg.Metrics,
		loader:    audio.NewLoader(cfg.SampleRate, cfg.TempDir),
		segmenter: segmenter,
	}, nil
}

// Close releases the ledger if the extractor opened it.
func (e *Extractor) Close() error {
	if e.ownLedger {
		return e.ledger.Close()
	}
	return nil
}

// Config returns a copy of the effective configuration.
func (e *Extractor) Config() Config { return *e.cfg }

// Ledger returns the ledger runs are recorded in.
func (e *Extractor) Ledger() Ledger { return e.ledger }

func (e *Extractor) SamplesPerSegment() int { return e.segmenter.SamplesPerSegment() }
func (e *Extractor) ExpectedVectors() int   { return e.segmenter.ExpectedVectors() }

// Extract builds the dataset for root in memory.
func (e *Extractor) Extract(ctx context.Context, root string) (*models.Dataset, *models.Report, error) {
	start := time.Now()
	runID := e.beginRun(root, "")

	ds, report, err := e.extract(ctx, root, runID)
	if err != nil {
		e.failRun(runID, err, start)
		return nil, nil, err
	}

	report.Elapsed = time.Since(start)
	e.completeRun(runID, report)
	return ds, report, nil
}

// SaveMFCC extracts the dataset for root and writes it to jsonPath. Nothing is
// written if any file fails to decode.
func (e *Extractor) SaveMFCC(ctx context.Context, root, jsonPath string) (*models.Report, error) {
	start := time.Now()
	runID := e.beginRun(root, jsonPath)

	ds, report, err := e.extract(ctx, root, runID)
	if err == nil {
		if saveErr := dataset.Save(jsonPath, ds); saveErr != nil {
			err = fmt.Errorf("writing dataset: %w", saveErr)
		}
	}
	if err != nil {
		e.failRun(runID, err, start)
		return nil, err
	}

	report.Output = jsonPath
	report.Bytes = utils.FileSize(jsonPath)
	report.Elapsed = time.Since(start)
	e.completeRun(runID, report)

	e.log.Infof("Wrote %d segments (%d genres) to %s", report.Kept, len(ds.Mapping), jsonPath)
	return report, nil
}

func (e *Extractor) extract(ctx context.Context, root, runID string) (*models.Dataset, *models.Report, error) {
	plan, err := PlanDataset(root, e.cfg.LabelPolicy, e.log)
	if err != nil {
		return nil, nil, err
	}
	if len(plan.Mapping) == 0 {
		return nil, nil, fmt.Errorf("%s: %w", root, ErrNoGenres)
	}
	e.log.Infof("Found %d genres and %d audio files under %s", len(plan.Mapping), len(plan.Jobs), root)

	ds := models.NewDataset()
	ds.Mapping = plan.Mapping

	report := &models.Report{RunID: runID, Root: root, Genres: make([]models.GenreStats, len(plan.Genres))}
	for i, g := range plan.Genres {
		report.Genres[i].Genre = g
	}

	c := &collector{
		e:       e,
		ds:      ds,
		report:  report,
		runID:   runID,
		total:   len(plan.Jobs),
		results: make([]*models.FileResult, len(plan.Jobs)),
	}

	if e.cfg.Workers <= 1 {
		for _, job := range plan.Jobs {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
			res, err := e.ProcessFile(ctx, job)
			if err != nil {
				return nil, nil, err
			}
			c.add(job.Index, res)
		}
		return ds, report, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	for _, job := range plan.Jobs {
		job := job
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			res, err := e.ProcessFile(gctx, job)
			if err != nil {
				return err
			}
			c.add(job.Index, res)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	return ds, report, nil
}

// ProcessFile decodes one file and computes its retained segment matrices.
func (e *Extractor) ProcessFile(ctx context.Context, job models.AudioJob) (*models.FileResult, error) {
	track, err := e.loader.Load(ctx, job.Path)
	if err != nil {
		if ctx.Err() == nil {
			e.metrics.DecodeFailed()
		}
		return nil, fmt.Errorf("decoding audio: %w", err)
	}
	samples := track.Samples

	res := &models.FileResult{
		Path:        job.Path,
		Label:       job.Label,
		Samples:     len(samples),
		Codec:       track.Source.Codec,
		SourceRate:  track.Source.SampleRate,
		DurationSec: track.Source.DurationSec,
		Converted:   track.Converted,
	}
	if e.isShort(res) {
		e.log.Debugf("%s: %.2fs long, shorter than the %gs track duration", job.Path, res.DurationSec, e.cfg.TrackDuration)
	}
	matrices, stats, err := e.segmenter.Process(samples, func(d int) {
		res.Segments = append(res.Segments, d)
	})
	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", job.Path, err)
	}
	res.Matrices = matrices
	res.DroppedShape = stats.DroppedShape
	res.DroppedEmpty = stats.DroppedEmpty

	e.log.Debugf("%s: %d samples, %d segments kept, %d dropped", job.Path, len(samples), stats.Kept, stats.Dropped())
	return res, nil
}

// isShort reports whether the source file is shorter than the nominal track
// duration, which leaves trailing segments empty or truncated.
func (e *Extractor) isShort(res *models.FileResult) bool {
	return res.DurationSec > 0 && res.DurationSec < e.cfg.TrackDuration
}

// collector appends file results to the dataset strictly in job order, no
// matter in which order workers finish.
type collector struct {
	mu      sync.Mutex
	e       *Extractor
	ds      *models.Dataset
	report  *models.Report
	runID   string
	total   int
	next    int
	results []*models.FileResult
}

func (c *collector) add(index int, res *models.FileResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.results[index] = res
	for c.next < len(c.results) && c.results[c.next] != nil {
		c.appendLocked(c.results[c.next])
		c.results[c.next] = nil
		c.next++
	}
}

func (c *collector) appendLocked(res *models.FileResult) {
	e := c.e
	genre := c.ds.Mapping[res.Label]

	for i, matrix := range res.Matrices {
		c.ds.Append(res.Label, matrix)
		e.log.Infof("%s, segment:%d", res.Path, res.Segments[i]+1)
	}

	c.report.Files++
	c.report.Kept += res.Kept()
	c.report.Dropped += res.Dropped()
	if e.isShort(res) {
		c.report.Short++
	}
	c.report.Genres[res.Label].Files++
	c.report.Genres[res.Label].Segments += res.Kept()

	e.metrics.FileProcessed(genre)
	e.metrics.SegmentsKept(genre, res.Kept())
	e.metrics.SegmentsDropped(features.DropReasonShape, res.DroppedShape)
	e.metrics.SegmentsDropped(features.DropReasonEmpty, res.DroppedEmpty)

	if c.runID != "" {
		err := e.ledger.RecordFile(models.FileRecord{
			RunID:       c.runID,
			Path:        res.Path,
			Label:       res.Label,
			Genre:       genre,
			Samples:     res.Samples,
			Codec:       res.Codec,
			SourceRate:  res.SourceRate,
			DurationSec: res.DurationSec,
			Converted:   res.Converted,
			Kept:        res.Kept(),
			Dropped:     res.Dropped(),
		})
		if err != nil {
			e.log.Warnf("ledger: recording %s: %v", res.Path, err)
		}
	}

	if e.cfg.Progress != nil {
		e.cfg.Progress(c.next+1, c.total)
	}
}

func (e *Extractor) runParams(root, output string) models.RunParams {
	return models.RunParams{
		DatasetRoot:   root,
		OutputPath:    output,
		SampleRate:    e.cfg.SampleRate,
		TrackDuration: e.cfg.TrackDuration,
		NumMFCC:       e.cfg.NumMFCC,
		NFFT:          e.cfg.NFFT,
		HopLength:     e.cfg.HopLength,
		NumSegments:   e.cfg.NumSegments,
		Workers:       e.cfg.Workers,
		LabelPolicy:   string(e.cfg.LabelPolicy),
	}
}

func (e *Extractor) beginRun(root, output string) string {
	runID, err := e.ledger.BeginRun(e.runParams(root, output))
	if err != nil {
		e.log.Warnf("ledger: starting run: %v", err)
		return ""
	}
	return runID
}

func (e *Extractor) completeRun(runID string, report *models.Report) {
	e.metrics.RunFinished(models.RunCompleted, report.Elapsed)
	if runID == "" {
		return
	}
	if err := e.ledger.CompleteRun(runID, report); err != nil {
		e.log.Warnf("ledger: completing run %s: %v", runID, err)
	}
}

func (e *Extractor) failRun(runID string, cause error, start time.Time) {
	e.metrics.RunFinished(models.RunFailed, time.Since(start))
	if errors.Is(cause, context.Canceled) {
		e.log.Warnf("Extraction cancelled: %v", cause)
	} else {
		e.log.Errorf("Extraction failed: %v", cause)
	}
	if runID == "" {
		return
	}
	if err := e.ledger.FailRun(runID, cause); err != nil {
		e.log.Warnf("ledger: failing run %s: %v", runID, err)
	}
}
