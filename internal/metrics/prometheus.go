package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains the Prometheus collectors for extraction runs. Collectors
// live on a private registry so that each process run exports only its own
// counters.
type Metrics struct {
	registry *prometheus.Registry

	Files           *prometheus.CounterVec
	KeptSegments    *prometheus.CounterVec
	DroppedSegments *prometheus.CounterVec
	DecodeErrors    prometheus.Counter
	Runs            *prometheus.CounterVec
	RunDuration     prometheus.Histogram
	LastRunSeconds  prometheus.Gauge
}

// NewMetrics creates and registers all collectors
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		Files: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "genreprep_files_processed_total",
			Help: "Total number of audio files decoded and featurised",
		}, []string{"genre"}),
		KeptSegments: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "genreprep_segments_kept_total",
			Help: "Total number of segment matrices written to the dataset",
		}, []string{"genre"}),
		DroppedSegments: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "genreprep_segments_dropped_total",
			Help: "Total number of segments discarded",
		}, []string{"reason"}),
		DecodeErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "genreprep_decode_failures_total",
			Help: "Total number of audio files that could not be decoded",
		}),
		Runs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "genreprep_runs_total",
			Help: "Total number of extraction runs by final status",
		}, []string{"status"}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "genreprep_run_duration_seconds",
			Help:    "Wall-clock duration of extraction runs",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
		LastRunSeconds: factory.NewGauge(prometheus.GaugeOpts{
			Name: "genreprep_last_run_duration_seconds",
			Help: "Duration of the most recent extraction run",
		}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) FileProcessed(genre string) {
	m.Files.WithLabelValues(genre).Inc()
}

func (m *Metrics) SegmentsKept(genre string, n int) {
	m.KeptSegments.WithLabelValues(genre).Add(float64(n))
}

func (m *Metrics) SegmentsDropped(reason string, n int) {
	m.DroppedSegments.WithLabelValues(reason).Add(float64(n))
}

func (m *Metrics) DecodeFailed() {
	m.DecodeErrors.Inc()
}

func (m *Metrics) RunFinished(status string, elapsed time.Duration) {
	m.Runs.WithLabelValues(status).Inc()
	m.RunDuration.Observe(elapsed.Seconds())
	m.LastRunSeconds.Set(elapsed.Seconds())
}

// WriteTextfile writes the registry in the node_exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
