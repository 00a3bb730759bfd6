// Package metrics exposes pipeline counters for the node exporter textfile
// collector. Each Recorder owns its registry so one invocation writes only
// its own series.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"myonorm/internal/activation"
	"myonorm/internal/mvc"
)

const namespace = "myonorm"

// Stage names used with ObserveStage.
const (
	StageCalibrate = "calibrate"
	StageAggregate = "aggregate"
	StagePersist   = "persist"
)

// Recorder collects the metrics of one run.
type Recorder struct {
	registry *prometheus.Registry

	filesProcessed prometheus.Counter
	repetitions    *prometheus.CounterVec
	failures       *prometheus.CounterVec
	mvcValue       *prometheus.GaugeVec
	stageDuration  *prometheus.HistogramVec
	lastRun        prometheus.Gauge
}

// New registers a fresh set of collectors.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		registry: reg,
		filesProcessed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_processed_total",
			Help:      "Recordings attempted by the aggregator, including rejected file names",
		}),
		repetitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "repetitions_normalized_total",
			Help:      "Normalized (file, channel) repetitions by channel",
		}, []string{"channel"}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "failures_total",
			Help:      "Aggregation failures by error kind",
		}, []string{"kind"}),
		mvcValue: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "mvc",
			Name:      "value",
			Help:      "Calibrated maximum voluntary contraction per channel",
		}, []string{"channel"}),
		stageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Wall time per pipeline stage",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
		}, []string{"stage"}),
		lastRun: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished",
		}),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// ObserveProfile sets the MVC gauge of every calibrated channel.
func (r *Recorder) ObserveProfile(profile *mvc.Profile) {
	if profile == nil {
		return
	}
	for _, ch := range profile.Channels {
		r.mvcValue.WithLabelValues(channelLabel(ch.Name, ch.Channel)).Set(ch.Value)
	}
}

// ObserveResult counts files, repetitions, and failures of an aggregation.
func (r *Recorder) ObserveResult(res *activation.Result) {
	if res == nil {
		return
	}
	r.filesProcessed.Add(float64(res.Files))
	for _, key := range res.Series.Keys() {
		label := channelLabel(res.Channels.Name(key.Channel), key.Channel)
		r.repetitions.WithLabelValues(label).Add(float64(len(res.Series.Repetitions(key))))
	}
	for _, f := range res.Failures {
		r.failures.WithLabelValues(normalizeKindLabel(f.Kind())).Inc()
	}
}

// ObserveStage records how long stage took.
func (r *Recorder) ObserveStage(stage string, d time.Duration) {
	r.stageDuration.WithLabelValues(normalizeStageLabel(stage)).Observe(d.Seconds())
}

// MarkFinished stamps the last run gauge with t.
func (r *Recorder) MarkFinished(t time.Time) {
	r.lastRun.Set(float64(t.Unix()))
}

// WriteTextfile atomically writes the registry in text exposition format,
// creating the parent directory when needed.
func (r *Recorder) WriteTextfile(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("metrics textfile path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

func channelLabel(name string, index int) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "ch" + strconv.Itoa(index)
	}
	return name
}

func normalizeKindLabel(kind string) string {
	switch kind {
	case "configuration", "insufficient_data", "selection", "division_by_zero", "metadata_parse":
		return kind
	default:
		return "unknown"
	}
}

func normalizeStageLabel(stage string) string {
	switch s := strings.ToLower(strings.TrimSpace(stage)); s {
	case StageCalibrate, StageAggregate, StagePersist:
		return s
	default:
		return "other"
	}
}
