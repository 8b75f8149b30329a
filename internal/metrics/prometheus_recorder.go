package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "contentbuilder"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	registry       *prom.Registry
	stageDuration  *prom.HistogramVec
	stageResults   *prom.CounterVec
	runDuration    prom.Histogram
	runOutcome     *prom.CounterVec
	cloneDuration  *prom.HistogramVec
	cloneRetries   *prom.CounterVec
	trackedFiles   prom.Counter
	mediaFiles     prom.Counter
	entities       prom.Gauge
	renderDuration *prom.HistogramVec
	renderInFlight prom.Gauge
	lastRun        prom.Gauge
}

// NewPrometheusRecorder constructs the pipeline metrics and registers them on reg.
// A nil reg gets a fresh registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{registry: reg}
	pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "stage_duration_seconds",
		Help:      "Duration of individual pipeline stages",
		Buckets:   prom.DefBuckets,
	}, []string{"stage"})
	pr.stageResults = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "stage_results_total",
		Help:      "Stage result counts by outcome",
	}, []string{"stage", "result"})
	pr.runDuration = prom.NewHistogram(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "run_duration_seconds",
		Help:      "Total pipeline run duration",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
	})
	pr.runOutcome = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "run_outcomes_total",
		Help:      "Pipeline runs by final status",
	}, []string{"outcome"})
	pr.cloneDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "clone_duration_seconds",
		Help:      "Duration of individual repository clone operations",
		Buckets:   prom.DefBuckets,
	}, []string{"repo", "result"})
	pr.cloneRetries = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "clone_retries_total",
		Help:      "Clone retries after transient failures",
	}, []string{"repo"})
	pr.trackedFiles = prom.NewCounter(prom.CounterOpts{
		Namespace: namespace,
		Name:      "tracked_files_total",
		Help:      "Files copied from source repositories",
	})
	pr.mediaFiles = prom.NewCounter(prom.CounterOpts{
		Namespace: namespace,
		Name:      "media_files_total",
		Help:      "Media files flattened into the shared media directory",
	})
	pr.entities = prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "entities",
		Help:      "Entities enumerated by the last run",
	})
	pr.renderDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "render_duration_seconds",
		Help:      "Duration of individual artifact renders",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"outcome"})
	pr.renderInFlight = prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "render_in_flight",
		Help:      "Renders currently executing",
	})
	pr.lastRun = prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix time the last run finished",
	})
	reg.MustRegister(pr.stageDuration, pr.stageResults, pr.runDuration, pr.runOutcome,
		pr.cloneDuration, pr.cloneRetries, pr.trackedFiles, pr.mediaFiles, pr.entities,
		pr.renderDuration, pr.renderInFlight, pr.lastRun)
	return pr
}

// Registry returns the registry the recorder's metrics live in.
func (p *PrometheusRecorder) Registry() *prom.Registry { return p.registry }

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	p.runDuration.Observe(d.Seconds())
	p.lastRun.SetToCurrentTime()
}

func (p *PrometheusRecorder) IncRunOutcome(outcome ResultLabel) {
	p.runOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) ObserveCloneDuration(repo string, d time.Duration, success bool) {
	res := "failed"
	if success {
		res = "success"
	}
	p.cloneDuration.WithLabelValues(repo, res).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncCloneRetry(repo string) {
	p.cloneRetries.WithLabelValues(repo).Inc()
}

func (p *PrometheusRecorder) AddTrackedFiles(n int) { p.trackedFiles.Add(float64(n)) }

func (p *PrometheusRecorder) AddMediaFiles(n int) { p.mediaFiles.Add(float64(n)) }

func (p *PrometheusRecorder) SetEntities(n int) { p.entities.Set(float64(n)) }

func (p *PrometheusRecorder) ObserveRender(d time.Duration, outcome RenderOutcome) {
	p.renderDuration.WithLabelValues(string(outcome)).Observe(d.Seconds())
}

func (p *PrometheusRecorder) SetRenderInFlight(n int) { p.renderInFlight.Set(float64(n)) }

// WriteTextfile writes every registered metric to path in the text exposition
// format, for pickup by a node_exporter textfile collector.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prom.WriteToTextfile(path, p.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
