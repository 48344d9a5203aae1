// Package metrics exposes Prometheus instruments for the transcription pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "transcription"

// Pipeline stages observed by StageDuration.
const (
	StageStore     = "store"
	StageDecode    = "decode"
	StageInference = "inference"
	StageTotal     = "total"
)

// Recorder is what the transcription service reports to.
type Recorder interface {
	RequestFinished(status, kind, format string)
	ObserveStage(stage string, d time.Duration)
	ObserveAudio(d time.Duration)
	InflightAdd(delta int)
}

// Metrics holds every collector, registered on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	Requests       *prometheus.CounterVec
	StageDuration  *prometheus.HistogramVec
	AudioDuration  prometheus.Histogram
	EngineState    prometheus.Gauge
	Inflight       prometheus.Gauge
	TransientFiles prometheus.Gauge
}

// New registers the collectors on reg. A nil reg gets a fresh registry
// carrying the Go runtime and process collectors.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	m := &Metrics{
		registry: reg,
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Transcription requests by outcome.",
		}, []string{"status", "kind", "format"}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "duration_seconds",
			Help:      "Time spent per pipeline stage.",
			Buckets:   []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"stage"}),
		AudioDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "audio_seconds",
			Help:      "Duration of decoded audio.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		}),
		EngineState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "engine_state",
			Help:      "Inference engine state: 0 uninitialized, 1 loading, 2 ready, 3 failed.",
		}),
		Inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "inflight_requests",
			Help:      "Requests currently in the pipeline.",
		}),
		TransientFiles: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "transient_files",
			Help:      "Upload files currently on disk.",
		}),
	}
	reg.MustRegister(m.Requests, m.StageDuration, m.AudioDuration, m.EngineState, m.Inflight, m.TransientFiles)
	return m
}

// Registry returns the registry the collectors live on
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) RequestFinished(status, kind, format string) {
	if format == "" {
		format = "unknown"
	}
	m.Requests.WithLabelValues(status, kind, format).Inc()
}

func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (m *Metrics) ObserveAudio(d time.Duration) {
	m.AudioDuration.Observe(d.Seconds())
}

func (m *Metrics) InflightAdd(delta int) {
	m.Inflight.Add(float64(delta))
}

// SetEngineState records the numeric engine state
func (m *Metrics) SetEngineState(state int) {
	m.EngineState.Set(float64(state))
}

// SetTransientFiles records how many upload files exist
func (m *Metrics) SetTransientFiles(n int64) {
	m.TransientFiles.Set(float64(n))
}

// Nop discards everything
type Nop struct{}

func (Nop) RequestFinished(string, string, string) {}
func (Nop) ObserveStage(string, time.Duration)     {}
func (Nop) ObserveAudio(time.Duration)             {}
func (Nop) InflightAdd(int)                        {}
