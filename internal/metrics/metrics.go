// Package metrics exposes Prometheus instruments for the coaching pipeline.
//
// Instruments live on a private registry so tests can build an isolated set
// with New and inspect it without touching the global default registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ghost_coach"

// Ingest outcomes.
const (
	OutcomeSkipped    = "skipped"
	OutcomeNoAction   = "no_action"
	OutcomeActionable = "actionable"
	OutcomeError      = "error"
)

// Upstream stages.
const (
	StageCoach     = "coach"
	StageTranslate = "translate"
	StageSpeech    = "speech"
)

type Metrics struct {
	registry *prometheus.Registry

	ingestTotal      *prometheus.CounterVec
	speechFailures   prometheus.Counter
	upstreamDuration *prometheus.HistogramVec
	audioCacheSize   prometheus.Gauge
	historySize      prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		ingestTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ingest_total",
				Help:      "Transcript fragments processed, by outcome",
			},
			[]string{"outcome"},
		),
		speechFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "speech_failures_total",
				Help:      "Speech synthesis attempts that produced no audio",
			},
		),
		upstreamDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "upstream_duration_seconds",
				Help:      "Latency of LLM and TTS calls",
				Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16, 32},
			},
			[]string{"stage", "status"},
		),
		audioCacheSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "audio_cache_entries",
				Help:      "Synthesized replies currently held in memory",
			},
		),
		historySize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "history_entries",
				Help:      "Interaction records currently held in memory",
			},
		),
	}

	m.registry.MustRegister(
		m.ingestTotal,
		m.speechFailures,
		m.upstreamDuration,
		m.audioCacheSize,
		m.historySize,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RecordIngest(outcome string) {
	m.ingestTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordSpeechFailure() {
	m.speechFailures.Inc()
}

// ObserveUpstream records how long a call to stage took; err selects the
// status label.
func (m *Metrics) ObserveUpstream(stage string, started time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.upstreamDuration.WithLabelValues(stage, status).Observe(time.Since(started).Seconds())
}

func (m *Metrics) SetStoreSizes(audio, history int) {
	m.audioCacheSize.Set(float64(audio))
	m.historySize.Set(float64(history))
}
