// Package metrics exposes Prometheus instrumentation for the ingest pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds Prometheus counters and gauges for the ingest agent.
type Metrics struct {
	registry             *prometheus.Registry
	requestsTotal        prometheus.Counter
	ingestsTotal         prometheus.Counter
	ingestFailuresTotal  *prometheus.CounterVec
	transcriptFallbacks  prometheus.Counter
	clipsExtractedTotal  prometheus.Counter
	activeIngests        prometheus.Gauge
	downloadBytesTotal   prometheus.Counter
	speechSynthesesTotal prometheus.Counter
}

// New creates and registers Prometheus metrics for the ingest agent.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ingest_http_requests_total",
		Help: "Total number of HTTP requests received",
	})
	ingestsTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ingest_completed_total",
		Help: "Total number of ingestion requests completed successfully",
	})
	ingestFailuresTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ingest_failures_total",
		Help: "Total number of failed ingestion requests by error kind",
	}, []string{"kind"})
	transcriptFallbacks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ingest_transcript_fallbacks_total",
		Help: "Total number of transcript language attempts that fell through to the next language",
	})
	clipsExtractedTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ingest_clips_extracted_total",
		Help: "Total number of clips extracted",
	})
	activeIngests := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "ingest_active",
		Help: "Number of ingestion requests currently in flight",
	})
	downloadBytesTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ingest_download_bytes_total",
		Help: "Total bytes streamed from the origin platform to disk",
	})
	speechSynthesesTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ingest_speech_syntheses_total",
		Help: "Total number of speech synthesis requests proxied",
	})

	registry.MustRegister(
		requestsTotal,
		ingestsTotal,
		ingestFailuresTotal,
		transcriptFallbacks,
		clipsExtractedTotal,
		activeIngests,
		downloadBytesTotal,
		speechSynthesesTotal,
	)

	return &Metrics{
		registry:             registry,
		requestsTotal:        requestsTotal,
		ingestsTotal:         ingestsTotal,
		ingestFailuresTotal:  ingestFailuresTotal,
		transcriptFallbacks:  transcriptFallbacks,
		clipsExtractedTotal:  clipsExtractedTotal,
		activeIngests:        activeIngests,
		downloadBytesTotal:   downloadBytesTotal,
		speechSynthesesTotal: speechSynthesesTotal,
	}
}

// IncRequests increments the total HTTP request counter.
func (m *Metrics) IncRequests() {
	m.requestsTotal.Inc()
}

// IncIngests increments the completed ingestion counter.
func (m *Metrics) IncIngests() {
	m.ingestsTotal.Inc()
}

// IncIngestFailures increments the failure counter for the given error kind.
func (m *Metrics) IncIngestFailures(kind string) {
	m.ingestFailuresTotal.WithLabelValues(kind).Inc()
}

// IncTranscriptFallbacks increments the language-fallback counter.
func (m *Metrics) IncTranscriptFallbacks() {
	m.transcriptFallbacks.Inc()
}

// AddClipsExtracted adds n to the extracted clip counter.
func (m *Metrics) AddClipsExtracted(n int) {
	m.clipsExtractedTotal.Add(float64(n))
}

// IngestStarted increments the in-flight gauge.
func (m *Metrics) IngestStarted() {
	m.activeIngests.Inc()
}

// IngestFinished decrements the in-flight gauge.
func (m *Metrics) IngestFinished() {
	m.activeIngests.Dec()
}

// AddDownloadBytes adds n to the downloaded byte counter.
func (m *Metrics) AddDownloadBytes(n int64) {
	m.downloadBytesTotal.Add(float64(n))
}

// IncSpeechSyntheses increments the speech synthesis counter.
func (m *Metrics) IncSpeechSyntheses() {
	m.speechSynthesesTotal.Inc()
}

// Handler returns an http.Handler that serves Prometheus metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
