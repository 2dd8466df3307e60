// Package metrics defines the Prometheus metric collectors used across the
// pipeline and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the pipeline. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	RowsScoredTotal      *prometheus.CounterVec
	ChunksCommittedTotal prometheus.Counter
	ChunkCommitDuration  prometheus.Histogram
	IngestFailuresTotal  *prometheus.CounterVec
	BenchmarkQuerySecs   *prometheus.GaugeVec
	BenchmarkImprovement *prometheus.GaugeVec
	FilesScoredTotal     *prometheus.CounterVec
	FileScoreRunSecs     *prometheus.GaugeVec

	gatherer prometheus.Gatherer
}

// New creates all metrics and registers them with reg. A nil reg uses a
// fresh private registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		RowsScoredTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentiment_rows_scored_total",
				Help: "Total rows scored, by sentiment label.",
			},
			[]string{"sentiment"},
		),
		ChunksCommittedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "sentiment_chunks_committed_total",
				Help: "Total chunks inserted and committed.",
			},
		),
		ChunkCommitDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "sentiment_chunk_commit_duration_seconds",
				Help:    "Time to bulk insert and commit one chunk.",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
		),
		IngestFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentiment_ingest_failures_total",
				Help: "Ingestion failures by stage (reset, read, score, insert).",
			},
			[]string{"stage"},
		),
		BenchmarkQuerySecs: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sentiment_benchmark_query_seconds",
				Help: "Last measured benchmark query time by query and phase (before, after).",
			},
			[]string{"query", "phase"},
		),
		BenchmarkImprovement: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sentiment_benchmark_improvement_percent",
				Help: "Percentage improvement of each benchmark query after indexing.",
			},
			[]string{"query"},
		),
		FilesScoredTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sentiment_files_scored_total",
				Help: "Files scored by the directory scorer, by mode (sequential, parallel).",
			},
			[]string{"mode"},
		),
		FileScoreRunSecs: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sentiment_filescore_run_seconds",
				Help: "Wall time of the last directory scoring run by mode.",
			},
			[]string{"mode"},
		),
		gatherer: reg,
	}

	reg.MustRegister(
		m.RowsScoredTotal,
		m.ChunksCommittedTotal,
		m.ChunkCommitDuration,
		m.IngestFailuresTotal,
		m.BenchmarkQuerySecs,
		m.BenchmarkImprovement,
		m.FilesScoredTotal,
		m.FileScoreRunSecs,
	)

	return m
}

// RowScored counts one scored row.
func (m *Metrics) RowScored(label string) {
	if m == nil {
		return
	}
	m.RowsScoredTotal.WithLabelValues(label).Inc()
}

// ChunkCommitted records a committed chunk and how long its insert took.
func (m *Metrics) ChunkCommitted(d time.Duration) {
	if m == nil {
		return
	}
	m.ChunksCommittedTotal.Inc()
	m.ChunkCommitDuration.Observe(d.Seconds())
}

// IngestFailed counts a failure at stage.
func (m *Metrics) IngestFailed(stage string) {
	if m == nil {
		return
	}
	m.IngestFailuresTotal.WithLabelValues(stage).Inc()
}

// QueryTimed records a benchmark timing.
func (m *Metrics) QueryTimed(query, phase string, d time.Duration) {
	if m == nil {
		return
	}
	m.BenchmarkQuerySecs.WithLabelValues(query, phase).Set(d.Seconds())
}

// QueryImproved records a benchmark improvement percentage.
func (m *Metrics) QueryImproved(query string, percent float64) {
	if m == nil {
		return
	}
	m.BenchmarkImprovement.WithLabelValues(query).Set(percent)
}

// FilesScored records a completed directory scoring run.
func (m *Metrics) FilesScored(mode string, files int, d time.Duration) {
	if m == nil {
		return
	}
	m.FilesScoredTotal.WithLabelValues(mode).Add(float64(files))
	m.FileScoreRunSecs.WithLabelValues(mode).Set(d.Seconds())
}

// Handler returns the Prometheus scrape HTTP handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
