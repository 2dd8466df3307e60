// Package benchmark times the fixed read query set against the results
// table, builds the secondary indexes, times the same set again and
// compares the two measurements.
package benchmark

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Review-Sentiment-Pipeline/internal/sentiment"
	"github.com/Adithya-Monish-Kumar-K/Review-Sentiment-Pipeline/internal/store"
	"github.com/Adithya-Monish-Kumar-K/Review-Sentiment-Pipeline/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Review-Sentiment-Pipeline/pkg/tracing"
	"gonum.org/v1/gonum/stat"
)

// Phase names used in logs, metrics and reports.
const (
	PhaseBefore = "before"
	PhaseAfter  = "after"
)

// Querier is the read side of the results table.
type Querier interface {
	CountBySentiment(ctx context.Context, label sentiment.Sentiment) (int64, error)
	ScoreAbove(ctx context.Context, min int) ([]store.Row, error)
}

// Target is a results table that can also be indexed.
type Target interface {
	Querier
	CreateIndexes(ctx context.Context) error
}

// Query is one named benchmark query. Exec returns the size of its result:
// the count for COUNT queries, the number of rows fetched otherwise.
type Query struct {
	Name string
	Exec func(ctx context.Context, q Querier) (int64, error)
}

// DefaultQueries returns the benchmark set in reporting order.
func DefaultQueries() []Query {
	return []Query{
		{Name: "Count Positive", Exec: countLabel(sentiment.Positive)},
		{Name: "Count Negative", Exec: countLabel(sentiment.Negative)},
		{Name: "Score > 3", Exec: func(ctx context.Context, q Querier) (int64, error) {
			rows, err := q.ScoreAbove(ctx, 3)
			return int64(len(rows)), err
		}},
	}
}

func countLabel(label sentiment.Sentiment) func(context.Context, Querier) (int64, error) {
	return func(ctx context.Context, q Querier) (int64, error) {
		return q.CountBySentiment(ctx, label)
	}
}

// Timing is the measurement of one query in one phase.
type Timing struct {
	Query  string        `json:"query"`
	Runs   int           `json:"runs"`
	Mean   time.Duration `json:"meanNanos"`
	StdDev time.Duration `json:"stdDevNanos"`
	Result int64         `json:"result"`
}

// Harness runs the query set. It never asserts that indexing helped; it
// only records what it measured.
type Harness struct {
	queries []Query
	runs    int
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// Option customises a Harness.
type Option func(*Harness)

// WithMetrics records timings into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Harness) { h.metrics = m }
}

// WithQueries replaces the default query set.
func WithQueries(queries []Query) Option {
	return func(h *Harness) { h.queries = queries }
}

// NewHarness creates a Harness that executes each query runs times per
// phase. runs below 1 is treated as 1.
func NewHarness(runs int, opts ...Option) *Harness {
	h := &Harness{
		queries: DefaultQueries(),
		runs:    max(runs, 1),
		logger:  slog.Default().With("component", "benchmark"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Measure times every query against q, in order.
func (h *Harness) Measure(ctx context.Context, q Querier, phase string) ([]Timing, error) {
	timings := make([]Timing, 0, len(h.queries))
	for _, query := range h.queries {
		t, err := h.measureOne(ctx, q, query)
		if err != nil {
			return timings, fmt.Errorf("%s query %q: %w", phase, query.Name, err)
		}
		h.metrics.QueryTimed(query.Name, phase, t.Mean)
		h.logger.Info("query timed",
			"phase", phase,
			"query", query.Name,
			"seconds", t.Mean.Seconds(),
			"result", t.Result,
		)
		timings = append(timings, t)
	}
	return timings, nil
}

func (h *Harness) measureOne(ctx context.Context, q Querier, query Query) (Timing, error) {
	samples := make([]float64, 0, h.runs)
	var result int64
	for i := 0; i < h.runs; i++ {
		start := time.Now()
		n, err := query.Exec(ctx, q)
		elapsed := time.Since(start)
		if err != nil {
			return Timing{}, err
		}
		result = n
		samples = append(samples, float64(elapsed))
	}

	t := Timing{Query: query.Name, Runs: h.runs, Result: result}
	if len(samples) == 1 {
		t.Mean = time.Duration(samples[0])
		return t, nil
	}
	mean, std := stat.MeanStdDev(samples, nil)
	t.Mean = time.Duration(mean)
	t.StdDev = time.Duration(std)
	return t, nil
}

// Run measures the query set, builds the indexes, measures again and
// returns the comparison. Any failure aborts the benchmark.
func (h *Harness) Run(ctx context.Context, target Target) (Comparison, error) {
	ctx, span := tracing.Start(ctx, "benchmark")
	defer span.End()

	before, err := h.measureStage(ctx, target, PhaseBefore)
	if err != nil {
		return Comparison{}, err
	}

	h.logger.Info("applying index optimization")
	_, indexSpan := tracing.Start(ctx, "index_build")
	err = target.CreateIndexes(ctx)
	indexSpan.End()
	if err != nil {
		return Comparison{}, err
	}
	indexBuild := indexSpan.Duration

	after, err := h.measureStage(ctx, target, PhaseAfter)
	if err != nil {
		return Comparison{}, err
	}

	cmp := Compare(before, after)
	cmp.Runs = h.runs
	cmp.IndexBuild = indexBuild
	for _, qc := range cmp.Queries {
		h.metrics.QueryImproved(qc.Query, qc.ImprovementPct)
		if !qc.ResultsMatch() {
			h.logger.Warn("query result changed after indexing",
				"query", qc.Query,
				"before", qc.Before.Result,
				"after", qc.After.Result,
			)
		}
	}
	return cmp, nil
}

func (h *Harness) measureStage(ctx context.Context, q Querier, phase string) ([]Timing, error) {
	ctx, span := tracing.Start(ctx, "queries_"+phase)
	defer span.End()
	return h.Measure(ctx, q, phase)
}
