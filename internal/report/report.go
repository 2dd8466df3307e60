// Package report renders the outcome of a run for the console and publishes
// it to the optional Redis and Kafka sinks.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Review-Sentiment-Pipeline/internal/benchmark"
	"github.com/Adithya-Monish-Kumar-K/Review-Sentiment-Pipeline/internal/ingest"
	"github.com/Adithya-Monish-Kumar-K/Review-Sentiment-Pipeline/internal/sentiment"
)

// Summary is the JSON document describing one run.
type Summary struct {
	GeneratedAt       time.Time             `json:"generatedAt"`
	Driver            string                `json:"driver"`
	Table             string                `json:"table"`
	Rows              int                   `json:"rows"`
	Chunks            int                   `json:"chunks"`
	ProcessingSeconds float64               `json:"processingSeconds"`
	Labels            map[string]int        `json:"labels"`
	Benchmark         *benchmark.Comparison `json:"benchmark,omitempty"`
}

// NewSummary builds a Summary from an ingestion result and, unless the
// benchmark was skipped, its comparison.
func NewSummary(driver, table string, res ingest.Result, cmp *benchmark.Comparison, at time.Time) Summary {
	labels := make(map[string]int, 3)
	for _, l := range []sentiment.Sentiment{sentiment.Positive, sentiment.Negative, sentiment.Neutral} {
		labels[string(l)] = res.Labels[l]
	}
	return Summary{
		GeneratedAt:       at.UTC(),
		Driver:            driver,
		Table:             table,
		Rows:              res.Rows,
		Chunks:            res.Chunks,
		ProcessingSeconds: res.Elapsed.Seconds(),
		Labels:            labels,
		Benchmark:         cmp,
	}
}

// Write renders s as the console report.
func Write(w io.Writer, s Summary) error {
	ew := &errWriter{w: w}

	ew.printf("\n=== Ingestion ===\n")
	ew.printf("Inserted %d records\n", s.Rows)
	ew.printf("Processing Time: %.2f seconds\n", s.ProcessingSeconds)
	ew.printf("Chunks:          %d\n", s.Chunks)
	ew.printf("Positive:        %d\n", s.Labels[string(sentiment.Positive)])
	ew.printf("Negative:        %d\n", s.Labels[string(sentiment.Negative)])
	ew.printf("Neutral:         %d\n", s.Labels[string(sentiment.Neutral)])

	if s.Benchmark != nil {
		writeComparison(ew, *s.Benchmark)
	}
	return ew.err
}

func writeComparison(ew *errWriter, cmp benchmark.Comparison) {
	ew.printf("\n========== PERFORMANCE COMPARISON ==========\n")
	if cmp.Runs > 1 {
		ew.printf("Runs per query: %d (mean ± stddev)\n", cmp.Runs)
	}
	for _, qc := range cmp.Queries {
		ew.printf("\n%s\n", qc.Query)
		ew.printf("Before Optimization : %s\n", formatTiming(qc.Before, cmp.Runs))
		ew.printf("After Optimization  : %s\n", formatTiming(qc.After, cmp.Runs))
		ew.printf("Performance Improvement : %.2f%%\n", qc.ImprovementPct)
		if !qc.ResultsMatch() {
			ew.printf("WARNING: result changed from %d to %d\n", qc.Before.Result, qc.After.Result)
		}
	}
	ew.printf("\nIndex build: %.4f sec\n", cmp.IndexBuild.Seconds())
}

func formatTiming(t benchmark.Timing, runs int) string {
	if runs > 1 {
		return fmt.Sprintf("%.4f sec ± %.4f", t.Mean.Seconds(), t.StdDev.Seconds())
	}
	return fmt.Sprintf("%.4f sec", t.Mean.Seconds())
}

// errWriter keeps the first write error and drops everything after it.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}
