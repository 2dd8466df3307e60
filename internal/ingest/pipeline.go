// Package ingest scores a tabular review source chunk by chunk and commits
// each chunk to the results store as one bulk insert.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Review-Sentiment-Pipeline/internal/sentiment"
	apperrors "github.com/Adithya-Monish-Kumar-K/Review-Sentiment-Pipeline/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Review-Sentiment-Pipeline/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Review-Sentiment-Pipeline/pkg/tracing"
)

// ChunkReader yields source fields in order, one chunk per call, and io.EOF
// when exhausted.
type ChunkReader interface {
	Next() ([]Field, error)
}

// BatchWriter is the results table as seen by the pipeline.
type BatchWriter interface {
	Reset(ctx context.Context) error
	InsertBatch(ctx context.Context, records []sentiment.Record) error
}

// Result summarises one ingestion run.
type Result struct {
	Rows    int
	Chunks  int
	Elapsed time.Duration
	Labels  map[sentiment.Sentiment]int
}

// Pipeline is the single writer of the results table during a run.
type Pipeline struct {
	classifier *sentiment.Classifier
	writer     BatchWriter
	maxRows    int
	metrics    *metrics.Metrics
	now        func() time.Time
	logger     *slog.Logger
}

// Option customises a Pipeline.
type Option func(*Pipeline)

// WithMetrics records progress into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithClock replaces time.Now for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New creates a Pipeline. maxRows caps the rows processed per run; 0 means
// the whole source.
func New(classifier *sentiment.Classifier, writer BatchWriter, maxRows int, opts ...Option) *Pipeline {
	p := &Pipeline{
		classifier: classifier,
		writer:     writer,
		maxRows:    maxRows,
		now:        time.Now,
		logger:     slog.Default().With("component", "pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run recreates the results table, then scores and commits src chunk by
// chunk until the source ends or maxRows rows were processed. On failure the
// returned Result still describes every chunk that was committed.
func (p *Pipeline) Run(ctx context.Context, src ChunkReader) (Result, error) {
	ctx, span := tracing.Start(ctx, "ingest")
	defer span.End()

	res := Result{Labels: make(map[sentiment.Sentiment]int, 3)}
	start := time.Now()

	_, resetSpan := tracing.Start(ctx, "schema_reset")
	err := p.writer.Reset(ctx)
	resetSpan.End()
	if err != nil {
		p.metrics.IngestFailed("reset")
		return p.finish(res, start), err
	}

	for p.maxRows == 0 || res.Rows < p.maxRows {
		if err := ctx.Err(); err != nil {
			return p.finish(res, start), fmt.Errorf("ingestion interrupted after %d rows: %w", res.Rows, err)
		}

		fields, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			p.metrics.IngestFailed("read")
			return p.finish(res, start), err
		}

		if p.maxRows > 0 && len(fields) > p.maxRows-res.Rows {
			fields = fields[:p.maxRows-res.Rows]
		}

		batch, err := p.scoreChunk(fields)
		if err != nil {
			p.metrics.IngestFailed("score")
			return p.finish(res, start), apperrors.Wrap(apperrors.ErrRowProcessing, err,
				fmt.Sprintf("scoring chunk %d", res.Chunks+1))
		}

		insertStart := time.Now()
		if err := p.writer.InsertBatch(ctx, batch); err != nil {
			p.metrics.IngestFailed("insert")
			return p.finish(res, start), apperrors.Wrap(apperrors.ErrRowProcessing, err,
				fmt.Sprintf("inserting chunk %d (%d rows)", res.Chunks+1, len(batch)))
		}
		p.metrics.ChunkCommitted(time.Since(insertStart))

		res.Chunks++
		res.Rows += len(batch)
		for _, r := range batch {
			res.Labels[r.Sentiment]++
			p.metrics.RowScored(string(r.Sentiment))
		}
		p.logger.Info("chunk committed",
			"chunk", res.Chunks,
			"rows", len(batch),
			"total_rows", res.Rows,
			"elapsed_seconds", fmt.Sprintf("%.2f", time.Since(start).Seconds()),
		)
	}

	res = p.finish(res, start)
	span.SetAttr("rows", res.Rows)
	span.SetAttr("chunks", res.Chunks)
	p.logger.Info("ingestion complete",
		"rows", res.Rows,
		"chunks", res.Chunks,
		"processing_seconds", fmt.Sprintf("%.2f", res.Elapsed.Seconds()),
		"positive", res.Labels[sentiment.Positive],
		"negative", res.Labels[sentiment.Negative],
		"neutral", res.Labels[sentiment.Neutral],
	)
	return res, nil
}

func (p *Pipeline) finish(res Result, start time.Time) Result {
	res.Elapsed = time.Since(start)
	return res
}

// scoreChunk classifies every field. A panic in a rule is reported as an
// error for the whole chunk.
func (p *Pipeline) scoreChunk(fields []Field) (batch []sentiment.Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			batch, err = nil, fmt.Errorf("scoring panic: %v", r)
		}
	}()
	batch = make([]sentiment.Record, 0, len(fields))
	for _, f := range fields {
		batch = append(batch, p.classifier.Classify(CoerceText(f.Value, f.OK), p.now()))
	}
	return batch, nil
}
