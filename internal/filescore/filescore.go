// Package filescore scores whole text files with a small keyword table, once
// sequentially and once on a bounded worker pool, and compares the two runs.
package filescore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Review-Sentiment-Pipeline/internal/sentiment"
	apperrors "github.com/Adithya-Monish-Kumar-K/Review-Sentiment-Pipeline/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Review-Sentiment-Pipeline/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// Mode names.
const (
	ModeSequential = "sequential"
	ModeParallel   = "parallel"
)

// DefaultKeywords are matched as plain substrings of the lowercased file
// content. Each keyword counts at most once per file.
var DefaultKeywords = map[string]int{
	"excellent":     3,
	"disappointing": -2,
	"happy":         2,
	"delay":         -2,
}

// Result is the outcome of scoring a file set in one mode.
type Result struct {
	Mode    string        `json:"mode"`
	Files   int           `json:"files"`
	Total   int           `json:"total"`
	Elapsed time.Duration `json:"elapsedNanos"`
}

// Comparison holds both runs over the same files.
type Comparison struct {
	Sequential Result `json:"sequential"`
	Parallel   Result `json:"parallel"`
	Workers    int    `json:"workers"`
}

// Speedup is sequential time over parallel time, 0 when either is zero.
func (c Comparison) Speedup() float64 {
	if c.Sequential.Elapsed <= 0 || c.Parallel.Elapsed <= 0 {
		return 0
	}
	return c.Sequential.Elapsed.Seconds() / c.Parallel.Elapsed.Seconds()
}

// Scorer scores files. It holds no per-file state and is safe to share
// between workers.
type Scorer struct {
	scorer  *sentiment.Scorer
	workers int
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// Option customises a Scorer.
type Option func(*Scorer)

// WithMetrics records run totals into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Scorer) { s.metrics = m }
}

// New builds a Scorer over keywords. workers below 1 means one per CPU.
func New(keywords map[string]int, workers int, opts ...Option) (*Scorer, error) {
	quoted := make(map[string]int, len(keywords))
	for kw, w := range keywords {
		quoted[regexp.QuoteMeta(strings.ToLower(kw))] += w
	}
	table, err := sentiment.NewPatternTable(quoted)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidConfig, err, "building keyword table")
	}
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	s := &Scorer{
		scorer:  sentiment.NewScorer(sentiment.NewLexicon(nil, nil), table),
		workers: workers,
		logger:  slog.Default().With("component", "filescore"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Workers returns the pool size used by Parallel.
func (s *Scorer) Workers() int { return s.workers }

// ListFiles returns the regular files in dir whose name ends with ext, in
// name order. Subdirectories are not searched.
func ListFiles(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.Wrap(apperrors.ErrSourceNotFound, err, dir)
		}
		return nil, apperrors.Wrap(apperrors.ErrSourceRead, err, dir)
	}
	var files []string
	for _, e := range entries {
		if !e.Type().IsRegular() || !strings.HasSuffix(e.Name(), ext) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// ScoreFile reads path and returns its keyword score.
func (s *Scorer) ScoreFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrSourceRead, err, path)
	}
	score := s.scorer.Score(string(data))
	s.logger.Debug("file scored", "file", filepath.Base(path), "score", score)
	return score, nil
}

// Sequential scores files one after another.
func (s *Scorer) Sequential(ctx context.Context, files []string) (Result, error) {
	start := time.Now()
	total := 0
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		score, err := s.ScoreFile(f)
		if err != nil {
			return Result{}, err
		}
		total += score
	}
	return s.finish(ModeSequential, len(files), total, start), nil
}

// Parallel scores files on at most Workers goroutines. Every file gets its
// own slot and the slots are summed once all workers are done, so the total
// equals the sequential one. The first failure cancels the remaining files
// and no partial total is returned.
func (s *Scorer) Parallel(ctx context.Context, files []string) (Result, error) {
	start := time.Now()
	scores := make([]int, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, f := range files {
		i, f := i, f // per-iteration copies (go directive is 1.21)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			score, err := s.ScoreFile(f)
			if err != nil {
				return err
			}
			scores[i] = score
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	total := 0
	for _, sc := range scores {
		total += sc
	}
	return s.finish(ModeParallel, len(files), total, start), nil
}

// Compare runs Sequential then Parallel over the same files.
func (s *Scorer) Compare(ctx context.Context, files []string) (Comparison, error) {
	seq, err := s.Sequential(ctx, files)
	if err != nil {
		return Comparison{}, fmt.Errorf("sequential run: %w", err)
	}
	par, err := s.Parallel(ctx, files)
	if err != nil {
		return Comparison{}, fmt.Errorf("parallel run: %w", err)
	}
	if seq.Total != par.Total {
		s.logger.Warn("totals differ between modes", "sequential", seq.Total, "parallel", par.Total)
	}
	return Comparison{Sequential: seq, Parallel: par, Workers: s.workers}, nil
}

func (s *Scorer) finish(mode string, files, total int, start time.Time) Result {
	r := Result{Mode: mode, Files: files, Total: total, Elapsed: time.Since(start)}
	s.metrics.FilesScored(mode, files, r.Elapsed)
	s.logger.Info("run complete",
		"mode", mode,
		"files", files,
		"total_score", total,
		"seconds", fmt.Sprintf("%.2f", r.Elapsed.Seconds()),
	)
	return r
}
