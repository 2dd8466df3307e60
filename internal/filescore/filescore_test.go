package filescore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	apperrors "github.com/Adithya-Monish-Kumar-K/Review-Sentiment-Pipeline/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Review-Sentiment-Pipeline/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func newScorer(t *testing.T, workers int, opts ...Option) *Scorer {
	t.Helper()
	s, err := New(DefaultKeywords, workers, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestScoreFile(t *testing.T) {
	tests := []struct {
		content string
		want    int
	}{
		{"An EXCELLENT product, I am happy.", 5},
		{"excellent excellent excellent", 3},
		{"Disappointing delay in shipping", -4},
		{"Delays everywhere but unhappy? no", 0},
		{"nothing to see here", 0},
		{"", 0},
	}
	s := newScorer(t, 1)
	for i, tt := range tests {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			dir := writeFiles(t, map[string]string{"f.txt": tt.content})
			got, err := s.ScoreFile(filepath.Join(dir, "f.txt"))
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("ScoreFile(%q) = %d, want %d", tt.content, got, tt.want)
			}
		})
	}
}

func TestListFiles(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"b.txt":   "x",
		"a.txt":   "x",
		"c.md":    "x",
		"d.txt.1": "x",
	})
	if err := os.Mkdir(filepath.Join(dir, "sub.txt"), 0o755); err != nil {
		t.Fatal(err)
	}

	files, err := ListFiles(dir, ".txt")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{filepath.Join(dir, "a.txt"), filepath.Join(dir, "b.txt")}
	if fmt.Sprint(files) != fmt.Sprint(want) {
		t.Errorf("files = %v, want %v", files, want)
	}

	_, err = ListFiles(filepath.Join(dir, "missing"), ".txt")
	if !errors.Is(err, apperrors.ErrSourceNotFound) {
		t.Errorf("missing dir = %v, want ErrSourceNotFound", err)
	}
}

func TestSequentialAndParallelAgree(t *testing.T) {
	contents := map[string]string{}
	want := 0
	for i := 0; i < 40; i++ {
		switch i % 4 {
		case 0:
			contents[fmt.Sprintf("r%02d.txt", i)] = "excellent and happy"
			want += 5
		case 1:
			contents[fmt.Sprintf("r%02d.txt", i)] = "a disappointing delay"
			want -= 4
		case 2:
			contents[fmt.Sprintf("r%02d.txt", i)] = "Excellent, despite the delay"
			want += 1
		default:
			contents[fmt.Sprintf("r%02d.txt", i)] = "fine"
		}
	}
	dir := writeFiles(t, contents)
	files, err := ListFiles(dir, ".txt")
	if err != nil {
		t.Fatal(err)
	}

	m := metrics.New(prometheus.NewRegistry())
	s := newScorer(t, 4, WithMetrics(m))
	cmp, err := s.Compare(context.Background(), files)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if cmp.Sequential.Total != want || cmp.Parallel.Total != want {
		t.Errorf("totals = %d / %d, want %d", cmp.Sequential.Total, cmp.Parallel.Total, want)
	}
	if cmp.Sequential.Files != 40 || cmp.Parallel.Files != 40 || cmp.Workers != 4 {
		t.Errorf("comparison = %+v", cmp)
	}
	if got := testutil.ToFloat64(m.FilesScoredTotal.WithLabelValues(ModeParallel)); got != 40 {
		t.Errorf("parallel files metric = %v, want 40", got)
	}
}

func TestParallelFailsWithoutPartialTotal(t *testing.T) {
	dir := writeFiles(t, map[string]string{"a.txt": "excellent", "b.txt": "happy"})
	files := []string{
		filepath.Join(dir, "a.txt"),
		filepath.Join(dir, "gone.txt"),
		filepath.Join(dir, "b.txt"),
	}
	res, err := newScorer(t, 2).Parallel(context.Background(), files)
	if !errors.Is(err, apperrors.ErrSourceRead) {
		t.Fatalf("err = %v, want ErrSourceRead", err)
	}
	if res != (Result{}) {
		t.Errorf("partial result returned: %+v", res)
	}
}

func TestEmptyFileSet(t *testing.T) {
	s := newScorer(t, 0)
	if s.Workers() < 1 {
		t.Errorf("workers = %d", s.Workers())
	}
	cmp, err := s.Compare(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if cmp.Sequential.Total != 0 || cmp.Parallel.Files != 0 {
		t.Errorf("comparison = %+v", cmp)
	}
}

func TestCancelledContext(t *testing.T) {
	dir := writeFiles(t, map[string]string{"a.txt": "excellent"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := newScorer(t, 1).Sequential(ctx, []string{filepath.Join(dir, "a.txt")}); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestSpeedup(t *testing.T) {
	c := Comparison{
		Sequential: Result{Elapsed: 4e9},
		Parallel:   Result{Elapsed: 1e9},
	}
	if got := c.Speedup(); got != 4 {
		t.Errorf("Speedup = %v, want 4", got)
	}
	if got := (Comparison{}).Speedup(); got != 0 {
		t.Errorf("zero Speedup = %v", got)
	}
}
