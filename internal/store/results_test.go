package store

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Review-Sentiment-Pipeline/internal/sentiment"
	"github.com/Adithya-Monish-Kumar-K/Review-Sentiment-Pipeline/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Review-Sentiment-Pipeline/pkg/database"
	apperrors "github.com/Adithya-Monish-Kumar-K/Review-Sentiment-Pipeline/pkg/errors"
	sq "github.com/Masterminds/squirrel"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.New(config.StoreConfig{Driver: database.DriverSQLite, Path: filepath.Join(t.TempDir(), "results.db")})
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	s, err := New(db)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.Reset(context.Background()); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	return s
}

func rec(text string, score int) sentiment.Record {
	return sentiment.Record{
		Text:      text,
		Score:     score,
		Sentiment: sentiment.Label(score),
		Timestamp: "2024-01-02 03:04:05",
	}
}

func TestInsertBatchPreservesOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	batch := []sentiment.Record{rec("a", 5), rec("b", -2), rec("c", 0), rec("d", 4)}
	if err := s.InsertBatch(ctx, batch); err != nil {
		t.Fatalf("InsertBatch: %v", err)
	}
	if err := s.InsertBatch(ctx, nil); err != nil {
		t.Fatalf("empty InsertBatch: %v", err)
	}

	rows, err := s.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(rows) != len(batch) {
		t.Fatalf("rows = %d, want %d", len(rows), len(batch))
	}
	for i, r := range rows {
		if r.ID != int64(i+1) {
			t.Errorf("row %d id = %d", i, r.ID)
		}
		if r.Record != batch[i] {
			t.Errorf("row %d = %+v, want %+v", i, r.Record, batch[i])
		}
	}
}

func TestCountsAndScoreAbove(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if err := s.InsertBatch(ctx, []sentiment.Record{rec("a", 5), rec("b", -2), rec("c", 0), rec("d", 4), rec("e", 3)}); err != nil {
		t.Fatal(err)
	}

	pos, err := s.CountBySentiment(ctx, sentiment.Positive)
	if err != nil || pos != 3 {
		t.Errorf("positive = %d, %v; want 3", pos, err)
	}
	neg, err := s.CountBySentiment(ctx, sentiment.Negative)
	if err != nil || neg != 1 {
		t.Errorf("negative = %d, %v; want 1", neg, err)
	}
	total, err := s.Count(ctx)
	if err != nil || total != 5 {
		t.Errorf("total = %d, %v; want 5", total, err)
	}

	above, err := s.ScoreAbove(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	var texts []string
	for _, r := range above {
		texts = append(texts, r.Text)
	}
	sort.Strings(texts)
	if !reflect.DeepEqual(texts, []string{"a", "d"}) {
		t.Errorf("ScoreAbove(3) = %v, want [a d]", texts)
	}
}

func TestCreateIndexesAndReset(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	names, err := s.IndexNames(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 0 {
		t.Fatalf("fresh table has indexes %v", names)
	}

	if err := s.CreateIndexes(ctx); err != nil {
		t.Fatalf("CreateIndexes: %v", err)
	}
	names, err = s.IndexNames(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(names, []string{IndexScore, IndexSentiment}) {
		t.Errorf("indexes = %v", names)
	}

	err = s.CreateIndexes(ctx)
	if !errors.Is(err, apperrors.ErrStore) {
		t.Errorf("second CreateIndexes = %v, want ErrStore", err)
	}

	if err := s.InsertBatch(ctx, []sentiment.Record{rec("x", 1)}); err != nil {
		t.Fatal(err)
	}
	if err := s.Reset(ctx); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if n, _ := s.Count(ctx); n != 0 {
		t.Errorf("count after reset = %d", n)
	}
	if names, _ := s.IndexNames(ctx); len(names) != 0 {
		t.Errorf("indexes after reset = %v", names)
	}
}

func TestInsertBatchRollsBackOnCancel(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.InsertBatch(ctx, []sentiment.Record{rec("a", 1), rec("b", 2)}); err == nil {
		t.Fatal("expected error with cancelled context")
	}
	if n, err := s.Count(context.Background()); err != nil || n != 0 {
		t.Errorf("count = %d, %v; want 0", n, err)
	}
}

func queryPlan(t *testing.T, s *Store, q sq.SelectBuilder) string {
	t.Helper()
	query, args, err := q.ToSql()
	if err != nil {
		t.Fatal(err)
	}
	rows, err := s.db.DB.QueryContext(context.Background(), "EXPLAIN QUERY PLAN "+query, args...)
	if err != nil {
		t.Fatalf("explain: %v", err)
	}
	defer rows.Close()

	var steps []string
	for rows.Next() {
		var (
			id, parent, notUsed int
			detail              string
		)
		if err := rows.Scan(&id, &parent, &notUsed, &detail); err != nil {
			t.Fatal(err)
		}
		steps = append(steps, detail)
	}
	if err := rows.Err(); err != nil {
		t.Fatal(err)
	}
	return strings.Join(steps, "; ")
}

func TestScoreAboveUsesScoreIndex(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	batch := make([]sentiment.Record, 0, 2000)
	wantAbove := 0
	for i := 0; i < 2000; i++ {
		score := i%11 - 5
		if score > 3 {
			wantAbove++
		}
		batch = append(batch, rec("review", score))
	}
	if err := s.InsertBatch(ctx, batch); err != nil {
		t.Fatal(err)
	}

	if plan := queryPlan(t, s, s.scoreAboveQuery(3)); !strings.Contains(plan, "SCAN") {
		t.Errorf("plan before indexing = %q, want a table scan", plan)
	}
	if err := s.CreateIndexes(ctx); err != nil {
		t.Fatal(err)
	}
	if plan := queryPlan(t, s, s.scoreAboveQuery(3)); !strings.Contains(plan, "USING INDEX "+IndexScore) {
		t.Errorf("plan after indexing = %q, want a search on %s", plan, IndexScore)
	}

	above, err := s.ScoreAbove(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range above {
		if r.Score <= 3 {
			t.Fatalf("ScoreAbove(3) returned score %d", r.Score)
		}
	}
	if len(above) != wantAbove {
		t.Errorf("ScoreAbove(3) = %d rows, want %d", len(above), wantAbove)
	}
}
