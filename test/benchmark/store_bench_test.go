package benchmark

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	harness "github.com/Adithya-Monish-Kumar-K/Review-Sentiment-Pipeline/internal/benchmark"
	"github.com/Adithya-Monish-Kumar-K/Review-Sentiment-Pipeline/internal/sentiment"
	"github.com/Adithya-Monish-Kumar-K/Review-Sentiment-Pipeline/internal/store"
	"github.com/Adithya-Monish-Kumar-K/Review-Sentiment-Pipeline/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Review-Sentiment-Pipeline/pkg/database"
)

func openStore(b *testing.B) *store.Store {
	b.Helper()
	db, err := database.New(config.StoreConfig{Driver: database.DriverSQLite, Path: filepath.Join(b.TempDir(), "bench.db")})
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { db.Close() })
	s, err := store.New(db)
	if err != nil {
		b.Fatal(err)
	}
	if err := s.Reset(context.Background()); err != nil {
		b.Fatal(err)
	}
	return s
}

func makeBatch(n int) []sentiment.Record {
	c := sentiment.NewClassifier(sentiment.DefaultScorer(), sentiment.DefaultThresholds)
	texts := []string{sampleReviews["short"], sampleReviews["medium"], "it was fine"}
	batch := make([]sentiment.Record, n)
	for i := range batch {
		batch[i] = c.Classify(texts[i%len(texts)], testTime)
	}
	return batch
}

// BenchmarkInsertBatch measures one committed chunk at several chunk sizes.
func BenchmarkInsertBatch(b *testing.B) {
	for _, size := range []int{100, 1000, 10000} {
		b.Run(fmt.Sprintf("chunk_%d", size), func(b *testing.B) {
			s := openStore(b)
			batch := makeBatch(size)
			ctx := context.Background()
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if err := s.InsertBatch(ctx, batch); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkQueries times each benchmark query on 20 000 rows with and
// without the secondary indexes.
func BenchmarkQueries(b *testing.B) {
	for _, indexed := range []bool{false, true} {
		s := openStore(b)
		ctx := context.Background()
		batch := makeBatch(10000)
		for i := 0; i < 2; i++ {
			if err := s.InsertBatch(ctx, batch); err != nil {
				b.Fatal(err)
			}
		}
		if indexed {
			if err := s.CreateIndexes(ctx); err != nil {
				b.Fatal(err)
			}
		}
		for _, q := range harness.DefaultQueries() {
			b.Run(fmt.Sprintf("indexed_%v/%s", indexed, q.Name), func(b *testing.B) {
				b.ReportAllocs()
				for i := 0; i < b.N; i++ {
					if _, err := q.Exec(ctx, s); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}
