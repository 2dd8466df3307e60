// Package store owns the results table: it recreates the schema, bulk
// inserts scored records one transaction per batch, builds the secondary
// indexes, and runs the read queries the benchmark times.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/Review-Sentiment-Pipeline/internal/sentiment"
	"github.com/Adithya-Monish-Kumar-K/Review-Sentiment-Pipeline/pkg/database"
	apperrors "github.com/Adithya-Monish-Kumar-K/Review-Sentiment-Pipeline/pkg/errors"
	sq "github.com/Masterminds/squirrel"
)

// Table is the name of the results table.
const Table = "results"

var columns = []string{"text", "score", "sentiment", "timestamp"}

// Index names created by CreateIndexes.
const (
	IndexSentiment = "idx_sentiment"
	IndexScore     = "idx_score"
)

var schemas = map[string]string{
	database.DriverSQLite: `
	CREATE TABLE results (
		id        INTEGER PRIMARY KEY AUTOINCREMENT,
		text      TEXT,
		score     INTEGER,
		sentiment TEXT,
		timestamp TEXT
	)`,
	database.DriverPostgres: `
	CREATE TABLE results (
		id        BIGSERIAL PRIMARY KEY,
		text      TEXT,
		score     INTEGER,
		sentiment TEXT,
		timestamp TEXT
	)`,
}

// Row is a stored record with its generated id.
type Row struct {
	ID int64
	sentiment.Record
}

// Store is the single writer, then single reader, of the results table.
type Store struct {
	db        *database.Client
	insertSQL string
	logger    *slog.Logger
}

// New creates a Store over an open database client.
func New(db *database.Client) (*Store, error) {
	placeholders := make([]any, len(columns))
	insertSQL, _, err := db.Builder.Insert(Table).Columns(columns...).Values(placeholders...).ToSql()
	if err != nil {
		return nil, fmt.Errorf("building insert statement: %w", err)
	}
	return &Store{
		db:        db,
		insertSQL: insertSQL,
		logger:    slog.Default().With("component", "store", "driver", db.Driver),
	}, nil
}

// Reset drops the results table, together with its indexes, and creates it
// empty.
func (s *Store) Reset(ctx context.Context) error {
	schema, ok := schemas[s.db.Driver]
	if !ok {
		return apperrors.Newf(apperrors.ErrStore, "no schema for driver %q", s.db.Driver)
	}
	err := s.db.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS `+Table); err != nil {
			return fmt.Errorf("dropping %s: %w", Table, err)
		}
		if _, err := tx.ExecContext(ctx, schema); err != nil {
			return fmt.Errorf("creating %s: %w", Table, err)
		}
		return nil
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStore, err, "resetting schema")
	}
	s.logger.Info("results table recreated")
	return nil
}

// InsertBatch writes records in order inside one transaction. Either the
// whole batch is committed or none of it is.
func (s *Store) InsertBatch(ctx context.Context, records []sentiment.Record) error {
	if len(records) == 0 {
		return nil
	}
	return s.db.InTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, s.insertSQL)
		if err != nil {
			return fmt.Errorf("preparing insert: %w", err)
		}
		defer stmt.Close()

		for i, r := range records {
			if _, err := stmt.ExecContext(ctx, r.Text, r.Score, string(r.Sentiment), r.Timestamp); err != nil {
				return fmt.Errorf("inserting record %d of %d: %w", i+1, len(records), err)
			}
		}
		return nil
	})
}

// CreateIndexes adds the secondary indexes on sentiment and score.
func (s *Store) CreateIndexes(ctx context.Context) error {
	stmts := []string{
		fmt.Sprintf(`CREATE INDEX %s ON %s(sentiment)`, IndexSentiment, Table),
		fmt.Sprintf(`CREATE INDEX %s ON %s(score)`, IndexScore, Table),
	}
	err := s.db.InTx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range stmts {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("%s: %w", stmt, err)
			}
		}
		return nil
	})
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStore, err, "creating indexes")
	}
	s.logger.Info("indexes created", "indexes", []string{IndexSentiment, IndexScore})
	return nil
}

// IndexNames lists the indexes currently defined on the results table,
// excluding the primary key.
func (s *Store) IndexNames(ctx context.Context) ([]string, error) {
	var q sq.SelectBuilder
	switch s.db.Driver {
	case database.DriverPostgres:
		q = s.db.Builder.Select("indexname").From("pg_indexes").
			Where(sq.Eq{"tablename": Table}).
			Where(sq.NotLike{"indexname": "%_pkey"}).
			OrderBy("indexname")
	default:
		q = s.db.Builder.Select("name").From("sqlite_master").
			Where(sq.Eq{"type": "index", "tbl_name": Table}).
			Where(sq.NotLike{"name": "sqlite_autoindex_%"}).
			OrderBy("name")
	}
	rows, err := q.RunWith(s.db.DB).QueryContext(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStore, err, "listing indexes")
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrStore, err, "scanning index name")
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Count returns the number of stored rows.
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.count(ctx, s.db.Builder.Select("COUNT(*)").From(Table))
}

// CountBySentiment returns the number of rows carrying label.
func (s *Store) CountBySentiment(ctx context.Context, label sentiment.Sentiment) (int64, error) {
	return s.count(ctx, s.db.Builder.Select("COUNT(*)").From(Table).Where(sq.Eq{"sentiment": string(label)}))
}

func (s *Store) count(ctx context.Context, q sq.SelectBuilder) (int64, error) {
	var n int64
	if err := q.RunWith(s.db.DB).QueryRowContext(ctx).Scan(&n); err != nil {
		return 0, apperrors.Wrap(apperrors.ErrStore, err, "counting rows")
	}
	return n, nil
}

// ScoreAbove fetches every row whose score is strictly greater than min.
// Rows come back in whatever order the planner picks; with idx_score in
// place that is score order.
func (s *Store) ScoreAbove(ctx context.Context, min int) ([]Row, error) {
	return s.selectRows(ctx, s.scoreAboveQuery(min))
}

// scoreAboveQuery carries no ORDER BY so SQLite can answer it from idx_score.
func (s *Store) scoreAboveQuery(min int) sq.SelectBuilder {
	return s.db.Builder.Select("id", "text", "score", "sentiment", "timestamp").
		From(Table).
		Where(sq.Gt{"score": min})
}

// All fetches every row in id order.
func (s *Store) All(ctx context.Context) ([]Row, error) {
	q := s.db.Builder.Select("id", "text", "score", "sentiment", "timestamp").
		From(Table).
		OrderBy("id")
	return s.selectRows(ctx, q)
}

func (s *Store) selectRows(ctx context.Context, q sq.SelectBuilder) ([]Row, error) {
	rows, err := q.RunWith(s.db.DB).QueryContext(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStore, err, "querying rows")
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var (
			r     Row
			label string
		)
		if err := rows.Scan(&r.ID, &r.Text, &r.Score, &label, &r.Timestamp); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrStore, err, "scanning row")
		}
		r.Sentiment = sentiment.Sentiment(label)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStore, err, "iterating rows")
	}
	return out, nil
}
