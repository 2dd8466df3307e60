package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Review-Sentiment-Pipeline/pkg/config"
)

func newSQLite(t *testing.T) *Client {
	t.Helper()
	c, err := New(config.StoreConfig{Driver: DriverSQLite, Path: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestInTxCommitAndRollback(t *testing.T) {
	c := newSQLite(t)
	ctx := context.Background()
	if _, err := c.DB.ExecContext(ctx, `CREATE TABLE t (v INTEGER)`); err != nil {
		t.Fatal(err)
	}

	err := c.InTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO t (v) VALUES (1)`)
		return err
	})
	if err != nil {
		t.Fatalf("InTx commit: %v", err)
	}

	boom := errors.New("boom")
	err = c.InTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO t (v) VALUES (2)`); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("InTx rollback error = %v, want boom", err)
	}

	var n int
	if err := c.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM t`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("rows = %d, want 1 (second insert rolled back)", n)
	}
}

func TestBuilderPlaceholders(t *testing.T) {
	sqlite, _, err := builderFor(DriverSQLite).Select("id").From("results").Where("score > ?", 3).ToSql()
	if err != nil {
		t.Fatal(err)
	}
	if sqlite != "SELECT id FROM results WHERE score > ?" {
		t.Errorf("sqlite sql = %q", sqlite)
	}
	pg, _, err := builderFor(DriverPostgres).Select("id").From("results").Where("score > ?", 3).ToSql()
	if err != nil {
		t.Fatal(err)
	}
	if pg != "SELECT id FROM results WHERE score > $1" {
		t.Errorf("postgres sql = %q", pg)
	}
}

func TestNewUnsupportedDriver(t *testing.T) {
	if _, err := New(config.StoreConfig{Driver: "mysql"}); err == nil {
		t.Fatal("expected error for unsupported driver")
	}
}
