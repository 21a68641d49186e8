// Package store is the sqlite-backed implementation of the persistence
// contract (spec §6): listings/snapshots, per-kind event tables,
// opportunities, pipeline runs, the token budget, the niche registry,
// review signals, sourcing quotes and spec bundles. It is grounded on
// aristath/sentinel's internal/database package: same DB wrapper shape,
// same WAL-mode connection string, same WithTransaction helper, adapted
// from three profiled embedded databases to one standard-profile database
// carrying every Smartacus table.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Config configures a new DB (spec §6 "Store").
type Config struct {
	Path    string
	PoolMin int
	PoolMax int
}

// DB wraps the sqlite connection with the pragmas and pool tuning the
// teacher's standard profile applies.
type DB struct {
	conn *sql.DB
	path string
}

// Open creates (or opens) the database file at cfg.Path, applies pragmas,
// tunes the connection pool, and runs the schema migration.
func Open(cfg Config) (*DB, error) {
	if !strings.HasPrefix(cfg.Path, "file:") {
		absPath, err := filepath.Abs(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("resolve database path: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		cfg.Path = absPath
	}

	connStr := cfg.Path +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=foreign_keys(1)" +
		"&_pragma=temp_store(MEMORY)" +
		"&_pragma=cache_size(-64000)"

	conn, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	poolMax := cfg.PoolMax
	if poolMax <= 0 {
		poolMax = 10
	}
	poolMin := cfg.PoolMin
	if poolMin <= 0 {
		poolMin = 2
	}
	conn.SetMaxOpenConns(poolMax)
	conn.SetMaxIdleConns(poolMin)
	conn.SetConnMaxLifetime(1 * time.Hour)
	conn.SetConnMaxIdleTime(10 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	db := &DB{conn: conn, path: cfg.Path}
	if err := db.migrate(ctx); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, nil
}

// Close closes the underlying connection.
func (db *DB) Close() error { return db.conn.Close() }

// Conn returns the underlying *sql.DB, for callers that need raw access.
func (db *DB) Conn() *sql.DB { return db.conn }

func (db *DB) migrate(ctx context.Context) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		_ = tx.Rollback()
		if strings.Contains(err.Error(), "already exists") {
			return nil
		}
		return err
	}
	return tx.Commit()
}

type txKey struct{}

// WithTransaction begins a transaction, runs fn with a context carrying it,
// and commits on success or rolls back on error/panic (spec §6, matching
// aristath/sentinel's database.WithTransaction).
func (db *DB) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			err = fmt.Errorf("panic in transaction: %v", p)
			return
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		err = tx.Commit()
	}()

	err = fn(context.WithValue(ctx, txKey{}, tx))
	return err
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// q returns the in-flight transaction from ctx if WithTransaction is active,
// else the pooled connection.
func (db *DB) q(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return db.conn
}
