// Package sql is the only store.Store implementation: raw SQL against
// either MySQL (production, for its SELECT ... FOR UPDATE SKIP LOCKED
// support) or SQLite (dev and tests), grounded on reva's
// pkg/cbox/share/sql package's style of hand-written queries over
// database/sql rather than an ORM.
package sql

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

// Config is decoded from the process environment by pkg/config.
type Config struct {
	Driver string `mapstructure:"driver"` // "mysql" or "sqlite3"
	DSN    string `mapstructure:"dsn"`
}

// DB is the concrete store.Store. It satisfies every entity-group
// interface declared in pkg/store; see users.go, apps.go, etc.
type DB struct {
	conn *sql.DB
	d    dialect
}

// Open connects and applies the schema. Safe to call against an already
// migrated database: every statement is IF NOT EXISTS.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	conn, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, errors.Wrap(err, "sql: opening database")
	}
	if err := conn.PingContext(ctx); err != nil {
		return nil, errors.Wrap(err, "sql: pinging database")
	}
	db := &DB{conn: conn, d: dialectFor(cfg.Driver)}
	if err := db.migrate(ctx); err != nil {
		return nil, err
	}
	return db, nil
}

func (db *DB) migrate(ctx context.Context) error {
	for _, stmt := range schemaFor(db.d) {
		if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
			return errors.Wrapf(err, "sql: applying schema statement %q", stmt)
		}
	}
	return nil
}

func (db *DB) Close() error { return db.conn.Close() }

// txKey carries the active *sql.Tx through context so entity methods can
// transparently run inside or outside WithSerializableTx.
type txKey struct{}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (db *DB) q(ctx context.Context) querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return db.conn
}

// WithSerializableTx runs fn with a *sql.Tx threaded through ctx, opened
// at serializable isolation (MySQL's default would be REPEATABLE READ;
// SQLite transactions are serializable already).
func (db *DB) WithSerializableTx(ctx context.Context, fn func(ctx context.Context) error) error {
	tx, err := db.conn.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return errors.Wrap(err, "sql: beginning transaction")
	}
	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Wrapf(err, "sql: rollback failed (%v) after", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "sql: committing transaction")
	}
	return nil
}

func forUpdateSuffix() string { return " FOR UPDATE" }

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return containsAny(msg, "Duplicate entry", "UNIQUE constraint failed", "constraint failed")
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if len(s) >= len(sub) && indexOf(s, sub) >= 0 {
			return true
		}
	}
	return false
}

func indexOf(s, sub string) int {
	n, m := len(s), len(sub)
	for i := 0; i+m <= n; i++ {
		if s[i:i+m] == sub {
			return i
		}
	}
	return -1
}
