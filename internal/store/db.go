// Package store persists forms, entries, settings and admin accounts over
// database/sql. SQLite is the default backend; a postgres:// DATABASE_URL
// selects Postgres through pgx.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/ivyforms/ivyforms/internal/apperr"
	"github.com/ivyforms/ivyforms/internal/store/migrations"
)

type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// DB wraps a connection pool with the dialect its queries are rebound for.
type DB struct {
	*sql.DB
	dialect Dialect
}

// DialectOf picks the backend for a DATABASE_URL.
func DialectOf(dsn string) Dialect {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return Postgres
	}
	return SQLite
}

// Open connects to dsn and verifies the connection. It does not migrate.
func Open(ctx context.Context, dsn string) (*DB, error) {
	d := DialectOf(dsn)
	var (
		sqlDB *sql.DB
		err   error
	)
	switch d {
	case Postgres:
		sqlDB, err = sql.Open("pgx", dsn)
	default:
		sqlDB, err = sql.Open("sqlite", sqliteDSN(dsn))
		if err == nil {
			// One writer at a time prevents SQLITE_BUSY under concurrent requests
			sqlDB.SetMaxOpenConns(1)
			sqlDB.SetMaxIdleConns(1)
			sqlDB.SetConnMaxLifetime(0)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d, err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping %s: %w", d, err)
	}
	return &DB{DB: sqlDB, dialect: d}, nil
}

func sqliteDSN(dsn string) string {
	dsn = strings.TrimPrefix(dsn, "sqlite://")
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func (db *DB) Dialect() Dialect { return db.dialect }

// Ping satisfies the health check.
func (db *DB) Ping(ctx context.Context) error {
	return db.PingContext(ctx)
}

// Migrate applies all pending embedded migrations for the dialect.
func (db *DB) Migrate() error {
	sourceDriver, err := iofs.New(migrations.FS, string(db.dialect))
	if err != nil {
		return err
	}

	var dbDriver database.Driver
	switch db.dialect {
	case Postgres:
		dbDriver, err = migratepgx.WithInstance(db.DB, &migratepgx.Config{})
	default:
		dbDriver, err = sqlite.WithInstance(db.DB, &sqlite.Config{})
	}
	if err != nil {
		return err
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, string(db.dialect), dbDriver)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// rebind rewrites ? placeholders to $n for Postgres.
func rebind(d Dialect, q string) string {
	if d != Postgres || !strings.Contains(q, "?") {
		return q
	}
	var b strings.Builder
	b.Grow(len(q) + 8)
	n := 0
	for i := 0; i < len(q); i++ {
		if q[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(q[i])
	}
	return b.String()
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn runs rebound queries on either the pool or a transaction.
type conn struct {
	q querier
	d Dialect
}

func (db *DB) conn() conn { return conn{q: db.DB, d: db.dialect} }

func (c conn) exec(ctx context.Context, q string, args ...any) (sql.Result, error) {
	return c.q.ExecContext(ctx, rebind(c.d, q), args...)
}

func (c conn) query(ctx context.Context, q string, args ...any) (*sql.Rows, error) {
	return c.q.QueryContext(ctx, rebind(c.d, q), args...)
}

func (c conn) queryRow(ctx context.Context, q string, args ...any) *sql.Row {
	return c.q.QueryRowContext(ctx, rebind(c.d, q), args...)
}

// insert runs an INSERT and returns the generated id.
func (c conn) insert(ctx context.Context, q string, args ...any) (int64, error) {
	var id int64
	err := c.queryRow(ctx, q+" RETURNING id", args...).Scan(&id)
	return id, err
}

// withTx runs fn in a transaction, rolling back on error.
func (db *DB) withTx(ctx context.Context, fn func(c conn) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return apperr.Query("begin transaction", err)
	}
	if err := fn(conn{q: tx, d: db.dialect}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return apperr.Query("commit transaction", err)
	}
	return nil
}

// notFoundOr maps sql.ErrNoRows to a NotFound error and anything else to a
// Query error.
func notFoundOr(err error, what string, id any) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("%s %v not found", what, id)
	}
	return apperr.Query("load "+what, err)
}

// mustAffect returns NotFound when a write touched no rows.
func mustAffect(res sql.Result, what string, id any) error {
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Query("write "+what, err)
	}
	if n == 0 {
		return apperr.NotFound("%s %v not found", what, id)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func unix(t time.Time) int64 { return t.UTC().Unix() }

func fromUnix(n int64) time.Time { return time.Unix(n, 0).UTC() }
