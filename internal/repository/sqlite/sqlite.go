// Package sqlite implements the repository interfaces on an embedded SQLite database.
//
// SQLite is the default backend: no server to run, a single file on disk,
// and ":memory:" for tests. The driver is modernc.org/sqlite, a pure Go
// translation of SQLite, so the binary builds without a C toolchain.
//
// SCHEMA MIGRATIONS:
// The schema lives in migrations/*.sql, embedded into the binary with
// embed.FS and applied by goose on every start. goose records applied versions
// in its own table, so re-running New against an existing file is a no-op.
//
// ATOMIC WRITES:
// Every mutation the HTTP API exposes is a single SQL statement:
//   - partial update:  UPDATE memes SET <patch columns>, updated_at = ? WHERE id = ? RETURNING ...
//   - like increment:  UPDATE memes SET likes = likes + 1 ... RETURNING ...
//   - signup:          INSERT ... ON CONFLICT(email) DO NOTHING
//
// No read-modify-write cycles happen in Go, so concurrent requests cannot lose updates.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// DB wraps a sql.DB connection pool and implements MemeRepository and UserRepository.
type DB struct {
	conn   *sql.DB
	logger *slog.Logger
}

// New opens (or creates) the database at dbPath and applies migrations.
//
// dbPath examples:
//   - "data/memes.db" → file-based database (persistent)
//   - ":memory:"      → in-memory database (tests)
//
// IN-MEMORY POOLS:
// Every connection to ":memory:" gets its own empty database. The pool is
// pinned to one connection so migrations and queries see the same tables.
//
// FILE PRAGMAS:
// PRAGMAs are per connection, so for files they go into the DSN and the
// driver applies them to every connection the pool opens. WAL lets readers run
// while a write is in progress; busy_timeout makes a second writer wait
// instead of failing with SQLITE_BUSY.
func New(ctx context.Context, dbPath string, logger *slog.Logger) (*DB, error) {
	dsn := dbPath
	if dbPath != MemoryPath {
		dsn = "file:" + dbPath +
			"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)"
	}

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	if dbPath == MemoryPath {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	if err := migrate(ctx, conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	logger.Info("sqlite store ready", slog.String("path", dbPath))
	return &DB{conn: conn, logger: logger}, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping reports whether the database is reachable. Used by /healthz.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

func migrate(ctx context.Context, conn *sql.DB) error {
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting goose dialect: %w", err)
	}
	return goose.UpContext(ctx, conn, "migrations")
}
