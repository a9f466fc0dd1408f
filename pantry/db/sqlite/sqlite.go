// db/sqlite/sqlite.go
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// Options configures the SQLite connection.
type Options struct {
	// WALMode enables write-ahead logging. Ignored for in-memory databases.
	WALMode bool
	// BusyTimeout is how long a writer waits on a locked database, in milliseconds.
	BusyTimeout int
	// Synchronous is OFF, NORMAL, FULL or EXTRA.
	Synchronous string
	// MaxOpenConns is kept at 1 by default; SQLite has a single writer.
	MaxOpenConns int
}

// DefaultOptions returns WAL, a 5s busy timeout, NORMAL sync and one connection.
func DefaultOptions() Options {
	return Options{
		WALMode:      true,
		BusyTimeout:  5000,
		Synchronous:  "NORMAL",
		MaxOpenConns: 1,
	}
}

// Connect opens the database at path with DefaultOptions and pings it.
// path may be a file path or ":memory:". The caller closes the *sql.DB.
func Connect(ctx context.Context, path string) (*sql.DB, error) {
	return ConnectWithOptions(ctx, path, DefaultOptions())
}

// ConnectWithOptions is Connect with explicit options.
func ConnectWithOptions(ctx context.Context, path string, opts Options) (*sql.DB, error) {
	memory := path == ":memory:" || strings.Contains(path, "mode=memory")

	db, err := sql.Open("sqlite3", buildDSN(path, opts))
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
		db.SetMaxIdleConns(opts.MaxOpenConns)
	}
	if memory {
		// Each new connection to :memory: is a new, empty database.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite ping: %w", err)
	}
	if !memory && opts.WALMode {
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set journal_mode: %w", err)
		}
	}
	if opts.Synchronous != "" {
		if _, err := db.ExecContext(ctx, "PRAGMA synchronous="+opts.Synchronous); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set synchronous: %w", err)
		}
	}
	return db, nil
}

func buildDSN(path string, opts Options) string {
	q := url.Values{}
	if opts.BusyTimeout > 0 {
		q.Set("_busy_timeout", fmt.Sprint(opts.BusyTimeout))
	}
	if len(q) == 0 {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + q.Encode()
}
