// Package storage opens the SQLite database shared by the newsmap stores.
package storage

import (
	"fmt"
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// Open opens the SQLite database at path. Several stores open the same file,
// so writes wait on a busy database instead of failing immediately.
func Open(path string) (*sqlx.DB, error) {
	dsn := (&url.URL{
		Path: path,
		RawQuery: (url.Values{
			"_journal":      {"WAL"},
			"_busy_timeout": {"5000"},
			"_foreign_keys": {"on"},
		}).Encode(),
	}).String()

	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// timeLayout is RFC 3339 with a fixed-width fraction, so stored timestamps
// sort lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// FormatTime formats t for storage. A nil time is stored as NULL.
func FormatTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	// Strip monotonic clock for consistent storage and comparisons
	return t.Truncate(0).UTC().Format(timeLayout)
}

// ParseTime parses a stored timestamp. Unparseable values yield the zero time.
func ParseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		t, _ = time.Parse(time.RFC3339, s)
	}
	return t.Truncate(0)
}
