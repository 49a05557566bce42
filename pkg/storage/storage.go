package storage

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultDBTimeout is how long a connection waits on a locked database
// before giving up.
const DefaultDBTimeout = 5 * time.Second

// ErrInvalidValue is returned by Set when a value is not a JSON document.
var ErrInvalidValue = errors.New("value is not valid JSON")

type DB struct {
	sql *sql.DB
}

func Open(path string, timeout time.Duration) (*DB, error) {
	if timeout <= 0 {
		timeout = DefaultDBTimeout
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)", path, timeout.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	// Ensure schema exists for convenience.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS settings (
  key        TEXT PRIMARY KEY,
  value      TEXT NOT NULL,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS interceptions (
  id          TEXT PRIMARY KEY,
  occurred_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  source      TEXT NOT NULL CHECK (source IN ('navigation','content','message')),
  url         TEXT NOT NULL,
  domain      TEXT,
  show_name   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_interceptions_time ON interceptions(occurred_at);
CREATE INDEX IF NOT EXISTS idx_interceptions_show ON interceptions(show_name);
    `); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// Get returns the stored values for the requested keys. Keys that were never
// set are simply absent from the result. With no keys, every stored key is
// returned.
func (d *DB) Get(ctx context.Context, keys ...string) (map[string]json.RawMessage, error) {
	q := "SELECT key, value FROM settings"
	args := make([]interface{}, 0, len(keys))
	if len(keys) > 0 {
		q += " WHERE key IN (?" + strings.Repeat(",?", len(keys)-1) + ")"
		for _, k := range keys {
			args = append(args, k)
		}
	}
	q += " ORDER BY key"

	rows, err := d.sql.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]json.RawMessage)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = json.RawMessage(v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Set upserts every key in values inside a single transaction. Values are
// stored in compact form.
func (d *DB) Set(ctx context.Context, values map[string]json.RawMessage) (err error) {
	if len(values) == 0 {
		return nil
	}

	compacted := make(map[string]string, len(values))
	for k, v := range values {
		if k == "" {
			return errors.New("empty settings key")
		}
		var buf bytes.Buffer
		if cerr := json.Compact(&buf, v); cerr != nil {
			return fmt.Errorf("%w: key %q: %v", ErrInvalidValue, k, cerr)
		}
		compacted[k] = buf.String()
	}

	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for k, v := range compacted {
		_, err = tx.ExecContext(ctx, `INSERT INTO settings(key, value, updated_at) VALUES(?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`, k, v)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Clear removes every stored key.
func (d *DB) Clear(ctx context.Context) error {
	_, err := d.sql.ExecContext(ctx, "DELETE FROM settings")
	return err
}
