package archive

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/five82/lookout/internal/logs"
)

//go:embed schema.sql
var schemaSQL string

// Archive is a logs.Writer backed by SQLite in WAL mode.
type Archive struct {
	db *sql.DB
}

var _ logs.Writer = (*Archive)(nil)

// Open creates or opens the archive at path. ":memory:" gives a private
// in-memory archive.
func Open(path string) (*Archive, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect archive: %w", err)
	}

	// One connection: SQLite has a single writer, and :memory: databases are
	// per connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Archive{db: db}, nil
}

// Write appends entries for logger in one transaction.
func (a *Archive) Write(logger string, entries ...logs.Entry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := a.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.Prepare(`INSERT INTO entries
		(logger, received_at, logged_at, type, system, thread, host, source, description, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, e := range entries {
		meta := []byte("{}")
		if len(e.Metadata) > 0 {
			if meta, err = json.Marshal(e.Metadata); err != nil {
				return fmt.Errorf("marshal metadata: %w", err)
			}
		}
		if _, err := stmt.Exec(logger, now, e.Time.UTC().Format(time.RFC3339Nano),
			e.Type, e.System, e.Thread, e.Host, e.Source, e.Description, string(meta)); err != nil {
			return fmt.Errorf("insert entry: %w", err)
		}
	}
	return tx.Commit()
}

// Count returns the number of archived entries for logger, or for every
// logger when logger is empty.
func (a *Archive) Count(ctx context.Context, logger string) (int, error) {
	var n int
	var err error
	if logger == "" {
		err = a.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries`).Scan(&n)
	} else {
		err = a.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entries WHERE logger = ?`, logger).Scan(&n)
	}
	if err != nil {
		return 0, fmt.Errorf("count entries: %w", err)
	}
	return n, nil
}

// Recent returns up to limit of the newest entries for logger, oldest first.
func (a *Archive) Recent(ctx context.Context, logger string, limit int) ([]logs.Entry, error) {
	rows, err := a.db.QueryContext(ctx, `SELECT logged_at, type, system, thread, host, source, description, metadata
		FROM (SELECT * FROM entries WHERE logger = ? ORDER BY seq DESC LIMIT ?)
		ORDER BY seq ASC`, logger, limit)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var out []logs.Entry
	for rows.Next() {
		var (
			e        logs.Entry
			loggedAt string
			meta     string
		)
		if err := rows.Scan(&loggedAt, &e.Type, &e.System, &e.Thread, &e.Host, &e.Source, &e.Description, &meta); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		if e.Time, err = time.Parse(time.RFC3339Nano, loggedAt); err != nil {
			return nil, fmt.Errorf("parse time %q: %w", loggedAt, err)
		}
		if meta != "{}" {
			if err := json.Unmarshal([]byte(meta), &e.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal metadata: %w", err)
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close closes the database.
func (a *Archive) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	return a.db.Close()
}
