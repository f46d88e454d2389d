// Package ledger records completed trims in SQLite so a rendered file is not
// trimmed twice. A file counts as already trimmed while its size and
// modification time match the values recorded after its trim; a re-render
// changes both and clears the guard.
package ledger

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is bumped whenever schema.sql changes incompatibly.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database was created by another version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Record is one completed trim.
type Record struct {
	Path      string
	Onset     float64
	Size      int64
	ModTime   time.Time
	TrimmedAt time.Time
	RunID     string
}

// Ledger is the SQLite-backed trim record.
type Ledger struct {
	db   *sql.DB
	path string
}

// Open creates or opens the ledger database at path.
func Open(ctx context.Context, path string) (*Ledger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create ledger dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	l := &Ledger{db: db, path: path}
	if err := l.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return l, nil
}

// Path returns the database location.
func (l *Ledger) Path() string { return l.path }

// Close closes the underlying database connection.
func (l *Ledger) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

// AlreadyTrimmed reports whether path was trimmed and is unchanged since.
func (l *Ledger) AlreadyTrimmed(ctx context.Context, path string, info os.FileInfo) (Record, bool, error) {
	rec, ok, err := l.Get(ctx, path)
	if err != nil || !ok {
		return rec, false, err
	}
	unchanged := rec.Size == info.Size() && rec.ModTime.Equal(info.ModTime())
	return rec, unchanged, nil
}

// Get loads the record for path.
func (l *Ledger) Get(ctx context.Context, path string) (Record, bool, error) {
	row := l.db.QueryRowContext(ctx,
		`SELECT path, onset, size, mod_time_ns, trimmed_at, run_id FROM trims WHERE path = ?`, path)
	var (
		rec       Record
		modNanos  int64
		trimmedAt string
		runID     sql.NullString
	)
	err := row.Scan(&rec.Path, &rec.Onset, &rec.Size, &modNanos, &trimmedAt, &runID)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("get trim record: %w", err)
	}
	rec.ModTime = time.Unix(0, modNanos)
	rec.RunID = runID.String
	if parsed, perr := time.Parse(time.RFC3339Nano, trimmedAt); perr == nil {
		rec.TrimmedAt = parsed
	}
	return rec, true, nil
}

// Record stores a completed trim of path, capturing its post-trim size and
// modification time.
func (l *Ledger) Record(ctx context.Context, path string, onset float64, runID string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat trimmed file: %w", err)
	}
	_, err = l.db.ExecContext(ctx,
		`INSERT INTO trims (path, onset, size, mod_time_ns, trimmed_at, run_id)
         VALUES (?, ?, ?, ?, ?, ?)
         ON CONFLICT(path) DO UPDATE SET
             onset = excluded.onset,
             size = excluded.size,
             mod_time_ns = excluded.mod_time_ns,
             trimmed_at = excluded.trimmed_at,
             run_id = excluded.run_id`,
		path,
		onset,
		info.Size(),
		info.ModTime().UnixNano(),
		time.Now().UTC().Format(time.RFC3339Nano),
		nullableString(runID),
	)
	if err != nil {
		return fmt.Errorf("record trim: %w", err)
	}
	return nil
}

// List returns every record ordered by path.
func (l *Ledger) List(ctx context.Context) ([]Record, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT path, onset, size, mod_time_ns, trimmed_at, run_id FROM trims ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("list trim records: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec       Record
			modNanos  int64
			trimmedAt string
			runID     sql.NullString
		)
		if err := rows.Scan(&rec.Path, &rec.Onset, &rec.Size, &modNanos, &trimmedAt, &runID); err != nil {
			return nil, fmt.Errorf("scan trim record: %w", err)
		}
		rec.ModTime = time.Unix(0, modNanos)
		rec.RunID = runID.String
		rec.TrimmedAt, _ = time.Parse(time.RFC3339Nano, trimmedAt)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (l *Ledger) initSchema(ctx context.Context) error {
	var tableExists int
	err := l.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists == 0 {
		return l.createSchema(ctx)
	}

	var version int
	if err := l.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: ledger has version %d, expected %d (delete %s to reset)",
			ErrSchemaMismatch, version, schemaVersion, l.path)
	}
	return nil
}

func (l *Ledger) createSchema(ctx context.Context) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	return tx.Commit()
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
