package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/mirrordex/mirrordex/internal/report"
)

// dbFileName is the SQLite file created inside the history directory.
const dbFileName = "mirrordex.db"

// ErrNotFound is returned by Open when CreateIfNotExists is false and
// no database file exists yet. Callers use it to tell "no history yet"
// apart from a genuinely broken database.
var ErrNotFound = errors.New("history database not found")

// HistoryDB provides SQLite-based storage for mirror run history.
// It manages connection pooling and provides methods for recording and
// listing runs.
//
// Design decision: We use a single database file for all mirrored sites
// rather than one file per site. This keeps the history subcommand a
// single query and simplifies backup.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a HistoryDB in the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, dbFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s (use CreateIfNotExists option to create)", ErrNotFound, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite uses mode=rw to prevent creating new files and
	// mode=rwc to allow creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer, so a single connection avoids
	// SQLITE_BUSY under concurrent access.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// Path returns the location of the SQLite database file.
func (hdb *HistoryDB) Path() string {
	return hdb.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HistoryDB) createTables() error {
	schema := `
	-- Run records store one row per mirror invocation
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		root_url TEXT NOT NULL,
		title TEXT,
		started_at DATETIME NOT NULL,
		finished_at DATETIME NOT NULL,
		dirs_crawled INTEGER DEFAULT 0,
		files_downloaded INTEGER DEFAULT 0,
		files_skipped INTEGER DEFAULT 0,
		bytes_downloaded INTEGER DEFAULT 0,
		limit_reached INTEGER DEFAULT 0,
		deferred_subtrees INTEGER DEFAULT 0,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_url ON runs(root_url);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// Run is a stored mirror run record.
type Run struct {
	ID               int64
	RootURL          string
	Title            string
	StartedAt        time.Time
	FinishedAt       time.Time
	DirsCrawled      int
	FilesDownloaded  int
	FilesSkipped     int
	BytesDownloaded  int64
	LimitReached     bool
	DeferredSubtrees int
	Error            string
}

// Duration returns the wall-clock time of the run.
func (r *Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// InsertRun records a finished run and returns its database ID.
func (hdb *HistoryDB) InsertRun(ctx context.Context, summary *report.Summary) (int64, error) {
	query := `
	INSERT INTO runs (root_url, title, started_at, finished_at, dirs_crawled,
		files_downloaded, files_skipped, bytes_downloaded, limit_reached,
		deferred_subtrees, error)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := hdb.db.ExecContext(ctx, query,
		summary.RootURL,
		summary.Title,
		summary.StartedAt.UTC().Format(sqliteTimeLayout),
		summary.FinishedAt.UTC().Format(sqliteTimeLayout),
		summary.DirsCrawled,
		summary.FilesDownloaded,
		summary.FilesSkipped,
		summary.BytesDownloaded,
		boolToInt(summary.LimitReached),
		summary.DeferredSubtrees,
		summary.Error,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run record: %w", err)
	}

	return result.LastInsertId()
}

// ListRuns returns the most recent runs, newest first.
// A limit of zero or less returns every recorded run.
func (hdb *HistoryDB) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `
	SELECT id, root_url, title, started_at, finished_at, dirs_crawled,
		files_downloaded, files_skipped, bytes_downloaded, limit_reached,
		deferred_subtrees, error
	FROM runs
	ORDER BY started_at DESC, id DESC
	`
	args := make([]interface{}, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var results []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, run)
	}

	return results, rows.Err()
}

// ListRunsForURL returns the runs recorded for one root URL, newest first.
func (hdb *HistoryDB) ListRunsForURL(ctx context.Context, rootURL string) ([]Run, error) {
	query := `
	SELECT id, root_url, title, started_at, finished_at, dirs_crawled,
		files_downloaded, files_skipped, bytes_downloaded, limit_reached,
		deferred_subtrees, error
	FROM runs
	WHERE root_url = ?
	ORDER BY started_at DESC, id DESC
	`

	rows, err := hdb.db.QueryContext(ctx, query, rootURL)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var results []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, run)
	}

	return results, rows.Err()
}

// GetRun retrieves a run record by its database ID.
// Returns nil when no run with that ID exists.
func (hdb *HistoryDB) GetRun(ctx context.Context, id int64) (*Run, error) {
	query := `
	SELECT id, root_url, title, started_at, finished_at, dirs_crawled,
		files_downloaded, files_skipped, bytes_downloaded, limit_reached,
		deferred_subtrees, error
	FROM runs
	WHERE id = ?
	`

	run, err := scanRun(hdb.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &run, nil
}

// rowScanner covers both sql.Row and sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanRun reads one run row into a Run value.
func scanRun(s rowScanner) (Run, error) {
	var run Run
	var started, finished string
	var limitReached int
	var errMsg sql.NullString

	err := s.Scan(
		&run.ID,
		&run.RootURL,
		&run.Title,
		&started,
		&finished,
		&run.DirsCrawled,
		&run.FilesDownloaded,
		&run.FilesSkipped,
		&run.BytesDownloaded,
		&limitReached,
		&run.DeferredSubtrees,
		&errMsg,
	)
	if err == sql.ErrNoRows {
		return Run{}, err
	}
	if err != nil {
		return Run{}, fmt.Errorf("failed to scan run record: %w", err)
	}

	run.StartedAt = parseTimestamp(started)
	run.FinishedAt = parseTimestamp(finished)
	run.LimitReached = limitReached != 0
	if errMsg.Valid {
		run.Error = errMsg.String
	}

	return run, nil
}

// sqliteTimeLayout is the datetime format stored in the runs table.
const sqliteTimeLayout = "2006-01-02 15:04:05"

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// boolToInt stores a bool in an INTEGER column.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
