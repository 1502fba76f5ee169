package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/urlmap/internal/model"
)

// dbFileName is the database file created inside the data directory.
const dbFileName = "urlmap.db"

// DiscoveryDB provides SQLite-based storage for discovery runs.
// It manages connection pooling and provides methods for saving and
// querying runs.
//
// Design decision: We use a single database file for all runs rather
// than one file per run. This keeps historical queries (all runs for a
// domain) simple and makes backup/restore a single-file operation.
type DiscoveryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures DiscoveryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent
	// performance. This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a DiscoveryDB in the given directory.
// If CreateIfNotExists is false and the database doesn't exist, an
// error is returned.
func Open(dbDir string, opts Options) (*DiscoveryDB, error) {
	dbPath := filepath.Join(dbDir, dbFileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s", dbPath)
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
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	ddb := &DiscoveryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := ddb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return ddb, nil
}

// Close closes the database connection.
func (ddb *DiscoveryDB) Close() error {
	return ddb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (ddb *DiscoveryDB) createTables() error {
	schema := `
	-- Runs store one row per discovery run
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		base_domain TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		duration_seconds REAL NOT NULL,
		total_urls INTEGER NOT NULL,
		llm_keywords_generated INTEGER NOT NULL DEFAULT 0,
		stats TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_domain ON runs(base_domain);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- URLs store the records each run discovered
	CREATE TABLE IF NOT EXISTS urls (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
		url TEXT NOT NULL,
		source_url TEXT,
		phases TEXT NOT NULL,
		first_seen DATETIME NOT NULL,
		in_scope INTEGER NOT NULL DEFAULT 1,
		status INTEGER NOT NULL DEFAULT 0,
		UNIQUE(run_id, url)
	);

	CREATE INDEX IF NOT EXISTS idx_urls_run ON urls(run_id);
	CREATE INDEX IF NOT EXISTS idx_urls_url ON urls(url);
	`

	_, err := ddb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveResult persists a complete discovery result in one transaction.
// Saving the same run twice updates the run row and upserts its URLs.
func (ddb *DiscoveryDB) SaveResult(ctx context.Context, result *model.DiscoveryResult) error {
	statsJSON, err := json.Marshal(result.PhaseStats)
	if err != nil {
		return fmt.Errorf("failed to serialize stats: %w", err)
	}

	tx, err := ddb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	runQuery := `
	INSERT INTO runs (run_id, base_domain, started_at, duration_seconds, total_urls, llm_keywords_generated, stats)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(run_id) DO UPDATE SET
		duration_seconds = excluded.duration_seconds,
		total_urls = excluded.total_urls,
		llm_keywords_generated = excluded.llm_keywords_generated,
		stats = excluded.stats
	`
	if _, err := tx.ExecContext(ctx, runQuery,
		result.RunID,
		result.BaseDomain,
		result.StartedAt.UTC().Format(time.RFC3339Nano),
		result.DiscoveryTimeSeconds(),
		result.TotalURLs,
		result.LLMKeywordsGenerated,
		string(statsJSON),
	); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	urlQuery := `
	INSERT INTO urls (run_id, url, source_url, phases, first_seen, in_scope, status)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(run_id, url) DO UPDATE SET
		phases = excluded.phases,
		status = excluded.status
	`
	for _, rec := range result.URLs {
		phasesJSON, err := json.Marshal(rec.Phases)
		if err != nil {
			return fmt.Errorf("failed to serialize phases: %w", err)
		}
		if _, err := tx.ExecContext(ctx, urlQuery,
			result.RunID,
			rec.URL,
			rec.SourceURL,
			string(phasesJSON),
			rec.FirstSeen.UTC().Format(time.RFC3339Nano),
			boolToInt(rec.InScope),
			rec.Status,
		); err != nil {
			return fmt.Errorf("failed to insert url %s: %w", rec.URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// RunSummary is a stored run's metadata without its URL list.
type RunSummary struct {
	RunID                string
	BaseDomain           string
	StartedAt            time.Time
	DurationSeconds      float64
	TotalURLs            int
	LLMKeywordsGenerated int
}

// ListRuns returns stored runs for a domain, newest first. An empty
// domain lists every run.
func (ddb *DiscoveryDB) ListRuns(ctx context.Context, baseDomain string) ([]RunSummary, error) {
	query := `
	SELECT run_id, base_domain, started_at, duration_seconds, total_urls, llm_keywords_generated
	FROM runs
	`
	args := []any{}
	if baseDomain != "" {
		query += " WHERE base_domain = ?"
		args = append(args, baseDomain)
	}
	query += " ORDER BY started_at DESC"

	rows, err := ddb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var run RunSummary
		var started string
		if err := rows.Scan(
			&run.RunID,
			&run.BaseDomain,
			&started,
			&run.DurationSeconds,
			&run.TotalURLs,
			&run.LLMKeywordsGenerated,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.StartedAt = parseTimestamp(started)
		out = append(out, run)
	}
	return out, rows.Err()
}

// GetRunURLs returns the URL records stored for a run, in insertion
// order.
func (ddb *DiscoveryDB) GetRunURLs(ctx context.Context, runID string) ([]*model.URLRecord, error) {
	query := `
	SELECT url, source_url, phases, first_seen, in_scope, status
	FROM urls
	WHERE run_id = ?
	ORDER BY id
	`

	rows, err := ddb.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query urls: %w", err)
	}
	defer rows.Close()

	var out []*model.URLRecord
	for rows.Next() {
		var rec model.URLRecord
		var phasesJSON, firstSeen string
		var inScope int
		if err := rows.Scan(
			&rec.URL,
			&rec.SourceURL,
			&phasesJSON,
			&firstSeen,
			&inScope,
			&rec.Status,
		); err != nil {
			return nil, fmt.Errorf("failed to scan url: %w", err)
		}
		if err := json.Unmarshal([]byte(phasesJSON), &rec.Phases); err != nil {
			return nil, fmt.Errorf("failed to parse phases: %w", err)
		}
		rec.FirstSeen = parseTimestamp(firstSeen)
		rec.InScope = inScope != 0
		out = append(out, &rec)
	}
	return out, rows.Err()
}

// parseTimestamp handles the timestamp formats SQLite may return.
func parseTimestamp(s string) time.Time {
	for _, layout := range []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02T15:04:05Z",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
