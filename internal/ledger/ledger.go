// Package ledger is the authoritative record of every archive and restore
// action. It owns the SQLite database and enforces the ledger invariants; it
// never touches the files themselves.
package ledger

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"mothball/internal/logging"

	_ "github.com/mattn/go-sqlite3"
)

// Ledger provides data access over the archive history database.
// All mutation goes through a single connection serialized by mu; the
// partial unique index on original_path backs the one-active-record
// invariant even if a second process writes concurrently.
type Ledger struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// Open initializes the SQLite database at the given path.
func Open(path string) (*Ledger, error) {
	timer := logging.StartTimer(logging.CategoryLedger, "Open")
	defer timer.Stop()

	logging.Ledger("Opening ledger at path: %s", path)

	// Ensure directory exists
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.LedgerDebug("Failed to set sqlite busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.LedgerDebug("Failed to set sqlite journal_mode=WAL: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		logging.LedgerDebug("Failed to set sqlite synchronous=NORMAL: %v", err)
	}

	l := &Ledger{db: db, dbPath: path}
	if err := l.initialize(); err != nil {
		logging.Get(logging.CategoryLedger).Error("Failed to initialize schema: %v", err)
		db.Close()
		return nil, err
	}
	logging.LedgerDebug("Ledger schema initialized")

	return l, nil
}

// initialize creates the required tables.
func (l *Ledger) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS archived_files (
		id TEXT PRIMARY KEY,
		original_path TEXT NOT NULL,
		archive_path TEXT NOT NULL,
		reason TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL,
		archived_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		restored_at DATETIME
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_archived_files_active
		ON archived_files(original_path) WHERE restored_at IS NULL;
	CREATE INDEX IF NOT EXISTS idx_archived_files_category
		ON archived_files(category);
	`
	if _, err := l.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.db.Close()
}

// GetDB exposes the underlying handle for tests and tooling.
func (l *Ledger) GetDB() *sql.DB {
	return l.db
}

// Stats reports per-category record counts.
type Stats struct {
	Active   map[Category]int
	Restored map[Category]int
	Total    int
}

// GetStats returns per-category counts for the triage summary.
func (l *Ledger) GetStats() (Stats, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	stats := Stats{
		Active:   make(map[Category]int),
		Restored: make(map[Category]int),
	}

	rows, err := l.db.Query(
		"SELECT category, restored_at IS NOT NULL, COUNT(*) FROM archived_files GROUP BY category, restored_at IS NOT NULL",
	)
	if err != nil {
		return stats, fmt.Errorf("failed to query stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var category Category
		var restored bool
		var count int
		if err := rows.Scan(&category, &restored, &count); err != nil {
			continue
		}
		if restored {
			stats.Restored[category] = count
		} else {
			stats.Active[category] = count
		}
		stats.Total += count
	}

	return stats, rows.Err()
}
