package ledger

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"mothball/internal/logging"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

// Category classifies why a file was archived. The set is closed; triage
// tooling filters on it.
type Category string

const (
	CategoryDefinitelyObsolete Category = "definitely_obsolete"
	CategoryLikelyObsolete     Category = "likely_obsolete"
	CategoryNeedsReview        Category = "needs_review"
	CategoryConsolidated       Category = "consolidated"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryDefinitelyObsolete, CategoryLikelyObsolete, CategoryNeedsReview, CategoryConsolidated:
		return true
	}
	return false
}

// Status of a record, derived from restored_at.
type Status string

const (
	StatusArchived Status = "archived"
	StatusRestored Status = "restored"
)

// Record represents one archived file. Immutable after creation except for
// the single restored_at transition.
type Record struct {
	ID           string
	OriginalPath string
	ArchivePath  string
	Reason       string
	Category     Category
	ArchivedAt   time.Time
	RestoredAt   *time.Time
}

// Status derives the record state from RestoredAt.
func (r *Record) Status() Status {
	if r.RestoredAt == nil {
		return StatusArchived
	}
	return StatusRestored
}

var (
	// ErrNotFound is returned when no record exists for the given id.
	ErrNotFound = errors.New("record not found")

	// ErrAlreadyRestored is returned when restoring a record whose
	// restored_at is already set.
	ErrAlreadyRestored = errors.New("record already restored")

	// ErrDuplicateActive is returned when an active record already claims
	// the original path.
	ErrDuplicateActive = errors.New("active record already exists for path")
)

const recordColumns = "id, original_path, archive_path, reason, category, archived_at, restored_at"

func scanRecord(row interface{ Scan(...interface{}) error }) (*Record, error) {
	var rec Record
	var restoredAt sql.NullTime
	if err := row.Scan(&rec.ID, &rec.OriginalPath, &rec.ArchivePath, &rec.Reason, &rec.Category, &rec.ArchivedAt, &restoredAt); err != nil {
		return nil, err
	}
	if restoredAt.Valid {
		t := restoredAt.Time
		rec.RestoredAt = &t
	}
	return &rec, nil
}

// RecordArchive creates the record for a freshly archived file. Fails with
// ErrDuplicateActive if an active record already claims originalPath.
func (l *Ledger) RecordArchive(originalPath, archivePath, reason string, category Category) (*Record, error) {
	timer := logging.StartTimer(logging.CategoryLedger, "RecordArchive")
	defer timer.Stop()

	l.mu.Lock()
	defer l.mu.Unlock()

	if !category.Valid() {
		return nil, fmt.Errorf("unknown category %q", category)
	}

	rec := &Record{
		ID:           uuid.NewString(),
		OriginalPath: originalPath,
		ArchivePath:  archivePath,
		Reason:       reason,
		Category:     category,
		ArchivedAt:   time.Now().UTC(),
	}

	logging.LedgerDebug("Recording archive: %s -> %s (category=%s)", originalPath, archivePath, category)

	_, err := l.db.Exec(
		`INSERT INTO archived_files (id, original_path, archive_path, reason, category, archived_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.OriginalPath, rec.ArchivePath, rec.Reason, string(rec.Category), rec.ArchivedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			logging.LedgerDebug("Active record already exists for %s", originalPath)
			return nil, fmt.Errorf("%w: %s", ErrDuplicateActive, originalPath)
		}
		logging.Get(logging.CategoryLedger).Error("Failed to record archive of %s: %v", originalPath, err)
		return nil, fmt.Errorf("failed to record archive: %w", err)
	}

	logging.Ledger("Recorded archive %s: %s (category=%s)", rec.ID, originalPath, category)
	return rec, nil
}

// RecordRestore sets restored_at on the record, exactly once, and returns the
// updated record. Fails with ErrNotFound or ErrAlreadyRestored.
func (l *Ledger) RecordRestore(id string) (*Record, error) {
	timer := logging.StartTimer(logging.CategoryLedger, "RecordRestore")
	defer timer.Stop()

	l.mu.Lock()
	defer l.mu.Unlock()

	tx, err := l.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	rec, err := scanRecord(tx.QueryRow(
		"SELECT "+recordColumns+" FROM archived_files WHERE id = ?", id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to look up record: %w", err)
	}
	if rec.RestoredAt != nil {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyRestored, id)
	}

	now := time.Now().UTC()
	if _, err := tx.Exec(
		"UPDATE archived_files SET restored_at = ? WHERE id = ? AND restored_at IS NULL",
		now, id,
	); err != nil {
		logging.Get(logging.CategoryLedger).Error("Failed to record restore of %s: %v", id, err)
		return nil, fmt.Errorf("failed to record restore: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit restore: %w", err)
	}

	rec.RestoredAt = &now
	logging.Ledger("Recorded restore %s: %s", id, rec.OriginalPath)
	return rec, nil
}

// Find returns the record with the given id, restored or not.
func (l *Ledger) Find(id string) (*Record, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	rec, err := scanRecord(l.db.QueryRow(
		"SELECT "+recordColumns+" FROM archived_files WHERE id = ?", id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to look up record: %w", err)
	}
	return rec, nil
}

// FindActive returns the non-restored record claiming originalPath, or nil
// when the path is not currently archived.
func (l *Ledger) FindActive(originalPath string) (*Record, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	rec, err := scanRecord(l.db.QueryRow(
		"SELECT "+recordColumns+" FROM archived_files WHERE original_path = ? AND restored_at IS NULL",
		originalPath,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to look up active record: %w", err)
	}
	return rec, nil
}

// ListActive returns all non-restored records, newest first.
func (l *Ledger) ListActive() ([]*Record, error) {
	return l.list("SELECT " + recordColumns + " FROM archived_files WHERE restored_at IS NULL ORDER BY archived_at DESC")
}

// ListByCategory returns all records in the category, newest first.
func (l *Ledger) ListByCategory(category Category) ([]*Record, error) {
	return l.list(
		"SELECT "+recordColumns+" FROM archived_files WHERE category = ? ORDER BY archived_at DESC",
		string(category),
	)
}

// ListAll returns the full audit history, newest first.
func (l *Ledger) ListAll() ([]*Record, error) {
	return l.list("SELECT " + recordColumns + " FROM archived_files ORDER BY archived_at DESC")
}

func (l *Ledger) list(query string, args ...interface{}) ([]*Record, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	rows, err := l.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// isUniqueViolation reports whether err is the partial unique index firing.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	// Fallback for wrapped driver errors
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
