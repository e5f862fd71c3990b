// Package archive coordinates physical file moves with ledger writes. It is
// the only code allowed to touch both, and it keeps them consistent: the
// ledger write is always the final step, and a failed write triggers a
// compensating move back.
package archive

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"mothball/internal/config"
	"mothball/internal/ledger"
	"mothball/internal/logging"
	"mothball/internal/scan"
)

// Journal is the slice of the ledger the coordinator needs. *ledger.Ledger
// satisfies it; tests substitute failing implementations.
type Journal interface {
	FindActive(originalPath string) (*ledger.Record, error)
	Find(id string) (*ledger.Record, error)
	RecordArchive(originalPath, archivePath, reason string, category ledger.Category) (*ledger.Record, error)
	RecordRestore(id string) (*ledger.Record, error)
	ListActive() ([]*ledger.Record, error)
}

// Coordinator orchestrates archive and restore operations.
type Coordinator struct {
	cfg     *config.Config
	journal Journal
	scanner *scan.Scanner

	// Serializes mutations per normalized original path so two callers can
	// never archive the same file into two different locations.
	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	// now is overridable for tests.
	now func() time.Time
}

// New creates a Coordinator backed by the given journal.
func New(cfg *config.Config, journal Journal) *Coordinator {
	return &Coordinator{
		cfg:     cfg,
		journal: journal,
		scanner: scan.New(cfg),
		locks:   make(map[string]*sync.Mutex),
		now:     time.Now,
	}
}

func (c *Coordinator) pathLock(path string) *sync.Mutex {
	c.locksMu.Lock()
	defer c.locksMu.Unlock()
	if mu, ok := c.locks[path]; ok {
		return mu
	}
	mu := &sync.Mutex{}
	c.locks[path] = mu
	return mu
}

// Archive moves the candidate into the archive store and records it.
// On a ledger write failure the file is moved back and ErrLedgerWriteFailed
// is returned; if that compensating move also fails the returned error is
// *InconsistentStateError.
func (c *Coordinator) Archive(ctx context.Context, candidate scan.Candidate) (*ledger.Record, error) {
	timer := logging.StartTimer(logging.CategoryArchive, "Archive")
	defer timer.Stop()

	originalPath, err := filepath.Abs(candidate.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize path: %w", err)
	}

	mu := c.pathLock(originalPath)
	mu.Lock()
	defer mu.Unlock()

	// Timeouts may abort here, before the move starts, never during it.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if existing, err := c.journal.FindActive(originalPath); err != nil {
		return nil, fmt.Errorf("failed to check ledger: %w", err)
	} else if existing != nil {
		return nil, fmt.Errorf("%w: %s (record %s)", ErrAlreadyArchived, originalPath, existing.ID)
	}

	archivePath, err := c.archivePathFor(originalPath)
	if err != nil {
		return nil, err
	}

	logging.Archive("Archiving %s -> %s (category=%s)", originalPath, archivePath, candidate.Category)

	if err := moveFileWithRetry(originalPath, archivePath, c.cfg.Archive.MoveRetries, c.cfg.GetRetryDelay()); err != nil {
		return nil, fmt.Errorf("failed to move %s to archive: %w", originalPath, err)
	}

	rec, ledgerErr := c.journal.RecordArchive(originalPath, archivePath, candidate.Reason, candidate.Category)
	if ledgerErr != nil {
		// Compensate: put the file back where it was.
		if moveErr := moveFile(archivePath, originalPath); moveErr != nil {
			incErr := &InconsistentStateError{
				OriginalPath: originalPath,
				ArchivePath:  archivePath,
				LedgerErr:    ledgerErr,
				MoveErr:      moveErr,
			}
			logging.ArchiveError("INCONSISTENT STATE: %v", incErr)
			return nil, incErr
		}
		logging.ArchiveError("Ledger write failed for %s, file moved back: %v", originalPath, ledgerErr)
		return nil, fmt.Errorf("%w: %s: %v", ErrLedgerWriteFailed, originalPath, ledgerErr)
	}

	logging.Archive("Archived %s as record %s", originalPath, rec.ID)
	return rec, nil
}

// Restore moves an archived file back to its original path and records the
// restore. Same compensating discipline as Archive on partial failure.
func (c *Coordinator) Restore(ctx context.Context, id string) error {
	timer := logging.StartTimer(logging.CategoryArchive, "Restore")
	defer timer.Stop()

	rec, err := c.journal.Find(id)
	if err != nil {
		return err
	}
	if rec.RestoredAt != nil {
		return fmt.Errorf("%w: %s", ledger.ErrAlreadyRestored, id)
	}

	mu := c.pathLock(rec.OriginalPath)
	mu.Lock()
	defer mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	// The original path must not be occupied by an unrelated file.
	if _, err := os.Stat(rec.OriginalPath); err == nil {
		return fmt.Errorf("%w: %s", ErrRestoreTargetOccupied, rec.OriginalPath)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to check restore target: %w", err)
	}

	logging.Archive("Restoring %s: %s <- %s", id, rec.OriginalPath, rec.ArchivePath)

	if err := moveFileWithRetry(rec.ArchivePath, rec.OriginalPath, c.cfg.Archive.MoveRetries, c.cfg.GetRetryDelay()); err != nil {
		return fmt.Errorf("failed to move %s back: %w", rec.ArchivePath, err)
	}

	if _, ledgerErr := c.journal.RecordRestore(id); ledgerErr != nil {
		if moveErr := moveFile(rec.OriginalPath, rec.ArchivePath); moveErr != nil {
			incErr := &InconsistentStateError{
				RecordID:     id,
				OriginalPath: rec.OriginalPath,
				ArchivePath:  rec.ArchivePath,
				LedgerErr:    ledgerErr,
				MoveErr:      moveErr,
			}
			logging.ArchiveError("INCONSISTENT STATE: %v", incErr)
			return incErr
		}
		logging.ArchiveError("Ledger write failed for restore of %s, file moved back to archive: %v", id, ledgerErr)
		return fmt.Errorf("%w: %s: %v", ErrLedgerWriteFailed, id, ledgerErr)
	}

	logging.Archive("Restored %s to %s", id, rec.OriginalPath)
	return nil
}

// archivePathFor computes the deterministic archive location:
// <archiveRoot>/<YYYY-MM-DD>/<relative path>. Fails with
// ErrArchivePathCollision if something already lives there.
func (c *Coordinator) archivePathFor(originalPath string) (string, error) {
	root, err := filepath.Abs(c.cfg.Root)
	if err != nil {
		return "", fmt.Errorf("failed to normalize workspace root: %w", err)
	}

	rel, err := filepath.Rel(root, originalPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		// Outside the workspace: fall back to the base name.
		rel = filepath.Base(originalPath)
	}

	archivePath := filepath.Join(c.cfg.ArchiveRoot(), c.now().Format("2006-01-02"), rel)

	if _, err := os.Stat(archivePath); err == nil {
		return "", fmt.Errorf("%w: %s", ErrArchivePathCollision, archivePath)
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to check archive path: %w", err)
	}

	return archivePath, nil
}
