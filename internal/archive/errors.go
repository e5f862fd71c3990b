package archive

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyArchived is returned when archiving a path that already has
	// an active ledger record.
	ErrAlreadyArchived = errors.New("path already archived")

	// ErrArchivePathCollision is returned when the computed archive path is
	// already occupied.
	ErrArchivePathCollision = errors.New("archive path collision")

	// ErrRestoreTargetOccupied is returned when the original path is
	// occupied by an untracked file at restore time.
	ErrRestoreTargetOccupied = errors.New("restore target occupied")

	// ErrLedgerWriteFailed is returned when the ledger write failed after a
	// successful physical move and the compensating move succeeded. The
	// filesystem is back in its original state.
	ErrLedgerWriteFailed = errors.New("ledger write failed, file moved back")
)

// InconsistentStateError is the single allowed terminal inconsistency: the
// ledger write failed after the physical move AND the compensating move also
// failed. The filesystem and ledger now disagree; an operator must reconcile
// using both paths. Never auto-resolved.
type InconsistentStateError struct {
	RecordID     string // empty when the failure happened before a record existed
	OriginalPath string
	ArchivePath  string
	LedgerErr    error
	MoveErr      error
}

func (e *InconsistentStateError) Error() string {
	return fmt.Sprintf(
		"inconsistent state: ledger and filesystem disagree (original=%s archive=%s record=%q): ledger: %v; compensating move: %v",
		e.OriginalPath, e.ArchivePath, e.RecordID, e.LedgerErr, e.MoveErr,
	)
}

func (e *InconsistentStateError) Unwrap() error {
	return e.LedgerErr
}
