package main

import (
	"errors"
	"fmt"
	"testing"

	"mothball/internal/archive"
	"mothball/internal/ledger"
)

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitOK},
		{"generic", errors.New("boom"), exitError},
		{"wrapped generic", fmt.Errorf("outer: %w", errors.New("boom")), exitError},
		{"already archived", fmt.Errorf("%w: /ws/a.sh", archive.ErrAlreadyArchived), exitPrecondition},
		{"restore target occupied", archive.ErrRestoreTargetOccupied, exitPrecondition},
		{"archive path collision", archive.ErrArchivePathCollision, exitPrecondition},
		{"record not found", fmt.Errorf("%w: abc", ledger.ErrNotFound), exitPrecondition},
		{"already restored", ledger.ErrAlreadyRestored, exitPrecondition},
		{"duplicate active", ledger.ErrDuplicateActive, exitPrecondition},
		{"ledger write failed is generic", archive.ErrLedgerWriteFailed, exitError},
		{
			"inconsistent state",
			&archive.InconsistentStateError{OriginalPath: "/ws/a.sh", LedgerErr: errors.New("disk full"), MoveErr: errors.New("denied")},
			exitInconsistent,
		},
		{
			"wrapped inconsistent state",
			fmt.Errorf("archive failed: %w", &archive.InconsistentStateError{LedgerErr: errors.New("x"), MoveErr: errors.New("y")}),
			exitInconsistent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCodeFor(tt.err); got != tt.want {
				t.Errorf("exitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
