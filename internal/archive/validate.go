package archive

import (
	"context"
	"fmt"

	"mothball/internal/ledger"
	"mothball/internal/logging"
	"mothball/internal/scan"
)

// FlaggedRecord is an active archive record whose original path is still
// referenced by the live tree.
type FlaggedRecord struct {
	Record         *ledger.Record
	ReferenceCount int
}

// ValidationReport lists archived files the tree still depends on. Flags are
// warnings for an operator to act on (restore or accept); validation never
// rolls anything back by itself.
type ValidationReport struct {
	ActiveRecords int
	Flagged       []FlaggedRecord
	Warnings      []scan.Warning
}

// Validate cross-references every active record's original path against the
// live reference graph, using the same reference-scan strategy the inventory
// scanner uses.
func (c *Coordinator) Validate(ctx context.Context) (*ValidationReport, error) {
	timer := logging.StartTimer(logging.CategoryArchive, "Validate")
	defer timer.Stop()

	records, err := c.journal.ListActive()
	if err != nil {
		return nil, fmt.Errorf("failed to list active records: %w", err)
	}

	report := &ValidationReport{ActiveRecords: len(records)}
	if len(records) == 0 {
		return report, nil
	}

	paths := make([]string, len(records))
	byPath := make(map[string]*ledger.Record, len(records))
	for i, rec := range records {
		paths[i] = rec.OriginalPath
		byPath[rec.OriginalPath] = rec
	}

	counts, warnings, err := c.scanner.CountReferences(ctx, paths)
	if err != nil {
		return nil, fmt.Errorf("reference scan failed: %w", err)
	}
	report.Warnings = warnings

	for _, rec := range records {
		n := counts[rec.OriginalPath]
		if n == 0 {
			continue
		}
		logging.Archive("Validation flag: %s still has %d references (record %s)", rec.OriginalPath, n, rec.ID)
		report.Flagged = append(report.Flagged, FlaggedRecord{Record: rec, ReferenceCount: n})
	}

	logging.Archive("Validation complete: %d active records, %d flagged", report.ActiveRecords, len(report.Flagged))
	return report, nil
}
