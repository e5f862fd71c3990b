package archive

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateEmptyLedger(t *testing.T) {
	cfg, l := newTestWorkspace(t)
	coord := New(cfg, l)

	report, err := coord.Validate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.ActiveRecords)
	assert.Empty(t, report.Flagged)
}

func TestValidateFlagsReferencedArchive(t *testing.T) {
	cfg, l := newTestWorkspace(t)
	coord := New(cfg, l)

	helper := writeScript(t, cfg.Root, "helper.sh", "echo helper\n")
	writeScript(t, cfg.Root, "deploy.sh", "#!/bin/sh\n./helper.sh\n./helper.sh --dry-run\n")

	rec, err := coord.Archive(context.Background(), candidateFor(helper))
	require.NoError(t, err)

	report, err := coord.Validate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.ActiveRecords)

	require.Len(t, report.Flagged, 1)
	flagged := report.Flagged[0]
	assert.Equal(t, rec.ID, flagged.Record.ID)
	assert.Equal(t, 2, flagged.ReferenceCount)
}

func TestValidateCleanArchiveNotFlagged(t *testing.T) {
	cfg, l := newTestWorkspace(t)
	coord := New(cfg, l)

	orphan := writeScript(t, cfg.Root, "orphan.sh", "echo nobody calls me\n")
	writeScript(t, cfg.Root, "main.sh", "echo main\n")

	_, err := coord.Archive(context.Background(), candidateFor(orphan))
	require.NoError(t, err)

	report, err := coord.Validate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.ActiveRecords)
	assert.Empty(t, report.Flagged)
}

func TestValidateIgnoresRestoredRecords(t *testing.T) {
	cfg, l := newTestWorkspace(t)
	coord := New(cfg, l)

	helper := writeScript(t, cfg.Root, "helper.sh", "echo helper\n")
	writeScript(t, cfg.Root, "deploy.sh", "./helper.sh\n")

	rec, err := coord.Archive(context.Background(), candidateFor(helper))
	require.NoError(t, err)
	require.NoError(t, coord.Restore(context.Background(), rec.ID))

	report, err := coord.Validate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.ActiveRecords)
	assert.Empty(t, report.Flagged)
}
