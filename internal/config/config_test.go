package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 90, cfg.Scan.LookbackDays)
	assert.Equal(t, ".archived_scripts", cfg.Archive.Root)
	assert.Contains(t, cfg.Scan.Excludes, ".git")
	assert.Contains(t, cfg.Scan.Excludes, "node_modules")
	assert.Equal(t, filepath.Join(".mothball", "ledger.db"), cfg.Ledger.DatabasePath)
	assert.Equal(t, 100*time.Millisecond, cfg.GetRetryDelay())
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	ws := t.TempDir()

	cfg, err := Load(ws)
	require.NoError(t, err)
	assert.Equal(t, ws, cfg.Root)
	assert.Equal(t, 90, cfg.Scan.LookbackDays)
}

func TestLoadFromFile(t *testing.T) {
	ws := t.TempDir()
	dir := filepath.Join(ws, ".mothball")
	require.NoError(t, os.MkdirAll(dir, 0755))

	yaml := `
scan:
  lookback_days: 30
  excludes: ["tmp"]
archive:
  root: cold
  retry_delay: 250ms
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load(ws)
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Scan.LookbackDays)
	assert.Equal(t, []string{"tmp"}, cfg.Scan.Excludes)
	assert.Equal(t, filepath.Join(ws, "cold"), cfg.ArchiveRoot())
	assert.Equal(t, 250*time.Millisecond, cfg.GetRetryDelay())
}

func TestLoadMalformedFile(t *testing.T) {
	ws := t.TempDir()
	dir := filepath.Join(ws, ".mothball")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("{not yaml"), 0644))

	_, err := Load(ws)
	require.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	ws := t.TempDir()
	t.Setenv("MOTHBALL_DB", "/elsewhere/ledger.db")
	t.Setenv("MOTHBALL_ARCHIVE_ROOT", "/elsewhere/cold")
	t.Setenv("MOTHBALL_LOOKBACK_DAYS", "7")

	cfg, err := Load(ws)
	require.NoError(t, err)
	assert.Equal(t, "/elsewhere/ledger.db", cfg.DatabasePath())
	assert.Equal(t, "/elsewhere/cold", cfg.ArchiveRoot())
	assert.Equal(t, 7, cfg.Scan.LookbackDays)
}

func TestEnvOverrideRejectsBadLookback(t *testing.T) {
	ws := t.TempDir()
	t.Setenv("MOTHBALL_LOOKBACK_DAYS", "not-a-number")

	cfg, err := Load(ws)
	require.NoError(t, err)
	assert.Equal(t, 90, cfg.Scan.LookbackDays)
}

func TestSaveRoundTrip(t *testing.T) {
	ws := t.TempDir()
	cfg := DefaultConfig()
	cfg.Scan.LookbackDays = 45
	require.NoError(t, cfg.Save(ws))

	loaded, err := Load(ws)
	require.NoError(t, err)
	assert.Equal(t, 45, loaded.Scan.LookbackDays)
}

func TestGetRetryDelayFallback(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Archive.RetryDelay = "garbage"
	assert.Equal(t, 100*time.Millisecond, cfg.GetRetryDelay())
}
