package archive

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoveFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.sh")
	dst := filepath.Join(dir, "nested", "deep", "dst.sh")
	require.NoError(t, os.WriteFile(src, []byte("#!/bin/sh\necho hi\n"), 0755))

	require.NoError(t, moveFile(src, dst))

	_, err := os.Stat(src)
	assert.True(t, os.IsNotExist(err))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "#!/bin/sh\necho hi\n", string(data))

	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0755), info.Mode().Perm())
}

func TestMoveFileRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.sh")
	dst := filepath.Join(dir, "dst.sh")
	require.NoError(t, os.WriteFile(src, []byte("new\n"), 0644))
	require.NoError(t, os.WriteFile(dst, []byte("existing\n"), 0644))

	err := moveFile(src, dst)
	require.Error(t, err)

	// Both files untouched.
	srcData, err := os.ReadFile(src)
	require.NoError(t, err)
	assert.Equal(t, "new\n", string(srcData))
	dstData, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "existing\n", string(dstData))
}

func TestMoveFileMissingSource(t *testing.T) {
	dir := t.TempDir()
	err := moveFile(filepath.Join(dir, "absent.sh"), filepath.Join(dir, "dst.sh"))
	require.Error(t, err)
}

func TestMoveFileWithRetryGivesUp(t *testing.T) {
	dir := t.TempDir()
	err := moveFileWithRetry(filepath.Join(dir, "absent.sh"), filepath.Join(dir, "dst.sh"), 2, 0)
	require.Error(t, err)
}
