package scan

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(),
		"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
		"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
	)
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v: %s", args, out)
}

func TestScanGitHistory(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	dir := t.TempDir()
	runGit(t, dir, "init", "-q")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.sh"), []byte("echo a\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.sh"), []byte("echo b\n"), 0644))
	runGit(t, dir, "add", ".")
	runGit(t, dir, "commit", "-q", "-m", "initial")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.sh"), []byte("echo a2\n"), 0644))
	runGit(t, dir, "add", "a.sh")
	runGit(t, dir, "commit", "-q", "-m", "touch a")

	times, warnings := scanGitHistory(context.Background(), dir, 100)
	require.Empty(t, warnings)

	wantFiles := []string{"a.sh", "b.sh"}
	gotFiles := make([]string, 0, len(times))
	for f := range times {
		gotFiles = append(gotFiles, f)
	}
	sorted := cmpopts.SortSlices(func(a, b string) bool { return a < b })
	if diff := cmp.Diff(wantFiles, gotFiles, sorted); diff != "" {
		t.Errorf("tracked files mismatch (-want +got):\n%s", diff)
	}

	// a.sh was touched in the second, newer commit.
	require.GreaterOrEqual(t, times["a.sh"], times["b.sh"])
}

func TestScanGitHistoryNotARepo(t *testing.T) {
	times, warnings := scanGitHistory(context.Background(), t.TempDir(), 100)
	require.Empty(t, times)
	require.Empty(t, warnings)
}
