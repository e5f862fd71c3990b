package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"mothball/internal/config"
	"mothball/internal/scan"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Root = t.TempDir()
	cfg.Scan.Concurrency = 2
	return cfg
}

func TestStartStop(t *testing.T) {
	cfg := testConfig(t)

	w, err := New(cfg, nil)
	require.NoError(t, err)

	require.NoError(t, w.Start(context.Background()))
	// Idempotent
	require.NoError(t, w.Start(context.Background()))

	w.Stop()
	// Second stop is a no-op
	w.Stop()
}

func TestRescanOnChange(t *testing.T) {
	cfg := testConfig(t)

	var mu sync.Mutex
	var scans [][]scan.Candidate
	w, err := New(cfg, func(cs []scan.Candidate) {
		mu.Lock()
		scans = append(scans, cs)
		mu.Unlock()
	})
	require.NoError(t, err)
	w.debounceDur = 50 * time.Millisecond

	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	// Creating a file should settle into exactly one re-scan.
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Root, "fresh.sh"), []byte("echo hi\n"), 0644))

	deadline := time.Now().Add(5 * time.Second)
	for {
		mu.Lock()
		n := len(scans)
		mu.Unlock()
		if n > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("watcher never re-scanned after file creation")
		}
		time.Sleep(20 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	// fresh.sh is recent, unreferenced, and unregistered.
	require.Len(t, scans[0], 1)
	require.Equal(t, "fresh.sh", scans[0][0].RelPath)
}

func TestContextCancelStopsLoop(t *testing.T) {
	cfg := testConfig(t)

	w, err := New(cfg, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, w.Start(ctx))
	cancel()

	// The loop exits on its own; Stop must still not hang.
	select {
	case <-w.doneCh:
	case <-time.After(2 * time.Second):
		t.Fatal("watch loop did not exit on context cancel")
	}
	w.Stop()
}
