package archive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"mothball/internal/logging"
)

// moveFile relocates src to dst across the archive boundary. The copy lands
// completely before the original is deleted, so a partial failure can never
// lose the file's contents.
func moveFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}

	if err := copyFile(src, dst); err != nil {
		return err
	}

	if err := os.Remove(src); err != nil {
		// Copy succeeded but the original could not be removed. Remove the
		// copy so the move is a clean no-op rather than a duplicate.
		os.Remove(dst)
		return fmt.Errorf("failed to remove source after copy: %w", err)
	}

	return nil
}

// moveFileWithRetry retries transient move failures a bounded number of
// times before giving up.
func moveFileWithRetry(src, dst string, retries int, delay time.Duration) error {
	var err error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			logging.ArchiveDebug("Retrying move %s -> %s (attempt %d/%d)", src, dst, attempt, retries)
			time.Sleep(delay)
		}
		if err = moveFile(src, dst); err == nil {
			return nil
		}
	}
	return err
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat source: %w", err)
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("failed to create destination: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst) // leave no partial copy behind
		return fmt.Errorf("failed to copy contents: %w", err)
	}
	if err := out.Sync(); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("failed to sync destination: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return fmt.Errorf("failed to close destination: %w", err)
	}

	return nil
}
