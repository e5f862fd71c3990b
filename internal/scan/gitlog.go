package scan

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"mothball/internal/logging"
)

// scanGitHistory returns the most recent commit timestamp per file path
// (relative to root, slash-separated) using 'git log'. A workspace that is
// not a git repository yields an empty map, not an error.
func scanGitHistory(ctx context.Context, root string, depth int) (map[string]int64, []Warning) {
	logging.ScanDebug("Starting git history scan: %s (depth=%d)", root, depth)

	if err := checkGitRepo(ctx, root); err != nil {
		logging.ScanDebug("Skipping git scan (not a repo or git missing): %v", err)
		return nil, nil
	}

	cmd := exec.CommandContext(ctx, "git", "log",
		fmt.Sprintf("-n%d", depth),
		"--pretty=format:COMMIT:%ct",
		"--name-only",
	)
	cmd.Dir = root
	output, err := cmd.Output()
	if err != nil {
		return nil, []Warning{{Path: root, Message: fmt.Sprintf("git log failed: %v", err)}}
	}

	times := make(map[string]int64)
	var warnings []Warning
	var currentTs int64

	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "COMMIT:") {
			ts, err := strconv.ParseInt(strings.TrimPrefix(line, "COMMIT:"), 10, 64)
			if err != nil {
				warnings = append(warnings, Warning{Path: root, Message: fmt.Sprintf("malformed git log entry: %q", line)})
				currentTs = 0
				continue
			}
			currentTs = ts
			continue
		}

		// Name-only line; commits are newest-first, keep the first seen.
		if currentTs != 0 {
			if _, seen := times[line]; !seen {
				times[line] = currentTs
			}
		}
	}

	logging.ScanDebug("Git history scan: %d files with commits", len(times))
	return times, warnings
}

// checkGitRepo verifies git is available and root is inside a work tree.
func checkGitRepo(ctx context.Context, root string) error {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--is-inside-work-tree")
	cmd.Dir = root
	out, err := cmd.Output()
	if err != nil {
		return fmt.Errorf("git rev-parse failed: %w", err)
	}
	if strings.TrimSpace(string(out)) != "true" {
		return fmt.Errorf("not a git work tree")
	}
	return nil
}
