// Package scan walks a workspace tree and classifies files as archive
// candidates. The scanner is read-only: it never mutates the tree or the
// ledger, and every call re-scans from scratch.
package scan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"mothball/internal/config"
	"mothball/internal/ledger"
	"mothball/internal/logging"
)

// Files larger than this are skipped during reference scanning.
const maxScanFileSize = 5 * 1024 * 1024 // 5MB

// Scanner produces archive candidates for a workspace.
type Scanner struct {
	cfg *config.Config

	// now is overridable for tests.
	now func() time.Time
}

// New creates a Scanner for the given configuration.
func New(cfg *config.Config) *Scanner {
	return &Scanner{cfg: cfg, now: time.Now}
}

// fileEntry is one regular file discovered by the walk.
type fileEntry struct {
	path    string // absolute
	relPath string
	modTime time.Time
}

// Scan walks the workspace and returns archive candidates plus any per-file
// warnings. Unreadable files are skipped and reported, never fatal.
func (s *Scanner) Scan(ctx context.Context) ([]Candidate, []Warning, error) {
	timer := logging.StartTimer(logging.CategoryScan, "Scan")
	defer timer.Stop()

	root := s.cfg.Root
	logging.Scan("Scanning workspace: %s (lookback=%d days)", root, s.cfg.Scan.LookbackDays)

	files, warnings, err := s.collectFiles(ctx)
	if err != nil {
		return nil, warnings, err
	}
	logging.ScanDebug("Collected %d files", len(files))

	// Most recent commit per file, one git log pass for the whole tree.
	gitTimes, gitWarnings := scanGitHistory(ctx, root, s.cfg.Scan.GitDepth)
	warnings = append(warnings, gitWarnings...)

	registry, regWarnings := loadRegistry(root, s.cfg.Scan.RegistryFiles)
	warnings = append(warnings, regWarnings...)

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.path
	}
	refs, refWarnings, err := s.CountReferences(ctx, paths)
	if err != nil {
		return nil, warnings, err
	}
	warnings = append(warnings, refWarnings...)

	cutoff := s.now().Add(-time.Duration(s.cfg.Scan.LookbackDays) * 24 * time.Hour)

	var candidates []Candidate
	for _, f := range files {
		if ctx.Err() != nil {
			return nil, warnings, ctx.Err()
		}

		lastChange := f.modTime
		if ts, ok := gitTimes[f.relPath]; ok {
			if commitTime := time.Unix(ts, 0); commitTime.After(lastChange) {
				lastChange = commitTime
			}
		}

		c := Candidate{
			Path:                 f.path,
			RelPath:              f.relPath,
			LastMeaningfulChange: lastChange,
			ReferenceCount:       refs[f.path],
			RegistryMember:       registry.contains(identifier(f.path)),
		}

		category, reason, ok := classify(c, cutoff, s.cfg.Scan.LookbackDays)
		if !ok {
			continue // active
		}
		c.Category = category
		c.Reason = reason
		candidates = append(candidates, c)
	}

	// Stable output order: most confidently obsolete first, then by path.
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Category != candidates[j].Category {
			return categoryRank(candidates[i].Category) < categoryRank(candidates[j].Category)
		}
		return candidates[i].RelPath < candidates[j].RelPath
	})

	logging.Scan("Scan complete: %d candidates, %d warnings", len(candidates), len(warnings))
	return candidates, warnings, nil
}

// classify applies the deterministic rule table. Staleness signals:
// no change inside the lookback window, zero references, and absence from
// the command registry. All three stale means definitely obsolete; one stale
// signal alone means likely obsolete; conflicting signals go to review.
func classify(c Candidate, cutoff time.Time, lookbackDays int) (ledger.Category, string, bool) {
	stale := c.LastMeaningfulChange.Before(cutoff)

	switch {
	case stale && c.ReferenceCount == 0 && !c.RegistryMember:
		reason := fmt.Sprintf("no changes in %d days, no references found, not registered", lookbackDays)
		return ledger.CategoryDefinitelyObsolete, reason, true

	case stale && c.ReferenceCount == 0 && c.RegistryMember:
		reason := fmt.Sprintf("no changes in %d days and no references, but still registered", lookbackDays)
		return ledger.CategoryNeedsReview, reason, true

	case stale && c.ReferenceCount > 0:
		reason := fmt.Sprintf("no changes in %d days, but %d references remain", lookbackDays, c.ReferenceCount)
		return ledger.CategoryNeedsReview, reason, true

	case !stale && c.ReferenceCount == 0 && !c.RegistryMember:
		return ledger.CategoryLikelyObsolete, "recently touched but unreferenced and not registered", true
	}

	return "", "", false
}

func categoryRank(c ledger.Category) int {
	switch c {
	case ledger.CategoryDefinitelyObsolete:
		return 0
	case ledger.CategoryLikelyObsolete:
		return 1
	case ledger.CategoryNeedsReview:
		return 2
	default:
		return 3
	}
}

// collectFiles walks the tree, honoring the exclude list and skipping the
// archive store. Walk errors on individual entries become warnings.
func (s *Scanner) collectFiles(ctx context.Context) ([]fileEntry, []Warning, error) {
	root := s.cfg.Root
	archiveRoot := s.cfg.ArchiveRoot()

	excluded := make(map[string]bool, len(s.cfg.Scan.Excludes))
	for _, name := range s.cfg.Scan.Excludes {
		excluded[name] = true
	}

	var files []fileEntry
	var warnings []Warning
	var mu sync.Mutex

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			mu.Lock()
			warnings = append(warnings, Warning{Path: path, Message: err.Error()})
			mu.Unlock()
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.IsDir() {
			name := info.Name()
			if path == archiveRoot || excluded[name] {
				return filepath.SkipDir
			}
			if strings.HasPrefix(name, ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}

		if excluded[info.Name()] {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}

		mu.Lock()
		files = append(files, fileEntry{
			path:    path,
			relPath: filepath.ToSlash(rel),
			modTime: info.ModTime(),
		})
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, warnings, fmt.Errorf("walk failed: %w", err)
	}

	return files, warnings, nil
}

// identifier returns the name other files would use to reference this file:
// the base name, since scripts are invoked and imported by name.
func identifier(path string) string {
	return filepath.Base(path)
}

// stem returns the identifier without its extension, the form used by
// import statements.
func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
