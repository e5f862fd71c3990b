package scan

import (
	"bytes"
	"context"
	"os"
	"regexp"
	"sync"

	"mothball/internal/logging"

	"golang.org/x/sync/errgroup"
)

// CountReferences counts textual references to each target's identifier
// across the rest of the tree. The same strategy serves both scanning and
// post-archive validation, so both see the same reference graph.
//
// A reference is a line in another file containing the target's base name,
// or its extension-less stem as a whole word (the form imports use).
func (s *Scanner) CountReferences(ctx context.Context, targets []string) (map[string]int, []Warning, error) {
	timer := logging.StartTimer(logging.CategoryScan, "CountReferences")
	defer timer.Stop()

	files, warnings, err := s.collectFiles(ctx)
	if err != nil {
		return nil, warnings, err
	}

	type target struct {
		path       string
		name       []byte
		stemRegexp *regexp.Regexp
	}

	prepared := make([]target, 0, len(targets))
	for _, p := range targets {
		t := target{path: p, name: []byte(identifier(p))}
		if st := stem(p); st != "" && st != identifier(p) {
			t.stemRegexp = regexp.MustCompile(`\b` + regexp.QuoteMeta(st) + `\b`)
		}
		prepared = append(prepared, t)
	}

	counts := make(map[string]int, len(targets))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Scan.Concurrency)

	for _, f := range files {
		f := f
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			info, err := os.Stat(f.path)
			if err != nil || info.Size() > maxScanFileSize {
				return nil
			}

			content, err := os.ReadFile(f.path)
			if err != nil {
				mu.Lock()
				warnings = append(warnings, Warning{Path: f.path, Message: err.Error()})
				mu.Unlock()
				return nil
			}
			if !looksTextual(content) {
				return nil
			}

			local := make(map[string]int)
			for _, t := range prepared {
				if t.path == f.path {
					continue // a file does not reference itself
				}
				n := bytes.Count(content, t.name)
				if n == 0 && t.stemRegexp != nil {
					n = len(t.stemRegexp.FindAll(content, -1))
				}
				if n > 0 {
					local[t.path] += n
				}
			}

			if len(local) > 0 {
				mu.Lock()
				for p, n := range local {
					counts[p] += n
				}
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, warnings, err
	}

	logging.ScanDebug("Reference scan: %d targets, %d referenced", len(targets), len(counts))
	return counts, warnings, nil
}

// looksTextual applies a cheap binary sniff: NUL bytes in the first block
// mean we skip the file.
func looksTextual(content []byte) bool {
	sniff := content
	if len(sniff) > 8000 {
		sniff = sniff[:8000]
	}
	return !bytes.ContainsRune(sniff, 0)
}
