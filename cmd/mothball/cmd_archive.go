package main

import (
	"context"
	"fmt"
	"path/filepath"

	"mothball/internal/archive"
	"mothball/internal/ledger"
	"mothball/internal/scan"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	archiveCategory string
	archiveReason   string
)

var archiveCmd = &cobra.Command{
	Use:   "archive [path]...",
	Short: "Move files into the archive store",
	Long: `Archives one or more files: each is moved into the date-stamped archive
store and recorded in the ledger.

By default a path must be a current scan candidate and inherits the scan's
category and reason. Pass --category to archive a path the scanner did not
flag (for example when consolidating scripts by hand).`,
	Args: cobra.MinimumNArgs(1),
	RunE: runArchive,
}

var restoreCmd = &cobra.Command{
	Use:   "restore [record-id]",
	Short: "Restore an archived file to its original path",
	Long: `Moves the archived file back to exactly its original path and marks the
ledger record restored. Fails if the original path is occupied, and fails if
the record was already restored; re-archiving later creates a new record.`,
	Args: cobra.ExactArgs(1),
	RunE: runRestore,
}

func runArchive(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	l, err := openLedger(cfg)
	if err != nil {
		return err
	}
	defer l.Close()

	coordinator := archive.New(cfg, l)

	// Resolve each requested path to a candidate.
	var byPath map[string]scan.Candidate
	if archiveCategory == "" {
		scanner := scan.New(cfg)
		candidates, warnings, err := scanner.Scan(ctx)
		if err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}
		for _, w := range warnings {
			printWarning(w.Path, w.Message)
		}
		byPath = make(map[string]scan.Candidate, len(candidates))
		for _, c := range candidates {
			byPath[c.Path] = c
			byPath[c.RelPath] = c
		}
	}

	for _, arg := range args {
		candidate, err := resolveCandidate(cfg.Root, arg, byPath)
		if err != nil {
			return err
		}

		rec, err := coordinator.Archive(ctx, candidate)
		if err != nil {
			return err
		}

		logger.Info("archived",
			zap.String("id", rec.ID),
			zap.String("path", rec.OriginalPath),
			zap.String("category", string(rec.Category)))
		fmt.Printf("archived %s\n  id: %s\n  category: %s\n  stored at: %s\n",
			rec.OriginalPath, rec.ID, renderCategory(rec.Category), rec.ArchivePath)
	}

	return nil
}

// resolveCandidate maps a CLI path argument to the candidate to archive,
// either from the scan results or from the explicit --category override.
func resolveCandidate(root, arg string, byPath map[string]scan.Candidate) (scan.Candidate, error) {
	path := arg
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, arg)
	}

	if byPath != nil {
		if c, ok := byPath[path]; ok {
			return c, nil
		}
		if c, ok := byPath[filepath.ToSlash(arg)]; ok {
			return c, nil
		}
		return scan.Candidate{}, fmt.Errorf("%s is not a scan candidate; pass --category to archive it anyway", arg)
	}

	category := ledger.Category(archiveCategory)
	if !category.Valid() {
		return scan.Candidate{}, fmt.Errorf("unknown category %q (want definitely_obsolete, likely_obsolete, needs_review, or consolidated)", archiveCategory)
	}
	reason := archiveReason
	if reason == "" {
		reason = "archived manually"
	}
	return scan.Candidate{Path: path, RelPath: arg, Category: category, Reason: reason}, nil
}

func runRestore(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	l, err := openLedger(cfg)
	if err != nil {
		return err
	}
	defer l.Close()

	coordinator := archive.New(cfg, l)
	id := args[0]

	if err := coordinator.Restore(ctx, id); err != nil {
		return err
	}

	rec, err := l.Find(id)
	if err != nil {
		return err
	}

	logger.Info("restored", zap.String("id", id), zap.String("path", rec.OriginalPath))
	fmt.Printf("restored %s\n  from: %s\n", rec.OriginalPath, rec.ArchivePath)
	return nil
}

func init() {
	archiveCmd.Flags().StringVar(&archiveCategory, "category", "", "Archive even if not a scan candidate, with this category")
	archiveCmd.Flags().StringVar(&archiveReason, "reason", "", "Rationale recorded in the ledger (with --category)")
}
