package main

import (
	"context"
	"fmt"

	"mothball/internal/ledger"
	"mothball/internal/scan"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Classify archive candidates in the workspace",
	Long: `Walks the workspace and classifies files by staleness signals:
last meaningful change (mtime and git history), textual references from the
rest of the tree, and command-registry membership.

Nothing is moved or recorded; scan is read-only.`,
	RunE: runScan,
}

func runScan(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	scanner := scan.New(cfg)
	candidates, warnings, err := scanner.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	logger.Debug("scan finished",
		zap.Int("candidates", len(candidates)),
		zap.Int("warnings", len(warnings)))

	for _, w := range warnings {
		printWarning(w.Path, w.Message)
	}

	if len(candidates) == 0 {
		fmt.Println("No archive candidates found.")
		return nil
	}

	byCategory := make(map[ledger.Category][]scan.Candidate)
	for _, c := range candidates {
		byCategory[c.Category] = append(byCategory[c.Category], c)
	}

	for _, category := range []ledger.Category{
		ledger.CategoryDefinitelyObsolete,
		ledger.CategoryLikelyObsolete,
		ledger.CategoryNeedsReview,
	} {
		group := byCategory[category]
		if len(group) == 0 {
			continue
		}
		fmt.Printf("\n%s (%d)\n", styleHeader.Render(string(category)), len(group))
		for _, c := range group {
			fmt.Printf("  %s\n", c.RelPath)
			fmt.Printf("    %s\n", styleDim.Render(fmt.Sprintf(
				"%s · last change %s · %d refs",
				c.Reason, c.LastMeaningfulChange.Format("2006-01-02"), c.ReferenceCount)))
		}
	}

	fmt.Printf("\n%d candidates. Archive with: mothball archive <path>...\n", len(candidates))
	return nil
}
