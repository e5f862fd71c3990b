package main

import (
	"context"
	"fmt"

	"mothball/internal/archive"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Flag archived files the tree still references",
	Long: `Cross-references every active archive record against the live reference
graph, using the same reference-scan strategy as 'scan'. A flagged path means
something still depends on an archived file.

Flags are warnings only; decide per record whether to restore or accept.`,
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
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
	report, err := coordinator.Validate(ctx)
	if err != nil {
		return err
	}

	logger.Debug("validation finished",
		zap.Int("active", report.ActiveRecords),
		zap.Int("flagged", len(report.Flagged)))

	for _, w := range report.Warnings {
		printWarning(w.Path, w.Message)
	}

	if report.ActiveRecords == 0 {
		fmt.Println("Ledger has no active records; nothing to validate.")
		return nil
	}

	if len(report.Flagged) == 0 {
		fmt.Printf("OK: no live references to %d archived files.\n", report.ActiveRecords)
		return nil
	}

	fmt.Println(styleHeader.Render("Archived files still referenced"))
	for _, f := range report.Flagged {
		fmt.Printf("  %s  (%d references)\n", f.Record.OriginalPath, f.ReferenceCount)
		fmt.Printf("    %s\n", styleDim.Render(fmt.Sprintf("record %s · restore with: mothball restore %s", f.Record.ID, f.Record.ID)))
	}
	fmt.Printf("\n%d of %d active records flagged.\n", len(report.Flagged), report.ActiveRecords)
	return nil
}
