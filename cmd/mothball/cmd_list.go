package main

import (
	"fmt"

	"mothball/internal/ledger"

	"github.com/spf13/cobra"
)

var (
	listCategory string
	listAll      bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List ledger records",
	Long: `Lists archive records, newest first. By default only active (non-restored)
records are shown; --all includes restored history, --category filters.`,
	RunE: runList,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the ledger by category",
	RunE:  runStats,
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	l, err := openLedger(cfg)
	if err != nil {
		return err
	}
	defer l.Close()

	var records []*ledger.Record
	switch {
	case listCategory != "":
		category := ledger.Category(listCategory)
		if !category.Valid() {
			return fmt.Errorf("unknown category %q", listCategory)
		}
		records, err = l.ListByCategory(category)
	case listAll:
		records, err = l.ListAll()
	default:
		records, err = l.ListActive()
	}
	if err != nil {
		return err
	}

	if len(records) == 0 {
		fmt.Println("No records.")
		return nil
	}

	for _, rec := range records {
		status := string(rec.Status())
		if rec.Status() == ledger.StatusRestored {
			status = styleDim.Render(status)
		}
		fmt.Printf("%s  %s  %s  [%s]\n", rec.ID, rec.ArchivedAt.Format("2006-01-02"), rec.OriginalPath, status)
		fmt.Printf("  %s %s\n", renderCategory(rec.Category), styleDim.Render(rec.Reason))
	}
	fmt.Printf("\n%d records\n", len(records))
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	l, err := openLedger(cfg)
	if err != nil {
		return err
	}
	defer l.Close()

	stats, err := l.GetStats()
	if err != nil {
		return err
	}

	fmt.Println(styleHeader.Render("Archive ledger"))
	for _, category := range []ledger.Category{
		ledger.CategoryDefinitelyObsolete,
		ledger.CategoryLikelyObsolete,
		ledger.CategoryNeedsReview,
		ledger.CategoryConsolidated,
	} {
		active := stats.Active[category]
		restored := stats.Restored[category]
		if active == 0 && restored == 0 {
			continue
		}
		fmt.Printf("  %-22s %4d archived, %d restored\n", renderCategory(category), active, restored)
	}
	fmt.Printf("  %d records total\n", stats.Total)
	return nil
}

func init() {
	listCmd.Flags().StringVar(&listCategory, "category", "", "Filter by category")
	listCmd.Flags().BoolVar(&listAll, "all", false, "Include restored records")
}
