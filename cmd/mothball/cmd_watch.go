package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"mothball/internal/scan"
	"mothball/internal/watch"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-scan on workspace changes and report fresh candidates",
	Long: `Watches the workspace and re-runs the scan whenever files settle after a
change, printing the current candidate set. Nothing is archived
automatically; archive and restore remain explicit commands.

Runs until interrupted.`,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	w, err := watch.New(cfg, func(candidates []scan.Candidate) {
		if len(candidates) == 0 {
			fmt.Println("workspace changed: no archive candidates")
			return
		}
		fmt.Printf("workspace changed: %d candidates\n", len(candidates))
		for _, c := range candidates {
			fmt.Printf("  %s  %s\n", renderCategory(c.Category), c.RelPath)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	logger.Info("watching workspace", zap.String("root", cfg.Root))
	fmt.Printf("watching %s (Ctrl-C to stop)\n", cfg.Root)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		fmt.Println("\nstopping")
	case <-ctx.Done():
	}

	return nil
}
