// Package main implements the mothball CLI.
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"mothball/internal/archive"
	"mothball/internal/config"
	"mothball/internal/ledger"
	"mothball/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Exit codes. InconsistentState gets its own code so operator tooling can
// alert on it specially.
const (
	exitOK           = 0
	exitError        = 1
	exitPrecondition = 2
	exitInconsistent = 3
)

var (
	// Global flags
	verbose   bool
	workspace string
	timeout   time.Duration

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "mothball",
	Short: "mothball - archive stale scripts with an audit trail",
	Long: `mothball scans a workspace for scripts nothing uses anymore, moves them
into a date-stamped archive store, and records every move in a SQLite
ledger so any file can be restored exactly where it came from.

Workflow:
  mothball scan        classify archive candidates
  mothball archive     move candidates into the archive store
  mothball restore     put an archived file back
  mothball validate    flag archived files the tree still references
  mothball list        browse the ledger`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize logger
		zcfg := zap.NewProductionConfig()
		if verbose {
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zcfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		ws := resolveWorkspace()
		if err := logging.Initialize(ws); err != nil {
			logger.Warn("debug logging unavailable", zap.Error(err))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseAll()
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func resolveWorkspace() string {
	if workspace != "" {
		return workspace
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return cwd
}

// loadConfig loads the workspace configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(resolveWorkspace())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// openLedger opens the ledger for the given configuration.
func openLedger(cfg *config.Config) (*ledger.Ledger, error) {
	l, err := ledger.Open(cfg.DatabasePath())
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	return l, nil
}

// exitCodeFor maps error kinds to exit codes. Precondition failures are
// distinguishable from generic errors, and InconsistentState is
// distinguishable from everything.
func exitCodeFor(err error) int {
	if err == nil {
		return exitOK
	}

	var inconsistent *archive.InconsistentStateError
	if errors.As(err, &inconsistent) {
		return exitInconsistent
	}

	for _, precondition := range []error{
		archive.ErrAlreadyArchived,
		archive.ErrArchivePathCollision,
		archive.ErrRestoreTargetOccupied,
		ledger.ErrNotFound,
		ledger.ErrAlreadyRestored,
		ledger.ErrDuplicateActive,
	} {
		if errors.Is(err, precondition) {
			return exitPrecondition
		}
	}

	return exitError
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory (default: current)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Minute, "Operation timeout")

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(archiveCmd)
	rootCmd.AddCommand(restoreCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(watchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCodeFor(err))
	}
}
