// Package config loads and validates mothball configuration.
// Configuration lives in .mothball/config.yaml under the workspace root;
// every field has a default so the tool works in a fresh workspace with no
// config file at all.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all mothball configuration.
type Config struct {
	// Workspace root the scanner walks. Defaults to the current directory.
	Root string `yaml:"root"`

	// Scan settings
	Scan ScanConfig `yaml:"scan"`

	// Archive store settings
	Archive ArchiveConfig `yaml:"archive"`

	// Ledger database
	Ledger LedgerConfig `yaml:"ledger"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// ScanConfig configures the inventory scanner.
type ScanConfig struct {
	// Days without meaningful change before a file counts as stale.
	LookbackDays int `yaml:"lookback_days"`

	// Directory or file names skipped during the walk, in addition to the
	// archive store itself.
	Excludes []string `yaml:"excludes"`

	// Files whose contents define the active command registry
	// (package.json script blocks, cli-pipeline shell registries, ...).
	RegistryFiles []string `yaml:"registry_files"`

	// Number of files examined concurrently during reference scanning.
	Concurrency int `yaml:"concurrency"`

	// How many commits of git history to consult per scan.
	GitDepth int `yaml:"git_depth"`
}

// ArchiveConfig configures the archive store and move behavior.
type ArchiveConfig struct {
	// Root of the archive store, relative to the workspace root unless absolute.
	Root string `yaml:"root"`

	// Bounded retries for the physical move step before compensating.
	MoveRetries int `yaml:"move_retries"`

	// Delay between move retries, e.g. "100ms".
	RetryDelay string `yaml:"retry_delay"`
}

// LedgerConfig configures the SQLite ledger.
type LedgerConfig struct {
	// Database path, relative to the workspace root unless absolute.
	DatabasePath string `yaml:"database_path"`
}

// LoggingConfig configures categorized debug logging.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Categories map[string]bool `yaml:"categories"`
	Level      string          `yaml:"level"`
}

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		Root: ".",
		Scan: ScanConfig{
			LookbackDays: 90,
			Excludes: []string{
				".git", "node_modules", "vendor", "dist", "build",
				".mothball",
			},
			RegistryFiles: []string{"package.json"},
			Concurrency:   8,
			GitDepth:      500,
		},
		Archive: ArchiveConfig{
			Root:        ".archived_scripts",
			MoveRetries: 3,
			RetryDelay:  "100ms",
		},
		Ledger: LedgerConfig{
			DatabasePath: filepath.Join(".mothball", "ledger.db"),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from .mothball/config.yaml under the workspace.
// Missing file returns defaults; a malformed file is an error.
func Load(workspace string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.Root = workspace

	path := filepath.Join(workspace, ".mothball", "config.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Root == "" || cfg.Root == "." {
		cfg.Root = workspace
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save writes the configuration to .mothball/config.yaml under the workspace.
func (c *Config) Save(workspace string) error {
	dir := filepath.Join(workspace, ".mothball")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if path := os.Getenv("MOTHBALL_DB"); path != "" {
		c.Ledger.DatabasePath = path
	}
	if root := os.Getenv("MOTHBALL_ARCHIVE_ROOT"); root != "" {
		c.Archive.Root = root
	}
	if days := os.Getenv("MOTHBALL_LOOKBACK_DAYS"); days != "" {
		if n, err := strconv.Atoi(days); err == nil && n > 0 {
			c.Scan.LookbackDays = n
		}
	}
}

// DatabasePath resolves the ledger path against the workspace root.
func (c *Config) DatabasePath() string {
	if filepath.IsAbs(c.Ledger.DatabasePath) {
		return c.Ledger.DatabasePath
	}
	return filepath.Join(c.Root, c.Ledger.DatabasePath)
}

// ArchiveRoot resolves the archive store path against the workspace root.
func (c *Config) ArchiveRoot() string {
	if filepath.IsAbs(c.Archive.Root) {
		return c.Archive.Root
	}
	return filepath.Join(c.Root, c.Archive.Root)
}

// GetRetryDelay returns the move retry delay as a duration.
func (c *Config) GetRetryDelay() time.Duration {
	d, err := time.ParseDuration(c.Archive.RetryDelay)
	if err != nil {
		return 100 * time.Millisecond
	}
	return d
}
