package cmd

import (
	"fmt"
	"os"

	"github.com/gookit/color"
	"github.com/spf13/cobra"

	"github.com/dbsmedya/pealscope/internal/config"
	"github.com/dbsmedya/pealscope/internal/logger"
)

// Version information (set via ldflags at build time)
var (
	Version = "0.0.1-dev"
	Commit  = "unknown"
)

// CLI flags that override config file values
var (
	cfgFile   string
	logLevel  string
	logFormat string
	inputDir  string
	maxStage  int
	workers   int
	strict    bool
	noColor   bool
)

var rootCmd = &cobra.Command{
	Use:   "pealscope",
	Short: "Permutation analysis for change-ringing peals",
	Long: `Analyse change-ringing peal definitions as sequences of permutations.

Features:
  - Cycle decomposition, parity and inversion counts for every row
  - Transition classification with swap pairs and bell movements
  - Permutation families deduplicated across all peals
  - Exhaustive symmetric group catalogs for small stages
  - JSON export and optional MySQL persistence`,
	Version:      Version,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		applyColorMode()
	},
}

// applyColorMode turns off colour output when --no-color is set.
func applyColorMode() {
	if noColor {
		color.Disable()
	}
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Config file flag
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "pealscope.yaml",
		"Path to configuration file (defaults are used when it does not exist)")

	// Logging overrides
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"Override log format (json, text)")

	// Analysis overrides
	rootCmd.PersistentFlags().StringVarP(&inputDir, "input", "i", "",
		"Override the directory containing peal files")
	rootCmd.PersistentFlags().IntVar(&maxStage, "max-stage", 0,
		"Override the largest stage enumerated for group catalogs")
	rootCmd.PersistentFlags().IntVarP(&workers, "workers", "w", 0,
		"Override the number of concurrent sequence analyses")
	rootCmd.PersistentFlags().BoolVar(&strict, "strict", false,
		"Fail on the first malformed sequence instead of skipping it")

	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false,
		"Disable coloured output")
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}

// CLIOverrides contains flag values that override config file settings
type CLIOverrides struct {
	LogLevel  string
	LogFormat string
	InputDir  string
	MaxStage  int
	Workers   int
	Strict    bool
}

// GetCLIOverrides returns the CLI flag override values
func GetCLIOverrides() CLIOverrides {
	return CLIOverrides{
		LogLevel:  logLevel,
		LogFormat: logFormat,
		InputDir:  inputDir,
		MaxStage:  maxStage,
		Workers:   workers,
		Strict:    strict,
	}
}

// loadConfig loads the config file, applies flag overrides and validates
// the result. outputPath overrides output.path when non-empty.
func loadConfig(outputPath string) (*config.Config, error) {
	cfg, _, err := config.LoadOrDefault(GetConfigFile())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	o := GetCLIOverrides()
	cfg.ApplyOverrides(o.LogLevel, o.LogFormat, o.InputDir, outputPath,
		o.MaxStage, o.Workers, o.Strict)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger builds the logger for a command from its configuration.
func newLogger(cfg *config.Config) (*logger.Logger, error) {
	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return log, nil
}
