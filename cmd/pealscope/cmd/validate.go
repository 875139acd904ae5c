package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/pealscope/internal/database"
	"github.com/dbsmedya/pealscope/internal/peal"
	"github.com/dbsmedya/pealscope/internal/sequence"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and every peal file",
	Long: `Validate checks the configuration file and parses and analyses every
peal file in the input directory without writing any output.

Checks performed:
  - Configuration syntax and required fields
  - Peal file syntax, stage and row notation
  - Every row is a permutation of the stage
  - Database connectivity (when database.enabled is set)

Example:
  pealscope validate --config pealscope.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig("")
	if err != nil {
		return err
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	paths, err := peal.Discover(cfg.Input.Dir, cfg.Input.Pattern)
	if err != nil {
		return fmt.Errorf("failed to discover peal files: %w", err)
	}

	printHeader("Configuration Validation")
	printKeyValues([][2]string{
		{"Config file", GetConfigFile()},
		{"Input", filepath.Join(cfg.Input.Dir, cfg.Input.Pattern)},
		{"Peal files", fmt.Sprint(len(paths))},
	})
	fmt.Fprintln(outputWriter)

	failures := 0
	for _, path := range paths {
		p, err := peal.ParseFile(path)
		if err == nil {
			_, err = sequence.Analyze(p.ID, p.Permutations)
		}
		if err != nil {
			failures++
			fmt.Fprintf(outputWriter, "  %s\n", statusFail(path))
			fmt.Fprintf(outputWriter, "      %v\n", err)
			continue
		}
		fmt.Fprintf(outputWriter, "  %s\n", statusOK(fmt.Sprintf("%s (stage %d, %d rows)", path, p.Stage, len(p.Rows))))
		for _, w := range p.Warnings {
			fmt.Fprintf(outputWriter, "      %s\n", statusWarn(w))
		}
	}

	if cfg.Database.Enabled {
		ctx := context.Background()
		dbManager := database.NewManager(&cfg.Database, log)
		if err := dbManager.Connect(ctx); err != nil {
			fmt.Fprintf(outputWriter, "  %s\n", statusFail("database: "+err.Error()))
			failures++
		} else {
			defer dbManager.Close()
			if err := dbManager.Ping(ctx); err != nil {
				fmt.Fprintf(outputWriter, "  %s\n", statusFail("database: "+err.Error()))
				failures++
			} else {
				fmt.Fprintf(outputWriter, "  %s\n", statusOK("database reachable"))
			}
		}
	}

	fmt.Fprintln(outputWriter)
	if failures > 0 {
		return fmt.Errorf("validation failed for %d item(s)", failures)
	}

	fmt.Fprintln(outputWriter, "=== Validation Complete ===")
	fmt.Fprintln(outputWriter, statusOK("All peal files validated successfully"))
	return nil
}
