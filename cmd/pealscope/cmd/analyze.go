package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/pealscope/internal/config"
	"github.com/dbsmedya/pealscope/internal/database"
	"github.com/dbsmedya/pealscope/internal/export"
	"github.com/dbsmedya/pealscope/internal/lock"
	"github.com/dbsmedya/pealscope/internal/logger"
	"github.com/dbsmedya/pealscope/internal/peal"
	"github.com/dbsmedya/pealscope/internal/pipeline"
)

var (
	analyzeOutput    string
	analyzeOverwrite bool
	analyzeCompact   bool
	analyzeSaveDB    bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyse every peal and export the permutation structures",
	Long: `Analyze parses every peal file in the input directory, analyses each
sequence and writes a single JSON document containing:

  - changeRingingLibrary: per-peal rows, transitions and summaries
  - permutationFamilies: transition permutations shared across peals
  - symmetricGroupCatalog: S_n reference data for every stage seen
  - rejected: peal files that could not be analysed

Malformed peals are skipped and reported unless --strict is given.
With database.enabled (or --save-db) the run is also stored in MySQL.

Example:
  pealscope analyze --input peals/raw --output music_structures.json
  pealscope analyze -o - | jq '.permutationFamilies | length'`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output", "o", "",
		"Output file, or - for stdout (default from config)")
	analyzeCmd.Flags().BoolVar(&analyzeOverwrite, "overwrite", false,
		"Replace the output file if it already exists")
	analyzeCmd.Flags().BoolVar(&analyzeCompact, "compact", false,
		"Write compact JSON without indentation")
	analyzeCmd.Flags().BoolVar(&analyzeSaveDB, "save-db", false,
		"Store the run in the configured MySQL database")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(analyzeOutput)
	if err != nil {
		return err
	}
	if analyzeOverwrite {
		cfg.Output.Overwrite = true
	}
	if analyzeCompact {
		cfg.Output.Indent = false
	}
	if analyzeSaveDB {
		cfg.Database.Enabled = true
		if err := cfg.Validate(); err != nil {
			return err
		}
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
	if len(paths) == 0 {
		return fmt.Errorf("no peal files matching %q in %s", cfg.Input.Pattern, cfg.Input.Dir)
	}

	ctx, stop := pipeline.SignalContext(context.Background(), func(sig os.Signal) {
		log.Warnw("Received shutdown signal, stopping analysis", "signal", sig.String())
	})
	defer stop()

	orchestrator, err := pipeline.NewOrchestrator(pipeline.OptionsFromConfig(cfg.Analysis), log)
	if err != nil {
		return fmt.Errorf("failed to create orchestrator: %w", err)
	}

	res, err := orchestrator.Run(ctx, paths)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	if rejErr := res.Err(); rejErr != nil {
		log.Warnw("Some peal files were rejected", "count", len(res.Rejected), "error", rejErr)
	}

	env := export.NewEnvelope(res, cfg.Input.Dir, time.Now())
	toStdout := cfg.Output.Path == "-"
	if toStdout {
		if err := export.Encode(cmd.OutOrStdout(), env, cfg.Output.Indent); err != nil {
			return err
		}
	} else {
		if err := export.WriteFile(cfg.Output.Path, env, export.Options{
			Indent:    cfg.Output.Indent,
			Overwrite: cfg.Output.Overwrite,
		}); err != nil {
			return err
		}
		log.Infow("Wrote export", "path", cfg.Output.Path)
	}

	if cfg.Database.Enabled {
		if err := saveRun(ctx, cfg, log, res); err != nil {
			return err
		}
	}

	// The summary would corrupt a JSON stream on stdout
	if !toStdout {
		printRunSummary(res, cfg.Output.Path)
	}
	return nil
}

// saveRun stores the result in the configured MySQL database.
func saveRun(ctx context.Context, cfg *config.Config, log *logger.Logger, res *pipeline.Result) error {
	dbManager := database.NewManager(&cfg.Database, log)
	if err := dbManager.Connect(ctx); err != nil {
		return err
	}
	defer dbManager.Close()

	store, err := database.NewStore(dbManager.DB, cfg.Database.TablePrefix, log)
	if err != nil {
		return err
	}

	storeLock := lock.NewStoreLock(dbManager.DB, cfg.Database.TablePrefix)
	log.Debugw("Waiting for store lock", "lock", storeLock.LockName())
	return storeLock.WithLock(ctx, lock.TimeoutMedium, func() error {
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		if err := store.SaveResult(ctx, res, cfg.Input.Dir); err != nil {
			return fmt.Errorf("failed to save run: %w", err)
		}
		return nil
	})
}

func printRunSummary(res *pipeline.Result, outputPath string) {
	fmt.Fprintln(outputWriter)
	printHeader("Analysis Run %s", res.RunID)

	printKeyValues([][2]string{
		{"Structures", strconv.Itoa(len(res.Structures))},
		{"Families", strconv.Itoa(len(res.Families))},
		{"Stages", fmt.Sprint(res.Stages())},
		{"Catalog entries", strconv.Itoa(len(res.Catalog))},
		{"Duration", res.Duration.Round(time.Millisecond).String()},
		{"Output", outputPath},
	})

	if len(res.SkippedStages) > 0 {
		fmt.Fprintf(outputWriter, "  %s\n",
			statusWarn(fmt.Sprintf("catalog skipped for stages %v (above max_stage)", res.SkippedStages)))
	}

	if len(res.Rejected) > 0 {
		fmt.Fprintln(outputWriter)
		printSection("Rejected")
		for _, rej := range res.Rejected {
			fmt.Fprintf(outputWriter, "  %s\n", statusFail(rej.SourceFile))
			fmt.Fprintf(outputWriter, "      %s\n", rej.Reason)
		}
	}

	fmt.Fprintln(outputWriter)
	fmt.Fprintln(outputWriter, statusOK("Analysis complete"))
}
