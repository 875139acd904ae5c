package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/pealscope/internal/perm"
	"github.com/dbsmedya/pealscope/internal/symgroup"
)

var (
	catalogStage   int
	catalogSamples int
	catalogJSON    bool
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Show the symmetric group catalog for one stage",
	Long: `Catalog enumerates every permutation of the given stage and prints the
group order, parity split, cycle-type distribution with sample elements and
the canonical generators.

Enumeration visits n! elements, so stages above analysis.max_stage are
refused. Raise the limit with --max-stage.

Example:
  pealscope catalog --stage 4
  pealscope catalog --stage 6 --samples 1 --json`,
	RunE: runCatalog,
}

func init() {
	catalogCmd.Flags().IntVarP(&catalogStage, "stage", "s", 0,
		"Stage (number of bells) to enumerate")
	catalogCmd.Flags().IntVar(&catalogSamples, "samples", 0,
		"Samples kept per cycle type (default from config)")
	catalogCmd.Flags().BoolVar(&catalogJSON, "json", false,
		"Print the catalog entry as JSON")
	_ = catalogCmd.MarkFlagRequired("stage")
	rootCmd.AddCommand(catalogCmd)
}

func runCatalog(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig("")
	if err != nil {
		return err
	}

	opts := symgroup.Options{
		MaxStage:        cfg.Analysis.MaxStage,
		SamplesPerCycle: cfg.Analysis.SamplesPerCycle,
	}
	if catalogSamples > 0 {
		opts.SamplesPerCycle = catalogSamples
	}

	entry, err := symgroup.Build(catalogStage, opts)
	if err != nil {
		var scopeErr *symgroup.ScopeLimitError
		if errors.As(err, &scopeErr) && catalogStage > 0 {
			return fmt.Errorf("%w (raise it with --max-stage)", err)
		}
		return err
	}

	if catalogJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(entry)
	}

	printCatalogEntry(entry)
	return nil
}

func printCatalogEntry(e *symgroup.Entry) {
	printHeader("Symmetric Group %s", e.Label)
	printKeyValues([][2]string{
		{"Stage", strconv.Itoa(e.Stage)},
		{"Order", strconv.Itoa(e.Order)},
		{"Even", strconv.Itoa(e.ParityCounts.Get(string(perm.Even)))},
		{"Odd", strconv.Itoa(e.ParityCounts.Get(string(perm.Odd)))},
	})

	fmt.Fprintln(outputWriter)
	printSection("Cycle Types")
	rows := make([][]string, 0, len(e.CycleTypeSamples))
	for _, ct := range e.CycleTypeSamples {
		samples := make([]string, len(ct.Samples))
		for i, s := range ct.Samples {
			samples[i] = perm.Notation(s.Permutation)
		}
		parity := ""
		if len(ct.Samples) > 0 {
			parity = string(ct.Samples[0].Parity)
		}
		rows = append(rows, []string{
			displaySignature(ct.CycleSignature),
			strconv.Itoa(ct.Count),
			parity,
			strings.Join(samples, " "),
		})
	}
	printTable([]string{"Cycle type", "Count", "Parity", "Samples"}, rows)

	fmt.Fprintln(outputWriter)
	printSection("Canonical Generators")
	rows = rows[:0]
	for _, g := range e.CanonicalGenerators {
		rows = append(rows, []string{
			g.Label,
			perm.Notation(g.Permutation),
			displaySignature(g.CycleSignature),
			string(g.Parity),
			g.Summary,
		})
	}
	printTable([]string{"Label", "Row", "Cycle type", "Parity", "Description"}, rows)
}

// displaySignature shows the empty signature of S_0 as a dash.
func displaySignature(sig string) string {
	if sig == "" {
		return "-"
	}
	return sig
}
