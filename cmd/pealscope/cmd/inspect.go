package cmd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/pealscope/internal/family"
	"github.com/dbsmedya/pealscope/internal/histogram"
	"github.com/dbsmedya/pealscope/internal/peal"
	"github.com/dbsmedya/pealscope/internal/perm"
	"github.com/dbsmedya/pealscope/internal/sequence"
	"github.com/dbsmedya/pealscope/internal/transition"
)

var inspectRows bool

var inspectCmd = &cobra.Command{
	Use:   "inspect <peal-file>",
	Short: "Show the permutation summary of a single peal",
	Long: `Inspect parses one peal file and prints its metadata, parity counts,
movement and swap-pair histograms and the distinct transition permutations.

Example:
  pealscope inspect peals/raw/plain_bob_minor.txt
  pealscope inspect --rows peals/raw/plain_hunt_4.txt`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().BoolVar(&inspectRows, "rows", false,
		"Also print the numbered rows")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	p, err := peal.ParseFile(args[0])
	if err != nil {
		return err
	}

	analysis, err := sequence.Analyze(p.ID, p.Permutations)
	if err != nil {
		return err
	}

	printPealSummary(p, analysis, inspectRows)
	return nil
}

func printPealSummary(p *peal.Peal, a *sequence.Analysis, withRows bool) {
	printHeader("Peal: %s", p.Metadata.Title)

	hunt := "-"
	if p.HuntBells != nil {
		hunt = strconv.Itoa(*p.HuntBells)
	}
	pairs := [][2]string{
		{"ID", p.ID},
		{"Source", p.Source},
		{"Stage", strconv.Itoa(a.Stage)},
		{"Rows", strconv.Itoa(len(a.Rows))},
		{"Transitions", strconv.Itoa(a.TransitionCount())},
		{"Hunt bells", hunt},
		{"Adjacent only", strconv.FormatBool(a.Summary.AdjacentOnly)},
	}
	if len(p.Metadata.Tags) > 0 {
		pairs = append(pairs, [2]string{"Tags", strings.Join(p.Metadata.Tags, ", ")})
	}
	printKeyValues(pairs)

	if p.Metadata.Comment != "" {
		fmt.Fprintln(outputWriter, "  Comment:")
		for _, line := range strings.Split(p.Metadata.Comment, "\n") {
			fmt.Fprintf(outputWriter, "    %s\n", line)
		}
	}
	for _, w := range p.Warnings {
		fmt.Fprintf(outputWriter, "  %s\n", statusWarn(w))
	}

	fmt.Fprintln(outputWriter)
	printSection("Parity")
	printTable([]string{"Parity", "Rows", "Transitions"}, [][]string{
		{string(perm.Even),
			strconv.Itoa(a.Summary.RowParityCounts.Get(string(perm.Even))),
			strconv.Itoa(a.Summary.TransitionParityCounts.Get(string(perm.Even)))},
		{string(perm.Odd),
			strconv.Itoa(a.Summary.RowParityCounts.Get(string(perm.Odd))),
			strconv.Itoa(a.Summary.TransitionParityCounts.Get(string(perm.Odd)))},
	})

	fmt.Fprintln(outputWriter)
	printSection("Bell Movement")
	printTable([]string{"Direction", "Count"}, counterRows(a.Summary.MovementHistogram))
	fmt.Fprintln(outputWriter)
	printTable([]string{"Distance", "Count"}, counterRows(a.Summary.DistanceHistogram))

	if a.Summary.SwapPairHistogram.Len() > 0 {
		fmt.Fprintln(outputWriter)
		printSection("Swap Pairs")
		printTable([]string{"Pair", "Count"}, counterRows(a.Summary.SwapPairHistogram))
	}

	if len(a.Summary.UniquePositionPermutations) > 0 {
		fmt.Fprintln(outputWriter)
		printSection("Transition Permutations")
		rows := make([][]string, 0, len(a.Summary.UniquePositionPermutations))
		for _, u := range a.Summary.UniquePositionPermutations {
			rows = append(rows, []string{
				family.FamilyID(u.Permutation),
				u.CycleSignature,
				string(u.Parity),
				swapPairLabels(u.SwapPairs),
				strconv.Itoa(u.Count),
			})
		}
		printTable([]string{"Family", "Cycle type", "Parity", "Swaps", "Count"}, rows)
	}

	fmt.Fprintln(outputWriter)
	printSection("Row Length Histogram")
	lengths := make([]int, 0, len(p.LengthHistogram))
	for l := range p.LengthHistogram {
		lengths = append(lengths, l)
	}
	sort.Ints(lengths)
	for _, l := range lengths {
		fmt.Fprintf(outputWriter, "  %d: %d\n", l, p.LengthHistogram[l])
	}

	if withRows {
		fmt.Fprintln(outputWriter)
		printSection("Rows")
		width := len(strconv.Itoa(len(a.Rows)))
		for _, row := range a.Rows {
			fmt.Fprintf(outputWriter, "  %*d | %s\n", width, row.Index+1, row.Notation)
		}
	}
}

// counterRows converts a histogram into table rows, keeping key order.
func counterRows(c *histogram.Counter) [][]string {
	rows := make([][]string, 0, c.Len())
	for _, k := range c.Keys() {
		rows = append(rows, []string{k, strconv.Itoa(c.Get(k))})
	}
	return rows
}

func swapPairLabels(pairs []transition.SwapPair) string {
	if len(pairs) == 0 {
		return "-"
	}
	labels := make([]string, len(pairs))
	for i, p := range pairs {
		labels[i] = p.Label()
	}
	return strings.Join(labels, " ")
}
