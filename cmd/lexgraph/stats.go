// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/lexical-graph/internal/graph"
	"github.com/pdiddy/lexical-graph/pkg/types"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarise the size and shape of the graph",
	Long: `Stats prints counts, density and the highest-degree lexemes. With
--analysis it prints one deeper view instead:

  components  connected components and the share held by the largest
  degrees     degree range, average and histogram
  levels      node count, average degree and sample lemmas per proficiency level`,
	RunE: runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	top, _ := cmd.Flags().GetInt("top")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	analysis, _ := cmd.Flags().GetString("analysis")

	switch analysis {
	case "", "components", "degrees", "levels":
	default:
		return fmt.Errorf("unknown analysis %q: want components, degrees or levels", analysis)
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	store, err := a.loadStore(context.Background())
	if err != nil {
		return err
	}
	if analysis != "" {
		return printAnalysis(store, analysis, top, jsonOutput)
	}
	st := store.Stats(top)

	if jsonOutput {
		return writeJSON(os.Stdout, st)
	}

	fmt.Printf("Nodes:       %d\n", st.Nodes)
	fmt.Printf("Edges:       %d\n", st.Edges)
	fmt.Printf("Density:     %.6f\n", st.Density)
	fmt.Printf("Avg degree:  %.2f\n", st.AvgDegree)
	fmt.Printf("Isolated:    %d\n", st.Isolated)

	fmt.Println("\nRelations:")
	for _, rel := range []types.RelationType{types.RelationSynonym, types.RelationAntonym} {
		fmt.Printf("  %-16s %d\n", rel, st.Relations[rel])
	}
	printCounts("Parts of speech", st.PartsOfSpeech)
	printCounts("Proficiency levels", st.ProficiencyLevels)

	if len(st.TopDegree) > 0 {
		fmt.Printf("\nTop %d by degree:\n", len(st.TopDegree))
		fmt.Println(strings.Repeat("-", 24))
		for _, d := range st.TopDegree {
			fmt.Printf("  %-14s %d\n", d.Lemma, d.Degree)
		}
	}
	return nil
}

func printAnalysis(store *graph.Store, kind string, top int, jsonOutput bool) error {
	switch kind {
	case "components":
		c := store.Components()
		if jsonOutput {
			return writeJSON(os.Stdout, c)
		}
		fmt.Printf("Components:       %d\n", c.Count)
		fmt.Printf("Largest:          %d (%.1f%%)\n", c.LargestSize, c.LargestPercent)

	case "degrees":
		d := store.Degrees(top)
		if jsonOutput {
			return writeJSON(os.Stdout, d)
		}
		fmt.Printf("Min degree:  %d\n", d.Min)
		fmt.Printf("Max degree:  %d\n", d.Max)
		fmt.Printf("Avg degree:  %.2f\n", d.Average)
		fmt.Println("\nDegree  Nodes")
		fmt.Println(strings.Repeat("-", 14))
		for _, h := range d.Histogram {
			fmt.Printf("%6d  %d\n", h.Degree, h.Nodes)
		}
		if len(d.Top) > 0 {
			fmt.Printf("\nTop %d by degree:\n", len(d.Top))
			for _, e := range d.Top {
				fmt.Printf("  %-14s %d\n", e.Lemma, e.Degree)
			}
		}

	case "levels":
		levels := store.Levels(5)
		if jsonOutput {
			return writeJSON(os.Stdout, levels)
		}
		if len(levels) == 0 {
			fmt.Println("No proficiency levels recorded.")
			return nil
		}
		fmt.Printf("%-8s  %-6s  %-10s  %s\n", "Level", "Nodes", "Avg degree", "Sample")
		fmt.Println(strings.Repeat("-", 60))
		for _, l := range levels {
			fmt.Printf("%-8s  %-6d  %-10.2f  %s\n", l.Level, l.Nodes, l.AvgDegree, strings.Join(l.Sample, " "))
		}
	}
	return nil
}

func printCounts(title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	fmt.Printf("\n%s:\n", title)
	for _, k := range keys {
		fmt.Printf("  %-16s %d\n", k, counts[k])
	}
}

func init() {
	statsCmd.Flags().Int("top", 10, "number of highest-degree lexemes to list")
	statsCmd.Flags().Bool("json", false, "output as JSON")
	statsCmd.Flags().String("analysis", "", "deeper view: components, degrees or levels")

	rootCmd.AddCommand(statsCmd)
}
