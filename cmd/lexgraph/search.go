// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/lexical-graph/internal/search"
	"github.com/pdiddy/lexical-graph/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search TERM",
	Short: "Find lexemes by attribute and expand their neighbourhood",
	Long: `Search matches TERM against one node attribute (lemma by default) and
returns the subgraph within --depth hops of every match. Matching folds
case and character width; reading matches also fold katakana to hiragana.
Use --exact to require the whole value to match.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func runSearch(cmd *cobra.Command, args []string) error {
	attr, _ := cmd.Flags().GetString("attribute")
	depth, _ := cmd.Flags().GetInt("depth")
	exact, _ := cmd.Flags().GetBool("exact")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx := context.Background()
	store, err := a.loadStore(ctx)
	if err != nil {
		return err
	}

	engine := search.New(store,
		search.WithMaxDepth(a.cfg.Search.MaxDepth),
		search.WithMetrics(a.metrics),
		search.WithLogger(a.log),
	)
	sg, err := engine.Search(types.SearchQuery{
		Term:      args[0],
		Attribute: types.Attribute(attr),
		Depth:     depth,
		Exact:     exact,
	})
	if err != nil {
		return err
	}

	if jsonOutput {
		return writeJSON(os.Stdout, sg)
	}
	printSubgraph(os.Stdout, sg)
	return nil
}

func printSubgraph(w io.Writer, sg types.Subgraph) {
	if sg.IsEmpty() {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-5s  %-3s  %-12s  %-14s  %-10s  %-20s  %s\n",
		"Match", "Hop", "Lemma", "Reading", "POS", "Translation", "Level")
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for _, n := range sg.Nodes {
		mark := ""
		if n.Match {
			mark = "*"
		}
		fmt.Fprintf(w, "%-5s  %-3d  %-12s  %-14s  %-10s  %-20s  %s\n",
			mark, n.Hop, n.Lemma, n.Reading, n.PartOfSpeech, truncate(n.Translation, 20), n.ProficiencyLevel)
	}

	if len(sg.Edges) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%-12s  %-12s  %-6s  %s\n", "Source", "Target", "Weight", "Relations")
		fmt.Fprintln(w, strings.Repeat("-", 60))
		for _, e := range sg.Edges {
			fmt.Fprintf(w, "%-12s  %-12s  %-6.2f  %s\n", e.Source, e.Target, e.Weight, relationSummary(e))
		}
	}

	fmt.Fprintf(w, "\n%d nodes, %d edges\n", len(sg.Nodes), len(sg.Edges))
}

// relationSummary renders an edge's relations, primary first, e.g.
// "synonym 0.70 (旅), antonym 0.20".
func relationSummary(e types.Edge) string {
	order := []types.RelationType{types.RelationSynonym, types.RelationAntonym}
	if e.Primary == types.RelationAntonym {
		order = []types.RelationType{types.RelationAntonym, types.RelationSynonym}
	}
	var parts []string
	for _, rel := range order {
		r, ok := e.Relations[rel]
		if !ok {
			continue
		}
		s := fmt.Sprintf("%s %.2f", rel, r.Strength)
		if r.MutualSense != "" {
			s += " (" + r.MutualSense + ")"
		} else if r.Domain != "" {
			s += " [" + r.Domain + "]"
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, ", ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	searchCmd.Flags().String("attribute", "lemma", "attribute to match: lemma, reading, part_of_speech, translation, proficiency_level")
	searchCmd.Flags().Int("depth", 1, "number of hops to expand from each match")
	searchCmd.Flags().Bool("exact", false, "require the whole attribute value to match")
	searchCmd.Flags().Bool("json", false, "output the subgraph as JSON")

	rootCmd.AddCommand(searchCmd)
}
