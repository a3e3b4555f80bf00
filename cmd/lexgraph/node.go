// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/lexical-graph/internal/graph"
	"github.com/pdiddy/lexical-graph/internal/reading"
	"github.com/pdiddy/lexical-graph/internal/search"
	"github.com/pdiddy/lexical-graph/pkg/types"
)

var nodeCmd = &cobra.Command{
	Use:   "node",
	Short: "Inspect or edit a single lexeme",
}

// --- show subcommand ---

var nodeShowCmd = &cobra.Command{
	Use:   "show LEMMA",
	Short: "Show a lexeme's attributes and ranked neighbours",
	Args:  cobra.ExactArgs(1),
	RunE:  runNodeShow,
}

type nodeDetail struct {
	Node      types.Node         `json:"node"`
	Neighbors []types.Neighbor   `json:"neighbors"`
	Profile   *graph.NodeProfile `json:"profile,omitempty"`
}

func runNodeShow(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	analysis, _ := cmd.Flags().GetBool("analysis")

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	store, err := a.loadStore(context.Background())
	if err != nil {
		return err
	}

	n, ok := store.GetNode(args[0])
	if !ok {
		return fmt.Errorf("lemma %q not found", args[0])
	}
	if limit == 0 {
		limit = a.cfg.Search.NeighborLimit
	}
	ns := search.New(store).Neighbors(n.Lemma, limit)

	var profile *graph.NodeProfile
	if analysis {
		if p, ok := store.Profile(n.Lemma, 0); ok {
			profile = &p
		}
	}

	if jsonOutput {
		return writeJSON(os.Stdout, nodeDetail{Node: n, Neighbors: ns, Profile: profile})
	}

	fmt.Printf("Lemma:        %s\n", n.Lemma)
	fmt.Printf("Reading:      %s\n", n.Reading)
	fmt.Printf("POS:          %s\n", n.PartOfSpeech)
	fmt.Printf("Translation:  %s\n", n.Translation)
	fmt.Printf("Level:        %s\n", n.ProficiencyLevel)
	if profile != nil {
		printProfile(profile)
	}

	if len(ns) == 0 {
		fmt.Println("\nNo neighbours.")
		return nil
	}
	fmt.Println()
	fmt.Printf("%-4s  %-12s  %-14s  %-6s  %s\n", "Rank", "Neighbour", "Reading", "Weight", "Relations")
	fmt.Println(strings.Repeat("-", 70))
	for i, nb := range ns {
		fmt.Printf("%-4d  %-12s  %-14s  %-6.2f  %s\n",
			i+1, nb.Node.Lemma, nb.Node.Reading, nb.Edge.Weight, relationSummary(nb.Edge))
	}
	return nil
}

func printProfile(p *graph.NodeProfile) {
	fmt.Printf("Degree:       %d\n", p.Degree)
	fmt.Printf("Relations:    %d synonym, %d antonym\n",
		p.Relations[types.RelationSynonym], p.Relations[types.RelationAntonym])
	printCounts("Neighbour parts of speech", p.Neighbors[types.AttrPartOfSpeech])
	printCounts("Neighbour proficiency levels", p.Neighbors[types.AttrProficiencyLevel])
}

// --- set subcommand ---

var nodeSetCmd = &cobra.Command{
	Use:   "set LEMMA",
	Short: "Create a lexeme or update some of its attributes",
	Long: `Set inserts LEMMA when it is new, or overwrites only the attributes given
as flags when it exists. Katakana readings are stored as hiragana. A new
snapshot is saved when anything changed.`,
	Args: cobra.ExactArgs(1),
	RunE: runNodeSet,
}

func runNodeSet(cmd *cobra.Command, args []string) error {
	rd, _ := cmd.Flags().GetString("reading")
	pos, _ := cmd.Flags().GetString("pos")
	tr, _ := cmd.Flags().GetString("translation")
	level, _ := cmd.Flags().GetString("level")

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

	c, err := store.UpsertNode(args[0], types.NodeAttributes{
		Reading:          reading.ToHiragana(strings.TrimSpace(rd)),
		PartOfSpeech:     strings.TrimSpace(pos),
		Translation:      strings.TrimSpace(tr),
		ProficiencyLevel: strings.TrimSpace(level),
	})
	if err != nil {
		return err
	}
	fmt.Printf("%s %s\n", c, strings.TrimSpace(args[0]))
	if c == graph.Unchanged {
		return nil
	}
	return a.save(ctx)
}

func init() {
	nodeShowCmd.Flags().Int("limit", 0, "maximum neighbours to list (0 = search.neighbor_limit)")
	nodeShowCmd.Flags().Bool("json", false, "output as JSON")
	nodeShowCmd.Flags().Bool("analysis", false, "include relation and neighbour attribute counts")

	nodeSetCmd.Flags().String("reading", "", "reading in kana")
	nodeSetCmd.Flags().String("pos", "", "part of speech")
	nodeSetCmd.Flags().String("translation", "", "English translation")
	nodeSetCmd.Flags().String("level", "", "proficiency level (e.g. JLPT N4)")

	nodeCmd.AddCommand(nodeShowCmd)
	nodeCmd.AddCommand(nodeSetCmd)

	rootCmd.AddCommand(nodeCmd)
}
