// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/lexical-graph/internal/importer"
	"github.com/pdiddy/lexical-graph/internal/reading"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Fill missing node attributes",
	Long: `Enrich fills attributes that are empty on existing nodes, either by
morphological analysis (readings) or from a vocabulary file (import).
Attributes that already have a value are never replaced.`,
}

var enrichReadingsCmd = &cobra.Command{
	Use:   "readings",
	Short: "Derive missing readings and parts of speech with kagome",
	RunE:  runEnrichReadings,
}

func runEnrichReadings(cmd *cobra.Command, args []string) error {
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

	an, err := reading.NewAnalyzer()
	if err != nil {
		return err
	}
	sum, err := reading.FillMissing(store, an, a.log)
	if err != nil {
		return err
	}
	fmt.Printf("%d nodes updated, %d unresolved\n", sum.Updated, sum.Unresolved)
	if sum.Updated == 0 {
		return nil
	}
	return a.save(ctx)
}

var enrichImportCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Fill missing attributes from a CSV or YAML vocabulary list",
	Long: `Import reads rows with the columns lemma, reading, part_of_speech,
translation and proficiency_level (legacy names such as kanji, hiragana and
JLPT are accepted). Files ending in .yaml or .yml are read as a YAML list;
anything else is read as CSV with a header row.

Only empty attributes of existing lexemes are filled. Use --create to add
lexemes that are not in the graph yet.`,
	Args: cobra.ExactArgs(1),
	RunE: runEnrichImport,
}

func runEnrichImport(cmd *cobra.Command, args []string) error {
	create, _ := cmd.Flags().GetBool("create")

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := importer.Read(f, args[0])
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

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

	sum, err := importer.Apply(store, rows, importer.Options{Create: create}, a.log)
	if err != nil {
		return err
	}
	fmt.Printf("%d rows: %d created, %d updated, %d unchanged, %d not in graph, %d invalid\n",
		sum.Rows, sum.Created, sum.Updated, sum.Unchanged, sum.Missing, sum.Invalid)
	if sum.Created+sum.Updated == 0 {
		return nil
	}
	return a.save(ctx)
}

func init() {
	enrichImportCmd.Flags().Bool("create", false, "add lexemes that are not in the graph")

	enrichCmd.AddCommand(enrichReadingsCmd)
	enrichCmd.AddCommand(enrichImportCmd)

	rootCmd.AddCommand(enrichCmd)
}
