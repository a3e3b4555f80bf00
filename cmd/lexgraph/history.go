// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/lexical-graph/internal/history"
	"github.com/pdiddy/lexical-graph/pkg/types"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded generation attempts",
	Long: `History lists generation attempts from the history database, newest
first, with their outcome and change counts. Use --format json or yaml for a
full export including skipped entries.`,
	RunE: runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	term, _ := cmd.Flags().GetString("term")
	status, _ := cmd.Flags().GetString("status")
	limit, _ := cmd.Flags().GetInt("limit")
	format, _ := cmd.Flags().GetString("format")

	switch types.GenerationStatus(status) {
	case "", types.StatusSuccess, types.StatusPartial, types.StatusFailed:
	default:
		return fmt.Errorf("unsupported status %q: use success, partial, or failed", status)
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	hist, err := a.openHistory()
	if err != nil {
		return err
	}
	defer hist.Close()

	ctx := context.Background()
	opts := history.QueryOptions{Term: term, Status: types.GenerationStatus(status), Limit: limit}

	switch format {
	case "table", "":
		results, err := hist.Recent(ctx, opts)
		if err != nil {
			return err
		}
		printHistory(results)
		return nil
	case "json":
		return hist.ExportJSON(ctx, os.Stdout, opts)
	case "yaml":
		return hist.ExportYAML(ctx, os.Stdout, opts)
	default:
		return fmt.Errorf("unsupported format %q: use table, json, or yaml", format)
	}
}

func printHistory(results []types.GenerationResult) {
	if len(results) == 0 {
		fmt.Println("No generations recorded.")
		return
	}
	fmt.Printf("%-20s  %-12s  %-8s  %-7s  %-7s  %-7s  %s\n",
		"Started", "Term", "Status", "Created", "Updated", "Skipped", "Model")
	fmt.Println(strings.Repeat("-", 90))
	for _, r := range results {
		fmt.Printf("%-20s  %-12s  %-8s  %-7d  %-7d  %-7d  %s\n",
			r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Term, r.Status,
			r.Created(), r.Updated(), len(r.Skipped), r.Model)
		if r.Error != "" {
			fmt.Printf("  error: %s\n", truncate(r.Error, 80))
		}
	}
	fmt.Printf("\n%d attempts\n", len(results))
}

func init() {
	historyCmd.Flags().String("term", "", "filter by source term")
	historyCmd.Flags().String("status", "", "filter by status: success, partial, failed")
	historyCmd.Flags().Int("limit", 0, "maximum attempts to show (0 = 50 for table, all for json/yaml)")
	historyCmd.Flags().String("format", "table", "output format: table, json, or yaml")

	rootCmd.AddCommand(historyCmd)
}
