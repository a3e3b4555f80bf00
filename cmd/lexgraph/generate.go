// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/lexical-graph/internal/generate"
	"github.com/pdiddy/lexical-graph/internal/secrets"
	"github.com/pdiddy/lexical-graph/internal/snapshot"
	"github.com/pdiddy/lexical-graph/pkg/types"
)

var generateCmd = &cobra.Command{
	Use:   "generate TERM...",
	Short: "Generate synonym and antonym relations with a language model",
	Long: `Generate asks the configured model for synonyms and antonyms of each
TERM, validates the reply, and merges it into the graph as one atomic batch
per term. Entries that fail validation are skipped and reported; a reply
that is not a valid envelope leaves the graph untouched.

Terms that already have a recorded generation and are present in the loaded
graph with at least one edge are skipped unless --force is given. Snapshots are checkpointed during the run and once more at the end.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGenerate,
}

func runGenerate(cmd *cobra.Command, args []string) error {
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	force, _ := cmd.Flags().GetBool("force")
	provider, _ := cmd.Flags().GetString("provider")
	model, _ := cmd.Flags().GetString("model")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	cfg := a.cfg.Generation
	if provider != "" {
		cfg.Provider = types.AIProvider(provider)
		cfg.APIKey = apiKey(cfg.Provider)
	}
	if model != "" {
		cfg.Model = model
		cfg.FallbackModels = nil
	}
	if cfg.APIKey == "" {
		key := secrets.AnthropicAPIKey
		if cfg.Provider == types.ProviderOpenAI {
			key = secrets.OpenAIAPIKey
		}
		return fmt.Errorf("no API key for provider %q: set %s or add .secrets/%s", cfg.Provider, secrets.EnvName(key), key)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := a.loadStore(ctx)
	if err != nil {
		return err
	}

	hist, err := a.openHistory()
	if err != nil {
		return err
	}
	defer hist.Close()

	backend, err := generate.NewBackend(cfg.AIConfig, &http.Client{Timeout: cfg.Timeout})
	if err != nil {
		return err
	}

	cp := snapshot.NewCheckpointer(store, a.snapshots, a.cfg.Snapshot, a.log)
	go cp.Run(ctx)

	engine := generate.New(store, backend, cfg,
		generate.WithLogger(a.log),
		generate.WithMetrics(a.metrics),
		generate.WithCheckpointer(cp),
		generate.WithRecorder(hist),
	)

	terms := make([]string, 0, len(args))
	for _, arg := range args {
		if t := strings.TrimSpace(arg); t != "" {
			terms = append(terms, t)
		}
	}
	if len(terms) == 0 {
		return fmt.Errorf("no terms given")
	}

	opts := generate.BatchOptions{Concurrency: concurrency}
	if !force {
		applied, err := hist.Generated(ctx, terms)
		if err != nil {
			return err
		}
		opts.Skip = generate.SkipApplied(store, applied)
	}

	results, summary, runErr := engine.GenerateAll(ctx, terms, opts, os.Stderr)

	// The run context may be cancelled; the final checkpoint must still run.
	if err := cp.Close(context.WithoutCancel(ctx)); err != nil {
		return fmt.Errorf("saving final snapshot: %w", err)
	}

	if jsonOutput {
		if err := writeJSON(os.Stdout, results); err != nil {
			return err
		}
	} else {
		printGenerationResults(results)
	}

	fmt.Fprintf(os.Stderr, "\n%d generated, %d skipped, %d failed (of %d terms)\n",
		summary.Generated, summary.Skipped, summary.Failed, summary.Total())

	if runErr != nil {
		return runErr
	}
	if summary.HasFailures() {
		return fmt.Errorf("%d term(s) failed generation", summary.Failed)
	}
	return nil
}

func printGenerationResults(results []types.GenerationResult) {
	for _, r := range results {
		fmt.Printf("%s  %s", r.Term, r.Status)
		if r.Failed() {
			fmt.Printf("  %s\n", r.Error)
			continue
		}
		fmt.Printf("  nodes +%d ~%d  edges +%d ~%d  skipped %d\n",
			r.NodesCreated, r.NodesUpdated, r.EdgesCreated, r.EdgesUpdated, len(r.Skipped))
		for _, sk := range r.Skipped {
			lemma := sk.Lemma
			if lemma == "" {
				lemma = "-"
			}
			fmt.Printf("    skipped %s[%d] %s: %s (%s)\n", sk.Relation, sk.Index, lemma, sk.Reason, sk.Code)
		}
	}
}

func init() {
	generateCmd.Flags().Int("concurrency", 0, "parallel model requests (0 = generation.concurrency)")
	generateCmd.Flags().Bool("force", false, "regenerate terms that already have a recorded generation")
	generateCmd.Flags().String("provider", "", "override generation.provider: claude or openai")
	generateCmd.Flags().String("model", "", "override generation.model (disables fallback models)")
	generateCmd.Flags().Bool("json", false, "output results as JSON")

	rootCmd.AddCommand(generateCmd)
}
