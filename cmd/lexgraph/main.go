// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the lexgraph CLI. It loads the
// latest snapshot of the Japanese lexical network, runs one command
// against it, and saves a new snapshot when the command changed the graph.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/lexical-graph/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the lexgraph CLI.
var rootCmd = &cobra.Command{
	Use:   "lexgraph",
	Short: "Semantic lexical network of Japanese synonyms and antonyms",
	Long: `lexgraph maintains a graph of Japanese lexemes connected by weighted
synonym and antonym relations. Relations are generated by a language model,
validated, and merged into the graph; every change is persisted as a new
dated snapshot.

Use search to explore the network, generate to grow it, and snapshot, history,
and export to inspect what has been stored.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default: ./lexgraph.yaml or ~/.config/lexgraph/lexgraph.yaml)")
	pf.String("data-dir", "", "base directory for snapshots and history (default: data)")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.Bool("log-dev", false, "human-readable development logging")
	pf.String("metrics-file", "", "write Prometheus metrics in textfile format on exit")

	_ = viper.BindPFlag("graph.data_dir", pf.Lookup("data-dir"))
	_ = viper.BindPFlag("log.level", pf.Lookup("log-level"))
	_ = viper.BindPFlag("log.development", pf.Lookup("log-dev"))
	_ = viper.BindPFlag("metrics.textfile_path", pf.Lookup("metrics-file"))

	setDefaults()
}

func setDefaults() {
	viper.SetDefault("graph.data_dir", "data")

	viper.SetDefault("snapshot.prefix", "lexgraph")
	viper.SetDefault("snapshot.checkpoint_every", 10)
	viper.SetDefault("snapshot.checkpoint_interval", time.Duration(0))

	viper.SetDefault("search.max_depth", 3)
	viper.SetDefault("search.neighbor_limit", 20)

	viper.SetDefault("generation.provider", "claude")
	viper.SetDefault("generation.model", "claude-sonnet-4-5-20250929")
	viper.SetDefault("generation.max_retries", 3)
	viper.SetDefault("generation.timeout", 2*time.Minute)
	viper.SetDefault("generation.min_synonyms", 15)
	viper.SetDefault("generation.min_antonyms", 5)
	viper.SetDefault("generation.context_neighbors", 10)
	viper.SetDefault("generation.concurrency", 2)

	viper.SetDefault("neo4j.uri", "bolt://localhost:7687")
	viper.SetDefault("neo4j.username", "neo4j")
	viper.SetDefault("neo4j.batch_size", 500)

	viper.SetDefault("log.level", "info")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("lexgraph")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "lexgraph"))
		}
	}

	viper.SetEnvPrefix("LEXGRAPH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
