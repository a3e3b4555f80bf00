// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/pdiddy/lexical-graph/internal/graph"
	"github.com/pdiddy/lexical-graph/internal/history"
	"github.com/pdiddy/lexical-graph/internal/logger"
	"github.com/pdiddy/lexical-graph/internal/metrics"
	"github.com/pdiddy/lexical-graph/internal/secrets"
	"github.com/pdiddy/lexical-graph/internal/snapshot"
	"github.com/pdiddy/lexical-graph/pkg/types"
)

// loadConfig assembles the configuration from defaults, the config file,
// LEXGRAPH_* environment variables, and bound flags.
func loadConfig() types.Config {
	var cfg types.Config

	cfg.Graph.DataDir = viper.GetString("graph.data_dir")

	cfg.Snapshot = types.SnapshotConfig{
		Dir:                viper.GetString("snapshot.dir"),
		Prefix:             viper.GetString("snapshot.prefix"),
		CheckpointEvery:    viper.GetInt("snapshot.checkpoint_every"),
		CheckpointInterval: viper.GetDuration("snapshot.checkpoint_interval"),
	}
	if cfg.Snapshot.Dir == "" {
		cfg.Snapshot.Dir = filepath.Join(cfg.Graph.DataDir, "snapshots")
	}

	cfg.Search = types.SearchConfig{
		MaxDepth:      viper.GetInt("search.max_depth"),
		NeighborLimit: viper.GetInt("search.neighbor_limit"),
	}

	cfg.Generation = types.GenerationConfig{
		AIConfig: types.AIConfig{
			Provider:       types.AIProvider(viper.GetString("generation.provider")),
			Model:          viper.GetString("generation.model"),
			FallbackModels: viper.GetStringSlice("generation.fallback_models"),
			BaseURL:        viper.GetString("generation.base_url"),
			MaxRetries:     viper.GetInt("generation.max_retries"),
			Timeout:        viper.GetDuration("generation.timeout"),
		},
		MinSynonyms:      viper.GetInt("generation.min_synonyms"),
		MinAntonyms:      viper.GetInt("generation.min_antonyms"),
		ContextNeighbors: viper.GetInt("generation.context_neighbors"),
		Concurrency:      viper.GetInt("generation.concurrency"),
	}
	cfg.Generation.APIKey = apiKey(cfg.Generation.Provider)

	cfg.History.Path = viper.GetString("history.path")
	if cfg.History.Path == "" {
		cfg.History.Path = filepath.Join(cfg.Graph.DataDir, "history.db")
	}

	cfg.Neo4j = types.Neo4jConfig{
		URI:       viper.GetString("neo4j.uri"),
		Username:  viper.GetString("neo4j.username"),
		Password:  viper.GetString("neo4j.password"),
		Database:  viper.GetString("neo4j.database"),
		BatchSize: viper.GetInt("neo4j.batch_size"),
	}
	if cfg.Neo4j.Password == "" {
		cfg.Neo4j.Password = secrets.Lookup(loadedSecrets, secrets.Neo4jPassword)
	}

	cfg.Metrics.TextfilePath = viper.GetString("metrics.textfile_path")
	cfg.Log = types.LogConfig{
		Level:       viper.GetString("log.level"),
		Development: viper.GetBool("log.development"),
	}
	return cfg
}

// apiKey resolves the key for provider: config first, then secrets.
func apiKey(provider types.AIProvider) string {
	if k := viper.GetString("generation.api_key"); k != "" {
		return k
	}
	if provider == types.ProviderOpenAI {
		return secrets.Lookup(loadedSecrets, secrets.OpenAIAPIKey)
	}
	return secrets.Lookup(loadedSecrets, secrets.AnthropicAPIKey)
}

// app holds the components shared by commands.
type app struct {
	cfg       types.Config
	log       *zap.Logger
	metrics   *metrics.Metrics
	snapshots *snapshot.Manager
	store     *graph.Store
}

// newApp builds the logger, metrics and snapshot manager. It does not load
// the graph; call loadStore for commands that need it.
func newApp() (*app, error) {
	cfg := loadConfig()
	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	m := metrics.New()
	return &app{
		cfg:     cfg,
		log:     log,
		metrics: m,
		snapshots: snapshot.New(cfg.Snapshot,
			snapshot.WithLogger(log),
			snapshot.WithMetrics(m),
		),
	}, nil
}

// loadStore reads the newest loadable snapshot.
func (a *app) loadStore(ctx context.Context) (*graph.Store, error) {
	store, res, err := a.snapshots.Load(ctx)
	if errors.Is(err, snapshot.ErrNoSnapshot) {
		return nil, fmt.Errorf("%w (run \"lexgraph snapshot init\" to create an empty graph)", err)
	}
	if err != nil {
		return nil, err
	}
	for _, s := range res.Skipped {
		fmt.Fprintf(os.Stderr, "warning: skipped snapshot %s: %s\n", s.Name, s.Error)
	}
	a.store = store
	return store, nil
}

// openHistory opens the generation history database.
func (a *app) openHistory() (*history.Store, error) {
	return history.Open(a.cfg.History)
}

// save writes a new snapshot of the loaded store and reports its path.
func (a *app) save(ctx context.Context) error {
	info, err := a.snapshots.Save(ctx, a.store)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Saved snapshot %s\n", info.Path)
	return nil
}

// close writes the metrics textfile when configured and flushes the log.
func (a *app) close() {
	if a.store != nil {
		a.metrics.SetGraphSize(a.store.NodeCount(), a.store.EdgeCount())
	}
	if p := a.cfg.Metrics.TextfilePath; p != "" {
		if err := a.metrics.WriteTextfile(p); err != nil {
			a.log.Warn("writing metrics textfile", zap.String("path", p), zap.Error(err))
		}
	}
	_ = a.log.Sync()
}
