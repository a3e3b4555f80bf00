// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package generate augments the graph with relations produced by a
// Generative AI model. The model call and response validation happen
// outside any graph lock; a valid response is applied as one atomic batch
// per source term.
package generate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/pdiddy/lexical-graph/internal/graph"
	"github.com/pdiddy/lexical-graph/internal/logger"
	"github.com/pdiddy/lexical-graph/internal/metrics"
	"github.com/pdiddy/lexical-graph/pkg/types"
)

var (
	// ErrEmptyTerm is returned when Generate is called with a blank term.
	ErrEmptyTerm = errors.New("empty term")

	// ErrGeneration wraps a backend failure after all retries.
	ErrGeneration = errors.New("generation failed")
)

const (
	defaultMinSynonyms      = 15
	defaultMinAntonyms      = 5
	defaultContextNeighbors = 10
	defaultMaxRetries       = 3
	defaultConcurrency      = 2
)

// Checkpointer is told about every applied batch.
type Checkpointer interface {
	BatchApplied(ctx context.Context)
}

// Recorder persists generation attempts.
type Recorder interface {
	Record(ctx context.Context, r types.GenerationResult) error
}

// Engine runs generation requests against one store.
type Engine struct {
	store      *graph.Store
	backend    Backend
	cfg        types.GenerationConfig
	log        *zap.Logger
	metrics    *metrics.Metrics
	checkpoint Checkpointer
	recorder   Recorder
	group      singleflight.Group
	now        func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.log = logger.OrNop(l) }
}

// WithMetrics records generation metrics on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithCheckpointer notifies c after every applied batch.
func WithCheckpointer(c Checkpointer) Option {
	return func(e *Engine) { e.checkpoint = c }
}

// WithRecorder records every attempt, successful or not, with r.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// New returns an engine applying backend replies to store. Zero values in
// cfg take their defaults.
func New(store *graph.Store, backend Backend, cfg types.GenerationConfig, opts ...Option) *Engine {
	if cfg.MinSynonyms <= 0 {
		cfg.MinSynonyms = defaultMinSynonyms
	}
	if cfg.MinAntonyms <= 0 {
		cfg.MinAntonyms = defaultMinAntonyms
	}
	if cfg.ContextNeighbors <= 0 {
		cfg.ContextNeighbors = defaultContextNeighbors
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	e := &Engine{
		store:   store,
		backend: backend,
		cfg:     cfg,
		log:     zap.NewNop(),
		now:     time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// NewBackend builds the configured transport. Each fallback model gets its
// own backend tried after the primary.
func NewBackend(cfg types.AIConfig, client *http.Client) (Backend, error) {
	models := append([]string{cfg.Model}, cfg.FallbackModels...)
	var chain FallbackBackend
	for _, m := range models {
		if strings.TrimSpace(m) == "" {
			continue
		}
		switch cfg.Provider {
		case types.ProviderClaude, "":
			chain = append(chain, &ClaudeBackend{APIKey: cfg.APIKey, Model: m, MaxRetries: cfg.MaxRetries, Client: client})
		case types.ProviderOpenAI:
			chain = append(chain, NewOpenAIBackend(cfg.APIKey, cfg.BaseURL, m, client))
		default:
			return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
		}
	}
	if len(chain) == 0 {
		return nil, errors.New("no model configured")
	}
	if len(chain) == 1 {
		return chain[0], nil
	}
	return chain, nil
}

// Generate asks the backend for relations of term and applies the reply.
// Concurrent calls for the same term share one request. A returned error
// means nothing was written; the result still describes the attempt.
func (e *Engine) Generate(ctx context.Context, term string) (types.GenerationResult, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return types.GenerationResult{}, ErrEmptyTerm
	}
	v, err, _ := e.group.Do(term, func() (any, error) {
		return e.generate(ctx, term)
	})
	res, _ := v.(types.GenerationResult)
	return res, err
}

func (e *Engine) generate(ctx context.Context, term string) (types.GenerationResult, error) {
	res := types.GenerationResult{
		ID:        uuid.NewString(),
		Term:      term,
		StartedAt: e.now().UTC(),
	}

	p := e.prompt(term)
	reply, err := callWithRetry(ctx, e.backend, p, e.cfg.MaxRetries)
	if err != nil {
		return e.finish(ctx, res, fmt.Errorf("%w: %w", ErrGeneration, err))
	}
	res.Model = reply.Model

	batch, err := Decode([]byte(reply.Text), term)
	if err != nil {
		return e.finish(ctx, res, err)
	}
	res.Skipped = batch.Skipped

	if err := e.apply(batch, &res); err != nil {
		return e.finish(ctx, res, fmt.Errorf("applying batch: %w", err))
	}
	return e.finish(ctx, res, nil)
}

// prompt reads the term's current attributes and strongest relations.
func (e *Engine) prompt(term string) Prompt {
	p := Prompt{Term: term, MinSynonyms: e.cfg.MinSynonyms, MinAntonyms: e.cfg.MinAntonyms}
	e.store.View(func(v *graph.View) {
		if n, ok := v.Node(term); ok {
			p.Existing = &n
		}
		ns := v.Neighbors(term)
		if len(ns) > e.cfg.ContextNeighbors {
			ns = ns[:e.cfg.ContextNeighbors]
		}
		for _, nb := range ns {
			p.Neighbors = append(p.Neighbors, PromptNeighbor{
				Lemma:       nb.Node.Lemma,
				Reading:     nb.Node.Reading,
				Translation: nb.Node.Translation,
				Relation:    nb.Edge.Primary,
				Weight:      nb.Edge.Weight,
			})
		}
	})
	return p
}

// apply writes the batch in one transaction and fills the counts on res.
// A lemma or pair touched more than once counts once; created wins over
// updated.
func (e *Engine) apply(b *Batch, res *types.GenerationResult) error {
	nodes := make(map[string]graph.Change)
	edges := make(map[[2]string]graph.Change)
	note := func(cur, next graph.Change) graph.Change {
		if cur == graph.Created || next == graph.Unchanged {
			return cur
		}
		return next
	}

	src := b.Source.Lemma
	err := e.store.Update(func(tx *graph.Tx) error {
		c, err := tx.UpsertNode(src, b.Source.Attributes())
		if err != nil {
			return fmt.Errorf("source %q: %w", src, err)
		}
		nodes[src] = note(nodes[src], c)

		for _, en := range b.Entries {
			c, err := tx.UpsertNode(en.Lemma, en.Attrs)
			if err != nil {
				return fmt.Errorf("%s %d %q: %w", en.Relation, en.Index, en.Lemma, err)
			}
			nodes[en.Lemma] = note(nodes[en.Lemma], c)

			c, err = tx.UpsertEdge(src, en.Lemma, en.Relation, en.Data)
			if err != nil {
				return fmt.Errorf("%s %d %q: %w", en.Relation, en.Index, en.Lemma, err)
			}
			a, z := types.PairKey(src, en.Lemma)
			k := [2]string{a, z}
			edges[k] = note(edges[k], c)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, c := range nodes {
		switch c {
		case graph.Created:
			res.NodesCreated++
		case graph.Updated:
			res.NodesUpdated++
		}
	}
	for _, c := range edges {
		switch c {
		case graph.Created:
			res.EdgesCreated++
		case graph.Updated:
			res.EdgesUpdated++
		}
	}
	return nil
}

// finish stamps the outcome on res and reports it to the metrics, the log,
// the recorder and the checkpointer.
func (e *Engine) finish(ctx context.Context, res types.GenerationResult, err error) (types.GenerationResult, error) {
	res.Duration = e.now().Sub(res.StartedAt)
	switch {
	case err != nil:
		res.Status = types.StatusFailed
		res.Error = err.Error()
	case len(res.Skipped) > 0:
		res.Status = types.StatusPartial
	default:
		res.Status = types.StatusSuccess
	}

	e.metrics.ObserveGeneration(string(res.Status), res.Duration, res.NodesCreated, res.EdgesCreated)
	for _, s := range res.Skipped {
		e.metrics.SkippedEntry(s.Code)
		e.log.Debug("entry skipped",
			zap.String("term", res.Term),
			zap.String("relation", string(s.Relation)),
			zap.Int("index", s.Index),
			zap.String("lemma", s.Lemma),
			zap.String("reason", s.Reason),
		)
	}

	fields := []zap.Field{
		zap.String("id", res.ID),
		zap.String("term", res.Term),
		zap.String("model", res.Model),
		zap.String("status", string(res.Status)),
		zap.Int("nodes_created", res.NodesCreated),
		zap.Int("nodes_updated", res.NodesUpdated),
		zap.Int("edges_created", res.EdgesCreated),
		zap.Int("edges_updated", res.EdgesUpdated),
		zap.Int("skipped", len(res.Skipped)),
		zap.Duration("duration", res.Duration),
	}
	if err != nil {
		e.log.Warn("generation failed", append(fields, zap.Error(err))...)
	} else {
		e.log.Info("generation applied", fields...)
		e.metrics.SetGraphSize(e.store.NodeCount(), e.store.EdgeCount())
	}

	if e.recorder != nil {
		if rerr := e.recorder.Record(context.WithoutCancel(ctx), res); rerr != nil {
			e.log.Warn("recording generation", zap.String("term", res.Term), zap.Error(rerr))
		}
	}
	if err == nil && e.checkpoint != nil && res.Created()+res.Updated() > 0 {
		e.checkpoint.BatchApplied(ctx)
	}
	return res, err
}

// BatchOptions controls GenerateAll.
type BatchOptions struct {
	// Concurrency bounds parallel requests. Zero uses the engine config.
	Concurrency int

	// Skip reports terms that should not be regenerated.
	Skip func(term string) bool
}

// SkipApplied returns a Skip function for terms recorded as applied whose
// node is present in store with at least one edge. A term recorded in
// history but absent from the loaded graph, as after a failed snapshot,
// is regenerated.
func SkipApplied(store *graph.Store, applied map[string]bool) func(term string) bool {
	return func(term string) bool {
		term = strings.TrimSpace(term)
		if !applied[term] {
			return false
		}
		var present bool
		store.View(func(v *graph.View) {
			present = v.HasNode(term) && v.Degree(term) > 0
		})
		return present
	}
}

// GenerateAll generates each distinct term with bounded concurrency and
// writes one progress line per term to w. Per-term failures are counted in
// the summary; only context cancellation returns an error. Results follow
// the order of first appearance in terms, skipped terms excluded.
func (e *Engine) GenerateAll(ctx context.Context, terms []string, opts BatchOptions, w io.Writer) ([]types.GenerationResult, types.GenerationSummary, error) {
	limit := opts.Concurrency
	if limit <= 0 {
		limit = e.cfg.Concurrency
	}

	var (
		summary types.GenerationSummary
		todo    []string
		seen    = make(map[string]bool)
		mu      sync.Mutex
	)
	printf := func(format string, args ...any) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(w, format, args...)
	}

	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		if opts.Skip != nil && opts.Skip(t) {
			printf("skipped %s\n", t)
			summary.Skipped++
			continue
		}
		todo = append(todo, t)
	}

	results := make([]types.GenerationResult, len(todo))
	var g errgroup.Group
	g.SetLimit(limit)
	for i, t := range todo {
		i, t := i, t
		g.Go(func() error {
			if ctx.Err() != nil {
				results[i] = types.GenerationResult{Term: t, Status: types.StatusFailed, Error: ctx.Err().Error()}
				return nil
			}
			printf("generating %s\n", t)
			res, err := e.Generate(ctx, t)
			res.Term = t
			if err != nil {
				if res.Status == "" {
					res.Status, res.Error = types.StatusFailed, err.Error()
				}
				printf("failed  %s: %v\n", t, err)
			} else {
				printf("generated %s (%d created, %d updated, %d skipped)\n", t, res.Created(), res.Updated(), len(res.Skipped))
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range results {
		if r.Failed() {
			summary.Failed++
		} else {
			summary.Generated++
		}
	}
	return results, summary, ctx.Err()
}
