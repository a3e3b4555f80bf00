// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package snapshot

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/lexical-graph/internal/graph"
	"github.com/pdiddy/lexical-graph/internal/logger"
	"github.com/pdiddy/lexical-graph/pkg/types"
)

const defaultCheckpointEvery = 10

// Saver writes one snapshot of store.
type Saver interface {
	Save(ctx context.Context, store *graph.Store) (Info, error)
}

// Checkpointer saves the store after every N applied batches and,
// optionally, on a timer. A failed save keeps the pending count so the next
// checkpoint retries it.
type Checkpointer struct {
	store    *graph.Store
	saver    Saver
	every    int
	interval time.Duration
	log      *zap.Logger

	mu      sync.Mutex
	pending int
	saveMu  sync.Mutex
}

// NewCheckpointer returns a checkpointer using cfg.CheckpointEvery
// (default 10) and cfg.CheckpointInterval.
func NewCheckpointer(store *graph.Store, saver Saver, cfg types.SnapshotConfig, log *zap.Logger) *Checkpointer {
	every := cfg.CheckpointEvery
	if every <= 0 {
		every = defaultCheckpointEvery
	}
	return &Checkpointer{
		store:    store,
		saver:    saver,
		every:    every,
		interval: cfg.CheckpointInterval,
		log:      logger.OrNop(log),
	}
}

// BatchApplied counts one applied batch and saves when the threshold is
// reached.
func (c *Checkpointer) BatchApplied(ctx context.Context) {
	c.mu.Lock()
	c.pending++
	due := c.pending >= c.every
	c.mu.Unlock()

	if due {
		_ = c.Flush(ctx)
	}
}

// Pending returns the number of batches not yet persisted.
func (c *Checkpointer) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// Flush saves when any batch is pending.
func (c *Checkpointer) Flush(ctx context.Context) error {
	c.saveMu.Lock()
	defer c.saveMu.Unlock()

	n := c.Pending()
	if n == 0 {
		return nil
	}

	info, err := c.saver.Save(ctx, c.store)
	if err != nil {
		c.log.Error("checkpoint failed, will retry at next checkpoint",
			zap.Int("pending_batches", n),
			zap.Error(err),
		)
		return err
	}

	c.mu.Lock()
	c.pending -= n
	c.mu.Unlock()
	c.log.Debug("checkpoint saved", zap.String("path", info.Path), zap.Int("batches", n))
	return nil
}

// Run flushes on every interval tick until ctx is done. It returns at once
// when no interval is configured.
func (c *Checkpointer) Run(ctx context.Context) {
	if c.interval <= 0 {
		return
	}
	t := time.NewTicker(c.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			_ = c.Flush(ctx)
		}
	}
}

// Close flushes pending batches.
func (c *Checkpointer) Close(ctx context.Context) error {
	return c.Flush(ctx)
}
