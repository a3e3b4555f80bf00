// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/pdiddy/lexical-graph/pkg/types"
)

// Backend abstracts the Generative AI API so tests can supply a mock. An
// implementation sends one prompt and returns the raw model text.
type Backend interface {
	Generate(ctx context.Context, p Prompt) (Reply, error)
}

// Reply is the raw text returned by a backend.
type Reply struct {
	Text  string
	Model string
}

// Prompt carries the term and the graph context sent to the model.
type Prompt struct {
	Term        string
	Existing    *types.Node
	Neighbors   []PromptNeighbor
	MinSynonyms int
	MinAntonyms int
}

// PromptNeighbor is one already known relation of the term.
type PromptNeighbor struct {
	Lemma       string
	Reading     string
	Translation string
	Relation    types.RelationType
	Weight      float64
}

// FallbackBackend tries each backend in order and returns the first reply.
type FallbackBackend []Backend

// Generate implements Backend.
func (f FallbackBackend) Generate(ctx context.Context, p Prompt) (Reply, error) {
	if len(f) == 0 {
		return Reply{}, errors.New("no generation backend configured")
	}
	var errs []error
	for _, b := range f {
		r, err := b.Generate(ctx, p)
		if err == nil {
			return r, nil
		}
		if ctx.Err() != nil {
			return Reply{}, ctx.Err()
		}
		errs = append(errs, err)
	}
	return Reply{}, errors.Join(errs...)
}

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

// callWithRetry calls the backend with exponential backoff. Context errors
// are returned without further attempts.
func callWithRetry(ctx context.Context, backend Backend, p Prompt, maxRetries int) (Reply, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return Reply{}, ctx.Err()
			case <-time.After(backoff):
			}
		}

		r, err := backend.Generate(ctx, p)
		if err == nil {
			return r, nil
		}
		if ctx.Err() != nil {
			return Reply{}, ctx.Err()
		}
		lastErr = err
	}
	return Reply{}, fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}
