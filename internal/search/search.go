// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search answers read-only queries over the lexical network:
// attribute matching and depth-bounded expansion into induced subgraphs.
package search

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/lexical-graph/internal/graph"
	"github.com/pdiddy/lexical-graph/internal/metrics"
	"github.com/pdiddy/lexical-graph/pkg/types"
)

// DefaultMaxDepth bounds Search when no option overrides it.
const DefaultMaxDepth = 3

// ErrInvalidQuery is returned by Search for an out-of-range depth or an
// unknown attribute.
var ErrInvalidQuery = errors.New("invalid query")

// Engine runs queries against a graph.Store.
type Engine struct {
	store    *graph.Store
	maxDepth int
	metrics  *metrics.Metrics
	log      *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxDepth sets the largest depth Search accepts.
func WithMaxDepth(d int) Option {
	return func(e *Engine) {
		if d > 0 {
			e.maxDepth = d
		}
	}
}

// WithMetrics records search latency.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// New returns an Engine over store.
func New(store *graph.Store, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		maxDepth: DefaultMaxDepth,
		log:      zap.NewNop(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Match returns the sorted lemmas whose attr value equals term (exact) or
// contains it. Both modes are case-insensitive. Substring matching also
// folds width, and for readings katakana to hiragana. No match yields an
// empty result.
func (e *Engine) Match(term string, attr types.Attribute, exact bool) []string {
	var out []string
	e.store.View(func(v *graph.View) {
		out = match(v, term, attr, exact)
	})
	return out
}

// Expand returns the subgraph induced by every node within depth hops of
// seeds. Unknown seeds are ignored.
func (e *Engine) Expand(seeds []string, depth int) types.Subgraph {
	var sg types.Subgraph
	e.store.View(func(v *graph.View) {
		sg = expand(v, seeds, depth)
	})
	return sg
}

// Search matches q.Term and expands the matches by q.Depth inside one
// consistent view. Direct matches are flagged.
func (e *Engine) Search(q types.SearchQuery) (types.Subgraph, error) {
	attr, err := types.ParseAttribute(string(q.Attribute))
	if err != nil {
		return types.Subgraph{}, fmt.Errorf("%w: %v", ErrInvalidQuery, err)
	}
	if q.Depth < 1 || q.Depth > e.maxDepth {
		return types.Subgraph{}, fmt.Errorf("%w: depth %d outside 1..%d", ErrInvalidQuery, q.Depth, e.maxDepth)
	}

	start := time.Now()
	var sg types.Subgraph
	e.store.View(func(v *graph.View) {
		matches := match(v, q.Term, attr, q.Exact)
		sg = expand(v, matches, q.Depth)
	})
	e.metrics.ObserveSearch(time.Since(start))

	e.log.Debug("search",
		zap.String("term", q.Term),
		zap.String("attribute", string(attr)),
		zap.Int("depth", q.Depth),
		zap.Bool("exact", q.Exact),
		zap.Int("nodes", len(sg.Nodes)),
		zap.Int("edges", len(sg.Edges)))
	return sg, nil
}

// Neighbors returns up to limit ranked neighbours of lemma. A limit of
// zero or less returns all of them.
func (e *Engine) Neighbors(lemma string, limit int) []types.Neighbor {
	ns := e.store.Neighbors(lemma)
	if limit > 0 && len(ns) > limit {
		ns = ns[:limit]
	}
	return ns
}

func match(v *graph.View, term string, attr types.Attribute, exact bool) []string {
	m := newMatcher(term, attr, exact)
	if m == nil {
		return nil
	}
	var out []string
	v.RangeNodes(func(n types.Node) bool {
		if m.matches(n.Value(attr)) {
			out = append(out, n.Lemma)
		}
		return true
	})
	sort.Strings(out)
	return out
}

// expand walks one hop layer at a time. A node keeps the hop at which it
// was first reached and is never expanded twice.
func expand(v *graph.View, seeds []string, depth int) types.Subgraph {
	hop := make(map[string]int)
	var frontier []string
	for _, s := range seeds {
		s = strings.TrimSpace(s)
		if _, seen := hop[s]; seen || !v.HasNode(s) {
			continue
		}
		hop[s] = 0
		frontier = append(frontier, s)
	}

	for d := 1; d <= depth && len(frontier) > 0; d++ {
		var next []string
		for _, l := range frontier {
			for _, nb := range v.Adjacent(l) {
				if _, seen := hop[nb]; seen {
					continue
				}
				hop[nb] = d
				next = append(next, nb)
			}
		}
		frontier = next
	}

	matched := make(map[string]bool, len(seeds))
	for _, s := range seeds {
		matched[strings.TrimSpace(s)] = true
	}

	sg := types.Subgraph{
		Nodes: make([]types.SubgraphNode, 0, len(hop)),
		Edges: []types.Edge{},
	}
	for l, h := range hop {
		n, _ := v.Node(l)
		sg.Nodes = append(sg.Nodes, types.SubgraphNode{Node: n, Match: matched[l] && h == 0, Hop: h})
		for _, nb := range v.Adjacent(l) {
			if _, in := hop[nb]; !in || nb < l {
				continue
			}
			if e, ok := v.Edge(l, nb); ok {
				sg.Edges = append(sg.Edges, e)
			}
		}
	}

	sort.Slice(sg.Nodes, func(i, j int) bool {
		if sg.Nodes[i].Hop != sg.Nodes[j].Hop {
			return sg.Nodes[i].Hop < sg.Nodes[j].Hop
		}
		return sg.Nodes[i].Lemma < sg.Nodes[j].Lemma
	})
	sort.Slice(sg.Edges, func(i, j int) bool {
		a, b := sg.Edges[i], sg.Edges[j]
		if a.Weight != b.Weight {
			return a.Weight > b.Weight
		}
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		return a.Target < b.Target
	})
	return sg
}
