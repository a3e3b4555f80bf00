// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package graph

import (
	"sort"
	"strings"

	"github.com/pdiddy/lexical-graph/pkg/types"
)

// View is a read-only window onto the store, valid only inside the
// callback that received it. All accessors return copies.
type View struct {
	s *Store
}

// Node returns the node for lemma.
func (v *View) Node(lemma string) (types.Node, bool) {
	n, ok := v.s.nodes[strings.TrimSpace(lemma)]
	if !ok {
		return types.Node{}, false
	}
	return *n, true
}

// HasNode reports whether lemma exists.
func (v *View) HasNode(lemma string) bool {
	_, ok := v.s.nodes[strings.TrimSpace(lemma)]
	return ok
}

// Edge returns the edge between a and b in either order.
func (v *View) Edge(a, b string) (types.Edge, bool) {
	e, ok := v.s.edges[key(strings.TrimSpace(a), strings.TrimSpace(b))]
	if !ok {
		return types.Edge{}, false
	}
	return e.Clone(), true
}

// Adjacent returns the lemmas adjacent to lemma in sorted order.
func (v *View) Adjacent(lemma string) []string {
	m := v.s.adj[strings.TrimSpace(lemma)]
	if len(m) == 0 {
		return nil
	}
	out := make([]string, 0, len(m))
	for l := range m {
		out = append(out, l)
	}
	sort.Strings(out)
	return out
}

// Degree returns the number of edges incident to lemma.
func (v *View) Degree(lemma string) int {
	return len(v.s.adj[strings.TrimSpace(lemma)])
}

// Neighbors returns the neighbours of lemma ordered by descending edge
// weight, then by lemma.
func (v *View) Neighbors(lemma string) []types.Neighbor {
	lemma = strings.TrimSpace(lemma)
	m := v.s.adj[lemma]
	if len(m) == 0 {
		return nil
	}
	out := make([]types.Neighbor, 0, len(m))
	for other := range m {
		e := v.s.edges[key(lemma, other)]
		n := v.s.nodes[other]
		if e == nil || n == nil {
			continue
		}
		out = append(out, types.Neighbor{Node: *n, Edge: e.Clone()})
	}
	RankNeighbors(out)
	return out
}

// RangeNodes calls fn for every node until fn returns false. Iteration
// order is unspecified.
func (v *View) RangeNodes(fn func(n types.Node) bool) {
	for _, n := range v.s.nodes {
		if !fn(*n) {
			return
		}
	}
}

// NodeCount returns the number of nodes.
func (v *View) NodeCount() int { return len(v.s.nodes) }

// EdgeCount returns the number of edges.
func (v *View) EdgeCount() int { return len(v.s.edges) }

// RankNeighbors sorts by descending weight with lemma as the stable
// secondary key.
func RankNeighbors(ns []types.Neighbor) {
	sort.Slice(ns, func(i, j int) bool {
		if ns[i].Edge.Weight != ns[j].Edge.Weight {
			return ns[i].Edge.Weight > ns[j].Edge.Weight
		}
		return ns[i].Node.Lemma < ns[j].Node.Lemma
	})
}
