// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package graph owns the in-memory lexical network. Store is the only
// component allowed to mutate shared graph state: reads go through View,
// writes go through Update, which applies one batch under the write lock
// and rolls it back if the batch fails part way.
package graph

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/pdiddy/lexical-graph/pkg/types"
)

var (
	// ErrEmptyLemma is returned when a node or edge names an empty lemma.
	ErrEmptyLemma = errors.New("empty lemma")

	// ErrSelfLoop is returned when an edge would join a lemma to itself.
	ErrSelfLoop = errors.New("self relation")

	// ErrUnknownNode is returned when an edge endpoint does not exist.
	ErrUnknownNode = errors.New("unknown node")

	// ErrInvalidStrength is returned for a strength that is not a finite
	// number in [0,1].
	ErrInvalidStrength = errors.New("strength must be a finite number in [0,1]")

	// ErrEmptyRelation is returned when an edge upsert names no relation type.
	ErrEmptyRelation = errors.New("empty relation type")
)

// Change describes the effect of a single upsert.
type Change int

const (
	Unchanged Change = iota
	Created
	Updated
)

func (c Change) String() string {
	switch c {
	case Created:
		return "created"
	case Updated:
		return "updated"
	default:
		return "unchanged"
	}
}

// pair is the canonical key of an undirected edge.
type pair struct {
	a, b string
}

func key(a, b string) pair {
	a, b = types.PairKey(a, b)
	return pair{a: a, b: b}
}

// Store holds the live graph. The zero value is not usable; call New or Load.
type Store struct {
	mu    sync.RWMutex
	nodes map[string]*types.Node
	edges map[pair]*types.Edge
	adj   map[string]map[string]struct{}
}

// New returns an empty store.
func New() *Store {
	return &Store{
		nodes: make(map[string]*types.Node),
		edges: make(map[pair]*types.Edge),
		adj:   make(map[string]map[string]struct{}),
	}
}

// Update applies fn as one batch under the exclusive write lock. Readers
// observe either the state before the batch or the state after it. If fn
// returns an error or panics, every mutation made through the Tx is undone.
// On success the edges touched by the batch are normalized before the lock
// is released.
func (s *Store) Update(fn func(tx *Tx) error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &Tx{View: View{s: s}, touched: make(map[pair]struct{})}
	defer func() {
		if r := recover(); r != nil {
			tx.rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.rollback()
		return err
	}

	for k := range tx.touched {
		if e, ok := s.edges[k]; ok {
			Normalize(e)
		}
	}
	return nil
}

// View runs fn with a consistent read-only view of the graph. The view
// must not be retained after fn returns.
func (s *Store) View(fn func(v *View)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(&View{s: s})
}

// UpsertNode inserts lemma or merges attrs onto the existing node. It is a
// one-operation batch.
func (s *Store) UpsertNode(lemma string, attrs types.NodeAttributes) (Change, error) {
	var c Change
	err := s.Update(func(tx *Tx) error {
		var err error
		c, err = tx.UpsertNode(lemma, attrs)
		return err
	})
	if err != nil {
		return Unchanged, err
	}
	return c, nil
}

// UpsertEdge adds or merges one relation between a and b. It is a
// one-operation batch.
func (s *Store) UpsertEdge(a, b string, rel types.RelationType, r types.Relation) (Change, error) {
	var c Change
	err := s.Update(func(tx *Tx) error {
		var err error
		c, err = tx.UpsertEdge(a, b, rel, r)
		return err
	})
	if err != nil {
		return Unchanged, err
	}
	return c, nil
}

// GetNode returns a copy of the node for lemma.
func (s *Store) GetNode(lemma string) (n types.Node, ok bool) {
	s.View(func(v *View) { n, ok = v.Node(lemma) })
	return n, ok
}

// Edge returns a copy of the edge between a and b.
func (s *Store) Edge(a, b string) (e types.Edge, ok bool) {
	s.View(func(v *View) { e, ok = v.Edge(a, b) })
	return e, ok
}

// Neighbors returns the ranked neighbours of lemma, or nil for an unknown
// lemma.
func (s *Store) Neighbors(lemma string) (ns []types.Neighbor) {
	s.View(func(v *View) { ns = v.Neighbors(lemma) })
	return ns
}

// NodeCount returns the number of nodes.
func (s *Store) NodeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

// EdgeCount returns the number of edges.
func (s *Store) EdgeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.edges)
}

// Export returns copies of all nodes sorted by lemma and all edges sorted
// by endpoints.
func (s *Store) Export() ([]types.Node, []types.Edge) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	nodes := make([]types.Node, 0, len(s.nodes))
	for _, n := range s.nodes {
		nodes = append(nodes, *n)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Lemma < nodes[j].Lemma })

	edges := make([]types.Edge, 0, len(s.edges))
	for _, e := range s.edges {
		edges = append(edges, e.Clone())
	}
	sortEdges(edges)
	return nodes, edges
}

// NormalizeAll normalizes every edge and returns how many changed.
func (s *Store) NormalizeAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.normalizeAll()
}

func (s *Store) normalizeAll() int {
	changed := 0
	for _, e := range s.edges {
		if Normalize(e) {
			changed++
		}
	}
	return changed
}

func (s *Store) link(k pair) {
	for _, p := range [][2]string{{k.a, k.b}, {k.b, k.a}} {
		m, ok := s.adj[p[0]]
		if !ok {
			m = make(map[string]struct{})
			s.adj[p[0]] = m
		}
		m[p[1]] = struct{}{}
	}
}

func (s *Store) unlink(k pair) {
	for _, p := range [][2]string{{k.a, k.b}, {k.b, k.a}} {
		if m, ok := s.adj[p[0]]; ok {
			delete(m, p[1])
			if len(m) == 0 {
				delete(s.adj, p[0])
			}
		}
	}
}

// LoadReport describes the repairs made while building a store from
// decoded snapshot data.
type LoadReport struct {
	Nodes          int
	Edges          int
	DuplicateNodes int
	DuplicateEdges int
	ImplicitNodes  int
	SelfLoops      int
	Invalid        int
	Normalized     int
}

// Load builds a store from decoded nodes and edges. Duplicate lemmas and
// duplicate pairs are merged, self loops and records with empty lemmas are
// dropped, and endpoints missing from nodes are created bare. Every edge is
// normalized before the store is returned.
func Load(nodes []types.Node, edges []types.Edge) (*Store, LoadReport) {
	s := New()
	var rep LoadReport

	for _, n := range nodes {
		lemma := strings.TrimSpace(n.Lemma)
		if lemma == "" {
			rep.Invalid++
			continue
		}
		if cur, ok := s.nodes[lemma]; ok {
			applyAttrs(cur, n.Attributes())
			rep.DuplicateNodes++
			continue
		}
		nn := types.Node{Lemma: lemma}
		applyAttrs(&nn, n.Attributes())
		s.nodes[lemma] = &nn
	}

	for _, e := range edges {
		a, b := strings.TrimSpace(e.Source), strings.TrimSpace(e.Target)
		if a == "" || b == "" {
			rep.Invalid++
			continue
		}
		if a == b {
			rep.SelfLoops++
			continue
		}
		for _, l := range []string{a, b} {
			if _, ok := s.nodes[l]; !ok {
				s.nodes[l] = &types.Node{Lemma: l}
				rep.ImplicitNodes++
			}
		}

		k := key(a, b)
		if cur, ok := s.edges[k]; ok {
			mergeEdge(cur, e)
			rep.DuplicateEdges++
			continue
		}
		ne := e.Clone()
		ne.Source, ne.Target = k.a, k.b
		s.edges[k] = &ne
		s.link(k)
	}

	rep.Normalized = s.normalizeAll()
	rep.Nodes = len(s.nodes)
	rep.Edges = len(s.edges)
	return s, rep
}

func sortEdges(edges []types.Edge) {
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Source != edges[j].Source {
			return edges[i].Source < edges[j].Source
		}
		return edges[i].Target < edges[j].Target
	})
}
