// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package graph

import (
	"fmt"
	"math"
	"strings"

	"github.com/pdiddy/lexical-graph/pkg/types"
)

// Tx is a write batch handed to Store.Update. It embeds a View so the
// batch can read its own writes. Every mutation pushes an undo step.
type Tx struct {
	View
	undo    []func()
	touched map[pair]struct{}
}

// UpsertNode inserts lemma or merges attrs onto the existing node. Empty
// attributes leave the stored value untouched.
func (tx *Tx) UpsertNode(lemma string, attrs types.NodeAttributes) (Change, error) {
	lemma = strings.TrimSpace(lemma)
	if lemma == "" {
		return Unchanged, ErrEmptyLemma
	}

	s := tx.s
	n, ok := s.nodes[lemma]
	if !ok {
		n = &types.Node{Lemma: lemma}
		applyAttrs(n, attrs)
		s.nodes[lemma] = n
		tx.undo = append(tx.undo, func() { delete(s.nodes, lemma) })
		return Created, nil
	}

	prev := *n
	if !applyAttrs(n, attrs) {
		return Unchanged, nil
	}
	tx.undo = append(tx.undo, func() { *n = prev })
	return Updated, nil
}

// UpsertEdge creates the edge between a and b, adds rel to an existing
// edge, or merges r into the existing relation of the same type. On merge
// the higher strength wins and non-empty descriptive fields of r replace
// the stored ones.
func (tx *Tx) UpsertEdge(a, b string, rel types.RelationType, r types.Relation) (Change, error) {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	switch {
	case a == "" || b == "":
		return Unchanged, ErrEmptyLemma
	case a == b:
		return Unchanged, fmt.Errorf("%w: %q", ErrSelfLoop, a)
	case rel == "":
		return Unchanged, ErrEmptyRelation
	case !validStrength(r.Strength):
		return Unchanged, fmt.Errorf("%w: got %v", ErrInvalidStrength, r.Strength)
	}

	s := tx.s
	for _, l := range []string{a, b} {
		if _, ok := s.nodes[l]; !ok {
			return Unchanged, fmt.Errorf("%w: %q", ErrUnknownNode, l)
		}
	}

	k := key(a, b)
	e, ok := s.edges[k]
	if !ok {
		e = &types.Edge{
			Source:    k.a,
			Target:    k.b,
			Relations: map[types.RelationType]types.Relation{rel: r},
		}
		s.edges[k] = e
		s.link(k)
		tx.undo = append(tx.undo, func() {
			delete(s.edges, k)
			s.unlink(k)
		})
		tx.touched[k] = struct{}{}
		return Created, nil
	}

	merged := r
	if cur, has := e.Relations[rel]; has {
		merged = mergeRelation(cur, r)
		if merged == cur {
			return Unchanged, nil
		}
	}

	prev := e.Clone()
	if e.Relations == nil {
		e.Relations = make(map[types.RelationType]types.Relation)
	}
	e.Relations[rel] = merged
	tx.undo = append(tx.undo, func() { *e = prev })
	tx.touched[k] = struct{}{}
	return Updated, nil
}

// Touched returns the number of edges touched so far in this batch.
func (tx *Tx) Touched() int {
	return len(tx.touched)
}

func (tx *Tx) rollback() {
	for i := len(tx.undo) - 1; i >= 0; i-- {
		tx.undo[i]()
	}
	tx.undo = nil
	tx.touched = map[pair]struct{}{}
}

func validStrength(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0 && v <= 1
}

// applyAttrs copies the non-empty attributes onto n and reports whether
// anything changed.
func applyAttrs(n *types.Node, a types.NodeAttributes) bool {
	changed := false
	set := func(dst *string, v string) {
		v = strings.TrimSpace(v)
		if v != "" && *dst != v {
			*dst = v
			changed = true
		}
	}
	set(&n.Reading, a.Reading)
	set(&n.PartOfSpeech, a.PartOfSpeech)
	set(&n.Translation, a.Translation)
	set(&n.ProficiencyLevel, a.ProficiencyLevel)
	return changed
}

// mergeRelation applies the max-strength policy.
func mergeRelation(cur, next types.Relation) types.Relation {
	out := cur
	if !finite(cur.Strength) || next.Strength > cur.Strength {
		out.Strength = next.Strength
	}
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&out.MutualSense, next.MutualSense)
	set(&out.MutualSenseReading, next.MutualSenseReading)
	set(&out.MutualSenseTranslation, next.MutualSenseTranslation)
	set(&out.Domain, next.Domain)
	set(&out.DomainReading, next.DomainReading)
	set(&out.DomainTranslation, next.DomainTranslation)
	set(&out.Explanation, next.Explanation)
	return out
}

// mergeEdge folds a duplicate edge record into cur during load.
func mergeEdge(cur *types.Edge, e types.Edge) {
	for rel, r := range e.Relations {
		if existing, ok := cur.Relations[rel]; ok {
			cur.Relations[rel] = mergeRelation(existing, r)
			continue
		}
		if cur.Relations == nil {
			cur.Relations = make(map[types.RelationType]types.Relation)
		}
		cur.Relations[rel] = r
	}
	if finite(e.Weight) && (!finite(cur.Weight) || e.Weight > cur.Weight) {
		cur.Weight = e.Weight
	}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
