// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package graph

import (
	"math"
	"sort"

	"github.com/pdiddy/lexical-graph/pkg/types"
)

const (
	// repairedStrength replaces a NaN or infinite strength.
	repairedStrength = 0.5

	// defaultWeight is used for an edge with no relations and no usable weight.
	defaultWeight = 1.0
)

// relationPriority breaks weight ties; lower wins. Unlisted relation types
// rank after these, alphabetically.
var relationPriority = map[types.RelationType]int{
	types.RelationSynonym: 0,
	types.RelationAntonym: 1,
}

// Normalize derives e.Weight as the maximum relation strength and records
// the winning relation type in e.Primary. Non-finite strengths are
// repaired and out-of-range strengths are clamped first. An edge without
// relations keeps a finite weight or falls back to 1.0. It reports whether
// the edge changed; running it twice changes nothing the second time.
func Normalize(e *types.Edge) bool {
	changed := false

	for rel, r := range e.Relations {
		if v, fixed := repairStrength(r.Strength); fixed {
			r.Strength = v
			e.Relations[rel] = r
			changed = true
		}
	}

	weight, primary := e.Weight, types.RelationType("")
	if len(e.Relations) == 0 {
		if !finite(weight) {
			weight = defaultWeight
		}
	} else {
		first := true
		for _, rel := range orderedRelations(e.Relations) {
			s := e.Relations[rel].Strength
			if first || s > weight {
				weight, primary = s, rel
				first = false
			}
		}
	}

	if !sameFloat(weight, e.Weight) || primary != e.Primary {
		e.Weight, e.Primary = weight, primary
		changed = true
	}
	return changed
}

func repairStrength(v float64) (float64, bool) {
	switch {
	case math.IsNaN(v), math.IsInf(v, 0):
		return repairedStrength, true
	case v < 0:
		return 0, true
	case v > 1:
		return 1, true
	}
	return v, false
}

func orderedRelations(m map[types.RelationType]types.Relation) []types.RelationType {
	rels := make([]types.RelationType, 0, len(m))
	for rel := range m {
		rels = append(rels, rel)
	}
	sort.Slice(rels, func(i, j int) bool {
		pi, pj := priority(rels[i]), priority(rels[j])
		if pi != pj {
			return pi < pj
		}
		return rels[i] < rels[j]
	})
	return rels
}

func priority(rel types.RelationType) int {
	if p, ok := relationPriority[rel]; ok {
		return p
	}
	return len(relationPriority)
}

func sameFloat(a, b float64) bool {
	return a == b || (math.IsNaN(a) && math.IsNaN(b))
}
