// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package graph

import (
	"sort"
	"strings"

	"github.com/pdiddy/lexical-graph/pkg/types"
)

// ComponentStats describes the connected components of the graph.
type ComponentStats struct {
	Count          int     `json:"count" yaml:"count"`
	LargestSize    int     `json:"largest_size" yaml:"largest_size"`
	LargestPercent float64 `json:"largest_percent" yaml:"largest_percent"`
}

// Components counts connected components. Isolated nodes are components
// of size one.
func (s *Store) Components() ComponentStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var st ComponentStats
	seen := make(map[string]bool, len(s.nodes))
	for start := range s.nodes {
		if seen[start] {
			continue
		}
		st.Count++
		size := 0
		queue := []string{start}
		seen[start] = true
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			size++
			for next := range s.adj[cur] {
				if !seen[next] {
					seen[next] = true
					queue = append(queue, next)
				}
			}
		}
		if size > st.LargestSize {
			st.LargestSize = size
		}
	}
	if len(s.nodes) > 0 {
		st.LargestPercent = 100 * float64(st.LargestSize) / float64(len(s.nodes))
	}
	return st
}

// DegreeStats summarises the degree distribution.
type DegreeStats struct {
	Min       int           `json:"min" yaml:"min"`
	Max       int           `json:"max" yaml:"max"`
	Average   float64       `json:"average" yaml:"average"`
	Histogram []DegreeCount `json:"histogram" yaml:"histogram"`
	Top       []DegreeEntry `json:"top" yaml:"top"`
}

// DegreeCount is one histogram bucket: how many nodes have Degree edges.
type DegreeCount struct {
	Degree int `json:"degree" yaml:"degree"`
	Nodes  int `json:"nodes" yaml:"nodes"`
}

// Degrees computes the degree distribution. The histogram is ordered by
// degree ascending; top limits the highest-degree list.
func (s *Store) Degrees(top int) DegreeStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out DegreeStats
	if len(s.nodes) > 0 {
		out.Average = 2 * float64(len(s.edges)) / float64(len(s.nodes))
	}
	counts := make(map[int]int)
	degrees := make([]DegreeEntry, 0, len(s.nodes))
	for lemma := range s.nodes {
		d := len(s.adj[lemma])
		counts[d]++
		if len(degrees) == 0 || d < out.Min {
			out.Min = d
		}
		if d > out.Max {
			out.Max = d
		}
		degrees = append(degrees, DegreeEntry{Lemma: lemma, Degree: d})
	}
	out.Top = rankDegrees(degrees, top)
	for d, n := range counts {
		out.Histogram = append(out.Histogram, DegreeCount{Degree: d, Nodes: n})
	}
	sort.Slice(out.Histogram, func(i, j int) bool { return out.Histogram[i].Degree < out.Histogram[j].Degree })
	return out
}

// LevelStats aggregates the nodes tagged with one proficiency level.
type LevelStats struct {
	Level     string   `json:"level" yaml:"level"`
	Nodes     int      `json:"nodes" yaml:"nodes"`
	AvgDegree float64  `json:"avg_degree" yaml:"avg_degree"`
	Sample    []string `json:"sample,omitempty" yaml:"sample,omitempty"`
}

// Levels groups nodes by proficiency level, ordered by level. Untagged
// nodes are left out. Each group carries up to sample lemmas in sorted
// order.
func (s *Store) Levels(sample int) []LevelStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type group struct {
		lemmas []string
		degree int
	}
	groups := make(map[string]*group)
	for lemma, n := range s.nodes {
		if n.ProficiencyLevel == "" {
			continue
		}
		g := groups[n.ProficiencyLevel]
		if g == nil {
			g = &group{}
			groups[n.ProficiencyLevel] = g
		}
		g.lemmas = append(g.lemmas, lemma)
		g.degree += len(s.adj[lemma])
	}

	out := make([]LevelStats, 0, len(groups))
	for level, g := range groups {
		sort.Strings(g.lemmas)
		ls := LevelStats{
			Level:     level,
			Nodes:     len(g.lemmas),
			AvgDegree: float64(g.degree) / float64(len(g.lemmas)),
		}
		if sample > 0 {
			ls.Sample = g.lemmas[:min(sample, len(g.lemmas))]
		}
		out = append(out, ls)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Level < out[j].Level })
	return out
}

// NodeProfile describes one node through its neighbourhood.
type NodeProfile struct {
	Node      types.Node                         `json:"node" yaml:"node"`
	Degree    int                                `json:"degree" yaml:"degree"`
	Relations map[types.RelationType]int         `json:"relations" yaml:"relations"`
	Neighbors map[types.Attribute]map[string]int `json:"neighbor_attributes" yaml:"neighbor_attributes"`
	Sample    []types.Neighbor                   `json:"sample,omitempty" yaml:"sample,omitempty"`
}

// profiledAttributes are the neighbour attributes worth counting; lemma and
// reading are unique per node.
var profiledAttributes = []types.Attribute{types.AttrPartOfSpeech, types.AttrProficiencyLevel}

// Profile counts the relation types on lemma's edges and the attribute
// values of its neighbours, and keeps up to sample ranked neighbours. It
// returns false for an unknown lemma.
func (s *Store) Profile(lemma string, sample int) (NodeProfile, bool) {
	lemma = strings.TrimSpace(lemma)
	var (
		p  NodeProfile
		ok bool
	)
	s.View(func(v *View) {
		var n types.Node
		n, ok = v.Node(lemma)
		if !ok {
			return
		}
		p = NodeProfile{
			Node:      n,
			Degree:    v.Degree(lemma),
			Relations: make(map[types.RelationType]int),
			Neighbors: make(map[types.Attribute]map[string]int, len(profiledAttributes)),
		}
		for _, a := range profiledAttributes {
			p.Neighbors[a] = make(map[string]int)
		}
		ns := v.Neighbors(lemma)
		for _, nb := range ns {
			for rel := range nb.Edge.Relations {
				p.Relations[rel]++
			}
			for _, a := range profiledAttributes {
				if val := nb.Node.Value(a); val != "" {
					p.Neighbors[a][val]++
				}
			}
		}
		if sample > 0 && len(ns) > 0 {
			p.Sample = ns[:min(sample, len(ns))]
		}
	})
	return p, ok
}
