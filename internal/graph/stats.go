// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package graph

import (
	"sort"

	"github.com/pdiddy/lexical-graph/pkg/types"
)

// DegreeEntry pairs a lemma with its degree.
type DegreeEntry struct {
	Lemma  string `json:"lemma" yaml:"lemma"`
	Degree int    `json:"degree" yaml:"degree"`
}

// Stats summarises the graph.
type Stats struct {
	Nodes             int                        `json:"nodes" yaml:"nodes"`
	Edges             int                        `json:"edges" yaml:"edges"`
	Density           float64                    `json:"density" yaml:"density"`
	AvgDegree         float64                    `json:"avg_degree" yaml:"avg_degree"`
	Isolated          int                        `json:"isolated" yaml:"isolated"`
	Relations         map[types.RelationType]int `json:"relations" yaml:"relations"`
	PartsOfSpeech     map[string]int             `json:"parts_of_speech" yaml:"parts_of_speech"`
	ProficiencyLevels map[string]int             `json:"proficiency_levels" yaml:"proficiency_levels"`
	TopDegree         []DegreeEntry              `json:"top_degree" yaml:"top_degree"`
}

// Stats computes summary statistics with the top highest-degree nodes.
func (s *Store) Stats(top int) Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{
		Nodes:             len(s.nodes),
		Edges:             len(s.edges),
		Relations:         make(map[types.RelationType]int),
		PartsOfSpeech:     make(map[string]int),
		ProficiencyLevels: make(map[string]int),
	}

	if n := float64(st.Nodes); n > 1 {
		st.Density = 2 * float64(st.Edges) / (n * (n - 1))
	}
	if st.Nodes > 0 {
		st.AvgDegree = 2 * float64(st.Edges) / float64(st.Nodes)
	}

	degrees := make([]DegreeEntry, 0, len(s.nodes))
	for lemma, n := range s.nodes {
		d := len(s.adj[lemma])
		if d == 0 {
			st.Isolated++
		}
		degrees = append(degrees, DegreeEntry{Lemma: lemma, Degree: d})
		if n.PartOfSpeech != "" {
			st.PartsOfSpeech[n.PartOfSpeech]++
		}
		if n.ProficiencyLevel != "" {
			st.ProficiencyLevels[n.ProficiencyLevel]++
		}
	}
	for _, e := range s.edges {
		for rel := range e.Relations {
			st.Relations[rel]++
		}
	}

	st.TopDegree = rankDegrees(degrees, top)
	return st
}

// rankDegrees orders by degree descending, then lemma, and keeps the first
// top entries.
func rankDegrees(degrees []DegreeEntry, top int) []DegreeEntry {
	if top <= 0 {
		return nil
	}
	sort.Slice(degrees, func(i, j int) bool {
		if degrees[i].Degree != degrees[j].Degree {
			return degrees[i].Degree > degrees[j].Degree
		}
		return degrees[i].Lemma < degrees[j].Lemma
	})
	if len(degrees) > top {
		degrees = degrees[:top]
	}
	return degrees
}
