// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/lexical-graph/pkg/types"
)

// analysisStore builds two components plus an isolated node:
//
//	旅行 - 観光 - 名所      学校 - 先生      孤立
//	  \
//	  帰宅 (antonym)
func analysisStore(t *testing.T) *Store {
	t.Helper()
	s := New()
	for _, n := range []types.Node{
		{Lemma: "旅行", PartOfSpeech: "名詞", ProficiencyLevel: "N4"},
		{Lemma: "観光", PartOfSpeech: "名詞", ProficiencyLevel: "N3"},
		{Lemma: "名所", PartOfSpeech: "名詞"},
		{Lemma: "帰宅", PartOfSpeech: "名詞", ProficiencyLevel: "N3"},
		{Lemma: "学校", PartOfSpeech: "名詞", ProficiencyLevel: "N5"},
		{Lemma: "先生", PartOfSpeech: "名詞", ProficiencyLevel: "N5"},
		{Lemma: "孤立", PartOfSpeech: "名詞", ProficiencyLevel: "N1"},
	} {
		_, err := s.UpsertNode(n.Lemma, n.Attributes())
		require.NoError(t, err)
	}
	for _, e := range []struct {
		a, b string
		rel  types.RelationType
		w    float64
	}{
		{"旅行", "観光", types.RelationSynonym, 0.7},
		{"観光", "名所", types.RelationSynonym, 0.6},
		{"旅行", "帰宅", types.RelationAntonym, 0.8},
		{"学校", "先生", types.RelationSynonym, 0.3},
	} {
		_, err := s.UpsertEdge(e.a, e.b, e.rel, syn(e.w, ""))
		require.NoError(t, err)
	}
	return s
}

func TestComponents(t *testing.T) {
	tests := []struct {
		name  string
		store func(t *testing.T) *Store
		want  ComponentStats
	}{
		{"empty", func(*testing.T) *Store { return New() }, ComponentStats{}},
		{"isolated only", func(t *testing.T) *Store { return seedStore(t, "海", "山") }, ComponentStats{Count: 2, LargestSize: 1, LargestPercent: 50}},
		{"mixed", analysisStore, ComponentStats{Count: 3, LargestSize: 4, LargestPercent: 100 * 4.0 / 7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.store(t).Components()
			assert.Equal(t, tt.want.Count, got.Count)
			assert.Equal(t, tt.want.LargestSize, got.LargestSize)
			assert.InDelta(t, tt.want.LargestPercent, got.LargestPercent, 1e-9)
		})
	}
}

func TestDegrees(t *testing.T) {
	got := analysisStore(t).Degrees(2)
	assert.Equal(t, 0, got.Min)
	assert.Equal(t, 2, got.Max)
	assert.InDelta(t, 2.0*4/7, got.Average, 1e-9)
	assert.Equal(t, []DegreeCount{{Degree: 0, Nodes: 1}, {Degree: 1, Nodes: 4}, {Degree: 2, Nodes: 2}}, got.Histogram)
	assert.Equal(t, []DegreeEntry{{Lemma: "旅行", Degree: 2}, {Lemma: "観光", Degree: 2}}, got.Top)

	empty := New().Degrees(5)
	assert.Zero(t, empty.Min)
	assert.Zero(t, empty.Max)
	assert.Empty(t, empty.Histogram)
	assert.Empty(t, empty.Top)
}

func TestLevels(t *testing.T) {
	got := analysisStore(t).Levels(1)
	assert.Equal(t, []LevelStats{
		{Level: "N1", Nodes: 1, AvgDegree: 0, Sample: []string{"孤立"}},
		{Level: "N3", Nodes: 2, AvgDegree: 1.5, Sample: []string{"帰宅"}},
		{Level: "N4", Nodes: 1, AvgDegree: 2, Sample: []string{"旅行"}},
		{Level: "N5", Nodes: 2, AvgDegree: 1, Sample: []string{"先生"}},
	}, got)

	for _, ls := range analysisStore(t).Levels(0) {
		assert.Nil(t, ls.Sample)
	}
}

func TestProfile(t *testing.T) {
	s := analysisStore(t)

	p, ok := s.Profile(" 旅行 ", 1)
	require.True(t, ok)
	assert.Equal(t, "旅行", p.Node.Lemma)
	assert.Equal(t, 2, p.Degree)
	assert.Equal(t, map[types.RelationType]int{types.RelationSynonym: 1, types.RelationAntonym: 1}, p.Relations)
	assert.Equal(t, map[string]int{"名詞": 2}, p.Neighbors[types.AttrPartOfSpeech])
	assert.Equal(t, map[string]int{"N3": 2}, p.Neighbors[types.AttrProficiencyLevel])
	require.Len(t, p.Sample, 1)
	assert.Equal(t, "帰宅", p.Sample[0].Node.Lemma)

	p, ok = s.Profile("孤立", 5)
	require.True(t, ok)
	assert.Zero(t, p.Degree)
	assert.Empty(t, p.Relations)
	assert.Nil(t, p.Sample)

	_, ok = s.Profile("存在しない", 5)
	assert.False(t, ok)
}
