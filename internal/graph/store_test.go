// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package graph

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/lexical-graph/pkg/types"
)

// --- test helpers ---

func seedStore(t *testing.T, lemmas ...string) *Store {
	t.Helper()
	s := New()
	for _, l := range lemmas {
		_, err := s.UpsertNode(l, types.NodeAttributes{})
		require.NoError(t, err)
	}
	return s
}

func syn(strength float64, sense string) types.Relation {
	return types.Relation{Strength: strength, MutualSense: sense, Explanation: "explanation " + sense}
}

// --- nodes ---

func TestUpsertNodeIdentity(t *testing.T) {
	s := New()
	attrs := types.NodeAttributes{Reading: "りょこう", PartOfSpeech: "名詞", Translation: "travel"}

	c, err := s.UpsertNode("旅行", attrs)
	require.NoError(t, err)
	assert.Equal(t, Created, c)

	c, err = s.UpsertNode("旅行", attrs)
	require.NoError(t, err)
	assert.Equal(t, Unchanged, c)

	assert.Equal(t, 1, s.NodeCount())
	n, ok := s.GetNode("旅行")
	require.True(t, ok)
	assert.Equal(t, "りょこう", n.Reading)
}

func TestUpsertNodePartialUpdate(t *testing.T) {
	s := New()
	_, err := s.UpsertNode("旅行", types.NodeAttributes{Reading: "りょこう", Translation: "travel"})
	require.NoError(t, err)

	c, err := s.UpsertNode("旅行", types.NodeAttributes{PartOfSpeech: "名詞"})
	require.NoError(t, err)
	assert.Equal(t, Updated, c)

	n, _ := s.GetNode("旅行")
	assert.Equal(t, types.Node{Lemma: "旅行", Reading: "りょこう", PartOfSpeech: "名詞", Translation: "travel"}, n)
}

func TestUpsertNodeRejectsEmptyLemma(t *testing.T) {
	s := New()
	_, err := s.UpsertNode("  ", types.NodeAttributes{})
	assert.ErrorIs(t, err, ErrEmptyLemma)
	assert.Equal(t, 0, s.NodeCount())
}

func TestReadsOnUnknownLemma(t *testing.T) {
	s := New()
	_, ok := s.GetNode("存在しない")
	assert.False(t, ok)
	assert.Empty(t, s.Neighbors("存在しない"))
	_, ok = s.Edge("a", "b")
	assert.False(t, ok)
}

// --- edges ---

func TestUpsertEdgeUniqueness(t *testing.T) {
	s := seedStore(t, "旅行", "観光")

	steps := []struct {
		a, b string
		rel  types.RelationType
		want Change
	}{
		{"旅行", "観光", types.RelationSynonym, Created},
		{"観光", "旅行", types.RelationSynonym, Unchanged},
		{"観光", "旅行", types.RelationAntonym, Updated},
		{"旅行", "観光", types.RelationAntonym, Unchanged},
	}
	for i, st := range steps {
		c, err := s.UpsertEdge(st.a, st.b, st.rel, syn(0.5, "移動"))
		require.NoError(t, err, "step %d", i)
		assert.Equal(t, st.want, c, "step %d", i)
	}

	assert.Equal(t, 1, s.EdgeCount())
	e, ok := s.Edge("観光", "旅行")
	require.True(t, ok)
	assert.Equal(t, "旅行", e.Source)
	assert.Equal(t, "観光", e.Target)
	assert.Len(t, e.Relations, 2)
	assert.Equal(t, types.RelationSynonym, e.Primary)
}

func TestUpsertEdgeErrors(t *testing.T) {
	s := seedStore(t, "旅行", "観光")

	tests := []struct {
		name    string
		a, b    string
		rel     types.RelationType
		r       types.Relation
		wantErr error
	}{
		{"self loop", "旅行", "旅行", types.RelationSynonym, syn(0.5, ""), ErrSelfLoop},
		{"unknown endpoint", "旅行", "出張", types.RelationSynonym, syn(0.5, ""), ErrUnknownNode},
		{"empty relation", "旅行", "観光", "", syn(0.5, ""), ErrEmptyRelation},
		{"strength above one", "旅行", "観光", types.RelationSynonym, syn(1.5, ""), ErrInvalidStrength},
		{"negative strength", "旅行", "観光", types.RelationSynonym, syn(-0.1, ""), ErrInvalidStrength},
		{"NaN strength", "旅行", "観光", types.RelationSynonym, syn(math.NaN(), ""), ErrInvalidStrength},
		{"empty lemma", "", "観光", types.RelationSynonym, syn(0.5, ""), ErrEmptyLemma},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.UpsertEdge(tt.a, tt.b, tt.rel, tt.r)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, 0, s.EdgeCount())
		})
	}
}

func TestFreshSeedScenario(t *testing.T) {
	s := New()
	err := s.Update(func(tx *Tx) error {
		if _, err := tx.UpsertNode("旅行", types.NodeAttributes{Reading: "りょこう"}); err != nil {
			return err
		}
		if _, err := tx.UpsertNode("観光", types.NodeAttributes{Reading: "かんこう"}); err != nil {
			return err
		}
		_, err := tx.UpsertEdge("旅行", "観光", types.RelationSynonym, syn(0.7, "旅"))
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, 2, s.NodeCount())
	assert.Equal(t, 1, s.EdgeCount())
	e, ok := s.Edge("旅行", "観光")
	require.True(t, ok)
	assert.Equal(t, 0.7, e.Relations[types.RelationSynonym].Strength)
	assert.Equal(t, 0.7, e.Weight)
}

func TestConflictingRegeneration(t *testing.T) {
	s := seedStore(t, "旅行", "観光")
	_, err := s.UpsertEdge("旅行", "観光", types.RelationSynonym, syn(0.7, "旅"))
	require.NoError(t, err)

	c, err := s.UpsertEdge("旅行", "観光", types.RelationSynonym, types.Relation{
		Strength:    0.55,
		MutualSense: "遊覧",
		Explanation: "newer text",
	})
	require.NoError(t, err)
	assert.Equal(t, Updated, c)

	e, _ := s.Edge("旅行", "観光")
	r := e.Relations[types.RelationSynonym]
	assert.Equal(t, 0.7, r.Strength)
	assert.Equal(t, 0.7, e.Weight)
	assert.Equal(t, "遊覧", r.MutualSense)
	assert.Equal(t, "newer text", r.Explanation)
}

func TestMergeMonotonicity(t *testing.T) {
	s := seedStore(t, "a", "b", "c")
	initial := map[[2]string]float64{{"a", "b"}: 0.9, {"b", "c"}: 0.4, {"a", "c"}: 0.6}
	for p, w := range initial {
		_, err := s.UpsertEdge(p[0], p[1], types.RelationSynonym, syn(w, "x"))
		require.NoError(t, err)
	}

	for _, scale := range []float64{1.0, 0.8, 0.3, 0} {
		for p, w := range initial {
			_, err := s.UpsertEdge(p[0], p[1], types.RelationSynonym, syn(w*scale, fmt.Sprint(scale)))
			require.NoError(t, err)
		}
		for p, w := range initial {
			e, _ := s.Edge(p[0], p[1])
			assert.Equal(t, w, e.Weight, "pair %v after scale %v", p, scale)
		}
	}
}

// --- batches ---

func TestUpdateRollsBackOnError(t *testing.T) {
	s := seedStore(t, "旅行", "観光")
	_, err := s.UpsertEdge("旅行", "観光", types.RelationSynonym, syn(0.7, "旅"))
	require.NoError(t, err)
	beforeNodes, beforeEdges := s.Export()

	boom := errors.New("boom")
	err = s.Update(func(tx *Tx) error {
		if _, err := tx.UpsertNode("旅行", types.NodeAttributes{Translation: "travel"}); err != nil {
			return err
		}
		if _, err := tx.UpsertNode("出張", types.NodeAttributes{}); err != nil {
			return err
		}
		if _, err := tx.UpsertEdge("旅行", "出張", types.RelationSynonym, syn(0.4, "")); err != nil {
			return err
		}
		if _, err := tx.UpsertEdge("旅行", "観光", types.RelationSynonym, syn(0.95, "更新")); err != nil {
			return err
		}
		if _, err := tx.UpsertEdge("旅行", "観光", types.RelationAntonym, syn(0.1, "")); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	afterNodes, afterEdges := s.Export()
	assert.Equal(t, beforeNodes, afterNodes)
	assert.Equal(t, beforeEdges, afterEdges)
	assert.Empty(t, s.Neighbors("出張"))
}

func TestUpdateRollsBackOnPanic(t *testing.T) {
	s := seedStore(t, "旅行")
	assert.Panics(t, func() {
		_ = s.Update(func(tx *Tx) error {
			_, _ = tx.UpsertNode("観光", types.NodeAttributes{})
			panic("bad batch")
		})
	})
	assert.Equal(t, 1, s.NodeCount())

	// The store remains usable after the panic released the lock.
	_, err := s.UpsertNode("観光", types.NodeAttributes{})
	require.NoError(t, err)
}

func TestUpdateIsAtomicForReaders(t *testing.T) {
	s := seedStore(t, "hub")

	var wg sync.WaitGroup
	stop := make(chan struct{})
	violations := make(chan string, 1)

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				s.View(func(v *View) {
					v.RangeNodes(func(n types.Node) bool {
						if n.Lemma == "hub" {
							return true
						}
						if _, ok := v.Edge("hub", n.Lemma); !ok {
							select {
							case violations <- n.Lemma:
							default:
							}
							return false
						}
						return true
					})
				})
			}
		}()
	}

	for i := 0; i < 200; i++ {
		lemma := fmt.Sprintf("leaf-%03d", i)
		err := s.Update(func(tx *Tx) error {
			if _, err := tx.UpsertNode(lemma, types.NodeAttributes{}); err != nil {
				return err
			}
			_, err := tx.UpsertEdge("hub", lemma, types.RelationSynonym, syn(0.5, ""))
			return err
		})
		require.NoError(t, err)
	}
	close(stop)
	wg.Wait()

	select {
	case l := <-violations:
		t.Fatalf("reader observed node %q without its edge", l)
	default:
	}
	assert.Equal(t, 201, s.NodeCount())
	assert.Equal(t, 200, s.EdgeCount())
}

// --- reads ---

func TestNeighborsRanking(t *testing.T) {
	s := seedStore(t, "旅行", "観光", "旅", "出張", "帰宅")
	for _, e := range []struct {
		other string
		rel   types.RelationType
		w     float64
	}{
		{"観光", types.RelationSynonym, 0.7},
		{"旅", types.RelationSynonym, 0.9},
		{"出張", types.RelationSynonym, 0.7},
		{"帰宅", types.RelationAntonym, 0.3},
	} {
		_, err := s.UpsertEdge("旅行", e.other, e.rel, syn(e.w, ""))
		require.NoError(t, err)
	}

	ns := s.Neighbors("旅行")
	var got []string
	for _, n := range ns {
		got = append(got, n.Node.Lemma)
	}
	assert.Equal(t, []string{"旅", "出張", "観光", "帰宅"}, got)
}

// --- load ---

func TestLoadRepairs(t *testing.T) {
	nodes := []types.Node{
		{Lemma: "旅行", Reading: "りょこう"},
		{Lemma: "旅行", Translation: "travel"},
		{Lemma: " "},
		{Lemma: "観光"},
	}
	edges := []types.Edge{
		{Source: "観光", Target: "旅行", Relations: map[types.RelationType]types.Relation{
			types.RelationSynonym: {Strength: 0.6},
		}},
		{Source: "旅行", Target: "観光", Relations: map[types.RelationType]types.Relation{
			types.RelationSynonym: {Strength: 0.8, Domain: "移動"},
		}},
		{Source: "旅行", Target: "旅行", Weight: 1},
		{Source: "旅行", Target: "出張", Relations: map[types.RelationType]types.Relation{
			types.RelationSynonym: {Strength: math.NaN()},
		}},
		{Source: "観光", Target: "名所", Weight: math.NaN()},
	}

	s, rep := Load(nodes, edges)

	assert.Equal(t, LoadReport{
		Nodes:          4,
		Edges:          3,
		DuplicateNodes: 1,
		DuplicateEdges: 1,
		ImplicitNodes:  2,
		SelfLoops:      1,
		Invalid:        1,
		Normalized:     3,
	}, rep)

	n, _ := s.GetNode("旅行")
	assert.Equal(t, "りょこう", n.Reading)
	assert.Equal(t, "travel", n.Translation)

	e, _ := s.Edge("旅行", "観光")
	assert.Equal(t, 0.8, e.Weight)
	assert.Equal(t, "移動", e.Relations[types.RelationSynonym].Domain)

	e, _ = s.Edge("旅行", "出張")
	assert.Equal(t, repairedStrength, e.Weight)

	e, _ = s.Edge("観光", "名所")
	assert.Equal(t, defaultWeight, e.Weight)

	for _, e := range func() []types.Edge { _, es := s.Export(); return es }() {
		assert.False(t, math.IsNaN(e.Weight), "edge %s-%s has NaN weight", e.Source, e.Target)
	}
}

func TestStats(t *testing.T) {
	s := New()
	for _, n := range []types.Node{
		{Lemma: "旅行", PartOfSpeech: "名詞", ProficiencyLevel: "N4"},
		{Lemma: "観光", PartOfSpeech: "名詞", ProficiencyLevel: "N3"},
		{Lemma: "行く", PartOfSpeech: "動詞", ProficiencyLevel: "N5"},
		{Lemma: "孤立"},
	} {
		_, err := s.UpsertNode(n.Lemma, n.Attributes())
		require.NoError(t, err)
	}
	_, err := s.UpsertEdge("旅行", "観光", types.RelationSynonym, syn(0.7, ""))
	require.NoError(t, err)
	_, err = s.UpsertEdge("旅行", "行く", types.RelationAntonym, syn(0.2, ""))
	require.NoError(t, err)

	st := s.Stats(2)
	assert.Equal(t, 4, st.Nodes)
	assert.Equal(t, 2, st.Edges)
	assert.InDelta(t, 2.0*2/(4*3), st.Density, 1e-9)
	assert.InDelta(t, 1.0, st.AvgDegree, 1e-9)
	assert.Equal(t, 1, st.Isolated)
	assert.Equal(t, map[types.RelationType]int{types.RelationSynonym: 1, types.RelationAntonym: 1}, st.Relations)
	assert.Equal(t, map[string]int{"名詞": 2, "動詞": 1}, st.PartsOfSpeech)
	assert.Equal(t, []DegreeEntry{{Lemma: "旅行", Degree: 2}, {Lemma: "行く", Degree: 1}}, st.TopDegree)
}
