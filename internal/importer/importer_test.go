// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package importer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/lexical-graph/internal/graph"
	"github.com/pdiddy/lexical-graph/pkg/types"
)

func TestReadCSV(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []Row
		wantErr error
	}{
		{
			name:  "canonical header",
			input: "lemma,reading,part_of_speech,translation,proficiency_level\n旅行,リョコウ,名詞,travel,N4\n",
			want: []Row{{Line: 2, Node: types.Node{
				Lemma: "旅行", Reading: "りょこう", PartOfSpeech: "名詞", Translation: "travel", ProficiencyLevel: "N4",
			}}},
		},
		{
			name:  "legacy header names and extra columns",
			input: "\ufeffkanji, hiragana,notes,JLPT\n学校,がっこう,ignored,5\n",
			want: []Row{{Line: 2, Node: types.Node{
				Lemma: "学校", Reading: "がっこう", ProficiencyLevel: "5",
			}}},
		},
		{
			name:  "short records",
			input: "lemma,translation\n海\n山,mountain\n",
			want: []Row{
				{Line: 2, Node: types.Node{Lemma: "海"}},
				{Line: 3, Node: types.Node{Lemma: "山", Translation: "mountain"}},
			},
		},
		{
			name:  "empty input",
			input: "",
		},
		{
			name:    "no lemma column",
			input:   "reading,translation\nうみ,sea\n",
			wantErr: ErrNoLemmaColumn,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadCSV(strings.NewReader(tt.input))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadYAML(t *testing.T) {
	input := `
- lemma: 旅行
  reading: リョコウ
  translation: travel
- lemma: " 学校 "
  proficiency_level: "5"
`
	got, err := ReadYAML(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []Row{
		{Line: 1, Node: types.Node{Lemma: "旅行", Reading: "りょこう", Translation: "travel"}},
		{Line: 2, Node: types.Node{Lemma: "学校", ProficiencyLevel: "5"}},
	}, got)

	_, err = ReadYAML(strings.NewReader("lemma: [unclosed"))
	assert.Error(t, err)
}

func TestReadDispatchesOnExtension(t *testing.T) {
	rows, err := Read(strings.NewReader("- lemma: 海\n"), "words.YML")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "海", rows[0].Lemma)

	rows, err = Read(strings.NewReader("lemma\n山\n"), "words.csv")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "山", rows[0].Lemma)
}

func TestApply(t *testing.T) {
	newStore := func(t *testing.T) *graph.Store {
		t.Helper()
		s := graph.New()
		_, err := s.UpsertNode("旅行", types.NodeAttributes{Reading: "りょこう"})
		require.NoError(t, err)
		_, err = s.UpsertNode("学校", types.NodeAttributes{
			Reading: "がっこう", PartOfSpeech: "名詞", Translation: "school", ProficiencyLevel: "5",
		})
		require.NoError(t, err)
		return s
	}
	rows := []Row{
		{Line: 2, Node: types.Node{Lemma: "旅行", Reading: "たび", Translation: "travel", ProficiencyLevel: "4"}},
		{Line: 3, Node: types.Node{Lemma: "学校", Translation: "academy"}},
		{Line: 4, Node: types.Node{Lemma: "海", Reading: "うみ", Translation: "sea"}},
		{Line: 5, Node: types.Node{Translation: "orphan"}},
	}

	t.Run("fills empty attributes only", func(t *testing.T) {
		s := newStore(t)
		sum, err := Apply(s, rows, Options{}, nil)
		require.NoError(t, err)
		assert.Equal(t, Summary{Rows: 4, Updated: 1, Unchanged: 1, Missing: 1, Invalid: 1}, sum)

		n, ok := s.GetNode("旅行")
		require.True(t, ok)
		assert.Equal(t, "りょこう", n.Reading)
		assert.Equal(t, "travel", n.Translation)
		assert.Equal(t, "4", n.ProficiencyLevel)

		n, _ = s.GetNode("学校")
		assert.Equal(t, "school", n.Translation)

		_, ok = s.GetNode("海")
		assert.False(t, ok)
	})

	t.Run("creates missing lemmas", func(t *testing.T) {
		s := newStore(t)
		sum, err := Apply(s, rows, Options{Create: true}, nil)
		require.NoError(t, err)
		assert.Equal(t, 1, sum.Created)
		assert.Zero(t, sum.Missing)

		n, ok := s.GetNode("海")
		require.True(t, ok)
		assert.Equal(t, types.Node{Lemma: "海", Reading: "うみ", Translation: "sea"}, n)
		assert.Equal(t, 3, s.NodeCount())
	})
}
