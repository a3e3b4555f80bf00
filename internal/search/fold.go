// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/width"

	"github.com/pdiddy/lexical-graph/internal/reading"
	"github.com/pdiddy/lexical-graph/pkg/types"
)

// matcher compares attribute values against one folded query term. It
// owns a cases.Caser, which is stateful, so a matcher must stay on one
// goroutine.
type matcher struct {
	term   string
	exact  bool
	kana   bool
	folder cases.Caser
}

// newMatcher returns nil when term folds to the empty string. Exact
// matching folds case only; substring matching also folds width and, for
// readings, katakana to hiragana.
func newMatcher(term string, attr types.Attribute, exact bool) *matcher {
	m := &matcher{
		exact:  exact,
		kana:   attr == types.AttrReading,
		folder: cases.Fold(),
	}
	if exact {
		m.term = m.folder.String(strings.TrimSpace(term))
	} else {
		m.term = m.fold(term)
	}
	if m.term == "" {
		return nil
	}
	return m
}

func (m *matcher) fold(s string) string {
	s = strings.TrimSpace(width.Fold.String(s))
	if m.kana {
		s = reading.ToHiragana(s)
	}
	return m.folder.String(s)
}

func (m *matcher) matches(value string) bool {
	if value == "" {
		return false
	}
	if m.exact {
		return m.folder.String(value) == m.term
	}
	return strings.Contains(m.fold(value), m.term)
}
