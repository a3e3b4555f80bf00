// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package reading derives hiragana readings and parts of speech for
// Japanese lemmas using the kagome morphological analyzer with the IPA
// dictionary.
package reading

import (
	"fmt"
	"strings"

	"github.com/ikawaha/kagome-dict/ipa"
	"github.com/ikawaha/kagome/v2/tokenizer"
	"go.uber.org/zap"

	"github.com/pdiddy/lexical-graph/internal/graph"
	"github.com/pdiddy/lexical-graph/pkg/types"
)

// ToHiragana folds katakana to hiragana and leaves every other rune as is.
func ToHiragana(s string) string {
	runes := []rune(s)
	for i, r := range runes {
		if r >= 0x30A1 && r <= 0x30F6 {
			runes[i] = r - 0x60
		}
	}
	return string(runes)
}

// IsKana reports whether s consists only of hiragana, katakana, and the
// prolonged sound mark.
func IsKana(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 0x3041 && r <= 0x3096:
		case r >= 0x30A1 && r <= 0x30FA:
		case r == 0x30FC:
		default:
			return false
		}
	}
	return true
}

// Result is the analysis of one lemma.
type Result struct {
	Reading      string
	PartOfSpeech string
}

// Analyzer wraps a kagome tokenizer. It is safe for concurrent use.
type Analyzer struct {
	t *tokenizer.Tokenizer
}

// NewAnalyzer loads the IPA dictionary.
func NewAnalyzer() (*Analyzer, error) {
	t, err := tokenizer.New(ipa.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, fmt.Errorf("creating tokenizer: %w", err)
	}
	return &Analyzer{t: t}, nil
}

// Analyze returns the hiragana reading of lemma and the part of speech of
// its first token. ok is false when any token has no known reading.
func (a *Analyzer) Analyze(lemma string) (Result, bool) {
	lemma = strings.TrimSpace(lemma)
	if lemma == "" {
		return Result{}, false
	}

	var (
		sb  strings.Builder
		res Result
	)
	for _, tok := range a.t.Tokenize(lemma) {
		if strings.TrimSpace(tok.Surface) == "" {
			continue
		}
		features := tok.Features()
		if res.PartOfSpeech == "" && len(features) > 0 && features[0] != "*" {
			res.PartOfSpeech = features[0]
		}

		// IPA features: 7 is the katakana reading.
		switch {
		case tok.Class != tokenizer.UNKNOWN && len(features) > 7 && features[7] != "*":
			sb.WriteString(ToHiragana(features[7]))
		case IsKana(tok.Surface):
			sb.WriteString(ToHiragana(tok.Surface))
		default:
			return Result{}, false
		}
	}
	res.Reading = sb.String()
	return res, res.Reading != ""
}

// FillSummary counts the outcome of FillMissing.
type FillSummary struct {
	Updated    int
	Unresolved int
}

// FillMissing assigns a reading or part of speech to every node that lacks
// one. Existing values are never replaced. All updates are applied in one
// batch.
func FillMissing(store *graph.Store, a *Analyzer, log *zap.Logger) (FillSummary, error) {
	if log == nil {
		log = zap.NewNop()
	}

	type update struct {
		lemma string
		attrs types.NodeAttributes
	}
	var (
		pending []update
		summary FillSummary
	)

	store.View(func(v *graph.View) {
		v.RangeNodes(func(n types.Node) bool {
			if n.Reading != "" && n.PartOfSpeech != "" {
				return true
			}
			res, ok := a.Analyze(n.Lemma)
			if !ok {
				summary.Unresolved++
				log.Debug("no reading", zap.String("lemma", n.Lemma))
				return true
			}
			var attrs types.NodeAttributes
			if n.Reading == "" {
				attrs.Reading = res.Reading
			}
			if n.PartOfSpeech == "" {
				attrs.PartOfSpeech = res.PartOfSpeech
			}
			if !attrs.IsZero() {
				pending = append(pending, update{lemma: n.Lemma, attrs: attrs})
			}
			return true
		})
	})

	err := store.Update(func(tx *graph.Tx) error {
		for _, u := range pending {
			// A concurrent batch may have filled the field since the scan.
			n, ok := tx.Node(u.lemma)
			if !ok {
				continue
			}
			if n.Reading != "" {
				u.attrs.Reading = ""
			}
			if n.PartOfSpeech != "" {
				u.attrs.PartOfSpeech = ""
			}
			c, err := tx.UpsertNode(u.lemma, u.attrs)
			if err != nil {
				return fmt.Errorf("updating %q: %w", u.lemma, err)
			}
			if c == graph.Updated {
				summary.Updated++
			}
		}
		return nil
	})
	if err != nil {
		return FillSummary{}, err
	}

	log.Info("filled readings",
		zap.Int("updated", summary.Updated),
		zap.Int("unresolved", summary.Unresolved))
	return summary, nil
}
