// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pdiddy/lexical-graph/internal/reading"
	"github.com/pdiddy/lexical-graph/pkg/types"
)

// ErrMalformedEnvelope is wrapped by every ValidationError. A response
// failing the envelope checks writes nothing to the graph.
var ErrMalformedEnvelope = errors.New("malformed generation envelope")

// ValidationError lists every envelope problem found in one response.
type ValidationError struct {
	Term     string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid response for %q: %s", e.Term, strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrMalformedEnvelope }

const (
	keySource   = "source_lexeme"
	keySynonyms = "lexeme_synonyms"
	keyAntonyms = "lexeme_antonyms"
)

// Skip codes reported in types.SkippedEntry.Code.
const (
	SkipNotObject       = "not_object"
	SkipUnknownField    = "unknown_field"
	SkipInvalidField    = "invalid_field"
	SkipMissingField    = "missing_field"
	SkipInvalidStrength = "invalid_strength"
	SkipSelfRelation    = "self_relation"
	SkipDuplicate       = "duplicate"
)

// entryFields lists the accepted keys of each relation list. The first key
// names the target lemma.
var entryFields = map[types.RelationType][]string{
	types.RelationSynonym: {
		"synonym_lemma", "reading", "part_of_speech", "strength", "translation",
		"mutual_sense", "mutual_sense_reading", "mutual_sense_translation",
		"domain", "domain_reading", "domain_translation", "explanation",
	},
	types.RelationAntonym: {
		"antonym_lemma", "reading", "part_of_speech", "translation", "strength",
		"domain", "domain_reading", "domain_translation", "explanation",
	},
}

var requiredFields = []string{"reading", "part_of_speech", "translation"}

// SourceLexeme is the source_lexeme object of a response.
type SourceLexeme struct {
	Lemma                   string `json:"lemma"`
	Reading                 string `json:"reading"`
	PartOfSpeech            string `json:"part_of_speech"`
	Translation             string `json:"translation"`
	TranslationPartOfSpeech string `json:"translation_part_of_speech"`
}

// Entry is one validated synonym or antonym.
type Entry struct {
	Relation types.RelationType
	Index    int
	Lemma    string
	Attrs    types.NodeAttributes
	Data     types.Relation
}

// Batch is a decoded response ready to apply.
type Batch struct {
	Source       types.Node
	SourceLexeme SourceLexeme
	Entries      []Entry
	Skipped      []types.SkippedEntry
}

// Decode validates raw against the response schema for term. Envelope
// problems return a *ValidationError; entry problems are reported in
// Batch.Skipped. Readings are folded to hiragana.
func Decode(raw []byte, term string) (*Batch, error) {
	term = strings.TrimSpace(term)
	invalid := func(problems ...string) error {
		return &ValidationError{Term: term, Problems: problems}
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	var env map[string]json.RawMessage
	if err := dec.Decode(&env); err != nil {
		return nil, invalid(fmt.Sprintf("decoding envelope: %v", err))
	}
	if env == nil {
		return nil, invalid("envelope is not an object")
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, invalid("trailing data after envelope")
	}

	var problems []string
	var unknown []string
	for k := range env {
		if k != keySource && k != keySynonyms && k != keyAntonyms {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	for _, k := range unknown {
		problems = append(problems, fmt.Sprintf("unknown key %q", k))
	}
	for _, k := range []string{keySource, keySynonyms, keyAntonyms} {
		if _, ok := env[k]; !ok {
			problems = append(problems, fmt.Sprintf("missing key %q", k))
		}
	}

	var src SourceLexeme
	if r, ok := env[keySource]; ok {
		if p := decodeSource(r, &src); p != "" {
			problems = append(problems, p)
		} else if lemma := strings.TrimSpace(src.Lemma); lemma == "" {
			problems = append(problems, "source_lexeme.lemma is empty")
		} else if lemma != term {
			problems = append(problems, fmt.Sprintf("source_lexeme.lemma %q does not match term", lemma))
		}
	}

	lists := make(map[types.RelationType][]json.RawMessage)
	for rel, k := range map[types.RelationType]string{types.RelationSynonym: keySynonyms, types.RelationAntonym: keyAntonyms} {
		r, ok := env[k]
		if !ok {
			continue
		}
		if isNull(r) {
			problems = append(problems, fmt.Sprintf("%s is null", k))
			continue
		}
		var items []json.RawMessage
		if err := json.Unmarshal(r, &items); err != nil {
			problems = append(problems, fmt.Sprintf("%s is not an array", k))
			continue
		}
		lists[rel] = items
	}

	if len(problems) > 0 {
		sort.Strings(problems)
		return nil, invalid(problems...)
	}

	b := &Batch{
		SourceLexeme: src,
		Source: types.Node{
			Lemma:        term,
			Reading:      reading.ToHiragana(strings.TrimSpace(src.Reading)),
			PartOfSpeech: strings.TrimSpace(src.PartOfSpeech),
			Translation:  strings.TrimSpace(src.Translation),
		},
	}
	for _, rel := range []types.RelationType{types.RelationSynonym, types.RelationAntonym} {
		seen := make(map[string]bool)
		for i, r := range lists[rel] {
			e, skip := parseEntry(rel, i, r, term)
			if skip == nil && seen[e.Lemma] {
				skip = &types.SkippedEntry{Lemma: e.Lemma, Code: SkipDuplicate, Reason: "duplicate of an earlier entry"}
			}
			if skip != nil {
				skip.Relation, skip.Index = rel, i
				b.Skipped = append(b.Skipped, *skip)
				continue
			}
			seen[e.Lemma] = true
			b.Entries = append(b.Entries, e)
		}
	}
	return b, nil
}

func decodeSource(r json.RawMessage, src *SourceLexeme) string {
	if isNull(r) {
		return "source_lexeme is null"
	}
	dec := json.NewDecoder(bytes.NewReader(r))
	dec.DisallowUnknownFields()
	if err := dec.Decode(src); err != nil {
		return fmt.Sprintf("source_lexeme: %v", err)
	}
	return ""
}

// parseEntry validates one list item. It returns a skip record when the
// item cannot be applied.
func parseEntry(rel types.RelationType, index int, raw json.RawMessage, source string) (Entry, *types.SkippedEntry) {
	trimmed := bytes.TrimSpace(raw)
	var m map[string]json.RawMessage
	if len(trimmed) == 0 || trimmed[0] != '{' || json.Unmarshal(trimmed, &m) != nil {
		return Entry{}, &types.SkippedEntry{Code: SkipNotObject, Reason: "entry is not an object"}
	}

	fields := entryFields[rel]
	lemmaKey := fields[0]

	// Best effort lemma so every skip can be reported by lemma.
	var lemma string
	if r, ok := m[lemmaKey]; ok {
		_ = json.Unmarshal(r, &lemma)
		lemma = strings.TrimSpace(lemma)
	}
	skip := func(code, format string, args ...any) (Entry, *types.SkippedEntry) {
		return Entry{}, &types.SkippedEntry{Lemma: lemma, Code: code, Reason: fmt.Sprintf(format, args...)}
	}

	allowed := make(map[string]bool, len(fields))
	for _, f := range fields {
		allowed[f] = true
	}
	var unknown []string
	for k := range m {
		if !allowed[k] {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return skip(SkipUnknownField, "unknown field %q", unknown[0])
	}

	str := make(map[string]string, len(fields))
	for _, f := range fields {
		r, ok := m[f]
		if !ok || isNull(r) || f == "strength" {
			continue
		}
		var v string
		if err := json.Unmarshal(r, &v); err != nil {
			return skip(SkipInvalidField, "field %q is not a string", f)
		}
		str[f] = strings.TrimSpace(v)
	}

	for _, f := range append([]string{lemmaKey}, requiredFields...) {
		if str[f] == "" {
			return skip(SkipMissingField, "missing %s", f)
		}
	}
	sr, ok := m["strength"]
	if !ok || isNull(sr) {
		return skip(SkipMissingField, "missing strength")
	}
	var strength float64
	if err := json.Unmarshal(sr, &strength); err != nil {
		return skip(SkipInvalidStrength, "strength %s is not a number", string(bytes.TrimSpace(sr)))
	}
	if strength < 0 || strength > 1 {
		return skip(SkipInvalidStrength, "strength %v outside [0,1]", strength)
	}
	if lemma == source {
		return skip(SkipSelfRelation, "entry names the source lemma")
	}

	return Entry{
		Relation: rel,
		Index:    index,
		Lemma:    lemma,
		Attrs: types.NodeAttributes{
			Reading:      reading.ToHiragana(str["reading"]),
			PartOfSpeech: str["part_of_speech"],
			Translation:  str["translation"],
		},
		Data: types.Relation{
			Strength:               strength,
			MutualSense:            str["mutual_sense"],
			MutualSenseReading:     reading.ToHiragana(str["mutual_sense_reading"]),
			MutualSenseTranslation: str["mutual_sense_translation"],
			Domain:                 str["domain"],
			DomainReading:          reading.ToHiragana(str["domain_reading"]),
			DomainTranslation:      str["domain_translation"],
			Explanation:            str["explanation"],
		},
	}, nil
}

func isNull(r json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(r), []byte("null"))
}
