// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the lexgraph network:
// lexemes, relations, search results, generation results, and configuration.
package types

import "fmt"

// Node is a single lexeme in the network. Lemma is the identity key and
// never changes once the node exists.
type Node struct {
	Lemma            string `json:"lemma" yaml:"lemma"`
	Reading          string `json:"reading,omitempty" yaml:"reading,omitempty"`
	PartOfSpeech     string `json:"part_of_speech,omitempty" yaml:"part_of_speech,omitempty"`
	Translation      string `json:"translation,omitempty" yaml:"translation,omitempty"`
	ProficiencyLevel string `json:"proficiency_level,omitempty" yaml:"proficiency_level,omitempty"`
}

// Attributes returns the mutable attributes of the node.
func (n Node) Attributes() NodeAttributes {
	return NodeAttributes{
		Reading:          n.Reading,
		PartOfSpeech:     n.PartOfSpeech,
		Translation:      n.Translation,
		ProficiencyLevel: n.ProficiencyLevel,
	}
}

// NodeAttributes carries the attributes applied by an upsert. An empty
// field leaves the stored value untouched.
type NodeAttributes struct {
	Reading          string `json:"reading,omitempty" yaml:"reading,omitempty"`
	PartOfSpeech     string `json:"part_of_speech,omitempty" yaml:"part_of_speech,omitempty"`
	Translation      string `json:"translation,omitempty" yaml:"translation,omitempty"`
	ProficiencyLevel string `json:"proficiency_level,omitempty" yaml:"proficiency_level,omitempty"`
}

// IsZero reports whether no attribute is set.
func (a NodeAttributes) IsZero() bool {
	return a == NodeAttributes{}
}

// RelationType categorizes a lexical relation between two lemmas.
type RelationType string

const (
	RelationSynonym RelationType = "synonym"
	RelationAntonym RelationType = "antonym"
)

// StrengthField returns the persisted name of the relation's strength
// field, e.g. "synonym_strength".
func (r RelationType) StrengthField() string {
	return string(r) + "_strength"
}

// Relation is one relation-type sub-record on an edge.
type Relation struct {
	Strength               float64 `json:"strength" yaml:"strength"`
	MutualSense            string  `json:"mutual_sense,omitempty" yaml:"mutual_sense,omitempty"`
	MutualSenseReading     string  `json:"mutual_sense_reading,omitempty" yaml:"mutual_sense_reading,omitempty"`
	MutualSenseTranslation string  `json:"mutual_sense_translation,omitempty" yaml:"mutual_sense_translation,omitempty"`
	Domain                 string  `json:"domain,omitempty" yaml:"domain,omitempty"`
	DomainReading          string  `json:"domain_reading,omitempty" yaml:"domain_reading,omitempty"`
	DomainTranslation      string  `json:"domain_translation,omitempty" yaml:"domain_translation,omitempty"`
	Explanation            string  `json:"explanation,omitempty" yaml:"explanation,omitempty"`
}

// Edge is the single undirected edge between two lemmas. Source sorts
// before Target; all relation types between the pair live in Relations.
type Edge struct {
	Source    string                    `json:"source" yaml:"source"`
	Target    string                    `json:"target" yaml:"target"`
	Weight    float64                   `json:"weight" yaml:"weight"`
	Primary   RelationType              `json:"primary,omitempty" yaml:"primary,omitempty"`
	Relations map[RelationType]Relation `json:"relations,omitempty" yaml:"relations,omitempty"`
}

// Other returns the endpoint opposite lemma.
func (e Edge) Other(lemma string) string {
	if e.Source == lemma {
		return e.Target
	}
	return e.Source
}

// Has reports whether the edge carries a relation of type rel.
func (e Edge) Has(rel RelationType) bool {
	_, ok := e.Relations[rel]
	return ok
}

// Clone returns a deep copy of the edge.
func (e Edge) Clone() Edge {
	c := e
	if e.Relations != nil {
		c.Relations = make(map[RelationType]Relation, len(e.Relations))
		for k, v := range e.Relations {
			c.Relations[k] = v
		}
	}
	return c
}

// PairKey orders two lemmas canonically.
func PairKey(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

// Attribute selects the node field compared by a search.
type Attribute string

const (
	AttrLemma            Attribute = "lemma"
	AttrReading          Attribute = "reading"
	AttrPartOfSpeech     Attribute = "part_of_speech"
	AttrTranslation      Attribute = "translation"
	AttrProficiencyLevel Attribute = "proficiency_level"
)

// Attributes lists every searchable attribute.
var Attributes = []Attribute{AttrLemma, AttrReading, AttrPartOfSpeech, AttrTranslation, AttrProficiencyLevel}

// attributeAliases accepts the legacy field names still used by older
// clients and snapshots.
var attributeAliases = map[string]Attribute{
	"kanji":    AttrLemma,
	"hiragana": AttrReading,
	"pos":      AttrPartOfSpeech,
	"POS":      AttrPartOfSpeech,
	"jlpt":     AttrProficiencyLevel,
	"JLPT":     AttrProficiencyLevel,
}

// ParseAttribute maps a name to an Attribute. The empty string selects
// AttrLemma.
func ParseAttribute(s string) (Attribute, error) {
	if s == "" {
		return AttrLemma, nil
	}
	for _, a := range Attributes {
		if string(a) == s {
			return a, nil
		}
	}
	if a, ok := attributeAliases[s]; ok {
		return a, nil
	}
	return "", fmt.Errorf("unknown attribute %q", s)
}

// Value returns the node's value for attribute a.
func (n Node) Value(a Attribute) string {
	switch a {
	case AttrLemma:
		return n.Lemma
	case AttrReading:
		return n.Reading
	case AttrPartOfSpeech:
		return n.PartOfSpeech
	case AttrTranslation:
		return n.Translation
	case AttrProficiencyLevel:
		return n.ProficiencyLevel
	}
	return ""
}
