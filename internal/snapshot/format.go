// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package snapshot

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/lexical-graph/pkg/types"
)

// Format identifies the snapshot layout written by this package.
const Format = "lexgraph/v1"

// Document is the on-disk form of a full graph.
type Document struct {
	Format    string                `json:"format"`
	CreatedAt time.Time             `json:"created_at"`
	Nodes     map[string]nodeRecord `json:"nodes"`
	Edges     []edgeRecord          `json:"edges"`
}

// NewDocument builds a document from exported graph data.
func NewDocument(nodes []types.Node, edges []types.Edge, createdAt time.Time) Document {
	d := Document{
		Format:    Format,
		CreatedAt: createdAt.UTC(),
		Nodes:     make(map[string]nodeRecord, len(nodes)),
		Edges:     make([]edgeRecord, 0, len(edges)),
	}
	for _, n := range nodes {
		d.Nodes[n.Lemma] = nodeRecord(n)
	}
	for _, e := range edges {
		d.Edges = append(d.Edges, edgeRecord(e))
	}
	return d
}

// Graph returns the nodes and edges of the document. Node lemmas come from
// the map keys.
func (d Document) Graph() ([]types.Node, []types.Edge) {
	nodes := make([]types.Node, 0, len(d.Nodes))
	for lemma, r := range d.Nodes {
		n := types.Node(r)
		n.Lemma = lemma
		nodes = append(nodes, n)
	}
	edges := make([]types.Edge, 0, len(d.Edges))
	for _, r := range d.Edges {
		edges = append(edges, types.Edge(r))
	}
	return nodes, edges
}

// Encode writes d as JSON.
func Encode(w io.Writer, d Document) error {
	return json.NewEncoder(w).Encode(d)
}

// Decode reads a document, repairing legacy attribute names.
func Decode(r io.Reader) (Document, error) {
	var d Document
	dec := json.NewDecoder(r)
	if err := dec.Decode(&d); err != nil {
		return Document{}, err
	}
	if d.Format != "" && !strings.HasPrefix(d.Format, "lexgraph/") {
		return Document{}, fmt.Errorf("unsupported snapshot format %q", d.Format)
	}
	return d, nil
}

type nodeRecord types.Node

func (r nodeRecord) MarshalJSON() ([]byte, error) {
	m := map[string]any{}
	put(m, "reading", r.Reading)
	put(m, "part_of_speech", r.PartOfSpeech)
	put(m, "translation", r.Translation)
	put(m, "proficiency_level", r.ProficiencyLevel)
	return json.Marshal(m)
}

func (r *nodeRecord) UnmarshalJSON(b []byte) error {
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	*r = nodeRecord{
		Lemma:            pick(m, "lemma"),
		Reading:          pick(m, "reading", "hiragana"),
		PartOfSpeech:     pick(m, "part_of_speech", "POS", "pos"),
		Translation:      pick(m, "translation"),
		ProficiencyLevel: pick(m, "proficiency_level", "JLPT", "jlpt"),
	}
	return nil
}

type edgeRecord types.Edge

var relationTypes = []types.RelationType{types.RelationSynonym, types.RelationAntonym}

func (r edgeRecord) MarshalJSON() ([]byte, error) {
	m := map[string]any{
		"source": r.Source,
		"target": r.Target,
		"weight": r.Weight,
	}
	for rel, x := range r.Relations {
		f := map[string]any{rel.StrengthField(): x.Strength}
		put(f, "mutual_sense", x.MutualSense)
		put(f, "mutual_sense_reading", x.MutualSenseReading)
		put(f, "mutual_sense_translation", x.MutualSenseTranslation)
		put(f, "domain", x.Domain)
		put(f, "domain_reading", x.DomainReading)
		put(f, "domain_translation", x.DomainTranslation)
		put(f, "explanation", x.Explanation)
		m[string(rel)] = f
	}
	return json.Marshal(m)
}

func (r *edgeRecord) UnmarshalJSON(b []byte) error {
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	e := edgeRecord{
		Source: pick(m, "source"),
		Target: pick(m, "target"),
		Weight: number(m["weight"]),
	}
	for _, rel := range relationTypes {
		sub, ok := m[string(rel)].(map[string]any)
		if !ok {
			// Older records carried a single relation at the top level.
			if _, flat := strengthValue(m, rel, false); !flat {
				continue
			}
			sub = m
		}
		x := relation(sub, rel, ok)
		if e.Relations == nil {
			e.Relations = make(map[types.RelationType]types.Relation)
		}
		e.Relations[rel] = x
	}
	*r = e
	return nil
}

// relation reads one relation sub-record, accepting the legacy names
// written by earlier generators. A missing strength is NaN so the
// normalizer repairs and counts it.
func relation(m map[string]any, rel types.RelationType, nested bool) types.Relation {
	s, _ := strengthValue(m, rel, nested)
	ry := string(rel) + "y"
	return types.Relation{
		Strength:               s,
		MutualSense:            pick(m, "mutual_sense"),
		MutualSenseReading:     pick(m, "mutual_sense_reading", "mutual_sense_hiragana"),
		MutualSenseTranslation: pick(m, "mutual_sense_translation"),
		Domain:                 pick(m, "domain", ry+"_domain"),
		DomainReading:          pick(m, "domain_reading", ry+"_domain_reading", ry+"_domain_hiragana"),
		DomainTranslation:      pick(m, "domain_translation", ry+"_domain_translation"),
		Explanation:            pick(m, "explanation", string(rel)+"_explanation", ry+"_explanation"),
	}
}

// strengthValue looks up the strength of rel. The bare "strength" key is
// only meaningful inside a relation sub-record.
func strengthValue(m map[string]any, rel types.RelationType, nested bool) (float64, bool) {
	keys := []string{rel.StrengthField(), string(rel) + "_strenght"}
	if nested {
		keys = append(keys, "strength")
	}
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return number(v), true
		}
	}
	return math.NaN(), false
}

// number converts a JSON number or numeric string. Anything else is NaN.
func number(v any) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(x), 64); err == nil {
			return f
		}
	}
	return math.NaN()
}

// pick returns the first non-empty value among keys. Numbers are
// formatted, and a legacy translation object yields its target lemma.
func pick(m map[string]any, keys ...string) string {
	for _, k := range keys {
		var s string
		switch v := m[k].(type) {
		case string:
			s = v
		case float64:
			s = strconv.FormatFloat(v, 'f', -1, 64)
		case map[string]any:
			s, _ = v["target_lemma"].(string)
		}
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}

func put(m map[string]any, k, v string) {
	if v != "" {
		m[k] = v
	}
}
