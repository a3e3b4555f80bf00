// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package importer fills node attributes from external vocabulary lists in
// CSV or YAML form. Imported values only fill attributes that are empty;
// they never replace what the graph already holds.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/lexical-graph/internal/graph"
	"github.com/pdiddy/lexical-graph/internal/logger"
	"github.com/pdiddy/lexical-graph/internal/reading"
	"github.com/pdiddy/lexical-graph/pkg/types"
)

// ErrNoLemmaColumn is returned when a CSV header has no lemma column.
var ErrNoLemmaColumn = errors.New("no lemma column in header")

// Row is one vocabulary record. Line is the 1-based source line for CSV
// input and the 1-based list position for YAML.
type Row struct {
	types.Node
	Line int
}

// Options controls Apply.
type Options struct {
	// Create adds lemmas that are not yet in the graph.
	Create bool
}

// Summary counts the outcome of Apply.
type Summary struct {
	Rows      int `json:"rows" yaml:"rows"`
	Created   int `json:"created" yaml:"created"`
	Updated   int `json:"updated" yaml:"updated"`
	Unchanged int `json:"unchanged" yaml:"unchanged"`
	Missing   int `json:"missing" yaml:"missing"`
	Invalid   int `json:"invalid" yaml:"invalid"`
}

// Read decodes rows from r, choosing the format from the file name
// extension: .yaml and .yml are YAML, anything else is CSV.
func Read(r io.Reader, name string) ([]Row, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return ReadYAML(r)
	default:
		return ReadCSV(r)
	}
}

// ReadCSV decodes a CSV file with a header row. Columns are matched by
// attribute name, including legacy names such as kanji, hiragana and JLPT;
// unknown columns are ignored.
func ReadCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	cols := make(map[types.Attribute]int)
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if h == "" {
			continue
		}
		a, err := types.ParseAttribute(h)
		if err != nil {
			continue
		}
		if _, dup := cols[a]; !dup {
			cols[a] = i
		}
	}
	if _, ok := cols[types.AttrLemma]; !ok {
		return nil, ErrNoLemmaColumn
	}

	var rows []Row
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv: %w", err)
		}
		line, _ := cr.FieldPos(0)
		row := Row{Line: line}
		for a, i := range cols {
			if i < len(rec) {
				setAttr(&row.Node, a, rec[i])
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ReadYAML decodes a YAML list of nodes.
func ReadYAML(r io.Reader) ([]Row, error) {
	var nodes []types.Node
	if err := yaml.NewDecoder(r).Decode(&nodes); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decoding yaml: %w", err)
	}
	rows := make([]Row, len(nodes))
	for i, n := range nodes {
		rows[i] = Row{Line: i + 1}
		for _, a := range types.Attributes {
			setAttr(&rows[i].Node, a, n.Value(a))
		}
	}
	return rows, nil
}

func setAttr(n *types.Node, a types.Attribute, v string) {
	v = strings.TrimSpace(v)
	switch a {
	case types.AttrLemma:
		n.Lemma = v
	case types.AttrReading:
		n.Reading = reading.ToHiragana(v)
	case types.AttrPartOfSpeech:
		n.PartOfSpeech = v
	case types.AttrTranslation:
		n.Translation = v
	case types.AttrProficiencyLevel:
		n.ProficiencyLevel = v
	}
}

// Apply merges rows into store as one batch. For an existing lemma only
// empty attributes are filled. Unknown lemmas are created when
// opts.Create is set and counted as missing otherwise. Rows with an empty
// lemma are counted as invalid.
func Apply(store *graph.Store, rows []Row, opts Options, log *zap.Logger) (Summary, error) {
	log = logger.OrNop(log)
	sum := Summary{Rows: len(rows)}

	err := store.Update(func(tx *graph.Tx) error {
		for _, row := range rows {
			if row.Lemma == "" {
				sum.Invalid++
				log.Debug("row without lemma", zap.Int("line", row.Line))
				continue
			}

			attrs := row.Attributes()
			if cur, ok := tx.Node(row.Lemma); ok {
				attrs = fillOnly(cur, attrs)
			} else if !opts.Create {
				sum.Missing++
				log.Debug("lemma not in graph", zap.String("lemma", row.Lemma), zap.Int("line", row.Line))
				continue
			}

			c, err := tx.UpsertNode(row.Lemma, attrs)
			if err != nil {
				return fmt.Errorf("line %d: %w", row.Line, err)
			}
			switch c {
			case graph.Created:
				sum.Created++
			case graph.Updated:
				sum.Updated++
			default:
				sum.Unchanged++
			}
		}
		return nil
	})
	if err != nil {
		return Summary{}, err
	}

	log.Info("imported attributes",
		zap.Int("rows", sum.Rows),
		zap.Int("created", sum.Created),
		zap.Int("updated", sum.Updated),
		zap.Int("missing", sum.Missing),
		zap.Int("invalid", sum.Invalid),
	)
	return sum, nil
}

// fillOnly drops every attribute the node already has.
func fillOnly(n types.Node, a types.NodeAttributes) types.NodeAttributes {
	if n.Reading != "" {
		a.Reading = ""
	}
	if n.PartOfSpeech != "" {
		a.PartOfSpeech = ""
	}
	if n.Translation != "" {
		a.Translation = ""
	}
	if n.ProficiencyLevel != "" {
		a.ProficiencyLevel = ""
	}
	return a
}
