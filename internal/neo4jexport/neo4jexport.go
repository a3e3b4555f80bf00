// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package neo4jexport copies the graph into a Neo4j database. Lexemes
// become :Lexeme nodes keyed by lemma and every edge becomes one :RELATED
// relationship from the lower to the higher lemma, with each relation
// type's fields flattened into prefixed properties.
package neo4jexport

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/pdiddy/lexical-graph/internal/graph"
	"github.com/pdiddy/lexical-graph/internal/logger"
	"github.com/pdiddy/lexical-graph/pkg/types"
)

const defaultBatchSize = 500

const (
	constraintQuery = `CREATE CONSTRAINT lexeme_lemma IF NOT EXISTS FOR (n:Lexeme) REQUIRE n.lemma IS UNIQUE`

	nodeQuery = `UNWIND $rows AS row
MERGE (n:Lexeme {lemma: row.lemma})
SET n += row.props`

	edgeQuery = `UNWIND $rows AS row
MATCH (a:Lexeme {lemma: row.source}), (b:Lexeme {lemma: row.target})
MERGE (a)-[r:RELATED]->(b)
SET r = row.props`
)

// writer runs one write query in its own transaction.
type writer interface {
	write(ctx context.Context, query string, params map[string]any) error
}

// Summary counts what an export wrote.
type Summary struct {
	Nodes   int `json:"nodes" yaml:"nodes"`
	Edges   int `json:"edges" yaml:"edges"`
	Batches int `json:"batches" yaml:"batches"`
}

// Exporter writes graph snapshots to Neo4j.
type Exporter struct {
	w         writer
	batchSize int
	log       *zap.Logger
	close     func(context.Context) error
}

// Connect opens a driver for cfg and verifies the server is reachable.
func Connect(ctx context.Context, cfg types.Neo4jConfig, log *zap.Logger) (*Exporter, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("neo4j uri is empty")
	}
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("creating neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("connecting to %s: %w", cfg.URI, err)
	}
	e := newExporter(&driverWriter{driver: driver, database: cfg.Database}, cfg.BatchSize, log)
	e.close = driver.Close
	return e, nil
}

func newExporter(w writer, batchSize int, log *zap.Logger) *Exporter {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Exporter{w: w, batchSize: batchSize, log: logger.OrNop(log)}
}

// Close releases the driver.
func (e *Exporter) Close(ctx context.Context) error {
	if e.close == nil {
		return nil
	}
	return e.close(ctx)
}

// Export merges every node and edge of store into the database. Existing
// lexemes keep properties the graph does not set; relationship properties
// are replaced.
func (e *Exporter) Export(ctx context.Context, store *graph.Store) (Summary, error) {
	nodes, edges := store.Export()
	var sum Summary

	if err := e.w.write(ctx, constraintQuery, nil); err != nil {
		return sum, fmt.Errorf("creating constraint: %w", err)
	}

	nodeRows := NodeRows(nodes)
	for start := 0; start < len(nodeRows); start += e.batchSize {
		end := min(start+e.batchSize, len(nodeRows))
		if err := e.w.write(ctx, nodeQuery, map[string]any{"rows": nodeRows[start:end]}); err != nil {
			return sum, fmt.Errorf("writing nodes %d-%d: %w", start, end, err)
		}
		sum.Nodes += end - start
		sum.Batches++
	}

	edgeRows := EdgeRows(edges)
	for start := 0; start < len(edgeRows); start += e.batchSize {
		end := min(start+e.batchSize, len(edgeRows))
		if err := e.w.write(ctx, edgeQuery, map[string]any{"rows": edgeRows[start:end]}); err != nil {
			return sum, fmt.Errorf("writing edges %d-%d: %w", start, end, err)
		}
		sum.Edges += end - start
		sum.Batches++
	}

	e.log.Info("exported to neo4j",
		zap.Int("nodes", sum.Nodes),
		zap.Int("edges", sum.Edges),
		zap.Int("batches", sum.Batches),
	)
	return sum, nil
}

// NodeRows converts nodes to query parameters. Empty attributes are
// omitted so a merge never blanks an existing property.
func NodeRows(nodes []types.Node) []any {
	rows := make([]any, len(nodes))
	for i, n := range nodes {
		props := map[string]any{}
		for _, a := range types.Attributes {
			if a == types.AttrLemma {
				continue
			}
			if v := n.Value(a); v != "" {
				props[string(a)] = v
			}
		}
		rows[i] = map[string]any{"lemma": n.Lemma, "props": props}
	}
	return rows
}

// EdgeRows converts edges to query parameters. Relation fields are
// flattened with the relation type as prefix, e.g. synonym_strength and
// antonym_domain.
func EdgeRows(edges []types.Edge) []any {
	rows := make([]any, len(edges))
	for i, e := range edges {
		props := map[string]any{"weight": e.Weight}
		if e.Primary != "" {
			props["primary"] = string(e.Primary)
		}
		for rel, r := range e.Relations {
			p := string(rel) + "_"
			props[rel.StrengthField()] = r.Strength
			for k, v := range map[string]string{
				"mutual_sense":             r.MutualSense,
				"mutual_sense_reading":     r.MutualSenseReading,
				"mutual_sense_translation": r.MutualSenseTranslation,
				"domain":                   r.Domain,
				"domain_reading":           r.DomainReading,
				"domain_translation":       r.DomainTranslation,
				"explanation":              r.Explanation,
			} {
				if v != "" {
					props[p+k] = v
				}
			}
		}
		rows[i] = map[string]any{"source": e.Source, "target": e.Target, "props": props}
	}
	return rows
}

type driverWriter struct {
	driver   neo4j.DriverWithContext
	database string
}

func (d *driverWriter) write(ctx context.Context, query string, params map[string]any) error {
	session := d.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: d.database,
	})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, query, params)
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})
	return err
}
