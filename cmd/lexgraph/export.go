// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/lexical-graph/internal/neo4jexport"
	"github.com/pdiddy/lexical-graph/internal/snapshot"
	"github.com/pdiddy/lexical-graph/pkg/types"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the graph as JSON, YAML, or into Neo4j",
	Long: `Export writes the whole graph. The json format is the snapshot
document; yaml lists nodes and edges with their relations; neo4j merges the
graph into the database configured under neo4j.* (password from
.secrets/neo4j-password or NEO4J_PASSWORD).`,
	RunE: runExport,
}

type graphExport struct {
	Nodes []types.Node `yaml:"nodes"`
	Edges []types.Edge `yaml:"edges"`
}

func runExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	out, _ := cmd.Flags().GetString("out")

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx := context.Background()
	store, err := a.loadStore(ctx)
	if err != nil {
		return err
	}

	if format == "neo4j" {
		exp, err := neo4jexport.Connect(ctx, a.cfg.Neo4j, a.log)
		if err != nil {
			return err
		}
		defer exp.Close(ctx)
		sum, err := exp.Export(ctx, store)
		if err != nil {
			return err
		}
		fmt.Printf("Exported %d nodes and %d edges to %s\n", sum.Nodes, sum.Edges, a.cfg.Neo4j.URI)
		return nil
	}

	var w io.Writer = os.Stdout
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	nodes, edges := store.Export()
	switch format {
	case "json", "":
		err = snapshot.Encode(w, snapshot.NewDocument(nodes, edges, time.Now()))
	case "yaml":
		var data []byte
		data, err = yaml.Marshal(graphExport{Nodes: nodes, Edges: edges})
		if err == nil {
			_, err = w.Write(data)
		}
	default:
		return fmt.Errorf("unsupported format %q: use json, yaml, or neo4j", format)
	}
	if err != nil {
		return err
	}
	if out != "" {
		fmt.Fprintf(os.Stderr, "Exported to %s\n", out)
	}
	return nil
}

func init() {
	exportCmd.Flags().String("format", "json", "export format: json, yaml, or neo4j")
	exportCmd.Flags().String("out", "", "output file (default: stdout; ignored for neo4j)")

	rootCmd.AddCommand(exportCmd)
}
