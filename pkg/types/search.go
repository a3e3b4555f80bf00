// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// SearchQuery selects seed lemmas by attribute and expands them.
type SearchQuery struct {
	Term      string    `json:"term" yaml:"term"`
	Attribute Attribute `json:"attribute" yaml:"attribute"`
	Depth     int       `json:"depth" yaml:"depth"`
	Exact     bool      `json:"exact" yaml:"exact"`
}

// SubgraphNode is a node admitted by a traversal. Match is true for
// direct query matches; Hop is the node's distance from the seed set.
type SubgraphNode struct {
	Node
	Match bool `json:"match" yaml:"match"`
	Hop   int  `json:"hop" yaml:"hop"`
}

// Subgraph is the induced subgraph over the admitted nodes.
type Subgraph struct {
	Nodes []SubgraphNode `json:"nodes" yaml:"nodes"`
	Edges []Edge         `json:"edges" yaml:"edges"`
}

// IsEmpty reports whether the subgraph has no nodes.
func (s Subgraph) IsEmpty() bool {
	return len(s.Nodes) == 0
}

// Neighbor is an adjacent node together with the connecting edge.
type Neighbor struct {
	Node Node `json:"node" yaml:"node"`
	Edge Edge `json:"edge" yaml:"edge"`
}
