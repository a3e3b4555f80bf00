// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// SkippedEntry records one relation entry dropped during validation.
type SkippedEntry struct {
	Relation RelationType `json:"relation" yaml:"relation"`
	Index    int          `json:"index" yaml:"index"`
	Lemma    string       `json:"lemma,omitempty" yaml:"lemma,omitempty"`
	Code     string       `json:"code" yaml:"code"`
	Reason   string       `json:"reason" yaml:"reason"`
}

// GenerationStatus is the outcome of one generation request.
type GenerationStatus string

const (
	StatusSuccess GenerationStatus = "success"
	StatusPartial GenerationStatus = "partial"
	StatusFailed  GenerationStatus = "failed"
)

// GenerationResult reports what one batch changed in the graph.
type GenerationResult struct {
	ID           string           `json:"id" yaml:"id"`
	Term         string           `json:"term" yaml:"term"`
	Model        string           `json:"model,omitempty" yaml:"model,omitempty"`
	Status       GenerationStatus `json:"status" yaml:"status"`
	NodesCreated int              `json:"nodes_created" yaml:"nodes_created"`
	NodesUpdated int              `json:"nodes_updated" yaml:"nodes_updated"`
	EdgesCreated int              `json:"edges_created" yaml:"edges_created"`
	EdgesUpdated int              `json:"edges_updated" yaml:"edges_updated"`
	Skipped      []SkippedEntry   `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Error        string           `json:"error,omitempty" yaml:"error,omitempty"`
	StartedAt    time.Time        `json:"started_at" yaml:"started_at"`
	Duration     time.Duration    `json:"duration" yaml:"duration"`
}

// Created returns the number of nodes and edges created.
func (r GenerationResult) Created() int {
	return r.NodesCreated + r.EdgesCreated
}

// Updated returns the number of nodes and edges updated in place.
func (r GenerationResult) Updated() int {
	return r.NodesUpdated + r.EdgesUpdated
}

// Failed reports whether the batch was rejected.
func (r GenerationResult) Failed() bool {
	return r.Status == StatusFailed
}

// GenerationSummary holds counts from a multi-term run.
type GenerationSummary struct {
	Generated int
	Skipped   int
	Failed    int
}

// Total returns the number of terms processed.
func (s GenerationSummary) Total() int {
	return s.Generated + s.Skipped + s.Failed
}

// HasFailures reports whether any term failed.
func (s GenerationSummary) HasFailures() bool {
	return s.Failed > 0
}
