package types

import "time"

// GraphConfig locates the working data for the network.
type GraphConfig struct {
	// DataDir is the base directory (contains snapshots/, history.db).
	DataDir string `json:"data_dir" yaml:"data_dir"`
}

// SnapshotConfig holds settings for snapshot persistence.
type SnapshotConfig struct {
	// Dir is the snapshot directory (default <data_dir>/snapshots).
	Dir string `json:"dir" yaml:"dir"`

	// Prefix is the snapshot filename prefix (default "lexgraph").
	Prefix string `json:"prefix" yaml:"prefix"`

	// CheckpointEvery saves after this many applied batches (default 10).
	CheckpointEvery int `json:"checkpoint_every" yaml:"checkpoint_every"`

	// CheckpointInterval additionally saves on a timer when non-zero.
	CheckpointInterval time.Duration `json:"checkpoint_interval" yaml:"checkpoint_interval"`
}

// SearchConfig holds settings for graph traversal.
type SearchConfig struct {
	// MaxDepth bounds the traversal depth accepted by search (default 3).
	MaxDepth int `json:"max_depth" yaml:"max_depth"`

	// NeighborLimit caps ranked neighbour lists (default 20).
	NeighborLimit int `json:"neighbor_limit" yaml:"neighbor_limit"`
}

// AIProvider identifies the generation transport.
type AIProvider string

const (
	ProviderClaude AIProvider = "claude"
	ProviderOpenAI AIProvider = "openai"
)

// AIConfig holds shared settings for calling a Generative AI API.
type AIConfig struct {
	// Provider selects the transport: claude or openai.
	Provider AIProvider `json:"provider" yaml:"provider"`

	// Model is the AI model identifier (e.g. "claude-sonnet-4-5-20250929").
	Model string `json:"model" yaml:"model"`

	// FallbackModels are tried in order when Model fails.
	FallbackModels []string `json:"fallback_models,omitempty" yaml:"fallback_models,omitempty"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// BaseURL overrides the API endpoint for OpenAI-compatible providers.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty"`

	// MaxRetries is the number of retry attempts for failed API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// Timeout bounds a single API call.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// GenerationConfig holds settings for relation generation.
type GenerationConfig struct {
	AIConfig `yaml:",inline"`

	// MinSynonyms and MinAntonyms are requested from the model (15 and 5).
	MinSynonyms int `json:"min_synonyms" yaml:"min_synonyms"`
	MinAntonyms int `json:"min_antonyms" yaml:"min_antonyms"`

	// ContextNeighbors caps the neighbours included in the prompt (default 10).
	ContextNeighbors int `json:"context_neighbors" yaml:"context_neighbors"`

	// Concurrency bounds parallel generation across terms (default 2).
	Concurrency int `json:"concurrency" yaml:"concurrency"`
}

// HistoryConfig holds settings for the generation history database.
type HistoryConfig struct {
	// Path is the SQLite file (default <data_dir>/history.db).
	Path string `json:"path" yaml:"path"`
}

// Neo4jConfig holds connection settings for graph export.
type Neo4jConfig struct {
	URI       string `json:"uri" yaml:"uri"`
	Username  string `json:"username" yaml:"username"`
	Password  string `json:"password,omitempty" yaml:"password,omitempty"`
	Database  string `json:"database,omitempty" yaml:"database,omitempty"`
	BatchSize int    `json:"batch_size" yaml:"batch_size"`
}

// MetricsConfig holds settings for metrics output.
type MetricsConfig struct {
	// TextfilePath writes metrics in node-exporter textfile format on exit.
	TextfilePath string `json:"textfile_path,omitempty" yaml:"textfile_path,omitempty"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level       string `json:"level" yaml:"level"`
	Development bool   `json:"development" yaml:"development"`
}

// Config groups all component configurations.
type Config struct {
	Graph      GraphConfig      `json:"graph" yaml:"graph"`
	Snapshot   SnapshotConfig   `json:"snapshot" yaml:"snapshot"`
	Search     SearchConfig     `json:"search" yaml:"search"`
	Generation GenerationConfig `json:"generation" yaml:"generation"`
	History    HistoryConfig    `json:"history" yaml:"history"`
	Neo4j      Neo4jConfig      `json:"neo4j" yaml:"neo4j"`
	Metrics    MetricsConfig    `json:"metrics" yaml:"metrics"`
	Log        LogConfig        `json:"log" yaml:"log"`
}
