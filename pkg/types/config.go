// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "clout-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// ScrapeConfig holds settings for page fetching.
type ScrapeConfig struct {
	HTTPConfig `yaml:",inline"`

	// Delay is the politeness pause between consecutive competitor
	// fetches (default 1s).
	Delay time.Duration `json:"delay" yaml:"delay"`
}

// SearchConfig holds settings for the search provider.
type SearchConfig struct {
	HTTPConfig `yaml:",inline"`

	// APIKey authenticates against the search provider. Required.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxResults caps how many organic results are kept and scraped
	// (default 5). Bounds the downstream scraping cost.
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// ModelConfig holds settings for the local language-model server.
type ModelConfig struct {
	HTTPConfig `yaml:",inline"`

	// ModelPath is the GGUF model file passed to llama-server. Required
	// unless Endpoint points at an already-running server.
	ModelPath string `json:"model_path" yaml:"model_path"`

	// Endpoint is the base URL of a running llama-server. When empty the
	// pipeline launches its own server from ModelPath.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`

	// MaxTokens caps generation length per draft (default 700).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens"`

	// Temperature is the sampling temperature (default 0.35).
	Temperature float64 `json:"temperature" yaml:"temperature"`

	// ContextBudget is the maximum prompt size in bytes after assembly
	// (default 7000). The prompt is trimmed deterministically to fit.
	ContextBudget int `json:"context_budget" yaml:"context_budget"`
}

// OutputKind selects the persistence backend.
type OutputKind string

const (
	OutputXLSX   OutputKind = "xlsx"
	OutputSQLite OutputKind = "sqlite"
)

// OutputConfig holds settings for the tabular output sinks.
type OutputConfig struct {
	// Kind selects the backend: xlsx or sqlite.
	Kind OutputKind `json:"kind" yaml:"kind"`

	// Path is the workbook or database file (e.g. "clout_posts.xlsx").
	Path string `json:"path" yaml:"path"`
}

// PipelineConfig groups all stage configurations plus the seed list.
type PipelineConfig struct {
	// Seeds lists the seed URLs, processed sequentially in this order.
	Seeds []string `json:"seeds" yaml:"seeds"`

	Scrape ScrapeConfig `json:"scrape" yaml:"scrape"`
	Search SearchConfig `json:"search" yaml:"search"`
	Model  ModelConfig  `json:"model" yaml:"model"`
	Output OutputConfig `json:"output" yaml:"output"`
}
