// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "litsweep/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// RateLimit expresses a request budget as requests per Every.
type RateLimit struct {
	Requests int           `json:"requests" yaml:"requests" mapstructure:"requests"`
	Every    time.Duration `json:"every" yaml:"every" mapstructure:"every"`
}

// SearchConfig holds settings for the search stage.
type SearchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// MaxResults is the maximum number of results per source (default 500).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`

	// YearFrom and YearTo bound the publication year. Zero means unbounded.
	YearFrom int `json:"year_from" yaml:"year_from" mapstructure:"year_from"`
	YearTo   int `json:"year_to" yaml:"year_to" mapstructure:"year_to"`

	// Sources lists the backends to query.
	Sources []Source `json:"sources" yaml:"sources" mapstructure:"sources"`

	// OpenAlexEmail is sent as the mailto parameter for polite pool access.
	OpenAlexEmail string `json:"openalex_email,omitempty" yaml:"openalex_email,omitempty" mapstructure:"openalex_email"`

	// SemanticScholarAPIKey is an optional API key for higher rate limits.
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty" mapstructure:"semantic_scholar_api_key"`

	// RateLimits holds the request budget per source.
	RateLimits map[Source]RateLimit `json:"rate_limits" yaml:"rate_limits" mapstructure:"rate_limits"`
}

// DedupConfig holds settings for the deduplication stage.
type DedupConfig struct {
	// FuzzyThreshold is the minimum title similarity for a fuzzy match (default 0.85).
	FuzzyThreshold float64 `json:"fuzzy_threshold" yaml:"fuzzy_threshold" mapstructure:"fuzzy_threshold"`

	// Aggressive enables fuzzy title matching.
	Aggressive bool `json:"aggressive" yaml:"aggressive" mapstructure:"aggressive"`

	// DOIStage and CompositeStage toggle the exact matching stages.
	DOIStage       bool `json:"doi_stage" yaml:"doi_stage" mapstructure:"doi_stage"`
	CompositeStage bool `json:"composite_stage" yaml:"composite_stage" mapstructure:"composite_stage"`
}

// ScorerKind selects the semantic similarity backend.
type ScorerKind string

const (
	ScorerLexical ScorerKind = "lexical"
	ScorerOllama  ScorerKind = "ollama"
)

// RankConfig holds settings for the ranking stage.
type RankConfig struct {
	Scorer ScorerKind `json:"scorer" yaml:"scorer" mapstructure:"scorer"`

	// SemanticWeight blends semantic similarity with citation impact (default 0.7).
	SemanticWeight float64 `json:"semantic_weight" yaml:"semantic_weight" mapstructure:"semantic_weight"`

	// TopKPerSource keeps the best papers from each source (default 20).
	TopKPerSource int `json:"top_k_per_source" yaml:"top_k_per_source" mapstructure:"top_k_per_source"`

	OllamaURL   string `json:"ollama_url" yaml:"ollama_url" mapstructure:"ollama_url"`
	OllamaModel string `json:"ollama_model" yaml:"ollama_model" mapstructure:"ollama_model"`
}

// ExpandConfig holds settings for citation expansion.
type ExpandConfig struct {
	// MaxTotal caps the combined seed + expanded collection (default 100).
	MaxTotal int `json:"max_total" yaml:"max_total" mapstructure:"max_total"`

	// PerPaperLimit caps citing papers fetched per seed (default 20).
	PerPaperLimit int `json:"per_paper_limit" yaml:"per_paper_limit" mapstructure:"per_paper_limit"`

	// MaxSeeds caps the seeds expanded per source (default 20).
	MaxSeeds int `json:"max_seeds" yaml:"max_seeds" mapstructure:"max_seeds"`

	Sources []Source `json:"sources" yaml:"sources" mapstructure:"sources"`
}

// SessionConfig holds settings for the session index.
type SessionConfig struct {
	// ArtifactsDir holds sessions.db and per-stage JSON artifacts.
	ArtifactsDir string `json:"artifacts_dir" yaml:"artifacts_dir" mapstructure:"artifacts_dir"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	// Level is a zap level name: debug, info, warn, error.
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is "console" for development output or "json".
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// Config groups all stage configurations for the pipeline.
type Config struct {
	Search  SearchConfig  `json:"search" yaml:"search" mapstructure:"search"`
	Dedup   DedupConfig   `json:"dedup" yaml:"dedup" mapstructure:"dedup"`
	Rank    RankConfig    `json:"rank" yaml:"rank" mapstructure:"rank"`
	Expand  ExpandConfig  `json:"expand" yaml:"expand" mapstructure:"expand"`
	Session SessionConfig `json:"session" yaml:"session" mapstructure:"session"`
	Log     LogConfig     `json:"log" yaml:"log" mapstructure:"log"`
}
