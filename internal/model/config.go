package model

import (
	"fmt"
	"time"
)

// Config holds the complete litscreen configuration
type Config struct {
	LLM          LLMConfig          `yaml:"llm" mapstructure:"llm"`
	Embedding    EmbeddingConfig    `yaml:"embedding" mapstructure:"embedding"`
	Retry        RetryConfig        `yaml:"retry" mapstructure:"retry"`
	Breaker      BreakerConfig      `yaml:"breaker" mapstructure:"breaker"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Prompt       PromptFiles        `yaml:"prompt" mapstructure:"prompt"`
	Dataset      DatasetConfig      `yaml:"dataset" mapstructure:"dataset"`
	Run          RunConfig          `yaml:"run" mapstructure:"run"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Store        StoreConfig        `yaml:"store" mapstructure:"store"`
	Scrape       ScrapeConfig       `yaml:"scrape" mapstructure:"scrape"`
}

// LLMConfig configures the completion service
type LLMConfig struct {
	Provider    string        `yaml:"provider" mapstructure:"provider"` // openai
	Model       string        `yaml:"model" mapstructure:"model"`
	APIKey      string        `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL     string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Temperature float32       `yaml:"temperature" mapstructure:"temperature"`
	MaxTokens   int           `yaml:"max_tokens" mapstructure:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// EmbeddingConfig configures the embedding service
type EmbeddingConfig struct {
	Provider   string `yaml:"provider" mapstructure:"provider"` // openai, ollama
	Model      string `yaml:"model" mapstructure:"model"`
	BaseURL    string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Dimensions int    `yaml:"dimensions" mapstructure:"dimensions"`
	Workers    int    `yaml:"workers" mapstructure:"workers"`
}

// RetryConfig is the backoff policy around completion and embedding calls
type RetryConfig struct {
	MaxRetries   int           `yaml:"max_retries" mapstructure:"max_retries"`
	InitialDelay time.Duration `yaml:"initial_delay" mapstructure:"initial_delay"`
	Multiplier   float64       `yaml:"multiplier" mapstructure:"multiplier"`
	MaxDelay     time.Duration `yaml:"max_delay" mapstructure:"max_delay"`
	Jitter       bool          `yaml:"jitter" mapstructure:"jitter"`
}

// BreakerConfig configures the circuit breaker in front of the completion service
type BreakerConfig struct {
	Enabled          bool          `yaml:"enabled" mapstructure:"enabled"`
	MaxRequests      uint32        `yaml:"max_requests" mapstructure:"max_requests"`
	Interval         time.Duration `yaml:"interval" mapstructure:"interval"`
	Timeout          time.Duration `yaml:"timeout" mapstructure:"timeout"`
	FailureThreshold float64       `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	MinRequests      uint32        `yaml:"min_requests" mapstructure:"min_requests"`
}

// RateLimitingConfig paces requests to external services
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// PromptFiles points at the text blocks prompts are assembled from
type PromptFiles struct {
	System        string `yaml:"system" mapstructure:"system"`
	Definition    string `yaml:"definition" mapstructure:"definition"`
	Question      string `yaml:"question" mapstructure:"question"`
	CoT           string `yaml:"cot" mapstructure:"cot"`
	NonCoT        string `yaml:"noncot" mapstructure:"noncot"`
	SubQuestion   string `yaml:"subquestion" mapstructure:"subquestion"`
	Justification string `yaml:"justification" mapstructure:"justification"`
}

// DatasetConfig maps tabular column names to exemplar fields
type DatasetConfig struct {
	IDColumn          string `yaml:"id_column" mapstructure:"id_column"`
	ReviewPaperColumn string `yaml:"review_paper_column" mapstructure:"review_paper_column"`
	ReviewColumn      string `yaml:"review_column" mapstructure:"review_column"`
	TextColumn        string `yaml:"text_column" mapstructure:"text_column"`
	ExplanationColumn string `yaml:"explanation_column" mapstructure:"explanation_column"`
}

// RunConfig controls cross-validated prompting runs
type RunConfig struct {
	Folds         int           `yaml:"folds" mapstructure:"folds"`
	Seed          uint64        `yaml:"seed" mapstructure:"seed"`
	DataDir       string        `yaml:"data_dir" mapstructure:"data_dir"`
	OutputDir     string        `yaml:"output_dir" mapstructure:"output_dir"`
	Cooldown      time.Duration `yaml:"cooldown" mapstructure:"cooldown"` // Pause after a failed completion
	ParallelFolds int           `yaml:"parallel_folds" mapstructure:"parallel_folds"`
}

// CacheConfig configures the embedding and page cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// StoreConfig configures the SQLite prediction store
type StoreConfig struct {
	Path string `yaml:"path" mapstructure:"path"` // Empty disables the store
}

// ScrapeConfig configures the PubMed scraper
type ScrapeConfig struct {
	BaseURL       string        `yaml:"base_url" mapstructure:"base_url"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	PageDelay     time.Duration `yaml:"page_delay" mapstructure:"page_delay"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
}

// DefaultConfig returns the configuration used when nothing overrides it
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       string(ModelGPT35Turbo16),
			Temperature: 0,
			MaxTokens:   1000,
			Timeout:     2 * time.Minute,
		},
		Embedding: EmbeddingConfig{
			Provider:   "openai",
			Model:      "text-embedding-ada-002",
			Dimensions: 1536,
			Workers:    4,
		},
		Retry: RetryConfig{
			MaxRetries:   10,
			InitialDelay: time.Second,
			Multiplier:   2,
			MaxDelay:     5 * time.Minute,
			Jitter:       true,
		},
		Breaker: BreakerConfig{
			Enabled:          true,
			MaxRequests:      1,
			Interval:         time.Minute,
			Timeout:          2 * time.Minute,
			FailureThreshold: 0.6,
			MinRequests:      5,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 1,
			BurstSize:         1,
		},
		Prompt: PromptFiles{
			System:        "./model/input/system.txt",
			Definition:    "./model/input/definitions.txt",
			Question:      "./model/input/Q2.txt",
			CoT:           "./model/input/cot_prompt.txt",
			NonCoT:        "./model/input/noncot_prompt.txt",
			SubQuestion:   "./model/input/subquestion_prompt.txt",
			Justification: "./data_preparation/input/justification_prompt.txt",
		},
		Dataset: DatasetConfig{
			IDColumn:          "PMID",
			ReviewPaperColumn: "Review_Paper",
			ReviewColumn:      "Review",
			TextColumn:        "Combined",
			ExplanationColumn: "Generated_justification",
		},
		Run: RunConfig{
			Folds:         5,
			Seed:          123,
			DataDir:       "./data_preparation/output/datasets/Nipah/cross_validation_datasets/general",
			OutputDir:     "./model/output/Nipah/cross_validation_output",
			Cooldown:      time.Minute,
			ParallelFolds: 1,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".litscreen-cache",
			MemoryTTL: time.Hour,
			DiskTTL:   30 * 24 * time.Hour,
		},
		Scrape: ScrapeConfig{
			BaseURL:       "https://pubmed.ncbi.nlm.nih.gov",
			UserAgent:     "litscreen/0.1 (+https://github.com/ppiankov/litscreen)",
			Timeout:       30 * time.Second,
			MaxBodyBytes:  4_000_000,
			PageDelay:     2 * time.Second,
			RespectRobots: true,
		},
	}
}

// FoldColumn names the answer column for one fold
func FoldColumn(answerCol string, fold int) string {
	return fmt.Sprintf("%s_%d", answerCol, fold)
}
