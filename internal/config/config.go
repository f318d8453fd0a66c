package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Address string `yaml:"address"` // listen address, e.g. ":8080"
}

// DocumentsConfig holds the document storage settings.
type DocumentsConfig struct {
	Dir string `yaml:"dir"` // root directory for persisted documents
}

// OpenAIConfig holds the model provider settings.
type OpenAIConfig struct {
	APIKey          string `yaml:"apiKey"`          // falls back to OPENAI_API_KEY when empty
	BaseURL         string `yaml:"baseURL"`         // optional override for compatible endpoints
	CompletionModel string `yaml:"completionModel"` // model for answer synthesis
	ExpansionModel  string `yaml:"expansionModel"`  // model for query expansion
	EmbeddingModel  string `yaml:"embeddingModel"`  // model for embeddings
}

// MilvusConfig holds the vector index settings.
type MilvusConfig struct {
	Address    string `yaml:"address"`
	Collection string `yaml:"collection"`
	Dim        int    `yaml:"dim"` // embedding dimension of the collection
}

// MongoConfig holds the document record registry settings.
type MongoConfig struct {
	Address    string `yaml:"address"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

// RAGConfig holds the pipeline tuning knobs.
type RAGConfig struct {
	TopK                  int     `yaml:"topK"`
	NumExpansions         int     `yaml:"numExpansions"`
	Temperature           float32 `yaml:"temperature"`
	MaxConcurrentSearches int     `yaml:"maxConcurrentSearches"`
	SearchTimeout         string  `yaml:"searchTimeout"` // duration string, e.g. "15s"
	ExtractMaxRetries     int     `yaml:"extractMaxRetries"`
	ChunkSize             int     `yaml:"chunkSize"`
	ChunkOverlap          int     `yaml:"chunkOverlap"`
}

// SearchTimeoutDuration parses the per-search timeout.
func (c RAGConfig) SearchTimeoutDuration() (time.Duration, error) {
	return time.ParseDuration(c.SearchTimeout)
}

// Config is the root configuration for the service.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Documents DocumentsConfig `yaml:"documents"`
	OpenAI    OpenAIConfig    `yaml:"openai"`
	Milvus    MilvusConfig    `yaml:"milvus"`
	Mongo     MongoConfig     `yaml:"mongo"`
	RAG       RAGConfig       `yaml:"rag"`
}

// LoadConfig reads a yaml config file, applies defaults and resolves
// secrets from the environment.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	cfg.applyDefaults()

	if cfg.OpenAI.APIKey == "" {
		cfg.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.OpenAI.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is not set (config openai.apiKey or OPENAI_API_KEY)")
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Documents.Dir == "" {
		c.Documents.Dir = "./data/documents"
	}
	if c.OpenAI.CompletionModel == "" {
		c.OpenAI.CompletionModel = "gpt-4o-mini"
	}
	if c.OpenAI.ExpansionModel == "" {
		c.OpenAI.ExpansionModel = c.OpenAI.CompletionModel
	}
	if c.OpenAI.EmbeddingModel == "" {
		c.OpenAI.EmbeddingModel = "text-embedding-3-small"
	}
	if c.Milvus.Collection == "" {
		c.Milvus.Collection = "document_chunks"
	}
	if c.Milvus.Dim == 0 {
		c.Milvus.Dim = 1536
	}
	if c.Mongo.Database == "" {
		c.Mongo.Database = "docqa"
	}
	if c.Mongo.Collection == "" {
		c.Mongo.Collection = "documents"
	}
	if c.RAG.TopK == 0 {
		c.RAG.TopK = 3
	}
	if c.RAG.NumExpansions == 0 {
		c.RAG.NumExpansions = 3
	}
	if c.RAG.MaxConcurrentSearches == 0 {
		c.RAG.MaxConcurrentSearches = 4
	}
	if c.RAG.SearchTimeout == "" {
		c.RAG.SearchTimeout = "15s"
	}
	if c.RAG.ExtractMaxRetries == 0 {
		c.RAG.ExtractMaxRetries = 3
	}
	if c.RAG.ChunkSize == 0 {
		c.RAG.ChunkSize = 512
	}
	if c.RAG.ChunkOverlap == 0 {
		c.RAG.ChunkOverlap = 64
	}
}
