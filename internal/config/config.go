package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type EmbeddingConfig struct {
	Provider string `yaml:"provider"` // "ollama" or "openai"
	BaseURL  string `yaml:"base_url"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
}

type IndexConfig struct {
	Path       string `yaml:"path"`
	Collection string `yaml:"collection"`
	Compress   bool   `yaml:"compress"`
}

type IngestConfig struct {
	ChunkSize       int  `yaml:"chunk_size"`
	ChunkOverlap    int  `yaml:"chunk_overlap"`
	MaxPapers       int  `yaml:"max_papers"`
	FullText        bool `yaml:"full_text"`
	MinIntervalSecs int  `yaml:"min_interval_seconds"`
}

type RetrievalConfig struct {
	MMRLambda      float32 `yaml:"mmr_lambda"`
	ChunksPerPaper int     `yaml:"chunks_per_paper"`
}

type FinanceConfig struct {
	AlphaVantageKey string `yaml:"alpha_vantage_key"`
	NewsAPIKey      string `yaml:"news_api_key"`
	MaxArticles     int    `yaml:"max_articles"`
	TimeoutSecs     int    `yaml:"timeout_seconds"`
}

type Config struct {
	Embedding EmbeddingConfig `yaml:"embedding"`
	Index     IndexConfig     `yaml:"index"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Finance   FinanceConfig   `yaml:"finance"`
}

// LoadConfig reads the YAML config at path, falling back to defaults when the
// file is absent. Credentials can always be supplied via the environment.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyDefaults(cfg)
	mergeWithEnv(cfg)

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "ollama"
	}
	if cfg.Embedding.BaseURL == "" {
		cfg.Embedding.BaseURL = "http://localhost:11434"
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = "nomic-embed-text"
	}

	if cfg.Index.Path == "" {
		cfg.Index.Path = "./chroma_db"
	}
	if cfg.Index.Collection == "" {
		cfg.Index.Collection = "science_rag"
	}

	if cfg.Ingest.ChunkSize == 0 {
		cfg.Ingest.ChunkSize = 900
	}
	if cfg.Ingest.ChunkOverlap == 0 {
		cfg.Ingest.ChunkOverlap = 120
	}
	if cfg.Ingest.MaxPapers == 0 {
		cfg.Ingest.MaxPapers = 3
	}
	if cfg.Ingest.MinIntervalSecs == 0 {
		cfg.Ingest.MinIntervalSecs = 3
	}

	if cfg.Retrieval.MMRLambda == 0 {
		cfg.Retrieval.MMRLambda = 0.7
	}
	if cfg.Retrieval.ChunksPerPaper == 0 {
		cfg.Retrieval.ChunksPerPaper = 5
	}

	if cfg.Finance.MaxArticles == 0 {
		cfg.Finance.MaxArticles = 5
	}
	if cfg.Finance.TimeoutSecs == 0 {
		cfg.Finance.TimeoutSecs = 10
	}
}

func mergeWithEnv(cfg *Config) {
	if v := os.Getenv("OLLAMA_BASE_URL"); v != "" {
		cfg.Embedding.BaseURL = v
	}
	if v := os.Getenv("EMBEDDING_API_KEY"); v != "" {
		cfg.Embedding.APIKey = v
	}
	if v := os.Getenv("FINANCE_ALPHA_VANTAGE_KEY"); v != "" {
		cfg.Finance.AlphaVantageKey = v
	}
	if v := os.Getenv("NEWS_API_KEY"); v != "" {
		cfg.Finance.NewsAPIKey = v
	}
}
