package docsearch

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/poiesic/docsearch/access"
	"github.com/poiesic/docsearch/ai"
	"github.com/poiesic/docsearch/chunker"
	"github.com/poiesic/docsearch/ingestion"
	"github.com/poiesic/docsearch/search"
	"gopkg.in/yaml.v3"
)

// Access provider names accepted in AccessConfig.Provider.
const (
	AccessProviderDrive = "drive"
	AccessProviderNone  = "none"
)

// EmbeddingConfig configures the OpenAI-compatible embedding service.
type EmbeddingConfig struct {
	Host      string `yaml:"host"`
	Model     string `yaml:"model"`
	Token     string `yaml:"token"`
	Dimension int    `yaml:"dimension"`
	Normalize bool   `yaml:"normalize"`
}

// RefreshConfig configures the refresh pipeline.
type RefreshConfig struct {
	MaxWords   int           `yaml:"max_words"`
	BatchSize  int           `yaml:"batch_size"`
	PoolSize   int           `yaml:"pool_size"`
	MaxRetries int           `yaml:"max_retries"`
	RetryDelay time.Duration `yaml:"retry_delay"`
}

// SearchConfig configures query defaults.
type SearchConfig struct {
	CandidatePool int `yaml:"candidate_pool"`
	TopK          int `yaml:"top_k"`
	ExcerptLength int `yaml:"excerpt_length"`
}

// AccessConfig selects and configures the permission provider.
type AccessConfig struct {
	// Provider is "drive" or "none". With "none" every result is shown
	// without access.
	Provider        string        `yaml:"provider"`
	CredentialsFile string        `yaml:"credentials_file"`
	AllDrives       bool          `yaml:"all_drives"`
	PageSize        int           `yaml:"page_size"`
	Timeout         time.Duration `yaml:"timeout"`
}

// Config is the root configuration of a System.
type Config struct {
	DataDir   string          `yaml:"data_dir"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Refresh   RefreshConfig   `yaml:"refresh"`
	Search    SearchConfig    `yaml:"search"`
	Access    AccessConfig    `yaml:"access"`
}

// DefaultConfig returns a Config for a local embedding server and no
// permission provider.
func DefaultConfig() *Config {
	embedding := ai.DefaultConfig()
	return &Config{
		DataDir: "docsearch-data",
		Embedding: EmbeddingConfig{
			Host:  embedding.EmbeddingHost,
			Model: embedding.EmbeddingModel,
			Token: embedding.Token,
		},
		Refresh: RefreshConfig{
			MaxWords:   chunker.DefaultMaxWords,
			BatchSize:  ingestion.DefaultBatchSize,
			MaxRetries: ingestion.DefaultMaxRetries,
			RetryDelay: ingestion.DefaultRetryDelay,
		},
		Search: SearchConfig{
			CandidatePool: search.DefaultCandidatePool,
			TopK:          search.DefaultTopK,
			ExcerptLength: search.DefaultExcerptLength,
		},
		Access: AccessConfig{
			Provider: AccessProviderNone,
			Timeout:  access.DefaultTimeout,
		},
	}
}

// LoadConfig reads a YAML config from path over the defaults.
// A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides secrets and endpoints from environment variables:
// DOCSEARCH_DATA_DIR, DOCSEARCH_EMBEDDING_HOST, DOCSEARCH_EMBEDDING_MODEL,
// DOCSEARCH_EMBEDDING_TOKEN and DOCSEARCH_DRIVE_CREDENTIALS.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	set(&c.DataDir, "DOCSEARCH_DATA_DIR")
	set(&c.Embedding.Host, "DOCSEARCH_EMBEDDING_HOST")
	set(&c.Embedding.Model, "DOCSEARCH_EMBEDDING_MODEL")
	set(&c.Embedding.Token, "DOCSEARCH_EMBEDDING_TOKEN")
	if v := getenv("DOCSEARCH_DRIVE_CREDENTIALS"); v != "" {
		c.Access.CredentialsFile = v
		if c.Access.Provider == "" || c.Access.Provider == AccessProviderNone {
			c.Access.Provider = AccessProviderDrive
		}
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return errors.New("config: data_dir is required")
	}
	if c.Refresh.MaxWords < 1 {
		return errors.New("config: refresh.max_words must be positive")
	}
	if c.Refresh.MaxRetries < 1 {
		return errors.New("config: refresh.max_retries must be positive")
	}
	if c.Search.TopK < 0 || c.Search.CandidatePool < 0 {
		return errors.New("config: search sizes cannot be negative")
	}
	switch c.Access.Provider {
	case "", AccessProviderNone, AccessProviderDrive:
	default:
		return fmt.Errorf("config: unknown access provider %q", c.Access.Provider)
	}
	return c.aiConfig().Validate()
}

func (c *Config) aiConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithEmbeddingHost(c.Embedding.Host),
		ai.WithEmbeddingModel(c.Embedding.Model),
		ai.WithToken(c.Embedding.Token),
		ai.WithDimension(c.Embedding.Dimension),
		ai.WithBatchSize(max(c.Refresh.BatchSize, 1)),
		ai.WithNormalize(c.Embedding.Normalize),
	)
}
