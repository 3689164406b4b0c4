// Package config loads pipeline configuration from a TOML file with
// environment variable overrides for credentials.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

// Default configuration values.
const (
	DefaultHansardBaseURL   = "https://hansard-api.parliament.uk"
	DefaultQuestionsBaseURL = "https://questions-statements-api.parliament.uk/api"

	DefaultHansardIndex   = "hansard-contributions"
	DefaultQuestionsIndex = "parliamentary-questions"

	DefaultRatePerSecond = 10
	DefaultMaxInFlight   = 10

	DefaultHansardPageSize   = 100
	DefaultQuestionsPageSize = 50

	DefaultEmbeddingDims      = 1024
	DefaultEmbeddingBatchSize = 96
	DefaultMinScore           = 0.5

	DefaultChunkSize   = 500
	DefaultConcurrency = 4
)

// Upstream configures one parliamentary API.
type Upstream struct {
	BaseURL  string `toml:"base_url"`
	PageSize int    `toml:"page_size"`
}

// Embedding configures the embedding provider.
type Embedding struct {
	BaseURL         string  `toml:"base_url"`
	APIKey          string  `toml:"api_key"`
	Model           string  `toml:"model"`
	AzureAPIVersion string  `toml:"azure_api_version"`
	Dimensions      int     `toml:"dimensions"`
	BatchSize       int     `toml:"batch_size"`
	RatePerSecond   float64 `toml:"rate_per_second"`
}

// Elastic configures the Elasticsearch cluster.
type Elastic struct {
	BaseURL  string `toml:"base_url"`
	APIKey   string `toml:"api_key"`
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// Ingestion configures pipeline behaviour.
type Ingestion struct {
	RatePerSecond float64 `toml:"rate_per_second"`
	MaxInFlight   int     `toml:"max_in_flight"`
	ChunkSize     int     `toml:"chunk_size"`
	Concurrency   int     `toml:"concurrency"`
}

// Search configures query behaviour.
type Search struct {
	MinScore float64 `toml:"min_score"`
}

// Config is the full pipeline configuration.
type Config struct {
	DataDir        string    `toml:"data_dir"`
	HansardIndex   string    `toml:"hansard_index"`
	QuestionsIndex string    `toml:"questions_index"`
	Hansard        Upstream  `toml:"hansard"`
	Questions      Upstream  `toml:"questions"`
	Embedding      Embedding `toml:"embedding"`
	Elastic        Elastic   `toml:"elastic"`
	Ingestion      Ingestion `toml:"ingestion"`
	Search         Search    `toml:"search"`
}

// Default returns a configuration with every default applied.
func Default() Config {
	return Config{
		HansardIndex:   DefaultHansardIndex,
		QuestionsIndex: DefaultQuestionsIndex,
		Hansard: Upstream{
			BaseURL:  DefaultHansardBaseURL,
			PageSize: DefaultHansardPageSize,
		},
		Questions: Upstream{
			BaseURL:  DefaultQuestionsBaseURL,
			PageSize: DefaultQuestionsPageSize,
		},
		Embedding: Embedding{
			Dimensions:    DefaultEmbeddingDims,
			BatchSize:     DefaultEmbeddingBatchSize,
			RatePerSecond: DefaultRatePerSecond,
		},
		Ingestion: Ingestion{
			RatePerSecond: DefaultRatePerSecond,
			MaxInFlight:   DefaultMaxInFlight,
			ChunkSize:     DefaultChunkSize,
			Concurrency:   DefaultConcurrency,
		},
		Search: Search{
			MinScore: DefaultMinScore,
		},
	}
}

// DefaultPath returns the default config file location,
// ~/.parlsearch/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".parlsearch", "config.toml"), nil
}

// Load reads configuration from path, layering file values over the
// defaults and environment overrides over both. A missing file is not
// an error; the defaults plus environment apply.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return cfg, err
		}
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// No file is fine
	case err != nil:
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv overlays environment variables. Credentials are expected
// from the environment in most deployments, so they always win over
// file values.
func applyEnv(cfg *Config) {
	setString(&cfg.Embedding.APIKey, "PARLSEARCH_EMBEDDING_API_KEY")
	setString(&cfg.Embedding.BaseURL, "PARLSEARCH_EMBEDDING_BASE_URL")
	setString(&cfg.Embedding.Model, "PARLSEARCH_EMBEDDING_MODEL")
	setString(&cfg.Embedding.AzureAPIVersion, "PARLSEARCH_AZURE_API_VERSION")
	setInt(&cfg.Embedding.Dimensions, "PARLSEARCH_EMBEDDING_DIMENSIONS")

	setString(&cfg.Elastic.BaseURL, "PARLSEARCH_ELASTIC_URL")
	setString(&cfg.Elastic.APIKey, "PARLSEARCH_ELASTIC_API_KEY")
	setString(&cfg.Elastic.Username, "PARLSEARCH_ELASTIC_USERNAME")
	setString(&cfg.Elastic.Password, "PARLSEARCH_ELASTIC_PASSWORD")

	setString(&cfg.DataDir, "PARLSEARCH_DATA_DIR")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
