package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("missing file yields the defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))

		require.NoError(t, err)
		assert.Equal(t, DefaultHansardBaseURL, cfg.Hansard.BaseURL)
		assert.Equal(t, DefaultQuestionsIndex, cfg.QuestionsIndex)
		assert.Equal(t, DefaultEmbeddingDims, cfg.Embedding.Dimensions)
		assert.Equal(t, float64(DefaultRatePerSecond), cfg.Ingestion.RatePerSecond)
		assert.Equal(t, DefaultMinScore, cfg.Search.MinScore)
	})

	t.Run("file values layer over the defaults", func(t *testing.T) {
		path := writeConfig(t, `
hansard_index = "hansard-staging"

[hansard]
page_size = 25

[embedding]
model = "text-embedding-3-large"
dimensions = 256

[ingestion]
rate_per_second = 2.5
`)

		cfg, err := Load(path)

		require.NoError(t, err)
		assert.Equal(t, "hansard-staging", cfg.HansardIndex)
		assert.Equal(t, 25, cfg.Hansard.PageSize)
		assert.Equal(t, "text-embedding-3-large", cfg.Embedding.Model)
		assert.Equal(t, 256, cfg.Embedding.Dimensions)
		assert.Equal(t, 2.5, cfg.Ingestion.RatePerSecond)
		// Untouched sections keep their defaults
		assert.Equal(t, DefaultQuestionsBaseURL, cfg.Questions.BaseURL)
		assert.Equal(t, DefaultChunkSize, cfg.Ingestion.ChunkSize)
	})

	t.Run("malformed file is an error", func(t *testing.T) {
		path := writeConfig(t, `hansard_index = [not toml`)

		_, err := Load(path)

		assert.Error(t, err)
	})

	t.Run("environment overrides win over the file", func(t *testing.T) {
		path := writeConfig(t, `
[embedding]
api_key = "file-key"
dimensions = 256

[elastic]
base_url = "http://file:9200"
`)
		t.Setenv("PARLSEARCH_EMBEDDING_API_KEY", "env-key")
		t.Setenv("PARLSEARCH_EMBEDDING_DIMENSIONS", "512")
		t.Setenv("PARLSEARCH_ELASTIC_URL", "http://env:9200")

		cfg, err := Load(path)

		require.NoError(t, err)
		assert.Equal(t, "env-key", cfg.Embedding.APIKey)
		assert.Equal(t, 512, cfg.Embedding.Dimensions)
		assert.Equal(t, "http://env:9200", cfg.Elastic.BaseURL)
	})

	t.Run("non-numeric dimension override is ignored", func(t *testing.T) {
		t.Setenv("PARLSEARCH_EMBEDDING_DIMENSIONS", "lots")

		cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))

		require.NoError(t, err)
		assert.Equal(t, DefaultEmbeddingDims, cfg.Embedding.Dimensions)
	})

	t.Run("data dir from the environment", func(t *testing.T) {
		t.Setenv("PARLSEARCH_DATA_DIR", "/var/lib/parlsearch")

		cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))

		require.NoError(t, err)
		assert.Equal(t, "/var/lib/parlsearch", cfg.DataDir)
	})
}
