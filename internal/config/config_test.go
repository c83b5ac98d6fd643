package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "recursive", cfg.Chunker.Type)
	assert.Equal(t, 1200, cfg.Chunker.Size)
	assert.Equal(t, 200, cfg.Chunker.Overlap)
	assert.Equal(t, 4, cfg.Retrieval.TopK)
	assert.Equal(t, "sarvam-m", cfg.Generation.Model)
	assert.Equal(t, "SARVAM_API_KEY", cfg.Generation.APIKeyEnv)
	assert.Equal(t, 0.1, cfg.Generation.Temperature)
	assert.Equal(t, 1500, cfg.Generation.MaxTokens)
	assert.Equal(t, "30s", cfg.Generation.Timeout().String())
	assert.NoError(t, Validate(cfg))
}

func TestParse_OverridesAndNestedDefaults(t *testing.T) {
	t.Setenv("DOCQA_TEST_QDRANT_HOST", "qdrant.internal")
	cfg, err := Parse([]byte(`
document:
  path: ./ebook.pdf
  title: the Agentic AI eBook
chunker:
  size: 800
  overlap: 100
embedder:
  type: openai
  openai:
    model: text-embedding-3-large
vector_store:
  type: qdrant
  qdrant:
    host: ${DOCQA_TEST_QDRANT_HOST}
retrieval:
  top_k: 6
logging:
  level: DEBUG
`))
	require.NoError(t, err)
	assert.Equal(t, "./ebook.pdf", cfg.Document.Path)
	assert.Equal(t, 800, cfg.Chunker.Size)
	assert.Equal(t, 6, cfg.Retrieval.TopK)
	assert.Equal(t, 1000, cfg.Retrieval.MaxContextRunes)

	require.NotNil(t, cfg.Embedder.OpenAI)
	assert.Equal(t, "text-embedding-3-large", cfg.Embedder.OpenAI.Model)
	assert.Equal(t, "OPENAI_API_KEY", cfg.Embedder.OpenAI.APIKeyEnv)
	assert.Equal(t, 32, cfg.Embedder.OpenAI.BatchSize)

	require.NotNil(t, cfg.VectorStore.Qdrant)
	assert.Equal(t, "qdrant.internal", cfg.VectorStore.Qdrant.Host)
	assert.Equal(t, 6334, cfg.VectorStore.Qdrant.Port)
	assert.Equal(t, "docqa", cfg.VectorStore.Qdrant.Collection)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestParse_SelectedBackendWithoutBlock(t *testing.T) {
	cfg, err := Parse([]byte("vector_store:\n  type: qdrant\n"))
	require.NoError(t, err)
	require.NotNil(t, cfg.VectorStore.Qdrant)
	assert.Equal(t, "localhost", cfg.VectorStore.Qdrant.Host)
}

func TestParse_Invalid(t *testing.T) {
	cases := map[string]string{
		"overlap not below size": "chunker:\n  size: 100\n  overlap: 100\n",
		"unknown embedder":       "embedder:\n  type: word2vec\n",
		"zero top_k":             "retrieval:\n  top_k: 0\n",
		"bad log format":         "logging:\n  format: xml\n",
		"history without path":   "history:\n  enabled: true\n  path: \"\"\n",
		"malformed yaml":         "chunker: [",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestValidate_NamesFields(t *testing.T) {
	cfg := defaultConfig()
	cfg.Chunker.Overlap = 5000
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Chunker.Overlap")
}

func TestSaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := defaultConfig()
	cfg.Document.Path = "/data/book.pdf"
	require.NoError(t, Save(path, cfg))

	_, err := os.Stat(path)
	require.NoError(t, err)
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadDefault_WritesUserConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(t.TempDir())

	cfg, path, err := LoadDefault()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config", "docqa", "config.yaml"), path)
	assert.Equal(t, defaultConfig(), cfg)
	_, err = os.Stat(path)
	assert.NoError(t, err)
}
