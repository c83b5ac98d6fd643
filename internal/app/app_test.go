package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/chunker"
	"docqa/internal/config"
	"docqa/internal/embedding/tfidf"
)

func testConfig(t *testing.T, baseURL string) *config.AppConfig {
	t.Helper()
	cfg, err := config.Parse([]byte("document:\n  source_id: ebook\n"))
	require.NoError(t, err)
	cfg.Generation.BaseURL = baseURL
	cfg.Generation.APIKeyEnv = "DOCQA_APP_TEST_KEY"
	return cfg
}

func TestBuild_MissingKeyFailsFast(t *testing.T) {
	t.Setenv("DOCQA_APP_TEST_KEY", "")
	_, err := Build(context.Background(), testConfig(t, "http://localhost"), nil, nil)
	assert.ErrorContains(t, err, "DOCQA_APP_TEST_KEY")
}

func TestBuild_EndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Agentic AI plans in loops. [Chunk 1]"}}]}`))
	}))
	defer srv.Close()
	t.Setenv("DOCQA_APP_TEST_KEY", "sk-test")

	dir := t.TempDir()
	doc := filepath.Join(dir, "ebook.txt")
	require.NoError(t, os.WriteFile(doc, []byte("Agentic AI uses LLMs with planning loops.\n\nRetrieval augments LLMs with external knowledge."), 0o644))

	cfg := testConfig(t, srv.URL)
	cfg.History.Enabled = true
	cfg.History.Path = filepath.Join(dir, "history.db")

	reg := prometheus.NewRegistry()
	a, err := Build(context.Background(), cfg, nil, reg)
	require.NoError(t, err)
	defer a.Close()
	require.NotNil(t, a.History)
	require.NotNil(t, a.Metrics)

	require.NoError(t, a.Pipeline.Setup(context.Background(), doc))
	assert.Equal(t, 1, a.Pipeline.ChunkCount())

	res, err := a.Pipeline.Answer(context.Background(), "What is agentic AI?")
	require.NoError(t, err)
	assert.Equal(t, "Agentic AI plans in loops. [Chunk 1]", res.Answer)
	require.Len(t, res.Contexts, 1)
	assert.Equal(t, "ebook", res.Contexts[0].Source)

	entries, err := a.History.Recent(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "What is agentic AI?", entries[0].Result.Question)
}

func TestNewChunkerAndEmbedder(t *testing.T) {
	ch, err := NewChunker(config.ChunkerConfig{Type: "sentence", SentencesPerChunk: 3})
	require.NoError(t, err)
	assert.IsType(t, &chunker.SentenceChunker{}, ch)

	_, err = NewChunker(config.ChunkerConfig{Type: "semantic"})
	assert.Error(t, err)

	emb, err := NewEmbedder(config.EmbedderConfig{Type: "tfidf"})
	require.NoError(t, err)
	assert.IsType(t, &tfidf.Embedder{}, emb)

	_, err = NewEmbedder(config.EmbedderConfig{Type: "openai"})
	assert.Error(t, err)
}
