// Package index embeds document chunks and answers similarity queries over them.
package index

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"docqa/internal/domain"
	"docqa/internal/embedding"
	"docqa/internal/vectorstore"
)

// DefaultTopK is the number of contexts retrieved when the caller does not say.
const DefaultTopK = 4

// Index couples an embedder with a vector store. Build holds the write lock
// for its whole duration, so a query never observes a partially built index.
type Index struct {
	embedder embedding.Embedder
	store    vectorstore.Storage
	logger   *slog.Logger

	mu    sync.RWMutex
	ready bool
	size  int
}

func New(embedder embedding.Embedder, store vectorstore.Storage, logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.Default()
	}
	return &Index{embedder: embedder, store: store, logger: logger}
}

// Build embeds every chunk and replaces the indexed contents.
func (ix *Index) Build(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return domain.ErrNoChunks
	}
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.ready = false
	ix.size = 0

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	if err := ix.embedder.Prepare(texts); err != nil {
		return fmt.Errorf("prepare %s embedder: %w", ix.embedder.Name(), err)
	}
	vectors, err := ix.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
	}
	dim := len(vectors[0])
	if dim == 0 {
		return fmt.Errorf("embedder returned empty vectors")
	}
	for i, v := range vectors {
		if len(v) != dim {
			return fmt.Errorf("chunk %d: vector dimension %d differs from %d", i, len(v), dim)
		}
	}
	if err := ix.store.Init(ctx, dim); err != nil {
		return fmt.Errorf("init vector store: %w", err)
	}
	if err := ix.store.Upsert(ctx, chunks, vectors); err != nil {
		return fmt.Errorf("upsert vectors: %w", err)
	}

	ix.ready = true
	ix.size = len(chunks)
	ix.logger.Info("index built",
		slog.Int("chunks", len(chunks)),
		slog.Int("dimension", dim),
		slog.String("embedder", ix.embedder.Name()))
	return nil
}

// Retrieve returns up to k contexts most similar to query, best first.
func (ix *Index) Retrieve(ctx context.Context, query string, k int) ([]domain.RetrievedContext, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if !ix.ready {
		return nil, domain.ErrIndexNotReady
	}
	if k <= 0 {
		k = DefaultTopK
	}
	vecs, err := ix.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(vecs) != 1 {
		return nil, fmt.Errorf("embedder returned %d vectors for one query", len(vecs))
	}
	hits, err := ix.store.Search(ctx, vecs[0], k)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	// a query sharing nothing with the corpus embeds to the zero vector,
	// which sits at distance 1 from every unit vector; it matches nothing
	unmatched := isZero(vecs[0])
	out := make([]domain.RetrievedContext, len(hits))
	for i, h := range hits {
		score := Similarity(h.Distance)
		if unmatched {
			score = 0
		}
		out[i] = domain.RetrievedContext{
			Text:   h.Chunk.Text,
			Score:  score,
			Source: h.Chunk.SourceID,
		}
	}
	return out, nil
}

func isZero(v []float64) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// Similarity maps a squared Euclidean distance between unit vectors to [0, 1].
func Similarity(squaredDistance float64) float64 {
	return max(0, 1-squaredDistance/2)
}

func (ix *Index) Ready() bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.ready
}

func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.size
}
