package embedding

import "context"

// Embedder converts free text into fixed-dimension vectors. The same instance
// must embed both the indexed chunks and the queries against them.
// Implementations may require a preparation phase over the corpus.
type Embedder interface {
	Name() string
	Prepare(corpus []string) error
	Dimension() int
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}
