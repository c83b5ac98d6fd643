package vectorstore

import (
	"context"

	"docqa/internal/domain"
)

// Storage holds the chunk vectors of one index and answers nearest-neighbour
// queries by squared Euclidean distance. Hits come back nearest first, ties in
// upsert order.
type Storage interface {
	Init(ctx context.Context, dimension int) error
	Upsert(ctx context.Context, chunks []domain.Chunk, vectors [][]float64) error
	Search(ctx context.Context, vector []float64, topK int) ([]domain.Hit, error)
	Clear(ctx context.Context) error
}
