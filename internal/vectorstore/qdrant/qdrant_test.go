package qdrant

import (
	"context"
	"testing"

	"github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/domain"
)

type fakeClient struct {
	exists  bool
	deleted []string
	created *qdrant.CreateCollection
	points  []*qdrant.PointStruct
	limit   uint64
	scored  []*qdrant.ScoredPoint
	closed  bool
}

func (f *fakeClient) CreateCollection(_ context.Context, req *qdrant.CreateCollection) error {
	f.created = req
	f.exists = true
	return nil
}

func (f *fakeClient) CollectionExists(context.Context, string) (bool, error) { return f.exists, nil }

func (f *fakeClient) DeleteCollection(_ context.Context, name string) error {
	f.deleted = append(f.deleted, name)
	f.exists = false
	return nil
}

func (f *fakeClient) Upsert(_ context.Context, req *qdrant.UpsertPoints) (*qdrant.UpdateResult, error) {
	f.points = append(f.points, req.GetPoints()...)
	return &qdrant.UpdateResult{}, nil
}

func (f *fakeClient) Query(_ context.Context, req *qdrant.QueryPoints) ([]*qdrant.ScoredPoint, error) {
	f.limit = req.GetLimit()
	return f.scored, nil
}

func (f *fakeClient) Close() error {
	f.closed = true
	return nil
}

func scored(score float32, position int, text string) *qdrant.ScoredPoint {
	return &qdrant.ScoredPoint{
		Score: score,
		Payload: qdrant.NewValueMap(map[string]any{
			payloadText:     text,
			payloadSource:   "ebook",
			payloadPosition: position,
		}),
	}
}

func TestStorage_InitRecreatesCollection(t *testing.T) {
	fc := &fakeClient{exists: true}
	s := &Storage{client: fc, collection: "docqa"}

	assert.Error(t, s.Init(context.Background(), 0))
	assert.Nil(t, fc.created)

	require.NoError(t, s.Init(context.Background(), 3))
	assert.Equal(t, []string{"docqa"}, fc.deleted)
	require.NotNil(t, fc.created)
	assert.Equal(t, "docqa", fc.created.GetCollectionName())
	assert.Equal(t, uint64(3), fc.created.GetVectorsConfig().GetParams().GetSize())
	assert.Equal(t, qdrant.Distance_Euclid, fc.created.GetVectorsConfig().GetParams().GetDistance())

	require.NoError(t, s.Close())
	assert.True(t, fc.closed)
}

func TestStorage_UpsertValidatesAndStoresPayload(t *testing.T) {
	fc := &fakeClient{}
	s := &Storage{client: fc, collection: "docqa"}
	require.NoError(t, s.Init(context.Background(), 2))
	assert.Empty(t, fc.deleted)

	chunks := []domain.Chunk{
		{Text: "Agentic AI uses LLMs with planning loops.", SourceID: "ebook"},
		{Text: "Retrieval augments LLMs with external knowledge.", SourceID: "ebook"},
	}
	assert.Error(t, s.Upsert(context.Background(), chunks, [][]float64{{1, 0}}))
	assert.Error(t, s.Upsert(context.Background(), chunks, [][]float64{{1, 0}, {1, 0, 0}}))
	assert.Empty(t, fc.points)

	require.NoError(t, s.Upsert(context.Background(), chunks, [][]float64{{1, 0}, {0, 1}}))
	require.Len(t, fc.points, 2)
	for i, p := range fc.points {
		assert.Equal(t, uint64(i), p.GetId().GetNum())
		assert.Equal(t, chunks[i].Text, p.GetPayload()[payloadText].GetStringValue())
		assert.Equal(t, "ebook", p.GetPayload()[payloadSource].GetStringValue())
		assert.Equal(t, int64(i), p.GetPayload()[payloadPosition].GetIntegerValue())
	}
}

func TestStorage_SearchSettlesTiesAtTheCut(t *testing.T) {
	fc := &fakeClient{scored: []*qdrant.ScoredPoint{
		scored(1, 4, "far"),
		scored(0.5, 3, "tie d"),
		scored(0.5, 1, "tie b"),
		scored(0.25, 5, "nearest"),
		scored(0.5, 2, "tie c"),
	}}
	s := &Storage{client: fc, collection: "docqa", dimension: 2}

	hits, err := s.Search(context.Background(), []float64{1, 0}, 2)
	require.NoError(t, err)
	assert.Greater(t, fc.limit, uint64(2))
	require.Len(t, hits, 2)
	assert.Equal(t, "nearest", hits[0].Chunk.Text)
	assert.InDelta(t, 0.0625, hits[0].Distance, 1e-9)
	assert.Equal(t, 1, hits[1].Position)
	assert.Equal(t, "tie b", hits[1].Chunk.Text)
	assert.InDelta(t, 0.25, hits[1].Distance, 1e-9)
}

func TestStorage_SearchDefaultsTopK(t *testing.T) {
	fc := &fakeClient{}
	s := &Storage{client: fc, collection: "docqa", dimension: 2}
	hits, err := s.Search(context.Background(), []float64{1, 0}, 0)
	require.NoError(t, err)
	assert.Empty(t, hits)
	assert.Equal(t, uint64(4+tieWindow), fc.limit)
}

func TestHitFromPoint(t *testing.T) {
	p := &qdrant.ScoredPoint{
		Score: 0.5,
		Payload: qdrant.NewValueMap(map[string]any{
			payloadText:     "Retrieval augments LLMs with external knowledge.",
			payloadSource:   "ebook",
			payloadPosition: 3,
		}),
	}
	hit := hitFromPoint(p)
	assert.Equal(t, 3, hit.Position)
	assert.Equal(t, "ebook", hit.Chunk.SourceID)
	assert.Equal(t, "Retrieval augments LLMs with external knowledge.", hit.Chunk.Text)
	assert.InDelta(t, 0.25, hit.Distance, 1e-9)
}

func TestHitFromPoint_MissingPayload(t *testing.T) {
	hit := hitFromPoint(&qdrant.ScoredPoint{Score: 1})
	assert.Equal(t, 0, hit.Position)
	assert.Empty(t, hit.Chunk.Text)
	assert.InDelta(t, 1.0, hit.Distance, 1e-9)
}

func TestToFloat32(t *testing.T) {
	assert.Equal(t, []float32{1, 0.5}, toFloat32([]float64{1, 0.5}))
}
