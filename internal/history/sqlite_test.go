package history

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/domain"
)

func open(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "data", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_SaveAndRecent(t *testing.T) {
	s := open(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		require.NoError(t, s.Save(ctx, fmt.Sprintf("req-%d", i), domain.Result{
			Question:   fmt.Sprintf("question %d", i),
			Answer:     "answer [Chunk 1]",
			Contexts:   []domain.RetrievedContext{{Text: "Agentic AI uses LLMs.", Score: 0.75, Source: "ebook"}},
			Confidence: 0.75,
			Timestamp:  "2026-03-01T10:30:00+01:00",
		}))
	}

	got, err := s.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "req-3", got[0].ID)
	assert.Equal(t, "req-2", got[1].ID)
	assert.Equal(t, "question 3", got[0].Result.Question)
	assert.Equal(t, 0.75, got[0].Result.Confidence)
	assert.Equal(t, []domain.RetrievedContext{{Text: "Agentic AI uses LLMs.", Score: 0.75, Source: "ebook"}}, got[0].Result.Contexts)
	assert.Equal(t, "2026-03-01T10:30:00+01:00", got[0].Result.Timestamp)
}

func TestStore_DuplicateID(t *testing.T) {
	s := open(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, "same", domain.Result{Question: "q"}))
	assert.Error(t, s.Save(ctx, "same", domain.Result{Question: "q"}))
}

func TestStore_EmptyAndReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	s, err := Open(context.Background(), path)
	require.NoError(t, err)

	got, err := s.Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, got)
	require.NoError(t, s.Save(context.Background(), "a", domain.Result{Question: "q", Contexts: []domain.RetrievedContext{}}))
	require.NoError(t, s.Close())

	s, err = Open(context.Background(), path)
	require.NoError(t, err)
	defer s.Close()
	got, err = s.Recent(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)
}
