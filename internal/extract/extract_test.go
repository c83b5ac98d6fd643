package extract

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestFileExtractor_PlainText(t *testing.T) {
	p := write(t, "book.txt", "Agentic AI uses LLMs with planning loops.\n")
	text, err := NewFileExtractor(nil).Extract(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "Agentic AI uses LLMs with planning loops.\n", text)
}

func TestFileExtractor_MissingFile(t *testing.T) {
	_, err := NewFileExtractor(nil).Extract(context.Background(), filepath.Join(t.TempDir(), "nope.pdf"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFileExtractor_UnsupportedType(t *testing.T) {
	p := write(t, "sheet.xlsx", "x")
	_, err := NewFileExtractor(nil).Extract(context.Background(), p)
	assert.ErrorContains(t, err, "unsupported file type")
}

func TestFileExtractor_CorruptPDF(t *testing.T) {
	p := write(t, "broken.pdf", "this is not a pdf at all")
	_, err := NewFileExtractor(nil).Extract(context.Background(), p)
	assert.Error(t, err)
}

func TestFileExtractor_CancelledContext(t *testing.T) {
	p := write(t, "book.md", "# Title")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewFileExtractor(nil).Extract(ctx, p)
	assert.ErrorIs(t, err, context.Canceled)
}
