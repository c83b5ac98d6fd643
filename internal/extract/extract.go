// Package extract turns a document file into plain text.
package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"code.sajari.com/docconv/v2"
	"github.com/ledongthuc/pdf"
)

// Extractor returns the full text of the document at source.
type Extractor interface {
	Extract(ctx context.Context, source string) (string, error)
}

var wordMimeTypes = map[string]string{
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

// FileExtractor reads documents from the local filesystem, choosing the
// decoder by file extension.
type FileExtractor struct {
	logger *slog.Logger
}

func NewFileExtractor(logger *slog.Logger) *FileExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileExtractor{logger: logger}
}

func (e *FileExtractor) Extract(ctx context.Context, source string) (string, error) {
	data, err := os.ReadFile(source)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ext := strings.ToLower(filepath.Ext(source))
	switch ext {
	case ".pdf":
		return e.PDF(data)
	case ".doc", ".docx":
		return e.Word(data, wordMimeTypes[ext])
	case ".txt", ".md", "":
		return string(data), nil
	default:
		return "", fmt.Errorf("unsupported file type: %s", ext)
	}
}

// PDF extracts the plain text of every page, one page per line block.
func (e *FileExtractor) PDF(data []byte) (text string, err error) {
	// the pdf package panics on some malformed files
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("corrupt pdf: %v", r)
		}
	}()
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	total := reader.NumPage()
	var sb strings.Builder
	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			e.logger.Warn("skipping null pdf page", slog.Int("page", i))
			continue
		}
		pageText, perr := page.GetPlainText(nil)
		if perr != nil {
			return "", fmt.Errorf("read pdf page %d: %w", i, perr)
		}
		if pageText == "" {
			continue
		}
		sb.WriteString(pageText)
		sb.WriteString("\n")
	}
	e.logger.Debug("pdf extracted", slog.Int("pages", total), slog.Int("chars", sb.Len()))
	return sb.String(), nil
}

// Word extracts the body text of a .doc or .docx file.
func (e *FileExtractor) Word(data []byte, mimeType string) (string, error) {
	if mimeType == "" {
		return "", errors.New("unknown word document type")
	}
	res, err := docconv.Convert(bytes.NewReader(data), mimeType, false)
	if err != nil {
		return "", fmt.Errorf("convert word document: %w", err)
	}
	e.logger.Debug("word document extracted", slog.Int("chars", len(res.Body)))
	return res.Body, nil
}
