package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyDocument is returned by setup when the document produced no chunks.
	ErrEmptyDocument = errors.New("document produced no chunks")
	// ErrNoChunks is returned when an index build is requested over zero chunks.
	ErrNoChunks = errors.New("cannot build index over zero chunks")
	// ErrIndexNotReady is returned for queries that arrive before the index is built.
	ErrIndexNotReady = errors.New("index not ready")
	// ErrGenerationTimeout is returned when the generation service does not answer in time.
	ErrGenerationTimeout = errors.New("generation timed out")
	// ErrEmptyQuestion is returned by Answer for a blank question.
	ErrEmptyQuestion = errors.New("question is empty")
	// ErrAlreadySetUp is returned by a second Setup call on the same pipeline.
	ErrAlreadySetUp = errors.New("pipeline already set up")
)

// ExtractionError reports an unreadable or corrupt source document.
type ExtractionError struct {
	Source string
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: %v", e.Source, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// GenerationError is a non-success response from the generation service.
type GenerationError struct {
	StatusCode int
	Body       string
}

func (e *GenerationError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("generation failed: status %d", e.StatusCode)
	}
	return fmt.Sprintf("generation failed: status %d: %s", e.StatusCode, e.Body)
}
