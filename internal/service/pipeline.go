// Package service wires extraction, chunking, retrieval and generation into
// the question answering pipeline.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"docqa/internal/domain"
	"docqa/internal/extract"
	"docqa/internal/index"
	"docqa/internal/metrics"
)

// Retriever is the part of the embedding index the pipeline depends on.
type Retriever interface {
	Build(ctx context.Context, chunks []domain.Chunk) error
	Retrieve(ctx context.Context, query string, k int) ([]domain.RetrievedContext, error)
	Len() int
}

// HistoryStore records answered questions. It is never read by the pipeline.
type HistoryStore interface {
	Save(ctx context.Context, id string, result domain.Result) error
}

type Deps struct {
	Extractor  extract.Extractor
	Chunker    domain.Chunker
	Index      Retriever
	Generator  domain.Generator
	Summarizer domain.Summarizer // optional
	History    HistoryStore      // optional
	Metrics    *metrics.Metrics  // optional
	Logger     *slog.Logger
}

type Options struct {
	// SourceID labels every chunk and context. Defaults to the file name.
	SourceID string
	// Title names the document in the system prompt.
	Title            string
	Model            string
	TopK             int
	MaxContextRunes  int
	SummarySentences int
}

// Pipeline answers questions about one document. Setup runs once; Answer may
// be called concurrently after that.
type Pipeline struct {
	deps Deps
	opts Options
	now  func() time.Time

	setupMu sync.Mutex
	ready   atomic.Bool

	mu       sync.RWMutex
	sourceID string
	summary  string
	chunks   int
}

func NewPipeline(deps Deps, opts Options) *Pipeline {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if opts.TopK <= 0 {
		opts.TopK = index.DefaultTopK
	}
	if opts.MaxContextRunes <= 0 {
		opts.MaxContextRunes = DefaultMaxContextRunes
	}
	if opts.Title == "" {
		opts.Title = "the document"
	}
	return &Pipeline{deps: deps, opts: opts, now: time.Now}
}

// Setup extracts, chunks and indexes the document at source.
func (p *Pipeline) Setup(ctx context.Context, source string) error {
	p.setupMu.Lock()
	defer p.setupMu.Unlock()
	if p.ready.Load() {
		return domain.ErrAlreadySetUp
	}
	log := p.deps.Logger.With(slog.String("source", source))
	start := time.Now()

	text, err := p.deps.Extractor.Extract(ctx, source)
	if err != nil {
		return &domain.ExtractionError{Source: source, Err: err}
	}
	log.Info("document loaded", slog.Int("chars", len(text)))

	sourceID := p.opts.SourceID
	if sourceID == "" {
		sourceID = filepath.Base(source)
	}
	chunks, err := p.deps.Chunker.Chunk(domain.Document{ID: sourceID, Path: source, Content: text})
	if err != nil {
		return fmt.Errorf("chunk: %w", err)
	}
	if len(chunks) == 0 {
		return domain.ErrEmptyDocument
	}
	if err := p.deps.Index.Build(ctx, chunks); err != nil {
		return fmt.Errorf("build index: %w", err)
	}

	var summary string
	if p.deps.Summarizer != nil {
		summary, err = p.deps.Summarizer.Summarize(text, p.opts.SummarySentences)
		if err != nil {
			log.Warn("summary failed", slog.Any("err", err))
			summary = ""
		}
	}

	p.mu.Lock()
	p.sourceID = sourceID
	p.summary = summary
	p.chunks = len(chunks)
	p.mu.Unlock()
	p.deps.Metrics.SetIndexChunks(len(chunks))
	p.ready.Store(true)

	log.Info("pipeline ready",
		slog.Int("chunks", len(chunks)),
		slog.Duration("took", time.Since(start)))
	return nil
}

// Answer retrieves the best contexts for question and asks the generator to
// answer from them alone. Errors leave the pipeline usable.
func (p *Pipeline) Answer(ctx context.Context, question string) (domain.Result, error) {
	start := time.Now()
	id := RequestID(ctx)
	log := p.deps.Logger.With(slog.String("request_id", id))

	if !p.ready.Load() {
		p.deps.Metrics.ObserveAnswer(metrics.OutcomeRejected, time.Since(start), 0)
		return domain.Result{}, domain.ErrIndexNotReady
	}
	query := strings.TrimSpace(question)
	if query == "" {
		p.deps.Metrics.ObserveAnswer(metrics.OutcomeRejected, time.Since(start), 0)
		return domain.Result{}, domain.ErrEmptyQuestion
	}

	contexts, err := p.deps.Index.Retrieve(ctx, query, p.opts.TopK)
	if err != nil {
		p.deps.Metrics.ObserveAnswer(metrics.OutcomeRetrieval, time.Since(start), 0)
		log.Error("retrieval failed", slog.Any("err", err))
		return domain.Result{}, fmt.Errorf("retrieve: %w", err)
	}
	if contexts == nil {
		contexts = []domain.RetrievedContext{}
	}

	messages := BuildMessages(p.opts.Title, query, contexts, p.opts.MaxContextRunes)
	answer, err := p.deps.Generator.Generate(ctx, messages, p.opts.Model)
	if err != nil {
		outcome := metrics.OutcomeGeneration
		if errors.Is(err, domain.ErrGenerationTimeout) {
			outcome = metrics.OutcomeTimeout
		}
		p.deps.Metrics.ObserveAnswer(outcome, time.Since(start), 0)
		log.Error("generation failed", slog.Any("err", err), slog.Int("contexts", len(contexts)))
		return domain.Result{}, fmt.Errorf("generate: %w", err)
	}

	result := domain.Result{
		Question:   question,
		Answer:     answer,
		Contexts:   contexts,
		Confidence: Confidence(contexts),
		Timestamp:  p.now().Format(time.RFC3339Nano),
	}
	elapsed := time.Since(start)
	p.deps.Metrics.ObserveAnswer(metrics.OutcomeOK, elapsed, result.Confidence)
	log.Info("question answered",
		slog.Int("contexts", len(contexts)),
		slog.Float64("confidence", result.Confidence),
		slog.Duration("took", elapsed))

	if p.deps.History != nil {
		if err := p.deps.History.Save(ctx, id, result); err != nil {
			log.Warn("history save failed", slog.Any("err", err))
		}
	}
	return result, nil
}

func (p *Pipeline) Ready() bool { return p.ready.Load() }

// Summary is the document overview computed at setup, empty before it.
func (p *Pipeline) Summary() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.summary
}

func (p *Pipeline) ChunkCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.chunks
}

func (p *Pipeline) SourceID() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.sourceID
}

type requestIDKey struct{}

// WithRequestID attaches the id under which an answer is logged and stored.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the id attached to ctx, or a fresh one.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}
