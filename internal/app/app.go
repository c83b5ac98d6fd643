// Package app assembles the pipeline and its collaborators from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"docqa/internal/chunker"
	"docqa/internal/completion"
	"docqa/internal/config"
	"docqa/internal/domain"
	"docqa/internal/embedding"
	"docqa/internal/embedding/openai"
	"docqa/internal/embedding/tfidf"
	"docqa/internal/extract"
	"docqa/internal/history"
	"docqa/internal/index"
	"docqa/internal/metrics"
	"docqa/internal/service"
	"docqa/internal/summarizer"
	"docqa/internal/vectorstore"
	"docqa/internal/vectorstore/memory"
	"docqa/internal/vectorstore/qdrant"
)

// App owns the pipeline and every resource that must be released with it.
type App struct {
	Pipeline *service.Pipeline
	History  *history.Store
	Metrics  *metrics.Metrics

	closers []io.Closer
}

// Build creates every component named by cfg. reg may be nil to disable metrics.
func Build(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger, reg prometheus.Registerer) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{}

	gen, err := completion.NewClient(completion.Config{
		BaseURL:     cfg.Generation.BaseURL,
		APIKeyEnv:   cfg.Generation.APIKeyEnv,
		Model:       cfg.Generation.Model,
		Temperature: cfg.Generation.Temperature,
		MaxTokens:   cfg.Generation.MaxTokens,
		Timeout:     cfg.Generation.Timeout(),
	})
	if err != nil {
		return nil, fmt.Errorf("generation client: %w", err)
	}

	ch, err := NewChunker(cfg.Chunker)
	if err != nil {
		return nil, err
	}
	emb, err := NewEmbedder(cfg.Embedder)
	if err != nil {
		return nil, err
	}
	store, err := a.newStorage(cfg.VectorStore)
	if err != nil {
		return nil, err
	}

	var sum domain.Summarizer
	switch cfg.Summarizer.Type {
	case "frequency", "":
		sum = summarizer.NewFrequencySummarizer()
	case "none":
	default:
		return nil, fmt.Errorf("unknown summarizer: %s", cfg.Summarizer.Type)
	}

	if reg != nil {
		if a.Metrics, err = metrics.New(reg); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}

	deps := service.Deps{
		Extractor:  extract.NewFileExtractor(logger),
		Chunker:    ch,
		Index:      index.New(emb, store, logger),
		Generator:  gen,
		Summarizer: sum,
		Metrics:    a.Metrics,
		Logger:     logger,
	}
	if cfg.History.Enabled {
		a.History, err = history.Open(ctx, cfg.History.Path)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		a.closers = append(a.closers, a.History)
		deps.History = a.History
	}

	a.Pipeline = service.NewPipeline(deps, service.Options{
		SourceID:         cfg.Document.SourceID,
		Title:            cfg.Document.Title,
		Model:            cfg.Generation.Model,
		TopK:             cfg.Retrieval.TopK,
		MaxContextRunes:  cfg.Retrieval.MaxContextRunes,
		SummarySentences: cfg.Summarizer.MaxSentences,
	})
	logger.Debug("components assembled",
		slog.String("chunker", cfg.Chunker.Type),
		slog.String("embedder", emb.Name()),
		slog.String("vector_store", cfg.VectorStore.Type))
	return a, nil
}

func NewChunker(cfg config.ChunkerConfig) (domain.Chunker, error) {
	switch cfg.Type {
	case "recursive", "":
		return chunker.NewRecursiveChunker(cfg.Size, cfg.Overlap), nil
	case "sentence":
		return chunker.NewSentenceChunker(cfg.SentencesPerChunk, cfg.OverlapSentences, cfg.Size), nil
	default:
		return nil, fmt.Errorf("unknown chunker: %s", cfg.Type)
	}
}

func NewEmbedder(cfg config.EmbedderConfig) (embedding.Embedder, error) {
	switch cfg.Type {
	case "tfidf", "":
		return tfidf.NewEmbedder(), nil
	case "openai":
		if cfg.OpenAI == nil {
			return nil, errors.New("openai embedder config missing")
		}
		client, err := openai.NewClient(openai.Config{
			BaseURL:   cfg.OpenAI.BaseURL,
			APIKeyEnv: cfg.OpenAI.APIKeyEnv,
			Model:     cfg.OpenAI.Model,
			Timeout:   time.Duration(cfg.OpenAI.TimeoutSecs) * time.Second,
			BatchSize: cfg.OpenAI.BatchSize,
		})
		if err != nil {
			return nil, fmt.Errorf("openai embedder init failed: %w", err)
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Type)
	}
}

func (a *App) newStorage(cfg config.VectorStoreConfig) (vectorstore.Storage, error) {
	switch cfg.Type {
	case "memory", "":
		return memory.NewStorage(), nil
	case "qdrant":
		if cfg.Qdrant == nil {
			return nil, errors.New("qdrant config missing")
		}
		st, err := qdrant.NewStorage(qdrant.Config{
			Host:       cfg.Qdrant.Host,
			Port:       cfg.Qdrant.Port,
			APIKey:     cfg.Qdrant.APIKey,
			UseTLS:     cfg.Qdrant.UseTLS,
			Collection: cfg.Qdrant.Collection,
		})
		if err != nil {
			return nil, fmt.Errorf("qdrant init failed: %w", err)
		}
		a.closers = append(a.closers, st)
		return st, nil
	default:
		return nil, fmt.Errorf("unknown vector store: %s", cfg.Type)
	}
}

// Close releases the history database and vector store connections.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i].Close())
	}
	return errors.Join(errs...)
}
