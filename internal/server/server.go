// Package server exposes the answering pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"docqa/internal/domain"
	"docqa/internal/service"
)

const requestIDHeader = "X-Request-ID"

// Pipeline is what the HTTP API needs from the answering pipeline.
type Pipeline interface {
	domain.Answerer
	Ready() bool
	Summary() string
	ChunkCount() int
	SourceID() string
}

type Handler struct {
	pipeline Pipeline
	logger   *slog.Logger
}

type answerRequest struct {
	Question string `json:"question"`
}

type documentResponse struct {
	Source  string `json:"source"`
	Chunks  int    `json:"chunks"`
	Summary string `json:"summary"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// NewRouter wires the API routes. Metrics are served from gatherer when it is non-nil.
func NewRouter(p Pipeline, gatherer prometheus.Gatherer, logger *slog.Logger) *mux.Router {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{pipeline: p, logger: logger}

	r := mux.NewRouter()
	r.Use(h.requestID)
	r.HandleFunc("/healthz", h.Health).Methods(http.MethodGet)
	r.HandleFunc("/v1/document", h.Document).Methods(http.MethodGet)
	r.HandleFunc("/v1/answer", h.Answer).Methods(http.MethodPost)
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}
	return r
}

func (h *Handler) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(service.WithRequestID(r.Context(), id)))
	})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if !h.pipeline.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) Document(w http.ResponseWriter, r *http.Request) {
	if !h.pipeline.Ready() {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: domain.ErrIndexNotReady.Error()})
		return
	}
	writeJSON(w, http.StatusOK, documentResponse{
		Source:  h.pipeline.SourceID(),
		Chunks:  h.pipeline.ChunkCount(),
		Summary: h.pipeline.Summary(),
	})
}

func (h *Handler) Answer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	res, err := h.pipeline.Answer(r.Context(), req.Question)
	if err != nil {
		status := StatusFor(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("answer failed",
				slog.String("request_id", w.Header().Get(requestIDHeader)),
				slog.String("error", err.Error()))
		}
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// StatusFor maps pipeline errors to HTTP status codes.
func StatusFor(err error) int {
	var genErr *domain.GenerationError
	switch {
	case errors.Is(err, domain.ErrEmptyQuestion):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrIndexNotReady):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrGenerationTimeout):
		return http.StatusGatewayTimeout
	case errors.As(err, &genErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Serve runs the HTTP server until ctx is cancelled, then shuts it down.
func Serve(ctx context.Context, srv *http.Server, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info("http server shutting down")
	return srv.Shutdown(shutdownCtx)
}
