// Package completion talks to an OpenAI-compatible chat completions endpoint.
package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"docqa/internal/domain"
)

const (
	chatEndpoint = "/v1/chat/completions"

	DefaultTimeout     = 30 * time.Second
	DefaultTemperature = 0.1
	DefaultMaxTokens   = 1500

	maxDiagnosticBytes = 512
)

// Client sends a conversation to the generation service. It never retries and
// never caches; every call is one HTTP request bounded by the timeout.
type Client struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	maxTokens   int
	timeout     time.Duration
	httpClient  *http.Client
}

type Config struct {
	BaseURL     string
	APIKeyEnv   string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// NewClient reads the API key from the environment variable named in cfg.
func NewClient(cfg Config) (*Client, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if cfg.BaseURL == "" {
		return nil, errors.New("generation base URL is empty")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      key,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		timeout:     cfg.Timeout,
		httpClient:  &http.Client{},
	}, nil
}

type chatRequest struct {
	Model       string           `json:"model"`
	Messages    []domain.Message `json:"messages"`
	Temperature float64          `json:"temperature"`
	MaxTokens   int              `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Generate returns the content of the first choice. An empty model uses the
// configured default.
func (c *Client) Generate(ctx context.Context, messages []domain.Message, model string) (string, error) {
	if model == "" {
		model = c.model
	}
	body, err := json.Marshal(chatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+chatEndpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return "", fmt.Errorf("%w after %s", domain.ErrGenerationTimeout, c.timeout)
		}
		return "", fmt.Errorf("send chat request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		if isTimeout(err) {
			return "", fmt.Errorf("%w after %s", domain.ErrGenerationTimeout, c.timeout)
		}
		return "", fmt.Errorf("read chat response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &domain.GenerationError{StatusCode: resp.StatusCode, Body: diagnostic(payload)}
	}

	var out chatResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return "", &domain.GenerationError{StatusCode: resp.StatusCode, Body: "malformed response: " + diagnostic(payload)}
	}
	if len(out.Choices) == 0 {
		return "", &domain.GenerationError{StatusCode: resp.StatusCode, Body: "response has no choices"}
	}
	return out.Choices[0].Message.Content, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func diagnostic(payload []byte) string {
	s := strings.TrimSpace(string(payload))
	if len(s) > maxDiagnosticBytes {
		s = s[:maxDiagnosticBytes] + "..."
	}
	return s
}
