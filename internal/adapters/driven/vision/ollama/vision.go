// Package ollama provides a visual describer adapter using an Ollama
// vision model via the /api/generate endpoint.
package ollama

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"golang.org/x/time/rate"

	"github.com/Creative-Geek/Searchable-Screenshots/internal/core/domain"
	"github.com/Creative-Geek/Searchable-Screenshots/internal/core/ports/driven"
)

// Ensure Describer implements the interface.
var _ driven.VisualDescriber = (*Describer)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "moondream"
	DefaultTimeout = 120 * time.Second
	DefaultPrompt  = "Describe this screenshot concisely. Mention the application, " +
		"the visible content and any notable interface elements."

	// defaultRequestsPerSecond throttles vision calls. Generation is
	// GPU-bound on the Ollama side; hammering it with the pipeline's full
	// concurrency only grows queue latency and timeouts.
	defaultRequestsPerSecond = 2
)

// Config holds configuration for the Ollama vision describer.
type Config struct {
	// BaseURL is the Ollama API base URL (default: http://localhost:11434).
	BaseURL string

	// Model is the vision model to use (default: moondream).
	Model string

	// Prompt overrides the default description prompt.
	Prompt string

	// Timeout is the request timeout (default: 120s, generation is slow).
	Timeout time.Duration

	// RequestsPerSecond throttles generation calls (default: 2).
	RequestsPerSecond float64
}

// Describer generates image descriptions using an Ollama vision model.
type Describer struct {
	client  *http.Client
	baseURL string
	model   string
	prompt  string
	limiter *rate.Limiter
}

// generateRequest is the Ollama generate API request format.
type generateRequest struct {
	Model  string   `json:"model"`
	Prompt string   `json:"prompt"`
	Images []string `json:"images"`
	Stream bool     `json:"stream"`
}

// generateResponse is the Ollama generate API response format.
type generateResponse struct {
	Response string `json:"response"`
}

// NewDescriber creates a new Ollama vision describer.
func NewDescriber(cfg Config) *Describer {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Prompt == "" {
		cfg.Prompt = DefaultPrompt
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RequestsPerSecond == 0 {
		cfg.RequestsPerSecond = defaultRequestsPerSecond
	}

	return &Describer{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		prompt:  cfg.Prompt,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
	}
}

// Describe returns the vision model's description of the image file.
// The call is made exactly once; a failed description surfaces to the
// pipeline and the file is picked up again on the next indexing run.
// Transport and server failures are wrapped in
// domain.ErrProviderUnavailable.
func (d *Describer) Describe(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(data)

	if err := d.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return d.generate(ctx, encoded)
}

func (d *Describer) generate(ctx context.Context, encodedImage string) (string, error) {
	reqBody := generateRequest{
		Model:  d.model,
		Prompt: d.prompt,
		Images: []string{encodedImage},
		Stream: false,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		d.baseURL+"/api/generate",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		apiErr := fmt.Errorf("ollama error (status %d): %s", resp.StatusCode, string(body))
		if resp.StatusCode >= 500 {
			return "", fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, apiErr)
		}
		return "", apiErr
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return genResp.Response, nil
}
