// Package httpapi provides a reranker adapter speaking the common
// cross-encoder HTTP API: POST /rerank with a query and documents,
// relevance-scored results back.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/Creative-Geek/Searchable-Screenshots/internal/core/domain"
	"github.com/Creative-Geek/Searchable-Screenshots/internal/core/ports/driven"
)

// Ensure Client implements the interface.
var _ driven.Reranker = (*Client)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:8787"
	DefaultModel   = "cross-encoder/ms-marco-MiniLM-L-6-v2"
	DefaultTimeout = 30 * time.Second
)

// Config holds configuration for the rerank client.
type Config struct {
	// BaseURL is the rerank service base URL (default: http://localhost:8787).
	BaseURL string

	// Model names the cross-encoder model to score with.
	Model string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration
}

// Client scores (query, document) pairs against a rerank HTTP service.
type Client struct {
	client  *http.Client
	baseURL string
	model   string
}

// rerankRequest is the service request format.
type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
}

// rerankResponse is the service response format.
type rerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
}

// NewClient creates a new rerank client.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Client{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
	}
}

// Rerank scores every document against the query, returning hits sorted by
// score descending.
func (c *Client) Rerank(ctx context.Context, query string, documents []string) ([]driven.RerankHit, error) {
	if len(documents) == 0 {
		return nil, nil
	}

	jsonBody, err := json.Marshal(rerankRequest{
		Model:     c.model,
		Query:     query,
		Documents: documents,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rerank", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("rerank error (status %d): %s", resp.StatusCode, string(body))
	}

	var rerankResp rerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&rerankResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	hits := make([]driven.RerankHit, 0, len(rerankResp.Results))
	for _, r := range rerankResp.Results {
		if r.Index < 0 || r.Index >= len(documents) {
			return nil, fmt.Errorf("%w: rerank index %d out of range", domain.ErrInvalidInput, r.Index)
		}
		hits = append(hits, driven.RerankHit{Index: r.Index, Score: r.RelevanceScore})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	return hits, nil
}

// Close releases resources.
func (c *Client) Close() error {
	return nil
}
