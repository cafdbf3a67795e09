// Package embedding provides the Cohere API client used for dense embeddings,
// cross-encoder reranking, and short alert message generation.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"
)

const (
	cohereEmbedURL  = "https://api.cohere.com/v1/embed"
	cohereRerankURL = "https://api.cohere.com/v1/rerank"
	cohereChatURL   = "https://api.cohere.com/v1/chat"

	embedModel  = "embed-english-v3.0"
	rerankModel = "rerank-english-v3.0"
	chatModel   = "command-r-plus-08-2024"

	// EmbedBatchSize is the Cohere embed API batch limit.
	EmbedBatchSize = 96

	cohereMaxRetries   = 3
	cohereInitialDelay = 1 * time.Second
)

// InputType selects the embedding mode for asymmetric retrieval.
type InputType string

const (
	InputDocument InputType = "search_document"
	InputQuery    InputType = "search_query"
)

// RerankResult is one reranked document with its relevance score.
type RerankResult struct {
	Index          int     `json:"index"`
	RelevanceScore float64 `json:"relevance_score"`
}

// Client talks to the Cohere API. A client constructed without an API key is
// permanently unavailable: embed calls return no vectors and rerank returns no
// results, which callers treat as a degrade signal rather than a failure.
type Client struct {
	apiKey    string
	embedURL  string
	rerankURL string
	chatURL   string
	client    *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL redirects all API calls to the given base (for testing).
func WithBaseURL(base string) ClientOption {
	return func(c *Client) {
		c.embedURL = base + "/v1/embed"
		c.rerankURL = base + "/v1/rerank"
		c.chatURL = base + "/v1/chat"
	}
}

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.client = hc }
}

// NewClient creates a Cohere client. An empty apiKey yields an unavailable
// client; every provider call degrades gracefully.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		apiKey:    apiKey,
		embedURL:  cohereEmbedURL,
		rerankURL: cohereRerankURL,
		chatURL:   cohereChatURL,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Available reports whether the provider is configured.
func (c *Client) Available() bool {
	return c.apiKey != ""
}

type embedRequest struct {
	Texts     []string `json:"texts"`
	Model     string   `json:"model"`
	InputType string   `json:"input_type"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

type rerankRequest struct {
	Model     string      `json:"model"`
	Query     string      `json:"query"`
	Documents []rerankDoc `json:"documents"`
	TopN      int         `json:"top_n"`
}

type rerankDoc struct {
	Text string `json:"text"`
}

type rerankResponse struct {
	Results []RerankResult `json:"results"`
}

type chatRequest struct {
	Model   string `json:"model"`
	Message string `json:"message"`
}

type chatResponse struct {
	Text string `json:"text"`
}

type cohereError struct {
	Message string `json:"message"`
}

// EmbedDocuments embeds texts for indexing. Returns (nil, nil) when the
// provider is not configured so retrieval can fall back to the lexical path.
func (c *Client) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	return c.embed(ctx, texts, InputDocument)
}

// EmbedQuery embeds a single query string. Returns (nil, nil) when the
// provider is not configured.
func (c *Client) EmbedQuery(ctx context.Context, query string) ([]float32, error) {
	vecs, err := c.embed(ctx, []string{query}, InputQuery)
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		return nil, nil
	}
	return vecs[0], nil
}

func (c *Client) embed(ctx context.Context, texts []string, inputType InputType) ([][]float32, error) {
	if !c.Available() || len(texts) == 0 {
		return nil, nil
	}

	if len(texts) > EmbedBatchSize {
		return nil, fmt.Errorf("batch size %d exceeds Cohere limit of %d", len(texts), EmbedBatchSize)
	}

	req := embedRequest{
		Texts:     texts,
		Model:     embedModel,
		InputType: string(inputType),
	}

	var resp embedResponse
	if err := c.post(ctx, c.embedURL, req, &resp); err != nil {
		return nil, err
	}

	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Embeddings))
	}
	return resp.Embeddings, nil
}

// Rerank cross-scores documents against the query and returns at most topN
// results ordered by relevance. Returns (nil, nil) when unavailable.
func (c *Client) Rerank(ctx context.Context, query string, documents []string, topN int) ([]RerankResult, error) {
	if !c.Available() || len(documents) == 0 {
		return nil, nil
	}

	docs := make([]rerankDoc, len(documents))
	for i, d := range documents {
		docs[i] = rerankDoc{Text: d}
	}

	req := rerankRequest{
		Model:     rerankModel,
		Query:     query,
		Documents: docs,
		TopN:      topN,
	}

	var resp rerankResponse
	if err := c.post(ctx, c.rerankURL, req, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// Generate produces a short completion for the given prompt.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	if !c.Available() {
		return "", fmt.Errorf("cohere API key not set")
	}

	req := chatRequest{
		Model:   chatModel,
		Message: prompt,
	}

	var resp chatResponse
	if err := c.post(ctx, c.chatURL, req, &resp); err != nil {
		return "", err
	}
	if resp.Text == "" {
		return "", fmt.Errorf("empty completion returned")
	}
	return resp.Text, nil
}

// post sends a JSON request with retry on rate limits and server errors.
func (c *Client) post(ctx context.Context, url string, reqBody, respBody any) error {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < cohereMaxRetries; attempt++ {
		if attempt > 0 {
			delay := time.Duration(math.Pow(2, float64(attempt))) * cohereInitialDelay
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(httpReq)
		if err != nil {
			lastErr = fmt.Errorf("HTTP request failed: %w", err)
			continue
		}

		raw, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read response body: %w", err)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			var apiErr cohereError
			if json.Unmarshal(raw, &apiErr) == nil && apiErr.Message != "" {
				lastErr = fmt.Errorf("Cohere API error (%d): %s", resp.StatusCode, apiErr.Message)
			} else {
				lastErr = fmt.Errorf("Cohere API error (%d): %s", resp.StatusCode, string(raw))
			}

			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				continue
			}
			return lastErr
		}

		if err := json.Unmarshal(raw, respBody); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		return nil
	}

	return fmt.Errorf("max retries (%d) exceeded: %w", cohereMaxRetries, lastErr)
}
