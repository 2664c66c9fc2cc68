package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client calls an external sentence-embedding service over HTTP. The service
// is treated as a black box: POST /embed with a list of texts, receive one
// vector per text.
type Client struct {
	endpoint   string
	dimensions int
	httpClient *http.Client
}

// NewClient creates an embedding client for the given endpoint.
func NewClient(endpoint string, dimensions int) *Client {
	return &Client{
		endpoint:   endpoint,
		dimensions: dimensions,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type embedRequest struct {
	Texts []string `json:"texts"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Dimension returns the configured output dimension
func (c *Client) Dimension() int {
	return c.dimensions
}

// Embed generates an embedding for a single text
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch generates embeddings for a batch of texts. Vectors are
// re-normalized locally so downstream dot products equal cosine similarity
// regardless of what the model returns.
func (c *Client) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(embedRequest{Texts: texts})
	if err != nil {
		return nil, fmt.Errorf("encode embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: embedding service returned %d", ErrModelUnavailable, resp.StatusCode)
	}

	var decoded embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: decode embed response: %v", ErrModelUnavailable, err)
	}

	if len(decoded.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d embeddings, got %d", ErrModelUnavailable, len(texts), len(decoded.Embeddings))
	}

	for i, vector := range decoded.Embeddings {
		if len(vector) != c.dimensions {
			return nil, fmt.Errorf("%w: embedding %d has dimension %d, expected %d", ErrModelUnavailable, i, len(vector), c.dimensions)
		}
		normalizeL2(vector)
	}

	return decoded.Embeddings, nil
}
