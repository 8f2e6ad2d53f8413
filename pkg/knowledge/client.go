// Package knowledge retrieves contextual passages from a vector-search
// service. Embedding generation happens server-side; this client only issues
// queries.
package knowledge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Passage is one retrieved chunk of contextual knowledge.
type Passage struct {
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// Client queries a vector-search HTTP API.
type Client struct {
	baseURL string
	apiKey  string
	topK    int
	client  *http.Client
}

// NewClient creates a retrieval client. topK values below 1 default to 3.
func NewClient(baseURL, apiKey string, topK int) *Client {
	if topK < 1 {
		topK = 3
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		topK:    topK,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Search returns the top-k passages most relevant to the query, best first.
func (c *Client) Search(ctx context.Context, query string) ([]Passage, error) {
	reqBody, err := json.Marshal(queryRequest{Query: query, TopK: c.topK})
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/query", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create query request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query vector index: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("vector index returned status %d: %s", resp.StatusCode, detail)
	}

	var result queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode query response: %w", err)
	}
	return result.Matches, nil
}

type queryRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

type queryResponse struct {
	Matches []Passage `json:"matches"`
}
