// Package recommend talks to the smart-recommendation service that suggests
// related books from vector similarity.
package recommend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/lepinkainen/alexandria/internal/book"
)

// Client calls the recommendation service. An empty result list is a valid,
// non-error response.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// New creates a Client for the service at baseURL.
func New(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
	}
}

// NewWithHTTPClient creates a Client with a custom HTTP client, for tests.
func NewWithHTTPClient(baseURL string, httpClient *http.Client) *Client {
	return &Client{httpClient: httpClient, baseURL: baseURL}
}

type recommendRequest struct {
	LikedIDs []string `json:"liked_ids"`
	Limit    int      `json:"limit"`
}

// Fetch asks the service for up to limit books related to the given record.
func (c *Client) Fetch(ctx context.Context, id string, limit int) ([]book.Record, error) {
	payload, err := json.Marshal(recommendRequest{LikedIDs: []string{id}, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("failed to encode recommend request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/recommend", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create recommend request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("recommend request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("recommend service returned status %d", resp.StatusCode)
	}

	var records []book.Record
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode recommend response: %w", err)
	}
	return records, nil
}
