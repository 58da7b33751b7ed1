// Package googlebooks fetches secondary book metadata from the Google Books
// volumes API, with an ISBN lookup and a title-search fallback.
package googlebooks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/lepinkainen/alexandria/internal/book"
	apperrors "github.com/lepinkainen/alexandria/internal/errors"
	"github.com/lepinkainen/alexandria/internal/ratelimit"
)

const defaultBaseURL = "https://www.googleapis.com/books/v1"

// Client is a rate-limited Google Books API client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    *ratelimit.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client, mainly for tests.
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) { client.httpClient = c }
}

// WithBaseURL overrides the API base URL, mainly for tests.
func WithBaseURL(u string) Option {
	return func(client *Client) { client.baseURL = strings.TrimRight(u, "/") }
}

// WithAPIKey sets an optional API key. The volumes endpoint works without one
// at a lower quota.
func WithAPIKey(key string) Option {
	return func(client *Client) { client.apiKey = key }
}

// New creates a Client. Two requests per second leaves room for the title
// fallback while staying well inside the free quota.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    defaultBaseURL,
		limiter:    ratelimit.New("GoogleBooks", 2),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Volume is the volumeInfo payload of a Google Books search hit.
type Volume struct {
	Title          string   `json:"title"`
	Subtitle       string   `json:"subtitle"`
	Authors        []string `json:"authors"`
	Publisher      string   `json:"publisher"`
	PublishedDate  string   `json:"publishedDate"`
	Description    string   `json:"description"`
	PageCount      int      `json:"pageCount"`
	PrintType      string   `json:"printType"`
	Categories     []string `json:"categories"`
	AverageRating  float64  `json:"averageRating"`
	RatingsCount   int      `json:"ratingsCount"`
	MaturityRating string   `json:"maturityRating"`
	Language       string   `json:"language"`
	ImageLinks     struct {
		Thumbnail      string `json:"thumbnail"`
		SmallThumbnail string `json:"smallThumbnail"`
	} `json:"imageLinks"`
	InfoLink string `json:"infoLink"`
}

type volumesResponse struct {
	TotalItems int `json:"totalItems"`
	Items      []struct {
		VolumeInfo Volume `json:"volumeInfo"`
	} `json:"items"`
}

// normalizeISBN strips hyphens and spaces from an ISBN.
func normalizeISBN(isbn string) string {
	normalized := strings.ReplaceAll(isbn, "-", "")
	return strings.ReplaceAll(normalized, " ", "")
}

// FetchVolume looks a book up by ISBN, falling back to a title search when
// the ISBN yields nothing. Returns book.ErrNotFound when neither finds a
// match.
func (c *Client) FetchVolume(ctx context.Context, isbn, title string) (*Volume, error) {
	if isbn == "" && title == "" {
		return nil, fmt.Errorf("%w: no ISBN or title to search by", book.ErrNotFound)
	}

	if isbn != "" {
		vol, err := c.search(ctx, "isbn:"+normalizeISBN(isbn))
		if err != nil {
			return nil, err
		}
		if vol != nil {
			return vol, nil
		}
		slog.Debug("No Google Books match by ISBN, trying title", "isbn", isbn, "title", title)
	}

	if title != "" {
		vol, err := c.search(ctx, title)
		if err != nil {
			return nil, err
		}
		if vol != nil {
			return vol, nil
		}
	}

	return nil, fmt.Errorf("%w: isbn %q title %q", book.ErrNotFound, isbn, title)
}

// search runs a volumes query and returns the first hit, or nil when the
// response has no items.
func (c *Client) search(ctx context.Context, query string) (*Volume, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	u := fmt.Sprintf("%s/volumes?q=%s", c.baseURL, url.QueryEscape(query))
	if c.apiKey != "" {
		u += "&key=" + url.QueryEscape(c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google Books API request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter, _ := time.ParseDuration(resp.Header.Get("Retry-After") + "s")
		return nil, apperrors.NewRateLimitErrorWithRetry("google Books API rate limit exceeded", retryAfter)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google Books API returned status %d for query %q", resp.StatusCode, query)
	}

	var result volumesResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode Google Books response: %w", err)
	}

	if result.TotalItems == 0 || len(result.Items) == 0 {
		return nil, nil
	}

	slog.Debug("Google Books hit", "query", query, "title", result.Items[0].VolumeInfo.Title)
	return &result.Items[0].VolumeInfo, nil
}

// Metadata converts a volume into the pipeline's metadata shape.
func (v *Volume) Metadata() *book.Metadata {
	printType := v.PrintType
	if printType == "" {
		printType = "BOOK"
	}
	return &book.Metadata{
		Subtitle:       v.Subtitle,
		Publisher:      v.Publisher,
		PublishedDate:  v.PublishedDate,
		PageCount:      v.PageCount,
		RatingsCount:   v.RatingsCount,
		Language:       v.Language,
		PrintType:      printType,
		Categories:     v.Categories,
		MaturityRating: v.MaturityRating,
	}
}

// Fetch implements the enrichment metadata source contract: a missing volume
// is reported as (nil, nil) so the orchestrator can cache the miss.
func (c *Client) Fetch(ctx context.Context, isbn, title string) (*book.Metadata, error) {
	vol, err := c.FetchVolume(ctx, isbn, title)
	if err != nil {
		if errors.Is(err, book.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return vol.Metadata(), nil
}
