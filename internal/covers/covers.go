// Package covers resolves and serves book cover images: URL selection with
// placeholder substitution, and a download-and-resize path for thumbnails.
package covers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/disintegration/imaging"

	"github.com/lepinkainen/alexandria/internal/book"
)

// PlaceholderURL is substituted when a record has no cover image and no ISBN
// to derive one from.
const PlaceholderURL = "https://via.placeholder.com/200x300?text=No+Cover"

// openLibraryCoverURL builds a cover URL from an ISBN.
const openLibraryCoverURL = "https://covers.openlibrary.org/b/isbn/%s-L.jpg"

// DefaultThumbnailWidth is the resize target for grid thumbnails.
const DefaultThumbnailWidth = 200

// URLFor returns the best available cover URL for a record: its own cover,
// an OpenLibrary cover derived from the ISBN, or the placeholder.
func URLFor(rec book.Record) string {
	if rec.CoverURL != "" {
		return rec.CoverURL
	}
	if rec.ISBN != "" {
		return fmt.Sprintf(openLibraryCoverURL, rec.ISBN)
	}
	return PlaceholderURL
}

// Fetcher downloads cover images and resizes them for display.
type Fetcher struct {
	httpClient *http.Client
}

// NewFetcher creates a Fetcher with a sensible download timeout.
func NewFetcher() *Fetcher {
	return &Fetcher{httpClient: &http.Client{Timeout: 15 * time.Second}}
}

// NewFetcherWithClient creates a Fetcher with a custom HTTP client, for
// tests.
func NewFetcherWithClient(c *http.Client) *Fetcher {
	return &Fetcher{httpClient: c}
}

// Thumbnail downloads the image at url and returns it as JPEG bytes resized
// down to maxWidth. Images already narrower than maxWidth keep their size.
func (f *Fetcher) Thumbnail(ctx context.Context, url string, maxWidth int) ([]byte, error) {
	if maxWidth <= 0 {
		maxWidth = DefaultThumbnailWidth
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cover request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cover download failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d downloading cover", resp.StatusCode)
	}

	img, err := imaging.Decode(resp.Body, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode cover image: %w", err)
	}

	if img.Bounds().Dx() > maxWidth {
		img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
