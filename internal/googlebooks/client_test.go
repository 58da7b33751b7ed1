package googlebooks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/lepinkainen/alexandria/internal/errors"
)

const volumeResponse = `{
	"totalItems": 1,
	"items": [{
		"volumeInfo": {
			"title": "The Catcher in the Rye",
			"subtitle": "A Novel",
			"authors": ["J.D. Salinger"],
			"publisher": "Little, Brown",
			"publishedDate": "1991-05-01",
			"pageCount": 277,
			"printType": "BOOK",
			"categories": ["Fiction", "Classics"],
			"ratingsCount": 6789,
			"maturityRating": "NOT_MATURE",
			"language": "en"
		}
	}]
}`

const emptyResponse = `{"totalItems": 0, "items": []}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(WithBaseURL(server.URL), WithHTTPClient(server.Client()))
}

func TestFetchVolumeByISBN(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "isbn:9780316769488", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(volumeResponse))
	})

	vol, err := client.FetchVolume(context.Background(), "978-0-316-76948-8", "")
	require.NoError(t, err)
	assert.Equal(t, "The Catcher in the Rye", vol.Title)
	assert.Equal(t, 277, vol.PageCount)
	assert.Equal(t, []string{"Fiction", "Classics"}, vol.Categories)
}

func TestFetchVolumeTitleFallback(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch calls.Add(1) {
		case 1:
			require.Equal(t, "isbn:0000000000", r.URL.Query().Get("q"))
			_, _ = w.Write([]byte(emptyResponse))
		default:
			require.Equal(t, "The Catcher in the Rye", r.URL.Query().Get("q"))
			_, _ = w.Write([]byte(volumeResponse))
		}
	})

	vol, err := client.FetchVolume(context.Background(), "0000000000", "The Catcher in the Rye")
	require.NoError(t, err)
	assert.Equal(t, "The Catcher in the Rye", vol.Title)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetchVolumeNothingFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(emptyResponse))
	})

	_, err := client.FetchVolume(context.Background(), "0000000000", "nonexistent book")
	require.Error(t, err)
}

func TestFetchVolumeNoKeys(t *testing.T) {
	client := New()
	_, err := client.FetchVolume(context.Background(), "", "")
	require.Error(t, err)
}

func TestFetchVolumeServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.FetchVolume(context.Background(), "9780316769488", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestFetchReportsMissAsNil(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(emptyResponse))
	})

	meta, err := client.Fetch(context.Background(), "0000000000", "")
	require.NoError(t, err)
	assert.Nil(t, meta, "a miss is (nil, nil) so the orchestrator can cache it")
}

func TestFetchConvertsVolume(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(volumeResponse))
	})

	meta, err := client.Fetch(context.Background(), "9780316769488", "")
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, "A Novel", meta.Subtitle)
	assert.Equal(t, 277, meta.PageCount)
	assert.Equal(t, "en", meta.Language)
	assert.Equal(t, "BOOK", meta.PrintType)
	assert.Equal(t, 6789, meta.RatingsCount)
}

func TestFetchVolumeRateLimited(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "120")
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.FetchVolume(context.Background(), "9780316769488", "")
	require.Error(t, err)
	assert.True(t, apperrors.IsRateLimitError(err))

	var rateLimitErr *apperrors.RateLimitError
	require.ErrorAs(t, err, &rateLimitErr)
	assert.Equal(t, 2*time.Minute, rateLimitErr.RetryAfter)
}
