package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lepinkainen/alexandria/internal/book"
	"github.com/lepinkainen/alexandria/internal/catalog"
	"github.com/lepinkainen/alexandria/internal/covers"
)

type stubMetaSource struct {
	data *book.Metadata
}

func (s *stubMetaSource) Fetch(_ context.Context, _, _ string) (*book.Metadata, error) {
	return s.data, nil
}

type stubRelatedSource struct {
	records []book.Record
}

func (s *stubRelatedSource) Fetch(_ context.Context, _ string, _ int) ([]book.Record, error) {
	return s.records, nil
}

func testCorpus() []book.Record {
	return []book.Record{
		{ID: "1", Title: "The Hobbit", Authors: []string{"J.R.R. Tolkien"}, Genres: []string{"Fantasy"}, Year: 1937, Rating: 4.3, Language: "en", ISBN: "9780261103344", Pages: 310},
		{ID: "2", Title: "A Wizard of Earthsea", Authors: []string{"Ursula K. Le Guin"}, Genres: []string{"Fantasy"}, Year: 1968, Rating: 4.0, Language: "en"},
		{ID: "3", Title: "Dune", Authors: []string{"Frank Herbert"}, Genres: []string{"Science Fiction"}, Year: 1965, Rating: 4.2, Language: "en"},
		{ID: "4", Title: "The Silmarillion", Authors: []string{"J.R.R. Tolkien"}, Genres: []string{"Fantasy"}, Year: 1977, Rating: 3.9, Language: "en"},
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return New(
		catalog.NewMemoryStore(testCorpus()),
		&stubMetaSource{data: &book.Metadata{Publisher: "Allen & Unwin", PageCount: 310, Language: "en"}},
		&stubRelatedSource{},
		covers.NewFetcher(),
		Config{PageSize: 2, EnrichTimeout: 100 * time.Millisecond, RelatedLimit: 5},
	)
}

func decodeBody(t *testing.T, body io.Reader, out any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(body).Decode(out))
}

func TestSearchRequiresQuery(t *testing.T) {
	s := newTestServer(t)

	resp, err := s.App().Test(httptest.NewRequest("GET", "/search", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)

	var body map[string]string
	decodeBody(t, resp.Body, &body)
	assert.Equal(t, "Query is required", body["error"])
}

func TestSearchRanksAndPaginates(t *testing.T) {
	s := newTestServer(t)

	resp, err := s.App().Test(httptest.NewRequest("GET", "/search?q=tolkien", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body struct {
		Total      int      `json:"total"`
		Page       int      `json:"page"`
		TotalPages int      `json:"total_pages"`
		Facets     []string `json:"facets"`
		Results    []struct {
			Record book.Record `json:"record"`
			Score  float64     `json:"score"`
		} `json:"results"`
	}
	decodeBody(t, resp.Body, &body)

	assert.Equal(t, 2, body.Total)
	assert.Equal(t, 1, body.Page)
	assert.Equal(t, 1, body.TotalPages)
	assert.Equal(t, []string{"Fantasy"}, body.Facets)
	require.Len(t, body.Results, 2)
	assert.Equal(t, "1", body.Results[0].Record.ID)
	assert.Equal(t, "4", body.Results[1].Record.ID)
}

func TestSearchAppliesFilters(t *testing.T) {
	s := newTestServer(t)

	resp, err := s.App().Test(httptest.NewRequest("GET", "/search?q=tolkien&min_rating=4.0", nil), -1)
	require.NoError(t, err)

	var body struct {
		Total int `json:"total"`
	}
	decodeBody(t, resp.Body, &body)
	assert.Equal(t, 1, body.Total, "The Silmarillion falls below the rating floor")
}

func TestBrowsePaginates(t *testing.T) {
	s := newTestServer(t)

	resp, err := s.App().Test(httptest.NewRequest("GET", "/browse?page=2", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body struct {
		Total      int           `json:"total"`
		Page       int           `json:"page"`
		TotalPages int           `json:"total_pages"`
		Items      []book.Record `json:"items"`
	}
	decodeBody(t, resp.Body, &body)

	assert.Equal(t, 4, body.Total)
	assert.Equal(t, 2, body.Page)
	assert.Equal(t, 2, body.TotalPages)
	require.Len(t, body.Items, 2)
	assert.Equal(t, "3", body.Items[0].ID)
}

func TestGetBook(t *testing.T) {
	s := newTestServer(t)

	resp, err := s.App().Test(httptest.NewRequest("GET", "/book/3", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var rec book.Record
	decodeBody(t, resp.Body, &rec)
	assert.Equal(t, "Dune", rec.Title)
}

func TestGetBookNotFound(t *testing.T) {
	s := newTestServer(t)

	resp, err := s.App().Test(httptest.NewRequest("GET", "/book/missing", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestBookDetail(t *testing.T) {
	s := newTestServer(t)

	resp, err := s.App().Test(httptest.NewRequest("GET", "/book/1/detail", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body struct {
		Record      book.Record    `json:"record"`
		Resolved    bool           `json:"resolved"`
		Metadata    *book.Metadata `json:"metadata"`
		Related     []book.Record  `json:"related"`
		CoverURL    string         `json:"cover_url"`
		ReadingTime *struct {
			Hours   int `json:"hours"`
			Minutes int `json:"minutes"`
		} `json:"reading_time"`
	}
	decodeBody(t, resp.Body, &body)

	assert.Equal(t, "The Hobbit", body.Record.Title)
	assert.True(t, body.Resolved)
	require.NotNil(t, body.Metadata)
	assert.Equal(t, 310, body.Metadata.PageCount)
	require.NotNil(t, body.ReadingTime)
	assert.Equal(t, 6, body.ReadingTime.Hours)
	assert.Equal(t, 12, body.ReadingTime.Minutes)
	require.Len(t, body.Related, 2)
	assert.Equal(t, "2", body.Related[0].ID)
	assert.NotEmpty(t, body.CoverURL)
}

func TestBookDetailNotFound(t *testing.T) {
	s := newTestServer(t)

	resp, err := s.App().Test(httptest.NewRequest("GET", "/book/missing/detail", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestRecommend(t *testing.T) {
	s := newTestServer(t)

	reqBody := bytes.NewBufferString(`{"liked_ids":["1"],"limit":5}`)
	req := httptest.NewRequest("POST", "/recommend", reqBody)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var related []book.Record
	decodeBody(t, resp.Body, &related)
	require.Len(t, related, 2)
	assert.Equal(t, "2", related[0].ID)
	assert.Equal(t, "4", related[1].ID)
}

func TestRecommendRequiresLikedIDs(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest("POST", "/recommend", bytes.NewBufferString(`{"liked_ids":[]}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestRecommendExcludesLikedBooks(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest("POST", "/recommend", bytes.NewBufferString(`{"liked_ids":["1","2"]}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.App().Test(req, -1)
	require.NoError(t, err)

	var related []book.Record
	decodeBody(t, resp.Body, &related)
	require.Len(t, related, 1)
	assert.Equal(t, "4", related[0].ID)
}

func TestCoverNotFoundBook(t *testing.T) {
	s := newTestServer(t)

	resp, err := s.App().Test(httptest.NewRequest("GET", "/covers/missing", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}
