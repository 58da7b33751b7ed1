package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSVCorpus(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corpus.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFileCSV(t *testing.T) {
	path := writeCSVCorpus(t, `book_id,title,author,average_rating,published_year,genres,language,clean_isbn,num_pages
1,The Hobbit,J.R.R. Tolkien,4.28,1937,Fantasy/Adventure,en,9780261103344,310
2,Dune,Frank Herbert,4.25,1965,Science Fiction,en,9780441172719,412
`)

	store, err := LoadFile(path)
	require.NoError(t, err)

	records, err := store.All(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	hobbit := records[0]
	assert.Equal(t, "1", hobbit.ID)
	assert.Equal(t, "The Hobbit", hobbit.Title)
	assert.Equal(t, []string{"J.R.R. Tolkien"}, hobbit.Authors)
	assert.Equal(t, []string{"Fantasy", "Adventure"}, hobbit.Genres)
	assert.Equal(t, 1937, hobbit.Year)
	assert.InDelta(t, 4.28, hobbit.Rating, 0.001)
	assert.Equal(t, 310, hobbit.Pages)
	assert.Equal(t, "en", hobbit.Language)
}

func TestLoadFileCSVAliasColumns(t *testing.T) {
	path := writeCSVCorpus(t, `id,title,authors,rating,year,categories,isbn,pages,thumbnail
7,Emma,Jane Austen,4.0,1815,Classics,9780141439587,474,http://example.com/emma.jpg
`)

	store, err := LoadFile(path)
	require.NoError(t, err)

	rec, err := store.GetRecord(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, "Emma", rec.Title)
	assert.Equal(t, 1815, rec.Year)
	assert.Equal(t, "9780141439587", rec.ISBN)
	assert.Equal(t, "http://example.com/emma.jpg", rec.CoverURL)
}

func TestLoadFileCSVSkipsInvalidRows(t *testing.T) {
	path := writeCSVCorpus(t, `book_id,title,published_year
1,The Hobbit,1937
,Missing ID,1950
2,Dune,not-a-year
3,Emma,1815
`)

	store, err := LoadFile(path)
	require.NoError(t, err)

	records, err := store.All(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "1", records[0].ID)
	assert.Equal(t, "3", records[1].ID)
}
