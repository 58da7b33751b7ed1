package catalog

import (
	"fmt"
	"strconv"

	"github.com/lepinkainen/alexandria/internal/book"
	"github.com/lepinkainen/alexandria/internal/csvutil"
)

// loadCSVCorpus reads a corpus from a library-export style CSV file. Column
// names follow the same aliases the JSON decoder accepts, so the same corpus
// can move between formats.
func loadCSVCorpus(path string) ([]book.Record, error) {
	return csvutil.ProcessCSV(path, parseCSVRecord, csvutil.ProcessorOptions{SkipInvalid: true})
}

func parseCSVRecord(row csvutil.Row) (book.Record, error) {
	id := firstValue(row, "book_id", "id")
	title := row.Get("title")
	if id == "" || title == "" {
		return book.Record{}, fmt.Errorf("record missing id or title")
	}

	rec := book.Record{
		ID:          id,
		Title:       title,
		Authors:     book.SplitNames(firstValue(row, "author", "authors")),
		Description: row.Get("description"),
		Genres:      book.SplitNames(firstValue(row, "genres", "categories")),
		Language:    firstValue(row, "language", "language_code"),
		ISBN:        firstValue(row, "clean_isbn", "isbn", "isbn13"),
		CoverURL:    firstValue(row, "cover_url", "thumbnail"),
	}

	if year := firstValue(row, "published_year", "year"); year != "" {
		n, err := strconv.Atoi(year)
		if err != nil {
			return book.Record{}, fmt.Errorf("invalid year %q: %w", year, err)
		}
		rec.Year = n
	}
	if rating := firstValue(row, "average_rating", "rating"); rating != "" {
		f, err := strconv.ParseFloat(rating, 64)
		if err != nil {
			return book.Record{}, fmt.Errorf("invalid rating %q: %w", rating, err)
		}
		rec.Rating = f
	}
	if count := row.Get("ratings_count"); count != "" {
		if n, err := strconv.Atoi(count); err == nil {
			rec.RatingsCount = n
		}
	}
	if pages := firstValue(row, "num_pages", "pages"); pages != "" {
		if n, err := strconv.Atoi(pages); err == nil {
			rec.Pages = n
		}
	}

	return rec, nil
}

func firstValue(row csvutil.Row, names ...string) string {
	for _, name := range names {
		if v := row.Get(name); v != "" {
			return v
		}
	}
	return ""
}
