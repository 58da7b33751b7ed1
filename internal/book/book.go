// Package book defines the core domain types for the discovery pipeline:
// records, filter sets, ranked results and secondary metadata.
package book

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// LanguageUnknown is the sentinel language for records without a language code.
const LanguageUnknown = "unknown"

// LanguageAll is the filter value that disables language filtering.
const LanguageAll = "All"

// Record represents a single book in the corpus.
//
// Identity is immutable once assigned. All other fields may be replaced
// wholesale via ReplaceWith when a fuller copy arrives from the record store.
type Record struct {
	ID string `json:"id"`

	Title       string   `json:"title"`
	Authors     []string `json:"authors"`
	Description string   `json:"description,omitempty"`
	Genres      []string `json:"genres,omitempty"`
	Year        int      `json:"year,omitempty"`
	Language    string   `json:"language,omitempty"`

	Rating       float64 `json:"rating,omitempty"`
	RatingsCount int     `json:"ratings_count,omitempty"`

	ISBN        string `json:"isbn,omitempty"`
	Pages       int    `json:"pages,omitempty"`
	CoverURL    string `json:"cover_url,omitempty"`
	PreviewLink string `json:"preview_link,omitempty"`

	// AI-extracted fields, display only. Never used for scoring or filtering.
	Characters string `json:"extracted_characters,omitempty"`
	Settings   string `json:"extracted_settings,omitempty"`
}

// NewPlaceholder returns a record stub carrying only an identifier.
// Placeholders are produced when a book is reached through a recommendation
// link rather than a search result, and are resolved against the record store
// before enrichment.
func NewPlaceholder(id string) Record {
	return Record{ID: id}
}

// IsPlaceholder reports whether the record is an unresolved stub.
func (r Record) IsPlaceholder() bool {
	return r.Title == ""
}

// HasRating reports whether the record carries a rating from the corpus.
// An absent rating is stored as zero but must not be displayed as "0.0".
func (r Record) HasRating() bool {
	return r.Rating > 0
}

// EffectiveLanguage returns the record's language, defaulting to "en" when
// the corpus did not provide one.
func (r Record) EffectiveLanguage() string {
	if r.Language == "" || r.Language == LanguageUnknown {
		return "en"
	}
	return r.Language
}

// Author returns the authors joined for display.
func (r Record) Author() string {
	return strings.Join(r.Authors, ", ")
}

// ReplaceWith replaces every field of the record with those of full, provided
// the identities match. A mismatched identity is rejected so a stale fetch can
// never relabel a record.
func (r *Record) ReplaceWith(full Record) error {
	if full.ID != r.ID {
		return fmt.Errorf("%w: have %q, got %q", ErrIdentityMismatch, r.ID, full.ID)
	}
	*r = full
	return nil
}

// UnmarshalJSON decodes a record from any of the field spellings the backend
// and legacy exports use (bookID/book_id, average_rating/rating,
// clean_isbn/isbn, google_category/categories, published_year/year).
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID        json.RawMessage `json:"id"`
		BookID    json.RawMessage `json:"bookID"`
		BookIDAlt json.RawMessage `json:"book_id"`

		Title       string          `json:"title"`
		Authors     json.RawMessage `json:"authors"`
		Description string          `json:"description"`

		Genres         json.RawMessage `json:"genres"`
		Categories     json.RawMessage `json:"categories"`
		GoogleCategory json.RawMessage `json:"google_category"`

		Year          json.RawMessage `json:"year"`
		PublishedYear json.RawMessage `json:"published_year"`

		Language string `json:"language"`

		Rating        *float64 `json:"rating"`
		AverageRating *float64 `json:"average_rating"`
		RatingsCount  int      `json:"ratings_count"`

		ISBN      string `json:"isbn"`
		CleanISBN string `json:"clean_isbn"`

		Pages    int    `json:"pages"`
		NumPages int    `json:"num_pages"`

		CoverURL    string `json:"cover_url"`
		Thumbnail   string `json:"thumbnail"`
		PreviewLink string `json:"preview_link"`

		Characters string `json:"extracted_characters"`
		Settings   string `json:"extracted_settings"`
	}

	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	r.ID = firstScalar(raw.ID, raw.BookID, raw.BookIDAlt)
	r.Title = raw.Title
	r.Authors = decodeNames(raw.Authors)
	r.Description = raw.Description
	r.Genres = decodeNames(firstRaw(raw.Genres, raw.Categories, raw.GoogleCategory))
	r.Year = decodeYear(firstRaw(raw.Year, raw.PublishedYear))
	r.Language = raw.Language

	switch {
	case raw.Rating != nil:
		r.Rating = *raw.Rating
	case raw.AverageRating != nil:
		r.Rating = *raw.AverageRating
	}
	r.RatingsCount = raw.RatingsCount

	r.ISBN = firstNonEmpty(raw.ISBN, raw.CleanISBN)
	r.Pages = raw.Pages
	if r.Pages == 0 {
		r.Pages = raw.NumPages
	}
	r.CoverURL = firstNonEmpty(raw.CoverURL, raw.Thumbnail)
	r.PreviewLink = raw.PreviewLink
	r.Characters = raw.Characters
	r.Settings = raw.Settings

	return nil
}

// firstRaw returns the first non-empty raw JSON value.
func firstRaw(values ...json.RawMessage) json.RawMessage {
	for _, v := range values {
		if len(v) > 0 && string(v) != "null" {
			return v
		}
	}
	return nil
}

// firstScalar decodes the first non-empty raw value as a string, accepting
// either a JSON string or a JSON number.
func firstScalar(values ...json.RawMessage) string {
	raw := firstRaw(values...)
	if raw == nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// decodeNames accepts either a JSON array of strings or a single delimited
// string ("A. Author/B. Author" or "Fantasy, Fiction").
func decodeNames(raw json.RawMessage) []string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return trimNonEmpty(list)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return SplitNames(s)
	}
	return nil
}

// SplitNames splits a delimited name list on "/" and "," separators.
func SplitNames(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == '/' || r == ','
	})
	return trimNonEmpty(parts)
}

func trimNonEmpty(parts []string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func decodeYear(raw json.RawMessage) int {
	if raw == nil {
		return 0
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		// Published year sometimes arrives as "1997" or "1997-06-26".
		if len(s) > 4 {
			s = s[:4]
		}
		if y, err := strconv.Atoi(s); err == nil {
			return y
		}
	}
	return 0
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
