package book

import (
	"math"
	"strings"
)

// Metadata holds secondary-source details for a single book, fetched from a
// slower external catalogue (or synthesized locally when the primary record
// already carries the answers).
type Metadata struct {
	Subtitle       string   `json:"subtitle,omitempty"`
	Publisher      string   `json:"publisher,omitempty"`
	PublishedDate  string   `json:"published_date,omitempty"`
	PageCount      int      `json:"page_count,omitempty"`
	RatingsCount   int      `json:"ratings_count,omitempty"`
	Language       string   `json:"language,omitempty"`
	PrintType      string   `json:"print_type,omitempty"`
	Categories     []string `json:"categories,omitempty"`
	MaturityRating string   `json:"maturity_rating,omitempty"`
}

// ReadingTime is a rough reading-duration estimate derived from page count.
type ReadingTime struct {
	Hours   int
	Minutes int
}

const (
	wordsPerPage   = 300
	wordsPerMinute = 250
)

// EstimateReadingTime converts a page count into an hours/minutes estimate
// assuming 300 words per page at 250 words per minute.
func EstimateReadingTime(pageCount int) ReadingTime {
	if pageCount <= 0 {
		return ReadingTime{}
	}
	totalMinutes := int(math.Ceil(float64(pageCount*wordsPerPage) / wordsPerMinute))
	return ReadingTime{
		Hours:   totalMinutes / 60,
		Minutes: totalMinutes % 60,
	}
}

// languageNames maps ISO language codes to display names.
var languageNames = map[string]string{
	"en": "English",
	"vi": "Vietnamese",
	"fr": "French",
	"es": "Spanish",
	"de": "German",
	"zh": "Chinese",
	"ja": "Japanese",
	"ko": "Korean",
	"ru": "Russian",
	"ar": "Arabic",
	"pt": "Portuguese",
	"it": "Italian",
	"fi": "Finnish",
	"sv": "Swedish",
}

// FormatLanguage converts a language code to a readable name, falling back to
// "Unknown" for codes outside the table.
func FormatLanguage(code string) string {
	if name, ok := languageNames[strings.ToLower(code)]; ok {
		return name
	}
	return "Unknown"
}

// FormatPrintType renders a Google Books print type for display.
func FormatPrintType(printType string) string {
	if printType == "" || printType == "BOOK" {
		return "Book"
	}
	return printType
}
