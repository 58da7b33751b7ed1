// Package search implements the result assembly pipeline: filter predicate,
// weighted scorer, ranker, facet extraction and pagination.
package search

import (
	"strings"

	"github.com/lepinkainen/alexandria/internal/book"
)

// Matches reports whether a record satisfies every active constraint in the
// filter set. A filter set at all defaults matches every record.
//
// Note: the language comparison is exact and case-sensitive. The corpus and
// the filter UI both deal in lowercase ISO codes, so normalizing here would
// change observable behaviour; TestMatchesLanguageCaseSensitive pins it.
func Matches(rec book.Record, filters book.FilterSet) bool {
	if filters.MinRating > 0 {
		if !rec.HasRating() || rec.Rating < filters.MinRating {
			return false
		}
	}

	if filters.YearRestricted() {
		if rec.Year == 0 {
			return false
		}
		if filters.YearMin > 0 && rec.Year < filters.YearMin {
			return false
		}
		if filters.YearMax > 0 && rec.Year > filters.YearMax {
			return false
		}
	}

	if filters.LanguageRestricted() {
		if rec.EffectiveLanguage() != filters.Language {
			return false
		}
	}

	if len(filters.Genres) > 0 && !anyGenreMatch(rec.Genres, filters.Genres) {
		return false
	}

	if filters.Author != "" {
		needle := strings.ToLower(filters.Author)
		if !strings.Contains(strings.ToLower(rec.Author()), needle) {
			return false
		}
	}

	return true
}

// anyGenreMatch reports whether any record label contains any selected genre
// as a case-insensitive substring. Many-to-many "any match" semantics, not
// set equality.
func anyGenreMatch(labels, selected []string) bool {
	for _, label := range labels {
		label = strings.ToLower(label)
		for _, genre := range selected {
			if strings.Contains(label, strings.ToLower(genre)) {
				return true
			}
		}
	}
	return false
}
