package search

import (
	"github.com/lepinkainen/alexandria/internal/book"
)

// MaxFacets bounds the number of category chips offered for refinement.
const MaxFacets = 8

// Facets derives the distinct category labels present in a ranked result
// list, in first-seen order so the most relevant categories stay prominent,
// capped at MaxFacets.
func Facets(results []book.RankedResult) []string {
	seen := make(map[string]bool)
	var facets []string
	for _, r := range results {
		for _, label := range r.Record.Genres {
			if label == "" || seen[label] {
				continue
			}
			seen[label] = true
			facets = append(facets, label)
			if len(facets) == MaxFacets {
				return facets
			}
		}
	}
	return facets
}

// Refine applies category-chip selection on top of an already ranked list.
// A record is kept when any selected category matches any of its labels as a
// case-insensitive substring, so chip changes never require re-querying.
// An empty selection keeps everything.
func Refine(results []book.RankedResult, selected []string) []book.RankedResult {
	if len(selected) == 0 {
		return results
	}

	var kept []book.RankedResult
	for _, r := range results {
		if anyGenreMatch(r.Record.Genres, selected) {
			kept = append(kept, r)
		}
	}
	return kept
}
