package search

import (
	"sort"
	"strings"

	"github.com/lepinkainen/alexandria/internal/book"
)

// Rank filters and scores the corpus against a query and returns results in
// a deterministic total order: score descending, original corpus position
// ascending for ties.
//
// An empty (or whitespace-only) query returns no results; enumerating by
// filters alone is the explicit Browse entry point, never a fallthrough.
func Rank(query string, corpus []book.Record, filters book.FilterSet) []book.RankedResult {
	if strings.TrimSpace(query) == "" {
		return nil
	}

	keywords := Tokenize(query)

	var results []book.RankedResult
	for _, rec := range corpus {
		if !Matches(rec, filters) {
			continue
		}
		if score := scoreKeywords(rec, keywords); score > 0 {
			results = append(results, book.RankedResult{Record: rec, Score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	return results
}

// Browse enumerates the corpus by filters alone, preserving corpus order.
// This is the named filter-only mode for queries without search text.
func Browse(corpus []book.Record, filters book.FilterSet) []book.Record {
	var results []book.Record
	for _, rec := range corpus {
		if Matches(rec, filters) {
			results = append(results, rec)
		}
	}
	return results
}
