package search

import (
	"strings"

	"github.com/lepinkainen/alexandria/internal/book"
)

// Field weights for keyword hits. A keyword matching several fields
// contributes every matching weight.
const (
	titleWeight       = 3
	authorWeight      = 2
	genreWeight       = 2
	descriptionWeight = 1
)

// Tokenize splits a query on whitespace into lower-cased keywords,
// discarding empty tokens.
func Tokenize(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// Score computes the relevance of a record against a query. A score of zero
// means "not a match", not "lowest rank": records scoring zero are excluded
// from results entirely.
func Score(rec book.Record, query string) float64 {
	return scoreKeywords(rec, Tokenize(query))
}

func scoreKeywords(rec book.Record, keywords []string) float64 {
	if len(keywords) == 0 {
		return 0
	}

	title := strings.ToLower(rec.Title)
	author := strings.ToLower(rec.Author())
	description := strings.ToLower(rec.Description)
	genres := make([]string, len(rec.Genres))
	for i, g := range rec.Genres {
		genres[i] = strings.ToLower(g)
	}

	var score float64
	for _, kw := range keywords {
		if strings.Contains(title, kw) {
			score += titleWeight
		}
		if strings.Contains(author, kw) {
			score += authorWeight
		}
		for _, g := range genres {
			if strings.Contains(g, kw) {
				score += genreWeight
				break
			}
		}
		if strings.Contains(description, kw) {
			score += descriptionWeight
		}
	}
	return score
}
