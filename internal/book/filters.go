package book

// FilterSet is the user's active constraint snapshot. It is a pure value:
// the ranking layer never mutates one, callers build a fresh set per action.
type FilterSet struct {
	// Genres restricts results to records whose category labels contain at
	// least one of the selected genres (case-insensitive substring match).
	// Empty means no genre restriction.
	Genres []string

	// Author is a free-text substring matched case-insensitively against the
	// record's author names. Empty means unrestricted.
	Author string

	// MinRating excludes records rated below the threshold. Records with no
	// rating fail whenever a nonzero threshold is set.
	MinRating float64

	// YearMin and YearMax bound the publication year inclusively. A zero
	// bound leaves that side open; the restriction is active when either is
	// set, and records with no known year fail it.
	YearMin int
	YearMax int

	// Language selects a single language code, or LanguageAll for no
	// restriction. The comparison against the record's language is exact.
	Language string
}

// YearRestricted reports whether a publication-year restriction is active.
func (f FilterSet) YearRestricted() bool {
	return f.YearMin > 0 || f.YearMax > 0
}

// LanguageRestricted reports whether a language restriction is active.
func (f FilterSet) LanguageRestricted() bool {
	return f.Language != "" && f.Language != LanguageAll
}

// IsZero reports whether the filter set is all defaults, which matches every
// record.
func (f FilterSet) IsZero() bool {
	return len(f.Genres) == 0 && f.Author == "" && f.MinRating == 0 &&
		!f.YearRestricted() && !f.LanguageRestricted()
}

// RankedResult pairs a record with its relevance score. The ordering over
// ranked results is total: score descending, then original corpus position
// ascending, so equal scores keep a deterministic order.
type RankedResult struct {
	Record Record  `json:"record"`
	Score  float64 `json:"score"`
}
