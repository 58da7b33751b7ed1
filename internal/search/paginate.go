package search

// Page is one slice of a sorted result list along with navigation state.
type Page[T any] struct {
	Items      []T `json:"items"`
	Number     int `json:"page"`
	TotalPages int `json:"total_pages"`
}

// Paginate slices a list into fixed-size, 1-indexed pages. Out-of-range page
// numbers clamp into [1, totalPages]. An empty list yields a single empty
// page so callers always get a valid page number back.
func Paginate[T any](items []T, pageSize, page int) Page[T] {
	if pageSize < 1 {
		pageSize = 1
	}

	totalPages := (len(items) + pageSize - 1) / pageSize
	if totalPages == 0 {
		return Page[T]{Items: nil, Number: 1, TotalPages: 0}
	}

	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * pageSize
	end := min(start+pageSize, len(items))

	return Page[T]{
		Items:      items[start:end],
		Number:     page,
		TotalPages: totalPages,
	}
}

// maxPageWindow is the number of page buttons shown at once.
const maxPageWindow = 5

// PageWindow returns the page numbers to offer as direct navigation targets:
// at most five, centred on the current page, shifted at either edge.
func PageWindow(current, totalPages int) []int {
	if totalPages < 1 {
		return nil
	}

	count := min(totalPages, maxPageWindow)
	window := make([]int, count)
	for i := range window {
		switch {
		case totalPages <= maxPageWindow:
			window[i] = i + 1
		case current <= 3:
			window[i] = i + 1
		case current >= totalPages-2:
			window[i] = totalPages - (maxPageWindow - 1) + i
		default:
			window[i] = current - 2 + i
		}
	}
	return window
}
