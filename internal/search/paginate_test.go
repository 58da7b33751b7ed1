package search

import (
	"testing"

	"github.com/alecthomas/assert/v2"
)

func intRange(n int) []int {
	items := make([]int, n)
	for i := range items {
		items[i] = i + 1
	}
	return items
}

func TestPaginate(t *testing.T) {
	page := Paginate(intRange(25), 12, 3)
	assert.Equal(t, []int{25}, page.Items)
	assert.Equal(t, 3, page.Number)
	assert.Equal(t, 3, page.TotalPages)

	page = Paginate(intRange(25), 12, 1)
	assert.Equal(t, 12, len(page.Items))
	assert.Equal(t, 1, page.Items[0])
	assert.Equal(t, 12, page.Items[11])
}

func TestPaginateClampsPageNumber(t *testing.T) {
	page := Paginate(intRange(25), 12, 99)
	assert.Equal(t, 3, page.Number)
	assert.Equal(t, []int{25}, page.Items)

	page = Paginate(intRange(25), 12, 0)
	assert.Equal(t, 1, page.Number)

	page = Paginate(intRange(25), 12, -4)
	assert.Equal(t, 1, page.Number)
}

func TestPaginateEmptyList(t *testing.T) {
	page := Paginate([]int{}, 12, 1)
	assert.Equal(t, 0, len(page.Items))
	assert.Equal(t, 1, page.Number)
	assert.Equal(t, 0, page.TotalPages)
}

func TestPaginateExactMultiple(t *testing.T) {
	page := Paginate(intRange(24), 12, 2)
	assert.Equal(t, 2, page.TotalPages)
	assert.Equal(t, 12, len(page.Items))
	assert.Equal(t, 24, page.Items[11])
}

func TestPageWindow(t *testing.T) {
	tests := []struct {
		name    string
		current int
		total   int
		want    []int
	}{
		{"few pages", 1, 3, []int{1, 2, 3}},
		{"start of many", 2, 10, []int{1, 2, 3, 4, 5}},
		{"middle of many", 6, 10, []int{4, 5, 6, 7, 8}},
		{"end of many", 9, 10, []int{6, 7, 8, 9, 10}},
		{"single page", 1, 1, []int{1}},
		{"no pages", 1, 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PageWindow(tt.current, tt.total))
		})
	}
}
