package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPage(t *testing.T) {
	d := PageDefaults{PerPage: 10, MaxPerPage: 100}

	tests := []struct {
		page, perPage string
		want          Page
	}{
		{"", "", Page{Number: 1, PerPage: 10}},
		{"abc", "xyz", Page{Number: 1, PerPage: 10}},
		{"0", "-5", Page{Number: 1, PerPage: 10}},
		{"4", "25", Page{Number: 4, PerPage: 25}},
		{"2", "1000", Page{Number: 2, PerPage: 100}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NewPage(tt.page, tt.perPage, d), "page=%q per_page=%q", tt.page, tt.perPage)
	}

	assert.Equal(t, Page{Number: 1, PerPage: 10}, NewPage("", "", PageDefaults{}))
}

func TestPageOffset(t *testing.T) {
	assert.Equal(t, 0, Page{Number: 1, PerPage: 10}.Offset())
	assert.Equal(t, 40, Page{Number: 5, PerPage: 10}.Offset())
	assert.Equal(t, 0, Page{Number: 0, PerPage: 10}.Offset())
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(41, Page{Number: 2, PerPage: 10})
	assert.Equal(t, Pagination{TotalRecords: 41, Page: 2, PerPage: 10, TotalPages: 5}, p)
	assert.True(t, p.HasPrevious())
	assert.True(t, p.HasNext())
	assert.Equal(t, 1, p.Previous())
	assert.Equal(t, 3, p.Next())

	empty := NewPagination(0, Page{Number: 1, PerPage: 10})
	assert.Equal(t, int64(0), empty.TotalPages)
	assert.False(t, empty.HasPrevious())
	assert.False(t, empty.HasNext())
	assert.Equal(t, 1, empty.Next())

	last := NewPagination(20, Page{Number: 2, PerPage: 10})
	assert.False(t, last.HasNext())
	assert.Equal(t, 2, last.Next())
}
