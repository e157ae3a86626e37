package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		name              string
		page, total, size int
		want              int
	}{
		{"in range", 1, 25, 10, 1},
		{"last page", 2, 25, 10, 2},
		{"past end", 5, 25, 10, 2},
		{"shrunk to one page", 2, 7, 10, 0},
		{"empty list", 3, 0, 10, 0},
		{"exact multiple", 2, 20, 10, 1},
		{"negative", -1, 25, 10, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clamp(tt.page, tt.total, tt.size))
		})
	}
}

func TestPageCount(t *testing.T) {
	assert.Equal(t, 3, PageCount(25, 10))
	assert.Equal(t, 2, PageCount(20, 10))
	assert.Equal(t, 0, PageCount(0, 10))
	assert.Equal(t, 0, PageCount(5, 0))
}

func TestCommit(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		current     int
		wantPage    int
		wantDisplay string
		wantOK      bool
	}{
		{"valid", "2", 0, 1, "2", true},
		{"padded", " 3 ", 0, 2, "3", true},
		{"beyond last page reverts", "4", 0, 0, "1", false},
		{"zero reverts", "0", 1, 1, "2", false},
		{"garbage reverts", "abc", 2, 2, "3", false},
		{"empty reverts", "", 1, 1, "2", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, display, ok := Commit(tt.input, tt.current, 25, 10)
			assert.Equal(t, tt.wantPage, page)
			assert.Equal(t, tt.wantDisplay, display)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestSlice(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	assert.Equal(t, []int{1, 2}, Slice(items, 0, 2))
	assert.Equal(t, []int{5}, Slice(items, 2, 2))
	assert.Nil(t, Slice(items, 3, 2))
	assert.Nil(t, Slice(items, 0, 0))
}
