// Package pagination keeps a page index valid over a list whose length changes.
package pagination

import (
	"strconv"
	"strings"
)

// PageCount returns ceil(total/size). A non-positive size yields zero pages.
func PageCount(total, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// Clamp returns page limited to the last valid page, floored at 0.
func Clamp(page, total, size int) int {
	last := PageCount(total, size) - 1
	if page > last {
		page = last
	}
	if page < 0 {
		page = 0
	}
	return page
}

// Commit applies a 1-based page number typed by the user. A valid input yields the 0-based
// page; anything else leaves current in place and resets the displayed input to it. Out of
// range input is rejected, not clamped.
func Commit(input string, current, total, size int) (page int, display string, ok bool) {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || n < 1 || n > PageCount(total, size) {
		return current, strconv.Itoa(current + 1), false
	}
	return n - 1, strconv.Itoa(n), true
}

// Slice returns the items on page.
func Slice[T any](items []T, page, size int) []T {
	if size <= 0 || page < 0 {
		return nil
	}
	start := page * size
	if start >= len(items) {
		return nil
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
