package postgres

import "math"

// pageOffset returns the OFFSET of a zero-based page. ok is false for a
// negative page or when page*pageSize overflows int; either page is empty.
func pageOffset(page, pageSize int) (offset int, ok bool) {
	if page < 0 || pageSize <= 0 || page > math.MaxInt64/pageSize {
		return 0, false
	}
	return page * pageSize, true
}
