package service

import "math"

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// normalizePage applies the 1-indexed page and bounded limit defaults.
func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return page, limit
}

// pageOffset saturates at math.MaxInt so a huge page lands past the data
// instead of wrapping to a negative offset, which GORM would drop.
func pageOffset(page, limit int) int {
	if limit > 0 && page-1 > math.MaxInt/limit {
		return math.MaxInt
	}
	return (page - 1) * limit
}
