package util

import "strconv"

const (
	DefaultPerPage = 12
	MaxPerPage     = 100
	// MaxPage keeps page*perPage well inside int32 for backends that compute offsets.
	MaxPage = 1 << 20
)

func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

// Normalize clamps a zero-based page and its size to sane bounds.
func Normalize(page, perPage int) (int, int) {
	if page < 0 {
		page = 0
	}
	if page > MaxPage {
		page = MaxPage
	}
	if perPage <= 0 || perPage > MaxPerPage {
		perPage = DefaultPerPage
	}
	return page, perPage
}

// Window returns the [from, to) slice bounds of a zero-based page over total elements.
func Window(page, perPage, total int) (from, to int) {
	page, perPage = Normalize(page, perPage)
	if total <= 0 {
		return 0, 0
	}
	if page > (total-1)/perPage {
		return total, total
	}
	from = page * perPage
	to = min(from+perPage, total)
	return from, to
}

// LastPage is the zero-based index of the last page; 0 for an empty result.
func LastPage(total int64, perPage int) int {
	if total <= 0 || perPage <= 0 {
		return 0
	}
	return int((total - 1) / int64(perPage))
}
