package utils

import (
	"math"
	"net/url"
	"strconv"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100

	// MaxPage keeps (page-1)*limit inside a Postgres int4 OFFSET.
	MaxPage = math.MaxInt32 / MaxPageLimit
)

// Paginate clamps page to 1..MaxPage and limit to 1..MaxPageLimit.
func Paginate(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		page = MaxPage
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return page, limit
}

// ParsePagination reads page and limit from a query string. Garbage falls back to defaults.
func ParsePagination(q url.Values) (int, int) {
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	return Paginate(page, limit)
}

func Offset(page, limit int) int {
	page, limit = Paginate(page, limit)
	return (page - 1) * limit
}
