package handler

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"
)

const (
	// DefaultPageSize is the default number of items per page.
	DefaultPageSize = 25
	// MaxPageSize caps the pageSize query parameter.
	MaxPageSize = 100

	// HeaderTotalCount carries the number of items before pagination.
	HeaderTotalCount = "X-Total-Count"
	// HeaderTotalPages carries the number of pages.
	HeaderTotalPages = "X-Total-Pages"
)

// PaginationParams parses and normalizes the page and pageSize query
// parameters. ok is false when the client did not ask for a page.
func PaginationParams(c fiber.Ctx) (page, pageSize int, ok bool) {
	if c.Query("page") == "" {
		return 0, 0, false
	}

	page = fiber.Query[int](c, "page", 1)
	if page < 1 {
		page = 1
	}

	pageSize = fiber.Query[int](c, "pageSize", DefaultPageSize)
	if pageSize < 1 || pageSize > MaxPageSize {
		pageSize = DefaultPageSize
	}

	return page, pageSize, true
}

// Paginate returns the requested page of items and reports the totals in
// response headers. Without a page parameter all items are returned.
func Paginate[T any](c fiber.Ctx, items []T) []T {
	c.Set(HeaderTotalCount, strconv.Itoa(len(items)))

	page, pageSize, ok := PaginationParams(c)
	if !ok {
		return items
	}

	totalPages, page := computeTotalPagesAndAdjust(len(items), pageSize, page)
	c.Set(HeaderTotalPages, strconv.Itoa(totalPages))

	start, end := pageSliceBounds(len(items), pageSize, page)

	return items[start:end]
}

// computeTotalPagesAndAdjust computes total pages and adjusts the page into range.
func computeTotalPagesAndAdjust(totalItems, pageSize, page int) (int, int) {
	totalPages := (totalItems + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}

	if page > totalPages {
		page = totalPages
	}

	return totalPages, page
}

// pageSliceBounds calculates start and end indices for slicing a page.
func pageSliceBounds(totalItems, pageSize, page int) (int, int) {
	startIdx := (page - 1) * pageSize

	endIdx := startIdx + pageSize
	if endIdx > totalItems {
		endIdx = totalItems
	}

	if startIdx < 0 {
		startIdx = 0
	}

	if startIdx > endIdx {
		startIdx = endIdx
	}

	return startIdx, endIdx
}

// Contains checks if s contains substr, case-insensitive.
// An empty substr matches nothing.
func Contains(s, substr string) bool {
	if substr == "" {
		return false
	}

	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
