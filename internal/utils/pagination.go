package utils

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Pagination holds pagination parameters.
type Pagination struct {
	Page   int
	Limit  int
	Offset int
}

// ParsePagination reads page and limit query params. Limit is capped at 100.
func ParsePagination(c *fiber.Ctx) Pagination {
	page := parseInt(c.Query("page"), 1)
	limit := parseInt(c.Query("limit"), defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if page <= 0 {
		page = 1
	}

	return Pagination{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}

// Meta is the pagination block list responses carry.
func (p Pagination) Meta(total int64) fiber.Map {
	return fiber.Map{
		"current_page":   p.Page,
		"items_per_page": p.Limit,
		"total_items":    total,
		"total_pages":    (total + int64(p.Limit) - 1) / int64(p.Limit),
	}
}

func parseInt(value string, fallback int) int {
	if parsed, err := strconv.Atoi(value); err == nil {
		return parsed
	}
	return fallback
}
