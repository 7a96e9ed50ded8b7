package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"inventra/internal/core/id"
	"inventra/internal/domain"
)

// baseListFilter extracts the pagination and search params shared by all
// document list endpoints.
func (h *BaseHandler) baseListFilter(c *gin.Context) domain.ListFilter {
	filter := domain.DefaultListFilter()
	filter.OrderBy = "-date"

	if v := c.Query("search"); v != "" {
		filter.Search = v
	}
	if v := c.Query("orderBy"); v != "" {
		filter.OrderBy = v
	}
	filter.Limit = h.ParseIntQuery(c, "limit", filter.Limit)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.IncludeDeleted = c.Query("includeDeleted") == "true"

	return filter
}

// queryID parses an optional UUID query parameter; malformed values are
// treated as absent.
func queryID(c *gin.Context, key string) *id.ID {
	v := c.Query(key)
	if v == "" {
		return nil
	}
	parsed, err := id.Parse(v)
	if err != nil {
		return nil
	}
	return &parsed
}

// queryTime parses an optional RFC 3339 timestamp query parameter.
func queryTime(c *gin.Context, key string) *time.Time {
	v := c.Query(key)
	if v == "" {
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil
	}
	return &parsed
}
