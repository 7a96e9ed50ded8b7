package handlers

import (
	"github.com/gin-gonic/gin"

	"inventra/internal/core/apperror"
	"inventra/internal/core/entity"
	"inventra/internal/core/id"
	"inventra/internal/domain"
	"inventra/internal/domain/catalogs"
)

// CatalogHandler serves CRUD endpoints for one catalog type. NewEntity must
// return an entity with an initialized base (fresh id and version); request
// bodies overlay the business fields.
type CatalogHandler[T entity.Validatable] struct {
	*BaseHandler
	service   *catalogs.Service[T]
	NewEntity func() T
}

// NewCatalogHandler creates a catalog handler.
func NewCatalogHandler[T entity.Validatable](base *BaseHandler, service *catalogs.Service[T], newEntity func() T) *CatalogHandler[T] {
	return &CatalogHandler[T]{
		BaseHandler: base,
		service:     service,
		NewEntity:   newEntity,
	}
}

// Create handles POST /.
func (h *CatalogHandler[T]) Create(c *gin.Context) {
	item := h.NewEntity()
	if !h.BindJSON(c, item) {
		return
	}

	if err := h.service.Create(c.Request.Context(), item); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, item)
}

// Get handles GET /:id.
func (h *CatalogHandler[T]) Get(c *gin.Context) {
	itemID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	item, err := h.service.GetByID(c.Request.Context(), itemID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, item)
}

// Update handles PUT /:id. The body must carry the current version for
// optimistic locking.
func (h *CatalogHandler[T]) Update(c *gin.Context) {
	itemID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	item, err := h.service.GetByID(c.Request.Context(), itemID)
	if err != nil {
		h.Error(c, err)
		return
	}

	if !h.BindJSON(c, item) {
		return
	}

	if err := h.service.Update(c.Request.Context(), item); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, item)
}

// Delete handles DELETE /:id (soft delete).
func (h *CatalogHandler[T]) Delete(c *gin.Context) {
	itemID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	if err := h.service.Delete(c.Request.Context(), itemID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// List handles GET /.
func (h *CatalogHandler[T]) List(c *gin.Context) {
	filter := domain.DefaultListFilter()
	filter.Search = c.Query("search")
	filter.Limit = h.ParseIntQuery(c, "limit", 50)
	filter.Offset = h.ParseIntQuery(c, "offset", 0)
	filter.OrderBy = c.DefaultQuery("orderBy", "name")
	filter.IncludeDeleted = c.Query("includeDeleted") == "true"

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// RegisterRoutes wires the standard catalog routes onto a group.
func (h *CatalogHandler[T]) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("", h.List)
	group.POST("", h.Create)
	group.GET("/:id", h.Get)
	group.PUT("/:id", h.Update)
	group.DELETE("/:id", h.Delete)
}
