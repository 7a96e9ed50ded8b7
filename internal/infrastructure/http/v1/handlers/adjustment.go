package handlers

import (
	"github.com/gin-gonic/gin"

	"inventra/internal/core/apperror"
	"inventra/internal/core/id"
	"inventra/internal/domain/documents/adjustment"
)

// AdjustmentHandler serves stock adjustment documents.
type AdjustmentHandler struct {
	*BaseHandler
	service *adjustment.Service
}

func NewAdjustmentHandler(base *BaseHandler, service *adjustment.Service) *AdjustmentHandler {
	return &AdjustmentHandler{BaseHandler: base, service: service}
}

// RegisterRoutes mounts adjustment endpoints on the given group.
func (h *AdjustmentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.DELETE("/:id", h.Delete)
	rg.POST("/:id/post", h.Post)
}

func (h *AdjustmentHandler) Create(c *gin.Context) {
	doc := adjustment.New(id.Nil(), "")
	if !h.BindJSON(c, doc) {
		return
	}
	doc.Status = adjustment.StatusDraft
	doc.PostedAt = nil
	doc.PostedBy = ""
	normalizeAdjustmentLines(doc)

	if err := h.service.Create(c.Request.Context(), doc); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, doc)
}

func (h *AdjustmentHandler) Get(c *gin.Context) {
	docID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid document id"))
		return
	}

	doc, err := h.service.GetByID(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

func (h *AdjustmentHandler) Update(c *gin.Context) {
	docID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid document id"))
		return
	}

	doc, err := h.service.GetByID(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}

	if !h.BindJSON(c, doc) {
		return
	}
	doc.ID = docID
	normalizeAdjustmentLines(doc)

	if err := h.service.Update(c.Request.Context(), doc); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

func (h *AdjustmentHandler) Delete(c *gin.Context) {
	docID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid document id"))
		return
	}

	if err := h.service.Delete(c.Request.Context(), docID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

func (h *AdjustmentHandler) List(c *gin.Context) {
	filter := adjustment.ListFilter{
		ListFilter: h.baseListFilter(c),
		BranchID:   queryID(c, "branchId"),
		DateFrom:   queryTime(c, "dateFrom"),
		DateTo:     queryTime(c, "dateTo"),
	}
	if v := c.Query("status"); v != "" {
		status := adjustment.Status(v)
		filter.Status = &status
	}
	if v := c.Query("reason"); v != "" {
		filter.Reason = &v
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Post handles POST /adjustments/:id/post.
func (h *AdjustmentHandler) Post(c *gin.Context) {
	docID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid document id"))
		return
	}

	doc, err := h.service.Post(c.Request.Context(), docID, h.ActorID(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

// normalizeAdjustmentLines assigns ids and sequential numbers to lines the
// client sent without them.
func normalizeAdjustmentLines(doc *adjustment.Adjustment) {
	for i := range doc.Lines {
		if id.IsNil(doc.Lines[i].LineID) {
			doc.Lines[i].LineID = id.New()
		}
		doc.Lines[i].LineNo = i + 1
	}
}
