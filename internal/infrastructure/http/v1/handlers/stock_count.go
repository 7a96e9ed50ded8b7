package handlers

import (
	"github.com/gin-gonic/gin"

	"inventra/internal/core/apperror"
	"inventra/internal/core/id"
	"inventra/internal/domain/documents/stockcount"
)

// StockCountHandler serves physical stock count documents.
type StockCountHandler struct {
	*BaseHandler
	service *stockcount.Service
}

func NewStockCountHandler(base *BaseHandler, service *stockcount.Service) *StockCountHandler {
	return &StockCountHandler{BaseHandler: base, service: service}
}

// RegisterRoutes mounts stock count endpoints on the given group.
// Counts are never deleted; a posted count is part of the audit trail.
func (h *StockCountHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.POST("/:id/post", h.Post)
}

func (h *StockCountHandler) Create(c *gin.Context) {
	doc := stockcount.New(id.Nil())
	if !h.BindJSON(c, doc) {
		return
	}
	doc.Status = stockcount.StatusDraft
	doc.AdjustmentID = nil
	doc.PostedAt = nil
	doc.PostedBy = ""
	normalizeCountLines(doc)

	if err := h.service.Create(c.Request.Context(), doc); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, doc)
}

func (h *StockCountHandler) Get(c *gin.Context) {
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

func (h *StockCountHandler) Update(c *gin.Context) {
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
	normalizeCountLines(doc)

	if err := h.service.Update(c.Request.Context(), doc); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

func (h *StockCountHandler) List(c *gin.Context) {
	filter := stockcount.ListFilter{
		ListFilter: h.baseListFilter(c),
		BranchID:   queryID(c, "branchId"),
		DateFrom:   queryTime(c, "dateFrom"),
		DateTo:     queryTime(c, "dateTo"),
	}
	if v := c.Query("status"); v != "" {
		status := stockcount.Status(v)
		filter.Status = &status
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Post handles POST /stock-counts/:id/post. The response carries the posted
// count plus the variance adjustment when one was generated.
func (h *StockCountHandler) Post(c *gin.Context) {
	docID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid document id"))
		return
	}

	result, err := h.service.Post(c.Request.Context(), docID, h.ActorID(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

func normalizeCountLines(doc *stockcount.StockCount) {
	for i := range doc.Lines {
		if id.IsNil(doc.Lines[i].LineID) {
			doc.Lines[i].LineID = id.New()
		}
		doc.Lines[i].LineNo = i + 1
	}
}
