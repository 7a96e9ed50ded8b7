package handlers

import (
	"github.com/gin-gonic/gin"

	"inventra/internal/core/apperror"
	"inventra/internal/core/id"
	"inventra/internal/core/types"
	"inventra/internal/domain/documents/salesorder"
)

// SalesOrderHandler serves sales orders and their delivery workflow.
type SalesOrderHandler struct {
	*BaseHandler
	service *salesorder.Service
}

func NewSalesOrderHandler(base *BaseHandler, service *salesorder.Service) *SalesOrderHandler {
	return &SalesOrderHandler{BaseHandler: base, service: service}
}

// RegisterRoutes mounts sales order endpoints on the given group.
func (h *SalesOrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.POST("/:id/confirm", h.Confirm)
	rg.POST("/:id/payments", h.AddPayment)
	rg.POST("/:id/deliver", h.Deliver)
}

func (h *SalesOrderHandler) Create(c *gin.Context) {
	doc := salesorder.New(id.Nil(), "", "")
	if !h.BindJSON(c, doc) {
		return
	}
	doc.Status = salesorder.StatusDraft
	doc.DeliveredAt = nil
	doc.PostedAt = nil
	doc.DeliveredBy = ""
	doc.Payments = doc.Payments[:0]
	normalizeOrderLines(doc)

	if err := h.service.Create(c.Request.Context(), doc); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, doc)
}

func (h *SalesOrderHandler) Get(c *gin.Context) {
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

func (h *SalesOrderHandler) Update(c *gin.Context) {
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

	payments := doc.Payments
	if !h.BindJSON(c, doc) {
		return
	}
	doc.ID = docID
	// Payments are append-only through the payments endpoint.
	doc.Payments = payments
	normalizeOrderLines(doc)

	if err := h.service.Update(c.Request.Context(), doc); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

func (h *SalesOrderHandler) List(c *gin.Context) {
	filter := salesorder.ListFilter{
		ListFilter: h.baseListFilter(c),
		BranchID:   queryID(c, "branchId"),
		DateFrom:   queryTime(c, "dateFrom"),
		DateTo:     queryTime(c, "dateTo"),
	}
	if v := c.Query("status"); v != "" {
		status := salesorder.Status(v)
		filter.Status = &status
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Confirm handles POST /sales-orders/:id/confirm.
func (h *SalesOrderHandler) Confirm(c *gin.Context) {
	docID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid document id"))
		return
	}

	doc, err := h.service.Confirm(c.Request.Context(), docID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

type addPaymentRequest struct {
	Amount types.MinorUnits `json:"amount" binding:"required"`
	Method string           `json:"method" binding:"required"`
}

// AddPayment handles POST /sales-orders/:id/payments.
func (h *SalesOrderHandler) AddPayment(c *gin.Context) {
	docID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid document id"))
		return
	}

	var req addPaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.service.AddPayment(c.Request.Context(), docID, req.Amount, req.Method, h.ActorID(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

// Deliver handles POST /sales-orders/:id/deliver.
func (h *SalesOrderHandler) Deliver(c *gin.Context) {
	docID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid document id"))
		return
	}

	doc, err := h.service.Deliver(c.Request.Context(), docID, h.ActorID(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

// normalizeOrderLines assigns line ids and numbers, recomputes per-line
// amounts from quantity and unit price, and refreshes header totals.
func normalizeOrderLines(doc *salesorder.SalesOrder) {
	for i := range doc.Lines {
		line := &doc.Lines[i]
		if id.IsNil(line.LineID) {
			line.LineID = id.New()
		}
		line.LineNo = i + 1
		line.Amount = types.MinorUnits((line.Quantity.Int64Scaled() * int64(line.UnitPrice)) / types.QuantityScale)
	}
	doc.RecalculateTotals()
}
