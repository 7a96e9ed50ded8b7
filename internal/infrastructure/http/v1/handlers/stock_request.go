package handlers

import (
	"github.com/gin-gonic/gin"

	"inventra/internal/core/apperror"
	"inventra/internal/core/id"
	"inventra/internal/core/types"
	"inventra/internal/domain/documents/stockrequest"
)

// StockRequestHandler serves branch supply requests and their approval
// workflow.
type StockRequestHandler struct {
	*BaseHandler
	service *stockrequest.Service
}

func NewStockRequestHandler(base *BaseHandler, service *stockrequest.Service) *StockRequestHandler {
	return &StockRequestHandler{BaseHandler: base, service: service}
}

// RegisterRoutes mounts stock request endpoints on the given group.
func (h *StockRequestHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.POST("/:id/submit", h.Submit)
	rg.POST("/:id/approve", h.Approve)
}

func (h *StockRequestHandler) Create(c *gin.Context) {
	doc := stockrequest.New(id.Nil())
	if !h.BindJSON(c, doc) {
		return
	}
	doc.Status = stockrequest.StatusDraft
	doc.SubmittedAt = nil
	doc.SubmittedBy = ""
	doc.ApprovedAt = nil
	doc.ApprovedBy = ""
	normalizeRequestLines(doc)

	if err := h.service.Create(c.Request.Context(), doc); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, doc)
}

func (h *StockRequestHandler) Get(c *gin.Context) {
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

func (h *StockRequestHandler) Update(c *gin.Context) {
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
	normalizeRequestLines(doc)

	if err := h.service.Update(c.Request.Context(), doc); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

func (h *StockRequestHandler) List(c *gin.Context) {
	filter := stockrequest.ListFilter{
		ListFilter: h.baseListFilter(c),
		BranchID:   queryID(c, "branchId"),
		DateFrom:   queryTime(c, "dateFrom"),
		DateTo:     queryTime(c, "dateTo"),
	}
	if v := c.Query("status"); v != "" {
		status := stockrequest.Status(v)
		filter.Status = &status
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Submit handles POST /stock-requests/:id/submit.
func (h *StockRequestHandler) Submit(c *gin.Context) {
	docID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid document id"))
		return
	}

	doc, err := h.service.Submit(c.Request.Context(), docID, h.ActorID(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

type approveRequest struct {
	// ApprovedByLine maps line ids to approved quantities. Lines omitted
	// here are approved at zero.
	ApprovedByLine map[id.ID]types.Quantity `json:"approvedByLine"`
	SupplyBranchID *id.ID                   `json:"supplyBranchId"`
}

// Approve handles POST /stock-requests/:id/approve and returns the draft
// transfer created from the approved lines.
func (h *StockRequestHandler) Approve(c *gin.Context) {
	docID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid document id"))
		return
	}

	var req approveRequest
	if !h.BindJSON(c, &req) {
		return
	}

	created, err := h.service.ApproveAndCreateTransfer(
		c.Request.Context(), docID, req.ApprovedByLine, req.SupplyBranchID, h.ActorID(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"transfer": created})
}

func normalizeRequestLines(doc *stockrequest.StockRequest) {
	for i := range doc.Lines {
		if id.IsNil(doc.Lines[i].LineID) {
			doc.Lines[i].LineID = id.New()
		}
		doc.Lines[i].LineNo = i + 1
	}
}
