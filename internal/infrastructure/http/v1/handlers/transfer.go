package handlers

import (
	"github.com/gin-gonic/gin"

	"inventra/internal/core/apperror"
	"inventra/internal/core/id"
	"inventra/internal/domain/documents/transfer"
)

// TransferHandler serves inter-branch transfer documents.
type TransferHandler struct {
	*BaseHandler
	service *transfer.Service
}

func NewTransferHandler(base *BaseHandler, service *transfer.Service) *TransferHandler {
	return &TransferHandler{BaseHandler: base, service: service}
}

// RegisterRoutes mounts transfer endpoints on the given group.
func (h *TransferHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.Get)
	rg.PUT("/:id", h.Update)
	rg.POST("/:id/dispatch", h.Dispatch)
	rg.POST("/:id/receive", h.Receive)
}

func (h *TransferHandler) Create(c *gin.Context) {
	doc := transfer.New(id.Nil(), id.Nil())
	if !h.BindJSON(c, doc) {
		return
	}
	doc.Status = transfer.StatusDraft
	doc.DispatchedAt = nil
	doc.ReceivedAt = nil
	normalizeTransferLines(doc)

	if err := h.service.Create(c.Request.Context(), doc); err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, doc)
}

func (h *TransferHandler) Get(c *gin.Context) {
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

func (h *TransferHandler) Update(c *gin.Context) {
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
	normalizeTransferLines(doc)

	if err := h.service.Update(c.Request.Context(), doc); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

func (h *TransferHandler) List(c *gin.Context) {
	filter := transfer.ListFilter{
		ListFilter:   h.baseListFilter(c),
		FromBranchID: queryID(c, "fromBranchId"),
		ToBranchID:   queryID(c, "toBranchId"),
		DateFrom:     queryTime(c, "dateFrom"),
		DateTo:       queryTime(c, "dateTo"),
	}
	if v := c.Query("status"); v != "" {
		status := transfer.Status(v)
		filter.Status = &status
	}

	result, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Dispatch handles POST /transfers/:id/dispatch.
func (h *TransferHandler) Dispatch(c *gin.Context) {
	docID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid document id"))
		return
	}

	doc, err := h.service.Dispatch(c.Request.Context(), docID, h.ActorID(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

// Receive handles POST /transfers/:id/receive.
func (h *TransferHandler) Receive(c *gin.Context) {
	docID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid document id"))
		return
	}

	doc, err := h.service.Receive(c.Request.Context(), docID, h.ActorID(c))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, doc)
}

func normalizeTransferLines(doc *transfer.Transfer) {
	for i := range doc.Lines {
		if id.IsNil(doc.Lines[i].LineID) {
			doc.Lines[i].LineID = id.New()
		}
		doc.Lines[i].LineNo = i + 1
	}
}
