package handlers

import (
	"github.com/gin-gonic/gin"

	"inventra/internal/core/apperror"
	"inventra/internal/core/id"
	"inventra/internal/core/types"
	"inventra/internal/domain/ledger"
)

// StockHandler serves ledger queries: balances, entries and availability.
type StockHandler struct {
	*BaseHandler
	repo   ledger.Repository
	writer *ledger.Writer
}

func NewStockHandler(base *BaseHandler, repo ledger.Repository, writer *ledger.Writer) *StockHandler {
	return &StockHandler{
		BaseHandler: base,
		repo:        repo,
		writer:      writer,
	}
}

// RegisterRoutes mounts the stock query endpoints on the given group.
func (h *StockHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/balances", h.GetBalances)
	rg.GET("/entries", h.GetEntries)
	rg.GET("/availability/:productId", h.GetAvailability)
}

// GetBalances handles GET /stock/balances?branchId=...
func (h *StockHandler) GetBalances(c *gin.Context) {
	branchID, err := id.Parse(c.Query("branchId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("branchId is required").WithDetail("field", "branchId"))
		return
	}

	snapshots, err := h.repo.ListSnapshotsByBranch(c.Request.Context(), branchID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": snapshots})
}

// GetEntries handles GET /stock/entries with optional filters.
func (h *StockHandler) GetEntries(c *gin.Context) {
	filter := ledger.EntryFilter{
		SourceType: c.Query("sourceType"),
		Movement:   c.Query("movement"),
		Limit:      h.ParseIntQuery(c, "limit", 100),
		Offset:     h.ParseIntQuery(c, "offset", 0),
	}

	filter.BranchID = queryID(c, "branchId")
	filter.ProductID = queryID(c, "productId")
	filter.SourceID = queryID(c, "sourceId")
	filter.FromDate = queryTime(c, "dateFrom")
	filter.ToDate = queryTime(c, "dateTo")

	entries, err := h.repo.ListEntries(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"items": entries})
}

// GetAvailability handles GET /stock/availability/:productId?branchId=...&required=...
func (h *StockHandler) GetAvailability(c *gin.Context) {
	productID, err := id.Parse(c.Param("productId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid product id"))
		return
	}
	branchID, err := id.Parse(c.Query("branchId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("branchId is required").WithDetail("field", "branchId"))
		return
	}

	balance, err := h.writer.Balance(c.Request.Context(), branchID, productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	response := gin.H{
		"productId": productID,
		"branchId":  branchID,
		"onHand":    balance,
	}

	if v := c.Query("required"); v != "" {
		required, err := types.ParseQuantity(v)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid required quantity"))
			return
		}
		response["required"] = required
		response["available"] = balance >= required
	}

	h.OK(c, response)
}
