// Package stockcount provides the StockCount document: a physical count
// reconciled against ledger snapshots via a synthesized adjustment.
package stockcount

import (
	"context"
	"time"

	"inventra/internal/core/apperror"
	"inventra/internal/core/entity"
	"inventra/internal/core/id"
	"inventra/internal/core/types"
)

// Status of a stock count.
type Status string

const (
	StatusDraft  Status = "DRAFT"
	StatusPosted Status = "POSTED"
)

// StockCount represents a physical inventory count at one branch.
type StockCount struct {
	entity.Document

	BranchID id.ID  `db:"branch_id" json:"branchId"`
	Status   Status `db:"status" json:"status"`

	// AdjustmentID references the adjustment generated for the variance,
	// nil when the count matched the system exactly.
	AdjustmentID *id.ID `db:"adjustment_id" json:"adjustmentId,omitempty"`

	PostedAt *time.Time `db:"posted_at" json:"postedAt,omitempty"`
	PostedBy string     `db:"posted_by" json:"postedBy,omitempty"`

	Lines []Line `db:"-" json:"lines"`
}

// Line is one counted product.
type Line struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ProductID  id.ID          `db:"product_id" json:"productId"`
	UnitID     *id.ID         `db:"unit_id" json:"unitId,omitempty"`
	CountedQty types.Quantity `db:"counted_qty" json:"countedQty"`
}

// New creates a new DRAFT stock count.
func New(branchID id.ID) *StockCount {
	return &StockCount{
		Document: entity.NewDocument(),
		BranchID: branchID,
		Status:   StatusDraft,
		Lines:    make([]Line, 0),
	}
}

// AddLine appends a counted line.
func (c *StockCount) AddLine(productID id.ID, unitID *id.ID, counted types.Quantity) {
	c.Lines = append(c.Lines, Line{
		LineID:     id.New(),
		LineNo:     len(c.Lines) + 1,
		ProductID:  productID,
		UnitID:     unitID,
		CountedQty: counted,
	})
}

// Validate implements entity.Validatable.
func (c *StockCount) Validate(ctx context.Context) error {
	if err := c.Document.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(c.BranchID) {
		return apperror.NewValidation("branch is required").
			WithDetail("field", "branchId")
	}

	for i, line := range c.Lines {
		if id.IsNil(line.ProductID) {
			return apperror.NewValidation("product is required").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if line.CountedQty.IsNegative() {
			return apperror.NewValidation("counted quantity cannot be negative").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
	}

	return nil
}

// CanModify rejects mutation of posted counts.
func (c *StockCount) CanModify() error {
	if c.Status == StatusPosted || c.PostedAt != nil {
		return apperror.NewBusinessRule(
			apperror.CodeDocumentPosted,
			"Cannot modify posted stock count",
		).WithDetail("stock_count_id", c.ID.String())
	}
	return nil
}

// MarkPosted flips the document to POSTED.
func (c *StockCount) MarkPosted(actorID string, at time.Time) {
	c.Status = StatusPosted
	c.PostedAt = &at
	c.PostedBy = actorID
	c.Touch()
}
