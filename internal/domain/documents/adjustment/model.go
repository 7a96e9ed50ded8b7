// Package adjustment provides the Adjustment document: manual positive or
// negative stock corrections posted through the ledger.
package adjustment

import (
	"context"
	"time"

	"inventra/internal/core/apperror"
	"inventra/internal/core/entity"
	"inventra/internal/core/id"
	"inventra/internal/core/types"
)

// SourceType identifies adjustment postings in the ledger.
const SourceType = "adjustments"

// Status of an adjustment document.
type Status string

const (
	StatusDraft  Status = "DRAFT"
	StatusPosted Status = "POSTED"
)

// Adjustment reasons.
const (
	ReasonManual = "MANUAL"
	ReasonCount  = "COUNT"
	ReasonDamage = "DAMAGE"
	ReasonExpiry = "EXPIRY"
)

// Adjustment represents a stock correction document.
// Once posted, header and lines are immutable.
type Adjustment struct {
	entity.Document

	BranchID id.ID  `db:"branch_id" json:"branchId"`
	Reason   string `db:"reason" json:"reason"`
	Status   Status `db:"status" json:"status"`

	PostedAt *time.Time `db:"posted_at" json:"postedAt,omitempty"`
	PostedBy string     `db:"posted_by" json:"postedBy,omitempty"`

	Lines []Line `db:"-" json:"lines"`
}

// Line carries a signed quantity delta per product/unit.
type Line struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ProductID id.ID  `db:"product_id" json:"productId"`
	UnitID    *id.ID `db:"unit_id" json:"unitId,omitempty"`

	// QtyDelta is positive for stock found, negative for stock lost.
	QtyDelta types.Quantity `db:"qty_delta" json:"qtyDelta"`

	Note string `db:"note" json:"note,omitempty"`
}

// New creates a new DRAFT adjustment.
func New(branchID id.ID, reason string) *Adjustment {
	return &Adjustment{
		Document: entity.NewDocument(),
		BranchID: branchID,
		Reason:   reason,
		Status:   StatusDraft,
		Lines:    make([]Line, 0),
	}
}

// AddLine appends a correction line.
func (a *Adjustment) AddLine(productID id.ID, unitID *id.ID, delta types.Quantity) {
	a.Lines = append(a.Lines, Line{
		LineID:    id.New(),
		LineNo:    len(a.Lines) + 1,
		ProductID: productID,
		UnitID:    unitID,
		QtyDelta:  delta,
	})
}

// Validate implements entity.Validatable.
func (a *Adjustment) Validate(ctx context.Context) error {
	if err := a.Document.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(a.BranchID) {
		return apperror.NewValidation("branch is required").
			WithDetail("field", "branchId")
	}

	if a.Reason == "" {
		return apperror.NewValidation("reason is required").
			WithDetail("field", "reason")
	}

	for i, line := range a.Lines {
		if id.IsNil(line.ProductID) {
			return apperror.NewValidation("product is required").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
	}

	return nil
}

// CanModify rejects mutation of posted adjustments.
func (a *Adjustment) CanModify() error {
	if a.Status == StatusPosted || a.PostedAt != nil {
		return apperror.NewBusinessRule(
			apperror.CodeDocumentPosted,
			"Cannot modify posted adjustment",
		).WithDetail("adjustment_id", a.ID.String())
	}
	return nil
}

// MarkPosted flips the document to POSTED and stamps the approving actor.
func (a *Adjustment) MarkPosted(actorID string, at time.Time) {
	a.Status = StatusPosted
	a.PostedAt = &at
	a.PostedBy = actorID
	a.Touch()
}
