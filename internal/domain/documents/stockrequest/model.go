// Package stockrequest provides the StockRequest document: a branch's supply
// request approved into a transfer from a supplying branch.
package stockrequest

import (
	"context"
	"time"

	"inventra/internal/core/apperror"
	"inventra/internal/core/entity"
	"inventra/internal/core/id"
	"inventra/internal/core/types"
)

// Status of a stock request.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusSubmitted Status = "SUBMITTED"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusCancelled Status = "CANCELLED"
)

// StockRequest represents a supply request from one branch.
type StockRequest struct {
	entity.Document

	// BranchID is the requesting branch (transfer destination).
	BranchID id.ID  `db:"branch_id" json:"branchId"`
	Status   Status `db:"status" json:"status"`

	// SupplyBranchID is the branch expected to fulfil the request. May be
	// overridden at approval time.
	SupplyBranchID *id.ID `db:"supply_branch_id" json:"supplyBranchId,omitempty"`

	SubmittedAt *time.Time `db:"submitted_at" json:"submittedAt,omitempty"`
	SubmittedBy string     `db:"submitted_by" json:"submittedBy,omitempty"`
	ApprovedAt  *time.Time `db:"approved_at" json:"approvedAt,omitempty"`
	ApprovedBy  string     `db:"approved_by" json:"approvedBy,omitempty"`

	Lines []Line `db:"-" json:"lines"`
}

// Line carries requested and, after approval, approved quantities.
type Line struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ProductID    id.ID          `db:"product_id" json:"productId"`
	UnitID       *id.ID         `db:"unit_id" json:"unitId,omitempty"`
	QtyRequested types.Quantity `db:"qty_requested" json:"qtyRequested"`
	QtyApproved  types.Quantity `db:"qty_approved" json:"qtyApproved"`
}

// New creates a new DRAFT stock request.
func New(branchID id.ID) *StockRequest {
	return &StockRequest{
		Document: entity.NewDocument(),
		BranchID: branchID,
		Status:   StatusDraft,
		Lines:    make([]Line, 0),
	}
}

// AddLine appends a requested line.
func (r *StockRequest) AddLine(productID id.ID, unitID *id.ID, requested types.Quantity) {
	r.Lines = append(r.Lines, Line{
		LineID:       id.New(),
		LineNo:       len(r.Lines) + 1,
		ProductID:    productID,
		UnitID:       unitID,
		QtyRequested: requested,
	})
}

// Validate implements entity.Validatable.
func (r *StockRequest) Validate(ctx context.Context) error {
	if err := r.Document.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(r.BranchID) {
		return apperror.NewValidation("branch is required").
			WithDetail("field", "branchId")
	}

	for i, line := range r.Lines {
		if id.IsNil(line.ProductID) {
			return apperror.NewValidation("product is required").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if !line.QtyRequested.IsPositive() {
			return apperror.NewValidation("requested quantity must be positive").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
	}

	return nil
}

// CanModify rejects mutation once workflow has moved past SUBMITTED.
func (r *StockRequest) CanModify() error {
	if r.Status != StatusDraft && r.Status != StatusSubmitted {
		return apperror.NewBusinessRule(
			apperror.CodeInvalidTransition,
			"Request can no longer be modified",
		).WithDetail("request_id", r.ID.String()).
			WithDetail("status", string(r.Status))
	}
	return nil
}

// Submit moves DRAFT to SUBMITTED.
func (r *StockRequest) Submit(actorID string, at time.Time) error {
	if r.Status != StatusDraft {
		return apperror.NewBusinessRule(
			apperror.CodeInvalidTransition,
			"Only draft requests can be submitted",
		).WithDetail("status", string(r.Status))
	}
	r.Status = StatusSubmitted
	r.SubmittedAt = &at
	r.SubmittedBy = actorID
	r.Touch()
	return nil
}

// CanApprove reports whether the request is in an approvable state.
func (r *StockRequest) CanApprove() error {
	if r.Status != StatusDraft && r.Status != StatusSubmitted {
		return apperror.NewBusinessRule(
			apperror.CodeInvalidTransition,
			"Request cannot be approved in its current state",
		).WithDetail("status", string(r.Status))
	}
	return nil
}

// MarkApproved stamps the approval state.
func (r *StockRequest) MarkApproved(actorID string, at time.Time) {
	r.Status = StatusApproved
	r.ApprovedAt = &at
	r.ApprovedBy = actorID
	r.Touch()
}
