// Package transfer provides the inter-branch Transfer document: outbound
// movement at the source branch, inbound at the destination.
package transfer

import (
	"context"
	"time"

	"inventra/internal/core/apperror"
	"inventra/internal/core/entity"
	"inventra/internal/core/id"
	"inventra/internal/core/types"
)

// SourceType identifies transfer postings in the ledger.
const SourceType = "transfers"

// Status of a transfer.
type Status string

const (
	StatusDraft      Status = "DRAFT"
	StatusDispatched Status = "DISPATCHED"
	StatusReceived   Status = "RECEIVED"
	StatusCancelled  Status = "CANCELLED"
)

// Transfer represents an inter-branch stock movement document.
type Transfer struct {
	entity.Document

	FromBranchID id.ID  `db:"from_branch_id" json:"fromBranchId"`
	ToBranchID   id.ID  `db:"to_branch_id" json:"toBranchId"`
	Status       Status `db:"status" json:"status"`

	// StockRequestID links back to the request that spawned this transfer.
	StockRequestID *id.ID `db:"stock_request_id" json:"stockRequestId,omitempty"`

	DispatchedAt *time.Time `db:"dispatched_at" json:"dispatchedAt,omitempty"`
	ReceivedAt   *time.Time `db:"received_at" json:"receivedAt,omitempty"`
	DispatchedBy string     `db:"dispatched_by" json:"dispatchedBy,omitempty"`
	ReceivedBy   string     `db:"received_by" json:"receivedBy,omitempty"`

	Lines []Line `db:"-" json:"lines"`
}

// Line is one transferred product.
type Line struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ProductID id.ID          `db:"product_id" json:"productId"`
	UnitID    *id.ID         `db:"unit_id" json:"unitId,omitempty"`
	Quantity  types.Quantity `db:"quantity" json:"quantity"`
}

// New creates a new DRAFT transfer.
func New(fromBranchID, toBranchID id.ID) *Transfer {
	return &Transfer{
		Document:     entity.NewDocument(),
		FromBranchID: fromBranchID,
		ToBranchID:   toBranchID,
		Status:       StatusDraft,
		Lines:        make([]Line, 0),
	}
}

// AddLine appends a transfer line.
func (t *Transfer) AddLine(productID id.ID, unitID *id.ID, quantity types.Quantity) {
	t.Lines = append(t.Lines, Line{
		LineID:    id.New(),
		LineNo:    len(t.Lines) + 1,
		ProductID: productID,
		UnitID:    unitID,
		Quantity:  quantity,
	})
}

// Validate implements entity.Validatable.
func (t *Transfer) Validate(ctx context.Context) error {
	if err := t.Document.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(t.FromBranchID) {
		return apperror.NewValidation("source branch is required").
			WithDetail("field", "fromBranchId")
	}
	if id.IsNil(t.ToBranchID) {
		return apperror.NewValidation("destination branch is required").
			WithDetail("field", "toBranchId")
	}
	if t.FromBranchID == t.ToBranchID {
		return apperror.NewValidation("source and destination branches must differ")
	}

	for i, line := range t.Lines {
		if id.IsNil(line.ProductID) {
			return apperror.NewValidation("product is required").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if !line.Quantity.IsPositive() {
			return apperror.NewValidation("quantity must be positive").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
	}

	return nil
}

// CanModify rejects mutation after dispatch.
func (t *Transfer) CanModify() error {
	if t.Status != StatusDraft {
		return apperror.NewBusinessRule(
			apperror.CodeInvalidTransition,
			"Only draft transfers can be modified",
		).WithDetail("transfer_id", t.ID.String()).
			WithDetail("status", string(t.Status))
	}
	return nil
}

// MarkDispatched stamps the dispatch state.
func (t *Transfer) MarkDispatched(actorID string, at time.Time) {
	t.Status = StatusDispatched
	t.DispatchedAt = &at
	t.DispatchedBy = actorID
	t.Touch()
}

// MarkReceived stamps the receive state.
func (t *Transfer) MarkReceived(actorID string, at time.Time) {
	t.Status = StatusReceived
	t.ReceivedAt = &at
	t.ReceivedBy = actorID
	t.Touch()
}
