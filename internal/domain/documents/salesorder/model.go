// Package salesorder provides the SalesOrder document and its delivery
// state machine (pay-before-deliver, governance checks, SALE_OUT postings).
package salesorder

import (
	"context"
	"time"

	"inventra/internal/core/apperror"
	"inventra/internal/core/entity"
	"inventra/internal/core/id"
	"inventra/internal/core/types"
)

// SourceType identifies sales postings in the ledger.
const SourceType = "sales_orders"

// Status of a sales order.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusConfirmed Status = "CONFIRMED"
	StatusPaid      Status = "PAID"
	StatusDelivered Status = "DELIVERED"
)

// SalesOrder represents a customer order fulfilled from one branch.
type SalesOrder struct {
	entity.Document

	BranchID     id.ID  `db:"branch_id" json:"branchId"`
	CustomerName string `db:"customer_name" json:"customerName"`
	Currency     string `db:"currency" json:"currency"`
	Status       Status `db:"status" json:"status"`

	// RequiresPrepayment forbids delivery until fully paid.
	RequiresPrepayment bool `db:"requires_prepayment" json:"requiresPrepayment"`

	// Totals kept consistent with line and payment sums.
	TotalAmount types.MinorUnits `db:"total_amount" json:"totalAmount"`
	PaidAmount  types.MinorUnits `db:"paid_amount" json:"paidAmount"`

	// Delivery markers. Either one set means the order is terminally delivered.
	DeliveredAt *time.Time `db:"delivered_at" json:"deliveredAt,omitempty"`
	PostedAt    *time.Time `db:"posted_at" json:"postedAt,omitempty"`
	DeliveredBy string     `db:"delivered_by" json:"deliveredBy,omitempty"`

	Lines    []Line    `db:"-" json:"lines"`
	Payments []Payment `db:"-" json:"payments"`
}

// Line is one ordered product.
type Line struct {
	LineID id.ID `db:"line_id" json:"lineId"`
	LineNo int   `db:"line_no" json:"lineNo"`

	ProductID id.ID            `db:"product_id" json:"productId"`
	UnitID    *id.ID           `db:"unit_id" json:"unitId,omitempty"`
	Quantity  types.Quantity   `db:"quantity" json:"quantity"`
	UnitPrice types.MinorUnits `db:"unit_price" json:"unitPrice"`
	Amount    types.MinorUnits `db:"amount" json:"amount"`
}

// Payment is one received payment against the order.
type Payment struct {
	ID         id.ID            `db:"id" json:"id"`
	Amount     types.MinorUnits `db:"amount" json:"amount"`
	Method     string           `db:"method" json:"method"`
	Reference  string           `db:"reference" json:"reference,omitempty"`
	ReceivedAt time.Time        `db:"received_at" json:"receivedAt"`
	ReceivedBy string           `db:"received_by" json:"receivedBy,omitempty"`
}

// New creates a new DRAFT sales order.
func New(branchID id.ID, customerName, currency string) *SalesOrder {
	return &SalesOrder{
		Document:     entity.NewDocument(),
		BranchID:     branchID,
		CustomerName: customerName,
		Currency:     currency,
		Status:       StatusDraft,
		Lines:        make([]Line, 0),
		Payments:     make([]Payment, 0),
	}
}

// AddLine appends an order line and recalculates totals.
func (o *SalesOrder) AddLine(productID id.ID, unitID *id.ID, quantity types.Quantity, unitPrice types.MinorUnits) {
	// Quantity is scaled by 10000; amount lands back in minor units.
	amount := types.MinorUnits((quantity.Int64Scaled() * int64(unitPrice)) / types.QuantityScale)

	o.Lines = append(o.Lines, Line{
		LineID:    id.New(),
		LineNo:    len(o.Lines) + 1,
		ProductID: productID,
		UnitID:    unitID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		Amount:    amount,
	})
	o.RecalculateTotals()
}

// RecalculateTotals recomputes TotalAmount from lines and PaidAmount from payments.
func (o *SalesOrder) RecalculateTotals() {
	o.TotalAmount = 0
	for _, line := range o.Lines {
		o.TotalAmount += line.Amount
	}

	o.PaidAmount = 0
	for _, p := range o.Payments {
		o.PaidAmount += p.Amount
	}
}

// IsPaid reports whether payments cover the order total.
func (o *SalesOrder) IsPaid() bool {
	return o.PaidAmount >= o.TotalAmount
}

// IsDelivered reports whether the order reached its terminal delivery state.
func (o *SalesOrder) IsDelivered() bool {
	return o.Status == StatusDelivered || o.DeliveredAt != nil || o.PostedAt != nil
}

// Validate implements entity.Validatable.
func (o *SalesOrder) Validate(ctx context.Context) error {
	if err := o.Document.Validate(ctx); err != nil {
		return err
	}

	if id.IsNil(o.BranchID) {
		return apperror.NewValidation("branch is required").
			WithDetail("field", "branchId")
	}

	if o.CustomerName == "" {
		return apperror.NewValidation("customer name is required").
			WithDetail("field", "customerName")
	}

	for i, line := range o.Lines {
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

// CanModify rejects mutation of delivered orders.
func (o *SalesOrder) CanModify() error {
	if o.IsDelivered() {
		return apperror.NewBusinessRule(
			apperror.CodeAlreadyDelivered,
			"Cannot modify delivered order",
		).WithDetail("order_id", o.ID.String())
	}
	return nil
}

// Confirm moves the order out of DRAFT.
func (o *SalesOrder) Confirm() error {
	if o.Status != StatusDraft {
		return apperror.NewBusinessRule(
			apperror.CodeInvalidTransition,
			"Only draft orders can be confirmed",
		).WithDetail("status", string(o.Status))
	}
	o.RecalculateTotals()
	o.Status = StatusConfirmed
	o.Touch()
	return nil
}

// MarkDelivered stamps the terminal delivery state.
func (o *SalesOrder) MarkDelivered(actorID string, at time.Time) {
	o.Status = StatusDelivered
	o.DeliveredAt = &at
	if o.PostedAt == nil {
		o.PostedAt = &at
	}
	o.DeliveredBy = actorID
	o.Touch()
}
