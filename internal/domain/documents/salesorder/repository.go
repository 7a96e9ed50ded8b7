package salesorder

import (
	"context"
	"time"

	"inventra/internal/core/id"
	"inventra/internal/domain"
)

// Repository defines operations for sales order documents.
type Repository interface {
	Create(ctx context.Context, doc *SalesOrder) error
	GetByID(ctx context.Context, docID id.ID) (*SalesOrder, error)
	GetForUpdate(ctx context.Context, docID id.ID) (*SalesOrder, error)
	Update(ctx context.Context, doc *SalesOrder) error
	Delete(ctx context.Context, docID id.ID) error

	GetLines(ctx context.Context, docID id.ID) ([]Line, error)
	SaveLines(ctx context.Context, docID id.ID, lines []Line) error

	GetPayments(ctx context.Context, docID id.ID) ([]Payment, error)
	AddPayment(ctx context.Context, docID id.ID, payment *Payment) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*SalesOrder], error)
}

// ListFilter for filtering sales orders.
type ListFilter struct {
	domain.ListFilter

	BranchID *id.ID
	Status   *Status
	DateFrom *time.Time
	DateTo   *time.Time
}
