package stockrequest

import (
	"context"
	"time"

	"inventra/internal/core/id"
	"inventra/internal/domain"
)

// Repository defines operations for stock request documents.
type Repository interface {
	Create(ctx context.Context, doc *StockRequest) error
	GetByID(ctx context.Context, docID id.ID) (*StockRequest, error)
	GetForUpdate(ctx context.Context, docID id.ID) (*StockRequest, error)
	Update(ctx context.Context, doc *StockRequest) error
	Delete(ctx context.Context, docID id.ID) error

	GetLines(ctx context.Context, docID id.ID) ([]Line, error)
	SaveLines(ctx context.Context, docID id.ID, lines []Line) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*StockRequest], error)
}

// ListFilter for filtering stock requests.
type ListFilter struct {
	domain.ListFilter

	BranchID *id.ID
	Status   *Status
	DateFrom *time.Time
	DateTo   *time.Time
}
