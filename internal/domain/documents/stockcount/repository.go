package stockcount

import (
	"context"
	"time"

	"inventra/internal/core/id"
	"inventra/internal/domain"
)

// Repository defines operations for stock count documents.
type Repository interface {
	Create(ctx context.Context, doc *StockCount) error
	GetByID(ctx context.Context, docID id.ID) (*StockCount, error)
	GetForUpdate(ctx context.Context, docID id.ID) (*StockCount, error)
	Update(ctx context.Context, doc *StockCount) error

	GetLines(ctx context.Context, docID id.ID) ([]Line, error)
	SaveLines(ctx context.Context, docID id.ID, lines []Line) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*StockCount], error)
}

// ListFilter for filtering stock counts.
type ListFilter struct {
	domain.ListFilter

	BranchID *id.ID
	Status   *Status
	DateFrom *time.Time
	DateTo   *time.Time
}
