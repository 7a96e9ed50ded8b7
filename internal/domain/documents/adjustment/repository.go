package adjustment

import (
	"context"
	"time"

	"inventra/internal/core/id"
	"inventra/internal/domain"
)

// Repository defines operations for adjustment documents.
type Repository interface {
	Create(ctx context.Context, doc *Adjustment) error
	GetByID(ctx context.Context, docID id.ID) (*Adjustment, error)
	GetForUpdate(ctx context.Context, docID id.ID) (*Adjustment, error)
	Update(ctx context.Context, doc *Adjustment) error
	Delete(ctx context.Context, docID id.ID) error

	GetLines(ctx context.Context, docID id.ID) ([]Line, error)
	SaveLines(ctx context.Context, docID id.ID, lines []Line) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Adjustment], error)
}

// ListFilter for filtering adjustments.
type ListFilter struct {
	domain.ListFilter

	BranchID *id.ID
	Status   *Status
	Reason   *string
	DateFrom *time.Time
	DateTo   *time.Time
}
