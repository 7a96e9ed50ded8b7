package transfer

import (
	"context"
	"time"

	"inventra/internal/core/id"
	"inventra/internal/domain"
)

// Repository defines operations for transfer documents.
type Repository interface {
	Create(ctx context.Context, doc *Transfer) error
	GetByID(ctx context.Context, docID id.ID) (*Transfer, error)
	GetForUpdate(ctx context.Context, docID id.ID) (*Transfer, error)
	Update(ctx context.Context, doc *Transfer) error
	Delete(ctx context.Context, docID id.ID) error

	GetLines(ctx context.Context, docID id.ID) ([]Line, error)
	SaveLines(ctx context.Context, docID id.ID, lines []Line) error

	List(ctx context.Context, filter ListFilter) (domain.ListResult[*Transfer], error)
}

// ListFilter for filtering transfers.
type ListFilter struct {
	domain.ListFilter

	FromBranchID *id.ID
	ToBranchID   *id.ID
	Status       *Status
	DateFrom     *time.Time
	DateTo       *time.Time
}
