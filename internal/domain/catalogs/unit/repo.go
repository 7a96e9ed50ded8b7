package unit

import (
	"context"

	"inventra/internal/domain"
)

// Repository defines the interface for Unit persistence.
type Repository interface {
	domain.CatalogRepository[*Unit]

	// FindBySymbol retrieves unit by symbol.
	FindBySymbol(ctx context.Context, symbol string) (*Unit, error)
}
