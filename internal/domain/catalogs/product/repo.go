package product

import (
	"context"

	"inventra/internal/core/id"
	"inventra/internal/domain"
)

// Repository defines the interface for Product persistence.
type Repository interface {
	domain.CatalogRepository[*Product]

	// FindBySKU retrieves product by SKU.
	FindBySKU(ctx context.Context, sku string) (*Product, error)

	// GetConversion returns the product-specific conversion entry for a
	// transaction unit, or nil when none is configured.
	GetConversion(ctx context.Context, productID, unitID id.ID) (*Conversion, error)

	// SaveConversion upserts a conversion entry.
	SaveConversion(ctx context.Context, conversion *Conversion) error
}
