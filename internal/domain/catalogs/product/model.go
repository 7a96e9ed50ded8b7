// Package product provides the Product catalog.
package product

import (
	"context"

	"github.com/shopspring/decimal"

	"inventra/internal/core/apperror"
	"inventra/internal/core/entity"
	"inventra/internal/core/id"
	"inventra/internal/core/types"
)

// Product represents a stocked good.
type Product struct {
	entity.Catalog

	// SKU is the stock-keeping unit code
	SKU string `db:"sku" json:"sku"`

	// BaseUnitID is the canonical unit the product's stock is tracked in
	BaseUnitID id.ID `db:"base_unit_id" json:"baseUnitId"`

	// Price is the default sale price in minor currency units
	Price types.MinorUnits `db:"price" json:"price"`

	// IsActive indicates whether the product can be traded
	IsActive bool `db:"is_active" json:"isActive"`
}

// New creates a new active Product.
func New(code, name, sku string, baseUnitID id.ID) *Product {
	return &Product{
		Catalog:    entity.NewCatalog(code, name),
		SKU:        sku,
		BaseUnitID: baseUnitID,
		IsActive:   true,
	}
}

// Validate implements entity.Validatable interface.
func (p *Product) Validate(ctx context.Context) error {
	if err := p.Catalog.Validate(ctx); err != nil {
		return err
	}
	if id.IsNil(p.BaseUnitID) {
		return apperror.NewValidation("base unit is required").
			WithDetail("field", "baseUnitId")
	}
	return nil
}

// Conversion is a product-specific unit conversion entry: one transaction
// unit of the product equals Multiplier base units.
type Conversion struct {
	ID         id.ID           `db:"id" json:"id"`
	ProductID  id.ID           `db:"product_id" json:"productId"`
	UnitID     id.ID           `db:"unit_id" json:"unitId"`
	Multiplier decimal.Decimal `db:"multiplier" json:"multiplier"`
}

// Validate checks conversion invariants.
func (c *Conversion) Validate(ctx context.Context) error {
	if id.IsNil(c.ProductID) || id.IsNil(c.UnitID) {
		return apperror.NewValidation("product and unit are required")
	}
	if !c.Multiplier.IsPositive() {
		return apperror.NewValidation("multiplier must be positive").
			WithDetail("field", "multiplier")
	}
	return nil
}
