// Package units converts transaction quantities into product base-unit
// quantities.
package units

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"inventra/internal/core/id"
	"inventra/internal/core/types"
	"inventra/pkg/logger"
)

// Repository provides the conversion reference data.
type Repository interface {
	// GetProductBaseUnit returns the canonical unit a product's stock is
	// tracked in.
	GetProductBaseUnit(ctx context.Context, productID id.ID) (id.ID, error)

	// GetProductConversion returns the product-specific multiplier from
	// fromUnitID to the base unit, or nil when none is configured.
	GetProductConversion(ctx context.Context, productID, fromUnitID id.ID) (*decimal.Decimal, error)

	// GetUnitFactor returns the global conversion factor of a unit relative
	// to its reference unit, or nil when none is configured.
	GetUnitFactor(ctx context.Context, unitID id.ID) (*decimal.Decimal, error)
}

// Converter resolves quantities to base units through a three-step chain:
// product-specific conversion entry, then the ratio of global unit factors,
// then a 1:1 fallback. Missing conversion data is never an error; the
// fallback is logged so misconfigured catalogs are visible in operation.
type Converter struct {
	repo Repository
}

// NewConverter creates a unit converter.
func NewConverter(repo Repository) *Converter {
	return &Converter{repo: repo}
}

// ToBase converts qty expressed in fromUnitID into the product's base unit.
// A nil fromUnitID means the quantity is already in the base unit.
func (c *Converter) ToBase(ctx context.Context, productID id.ID, qty types.Quantity, fromUnitID *id.ID) (types.Quantity, id.ID, error) {
	baseUnitID, err := c.repo.GetProductBaseUnit(ctx, productID)
	if err != nil {
		return 0, id.Nil(), fmt.Errorf("get base unit for product %s: %w", productID, err)
	}

	if fromUnitID == nil || *fromUnitID == baseUnitID {
		return qty, baseUnitID, nil
	}

	multiplier, err := c.repo.GetProductConversion(ctx, productID, *fromUnitID)
	if err != nil {
		return 0, id.Nil(), fmt.Errorf("get product conversion: %w", err)
	}
	if multiplier != nil {
		return types.NewQuantityFromDecimal(qty.Decimal().Mul(*multiplier)), baseUnitID, nil
	}

	fromFactor, err := c.repo.GetUnitFactor(ctx, *fromUnitID)
	if err != nil {
		return 0, id.Nil(), fmt.Errorf("get unit factor: %w", err)
	}
	baseFactor, err := c.repo.GetUnitFactor(ctx, baseUnitID)
	if err != nil {
		return 0, id.Nil(), fmt.Errorf("get base unit factor: %w", err)
	}
	if fromFactor != nil && baseFactor != nil && !baseFactor.IsZero() {
		converted := qty.Decimal().Mul(*fromFactor).Div(*baseFactor)
		return types.NewQuantityFromDecimal(converted), baseUnitID, nil
	}

	logger.Warn(ctx, "no conversion data for unit, assuming 1:1",
		"product_id", productID,
		"from_unit_id", *fromUnitID,
		"base_unit_id", baseUnitID,
	)
	return qty, baseUnitID, nil
}
