// Package unit provides the Unit catalog (measurement units).
package unit

import (
	"context"

	"github.com/shopspring/decimal"

	"inventra/internal/core/apperror"
	"inventra/internal/core/entity"
)

// Unit represents a measurement unit.
type Unit struct {
	entity.Catalog

	// Symbol is the short symbol (e.g., "kg", "pcs", "box")
	Symbol string `db:"symbol" json:"symbol"`

	// Factor is the global conversion factor relative to the reference unit
	// of its kind (e.g., gram = 0.001 relative to kilogram). Nil means no
	// global conversion data exists for this unit.
	Factor *decimal.Decimal `db:"factor" json:"factor,omitempty"`
}

// New creates a new Unit.
func New(code, name, symbol string) *Unit {
	return &Unit{
		Catalog: entity.NewCatalog(code, name),
		Symbol:  symbol,
	}
}

// Validate implements entity.Validatable interface.
func (u *Unit) Validate(ctx context.Context) error {
	if err := u.Catalog.Validate(ctx); err != nil {
		return err
	}
	if u.Factor != nil && !u.Factor.IsPositive() {
		return apperror.NewValidation("conversion factor must be positive").
			WithDetail("field", "factor")
	}
	return nil
}
