// Package branch provides the Branch catalog.
// A branch is an operating location holding its own stock.
package branch

import (
	"context"

	"inventra/internal/core/apperror"
	"inventra/internal/core/entity"
)

// Branch represents an operating location.
type Branch struct {
	entity.Catalog

	// Address is the physical address
	Address *string `db:"address" json:"address,omitempty"`

	// Phone is the contact phone
	Phone *string `db:"phone" json:"phone,omitempty"`

	// Currency is the branch base currency (ISO 4217)
	Currency string `db:"currency" json:"currency"`

	// IsActive gates all stock operations at this branch
	IsActive bool `db:"is_active" json:"isActive"`
}

// New creates a new active Branch.
func New(code, name, currency string) *Branch {
	return &Branch{
		Catalog:  entity.NewCatalog(code, name),
		Currency: currency,
		IsActive: true,
	}
}

// Validate implements entity.Validatable interface.
func (b *Branch) Validate(ctx context.Context) error {
	if err := b.Catalog.Validate(ctx); err != nil {
		return err
	}
	if len(b.Currency) != 3 {
		return apperror.NewValidation("currency must be a 3-letter ISO code").
			WithDetail("field", "currency").
			WithDetail("value", b.Currency)
	}
	return nil
}
