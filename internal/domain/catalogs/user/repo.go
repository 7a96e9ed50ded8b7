package user

import (
	"context"

	"inventra/internal/domain"
)

// Repository defines the interface for User persistence.
type Repository interface {
	domain.CatalogRepository[*User]

	// FindByEmail retrieves user by email.
	FindByEmail(ctx context.Context, email string) (*User, error)
}
