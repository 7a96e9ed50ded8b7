// Package user provides the User catalog. The ledger core consults it only
// for governance checks; authentication and permissions live outside.
package user

import (
	"context"

	"inventra/internal/core/apperror"
	"inventra/internal/core/entity"
	"inventra/internal/core/id"
)

// User represents an actor that operates branches.
type User struct {
	entity.Catalog

	// Email is the login identity
	Email string `db:"email" json:"email"`

	// BranchID is the user's home branch (optional)
	BranchID *id.ID `db:"branch_id" json:"branchId,omitempty"`

	// IsActive gates delivery and posting attribution for this actor
	IsActive bool `db:"is_active" json:"isActive"`
}

// New creates a new active User.
func New(code, name, email string) *User {
	return &User{
		Catalog:  entity.NewCatalog(code, name),
		Email:    email,
		IsActive: true,
	}
}

// Validate implements entity.Validatable interface.
func (u *User) Validate(ctx context.Context) error {
	if err := u.Catalog.Validate(ctx); err != nil {
		return err
	}
	if u.Email == "" {
		return apperror.NewValidation("email is required").
			WithDetail("field", "email")
	}
	return nil
}
