// Package catalogs provides the shared service layer for catalog entities.
package catalogs

import (
	"context"

	"inventra/internal/core/entity"
	"inventra/internal/core/id"
	"inventra/internal/domain"
)

// Service provides validated CRUD over a catalog repository. Concrete
// catalogs (branch, product, unit, user) are thin instantiations of it.
type Service[T entity.Validatable] struct {
	repo domain.CatalogRepository[T]
}

// NewService creates a catalog service.
func NewService[T entity.Validatable](repo domain.CatalogRepository[T]) *Service[T] {
	return &Service[T]{repo: repo}
}

// Create validates and persists a new catalog entity.
func (s *Service[T]) Create(ctx context.Context, item T) error {
	if err := item.Validate(ctx); err != nil {
		return err
	}
	return s.repo.Create(ctx, item)
}

// GetByID retrieves an entity by id.
func (s *Service[T]) GetByID(ctx context.Context, itemID id.ID) (T, error) {
	return s.repo.GetByID(ctx, itemID)
}

// GetByCode retrieves an entity by code.
func (s *Service[T]) GetByCode(ctx context.Context, code string) (T, error) {
	return s.repo.GetByCode(ctx, code)
}

// Update validates and persists changes with optimistic locking.
func (s *Service[T]) Update(ctx context.Context, item T) error {
	if err := item.Validate(ctx); err != nil {
		return err
	}
	return s.repo.Update(ctx, item)
}

// Delete soft-deletes an entity.
func (s *Service[T]) Delete(ctx context.Context, itemID id.ID) error {
	return s.repo.Delete(ctx, itemID)
}

// List retrieves entities with filtering and pagination.
func (s *Service[T]) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[T], error) {
	return s.repo.List(ctx, filter)
}
