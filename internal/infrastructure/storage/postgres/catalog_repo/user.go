package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"inventra/internal/domain/catalogs/user"
	"inventra/internal/infrastructure/storage/postgres"
)

const usersTable = "cat_users"

// UserRepo implements user.Repository.
type UserRepo struct {
	*BaseCatalogRepo[*user.User]
}

func NewUserRepo(txm *postgres.TxManager) *UserRepo {
	return &UserRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txm,
			usersTable,
			postgres.ExtractDBColumns[user.User](),
			func() *user.User { return &user.User{} },
		),
	}
}

// FindByEmail retrieves user by email.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	q := r.Builder().
		Select(postgres.ExtractDBColumns[user.User]()...).
		From(usersTable).
		Where(squirrel.Eq{"email": email}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Limit(1)

	return r.FindOne(ctx, q)
}

// Ensure interface compliance.
var _ user.Repository = (*UserRepo)(nil)
