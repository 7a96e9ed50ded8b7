package catalog_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"inventra/internal/domain/catalogs/unit"
	"inventra/internal/infrastructure/storage/postgres"
)

const unitsTable = "cat_units"

// UnitRepo implements unit.Repository.
type UnitRepo struct {
	*BaseCatalogRepo[*unit.Unit]
}

func NewUnitRepo(txm *postgres.TxManager) *UnitRepo {
	return &UnitRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txm,
			unitsTable,
			postgres.ExtractDBColumns[unit.Unit](),
			func() *unit.Unit { return &unit.Unit{} },
		),
	}
}

// FindBySymbol retrieves unit by symbol.
func (r *UnitRepo) FindBySymbol(ctx context.Context, symbol string) (*unit.Unit, error) {
	q := r.Builder().
		Select(postgres.ExtractDBColumns[unit.Unit]()...).
		From(unitsTable).
		Where(squirrel.Eq{"symbol": symbol}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Limit(1)

	return r.FindOne(ctx, q)
}

// Ensure interface compliance.
var _ unit.Repository = (*UnitRepo)(nil)
