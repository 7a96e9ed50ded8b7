package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"inventra/internal/core/id"
	"inventra/internal/domain/catalogs/product"
	"inventra/internal/infrastructure/storage/postgres"
)

const (
	productsTable    = "cat_products"
	conversionsTable = "cat_product_conversions"
)

// ProductRepo implements product.Repository.
type ProductRepo struct {
	*BaseCatalogRepo[*product.Product]
	txm *postgres.TxManager
}

func NewProductRepo(txm *postgres.TxManager) *ProductRepo {
	return &ProductRepo{
		BaseCatalogRepo: NewBaseCatalogRepo(
			txm,
			productsTable,
			postgres.ExtractDBColumns[product.Product](),
			func() *product.Product { return &product.Product{} },
		),
		txm: txm,
	}
}

// FindBySKU retrieves product by SKU.
func (r *ProductRepo) FindBySKU(ctx context.Context, sku string) (*product.Product, error) {
	q := r.Builder().
		Select(postgres.ExtractDBColumns[product.Product]()...).
		From(productsTable).
		Where(squirrel.Eq{"sku": sku}).
		Where(squirrel.Eq{"deletion_mark": false}).
		Limit(1)

	return r.FindOne(ctx, q)
}

// GetConversion returns the conversion entry for a transaction unit, or nil
// when none is configured.
func (r *ProductRepo) GetConversion(ctx context.Context, productID, unitID id.ID) (*product.Conversion, error) {
	q := r.Builder().
		Select("id", "product_id", "unit_id", "multiplier").
		From(conversionsTable).
		Where(squirrel.Eq{
			"product_id": productID,
			"unit_id":    unitID,
		}).Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var conversion product.Conversion
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &conversion, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get conversion: %w", err)
	}
	return &conversion, nil
}

// SaveConversion upserts a conversion entry keyed by (product, unit).
func (r *ProductRepo) SaveConversion(ctx context.Context, conversion *product.Conversion) error {
	if id.IsNil(conversion.ID) {
		conversion.ID = id.New()
	}

	q := r.Builder().
		Insert(conversionsTable).
		Columns("id", "product_id", "unit_id", "multiplier").
		Values(conversion.ID, conversion.ProductID, conversion.UnitID, conversion.Multiplier).
		Suffix("ON CONFLICT (product_id, unit_id) DO UPDATE SET multiplier = EXCLUDED.multiplier")

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("save conversion: %w", err)
	}
	return nil
}

// Ensure interface compliance.
var _ product.Repository = (*ProductRepo)(nil)
