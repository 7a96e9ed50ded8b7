package catalog_repo

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/shopspring/decimal"

	"inventra/internal/core/apperror"
	"inventra/internal/core/id"
	"inventra/internal/domain/units"
	"inventra/internal/infrastructure/storage/postgres"
)

// ConversionSource implements units.Repository over the product and unit
// catalogs. It reads the minimum the converter needs without loading full
// catalog entities.
type ConversionSource struct {
	txm *postgres.TxManager
}

func NewConversionSource(txm *postgres.TxManager) *ConversionSource {
	return &ConversionSource{txm: txm}
}

// GetProductBaseUnit returns the canonical unit a product's stock is tracked in.
func (s *ConversionSource) GetProductBaseUnit(ctx context.Context, productID id.ID) (id.ID, error) {
	sql := `SELECT base_unit_id FROM cat_products WHERE id = $1`

	var baseUnitID id.ID
	querier := s.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &baseUnitID, sql, productID); err != nil {
		if pgxscan.NotFound(err) {
			return id.Nil(), apperror.NewNotFound("product", productID.String())
		}
		return id.Nil(), fmt.Errorf("get base unit: %w", err)
	}
	return baseUnitID, nil
}

// GetProductConversion returns the product-specific multiplier to the base
// unit, or nil when none is configured.
func (s *ConversionSource) GetProductConversion(ctx context.Context, productID, fromUnitID id.ID) (*decimal.Decimal, error) {
	sql := `SELECT multiplier FROM cat_product_conversions WHERE product_id = $1 AND unit_id = $2`

	var multiplier decimal.Decimal
	querier := s.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &multiplier, sql, productID, fromUnitID); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get product conversion: %w", err)
	}
	return &multiplier, nil
}

// GetUnitFactor returns the global conversion factor of a unit, or nil when
// the unit carries none.
func (s *ConversionSource) GetUnitFactor(ctx context.Context, unitID id.ID) (*decimal.Decimal, error) {
	sql := `SELECT factor FROM cat_units WHERE id = $1`

	var factor *decimal.Decimal
	querier := s.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &factor, sql, unitID); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("unit", unitID.String())
		}
		return nil, fmt.Errorf("get unit factor: %w", err)
	}
	return factor, nil
}

// Ensure interface compliance.
var _ units.Repository = (*ConversionSource)(nil)
