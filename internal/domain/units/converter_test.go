package units

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inventra/internal/core/apperror"
	"inventra/internal/core/id"
	"inventra/internal/core/types"
)

type fakeRepo struct {
	// product -> base unit
	baseUnits map[id.ID]id.ID
	// product|unit -> multiplier
	conversions map[string]decimal.Decimal
	// unit -> global factor
	factors map[id.ID]decimal.Decimal
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		baseUnits:   make(map[id.ID]id.ID),
		conversions: make(map[string]decimal.Decimal),
		factors:     make(map[id.ID]decimal.Decimal),
	}
}

func (r *fakeRepo) GetProductBaseUnit(ctx context.Context, productID id.ID) (id.ID, error) {
	base, ok := r.baseUnits[productID]
	if !ok {
		return id.Nil(), apperror.NewNotFound("product", productID.String())
	}
	return base, nil
}

func (r *fakeRepo) GetProductConversion(ctx context.Context, productID, fromUnitID id.ID) (*decimal.Decimal, error) {
	if m, ok := r.conversions[productID.String()+"|"+fromUnitID.String()]; ok {
		return &m, nil
	}
	return nil, nil
}

func (r *fakeRepo) GetUnitFactor(ctx context.Context, unitID id.ID) (*decimal.Decimal, error) {
	if f, ok := r.factors[unitID]; ok {
		return &f, nil
	}
	return nil, nil
}

func TestToBase_NilUnitIsBase(t *testing.T) {
	repo := newFakeRepo()
	productID, baseUnit := id.New(), id.New()
	repo.baseUnits[productID] = baseUnit

	conv := NewConverter(repo)
	got, unit, err := conv.ToBase(context.Background(), productID, types.NewQuantityFromFloat64(5), nil)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromFloat64(5), got)
	assert.Equal(t, baseUnit, unit)
}

func TestToBase_SameUnitShortCircuits(t *testing.T) {
	repo := newFakeRepo()
	productID, baseUnit := id.New(), id.New()
	repo.baseUnits[productID] = baseUnit
	// A conflicting factor must not be consulted when units already match.
	repo.factors[baseUnit] = decimal.RequireFromString("1000")

	conv := NewConverter(repo)
	got, _, err := conv.ToBase(context.Background(), productID, types.NewQuantityFromFloat64(3), &baseUnit)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromFloat64(3), got)
}

func TestToBase_ProductConversionWins(t *testing.T) {
	repo := newFakeRepo()
	productID, baseUnit, boxUnit := id.New(), id.New(), id.New()
	repo.baseUnits[productID] = baseUnit
	repo.conversions[productID.String()+"|"+boxUnit.String()] = decimal.RequireFromString("12")
	// Global factors would give a different result; the product entry wins.
	repo.factors[boxUnit] = decimal.RequireFromString("10")
	repo.factors[baseUnit] = decimal.RequireFromString("1")

	conv := NewConverter(repo)
	got, _, err := conv.ToBase(context.Background(), productID, types.NewQuantityFromFloat64(2), &boxUnit)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromFloat64(24), got)
}

func TestToBase_GlobalFactorRatio(t *testing.T) {
	repo := newFakeRepo()
	productID, gramUnit, kgUnit := id.New(), id.New(), id.New()
	repo.baseUnits[productID] = kgUnit
	repo.factors[gramUnit] = decimal.RequireFromString("1")
	repo.factors[kgUnit] = decimal.RequireFromString("1000")

	conv := NewConverter(repo)
	got, _, err := conv.ToBase(context.Background(), productID, types.NewQuantityFromFloat64(500), &gramUnit)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromFloat64(0.5), got)
}

func TestToBase_FallsBackOneToOne(t *testing.T) {
	repo := newFakeRepo()
	productID, baseUnit, strayUnit := id.New(), id.New(), id.New()
	repo.baseUnits[productID] = baseUnit

	conv := NewConverter(repo)
	got, unit, err := conv.ToBase(context.Background(), productID, types.NewQuantityFromFloat64(7), &strayUnit)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromFloat64(7), got)
	assert.Equal(t, baseUnit, unit)
}

func TestToBase_UnknownProduct(t *testing.T) {
	conv := NewConverter(newFakeRepo())
	_, _, err := conv.ToBase(context.Background(), id.New(), types.NewQuantityFromFloat64(1), nil)
	require.Error(t, err)
}
