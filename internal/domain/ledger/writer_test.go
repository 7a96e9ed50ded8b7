package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inventra/internal/core/apperror"
	"inventra/internal/core/id"
	"inventra/internal/core/types"
	"inventra/internal/domain/ledger"
	"inventra/internal/domain/ledger/ledgertest"
)

func qty(v float64) types.Quantity {
	return types.NewQuantityFromFloat64(v)
}

type writerFixture struct {
	repo     *ledgertest.Repo
	conv     *ledgertest.Converter
	writer   *ledger.Writer
	branch   id.ID
	product  id.ID
	baseUnit id.ID
}

func newWriterFixture() *writerFixture {
	repo := ledgertest.NewRepo()
	baseUnit := id.New()
	conv := ledgertest.NewConverter(baseUnit)
	return &writerFixture{
		repo:     repo,
		conv:     conv,
		writer:   ledger.NewWriter(repo, conv, ledgertest.NewTxManager(repo)),
		branch:   id.New(),
		product:  id.New(),
		baseUnit: baseUnit,
	}
}

func (f *writerFixture) input(movement string, quantity types.Quantity) ledger.PostInput {
	return ledger.PostInput{
		BranchID:  f.branch,
		ProductID: f.product,
		Quantity:  quantity,
		Movement:  movement,
		Source: ledger.SourceRef{
			Type:   "adjustments",
			ID:     id.New(),
			LineID: id.New(),
		},
		ActorID: "actor-1",
	}
}

func TestPost_RejectsNonPositiveQuantity(t *testing.T) {
	f := newWriterFixture()

	for _, q := range []types.Quantity{qty(0), qty(-5)} {
		_, err := f.writer.Post(context.Background(), f.input(ledger.MovementAdjIn, q))
		require.Error(t, err)
		assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
	}

	assert.Empty(t, f.repo.Entries, "no entries on validation failure")
}

func TestPost_RequiresSourceRef(t *testing.T) {
	f := newWriterFixture()

	in := f.input(ledger.MovementAdjIn, qty(1))
	in.Source.Type = ""
	_, err := f.writer.Post(context.Background(), in)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

	in = f.input(ledger.MovementAdjIn, qty(1))
	in.Source.ID = id.Nil()
	_, err = f.writer.Post(context.Background(), in)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestPost_CreatesSnapshotOnFirstMovement(t *testing.T) {
	f := newWriterFixture()

	entry, err := f.writer.Post(context.Background(), f.input(ledger.MovementAdjIn, qty(10)))
	require.NoError(t, err)

	assert.Equal(t, ledger.DirectionIn, entry.Direction)
	assert.Equal(t, qty(10), entry.Quantity)
	assert.Equal(t, qty(10), entry.BalanceAfter)
	require.NotNil(t, entry.UnitID)
	assert.Equal(t, f.baseUnit, *entry.UnitID)

	snapshots, err := f.repo.ListSnapshotsByBranch(context.Background(), f.branch)
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	assert.Equal(t, qty(10), snapshots[0].OnHand)
}

func TestPost_DuplicateSourceMovement(t *testing.T) {
	f := newWriterFixture()

	in := f.input(ledger.MovementAdjIn, qty(5))
	_, err := f.writer.Post(context.Background(), in)
	require.NoError(t, err)

	// Same source triple and movement: rejected, balance unchanged.
	_, err = f.writer.Post(context.Background(), in)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeDuplicatePosting))

	balance, err := f.writer.Balance(context.Background(), f.branch, f.product)
	require.NoError(t, err)
	assert.Equal(t, qty(5), balance)

	// Same source, different movement: a separate posting.
	in2 := in
	in2.Movement = ledger.MovementAdjOut
	in2.Quantity = qty(2)
	_, err = f.writer.Post(context.Background(), in2)
	require.NoError(t, err)
}

func TestPost_InsufficientStock(t *testing.T) {
	f := newWriterFixture()
	f.repo.SeedBalance(f.branch, f.product, f.baseUnit, qty(3))

	_, err := f.writer.Post(context.Background(), f.input(ledger.MovementSaleOut, qty(5)))
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))

	assert.Empty(t, f.repo.Entries, "failed posting leaves no entry")
	balance, _ := f.writer.Balance(context.Background(), f.branch, f.product)
	assert.Equal(t, qty(3), balance)
}

func TestPost_DrainToZeroAllowed(t *testing.T) {
	f := newWriterFixture()
	f.repo.SeedBalance(f.branch, f.product, f.baseUnit, qty(5))

	entry, err := f.writer.Post(context.Background(), f.input(ledger.MovementSaleOut, qty(5)))
	require.NoError(t, err)
	assert.Equal(t, qty(0), entry.BalanceAfter)
}

func TestPost_ExplicitDirectionWins(t *testing.T) {
	f := newWriterFixture()
	f.repo.SeedBalance(f.branch, f.product, f.baseUnit, qty(10))

	// RETURN_OUTBOUND contains "OUT" but the caller tags it inbound.
	in := f.input("RETURN_OUTBOUND", qty(2))
	in.Direction = ledger.DirectionIn

	entry, err := f.writer.Post(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, ledger.DirectionIn, entry.Direction)
	assert.Equal(t, qty(12), entry.BalanceAfter)
}

func TestInferDirection(t *testing.T) {
	cases := map[string]ledger.Direction{
		"SALE_OUT":     ledger.DirectionOut,
		"TRANSFER_OUT": ledger.DirectionOut,
		"SHRINKAGE":    ledger.DirectionOut,
		"WRITE_OFF":    ledger.DirectionOut,
		"SALE":         ledger.DirectionOut,
		"ADJ_IN":       ledger.DirectionIn,
		"TRANSFER_IN":  ledger.DirectionIn,
		"RECEIPT":      ledger.DirectionIn,
		"":             ledger.DirectionIn,
	}
	for movement, want := range cases {
		assert.Equal(t, want, ledger.InferDirection(movement), "movement %q", movement)
	}
}

func TestPost_ConvertsToBaseUnit(t *testing.T) {
	f := newWriterFixture()
	boxUnit := id.New()
	f.conv.Multipliers[boxUnit] = qty(12) // one box is 12 base units

	in := f.input(ledger.MovementAdjIn, qty(2))
	in.UnitID = &boxUnit

	entry, err := f.writer.Post(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, qty(24), entry.Quantity)
	require.NotNil(t, entry.UnitID)
	assert.Equal(t, f.baseUnit, *entry.UnitID, "entry stored in base unit")
}

func TestPost_NormalizesLegacySnapshotUnit(t *testing.T) {
	f := newWriterFixture()
	legacyUnit := id.New()
	f.repo.SeedBalance(f.branch, f.product, legacyUnit, qty(7))

	_, err := f.writer.Post(context.Background(), f.input(ledger.MovementAdjIn, qty(1)))
	require.NoError(t, err)

	snapshots, err := f.repo.ListSnapshotsByBranch(context.Background(), f.branch)
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	require.NotNil(t, snapshots[0].UnitID)
	assert.Equal(t, f.baseUnit, *snapshots[0].UnitID)
	assert.Equal(t, qty(8), snapshots[0].OnHand)
}

func TestPostInPostOut_DefaultMovements(t *testing.T) {
	f := newWriterFixture()

	in := f.input("", qty(4))
	entry, err := f.writer.PostIn(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, ledger.MovementIn, entry.Movement)

	out := f.input("", qty(1))
	entry, err = f.writer.PostOut(context.Background(), out)
	require.NoError(t, err)
	assert.Equal(t, ledger.MovementOut, entry.Movement)
	assert.Equal(t, qty(3), entry.BalanceAfter)
}

func TestBalance_ZeroWhenNoSnapshot(t *testing.T) {
	f := newWriterFixture()

	balance, err := f.writer.Balance(context.Background(), f.branch, f.product)
	require.NoError(t, err)
	assert.Equal(t, qty(0), balance)
}

func TestCheckAvailability(t *testing.T) {
	f := newWriterFixture()
	f.repo.SeedBalance(f.branch, f.product, f.baseUnit, qty(5))

	assert.NoError(t, f.writer.CheckAvailability(context.Background(), f.branch, f.product, qty(5)))

	err := f.writer.CheckAvailability(context.Background(), f.branch, f.product, qty(6))
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))
}

func TestComputeHash_Deterministic(t *testing.T) {
	unitID := id.New()
	entry := ledger.Entry{
		ID:           id.New(),
		BranchID:     id.New(),
		ProductID:    id.New(),
		UnitID:       &unitID,
		Movement:     ledger.MovementSaleOut,
		Direction:    ledger.DirectionOut,
		Quantity:     qty(3),
		BalanceAfter: qty(7),
		SourceType:   "sales_orders",
		SourceID:     id.New(),
		SourceLine:   id.New(),
		PostedAt:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	first := entry.ComputeHash()
	assert.Equal(t, first, entry.ComputeHash())
	assert.Len(t, first, 64)

	// The entry id does not participate in the hash.
	entry.ID = id.New()
	assert.Equal(t, first, entry.ComputeHash())

	entry.Quantity = qty(4)
	assert.NotEqual(t, first, entry.ComputeHash())
}
