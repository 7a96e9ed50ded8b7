package stockcount

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inventra/internal/core/apperror"
	"inventra/internal/core/id"
	"inventra/internal/core/numerator"
	"inventra/internal/core/types"
	"inventra/internal/domain"
	"inventra/internal/domain/documents/adjustment"
	"inventra/internal/domain/ledger"
	"inventra/internal/domain/ledger/ledgertest"
)

type fakeRepo struct {
	docs  map[id.ID]*StockCount
	lines map[id.ID][]Line
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		docs:  make(map[id.ID]*StockCount),
		lines: make(map[id.ID][]Line),
	}
}

func (r *fakeRepo) Create(ctx context.Context, doc *StockCount) error {
	clone := *doc
	r.docs[doc.ID] = &clone
	return nil
}

func (r *fakeRepo) GetByID(ctx context.Context, docID id.ID) (*StockCount, error) {
	doc, ok := r.docs[docID]
	if !ok {
		return nil, apperror.NewNotFound("stock count", docID.String())
	}
	clone := *doc
	return &clone, nil
}

func (r *fakeRepo) GetForUpdate(ctx context.Context, docID id.ID) (*StockCount, error) {
	return r.GetByID(ctx, docID)
}

func (r *fakeRepo) Update(ctx context.Context, doc *StockCount) error {
	if _, ok := r.docs[doc.ID]; !ok {
		return apperror.NewNotFound("stock count", doc.ID.String())
	}
	clone := *doc
	r.docs[doc.ID] = &clone
	return nil
}

func (r *fakeRepo) GetLines(ctx context.Context, docID id.ID) ([]Line, error) {
	return r.lines[docID], nil
}

func (r *fakeRepo) SaveLines(ctx context.Context, docID id.ID, lines []Line) error {
	r.lines[docID] = append([]Line(nil), lines...)
	return nil
}

func (r *fakeRepo) List(ctx context.Context, filter ListFilter) (domain.ListResult[*StockCount], error) {
	var items []*StockCount
	for _, doc := range r.docs {
		items = append(items, doc)
	}
	return domain.ListResult[*StockCount]{Items: items, TotalCount: int64(len(items))}, nil
}

var _ Repository = (*fakeRepo)(nil)

type fakeAdjRepo struct {
	docs  map[id.ID]*adjustment.Adjustment
	lines map[id.ID][]adjustment.Line
}

func newFakeAdjRepo() *fakeAdjRepo {
	return &fakeAdjRepo{
		docs:  make(map[id.ID]*adjustment.Adjustment),
		lines: make(map[id.ID][]adjustment.Line),
	}
}

func (r *fakeAdjRepo) Create(ctx context.Context, doc *adjustment.Adjustment) error {
	clone := *doc
	r.docs[doc.ID] = &clone
	return nil
}

func (r *fakeAdjRepo) GetByID(ctx context.Context, docID id.ID) (*adjustment.Adjustment, error) {
	doc, ok := r.docs[docID]
	if !ok {
		return nil, apperror.NewNotFound("adjustment", docID.String())
	}
	clone := *doc
	return &clone, nil
}

func (r *fakeAdjRepo) GetForUpdate(ctx context.Context, docID id.ID) (*adjustment.Adjustment, error) {
	return r.GetByID(ctx, docID)
}

func (r *fakeAdjRepo) Update(ctx context.Context, doc *adjustment.Adjustment) error {
	clone := *doc
	r.docs[doc.ID] = &clone
	return nil
}

func (r *fakeAdjRepo) Delete(ctx context.Context, docID id.ID) error {
	delete(r.docs, docID)
	return nil
}

func (r *fakeAdjRepo) GetLines(ctx context.Context, docID id.ID) ([]adjustment.Line, error) {
	return r.lines[docID], nil
}

func (r *fakeAdjRepo) SaveLines(ctx context.Context, docID id.ID, lines []adjustment.Line) error {
	r.lines[docID] = append([]adjustment.Line(nil), lines...)
	return nil
}

func (r *fakeAdjRepo) List(ctx context.Context, filter adjustment.ListFilter) (domain.ListResult[*adjustment.Adjustment], error) {
	return domain.ListResult[*adjustment.Adjustment]{}, nil
}

var _ adjustment.Repository = (*fakeAdjRepo)(nil)

type fixture struct {
	repo       *fakeRepo
	adjRepo    *fakeAdjRepo
	ledgerRepo *ledgertest.Repo
	service    *Service
	branch     id.ID
	baseUnit   id.ID
}

func newFixture() *fixture {
	repo := newFakeRepo()
	adjRepo := newFakeAdjRepo()
	ledgerRepo := ledgertest.NewRepo()
	baseUnit := id.New()
	converter := ledgertest.NewConverter(baseUnit)
	txm := ledgertest.NewTxManager(ledgerRepo)
	writer := ledger.NewWriter(ledgerRepo, converter, txm)

	adjustments := adjustment.NewService(adjRepo, writer, converter, &numerator.MockGenerator{}, txm)

	return &fixture{
		repo:       repo,
		adjRepo:    adjRepo,
		ledgerRepo: ledgerRepo,
		service:    NewService(repo, adjustments, writer, converter, &numerator.MockGenerator{}, txm),
		branch:     id.New(),
		baseUnit:   baseUnit,
	}
}

func (f *fixture) count(t *testing.T, productID id.ID, counted types.Quantity) *StockCount {
	t.Helper()
	doc := New(f.branch)
	doc.AddLine(productID, nil, counted)
	require.NoError(t, f.service.Create(context.Background(), doc))
	return doc
}

func TestPost_ZeroVarianceSkipsAdjustment(t *testing.T) {
	f := newFixture()
	productID := id.New()
	f.ledgerRepo.SeedBalance(f.branch, productID, f.baseUnit, types.NewQuantityFromFloat64(5))
	doc := f.count(t, productID, types.NewQuantityFromFloat64(5))

	result, err := f.service.Post(context.Background(), doc.ID, "actor-1")
	require.NoError(t, err)
	assert.False(t, result.Posted)
	assert.Nil(t, result.AdjustmentID)
	assert.Empty(t, f.ledgerRepo.Entries)
	assert.Empty(t, f.adjRepo.docs)

	stored, err := f.service.GetByID(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPosted, stored.Status)
	assert.Equal(t, "actor-1", stored.PostedBy)
}

func TestPost_SurplusCreatesInboundAdjustment(t *testing.T) {
	f := newFixture()
	productID := id.New()
	f.ledgerRepo.SeedBalance(f.branch, productID, f.baseUnit, types.NewQuantityFromFloat64(5))
	doc := f.count(t, productID, types.NewQuantityFromFloat64(8))

	result, err := f.service.Post(context.Background(), doc.ID, "actor-1")
	require.NoError(t, err)
	assert.True(t, result.Posted)
	require.NotNil(t, result.AdjustmentID)

	adj, ok := f.adjRepo.docs[*result.AdjustmentID]
	require.True(t, ok)
	assert.Equal(t, adjustment.ReasonCount, adj.Reason)
	assert.Equal(t, adjustment.StatusPosted, adj.Status)

	require.Len(t, f.ledgerRepo.Entries, 1)
	entry := f.ledgerRepo.Entries[0]
	assert.Equal(t, ledger.MovementAdjIn, entry.Movement)
	assert.Equal(t, types.NewQuantityFromFloat64(3), entry.Quantity)
	assert.Equal(t, types.NewQuantityFromFloat64(8), entry.BalanceAfter)

	stored, err := f.service.GetByID(context.Background(), doc.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.AdjustmentID)
	assert.Equal(t, *result.AdjustmentID, *stored.AdjustmentID)
}

func TestPost_ShortageCreatesOutboundAdjustment(t *testing.T) {
	f := newFixture()
	productID := id.New()
	f.ledgerRepo.SeedBalance(f.branch, productID, f.baseUnit, types.NewQuantityFromFloat64(10))
	doc := f.count(t, productID, types.NewQuantityFromFloat64(6))

	result, err := f.service.Post(context.Background(), doc.ID, "actor-1")
	require.NoError(t, err)
	assert.True(t, result.Posted)

	require.Len(t, f.ledgerRepo.Entries, 1)
	entry := f.ledgerRepo.Entries[0]
	assert.Equal(t, ledger.MovementAdjOut, entry.Movement)
	assert.Equal(t, types.NewQuantityFromFloat64(4), entry.Quantity)
	assert.Equal(t, types.NewQuantityFromFloat64(6), entry.BalanceAfter)
}

func TestPost_CountForUntrackedProduct(t *testing.T) {
	f := newFixture()
	// No snapshot seeded: system balance is zero, the full count is surplus.
	productID := id.New()
	doc := f.count(t, productID, types.NewQuantityFromFloat64(2))

	result, err := f.service.Post(context.Background(), doc.ID, "actor-1")
	require.NoError(t, err)
	assert.True(t, result.Posted)

	require.Len(t, f.ledgerRepo.Entries, 1)
	assert.Equal(t, types.NewQuantityFromFloat64(2), f.ledgerRepo.Entries[0].BalanceAfter)
}

func TestPost_RepeatIsNoOp(t *testing.T) {
	f := newFixture()
	productID := id.New()
	f.ledgerRepo.SeedBalance(f.branch, productID, f.baseUnit, types.NewQuantityFromFloat64(5))
	doc := f.count(t, productID, types.NewQuantityFromFloat64(8))

	first, err := f.service.Post(context.Background(), doc.ID, "actor-1")
	require.NoError(t, err)
	require.True(t, first.Posted)

	second, err := f.service.Post(context.Background(), doc.ID, "actor-1")
	require.NoError(t, err)
	assert.False(t, second.Posted)
	require.NotNil(t, second.AdjustmentID, "back-reference survives the no-op")
	assert.Equal(t, *first.AdjustmentID, *second.AdjustmentID)
	assert.Len(t, f.ledgerRepo.Entries, 1)
}

func TestUpdate_PostedIsImmutable(t *testing.T) {
	f := newFixture()
	productID := id.New()
	f.ledgerRepo.SeedBalance(f.branch, productID, f.baseUnit, types.NewQuantityFromFloat64(5))
	doc := f.count(t, productID, types.NewQuantityFromFloat64(5))

	_, err := f.service.Post(context.Background(), doc.ID, "actor-1")
	require.NoError(t, err)

	stored, err := f.service.GetByID(context.Background(), doc.ID)
	require.NoError(t, err)
	stored.Comment = "edited"
	err = f.service.Update(context.Background(), stored)
	assert.True(t, apperror.IsCode(err, apperror.CodeDocumentPosted))
}
