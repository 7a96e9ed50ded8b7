package adjustment

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
	"inventra/internal/domain/ledger"
	"inventra/internal/domain/ledger/ledgertest"
)

type fakeRepo struct {
	docs  map[id.ID]*Adjustment
	lines map[id.ID][]Line
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		docs:  make(map[id.ID]*Adjustment),
		lines: make(map[id.ID][]Line),
	}
}

func (r *fakeRepo) Create(ctx context.Context, doc *Adjustment) error {
	clone := *doc
	r.docs[doc.ID] = &clone
	return nil
}

func (r *fakeRepo) GetByID(ctx context.Context, docID id.ID) (*Adjustment, error) {
	doc, ok := r.docs[docID]
	if !ok {
		return nil, apperror.NewNotFound("adjustment", docID.String())
	}
	clone := *doc
	return &clone, nil
}

func (r *fakeRepo) GetForUpdate(ctx context.Context, docID id.ID) (*Adjustment, error) {
	return r.GetByID(ctx, docID)
}

func (r *fakeRepo) Update(ctx context.Context, doc *Adjustment) error {
	if _, ok := r.docs[doc.ID]; !ok {
		return apperror.NewNotFound("adjustment", doc.ID.String())
	}
	clone := *doc
	r.docs[doc.ID] = &clone
	return nil
}

func (r *fakeRepo) Delete(ctx context.Context, docID id.ID) error {
	doc, ok := r.docs[docID]
	if !ok {
		return apperror.NewNotFound("adjustment", docID.String())
	}
	doc.DeletionMark = true
	return nil
}

func (r *fakeRepo) GetLines(ctx context.Context, docID id.ID) ([]Line, error) {
	return r.lines[docID], nil
}

func (r *fakeRepo) SaveLines(ctx context.Context, docID id.ID, lines []Line) error {
	r.lines[docID] = append([]Line(nil), lines...)
	return nil
}

func (r *fakeRepo) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Adjustment], error) {
	var items []*Adjustment
	for _, doc := range r.docs {
		items = append(items, doc)
	}
	return domain.ListResult[*Adjustment]{Items: items, TotalCount: int64(len(items))}, nil
}

var _ Repository = (*fakeRepo)(nil)

type fixture struct {
	repo       *fakeRepo
	ledgerRepo *ledgertest.Repo
	service    *Service
	branch     id.ID
	baseUnit   id.ID
}

func newFixture() *fixture {
	repo := newFakeRepo()
	ledgerRepo := ledgertest.NewRepo()
	baseUnit := id.New()
	converter := ledgertest.NewConverter(baseUnit)
	txm := ledgertest.NewTxManager(ledgerRepo)
	writer := ledger.NewWriter(ledgerRepo, converter, txm)

	return &fixture{
		repo:       repo,
		ledgerRepo: ledgerRepo,
		service:    NewService(repo, writer, converter, &numerator.MockGenerator{}, txm),
		branch:     id.New(),
		baseUnit:   baseUnit,
	}
}

func (f *fixture) draft(t *testing.T, deltas ...types.Quantity) *Adjustment {
	t.Helper()
	doc := New(f.branch, ReasonManual)
	for _, d := range deltas {
		doc.AddLine(id.New(), nil, d)
	}
	require.NoError(t, f.service.Create(context.Background(), doc))
	return doc
}

func TestCreate_GeneratesNumber(t *testing.T) {
	f := newFixture()

	doc := f.draft(t, types.NewQuantityFromFloat64(5))
	assert.NotEmpty(t, doc.Number)

	stored, err := f.service.GetByID(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.Number, stored.Number)
	assert.Len(t, stored.Lines, 1)
}

func TestCreate_RejectsMissingBranch(t *testing.T) {
	f := newFixture()

	doc := New(id.Nil(), ReasonManual)
	err := f.service.Create(context.Background(), doc)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestPost_RecordsMovementsPerLine(t *testing.T) {
	f := newFixture()

	doc := New(f.branch, ReasonDamage)
	foundID, lostID := id.New(), id.New()
	doc.AddLine(foundID, nil, types.NewQuantityFromFloat64(5))
	doc.AddLine(lostID, nil, types.NewQuantityFromFloat64(-2))
	require.NoError(t, f.service.Create(context.Background(), doc))

	f.ledgerRepo.SeedBalance(f.branch, lostID, f.baseUnit, types.NewQuantityFromFloat64(10))

	posted, err := f.service.Post(context.Background(), doc.ID, "actor-1")
	require.NoError(t, err)
	assert.Equal(t, StatusPosted, posted.Status)
	assert.Equal(t, "actor-1", posted.PostedBy)
	require.NotNil(t, posted.PostedAt)

	require.Len(t, f.ledgerRepo.Entries, 2)
	byMovement := map[string]ledger.Entry{}
	for _, e := range f.ledgerRepo.Entries {
		byMovement[e.Movement] = e
		assert.Equal(t, SourceType, e.SourceType)
		assert.Equal(t, doc.ID, e.SourceID)
	}
	assert.Equal(t, types.NewQuantityFromFloat64(5), byMovement[ledger.MovementAdjIn].Quantity)
	assert.Equal(t, types.NewQuantityFromFloat64(2), byMovement[ledger.MovementAdjOut].Quantity)
}

func TestPost_SkipsZeroLines(t *testing.T) {
	f := newFixture()
	doc := f.draft(t, types.NewQuantityFromFloat64(3), types.NewQuantityFromFloat64(0))

	_, err := f.service.Post(context.Background(), doc.ID, "actor-1")
	require.NoError(t, err)
	assert.Len(t, f.ledgerRepo.Entries, 1)
}

func TestPost_AlreadyPosted(t *testing.T) {
	f := newFixture()
	doc := f.draft(t, types.NewQuantityFromFloat64(1))

	_, err := f.service.Post(context.Background(), doc.ID, "actor-1")
	require.NoError(t, err)

	_, err = f.service.Post(context.Background(), doc.ID, "actor-1")
	assert.True(t, apperror.IsCode(err, apperror.CodeDocumentPosted))
	assert.Len(t, f.ledgerRepo.Entries, 1, "no additional postings")
}

func TestPost_EmptyDocumentRejected(t *testing.T) {
	f := newFixture()
	doc := f.draft(t)

	_, err := f.service.Post(context.Background(), doc.ID, "actor-1")
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestPost_InsufficientStockPreCheck(t *testing.T) {
	f := newFixture()

	doc := New(f.branch, ReasonExpiry)
	productID := id.New()
	doc.AddLine(productID, nil, types.NewQuantityFromFloat64(-4))
	require.NoError(t, f.service.Create(context.Background(), doc))

	f.ledgerRepo.SeedBalance(f.branch, productID, f.baseUnit, types.NewQuantityFromFloat64(3))

	_, err := f.service.Post(context.Background(), doc.ID, "actor-1")
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))
	assert.Empty(t, f.ledgerRepo.Entries)

	stored, err := f.service.GetByID(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, stored.Status)
}

// Two outbound lines on the same product each pass the pre-check against
// the starting balance but jointly overdraw it, so the writer rejects the
// second line after the first has posted. The whole posting must roll back.
func TestPost_MidLineFailureRollsBackEarlierLines(t *testing.T) {
	f := newFixture()

	productID := id.New()
	doc := New(f.branch, ReasonExpiry)
	doc.AddLine(productID, nil, types.NewQuantityFromFloat64(-3))
	doc.AddLine(productID, nil, types.NewQuantityFromFloat64(-4))
	require.NoError(t, f.service.Create(context.Background(), doc))

	f.ledgerRepo.SeedBalance(f.branch, productID, f.baseUnit, types.NewQuantityFromFloat64(5))

	_, err := f.service.Post(context.Background(), doc.ID, "actor-1")
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))

	assert.Empty(t, f.ledgerRepo.Entries)
	snap, err := f.ledgerRepo.GetSnapshot(context.Background(), f.branch, productID)
	require.NoError(t, err)
	assert.Equal(t, types.NewQuantityFromFloat64(5), snap.OnHand)

	stored, err := f.service.GetByID(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, stored.Status)
}

func TestUpdate_PostedIsImmutable(t *testing.T) {
	f := newFixture()
	doc := f.draft(t, types.NewQuantityFromFloat64(1))

	posted, err := f.service.Post(context.Background(), doc.ID, "actor-1")
	require.NoError(t, err)

	posted.Comment = "edited after posting"
	err = f.service.Update(context.Background(), posted)
	assert.True(t, apperror.IsCode(err, apperror.CodeDocumentPosted))
}

func TestDelete_PostedIsRejected(t *testing.T) {
	f := newFixture()
	doc := f.draft(t, types.NewQuantityFromFloat64(1))

	_, err := f.service.Post(context.Background(), doc.ID, "actor-1")
	require.NoError(t, err)

	err = f.service.Delete(context.Background(), doc.ID)
	assert.True(t, apperror.IsCode(err, apperror.CodeDocumentPosted))
}

func TestDelete_DraftSoftDeletes(t *testing.T) {
	f := newFixture()
	doc := f.draft(t, types.NewQuantityFromFloat64(1))

	require.NoError(t, f.service.Delete(context.Background(), doc.ID))
	assert.True(t, f.repo.docs[doc.ID].DeletionMark)
}
