package stockrequest

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
	"inventra/internal/domain/documents/transfer"
	"inventra/internal/domain/ledger"
	"inventra/internal/domain/ledger/ledgertest"
)

type fakeRepo struct {
	docs  map[id.ID]*StockRequest
	lines map[id.ID][]Line
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		docs:  make(map[id.ID]*StockRequest),
		lines: make(map[id.ID][]Line),
	}
}

func (r *fakeRepo) Create(ctx context.Context, doc *StockRequest) error {
	clone := *doc
	r.docs[doc.ID] = &clone
	return nil
}

func (r *fakeRepo) GetByID(ctx context.Context, docID id.ID) (*StockRequest, error) {
	doc, ok := r.docs[docID]
	if !ok {
		return nil, apperror.NewNotFound("stock request", docID.String())
	}
	clone := *doc
	return &clone, nil
}

func (r *fakeRepo) GetForUpdate(ctx context.Context, docID id.ID) (*StockRequest, error) {
	return r.GetByID(ctx, docID)
}

func (r *fakeRepo) Update(ctx context.Context, doc *StockRequest) error {
	if _, ok := r.docs[doc.ID]; !ok {
		return apperror.NewNotFound("stock request", doc.ID.String())
	}
	clone := *doc
	r.docs[doc.ID] = &clone
	return nil
}

func (r *fakeRepo) Delete(ctx context.Context, docID id.ID) error {
	delete(r.docs, docID)
	return nil
}

func (r *fakeRepo) GetLines(ctx context.Context, docID id.ID) ([]Line, error) {
	return append([]Line(nil), r.lines[docID]...), nil
}

func (r *fakeRepo) SaveLines(ctx context.Context, docID id.ID, lines []Line) error {
	r.lines[docID] = append([]Line(nil), lines...)
	return nil
}

func (r *fakeRepo) List(ctx context.Context, filter ListFilter) (domain.ListResult[*StockRequest], error) {
	var items []*StockRequest
	for _, doc := range r.docs {
		items = append(items, doc)
	}
	return domain.ListResult[*StockRequest]{Items: items, TotalCount: int64(len(items))}, nil
}

var _ Repository = (*fakeRepo)(nil)

type fakeTransferRepo struct {
	docs  map[id.ID]*transfer.Transfer
	lines map[id.ID][]transfer.Line
}

func newFakeTransferRepo() *fakeTransferRepo {
	return &fakeTransferRepo{
		docs:  make(map[id.ID]*transfer.Transfer),
		lines: make(map[id.ID][]transfer.Line),
	}
}

func (r *fakeTransferRepo) Create(ctx context.Context, doc *transfer.Transfer) error {
	clone := *doc
	r.docs[doc.ID] = &clone
	return nil
}

func (r *fakeTransferRepo) GetByID(ctx context.Context, docID id.ID) (*transfer.Transfer, error) {
	doc, ok := r.docs[docID]
	if !ok {
		return nil, apperror.NewNotFound("transfer", docID.String())
	}
	clone := *doc
	return &clone, nil
}

func (r *fakeTransferRepo) GetForUpdate(ctx context.Context, docID id.ID) (*transfer.Transfer, error) {
	return r.GetByID(ctx, docID)
}

func (r *fakeTransferRepo) Update(ctx context.Context, doc *transfer.Transfer) error {
	clone := *doc
	r.docs[doc.ID] = &clone
	return nil
}

func (r *fakeTransferRepo) Delete(ctx context.Context, docID id.ID) error {
	delete(r.docs, docID)
	return nil
}

func (r *fakeTransferRepo) GetLines(ctx context.Context, docID id.ID) ([]transfer.Line, error) {
	return r.lines[docID], nil
}

func (r *fakeTransferRepo) SaveLines(ctx context.Context, docID id.ID, lines []transfer.Line) error {
	r.lines[docID] = append([]transfer.Line(nil), lines...)
	return nil
}

func (r *fakeTransferRepo) List(ctx context.Context, filter transfer.ListFilter) (domain.ListResult[*transfer.Transfer], error) {
	return domain.ListResult[*transfer.Transfer]{}, nil
}

var _ transfer.Repository = (*fakeTransferRepo)(nil)

type fixture struct {
	repo         *fakeRepo
	transferRepo *fakeTransferRepo
	service      *Service
	branch       id.ID
	supply       id.ID
}

func newFixture() *fixture {
	repo := newFakeRepo()
	transferRepo := newFakeTransferRepo()
	ledgerRepo := ledgertest.NewRepo()
	txm := ledgertest.NewTxManager(ledgerRepo)
	writer := ledger.NewWriter(ledgerRepo, ledgertest.NewConverter(id.New()), txm)
	transfers := transfer.NewService(transferRepo, writer, &numerator.MockGenerator{}, txm)

	return &fixture{
		repo:         repo,
		transferRepo: transferRepo,
		service:      NewService(repo, transfers, &numerator.MockGenerator{}, txm),
		branch:       id.New(),
		supply:       id.New(),
	}
}

func (f *fixture) submitted(t *testing.T, requested ...types.Quantity) *StockRequest {
	t.Helper()
	doc := New(f.branch)
	doc.SupplyBranchID = &f.supply
	for _, q := range requested {
		doc.AddLine(id.New(), nil, q)
	}
	require.NoError(t, f.service.Create(context.Background(), doc))
	submitted, err := f.service.Submit(context.Background(), doc.ID, "requester-1")
	require.NoError(t, err)
	return submitted
}

func TestSubmit_OnlyFromDraft(t *testing.T) {
	f := newFixture()
	doc := f.submitted(t, types.NewQuantityFromFloat64(5))

	assert.Equal(t, StatusSubmitted, doc.Status)
	require.NotNil(t, doc.SubmittedAt)
	assert.Equal(t, "requester-1", doc.SubmittedBy)

	_, err := f.service.Submit(context.Background(), doc.ID, "requester-1")
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidTransition))
}

func TestApprove_ClampsAndCreatesTransfer(t *testing.T) {
	f := newFixture()
	doc := f.submitted(t,
		types.NewQuantityFromFloat64(10),
		types.NewQuantityFromFloat64(4),
		types.NewQuantityFromFloat64(2),
	)

	lines, err := f.repo.GetLines(context.Background(), doc.ID)
	require.NoError(t, err)
	require.Len(t, lines, 3)

	approved := map[id.ID]types.Quantity{
		lines[0].LineID: types.NewQuantityFromFloat64(6),  // partially approved
		lines[1].LineID: types.NewQuantityFromFloat64(-1), // clamped to zero
		// lines[2] omitted: approved at zero
	}

	tr, err := f.service.ApproveAndCreateTransfer(
		context.Background(), doc.ID, approved, nil, "approver-1")
	require.NoError(t, err)
	require.NotNil(t, tr)

	assert.Equal(t, f.supply, tr.FromBranchID)
	assert.Equal(t, f.branch, tr.ToBranchID)
	assert.Equal(t, transfer.StatusDraft, tr.Status)
	require.NotNil(t, tr.StockRequestID)
	assert.Equal(t, doc.ID, *tr.StockRequestID)

	// Only the one positively approved line makes it into the transfer.
	require.Len(t, tr.Lines, 1)
	assert.Equal(t, lines[0].ProductID, tr.Lines[0].ProductID)
	assert.Equal(t, types.NewQuantityFromFloat64(6), tr.Lines[0].Quantity)

	stored, err := f.service.GetByID(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, stored.Status)
	assert.Equal(t, "approver-1", stored.ApprovedBy)
	assert.Equal(t, types.NewQuantityFromFloat64(6), stored.Lines[0].QtyApproved)
	assert.True(t, stored.Lines[1].QtyApproved.IsZero())
	assert.True(t, stored.Lines[2].QtyApproved.IsZero())
}

func TestApprove_SupplyBranchOverride(t *testing.T) {
	f := newFixture()
	doc := f.submitted(t, types.NewQuantityFromFloat64(3))
	lines, _ := f.repo.GetLines(context.Background(), doc.ID)

	override := id.New()
	tr, err := f.service.ApproveAndCreateTransfer(
		context.Background(), doc.ID,
		map[id.ID]types.Quantity{lines[0].LineID: types.NewQuantityFromFloat64(3)},
		&override, "approver-1")
	require.NoError(t, err)
	assert.Equal(t, override, tr.FromBranchID)
}

func TestApprove_RequiresSupplyBranch(t *testing.T) {
	f := newFixture()
	doc := New(f.branch)
	doc.AddLine(id.New(), nil, types.NewQuantityFromFloat64(3))
	require.NoError(t, f.service.Create(context.Background(), doc))

	_, err := f.service.ApproveAndCreateTransfer(
		context.Background(), doc.ID, nil, nil, "approver-1")
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestApprove_RejectsSupplyEqualsRequesting(t *testing.T) {
	f := newFixture()
	doc := f.submitted(t, types.NewQuantityFromFloat64(3))

	_, err := f.service.ApproveAndCreateTransfer(
		context.Background(), doc.ID, nil, &f.branch, "approver-1")
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestApprove_RepeatRejected(t *testing.T) {
	f := newFixture()
	doc := f.submitted(t, types.NewQuantityFromFloat64(3))
	lines, _ := f.repo.GetLines(context.Background(), doc.ID)

	_, err := f.service.ApproveAndCreateTransfer(
		context.Background(), doc.ID,
		map[id.ID]types.Quantity{lines[0].LineID: types.NewQuantityFromFloat64(3)},
		nil, "approver-1")
	require.NoError(t, err)

	_, err = f.service.ApproveAndCreateTransfer(
		context.Background(), doc.ID, nil, nil, "approver-1")
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidTransition))
	assert.Len(t, f.transferRepo.docs, 1, "no second transfer")
}

func TestApprove_EmptyRequestRejected(t *testing.T) {
	f := newFixture()
	doc := New(f.branch)
	doc.SupplyBranchID = &f.supply
	require.NoError(t, f.service.Create(context.Background(), doc))

	_, err := f.service.ApproveAndCreateTransfer(
		context.Background(), doc.ID, nil, nil, "approver-1")
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}
