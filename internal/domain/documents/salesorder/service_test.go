package salesorder

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"inventra/internal/core/apperror"
	"inventra/internal/core/id"
	"inventra/internal/core/numerator"
	"inventra/internal/core/types"
	"inventra/internal/domain"
	"inventra/internal/domain/audit"
	"inventra/internal/domain/catalogs/branch"
	"inventra/internal/domain/catalogs/user"
	"inventra/internal/domain/ledger"
	"inventra/internal/domain/ledger/ledgertest"
)

type fakeRepo struct {
	docs     map[id.ID]*SalesOrder
	lines    map[id.ID][]Line
	payments map[id.ID][]Payment
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		docs:     make(map[id.ID]*SalesOrder),
		lines:    make(map[id.ID][]Line),
		payments: make(map[id.ID][]Payment),
	}
}

func (r *fakeRepo) Create(ctx context.Context, doc *SalesOrder) error {
	clone := *doc
	r.docs[doc.ID] = &clone
	return nil
}

func (r *fakeRepo) GetByID(ctx context.Context, docID id.ID) (*SalesOrder, error) {
	doc, ok := r.docs[docID]
	if !ok {
		return nil, apperror.NewNotFound("sales order", docID.String())
	}
	clone := *doc
	return &clone, nil
}

func (r *fakeRepo) GetForUpdate(ctx context.Context, docID id.ID) (*SalesOrder, error) {
	return r.GetByID(ctx, docID)
}

func (r *fakeRepo) Update(ctx context.Context, doc *SalesOrder) error {
	if _, ok := r.docs[doc.ID]; !ok {
		return apperror.NewNotFound("sales order", doc.ID.String())
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
	return r.lines[docID], nil
}

func (r *fakeRepo) SaveLines(ctx context.Context, docID id.ID, lines []Line) error {
	r.lines[docID] = append([]Line(nil), lines...)
	return nil
}

func (r *fakeRepo) GetPayments(ctx context.Context, docID id.ID) ([]Payment, error) {
	return r.payments[docID], nil
}

func (r *fakeRepo) AddPayment(ctx context.Context, docID id.ID, payment *Payment) error {
	r.payments[docID] = append(r.payments[docID], *payment)
	return nil
}

func (r *fakeRepo) List(ctx context.Context, filter ListFilter) (domain.ListResult[*SalesOrder], error) {
	var items []*SalesOrder
	for _, doc := range r.docs {
		items = append(items, doc)
	}
	return domain.ListResult[*SalesOrder]{Items: items, TotalCount: int64(len(items))}, nil
}

var _ Repository = (*fakeRepo)(nil)

type fakeBranchRepo struct {
	branch.Repository
	branches map[id.ID]*branch.Branch
}

func (r *fakeBranchRepo) GetByID(ctx context.Context, branchID id.ID) (*branch.Branch, error) {
	b, ok := r.branches[branchID]
	if !ok {
		return nil, apperror.NewNotFound("branch", branchID.String())
	}
	return b, nil
}

type fakeUserRepo struct {
	user.Repository
	users map[id.ID]*user.User
}

func (r *fakeUserRepo) GetByID(ctx context.Context, userID id.ID) (*user.User, error) {
	u, ok := r.users[userID]
	if !ok {
		return nil, apperror.NewNotFound("user", userID.String())
	}
	return u, nil
}

type captureSink struct {
	events   []audit.Event
	failWith error
}

func (s *captureSink) Record(ctx context.Context, event audit.Event) error {
	if s.failWith != nil {
		return s.failWith
	}
	s.events = append(s.events, event)
	return nil
}

type fixture struct {
	repo       *fakeRepo
	ledgerRepo *ledgertest.Repo
	branches   *fakeBranchRepo
	users      *fakeUserRepo
	sink       *captureSink
	service    *Service
	branchID   id.ID
	actorID    id.ID
	baseUnit   id.ID
}

func newFixture() *fixture {
	repo := newFakeRepo()
	ledgerRepo := ledgertest.NewRepo()
	baseUnit := id.New()
	converter := ledgertest.NewConverter(baseUnit)
	txm := ledgertest.NewTxManager(ledgerRepo)
	writer := ledger.NewWriter(ledgerRepo, converter, txm)

	br := branch.New("MAIN", "Main branch", "USD")
	actor := user.New("U1", "Cashier", "cashier@example.com")

	branches := &fakeBranchRepo{branches: map[id.ID]*branch.Branch{br.ID: br}}
	users := &fakeUserRepo{users: map[id.ID]*user.User{actor.ID: actor}}
	sink := &captureSink{}

	return &fixture{
		repo:       repo,
		ledgerRepo: ledgerRepo,
		branches:   branches,
		users:      users,
		sink:       sink,
		service: NewService(
			repo, writer, converter, branches, users, sink,
			&numerator.MockGenerator{}, txm),
		branchID: br.ID,
		actorID:  actor.ID,
		baseUnit: baseUnit,
	}
}

// order creates a draft order with one line of 2 units at 10.00 and seeds
// the branch with stock for it.
func (f *fixture) order(t *testing.T) *SalesOrder {
	t.Helper()
	doc := New(f.branchID, "ACME Ltd", "USD")
	productID := id.New()
	doc.AddLine(productID, nil, types.NewQuantityFromFloat64(2), types.MinorUnits(1000))
	require.NoError(t, f.service.Create(context.Background(), doc))
	f.ledgerRepo.SeedBalance(f.branchID, productID, f.baseUnit, types.NewQuantityFromFloat64(10))
	return doc
}

func TestCreate_ComputesTotals(t *testing.T) {
	f := newFixture()
	doc := f.order(t)

	assert.NotEmpty(t, doc.Number)
	assert.Equal(t, types.MinorUnits(2000), doc.TotalAmount)
	assert.Equal(t, types.MinorUnits(0), doc.PaidAmount)
}

func TestConfirm_OnlyFromDraft(t *testing.T) {
	f := newFixture()
	doc := f.order(t)

	confirmed, err := f.service.Confirm(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, confirmed.Status)

	_, err = f.service.Confirm(context.Background(), doc.ID)
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidTransition))
}

func TestAddPayment_FlipsConfirmedToPaid(t *testing.T) {
	f := newFixture()
	doc := f.order(t)

	_, err := f.service.Confirm(context.Background(), doc.ID)
	require.NoError(t, err)

	updated, err := f.service.AddPayment(context.Background(), doc.ID, types.MinorUnits(1500), "CASH", f.actorID.String())
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, updated.Status, "partial payment keeps CONFIRMED")
	assert.Equal(t, types.MinorUnits(1500), updated.PaidAmount)

	updated, err = f.service.AddPayment(context.Background(), doc.ID, types.MinorUnits(500), "CASH", f.actorID.String())
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, updated.Status)
	assert.True(t, updated.IsPaid())
	assert.Len(t, f.repo.payments[doc.ID], 2)
}

func TestAddPayment_RejectsNonPositive(t *testing.T) {
	f := newFixture()
	doc := f.order(t)

	_, err := f.service.AddPayment(context.Background(), doc.ID, types.MinorUnits(0), "CASH", f.actorID.String())
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestDeliver_PostsSaleOutPerLine(t *testing.T) {
	f := newFixture()
	doc := f.order(t)

	delivered, err := f.service.Deliver(context.Background(), doc.ID, f.actorID.String())
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, delivered.Status)
	require.NotNil(t, delivered.DeliveredAt)
	require.NotNil(t, delivered.PostedAt)
	assert.Equal(t, f.actorID.String(), delivered.DeliveredBy)

	require.Len(t, f.ledgerRepo.Entries, 1)
	entry := f.ledgerRepo.Entries[0]
	assert.Equal(t, ledger.MovementSaleOut, entry.Movement)
	assert.Equal(t, ledger.DirectionOut, entry.Direction)
	assert.Equal(t, SourceType, entry.SourceType)
	assert.Equal(t, doc.ID, entry.SourceID)
	assert.Equal(t, types.NewQuantityFromFloat64(8), entry.BalanceAfter)

	require.Len(t, f.sink.events, 1)
	assert.Equal(t, audit.ActionSaleDelivered, f.sink.events[0].Action)
	assert.Equal(t, doc.ID, f.sink.events[0].EntityID)
}

// The sink is best-effort: a failing audit store must not fail or roll
// back the delivery it is recording.
func TestDeliver_AuditFailureDoesNotFailDelivery(t *testing.T) {
	f := newFixture()
	doc := f.order(t)
	f.sink.failWith = errors.New("audit store down")

	delivered, err := f.service.Deliver(context.Background(), doc.ID, f.actorID.String())
	require.NoError(t, err)
	assert.Equal(t, StatusDelivered, delivered.Status)
	require.Len(t, f.ledgerRepo.Entries, 1)
	assert.Empty(t, f.sink.events)
}

func TestDeliver_AlreadyDeliveredHardFailure(t *testing.T) {
	f := newFixture()
	doc := f.order(t)

	_, err := f.service.Deliver(context.Background(), doc.ID, f.actorID.String())
	require.NoError(t, err)

	_, err = f.service.Deliver(context.Background(), doc.ID, f.actorID.String())
	assert.True(t, apperror.IsCode(err, apperror.CodeAlreadyDelivered))
	assert.Len(t, f.ledgerRepo.Entries, 1, "no duplicate postings")
}

func TestDeliver_PayBeforeDeliver(t *testing.T) {
	f := newFixture()
	doc := f.order(t)
	doc.RequiresPrepayment = true
	require.NoError(t, f.service.Update(context.Background(), doc))

	_, err := f.service.Deliver(context.Background(), doc.ID, f.actorID.String())
	assert.True(t, apperror.IsCode(err, apperror.CodePaymentRequired))
	assert.Empty(t, f.ledgerRepo.Entries)

	_, err = f.service.AddPayment(context.Background(), doc.ID, types.MinorUnits(2000), "CARD", f.actorID.String())
	require.NoError(t, err)

	_, err = f.service.Deliver(context.Background(), doc.ID, f.actorID.String())
	assert.NoError(t, err)
}

func TestDeliver_InactiveBranch(t *testing.T) {
	f := newFixture()
	doc := f.order(t)
	f.branches.branches[f.branchID].IsActive = false

	_, err := f.service.Deliver(context.Background(), doc.ID, f.actorID.String())
	assert.True(t, apperror.IsCode(err, apperror.CodeBranchInactive))
	assert.Empty(t, f.ledgerRepo.Entries)
}

func TestDeliver_InactiveActor(t *testing.T) {
	f := newFixture()
	doc := f.order(t)
	f.users.users[f.actorID].IsActive = false

	_, err := f.service.Deliver(context.Background(), doc.ID, f.actorID.String())
	assert.True(t, apperror.IsCode(err, apperror.CodeActorInactive))
	assert.Empty(t, f.ledgerRepo.Entries)
}

func TestDeliver_InsufficientStockFailsWholeOrder(t *testing.T) {
	f := newFixture()

	doc := New(f.branchID, "ACME Ltd", "USD")
	covered, short := id.New(), id.New()
	doc.AddLine(covered, nil, types.NewQuantityFromFloat64(1), types.MinorUnits(500))
	doc.AddLine(short, nil, types.NewQuantityFromFloat64(5), types.MinorUnits(500))
	require.NoError(t, f.service.Create(context.Background(), doc))

	f.ledgerRepo.SeedBalance(f.branchID, covered, f.baseUnit, types.NewQuantityFromFloat64(10))
	f.ledgerRepo.SeedBalance(f.branchID, short, f.baseUnit, types.NewQuantityFromFloat64(1))

	_, err := f.service.Deliver(context.Background(), doc.ID, f.actorID.String())
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientStock))
	assert.Empty(t, f.ledgerRepo.Entries, "availability is checked before any posting")
}

func TestUpdate_DeliveredIsImmutable(t *testing.T) {
	f := newFixture()
	doc := f.order(t)

	delivered, err := f.service.Deliver(context.Background(), doc.ID, f.actorID.String())
	require.NoError(t, err)

	delivered.CustomerName = "edited"
	err = f.service.Update(context.Background(), delivered)
	assert.True(t, apperror.IsCode(err, apperror.CodeAlreadyDelivered))
}
