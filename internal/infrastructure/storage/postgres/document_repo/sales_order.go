package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"inventra/internal/core/id"
	"inventra/internal/domain"
	"inventra/internal/domain/documents/salesorder"
	"inventra/internal/infrastructure/storage/postgres"
)

const (
	salesOrdersTable   = "doc_sales_orders"
	salesOrderLines    = "doc_sales_order_lines"
	salesOrderPayments = "doc_sales_order_payments"
)

// SalesOrderRepo implements salesorder.Repository.
type SalesOrderRepo struct {
	*BaseDocumentRepo[*salesorder.SalesOrder]
	txm *postgres.TxManager
}

func NewSalesOrderRepo(txm *postgres.TxManager) *SalesOrderRepo {
	return &SalesOrderRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txm,
			salesOrdersTable,
			postgres.ExtractDBColumns[salesorder.SalesOrder](),
			func() *salesorder.SalesOrder { return &salesorder.SalesOrder{} },
		),
		txm: txm,
	}
}

// GetLines retrieves order lines ordered by line number.
func (r *SalesOrderRepo) GetLines(ctx context.Context, docID id.ID) ([]salesorder.Line, error) {
	q := r.Builder().
		Select("line_id", "line_no", "product_id", "unit_id", "quantity", "unit_price", "amount").
		From(salesOrderLines).
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []salesorder.Line
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("select lines: %w", err)
	}
	return lines, nil
}

// SaveLines replaces order lines.
func (r *SalesOrderRepo) SaveLines(ctx context.Context, docID id.ID, lines []salesorder.Line) error {
	delQ := r.Builder().
		Delete(salesOrderLines).
		Where(squirrel.Eq{"document_id": docID})

	sql, args, err := delQ.ToSql()
	if err != nil {
		return fmt.Errorf("build delete lines: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete lines: %w", err)
	}

	if len(lines) == 0 {
		return nil
	}

	insQ := r.Builder().
		Insert(salesOrderLines).
		Columns("line_id", "document_id", "line_no", "product_id", "unit_id", "quantity", "unit_price", "amount")

	for _, line := range lines {
		insQ = insQ.Values(line.LineID, docID, line.LineNo, line.ProductID, line.UnitID, line.Quantity, line.UnitPrice, line.Amount)
	}

	sql, args, err = insQ.ToSql()
	if err != nil {
		return fmt.Errorf("build insert lines: %w", err)
	}

	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert lines: %w", err)
	}
	return nil
}

// GetPayments retrieves payments in receipt order.
func (r *SalesOrderRepo) GetPayments(ctx context.Context, docID id.ID) ([]salesorder.Payment, error) {
	q := r.Builder().
		Select("id", "amount", "method", "reference", "received_at", "received_by").
		From(salesOrderPayments).
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("received_at")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var payments []salesorder.Payment
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &payments, sql, args...); err != nil {
		return nil, fmt.Errorf("select payments: %w", err)
	}
	return payments, nil
}

// AddPayment appends one payment record. Payments are never updated.
func (r *SalesOrderRepo) AddPayment(ctx context.Context, docID id.ID, payment *salesorder.Payment) error {
	q := r.Builder().
		Insert(salesOrderPayments).
		Columns("id", "document_id", "amount", "method", "reference", "received_at", "received_by").
		Values(payment.ID, docID, payment.Amount, payment.Method, payment.Reference, payment.ReceivedAt, payment.ReceivedBy)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert payment: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

// List retrieves sales orders matching the filter.
func (r *SalesOrderRepo) List(ctx context.Context, filter salesorder.ListFilter) (domain.ListResult[*salesorder.SalesOrder], error) {
	q := r.BaseListSelect(filter.ListFilter)

	if filter.BranchID != nil {
		q = q.Where(squirrel.Eq{"branch_id": *filter.BranchID})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"date": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"date": *filter.DateTo})
	}

	return r.ListQuery(ctx, q, filter.ListFilter)
}

// Ensure interface compliance.
var _ salesorder.Repository = (*SalesOrderRepo)(nil)
