package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"inventra/internal/core/id"
	"inventra/internal/domain"
	"inventra/internal/domain/documents/stockrequest"
	"inventra/internal/infrastructure/storage/postgres"
)

const (
	stockRequestsTable     = "doc_stock_requests"
	stockRequestLinesTable = "doc_stock_request_lines"
)

// StockRequestRepo implements stockrequest.Repository.
type StockRequestRepo struct {
	*BaseDocumentRepo[*stockrequest.StockRequest]
	txm *postgres.TxManager
}

func NewStockRequestRepo(txm *postgres.TxManager) *StockRequestRepo {
	return &StockRequestRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txm,
			stockRequestsTable,
			postgres.ExtractDBColumns[stockrequest.StockRequest](),
			func() *stockrequest.StockRequest { return &stockrequest.StockRequest{} },
		),
		txm: txm,
	}
}

// GetLines retrieves document lines ordered by line number.
func (r *StockRequestRepo) GetLines(ctx context.Context, docID id.ID) ([]stockrequest.Line, error) {
	q := r.Builder().
		Select("line_id", "line_no", "product_id", "unit_id", "qty_requested", "qty_approved").
		From(stockRequestLinesTable).
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []stockrequest.Line
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("select lines: %w", err)
	}
	return lines, nil
}

// SaveLines replaces document lines.
func (r *StockRequestRepo) SaveLines(ctx context.Context, docID id.ID, lines []stockrequest.Line) error {
	delQ := r.Builder().
		Delete(stockRequestLinesTable).
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
		Insert(stockRequestLinesTable).
		Columns("line_id", "document_id", "line_no", "product_id", "unit_id", "qty_requested", "qty_approved")

	for _, line := range lines {
		insQ = insQ.Values(line.LineID, docID, line.LineNo, line.ProductID, line.UnitID, line.QtyRequested, line.QtyApproved)
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

// List retrieves stock requests matching the filter.
func (r *StockRequestRepo) List(ctx context.Context, filter stockrequest.ListFilter) (domain.ListResult[*stockrequest.StockRequest], error) {
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
var _ stockrequest.Repository = (*StockRequestRepo)(nil)
