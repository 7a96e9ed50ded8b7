package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"inventra/internal/core/id"
	"inventra/internal/domain"
	"inventra/internal/domain/documents/stockcount"
	"inventra/internal/infrastructure/storage/postgres"
)

const (
	stockCountsTable     = "doc_stock_counts"
	stockCountLinesTable = "doc_stock_count_lines"
)

// StockCountRepo implements stockcount.Repository.
type StockCountRepo struct {
	*BaseDocumentRepo[*stockcount.StockCount]
	txm *postgres.TxManager
}

func NewStockCountRepo(txm *postgres.TxManager) *StockCountRepo {
	return &StockCountRepo{
		BaseDocumentRepo: NewBaseDocumentRepo(
			txm,
			stockCountsTable,
			postgres.ExtractDBColumns[stockcount.StockCount](),
			func() *stockcount.StockCount { return &stockcount.StockCount{} },
		),
		txm: txm,
	}
}

// GetLines retrieves document lines ordered by line number.
func (r *StockCountRepo) GetLines(ctx context.Context, docID id.ID) ([]stockcount.Line, error) {
	q := r.Builder().
		Select("line_id", "line_no", "product_id", "unit_id", "counted_qty").
		From(stockCountLinesTable).
		Where(squirrel.Eq{"document_id": docID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []stockcount.Line
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("select lines: %w", err)
	}
	return lines, nil
}

// SaveLines replaces document lines.
func (r *StockCountRepo) SaveLines(ctx context.Context, docID id.ID, lines []stockcount.Line) error {
	delQ := r.Builder().
		Delete(stockCountLinesTable).
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
		Insert(stockCountLinesTable).
		Columns("line_id", "document_id", "line_no", "product_id", "unit_id", "counted_qty")

	for _, line := range lines {
		insQ = insQ.Values(line.LineID, docID, line.LineNo, line.ProductID, line.UnitID, line.CountedQty)
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

// List retrieves stock counts matching the filter.
func (r *StockCountRepo) List(ctx context.Context, filter stockcount.ListFilter) (domain.ListResult[*stockcount.StockCount], error) {
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
var _ stockcount.Repository = (*StockCountRepo)(nil)
