// Package ledger_repo provides the PostgreSQL implementation of the
// inventory ledger repository.
package ledger_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"inventra/internal/core/apperror"
	"inventra/internal/core/id"
	"inventra/internal/core/types"
	"inventra/internal/domain/ledger"
	"inventra/internal/infrastructure/storage/postgres"
)

const (
	entriesTable   = "ledger_entries"
	snapshotsTable = "stock_snapshots"

	// Unique index enforcing at most one entry per (source triple, movement).
	entrySourceIndex = "ux_ledger_entries_source_movement"
)

var entryColumns = []string{
	"id", "branch_id", "product_id", "unit_id",
	"movement", "direction", "quantity", "balance_after",
	"source_type", "source_id", "source_line",
	"posted_at", "posted_by", "hash",
}

var snapshotColumns = []string{
	"id", "branch_id", "product_id", "unit_id",
	"on_hand", "reserved", "updated_at",
}

// LedgerRepo implements ledger.Repository.
type LedgerRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

func NewLedgerRepo(txm *postgres.TxManager) *LedgerRepo {
	return &LedgerRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// EntryExists checks the idempotency key without taking locks.
func (r *LedgerRepo) EntryExists(ctx context.Context, source ledger.SourceRef, movement string) (bool, error) {
	q := r.builder.Select("1").From(entriesTable).
		Where(squirrel.Eq{
			"source_type": source.Type,
			"source_id":   source.ID,
			"source_line": source.LineID,
			"movement":    movement,
		}).Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return false, fmt.Errorf("build query: %w", err)
	}

	var one int
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &one, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("check entry exists: %w", err)
	}
	return true, nil
}

// InsertEntry appends one entry. A unique violation on the source index is
// mapped to a duplicate-posting error so concurrent posters can rely on the
// database as the final idempotency guard.
func (r *LedgerRepo) InsertEntry(ctx context.Context, entry *ledger.Entry) error {
	q := r.builder.Insert(entriesTable).
		Columns(entryColumns...).
		Values(
			entry.ID, entry.BranchID, entry.ProductID, entry.UnitID,
			entry.Movement, entry.Direction, entry.Quantity, entry.BalanceAfter,
			entry.SourceType, entry.SourceID, entry.SourceLine,
			entry.PostedAt, entry.PostedBy, entry.Hash,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err, entrySourceIndex) {
			return apperror.NewDuplicatePosting(entry.SourceType, entry.SourceID, entry.Movement)
		}
		return fmt.Errorf("insert entry: %w", err)
	}
	return nil
}

// GetEntriesBySource returns all entries posted for one business event.
func (r *LedgerRepo) GetEntriesBySource(ctx context.Context, sourceType string, sourceID id.ID) ([]ledger.Entry, error) {
	q := r.builder.Select(entryColumns...).From(entriesTable).
		Where(squirrel.Eq{
			"source_type": sourceType,
			"source_id":   sourceID,
		}).
		OrderBy("posted_at", "id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entries []ledger.Entry
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("select entries by source: %w", err)
	}
	return entries, nil
}

// ListEntries returns entries matching the filter, newest first.
func (r *LedgerRepo) ListEntries(ctx context.Context, filter ledger.EntryFilter) ([]ledger.Entry, error) {
	q := r.builder.Select(entryColumns...).From(entriesTable)

	if filter.BranchID != nil {
		q = q.Where(squirrel.Eq{"branch_id": *filter.BranchID})
	}
	if filter.ProductID != nil {
		q = q.Where(squirrel.Eq{"product_id": *filter.ProductID})
	}
	if filter.SourceType != "" {
		q = q.Where(squirrel.Eq{"source_type": filter.SourceType})
	}
	if filter.SourceID != nil {
		q = q.Where(squirrel.Eq{"source_id": *filter.SourceID})
	}
	if filter.Movement != "" {
		q = q.Where(squirrel.Eq{"movement": filter.Movement})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"posted_at": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"posted_at": *filter.ToDate})
	}

	q = q.OrderBy("posted_at DESC", "id DESC")

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entries []ledger.Entry
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("select entries: %w", err)
	}
	return entries, nil
}

// GetSnapshot returns the snapshot for (branch, product) without locking.
// When several unit rows exist, base-unit and unit-less rows come first.
func (r *LedgerRepo) GetSnapshot(ctx context.Context, branchID, productID id.ID) (*ledger.Snapshot, error) {
	sql := `
		SELECT id, branch_id, product_id, unit_id, on_hand, reserved, updated_at
		FROM stock_snapshots
		WHERE branch_id = $1 AND product_id = $2
		ORDER BY (unit_id IS NOT NULL), updated_at DESC
		LIMIT 1
	`

	var snapshot ledger.Snapshot
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &snapshot, sql, branchID, productID); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return &snapshot, nil
}

// GetSnapshotForUpdate locks and returns the snapshot row, preferring the
// base-unit row, then the unit-less legacy row, then any remaining row.
func (r *LedgerRepo) GetSnapshotForUpdate(ctx context.Context, branchID, productID, baseUnitID id.ID) (*ledger.Snapshot, error) {
	sql := `
		SELECT id, branch_id, product_id, unit_id, on_hand, reserved, updated_at
		FROM stock_snapshots
		WHERE branch_id = $1 AND product_id = $2
		ORDER BY CASE
			WHEN unit_id = $3 THEN 0
			WHEN unit_id IS NULL THEN 1
			ELSE 2
		END
		LIMIT 1
		FOR UPDATE
	`

	var snapshot ledger.Snapshot
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &snapshot, sql, branchID, productID, baseUnitID); err != nil {
		if pgxscan.NotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get snapshot for update: %w", err)
	}
	return &snapshot, nil
}

// CreateSnapshot inserts a new snapshot row.
func (r *LedgerRepo) CreateSnapshot(ctx context.Context, snapshot *ledger.Snapshot) error {
	if snapshot.UpdatedAt.IsZero() {
		snapshot.UpdatedAt = time.Now().UTC()
	}

	q := r.builder.Insert(snapshotsTable).
		Columns(snapshotColumns...).
		Values(
			snapshot.ID, snapshot.BranchID, snapshot.ProductID, snapshot.UnitID,
			snapshot.OnHand, snapshot.Reserved, snapshot.UpdatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// UpdateSnapshot sets the balance and normalizes the unit to the base unit,
// migrating legacy unit-less rows in place.
func (r *LedgerRepo) UpdateSnapshot(ctx context.Context, snapshotID id.ID, onHand types.Quantity, unitID id.ID) error {
	q := r.builder.Update(snapshotsTable).
		Set("on_hand", onHand).
		Set("unit_id", unitID).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": snapshotID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update snapshot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("snapshot", snapshotID.String())
	}
	return nil
}

// ListSnapshotsByBranch returns all snapshots for a branch ordered by product.
func (r *LedgerRepo) ListSnapshotsByBranch(ctx context.Context, branchID id.ID) ([]ledger.Snapshot, error) {
	q := r.builder.Select(snapshotColumns...).From(snapshotsTable).
		Where(squirrel.Eq{"branch_id": branchID}).
		OrderBy("product_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var snapshots []ledger.Snapshot
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &snapshots, sql, args...); err != nil {
		return nil, fmt.Errorf("select snapshots: %w", err)
	}
	return snapshots, nil
}

// Ensure interface compliance.
var _ ledger.Repository = (*LedgerRepo)(nil)
