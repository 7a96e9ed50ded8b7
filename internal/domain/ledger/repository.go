package ledger

import (
	"context"
	"time"

	"inventra/internal/core/id"
	"inventra/internal/core/types"
)

// Repository defines storage operations for ledger entries and snapshots.
// All write operations are expected to run inside a transaction carried in ctx.
type Repository interface {
	// EntryExists reports whether an entry already exists for the
	// idempotency key (source triple + movement).
	EntryExists(ctx context.Context, source SourceRef, movement string) (bool, error)

	// InsertEntry appends one immutable entry. A unique-index violation on
	// the idempotency key must surface as a duplicate-posting AppError.
	InsertEntry(ctx context.Context, entry *Entry) error

	// GetEntriesBySource returns all entries posted for a business event.
	GetEntriesBySource(ctx context.Context, sourceType string, sourceID id.ID) ([]Entry, error)

	// ListEntries returns entries matching the filter, newest first.
	ListEntries(ctx context.Context, filter EntryFilter) ([]Entry, error)

	// GetSnapshot returns the snapshot for (branch, product) without locking,
	// preferring the base-unit row. Returns nil if no row exists.
	GetSnapshot(ctx context.Context, branchID, productID id.ID) (*Snapshot, error)

	// GetSnapshotForUpdate returns the snapshot with a row-level write lock,
	// preferring the row in baseUnitID, then the unit-less row, then any row.
	// Returns nil if no row exists.
	GetSnapshotForUpdate(ctx context.Context, branchID, productID, baseUnitID id.ID) (*Snapshot, error)

	// CreateSnapshot inserts a new snapshot row.
	CreateSnapshot(ctx context.Context, snapshot *Snapshot) error

	// UpdateSnapshot sets the on-hand balance and normalizes the unit.
	UpdateSnapshot(ctx context.Context, snapshotID id.ID, onHand types.Quantity, unitID id.ID) error

	// ListSnapshotsByBranch returns all snapshots for a branch.
	ListSnapshotsByBranch(ctx context.Context, branchID id.ID) ([]Snapshot, error)
}

// EntryFilter for ledger entry queries.
type EntryFilter struct {
	BranchID   *id.ID
	ProductID  *id.ID
	SourceType string
	SourceID   *id.ID
	Movement   string
	FromDate   *time.Time
	ToDate     *time.Time
	Limit      int
	Offset     int
}
