package ledger

import (
	"context"
	"fmt"
	"time"

	"inventra/internal/core/apperror"
	"inventra/internal/core/id"
	"inventra/internal/core/tx"
	"inventra/internal/core/types"
	"inventra/pkg/logger"
)

// UnitConverter converts a transaction quantity into the product's base-unit
// quantity. Implemented by the units package; declared here so the writer can
// be exercised with fakes.
type UnitConverter interface {
	ToBase(ctx context.Context, productID id.ID, qty types.Quantity, fromUnitID *id.ID) (types.Quantity, id.ID, error)
}

// PostInput describes one movement to record.
type PostInput struct {
	BranchID  id.ID
	ProductID id.ID

	// UnitID is the transaction unit. Nil means the product's base unit.
	UnitID *id.ID

	// Quantity must be positive; Direction carries the sign.
	Quantity types.Quantity

	// Movement is the business movement code (SALE_OUT, ADJ_IN, ...).
	Movement string

	// Direction, when set, is trusted as-is. When empty it is inferred
	// from the movement code.
	Direction Direction

	// Source identifies the business event and line producing this movement.
	Source SourceRef

	// ActorID is the explicit actor posting the movement, for attribution.
	ActorID string

	// PostedAt defaults to the current time when zero.
	PostedAt time.Time
}

// Writer is the single choke point for stock-affecting events. Every posting
// runs inside one transaction: idempotency check, unit conversion, snapshot
// row lock, balance math, entry insert and snapshot update commit together
// or roll back together.
type Writer struct {
	repo      Repository
	converter UnitConverter
	txm       tx.Manager
}

// NewWriter creates a ledger writer.
func NewWriter(repo Repository, converter UnitConverter, txm tx.Manager) *Writer {
	return &Writer{
		repo:      repo,
		converter: converter,
		txm:       txm,
	}
}

// Post records one movement and returns the persisted entry.
//
// Contract:
//  1. Rejects quantity <= 0 and missing identifiers before touching storage.
//  2. Fails with a duplicate-posting error if an entry already exists for
//     (sourceType, sourceID, sourceLine, movement); no side effects.
//  3. Resolves direction: explicit tag wins, else inferred from the code.
//  4. Converts quantity to the product's base unit.
//  5. Locks the snapshot row for (branch, product), creating it at zero in
//     the base unit when absent; a legacy non-base row is normalized to the
//     base unit on write.
//  6. Fails with insufficient-stock if the new balance would go negative.
//  7. Inserts the entry and updates the snapshot atomically.
func (w *Writer) Post(ctx context.Context, in PostInput) (*Entry, error) {
	if err := w.validate(&in); err != nil {
		return nil, err
	}

	var entry *Entry
	err := w.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		exists, err := w.repo.EntryExists(ctx, in.Source, in.Movement)
		if err != nil {
			return fmt.Errorf("check idempotency: %w", err)
		}
		if exists {
			return apperror.NewDuplicatePosting(in.Source.Type, in.Source.ID.String(), in.Movement)
		}

		direction := in.Direction
		if direction == "" {
			direction = InferDirection(in.Movement)
		}

		baseQty, baseUnitID, err := w.converter.ToBase(ctx, in.ProductID, in.Quantity, in.UnitID)
		if err != nil {
			return fmt.Errorf("convert to base unit: %w", err)
		}

		snapshot, err := w.repo.GetSnapshotForUpdate(ctx, in.BranchID, in.ProductID, baseUnitID)
		if err != nil {
			return fmt.Errorf("lock snapshot: %w", err)
		}
		if snapshot == nil {
			snapshot = &Snapshot{
				ID:        id.New(),
				BranchID:  in.BranchID,
				ProductID: in.ProductID,
				UnitID:    &baseUnitID,
				OnHand:    0,
			}
			if err := w.repo.CreateSnapshot(ctx, snapshot); err != nil {
				return fmt.Errorf("create snapshot: %w", err)
			}
		}

		newBalance := snapshot.OnHand + types.Quantity(direction.Sign())*baseQty
		if newBalance.IsNegative() {
			return apperror.NewInsufficientStock(
				in.ProductID.String(),
				baseQty.String(),
				snapshot.OnHand.String(),
			).WithDetail("branch_id", in.BranchID.String())
		}

		e := &Entry{
			ID:           id.New(),
			BranchID:     in.BranchID,
			ProductID:    in.ProductID,
			UnitID:       &baseUnitID,
			Movement:     in.Movement,
			Direction:    direction,
			Quantity:     baseQty,
			BalanceAfter: newBalance,
			SourceType:   in.Source.Type,
			SourceID:     in.Source.ID,
			SourceLine:   in.Source.LineID,
			PostedAt:     in.PostedAt,
			PostedBy:     in.ActorID,
		}
		e.Hash = e.ComputeHash()

		if err := w.repo.InsertEntry(ctx, e); err != nil {
			return fmt.Errorf("insert entry: %w", err)
		}
		if err := w.repo.UpdateSnapshot(ctx, snapshot.ID, newBalance, baseUnitID); err != nil {
			return fmt.Errorf("update snapshot: %w", err)
		}

		logger.Info(ctx, "posted ledger entry",
			"movement", in.Movement,
			"branch_id", in.BranchID,
			"product_id", in.ProductID,
			"quantity", baseQty.String(),
			"balance_after", newBalance.String(),
			"source_type", in.Source.Type,
			"source_id", in.Source.ID,
		)

		entry = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// PostIn records an inbound movement, defaulting the movement code to IN.
func (w *Writer) PostIn(ctx context.Context, in PostInput) (*Entry, error) {
	in.Direction = DirectionIn
	if in.Movement == "" {
		in.Movement = MovementIn
	}
	return w.Post(ctx, in)
}

// PostOut records an outbound movement, defaulting the movement code to OUT.
func (w *Writer) PostOut(ctx context.Context, in PostInput) (*Entry, error) {
	in.Direction = DirectionOut
	if in.Movement == "" {
		in.Movement = MovementOut
	}
	return w.Post(ctx, in)
}

// Balance returns the current snapshot balance for (branch, product),
// zero when no snapshot exists yet.
func (w *Writer) Balance(ctx context.Context, branchID, productID id.ID) (types.Quantity, error) {
	snapshot, err := w.repo.GetSnapshot(ctx, branchID, productID)
	if err != nil {
		return 0, fmt.Errorf("get snapshot: %w", err)
	}
	if snapshot == nil {
		return 0, nil
	}
	return snapshot.OnHand, nil
}

// CheckAvailability fails with insufficient-stock when the current balance
// does not cover required. Orchestrators use it for pre-validation; the
// posting path stays the authoritative guard.
func (w *Writer) CheckAvailability(ctx context.Context, branchID, productID id.ID, required types.Quantity) error {
	available, err := w.Balance(ctx, branchID, productID)
	if err != nil {
		return err
	}
	if available < required {
		return apperror.NewInsufficientStock(productID.String(), required.String(), available.String()).
			WithDetail("branch_id", branchID.String())
	}
	return nil
}

func (w *Writer) validate(in *PostInput) error {
	if !in.Quantity.IsPositive() {
		return apperror.NewValidation("quantity must be positive").
			WithDetail("quantity", in.Quantity.String())
	}
	if id.IsNil(in.BranchID) {
		return apperror.NewValidation("branch is required")
	}
	if id.IsNil(in.ProductID) {
		return apperror.NewValidation("product is required")
	}
	if in.Movement == "" {
		return apperror.NewValidation("movement code is required")
	}
	if in.Source.Type == "" || id.IsNil(in.Source.ID) {
		return apperror.NewValidation("source reference is required")
	}
	if in.PostedAt.IsZero() {
		in.PostedAt = time.Now().UTC()
	}
	return nil
}
