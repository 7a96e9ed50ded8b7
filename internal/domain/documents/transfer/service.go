package transfer

import (
	"context"
	"fmt"
	"sort"
	"time"

	"inventra/internal/core/id"
	"inventra/internal/core/numerator"
	"inventra/internal/core/tx"
	"inventra/internal/domain"
	"inventra/internal/domain/ledger"
	"inventra/pkg/logger"
)

// Service provides business operations for transfers.
//
// Dispatch and Receive are idempotent by status: re-invoking either one, or
// receiving before dispatch, is a safe no-op rather than an error. Transfers
// are driven by retryable infrastructure callers, so silent no-ops beat hard
// failures here, unlike sales delivery.
type Service struct {
	repo      Repository
	writer    *ledger.Writer
	numerator numerator.Generator
	txm       tx.Manager
}

// NewService creates a transfer service.
func NewService(repo Repository, writer *ledger.Writer, gen numerator.Generator, txm tx.Manager) *Service {
	return &Service{
		repo:      repo,
		writer:    writer,
		numerator: gen,
		txm:       txm,
	}
}

// Create creates a new DRAFT transfer with lines.
func (s *Service) Create(ctx context.Context, doc *Transfer) error {
	if err := doc.Validate(ctx); err != nil {
		return err
	}

	if doc.Number == "" {
		number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("TRF"), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		doc.Number = number
	}

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, doc); err != nil {
			return fmt.Errorf("create document: %w", err)
		}
		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "transfer created", "id", doc.ID, "number", doc.Number)
	return nil
}

// GetByID retrieves a transfer with lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Transfer, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}

	lines, err := s.repo.GetLines(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	doc.Lines = lines

	return doc, nil
}

// Update modifies a DRAFT transfer.
func (s *Service) Update(ctx context.Context, doc *Transfer) error {
	if err := doc.CanModify(); err != nil {
		return err
	}
	if err := doc.Validate(ctx); err != nil {
		return err
	}

	return s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		if err := s.repo.SaveLines(ctx, doc.ID, doc.Lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}
		return nil
	})
}

// List retrieves transfers with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Transfer], error) {
	return s.repo.List(ctx, filter)
}

// Dispatch posts TRANSFER_OUT at the source branch for every line and moves
// the transfer to DISPATCHED. No-op when the transfer is not DRAFT.
// Insufficient stock on any line rolls back the whole dispatch.
func (s *Service) Dispatch(ctx context.Context, docID id.ID, actorID string) (*Transfer, error) {
	var doc *Transfer

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}

		if doc.Status != StatusDraft {
			logger.Debug(ctx, "dispatch skipped, transfer not draft",
				"id", docID, "status", string(doc.Status))
			return nil
		}

		lines, err := s.repo.GetLines(ctx, docID)
		if err != nil {
			return fmt.Errorf("get lines: %w", err)
		}
		doc.Lines = lines

		sort.Slice(lines, func(i, j int) bool {
			return lines[i].ProductID.String() < lines[j].ProductID.String()
		})

		now := time.Now().UTC()
		for _, line := range lines {
			_, err := s.writer.Post(ctx, ledger.PostInput{
				BranchID:  doc.FromBranchID,
				ProductID: line.ProductID,
				UnitID:    line.UnitID,
				Quantity:  line.Quantity,
				Movement:  ledger.MovementTransferOut,
				Source: ledger.SourceRef{
					Type:   SourceType,
					ID:     doc.ID,
					LineID: line.LineID,
				},
				ActorID:  actorID,
				PostedAt: now,
			})
			if err != nil {
				return err
			}
		}

		doc.MarkDispatched(actorID, now)
		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}

		logger.Info(ctx, "transfer dispatched",
			"id", doc.ID,
			"number", doc.Number,
			"from_branch_id", doc.FromBranchID,
			"to_branch_id", doc.ToBranchID,
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Receive posts TRANSFER_IN at the destination branch for every line and
// moves the transfer to RECEIVED. No-op when the transfer is not DISPATCHED.
func (s *Service) Receive(ctx context.Context, docID id.ID, actorID string) (*Transfer, error) {
	var doc *Transfer

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}

		if doc.Status != StatusDispatched {
			logger.Debug(ctx, "receive skipped, transfer not dispatched",
				"id", docID, "status", string(doc.Status))
			return nil
		}

		lines, err := s.repo.GetLines(ctx, docID)
		if err != nil {
			return fmt.Errorf("get lines: %w", err)
		}
		doc.Lines = lines

		sort.Slice(lines, func(i, j int) bool {
			return lines[i].ProductID.String() < lines[j].ProductID.String()
		})

		now := time.Now().UTC()
		for _, line := range lines {
			_, err := s.writer.Post(ctx, ledger.PostInput{
				BranchID:  doc.ToBranchID,
				ProductID: line.ProductID,
				UnitID:    line.UnitID,
				Quantity:  line.Quantity,
				Movement:  ledger.MovementTransferIn,
				Source: ledger.SourceRef{
					Type:   SourceType,
					ID:     doc.ID,
					LineID: line.LineID,
				},
				ActorID:  actorID,
				PostedAt: now,
			})
			if err != nil {
				return err
			}
		}

		doc.MarkReceived(actorID, now)
		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}

		logger.Info(ctx, "transfer received",
			"id", doc.ID,
			"number", doc.Number,
			"to_branch_id", doc.ToBranchID,
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}
