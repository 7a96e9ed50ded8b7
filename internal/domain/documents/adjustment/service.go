package adjustment

import (
	"context"
	"fmt"
	"sort"
	"time"

	"inventra/internal/core/apperror"
	"inventra/internal/core/id"
	"inventra/internal/core/numerator"
	"inventra/internal/core/tx"
	"inventra/internal/domain"
	"inventra/internal/domain/ledger"
	"inventra/pkg/logger"
)

// Service provides business operations for adjustment documents.
type Service struct {
	repo      Repository
	writer    *ledger.Writer
	converter ledger.UnitConverter
	numerator numerator.Generator
	txm       tx.Manager
}

// NewService creates an adjustment service.
func NewService(
	repo Repository,
	writer *ledger.Writer,
	converter ledger.UnitConverter,
	gen numerator.Generator,
	txm tx.Manager,
) *Service {
	return &Service{
		repo:      repo,
		writer:    writer,
		converter: converter,
		numerator: gen,
		txm:       txm,
	}
}

// Create creates a new DRAFT adjustment with lines.
func (s *Service) Create(ctx context.Context, doc *Adjustment) error {
	if err := doc.Validate(ctx); err != nil {
		return err
	}

	if doc.Number == "" {
		number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("ADJ"), nil, time.Now())
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

	logger.Info(ctx, "adjustment created", "id", doc.ID, "number", doc.Number)
	return nil
}

// GetByID retrieves an adjustment with lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*Adjustment, error) {
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

// Update modifies a DRAFT adjustment. Posted adjustments are immutable.
func (s *Service) Update(ctx context.Context, doc *Adjustment) error {
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

// Delete soft-deletes a DRAFT adjustment.
func (s *Service) Delete(ctx context.Context, docID id.ID) error {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return err
	}
	if err := doc.CanModify(); err != nil {
		return err
	}
	return s.repo.Delete(ctx, docID)
}

// List retrieves adjustments with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*Adjustment], error) {
	return s.repo.List(ctx, filter)
}

// Post records every non-zero line as a ledger movement and flips the
// document to POSTED, all in one transaction. A failure on any line rolls
// back earlier postings of the same adjustment.
func (s *Service) Post(ctx context.Context, docID id.ID, actorID string) (*Adjustment, error) {
	var doc *Adjustment

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}

		if doc.Status != StatusDraft || doc.PostedAt != nil {
			return apperror.NewBusinessRule(
				apperror.CodeDocumentPosted,
				"Adjustment is already posted",
			).WithDetail("adjustment_id", docID.String())
		}

		lines, err := s.repo.GetLines(ctx, docID)
		if err != nil {
			return fmt.Errorf("get lines: %w", err)
		}
		if len(lines) == 0 {
			return apperror.NewValidation("adjustment has no lines").
				WithDetail("adjustment_id", docID.String())
		}
		doc.Lines = lines

		// Stable lock order across concurrent multi-line postings.
		sort.Slice(lines, func(i, j int) bool {
			return lines[i].ProductID.String() < lines[j].ProductID.String()
		})

		// All-or-nothing pre-validation for negative deltas. The writer
		// remains the authoritative guard under the row lock.
		for _, line := range lines {
			if !line.QtyDelta.IsNegative() {
				continue
			}
			required, _, err := s.converter.ToBase(ctx, line.ProductID, line.QtyDelta.Abs(), line.UnitID)
			if err != nil {
				return fmt.Errorf("convert line %d: %w", line.LineNo, err)
			}
			if err := s.writer.CheckAvailability(ctx, doc.BranchID, line.ProductID, required); err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		for _, line := range lines {
			if line.QtyDelta.IsZero() {
				continue
			}

			movement := ledger.MovementAdjIn
			if line.QtyDelta.IsNegative() {
				movement = ledger.MovementAdjOut
			}

			_, err := s.writer.Post(ctx, ledger.PostInput{
				BranchID:  doc.BranchID,
				ProductID: line.ProductID,
				UnitID:    line.UnitID,
				Quantity:  line.QtyDelta.Abs(),
				Movement:  movement,
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

		doc.MarkPosted(actorID, now)
		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "adjustment posted",
		"id", doc.ID,
		"number", doc.Number,
		"branch_id", doc.BranchID,
		"actor_id", actorID,
	)
	return doc, nil
}
