package stockcount

import (
	"context"
	"fmt"
	"time"

	"inventra/internal/core/id"
	"inventra/internal/core/numerator"
	"inventra/internal/core/tx"
	"inventra/internal/core/types"
	"inventra/internal/domain"
	"inventra/internal/domain/documents/adjustment"
	"inventra/internal/domain/ledger"
	"inventra/pkg/logger"
)

// PostResult tells the caller whether a variance adjustment was posted.
type PostResult struct {
	// Posted is true when a non-zero variance produced ledger movements.
	Posted bool `json:"posted"`

	// AdjustmentID references the generated adjustment, nil when none.
	AdjustmentID *id.ID `json:"adjustmentId,omitempty"`
}

// Service reconciles physical counts against ledger snapshots.
type Service struct {
	repo        Repository
	adjustments *adjustment.Service
	writer      *ledger.Writer
	converter   ledger.UnitConverter
	numerator   numerator.Generator
	txm         tx.Manager
}

// NewService creates a stock count service.
func NewService(
	repo Repository,
	adjustments *adjustment.Service,
	writer *ledger.Writer,
	converter ledger.UnitConverter,
	gen numerator.Generator,
	txm tx.Manager,
) *Service {
	return &Service{
		repo:        repo,
		adjustments: adjustments,
		writer:      writer,
		converter:   converter,
		numerator:   gen,
		txm:         txm,
	}
}

// Create creates a new DRAFT stock count with lines.
func (s *Service) Create(ctx context.Context, doc *StockCount) error {
	if err := doc.Validate(ctx); err != nil {
		return err
	}

	if doc.Number == "" {
		number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("SC"), nil, time.Now())
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

	logger.Info(ctx, "stock count created", "id", doc.ID, "number", doc.Number)
	return nil
}

// GetByID retrieves a stock count with lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*StockCount, error) {
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

// Update modifies a DRAFT stock count.
func (s *Service) Update(ctx context.Context, doc *StockCount) error {
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

// List retrieves stock counts with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*StockCount], error) {
	return s.repo.List(ctx, filter)
}

// Post diffs counted quantities against the system snapshot, synthesizes a
// COUNT-reason adjustment for any variance and posts it through the
// adjustment poster, then marks the count POSTED. Everything runs in one
// transaction. A non-DRAFT count is a no-op returning posted=false.
func (s *Service) Post(ctx context.Context, docID id.ID, actorID string) (PostResult, error) {
	var result PostResult

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		doc, err := s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}

		if doc.Status != StatusDraft {
			logger.Debug(ctx, "count post skipped, not draft",
				"id", docID, "status", string(doc.Status))
			result = PostResult{Posted: false, AdjustmentID: doc.AdjustmentID}
			return nil
		}

		lines, err := s.repo.GetLines(ctx, docID)
		if err != nil {
			return fmt.Errorf("get lines: %w", err)
		}
		doc.Lines = lines

		type variance struct {
			productID id.ID
			delta     types.Quantity
		}
		var variances []variance

		for _, line := range lines {
			countedBase, _, err := s.converter.ToBase(ctx, line.ProductID, line.CountedQty, line.UnitID)
			if err != nil {
				return fmt.Errorf("convert line %d: %w", line.LineNo, err)
			}
			system, err := s.writer.Balance(ctx, doc.BranchID, line.ProductID)
			if err != nil {
				return err
			}
			if delta := countedBase.Sub(system); !delta.IsZero() {
				variances = append(variances, variance{productID: line.ProductID, delta: delta})
			}
		}

		now := time.Now().UTC()

		if len(variances) == 0 {
			doc.MarkPosted(actorID, now)
			if err := s.repo.Update(ctx, doc); err != nil {
				return fmt.Errorf("update document: %w", err)
			}
			result = PostResult{Posted: false}
			logger.Info(ctx, "stock count posted without variance",
				"id", doc.ID, "number", doc.Number)
			return nil
		}

		adj := adjustment.New(doc.BranchID, adjustment.ReasonCount)
		adj.Comment = fmt.Sprintf("Variance from stock count %s", doc.Number)
		for _, v := range variances {
			// Deltas are already in base units, so the line carries no unit.
			adj.AddLine(v.productID, nil, v.delta)
		}

		if err := s.adjustments.Create(ctx, adj); err != nil {
			return fmt.Errorf("create variance adjustment: %w", err)
		}
		if _, err := s.adjustments.Post(ctx, adj.ID, actorID); err != nil {
			return fmt.Errorf("post variance adjustment: %w", err)
		}

		doc.AdjustmentID = &adj.ID
		doc.MarkPosted(actorID, now)
		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}

		result = PostResult{Posted: true, AdjustmentID: &adj.ID}
		logger.Info(ctx, "stock count posted with variance",
			"id", doc.ID,
			"number", doc.Number,
			"adjustment_id", adj.ID,
			"variances", len(variances),
		)
		return nil
	})
	if err != nil {
		return PostResult{}, err
	}
	return result, nil
}
