package stockrequest

import (
	"context"
	"fmt"
	"time"

	"inventra/internal/core/apperror"
	"inventra/internal/core/id"
	"inventra/internal/core/numerator"
	"inventra/internal/core/tx"
	"inventra/internal/core/types"
	"inventra/internal/domain"
	"inventra/internal/domain/documents/transfer"
	"inventra/pkg/logger"
)

// Service provides the stock request approval workflow. Approval turns a
// request into a DRAFT transfer; dispatching that transfer is a separate,
// later action.
type Service struct {
	repo      Repository
	transfers *transfer.Service
	numerator numerator.Generator
	txm       tx.Manager
}

// NewService creates a stock request service.
func NewService(repo Repository, transfers *transfer.Service, gen numerator.Generator, txm tx.Manager) *Service {
	return &Service{
		repo:      repo,
		transfers: transfers,
		numerator: gen,
		txm:       txm,
	}
}

// Create creates a new DRAFT request with lines.
func (s *Service) Create(ctx context.Context, doc *StockRequest) error {
	if err := doc.Validate(ctx); err != nil {
		return err
	}

	if doc.Number == "" {
		number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("SR"), nil, time.Now())
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

	logger.Info(ctx, "stock request created", "id", doc.ID, "number", doc.Number)
	return nil
}

// GetByID retrieves a request with lines.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*StockRequest, error) {
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

// Update modifies a request still open for edits.
func (s *Service) Update(ctx context.Context, doc *StockRequest) error {
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

// List retrieves requests with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*StockRequest], error) {
	return s.repo.List(ctx, filter)
}

// Submit moves a DRAFT request to SUBMITTED.
func (s *Service) Submit(ctx context.Context, docID id.ID, actorID string) (*StockRequest, error) {
	var doc *StockRequest
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		if err := doc.Submit(actorID, time.Now().UTC()); err != nil {
			return err
		}
		return s.repo.Update(ctx, doc)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "stock request submitted", "id", doc.ID, "number", doc.Number)
	return doc, nil
}

// ApproveAndCreateTransfer approves the request with per-line quantities and
// creates a DRAFT transfer from the supply branch, all in one transaction.
//
// Approved quantities are clamped to zero from below; lines keyed by line id
// that are absent from approvedByLine are approved at zero and omitted from
// the transfer.
func (s *Service) ApproveAndCreateTransfer(
	ctx context.Context,
	docID id.ID,
	approvedByLine map[id.ID]types.Quantity,
	supplyBranchID *id.ID,
	actorID string,
) (*transfer.Transfer, error) {
	var created *transfer.Transfer

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		doc, err := s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		if err := doc.CanApprove(); err != nil {
			return err
		}

		lines, err := s.repo.GetLines(ctx, docID)
		if err != nil {
			return fmt.Errorf("get lines: %w", err)
		}
		if len(lines) == 0 {
			return apperror.NewValidation("request has no lines").
				WithDetail("request_id", docID.String())
		}

		for i := range lines {
			approved := approvedByLine[lines[i].LineID]
			if approved.IsNegative() {
				approved = 0
			}
			lines[i].QtyApproved = approved
		}
		doc.Lines = lines

		supply := doc.SupplyBranchID
		if supplyBranchID != nil {
			supply = supplyBranchID
		}
		if supply == nil || id.IsNil(*supply) {
			return apperror.NewValidation("supply branch could not be resolved").
				WithDetail("request_id", docID.String())
		}
		if *supply == doc.BranchID {
			return apperror.NewValidation("supply branch must differ from requesting branch")
		}
		doc.SupplyBranchID = supply

		doc.MarkApproved(actorID, time.Now().UTC())
		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}
		if err := s.repo.SaveLines(ctx, docID, lines); err != nil {
			return fmt.Errorf("save lines: %w", err)
		}

		tr := transfer.New(*supply, doc.BranchID)
		tr.StockRequestID = &doc.ID
		tr.Comment = fmt.Sprintf("Fulfils stock request %s", doc.Number)
		for _, line := range lines {
			if line.QtyApproved.IsPositive() {
				tr.AddLine(line.ProductID, line.UnitID, line.QtyApproved)
			}
		}

		if err := s.transfers.Create(ctx, tr); err != nil {
			return fmt.Errorf("create transfer: %w", err)
		}

		created = tr
		logger.Info(ctx, "stock request approved",
			"id", doc.ID,
			"number", doc.Number,
			"transfer_id", tr.ID,
			"supply_branch_id", *supply,
		)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
