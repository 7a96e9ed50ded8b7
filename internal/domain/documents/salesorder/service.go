package salesorder

import (
	"context"
	"fmt"
	"sort"
	"time"

	"inventra/internal/core/apperror"
	"inventra/internal/core/id"
	"inventra/internal/core/numerator"
	"inventra/internal/core/tx"
	"inventra/internal/core/types"
	"inventra/internal/domain"
	"inventra/internal/domain/audit"
	"inventra/internal/domain/catalogs/branch"
	"inventra/internal/domain/catalogs/user"
	"inventra/internal/domain/ledger"
	"inventra/pkg/logger"
)

// Service provides business operations for sales orders, including the
// delivery state machine.
type Service struct {
	repo       Repository
	writer     *ledger.Writer
	converter  ledger.UnitConverter
	branchRepo branch.Repository
	userRepo   user.Repository
	auditSink  audit.Sink
	numerator  numerator.Generator
	txm        tx.Manager
}

// NewService creates a sales order service.
func NewService(
	repo Repository,
	writer *ledger.Writer,
	converter ledger.UnitConverter,
	branchRepo branch.Repository,
	userRepo user.Repository,
	auditSink audit.Sink,
	gen numerator.Generator,
	txm tx.Manager,
) *Service {
	return &Service{
		repo:       repo,
		writer:     writer,
		converter:  converter,
		branchRepo: branchRepo,
		userRepo:   userRepo,
		auditSink:  auditSink,
		numerator:  gen,
		txm:        txm,
	}
}

// Create creates a new DRAFT order with lines.
func (s *Service) Create(ctx context.Context, doc *SalesOrder) error {
	if err := doc.Validate(ctx); err != nil {
		return err
	}

	if doc.Number == "" {
		number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("SO"), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate number: %w", err)
		}
		doc.Number = number
	}
	doc.RecalculateTotals()

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

	logger.Info(ctx, "sales order created", "id", doc.ID, "number", doc.Number)
	return nil
}

// GetByID retrieves an order with lines and payments.
func (s *Service) GetByID(ctx context.Context, docID id.ID) (*SalesOrder, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	return s.loadParts(ctx, doc)
}

func (s *Service) loadParts(ctx context.Context, doc *SalesOrder) (*SalesOrder, error) {
	lines, err := s.repo.GetLines(ctx, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	doc.Lines = lines

	payments, err := s.repo.GetPayments(ctx, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("get payments: %w", err)
	}
	doc.Payments = payments

	return doc, nil
}

// Update modifies an undelivered order.
func (s *Service) Update(ctx context.Context, doc *SalesOrder) error {
	if err := doc.CanModify(); err != nil {
		return err
	}
	if err := doc.Validate(ctx); err != nil {
		return err
	}
	doc.RecalculateTotals()

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

// List retrieves orders with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (domain.ListResult[*SalesOrder], error) {
	return s.repo.List(ctx, filter)
}

// Confirm moves a DRAFT order to CONFIRMED with totals recomputed from lines.
func (s *Service) Confirm(ctx context.Context, docID id.ID) (*SalesOrder, error) {
	var doc *SalesOrder
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		if doc, err = s.loadParts(ctx, doc); err != nil {
			return err
		}
		if err := doc.Confirm(); err != nil {
			return err
		}
		return s.repo.Update(ctx, doc)
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// AddPayment records a payment and flips CONFIRMED orders to PAID once fully
// covered.
func (s *Service) AddPayment(ctx context.Context, docID id.ID, amount types.MinorUnits, method, actorID string) (*SalesOrder, error) {
	if !amount.IsPositive() {
		return nil, apperror.NewValidation("payment amount must be positive")
	}

	var doc *SalesOrder
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		if doc, err = s.loadParts(ctx, doc); err != nil {
			return err
		}

		if doc.IsDelivered() {
			return apperror.NewBusinessRule(
				apperror.CodeAlreadyDelivered,
				"Cannot add payment to delivered order",
			).WithDetail("order_id", docID.String())
		}

		payment := &Payment{
			ID:         id.New(),
			Amount:     amount,
			Method:     method,
			ReceivedAt: time.Now().UTC(),
			ReceivedBy: actorID,
		}
		if err := s.repo.AddPayment(ctx, docID, payment); err != nil {
			return fmt.Errorf("add payment: %w", err)
		}

		doc.Payments = append(doc.Payments, *payment)
		doc.RecalculateTotals()
		if doc.Status == StatusConfirmed && doc.IsPaid() {
			doc.Status = StatusPaid
		}
		doc.Touch()
		return s.repo.Update(ctx, doc)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "payment recorded",
		"order_id", docID,
		"amount", int64(amount),
		"method", method,
	)
	return doc, nil
}

// Deliver posts one SALE_OUT movement per line and stamps the terminal
// delivery state, all in one transaction.
//
// Guard order: recompute totals, pay-before-deliver, already-delivered,
// branch and actor governance, per-line availability, then posting.
func (s *Service) Deliver(ctx context.Context, docID id.ID, actorID string) (*SalesOrder, error) {
	var doc *SalesOrder

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		doc, err = s.repo.GetForUpdate(ctx, docID)
		if err != nil {
			return err
		}
		if doc, err = s.loadParts(ctx, doc); err != nil {
			return err
		}
		doc.RecalculateTotals()

		if doc.RequiresPrepayment && !doc.IsPaid() {
			return apperror.NewGovernance(
				apperror.CodePaymentRequired,
				"Order requires full payment before delivery",
			).WithDetail("total", int64(doc.TotalAmount)).
				WithDetail("paid", int64(doc.PaidAmount))
		}

		if doc.IsDelivered() {
			return apperror.NewBusinessRule(
				apperror.CodeAlreadyDelivered,
				"Order is already delivered",
			).WithDetail("order_id", docID.String())
		}

		if err := s.checkGovernance(ctx, doc, actorID); err != nil {
			return err
		}

		if len(doc.Lines) == 0 {
			return apperror.NewValidation("order has no lines").
				WithDetail("order_id", docID.String())
		}

		lines := make([]Line, len(doc.Lines))
		copy(lines, doc.Lines)
		sort.Slice(lines, func(i, j int) bool {
			return lines[i].ProductID.String() < lines[j].ProductID.String()
		})

		// Shortfall on any line fails the whole delivery before any posting.
		for _, line := range lines {
			required, _, err := s.converter.ToBase(ctx, line.ProductID, line.Quantity, line.UnitID)
			if err != nil {
				return fmt.Errorf("convert line %d: %w", line.LineNo, err)
			}
			if err := s.writer.CheckAvailability(ctx, doc.BranchID, line.ProductID, required); err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		for _, line := range lines {
			_, err := s.writer.Post(ctx, ledger.PostInput{
				BranchID:  doc.BranchID,
				ProductID: line.ProductID,
				UnitID:    line.UnitID,
				Quantity:  line.Quantity,
				Movement:  ledger.MovementSaleOut,
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

		doc.MarkDelivered(actorID, now)
		if err := s.repo.Update(ctx, doc); err != nil {
			return fmt.Errorf("update document: %w", err)
		}

		s.recordDeliveryAudit(ctx, doc, actorID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "sales order delivered",
		"id", doc.ID,
		"number", doc.Number,
		"branch_id", doc.BranchID,
		"actor_id", actorID,
	)
	return doc, nil
}

func (s *Service) checkGovernance(ctx context.Context, doc *SalesOrder, actorID string) error {
	br, err := s.branchRepo.GetByID(ctx, doc.BranchID)
	if err != nil {
		return err
	}
	if !br.IsActive {
		return apperror.NewGovernance(
			apperror.CodeBranchInactive,
			"Branch is not active",
		).WithDetail("branch_id", doc.BranchID.String())
	}

	if actorID == "" {
		return nil
	}
	actorUUID, err := id.Parse(actorID)
	if err != nil {
		return apperror.NewValidation("invalid actor id").WithDetail("actor_id", actorID)
	}
	actor, err := s.userRepo.GetByID(ctx, actorUUID)
	if err != nil {
		return err
	}
	if !actor.IsActive {
		return apperror.NewGovernance(
			apperror.CodeActorInactive,
			"Actor is not active",
		).WithDetail("actor_id", actorID)
	}
	return nil
}

// recordDeliveryAudit is best-effort: a sink failure never fails delivery.
func (s *Service) recordDeliveryAudit(ctx context.Context, doc *SalesOrder, actorID string) {
	if s.auditSink == nil {
		return
	}
	err := s.auditSink.Record(ctx, audit.Event{
		Action:     audit.ActionSaleDelivered,
		ActorID:    actorID,
		EntityType: SourceType,
		EntityID:   doc.ID,
		Payload: map[string]any{
			"number":       doc.Number,
			"branch_id":    doc.BranchID.String(),
			"total_amount": int64(doc.TotalAmount),
			"lines":        len(doc.Lines),
		},
	})
	if err != nil {
		logger.Warn(ctx, "audit record failed", "action", audit.ActionSaleDelivered, "error", err)
	}
}
