package cash

import (
	"context"
	"fmt"
	"time"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/core/tx"
	"shopledger/internal/core/types"
	"shopledger/internal/domain/catalogs/counterparty"
	"shopledger/internal/domain/events"
	"shopledger/pkg/logger"
)

// Service is the debt ledger. It is the single writer of counterparty debt.
type Service struct {
	repo           Repository
	counterparties counterparty.Repository
	txManager      tx.Manager
	publisher      events.Publisher
	now            func() time.Time
}

// NewService creates a new debt ledger service.
func NewService(repo Repository, counterparties counterparty.Repository, txManager tx.Manager, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{
		repo:           repo,
		counterparties: counterparties,
		txManager:      txManager,
		publisher:      publisher,
		now:            time.Now,
	}
}

// Apply records a cash movement. DEBT_COLLECTION and DEBT_PAYMENT also decrease
// the counterparty's debt by the amount in the same transaction.
// Debt is allowed to go negative (overpayment becomes credit).
func (s *Service) Apply(ctx context.Context, req CashRequest) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	m := &Movement{
		ID:             id.New(),
		Kind:           req.Kind,
		Amount:         req.Amount,
		CounterpartyID: req.CounterpartyID,
		OrderID:        req.OrderID,
		Description:    req.Description,
		CreatedAt:      s.now().UTC(),
	}
	result := &Result{Movement: m}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if req.CounterpartyID != nil {
			cp, err := s.counterparties.GetByID(ctx, *req.CounterpartyID)
			if err != nil {
				return err
			}
			switch req.Kind {
			case KindDebtCollection:
				if err := cp.RequireKind(counterparty.KindCustomer); err != nil {
					return err
				}
			case KindDebtPayment:
				if err := cp.RequireKind(counterparty.KindSupplier); err != nil {
					return err
				}
			}
		}

		if err := s.repo.CreateMovement(ctx, m); err != nil {
			return fmt.Errorf("create cash movement: %w", err)
		}

		if req.Kind.SettlesDebt() {
			debt, err := s.counterparties.AddDebt(ctx, *req.CounterpartyID, req.Amount.Neg())
			if err != nil {
				return err
			}
			result.Debt = &debt
		}

		if req.OrderID != nil {
			return nil
		}
		return s.publisher.Publish(ctx, events.Event{
			AggregateType: events.AggregateCash,
			AggregateID:   m.ID,
			Type:          events.CashRecorded,
			Payload:       result,
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Debug(ctx, "cash movement recorded",
		"kind", req.Kind,
		"amount", req.Amount.String(),
		"counterparty_id", req.CounterpartyID,
	)
	if result.Debt != nil && result.Debt.IsNegative() {
		logger.FromContext(ctx).WithCounterparty(*req.CounterpartyID).Infow("counterparty in credit",
			"debt", result.Debt.String(),
		)
	}

	return result, nil
}

// IncreaseDebt adds a positive amount to a counterparty's debt.
// Used by orders: purchase shortfall for suppliers, unpaid sale balance for customers.
func (s *Service) IncreaseDebt(ctx context.Context, counterpartyID id.ID, amount types.Money) (types.Money, error) {
	if !amount.IsPositive() {
		return types.Zero(), apperror.NewInvalidAmount("amount", amount.String())
	}

	var debt types.Money
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		debt, err = s.counterparties.AddDebt(ctx, counterpartyID, amount)
		return err
	})
	if err != nil {
		return types.Zero(), err
	}

	logger.FromContext(ctx).WithCounterparty(counterpartyID).Debugw("debt increased",
		"amount", amount.String(),
		"debt", debt.String(),
	)
	return debt, nil
}

// CashOnHand returns the drawer balance derived from the movement log.
func (s *Service) CashOnHand(ctx context.Context) (types.Money, error) {
	return s.repo.CashOnHand(ctx)
}

// History returns cash movements, newest first.
func (s *Service) History(ctx context.Context, filter MovementFilter) ([]Movement, error) {
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	return s.repo.List(ctx, filter)
}
