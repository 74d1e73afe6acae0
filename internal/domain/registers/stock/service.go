package stock

import (
	"context"
	"fmt"
	"time"

	"shopledger/internal/core/id"
	"shopledger/internal/core/tx"
	"shopledger/internal/domain/catalogs/product"
	"shopledger/internal/domain/events"
	"shopledger/pkg/logger"
)

// MovementRequest asks the ledger to move stock of one product.
// Quantity is a magnitude for IN/OUT/LOST/DAMAGED and a signed delta for ADJUSTMENT.
type MovementRequest struct {
	ProductID id.ID
	Kind      Kind
	Quantity  int64
	Note      string
	OrderID   *id.ID
}

// Service is the inventory ledger.
type Service struct {
	repo      Repository
	products  product.Repository
	txManager tx.Manager
	publisher events.Publisher
	now       func() time.Time
}

// NewService creates a new inventory ledger service.
func NewService(repo Repository, products product.Repository, txManager tx.Manager, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{
		repo:      repo,
		products:  products,
		txManager: txManager,
		publisher: publisher,
		now:       time.Now,
	}
}

// Apply records one movement and moves the cached stock by the same delta, atomically.
// A negative resulting stock is recorded, not rejected.
func (s *Service) Apply(ctx context.Context, req MovementRequest) (*Movement, int64, error) {
	delta, err := SignedDelta(req.Kind, req.Quantity)
	if err != nil {
		return nil, 0, err
	}

	m := &Movement{
		ID:        id.New(),
		ProductID: req.ProductID,
		Kind:      req.Kind,
		Quantity:  delta,
		Note:      req.Note,
		OrderID:   req.OrderID,
		CreatedAt: s.now().UTC(),
	}

	var newStock int64
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		// Increment first: it takes the row lock and reports NotFound.
		newStock, err = s.products.AddStock(ctx, req.ProductID, delta)
		if err != nil {
			return err
		}
		if err := s.repo.CreateMovement(ctx, m); err != nil {
			return fmt.Errorf("create stock movement: %w", err)
		}
		// Order-driven movements are announced by the order events.
		if req.OrderID != nil {
			return nil
		}
		return s.publisher.Publish(ctx, events.Event{
			AggregateType: events.AggregateProduct,
			AggregateID:   req.ProductID,
			Type:          events.StockAdjusted,
			Payload:       map[string]any{"movement": m, "stock": newStock},
		})
	})
	if err != nil {
		return nil, 0, err
	}

	logger.Debug(ctx, "stock movement recorded",
		"product_id", req.ProductID,
		"kind", req.Kind,
		"delta", delta,
		"stock", newStock,
	)
	if newStock < 0 {
		logger.Warn(ctx, "stock went negative",
			"product_id", req.ProductID,
			"stock", newStock,
			"order_id", req.OrderID,
		)
	}

	return m, newStock, nil
}

// History returns a product's movements, newest first.
func (s *Service) History(ctx context.Context, productID id.ID, filter MovementFilter) ([]Movement, error) {
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, err
	}
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	return s.repo.ListByProduct(ctx, productID, filter)
}
