package pricing

import (
	"context"
	"fmt"
	"time"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/core/tx"
	"shopledger/internal/core/types"
	"shopledger/internal/domain/audit"
	"shopledger/internal/domain/catalogs/counterparty"
	"shopledger/internal/domain/catalogs/product"
	"shopledger/internal/domain/events"
	"shopledger/pkg/logger"
)

// Query asks for the price of Quantity units of a product.
type Query struct {
	ProductID  id.ID
	CustomerID *id.ID
	Quantity   int64
	InSaleUnit bool
	At         time.Time // zero means now
}

// Quote is a resolved price expressed in the unit the quantity was entered in.
type Quote struct {
	Resolution
	ProductID    id.ID       `json:"productId"`
	Quantity     int64       `json:"quantity"`
	Unit         string      `json:"unit"`
	BaseQuantity int64       `json:"baseQuantity"`
	BasePrice    types.Money `json:"basePrice"`
}

// Service loads pricing inputs and manages wholesale price entries.
type Service struct {
	repo           Repository
	products       product.Repository
	counterparties counterparty.Repository
	txManager      tx.Manager
	publisher      events.Publisher
	auditor        audit.Recorder
	now            func() time.Time
}

// NewService creates a new pricing service.
func NewService(
	repo Repository,
	products product.Repository,
	counterparties counterparty.Repository,
	txManager tx.Manager,
	publisher events.Publisher,
	auditor audit.Recorder,
) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if auditor == nil {
		auditor = audit.Nop{}
	}
	return &Service{
		repo:           repo,
		products:       products,
		counterparties: counterparties,
		txManager:      txManager,
		publisher:      publisher,
		auditor:        auditor,
		now:            time.Now,
	}
}

// WithClock overrides the time source (tests).
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// ResolvePrice resolves the unit price for a query.
// The expiry gate is returned as a Quote with Source == SourceExpired, not as an error;
// order creation turns it into PriceExpired.
func (s *Service) ResolvePrice(ctx context.Context, q Query) (*Quote, error) {
	if q.Quantity <= 0 {
		return nil, apperror.NewInvalidAmount("quantity", q.Quantity)
	}

	p, err := s.products.GetByID(ctx, q.ProductID)
	if err != nil {
		return nil, err
	}

	baseQty, err := p.ToBaseQuantity(q.Quantity, q.InSaleUnit)
	if err != nil {
		return nil, err
	}

	at := q.At
	if at.IsZero() {
		at = s.now()
	}

	res, err := s.ResolveForProduct(ctx, p, q.CustomerID, baseQty, at)
	if err != nil {
		return nil, err
	}

	quote := &Quote{
		Resolution:   res,
		ProductID:    p.ID,
		Quantity:     q.Quantity,
		Unit:         p.UnitLabel(q.InSaleUnit),
		BaseQuantity: baseQty,
		BasePrice:    res.UnitPrice,
	}
	if q.InSaleUnit {
		quote.Resolution = res.ForSaleUnit(p.SaleUnitRatio)
	}
	return quote, nil
}

// ResolveForProduct resolves the per-base-unit price for an already loaded product.
func (s *Service) ResolveForProduct(ctx context.Context, p *product.Product, customerID *id.ID, baseQty int64, at time.Time) (Resolution, error) {
	tiers, err := s.products.GetTiers(ctx, p.ID)
	if err != nil {
		return Resolution{}, fmt.Errorf("get tiers: %w", err)
	}

	promotions, err := s.repo.ListRunningPromotions(ctx, p.ID, at)
	if err != nil {
		return Resolution{}, fmt.Errorf("list promotions: %w", err)
	}

	var entry *WholesalePriceEntry
	if customerID != nil {
		entry, err = s.repo.GetEntry(ctx, *customerID, p.ID)
		if err != nil && !apperror.IsNotFound(err) {
			return Resolution{}, fmt.Errorf("get wholesale entry: %w", err)
		}
	}

	return Resolve(Input{
		Product:    p,
		Tiers:      tiers,
		Entry:      entry,
		Promotions: promotions,
		Quantity:   baseQty,
		Now:        at,
	}), nil
}

// GetPriceEntry returns the wholesale entry for a pair.
func (s *Service) GetPriceEntry(ctx context.Context, customerID, productID id.ID) (*WholesalePriceEntry, error) {
	return s.repo.GetEntry(ctx, customerID, productID)
}

// ListPriceEntries returns all wholesale entries of a customer.
func (s *Service) ListPriceEntries(ctx context.Context, customerID id.ID) ([]WholesalePriceEntry, error) {
	return s.repo.ListEntries(ctx, customerID)
}

// CreateOrReplacePriceEntry writes a wholesale entry.
// ModeCreate fails with Conflict when the pair already has an entry;
// ModeReplace overwrites it and records the previous values in the audit trail.
func (s *Service) CreateOrReplacePriceEntry(ctx context.Context, entry *WholesalePriceEntry, mode WriteMode) (created bool, err error) {
	if err := entry.Validate(); err != nil {
		return false, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		customer, err := s.counterparties.GetByID(ctx, entry.CustomerID)
		if err != nil {
			return err
		}
		if err := customer.RequireKind(counterparty.KindCustomer); err != nil {
			return err
		}
		if _, err := s.products.GetByID(ctx, entry.ProductID); err != nil {
			return err
		}

		switch mode {
		case ModeCreate:
			if err := s.repo.CreateEntry(ctx, entry); err != nil {
				return err
			}
			created = true
		case ModeReplace:
			previous, err := s.repo.GetEntry(ctx, entry.CustomerID, entry.ProductID)
			if err != nil && !apperror.IsNotFound(err) {
				return fmt.Errorf("get previous entry: %w", err)
			}
			created, err = s.repo.UpsertEntry(ctx, entry)
			if err != nil {
				return err
			}
			if previous != nil {
				if err := s.auditor.Record(ctx, audit.Enrich(ctx, audit.Entry{
					EntityType: "wholesale_price_entry",
					EntityID:   entry.ID,
					Action:     audit.ActionReplacePrice,
					Changes:    map[string]any{"before": previous, "after": entry},
				})); err != nil {
					return fmt.Errorf("audit replace: %w", err)
				}
			}
		default:
			return apperror.NewValidation("unknown write mode").WithDetail("mode", mode)
		}

		return s.publisher.Publish(ctx, events.Event{
			AggregateType: events.AggregateProduct,
			AggregateID:   entry.ProductID,
			Type:          events.PriceChanged,
			Payload:       entry,
		})
	})
	if err != nil {
		return false, err
	}

	logger.Info(ctx, "wholesale price entry written",
		"customer_id", entry.CustomerID,
		"product_id", entry.ProductID,
		"price", entry.Price.String(),
		"created", created,
	)

	return created, nil
}
