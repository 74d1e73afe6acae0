// Package reconciliation recomputes cached balances from their movement history
// and repairs drift.
package reconciliation

import (
	"context"
	"fmt"
	"time"

	"shopledger/internal/core/id"
	"shopledger/internal/core/tx"
	"shopledger/internal/core/types"
	"shopledger/internal/domain/audit"
	"shopledger/internal/domain/catalogs/counterparty"
	"shopledger/internal/domain/catalogs/product"
	"shopledger/internal/domain/documents/order"
	"shopledger/internal/domain/events"
	"shopledger/internal/domain/registers/cash"
	"shopledger/internal/domain/registers/stock"
	"shopledger/pkg/logger"
)

// DebtResult of a debt recalculation.
type DebtResult struct {
	CounterpartyID id.ID       `json:"counterpartyId"`
	Previous       types.Money `json:"previous"`
	Corrected      types.Money `json:"corrected"`
	Drift          types.Money `json:"drift"`
}

// Changed reports whether the cached debt was overwritten.
func (r DebtResult) Changed() bool { return !r.Drift.IsZero() }

// StockResult of a stock recalculation.
type StockResult struct {
	ProductID id.ID `json:"productId"`
	Previous  int64 `json:"previous"`
	Corrected int64 `json:"corrected"`
	Drift     int64 `json:"drift"`
}

// Changed reports whether the cached stock was overwritten.
func (r StockResult) Changed() bool { return r.Drift != 0 }

// Report summarizes a full sweep. Only corrections are listed.
type Report struct {
	StartedAt          time.Time     `json:"startedAt"`
	FinishedAt         time.Time     `json:"finishedAt"`
	CounterpartiesSeen int           `json:"counterpartiesSeen"`
	ProductsSeen       int           `json:"productsSeen"`
	Debts              []DebtResult  `json:"debts"`
	Stocks             []StockResult `json:"stocks"`
}

// Service repairs cached debt and stock.
type Service struct {
	counterparties counterparty.Repository
	products       product.Repository
	orders         order.Repository
	cash           cash.Repository
	stock          stock.Repository
	txManager      tx.Manager
	publisher      events.Publisher
	auditor        audit.Recorder
	now            func() time.Time
}

// NewService creates a new reconciliation service.
func NewService(
	counterparties counterparty.Repository,
	products product.Repository,
	orders order.Repository,
	cashRepo cash.Repository,
	stockRepo stock.Repository,
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
		counterparties: counterparties,
		products:       products,
		orders:         orders,
		cash:           cashRepo,
		stock:          stockRepo,
		txManager:      txManager,
		publisher:      publisher,
		auditor:        auditor,
		now:            time.Now,
	}
}

// RecalculateDebt recomputes a counterparty's debt from orders and settlements
// under a row lock and overwrites the cache when it drifted.
//
//	supplier: Σ(total − paid) over non-cancelled purchases − Σ DEBT_PAYMENT
//	customer: Σ(total − paid) over completed sales − Σ DEBT_COLLECTION
func (s *Service) RecalculateDebt(ctx context.Context, counterpartyID id.ID) (*DebtResult, error) {
	var result *DebtResult
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		cp, err := s.counterparties.GetForUpdate(ctx, counterpartyID)
		if err != nil {
			return err
		}

		var (
			outstanding types.Money
			settled     types.Money
		)
		switch cp.Kind {
		case counterparty.KindSupplier:
			outstanding, err = s.orders.SumOutstanding(ctx, cp.ID, order.TypePurchase,
				[]order.Status{order.StatusPending, order.StatusConfirmed, order.StatusCompleted})
			if err != nil {
				return fmt.Errorf("sum purchases: %w", err)
			}
			settled, err = s.cash.SumByCounterparty(ctx, cp.ID, cash.KindDebtPayment)
		default:
			outstanding, err = s.orders.SumOutstanding(ctx, cp.ID, order.TypeSale,
				[]order.Status{order.StatusCompleted})
			if err != nil {
				return fmt.Errorf("sum sales: %w", err)
			}
			settled, err = s.cash.SumByCounterparty(ctx, cp.ID, cash.KindDebtCollection)
		}
		if err != nil {
			return fmt.Errorf("sum settlements: %w", err)
		}

		corrected := outstanding.Sub(settled)
		result = &DebtResult{
			CounterpartyID: cp.ID,
			Previous:       cp.Debt,
			Corrected:      corrected,
			Drift:          corrected.Sub(cp.Debt),
		}
		if !result.Changed() {
			return nil
		}

		if err := s.counterparties.SetDebt(ctx, cp.ID, corrected); err != nil {
			return fmt.Errorf("set debt: %w", err)
		}
		if err := s.auditor.Record(ctx, audit.Enrich(ctx, audit.Entry{
			EntityType: "counterparty",
			EntityID:   cp.ID,
			Action:     audit.ActionReconcileDebt,
			Changes:    result,
		})); err != nil {
			return fmt.Errorf("audit: %w", err)
		}
		return s.publisher.Publish(ctx, events.Event{
			AggregateType: events.AggregateCounterparty,
			AggregateID:   cp.ID,
			Type:          events.DebtReconciled,
			Payload:       result,
		})
	})
	if err != nil {
		return nil, err
	}

	if result.Changed() {
		logger.FromContext(ctx).WithCounterparty(counterpartyID).Warnw("debt drift corrected",
			"previous", result.Previous.String(),
			"corrected", result.Corrected.String())
	}
	return result, nil
}

// RecalculateStock recomputes a product's stock from its movements under a row lock.
func (s *Service) RecalculateStock(ctx context.Context, productID id.ID) (*StockResult, error) {
	var result *StockResult
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		p, err := s.products.GetForUpdate(ctx, productID)
		if err != nil {
			return err
		}

		sum, err := s.stock.SumByProduct(ctx, p.ID)
		if err != nil {
			return fmt.Errorf("sum movements: %w", err)
		}

		result = &StockResult{
			ProductID: p.ID,
			Previous:  p.Stock,
			Corrected: sum,
			Drift:     sum - p.Stock,
		}
		if !result.Changed() {
			return nil
		}

		if err := s.products.SetStock(ctx, p.ID, sum); err != nil {
			return fmt.Errorf("set stock: %w", err)
		}
		if err := s.auditor.Record(ctx, audit.Enrich(ctx, audit.Entry{
			EntityType: "product",
			EntityID:   p.ID,
			Action:     audit.ActionReconcileStock,
			Changes:    result,
		})); err != nil {
			return fmt.Errorf("audit: %w", err)
		}
		return s.publisher.Publish(ctx, events.Event{
			AggregateType: events.AggregateProduct,
			AggregateID:   p.ID,
			Type:          events.StockReconciled,
			Payload:       result,
		})
	})
	if err != nil {
		return nil, err
	}

	if result.Changed() {
		logger.Warn(ctx, "stock drift corrected",
			"product_id", productID,
			"previous", result.Previous,
			"corrected", result.Corrected)
	}
	return result, nil
}

// RecalculateAll sweeps every counterparty and product. Each entity is
// reconciled in its own transaction; the first error stops the sweep.
func (s *Service) RecalculateAll(ctx context.Context) (*Report, error) {
	report := &Report{
		StartedAt: s.now().UTC(),
		Debts:     []DebtResult{},
		Stocks:    []StockResult{},
	}

	cps, err := s.counterparties.List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list counterparties: %w", err)
	}
	for _, cp := range cps {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		res, err := s.RecalculateDebt(ctx, cp.ID)
		if err != nil {
			return report, fmt.Errorf("reconcile counterparty %s: %w", cp.ID, err)
		}
		report.CounterpartiesSeen++
		if res.Changed() {
			report.Debts = append(report.Debts, *res)
		}
	}

	products, err := s.products.List(ctx)
	if err != nil {
		return report, fmt.Errorf("list products: %w", err)
	}
	for _, p := range products {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		res, err := s.RecalculateStock(ctx, p.ID)
		if err != nil {
			return report, fmt.Errorf("reconcile product %s: %w", p.ID, err)
		}
		report.ProductsSeen++
		if res.Changed() {
			report.Stocks = append(report.Stocks, *res)
		}
	}

	report.FinishedAt = s.now().UTC()
	logger.Info(ctx, "reconciliation sweep finished",
		"counterparties", report.CounterpartiesSeen,
		"products", report.ProductsSeen,
		"debt_corrections", len(report.Debts),
		"stock_corrections", len(report.Stocks))

	return report, nil
}
