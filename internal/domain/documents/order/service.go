package order

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"time"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/core/numerator"
	"shopledger/internal/core/tx"
	"shopledger/internal/core/types"
	"shopledger/internal/domain/catalogs/counterparty"
	"shopledger/internal/domain/catalogs/product"
	"shopledger/internal/domain/events"
	"shopledger/internal/domain/pricing"
	"shopledger/internal/domain/registers/cash"
	"shopledger/internal/domain/registers/stock"
	"shopledger/pkg/logger"
)

const (
	salePrefix     = "SO"
	purchasePrefix = "PO"
)

// Deps groups the collaborators of the order service.
type Deps struct {
	Repo           Repository
	Products       product.Repository
	Counterparties counterparty.Repository
	Pricing        *pricing.Service
	Stock          *stock.Service
	Cash           *cash.Service
	Numerator      numerator.Generator
	NumberOptions  *numerator.Options
	TxManager      tx.Manager
	Publisher      events.Publisher
	Notifier       Notifier
}

// Service orchestrates order settlement across the ledgers.
// Every multi-step operation runs as one transaction.
type Service struct {
	repo           Repository
	products       product.Repository
	counterparties counterparty.Repository
	pricing        *pricing.Service
	stock          *stock.Service
	cash           *cash.Service
	numerator      numerator.Generator
	numberOpts     *numerator.Options
	txManager      tx.Manager
	publisher      events.Publisher
	notifier       Notifier
	now            func() time.Time
}

// NewService creates a new order service.
func NewService(d Deps) *Service {
	s := &Service{
		repo:           d.Repo,
		products:       d.Products,
		counterparties: d.Counterparties,
		pricing:        d.Pricing,
		stock:          d.Stock,
		cash:           d.Cash,
		numerator:      d.Numerator,
		numberOpts:     d.NumberOptions,
		txManager:      d.TxManager,
		publisher:      d.Publisher,
		notifier:       d.Notifier,
		now:            time.Now,
	}
	if s.numberOpts == nil {
		s.numberOpts = numerator.DefaultOptions()
	}
	if s.publisher == nil {
		s.publisher = events.Nop{}
	}
	if s.notifier == nil {
		s.notifier = NopNotifier{}
	}
	return s
}

// WithClock overrides the time source (tests).
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// CreateSaleOrder prices the lines and records a PENDING sale order.
// It has no stock or debt effect; those apply on completion.
func (s *Service) CreateSaleOrder(ctx context.Context, in SaleInput) (*Order, error) {
	if err := validateLines(in.Lines); err != nil {
		return nil, err
	}

	now := s.now().UTC()

	var customer *counterparty.Counterparty
	if in.CustomerID != nil {
		c, err := s.counterparties.GetByID(ctx, *in.CustomerID)
		if err != nil {
			return nil, err
		}
		if err := c.RequireKind(counterparty.KindCustomer); err != nil {
			return nil, err
		}
		customer = c
	}

	o := &Order{
		ID:             id.New(),
		Type:           TypeSale,
		Status:         StatusPending,
		CounterpartyID: in.CustomerID,
		Paid:           in.Paid,
		ShippingFee:    types.Zero(),
		Note:           in.Note,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	items, err := s.priceSaleLines(ctx, o.ID, in.CustomerID, in.Lines, now)
	if err != nil {
		return nil, err
	}
	o.Items = items
	o.Total = sumLines(items)

	if err := validatePaid(o.Paid, o.Total); err != nil {
		return nil, err
	}
	if o.Paid.LessThan(o.Total) && customer == nil {
		return nil, apperror.NewCustomerRequired()
	}

	code, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig(salePrefix), s.numberOpts, now)
	if err != nil {
		return nil, fmt.Errorf("generate order code: %w", err)
	}
	o.Code = code

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, o); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		if err := s.repo.SaveItems(ctx, o.ID, o.Items); err != nil {
			return fmt.Errorf("save items: %w", err)
		}
		return s.publish(ctx, o, events.OrderCreated)
	})
	if err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx).WithOrder(o.ID, o.Code)
	log.Infow("sale order created",
		"total", o.Total.String(),
		"paid", o.Paid.String())

	if err := s.notifier.SaleOrderCreated(ctx, o, customer); err != nil {
		log.Warnw("sale order notification failed", "error", err)
	}

	return o, nil
}

func (s *Service) priceSaleLines(ctx context.Context, orderID id.ID, customerID *id.ID, lines []LineInput, at time.Time) ([]Item, error) {
	items := make([]Item, 0, len(lines))
	for i, l := range lines {
		p, err := s.products.GetByID(ctx, l.ProductID)
		if err != nil {
			return nil, err
		}
		baseQty, err := p.ToBaseQuantity(l.Quantity, l.InSaleUnit)
		if err != nil {
			return nil, err
		}

		// An expired wholesale entry blocks the pair even when the caller names a price.
		res, err := s.pricing.ResolveForProduct(ctx, p, customerID, baseQty, at)
		if err != nil {
			return nil, err
		}
		if res.Expired() {
			return nil, apperror.NewPriceExpired(p.ID, customerID).WithDetail("line", i+1)
		}

		var unitPrice types.Money
		if l.UnitPrice != nil {
			if err := validateUnitPrice(i, l); err != nil {
				return nil, err
			}
			unitPrice = *l.UnitPrice
		} else {
			if l.InSaleUnit {
				res = res.ForSaleUnit(p.SaleUnitRatio)
			}
			unitPrice = res.UnitPrice
		}

		items = append(items, newItem(orderID, i+1, p, l, baseQty, unitPrice))
	}
	return items, nil
}

// CreatePurchaseOrder records a received purchase. Stock, cost, supplier debt and
// the cash payment are applied with the order in one transaction.
func (s *Service) CreatePurchaseOrder(ctx context.Context, in PurchaseInput) (*Order, error) {
	if err := validateLines(in.Lines); err != nil {
		return nil, err
	}
	for i, l := range in.Lines {
		if l.UnitPrice == nil {
			return nil, apperror.NewInvalidAmount("unitPrice", nil).WithDetail("line", i+1)
		}
		if err := validateUnitPrice(i, l); err != nil {
			return nil, err
		}
	}
	if in.ShippingFee.IsNegative() {
		return nil, apperror.NewInvalidAmount("shippingFee", in.ShippingFee.String())
	}

	total := in.ShippingFee
	for _, l := range in.Lines {
		total = total.Add(types.LineTotal(*l.UnitPrice, l.Quantity))
	}
	if err := validatePaid(in.Paid, total); err != nil {
		return nil, err
	}
	if in.Paid.LessThan(total) && in.SupplierID == nil {
		return nil, apperror.NewSupplierRequired()
	}

	now := s.now().UTC()
	o := &Order{
		ID:             id.New(),
		Type:           TypePurchase,
		Status:         StatusCompleted,
		CounterpartyID: in.SupplierID,
		Total:          total,
		Paid:           in.Paid,
		ShippingFee:    in.ShippingFee,
		Note:           in.Note,
		CreatedAt:      now,
		UpdatedAt:      now,
		CompletedAt:    &now,
	}

	code, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig(purchasePrefix), s.numberOpts, now)
	if err != nil {
		return nil, fmt.Errorf("generate order code: %w", err)
	}
	o.Code = code

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if in.SupplierID != nil {
			supplier, err := s.counterparties.GetByID(ctx, *in.SupplierID)
			if err != nil {
				return err
			}
			if err := supplier.RequireKind(counterparty.KindSupplier); err != nil {
				return err
			}
		}

		if err := s.repo.Create(ctx, o); err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		items := make([]Item, 0, len(in.Lines))
		costs := make(map[id.ID]types.Money, len(in.Lines))
		for i, l := range in.Lines {
			p, err := s.products.GetByID(ctx, l.ProductID)
			if err != nil {
				return err
			}
			baseQty, err := p.ToBaseQuantity(l.Quantity, l.InSaleUnit)
			if err != nil {
				return err
			}
			item := newItem(o.ID, i+1, p, l, baseQty, *l.UnitPrice)

			cost := *l.UnitPrice
			if l.InSaleUnit {
				cost = types.PerUnit(cost, p.SaleUnitRatio)
			}
			costs[item.ID] = cost
			items = append(items, item)
		}
		o.Items = items

		for _, item := range byProduct(items) {
			if _, _, err := s.stock.Apply(ctx, stock.MovementRequest{
				ProductID: item.ProductID,
				Kind:      stock.KindIn,
				Quantity:  item.BaseQuantity,
				Note:      o.Code,
				OrderID:   &o.ID,
			}); err != nil {
				return err
			}
			if err := s.products.SetCost(ctx, item.ProductID, costs[item.ID]); err != nil {
				return fmt.Errorf("set cost: %w", err)
			}
		}

		if err := s.repo.SaveItems(ctx, o.ID, items); err != nil {
			return fmt.Errorf("save items: %w", err)
		}

		if shortfall := o.Outstanding(); shortfall.IsPositive() {
			if _, err := s.cash.IncreaseDebt(ctx, *o.CounterpartyID, shortfall); err != nil {
				return err
			}
		}

		if o.Paid.IsPositive() {
			if _, err := s.cash.Apply(ctx, cash.CashRequest{
				Kind:           cash.KindExpense,
				Amount:         o.Paid,
				CounterpartyID: o.CounterpartyID,
				OrderID:        &o.ID,
				Description:    "Payment for " + o.Code,
			}); err != nil {
				return err
			}
		}

		return s.publish(ctx, o, events.OrderCreated)
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).WithOrder(o.ID, o.Code).Infow("purchase order recorded",
		"total", o.Total.String(),
		"paid", o.Paid.String())

	return o, nil
}

// ConfirmSaleOrder moves a PENDING sale order to CONFIRMED.
func (s *Service) ConfirmSaleOrder(ctx context.Context, orderID id.ID) (*Order, error) {
	return s.transition(ctx, orderID, StatusConfirmed, events.OrderConfirmed, nil)
}

// CompleteSaleOrder delivers a sale order: stock leaves, the unpaid balance
// becomes customer debt and the paid part enters the drawer.
func (s *Service) CompleteSaleOrder(ctx context.Context, orderID id.ID) (*Order, error) {
	return s.transition(ctx, orderID, StatusCompleted, events.OrderCompleted, s.settleSale)
}

// CancelOrder cancels an order that has not been completed.
func (s *Service) CancelOrder(ctx context.Context, orderID id.ID) (*Order, error) {
	return s.transition(ctx, orderID, StatusCancelled, events.OrderCancelled, nil)
}

func (s *Service) transition(
	ctx context.Context,
	orderID id.ID,
	to Status,
	eventType string,
	effect func(ctx context.Context, o *Order) error,
) (*Order, error) {
	var o *Order
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		o, err = s.repo.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if to != StatusCancelled && o.Type != TypeSale {
			return apperror.NewInvalidTransition(string(o.Status), string(to)).
				WithDetail("order_id", o.ID).
				WithDetail("type", o.Type)
		}

		from := o.Status
		if err := o.TransitionTo(to, s.now().UTC()); err != nil {
			return err
		}

		items, err := s.repo.GetItems(ctx, o.ID)
		if err != nil {
			return fmt.Errorf("get items: %w", err)
		}
		o.Items = items

		if effect != nil {
			if err := effect(ctx, o); err != nil {
				return err
			}
		}

		if err := s.repo.UpdateStatus(ctx, o); err != nil {
			return fmt.Errorf("update status: %w", err)
		}

		logger.Debug(ctx, "order status changed", "code", o.Code, "from", from, "to", to)
		return s.publish(ctx, o, eventType)
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).WithOrder(o.ID, o.Code).Infow("order status changed", "status", o.Status)

	return o, nil
}

func (s *Service) settleSale(ctx context.Context, o *Order) error {
	shortfall := o.Outstanding()
	if shortfall.IsPositive() && o.CounterpartyID == nil {
		return apperror.NewCustomerRequired().WithDetail("order_id", o.ID)
	}

	for _, item := range byProduct(o.Items) {
		if _, _, err := s.stock.Apply(ctx, stock.MovementRequest{
			ProductID: item.ProductID,
			Kind:      stock.KindOut,
			Quantity:  item.BaseQuantity,
			Note:      o.Code,
			OrderID:   &o.ID,
		}); err != nil {
			return err
		}
	}

	if shortfall.IsPositive() {
		if _, err := s.cash.IncreaseDebt(ctx, *o.CounterpartyID, shortfall); err != nil {
			return err
		}
	}

	if o.Paid.IsPositive() {
		if _, err := s.cash.Apply(ctx, cash.CashRequest{
			Kind:           cash.KindIncome,
			Amount:         o.Paid,
			CounterpartyID: o.CounterpartyID,
			OrderID:        &o.ID,
			Description:    "Payment for " + o.Code,
		}); err != nil {
			return err
		}
	}
	return nil
}

// SettleDebt records a debt collection from a customer or a payment to a supplier.
// The debt decrement and the cash movement commit together.
func (s *Service) SettleDebt(ctx context.Context, counterpartyID id.ID, kind cash.Kind, amount types.Money, description string) (*cash.Result, error) {
	if !kind.SettlesDebt() {
		return nil, apperror.NewValidation("settlement kind must be DEBT_COLLECTION or DEBT_PAYMENT").
			WithDetail("kind", kind)
	}

	var result *cash.Result
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		result, err = s.cash.Apply(ctx, cash.CashRequest{
			Kind:           kind,
			Amount:         amount,
			CounterpartyID: &counterpartyID,
			Description:    description,
		})
		if err != nil {
			return err
		}
		return s.publisher.Publish(ctx, events.Event{
			AggregateType: events.AggregateCounterparty,
			AggregateID:   counterpartyID,
			Type:          events.DebtSettled,
			Payload:       result,
		})
	})
	if err != nil {
		return nil, err
	}

	logger.FromContext(ctx).WithCounterparty(counterpartyID).Infow("debt settled",
		"kind", kind,
		"amount", amount.String(),
		"debt", result.Debt.String())

	return result, nil
}

// RecordCashMovement records plain income or expense with no counterparty.
func (s *Service) RecordCashMovement(ctx context.Context, kind cash.Kind, amount types.Money, description string) (*cash.Result, error) {
	if kind != cash.KindIncome && kind != cash.KindExpense {
		return nil, apperror.NewValidation("cash movement kind must be INCOME or EXPENSE").
			WithDetail("kind", kind)
	}
	return s.cash.Apply(ctx, cash.CashRequest{
		Kind:        kind,
		Amount:      amount,
		Description: description,
	})
}

// GetOrder retrieves an order with its items.
func (s *Service) GetOrder(ctx context.Context, orderID id.ID) (*Order, error) {
	o, err := s.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	items, err := s.repo.GetItems(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	o.Items = items

	return o, nil
}

// ListOrders returns orders without items.
func (s *Service) ListOrders(ctx context.Context, filter Filter) ([]Order, error) {
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 50
	}
	return s.repo.List(ctx, filter)
}

func (s *Service) publish(ctx context.Context, o *Order, eventType string) error {
	return s.publisher.Publish(ctx, events.Event{
		AggregateType: events.AggregateOrder,
		AggregateID:   o.ID,
		Type:          eventType,
		Payload:       o,
	})
}

func newItem(orderID id.ID, lineNo int, p *product.Product, l LineInput, baseQty int64, unitPrice types.Money) Item {
	return Item{
		ID:           id.New(),
		OrderID:      orderID,
		LineNo:       lineNo,
		ProductID:    p.ID,
		Quantity:     l.Quantity,
		Unit:         p.UnitLabel(l.InSaleUnit),
		BaseQuantity: baseQty,
		UnitPrice:    unitPrice,
		LineTotal:    types.LineTotal(unitPrice, l.Quantity),
	}
}

// byProduct returns the items ordered by product id, so concurrent orders
// lock product rows in the same order. Lines of one product keep their order.
func byProduct(items []Item) []Item {
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b Item) int {
		return bytes.Compare(a.ProductID[:], b.ProductID[:])
	})
	return sorted
}

func sumLines(items []Item) types.Money {
	total := types.Zero()
	for _, it := range items {
		total = total.Add(it.LineTotal)
	}
	return total
}
