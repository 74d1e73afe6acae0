package order_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/core/numerator"
	"shopledger/internal/core/types"
	"shopledger/internal/domain/catalogs/counterparty"
	"shopledger/internal/domain/catalogs/product"
	"shopledger/internal/domain/documents/order"
	"shopledger/internal/domain/events"
	"shopledger/internal/domain/pricing"
	"shopledger/internal/domain/registers/cash"
	"shopledger/internal/domain/registers/stock"
	"shopledger/internal/infrastructure/storage/memory"
)

var now = time.Date(2026, 4, 20, 14, 30, 0, 0, time.UTC)

type recordingNotifier struct {
	mu     sync.Mutex
	calls  []string
	failed bool
}

func (n *recordingNotifier) SaleOrderCreated(_ context.Context, o *order.Order, _ *counterparty.Counterparty) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, o.Code)
	if n.failed {
		return errors.New("mail relay down")
	}
	return nil
}

type fixture struct {
	svc      *order.Service
	stock    *stock.Service
	store    *memory.Store
	notifier *recordingNotifier

	rice     id.ID // 100 per kg
	cement   id.ID // 50 per kg, sold by 10 kg bag
	customer id.ID
	supplier id.ID
}

func setup(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	f := &fixture{
		store:    store,
		notifier: &recordingNotifier{},
		rice:     id.New(),
		cement:   id.New(),
		customer: id.New(),
		supplier: id.New(),
	}

	store.PutProduct(product.Product{ID: f.rice, Name: "Gạo", Price: types.MustMoney("100"), Cost: types.MustMoney("70"), BaseUnit: "kg"})
	store.PutProduct(product.Product{ID: f.cement, Name: "Xi măng", Price: types.MustMoney("50"), BaseUnit: "kg", SaleUnit: "bao", SaleUnitRatio: 10})
	store.PutCounterparty(counterparty.Counterparty{ID: f.customer, Kind: counterparty.KindCustomer, Name: "Anh Tư", Debt: types.Zero()})
	store.PutCounterparty(counterparty.Counterparty{ID: f.supplier, Kind: counterparty.KindSupplier, Name: "Công ty Lúa Vàng", Debt: types.Zero()})

	clock := func() time.Time { return now }
	pricingSvc := pricing.NewService(store.Pricing(), store.Products(), store.Counterparties(), store, store, store).WithClock(clock)
	f.stock = stock.NewService(store.Stock(), store.Products(), store, store)
	cashSvc := cash.NewService(store.Cash(), store.Counterparties(), store, store)

	f.svc = order.NewService(order.Deps{
		Repo:           store.Orders(),
		Products:       store.Products(),
		Counterparties: store.Counterparties(),
		Pricing:        pricingSvc,
		Stock:          f.stock,
		Cash:           cashSvc,
		Numerator:      &numerator.MockGenerator{},
		TxManager:      store,
		Publisher:      store,
		Notifier:       f.notifier,
	}).WithClock(clock)
	return f
}

func (f *fixture) receive(t *testing.T, productID id.ID, qty int64) {
	t.Helper()
	_, _, err := f.stock.Apply(context.Background(), stock.MovementRequest{ProductID: productID, Kind: stock.KindIn, Quantity: qty})
	require.NoError(t, err)
}

func (f *fixture) productStock(t *testing.T, productID id.ID) int64 {
	t.Helper()
	p, err := f.store.Products().GetByID(context.Background(), productID)
	require.NoError(t, err)
	return p.Stock
}

func (f *fixture) debt(t *testing.T, counterpartyID id.ID) types.Money {
	t.Helper()
	c, err := f.store.Counterparties().GetByID(context.Background(), counterpartyID)
	require.NoError(t, err)
	return c.Debt
}

func (f *fixture) cashOnHand(t *testing.T) types.Money {
	t.Helper()
	v, err := f.store.Cash().CashOnHand(context.Background())
	require.NoError(t, err)
	return v
}

func money(s string) types.Money { return types.MustMoney(s) }

func price(s string) *types.Money {
	m := types.MustMoney(s)
	return &m
}

func TestCreateSaleOrder_PendingWithoutLedgerEffect(t *testing.T) {
	f := setup(t)
	f.receive(t, f.rice, 10)

	o, err := f.svc.CreateSaleOrder(context.Background(), order.SaleInput{
		CustomerID: &f.customer,
		Lines:      []order.LineInput{{ProductID: f.rice, Quantity: 2}},
		Paid:       money("50"),
	})
	require.NoError(t, err)

	assert.Equal(t, "SO-2026-00001", o.Code)
	assert.Equal(t, order.StatusPending, o.Status)
	assert.True(t, o.Total.Equal(money("200")))
	require.Len(t, o.Items, 1)
	assert.Equal(t, "kg", o.Items[0].Unit)

	assert.Equal(t, int64(10), f.productStock(t, f.rice))
	assert.True(t, f.debt(t, f.customer).IsZero())
	assert.True(t, f.cashOnHand(t).IsZero())
	assert.Equal(t, []string{"SO-2026-00001"}, f.notifier.calls)
	assert.Equal(t, []string{events.StockAdjusted, events.OrderCreated}, f.store.EventTypes())
}

func TestCompleteSaleOrder_AppliesStockDebtAndCash(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.receive(t, f.rice, 10)

	o, err := f.svc.CreateSaleOrder(ctx, order.SaleInput{
		CustomerID: &f.customer,
		Lines:      []order.LineInput{{ProductID: f.rice, Quantity: 2}},
		Paid:       money("50"),
	})
	require.NoError(t, err)

	_, err = f.svc.ConfirmSaleOrder(ctx, o.ID)
	require.NoError(t, err)

	done, err := f.svc.CompleteSaleOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusCompleted, done.Status)
	require.NotNil(t, done.CompletedAt)

	assert.Equal(t, int64(8), f.productStock(t, f.rice))
	assert.True(t, f.debt(t, f.customer).Equal(money("150")))
	assert.True(t, f.cashOnHand(t).Equal(money("50")))

	moves, err := f.store.Stock().ListByOrder(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, moves, 1)
	assert.Equal(t, int64(-2), moves[0].Quantity)

	_, err = f.svc.CancelOrder(ctx, o.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidTransition))
}

func TestCreateSaleOrder_SaleUnitLine(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	o, err := f.svc.CreateSaleOrder(ctx, order.SaleInput{
		Lines: []order.LineInput{{ProductID: f.cement, Quantity: 2, InSaleUnit: true}},
		Paid:  money("1000"),
	})
	require.NoError(t, err)

	item := o.Items[0]
	assert.Equal(t, "bao", item.Unit)
	assert.Equal(t, int64(20), item.BaseQuantity)
	assert.True(t, item.UnitPrice.Equal(money("500")))
	assert.True(t, o.Total.Equal(money("1000")))

	_, err = f.svc.CompleteSaleOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(-20), f.productStock(t, f.cement))
	assert.True(t, f.cashOnHand(t).Equal(money("1000")))
}

func TestCreateSaleOrder_CallerPriceTrusted(t *testing.T) {
	f := setup(t)

	o, err := f.svc.CreateSaleOrder(context.Background(), order.SaleInput{
		Lines: []order.LineInput{{ProductID: f.rice, Quantity: 3, UnitPrice: price("95")}},
		Paid:  money("285"),
	})
	require.NoError(t, err)
	assert.True(t, o.Total.Equal(money("285")))
}

func TestCreateSaleOrder_ExpiredWholesalePrice(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	require.NoError(t, f.store.Pricing().CreateEntry(ctx, &pricing.WholesalePriceEntry{
		CustomerID: f.customer,
		ProductID:  f.rice,
		Price:      money("90"),
		ValidFrom:  now.AddDate(0, -3, 0),
		ValidTo:    now.AddDate(0, 0, -1),
	}))

	_, err := f.svc.CreateSaleOrder(ctx, order.SaleInput{
		CustomerID: &f.customer,
		Lines:      []order.LineInput{{ProductID: f.rice, Quantity: 1}},
		Paid:       money("0"),
	})
	assert.True(t, apperror.HasCode(err, apperror.CodePriceExpired))

	orders, err := f.svc.ListOrders(ctx, order.Filter{})
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Empty(t, f.notifier.calls)
}

func TestCreateSaleOrder_ExpiredEntryBlocksCallerPrice(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	require.NoError(t, f.store.Pricing().CreateEntry(ctx, &pricing.WholesalePriceEntry{
		CustomerID: f.customer,
		ProductID:  f.rice,
		Price:      money("90"),
		ValidFrom:  now.AddDate(0, -3, 0),
		ValidTo:    now.AddDate(0, 0, -1),
	}))

	for _, unitPrice := range []string{"100", "0"} {
		t.Run("price "+unitPrice, func(t *testing.T) {
			_, err := f.svc.CreateSaleOrder(ctx, order.SaleInput{
				CustomerID: &f.customer,
				Lines: []order.LineInput{
					{ProductID: f.cement, Quantity: 1},
					{ProductID: f.rice, Quantity: 2, UnitPrice: price(unitPrice)},
				},
				Paid: money("0"),
			})
			require.True(t, apperror.HasCode(err, apperror.CodePriceExpired), "got %v", err)

			var appErr *apperror.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, 2, appErr.Details["line"])
		})
	}

	orders, err := f.svc.ListOrders(ctx, order.Filter{})
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Empty(t, f.store.EventTypes())

	// Other customers are unaffected by the pair's expired entry.
	o, err := f.svc.CreateSaleOrder(ctx, order.SaleInput{
		Lines: []order.LineInput{{ProductID: f.rice, Quantity: 2, UnitPrice: price("100")}},
		Paid:  money("200"),
	})
	require.NoError(t, err)
	assert.True(t, o.Total.Equal(money("200")))
}

func TestCreateSaleOrder_Rejections(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   order.SaleInput
		code string
	}{
		{
			name: "unpaid walk-in",
			in:   order.SaleInput{Lines: []order.LineInput{{ProductID: f.rice, Quantity: 1}}, Paid: money("40")},
			code: apperror.CodeCustomerRequired,
		},
		{
			name: "overpaid",
			in:   order.SaleInput{Lines: []order.LineInput{{ProductID: f.rice, Quantity: 1}}, Paid: money("101")},
			code: apperror.CodeInvalidAmount,
		},
		{
			name: "zero quantity",
			in:   order.SaleInput{Lines: []order.LineInput{{ProductID: f.rice, Quantity: 0}}},
			code: apperror.CodeInvalidAmount,
		},
		{
			name: "zero caller price",
			in:   order.SaleInput{Lines: []order.LineInput{{ProductID: f.rice, Quantity: 1, UnitPrice: price("0")}}},
			code: apperror.CodeInvalidAmount,
		},
		{
			name: "unknown product",
			in:   order.SaleInput{Lines: []order.LineInput{{ProductID: id.New(), Quantity: 1}}},
			code: apperror.CodeNotFound,
		},
		{
			name: "no sale unit",
			in:   order.SaleInput{Lines: []order.LineInput{{ProductID: f.rice, Quantity: 1, InSaleUnit: true}}},
			code: apperror.CodeValidation,
		},
		{
			name: "supplier as customer",
			in:   order.SaleInput{CustomerID: &f.supplier, Lines: []order.LineInput{{ProductID: f.rice, Quantity: 1}}},
			code: apperror.CodeValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateSaleOrder(ctx, tt.in)
			assert.True(t, apperror.HasCode(err, tt.code), "got %v", err)
		})
	}

	assert.Empty(t, f.store.EventTypes())
}

func TestCreateSaleOrder_NotifierFailureIgnored(t *testing.T) {
	f := setup(t)
	f.notifier.failed = true

	o, err := f.svc.CreateSaleOrder(context.Background(), order.SaleInput{
		CustomerID: &f.customer,
		Lines:      []order.LineInput{{ProductID: f.rice, Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{o.Code}, f.notifier.calls)
}

func TestCreatePurchaseOrder_AppliesEverything(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	o, err := f.svc.CreatePurchaseOrder(ctx, order.PurchaseInput{
		SupplierID: &f.supplier,
		Lines: []order.LineInput{
			{ProductID: f.rice, Quantity: 5, UnitPrice: price("60")},
			{ProductID: f.cement, Quantity: 1, InSaleUnit: true, UnitPrice: price("400")},
		},
		Paid:        money("200"),
		ShippingFee: money("20"),
	})
	require.NoError(t, err)

	assert.Equal(t, "PO-2026-00001", o.Code)
	assert.Equal(t, order.StatusCompleted, o.Status)
	assert.True(t, o.Total.Equal(money("720")))

	assert.Equal(t, int64(5), f.productStock(t, f.rice))
	assert.Equal(t, int64(10), f.productStock(t, f.cement))
	assert.True(t, f.debt(t, f.supplier).Equal(money("520")))
	assert.True(t, f.cashOnHand(t).Equal(money("-200")))

	rice, _ := f.store.Products().GetByID(ctx, f.rice)
	cement, _ := f.store.Products().GetByID(ctx, f.cement)
	assert.True(t, rice.Cost.Equal(money("60")))
	assert.True(t, cement.Cost.Equal(money("40")))

	got, err := f.svc.GetOrder(ctx, o.ID)
	require.NoError(t, err)
	assert.Len(t, got.Items, 2)
	assert.Equal(t, []string{events.OrderCreated}, f.store.EventTypes())
}

func TestCreatePurchaseOrder_BadLineRollsBackEverything(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.CreatePurchaseOrder(ctx, order.PurchaseInput{
		SupplierID: &f.supplier,
		Lines: []order.LineInput{
			{ProductID: f.rice, Quantity: 5, UnitPrice: price("60")},
			{ProductID: f.cement, Quantity: 3, UnitPrice: price("45")},
			{ProductID: id.New(), Quantity: 1, UnitPrice: price("10")},
		},
		Paid: money("100"),
	})
	require.True(t, apperror.IsNotFound(err), "got %v", err)

	assert.Zero(t, f.productStock(t, f.rice))
	assert.Zero(t, f.productStock(t, f.cement))
	rice, _ := f.store.Products().GetByID(ctx, f.rice)
	assert.True(t, rice.Cost.Equal(money("70")))
	assert.True(t, f.debt(t, f.supplier).IsZero())
	assert.True(t, f.cashOnHand(t).IsZero())

	orders, err := f.svc.ListOrders(ctx, order.Filter{})
	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Empty(t, f.store.EventTypes())
}

func TestCreatePurchaseOrder_Rejections(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	line := []order.LineInput{{ProductID: f.rice, Quantity: 2, UnitPrice: price("50")}}

	_, err := f.svc.CreatePurchaseOrder(ctx, order.PurchaseInput{Lines: line, Paid: money("10")})
	assert.True(t, apperror.HasCode(err, apperror.CodeSupplierRequired))

	_, err = f.svc.CreatePurchaseOrder(ctx, order.PurchaseInput{Lines: line, Paid: money("100.01")})
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidAmount))

	_, err = f.svc.CreatePurchaseOrder(ctx, order.PurchaseInput{
		SupplierID: &f.supplier,
		Lines:      []order.LineInput{{ProductID: f.rice, Quantity: 2}},
	})
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidAmount))

	_, err = f.svc.CreatePurchaseOrder(ctx, order.PurchaseInput{SupplierID: &f.supplier, Lines: line, ShippingFee: money("-1")})
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidAmount))

	_, err = f.svc.CreatePurchaseOrder(ctx, order.PurchaseInput{SupplierID: &f.customer, Lines: line})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	assert.Zero(t, f.productStock(t, f.rice))
}

func TestCreatePurchaseOrder_FullyPaidWithoutSupplier(t *testing.T) {
	f := setup(t)

	_, err := f.svc.CreatePurchaseOrder(context.Background(), order.PurchaseInput{
		Lines: []order.LineInput{{ProductID: f.rice, Quantity: 2, UnitPrice: price("50")}},
		Paid:  money("100"),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), f.productStock(t, f.rice))
	assert.True(t, f.cashOnHand(t).Equal(money("-100")))
}

func TestTransitions(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	sale, err := f.svc.CreateSaleOrder(ctx, order.SaleInput{
		CustomerID: &f.customer,
		Lines:      []order.LineInput{{ProductID: f.rice, Quantity: 1}},
	})
	require.NoError(t, err)

	cancelled, err := f.svc.CancelOrder(ctx, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusCancelled, cancelled.Status)

	_, err = f.svc.CompleteSaleOrder(ctx, sale.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidTransition))
	assert.Zero(t, f.productStock(t, f.rice))
	assert.True(t, f.debt(t, f.customer).IsZero())

	purchase, err := f.svc.CreatePurchaseOrder(ctx, order.PurchaseInput{
		Lines: []order.LineInput{{ProductID: f.rice, Quantity: 1, UnitPrice: price("50")}},
		Paid:  money("50"),
	})
	require.NoError(t, err)

	_, err = f.svc.CancelOrder(ctx, purchase.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidTransition))
	_, err = f.svc.ConfirmSaleOrder(ctx, purchase.ID)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidTransition))

	_, err = f.svc.ConfirmSaleOrder(ctx, id.New())
	assert.True(t, apperror.IsNotFound(err))
}

func TestSettleDebt_CollectsFromCustomer(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.store.CorruptDebt(f.customer, "100")

	res, err := f.svc.SettleDebt(ctx, f.customer, cash.KindDebtCollection, money("40"), "trả bớt")
	require.NoError(t, err)
	assert.True(t, res.Debt.Equal(money("60")))
	assert.True(t, f.debt(t, f.customer).Equal(money("60")))

	moves, err := f.store.Cash().List(ctx, cash.MovementFilter{CounterpartyID: &f.customer})
	require.NoError(t, err)
	require.Len(t, moves, 1)
	assert.Equal(t, cash.KindDebtCollection, moves[0].Kind)
	assert.True(t, moves[0].Amount.Equal(money("40")))

	assert.Equal(t, []string{events.CashRecorded, events.DebtSettled}, f.store.EventTypes())
}

func TestSettleDebt_Rejections(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.SettleDebt(ctx, f.supplier, cash.KindDebtCollection, money("10"), "")
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = f.svc.SettleDebt(ctx, f.customer, cash.KindIncome, money("10"), "")
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = f.svc.SettleDebt(ctx, f.customer, cash.KindDebtCollection, money("0"), "")
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidAmount))

	assert.True(t, f.cashOnHand(t).IsZero())
	assert.True(t, f.debt(t, f.supplier).IsZero())
}

func TestRecordCashMovement(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.RecordCashMovement(ctx, cash.KindIncome, money("300"), "bán lẻ")
	require.NoError(t, err)
	_, err = f.svc.RecordCashMovement(ctx, cash.KindExpense, money("45"), "tiền điện")
	require.NoError(t, err)
	assert.True(t, f.cashOnHand(t).Equal(money("255")))

	_, err = f.svc.RecordCashMovement(ctx, cash.KindDebtPayment, money("1"), "")
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestListOrders_Filters(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.CreateSaleOrder(ctx, order.SaleInput{
		CustomerID: &f.customer,
		Lines:      []order.LineInput{{ProductID: f.rice, Quantity: 1}},
	})
	require.NoError(t, err)
	_, err = f.svc.CreatePurchaseOrder(ctx, order.PurchaseInput{
		SupplierID: &f.supplier,
		Lines:      []order.LineInput{{ProductID: f.rice, Quantity: 1, UnitPrice: price("50")}},
	})
	require.NoError(t, err)

	sale := order.TypeSale
	rows, err := f.svc.ListOrders(ctx, order.Filter{Type: &sale})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "SO-2026-00001", rows[0].Code)

	rows, err = f.svc.ListOrders(ctx, order.Filter{CounterpartyID: &f.supplier})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "PO-2026-00001", rows[0].Code)
}
