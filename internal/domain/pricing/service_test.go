package pricing_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/core/types"
	"shopledger/internal/domain/audit"
	"shopledger/internal/domain/catalogs/counterparty"
	"shopledger/internal/domain/catalogs/product"
	"shopledger/internal/domain/events"
	"shopledger/internal/domain/pricing"
	"shopledger/internal/infrastructure/storage/memory"
)

var now = time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)

type fixture struct {
	svc      *pricing.Service
	store    *memory.Store
	product  id.ID
	customer id.ID
	supplier id.ID
}

func setup(t *testing.T) fixture {
	t.Helper()
	store := memory.New()
	f := fixture{store: store, product: id.New(), customer: id.New(), supplier: id.New()}

	store.PutProduct(product.Product{
		ID:            f.product,
		Name:          "Bia lon",
		Price:         types.MustMoney("12"),
		BaseUnit:      "lon",
		SaleUnit:      "thùng",
		SaleUnitRatio: 24,
	})
	store.PutCounterparty(counterparty.Counterparty{ID: f.customer, Kind: counterparty.KindCustomer, Name: "Quán Năm"})
	store.PutCounterparty(counterparty.Counterparty{ID: f.supplier, Kind: counterparty.KindSupplier, Name: "Đại lý"})

	f.svc = pricing.NewService(store.Pricing(), store.Products(), store.Counterparties(), store, store, store).
		WithClock(func() time.Time { return now })
	return f
}

func (f fixture) entry(price string) *pricing.WholesalePriceEntry {
	return &pricing.WholesalePriceEntry{
		CustomerID: f.customer,
		ProductID:  f.product,
		Price:      types.MustMoney(price),
		ValidFrom:  now.AddDate(0, -1, 0),
		ValidTo:    now.AddDate(0, 1, 0),
	}
}

func TestResolvePrice_RetailInSaleUnit(t *testing.T) {
	f := setup(t)

	quote, err := f.svc.ResolvePrice(context.Background(), pricing.Query{ProductID: f.product, Quantity: 2, InSaleUnit: true})
	require.NoError(t, err)

	assert.Equal(t, pricing.SourceRetail, quote.Source)
	assert.Equal(t, "thùng", quote.Unit)
	assert.Equal(t, int64(48), quote.BaseQuantity)
	assert.True(t, quote.UnitPrice.Equal(types.MustMoney("288")))
	assert.True(t, quote.BasePrice.Equal(types.MustMoney("12")))
}

func TestResolvePrice_TiersApplyToBaseQuantity(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.store.PutTiers(f.product, product.PriceTier{MinQuantity: 48, Price: types.MustMoney("10")})
	_, err := f.svc.CreateOrReplacePriceEntry(ctx, f.entry("11"), pricing.ModeCreate)
	require.NoError(t, err)

	quote, err := f.svc.ResolvePrice(ctx, pricing.Query{ProductID: f.product, CustomerID: &f.customer, Quantity: 2, InSaleUnit: true})
	require.NoError(t, err)

	assert.Equal(t, pricing.SourceWholesaleTier, quote.Source)
	assert.True(t, quote.UnitPrice.Equal(types.MustMoney("240")))
}

func TestResolvePrice_PromotionFromStore(t *testing.T) {
	f := setup(t)
	f.store.PutPromotion(pricing.Promotion{
		ID:        id.New(),
		Name:      "Hè",
		StartDate: now.AddDate(0, 0, -1),
		EndDate:   now.AddDate(0, 0, 1),
		IsActive:  true,
		Products: []pricing.PromotionProduct{{
			ProductID: f.product,
			Tiers:     []product.PriceTier{{MinQuantity: 5, Price: types.MustMoney("9")}},
		}},
	})

	quote, err := f.svc.ResolvePrice(context.Background(), pricing.Query{ProductID: f.product, Quantity: 5})
	require.NoError(t, err)
	assert.Equal(t, pricing.SourcePromotion, quote.Source)
	assert.True(t, quote.UnitPrice.Equal(types.MustMoney("9")))
}

func TestResolvePrice_ExpiredEntryIsReported(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	e := f.entry("11")
	e.ValidFrom = now.AddDate(0, -2, 0)
	e.ValidTo = now.AddDate(0, 0, -1)
	_, err := f.svc.CreateOrReplacePriceEntry(ctx, e, pricing.ModeCreate)
	require.NoError(t, err)

	quote, err := f.svc.ResolvePrice(ctx, pricing.Query{ProductID: f.product, CustomerID: &f.customer, Quantity: 1})
	require.NoError(t, err)
	assert.True(t, quote.Expired())
	assert.True(t, quote.UnitPrice.IsZero())
}

func TestResolvePrice_Validation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.ResolvePrice(ctx, pricing.Query{ProductID: f.product, Quantity: 0})
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidAmount))

	_, err = f.svc.ResolvePrice(ctx, pricing.Query{ProductID: id.New(), Quantity: 1})
	assert.True(t, apperror.IsNotFound(err))
}

func TestCreateOrReplacePriceEntry_CreateConflicts(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.svc.CreateOrReplacePriceEntry(ctx, f.entry("11"), pricing.ModeCreate)
	require.NoError(t, err)
	assert.True(t, created)

	_, err = f.svc.CreateOrReplacePriceEntry(ctx, f.entry("10"), pricing.ModeCreate)
	assert.True(t, apperror.IsConflict(err))

	stored, err := f.svc.GetPriceEntry(ctx, f.customer, f.product)
	require.NoError(t, err)
	assert.True(t, stored.Price.Equal(types.MustMoney("11")))
}

func TestCreateOrReplacePriceEntry_ReplaceAudits(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	first := f.entry("11")
	created, err := f.svc.CreateOrReplacePriceEntry(ctx, first, pricing.ModeReplace)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Empty(t, f.store.AuditEntries())

	second := f.entry("10.5")
	created, err = f.svc.CreateOrReplacePriceEntry(ctx, second, pricing.ModeReplace)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	entries, err := f.svc.ListPriceEntries(ctx, f.customer)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Price.Equal(types.MustMoney("10.5")))

	audits := f.store.AuditEntries()
	require.Len(t, audits, 1)
	assert.Equal(t, audit.ActionReplacePrice, audits[0].Action)
	assert.Equal(t, "system", audits[0].UserID)
	assert.Equal(t, []string{events.PriceChanged, events.PriceChanged}, f.store.EventTypes())
}

func TestCreateOrReplacePriceEntry_Rejections(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	bad := f.entry("0")
	_, err := f.svc.CreateOrReplacePriceEntry(ctx, bad, pricing.ModeCreate)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidAmount))

	wrongKind := f.entry("11")
	wrongKind.CustomerID = f.supplier
	_, err = f.svc.CreateOrReplacePriceEntry(ctx, wrongKind, pricing.ModeCreate)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	noProduct := f.entry("11")
	noProduct.ProductID = id.New()
	_, err = f.svc.CreateOrReplacePriceEntry(ctx, noProduct, pricing.ModeCreate)
	assert.True(t, apperror.IsNotFound(err))

	assert.Empty(t, f.store.EventTypes())
}
