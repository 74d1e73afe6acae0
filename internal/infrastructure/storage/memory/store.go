// Package memory is an in-process implementation of every storage port.
// A transaction holds the store lock for its whole duration and is rolled back
// by replaying an undo journal, so it keeps the all-or-nothing and no-lost-update
// behaviour of the PostgreSQL store. Used by tests.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"shopledger/internal/core/id"
	"shopledger/internal/core/tx"
	"shopledger/internal/domain/audit"
	"shopledger/internal/domain/catalogs/counterparty"
	"shopledger/internal/domain/catalogs/product"
	"shopledger/internal/domain/documents/order"
	"shopledger/internal/domain/events"
	"shopledger/internal/domain/pricing"
	"shopledger/internal/domain/registers/cash"
	"shopledger/internal/domain/registers/stock"
)

type pairKey struct {
	customerID id.ID
	productID  id.ID
}

// Store holds all tables in memory.
type Store struct {
	mu sync.Mutex

	products       map[id.ID]product.Product
	tiers          map[id.ID][]product.PriceTier
	counterparties map[id.ID]counterparty.Counterparty
	entries        map[pairKey]pricing.WholesalePriceEntry
	promotions     []pricing.Promotion
	orders         map[id.ID]order.Order
	items          map[id.ID][]order.Item
	stockMoves     []stock.Movement
	cashMoves      []cash.Movement
	events         []events.Event
	audits         []audit.Entry

	now func() time.Time
}

// New creates an empty store.
func New() *Store {
	return &Store{
		products:       make(map[id.ID]product.Product),
		tiers:          make(map[id.ID][]product.PriceTier),
		counterparties: make(map[id.ID]counterparty.Counterparty),
		entries:        make(map[pairKey]pricing.WholesalePriceEntry),
		orders:         make(map[id.ID]order.Order),
		items:          make(map[id.ID][]order.Item),
		now:            time.Now,
	}
}

type txKey struct{}

type txState struct {
	store *Store
	undo  []func()
}

// RunInTransaction implements tx.Manager.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if st := s.txFrom(ctx); st != nil {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st := &txState{store: s}
	txCtx := context.WithValue(ctx, txKey{}, st)

	defer func() {
		if p := recover(); p != nil {
			st.rollback()
			panic(p)
		}
		if err != nil {
			st.rollback()
		}
	}()

	return fn(txCtx)
}

func (st *txState) rollback() {
	for i := len(st.undo) - 1; i >= 0; i-- {
		st.undo[i]()
	}
	st.undo = nil
}

func (s *Store) txFrom(ctx context.Context) *txState {
	st, ok := ctx.Value(txKey{}).(*txState)
	if !ok || st.store != s {
		return nil
	}
	return st
}

// enter takes the store lock unless ctx already runs inside one of this store's
// transactions. The returned journal is nil outside a transaction.
func (s *Store) enter(ctx context.Context) (*txState, func()) {
	if st := s.txFrom(ctx); st != nil {
		return st, func() {}
	}
	s.mu.Lock()
	return nil, s.mu.Unlock
}

func (st *txState) onRollback(fn func()) {
	if st != nil {
		st.undo = append(st.undo, fn)
	}
}

// --- Seeding helpers ---

// PutProduct inserts or overwrites a product.
func (s *Store) PutProduct(p product.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now().UTC()
		p.UpdatedAt = p.CreatedAt
	}
	s.products[p.ID] = p
}

// PutTiers sets a product's quantity tiers.
func (s *Store) PutTiers(productID id.ID, tiers ...product.PriceTier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sorted := append([]product.PriceTier(nil), tiers...)
	product.SortTiers(sorted)
	s.tiers[productID] = sorted
}

// PutCounterparty inserts or overwrites a counterparty.
func (s *Store) PutCounterparty(c counterparty.Counterparty) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = s.now().UTC()
		c.UpdatedAt = c.CreatedAt
	}
	s.counterparties[c.ID] = c
}

// PutPromotion adds a promotion.
func (s *Store) PutPromotion(p pricing.Promotion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.promotions = append(s.promotions, p)
}

// CorruptStock overwrites a cached stock without a movement.
func (s *Store) CorruptStock(productID id.ID, stockLevel int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.products[productID]
	p.Stock = stockLevel
	s.products[productID] = p
}

// CorruptDebt overwrites a cached debt without a movement.
func (s *Store) CorruptDebt(counterpartyID id.ID, debt string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.counterparties[counterpartyID]
	c.Debt = mustMoney(debt)
	s.counterparties[counterpartyID] = c
}

// --- Collectors ---

// Publish implements events.Publisher. Events written inside a rolled back
// transaction are discarded with it.
func (s *Store) Publish(ctx context.Context, event events.Event) error {
	st, unlock := s.enter(ctx)
	defer unlock()

	s.events = append(s.events, event)
	n := len(s.events) - 1
	st.onRollback(func() { s.events = s.events[:n] })
	return nil
}

// Events returns the published events.
func (s *Store) Events() []events.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]events.Event(nil), s.events...)
}

// EventTypes returns the types of published events in order.
func (s *Store) EventTypes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.events))
	for i, e := range s.events {
		out[i] = e.Type
	}
	return out
}

// Record implements audit.Recorder.
func (s *Store) Record(ctx context.Context, entry audit.Entry) error {
	st, unlock := s.enter(ctx)
	defer unlock()

	s.audits = append(s.audits, entry)
	n := len(s.audits) - 1
	st.onRollback(func() { s.audits = s.audits[:n] })
	return nil
}

// AuditEntries returns recorded audit entries.
func (s *Store) AuditEntries() []audit.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]audit.Entry(nil), s.audits...)
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("memory.Store{products: %d, counterparties: %d, orders: %d}",
		len(s.products), len(s.counterparties), len(s.orders))
}

var (
	_ tx.Manager       = (*Store)(nil)
	_ events.Publisher = (*Store)(nil)
	_ audit.Recorder   = (*Store)(nil)
)
