package main

import (
	"fmt"
	"time"

	"shopledger/internal/config"
	corenumerator "shopledger/internal/core/numerator"
	"shopledger/internal/domain/documents/order"
	"shopledger/internal/domain/pricing"
	"shopledger/internal/domain/reconciliation"
	"shopledger/internal/domain/registers/cash"
	"shopledger/internal/domain/registers/stock"
	"shopledger/internal/infrastructure/notify"
	"shopledger/internal/infrastructure/numerator"
	"shopledger/internal/infrastructure/storage/postgres"
	"shopledger/internal/infrastructure/storage/postgres/catalog_repo"
	"shopledger/internal/infrastructure/storage/postgres/document_repo"
	"shopledger/internal/infrastructure/storage/postgres/register_repo"
	"shopledger/pkg/logger"
)

type services struct {
	products       *catalog_repo.ProductRepo
	counterparties *catalog_repo.CounterpartyRepo

	pricing        *pricing.Service
	stock          *stock.Service
	cash           *cash.Service
	orders         *order.Service
	reconciliation *reconciliation.Service
}

func buildServices(cfg *config.Config, pool *postgres.Pool, txManager *postgres.TxManager, log *logger.Logger) (*services, error) {
	products := catalog_repo.NewProductRepo(txManager)
	counterparties := catalog_repo.NewCounterpartyRepo(txManager)
	pricingRepo := catalog_repo.NewPricingRepo(txManager)
	stockRepo := register_repo.NewStockRepo(txManager)
	cashRepo := register_repo.NewCashRepo(txManager)
	orderRepo := document_repo.NewOrderRepo(txManager)

	outbox := postgres.NewOutboxPublisher(txManager)
	auditor, err := postgres.NewAuditService(txManager)
	if err != nil {
		return nil, fmt.Errorf("audit service: %w", err)
	}

	// Codes are drawn outside business transactions, straight from the pool.
	codes := numerator.New(pool)
	numberOpts := &corenumerator.Options{
		Strategy:  corenumerator.ParseStrategy(cfg.Numerator.Strategy),
		RangeSize: cfg.Numerator.RangeSize,
	}

	var notifier order.Notifier = order.NopNotifier{}
	if cfg.Mail.Enabled() {
		notifier = notify.NewEmailNotifier(notify.Config{
			BaseURL: cfg.Mail.RelayURL,
			Token:   cfg.Mail.Token,
			From:    cfg.Mail.From,
			Timeout: 5 * time.Second,
		})
		log.Infow("sale notifications enabled", "relay", cfg.Mail.RelayURL)
	}

	s := &services{products: products, counterparties: counterparties}
	s.pricing = pricing.NewService(pricingRepo, products, counterparties, txManager, outbox, auditor)
	s.stock = stock.NewService(stockRepo, products, txManager, outbox)
	s.cash = cash.NewService(cashRepo, counterparties, txManager, outbox)
	s.orders = order.NewService(order.Deps{
		Repo:           orderRepo,
		Products:       products,
		Counterparties: counterparties,
		Pricing:        s.pricing,
		Stock:          s.stock,
		Cash:           s.cash,
		Numerator:      codes,
		NumberOptions:  numberOpts,
		TxManager:      txManager,
		Publisher:      outbox,
		Notifier:       notifier,
	})
	s.reconciliation = reconciliation.NewService(counterparties, products, orderRepo, cashRepo, stockRepo, txManager, outbox, auditor)
	return s, nil
}
