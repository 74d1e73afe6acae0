// Package main provides a CLI tool for creating the schema and seeding demo data.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5"

	"shopledger/internal/config"
	"shopledger/internal/core/id"
	"shopledger/internal/domain/auth"
	"shopledger/internal/infrastructure/storage/postgres"
	"shopledger/pkg/logger"
)

// Fixed ids keep the seed re-runnable.
var (
	riceID    = id.MustParse("0190a000-0000-7000-8000-000000000001")
	cementID  = id.MustParse("0190a000-0000-7000-8000-000000000002")
	oilID     = id.MustParse("0190a000-0000-7000-8000-000000000003")
	customer  = id.MustParse("0190a000-0000-7000-8000-000000000101")
	supplier  = id.MustParse("0190a000-0000-7000-8000-000000000201")
	promoID   = id.MustParse("0190a000-0000-7000-8000-000000000301")
	entryID   = id.MustParse("0190a000-0000-7000-8000-000000000401")
	seedNote  = "opening balance"
	openStock = int64(100)
)

func main() {
	envFile := flag.String("env", "", "path to .env file")
	schema := flag.String("schema", "", "apply this SQL file before seeding")
	demo := flag.Bool("demo", true, "insert demo catalog data")
	flag.Parse()

	log, err := logger.New(logger.Config{Level: "info", Development: true})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatalw("failed to load config", "error", err)
	}

	ctx := context.Background()

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DB.URL, 2, 1))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	if *schema != "" {
		if err := applySchema(ctx, pool, *schema); err != nil {
			log.Fatalw("failed to apply schema", "file", *schema, "error", err)
		}
		log.Infow("schema applied", "file", *schema)
	}

	if *demo {
		if err := seedDemoData(ctx, pool); err != nil {
			log.Fatalw("failed to seed demo data", "error", err)
		}
		log.Info("demo data seeded")
	}

	if cfg.Auth.Enabled() {
		jwtSvc := auth.NewJWTService(auth.JWTConfig{
			Secret:         cfg.Auth.JWTSecret,
			Issuer:         "shopledger",
			AccessTokenTTL: 30 * 24 * time.Hour,
		})
		token, expires, err := jwtSvc.GenerateAccessToken("dev", "Developer", []string{"cashier", "manager"})
		if err != nil {
			log.Fatalw("failed to sign dev token", "error", err)
		}
		log.Infow("dev token issued", "expires_at", expires)
		fmt.Println(token)
	}

	log.Info("seeding completed successfully")
}

func applySchema(ctx context.Context, pool *postgres.Pool, path string) error {
	sql, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	// Multi-statement scripts need the simple protocol.
	_, err = pool.Exec(ctx, string(sql), pgx.QueryExecModeSimpleProtocol)
	return err
}

func seedDemoData(ctx context.Context, pool *postgres.Pool) error {
	now := time.Now().UTC()
	batch := &pgx.Batch{}

	products := []struct {
		id                 id.ID
		name               string
		cost, price        string
		baseUnit, saleUnit string
		ratio              int64
	}{
		{riceID, "Gạo ST25", "18000", "24000", "kg", "bao", 25},
		{cementID, "Xi măng Hà Tiên", "75000", "90000", "bao", "", 0},
		{oilID, "Dầu ăn Neptune 1L", "38000", "45000", "chai", "thùng", 12},
	}
	for _, p := range products {
		batch.Queue(`
			INSERT INTO products (id, name, cost, price, stock, base_unit, sale_unit, sale_unit_ratio)
			VALUES ($1, $2, $3, $4, 0, $5, $6, $7)
			ON CONFLICT (id) DO NOTHING
		`, p.id, p.name, p.cost, p.price, p.baseUnit, p.saleUnit, p.ratio)

		// Opening stock goes through the ledger so reconciliation agrees with it.
		batch.Queue(`
			WITH moved AS (
				INSERT INTO stock_movements (id, product_id, kind, quantity, note, created_at)
				SELECT $1::uuid, $2::uuid, 'IN', $3::bigint, $4::text, $5::timestamptz
				WHERE NOT EXISTS (SELECT 1 FROM stock_movements WHERE product_id = $2::uuid AND note = $4::text)
				RETURNING quantity
			)
			UPDATE products SET stock = stock + COALESCE((SELECT SUM(quantity) FROM moved), 0)
			WHERE id = $2::uuid
		`, id.New(), p.id, openStock, seedNote, now)
	}

	batch.Queue(`
		INSERT INTO product_price_tiers (product_id, min_quantity, price)
		VALUES ($1, 50, '22000'), ($1, 100, '21000')
		ON CONFLICT DO NOTHING
	`, riceID)

	batch.Queue(`
		INSERT INTO counterparties (id, kind, name, phone, email)
		VALUES ($1, 'customer', 'Tạp hoá Cô Ba', '0901000001', 'coba@example.com'),
		       ($2, 'supplier', 'Công ty Lúa Vàng', '0281000002', NULL)
		ON CONFLICT (id) DO NOTHING
	`, customer, supplier)

	batch.Queue(`
		INSERT INTO wholesale_price_entries (id, customer_id, product_id, price, valid_from, valid_to)
		VALUES ($1, $2, $3, '23000', $4, $5)
		ON CONFLICT (customer_id, product_id) DO NOTHING
	`, entryID, customer, riceID, now.AddDate(0, -1, 0), now.AddDate(0, 6, 0))

	batch.Queue(`
		INSERT INTO promotions (id, name, start_date, end_date, is_active)
		VALUES ($1, 'Khuyến mãi dầu ăn', $2, $3, TRUE)
		ON CONFLICT (id) DO NOTHING
	`, promoID, now.AddDate(0, 0, -1), now.AddDate(0, 1, 0))
	batch.Queue(`
		INSERT INTO promotion_tiers (promotion_id, product_id, min_quantity, price)
		VALUES ($1, $2, 12, '42000')
		ON CONFLICT DO NOTHING
	`, promoID, oilID)

	return pool.SendBatch(ctx, batch).Close()
}
