package catalog_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/core/types"
	"shopledger/internal/domain/catalogs/product"
	"shopledger/internal/domain/pricing"
	"shopledger/internal/infrastructure/storage/postgres"
)

var entryColumns = postgres.ExtractDBColumns[pricing.WholesalePriceEntry]()

// PricingRepo implements pricing.Repository.
type PricingRepo struct {
	baseRepo
}

var _ pricing.Repository = (*PricingRepo)(nil)

// NewPricingRepo creates a new pricing repository.
func NewPricingRepo(txManager *postgres.TxManager) *PricingRepo {
	return &PricingRepo{baseRepo: newBaseRepo(txManager)}
}

// GetEntry returns the wholesale entry for a customer and product.
func (r *PricingRepo) GetEntry(ctx context.Context, customerID, productID id.ID) (*pricing.WholesalePriceEntry, error) {
	sql, args, err := r.builder.Select(entryColumns...).
		From(priceEntriesTable).
		Where(squirrel.Eq{"customer_id": customerID, "product_id": productID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var e pricing.WholesalePriceEntry
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &e, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("wholesale_price_entry", customerID.String()+"/"+productID.String())
		}
		return nil, fmt.Errorf("get entry: %w", postgres.MapError(err))
	}
	return &e, nil
}

// ListEntries returns all entries of a customer.
func (r *PricingRepo) ListEntries(ctx context.Context, customerID id.ID) ([]pricing.WholesalePriceEntry, error) {
	sql, args, err := r.builder.Select(entryColumns...).
		From(priceEntriesTable).
		Where(squirrel.Eq{"customer_id": customerID}).
		OrderBy("created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var out []pricing.WholesalePriceEntry
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("select entries: %w", err)
	}
	return out, nil
}

func prepareEntry(entry *pricing.WholesalePriceEntry) {
	if id.IsNil(entry.ID) {
		entry.ID = id.New()
	}
	now := time.Now().UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now
}

// CreateEntry inserts an entry. A duplicate pair is reported as Conflict by MapError.
func (r *PricingRepo) CreateEntry(ctx context.Context, entry *pricing.WholesalePriceEntry) error {
	prepareEntry(entry)

	sql, args, err := r.builder.Insert(priceEntriesTable).
		SetMap(postgres.StructToMap(entry)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert entry: %w", postgres.MapError(err))
	}
	return nil
}

func (r *PricingRepo) upsertQuery(entry *pricing.WholesalePriceEntry) squirrel.InsertBuilder {
	return r.builder.Insert(priceEntriesTable).
		SetMap(postgres.StructToMap(entry)).
		Suffix(`ON CONFLICT (customer_id, product_id) DO UPDATE SET
			price = EXCLUDED.price,
			valid_from = EXCLUDED.valid_from,
			valid_to = EXCLUDED.valid_to,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at, (xmax = 0) AS created`)
}

// UpsertEntry inserts or overwrites the pair's entry. The existing row keeps its id.
func (r *PricingRepo) UpsertEntry(ctx context.Context, entry *pricing.WholesalePriceEntry) (bool, error) {
	prepareEntry(entry)

	sql, args, err := r.upsertQuery(entry).ToSql()
	if err != nil {
		return false, fmt.Errorf("build upsert: %w", err)
	}

	var created bool
	err = r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&entry.ID, &entry.CreatedAt, &created)
	if err != nil {
		return false, fmt.Errorf("upsert entry: %w", postgres.MapError(err))
	}
	return created, nil
}

type promotionTierRow struct {
	ID          id.ID       `db:"id"`
	Name        string      `db:"name"`
	StartDate   time.Time   `db:"start_date"`
	EndDate     time.Time   `db:"end_date"`
	IsActive    bool        `db:"is_active"`
	MinQuantity int64       `db:"min_quantity"`
	Price       types.Money `db:"price"`
}

func (r *PricingRepo) runningPromotionsQuery(productID id.ID, now time.Time) squirrel.SelectBuilder {
	return r.builder.Select(
		"p.id", "p.name", "p.start_date", "p.end_date", "p.is_active",
		"t.min_quantity", "t.price",
	).
		From(promotionsTable + " p").
		Join(promotionTiersTable + " t ON t.promotion_id = p.id").
		Where(squirrel.Eq{"t.product_id": productID, "p.is_active": true}).
		Where(squirrel.LtOrEq{"p.start_date": now}).
		Where(squirrel.GtOrEq{"p.end_date": now}).
		OrderBy("p.start_date", "p.id", "t.min_quantity")
}

// ListRunningPromotions returns promotions running at now that cover productID.
func (r *PricingRepo) ListRunningPromotions(ctx context.Context, productID id.ID, now time.Time) ([]pricing.Promotion, error) {
	sql, args, err := r.runningPromotionsQuery(productID, now).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []promotionTierRow
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("select promotions: %w", err)
	}

	var out []pricing.Promotion
	index := make(map[id.ID]int)
	for _, row := range rows {
		i, ok := index[row.ID]
		if !ok {
			i = len(out)
			index[row.ID] = i
			out = append(out, pricing.Promotion{
				ID:        row.ID,
				Name:      row.Name,
				StartDate: row.StartDate,
				EndDate:   row.EndDate,
				IsActive:  row.IsActive,
				Products:  []pricing.PromotionProduct{{ProductID: productID}},
			})
		}
		pp := &out[i].Products[0]
		pp.Tiers = append(pp.Tiers, product.PriceTier{MinQuantity: row.MinQuantity, Price: row.Price})
	}
	return out, nil
}
