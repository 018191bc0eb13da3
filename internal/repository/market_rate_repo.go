package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/gic/cashtransfer/internal/model"
)

type MarketRateRepository struct {
	pool *pgxpool.Pool
}

func NewMarketRateRepository(pool *pgxpool.Pool) *MarketRateRepository {
	return &MarketRateRepository{pool: pool}
}

// Find returns the stored rate for a currency pair. Returns
// model.ErrNotFound when the pair is not quoted.
func (r *MarketRateRepository) Find(ctx context.Context, from, to string) (*model.MarketRate, error) {
	mr := &model.MarketRate{}
	err := r.pool.QueryRow(ctx,
		`SELECT from_currency, to_currency, rate, updated_at FROM market_rates
		WHERE from_currency = $1 AND to_currency = $2`,
		strings.ToUpper(from), strings.ToUpper(to)).
		Scan(&mr.FromCurrency, &mr.ToCurrency, &mr.Rate, &mr.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return mr, nil
}

func (r *MarketRateRepository) List(ctx context.Context) ([]model.MarketRate, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT from_currency, to_currency, rate, updated_at FROM market_rates ORDER BY from_currency, to_currency`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.MarketRate, error) {
		var mr model.MarketRate
		err := row.Scan(&mr.FromCurrency, &mr.ToCurrency, &mr.Rate, &mr.UpdatedAt)
		return mr, err
	})
}

// Upsert writes all rates in one batch and transaction.
func (r *MarketRateRepository) Upsert(ctx context.Context, rates []model.MarketRate) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin market rate transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, mr := range rates {
		if !mr.Rate.GreaterThan(decimal.Zero) {
			return fmt.Errorf("rate for %s/%s must be positive", mr.FromCurrency, mr.ToCurrency)
		}
		batch.Queue(
			`INSERT INTO market_rates (from_currency, to_currency, rate, updated_at)
			VALUES ($1, $2, $3, NOW())
			ON CONFLICT (from_currency, to_currency) DO UPDATE SET rate = EXCLUDED.rate, updated_at = NOW()`,
			strings.ToUpper(mr.FromCurrency), strings.ToUpper(mr.ToCurrency), mr.Rate,
		)
	}

	br := tx.SendBatch(ctx, batch)
	for i := range rates {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("upsert market rate %d: %w", i, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}

	return tx.Commit(ctx)
}
