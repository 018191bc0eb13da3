package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gic/cashtransfer/internal/model"
)

type CountryRepository struct {
	pool *pgxpool.Pool
}

func NewCountryRepository(pool *pgxpool.Pool) *CountryRepository {
	return &CountryRepository{pool: pool}
}

func (r *CountryRepository) FindByID(ctx context.Context, id int64) (*model.Country, error) {
	c := &model.Country{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, code, name, currency_code, active FROM countries WHERE id = $1`, id).
		Scan(&c.ID, &c.Code, &c.Name, &c.CurrencyCode, &c.Active)
	if err != nil {
		return nil, notFound(err)
	}
	return c, nil
}

func (r *CountryRepository) List(ctx context.Context) ([]model.Country, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, code, name, currency_code, active FROM countries ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Country, error) {
		var c model.Country
		err := row.Scan(&c.ID, &c.Code, &c.Name, &c.CurrencyCode, &c.Active)
		return c, err
	})
}
