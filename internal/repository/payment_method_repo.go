package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gic/cashtransfer/internal/model"
)

type PaymentMethodRepository struct {
	pool *pgxpool.Pool
}

func NewPaymentMethodRepository(pool *pgxpool.Pool) *PaymentMethodRepository {
	return &PaymentMethodRepository{pool: pool}
}

func (r *PaymentMethodRepository) FindByID(ctx context.Context, id int64) (*model.PaymentMethod, error) {
	pm := &model.PaymentMethod{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, type, active FROM payment_methods WHERE id = $1`, id).
		Scan(&pm.ID, &pm.Name, &pm.Type, &pm.Active)
	if err != nil {
		return nil, notFound(err)
	}
	return pm, nil
}

func (r *PaymentMethodRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM payment_methods WHERE id = $1)`, id).Scan(&exists)
	return exists, err
}

func (r *PaymentMethodRepository) ActiveCountryMethods(ctx context.Context, countryID int64) ([]model.CountryPaymentMethod, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT cpm.id, cpm.country_id, cpm.payment_method_id, cpm.min_amount, cpm.max_amount, cpm.active,
			pm.id, pm.name, pm.type, pm.active,
			c.id, c.code, c.name, c.currency_code, c.active
		FROM country_payment_methods cpm
		JOIN payment_methods pm ON pm.id = cpm.payment_method_id
		JOIN countries c ON c.id = cpm.country_id
		WHERE cpm.country_id = $1 AND cpm.active AND pm.active
		ORDER BY cpm.id`, countryID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.CountryPaymentMethod, error) {
		var m model.CountryPaymentMethod
		err := row.Scan(
			&m.ID, &m.CountryID, &m.PaymentMethodID, &m.MinAmount, &m.MaxAmount, &m.Active,
			&m.PaymentMethod.ID, &m.PaymentMethod.Name, &m.PaymentMethod.Type, &m.PaymentMethod.Active,
			&m.Country.ID, &m.Country.Code, &m.Country.Name, &m.Country.CurrencyCode, &m.Country.Active,
		)
		return m, err
	})
}
