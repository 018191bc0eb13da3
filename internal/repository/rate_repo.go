package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gic/cashtransfer/internal/model"
)

type RateRepository struct {
	pool *pgxpool.Pool
}

func NewRateRepository(pool *pgxpool.Pool) *RateRepository {
	return &RateRepository{pool: pool}
}

const rateColumns = `id, scope, country_id, sender_country_id, receiver_country_id,
	base_fee, percentage_fee, min_amount, max_amount, exchange_rate_margin,
	active, is_default, priority, created_at, updated_at`

func scanRate(row pgx.Row) (model.TransferRate, error) {
	var (
		rate                            model.TransferRate
		countryID, senderID, receiverID *int64
	)
	err := row.Scan(
		&rate.ID, &rate.Scope.Kind, &countryID, &senderID, &receiverID,
		&rate.BaseFee, &rate.PercentageFee, &rate.MinAmount, &rate.MaxAmount, &rate.ExchangeRateMargin,
		&rate.Active, &rate.IsDefault, &rate.Priority, &rate.CreatedAt, &rate.UpdatedAt,
	)
	if err != nil {
		return rate, err
	}
	if countryID != nil {
		rate.Scope.CountryID = *countryID
	}
	if senderID != nil {
		rate.Scope.SenderCountryID = *senderID
	}
	if receiverID != nil {
		rate.Scope.ReceiverCountryID = *receiverID
	}
	return rate, nil
}

func collectRates(rows pgx.Rows) ([]model.TransferRate, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.TransferRate, error) {
		return scanRate(row)
	})
}

// scopeArgs maps a scope onto the nullable id columns.
func scopeArgs(s model.RateScope) (countryID, senderID, receiverID *int64) {
	switch s.Kind {
	case model.ScopeCountry:
		countryID = &s.CountryID
	case model.ScopeCorridor:
		senderID, receiverID = &s.SenderCountryID, &s.ReceiverCountryID
	}
	return
}

func (r *RateRepository) ActiveGlobal(ctx context.Context) ([]model.TransferRate, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+rateColumns+` FROM transfer_rates WHERE scope = 'global' AND active`)
	if err != nil {
		return nil, err
	}
	return collectRates(rows)
}

func (r *RateRepository) ActiveCountry(ctx context.Context, countryID int64) ([]model.TransferRate, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+rateColumns+` FROM transfer_rates WHERE scope = 'country' AND country_id = $1 AND active`,
		countryID)
	if err != nil {
		return nil, err
	}
	return collectRates(rows)
}

func (r *RateRepository) ActiveCorridor(ctx context.Context, senderCountryID, receiverCountryID int64) ([]model.TransferRate, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+rateColumns+` FROM transfer_rates
		WHERE scope = 'corridor' AND sender_country_id = $1 AND receiver_country_id = $2 AND active`,
		senderCountryID, receiverCountryID)
	if err != nil {
		return nil, err
	}
	return collectRates(rows)
}

func (r *RateRepository) FindByID(ctx context.Context, id int64) (*model.TransferRate, error) {
	rate, err := scanRate(r.pool.QueryRow(ctx,
		`SELECT `+rateColumns+` FROM transfer_rates WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return &rate, nil
}

// List pages through rates, optionally restricted to one scope kind, and
// returns the total count for the filter.
func (r *RateRepository) List(ctx context.Context, kind model.ScopeKind, limit, offset int) ([]model.TransferRate, int, error) {
	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM transfer_rates WHERE ($1 = '' OR scope = $1)`, string(kind)).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count transfer rates: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+rateColumns+` FROM transfer_rates
		WHERE ($1 = '' OR scope = $1)
		ORDER BY id
		LIMIT $2 OFFSET $3`, string(kind), limit, offset)
	if err != nil {
		return nil, 0, err
	}
	rates, err := collectRates(rows)
	if err != nil {
		return nil, 0, err
	}
	return rates, total, nil
}

// Create inserts rate. A new global default demotes the previous one in the
// same transaction so at most one default exists.
func (r *RateRepository) Create(ctx context.Context, rate *model.TransferRate) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := demoteDefaults(ctx, tx, rate); err != nil {
			return err
		}
		countryID, senderID, receiverID := scopeArgs(rate.Scope)
		return tx.QueryRow(ctx,
			`INSERT INTO transfer_rates (scope, country_id, sender_country_id, receiver_country_id,
				base_fee, percentage_fee, min_amount, max_amount, exchange_rate_margin, active, is_default, priority)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING id, created_at, updated_at`,
			rate.Scope.Kind, countryID, senderID, receiverID,
			rate.BaseFee, rate.PercentageFee, rate.MinAmount, rate.MaxAmount, rate.ExchangeRateMargin,
			rate.Active, rate.IsDefault, rate.Priority,
		).Scan(&rate.ID, &rate.CreatedAt, &rate.UpdatedAt)
	})
}

func (r *RateRepository) Update(ctx context.Context, rate *model.TransferRate) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := demoteDefaults(ctx, tx, rate); err != nil {
			return err
		}
		countryID, senderID, receiverID := scopeArgs(rate.Scope)
		err := tx.QueryRow(ctx,
			`UPDATE transfer_rates SET scope = $2, country_id = $3, sender_country_id = $4, receiver_country_id = $5,
				base_fee = $6, percentage_fee = $7, min_amount = $8, max_amount = $9, exchange_rate_margin = $10,
				active = $11, is_default = $12, priority = $13, updated_at = NOW()
			WHERE id = $1
			RETURNING created_at, updated_at`,
			rate.ID, rate.Scope.Kind, countryID, senderID, receiverID,
			rate.BaseFee, rate.PercentageFee, rate.MinAmount, rate.MaxAmount, rate.ExchangeRateMargin,
			rate.Active, rate.IsDefault, rate.Priority,
		).Scan(&rate.CreatedAt, &rate.UpdatedAt)
		return notFound(err)
	})
}

func (r *RateRepository) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE transfer_rates SET active = $2, updated_at = NOW() WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}
	return nil
}

func demoteDefaults(ctx context.Context, tx pgx.Tx, rate *model.TransferRate) error {
	if !rate.IsDefault {
		return nil
	}
	_, err := tx.Exec(ctx,
		`UPDATE transfer_rates SET is_default = FALSE, updated_at = NOW()
		WHERE scope = 'global' AND is_default AND id <> $1`, rate.ID)
	if err != nil {
		return fmt.Errorf("demote previous default: %w", err)
	}
	return nil
}
