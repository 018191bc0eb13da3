package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gic/cashtransfer/internal/model"
)

type SettlementRepository struct {
	pool *pgxpool.Pool
}

func NewSettlementRepository(pool *pgxpool.Pool) *SettlementRepository {
	return &SettlementRepository{pool: pool}
}

const settlementColumns = `id::text, sender_country_id, receiver_country_id, payment_method_id,
	amount, status, quote, note, created_at`

func insertSettlement(ctx context.Context, q querier, s *model.Settlement) error {
	note, err := model.MarshalNote(s.Note)
	if err != nil {
		return err
	}
	_, err = q.Exec(ctx,
		`INSERT INTO settlements (id, sender_country_id, receiver_country_id, payment_method_id, amount, status, quote, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		s.ID, s.SenderCountryID, s.ReceiverCountryID, s.PaymentMethodID,
		s.Amount, s.Status, []byte(s.Quote), note, s.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert settlement %s: %w", s.ID, err)
	}
	return nil
}

func scanSettlement(row pgx.Row) (model.Settlement, error) {
	var (
		s           model.Settlement
		quote, note []byte
	)
	err := row.Scan(&s.ID, &s.SenderCountryID, &s.ReceiverCountryID, &s.PaymentMethodID,
		&s.Amount, &s.Status, &quote, &note, &s.CreatedAt)
	if err != nil {
		return s, err
	}
	if len(quote) > 0 {
		s.Quote = quote
	}
	s.Note, err = model.UnmarshalNote(note)
	return s, err
}

func (r *SettlementRepository) FindByID(ctx context.Context, id string) (*model.Settlement, error) {
	s, err := scanSettlement(r.pool.QueryRow(ctx,
		`SELECT `+settlementColumns+` FROM settlements WHERE id::text = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

// List returns settlements newest first, optionally filtered by status, plus
// the total count for the filter.
func (r *SettlementRepository) List(ctx context.Context, status model.SettlementStatus, limit, offset int) ([]model.Settlement, int, error) {
	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM settlements WHERE ($1 = '' OR status = $1)`, string(status)).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count settlements: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+settlementColumns+` FROM settlements
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3`, string(status), limit, offset)
	if err != nil {
		return nil, 0, err
	}
	settlements, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Settlement, error) {
		return scanSettlement(row)
	})
	if err != nil {
		return nil, 0, err
	}
	return settlements, total, nil
}
