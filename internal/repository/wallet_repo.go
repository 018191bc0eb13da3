package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gic/cashtransfer/internal/model"
)

type WalletRepository struct {
	pool *pgxpool.Pool
}

func NewWalletRepository(pool *pgxpool.Pool) *WalletRepository {
	return &WalletRepository{pool: pool}
}

const subWalletColumns = `sw.id, sw.wallet_id, sw.country_payment_method_id, cpm.payment_method_id, sw.balance, sw.active`

func scanSubWallet(row pgx.Row) (model.SubWallet, error) {
	var sw model.SubWallet
	err := row.Scan(&sw.ID, &sw.WalletID, &sw.CountryPaymentMethodID, &sw.PaymentMethodID, &sw.Balance, &sw.Active)
	return sw, err
}

// FindWithSubWallets loads a country's wallet with all of its sub-wallets.
// Returns model.ErrNotFound when the country has no wallet.
func (r *WalletRepository) FindWithSubWallets(ctx context.Context, countryID int64) (*model.Wallet, error) {
	w := &model.Wallet{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, country_id, balance FROM wallets WHERE country_id = $1`, countryID).
		Scan(&w.ID, &w.CountryID, &w.Balance)
	if err != nil {
		return nil, notFound(err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+subWalletColumns+`
		FROM sub_wallets sw
		JOIN country_payment_methods cpm ON cpm.id = sw.country_payment_method_id
		WHERE sw.wallet_id = $1
		ORDER BY sw.id`, w.ID)
	if err != nil {
		return nil, fmt.Errorf("query sub-wallets: %w", err)
	}
	w.SubWallets, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.SubWallet, error) {
		return scanSubWallet(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan sub-wallets: %w", err)
	}
	return w, nil
}
