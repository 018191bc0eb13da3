package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/gic/cashtransfer/internal/model"
	"github.com/gic/cashtransfer/internal/service"
)

// LedgerRepository runs wallet balance changes inside a single database
// transaction with row locks on every wallet and sub-wallet it touches.
type LedgerRepository struct {
	pool *pgxpool.Pool
}

func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

func (r *LedgerRepository) RunInTx(ctx context.Context, fn func(tx service.LedgerTx) error) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(&ledgerTx{tx: tx})
	})
}

func (r *LedgerRepository) RecordSettlement(ctx context.Context, s *model.Settlement) error {
	return insertSettlement(ctx, r.pool, s)
}

type ledgerTx struct {
	tx pgx.Tx
}

func (t *ledgerTx) EnsureWallet(ctx context.Context, countryID int64) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO wallets (country_id) VALUES ($1) ON CONFLICT (country_id) DO NOTHING`, countryID)
	return err
}

// LockWallets locks in ascending country id order so concurrent transfers in
// opposite directions cannot deadlock.
func (t *ledgerTx) LockWallets(ctx context.Context, countryIDs ...int64) (map[int64]*model.Wallet, error) {
	rows, err := t.tx.Query(ctx,
		`SELECT id, country_id, balance FROM wallets
		WHERE country_id = ANY($1)
		ORDER BY country_id
		FOR UPDATE`, countryIDs)
	if err != nil {
		return nil, err
	}
	wallets, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*model.Wallet, error) {
		w := &model.Wallet{}
		err := row.Scan(&w.ID, &w.CountryID, &w.Balance)
		return w, err
	})
	if err != nil {
		return nil, err
	}

	out := make(map[int64]*model.Wallet, len(wallets))
	for _, w := range wallets {
		out[w.CountryID] = w
	}
	return out, nil
}

func (t *ledgerTx) LockSubWallet(ctx context.Context, walletID, paymentMethodID int64) (*model.SubWallet, error) {
	return t.lockSubWallet(ctx, walletID, paymentMethodID, true)
}

func (t *ledgerTx) lockSubWallet(ctx context.Context, walletID, paymentMethodID int64, activeOnly bool) (*model.SubWallet, error) {
	sw, err := scanSubWallet(t.tx.QueryRow(ctx,
		`SELECT `+subWalletColumns+`
		FROM sub_wallets sw
		JOIN country_payment_methods cpm ON cpm.id = sw.country_payment_method_id
		WHERE sw.wallet_id = $1 AND cpm.payment_method_id = $2 AND (sw.active OR NOT $3)
		FOR UPDATE OF sw`, walletID, paymentMethodID, activeOnly))
	if err != nil {
		return nil, notFound(err)
	}
	return &sw, nil
}

func (t *ledgerTx) EnsureSubWallet(ctx context.Context, wallet *model.Wallet, paymentMethodID int64) (*model.SubWallet, error) {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO country_payment_methods (country_id, payment_method_id)
		VALUES ($1, $2)
		ON CONFLICT (country_id, payment_method_id) DO NOTHING`, wallet.CountryID, paymentMethodID)
	if err != nil {
		return nil, fmt.Errorf("ensure country payment method: %w", err)
	}

	_, err = t.tx.Exec(ctx,
		`INSERT INTO sub_wallets (wallet_id, country_payment_method_id)
		SELECT $1, id FROM country_payment_methods WHERE country_id = $2 AND payment_method_id = $3
		ON CONFLICT (wallet_id, country_payment_method_id) DO NOTHING`,
		wallet.ID, wallet.CountryID, paymentMethodID)
	if err != nil {
		return nil, fmt.Errorf("ensure sub-wallet: %w", err)
	}

	return t.lockSubWallet(ctx, wallet.ID, paymentMethodID, false)
}

// Debit never takes a sub-wallet below zero even if the caller's balance
// check used a stale read.
func (t *ledgerTx) Debit(ctx context.Context, sw *model.SubWallet, amount decimal.Decimal) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE sub_wallets SET balance = balance - $2, updated_at = NOW()
		WHERE id = $1 AND balance >= $2`, sw.ID, amount)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: sub-wallet %d", service.ErrInsufficientBalance, sw.ID)
	}
	return t.adjustWallet(ctx, sw.WalletID, amount.Neg())
}

func (t *ledgerTx) Credit(ctx context.Context, sw *model.SubWallet, amount decimal.Decimal) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE sub_wallets SET balance = balance + $2, updated_at = NOW() WHERE id = $1`, sw.ID, amount)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("sub-wallet %d: %w", sw.ID, model.ErrNotFound)
	}
	return t.adjustWallet(ctx, sw.WalletID, amount)
}

func (t *ledgerTx) adjustWallet(ctx context.Context, walletID int64, delta decimal.Decimal) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE wallets SET balance = balance + $2, updated_at = NOW() WHERE id = $1`, walletID, delta)
	if err != nil {
		return fmt.Errorf("update wallet %d aggregate: %w", walletID, err)
	}
	return nil
}

func (t *ledgerTx) InsertSettlement(ctx context.Context, s *model.Settlement) error {
	return insertSettlement(ctx, t.tx, s)
}
