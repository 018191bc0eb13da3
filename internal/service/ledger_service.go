package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/gic/cashtransfer/internal/model"
)

// LedgerTx is the set of balance operations available inside one atomic
// ledger transaction.
type LedgerTx interface {
	// EnsureWallet creates the country's wallet when it has none.
	EnsureWallet(ctx context.Context, countryID int64) error
	// LockWallets row-locks the wallets of the given countries in ascending
	// country id order and returns them keyed by country id.
	LockWallets(ctx context.Context, countryIDs ...int64) (map[int64]*model.Wallet, error)
	// LockSubWallet row-locks the active sub-wallet of wallet for a payment
	// method. Returns model.ErrNotFound when there is none.
	LockSubWallet(ctx context.Context, walletID, paymentMethodID int64) (*model.SubWallet, error)
	// EnsureSubWallet creates the CountryPaymentMethod and SubWallet pair when
	// absent and row-locks the sub-wallet.
	EnsureSubWallet(ctx context.Context, wallet *model.Wallet, paymentMethodID int64) (*model.SubWallet, error)
	// Debit lowers a sub-wallet and its wallet aggregate. It fails with
	// ErrInsufficientBalance instead of going below zero.
	Debit(ctx context.Context, sw *model.SubWallet, amount decimal.Decimal) error
	Credit(ctx context.Context, sw *model.SubWallet, amount decimal.Decimal) error
	InsertSettlement(ctx context.Context, s *model.Settlement) error
}

type LedgerStore interface {
	// RunInTx commits when fn returns nil and rolls everything back otherwise.
	RunInTx(ctx context.Context, fn func(tx LedgerTx) error) error
	// RecordSettlement stores a settlement outside any ledger transaction.
	RecordSettlement(ctx context.Context, s *model.Settlement) error
}

type SettlementPublisher interface {
	PublishSettlement(ctx context.Context, s *model.Settlement) error
}

// Quoter prices a transfer. *QuoteService implements it.
type Quoter interface {
	Quote(ctx context.Context, req QuoteRequest) (*Breakdown, error)
}

type SettleRequest struct {
	SenderCountryID   int64
	ReceiverCountryID int64
	PaymentMethodID   int64
	Amount            decimal.Decimal
	// Quote is the breakdown the client was shown. It must still match the
	// current pricing of the transfer.
	Quote *Breakdown
}

type LedgerService struct {
	store     LedgerStore
	countries CountryReader
	settings  SettingsReader
	quotes    Quoter
	publisher SettlementPublisher
	now       func() time.Time
}

// NewLedgerService builds the settlement engine. When quotes is nil no
// breakdown is computed and a client quote is only checked against the
// request itself.
func NewLedgerService(store LedgerStore, countries CountryReader, settings SettingsReader, quotes Quoter, publisher SettlementPublisher) *LedgerService {
	return &LedgerService{
		store:     store,
		countries: countries,
		settings:  settings,
		quotes:    quotes,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Ledger steps, recorded on failures.
const (
	stepPrepare = "prepare"
	stepDebit   = "debit"
	stepCredit  = "credit"
	stepRecord  = "record"
)

// SettleTransfer pays amount out of the receiver country's sub-wallet for the
// payment method and replenishes the sender country's sub-wallet for the same
// method. Both sides and the wallet aggregates change in one transaction.
func (s *LedgerService) SettleTransfer(ctx context.Context, req SettleRequest) (*model.Settlement, error) {
	sender, receiver, err := s.validate(ctx, req)
	if err != nil {
		return nil, err
	}

	enabled, err := s.settings.Bool(ctx, SettingTransfersEnabled, true)
	if err != nil {
		return nil, fmt.Errorf("read transfers switch: %w", err)
	}
	if !enabled {
		return nil, ErrTransfersDisabled
	}

	breakdown, err := s.price(ctx, req, sender, receiver)
	if err != nil {
		return nil, err
	}
	var quote json.RawMessage
	if breakdown != nil {
		quote, err = json.Marshal(breakdown)
		if err != nil {
			return nil, fmt.Errorf("encode quote: %w", err)
		}
	}

	settlement := &model.Settlement{
		ID:                uuid.NewString(),
		SenderCountryID:   req.SenderCountryID,
		ReceiverCountryID: req.ReceiverCountryID,
		PaymentMethodID:   req.PaymentMethodID,
		Amount:            req.Amount,
		Status:            model.SettlementPending,
		Quote:             quote,
	}

	step := stepPrepare
	err = s.store.RunInTx(ctx, func(tx LedgerTx) error {
		step = stepPrepare
		if err := tx.EnsureWallet(ctx, req.SenderCountryID); err != nil {
			return fmt.Errorf("ensure sender wallet: %w", err)
		}
		wallets, err := tx.LockWallets(ctx, req.SenderCountryID, req.ReceiverCountryID)
		if err != nil {
			return fmt.Errorf("lock wallets: %w", err)
		}
		receiverWallet, ok := wallets[req.ReceiverCountryID]
		if !ok {
			return fmt.Errorf("receiver wallet: %w", model.ErrNotFound)
		}
		senderWallet, ok := wallets[req.SenderCountryID]
		if !ok {
			return fmt.Errorf("sender wallet: %w", model.ErrNotFound)
		}

		step = stepDebit
		payout, err := tx.LockSubWallet(ctx, receiverWallet.ID, req.PaymentMethodID)
		if err != nil {
			return fmt.Errorf("receiver sub-wallet: %w", err)
		}
		if payout.Balance.LessThan(req.Amount) {
			return fmt.Errorf("%w: sub-wallet %d holds %s, needs %s", ErrInsufficientBalance, payout.ID, payout.Balance, req.Amount)
		}
		if err := tx.Debit(ctx, payout, req.Amount); err != nil {
			return fmt.Errorf("debit receiver sub-wallet: %w", err)
		}

		step = stepCredit
		float, err := tx.EnsureSubWallet(ctx, senderWallet, req.PaymentMethodID)
		if err != nil {
			return fmt.Errorf("sender sub-wallet: %w", err)
		}
		if err := tx.Credit(ctx, float, req.Amount); err != nil {
			return fmt.Errorf("credit sender sub-wallet: %w", err)
		}

		step = stepRecord
		settlement.Status = model.SettlementCompleted
		settlement.CreatedAt = s.now()
		settlement.Note = model.TransferCompleted{Reference: settlement.ID, CompletedAt: settlement.CreatedAt}
		return tx.InsertSettlement(ctx, settlement)
	})
	if err != nil {
		return nil, s.fail(ctx, settlement, step, err)
	}

	log.Info().
		Str("settlement_id", settlement.ID).
		Int64("sender_country_id", req.SenderCountryID).
		Int64("receiver_country_id", req.ReceiverCountryID).
		Int64("payment_method_id", req.PaymentMethodID).
		Str("amount", req.Amount.String()).
		Msg("transfer settled")

	s.publish(ctx, settlement)
	return settlement, nil
}

func (s *LedgerService) validate(ctx context.Context, req SettleRequest) (*model.Country, *model.Country, error) {
	if req.SenderCountryID <= 0 || req.ReceiverCountryID <= 0 || req.PaymentMethodID <= 0 {
		return nil, nil, invalidInput("country and payment method ids must be positive")
	}
	if req.SenderCountryID == req.ReceiverCountryID {
		return nil, nil, invalidInput("sender and receiver countries must differ")
	}
	if !req.Amount.IsPositive() {
		return nil, nil, invalidInput("amount must be greater than zero")
	}

	sender, err := findActiveCountry(ctx, s.countries, req.SenderCountryID, "sender")
	if err != nil {
		return nil, nil, err
	}
	receiver, err := findActiveCountry(ctx, s.countries, req.ReceiverCountryID, "receiver")
	if err != nil {
		return nil, nil, err
	}
	return sender, receiver, nil
}

// price returns the breakdown stored with the settlement. When a quoter is
// configured the breakdown is recomputed here and any client quote must agree
// with it; otherwise the client quote is only checked against the request.
func (s *LedgerService) price(ctx context.Context, req SettleRequest, sender, receiver *model.Country) (*Breakdown, error) {
	if req.Quote != nil {
		if err := quoteMatchesTransfer(req.Quote, req.Amount, sender.CurrencyCode, receiver.CurrencyCode); err != nil {
			return nil, err
		}
	}
	if s.quotes == nil {
		return req.Quote, nil
	}

	current, err := s.quotes.Quote(ctx, QuoteRequest{
		SenderCountryID:   req.SenderCountryID,
		ReceiverCountryID: req.ReceiverCountryID,
		Amount:            req.Amount,
	})
	if err != nil {
		return nil, fmt.Errorf("price settlement: %w", err)
	}
	if req.Quote != nil && !samePricing(req.Quote, current) {
		return nil, invalidInput("quote no longer matches current pricing")
	}
	return current, nil
}

func quoteMatchesTransfer(q *Breakdown, amount decimal.Decimal, senderCcy, receiverCcy string) error {
	if !q.Amount.Equal(amount) {
		return invalidInput("quote amount %s does not match settlement amount %s", q.Amount, amount)
	}
	if !strings.EqualFold(q.SenderCurrency, senderCcy) || !strings.EqualFold(q.ReceiverCurrency, receiverCcy) {
		return invalidInput("quote currencies %s/%s do not match corridor %s/%s",
			q.SenderCurrency, q.ReceiverCurrency, senderCcy, receiverCcy)
	}
	return nil
}

func samePricing(a, b *Breakdown) bool {
	return a.ResolvedRate == b.ResolvedRate &&
		a.Fees.TotalFees.Equal(b.Fees.TotalFees) &&
		a.Exchange.AppliedRate.Equal(b.Exchange.AppliedRate) &&
		a.ReceivedAmount.Equal(b.ReceivedAmount)
}

// fail records the aborted settlement for operators and maps err to the
// caller-facing error. Nothing from the aborted transaction is persisted.
func (s *LedgerService) fail(ctx context.Context, settlement *model.Settlement, step string, err error) error {
	settlement.CreatedAt = s.now()

	var out error
	if errors.Is(err, ErrInsufficientBalance) {
		settlement.Status = model.SettlementManualReview
		settlement.Note = model.ManualProcessingRequired{Reason: err.Error()}
		out = err
	} else {
		settlement.Status = model.SettlementFailed
		settlement.Note = model.FailureInfo{Code: "ledger_error", Message: err.Error(), Step: step}
		out = fmt.Errorf("%w: %w", ErrLedgerTransaction, err)
	}

	log.Error().
		Err(err).
		Str("settlement_id", settlement.ID).
		Str("step", step).
		Str("status", string(settlement.Status)).
		Msg("settlement aborted")

	if recErr := s.store.RecordSettlement(ctx, settlement); recErr != nil {
		log.Error().Err(recErr).Str("settlement_id", settlement.ID).Msg("failed to record aborted settlement")
	} else {
		s.publish(ctx, settlement)
	}

	return out
}

func (s *LedgerService) publish(ctx context.Context, settlement *model.Settlement) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishSettlement(ctx, settlement); err != nil {
		log.Warn().Err(err).Str("settlement_id", settlement.ID).Msg("settlement event not published")
	}
}
