package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/gic/cashtransfer/internal/model"
)

type CountryReader interface {
	FindByID(ctx context.Context, id int64) (*model.Country, error)
}

// ExchangeRateProvider returns how many units of toCurrency one unit of
// fromCurrency buys. Implementations fetch on every call.
type ExchangeRateProvider interface {
	GetRate(ctx context.Context, fromCurrency, toCurrency string) (decimal.Decimal, error)
}

type SettingsReader interface {
	String(ctx context.Context, key, fallback string) (string, error)
	Bool(ctx context.Context, key string, fallback bool) (bool, error)
}

const (
	SettingFeeCurrency      = "fee_currency"
	SettingTransfersEnabled = "transfers_enabled"

	defaultFeeCurrency = "USD"
)

type QuoteRequest struct {
	SenderCountryID   int64
	ReceiverCountryID int64
	Amount            decimal.Decimal
}

type QuoteService struct {
	countries CountryReader
	resolver  *RateResolver
	fx        ExchangeRateProvider
	settings  SettingsReader
}

func NewQuoteService(countries CountryReader, resolver *RateResolver, fx ExchangeRateProvider, settings SettingsReader) *QuoteService {
	return &QuoteService{countries: countries, resolver: resolver, fx: fx, settings: settings}
}

// Quote prices a transfer: it resolves the governing rate, fetches the live
// market rate and runs Calculate.
func (s *QuoteService) Quote(ctx context.Context, req QuoteRequest) (*Breakdown, error) {
	if req.SenderCountryID <= 0 || req.ReceiverCountryID <= 0 {
		return nil, invalidInput("country ids must be positive")
	}
	if !req.Amount.IsPositive() {
		return nil, invalidInput("amount must be greater than zero")
	}

	sender, receiver, err := s.loadCountries(ctx, req.SenderCountryID, req.ReceiverCountryID)
	if err != nil {
		return nil, err
	}

	var (
		rate       ResolvedRate
		marketRate decimal.Decimal
		resolveErr error
		fxErr      error
		g          errgroup.Group
	)

	g.Go(func() error {
		rate, resolveErr = s.resolver.Resolve(ctx, sender.ID, receiver.ID, req.Amount)
		return nil
	})
	if sender.CurrencyCode != receiver.CurrencyCode {
		g.Go(func() error {
			marketRate, fxErr = s.marketRate(ctx, sender.CurrencyCode, receiver.CurrencyCode)
			return nil
		})
	}
	_ = g.Wait()

	if resolveErr != nil {
		return nil, resolveErr
	}
	if fxErr != nil {
		return nil, fxErr
	}

	if rate.Info.Type == model.ScopeGlobal {
		rate.Rate.BaseFee, err = s.baseFeeInSenderCurrency(ctx, rate.Rate.BaseFee, sender.CurrencyCode)
		if err != nil {
			return nil, err
		}
	}

	breakdown, err := Calculate(CalculationInput{
		Rate:             rate,
		Amount:           req.Amount,
		SenderCurrency:   sender.CurrencyCode,
		ReceiverCurrency: receiver.CurrencyCode,
		MarketRate:       marketRate,
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Int64("sender_country_id", sender.ID).
		Int64("receiver_country_id", receiver.ID).
		Str("amount", req.Amount.String()).
		Str("rate_type", string(rate.Info.Type)).
		Int64("rate_id", rate.Info.RateID).
		Str("total_fees", breakdown.Fees.TotalFees.String()).
		Msg("transfer quoted")

	return &breakdown, nil
}

func (s *QuoteService) loadCountries(ctx context.Context, senderID, receiverID int64) (*model.Country, *model.Country, error) {
	g, gctx := errgroup.WithContext(ctx)

	var sender, receiver *model.Country
	g.Go(func() error {
		var err error
		sender, err = s.activeCountry(gctx, senderID, "sender")
		return err
	})
	g.Go(func() error {
		var err error
		receiver, err = s.activeCountry(gctx, receiverID, "receiver")
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return sender, receiver, nil
}

func (s *QuoteService) activeCountry(ctx context.Context, id int64, side string) (*model.Country, error) {
	return findActiveCountry(ctx, s.countries, id, side)
}

// findActiveCountry loads a country that may take part in a transfer.
func findActiveCountry(ctx context.Context, countries CountryReader, id int64, side string) (*model.Country, error) {
	c, err := countries.FindByID(ctx, id)
	if errors.Is(err, model.ErrNotFound) {
		return nil, invalidInput("%s country %d does not exist", side, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s country: %w", side, err)
	}
	if !c.Active {
		return nil, invalidInput("%s country %d is not active", side, id)
	}
	return c, nil
}

func (s *QuoteService) marketRate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	r, err := s.fx.GetRate(ctx, from, to)
	if err != nil {
		log.Error().Err(err).Str("from", from).Str("to", to).Msg("market rate fetch failed")
		if errors.Is(err, ErrExchangeRateUnavailable) {
			return decimal.Zero, err
		}
		return decimal.Zero, fmt.Errorf("%w: %s/%s: %v", ErrExchangeRateUnavailable, from, to, err)
	}
	if !r.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: provider returned %s for %s/%s", ErrExchangeRateUnavailable, r, from, to)
	}
	return r, nil
}

// Global base fees are configured in the platform fee currency.
func (s *QuoteService) baseFeeInSenderCurrency(ctx context.Context, baseFee decimal.Decimal, senderCurrency string) (decimal.Decimal, error) {
	feeCurrency, err := s.settings.String(ctx, SettingFeeCurrency, defaultFeeCurrency)
	if err != nil {
		return decimal.Zero, fmt.Errorf("read fee currency: %w", err)
	}
	feeCurrency = strings.ToUpper(strings.TrimSpace(feeCurrency))
	if baseFee.IsZero() || feeCurrency == senderCurrency {
		return baseFee, nil
	}

	r, err := s.marketRate(ctx, feeCurrency, senderCurrency)
	if err != nil {
		return decimal.Zero, err
	}
	return baseFee.Mul(r), nil
}
