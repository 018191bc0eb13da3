package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gic/cashtransfer/internal/model"
)

func quoteCountries() fakeCountries {
	return fakeCountries{
		usID: {ID: usID, Name: "United States", CurrencyCode: "USD", Active: true},
		ciID: {ID: ciID, Name: "Cote d'Ivoire", CurrencyCode: "XOF", Active: true},
		snID: {ID: snID, Name: "Senegal", CurrencyCode: "XOF", Active: true},
		9:    {ID: 9, Name: "Closed", CurrencyCode: "EUR", Active: false},
	}
}

func newQuoteService(rates []model.TransferRate, fx *fakeFX, settings fakeSettings) *QuoteService {
	resolver := NewRateResolver(NewRateLookup(&fakeRateSource{rates: rates}))
	return NewQuoteService(quoteCountries(), resolver, fx, settings)
}

func defaultGlobal() model.TransferRate {
	r := rateFixture(11, model.GlobalScope(), "5", t0)
	r.PercentageFee = dec("2")
	r.ExchangeRateMargin = dec("1")
	return r
}

func TestQuoteService_Quote(t *testing.T) {
	fx := &fakeFX{rates: map[string]decimal.Decimal{"USD/XOF": dec("655")}}
	svc := newQuoteService([]model.TransferRate{defaultGlobal()}, fx, fakeSettings{})

	b, err := svc.Quote(context.Background(), QuoteRequest{SenderCountryID: usID, ReceiverCountryID: ciID, Amount: dec("1000")})
	require.NoError(t, err)

	assert.Equal(t, "USD", b.SenderCurrency)
	assert.Equal(t, "XOF", b.ReceiverCurrency)
	assert.True(t, b.Fees.TotalFees.Equal(dec("25")))
	assert.True(t, b.ReceivedAmount.Equal(dec("632238.75")), b.ReceivedAmount.String())
	assert.Equal(t, RateInfo{Type: model.ScopeGlobal, Priority: TierPriorityGlobal, RateID: 11}, b.ResolvedRate)
	assert.Equal(t, 1, fx.calls)
}

func TestQuoteService_CorridorRateNotConverted(t *testing.T) {
	corridor := rateFixture(12, model.CorridorScope(ciID, snID), "100", t0)
	corridor.PercentageFee = dec("1")
	fx := &fakeFX{rates: map[string]decimal.Decimal{}}
	svc := newQuoteService([]model.TransferRate{defaultGlobal(), corridor}, fx, fakeSettings{})

	b, err := svc.Quote(context.Background(), QuoteRequest{SenderCountryID: ciID, ReceiverCountryID: snID, Amount: dec("10000")})
	require.NoError(t, err)

	assert.True(t, b.Fees.BaseFee.Equal(dec("100")))
	assert.True(t, b.Fees.TotalFees.Equal(dec("200")))
	assert.True(t, b.Exchange.AppliedRate.Equal(dec("1")))
	assert.True(t, b.ReceivedAmount.Equal(dec("9800")))
	assert.Zero(t, fx.calls, "same currency quote with a corridor rate needs no market rate")
}

func TestQuoteService_GlobalBaseFeeConvertedToSenderCurrency(t *testing.T) {
	fx := &fakeFX{rates: map[string]decimal.Decimal{"USD/XOF": dec("655")}}
	svc := newQuoteService([]model.TransferRate{defaultGlobal()}, fx, fakeSettings{})

	b, err := svc.Quote(context.Background(), QuoteRequest{SenderCountryID: ciID, ReceiverCountryID: snID, Amount: dec("100000")})
	require.NoError(t, err)

	assert.True(t, b.Fees.BaseFee.Equal(dec("3275")), b.Fees.BaseFee.String())
	assert.True(t, b.Fees.PercentageFee.Equal(dec("2000")))
	assert.True(t, b.Fees.TotalFees.Equal(dec("5275")))

	t.Run("fee currency setting", func(t *testing.T) {
		svc := newQuoteService([]model.TransferRate{defaultGlobal()}, fx, fakeSettings{SettingFeeCurrency: "xof"})
		b, err := svc.Quote(context.Background(), QuoteRequest{SenderCountryID: ciID, ReceiverCountryID: snID, Amount: dec("100000")})
		require.NoError(t, err)
		assert.True(t, b.Fees.BaseFee.Equal(dec("5")))
	})
}

func TestQuoteService_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown country", func(t *testing.T) {
		svc := newQuoteService([]model.TransferRate{defaultGlobal()}, &fakeFX{}, fakeSettings{})
		_, err := svc.Quote(ctx, QuoteRequest{SenderCountryID: 404, ReceiverCountryID: ciID, Amount: dec("10")})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("inactive country", func(t *testing.T) {
		svc := newQuoteService([]model.TransferRate{defaultGlobal()}, &fakeFX{}, fakeSettings{})
		_, err := svc.Quote(ctx, QuoteRequest{SenderCountryID: usID, ReceiverCountryID: 9, Amount: dec("10")})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("non positive amount", func(t *testing.T) {
		svc := newQuoteService([]model.TransferRate{defaultGlobal()}, &fakeFX{}, fakeSettings{})
		_, err := svc.Quote(ctx, QuoteRequest{SenderCountryID: usID, ReceiverCountryID: ciID, Amount: dec("-5")})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("provider failure", func(t *testing.T) {
		fx := &fakeFX{err: errors.New("upstream timeout")}
		svc := newQuoteService([]model.TransferRate{defaultGlobal()}, fx, fakeSettings{})
		_, err := svc.Quote(ctx, QuoteRequest{SenderCountryID: usID, ReceiverCountryID: ciID, Amount: dec("1000")})
		assert.ErrorIs(t, err, ErrExchangeRateUnavailable)
	})

	t.Run("resolution failure reported before provider failure", func(t *testing.T) {
		fx := &fakeFX{err: errors.New("upstream timeout")}
		svc := newQuoteService(nil, fx, fakeSettings{})
		_, err := svc.Quote(ctx, QuoteRequest{SenderCountryID: usID, ReceiverCountryID: ciID, Amount: dec("1000")})
		assert.ErrorIs(t, err, ErrRateResolution)
	})
}
