package fxrate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/gic/cashtransfer/internal/model"
	"github.com/gic/cashtransfer/internal/service"
)

type RateFinder interface {
	Find(ctx context.Context, from, to string) (*model.MarketRate, error)
}

// DatabaseProvider reads market rates maintained in the market_rates table.
// A missing pair is served from its inverse when that is quoted.
type DatabaseProvider struct {
	rates RateFinder
}

func NewDatabaseProvider(rates RateFinder) *DatabaseProvider {
	return &DatabaseProvider{rates: rates}
}

func (p *DatabaseProvider) GetRate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	if from == to {
		return decimal.NewFromInt(1), nil
	}

	mr, err := p.rates.Find(ctx, from, to)
	if err == nil {
		return positive(mr.Rate, from, to)
	}
	if !errors.Is(err, model.ErrNotFound) {
		return decimal.Zero, fmt.Errorf("%w: %s/%s: %v", service.ErrExchangeRateUnavailable, from, to, err)
	}

	inv, err := p.rates.Find(ctx, to, from)
	if errors.Is(err, model.ErrNotFound) {
		return decimal.Zero, fmt.Errorf("%w: %s/%s not quoted", service.ErrExchangeRateUnavailable, from, to)
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s/%s: %v", service.ErrExchangeRateUnavailable, to, from, err)
	}
	if _, err := positive(inv.Rate, to, from); err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromInt(1).DivRound(inv.Rate, 10), nil
}

func positive(rate decimal.Decimal, from, to string) (decimal.Decimal, error) {
	if !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: stored rate %s for %s/%s", service.ErrExchangeRateUnavailable, rate, from, to)
	}
	return rate, nil
}
