package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/gic/cashtransfer/internal/model"
)

// RateSource returns every active TransferRate configured for a scope key.
// Bounds filtering and ordering happen in RateLookup.
type RateSource interface {
	ActiveGlobal(ctx context.Context) ([]model.TransferRate, error)
	ActiveCountry(ctx context.Context, countryID int64) ([]model.TransferRate, error)
	ActiveCorridor(ctx context.Context, senderCountryID, receiverCountryID int64) ([]model.TransferRate, error)
}

// RateLookup answers tier queries: the active records whose bounds contain
// the amount, governing record first.
type RateLookup struct {
	src RateSource
}

func NewRateLookup(src RateSource) *RateLookup {
	return &RateLookup{src: src}
}

func (l *RateLookup) FindGlobalDefault(ctx context.Context, amount decimal.Decimal) (*model.TransferRate, error) {
	rates, err := l.src.ActiveGlobal(ctx)
	if err != nil {
		return nil, fmt.Errorf("load global rates: %w", err)
	}

	defaults := make([]model.TransferRate, 0, 1)
	for _, r := range rates {
		if r.IsDefault {
			defaults = append(defaults, r)
		}
	}

	applicable := model.ApplicableRates(defaults, amount)
	if len(applicable) == 0 {
		return nil, nil
	}
	return &applicable[0], nil
}

func (l *RateLookup) FindCountryRate(ctx context.Context, countryID int64, amount decimal.Decimal) ([]model.TransferRate, error) {
	rates, err := l.src.ActiveCountry(ctx, countryID)
	if err != nil {
		return nil, fmt.Errorf("load country rates: %w", err)
	}
	return model.ApplicableRates(rates, amount), nil
}

func (l *RateLookup) FindCorridorRate(ctx context.Context, senderCountryID, receiverCountryID int64, amount decimal.Decimal) ([]model.TransferRate, error) {
	rates, err := l.src.ActiveCorridor(ctx, senderCountryID, receiverCountryID)
	if err != nil {
		return nil, fmt.Errorf("load corridor rates: %w", err)
	}
	return model.ApplicableRates(rates, amount), nil
}

// Tier ranks reported with a resolved rate; lower is more specific.
const (
	TierPriorityCorridor = 1
	TierPriorityCountry  = 2
	TierPriorityGlobal   = 3
)

type RateInfo struct {
	Type     model.ScopeKind `json:"type"`
	Priority int             `json:"priority"`
	RateID   int64           `json:"rateId"`
}

type ResolvedRate struct {
	Rate model.TransferRate
	Info RateInfo
}

type RateResolver struct {
	lookup *RateLookup
}

func NewRateResolver(lookup *RateLookup) *RateResolver {
	return &RateResolver{lookup: lookup}
}

// Resolve picks the governing rate for a transfer: corridor, then the sender
// country's rate, then the global default. A tier is skipped when it has no
// active record whose bounds contain amount.
func (r *RateResolver) Resolve(ctx context.Context, senderCountryID, receiverCountryID int64, amount decimal.Decimal) (ResolvedRate, error) {
	if senderCountryID <= 0 || receiverCountryID <= 0 {
		return ResolvedRate{}, invalidInput("country ids must be positive")
	}
	if !amount.IsPositive() {
		return ResolvedRate{}, invalidInput("amount must be greater than zero")
	}

	if senderCountryID != receiverCountryID {
		corridor, err := r.lookup.FindCorridorRate(ctx, senderCountryID, receiverCountryID, amount)
		if err != nil {
			return ResolvedRate{}, err
		}
		if len(corridor) > 0 {
			return resolved(corridor[0], TierPriorityCorridor), nil
		}
	}

	country, err := r.lookup.FindCountryRate(ctx, senderCountryID, amount)
	if err != nil {
		return ResolvedRate{}, err
	}
	if len(country) > 0 {
		return resolved(country[0], TierPriorityCountry), nil
	}

	global, err := r.lookup.FindGlobalDefault(ctx, amount)
	if err != nil {
		return ResolvedRate{}, err
	}
	if global != nil {
		return resolved(*global, TierPriorityGlobal), nil
	}

	log.Warn().
		Int64("sender_country_id", senderCountryID).
		Int64("receiver_country_id", receiverCountryID).
		Str("amount", amount.String()).
		Msg("no transfer rate applies")

	return ResolvedRate{}, fmt.Errorf("%w: sender %d, receiver %d, amount %s",
		ErrRateResolution, senderCountryID, receiverCountryID, amount)
}

func resolved(rate model.TransferRate, priority int) ResolvedRate {
	return ResolvedRate{
		Rate: rate,
		Info: RateInfo{Type: rate.Scope.Kind, Priority: priority, RateID: rate.ID},
	}
}
