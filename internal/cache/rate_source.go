package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gic/cashtransfer/internal/model"
)

const rateKeyPrefix = "transfer_rates:"

type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// RateLoader is the uncached source of active transfer rates per scope.
type RateLoader interface {
	ActiveGlobal(ctx context.Context) ([]model.TransferRate, error)
	ActiveCountry(ctx context.Context, countryID int64) ([]model.TransferRate, error)
	ActiveCorridor(ctx context.Context, senderCountryID, receiverCountryID int64) ([]model.TransferRate, error)
}

// RateSource caches the active rate list of each scope. Cache failures fall
// through to the loader; a broken cache never fails a quote.
type RateSource struct {
	next  RateLoader
	store Store
	ttl   time.Duration
}

func NewRateSource(next RateLoader, store Store, ttl time.Duration) *RateSource {
	return &RateSource{next: next, store: store, ttl: ttl}
}

func (s *RateSource) ActiveGlobal(ctx context.Context) ([]model.TransferRate, error) {
	return s.load(ctx, model.GlobalScope(), func() ([]model.TransferRate, error) {
		return s.next.ActiveGlobal(ctx)
	})
}

func (s *RateSource) ActiveCountry(ctx context.Context, countryID int64) ([]model.TransferRate, error) {
	return s.load(ctx, model.CountryScope(countryID), func() ([]model.TransferRate, error) {
		return s.next.ActiveCountry(ctx, countryID)
	})
}

func (s *RateSource) ActiveCorridor(ctx context.Context, senderCountryID, receiverCountryID int64) ([]model.TransferRate, error) {
	return s.load(ctx, model.CorridorScope(senderCountryID, receiverCountryID), func() ([]model.TransferRate, error) {
		return s.next.ActiveCorridor(ctx, senderCountryID, receiverCountryID)
	})
}

func (s *RateSource) Invalidate(ctx context.Context, scope model.RateScope) error {
	return s.store.Delete(ctx, RateKey(scope))
}

func RateKey(scope model.RateScope) string {
	return rateKeyPrefix + scope.Key()
}

func (s *RateSource) load(ctx context.Context, scope model.RateScope, fetch func() ([]model.TransferRate, error)) ([]model.TransferRate, error) {
	key := RateKey(scope)

	raw, err := s.store.Get(ctx, key)
	switch {
	case err == nil:
		var rates []model.TransferRate
		if err := json.Unmarshal([]byte(raw), &rates); err == nil {
			return rates, nil
		}
		log.Warn().Str("key", key).Msg("discarding undecodable cached rates")
	case !errors.Is(err, ErrMiss):
		log.Warn().Err(err).Str("key", key).Msg("rate cache read failed")
	}

	rates, err := fetch()
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(rates)
	if err != nil {
		return rates, nil
	}
	if err := s.store.Set(ctx, key, string(encoded), s.ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("rate cache write failed")
	}
	return rates, nil
}
