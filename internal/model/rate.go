package model

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

type ScopeKind string

const (
	ScopeGlobal   ScopeKind = "global"
	ScopeCountry  ScopeKind = "country"
	ScopeCorridor ScopeKind = "corridor"
)

// RateScope identifies which tier a TransferRate belongs to. CountryID is set
// for country scope, Sender/ReceiverCountryID for corridor scope.
type RateScope struct {
	Kind              ScopeKind `json:"kind"`
	CountryID         int64     `json:"country_id,omitempty"`
	SenderCountryID   int64     `json:"sender_country_id,omitempty"`
	ReceiverCountryID int64     `json:"receiver_country_id,omitempty"`
}

func GlobalScope() RateScope {
	return RateScope{Kind: ScopeGlobal}
}

func CountryScope(countryID int64) RateScope {
	return RateScope{Kind: ScopeCountry, CountryID: countryID}
}

func CorridorScope(senderCountryID, receiverCountryID int64) RateScope {
	return RateScope{Kind: ScopeCorridor, SenderCountryID: senderCountryID, ReceiverCountryID: receiverCountryID}
}

func (s RateScope) Validate() error {
	switch s.Kind {
	case ScopeGlobal:
		if s.CountryID != 0 || s.SenderCountryID != 0 || s.ReceiverCountryID != 0 {
			return fmt.Errorf("global scope takes no country ids")
		}
	case ScopeCountry:
		if s.CountryID <= 0 {
			return fmt.Errorf("country scope requires country_id")
		}
	case ScopeCorridor:
		if s.SenderCountryID <= 0 || s.ReceiverCountryID <= 0 {
			return fmt.Errorf("corridor scope requires sender_country_id and receiver_country_id")
		}
		if s.SenderCountryID == s.ReceiverCountryID {
			return fmt.Errorf("corridor countries must differ")
		}
	default:
		return fmt.Errorf("unknown scope kind %q", s.Kind)
	}
	return nil
}

// Key is the stable identifier of the scope, used for cache keys and logs.
func (s RateScope) Key() string {
	switch s.Kind {
	case ScopeCountry:
		return fmt.Sprintf("country:%d", s.CountryID)
	case ScopeCorridor:
		return fmt.Sprintf("corridor:%d:%d", s.SenderCountryID, s.ReceiverCountryID)
	default:
		return "global"
	}
}

// TransferRate is one tier of fee/exchange configuration. Percentages are
// expressed in percent (2 means 2%).
type TransferRate struct {
	ID                 int64               `json:"id"`
	Scope              RateScope           `json:"scope"`
	BaseFee            decimal.Decimal     `json:"base_fee"`
	PercentageFee      decimal.Decimal     `json:"percentage_fee"`
	MinAmount          decimal.Decimal     `json:"min_amount"`
	MaxAmount          decimal.NullDecimal `json:"max_amount"`
	ExchangeRateMargin decimal.Decimal     `json:"exchange_rate_margin"`
	Active             bool                `json:"active"`
	IsDefault          bool                `json:"is_default"`
	Priority           int                 `json:"priority"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

func (r TransferRate) Contains(amount decimal.Decimal) bool {
	return inBounds(amount, r.MinAmount, r.MaxAmount)
}

func (r TransferRate) Validate() error {
	if err := r.Scope.Validate(); err != nil {
		return err
	}
	if r.BaseFee.IsNegative() {
		return fmt.Errorf("base_fee must not be negative")
	}
	if r.PercentageFee.IsNegative() {
		return fmt.Errorf("percentage_fee must not be negative")
	}
	if r.ExchangeRateMargin.IsNegative() || r.ExchangeRateMargin.GreaterThanOrEqual(decimal.NewFromInt(100)) {
		return fmt.Errorf("exchange_rate_margin must be within [0, 100)")
	}
	if r.MinAmount.IsNegative() {
		return fmt.Errorf("min_amount must not be negative")
	}
	if r.MaxAmount.Valid && r.MaxAmount.Decimal.LessThan(r.MinAmount) {
		return fmt.Errorf("max_amount must not be below min_amount")
	}
	if r.IsDefault && r.Scope.Kind != ScopeGlobal {
		return fmt.Errorf("only global rates can be the default")
	}
	return nil
}

// SortRates orders rates so that the governing record comes first: higher
// priority, then most recently updated, then most recently created, then
// highest id.
func SortRates(rates []TransferRate) {
	sort.SliceStable(rates, func(i, j int) bool {
		a, b := rates[i], rates[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			return a.UpdatedAt.After(b.UpdatedAt)
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
}

// ApplicableRates keeps the active rates whose bounds contain amount, in
// governing order.
func ApplicableRates(rates []TransferRate, amount decimal.Decimal) []TransferRate {
	out := make([]TransferRate, 0, len(rates))
	for _, r := range rates {
		if r.Active && r.Contains(amount) {
			out = append(out, r)
		}
	}
	SortRates(out)
	return out
}
