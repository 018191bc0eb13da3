package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/gic/cashtransfer/internal/model"
)

type CountryMethodReader interface {
	// ActiveCountryMethods returns the active payment methods enabled for a
	// country, joined with the payment method and the country.
	ActiveCountryMethods(ctx context.Context, countryID int64) ([]model.CountryPaymentMethod, error)
}

type WalletReader interface {
	FindWithSubWallets(ctx context.Context, countryID int64) (*model.Wallet, error)
}

type AvailableMethod struct {
	PaymentMethodID int64                   `json:"paymentMethodId"`
	Name            string                  `json:"name"`
	Type            model.PaymentMethodType `json:"type"`
	Available       bool                    `json:"available"`
	Balance         decimal.Decimal         `json:"balance"`
	MinAmount       decimal.Decimal         `json:"minAmount"`
	MaxAmount       decimal.NullDecimal     `json:"maxAmount"`
	CountryID       int64                   `json:"countryId"`
	CountryName     string                  `json:"countryName"`
	CurrencyCode    string                  `json:"currencyCode"`
}

type AvailabilityService struct {
	methods CountryMethodReader
	wallets WalletReader
}

func NewAvailabilityService(methods CountryMethodReader, wallets WalletReader) *AvailabilityService {
	return &AvailabilityService{methods: methods, wallets: wallets}
}

// Match lists the sender-side payment methods usable for amount, flagged by
// whether the receiver country's float for the same method can pay it out.
// Invalid input yields an empty list rather than an error.
func (s *AvailabilityService) Match(ctx context.Context, senderCountryID, receiverCountryID int64, amount decimal.Decimal) ([]AvailableMethod, error) {
	if senderCountryID <= 0 || receiverCountryID <= 0 || !amount.IsPositive() {
		return []AvailableMethod{}, nil
	}

	g, gctx := errgroup.WithContext(ctx)

	var methods []model.CountryPaymentMethod
	var wallet *model.Wallet

	g.Go(func() error {
		var err error
		methods, err = s.methods.ActiveCountryMethods(gctx, senderCountryID)
		if err != nil {
			return fmt.Errorf("load sender payment methods: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		wallet, err = s.wallets.FindWithSubWallets(gctx, receiverCountryID)
		if errors.Is(err, model.ErrNotFound) {
			wallet, err = nil, nil
		}
		if err != nil {
			return fmt.Errorf("load receiver wallet: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]AvailableMethod, 0, len(methods))
	for _, m := range methods {
		if !m.Active || !m.PaymentMethod.Active || !m.Contains(amount) {
			continue
		}

		balance := decimal.Zero
		available := false
		if wallet != nil {
			if sw, ok := wallet.SubWalletFor(m.PaymentMethodID); ok && sw.Active {
				balance = sw.Balance
				available = sw.Balance.GreaterThanOrEqual(amount)
			}
		}

		out = append(out, AvailableMethod{
			PaymentMethodID: m.PaymentMethodID,
			Name:            m.PaymentMethod.Name,
			Type:            m.PaymentMethod.Type,
			Available:       available,
			Balance:         balance,
			MinAmount:       m.MinAmount,
			MaxAmount:       m.MaxAmount,
			CountryID:       m.CountryID,
			CountryName:     m.Country.Name,
			CurrencyCode:    m.Country.CurrencyCode,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Available != out[j].Available {
			return out[i].Available
		}
		return out[i].Balance.GreaterThan(out[j].Balance)
	})

	return out, nil
}
