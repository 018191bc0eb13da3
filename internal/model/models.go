package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Country struct {
	ID           int64  `json:"id"`
	Code         string `json:"code"`
	Name         string `json:"name"`
	CurrencyCode string `json:"currency_code"`
	Active       bool   `json:"active"`
}

type PaymentMethodType string

const (
	PaymentMethodBankTransfer PaymentMethodType = "BANK_TRANSFER"
	PaymentMethodMobileMoney  PaymentMethodType = "MOBILE_MONEY"
	PaymentMethodFlutterwave  PaymentMethodType = "FLUTTERWAVE"
	PaymentMethodCinetPay     PaymentMethodType = "CINETPAY"
	PaymentMethodCard         PaymentMethodType = "CARD"
	PaymentMethodCash         PaymentMethodType = "CASH"
)

type PaymentMethod struct {
	ID     int64             `json:"id"`
	Name   string            `json:"name"`
	Type   PaymentMethodType `json:"type"`
	Active bool              `json:"active"`
}

// CountryPaymentMethod enables a payment method for a country with bounds
// specific to that pairing. MaxAmount is unbounded when not valid.
type CountryPaymentMethod struct {
	ID              int64               `json:"id"`
	CountryID       int64               `json:"country_id"`
	PaymentMethodID int64               `json:"payment_method_id"`
	MinAmount       decimal.Decimal     `json:"min_amount"`
	MaxAmount       decimal.NullDecimal `json:"max_amount"`
	Active          bool                `json:"active"`

	// Populated by joins.
	PaymentMethod PaymentMethod `json:"payment_method"`
	Country       Country       `json:"country"`
}

func (m CountryPaymentMethod) Contains(amount decimal.Decimal) bool {
	return inBounds(amount, m.MinAmount, m.MaxAmount)
}

type Wallet struct {
	ID         int64           `json:"id"`
	CountryID  int64           `json:"country_id"`
	Balance    decimal.Decimal `json:"balance"`
	SubWallets []SubWallet     `json:"sub_wallets,omitempty"`
}

type SubWallet struct {
	ID                     int64           `json:"id"`
	WalletID               int64           `json:"wallet_id"`
	CountryPaymentMethodID int64           `json:"country_payment_method_id"`
	PaymentMethodID        int64           `json:"payment_method_id"`
	Balance                decimal.Decimal `json:"balance"`
	Active                 bool            `json:"active"`
}

// SubWalletFor returns the sub-wallet bucket holding funds for paymentMethodID.
func (w *Wallet) SubWalletFor(paymentMethodID int64) (SubWallet, bool) {
	for _, sw := range w.SubWallets {
		if sw.PaymentMethodID == paymentMethodID {
			return sw, true
		}
	}
	return SubWallet{}, false
}

type MarketRate struct {
	FromCurrency string          `json:"from_currency"`
	ToCurrency   string          `json:"to_currency"`
	Rate         decimal.Decimal `json:"rate"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func inBounds(amount, min decimal.Decimal, max decimal.NullDecimal) bool {
	if amount.LessThan(min) {
		return false
	}
	if max.Valid && amount.GreaterThan(max.Decimal) {
		return false
	}
	return true
}
