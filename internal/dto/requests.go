package dto

import (
	"github.com/shopspring/decimal"

	"github.com/gic/cashtransfer/internal/model"
	"github.com/gic/cashtransfer/internal/service"
)

type QuoteRequest struct {
	SenderCountryID   int64           `json:"sender_country_id" binding:"required,gt=0"`
	ReceiverCountryID int64           `json:"receiver_country_id" binding:"required,gt=0"`
	Amount            decimal.Decimal `json:"amount"`
}

type SettlementRequest struct {
	SenderCountryID   int64              `json:"sender_country_id" binding:"required,gt=0"`
	ReceiverCountryID int64              `json:"receiver_country_id" binding:"required,gt=0"`
	PaymentMethodID   int64              `json:"payment_method_id" binding:"required,gt=0"`
	Amount            decimal.Decimal    `json:"amount"`
	Quote             *service.Breakdown `json:"quote,omitempty"`
}

type TransferRateRequest struct {
	Scope              string              `json:"scope" binding:"required,oneof=global country corridor"`
	CountryID          int64               `json:"country_id"`
	SenderCountryID    int64               `json:"sender_country_id"`
	ReceiverCountryID  int64               `json:"receiver_country_id"`
	BaseFee            decimal.Decimal     `json:"base_fee"`
	PercentageFee      decimal.Decimal     `json:"percentage_fee"`
	MinAmount          decimal.Decimal     `json:"min_amount"`
	MaxAmount          decimal.NullDecimal `json:"max_amount"`
	ExchangeRateMargin decimal.Decimal     `json:"exchange_rate_margin"`
	Active             *bool               `json:"active"`
	IsDefault          bool                `json:"is_default"`
	Priority           int                 `json:"priority"`
}

// ToModel builds the rate; Active defaults to true when omitted.
func (r TransferRateRequest) ToModel() model.TransferRate {
	active := true
	if r.Active != nil {
		active = *r.Active
	}
	return model.TransferRate{
		Scope: model.RateScope{
			Kind:              model.ScopeKind(r.Scope),
			CountryID:         r.CountryID,
			SenderCountryID:   r.SenderCountryID,
			ReceiverCountryID: r.ReceiverCountryID,
		},
		BaseFee:            r.BaseFee,
		PercentageFee:      r.PercentageFee,
		MinAmount:          r.MinAmount,
		MaxAmount:          r.MaxAmount,
		ExchangeRateMargin: r.ExchangeRateMargin,
		Active:             active,
		IsDefault:          r.IsDefault,
		Priority:           r.Priority,
	}
}

type MarketRateRequest struct {
	FromCurrency string          `json:"from_currency" binding:"required,len=3,alpha"`
	ToCurrency   string          `json:"to_currency" binding:"required,len=3,alpha"`
	Rate         decimal.Decimal `json:"rate"`
}

type SettingRequest struct {
	Value string `json:"value" binding:"required"`
}
