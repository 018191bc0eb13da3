package service

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

type FeeBreakdown struct {
	BaseFee       decimal.Decimal `json:"baseFee"`
	PercentageFee decimal.Decimal `json:"percentageFee"`
	TotalFees     decimal.Decimal `json:"totalFees"`
}

type ExchangeBreakdown struct {
	MarketRate            decimal.Decimal `json:"marketRate"`
	AppliedRate           decimal.Decimal `json:"appliedRate"`
	ExchangeRateMargin    decimal.Decimal `json:"exchangeRateMargin"`
	ExchangeMarginRevenue decimal.Decimal `json:"exchangeMarginRevenue"`
}

// Breakdown is the full charge computation for one transfer. It is returned
// to clients and stored with the settlement as its audit trail, so the JSON
// field names must not change.
type Breakdown struct {
	Amount           decimal.Decimal   `json:"amount"`
	SenderCurrency   string            `json:"senderCurrency"`
	ReceiverCurrency string            `json:"receiverCurrency"`
	Fees             FeeBreakdown      `json:"fees"`
	TotalToPay       decimal.Decimal   `json:"totalToPay"`
	AmountAfterFees  decimal.Decimal   `json:"amountAfterFees"`
	Exchange         ExchangeBreakdown `json:"exchange"`
	ReceivedAmount   decimal.Decimal   `json:"receivedAmount"`
	TotalRevenue     decimal.Decimal   `json:"totalRevenue"`
	ResolvedRate     RateInfo          `json:"resolvedRate"`
}

type CalculationInput struct {
	Rate             ResolvedRate
	Amount           decimal.Decimal
	SenderCurrency   string
	ReceiverCurrency string
	// MarketRate converts one unit of SenderCurrency into ReceiverCurrency.
	// Ignored when both currencies are the same.
	MarketRate decimal.Decimal
}

// Calculate is the only fee and exchange formula. Fees are taken out of the
// principal: the sender is charged Amount, and Amount minus fees is converted
// at the market rate less the margin.
func Calculate(in CalculationInput) (Breakdown, error) {
	if !in.Amount.IsPositive() {
		return Breakdown{}, invalidInput("amount must be greater than zero")
	}

	senderCcy := strings.ToUpper(strings.TrimSpace(in.SenderCurrency))
	receiverCcy := strings.ToUpper(strings.TrimSpace(in.ReceiverCurrency))
	if senderCcy == "" || receiverCcy == "" {
		return Breakdown{}, invalidInput("sender and receiver currencies are required")
	}

	sameCurrency := senderCcy == receiverCcy
	if !sameCurrency && !in.MarketRate.IsPositive() {
		return Breakdown{}, fmt.Errorf("%w: no market rate for %s/%s", ErrExchangeRateUnavailable, senderCcy, receiverCcy)
	}

	rate := in.Rate.Rate

	baseFee := rate.BaseFee
	percentageFee := in.Amount.Mul(rate.PercentageFee).Div(hundred)
	totalFees := baseFee.Add(percentageFee)
	totalToPay := in.Amount
	amountAfterFees := in.Amount.Sub(totalFees)
	if !amountAfterFees.IsPositive() {
		return Breakdown{}, invalidInput("amount %s does not cover fees of %s", in.Amount, totalFees)
	}

	marketRate := decimal.NewFromInt(1)
	appliedRate := decimal.NewFromInt(1)
	margin := decimal.Zero
	if !sameCurrency {
		marketRate = in.MarketRate
		margin = rate.ExchangeRateMargin
		appliedRate = marketRate.Mul(decimal.NewFromInt(1).Sub(margin.Div(hundred)))
	}

	receivedAmount := amountAfterFees.Mul(appliedRate)
	marginRevenue := amountAfterFees.Mul(marketRate.Sub(appliedRate))
	totalRevenue := totalFees.Add(marginRevenue)

	return Breakdown{
		Amount:           in.Amount,
		SenderCurrency:   senderCcy,
		ReceiverCurrency: receiverCcy,
		Fees: FeeBreakdown{
			BaseFee:       baseFee,
			PercentageFee: percentageFee,
			TotalFees:     totalFees,
		},
		TotalToPay:      totalToPay,
		AmountAfterFees: amountAfterFees,
		Exchange: ExchangeBreakdown{
			MarketRate:            marketRate,
			AppliedRate:           appliedRate,
			ExchangeRateMargin:    margin,
			ExchangeMarginRevenue: marginRevenue,
		},
		ReceivedAmount: receivedAmount,
		TotalRevenue:   totalRevenue,
		ResolvedRate:   in.Rate.Info,
	}, nil
}
