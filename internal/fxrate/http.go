package fxrate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/gic/cashtransfer/internal/service"
)

// HTTPProvider fetches live rates from an openexchangerates-style API:
// GET {baseURL}/latest?base=USD&symbols=XOF returning {"rates":{"XOF":655.9}}.
type HTTPProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPProvider(baseURL, apiKey string, timeout time.Duration) *HTTPProvider {
	return &HTTPProvider{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type latestResponse struct {
	Base  string                 `json:"base"`
	Rates map[string]json.Number `json:"rates"`
}

func (p *HTTPProvider) GetRate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	from, to = strings.ToUpper(from), strings.ToUpper(to)
	if from == to {
		return decimal.NewFromInt(1), nil
	}

	q := url.Values{}
	q.Set("base", from)
	q.Set("symbols", to)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/latest?"+q.Encode(), nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("build rate request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s/%s: %v", service.ErrExchangeRateUnavailable, from, to, err)
	}
	defer resp.Body.Close()

	log.Debug().
		Str("from", from).
		Str("to", to).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("market rate fetched")

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("%w: %s/%s: provider returned %s", service.ErrExchangeRateUnavailable, from, to, resp.Status)
	}

	var body latestResponse
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		return decimal.Zero, fmt.Errorf("%w: decode response: %v", service.ErrExchangeRateUnavailable, err)
	}

	n, ok := body.Rates[to]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s/%s missing from response", service.ErrExchangeRateUnavailable, from, to)
	}
	rate, err := decimal.NewFromString(n.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s/%s: %v", service.ErrExchangeRateUnavailable, from, to, err)
	}
	return positive(rate, from, to)
}
