package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gic/cashtransfer/internal/model"
)

type stubCountries []model.Country

func (s stubCountries) List(ctx context.Context) ([]model.Country, error) { return s, nil }

type stubMarketRates struct {
	rates    []model.MarketRate
	upserted []model.MarketRate
}

func (s *stubMarketRates) List(ctx context.Context) ([]model.MarketRate, error) { return s.rates, nil }

func (s *stubMarketRates) Upsert(ctx context.Context, rates []model.MarketRate) error {
	s.upserted = rates
	return nil
}

type stubSettingsWriter map[string]string

func (s stubSettingsWriter) Set(ctx context.Context, key, value string) error {
	s[key] = value
	return nil
}

func setupReferenceRouter(rates *stubMarketRates, settings stubSettingsWriter) http.Handler {
	h := NewReferenceHandler(stubCountries{{ID: 1, Code: "US", Name: "United States", CurrencyCode: "USD", Active: true}}, rates, settings)
	router := newTestRouter()
	router.GET("/countries", h.ListCountries)
	router.GET("/market-rates", h.ListMarketRates)
	router.PUT("/market-rates", h.UpsertMarketRates)
	router.PUT("/settings/:key", h.UpdateSetting)
	return router
}

func put(router http.Handler, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPut, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestReferenceHandler_Lists(t *testing.T) {
	router := setupReferenceRouter(&stubMarketRates{}, stubSettingsWriter{})

	w := getPath(router, "/countries")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"US"`)

	w = getPath(router, "/market-rates")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":[]}`, w.Body.String())
}

func TestReferenceHandler_UpsertMarketRates(t *testing.T) {
	rates := &stubMarketRates{}
	router := setupReferenceRouter(rates, stubSettingsWriter{})

	w := put(router, "/market-rates", `[{"from_currency":"usd","to_currency":"XOF","rate":"605.25"}]`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Len(t, rates.upserted, 1)
	assert.Equal(t, "USD", rates.upserted[0].FromCurrency)
	assert.True(t, rates.upserted[0].Rate.Equal(decimal.RequireFromString("605.25")))

	for _, body := range []string{
		`[]`,
		`[{"from_currency":"USD","to_currency":"XOF","rate":"0"}]`,
		`[{"from_currency":"US","to_currency":"XOF","rate":"1"}]`,
		`{"from_currency":"USD"}`,
	} {
		assert.Equal(t, http.StatusBadRequest, put(router, "/market-rates", body).Code, body)
	}
}

func TestReferenceHandler_UpdateSetting(t *testing.T) {
	settings := stubSettingsWriter{}
	router := setupReferenceRouter(&stubMarketRates{}, settings)

	w := put(router, "/settings/fee_currency", `{"value":" eur "}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "EUR", settings["fee_currency"])

	w = put(router, "/settings/transfers_enabled", `{"value":"0"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "false", settings["transfers_enabled"])

	assert.Equal(t, http.StatusBadRequest, put(router, "/settings/fee_currency", `{"value":"euros"}`).Code)
	assert.Equal(t, http.StatusBadRequest, put(router, "/settings/transfers_enabled", `{"value":"maybe"}`).Code)
	assert.Equal(t, http.StatusBadRequest, put(router, "/settings/theme", `{"value":"dark"}`).Code)
	assert.Len(t, settings, 2)
}
