package handler

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gic/cashtransfer/internal/dto"
	"github.com/gic/cashtransfer/internal/model"
	"github.com/gic/cashtransfer/internal/service"
)

type CountryLister interface {
	List(ctx context.Context) ([]model.Country, error)
}

type MarketRateStore interface {
	List(ctx context.Context) ([]model.MarketRate, error)
	Upsert(ctx context.Context, rates []model.MarketRate) error
}

type SettingsWriter interface {
	Set(ctx context.Context, key, value string) error
}

var currencyCode = regexp.MustCompile(`^[A-Z]{3}$`)

// ReferenceHandler serves the reference data operators maintain by hand:
// countries, stored market rates and platform settings.
type ReferenceHandler struct {
	countries   CountryLister
	marketRates MarketRateStore
	settings    SettingsWriter
}

func NewReferenceHandler(countries CountryLister, marketRates MarketRateStore, settings SettingsWriter) *ReferenceHandler {
	return &ReferenceHandler{countries: countries, marketRates: marketRates, settings: settings}
}

func (h *ReferenceHandler) ListCountries(c *gin.Context) {
	countries, err := h.countries.List(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	if countries == nil {
		countries = []model.Country{}
	}
	c.JSON(http.StatusOK, gin.H{"data": countries})
}

func (h *ReferenceHandler) ListMarketRates(c *gin.Context) {
	rates, err := h.marketRates.List(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	if rates == nil {
		rates = []model.MarketRate{}
	}
	c.JSON(http.StatusOK, gin.H{"data": rates})
}

func (h *ReferenceHandler) UpsertMarketRates(c *gin.Context) {
	var reqs []dto.MarketRateRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorListResponse{
			Error: "validation failed: " + err.Error(),
		})
		return
	}
	if len(reqs) == 0 {
		c.JSON(http.StatusBadRequest, dto.ErrorListResponse{Error: "validation failed: no rates given"})
		return
	}

	rates := make([]model.MarketRate, 0, len(reqs))
	for i, r := range reqs {
		if !r.Rate.IsPositive() {
			c.JSON(http.StatusBadRequest, dto.ErrorListResponse{
				Error: fmt.Sprintf("validation failed: rates[%d]: rate must be positive", i),
			})
			return
		}
		rates = append(rates, model.MarketRate{
			FromCurrency: strings.ToUpper(r.FromCurrency),
			ToCurrency:   strings.ToUpper(r.ToCurrency),
			Rate:         r.Rate,
		})
	}

	if err := h.marketRates.Upsert(c.Request.Context(), rates); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": len(rates)})
}

func (h *ReferenceHandler) UpdateSetting(c *gin.Context) {
	key := c.Param("key")

	var req dto.SettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorListResponse{
			Error: "validation failed: " + err.Error(),
		})
		return
	}

	value, err := normalizeSetting(key, req.Value)
	if err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.settings.Set(c.Request.Context(), key, value); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "value": value})
}

func normalizeSetting(key, value string) (string, error) {
	switch key {
	case service.SettingFeeCurrency:
		value = strings.ToUpper(strings.TrimSpace(value))
		if !currencyCode.MatchString(value) {
			return "", fmt.Errorf("%w: %s must be an ISO 4217 code", service.ErrInvalidInput, key)
		}
		return value, nil
	case service.SettingTransfersEnabled:
		b, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return "", fmt.Errorf("%w: %s must be a boolean", service.ErrInvalidInput, key)
		}
		return strconv.FormatBool(b), nil
	default:
		return "", fmt.Errorf("%w: unknown setting %q", service.ErrInvalidInput, key)
	}
}
