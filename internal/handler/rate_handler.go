package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gic/cashtransfer/internal/dto"
	"github.com/gic/cashtransfer/internal/model"
	"github.com/gic/cashtransfer/internal/service"
)

type RateAdmin interface {
	List(ctx context.Context, kind model.ScopeKind, limit, offset int) ([]model.TransferRate, int, error)
	Get(ctx context.Context, id int64) (*model.TransferRate, error)
	Create(ctx context.Context, rate *model.TransferRate) error
	Update(ctx context.Context, rate *model.TransferRate) error
	Deactivate(ctx context.Context, id int64) error
}

type RateHandler struct {
	svc RateAdmin
}

func NewRateHandler(svc RateAdmin) *RateHandler {
	return &RateHandler{svc: svc}
}

func (h *RateHandler) List(c *gin.Context) {
	kind := model.ScopeKind(c.Query("scope"))
	switch kind {
	case "", model.ScopeGlobal, model.ScopeCountry, model.ScopeCorridor:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid scope filter"})
		return
	}

	p := dto.ParsePagination(c)

	rates, totalItems, err := h.svc.List(c.Request.Context(), kind, p.PageSize, p.Offset)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if rates == nil {
		rates = []model.TransferRate{}
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       rates,
		"pagination": dto.NewPagination(p.Page, p.PageSize, totalItems),
	})
}

func (h *RateHandler) Get(c *gin.Context) {
	id, ok := rateID(c)
	if !ok {
		return
	}

	rate, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, rate)
}

func (h *RateHandler) Create(c *gin.Context) {
	var req dto.TransferRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorListResponse{
			Error: "validation failed: " + err.Error(),
		})
		return
	}

	rate := req.ToModel()
	if err := h.svc.Create(c.Request.Context(), &rate); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, rate)
}

func (h *RateHandler) Update(c *gin.Context) {
	id, ok := rateID(c)
	if !ok {
		return
	}

	var req dto.TransferRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorListResponse{
			Error: "validation failed: " + err.Error(),
		})
		return
	}

	rate := req.ToModel()
	rate.ID = id
	if err := h.svc.Update(c.Request.Context(), &rate); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, rate)
}

func (h *RateHandler) Deactivate(c *gin.Context) {
	id, ok := rateID(c)
	if !ok {
		return
	}

	if err := h.svc.Deactivate(c.Request.Context(), id); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func rateID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		_ = c.Error(fmt.Errorf("%w: rate id must be a positive integer", service.ErrInvalidInput))
		return 0, false
	}
	return id, true
}
