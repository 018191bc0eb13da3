package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/gic/cashtransfer/internal/dto"
	"github.com/gic/cashtransfer/internal/model"
	"github.com/gic/cashtransfer/internal/service"
)

type Settler interface {
	SettleTransfer(ctx context.Context, req service.SettleRequest) (*model.Settlement, error)
}

type SettlementReader interface {
	FindByID(ctx context.Context, id string) (*model.Settlement, error)
	List(ctx context.Context, status model.SettlementStatus, limit, offset int) ([]model.Settlement, int, error)
}

type SettlementHandler struct {
	ledger      Settler
	settlements SettlementReader
}

func NewSettlementHandler(ledger Settler, settlements SettlementReader) *SettlementHandler {
	return &SettlementHandler{ledger: ledger, settlements: settlements}
}

func (h *SettlementHandler) Create(c *gin.Context) {
	var req dto.SettlementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorListResponse{
			Error: "validation failed: " + err.Error(),
		})
		return
	}

	s, err := h.ledger.SettleTransfer(c.Request.Context(), service.SettleRequest{
		SenderCountryID:   req.SenderCountryID,
		ReceiverCountryID: req.ReceiverCountryID,
		PaymentMethodID:   req.PaymentMethodID,
		Amount:            req.Amount,
		Quote:             req.Quote,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	h.respond(c, http.StatusCreated, s)
}

func (h *SettlementHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		_ = c.Error(fmt.Errorf("%w: settlement id must be a uuid", service.ErrInvalidInput))
		return
	}

	s, err := h.settlements.FindByID(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}

	h.respond(c, http.StatusOK, s)
}

func (h *SettlementHandler) List(c *gin.Context) {
	status := model.SettlementStatus(strings.ToUpper(c.Query("status")))
	switch status {
	case "", model.SettlementPending, model.SettlementCompleted, model.SettlementFailed, model.SettlementManualReview:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status filter"})
		return
	}

	p := dto.ParsePagination(c)

	settlements, totalItems, err := h.settlements.List(c.Request.Context(), status, p.PageSize, p.Offset)
	if err != nil {
		_ = c.Error(err)
		return
	}

	results := make([]dto.SettlementResponse, 0, len(settlements))
	for i := range settlements {
		resp, err := dto.NewSettlementResponse(&settlements[i])
		if err != nil {
			_ = c.Error(err)
			return
		}
		results = append(results, resp)
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       results,
		"pagination": dto.NewPagination(p.Page, p.PageSize, totalItems),
	})
}

func (h *SettlementHandler) respond(c *gin.Context, status int, s *model.Settlement) {
	resp, err := dto.NewSettlementResponse(s)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(status, resp)
}
