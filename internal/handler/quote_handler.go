package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gic/cashtransfer/internal/dto"
	"github.com/gic/cashtransfer/internal/service"
)

type Quoter interface {
	Quote(ctx context.Context, req service.QuoteRequest) (*service.Breakdown, error)
}

type QuoteHandler struct {
	svc Quoter
}

func NewQuoteHandler(svc Quoter) *QuoteHandler {
	return &QuoteHandler{svc: svc}
}

func (h *QuoteHandler) Create(c *gin.Context) {
	var req dto.QuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorListResponse{
			Error: "validation failed: " + err.Error(),
		})
		return
	}

	breakdown, err := h.svc.Quote(c.Request.Context(), service.QuoteRequest{
		SenderCountryID:   req.SenderCountryID,
		ReceiverCountryID: req.ReceiverCountryID,
		Amount:            req.Amount,
	})
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, breakdown)
}
