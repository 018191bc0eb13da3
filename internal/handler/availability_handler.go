package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/gic/cashtransfer/internal/service"
)

type MethodMatcher interface {
	Match(ctx context.Context, senderCountryID, receiverCountryID int64, amount decimal.Decimal) ([]service.AvailableMethod, error)
}

type AvailabilityHandler struct {
	svc MethodMatcher
}

func NewAvailabilityHandler(svc MethodMatcher) *AvailabilityHandler {
	return &AvailabilityHandler{svc: svc}
}

// GetAvailable answers malformed queries with an empty list, the same as the
// matcher does for out-of-range values.
func (h *AvailabilityHandler) GetAvailable(c *gin.Context) {
	empty := gin.H{"data": []service.AvailableMethod{}}

	sender, err := strconv.ParseInt(c.Query("sender_country_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusOK, empty)
		return
	}
	receiver, err := strconv.ParseInt(c.Query("receiver_country_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusOK, empty)
		return
	}
	amount, err := decimal.NewFromString(c.Query("amount"))
	if err != nil {
		c.JSON(http.StatusOK, empty)
		return
	}

	methods, err := h.svc.Match(c.Request.Context(), sender, receiver, amount)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": methods})
}
