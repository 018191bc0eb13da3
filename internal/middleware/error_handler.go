package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"

	"github.com/gic/cashtransfer/internal/service"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// MapError maps domain errors first and falls back to database errors.
func MapError(err error) (int, ErrorResponse) {
	switch {
	case errors.Is(err, service.ErrLedgerTransaction):
		log.Error().Err(err).Msg("ledger transaction failed")
		return http.StatusInternalServerError, ErrorResponse{Error: "database error"}
	case errors.Is(err, service.ErrInvalidInput):
		return http.StatusBadRequest, ErrorResponse{Error: "invalid input", Details: err.Error()}
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{Error: "resource not found"}
	case errors.Is(err, service.ErrInsufficientBalance):
		return http.StatusConflict, ErrorResponse{Error: "insufficient balance", Details: err.Error()}
	case errors.Is(err, service.ErrRateResolution):
		return http.StatusUnprocessableEntity, ErrorResponse{Error: "no applicable transfer rate", Details: err.Error()}
	case errors.Is(err, service.ErrExchangeRateUnavailable):
		return http.StatusBadGateway, ErrorResponse{Error: "exchange rate unavailable"}
	case errors.Is(err, service.ErrTransfersDisabled):
		return http.StatusServiceUnavailable, ErrorResponse{Error: "transfers are disabled"}
	}
	return MapDBError(err)
}

func MapDBError(err error) (int, ErrorResponse) {
	if errors.Is(err, pgx.ErrNoRows) {
		return http.StatusNotFound, ErrorResponse{Error: "resource not found"}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return http.StatusConflict, ErrorResponse{
				Error:   "resource already exists",
				Details: pgErr.Detail,
			}
		case "23503": // foreign_key_violation
			return http.StatusBadRequest, ErrorResponse{
				Error:   "referenced resource does not exist",
				Details: pgErr.Detail,
			}
		case "23514": // check_violation
			return http.StatusBadRequest, ErrorResponse{
				Error:   "constraint violation",
				Details: pgErr.Detail,
			}
		case "23P01": // exclusion_violation
			return http.StatusConflict, ErrorResponse{
				Error:   "overlapping resource",
				Details: pgErr.Detail,
			}
		}
	}

	log.Error().Err(err).Msg("unhandled database error")
	return http.StatusInternalServerError, ErrorResponse{Error: "internal server error"}
}

func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last().Err
			status, resp := MapError(err)
			c.JSON(status, resp)
		}
	}
}
