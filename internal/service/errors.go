package service

import (
	"errors"
	"fmt"

	"github.com/gic/cashtransfer/internal/model"
)

var (
	ErrInvalidInput            = errors.New("invalid input")
	ErrNotFound                = model.ErrNotFound
	ErrRateResolution          = errors.New("no applicable transfer rate")
	ErrExchangeRateUnavailable = errors.New("exchange rate unavailable")
	ErrInsufficientBalance     = errors.New("insufficient balance")
	ErrLedgerTransaction       = errors.New("database error")
	ErrTransfersDisabled       = errors.New("transfers are disabled")
)

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
