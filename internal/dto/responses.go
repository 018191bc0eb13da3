package dto

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/gic/cashtransfer/internal/model"
)

type SettlementResponse struct {
	ID                string                 `json:"id"`
	SenderCountryID   int64                  `json:"sender_country_id"`
	ReceiverCountryID int64                  `json:"receiver_country_id"`
	PaymentMethodID   int64                  `json:"payment_method_id"`
	Amount            decimal.Decimal        `json:"amount"`
	Status            model.SettlementStatus `json:"status"`
	Quote             json.RawMessage        `json:"quote,omitempty"`
	Note              json.RawMessage        `json:"note,omitempty"`
	NoteDescription   string                 `json:"note_description,omitempty"`
	CreatedAt         time.Time              `json:"created_at"`
}

func NewSettlementResponse(s *model.Settlement) (SettlementResponse, error) {
	note, err := model.MarshalNote(s.Note)
	if err != nil {
		return SettlementResponse{}, err
	}
	return SettlementResponse{
		ID:                s.ID,
		SenderCountryID:   s.SenderCountryID,
		ReceiverCountryID: s.ReceiverCountryID,
		PaymentMethodID:   s.PaymentMethodID,
		Amount:            s.Amount,
		Status:            s.Status,
		Quote:             s.Quote,
		Note:              note,
		NoteDescription:   model.DescribeNote(s.Note),
		CreatedAt:         s.CreatedAt,
	}, nil
}

type ErrorListResponse struct {
	Error string `json:"error"`
}

type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalItems int `json:"total_items"`
	TotalPages int `json:"total_pages"`
}
