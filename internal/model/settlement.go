package model

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type SettlementStatus string

const (
	SettlementPending      SettlementStatus = "PENDING"
	SettlementCompleted    SettlementStatus = "COMPLETED"
	SettlementFailed       SettlementStatus = "FAILED"
	SettlementManualReview SettlementStatus = "MANUAL_REVIEW"
)

// Settlement is the audit record of one balance transfer between the
// receiver's and the sender's sub-wallets.
type Settlement struct {
	ID                string           `json:"id"`
	SenderCountryID   int64            `json:"sender_country_id"`
	ReceiverCountryID int64            `json:"receiver_country_id"`
	PaymentMethodID   int64            `json:"payment_method_id"`
	Amount            decimal.Decimal  `json:"amount"`
	Status            SettlementStatus `json:"status"`
	Quote             json.RawMessage  `json:"quote,omitempty"`
	Note              SettlementNote   `json:"-"`
	CreatedAt         time.Time        `json:"created_at"`
}

type NoteKind string

const (
	NoteManualProcessingRequired NoteKind = "manual_processing_required"
	NoteTransferCompleted        NoteKind = "transfer_completed"
	NoteFailureInfo              NoteKind = "failure_info"
)

// SettlementNote is the closed set of operator-facing metadata attached to a
// settlement. Only the variants in this file implement it.
type SettlementNote interface {
	Kind() NoteKind
	isSettlementNote()
}

type ManualProcessingRequired struct {
	Reason   string `json:"reason"`
	Provider string `json:"provider,omitempty"`
}

type TransferCompleted struct {
	Reference   string    `json:"reference"`
	CompletedAt time.Time `json:"completed_at"`
}

type FailureInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Step    string `json:"step,omitempty"`
}

func (ManualProcessingRequired) Kind() NoteKind { return NoteManualProcessingRequired }
func (TransferCompleted) Kind() NoteKind        { return NoteTransferCompleted }
func (FailureInfo) Kind() NoteKind              { return NoteFailureInfo }

func (ManualProcessingRequired) isSettlementNote() {}
func (TransferCompleted) isSettlementNote()        {}
func (FailureInfo) isSettlementNote()              {}

type noteEnvelope struct {
	Kind NoteKind        `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// MarshalNote encodes a note as {"kind": ..., "data": {...}}. A nil note
// encodes to nil.
func MarshalNote(n SettlementNote) ([]byte, error) {
	if n == nil {
		return nil, nil
	}
	data, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("marshal %s note: %w", n.Kind(), err)
	}
	return json.Marshal(noteEnvelope{Kind: n.Kind(), Data: data})
}

func UnmarshalNote(raw []byte) (SettlementNote, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var env noteEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode note envelope: %w", err)
	}

	switch env.Kind {
	case NoteManualProcessingRequired:
		var n ManualProcessingRequired
		err := json.Unmarshal(env.Data, &n)
		return n, wrapNoteErr(env.Kind, err)
	case NoteTransferCompleted:
		var n TransferCompleted
		err := json.Unmarshal(env.Data, &n)
		return n, wrapNoteErr(env.Kind, err)
	case NoteFailureInfo:
		var n FailureInfo
		err := json.Unmarshal(env.Data, &n)
		return n, wrapNoteErr(env.Kind, err)
	default:
		return nil, fmt.Errorf("unknown note kind %q", env.Kind)
	}
}

func wrapNoteErr(kind NoteKind, err error) error {
	if err != nil {
		return fmt.Errorf("decode %s note: %w", kind, err)
	}
	return nil
}

// DescribeNote renders a note for operators.
func DescribeNote(n SettlementNote) string {
	switch v := n.(type) {
	case nil:
		return ""
	case ManualProcessingRequired:
		if v.Provider != "" {
			return fmt.Sprintf("manual processing required (%s): %s", v.Provider, v.Reason)
		}
		return "manual processing required: " + v.Reason
	case TransferCompleted:
		return fmt.Sprintf("transfer %s completed at %s", v.Reference, v.CompletedAt.Format(time.RFC3339))
	case FailureInfo:
		if v.Step != "" {
			return fmt.Sprintf("failed at %s [%s]: %s", v.Step, v.Code, v.Message)
		}
		return fmt.Sprintf("failed [%s]: %s", v.Code, v.Message)
	default:
		panic(fmt.Sprintf("unhandled settlement note %T", n))
	}
}
