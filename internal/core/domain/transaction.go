package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// RawTransaction is a record as delivered by a transaction source, before normalization.
// On-chain fields come from the RPC node; the disposal fields are optional annotations
// supplied by an indexer or an API caller.
type RawTransaction struct {
	Signature          string          `json:"signature"`
	Slot               uint64          `json:"slot,omitempty"`
	BlockTime          *int64          `json:"block_time,omitempty"`
	Err                json.RawMessage `json:"err,omitempty"`
	Memo               *string         `json:"memo,omitempty"`
	ConfirmationStatus string          `json:"confirmation_status,omitempty"`
	Instructions       int             `json:"instructions,omitempty"`
	PartialFill        bool            `json:"partial_fill,omitempty"`

	TokenSymbol  string           `json:"token_symbol,omitempty"`
	Amount       *decimal.Decimal `json:"amount,omitempty"`
	PurchaseTime *int64           `json:"purchase_time,omitempty"`
	SellTime     *int64           `json:"sell_time,omitempty"`
}

// Failed returns true if the chain reported an execution error for this record.
func (r *RawTransaction) Failed() bool {
	return len(r.Err) > 0 && string(r.Err) != "null"
}

// Transaction is one normalized disposal: an acquisition and its sale.
// Pointer fields are nil when the source could not supply them.
type Transaction struct {
	Signature    string           `json:"signature"`
	TokenSymbol  string           `json:"token_symbol"`
	Amount       *decimal.Decimal `json:"amount"`
	PurchaseTime *int64           `json:"purchase_time"`
	SellTime     *int64           `json:"sell_time"`
}

// MissingField returns the name of the first absent required field, or "" when complete.
func (t *Transaction) MissingField() string {
	switch {
	case t.PurchaseTime == nil:
		return "purchase_time"
	case t.SellTime == nil:
		return "sell_time"
	case t.TokenSymbol == "":
		return "token_symbol"
	case t.Amount == nil:
		return "amount"
	}
	return ""
}
