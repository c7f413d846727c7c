package solana

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"vertax/internal/core/domain"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// MemoPrefix starts a disposal annotation memo: vertax:<SYMBOL>:<AMOUNT>:<PURCHASE_UNIX>.
const MemoPrefix = "vertax:"

// Normalizer implements ports.TransactionNormalizer for Solana signature records.
// It never invents a symbol, amount or timestamp; missing values stay nil for the processor to reject.
type Normalizer struct {
	log zerolog.Logger
}

func NewNormalizer(log zerolog.Logger) *Normalizer {
	return &Normalizer{log: log}
}

// Normalize returns the disposal described by raw, or false when raw carries none.
func (n *Normalizer) Normalize(raw domain.RawTransaction) (domain.Transaction, bool) {
	if raw.Signature == "" {
		n.log.Warn().Uint64("slot", raw.Slot).Msg("transaction missing signature")
		return domain.Transaction{}, false
	}
	if raw.Failed() {
		n.log.Debug().Str("signature", raw.Signature).Msg("ignoring failed transaction")
		return domain.Transaction{}, false
	}
	if raw.PartialFill {
		n.log.Warn().Str("signature", raw.Signature).Msg("transaction has a partial fill")
	}
	if raw.Instructions > 1 {
		n.log.Warn().Str("signature", raw.Signature).Int("instructions", raw.Instructions).Msg("transaction contains multiple instructions")
	}

	tx := domain.Transaction{
		Signature:    raw.Signature,
		TokenSymbol:  raw.TokenSymbol,
		Amount:       raw.Amount,
		PurchaseTime: raw.PurchaseTime,
		SellTime:     raw.SellTime,
	}

	explicit := raw.TokenSymbol != "" || raw.Amount != nil || raw.PurchaseTime != nil
	if !explicit {
		ann, ok := n.annotation(raw)
		if !ok {
			return domain.Transaction{}, false
		}
		tx.TokenSymbol = ann.symbol
		tx.Amount = &ann.amount
		tx.PurchaseTime = &ann.purchaseTime
	}

	// The disposal happens in this transaction, so its block time is the sale time.
	if tx.SellTime == nil && raw.BlockTime != nil {
		sell := *raw.BlockTime
		tx.SellTime = &sell
	}
	if tx.SellTime == nil {
		n.log.Warn().Str("signature", raw.Signature).Msg("transaction has no block time")
	}

	return tx, true
}

type memoAnnotation struct {
	symbol       string
	amount       decimal.Decimal
	purchaseTime int64
}

// annotation finds a disposal memo. The RPC node joins multiple memos with "; "
// and prefixes each with its byte length in brackets.
func (n *Normalizer) annotation(raw domain.RawTransaction) (memoAnnotation, bool) {
	if raw.Memo == nil {
		return memoAnnotation{}, false
	}

	for _, part := range strings.Split(*raw.Memo, "; ") {
		part = strings.TrimSpace(part)
		if strings.HasPrefix(part, "[") {
			if i := strings.Index(part, "] "); i > 0 {
				part = part[i+2:]
			}
		}
		if !strings.HasPrefix(part, MemoPrefix) {
			continue
		}

		ann, err := parseAnnotation(strings.TrimPrefix(part, MemoPrefix))
		if err != nil {
			n.log.Warn().Err(err).Str("signature", raw.Signature).Msg("ignoring malformed disposal memo")
			return memoAnnotation{}, false
		}
		return ann, true
	}
	return memoAnnotation{}, false
}

func parseAnnotation(s string) (memoAnnotation, error) {
	fields := strings.Split(s, ":")
	if len(fields) != 3 {
		return memoAnnotation{}, errors.New("expected SYMBOL:AMOUNT:PURCHASE_UNIX")
	}

	symbol := strings.TrimSpace(fields[0])
	if symbol == "" {
		return memoAnnotation{}, errors.New("empty symbol")
	}
	amount, err := decimal.NewFromString(fields[1])
	if err != nil {
		return memoAnnotation{}, fmt.Errorf("invalid amount: %w", err)
	}
	if !amount.IsPositive() {
		return memoAnnotation{}, errors.New("amount must be positive")
	}
	purchase, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return memoAnnotation{}, fmt.Errorf("invalid purchase time: %w", err)
	}

	return memoAnnotation{symbol: symbol, amount: amount, purchaseTime: purchase}, nil
}
