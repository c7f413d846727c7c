package solana

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"vertax/internal/core/domain"
	"vertax/pkg/logger"

	"github.com/rs/zerolog"
)

// maxSignaturesPerPage is the node-side cap of getSignaturesForAddress.
const maxSignaturesPerPage = 1000

// Client is a minimal Solana JSON-RPC client. It implements ports.TransactionSource
// and ports.HealthChecker.
type Client struct {
	rpcURL string
	limit  int
	http   *http.Client
	nextID atomic.Int64
	log    zerolog.Logger
}

// NewClient creates a client that fetches at most limit signatures per wallet.
func NewClient(rpcURL string, limit int, timeout time.Duration, log zerolog.Logger) *Client {
	if limit <= 0 {
		limit = maxSignaturesPerPage
	}
	return &Client{
		rpcURL: rpcURL,
		limit:  limit,
		http:   &http.Client{Timeout: timeout},
		log:    log,
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type signatureInfo struct {
	Signature          string          `json:"signature"`
	Slot               uint64          `json:"slot"`
	Err                json.RawMessage `json:"err"`
	Memo               *string         `json:"memo"`
	BlockTime          *int64          `json:"blockTime"`
	ConfirmationStatus string          `json:"confirmationStatus"`
}

// FetchTransactions returns the signature history of wallet, newest first.
// RPC and transport failures are logged and produce an empty slice.
func (c *Client) FetchTransactions(ctx context.Context, wallet string) []domain.RawTransaction {
	txs, err := c.fetchSignatures(ctx, wallet)
	if err != nil {
		c.log.Error().Err(err).Str("wallet", logger.MaskAddress(wallet)).Msg("fetching wallet transactions failed")
		return []domain.RawTransaction{}
	}
	return txs
}

func (c *Client) fetchSignatures(ctx context.Context, wallet string) ([]domain.RawTransaction, error) {
	out := make([]domain.RawTransaction, 0)
	before := ""

	for len(out) < c.limit {
		pageSize := min(c.limit-len(out), maxSignaturesPerPage)
		opts := map[string]any{"limit": pageSize}
		if before != "" {
			opts["before"] = before
		}

		var page []signatureInfo
		if err := c.call(ctx, "getSignaturesForAddress", []any{wallet, opts}, &page); err != nil {
			return nil, err
		}

		for _, s := range page {
			out = append(out, domain.RawTransaction{
				Signature:          s.Signature,
				Slot:               s.Slot,
				BlockTime:          s.BlockTime,
				Err:                s.Err,
				Memo:               s.Memo,
				ConfirmationStatus: s.ConfirmationStatus,
			})
		}

		if len(page) < pageSize {
			break
		}
		before = page[len(page)-1].Signature
	}

	c.log.Debug().Str("wallet", logger.MaskAddress(wallet)).Int("count", len(out)).Msg("wallet signatures fetched")
	return out, nil
}

// Ping implements ports.HealthChecker using getHealth.
func (c *Client) Ping(ctx context.Context) error {
	var status string
	if err := c.call(ctx, "getHealth", nil, &status); err != nil {
		return err
	}
	if status != "ok" {
		return fmt.Errorf("node unhealthy: %s", status)
	}
	return nil
}

func (c *Client) Name() string { return "solana_rpc" }

func (c *Client) call(ctx context.Context, method string, params []any, out any) error {
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("encoding %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: http status %d", method, resp.StatusCode)
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("decoding %s response: %w", method, err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("%s: %w", method, rpcResp.Error)
	}
	if len(rpcResp.Result) == 0 {
		return errors.New(method + ": empty result")
	}
	if err := json.Unmarshal(rpcResp.Result, out); err != nil {
		return fmt.Errorf("decoding %s result: %w", method, err)
	}
	return nil
}
