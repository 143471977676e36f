// Package chain talks to a Verus-style daemon over JSON-RPC for block
// entropy and on-chain identities.
package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/vdappdev2/vcharacter-sales/internal/platform/errors"
	"github.com/vdappdev2/vcharacter-sales/internal/platform/timeouts"
)

// EntropySource supplies block entropy for seed pairs.
type EntropySource interface {
	BestHeight(ctx context.Context) (uint64, error)
	BlockHash(ctx context.Context, height uint64) (string, error)
	WaitForHeight(ctx context.Context, height uint64) (string, error)
}

// Client is a JSON-RPC 2.0 client for the daemon.
type Client struct {
	RPCURL   string
	Username string
	Password string
	HTTP     *http.Client
	// PollInterval paces WaitForHeight between best-height checks.
	PollInterval time.Duration
}

// NewClient builds a daemon client with sane timeouts.
func NewClient(rpcURL, username, password string) *Client {
	return &Client{
		RPCURL:   strings.TrimRight(rpcURL, "/"),
		Username: username,
		Password: password,
		HTTP: &http.Client{
			Timeout: timeouts.ChainRPC,
		},
		PollInterval: timeouts.ChainPoll,
	}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// Call runs one JSON-RPC method and decodes its result into out.
// Transport failures map to CodeChainUnavailable; daemon-reported
// errors come back as *RPCError.
func (c *Client) Call(ctx context.Context, method string, params []any, out any) error {
	if params == nil {
		params = []any{}
	}
	raw, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("marshal rpc request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.RPCURL, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("build rpc request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Username != "" {
		req.SetBasicAuth(c.Username, c.Password)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeChainUnavailable, "daemon unreachable", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return apperrors.Wrap(apperrors.CodeChainUnavailable, "read daemon response", err)
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return apperrors.WithMetadata(apperrors.CodeChainUnavailable, "daemon rejected credentials", map[string]string{
			"status": fmt.Sprintf("%d", resp.StatusCode),
		})
	}

	var decoded rpcResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		if resp.StatusCode >= 300 {
			return apperrors.WithMetadata(apperrors.CodeChainUnavailable, "daemon status "+resp.Status, map[string]string{
				"status": fmt.Sprintf("%d", resp.StatusCode),
			})
		}
		return apperrors.Wrap(apperrors.CodeChainUnavailable, "decode daemon response", err)
	}
	if decoded.Error != nil {
		return &RPCError{Method: method, Code: decoded.Error.Code, Message: decoded.Error.Message}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(decoded.Result, out); err != nil {
		return apperrors.Wrap(apperrors.CodeChainUnavailable, "decode rpc result", err)
	}
	return nil
}

// RPCError is a daemon-reported JSON-RPC error.
type RPCError struct {
	Method  string
	Code    int
	Message string
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc %s: %s (code %d)", e.Method, e.Message, e.Code)
}

// BestHeight returns the daemon's current chain tip height.
func (c *Client) BestHeight(ctx context.Context) (uint64, error) {
	var height uint64
	if err := c.Call(ctx, "getbestheight", nil, &height); err != nil {
		return 0, err
	}
	return height, nil
}

// BlockHash returns the block hash at the given height. Heights past
// the tip map to CodeBlockUnknown.
func (c *Client) BlockHash(ctx context.Context, height uint64) (string, error) {
	var hash string
	err := c.Call(ctx, "getblockhash", []any{height}, &hash)
	if err != nil {
		var rpcErr *RPCError
		if errors.As(err, &rpcErr) {
			return "", apperrors.WrapWithMetadata(apperrors.CodeBlockUnknown, "block height unknown", map[string]string{
				"height": fmt.Sprintf("%d", height),
			}, err)
		}
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(hash)), nil
}

// WaitForHeight blocks until the chain reaches the given height and
// returns that block's hash. Cancellation stops the poll.
func (c *Client) WaitForHeight(ctx context.Context, height uint64) (string, error) {
	interval := c.PollInterval
	if interval <= 0 {
		interval = timeouts.ChainPoll
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		best, err := c.BestHeight(ctx)
		if err != nil {
			return "", err
		}
		if best >= height {
			return c.BlockHash(ctx, height)
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
}

var _ EntropySource = (*Client)(nil)
