// internal/ethrpc/client.go
//
// Minimal JSON-RPC 2.0 client over HTTP POST, shared by the ledger client
// (node endpoint) and the wallet bridge (wallet provider endpoint).
//
// Responsibilities:
//   - Serialize requests, deserialize results into caller-provided values.
//   - Surface JSON-RPC error objects as Go errors.
//   - Honor context cancellation on every call.

package ethrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

// Client issues JSON-RPC 2.0 calls against a single HTTP endpoint.
type Client struct {
	url    string
	hc     *http.Client
	nextID atomic.Int64
}

// New constructs a Client for the given endpoint URL.
func New(url string) *Client {
	return &Client{
		url: url,
		hc:  &http.Client{Timeout: 30 * time.Second},
	}
}

type request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type response struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// rpcError is the JSON-RPC 2.0 error object.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// Call invokes method with params and unmarshals the result into out.
// A nil out discards the result. Params marshalling follows the JSON-RPC
// positional convention (pass a slice for multiple arguments).
func (c *Client) Call(ctx context.Context, out any, method string, params any) error {
	req := request{JSONRPC: "2.0", ID: c.nextID.Add(1), Method: method, Params: params}
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", method, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	res, err := c.hc.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: unexpected status %d", method, res.StatusCode)
	}

	var rpcRes response
	if err := json.NewDecoder(res.Body).Decode(&rpcRes); err != nil {
		return fmt.Errorf("decode %s: %w", method, err)
	}
	if rpcRes.Error != nil {
		log.Debug().Str("method", method).Int("code", rpcRes.Error.Code).Msg("rpc error")
		return fmt.Errorf("%s: %w", method, rpcRes.Error)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(rpcRes.Result, out); err != nil {
		return fmt.Errorf("unmarshal %s result: %w", method, err)
	}
	return nil
}
