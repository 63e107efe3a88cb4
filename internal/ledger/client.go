// internal/ledger/client.go
//
// Client for the pay-to-play ledger contract.
// Responsibilities:
//   - Authoritative reads: hasEntered(address), entryFeeWei().
//   - Call-bundle submission via the wallet provider (wallet_sendCalls,
//     EIP-5792) and status polling (wallet_getCallsStatus).
//   - Underlying transaction confirmation (eth_getTransactionReceipt).
//
// Two transports are involved: contract reads and receipts go to the node
// endpoint, bundle submission and status go to the wallet provider endpoint,
// matching how a wallet-connected client splits this traffic.

package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Rufusemmanuel/hangman/internal/ethrpc"
)

// Call is a single outbound ledger call within a bundle.
type Call struct {
	To    string   // contract address, 0x-prefixed
	Data  []byte   // calldata, attribution suffix included when applicable
	Value *big.Int // wei attached to the call; nil means zero
}

// BundleStatus is the terminal state of a submitted call bundle.
type BundleStatus struct {
	Succeeded bool
	TxHash    string // produced transaction hash, "" if the wallet reported none
}

// Ledger is the read/write surface the session controller consumes.
// Implementations: *Client (live), test fakes.
type Ledger interface {
	HasEntered(ctx context.Context, account string) (bool, error)
	EntryFee(ctx context.Context) (*big.Int, error)
	SubmitBundle(ctx context.Context, from string, calls []Call, capabilities map[string]any) (string, error)
	AwaitBundle(ctx context.Context, id string) (BundleStatus, error)
	AwaitTransaction(ctx context.Context, hash string) error
}

// ErrTimeout is returned when bundle or receipt polling exhausts its budget.
var ErrTimeout = errors.New("ledger: confirmation timed out")

// Client talks to one pay-to-play contract on one chain.
type Client struct {
	node     *ethrpc.Client // contract reads, transaction receipts
	wallet   *ethrpc.Client // wallet_sendCalls, wallet_getCallsStatus
	contract string
	chainID  uint64

	// Polling knobs, overridable in tests.
	PollInterval time.Duration
	PollTimeout  time.Duration
}

// NewClient constructs a Client over the given transports.
func NewClient(node, wallet *ethrpc.Client, contract string, chainID uint64) *Client {
	return &Client{
		node:         node,
		wallet:       wallet,
		contract:     contract,
		chainID:      chainID,
		PollInterval: 2 * time.Second,
		PollTimeout:  2 * time.Minute,
	}
}

// ethCallArgs is the positional object for eth_call.
type ethCallArgs struct {
	To   string `json:"to"`
	Data string `json:"data"`
}

// HasEntered reads the authoritative entered flag for account.
func (c *Client) HasEntered(ctx context.Context, account string) (bool, error) {
	word, err := PadAddress(account)
	if err != nil {
		return false, err
	}
	data := EncodeCall("hasEntered(address)", word)
	var out string
	if err := c.node.Call(ctx, &out, "eth_call", []any{ethCallArgs{To: c.contract, Data: bytesToHex(data)}, "latest"}); err != nil {
		return false, fmt.Errorf("hasEntered: %w", err)
	}
	return hexToBool(out)
}

// EntryFee reads the current entry fee in wei.
func (c *Client) EntryFee(ctx context.Context) (*big.Int, error) {
	var out string
	if err := c.node.Call(ctx, &out, "eth_call", []any{ethCallArgs{To: c.contract, Data: bytesToHex(EncodeCall("entryFeeWei()"))}, "latest"}); err != nil {
		return nil, fmt.Errorf("entryFeeWei: %w", err)
	}
	return hexToBig(out)
}

// sendCallsReq mirrors the EIP-5792 wallet_sendCalls parameter object.
type sendCallsReq struct {
	Version      string         `json:"version"`
	ChainID      string         `json:"chainId"`
	From         string         `json:"from"`
	Calls        []sendCall     `json:"calls"`
	Capabilities map[string]any `json:"capabilities,omitempty"`
}

type sendCall struct {
	To    string `json:"to"`
	Data  string `json:"data,omitempty"`
	Value string `json:"value,omitempty"`
}

// SubmitBundle submits calls as one bundle through the wallet provider and
// returns the bundle identifier.
func (c *Client) SubmitBundle(ctx context.Context, from string, calls []Call, capabilities map[string]any) (string, error) {
	req := sendCallsReq{
		Version:      "2.0.0",
		ChainID:      fmt.Sprintf("0x%x", c.chainID),
		From:         from,
		Capabilities: capabilities,
	}
	for _, call := range calls {
		sc := sendCall{To: call.To, Data: bytesToHex(call.Data)}
		if call.Value != nil && call.Value.Sign() > 0 {
			sc.Value = bigToHex(call.Value)
		}
		req.Calls = append(req.Calls, sc)
	}

	// Submit once; newer wallets return {"id":"..."}, older a bare string.
	var raw json.RawMessage
	if err := c.wallet.Call(ctx, &raw, "wallet_sendCalls", []any{req}); err != nil {
		return "", fmt.Errorf("wallet_sendCalls: %w", err)
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.ID != "" {
		return obj.ID, nil
	}
	var id string
	if err := json.Unmarshal(raw, &id); err == nil && id != "" {
		return id, nil
	}
	return "", errors.New("wallet_sendCalls: unrecognized bundle id shape")
}

// callsStatusRes mirrors the EIP-5792 wallet_getCallsStatus result.
type callsStatusRes struct {
	Status   int `json:"status"`
	Receipts []struct {
		TransactionHash string `json:"transactionHash"`
		Status          string `json:"status"`
	} `json:"receipts"`
}

// AwaitBundle polls the wallet until the bundle reaches a terminal status.
// Status 100 is pending, 200 confirmed, anything >= 400 failed.
func (c *Client) AwaitBundle(ctx context.Context, id string) (BundleStatus, error) {
	deadline := time.Now().Add(c.PollTimeout)
	for {
		var res callsStatusRes
		if err := c.wallet.Call(ctx, &res, "wallet_getCallsStatus", []any{id}); err != nil {
			return BundleStatus{}, fmt.Errorf("bundle %s: %w", id, err)
		}
		switch {
		case res.Status == 200:
			st := BundleStatus{Succeeded: true}
			if len(res.Receipts) > 0 {
				st.TxHash = res.Receipts[0].TransactionHash
			}
			return st, nil
		case res.Status >= 400:
			log.Warn().Str("bundle", id).Int("status", res.Status).Msg("bundle failed")
			return BundleStatus{Succeeded: false}, nil
		}
		if time.Now().After(deadline) {
			return BundleStatus{}, ErrTimeout
		}
		select {
		case <-ctx.Done():
			return BundleStatus{}, ctx.Err()
		case <-time.After(c.PollInterval):
		}
	}
}

// AwaitTransaction polls for the transaction receipt until it is mined.
// A mined receipt with status 0x0 counts as failure.
func (c *Client) AwaitTransaction(ctx context.Context, hash string) error {
	deadline := time.Now().Add(c.PollTimeout)
	for {
		var receipt *struct {
			Status string `json:"status"`
		}
		if err := c.node.Call(ctx, &receipt, "eth_getTransactionReceipt", []any{hash}); err != nil {
			return fmt.Errorf("receipt %s: %w", hash, err)
		}
		if receipt != nil {
			ok, err := hexToBool(receipt.Status)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("transaction %s reverted", hash)
			}
			return nil
		}
		if time.Now().After(deadline) {
			return ErrTimeout
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.PollInterval):
		}
	}
}

// Contract returns the configured contract address.
func (c *Client) Contract() string { return c.contract }
