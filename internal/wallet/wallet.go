// internal/wallet/wallet.go
//
// Wallet surface consumed by the session controller: account/chain reads,
// chain-switch requests, and raw capability queries. The RPC implementation
// bridges to a wallet provider endpoint (connector daemon, smart-wallet RPC,
// or a node with managed accounts).

package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Rufusemmanuel/hangman/internal/ethrpc"
)

// Wallet is the connected-wallet surface.
// CurrentAccount returns ok=false when no account is connected.
type Wallet interface {
	CurrentAccount(ctx context.Context) (account string, ok bool)
	CurrentChain(ctx context.Context) (uint64, error)
	RequestChainSwitch(ctx context.Context, chainID uint64) error
	QueryCapability(ctx context.Context, method string, params any) (json.RawMessage, error)
}

// RPC is a Wallet backed by a JSON-RPC wallet provider.
type RPC struct {
	rpc *ethrpc.Client
}

// NewRPC wraps a transport as a Wallet.
func NewRPC(rpc *ethrpc.Client) *RPC { return &RPC{rpc: rpc} }

// CurrentAccount returns the provider's first exposed account.
func (w *RPC) CurrentAccount(ctx context.Context) (string, bool) {
	var accounts []string
	if err := w.rpc.Call(ctx, &accounts, "eth_accounts", nil); err != nil {
		return "", false
	}
	if len(accounts) == 0 || accounts[0] == "" {
		return "", false
	}
	return accounts[0], true
}

// CurrentChain returns the provider's active chain id.
func (w *RPC) CurrentChain(ctx context.Context) (uint64, error) {
	var hexID string
	if err := w.rpc.Call(ctx, &hexID, "eth_chainId", nil); err != nil {
		return 0, err
	}
	id, err := strconv.ParseUint(strings.TrimPrefix(hexID, "0x"), 16, 64)
	if err != nil {
		return 0, fmt.Errorf("bad chain id %q: %w", hexID, err)
	}
	return id, nil
}

// RequestChainSwitch asks the wallet to activate chainID.
// The wallet may reject; the error is surfaced as-is.
func (w *RPC) RequestChainSwitch(ctx context.Context, chainID uint64) error {
	params := []any{map[string]string{"chainId": fmt.Sprintf("0x%x", chainID)}}
	if err := w.rpc.Call(ctx, nil, "wallet_switchEthereumChain", params); err != nil {
		return fmt.Errorf("chain switch rejected: %w", err)
	}
	return nil
}

// QueryCapability passes an arbitrary method through to the provider and
// returns the raw result for the caller to interpret.
func (w *RPC) QueryCapability(ctx context.Context, method string, params any) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := w.rpc.Call(ctx, &raw, method, params); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, errors.New("empty capability response")
	}
	return raw, nil
}
