// internal/attribution/attribution.go
//
// Builder attribution for outbound ledger calls.
// Responsibilities:
//   - Derive the deterministic builder-code data suffix appended to calldata.
//   - Probe whether the connected wallet applies such a suffix natively
//     (so the client must not append it a second time).
//   - Append the suffix to a payload; the caller appends at most once.

package attribution

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Rufusemmanuel/hangman/internal/wallet"
)

// DefaultBuilderCode identifies this client when no override is configured.
const DefaultBuilderCode = "bc_hc57dxi9"

// suffix trailer marker, after the code block and its one-byte length.
var trailer = []byte{0x80, 0x21}

// Suffix derives the data suffix for a builder code. Deterministic and
// pure; callers derive it once and reuse it for the process lifetime.
// Layout: code bytes, one-byte code length, one-byte code count, trailer.
func Suffix(builderCode string) []byte {
	code := []byte(builderCode)
	out := make([]byte, 0, len(code)+4)
	out = append(out, code...)
	out = append(out, byte(len(code)), 0x01)
	return append(out, trailer...)
}

// Append concatenates the suffix onto payload, returning a new slice.
// Not idempotent: the controller calls this at most once per call.
func Append(payload, suffix []byte) []byte {
	out := make([]byte, 0, len(payload)+len(suffix))
	out = append(out, payload...)
	return append(out, suffix...)
}

// capability is the dataSuffix capability in its observed wire shapes:
// a bare bool, {"supported":bool}, or {"native":bool}.
type capability struct {
	Supported *bool `json:"supported"`
	Native    *bool `json:"native"`
}

// ProbeWalletSupport asks the wallet whether it applies a data suffix
// natively. Best-effort: it tries wallet_getCapabilities with chain params
// first, then without, and any failure or unknown shape resolves to false
// (assume the client must append manually). It never returns an error.
func ProbeWalletSupport(ctx context.Context, w wallet.Wallet, chainID uint64) bool {
	if w == nil {
		return false
	}
	chainHex := fmt.Sprintf("0x%x", chainID)

	raw, err := w.QueryCapability(ctx, "wallet_getCapabilities", []any{map[string]string{"chainId": chainHex}})
	if err != nil {
		raw, err = w.QueryCapability(ctx, "wallet_getCapabilities", nil)
		if err != nil {
			return false
		}
	}
	return parseDataSuffixSupport(raw, chainHex)
}

// parseDataSuffixSupport digs the dataSuffix capability out of the response,
// tolerating both a wrapped {"capabilities": {...}} object and a bare
// per-chain capability map.
func parseDataSuffixSupport(raw json.RawMessage, chainHex string) bool {
	var wrapped struct {
		Capabilities map[string]map[string]json.RawMessage `json:"capabilities"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Capabilities != nil {
		return dataSuffixSupported(wrapped.Capabilities, chainHex)
	}

	var bare map[string]map[string]json.RawMessage
	if err := json.Unmarshal(raw, &bare); err == nil {
		return dataSuffixSupported(bare, chainHex)
	}
	return false
}

func dataSuffixSupported(caps map[string]map[string]json.RawMessage, chainHex string) bool {
	chainCaps, ok := caps[chainHex]
	if !ok {
		return false
	}
	rawSuffix, ok := chainCaps["dataSuffix"]
	if !ok {
		return false
	}

	var flag bool
	if err := json.Unmarshal(rawSuffix, &flag); err == nil {
		return flag
	}
	var c capability
	if err := json.Unmarshal(rawSuffix, &c); err == nil {
		if c.Supported != nil {
			return *c.Supported
		}
		if c.Native != nil {
			return *c.Native
		}
	}
	return false
}
