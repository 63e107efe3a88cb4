// internal/ledger/abi.go
//
// Just enough ABI plumbing for the pay-to-play contract surface:
// 4-byte Keccak selectors, 32-byte argument padding, and hex-quantity
// helpers for eth_call results.

package ledger

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Selector returns the first four bytes of Keccak-256(signature),
// e.g. Selector("enter()").
func Selector(signature string) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(signature))
	return h.Sum(nil)[:4]
}

// EncodeCall builds calldata from a function signature and pre-padded
// 32-byte arguments.
func EncodeCall(signature string, args ...[]byte) []byte {
	data := Selector(signature)
	for _, a := range args {
		data = append(data, a...)
	}
	return data
}

// PadAddress left-pads a 0x-prefixed 20-byte address to a 32-byte ABI word.
func PadAddress(addr string) ([]byte, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(addr, "0x"))
	if err != nil {
		return nil, fmt.Errorf("bad address %q: %w", addr, err)
	}
	if len(raw) != 20 {
		return nil, fmt.Errorf("bad address length %d", len(raw))
	}
	word := make([]byte, 32)
	copy(word[12:], raw)
	return word, nil
}

// hexToBig parses a 0x-prefixed hex quantity into a big.Int.
func hexToBig(s string) (*big.Int, error) {
	s = strings.TrimPrefix(s, "0x")
	if s == "" {
		return big.NewInt(0), nil
	}
	n, ok := new(big.Int).SetString(s, 16)
	if !ok {
		return nil, fmt.Errorf("bad hex quantity %q", s)
	}
	return n, nil
}

// hexToBool interprets an eth_call result word as a solidity bool.
func hexToBool(s string) (bool, error) {
	n, err := hexToBig(s)
	if err != nil {
		return false, err
	}
	return n.Sign() != 0, nil
}

// bytesToHex renders calldata as a 0x-prefixed hex string.
func bytesToHex(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}

// bigToHex renders a quantity as minimal 0x-prefixed hex.
func bigToHex(n *big.Int) string {
	if n == nil || n.Sign() == 0 {
		return "0x0"
	}
	return "0x" + n.Text(16)
}
