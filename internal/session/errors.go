// internal/session/errors.go
//
// Error taxonomy for the gated session controller. Every failure is terminal
// for the current play request only: game state is never touched and the
// in-flight guard is always released.

package session

import "errors"

var (
	// ErrBusy rejects a play request while another one is in flight.
	// Deliberately not surfaced as a transient message.
	ErrBusy = errors.New("play request already in flight")

	// ErrWalletNotConnected means no wallet account is available.
	ErrWalletNotConnected = errors.New("wallet not connected")

	// ErrWrongChain means the wallet rejected or failed the chain switch.
	ErrWrongChain = errors.New("wrong chain")

	// ErrFeeUnavailable means the entry fee could not be read when a
	// payment decision required it.
	ErrFeeUnavailable = errors.New("entry fee unavailable")

	// ErrCallRejected means the wallet refused to submit the call bundle.
	ErrCallRejected = errors.New("call rejected")

	// ErrTransactionFailed covers bundle failure and failed or missing
	// transaction confirmation.
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrLedgerRead marks best-effort read failures that degraded to a
	// cached or default value.
	ErrLedgerRead = errors.New("ledger read failed")
)

// userMessage maps a controller error to the short-lived message shown to
// the player.
func userMessage(err error) string {
	switch {
	case errors.Is(err, ErrWalletNotConnected):
		return "Connect wallet to start."
	case errors.Is(err, ErrWrongChain):
		return "Switch networks to start a new game."
	case errors.Is(err, ErrFeeUnavailable):
		return "Entry fee not loaded yet"
	default:
		return "Transaction failed or rejected"
	}
}
