// internal/session/snapshot.go
//
// Read-only views exposed to the presentation layer. Derived values
// (display word, wrong/correct letters, mistakes) are recomputed on every
// read from the round's guessed set, never stored.

package session

import (
	"context"

	"github.com/Rufusemmanuel/hangman/internal/game"
)

// RoundView is the presentation shape of the current round.
type RoundView struct {
	DisplayWord    []string       `json:"displayWord"`
	Hint           string         `json:"hint"`
	Lives          int            `json:"lives"`
	MaxLives       int            `json:"maxLives"`
	Status         game.Status    `json:"status"`
	Difficulty     game.Difficulty `json:"difficulty"`
	LastOutcome    game.Outcome   `json:"lastOutcome,omitempty"`
	WrongLetters   []string       `json:"wrongLetters"`
	CorrectLetters []string       `json:"correctLetters"`
	Mistakes       int            `json:"mistakes"`
}

// GateView is the transient session-gate state, rebuilt from live reads.
type GateView struct {
	WalletConnected bool   `json:"walletConnected"`
	ChainReady      bool   `json:"chainReady"`
	HasEntered      bool   `json:"hasEntered"`
	InFlight        bool   `json:"inFlight"`
	LastError       string `json:"lastError,omitempty"`
}

// Snapshot is everything the presentation layer may read.
type Snapshot struct {
	Round     *RoundView `json:"round"`
	Gate      GateView   `json:"gate"`
	Points    int        `json:"points"`
	LastAward *int       `json:"lastAward,omitempty"`
	Revealing bool       `json:"revealing"`
}

// Snapshot assembles a consistent view. Wallet connection and chain
// readiness come from live wallet reads; gate fields under the mutex are a
// consistent cut.
func (c *Controller) Snapshot(ctx context.Context) Snapshot {
	_, connected := c.wallet.CurrentAccount(ctx)
	chainReady := false
	if chain, err := c.wallet.CurrentChain(ctx); err == nil {
		chainReady = chain == c.chainID
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		Gate: GateView{
			WalletConnected: connected,
			ChainReady:      chainReady,
			HasEntered:      c.hasEntered,
			InFlight:        c.busy.Load(),
			LastError:       c.lastError,
		},
		Points:    c.rewards.Total(),
		Revealing: c.revealing,
	}
	if c.hasAward {
		award := c.lastAward
		snap.LastAward = &award
	}
	if c.round != nil {
		snap.Round = &RoundView{
			DisplayWord:    c.round.DisplayWord(),
			Hint:           c.round.Entry.Hint,
			Lives:          c.round.Lives,
			MaxLives:       c.round.MaxLives(),
			Status:         c.round.Status,
			Difficulty:     c.round.Difficulty,
			LastOutcome:    c.round.LastOutcome,
			WrongLetters:   c.round.WrongLetters(),
			CorrectLetters: c.round.CorrectLetters(),
			Mistakes:       c.round.Mistakes(),
		}
	}
	return snap
}
