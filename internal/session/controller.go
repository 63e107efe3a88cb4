// internal/session/controller.go
//
// Gated session controller: decides whether a play request needs an on-ledger
// entry payment or a lightweight attestation, runs the call workflow through
// the ledger client, and only starts a new round once the underlying
// transaction is confirmed.
//
// Concurrency model:
//   - At most one play workflow in flight, enforced by an explicit busy flag
//     (atomic.Bool), not a lock; a second request is rejected outright.
//   - A mutex guards the snapshot state (round, gate fields, timers); it is
//     never held across a suspension point.
//   - Transient timers (error expiry, award flash, loss reveal) are one-shot,
//     cancelled by the next state change and on Close.

package session

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Rufusemmanuel/hangman/internal/attribution"
	"github.com/Rufusemmanuel/hangman/internal/game"
	"github.com/Rufusemmanuel/hangman/internal/ledger"
	"github.com/Rufusemmanuel/hangman/internal/wallet"
	"github.com/Rufusemmanuel/hangman/internal/words"
)

// Timer durations; vars so tests can shrink them.
var (
	// errorTTL is how long a transient failure message stays visible.
	errorTTL = 4 * time.Second
	// awardTTL is how long the last point award stays visible.
	awardTTL = 500 * time.Millisecond
	// revealDelay gates guesses between a loss and its reveal.
	revealDelay = 800 * time.Millisecond
)

// Rewarder persists point awards for won rounds.
// Implemented by rewards.Store.
type Rewarder interface {
	AwardForWin(ctx context.Context, d game.Difficulty) (int, error)
	Total() int
}

// Config wires a Controller's collaborators.
type Config struct {
	Wallet      wallet.Wallet
	Ledger      ledger.Ledger
	Rewards     Rewarder
	Draw        func(game.Difficulty) words.Entry // word supplier
	Contract    string
	ChainID     uint64
	BuilderCode string // "" uses attribution.DefaultBuilderCode
	Difficulty  game.Difficulty
}

// Controller owns one player's gated session.
type Controller struct {
	wallet  wallet.Wallet
	ledger  ledger.Ledger
	rewards Rewarder
	draw    func(game.Difficulty) words.Entry

	contract  string
	chainID   uint64
	suffix    []byte // derived once for the process lifetime
	suffixHex string

	busy atomic.Bool // at-most-one in-flight play workflow

	mu           sync.Mutex
	round        *game.Game
	difficulty   game.Difficulty // tier for the next round when none is given
	hasEntered   bool            // cached ledger flag, re-read before payment decisions
	capProbed    bool
	capSupported bool
	lastError    string
	errTimer     *time.Timer
	lastAward    int
	hasAward     bool
	awardTimer   *time.Timer
	awarded      bool // round-scoped, reset on every start
	revealing    bool
	revealTimer  *time.Timer
}

// New constructs a Controller. The attribution suffix is derived here, once.
func New(cfg Config) *Controller {
	code := cfg.BuilderCode
	if code == "" {
		code = attribution.DefaultBuilderCode
	}
	diff := cfg.Difficulty
	if !diff.Valid() {
		diff = game.Medium
	}
	suffix := attribution.Suffix(code)
	return &Controller{
		wallet:     cfg.Wallet,
		ledger:     cfg.Ledger,
		rewards:    cfg.Rewards,
		draw:       cfg.Draw,
		contract:   cfg.Contract,
		chainID:    cfg.ChainID,
		suffix:     suffix,
		suffixHex:  "0x" + hex.EncodeToString(suffix),
		difficulty: diff,
	}
}

// RequestPlay runs the gate workflow and, on confirmed success, starts a new
// round at the given tier (nil keeps the previous tier).
//
// Failure at any step sets a transient user-visible message (auto-cleared
// after errorTTL), leaves the current round untouched, and releases the
// in-flight guard. A request while another is in flight returns ErrBusy with
// no side effects at all.
func (c *Controller) RequestPlay(ctx context.Context, difficulty *game.Difficulty) error {
	if !c.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer c.busy.Store(false)

	c.clearError()

	account, ok := c.wallet.CurrentAccount(ctx)
	if !ok {
		return c.fail(ErrWalletNotConnected)
	}

	if chain, err := c.wallet.CurrentChain(ctx); err != nil || chain != c.chainID {
		if err := c.wallet.RequestChainSwitch(ctx, c.chainID); err != nil {
			return c.fail(fmt.Errorf("%w: %v", ErrWrongChain, err))
		}
	}

	// Authoritative re-read before the payment decision; a read failure
	// degrades to the cached value rather than aborting.
	entered := c.cachedEntered()
	if fresh, err := c.ledger.HasEntered(ctx, account); err == nil {
		entered = fresh
	} else {
		log.Warn().Err(fmt.Errorf("%w: %v", ErrLedgerRead, err)).Msg("hasEntered read failed, using cached value")
	}

	supported := c.capabilitySupport(ctx)

	fn, value := "ping()", (*big.Int)(nil)
	if !entered {
		fee, err := c.ledger.EntryFee(ctx)
		if err != nil {
			return c.fail(fmt.Errorf("%w: %v", ErrFeeUnavailable, err))
		}
		fn, value = "enter()", fee
	}

	payload := ledger.EncodeCall(fn)
	var capabilities map[string]any
	if supported {
		// The wallet appends the suffix itself; passing it through the
		// bundle capabilities avoids a double append.
		capabilities = map[string]any{"dataSuffix": map[string]string{"value": c.suffixHex}}
	} else {
		payload = attribution.Append(payload, c.suffix)
	}

	bundleID, err := c.ledger.SubmitBundle(ctx, account,
		[]ledger.Call{{To: c.contract, Data: payload, Value: value}}, capabilities)
	if err != nil {
		return c.fail(fmt.Errorf("%w: %v", ErrCallRejected, err))
	}

	status, err := c.ledger.AwaitBundle(ctx, bundleID)
	if err != nil {
		return c.fail(fmt.Errorf("%w: %v", ErrTransactionFailed, err))
	}
	if !status.Succeeded {
		return c.fail(fmt.Errorf("%w: bundle %s", ErrTransactionFailed, bundleID))
	}

	// A bundle can report success before the transaction is mined; the
	// round is startable only after the transaction itself confirms.
	if status.TxHash != "" {
		if err := c.ledger.AwaitTransaction(ctx, status.TxHash); err != nil {
			return c.fail(fmt.Errorf("%w: %v", ErrTransactionFailed, err))
		}
	}

	if fresh, err := c.ledger.HasEntered(ctx, account); err == nil {
		c.setEntered(fresh)
	} else {
		// The confirmed call itself proves entry.
		c.setEntered(true)
	}

	c.startRound(difficulty)
	log.Info().Str("fn", fn).Str("bundle", bundleID).Msg("round started")
	return nil
}

// GuessLetter applies a letter to the current round. Returns false when no
// round exists, a loss reveal is pending, or the engine rejects the guess.
// A guess that transitions the round into won awards points exactly once.
func (c *Controller) GuessLetter(ctx context.Context, letter rune) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.round == nil || c.revealing {
		return false
	}
	if !c.round.Guess(letter) {
		return false
	}

	switch c.round.Status {
	case game.StatusWon:
		if !c.awarded {
			c.awarded = true
			award, err := c.rewards.AwardForWin(ctx, c.round.Difficulty)
			if err != nil {
				log.Error().Err(err).Msg("award persist failed")
			}
			c.lastAward, c.hasAward = award, true
			c.resetTimer(&c.awardTimer, awardTTL, func() {
				c.hasAward = false
				c.awardTimer = nil
			})
		}
	case game.StatusLost:
		c.revealing = true
		c.resetTimer(&c.revealTimer, revealDelay, func() {
			c.revealing = false
			c.revealTimer = nil
		})
	}
	return true
}

// startRound replaces the round wholesale and resets all round-scoped state.
func (c *Controller) startRound(difficulty *game.Difficulty) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if difficulty != nil && difficulty.Valid() {
		c.difficulty = *difficulty
	}
	if c.revealTimer != nil {
		c.revealTimer.Stop()
		c.revealTimer = nil
	}
	c.revealing = false
	c.awarded = false
	c.hasAward = false
	if c.awardTimer != nil {
		c.awardTimer.Stop()
		c.awardTimer = nil
	}

	entry := c.draw(c.difficulty)
	c.round = game.New(entry, c.difficulty)
}

// fail records the transient user-visible message, schedules its expiry, and
// passes the error through.
func (c *Controller) fail(err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastError = userMessage(err)
	c.resetTimer(&c.errTimer, errorTTL, func() {
		c.lastError = ""
		c.errTimer = nil
	})
	log.Warn().Err(err).Msg("play request failed")
	return err
}

// clearError drops the transient message and its timer (start of a new
// request, or a successful action).
func (c *Controller) clearError() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastError = ""
	if c.errTimer != nil {
		c.errTimer.Stop()
		c.errTimer = nil
	}
}

// resetTimer cancels *slot and arms a fresh one-shot whose body runs under
// the controller mutex. Callers must hold c.mu.
func (c *Controller) resetTimer(slot **time.Timer, d time.Duration, body func()) {
	if *slot != nil {
		(*slot).Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(d, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if *slot == t { // superseded timers do nothing
			body()
		}
	})
	*slot = t
}

func (c *Controller) cachedEntered() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasEntered
}

func (c *Controller) setEntered(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hasEntered = v
}

// capabilitySupport probes the wallet's native data-suffix support once per
// controller (one connector session) and caches the result.
func (c *Controller) capabilitySupport(ctx context.Context) bool {
	c.mu.Lock()
	if c.capProbed {
		supported := c.capSupported
		c.mu.Unlock()
		return supported
	}
	c.mu.Unlock()

	supported := attribution.ProbeWalletSupport(ctx, c.wallet, c.chainID)

	c.mu.Lock()
	c.capProbed = true
	c.capSupported = supported
	c.mu.Unlock()
	return supported
}

// Close tears down all pending timers. The controller must not be used after.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range []*time.Timer{c.errTimer, c.awardTimer, c.revealTimer} {
		if t != nil {
			t.Stop()
		}
	}
	c.errTimer, c.awardTimer, c.revealTimer = nil, nil, nil
}
