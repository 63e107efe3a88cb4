package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Rufusemmanuel/hangman/internal/attribution"
	"github.com/Rufusemmanuel/hangman/internal/game"
	"github.com/Rufusemmanuel/hangman/internal/ledger"
	"github.com/Rufusemmanuel/hangman/internal/words"
)

const (
	testAccount  = "0x2222222222222222222222222222222222222222"
	testContract = "0x1111111111111111111111111111111111111111"
	testChain    = uint64(8453)
)

// ---------------------------------- fakes ----------------------------------

type fakeWallet struct {
	account   string
	chain     uint64
	switchErr error
	switches  int
	caps      json.RawMessage
	capErr    error
}

func (f *fakeWallet) CurrentAccount(context.Context) (string, bool) {
	return f.account, f.account != ""
}
func (f *fakeWallet) CurrentChain(context.Context) (uint64, error) { return f.chain, nil }
func (f *fakeWallet) RequestChainSwitch(_ context.Context, id uint64) error {
	f.switches++
	if f.switchErr != nil {
		return f.switchErr
	}
	f.chain = id
	return nil
}
func (f *fakeWallet) QueryCapability(context.Context, string, any) (json.RawMessage, error) {
	if f.capErr != nil {
		return nil, f.capErr
	}
	return f.caps, nil
}

type fakeLedger struct {
	mu    sync.Mutex
	steps []string

	entered    bool
	enteredErr error
	enterFlips bool // HasEntered reports true once a bundle was submitted
	fee        *big.Int
	feeErr     error

	lastFrom  string
	lastCalls []ledger.Call
	lastCaps  map[string]any
	submitErr error
	submitted bool

	bundleStatus ledger.BundleStatus
	bundleErr    error
	blockBundle  chan struct{} // when set, AwaitBundle waits for it
	txErr        error
}

func (f *fakeLedger) record(step string) {
	f.mu.Lock()
	f.steps = append(f.steps, step)
	f.mu.Unlock()
}

func (f *fakeLedger) Steps() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.steps...)
}

func (f *fakeLedger) HasEntered(context.Context, string) (bool, error) {
	if f.enteredErr != nil {
		return false, f.enteredErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.enterFlips && f.submitted {
		return true, nil
	}
	return f.entered, nil
}

func (f *fakeLedger) EntryFee(context.Context) (*big.Int, error) {
	if f.feeErr != nil {
		return nil, f.feeErr
	}
	return f.fee, nil
}

func (f *fakeLedger) SubmitBundle(_ context.Context, from string, calls []ledger.Call, caps map[string]any) (string, error) {
	f.mu.Lock()
	f.lastFrom, f.lastCalls, f.lastCaps = from, calls, caps
	f.submitted = true
	f.mu.Unlock()
	f.record("submit")
	if f.submitErr != nil {
		return "", f.submitErr
	}
	return "0xbundle", nil
}

func (f *fakeLedger) AwaitBundle(context.Context, string) (ledger.BundleStatus, error) {
	if f.blockBundle != nil {
		<-f.blockBundle
	}
	f.record("bundle")
	return f.bundleStatus, f.bundleErr
}

func (f *fakeLedger) AwaitTransaction(context.Context, string) error {
	f.record("tx")
	return f.txErr
}

type fakeRewarder struct {
	mu     sync.Mutex
	awards int
	total  int
}

func (f *fakeRewarder) AwardForWin(_ context.Context, d game.Difficulty) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.awards++
	award := map[game.Difficulty]int{game.Easy: 5, game.Medium: 10, game.Hard: 20}[d]
	f.total += award
	return award, nil
}

func (f *fakeRewarder) Total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.total
}

// ---------------------------------- setup ----------------------------------

type fixture struct {
	ctrl   *Controller
	wallet *fakeWallet
	ledger *fakeLedger
	reward *fakeRewarder
}

// newFixture builds a controller wired to happy-path fakes drawing a fixed
// word so guess sequences are deterministic.
func newFixture(t *testing.T, word string) *fixture {
	t.Helper()
	fw := &fakeWallet{account: testAccount, chain: testChain, capErr: errors.New("no caps")}
	fl := &fakeLedger{
		fee:          big.NewInt(100),
		enterFlips:   true,
		bundleStatus: ledger.BundleStatus{Succeeded: true, TxHash: "0xhash"},
	}
	fr := &fakeRewarder{}
	ctrl := New(Config{
		Wallet:  fw,
		Ledger:  fl,
		Rewards: fr,
		Draw: func(d game.Difficulty) words.Entry {
			fl.record("start")
			return words.Entry{Word: word, Hint: "hint"}
		},
		Contract: testContract,
		ChainID:  testChain,
	})
	t.Cleanup(ctrl.Close)
	return &fixture{ctrl: ctrl, wallet: fw, ledger: fl, reward: fr}
}

func (fx *fixture) play(t *testing.T, d *game.Difficulty) {
	t.Helper()
	require.NoError(t, fx.ctrl.RequestPlay(context.Background(), d))
}

func diff(d game.Difficulty) *game.Difficulty { return &d }

// ---------------------------------- tests ----------------------------------

func TestPlayWalletNotConnected(t *testing.T) {
	fx := newFixture(t, "OCEAN")
	fx.wallet.account = ""

	err := fx.ctrl.RequestPlay(context.Background(), nil)
	assert.ErrorIs(t, err, ErrWalletNotConnected)

	snap := fx.ctrl.Snapshot(context.Background())
	assert.Nil(t, snap.Round, "game state unchanged")
	assert.False(t, snap.Gate.InFlight, "guard released")
	assert.Equal(t, "Connect wallet to start.", snap.Gate.LastError)

	// not permanently locked: a second attempt runs (and fails the same way)
	assert.ErrorIs(t, fx.ctrl.RequestPlay(context.Background(), nil), ErrWalletNotConnected)
}

func TestPlayRejectsConcurrentRequest(t *testing.T) {
	fx := newFixture(t, "OCEAN")
	fx.ledger.blockBundle = make(chan struct{})

	done := make(chan error, 1)
	go func() { done <- fx.ctrl.RequestPlay(context.Background(), nil) }()

	// wait for the first workflow to reach the bundle await
	require.Eventually(t, func() bool {
		return fx.ctrl.Snapshot(context.Background()).Gate.InFlight
	}, time.Second, time.Millisecond)

	err := fx.ctrl.RequestPlay(context.Background(), nil)
	assert.ErrorIs(t, err, ErrBusy)
	assert.Empty(t, fx.ctrl.Snapshot(context.Background()).Gate.LastError, "busy sets no transient error")

	close(fx.ledger.blockBundle)
	require.NoError(t, <-done)
	assert.NotNil(t, fx.ctrl.Snapshot(context.Background()).Round, "first request still applied its outcome")
}

func TestPlaySwitchesChainWhenNeeded(t *testing.T) {
	fx := newFixture(t, "OCEAN")
	fx.wallet.chain = 1

	fx.play(t, nil)
	assert.Equal(t, 1, fx.wallet.switches)
	assert.Equal(t, testChain, fx.wallet.chain)
}

func TestPlayWrongChainWhenSwitchRejected(t *testing.T) {
	fx := newFixture(t, "OCEAN")
	fx.wallet.chain = 1
	fx.wallet.switchErr = errors.New("user rejected")

	err := fx.ctrl.RequestPlay(context.Background(), nil)
	assert.ErrorIs(t, err, ErrWrongChain)
	assert.Empty(t, fx.ledger.Steps(), "nothing submitted")
}

func TestPlayFeeUnavailable(t *testing.T) {
	fx := newFixture(t, "OCEAN")
	fx.ledger.feeErr = errors.New("not loaded")

	err := fx.ctrl.RequestPlay(context.Background(), nil)
	assert.ErrorIs(t, err, ErrFeeUnavailable)
	assert.Nil(t, fx.ledger.lastCalls)
}

func TestEnterFlowAppendsSuffixExactlyOnce(t *testing.T) {
	fx := newFixture(t, "OCEAN")
	fx.play(t, nil)

	require.Len(t, fx.ledger.lastCalls, 1, "single-call bundle")
	call := fx.ledger.lastCalls[0]
	suffix := attribution.Suffix(attribution.DefaultBuilderCode)

	assert.Equal(t, append(ledger.EncodeCall("enter()"), suffix...), call.Data)
	assert.Equal(t, 1, bytes.Count(call.Data, suffix), "suffix appended exactly once")
	assert.Equal(t, big.NewInt(100), call.Value, "entry fee attached")
	assert.Equal(t, testContract, call.To)
	assert.Equal(t, testAccount, fx.ledger.lastFrom)
	assert.Nil(t, fx.ledger.lastCaps, "no capability passthrough without native support")
}

func TestPingFlowWhenAlreadyEntered(t *testing.T) {
	fx := newFixture(t, "OCEAN")
	fx.ledger.entered = true
	fx.ledger.feeErr = errors.New("fee must not be needed for ping")

	fx.play(t, nil)

	require.Len(t, fx.ledger.lastCalls, 1)
	call := fx.ledger.lastCalls[0]
	assert.True(t, bytes.HasPrefix(call.Data, ledger.EncodeCall("ping()")))
	assert.Nil(t, call.Value, "attestation carries no value")
}

func TestNativeSuffixSupportSkipsManualAppend(t *testing.T) {
	fx := newFixture(t, "OCEAN")
	fx.wallet.capErr = nil
	fx.wallet.caps = json.RawMessage(`{"0x2105":{"dataSuffix":true}}`)

	fx.play(t, nil)

	call := fx.ledger.lastCalls[0]
	assert.Equal(t, ledger.EncodeCall("enter()"), call.Data, "wallet appends the suffix itself")
	require.NotNil(t, fx.ledger.lastCaps)
	assert.Contains(t, fx.ledger.lastCaps, "dataSuffix")
}

func TestStartOnlyAfterBundleAndTransactionConfirm(t *testing.T) {
	fx := newFixture(t, "OCEAN")
	fx.play(t, nil)
	assert.Equal(t, []string{"submit", "bundle", "tx", "start"}, fx.ledger.Steps())
}

func TestBundleFailureNeverStartsRound(t *testing.T) {
	fx := newFixture(t, "OCEAN")
	fx.ledger.bundleStatus = ledger.BundleStatus{Succeeded: false}

	err := fx.ctrl.RequestPlay(context.Background(), nil)
	assert.ErrorIs(t, err, ErrTransactionFailed)

	snap := fx.ctrl.Snapshot(context.Background())
	assert.Nil(t, snap.Round)
	assert.False(t, snap.Gate.InFlight)
	assert.NotContains(t, fx.ledger.Steps(), "start")
}

func TestConfirmationFailureNeverStartsRound(t *testing.T) {
	fx := newFixture(t, "OCEAN")
	fx.ledger.txErr = errors.New("reverted")

	err := fx.ctrl.RequestPlay(context.Background(), nil)
	assert.ErrorIs(t, err, ErrTransactionFailed)
	assert.NotContains(t, fx.ledger.Steps(), "start")
}

func TestHasEnteredReadFailureFallsBackToCached(t *testing.T) {
	fx := newFixture(t, "OCEAN")
	fx.ledger.enteredErr = errors.New("rpc down")
	fx.ledger.enterFlips = false

	// cached value defaults to not-entered, so the enter path runs
	fx.play(t, nil)
	call := fx.ledger.lastCalls[0]
	assert.True(t, bytes.HasPrefix(call.Data, ledger.EncodeCall("enter()")))
	assert.Equal(t, big.NewInt(100), call.Value)
}

func TestFreshHasEnteredOverridesStaleCache(t *testing.T) {
	fx := newFixture(t, "OCEAN")
	fx.ledger.entered = true // ledger says entered; controller cache says false

	fx.play(t, nil)
	assert.True(t, bytes.HasPrefix(fx.ledger.lastCalls[0].Data, ledger.EncodeCall("ping()")),
		"payment decision trusts the fresh read, not the cache")
}

func TestAwardFiresExactlyOncePerRound(t *testing.T) {
	oldAward := awardTTL
	awardTTL = 20 * time.Millisecond
	defer func() { awardTTL = oldAward }()

	fx := newFixture(t, "SKY")
	fx.play(t, diff(game.Easy))

	ctx := context.Background()
	require.True(t, fx.ctrl.GuessLetter(ctx, 'S'))
	require.True(t, fx.ctrl.GuessLetter(ctx, 'K'))
	require.True(t, fx.ctrl.GuessLetter(ctx, 'Y'))

	snap := fx.ctrl.Snapshot(ctx)
	require.NotNil(t, snap.Round)
	assert.Equal(t, game.StatusWon, snap.Round.Status)
	assert.Equal(t, 1, fx.reward.awards)
	assert.Equal(t, 5, fx.reward.Total())
	require.NotNil(t, snap.LastAward)
	assert.Equal(t, 5, *snap.LastAward)

	// observing the won state again never re-awards
	assert.False(t, fx.ctrl.GuessLetter(ctx, 'Z'))
	_ = fx.ctrl.Snapshot(ctx)
	assert.Equal(t, 1, fx.reward.awards)

	// the award flash expires
	assert.Eventually(t, func() bool {
		return fx.ctrl.Snapshot(ctx).LastAward == nil
	}, time.Second, 5*time.Millisecond)

	// a fresh round can award again
	fx.play(t, nil)
	require.True(t, fx.ctrl.GuessLetter(ctx, 'S'))
	require.True(t, fx.ctrl.GuessLetter(ctx, 'K'))
	require.True(t, fx.ctrl.GuessLetter(ctx, 'Y'))
	assert.Equal(t, 2, fx.reward.awards)
}

func TestTransientErrorAutoClears(t *testing.T) {
	oldTTL := errorTTL
	errorTTL = 20 * time.Millisecond
	defer func() { errorTTL = oldTTL }()

	fx := newFixture(t, "OCEAN")
	fx.wallet.account = ""
	_ = fx.ctrl.RequestPlay(context.Background(), nil)

	assert.NotEmpty(t, fx.ctrl.Snapshot(context.Background()).Gate.LastError)
	assert.Eventually(t, func() bool {
		return fx.ctrl.Snapshot(context.Background()).Gate.LastError == ""
	}, time.Second, 5*time.Millisecond)
}

func TestGuessWithoutRoundIsRejected(t *testing.T) {
	fx := newFixture(t, "OCEAN")
	assert.False(t, fx.ctrl.GuessLetter(context.Background(), 'A'))
}

func TestLossRevealGatesAndExpires(t *testing.T) {
	oldDelay := revealDelay
	revealDelay = 20 * time.Millisecond
	defer func() { revealDelay = oldDelay }()

	fx := newFixture(t, "SKY")
	fx.play(t, diff(game.Hard)) // 6 lives

	ctx := context.Background()
	for _, letter := range []rune{'Q', 'X', 'Z', 'J', 'V', 'B'} {
		require.True(t, fx.ctrl.GuessLetter(ctx, letter))
	}

	snap := fx.ctrl.Snapshot(ctx)
	assert.Equal(t, game.StatusLost, snap.Round.Status)
	assert.True(t, snap.Revealing)
	assert.False(t, fx.ctrl.GuessLetter(ctx, 'M'), "guesses blocked during reveal")

	assert.Eventually(t, func() bool {
		return !fx.ctrl.Snapshot(ctx).Revealing
	}, time.Second, 5*time.Millisecond)
}

func TestDifficultyCarriesOverWhenOmitted(t *testing.T) {
	fx := newFixture(t, "OCEAN")
	fx.play(t, diff(game.Hard))
	assert.Equal(t, game.Hard, fx.ctrl.Snapshot(context.Background()).Round.Difficulty)
	assert.Equal(t, 6, fx.ctrl.Snapshot(context.Background()).Round.MaxLives)

	fx.play(t, nil)
	assert.Equal(t, game.Hard, fx.ctrl.Snapshot(context.Background()).Round.Difficulty)
}

func TestStartFullyResetsRound(t *testing.T) {
	fx := newFixture(t, "OCEAN")
	fx.play(t, diff(game.Medium))

	ctx := context.Background()
	require.True(t, fx.ctrl.GuessLetter(ctx, 'O'))
	require.True(t, fx.ctrl.GuessLetter(ctx, 'Z'))

	fx.play(t, nil)
	snap := fx.ctrl.Snapshot(ctx)
	assert.Equal(t, game.StatusPlaying, snap.Round.Status)
	assert.Equal(t, 7, snap.Round.Lives)
	assert.Empty(t, snap.Round.WrongLetters)
	assert.Empty(t, snap.Round.CorrectLetters)
	assert.Equal(t, game.OutcomeNone, snap.Round.LastOutcome)
}
