package attribution

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeWallet implements wallet.Wallet for probe tests; only QueryCapability
// matters here.
type fakeWallet struct {
	withParams    json.RawMessage
	withParamsErr error
	without       json.RawMessage
	withoutErr    error
	calls         int
}

func (f *fakeWallet) CurrentAccount(context.Context) (string, bool) { return "", false }
func (f *fakeWallet) CurrentChain(context.Context) (uint64, error)  { return 0, nil }
func (f *fakeWallet) RequestChainSwitch(context.Context, uint64) error {
	return nil
}
func (f *fakeWallet) QueryCapability(_ context.Context, method string, params any) (json.RawMessage, error) {
	f.calls++
	if params != nil {
		return f.withParams, f.withParamsErr
	}
	return f.without, f.withoutErr
}

func TestSuffixIsDeterministic(t *testing.T) {
	a := Suffix("bc_hc57dxi9")
	b := Suffix("bc_hc57dxi9")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, Suffix("bc_other"))

	// code block, length byte, count byte, trailer
	require.Greater(t, len(a), 4)
	assert.Equal(t, []byte{0x80, 0x21}, a[len(a)-2:])
	assert.Contains(t, string(a), "bc_hc57dxi9")
}

func TestAppendConcatenates(t *testing.T) {
	payload := []byte{0x01, 0x02}
	suffix := Suffix("bc_x")

	out := Append(payload, suffix)
	assert.Equal(t, append([]byte{0x01, 0x02}, suffix...), out)
	// input slices untouched
	assert.Equal(t, []byte{0x01, 0x02}, payload)
}

func TestProbeBoolShape(t *testing.T) {
	w := &fakeWallet{withParams: json.RawMessage(`{"0x2105":{"dataSuffix":true}}`)}
	assert.True(t, ProbeWalletSupport(context.Background(), w, 8453))
}

func TestProbeSupportedShape(t *testing.T) {
	w := &fakeWallet{withParams: json.RawMessage(`{"0x2105":{"dataSuffix":{"supported":true}}}`)}
	assert.True(t, ProbeWalletSupport(context.Background(), w, 8453))

	w = &fakeWallet{withParams: json.RawMessage(`{"0x2105":{"dataSuffix":{"supported":false}}}`)}
	assert.False(t, ProbeWalletSupport(context.Background(), w, 8453))
}

func TestProbeNativeShape(t *testing.T) {
	w := &fakeWallet{withParams: json.RawMessage(`{"0x2105":{"dataSuffix":{"native":true}}}`)}
	assert.True(t, ProbeWalletSupport(context.Background(), w, 8453))
}

func TestProbeWrappedCapabilities(t *testing.T) {
	w := &fakeWallet{withParams: json.RawMessage(`{"capabilities":{"0x2105":{"dataSuffix":true}}}`)}
	assert.True(t, ProbeWalletSupport(context.Background(), w, 8453))
}

func TestProbeRetriesWithoutParams(t *testing.T) {
	w := &fakeWallet{
		withParamsErr: errors.New("unsupported params"),
		without:       json.RawMessage(`{"0x2105":{"dataSuffix":true}}`),
	}
	assert.True(t, ProbeWalletSupport(context.Background(), w, 8453))
	assert.Equal(t, 2, w.calls)
}

func TestProbeFailureShapesResolveFalse(t *testing.T) {
	cases := map[string]*fakeWallet{
		"both calls error": {withParamsErr: errors.New("nope"), withoutErr: errors.New("nope")},
		"malformed":        {withParams: json.RawMessage(`"what"`)},
		"other chain only": {withParams: json.RawMessage(`{"0x1":{"dataSuffix":true}}`)},
		"no dataSuffix":    {withParams: json.RawMessage(`{"0x2105":{"atomic":true}}`)},
	}
	for name, w := range cases {
		assert.False(t, ProbeWalletSupport(context.Background(), w, 8453), name)
	}
	assert.False(t, ProbeWalletSupport(context.Background(), nil, 8453), "nil wallet")
}
