package words

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLoadsAllTiers(t *testing.T) {
	require.NoError(t, Init())

	stats := Stats()
	for _, tier := range []string{"easy", "medium", "hard"} {
		assert.Greater(t, stats[tier], 0, tier)
	}
}

func TestRandomDrawsNormalizedEntries(t *testing.T) {
	require.NoError(t, Init())

	for i := 0; i < 50; i++ {
		e := Random("hard")
		require.NotEmpty(t, e.Word)
		assert.Equal(t, strings.ToUpper(e.Word), e.Word)
		for _, r := range e.Word {
			assert.True(t, r == ' ' || (r >= 'A' && r <= 'Z'), "char %q in %q", r, e.Word)
		}
		assert.NotEmpty(t, e.Hint)
	}
}

func TestRandomUnknownTierFallsBackToMedium(t *testing.T) {
	require.NoError(t, Init())
	e := Random("nightmare")
	assert.NotEmpty(t, e.Word)
}

func TestParseLine(t *testing.T) {
	e, ok := parseLine("  ocean | Covers most of the planet ")
	require.True(t, ok)
	assert.Equal(t, "OCEAN", e.Word)
	assert.Equal(t, "Covers most of the planet", e.Hint)

	_, ok = parseLine("# comment")
	assert.False(t, ok)
	_, ok = parseLine("")
	assert.False(t, ok)
	_, ok = parseLine("no-separator")
	assert.False(t, ok)
	_, ok = parseLine("r2d2|droid")
	assert.False(t, ok, "digits are not wordly")

	e, ok = parseLine("aurora borealis|Northern lights")
	require.True(t, ok)
	assert.Equal(t, "AURORA BOREALIS", e.Word)
}
