// internal/game/engine.go
//
// Core game engine for a single hangman round.
// Responsibilities:
//   - Create new rounds with the per-difficulty lives table.
//   - Validate and apply single-letter guesses.
//   - Track state transitions: playing → won/lost.
//   - Derive presentation values (display word, wrong/correct letters)
//     from the guessed set on demand, never storing them.
//
// Notes:
//   - The engine performs no I/O; word entries are drawn by the caller
//     (normally via the words package) and handed to New.
//   - Invalid or repeated guesses leave the state untouched.
package game

import (
	"sort"

	"github.com/Rufusemmanuel/hangman/internal/words"
)

// New constructs a fresh round over the given entry and difficulty.
// The guessed set starts empty, lives come from the difficulty table,
// and the last-guess outcome is cleared.
func New(entry words.Entry, difficulty Difficulty) *Game {
	return &Game{
		Entry:      entry,
		Guessed:    make(map[rune]struct{}),
		Lives:      difficulty.Lives(),
		Status:     StatusPlaying,
		Difficulty: difficulty,
	}
}

// Guess applies a single-letter guess, mutating the round state.
// Returns applied=false (state untouched) when:
//   - the round is not in playing state,
//   - the letter is not A–Z after uppercasing,
//   - the letter was already guessed.
//
// State transitions:
//   - Correct letter: status → won once every non-space character of the
//     word is in the guessed set.
//   - Wrong letter: lives decrement; status → lost when lives hit zero.
func (g *Game) Guess(letter rune) (applied bool) {
	if g.Status != StatusPlaying {
		return false
	}
	if letter >= 'a' && letter <= 'z' {
		letter -= 'a' - 'A'
	}
	if letter < 'A' || letter > 'Z' {
		return false
	}
	if _, dup := g.Guessed[letter]; dup {
		return false
	}

	g.Guessed[letter] = struct{}{}

	if containsRune(g.Entry.Word, letter) {
		g.LastOutcome = OutcomeCorrect
		if g.allRevealed() {
			g.Status = StatusWon
		}
		return true
	}

	g.Lives--
	g.LastOutcome = OutcomeWrong
	if g.Lives <= 0 {
		g.Lives = 0
		g.Status = StatusLost
	}
	return true
}

// allRevealed reports whether every non-space character of the word
// has been guessed.
func (g *Game) allRevealed() bool {
	for _, ch := range g.Entry.Word {
		if ch == ' ' {
			continue
		}
		if _, ok := g.Guessed[ch]; !ok {
			return false
		}
	}
	return true
}

// MaxLives returns the starting lives for the round's difficulty.
func (g *Game) MaxLives() int { return g.Difficulty.Lives() }

// Mistakes returns the number of wrong guesses so far.
func (g *Game) Mistakes() int { return len(g.WrongLetters()) }

// DisplayWord renders the word for the board: guessed characters and
// spaces shown as-is, everything else masked with '_'. A lost round
// reveals the full word.
func (g *Game) DisplayWord() []string {
	out := make([]string, 0, len(g.Entry.Word))
	for _, ch := range g.Entry.Word {
		switch {
		case ch == ' ':
			out = append(out, " ")
		case g.Status == StatusLost:
			out = append(out, string(ch))
		default:
			if _, ok := g.Guessed[ch]; ok {
				out = append(out, string(ch))
			} else {
				out = append(out, "_")
			}
		}
	}
	return out
}

// WrongLetters returns the guessed letters absent from the word, sorted.
func (g *Game) WrongLetters() []string {
	return g.partitionGuessed(false)
}

// CorrectLetters returns the guessed letters present in the word, sorted.
func (g *Game) CorrectLetters() []string {
	return g.partitionGuessed(true)
}

// partitionGuessed splits the guessed set by word membership.
// Sorted output keeps snapshots stable across reads.
func (g *Game) partitionGuessed(inWord bool) []string {
	out := []string{}
	for ch := range g.Guessed {
		if containsRune(g.Entry.Word, ch) == inWord {
			out = append(out, string(ch))
		}
	}
	sort.Strings(out)
	return out
}

// containsRune reports whether s contains the rune c.
func containsRune(s string, c rune) bool {
	for _, r := range s {
		if r == c {
			return true
		}
	}
	return false
}
