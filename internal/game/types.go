// internal/game/types.go
//
// Core type definitions for the hangman game engine.
// Defines:
//   - Difficulty: easy/medium/hard tier with its starting-lives table.
//   - Status: coarse round state (playing/won/lost).
//   - Outcome: result of the most recent guess (correct/wrong).
//   - Game: state for a single in-progress or finished round.

package game

import "github.com/Rufusemmanuel/hangman/internal/words"

// Difficulty selects the word pool and the starting number of lives.
type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// Lives returns the starting lives for the tier (easy=8, medium=7, hard=6).
func (d Difficulty) Lives() int {
	switch d {
	case Easy:
		return 8
	case Hard:
		return 6
	default:
		return 7
	}
}

// Valid reports whether d is one of the three known tiers.
func (d Difficulty) Valid() bool {
	return d == Easy || d == Medium || d == Hard
}

// ParseDifficulty maps a wire string to a Difficulty.
// Returns ok=false for anything outside the three tiers.
func ParseDifficulty(s string) (Difficulty, bool) {
	d := Difficulty(s)
	return d, d.Valid()
}

// Status represents the coarse state of a round.
type Status string

const (
	StatusPlaying Status = "playing"
	StatusWon     Status = "won"
	StatusLost    Status = "lost"
)

// Outcome is the result of the most recent applied guess.
type Outcome string

const (
	OutcomeNone    Outcome = ""
	OutcomeCorrect Outcome = "correct"
	OutcomeWrong   Outcome = "wrong"
)

// Game holds the state of a single hangman round.
// Mutated only through Guess while Status is playing; replaced wholly
// by the next New.
type Game struct {
	Entry       words.Entry       // secret word + hint, uppercase
	Guessed     map[rune]struct{} // single uppercase letters guessed so far
	Lives       int               // remaining lives, never negative
	Status      Status            // playing | won | lost
	Difficulty  Difficulty        // tier the round was started with
	LastOutcome Outcome           // "" until the first applied guess
}
