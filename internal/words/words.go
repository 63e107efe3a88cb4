// internal/words/words.go
//
// Word pools for the hangman engine, one per difficulty tier.
//
// Responsibilities:
//   - Load per-tier word/hint lists from environment-provided files or fall
//     back to embedded defaults.
//   - Normalize entries to uppercase letters and spaces.
//   - Supply Random draws and pool Stats.
//
// File format (one entry per line, '#' lines ignored):
//   WORD|short hint text
//
// Environment variables:
//   WORDS_EASY_FILE=/path/to/easy.txt
//   WORDS_MEDIUM_FILE=/path/to/medium.txt
//   WORDS_HARD_FILE=/path/to/hard.txt
//
// Constraints:
//   • Words may contain letters and spaces only; normalized to uppercase.
//   • Initialization is run once (sync.Once); Init errors if any pool is empty.

package words

import (
	"bufio"
	"crypto/rand"
	_ "embed"
	"fmt"
	"math/big"
	"os"
	"strings"
	"sync"
)

// Entry is one drawable secret word plus its hint.
// Immutable once drawn; the round owns its copy.
type Entry struct {
	Word string `json:"word"`
	Hint string `json:"hint"`
}

//go:embed easy.txt
var embeddedEasy string

//go:embed medium.txt
var embeddedMedium string

//go:embed hard.txt
var embeddedHard string

var (
	initOnce   sync.Once
	pools      map[string][]Entry
	initialErr error
)

// Init loads the three tier pools exactly once.
// Returns an error if any pool ends up empty.
func Init() error {
	initOnce.Do(func() {
		pools = make(map[string][]Entry, 3)
		for _, tier := range []struct {
			name     string
			envKey   string
			embedded string
		}{
			{"easy", "WORDS_EASY_FILE", embeddedEasy},
			{"medium", "WORDS_MEDIUM_FILE", embeddedMedium},
			{"hard", "WORDS_HARD_FILE", embeddedHard},
		} {
			var list []Entry
			if path := os.Getenv(tier.envKey); path != "" {
				var err error
				list, err = readEntryFile(path)
				if err != nil {
					initialErr = err
					return
				}
			} else {
				list = parseLines(tier.embedded)
			}
			if len(list) == 0 {
				initialErr = fmt.Errorf("words: %s pool is empty", tier.name)
				return
			}
			pools[tier.name] = list
		}
	})
	return initialErr
}

// readEntryFile loads WORD|hint lines from a file.
func readEntryFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []Entry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if e, ok := parseLine(sc.Text()); ok {
			out = append(out, e)
		}
	}
	return out, sc.Err()
}

// parseLines processes an embedded multiline string into entries.
func parseLines(s string) []Entry {
	var out []Entry
	for _, line := range strings.Split(s, "\n") {
		if e, ok := parseLine(line); ok {
			out = append(out, e)
		}
	}
	return out
}

// parseLine parses a single "WORD|hint" line.
// Blank lines, comment lines, and words with characters outside
// letters/spaces are skipped.
func parseLine(line string) (Entry, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return Entry{}, false
	}
	word, hint, found := strings.Cut(line, "|")
	if !found {
		return Entry{}, false
	}
	word = strings.ToUpper(strings.TrimSpace(word))
	hint = strings.TrimSpace(hint)
	if word == "" || !isWordly(word) {
		return Entry{}, false
	}
	return Entry{Word: word, Hint: hint}, true
}

// isWordly reports whether s is uppercase ASCII letters and spaces only.
func isWordly(s string) bool {
	for _, r := range s {
		if r != ' ' && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}

// Random returns a cryptographically random entry from the tier's pool.
// Unknown tiers fall back to the medium pool.
func Random(tier string) Entry {
	pool, ok := pools[tier]
	if !ok || len(pool) == 0 {
		pool = pools["medium"]
	}
	if len(pool) == 0 {
		// Init not called or failed; a fixed entry keeps callers total.
		return Entry{Word: "OCEAN", Hint: "Covers most of the planet"}
	}
	nBig, _ := rand.Int(rand.Reader, big.NewInt(int64(len(pool))))
	return pool[nBig.Int64()]
}

// Stats returns the loaded pool sizes keyed by tier name.
func Stats() map[string]int {
	out := make(map[string]int, len(pools))
	for tier, pool := range pools {
		out[tier] = len(pool)
	}
	return out
}
