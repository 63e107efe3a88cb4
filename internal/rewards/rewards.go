// internal/rewards/rewards.go
//
// Durable point tally for won rounds. A single scalar under a fixed key in
// the rewards table; loaded once at startup, written on every award.

package rewards

import (
	"context"
	"database/sql"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/Rufusemmanuel/hangman/internal/game"
)

// totalKey is the fixed row key holding the running total.
const totalKey = "total"

// PointsFor maps a won round's difficulty to its award.
func PointsFor(d game.Difficulty) int {
	switch d {
	case game.Easy:
		return 5
	case game.Hard:
		return 20
	default:
		return 10
	}
}

// Store accumulates points across sessions.
type Store struct {
	db    *sql.DB
	mu    sync.Mutex
	total int
}

// NewStore loads the persisted total (0 when absent) and returns the store.
func NewStore(ctx context.Context, db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	var total int
	err := db.QueryRowContext(ctx, `SELECT points FROM rewards WHERE key=?`, totalKey).Scan(&total)
	switch err {
	case nil:
		s.total = total
	case sql.ErrNoRows:
		// first run
	default:
		return nil, err
	}
	return s, nil
}

// Total returns the running point total.
func (s *Store) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// AwardForWin adds the difficulty's points to the total, persists it, and
// returns the awarded amount. Exactly-once-per-round is enforced by the
// caller's round-scoped flag.
func (s *Store) AwardForWin(ctx context.Context, d game.Difficulty) (int, error) {
	award := PointsFor(d)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.total += award
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO rewards(key, points) VALUES(?, ?)
		ON CONFLICT(key) DO UPDATE SET points=excluded.points`,
		totalKey, s.total,
	); err != nil {
		log.Error().Err(err).Int("total", s.total).Msg("persist rewards")
		return award, err
	}
	return award, nil
}
