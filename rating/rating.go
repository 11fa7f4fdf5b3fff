// Package rating wraps Glicko-2 player ratings with the locking the
// tournament needs: one engine participates in many games at once, so
// every mutation happens under the player's own mutex, and opponents
// are only ever read as a point-in-time snapshot.
package rating

import (
	"sync"

	glicko2 "github.com/zelenin/go-glicko2"
)

// Glicko-2 starting values for an unrated player.
const (
	initialRating     = 1500
	initialDeviation  = 350
	initialVolatility = 0.06
)

// Snapshot is a point-in-time copy of a player's rating, safe to carry
// across lock boundaries.
type Snapshot struct {
	R     float64
	RD    float64
	Sigma float64
}

// Rating is one player's Glicko-2 state.
type Rating struct {
	mu     sync.Mutex
	player *glicko2.Player
}

// New returns an unrated player.
func New() *Rating {
	return &Rating{
		player: glicko2.NewPlayer(glicko2.NewRating(initialRating, initialDeviation, initialVolatility)),
	}
}

// Snapshot returns the current rating values.
func (r *Rating) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	rt := r.player.Rating()

	return Snapshot{R: rt.R(), RD: rt.Rd(), Sigma: rt.Sigma()}
}

// Record stages one game result against an opponent snapshot and
// applies it. Each game is its own rating period: the opponent is
// represented by a throwaway player pinned at the snapshot, so this
// player's update never touches the opponent's state.
func (r *Rating) Record(opp Snapshot, score float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result glicko2.MatchResult
	switch {
	case score > 0.75:
		result = glicko2.MATCH_RESULT_WIN
	case score < 0.25:
		result = glicko2.MATCH_RESULT_LOSS
	default:
		result = glicko2.MATCH_RESULT_DRAW
	}

	period := glicko2.NewRatingPeriod()
	period.AddMatch(r.player, glicko2.NewPlayer(glicko2.NewRating(opp.R, opp.RD, opp.Sigma)), result)
	period.Calculate()
}
