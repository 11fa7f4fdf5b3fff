package tournament

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/folkertvanheusden/badank/engine/gtp"
	"github.com/folkertvanheusden/badank/sgf"
	"github.com/folkertvanheusden/badank/types"
)

// genmoveSlack is added on top of the mover's clock when bounding a
// genmove read, so a hung engine is distinguished from one using its
// time.
const genmoveSlack = 30 * time.Second

// Game drives one complete game between two engines, with a scorer as
// the rule authority.
type Game struct {
	Black  *gtp.Engine
	White  *gtp.Engine
	Scorer *gtp.Engine

	Dim          int
	TC           TimeControl
	RandomStones int
	Book         []sgf.BookEntry

	Stats *Stats
	Log   zerolog.Logger

	dim   int
	moves []string
}

// GameResult is what one game produced.
type GameResult struct {
	Outcome types.Outcome

	// Moves are SGF move nodes in game order, seeded stones included.
	Moves []string

	// Dim is the dimension actually played, which an opening-book
	// entry may have changed.
	Dim int

	BlackTime  time.Duration
	WhiteTime  time.Duration
	BlackMoves int
	WhiteMoves int
}

// Fault reports whether the game failed without a usable result.
func (r *GameResult) Fault() bool {
	return r.Outcome.Fault()
}

func (g *Game) engine(c types.Color) *gtp.Engine {
	if c == types.White {
		return g.White
	}
	return g.Black
}

func (g *Game) appendMove(c types.Color, point string) {
	g.moves = append(g.moves, fmt.Sprintf("%s[%s]", c.SGF(), point))
}

func (g *Game) fault() GameResult {
	return GameResult{Outcome: types.OutcomeFault, Moves: g.moves, Dim: g.dim}
}

// Run plays the game to completion. Engine faults never escape: they
// come back as the "?" outcome. Rule violations (illegal move, time
// exhausted, resignation) produce a definite outcome.
func (g *Game) Run() GameResult {
	g.dim = g.Dim

	for _, e := range []*gtp.Engine{g.Black, g.White, g.Scorer} {
		if err := e.ClearBoard(); err != nil {
			g.Log.Error().Err(err).Msg("\"clear_board\" not accepted")
			return g.fault()
		}
	}

	for _, e := range []*gtp.Engine{g.Scorer, g.Black, g.White} {
		if err := e.BoardSize(g.Dim); err != nil {
			g.Log.Error().Err(err).Msg("\"boardsize\" not accepted")
			return g.fault()
		}
	}

	if len(g.Book) > 0 {
		if err := g.seedFromBook(); err != nil {
			g.Log.Error().Err(err).Msgf("failed to seed board from book for %s versus %s", g.Black.Name(), g.White.Name())
			return g.fault()
		}
	} else if g.RandomStones > 0 {
		if err := g.seedRandomly(); err != nil {
			g.Log.Error().Err(err).Msgf("failed to seed board randomly for %s versus %s", g.Black.Name(), g.White.Name())
			return g.fault()
		}
	}

	var knowsTimeLeft [2]bool

	for _, c := range []types.Color{types.Black, types.White} {
		e := g.engine(c)

		if e.HasCommand("time_settings") {
			if err := e.TimeSettings(int(g.TC.MainTime.Seconds()), int(g.TC.ByoYomiTime.Seconds()), g.TC.ByoYomiStones); err != nil {
				return g.fault()
			}
		}

		knowsTimeLeft[c] = e.HasCommand("time_left")
	}

	clocks := [2]*Clock{NewClock(g.TC), NewClock(g.TC)}
	var pass [2]bool
	var moveCount [2]int
	var used [2]time.Duration

	var outcome types.Outcome

	color := types.Black

	for {
		mover := g.engine(color)
		clock := clocks[color]

		g.Log.Debug().Msgf("player %s has %.3f seconds left, black/white pass: %v/%v",
			color, clock.Remaining.Seconds(), pass[types.Black], pass[types.White])

		if knowsTimeLeft[color] {
			if err := mover.TimeLeft(color, clock.Remaining, clock.ReportStones()); err != nil {
				g.Log.Info().Msgf("%s (%s) did not respond to time_left", color, mover.Name())
				return g.fault()
			}
		}

		start := time.Now()
		move, err := mover.Genmove(color, clock.Remaining+g.TC.ByoYomiTime+genmoveSlack)
		elapsed := time.Since(start)

		if err != nil {
			g.Log.Info().Msgf("%s (%s) did not return a move", color, mover.Name())
			return g.fault()
		}

		used[color] += elapsed
		moveCount[color]++

		if clock.Consume(elapsed) {
			outcome = types.Outcome(fmt.Sprintf("%s+Time", color.Opponent().SGF()))
			g.Stats.RecordResult(mover.Name(), fmt.Sprintf("%s out of time", color))
			break
		}

		if move == "resign" {
			outcome = types.Outcome(fmt.Sprintf("%s+Resign", color.Opponent().SGF()))
			g.Stats.RecordResult(mover.Name(), fmt.Sprintf("%s resign", color))
			break
		}

		// The opponent's opinion of the move is logged only; engines
		// honestly disagree about ko and suicide rules, and the scorer
		// defines the rule set.
		if err := g.engine(color.Opponent()).Play(color, move); err != nil {
			g.Log.Warn().Err(err).Msgf("%s did not accept the move %q", g.engine(color.Opponent()).Name(), move)
		}

		if err := g.Scorer.Play(color, move); err != nil {
			if !gtp.IsReject(err) {
				g.Log.Info().Err(err).Msg("scorer failed")
				return g.fault()
			}

			g.Log.Warn().Msgf("%s (%s) performed an illegal move", color, mover.Name())
			outcome = types.Outcome(fmt.Sprintf("%s+Illegal", color.Opponent().SGF()))
			g.Stats.RecordResult(mover.Name(), fmt.Sprintf("%s illegal move", color))
			break
		}

		if move == "pass" {
			ended := pass[color.Opponent()]
			pass[color] = true

			g.moves = append(g.moves, color.SGF()+"[]")

			if ended {
				break
			}
		} else {
			pass[types.Black] = false
			pass[types.White] = false

			point, err := gtp.SGFFromVertex(move)
			if err != nil {
				g.Log.Info().Err(err).Msgf("unusable vertex %q from %s", move, mover.Name())
				return g.fault()
			}

			g.appendMove(color, point)
		}

		color = color.Opponent()
	}

	g.logTimeUsage(used, moveCount)

	if outcome == "" {
		score, err := g.Scorer.FinalScore()
		if err != nil {
			g.Log.Info().Err(err).Msg("scorer did not produce a final score")
			return g.fault()
		}

		outcome = types.Outcome(score)

		bScore, bErr := g.Black.FinalScore()
		wScore, wErr := g.White.FinalScore()
		if bErr != nil {
			bScore = "-"
		}
		if wErr != nil {
			wScore = "-"
		}
		g.Log.Info().Msgf("result according to black: %s, according to white: %s, scorer: %s", bScore, wScore, score)
	}

	return GameResult{
		Outcome:    outcome,
		Moves:      g.moves,
		Dim:        g.dim,
		BlackTime:  used[types.Black],
		WhiteTime:  used[types.White],
		BlackMoves: moveCount[types.Black],
		WhiteMoves: moveCount[types.White],
	}
}

func (g *Game) logTimeUsage(used [2]time.Duration, moves [2]int) {
	perMove := func(c types.Color) float64 {
		if moves[c] == 0 {
			return 0
		}
		return used[c].Seconds() / float64(moves[c])
	}

	g.Log.Info().Msgf("black used %.3fs per move (%.3f total), %d moves, white %.3fs per move (%.3f total), %d moves",
		perMove(types.Black), used[types.Black].Seconds(), moves[types.Black],
		perMove(types.White), used[types.White].Seconds(), moves[types.White])
}
