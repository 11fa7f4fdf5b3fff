package tournament

import (
	"fmt"
	"math/rand"

	"github.com/folkertvanheusden/badank/engine/gtp"
	"github.com/folkertvanheusden/badank/types"
)

// seedFromBook replays a randomly picked opening-book entry into both
// contestants and the scorer. The entry's own board dimension
// overrides the configured one.
func (g *Game) seedFromBook() error {
	entry := g.Book[rand.Intn(len(g.Book))]

	for _, e := range []*gtp.Engine{g.Scorer, g.Black, g.White} {
		if err := e.BoardSize(entry.Dim); err != nil {
			return err
		}
	}

	g.dim = entry.Dim

	for _, move := range entry.Moves {
		vertex := gtp.Vertex(move.X, move.Y)

		if err := g.Black.Play(move.Color, vertex); err != nil {
			return err
		}

		if err := g.White.Play(move.Color, vertex); err != nil {
			return err
		}

		// The scorer is assumed to always be right.
		if err := g.Scorer.Play(move.Color, vertex); err != nil {
			return err
		}

		g.appendMove(move.Color, fmt.Sprintf("%c%c", 'a'+move.X, 'a'+move.Y))
	}

	return nil
}

// seedRandomly places the configured number of stones per side on
// uniformly random empty intersections, white first. When the scorer
// rejects a stone after the first two the whole sequence is retried on
// a cleared board; a rejection within the first two, or any I/O fault,
// fails the game.
func (g *Game) seedRandomly() error {
	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			g.Log.Warn().Msg("seeding rejected by scorer, retrying")

			for _, e := range []*gtp.Engine{g.Black, g.White, g.Scorer} {
				if err := e.ClearBoard(); err != nil {
					return err
				}
				if err := e.BoardSize(g.dim); err != nil {
					return err
				}
			}
		}

		g.moves = g.moves[:0]

		retry, err := g.seedAttempt()
		if err != nil {
			return err
		}
		if !retry {
			return nil
		}
	}
}

func (g *Game) seedAttempt() (retry bool, err error) {
	dimsq := g.dim * g.dim
	inUse := make([]bool, dimsq)

	for i := 0; i < g.RandomStones*2; i++ {
		v := rand.Intn(dimsq)
		for inUse[v] {
			v = rand.Intn(dimsq)
		}
		inUse[v] = true

		color := types.White
		if i%2 == 1 {
			color = types.Black
		}

		x := v % g.dim
		y := v / g.dim
		vertex := gtp.Vertex(x, y)

		if err := g.Black.Play(color, vertex); err != nil {
			return false, err
		}

		if err := g.White.Play(color, vertex); err != nil {
			return false, err
		}

		if err := g.Scorer.Play(color, vertex); err != nil {
			if gtp.IsReject(err) && i > 1 {
				return true, nil
			}
			return false, err
		}

		g.appendMove(color, fmt.Sprintf("%c%c", 'a'+x, 'a'+y))
	}

	return false, nil
}
