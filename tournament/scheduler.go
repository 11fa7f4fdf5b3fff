package tournament

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/folkertvanheusden/badank/engine"
	"github.com/folkertvanheusden/badank/engine/gtp"
	"github.com/folkertvanheusden/badank/sgf"
	"github.com/folkertvanheusden/badank/types"
)

// Pairing is one unit of work: P1 plays black, P2 plays white. A
// pairing with nil engines tells a worker to terminate.
type Pairing struct {
	P1 *engine.Descriptor
	P2 *engine.Descriptor
	Nr int
}

// Batch runs a full tournament: it enumerates pairings, plays them on
// a fixed pool of workers and aggregates ratings and statistics.
type Batch struct {
	Engines []*engine.Descriptor

	ScorerCommand string
	ScorerDir     string

	Dim          int
	Komi         float64
	TC           TimeControl
	RandomStones int
	SGFBookPath  string

	PGNFile string
	SGFFile string

	Concurrency int
	Iterations  int

	GTPTimeout time.Duration

	Stats *Stats
	Log   zerolog.Logger

	// Observer, when set, runs after every completed game; the live
	// standings screen hangs off it.
	Observer func()

	fileMu sync.Mutex
	book   []sgf.BookEntry
	stop   *atomic.Bool
}

// Run plays the whole batch. It returns once all workers have joined;
// a stop flag set during the run discards not-yet-started games but
// lets in-flight games finish.
func (b *Batch) Run(stop *atomic.Bool) error {
	b.stop = stop

	b.Log.Info().Msg("batch starting")

	if b.SGFBookPath != "" {
		book, err := sgf.LoadBook(b.SGFBookPath)
		if err != nil {
			return err
		}
		b.book = book
		b.Log.Info().Msgf("opening book: %d entries", len(book))
	}

	b.Log.Info().Msgf("will play %d games", b.totalGames())

	queue := make(chan Pairing, b.Concurrency)

	var g errgroup.Group
	for i := 0; i < b.Concurrency; i++ {
		g.Go(func() error {
			b.worker(queue)
			return nil
		})
	}

	b.generate(queue)

	for i := 0; i < b.Concurrency; i++ {
		queue <- Pairing{}
	}

	b.Log.Info().Msg("waiting for workers to finish...")
	_ = g.Wait()

	b.Log.Info().Msg("batch finished")

	return nil
}

func (b *Batch) targets() []*engine.Descriptor {
	var out []*engine.Descriptor
	for _, e := range b.Engines {
		if e.Target {
			out = append(out, e)
		}
	}
	return out
}

func (b *Batch) totalGames() int {
	n := len(b.Engines)
	t := len(b.targets())

	if t == 0 {
		return n * (n - 1) * b.Iterations
	}
	return 2 * t * (n - t) * b.Iterations
}

// generate enqueues the pairing schedule: all ordered pairs when no
// engine is marked as a target, else a gauntlet in which every target
// plays every non-target with both colors. Generation stops as soon as
// the stop flag is raised.
func (b *Batch) generate(queue chan<- Pairing) {
	nr := 0

	enqueue := func(p1, p2 *engine.Descriptor) bool {
		if b.stop.Load() {
			b.Log.Info().Msg("aborted batching")
			return false
		}

		queue <- Pairing{P1: p1, P2: p2, Nr: nr}
		nr++
		return true
	}

	targets := b.targets()

	if len(targets) == 0 {
		b.Log.Info().Msg("everybody against everybody")

		for i := 0; i < b.Iterations; i++ {
			for _, p1 := range b.Engines {
				for _, p2 := range b.Engines {
					if p1 == p2 {
						continue
					}
					if !enqueue(p1, p2) {
						return
					}
				}
			}
		}

		return
	}

	b.Log.Info().Msg("gauntlet(s)")

	for i := 0; i < b.Iterations; i++ {
		for _, target := range targets {
			for _, other := range b.Engines {
				if other == target || other.Target {
					continue
				}
				if !enqueue(target, other) {
					return
				}
				if !enqueue(other, target) {
					return
				}
			}
		}
	}
}

// worker plays queued pairings until it observes its sentinel. Work
// popped after the stop flag went up is discarded.
func (b *Batch) worker(queue <-chan Pairing) {
	for {
		w := <-queue

		if w.P1 == nil {
			b.Log.Info().Msg("work finished, terminating worker")
			return
		}

		if b.stop.Load() {
			continue
		}

		b.playGame(w)
	}
}

// playGame runs one work item: three fresh child processes, one game,
// then ratings, records and statistics. Fresh processes per game keep
// board state clean and bound the blast radius of a crashed engine.
func (b *Batch) playGame(w Pairing) {
	log := b.Log.With().Int("game", w.Nr).Logger()

	pairName := func() string {
		return w.P1.Name() + " versus " + w.P2.Name()
	}

	scorer, err := gtp.NewEngineTimeout(log, b.ScorerCommand, b.ScorerDir, "", b.GTPTimeout)
	if err != nil {
		log.Error().Err(err).Msg("cannot start scorer")
		b.Stats.GameError(pairName())
		return
	}
	defer scorer.Destroy()

	black, err := gtp.NewEngineTimeout(log, w.P1.Command, w.P1.Dir, w.P1.AltName, b.GTPTimeout)
	if err != nil {
		log.Error().Err(err).Msg("cannot start black")
		b.Stats.GameError(pairName())
		return
	}
	defer black.Destroy()

	white, err := gtp.NewEngineTimeout(log, w.P2.Command, w.P2.Dir, w.P2.AltName, b.GTPTimeout)
	if err != nil {
		log.Error().Err(err).Msg("cannot start white")
		b.Stats.GameError(pairName())
		return
	}
	defer white.Destroy()

	name1 := black.Name()
	w.P1.SetName(name1)

	name2 := white.Name()
	w.P2.SetName(name2)

	if err := black.Komi(b.Komi); err != nil {
		log.Warn().Err(err).Msg("black did not accept komi")
	}
	if err := white.Komi(b.Komi); err != nil {
		log.Warn().Err(err).Msg("white did not accept komi")
	}

	log.Info().Msgf("%d> %s versus %s started", w.Nr, name1, name2)

	start := time.Now()

	game := &Game{
		Black:        black,
		White:        white,
		Scorer:       scorer,
		Dim:          b.Dim,
		TC:           b.TC,
		RandomStones: b.RandomStones,
		Book:         b.book,
		Stats:        b.Stats,
		Log:          log,
	}

	res := game.Run()
	took := time.Since(start)

	if res.Fault() {
		log.Info().Msgf("game between %s and %s failed", name1, name2)
		b.Stats.GameError(name1 + " versus " + name2)
	} else {
		b.Stats.GameOK(took)
		b.Stats.GamePlayed(name1, name2)

		blackScore, _ := res.Outcome.Score(types.Black)
		whiteScore, _ := res.Outcome.Score(types.White)

		// Both updates read the opponent as it stood before this game;
		// Glicko-2 buffers per-period results, so the cross-pair
		// snapshot does not need to be atomic.
		s1 := w.P1.Rating.Snapshot()
		s2 := w.P2.Rating.Snapshot()

		w.P1.Rating.Record(s2, blackScore)
		w.P2.Rating.Record(s1, whiteScore)
	}

	b.appendRecords(w, name1, name2, &res)

	s1 := w.P1.Rating.Snapshot()
	s2 := w.P2.Rating.Snapshot()
	log.Info().Msgf("%s (black; %.1f) versus %s (white; %.1f) result: %s, took: %.1fs",
		name1, s1.R, name2, s2.R, strings.ToLower(string(res.Outcome)), took.Seconds())

	if b.Observer != nil {
		b.Observer()
	}
}

// appendRecords writes the PGN and SGF output under the global file
// mutex. The files are opened per append to stay crash-safe. Write
// failures are logged and do not abort the batch.
func (b *Batch) appendRecords(w Pairing, name1, name2 string, res *GameResult) {
	b.fileMu.Lock()
	defer b.fileMu.Unlock()

	if b.PGNFile != "" && !res.Fault() {
		if err := sgf.AppendPGN(b.PGNFile, name2, name1, res.Outcome.PGN()); err != nil {
			b.Log.Error().Err(err).Msg("cannot append to PGN file")
		}
	}

	if b.SGFFile != "" {
		rec := &sgf.GameRecord{
			Date:   time.Now(),
			Dim:    res.Dim,
			Komi:   b.Komi,
			Black:  name1,
			White:  name2,
			Result: string(res.Outcome),
			Meta:   fmt.Sprintf("%d> ", w.Nr),
			Moves:  res.Moves,
		}

		if res.Fault() {
			rec.Anomaly = strings.ToLower(string(res.Outcome))
		}

		if len(b.book) == 0 {
			rec.RandomStones = b.RandomStones
		}

		if err := sgf.AppendRecord(b.SGFFile, rec); err != nil {
			b.Log.Error().Err(err).Msg("cannot append to SGF file")
		}
	}
}

// Preflight starts every configured engine once and asks for its
// protocol version, so misconfigurations fail before the batch does.
func Preflight(log zerolog.Logger, engines []*engine.Descriptor, timeout time.Duration) error {
	log.Info().Msg("verifying configuration...")

	var bad []string

	for _, d := range engines {
		log.Info().Msgf("trying %s", d.Command)

		e, err := gtp.NewEngineTimeout(log, d.Command, d.Dir, d.AltName, timeout)
		if err != nil {
			log.Error().Err(err).Msgf("cannot start: %s", d.Command)
			bad = append(bad, d.Command)
			continue
		}

		if _, err := e.ProtocolVersion(); err != nil {
			log.Error().Msgf("cannot talk to: %s", d.Command)
			bad = append(bad, d.Command)
		}

		e.Destroy()
	}

	if len(bad) > 0 {
		return fmt.Errorf("unreachable engine(s): %s", strings.Join(bad, ", "))
	}

	return nil
}
