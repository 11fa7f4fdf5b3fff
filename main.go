// badank plays round-robin or gauntlet tournaments between GTP
// engines, arbitrated by a reference scorer, and keeps Glicko-2
// ratings of the contestants.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/folkertvanheusden/badank/config"
	"github.com/folkertvanheusden/badank/engine"
	"github.com/folkertvanheusden/badank/logging"
	"github.com/folkertvanheusden/badank/tournament"
	"github.com/folkertvanheusden/badank/ui"
)

const logFile = "badank.log"

func main() {
	os.Exit(run())
}

func run() int {
	flag.Parse()

	path, err := config.Resolve(flag.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	screenLevel, err := logging.ParseLevel(cfg.LogLevelScreen)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	fileLevel, err := logging.ParseLevel(cfg.LogLevelFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	log, closeLog, err := logging.Setup(screenLevel, fileLevel, logFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer closeLog()

	log.Info().Msg(" * Badank started *")

	// Writes to a dead engine must come back as errors, not kill us.
	signal.Ignore(syscall.SIGPIPE)

	engines := make([]*engine.Descriptor, 0, len(cfg.Engines))
	for _, e := range cfg.Engines {
		engines = append(engines, engine.NewDescriptor(e.Command, e.Dir, e.AltName, e.Target))
	}

	gtpTimeout := time.Duration(cfg.GTPTimeout) * time.Second

	if err := tournament.Preflight(log, engines, gtpTimeout); err != nil {
		log.Warn().Err(err).Msg("terminating because of error(s)")
		return 1
	}

	var stopFlag atomic.Bool

	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, os.Interrupt)
	go func() {
		for range sigch {
			stopFlag.Store(true)
			log.Info().Msg("program termination triggered by ^c (SIGINT)")
		}
	}()

	stats := tournament.NewStats()

	batch := &tournament.Batch{
		Engines:       engines,
		ScorerCommand: cfg.ScorerCommand,
		ScorerDir:     cfg.ScorerDir,
		Dim:           cfg.BoardSize,
		Komi:          cfg.Komi,
		TC: tournament.TimeControl{
			MainTime:      time.Duration(cfg.MainTime) * time.Second,
			ByoYomiTime:   time.Duration(cfg.ByoYomiTime) * time.Second,
			ByoYomiStones: cfg.ByoYomiStones,
			Increment:     time.Duration(cfg.TimeIncrement * float64(time.Second)),
		},
		RandomStones: cfg.NRandomStones,
		SGFBookPath:  cfg.SGFBookPath,
		PGNFile:      cfg.PGNFile,
		SGFFile:      cfg.SGFFile,
		Concurrency:  cfg.Concurrency,
		Iterations:   cfg.NGames,
		GTPTimeout:   gtpTimeout,
		Stats:        stats,
		Log:          log,
	}

	start := time.Now()

	if cfg.TUI {
		err = runWithStandings(batch, engines, stats, &stopFlag)
	} else {
		err = batch.Run(&stopFlag)
	}
	if err != nil {
		log.Error().Err(err).Msg("batch failed")
		return 1
	}

	report(log, engines, stats, time.Since(start))

	log.Info().Msg(" * Badank finished *")

	return 0
}

// runWithStandings runs the batch behind a live standings screen. The
// batch does the work in the background; the tview application owns
// the terminal until the batch is done. Quitting from the screen raises
// the stop flag, and the screen closes once the in-flight games finish.
func runWithStandings(batch *tournament.Batch, engines []*engine.Descriptor, stats *tournament.Stats, stopFlag *atomic.Bool) error {
	standings := ui.NewStandings(func() {
		stopFlag.Store(true)
	})

	batch.Observer = func() {
		standings.Update(standingsRows(engines, stats), stats.OK.Load(), stats.Errors.Load())
	}

	errch := make(chan error, 1)
	go func() {
		errch <- batch.Run(stopFlag)
		standings.Stop()
	}()

	if err := standings.Run(); err != nil {
		return err
	}

	return <-errch
}

func standingsRows(engines []*engine.Descriptor, stats *tournament.Stats) []ui.Row {
	rows := make([]ui.Row, 0, len(engines))

	for _, e := range engines {
		snap := e.Rating.Snapshot()
		rows = append(rows, ui.Row{
			Name:      e.Name(),
			Rating:    snap.R,
			Deviation: snap.RD,
			Games:     stats.Games(e.Name()),
		})
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].Rating > rows[j].Rating })

	return rows
}

// report prints the end-of-batch summary: wall-clock and child CPU
// usage, the rating table, the failed pairings and the per-engine
// outcome categories.
func report(log zerolog.Logger, engines []*engine.Descriptor, stats *tournament.Stats, took time.Duration) {
	var ru syscall.Rusage
	if err := syscall.Getrusage(syscall.RUSAGE_CHILDREN, &ru); err == nil {
		childMs := ru.Utime.Sec*1000 + ru.Utime.Usec/1000
		log.Info().Msgf("time used: %.1fs, cpu factor child processes: %.2f",
			took.Seconds(), float64(childMs)/float64(took.Milliseconds()+1))
	}

	log.Info().Msgf("games ok: %d (avg duration: %.1fs), games with an error: %d",
		stats.OK.Load(), stats.AverageOK().Seconds(), stats.Errors.Load())

	log.Info().Msg("ratings:")
	for _, e := range engines {
		snap := e.Rating.Snapshot()
		log.Info().Msgf("%s: %.1f (deviation %.1f)", e.Name(), snap.R, snap.RD)
	}
	log.Info().Msg("-------")

	if errors := stats.ErrorPairs(); len(errors) > 0 {
		log.Info().Msg("problems:")
		for _, pair := range sortedKeys(errors) {
			log.Info().Msgf("%s - %d", pair, errors[pair])
		}
		log.Info().Msg("--------")
	}

	log.Info().Msg("results:")
	results := stats.Results()
	for _, name := range sortedKeys(results) {
		log.Info().Msg(name)
		per := results[name]
		for _, category := range sortedKeys(per) {
			log.Info().Msgf("  %s: %d", category, per[category])
		}
	}
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
