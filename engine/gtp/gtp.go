// Package gtp drives a child process speaking the Go Text Protocol.
package gtp

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/folkertvanheusden/badank/types"
)

// DefaultTimeout bounds ordinary GTP responses when the caller did not
// configure anything else.
const DefaultTimeout = 60 * time.Second

// startupTimeout bounds protocol_version, the reachability probe sent
// to every engine before the batch starts. It is fixed and does not
// follow the configured default.
const startupTimeout = 30 * time.Second

// EngineError describes a failed GTP exchange. Reject is set when the
// engine answered with a "?" status line; otherwise the failure was an
// I/O problem (timeout, closed pipe, write error) held in Err.
type EngineError struct {
	Engine string
	Cmd    string
	Reject bool
	Err    error
}

func (e *EngineError) Error() string {
	if e.Reject {
		return fmt.Sprintf("%s rejected %q", e.Engine, e.Cmd)
	}
	return fmt.Sprintf("%s failed on %q: %v", e.Engine, e.Cmd, e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }

// IsReject reports whether err is a GTP "?" reply rather than a
// protocol or I/O fault.
func IsReject(err error) bool {
	var ee *EngineError
	return errors.As(err, &ee) && ee.Reject
}

// Engine is a typed command interface over one GTP child process. It is
// not safe for concurrent use; GTP is a synchronous protocol with one
// command in flight at a time. After an I/O error the engine must be
// considered unusable for the rest of the game; a "?" reply is read to
// its terminating empty line and leaves the engine ready for the next
// command.
type Engine struct {
	program string
	name    string
	prog    *TextProgram
	timeout time.Duration
	log     zerolog.Logger
}

// NewEngine starts the engine process. altName, when non-empty,
// overrides the display name so it is never asked from the engine.
func NewEngine(log zerolog.Logger, command, dir, altName string) (*Engine, error) {
	return NewEngineTimeout(log, command, dir, altName, DefaultTimeout)
}

// NewEngineTimeout is NewEngine with an explicit default response
// timeout.
func NewEngineTimeout(log zerolog.Logger, command, dir, altName string, timeout time.Duration) (*Engine, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	prog, err := StartTextProgram(log, command, dir)
	if err != nil {
		return nil, err
	}

	return &Engine{
		program: command,
		name:    altName,
		prog:    prog,
		timeout: timeout,
		log:     log,
	}, nil
}

// Destroy releases the child process. Safe to call more than once.
func (g *Engine) Destroy() {
	g.prog.Destroy()
}

// Pid returns the child's process id, for log lines.
func (g *Engine) Pid() int {
	return g.prog.Pid()
}

// send writes the command and collects its response. A GTP response is
// one or more lines, terminated by an empty line; the first line starts
// with "=" on success or "?" on failure, followed by a space and the
// payload. Stray output before the status line is ignored.
func (g *Engine) send(cmd string, timeout time.Duration) ([]string, error) {
	g.log.Debug().Str("engine", g.logName()).Msgf("< %s", cmd)

	if err := g.prog.WriteLine(cmd); err != nil {
		return nil, &EngineError{Engine: g.logName(), Cmd: cmd, Err: err}
	}

	var out []string
	seenStatus := false
	rejected := false

	for {
		line, err := g.prog.ReadLine(timeout)
		if err != nil {
			g.log.Warn().Str("engine", g.logName()).Str("cmd", cmd).Err(err).Msg("failed reading response")
			return nil, &EngineError{Engine: g.logName(), Cmd: cmd, Err: err}
		}

		if line == "" {
			g.log.Debug().Str("engine", g.logName()).Msg(">---")
			break
		}

		g.log.Debug().Str("engine", g.logName()).Msgf("> %s", line)

		switch {
		case seenStatus:
			out = append(out, line)
		case line[0] == '=':
			seenStatus = true
			if space := strings.IndexByte(line, ' '); space != -1 {
				line = line[space+1:]
			} else {
				line = line[1:]
			}
			out = append(out, strings.TrimSpace(line))
		case line[0] == '?':
			g.log.Warn().Str("engine", g.logName()).Str("cmd", cmd).Msgf("engine returned an error: %s", line)
			seenStatus = true
			rejected = true
		}
	}

	if rejected {
		return nil, &EngineError{Engine: g.logName(), Cmd: cmd, Reject: true}
	}

	if !seenStatus {
		return nil, &EngineError{Engine: g.logName(), Cmd: cmd, Err: fmt.Errorf("response ended without status line")}
	}

	return out, nil
}

// single runs a command whose payload is the first response line.
func (g *Engine) single(cmd string, timeout time.Duration) (string, error) {
	lines, err := g.send(cmd, timeout)
	if err != nil {
		return "", err
	}
	return lines[0], nil
}

// ok runs a command whose payload does not matter.
func (g *Engine) ok(cmd string) error {
	_, err := g.send(cmd, g.timeout)
	return err
}

// ProtocolVersion asks for the GTP protocol version. It uses the fixed
// startup timeout and doubles as the reachability probe.
func (g *Engine) ProtocolVersion() (string, error) {
	return g.single("protocol_version", startupTimeout)
}

// Name returns the display name: the configured override, else the
// engine's own reply to "name", else the bare command line.
func (g *Engine) Name() string {
	if g.name == "" {
		if v, err := g.single("name", g.timeout); err == nil && v != "" {
			g.name = v
		} else {
			g.name = g.program
		}
		g.log.Info().Msgf("%q (%s) plays under PID %d", g.name, g.program, g.Pid())
	}

	return g.name
}

// HasCommand reports whether the engine advertises cmd in its
// list_commands reply.
func (g *Engine) HasCommand(cmd string) bool {
	lines, err := g.send("list_commands", g.timeout)
	if err != nil {
		return false
	}

	for _, line := range lines {
		if line == cmd {
			return true
		}
	}

	return false
}

// BoardSize sets the board dimension.
func (g *Engine) BoardSize(dim int) error {
	return g.ok(fmt.Sprintf("boardsize %d", dim))
}

// ClearBoard resets the engine's board.
func (g *Engine) ClearBoard() error {
	return g.ok("clear_board")
}

// Komi sets the komi.
func (g *Engine) Komi(komi float64) error {
	return g.ok(fmt.Sprintf("komi %f", komi))
}

// TimeSettings announces the time control, all in seconds.
func (g *Engine) TimeSettings(mainTime, byoYomiTime, byoYomiStones int) error {
	return g.ok(fmt.Sprintf("time_settings %d %d %d", mainTime, byoYomiTime, byoYomiStones))
}

// TimeLeft tells the engine how much time the given color has left.
// GTP takes seconds; stones is 0 while in main time.
func (g *Engine) TimeLeft(c types.Color, left time.Duration, stones int) error {
	return g.ok(fmt.Sprintf("time_left %s %d %d", c.GTP(), int(left.Milliseconds()/1000), stones))
}

// Play places a move for the given color. vertex is a GTP vertex or
// "pass".
func (g *Engine) Play(c types.Color, vertex string) error {
	return g.ok(fmt.Sprintf("play %s %s", c.GTP(), vertex))
}

// Genmove asks the engine to generate and play a move for the given
// color. The caller supplies the deadline, since a legitimate reply may
// take the whole of the player's clock.
func (g *Engine) Genmove(c types.Color, timeout time.Duration) (string, error) {
	move, err := g.single(fmt.Sprintf("genmove %s", c.GTP()), timeout)
	if err != nil {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(move)), nil
}

// FinalScore asks the engine to score the finished game.
func (g *Engine) FinalScore() (string, error) {
	return g.single("final_score", g.timeout)
}

func (g *Engine) logName() string {
	if g.name != "" {
		return g.name
	}
	return g.program
}
