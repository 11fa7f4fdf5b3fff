package gtp

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
)

var (
	// ErrTimeout is returned when no complete line arrived within the
	// read deadline.
	ErrTimeout = errors.New("read timeout")

	// ErrClosed is returned when the child's stdout reached EOF.
	ErrClosed = errors.New("pipe closed")
)

// TextProgram runs a child process and exchanges newline-framed text
// with it over stdin/stdout. The child's stderr is discarded. Reads are
// decoupled from the pipe by a scanner goroutine so that they can be
// bounded by a deadline.
type TextProgram struct {
	command string
	cmd     *exec.Cmd
	stdin   io.WriteCloser

	lines    chan string
	waitDone chan struct{}
	waitErr  error

	destroyOnce sync.Once

	log zerolog.Logger
}

// StartTextProgram spawns command in dir. The command line is tokenised
// on spaces; quoted arguments are not supported. A missing working
// directory is logged and ignored, matching the behaviour of running
// from an unexpected location rather than refusing to start.
func StartTextProgram(log zerolog.Logger, command, dir string) (*TextProgram, error) {
	parts := strings.Fields(command)
	if len(parts) == 0 {
		return nil, fmt.Errorf("empty command line")
	}

	cmd := exec.Command(parts[0], parts[1:]...)
	if dir != "" {
		if _, err := os.Stat(dir); err != nil {
			log.Warn().Str("dir", dir).Str("command", command).Err(err).Msg("working directory not usable, ignoring")
		} else {
			cmd.Dir = dir
		}
	}

	// Own process group, so a misbehaving engine cannot take the
	// tournament down with it.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("stdin pipe: %w", err)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("stdout pipe: %w", err)
	}

	cmd.Stderr = nil // /dev/null

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %q: %w", command, err)
	}

	p := &TextProgram{
		command:  command,
		cmd:      cmd,
		stdin:    stdin,
		lines:    make(chan string, 64),
		waitDone: make(chan struct{}),
		log:      log,
	}

	go func() {
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			p.lines <- scanner.Text()
		}
		close(p.lines)

		p.waitErr = cmd.Wait()
		close(p.waitDone)
	}()

	p.log.Debug().Str("command", command).Int("pid", p.Pid()).Msg("started")

	return p, nil
}

// Pid returns the child's process id.
func (p *TextProgram) Pid() int {
	if p.cmd.Process == nil {
		return -1
	}
	return p.cmd.Process.Pid
}

// WriteLine sends one line of text, appending the newline.
func (p *TextProgram) WriteLine(text string) error {
	if _, err := io.WriteString(p.stdin, text+"\n"); err != nil {
		return fmt.Errorf("write to %q: %w", p.command, err)
	}
	return nil
}

// ReadLine returns the next line from the child, with trailing CR/LF
// stripped. A non-positive timeout blocks until a line or EOF arrives.
func (p *TextProgram) ReadLine(timeout time.Duration) (string, error) {
	if timeout <= 0 {
		line, ok := <-p.lines
		if !ok {
			return "", ErrClosed
		}
		return line, nil
	}

	t := time.NewTimer(timeout)
	defer t.Stop()

	select {
	case line, ok := <-p.lines:
		if !ok {
			return "", ErrClosed
		}
		return line, nil
	case <-t.C:
		return "", ErrTimeout
	}
}

// Destroy shuts the child down: "quit", a short grace period, close
// the pipes, then an escalation of SIGTERM and SIGKILL. A child that
// survives all of that is logged and leaked.
func (p *TextProgram) Destroy() {
	p.destroyOnce.Do(func() {
		_ = p.WriteLine("quit")

		time.Sleep(100 * time.Millisecond)

		p.stdin.Close()

		// Keep the scanner goroutine moving so the child gets reaped
		// even when nobody reads its final output.
		go func() {
			for range p.lines {
			}
		}()

		for round := 0; ; round++ {
			select {
			case <-p.waitDone:
				return
			default:
			}

			switch round {
			case 0:
				p.log.Debug().Int("pid", p.Pid()).Msg("sending SIGTERM")
				_ = p.cmd.Process.Signal(syscall.SIGTERM)
				if p.reapedWithin(500 * time.Millisecond) {
					return
				}
			case 1:
				p.log.Debug().Int("pid", p.Pid()).Msg("sending SIGKILL")
				_ = p.cmd.Process.Kill()
				if p.reapedWithin(100 * time.Millisecond) {
					return
				}
			default:
				p.log.Warn().Int("pid", p.Pid()).Str("command", p.command).Msg("failed to terminate process")
				return
			}
		}
	})
}

func (p *TextProgram) reapedWithin(d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-p.waitDone:
		return true
	case <-t.C:
		return false
	}
}
