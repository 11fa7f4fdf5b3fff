package gtp

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/folkertvanheusden/badank/types"
)

// script writes a shell script and returns the command line that runs
// it. The command line is space-tokenised, so the script path must not
// contain spaces; t.TempDir paths do not.
func script(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "engine.sh")
	require.NoError(t, os.WriteFile(path, []byte(body), 0755))

	return "/bin/sh " + path
}

func start(t *testing.T, command string) *Engine {
	t.Helper()

	e, err := NewEngineTimeout(zerolog.Nop(), command, "", "", 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(e.Destroy)

	return e
}

const basicEngine = `#!/bin/sh
while read cmd rest; do
	case "$cmd" in
	quit)
		exit 0
		;;
	protocol_version)
		printf '= 2\n\n'
		;;
	name)
		printf '= scripted\n\n'
		;;
	list_commands)
		printf '= play\ngenmove\nname\n\n'
		;;
	genmove)
		printf '= D4\n\n'
		;;
	komi)
		printf '? unacceptable\n\n'
		;;
	*)
		printf '=\n\n'
		;;
	esac
done
`

func TestProtocolVersion(t *testing.T) {
	e := start(t, script(t, basicEngine))

	v, err := e.ProtocolVersion()
	require.NoError(t, err)
	require.Equal(t, "2", v)
}

func TestNameFromEngine(t *testing.T) {
	e := start(t, script(t, basicEngine))

	require.Equal(t, "scripted", e.Name())
	// Cached; no second round-trip needed.
	require.Equal(t, "scripted", e.Name())
}

func TestNameOverride(t *testing.T) {
	cmd := script(t, basicEngine)

	e, err := NewEngineTimeout(zerolog.Nop(), cmd, "", "alt", 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(e.Destroy)

	require.Equal(t, "alt", e.Name())
}

func TestNameFallsBackToCommand(t *testing.T) {
	// An engine whose "name" reply is empty.
	cmd := script(t, `#!/bin/sh
while read cmd rest; do
	if [ "$cmd" = quit ]; then exit 0; fi
	printf '=\n\n'
done
`)
	e := start(t, cmd)

	require.Equal(t, cmd, e.Name())
}

func TestHasCommand(t *testing.T) {
	e := start(t, script(t, basicEngine))

	require.True(t, e.HasCommand("play"))
	require.True(t, e.HasCommand("genmove"))
	require.False(t, e.HasCommand("time_left"))
}

func TestGenmoveLowercasesReply(t *testing.T) {
	e := start(t, script(t, basicEngine))

	move, err := e.Genmove(types.Black, time.Second)
	require.NoError(t, err)
	require.Equal(t, "d4", move)
}

func TestRejectReply(t *testing.T) {
	e := start(t, script(t, basicEngine))

	err := e.Komi(6.5)
	require.Error(t, err)
	require.True(t, IsReject(err))

	var ee *EngineError
	require.True(t, errors.As(err, &ee))
	require.True(t, ee.Reject)
}

func TestStrayOutputBeforeStatusIsIgnored(t *testing.T) {
	e := start(t, script(t, `#!/bin/sh
while read cmd rest; do
	if [ "$cmd" = quit ]; then exit 0; fi
	printf 'warming up\n= ok\n\n'
done
`))

	require.NoError(t, e.ClearBoard())
}

func TestReadTimeout(t *testing.T) {
	cmd := script(t, `#!/bin/sh
read cmd
sleep 10
`)

	e, err := NewEngineTimeout(zerolog.Nop(), cmd, "", "", 200*time.Millisecond)
	require.NoError(t, err)
	t.Cleanup(e.Destroy)

	err = e.ClearBoard()
	require.Error(t, err)
	require.False(t, IsReject(err))
	require.ErrorIs(t, err, ErrTimeout)
}

func TestEngineExitMidGame(t *testing.T) {
	e := start(t, script(t, `#!/bin/sh
read cmd
printf '=\n\n'
exit 0
`))

	require.NoError(t, e.ClearBoard())

	err := e.BoardSize(9)
	require.Error(t, err)
	require.False(t, IsReject(err))
}

func TestDestroyReapsChild(t *testing.T) {
	e := start(t, script(t, basicEngine))
	pid := e.Pid()
	require.Greater(t, pid, 0)

	done := make(chan struct{})
	go func() {
		e.Destroy()
		e.Destroy() // idempotent
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("destroy did not complete in time")
	}
}

func TestMissingWorkingDirectoryIsIgnored(t *testing.T) {
	prog, err := StartTextProgram(zerolog.Nop(), "/bin/sh -c pwd", "/nonexistent-badank-dir")
	require.NoError(t, err)
	t.Cleanup(prog.Destroy)
}
