package tournament

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/folkertvanheusden/badank/engine/gtp"
)

// Scripted GTP engines for the end-to-end tests: small shell scripts
// that speak just enough of the protocol for the driver.

const contestantScript = `#!/bin/sh
set -- @MOVES@
while read cmd rest; do
	case "$cmd" in
	quit)
		exit 0
		;;
	protocol_version)
		printf '= 2\n\n'
		;;
	name)
		printf '= @NAME@\n\n'
		;;
	list_commands)
		printf '= play\ngenmove\nname\ntime_settings\ntime_left\nfinal_score\n\n'
		;;
	genmove)
		sleep @DELAY@
		mv=${1:-pass}
		if [ $# -gt 0 ]; then shift; fi
		printf '= %s\n\n' "$mv"
		;;
	final_score)
		printf '= @NAME@ has no idea\n\n'
		;;
	*)
		printf '=\n\n'
		;;
	esac
done
`

const scorerScript = `#!/bin/sh
while read cmd color vertex; do
	case "$cmd" in
	quit)
		exit 0
		;;
	name)
		printf '= scorer\n\n'
		;;
	play)
		if [ "$vertex" = "@REJECT@" ]; then
			printf '? illegal move\n\n'
		else
			printf '=\n\n'
		fi
		;;
	final_score)
		printf '= @SCORE@\n\n'
		;;
	*)
		printf '=\n\n'
		;;
	esac
done
`

// dyingScript answers nothing and exits at once, so the first command
// of the game fails.
const dyingScript = `#!/bin/sh
exit 0
`

func writeScript(t *testing.T, name, body string, vars map[string]string) string {
	t.Helper()

	for k, v := range vars {
		body = strings.ReplaceAll(body, "@"+k+"@", v)
	}
	require.NotContains(t, body, "@", "unexpanded placeholder in script")

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0755))

	return "/bin/sh " + path
}

// contestantCmd builds a contestant that plays the given moves in
// order and passes when they run out.
func contestantCmd(t *testing.T, name, moves string) string {
	return writeScript(t, name+".sh", contestantScript, map[string]string{
		"NAME":  name,
		"MOVES": moves,
		"DELAY": "0",
	})
}

// slowContestantCmd is contestantCmd with a per-move delay in whole
// seconds.
func slowContestantCmd(t *testing.T, name, moves, delay string) string {
	return writeScript(t, name+".sh", contestantScript, map[string]string{
		"NAME":  name,
		"MOVES": moves,
		"DELAY": delay,
	})
}

// scorerCmd builds a scorer that rejects exactly the given vertex
// (pass "none" to accept everything) and reports score as the final
// result.
func scorerCmd(t *testing.T, reject, score string) string {
	return writeScript(t, "scorer.sh", scorerScript, map[string]string{
		"REJECT": reject,
		"SCORE":  score,
	})
}

func startTestEngine(t *testing.T, command string) *gtp.Engine {
	t.Helper()

	e, err := gtp.NewEngineTimeout(zerolog.Nop(), command, "", "", 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(e.Destroy)

	return e
}
