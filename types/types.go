// Package types contains shared data structures for badank.
package types

import "strings"

// Color identifies one side of a game.
type Color int

const (
	Black Color = iota
	White
)

// GTP returns the single-letter color name used on the wire.
func (c Color) GTP() string {
	if c == White {
		return "w"
	}
	return "b"
}

// String returns the long color name used in log output.
func (c Color) String() string {
	if c == White {
		return "white"
	}
	return "black"
}

// Opponent returns the other color.
func (c Color) Opponent() Color {
	if c == White {
		return Black
	}
	return White
}

// SGF returns the move-node prefix ("B" or "W") for this color.
func (c Color) SGF() string {
	if c == White {
		return "W"
	}
	return "B"
}

// Outcome is a game result string: "B+<score|Resign|Time|Illegal>",
// "W+<...>", a draw indication, or "?" when the game failed before a
// result could be established.
type Outcome string

const OutcomeFault Outcome = "?"

// Fault reports whether the game ended without a usable result.
func (o Outcome) Fault() bool {
	return len(o) == 0 || o[0] == '?'
}

// Winner returns the winning color, or false when the game was drawn
// or faulted.
func (o Outcome) Winner() (Color, bool) {
	if len(o) == 0 {
		return Black, false
	}
	switch o[0] {
	case 'b', 'B':
		return Black, true
	case 'w', 'W':
		return White, true
	}
	return Black, false
}

// Score returns the Glicko score for the given color: 1 for a win,
// 0 for a loss and 0.5 for a draw. The second return value is false
// for faulted games, which must not be rated.
func (o Outcome) Score(c Color) (float64, bool) {
	if o.Fault() {
		return 0, false
	}
	winner, ok := o.Winner()
	if !ok {
		return 0.5, true
	}
	if winner == c {
		return 1, true
	}
	return 0, true
}

// PGN returns the PGN result tag value for this outcome.
func (o Outcome) PGN() string {
	winner, ok := o.Winner()
	if !ok {
		return "1/2-1/2"
	}
	if winner == White {
		return "1-0"
	}
	return "0-1"
}

// Upper returns the outcome in the upper-cased form used in SGF RE[]
// properties.
func (o Outcome) Upper() string {
	return strings.ToUpper(string(o))
}
