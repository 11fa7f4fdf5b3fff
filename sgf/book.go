// Package sgf implements the two slices of SGF that the tournament
// needs: reading opening positions from a book directory and appending
// finished games to a record file.
package sgf

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/folkertvanheusden/badank/types"
)

// Move is one stone of a book opening, with 0-indexed coordinates.
type Move struct {
	Color types.Color
	X     int
	Y     int
}

// BookEntry is one opening position: the board dimension and komi it
// was recorded for, plus the ordered moves to replay.
type BookEntry struct {
	Dim   int
	Komi  float64
	Moves []Move
}

// LoadBook parses every regular file in dir as an opening SGF. Loaded
// once per batch; immutable thereafter.
func LoadBook(dir string) ([]BookEntry, error) {
	dirents, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("open book directory: %w", err)
	}

	var entries []BookEntry

	for _, de := range dirents {
		if !de.Type().IsRegular() {
			continue
		}

		path := filepath.Join(dir, de.Name())

		entry, err := LoadBookEntry(path)
		if err != nil {
			return nil, fmt.Errorf("book file %s: %w", path, err)
		}

		entries = append(entries, entry)
	}

	return entries, nil
}

// LoadBookEntry parses a single opening SGF. The parser is a flat
// key/value scan: variations and multiple game trees are not handled.
func LoadBookEntry(path string) (BookEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return BookEntry{}, err
	}

	entry := BookEntry{Dim: 19}

	getKey := true
	var key, value []byte

	fail := func(format string, args ...any) (BookEntry, error) {
		return BookEntry{}, fmt.Errorf(format, args...)
	}

	for i := 0; i < len(data); i++ {
		c := data[i]

		switch {
		case c == '(' || c == ';':
			getKey = true
			key = key[:0]
			value = value[:0]
		case getKey:
			if isLetter(c) {
				key = append(key, c)
			} else if c == '[' {
				getKey = false
			} else {
				getKey = true
				key = key[:0]
				value = value[:0]
			}
		case c == ']':
			switch string(key) {
			case "B", "W":
				if len(value) != 2 {
					return fail("malformed move %q", value)
				}

				color := types.Black
				if key[0] == 'W' {
					color = types.White
				}

				x := int(lower(value[0]) - 'a')
				y := int(lower(value[1]) - 'a')
				if x < 0 || y < 0 || x >= entry.Dim || y >= entry.Dim {
					return fail("move %q outside %dx%d board", value, entry.Dim, entry.Dim)
				}

				entry.Moves = append(entry.Moves, Move{Color: color, X: x, Y: y})
			case "SZ":
				if dim, err := strconv.Atoi(string(value)); err == nil {
					entry.Dim = dim
				}
			case "KM":
				if komi, err := strconv.ParseFloat(string(value), 64); err == nil {
					entry.Komi = komi
				}
			}

			getKey = true
			key = key[:0]
			value = value[:0]
		default:
			value = append(value, c)
		}
	}

	return entry, nil
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func lower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + 'a' - 'A'
	}
	return c
}
