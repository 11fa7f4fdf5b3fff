package sgf

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// GameRecord is one finished tournament game on its way to the record
// file.
type GameRecord struct {
	Date  time.Time
	Dim   int
	Komi  float64
	Black string
	White string

	// Result is the game outcome; it is upper-cased into RE[].
	Result string

	// Meta is a free-form comment, typically the game sequence number.
	Meta string

	// Moves are pre-encoded move nodes: "B[ab]", "W[]", ...
	Moves []string

	// Anomaly, when non-empty, is appended as a comment node; used for
	// games that ended in a protocol failure.
	Anomaly string

	// RandomStones is the per-side count of randomly seeded stones, 0
	// when an opening book or no seeding was used.
	RandomStones int
}

// Encode renders the record as a single SGF game tree.
func (r *GameRecord) Encode() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("(;AP[Badank]DT[%s]GM[1]KM[%.1f]SZ[%d]PW[%s]\n", r.Date.Format("2006-01-02"), r.Komi, r.Dim, r.White))
	b.WriteString(fmt.Sprintf("PB[%s]\n", r.Black))
	b.WriteString(fmt.Sprintf("RE[%s]\n", strings.ToUpper(r.Result)))
	b.WriteString(fmt.Sprintf("C[%s]RU[Tromp/Taylor]\n", r.Meta))

	b.WriteString("(")
	for _, move := range r.Moves {
		b.WriteString(";")
		b.WriteString(move)
	}

	if r.Anomaly != "" {
		b.WriteString(fmt.Sprintf(";C[%s]", r.Anomaly))
	}

	if r.RandomStones > 0 {
		b.WriteString(fmt.Sprintf(";C[Initial %d black and %d white stones were placed randomly by Badank]", r.RandomStones, r.RandomStones))
	}

	b.WriteString(")\n)\n\n")

	return b.String()
}

// AppendRecord appends the record to path. The file is opened per
// write so an interrupted run never holds a half-written handle; the
// caller serialises concurrent appends.
func AppendRecord(path string, r *GameRecord) error {
	return appendString(path, r.Encode())
}

// AppendPGN appends a minimal PGN block for the game to path.
func AppendPGN(path, white, black, result string) error {
	block := fmt.Sprintf("[White %q]\n[Black %q]\n[Result %q]\n\n%s\n\n", white, black, result, result)

	return appendString(path, block)
}

func appendString(path, s string) error {
	fh, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	if _, err := fh.WriteString(s); err != nil {
		fh.Close()
		return err
	}

	return fh.Close()
}
