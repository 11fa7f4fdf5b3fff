package sgf

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func testRecord() *GameRecord {
	return &GameRecord{
		Date:   time.Date(2023, 4, 5, 12, 0, 0, 0, time.UTC),
		Dim:    9,
		Komi:   5.5,
		Black:  "blacky",
		White:  "whitey",
		Result: "w+Resign",
		Meta:   "7> ",
		Moves:  []string{"B[dd]", "W[pp]", "B[]", "W[]"},
	}
}

func TestGameRecordEncode(t *testing.T) {
	got := testRecord().Encode()

	want := "(;AP[Badank]DT[2023-04-05]GM[1]KM[5.5]SZ[9]PW[whitey]\n" +
		"PB[blacky]\n" +
		"RE[W+RESIGN]\n" +
		"C[7> ]RU[Tromp/Taylor]\n" +
		"(;B[dd];W[pp];B[];W[])\n" +
		")\n\n"

	if got != want {
		t.Errorf("Encode() = %q, want %q", got, want)
	}
}

func TestGameRecordEncodeAnomalyAndSeeding(t *testing.T) {
	rec := testRecord()
	rec.Anomaly = "?"
	rec.RandomStones = 3

	got := rec.Encode()

	if !strings.Contains(got, ";C[?]") {
		t.Errorf("missing anomaly comment in %q", got)
	}
	if !strings.Contains(got, ";C[Initial 3 black and 3 white stones were placed randomly by Badank]") {
		t.Errorf("missing seeding comment in %q", got)
	}
}

func TestAppendRecordAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "games.sgf")

	if err := AppendRecord(path, testRecord()); err != nil {
		t.Fatal(err)
	}
	if err := AppendRecord(path, testRecord()); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if got := strings.Count(string(data), "(;AP[Badank]"); got != 2 {
		t.Errorf("records = %d, want 2", got)
	}
}

func TestAppendPGN(t *testing.T) {
	path := filepath.Join(t.TempDir(), "games.pgn")

	if err := AppendPGN(path, "whitey", "blacky", "1-0"); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	want := "[White \"whitey\"]\n[Black \"blacky\"]\n[Result \"1-0\"]\n\n1-0\n\n"
	if string(data) != want {
		t.Errorf("pgn = %q, want %q", string(data), want)
	}
}
