package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
)

func sampleDecisions() []DecisionRow {
	return []DecisionRow{
		{GameID: "g1", Turn: 0, Color: "RED", Iterations: 120, Nodes: 121, Placement: "PLACE(0-0, 0-1, 0-2, 0-3)", Piece: "I-horizontal", RootJSON: []byte(`[]`)},
		{GameID: "g1", Turn: 1, Color: "BLUE", Iterations: 98, Nodes: 99, Fallback: true, Placement: "PLACE(5-5, 5-6, 6-5, 6-6)", Piece: "O"},
		{GameID: "g1", Turn: 2, Color: "RED", NoAction: true},
	}
}

func TestWriteBatchAtomicDecisions(t *testing.T) {
	dir := t.TempDir()
	rows := sampleDecisions()

	path, err := WriteBatchAtomic(dir, "decisions", DecisionSchema, rows)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if filepath.Dir(path) != dir {
		t.Errorf("file written to %s, want directory %s", path, dir)
	}

	tmpEntries, err := os.ReadDir(filepath.Join(dir, "tmp"))
	if err != nil {
		t.Fatalf("read tmp: %v", err)
	}
	if len(tmpEntries) != 0 {
		t.Errorf("tmp dir not empty after write: %d entries", len(tmpEntries))
	}

	got, err := parquet.ReadFile[DecisionRow](path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != len(rows) {
		t.Fatalf("got %d rows, want %d", len(got), len(rows))
	}
	if got[1].Color != "BLUE" || !got[1].Fallback || got[1].Piece != "O" {
		t.Errorf("row 1 mismatch: %+v", got[1])
	}
	if !got[2].NoAction {
		t.Errorf("row 2 should be a no-action decision")
	}
	if string(got[0].RootJSON) != "[]" {
		t.Errorf("root json = %q", got[0].RootJSON)
	}
}

func TestWriteGameBatchAtomic(t *testing.T) {
	dir := t.TempDir()
	rows := []GameRow{
		{GameID: "a", Turns: 150, Winner: "RED", Reason: "turn_limit", RedCells: 40, BlueCells: 31},
		{GameID: "b", Turns: 37, Winner: "BLUE", Reason: "no_moves"},
	}
	path, err := WriteGameBatchAtomic(dir, rows)
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := parquet.ReadFile[GameRow](path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 2 || got[0].Winner != "RED" || got[1].Reason != "no_moves" {
		t.Errorf("unexpected rows: %+v", got)
	}
}

func TestDecisionWriter(t *testing.T) {
	dir := t.TempDir()
	w, err := NewDecisionWriter(dir)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	if _, err := os.Stat(w.TmpPath()); err != nil {
		t.Fatalf("tmp file missing: %v", err)
	}

	second := []DecisionRow{
		{GameID: "g2", Turn: 0, Color: "RED", Placement: "PLACE(10-7, 10-8, 10-9, 10-10)", Piece: "I-horizontal"},
	}
	if err := w.WriteGame(sampleDecisions()); err != nil {
		t.Fatalf("write game: %v", err)
	}
	if err := w.WriteGame(second); err != nil {
		t.Fatalf("write game: %v", err)
	}

	if w.Rows() != 4 || w.Games() != 2 {
		t.Errorf("buffered rows=%d games=%d", w.Rows(), w.Games())
	}

	out, n, games, err := w.Finalize()
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if out != w.OutPath() || n != 4 || games != 2 {
		t.Errorf("finalize returned %s %d %d", out, n, games)
	}
	if _, err := os.Stat(w.TmpPath()); !os.IsNotExist(err) {
		t.Errorf("tmp file still present: %v", err)
	}

	got, err := parquet.ReadFile[DecisionRow](out)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 4 || got[3].GameID != "g2" {
		t.Errorf("got %d rows: %+v", len(got), got)
	}

	if err := w.WriteGame(second); err != ErrWriterClosed {
		t.Errorf("write after finalize: got %v, want ErrWriterClosed", err)
	}
}

func TestDecisionWriterRejectsMalformedGames(t *testing.T) {
	long := make([]DecisionRow, 151)
	for i := range long {
		long[i] = DecisionRow{GameID: "long", Turn: int32(i), Color: "RED"}
		if i%2 == 1 {
			long[i].Color = "BLUE"
		}
	}
	cases := []struct {
		name string
		rows []DecisionRow
	}{
		{"mixed games", []DecisionRow{
			{GameID: "a", Turn: 0, Color: "RED"},
			{GameID: "b", Turn: 1, Color: "BLUE"},
		}},
		{"skipped turn", []DecisionRow{
			{GameID: "a", Turn: 0, Color: "RED"},
			{GameID: "a", Turn: 2, Color: "RED"},
		}},
		{"starts late", []DecisionRow{
			{GameID: "a", Turn: 1, Color: "BLUE"},
		}},
		{"blue opens", []DecisionRow{
			{GameID: "a", Turn: 0, Color: "BLUE"},
		}},
		{"red twice", []DecisionRow{
			{GameID: "a", Turn: 0, Color: "RED"},
			{GameID: "a", Turn: 1, Color: "RED"},
		}},
		{"past turn limit", long},
	}

	dir := t.TempDir()
	w, err := NewDecisionWriter(dir)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	for _, tc := range cases {
		err := w.WriteGame(tc.rows)
		if !errors.Is(err, ErrBadGame) {
			t.Errorf("%s: got %v, want ErrBadGame", tc.name, err)
			continue
		}
		t.Logf("%s: %v", tc.name, err)
	}
	if w.Rows() != 0 || w.Games() != 0 {
		t.Errorf("rejected games were counted: rows=%d games=%d", w.Rows(), w.Games())
	}

	if err := w.WriteGame(long[:150]); err != nil {
		t.Errorf("a full-length game should be accepted: %v", err)
	}
	if _, _, _, err := w.Finalize(); err != nil {
		t.Fatalf("finalize: %v", err)
	}
}

func TestDecisionWriterEmptyFinalize(t *testing.T) {
	dir := t.TempDir()
	w, err := NewDecisionWriter(dir)
	if err != nil {
		t.Fatalf("new writer: %v", err)
	}
	if err := w.WriteGame(nil); err != nil {
		t.Fatalf("empty game: %v", err)
	}
	out, n, _, err := w.Finalize()
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if out != "" || n != 0 {
		t.Errorf("empty finalize returned %q %d", out, n)
	}
	if _, err := os.Stat(w.TmpPath()); !os.IsNotExist(err) {
		t.Errorf("empty tmp file should be removed")
	}
}
