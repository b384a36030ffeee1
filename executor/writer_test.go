package main

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/parquet-go/parquet-go"

	"github.com/brensch/tetress/executor/selfplay"
	"github.com/brensch/tetress/store"
)

func listParquet(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read %s: %v", dir, err)
	}
	var out []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".parquet") {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	return out
}

func TestParquetWriterLoop(t *testing.T) {
	dir := t.TempDir()
	in := make(chan gameRecord, 8)
	for i, id := range []string{"a", "b", "c"} {
		in <- gameRecord{
			decisions: []store.DecisionRow{
				{GameID: id, Turn: 0, Color: "RED"},
				{GameID: id, Turn: 1, Color: "BLUE"},
			},
			game: store.GameRow{GameID: id, Turns: int32(2 + i), Winner: "RED"},
		}
	}
	close(in)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if err := parquetWriterLoop(dir, 2, in, logger); err != nil {
		t.Fatalf("writer loop: %v", err)
	}

	decisionFiles := listParquet(t, filepath.Join(dir, "decisions"))
	gameFiles := listParquet(t, filepath.Join(dir, "games"))
	if len(decisionFiles) != 2 || len(gameFiles) != 2 {
		t.Fatalf("got %d decision files and %d game files, want 2 each", len(decisionFiles), len(gameFiles))
	}

	total := 0
	for _, f := range decisionFiles {
		rows, err := parquet.ReadFile[store.DecisionRow](f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		total += len(rows)
	}
	if total != 6 {
		t.Errorf("got %d decision rows, want 6", total)
	}
}

func TestParquetWriterLoopDropsMalformedGame(t *testing.T) {
	dir := t.TempDir()
	in := make(chan gameRecord, 2)
	in <- gameRecord{
		decisions: []store.DecisionRow{{GameID: "good", Turn: 0, Color: "RED"}},
		game:      store.GameRow{GameID: "good", Turns: 1, Winner: "RED"},
	}
	in <- gameRecord{
		decisions: []store.DecisionRow{
			{GameID: "bad", Turn: 0, Color: "RED"},
			{GameID: "bad", Turn: 1, Color: "RED"},
		},
		game: store.GameRow{GameID: "bad", Turns: 2, Winner: "BLUE"},
	}
	close(in)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	err := parquetWriterLoop(dir, 10, in, logger)
	if !errors.Is(err, store.ErrBadGame) {
		t.Fatalf("got %v, want ErrBadGame", err)
	}

	gameFiles := listParquet(t, filepath.Join(dir, "games"))
	if len(gameFiles) != 1 {
		t.Fatalf("got %d game files", len(gameFiles))
	}
	games, err := parquet.ReadFile[store.GameRow](gameFiles[0])
	if err != nil {
		t.Fatalf("read games: %v", err)
	}
	if len(games) != 1 || games[0].GameID != "good" {
		t.Errorf("malformed game row was kept: %+v", games)
	}
}

func TestModelUpdate(t *testing.T) {
	updates := make(chan GameUpdate)
	m := initialModel(updates, runConfig{workers: 2})

	res := selfplay.GameResult{GameID: "g", Completed: true, Reason: selfplay.ReasonTurnLimit, Turns: 150}
	next, _ := m.Update(GameUpdate{WorkerID: 1, Result: res})
	m = next.(model)
	if m.wins["RED"] != 1 || len(m.recentGames) != 1 {
		t.Errorf("game update not recorded: %+v", m.wins)
	}
	if !strings.Contains(m.View(), "Red / Blue / Draw: 1 / 0 / 0") {
		t.Errorf("view missing tally:\n%s", m.View())
	}

	next, cmd := m.Update(doneMsg{})
	m = next.(model)
	if !m.done || cmd == nil {
		t.Fatalf("done message should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Errorf("expected a quit command")
	}
}
