package game

import (
	"errors"
	"testing"
)

func TestBoardIsValue(t *testing.T) {
	var a Board
	b := a
	b.Set(Coord{R: 2, C: 3}, RedCell)
	b.Turn++

	if a.At(Coord{R: 2, C: 3}) != Empty {
		t.Fatalf("copy aliased the original board")
	}
	if a.Turn != 0 {
		t.Fatalf("copy aliased the original turn, got %d", a.Turn)
	}
}

func TestParseBoardRoundTrip(t *testing.T) {
	in := `
		r..........
		.b.........
		...........
		...........
		...........
		...........
		...........
		...........
		...........
		...........
		..........r
	`
	b, err := ParseBoard(in, 7)
	if err != nil {
		t.Fatalf("ParseBoard: %v", err)
	}
	if b.Turn != 7 {
		t.Errorf("turn: got %d want 7", b.Turn)
	}
	if got := b.Count(RedCell); got != 2 {
		t.Errorf("red cells: got %d want 2", got)
	}
	if got := b.Count(BlueCell); got != 1 {
		t.Errorf("blue cells: got %d want 1", got)
	}

	again, err := ParseBoard(b.String(), 7)
	if err != nil {
		t.Fatalf("ParseBoard(String()): %v", err)
	}
	if again != b {
		t.Errorf("round trip mismatch:\n%s\nvs\n%s", b, again)
	}
}

func TestParseBoardErrors(t *testing.T) {
	cases := map[string]string{
		"bad rune":  "x",
		"long row":  "............",
		"many rows": "r\nr\nr\nr\nr\nr\nr\nr\nr\nr\nr\nr",
	}
	for name, in := range cases {
		if _, err := ParseBoard(in, 0); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestRowColFull(t *testing.T) {
	var b Board
	for c := 0; c < N; c++ {
		b.Set(Coord{R: 4, C: c}, BlueCell)
	}
	if !b.RowFull(4) {
		t.Errorf("row 4 should be full")
	}
	if b.RowFull(3) {
		t.Errorf("row 3 should not be full")
	}
	if b.ColFull(0) {
		t.Errorf("col 0 should not be full")
	}
	if got := b.Filled(); got != N {
		t.Errorf("filled: got %d want %d", got, N)
	}
}

func TestNeighbors(t *testing.T) {
	cases := []struct {
		c    Coord
		want int
	}{
		{Coord{0, 0}, 2},
		{Coord{0, 5}, 3},
		{Coord{5, 5}, 4},
		{Coord{N - 1, N - 1}, 2},
	}
	for _, tc := range cases {
		if got := len(tc.c.Neighbors()); got != tc.want {
			t.Errorf("%v: got %d neighbours want %d", tc.c, got, tc.want)
		}
	}
}

func TestColor(t *testing.T) {
	if Red.Opponent() != Blue || Blue.Opponent() != Red {
		t.Fatalf("Opponent is not an involution")
	}
	if Red.Cell() != RedCell || Blue.Cell() != BlueCell {
		t.Fatalf("Cell mapping wrong")
	}
}

func TestPlacementEqualIgnoresPieceType(t *testing.T) {
	p, err := CreatePiece(OSquare, Coord{R: 1, C: 1})
	if err != nil {
		t.Fatalf("CreatePiece: %v", err)
	}
	q := p
	q.Piece = TUp
	if !p.Equal(q) {
		t.Errorf("placements with the same cells should be equal")
	}
	r, _ := CreatePiece(OSquare, Coord{R: 1, C: 2})
	if p.Equal(r) {
		t.Errorf("different cells compared equal")
	}
	if got, want := p.String(), "PLACE(1-1, 1-2, 2-1, 2-2)"; got != want {
		t.Errorf("String: got %q want %q", got, want)
	}
}

func TestCreatePieceInvalid(t *testing.T) {
	if _, err := CreatePiece(PieceType(NumPieceTypes), Coord{}); !errors.Is(err, ErrInvalidPiece) {
		t.Errorf("unknown type: got %v", err)
	}
	if _, err := CreatePiece(IVertical, Coord{R: -1, C: 0}); !errors.Is(err, ErrInvalidPiece) {
		t.Errorf("off-board anchor: got %v", err)
	}
}
