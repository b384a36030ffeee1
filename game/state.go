// Package game defines the core state types for Tetress.
//
// These types represent the minimal state needed for rules evaluation and
// tree search. Board is a plain array value so that assigning it copies the
// whole grid; search nodes can hold boards without any aliasing.
package game

import (
	"fmt"
	"strings"
)

// N is the board dimension. The board is always N×N.
const N = 11

// TurnLimit is the number of placements after which a game is scored.
const TurnLimit = 150

// PieceSize is the number of cells every piece covers.
const PieceSize = 4

// Cell is the ownership of one board square.
type Cell uint8

const (
	Empty Cell = iota
	RedCell
	BlueCell
)

// Color identifies a player.
type Color uint8

const (
	Red Color = iota
	Blue
)

// Opponent returns the other color.
func (c Color) Opponent() Color {
	if c == Red {
		return Blue
	}
	return Red
}

// Cell returns the cell value owned by c.
func (c Color) Cell() Cell {
	if c == Red {
		return RedCell
	}
	return BlueCell
}

func (c Color) String() string {
	if c == Red {
		return "RED"
	}
	return "BLUE"
}

// Coord is a board coordinate. R is the row, C the column; (0,0) is top-left.
type Coord struct {
	R int
	C int
}

// InBounds reports whether c lies on the board.
func (c Coord) InBounds() bool {
	return c.R >= 0 && c.R < N && c.C >= 0 && c.C < N
}

// Neighbors returns the in-bounds orthogonal neighbours of c.
func (c Coord) Neighbors() []Coord {
	out := make([]Coord, 0, 4)
	for _, d := range [4]Coord{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
		n := Coord{R: c.R + d.R, C: c.C + d.C}
		if n.InBounds() {
			out = append(out, n)
		}
	}
	return out
}

func (c Coord) String() string {
	return fmt.Sprintf("%d-%d", c.R, c.C)
}

// Board is the complete state needed for rules + search.
// Turn counts placements applied so far; it is carried explicitly rather than
// derived from occupancy because line clears remove cells.
type Board struct {
	Cells [N][N]Cell
	Turn  int
}

// At returns the cell at c. c must be in bounds.
func (b *Board) At(c Coord) Cell {
	return b.Cells[c.R][c.C]
}

// Set stores v at c. c must be in bounds.
func (b *Board) Set(c Coord, v Cell) {
	b.Cells[c.R][c.C] = v
}

// Filled returns the number of non-empty cells.
func (b *Board) Filled() int {
	n := 0
	for r := 0; r < N; r++ {
		for c := 0; c < N; c++ {
			if b.Cells[r][c] != Empty {
				n++
			}
		}
	}
	return n
}

// Count returns the number of cells equal to v.
func (b *Board) Count(v Cell) int {
	n := 0
	for r := 0; r < N; r++ {
		for c := 0; c < N; c++ {
			if b.Cells[r][c] == v {
				n++
			}
		}
	}
	return n
}

// RowFull reports whether every cell of row r is non-empty.
func (b *Board) RowFull(r int) bool {
	for c := 0; c < N; c++ {
		if b.Cells[r][c] == Empty {
			return false
		}
	}
	return true
}

// ColFull reports whether every cell of column c is non-empty.
func (b *Board) ColFull(c int) bool {
	for r := 0; r < N; r++ {
		if b.Cells[r][c] == Empty {
			return false
		}
	}
	return true
}

// String renders the board top-to-bottom, one row per line:
// '.' empty, 'r' red, 'b' blue.
func (b Board) String() string {
	var sb strings.Builder
	for r := 0; r < N; r++ {
		for c := 0; c < N; c++ {
			switch b.Cells[r][c] {
			case RedCell:
				sb.WriteByte('r')
			case BlueCell:
				sb.WriteByte('b')
			default:
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// ParseBoard reads the String format back. Blank lines and surrounding
// whitespace are ignored; rows shorter than N are padded with empty cells.
// The returned board has the given turn.
func ParseBoard(s string, turn int) (Board, error) {
	var b Board
	b.Turn = turn
	r := 0
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if r >= N {
			return Board{}, fmt.Errorf("too many rows: want %d", N)
		}
		if len(line) > N {
			return Board{}, fmt.Errorf("row %d: %d columns, want at most %d", r, len(line), N)
		}
		for c, ch := range line {
			switch ch {
			case '.':
			case 'r', 'R':
				b.Cells[r][c] = RedCell
			case 'b', 'B':
				b.Cells[r][c] = BlueCell
			default:
				return Board{}, fmt.Errorf("row %d col %d: unexpected %q", r, c, ch)
			}
		}
		r++
	}
	return b, nil
}

// Placement is a single turn's piece drop. Cells are kept in row-major
// order so that equal cell sets compare equal.
type Placement struct {
	Piece PieceType
	Cells [PieceSize]Coord
}

// Equal reports whether p and o cover the same cells.
func (p Placement) Equal(o Placement) bool {
	return p.Cells == o.Cells
}

func (p Placement) String() string {
	parts := make([]string, len(p.Cells))
	for i, c := range p.Cells {
		parts[i] = c.String()
	}
	return "PLACE(" + strings.Join(parts, ", ") + ")"
}
