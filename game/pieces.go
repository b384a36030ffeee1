// pieces.go is the fixed catalog of tetromino orientations.

package game

import (
	"errors"
	"fmt"
	"sort"
)

// PieceType is one fixed orientation of a tetromino.
type PieceType uint8

const (
	IHorizontal PieceType = iota
	IVertical
	OSquare
	TUp
	TDown
	TLeft
	TRight
	JUp
	JDown
	JLeft
	JRight
	LUp
	LDown
	LLeft
	LRight
	ZHorizontal
	ZVertical
	SHorizontal
	SVertical

	NumPieceTypes = int(SVertical) + 1
)

// ErrInvalidPiece is returned when a piece cannot be constructed.
var ErrInvalidPiece = errors.New("invalid piece")

// shapes holds the cell offsets of each type relative to its anchor, in
// row-major order. Translation keeps that order, so placements built from
// them need no sorting.
var shapes = [NumPieceTypes][PieceSize]Coord{
	IHorizontal: {{0, 0}, {0, 1}, {0, 2}, {0, 3}},
	IVertical:   {{0, 0}, {1, 0}, {2, 0}, {3, 0}},
	OSquare:     {{0, 0}, {0, 1}, {1, 0}, {1, 1}},
	TUp:         {{0, 0}, {1, -1}, {1, 0}, {1, 1}},
	TDown:       {{0, 0}, {0, 1}, {0, 2}, {1, 1}},
	TLeft:       {{0, 0}, {1, -1}, {1, 0}, {2, 0}},
	TRight:      {{0, 0}, {1, 0}, {1, 1}, {2, 0}},
	JUp:         {{0, 0}, {1, 0}, {2, -1}, {2, 0}},
	JDown:       {{0, 0}, {0, 1}, {1, 0}, {2, 0}},
	JLeft:       {{0, 0}, {1, 0}, {1, 1}, {1, 2}},
	JRight:      {{0, 0}, {0, 1}, {0, 2}, {1, 2}},
	LUp:         {{0, 0}, {1, 0}, {2, 0}, {2, 1}},
	LDown:       {{0, 0}, {0, 1}, {1, 1}, {2, 1}},
	LLeft:       {{0, 0}, {0, 1}, {0, 2}, {1, 0}},
	LRight:      {{0, 0}, {1, -2}, {1, -1}, {1, 0}},
	ZHorizontal: {{0, 0}, {0, 1}, {1, 1}, {1, 2}},
	ZVertical:   {{0, 0}, {1, -1}, {1, 0}, {2, -1}},
	SHorizontal: {{0, 0}, {0, 1}, {1, -1}, {1, 0}},
	SVertical:   {{0, 0}, {1, 0}, {1, 1}, {2, 1}},
}

var pieceNames = [NumPieceTypes]string{
	"I-horizontal", "I-vertical", "O",
	"T-up", "T-down", "T-left", "T-right",
	"J-up", "J-down", "J-left", "J-right",
	"L-up", "L-down", "L-left", "L-right",
	"Z-horizontal", "Z-vertical", "S-horizontal", "S-vertical",
}

func (t PieceType) String() string {
	if int(t) < NumPieceTypes {
		return pieceNames[t]
	}
	return fmt.Sprintf("PieceType(%d)", uint8(t))
}

// PieceTypes returns every type in catalog order.
func PieceTypes() []PieceType {
	out := make([]PieceType, NumPieceTypes)
	for i := range out {
		out[i] = PieceType(i)
	}
	return out
}

// Offsets returns the anchor-relative offsets of t.
func (t PieceType) Offsets() ([PieceSize]Coord, bool) {
	if int(t) >= NumPieceTypes {
		return [PieceSize]Coord{}, false
	}
	return shapes[t], true
}

// CreatePiece places t with its anchor at the given coordinate and returns
// the absolute cells in row-major order. Cells may fall off the board; callers
// check bounds. ErrInvalidPiece is returned for an unknown type or an anchor
// outside the board.
func CreatePiece(t PieceType, anchor Coord) (Placement, error) {
	offsets, ok := t.Offsets()
	if !ok {
		return Placement{}, fmt.Errorf("%w: unknown type %d", ErrInvalidPiece, uint8(t))
	}
	if !anchor.InBounds() {
		return Placement{}, fmt.Errorf("%w: anchor %v off board", ErrInvalidPiece, anchor)
	}

	p := Placement{Piece: t}
	for i, o := range offsets {
		p.Cells[i] = Coord{R: anchor.R + o.R, C: anchor.C + o.C}
	}
	return p, nil
}

// NewPlacement builds a placement from externally supplied cells, e.g. a
// referee message. The piece type is recovered from the shape when possible.
func NewPlacement(cells [PieceSize]Coord) (Placement, error) {
	sortCells(&cells)
	for t := 0; t < NumPieceTypes; t++ {
		// The anchor offset is first in row-major order, so it is cells[0].
		anchor := cells[0]
		var want [PieceSize]Coord
		for i, o := range shapes[t] {
			want[i] = Coord{R: anchor.R + o.R, C: anchor.C + o.C}
		}
		if want == cells {
			return Placement{Piece: PieceType(t), Cells: cells}, nil
		}
	}
	return Placement{}, fmt.Errorf("%w: cells %v are not a tetromino", ErrInvalidPiece, cells)
}

func sortCells(cells *[PieceSize]Coord) {
	s := cells[:]
	sort.Slice(s, func(i, j int) bool {
		if s[i].R != s[j].R {
			return s[i].R < s[j].R
		}
		return s[i].C < s[j].C
	})
}
