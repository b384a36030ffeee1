// Package rules implements move generation and state transitions for Tetress.
package rules

import (
	"fmt"

	"github.com/brensch/tetress/game"
)

// OpeningTurns is the number of initial placements exempt from the
// same-color adjacency rule: each color's first piece may go anywhere.
const OpeningTurns = 2

// LegalMoves returns every legal placement for color on b.
// Order is deterministic: anchors row-major, then catalog order.
// An empty result means the position is terminal for color.
func LegalMoves(b game.Board, color game.Color) []game.Placement {
	moves := make([]game.Placement, 0, 64)
	forEachCandidate(func(p game.Placement) bool {
		if isLegal(&b, p, color) {
			moves = append(moves, p)
		}
		return true
	})
	return moves
}

// HasLegalMove reports whether color has at least one legal placement.
// It stops at the first one found.
func HasLegalMove(b game.Board, color game.Color) bool {
	found := false
	forEachCandidate(func(p game.Placement) bool {
		if isLegal(&b, p, color) {
			found = true
			return false
		}
		return true
	})
	return found
}

// IsTerminal reports whether color has no legal placement on b.
func IsTerminal(b game.Board, color game.Color) bool {
	return !HasLegalMove(b, color)
}

// IsLegal checks an externally supplied placement against b.
func IsLegal(b game.Board, p game.Placement, color game.Color) bool {
	return isLegal(&b, p, color)
}

// forEachCandidate visits every constructible (anchor, type) pair until fn
// returns false. Catalog construction errors just skip the candidate.
func forEachCandidate(fn func(game.Placement) bool) {
	for r := 0; r < game.N; r++ {
		for c := 0; c < game.N; c++ {
			anchor := game.Coord{R: r, C: c}
			for t := 0; t < game.NumPieceTypes; t++ {
				p, err := game.CreatePiece(game.PieceType(t), anchor)
				if err != nil {
					continue
				}
				if !fn(p) {
					return
				}
			}
		}
	}
}

func isLegal(b *game.Board, p game.Placement, color game.Color) bool {
	for _, c := range p.Cells {
		if !c.InBounds() || b.At(c) != game.Empty {
			return false
		}
	}
	if b.Turn < OpeningTurns {
		return true
	}
	return touches(b, p, color)
}

// touches reports whether any cell of p is orthogonally adjacent to a cell
// owned by color.
func touches(b *game.Board, p game.Placement, color game.Color) bool {
	own := color.Cell()
	for _, c := range p.Cells {
		for _, n := range c.Neighbors() {
			if b.At(n) == own {
				return true
			}
		}
	}
	return false
}

// Apply returns the board after color places p: the cells are claimed, the
// turn advances by one, then full rows and columns are cleared.
//
// p must come from LegalMoves or have passed IsLegal. Placing onto an
// occupied or off-board cell is a broken invariant and panics.
func Apply(b game.Board, p game.Placement, color game.Color) game.Board {
	own := color.Cell()
	for _, c := range p.Cells {
		if !c.InBounds() {
			panic(fmt.Sprintf("rules: placement %v off board", p))
		}
		if b.At(c) != game.Empty {
			panic(fmt.Sprintf("rules: placement %v overlaps occupied cell %v", p, c))
		}
		b.Set(c, own)
	}
	b.Turn++
	return ClearLines(b)
}

// ClearLines empties every full row and every full column. Both are judged
// on the input board, so one placement can clear a row and a column at once.
// Applying it to its own output changes nothing.
func ClearLines(b game.Board) game.Board {
	var rows, cols [game.N]bool
	full := false
	for i := 0; i < game.N; i++ {
		rows[i] = b.RowFull(i)
		cols[i] = b.ColFull(i)
		full = full || rows[i] || cols[i]
	}
	if !full {
		return b
	}

	for r := 0; r < game.N; r++ {
		for c := 0; c < game.N; c++ {
			if rows[r] || cols[c] {
				b.Cells[r][c] = game.Empty
			}
		}
	}
	return b
}

// Winner scores a finished game: the color with more cells wins.
// ok is false on a draw.
func Winner(b game.Board) (winner game.Color, ok bool) {
	red, blue := b.Count(game.RedCell), b.Count(game.BlueCell)
	switch {
	case red > blue:
		return game.Red, true
	case blue > red:
		return game.Blue, true
	}
	return game.Red, false
}
