// visualize.go - console rendering for debugging self-play games.
package selfplay

import (
	"fmt"
	"io"
	"strings"

	"github.com/brensch/tetress/game"
)

// RenderBoard draws b with row and column indices. Cells covered by last are
// upper-cased.
func RenderBoard(b game.Board, last *game.Placement) string {
	highlight := map[game.Coord]bool{}
	if last != nil {
		for _, c := range last.Cells {
			highlight[c] = true
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "=== Turn %d (red=%d blue=%d) ===\n", b.Turn, b.Count(game.RedCell), b.Count(game.BlueCell))
	sb.WriteString("   ")
	for c := 0; c < game.N; c++ {
		fmt.Fprintf(&sb, "%2d", c)
	}
	sb.WriteByte('\n')
	for r := 0; r < game.N; r++ {
		fmt.Fprintf(&sb, "%2d ", r)
		for c := 0; c < game.N; c++ {
			ch := "."
			switch b.Cells[r][c] {
			case game.RedCell:
				ch = "r"
			case game.BlueCell:
				ch = "b"
			}
			if highlight[game.Coord{R: r, C: c}] {
				ch = strings.ToUpper(ch)
			}
			sb.WriteString(" " + ch)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// PrintBoard writes RenderBoard(b, last) to w.
func PrintBoard(w io.Writer, b game.Board, last *game.Placement) {
	fmt.Fprint(w, RenderBoard(b, last))
}
