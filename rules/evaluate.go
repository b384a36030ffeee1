package rules

import "github.com/brensch/tetress/game"

// Evaluation weights.
const (
	// LineOpponentWeight rewards, per opponent cell, a full line the
	// opponent holds the majority of.
	LineOpponentWeight = 10.0
	// LineOwnPenalty is charged per own cell in any full line.
	LineOwnPenalty = 5.0
	// CoverageWeight is paid per non-empty cell.
	CoverageWeight = 5.0
	// CentreWeight is paid per non-empty cell in the centre region.
	CentreWeight = 10.0
)

// centreLo and centreHi bound the middle third of each axis: [N/3, 2N/3).
const (
	centreLo = game.N / 3
	centreHi = 2 * game.N / 3
)

// Evaluate scores b from color's perspective; higher is better for color.
func Evaluate(b game.Board, color game.Color) float64 {
	own, opp := color.Cell(), color.Opponent().Cell()

	score := 0.0
	for i := 0; i < game.N; i++ {
		var ownRow, oppRow, ownCol, oppCol int
		for j := 0; j < game.N; j++ {
			switch b.Cells[i][j] {
			case own:
				ownRow++
			case opp:
				oppRow++
			}
			switch b.Cells[j][i] {
			case own:
				ownCol++
			case opp:
				oppCol++
			}
		}
		score += lineScore(ownRow, oppRow)
		score += lineScore(ownCol, oppCol)
	}

	for r := 0; r < game.N; r++ {
		for c := 0; c < game.N; c++ {
			if b.Cells[r][c] == game.Empty {
				continue
			}
			score += CoverageWeight
			if r >= centreLo && r < centreHi && c >= centreLo && c < centreHi {
				score += CentreWeight
			}
		}
	}
	return score
}

func lineScore(own, opp int) float64 {
	if own+opp != game.N {
		return 0
	}
	s := -LineOwnPenalty * float64(own)
	if opp > own {
		s += LineOpponentWeight * float64(opp)
	}
	return s
}
