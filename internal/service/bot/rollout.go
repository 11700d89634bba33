package bot

import (
	"github.com/dropmind/backend/internal/domain"
)

// rollout plays the board out with the heuristic policy until someone wins
// or the board fills up. Returns the winner, or Empty on a draw. The input
// board is not modified.
func (m *MCTS) rollout(board [][]domain.PlayerID, toMove domain.PlayerID) domain.PlayerID {
	b := domain.CopyBoard(board)
	mover := toMove

	for {
		valid := domain.GetValidMoves(b)
		if len(valid) == 0 {
			return domain.Empty
		}

		column := m.rolloutMove(b, mover, valid)
		row, err := domain.DropDisk(b, column, mover)
		if err != nil {
			return domain.Empty
		}
		if _, won := domain.CheckWin(b, row, column, mover); won {
			return mover
		}

		mover = domain.Opponent(mover)
	}
}

// rolloutMove is the playout policy: win if possible, block an opponent
// win, otherwise a random legal column biased toward the center.
func (m *MCTS) rolloutMove(board [][]domain.PlayerID, mover domain.PlayerID, valid []int) int {
	if col := winningMove(board, mover); col >= 0 {
		return col
	}
	if col := winningMove(board, domain.Opponent(mover)); col >= 0 {
		return col
	}

	if m.rng.Float64() < rolloutCenterBias {
		return weightedCenterColumn(valid, m.rng)
	}
	return valid[m.rng.Intn(len(valid))]
}

// weightedCenterColumn samples a legal column with weights peaking at the
// middle: the center column is three times as likely as an edge one.
func weightedCenterColumn(valid []int, rng rollerRand) int {
	center := domain.Columns / 2
	total := 0
	for _, col := range valid {
		total += columnWeight(col, center)
	}

	pick := rng.Intn(total)
	for _, col := range valid {
		pick -= columnWeight(col, center)
		if pick < 0 {
			return col
		}
	}
	return valid[len(valid)-1]
}

func columnWeight(col, center int) int {
	dist := col - center
	if dist < 0 {
		dist = -dist
	}
	return domain.ToWin - dist
}

// rollerRand is the slice of *rand.Rand the rollout needs, kept narrow so
// tests can drive the policy deterministically.
type rollerRand interface {
	Intn(n int) int
}
