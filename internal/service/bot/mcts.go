package bot

import (
	"context"
	"log"
	"math/rand"
	"time"

	"github.com/dropmind/backend/internal/domain"
)

const (
	DefaultSimulations = 3000
	DefaultTimeLimit   = time.Second
	DefaultExploration = 1.41

	// finalVisitWeight blends visit share into the final move choice so a
	// lightly sampled lucky branch cannot beat a well-explored strong one,
	// and an unlucky heavily explored branch cannot beat a strong underdog.
	finalVisitWeight = 0.1

	// rolloutCenterBias is the probability that a rollout move is drawn
	// from the center-weighted distribution instead of uniformly.
	rolloutCenterBias = 0.75
)

// MCTS is the tree-search engine. A fresh tree is built for every
// SelectMove call and discarded with it, nothing is shared across turns.
type MCTS struct {
	simulations int
	timeLimit   time.Duration
	exploration float64
	rng         *rand.Rand
}

func NewMCTS(simulations int, timeLimit time.Duration, exploration float64) *MCTS {
	if simulations <= 0 {
		simulations = DefaultSimulations
	}
	if timeLimit <= 0 {
		timeLimit = DefaultTimeLimit
	}
	if exploration <= 0 {
		exploration = DefaultExploration
	}
	return &MCTS{
		simulations: simulations,
		timeLimit:   timeLimit,
		exploration: exploration,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SelectMove picks a column for mover. Tactical pre-checks run before any
// search: a sampling budget this small under-detects forced lines, so
// immediate wins and blocks are handled exactly, and the empty board opens
// on the center column.
func (m *MCTS) SelectMove(ctx context.Context, board [][]domain.PlayerID, mover domain.PlayerID) int {
	valid := domain.GetValidMoves(board)
	if len(valid) == 0 {
		return -1
	}

	if col := winningMove(board, mover); col >= 0 {
		return col
	}
	opponent := domain.Opponent(mover)
	if col := winningMove(board, opponent); col >= 0 {
		return col
	}
	if isEmptyBoard(board) {
		return domain.Columns / 2
	}

	t := newTree(board, opponent)
	deadline := time.Now().Add(m.timeLimit)

	sims := 0
	for sims < m.simulations && time.Now().Before(deadline) {
		idx := t.selectNode(0, m.exploration)
		idx = t.expand(idx, m.rng)

		n := &t.nodes[idx]
		var winner domain.PlayerID
		if n.terminal {
			winner = n.winner
		} else {
			winner = m.rollout(n.board, domain.Opponent(n.player))
		}

		t.backpropagate(idx, winner)
		sims++
	}

	return m.bestColumn(t, sims, board)
}

// bestColumn scores every root child by win rate blended with its share of
// the simulation budget and returns the argmax. Ties go to the lowest
// column index so results are reproducible.
func (m *MCTS) bestColumn(t *tree, totalSims int, board [][]domain.PlayerID) int {
	root := &t.nodes[0]
	if len(root.children) == 0 || totalSims == 0 {
		// the budget never ran, which only happens when it is configured to
		// zero or the clock expired before the first iteration
		log.Printf("[BOT] mcts finished with no expanded children after %d simulations", totalSims)
		return preferredColumn(board)
	}

	bestCol := -1
	bestScore := 0.0
	for _, childIdx := range root.children {
		child := &t.nodes[childIdx]
		if child.visits == 0 {
			continue
		}
		winRate := child.score / float64(child.visits)
		score := winRate + finalVisitWeight*(float64(child.visits)/float64(totalSims))
		if bestCol == -1 || score > bestScore || (score == bestScore && child.move < bestCol) {
			bestScore = score
			bestCol = child.move
		}
	}

	if bestCol < 0 {
		return preferredColumn(board)
	}
	return bestCol
}

// winningMove returns a column where player wins immediately, or -1.
func winningMove(board [][]domain.PlayerID, player domain.PlayerID) int {
	for _, col := range domain.GetValidMoves(board) {
		testBoard, row, err := domain.SimulateMove(board, col, player)
		if err != nil {
			continue
		}
		if _, won := domain.CheckWin(testBoard, row, col, player); won {
			return col
		}
	}
	return -1
}

func isEmptyBoard(board [][]domain.PlayerID) bool {
	for c := 0; c < domain.Columns; c++ {
		if board[domain.Rows-1][c] != domain.Empty {
			return false
		}
	}
	return true
}
