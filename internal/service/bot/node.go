package bot

import (
	"math"
	"math/rand"

	"github.com/dropmind/backend/internal/domain"
)

// The search tree lives in a flat arena and nodes link to each other by
// index. Parent back-references stay cheap and there is no pointer cycle
// between a parent and its children.
type node struct {
	board    [][]domain.PlayerID
	player   domain.PlayerID // player who made the move leading into this node
	move     int             // column of that move, -1 at the root
	parent   int32
	children []int32
	untried  []int
	visits   int
	score    float64
	terminal bool
	winner   domain.PlayerID // Empty means draw when terminal
}

type tree struct {
	nodes []node
}

func newTree(board [][]domain.PlayerID, opponent domain.PlayerID) *tree {
	t := &tree{nodes: make([]node, 0, 1024)}
	t.nodes = append(t.nodes, node{
		board:   domain.CopyBoard(board),
		player:  opponent, // the opponent "moved into" the root position
		move:    -1,
		parent:  -1,
		untried: domain.GetValidMoves(board),
	})
	return t
}

// selectNode descends from idx by UCB1 until it reaches a node that is
// terminal or still has untried moves. An unvisited child has infinite
// priority and is taken immediately.
func (t *tree) selectNode(idx int32, exploration float64) int32 {
	for {
		n := &t.nodes[idx]
		if n.terminal || len(n.untried) > 0 || len(n.children) == 0 {
			return idx
		}

		parentLog := math.Log(float64(n.visits))
		var best int32
		bestScore := math.Inf(-1)
		for _, childIdx := range n.children {
			child := &t.nodes[childIdx]
			if child.visits == 0 {
				best = childIdx
				bestScore = math.Inf(1)
				break
			}
			winRate := child.score / float64(child.visits)
			score := winRate + exploration*math.Sqrt(2*parentLog/float64(child.visits))
			if score > bestScore {
				bestScore = score
				best = childIdx
			}
		}
		idx = best
	}
}

// expand materializes one random untried move of idx and returns the new
// child's index. Terminal or fully expanded nodes are returned unchanged.
func (t *tree) expand(idx int32, rng *rand.Rand) int32 {
	n := &t.nodes[idx]
	if n.terminal || len(n.untried) == 0 {
		return idx
	}

	pick := rng.Intn(len(n.untried))
	column := n.untried[pick]
	n.untried[pick] = n.untried[len(n.untried)-1]
	n.untried = n.untried[:len(n.untried)-1]

	mover := domain.Opponent(n.player)
	childBoard, row, err := domain.SimulateMove(n.board, column, mover)
	if err != nil {
		// untried moves come from GetValidMoves, a full column here is a bug
		return idx
	}

	child := node{
		board:  childBoard,
		player: mover,
		move:   column,
		parent: idx,
	}
	if _, won := domain.CheckWin(childBoard, row, column, mover); won {
		child.terminal = true
		child.winner = mover
	} else if domain.IsBoardFull(childBoard) {
		child.terminal = true
	} else {
		child.untried = domain.GetValidMoves(childBoard)
	}

	childIdx := int32(len(t.nodes))
	t.nodes = append(t.nodes, child)
	// n may be stale after append, re-index before mutating
	t.nodes[idx].children = append(t.nodes[idx].children, childIdx)
	return childIdx
}

// backpropagate walks from idx to the root adding a visit everywhere. The
// scoring is relative to each node's own "player who just moved": a win
// for that player is a full point, a draw half a point, a loss nothing.
// This keeps UCB1 comparable across levels regardless of whose turn a
// node represents.
func (t *tree) backpropagate(idx int32, winner domain.PlayerID) {
	for idx >= 0 {
		n := &t.nodes[idx]
		n.visits++
		switch winner {
		case domain.Empty:
			n.score += 0.5
		case n.player:
			n.score += 1
		}
		idx = n.parent
	}
}
