package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/dropmind/backend/internal/domain"
)

// Strategy is the single seam between the game service and the move
// engines. SelectMove returns a playable column whenever one exists and -1
// only when the board is completely full. The mover is threaded into every
// call so swapping sides mid-session cannot leave stale engine state.
type Strategy interface {
	SelectMove(ctx context.Context, board [][]domain.PlayerID, mover domain.PlayerID) int
}

const (
	StrategyMCTS    = "mcts"
	StrategyQTable  = "qtable"
	StrategyAdvisor = "advisor"
)

// Config carries everything needed to build any of the strategies. It is
// resolved once per session, not consulted during search.
type Config struct {
	Strategy    string
	Simulations int
	TimeLimit   time.Duration
	Exploration float64

	QTablePath string
	Cache      CacheRepository

	AdvisorBaseURL string
	AdvisorAPIKey  string
	AdvisorModel   string
	AdvisorTimeout time.Duration
}

// New resolves the configured strategy name to an engine
func New(cfg Config) (Strategy, error) {
	switch cfg.Strategy {
	case StrategyMCTS, "":
		return NewMCTS(cfg.Simulations, cfg.TimeLimit, cfg.Exploration), nil
	case StrategyQTable:
		return NewQTable(cfg.QTablePath, cfg.Cache)
	case StrategyAdvisor:
		return NewAdvisor(cfg.AdvisorBaseURL, cfg.AdvisorAPIKey, cfg.AdvisorModel, cfg.AdvisorTimeout), nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", cfg.Strategy)
	}
}

// centerPreference is the shared degraded-mode move order: middle column
// first, then columns closer to the middle.
var centerPreference = [domain.Columns]int{2, 1, 3, 0, 4}

// preferredColumn returns the first legal column in center-preference
// order, or -1 on a full board. Every strategy falls back to this when its
// own source of moves is unavailable, so the game stays playable.
func preferredColumn(board [][]domain.PlayerID) int {
	for _, col := range centerPreference {
		if domain.IsValidMove(board, col) {
			return col
		}
	}
	return -1
}
